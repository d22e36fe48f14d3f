package driver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"summarease/domain"
)

// fakeS3 serves path-style object requests from memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/archive-bucket/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestS3Driver(t *testing.T) (*S3ArchiveDriver, *fakeS3) {
	t.Helper()

	fake := &fakeS3{objects: map[string][]byte{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("AKID", "SECRET", ""),
		BaseEndpoint: aws.String(server.URL),
		UsePathStyle: true,
		HTTPClient:   server.Client(),
	})
	return NewS3ArchiveDriver(client, "archive-bucket"), fake
}

func TestArchiveKey(t *testing.T) {
	now := time.Unix(1700000000, 0)
	key := ArchiveKey(42, now)

	assert.Regexp(t, regexp.MustCompile(`^summaries/42/1700000000_[0-9a-f-]{8}\.json$`), key)
	assert.NotEqual(t, key, ArchiveKey(42, now))
}

func TestS3ArchiveDriver_RoundTrip(t *testing.T) {
	d, fake := newTestS3Driver(t)
	d.now = func() time.Time { return time.Unix(1700000000, 0) }
	ctx := context.Background()

	key, err := d.Put(ctx, 7, []byte(`{"summary":"short"}`))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "summaries/7/1700000000_"))
	assert.Contains(t, fake.objects, key)

	body, err := d.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"short"}`, string(body))

	deleted, err := d.Delete(ctx, key)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NotContains(t, fake.objects, key)
}

func TestS3ArchiveDriver_GetMissing(t *testing.T) {
	d, _ := newTestS3Driver(t)

	_, err := d.Get(context.Background(), "summaries/1/missing.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArchiveObjectNotFound)
}

func TestS3ArchiveDriver_Presign(t *testing.T) {
	d, _ := newTestS3Driver(t)

	url, err := d.Presign(context.Background(), "summaries/1/1_abcd1234.json", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, "/archive-bucket/summaries/1/1_abcd1234.json")
	assert.Contains(t, url, "X-Amz-Expires=3600")
}

func TestDisabledArchive(t *testing.T) {
	var d DisabledArchive
	ctx := context.Background()

	_, err := d.Put(ctx, 1, nil)
	assert.ErrorIs(t, err, domain.ErrArchiveDisabled)
	_, err = d.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrArchiveDisabled)
	ok, err := d.Delete(ctx, "k")
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrArchiveDisabled)
	_, err = d.Presign(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, domain.ErrArchiveDisabled)
}
