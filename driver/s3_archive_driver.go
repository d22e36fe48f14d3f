package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"summarease/config"
	"summarease/domain"
)

// ErrArchiveObjectNotFound is returned by Get for a missing key.
var ErrArchiveObjectNotFound = errors.New("archive object not found")

// ArchiveKey builds summaries/{id}/{unix}_{uuid8}.json.
func ArchiveKey(jobID int64, now time.Time) string {
	return fmt.Sprintf("summaries/%d/%d_%s.json", jobID, now.Unix(), uuid.NewString()[:8])
}

// NewS3Client builds an S3 client from the archive configuration. Static
// credentials are used when both keys are set, otherwise the default chain.
func NewS3Client(ctx context.Context, cfg config.ArchiveConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// S3ArchiveDriver stores summary documents as JSON objects in one bucket.
type S3ArchiveDriver struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	now     func() time.Time
}

func NewS3ArchiveDriver(client *s3.Client, bucket string) *S3ArchiveDriver {
	return &S3ArchiveDriver{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		now:     time.Now,
	}
}

// Put uploads body under a fresh key for jobID and returns the key.
func (d *S3ArchiveDriver) Put(ctx context.Context, jobID int64, body []byte) (string, error) {
	key := ArchiveKey(jobID, d.now())
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put archive object %s: %w", key, err)
	}
	return key, nil
}

func (d *S3ArchiveDriver) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: %s", ErrArchiveObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to get archive object %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive object %s: %w", key, err)
	}
	return data, nil
}

// Delete removes key. S3 deletes are idempotent, so a missing key also
// reports true.
func (d *S3ArchiveDriver) Delete(ctx context.Context, key string) (bool, error) {
	_, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete archive object %s: %w", key, err)
	}
	return true, nil
}

// Presign returns a GET URL for key valid for ttl.
func (d *S3ArchiveDriver) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := d.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign archive object %s: %w", key, err)
	}
	return req.URL, nil
}

// DisabledArchive is used when no bucket is configured.
type DisabledArchive struct{}

func (DisabledArchive) Put(context.Context, int64, []byte) (string, error) {
	return "", domain.ErrArchiveDisabled
}

func (DisabledArchive) Get(context.Context, string) ([]byte, error) {
	return nil, domain.ErrArchiveDisabled
}

func (DisabledArchive) Delete(context.Context, string) (bool, error) {
	return false, domain.ErrArchiveDisabled
}

func (DisabledArchive) Presign(context.Context, string, time.Duration) (string, error) {
	return "", domain.ErrArchiveDisabled
}
