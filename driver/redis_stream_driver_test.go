package driver

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"summarease/domain"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStreamDriver_Enqueue(t *testing.T) {
	_, client := newTestRedis(t)
	d := NewRedisStreamDriver(client, "test:jobs")
	ctx := context.Background()

	require.NoError(t, d.Enqueue(ctx, 42))
	require.NoError(t, d.Enqueue(ctx, 43))

	depth, err := d.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), depth)

	msgs, err := client.XRange(ctx, "test:jobs", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, map[string]interface{}{JobIDField: "42"}, msgs[0].Values)
}

func TestRedisStreamDriver_EnqueueUnavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	d := NewRedisStreamDriver(client, "test:jobs")
	mr.Close()

	err := d.Enqueue(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQueueUnavailable)
	assert.Error(t, d.Ping(context.Background()))
}

func TestNewRedisClient(t *testing.T) {
	mr, _ := newTestRedis(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	_, err = NewRedisClient(context.Background(), "://bad")
	assert.Error(t, err)
}

func TestParseJobID(t *testing.T) {
	tests := map[string]struct {
		values  map[string]interface{}
		want    int64
		wantErr bool
	}{
		"valid":         {values: map[string]interface{}{JobIDField: "17"}, want: 17},
		"missing field": {values: map[string]interface{}{}, wantErr: true},
		"not a number":  {values: map[string]interface{}{JobIDField: "abc"}, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseJobID(tc.values)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
