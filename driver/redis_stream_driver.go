package driver

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"summarease/domain"
)

// JobIDField is the only field of a queue message. Workers re-fetch all
// other job state from the store.
const JobIDField = "job_id"

// NewRedisClient creates a client from a redis:// URL and pings it.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// RedisStreamDriver publishes job ids to a Redis Stream.
type RedisStreamDriver struct {
	client *redis.Client
	stream string
}

func NewRedisStreamDriver(client *redis.Client, stream string) *RedisStreamDriver {
	return &RedisStreamDriver{client: client, stream: stream}
}

// Enqueue appends {job_id} to the stream.
func (d *RedisStreamDriver) Enqueue(ctx context.Context, jobID int64) error {
	_, err := d.client.XAdd(ctx, &redis.XAddArgs{
		Stream: d.stream,
		Values: map[string]interface{}{JobIDField: strconv.FormatInt(jobID, 10)},
	}).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
	}
	return nil
}

// Depth returns the number of messages not yet acknowledged and removed.
func (d *RedisStreamDriver) Depth(ctx context.Context) (int64, error) {
	n, err := d.client.XLen(ctx, d.stream).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue depth: %w", err)
	}
	return n, nil
}

// Ping checks if Redis is available.
func (d *RedisStreamDriver) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

// ParseJobID extracts the job id from a stream message.
func ParseJobID(values map[string]interface{}) (int64, error) {
	raw, ok := values[JobIDField].(string)
	if !ok {
		return 0, fmt.Errorf("message has no %s field", JobIDField)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", JobIDField, raw, err)
	}
	return id, nil
}
