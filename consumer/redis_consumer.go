// Package consumer reads job ids from the Redis Stream work queue and hands
// them to the job processor.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"summarease/config"
	"summarease/domain"
	"summarease/driver"
	"summarease/metrics"
	"summarease/service"
)

// Config holds consumer configuration.
type Config struct {
	// StreamKey is the Redis Stream key to consume from.
	StreamKey string
	// DLQStreamKey receives messages delivered more than MaxDeliveries times.
	DLQStreamKey string
	// GroupName is the consumer group name.
	GroupName string
	// ConsumerName is this consumer's name within the group.
	ConsumerName string
	// BlockTimeout is how long to block waiting for messages.
	BlockTimeout time.Duration
	// ClaimIdleTime is how long a message may stay unacknowledged before
	// another consumer takes it over.
	ClaimIdleTime time.Duration
	// MaxDeliveries bounds redelivery of a single message.
	MaxDeliveries int64
}

// ConfigFrom derives the consumer config. Messages are reclaimed only after
// their owner has had time to settle the job, forced failure included.
func ConfigFrom(cfg config.RedisConfig, processor config.ProcessorConfig) Config {
	name := cfg.ConsumerName
	if name == "" {
		name = "worker-" + uuid.NewString()[:8]
	}
	return Config{
		StreamKey:     cfg.StreamKey,
		DLQStreamKey:  cfg.DLQStreamKey,
		GroupName:     cfg.GroupName,
		ConsumerName:  name,
		BlockTimeout:  cfg.BlockTimeout,
		ClaimIdleTime: processor.StaleAfter(),
		MaxDeliveries: cfg.MaxDeliveries,
	}
}

// WithConsumerName returns a copy of the config for another consumer.
func (c Config) WithConsumerName(name string) Config {
	c.ConsumerName = name
	return c
}

// Consumer consumes job ids from Redis Streams.
type Consumer struct {
	client *redis.Client
	config Config
	runner service.JobRunner
	logger *slog.Logger
}

func NewConsumer(client *redis.Client, config Config, runner service.JobRunner, logger *slog.Logger) *Consumer {
	return &Consumer{
		client: client,
		config: config,
		runner: runner,
		logger: logger.With("consumer", config.ConsumerName),
	}
}

// EnsureGroup creates the consumer group and the stream if they don't exist.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.config.StreamKey, c.config.GroupName, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// Run reads and processes messages until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.InfoContext(ctx, "starting consumer",
		"stream", c.config.StreamKey,
		"group", c.config.GroupName)

	for {
		if ctx.Err() != nil {
			c.logger.InfoContext(ctx, "consumer context cancelled, stopping")
			return nil
		}

		if _, err := c.ReadOnce(ctx); err != nil && ctx.Err() == nil {
			metrics.RecordError("queue_read", "redis")
			c.logger.ErrorContext(ctx, "error reading from stream", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// ReadOnce blocks for at most BlockTimeout for a new message and processes
// it. It returns the number of messages handled.
func (c *Consumer) ReadOnce(ctx context.Context) (int, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.config.GroupName,
		Consumer: c.config.ConsumerName,
		Streams:  []string{c.config.StreamKey, ">"},
		Count:    1,
		Block:    c.config.BlockTimeout,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	handled := 0
	for _, stream := range streams {
		for _, message := range stream.Messages {
			c.handle(ctx, message)
			handled++
		}
	}
	return handled, nil
}

// ClaimStale takes over messages that another consumer left unacknowledged
// for longer than ClaimIdleTime and processes them.
func (c *Consumer) ClaimStale(ctx context.Context) (int, error) {
	messages, _, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   c.config.StreamKey,
		Group:    c.config.GroupName,
		Consumer: c.config.ConsumerName,
		MinIdle:  c.config.ClaimIdleTime,
		Start:    "0-0",
		Count:    10,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to claim idle messages: %w", err)
	}

	for _, message := range messages {
		c.logger.WarnContext(ctx, "reclaimed idle message", "message_id", message.ID)
		c.handle(ctx, message)
	}
	return len(messages), nil
}

func (c *Consumer) handle(ctx context.Context, message redis.XMessage) {
	jobID, err := driver.ParseJobID(message.Values)
	if err != nil {
		c.logger.ErrorContext(ctx, "dropping malformed message", "message_id", message.ID, "error", err)
		c.deadLetter(ctx, message, "", err.Error())
		return
	}

	deliveries, err := c.deliveryCount(ctx, message.ID)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to read delivery count", "message_id", message.ID, "error", err)
	}
	if deliveries > c.config.MaxDeliveries {
		reason := fmt.Sprintf("queue delivery attempts exhausted after %d deliveries", deliveries)
		if err := c.runner.ForceFail(ctx, jobID, reason); err != nil {
			c.logger.ErrorContext(ctx, "failed to fail dead-lettered job", "job_id", jobID, "error", err)
			return
		}
		c.deadLetter(ctx, message, strconv.FormatInt(jobID, 10), reason)
		return
	}

	err = c.runner.Process(ctx, jobID)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		// left pending for redelivery
		return
	case domain.IsInfrastructureFault(err):
		metrics.RecordError("queue_process", "infrastructure")
		c.logger.ErrorContext(ctx, "job processing failed, leaving message pending",
			"job_id", jobID,
			"message_id", message.ID,
			"deliveries", deliveries,
			"error", err)
		return
	default:
		c.logger.WarnContext(ctx, "job cannot be processed, acknowledging",
			"job_id", jobID,
			"message_id", message.ID,
			"error", err)
	}

	if err := c.ack(ctx, message.ID); err != nil {
		c.logger.ErrorContext(ctx, "failed to acknowledge message", "message_id", message.ID, "error", err)
	}
}

func (c *Consumer) deliveryCount(ctx context.Context, id string) (int64, error) {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.config.StreamKey,
		Group:  c.config.GroupName,
		Start:  id,
		End:    id,
		Count:  1,
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}
	return pending[0].RetryCount, nil
}

// ack acknowledges and deletes the message, so the stream length equals the
// number of jobs still waiting or in flight.
func (c *Consumer) ack(ctx context.Context, id string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAck(ctx, c.config.StreamKey, c.config.GroupName, id)
		pipe.XDel(ctx, c.config.StreamKey, id)
		return nil
	})
	return err
}

func (c *Consumer) deadLetter(ctx context.Context, message redis.XMessage, jobID, reason string) {
	metrics.RecordError("queue_dead_letter", "delivery")
	err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.config.DLQStreamKey,
		Values: map[string]interface{}{
			driver.JobIDField: jobID,
			"message_id":      message.ID,
			"reason":          reason,
		},
	}).Err()
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to write dead letter", "message_id", message.ID, "error", err)
		return
	}
	if err := c.ack(ctx, message.ID); err != nil {
		c.logger.ErrorContext(ctx, "failed to acknowledge dead-lettered message", "message_id", message.ID, "error", err)
	}
	c.logger.WarnContext(ctx, "message moved to dead letter stream",
		"message_id", message.ID,
		"job_id", jobID,
		"reason", reason)
}
