package consumer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"summarease/config"
	"summarease/domain"
	"summarease/driver"
	"summarease/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func testConfig() Config {
	return Config{
		StreamKey:     "test:jobs",
		DLQStreamKey:  "test:jobs:dlq",
		GroupName:     "test-workers",
		ConsumerName:  "worker-a",
		BlockTimeout:  10 * time.Millisecond,
		ClaimIdleTime: time.Millisecond,
		MaxDeliveries: 5,
	}
}

func setup(t *testing.T) (*redis.Client, *driver.RedisStreamDriver) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, driver.NewRedisStreamDriver(client, testConfig().StreamKey)
}

func pendingCount(t *testing.T, client *redis.Client, cfg Config) int64 {
	t.Helper()
	pending, err := client.XPending(context.Background(), cfg.StreamKey, cfg.GroupName).Result()
	require.NoError(t, err)
	return pending.Count
}

func TestConsumer_EnsureGroupIsIdempotent(t *testing.T) {
	client, _ := setup(t)
	c := NewConsumer(client, testConfig(), mocks.NewMockJobRunner(gomock.NewController(t)), testLogger())

	require.NoError(t, c.EnsureGroup(context.Background()))
	require.NoError(t, c.EnsureGroup(context.Background()))
}

func TestConsumer_ReadOnce(t *testing.T) {
	tests := map[string]struct {
		processErr  error
		wantDepth   int64
		wantPending int64
	}{
		"processed message is removed": {
			processErr: nil,
		},
		"unprocessable job is acknowledged": {
			processErr: domain.ErrJobNotFound,
		},
		"infrastructure fault leaves the message pending": {
			processErr:  errors.New("dial tcp: connection refused"),
			wantDepth:   1,
			wantPending: 1,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			client, queue := setup(t)
			runner := mocks.NewMockJobRunner(gomock.NewController(t))
			runner.EXPECT().Process(gomock.Any(), int64(42)).Return(tc.processErr)

			cfg := testConfig()
			c := NewConsumer(client, cfg, runner, testLogger())
			require.NoError(t, c.EnsureGroup(ctx))
			require.NoError(t, queue.Enqueue(ctx, 42))

			handled, err := c.ReadOnce(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, handled)

			depth, err := queue.Depth(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.wantDepth, depth)
			assert.Equal(t, tc.wantPending, pendingCount(t, client, cfg))
		})
	}
}

func TestConsumer_ReadOnceEmptyStream(t *testing.T) {
	client, _ := setup(t)
	c := NewConsumer(client, testConfig(), mocks.NewMockJobRunner(gomock.NewController(t)), testLogger())
	require.NoError(t, c.EnsureGroup(context.Background()))

	handled, err := c.ReadOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, handled)
}

func TestConsumer_ClaimStale(t *testing.T) {
	ctx := context.Background()
	client, queue := setup(t)
	cfg := testConfig()

	ctrl := gomock.NewController(t)
	crashed := mocks.NewMockJobRunner(ctrl)
	crashed.EXPECT().Process(gomock.Any(), int64(7)).Return(errors.New("connection reset by peer"))
	healthy := mocks.NewMockJobRunner(ctrl)
	healthy.EXPECT().Process(gomock.Any(), int64(7)).Return(nil)

	first := NewConsumer(client, cfg, crashed, testLogger())
	second := NewConsumer(client, cfg.WithConsumerName("worker-b"), healthy, testLogger())
	require.NoError(t, first.EnsureGroup(ctx))
	require.NoError(t, queue.Enqueue(ctx, 7))

	_, err := first.ReadOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), pendingCount(t, client, cfg))

	time.Sleep(10 * time.Millisecond)

	claimed, err := second.ClaimStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, claimed)
	assert.Equal(t, int64(0), pendingCount(t, client, cfg))
}

func TestConsumer_DeadLetter(t *testing.T) {
	ctx := context.Background()
	client, queue := setup(t)
	cfg := testConfig()
	cfg.MaxDeliveries = 1

	ctrl := gomock.NewController(t)
	runner := mocks.NewMockJobRunner(ctrl)
	gomock.InOrder(
		runner.EXPECT().Process(gomock.Any(), int64(9)).Return(errors.New("connection reset by peer")),
		runner.EXPECT().ForceFail(gomock.Any(), int64(9), gomock.Any()).Return(nil),
	)

	c := NewConsumer(client, cfg, runner, testLogger())
	require.NoError(t, c.EnsureGroup(ctx))
	require.NoError(t, queue.Enqueue(ctx, 9))

	_, err := c.ReadOnce(ctx)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = c.ClaimStale(ctx)
	require.NoError(t, err)

	depth, err := queue.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), depth)

	dead, err := client.XRange(ctx, cfg.DLQStreamKey, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "9", dead[0].Values[driver.JobIDField])
}

func TestConsumer_MalformedMessage(t *testing.T) {
	ctx := context.Background()
	client, _ := setup(t)
	cfg := testConfig()
	c := NewConsumer(client, cfg, mocks.NewMockJobRunner(gomock.NewController(t)), testLogger())
	require.NoError(t, c.EnsureGroup(ctx))

	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: cfg.StreamKey,
		Values: map[string]interface{}{"job_id": "not-a-number"},
	}).Err())

	_, err := c.ReadOnce(ctx)
	require.NoError(t, err)

	n, err := client.XLen(ctx, cfg.DLQStreamKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(0), pendingCount(t, client, cfg))
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.RedisConfig{
		StreamKey:     "s",
		DLQStreamKey:  "s:dlq",
		GroupName:     "g",
		BlockTimeout:  time.Second,
		MaxDeliveries: 5,
	}, config.ProcessorConfig{HardTimeout: 10 * time.Minute})

	// the owner's forced failure must finish before anyone reclaims
	assert.Greater(t, cfg.ClaimIdleTime, 10*time.Minute+config.FinalizeTimeout)
	assert.Regexp(t, `^worker-[0-9a-f]{8}$`, cfg.ConsumerName)
}
