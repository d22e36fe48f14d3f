package driver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"summarease/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const queryDurationThreshold = 100 * time.Millisecond

// PgxIface is the subset of *pgxpool.Pool the repositories use. pgxmock
// pools satisfy it too.
type PgxIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// InitPool opens and pings the Postgres pool.
func InitPool(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.InfoContext(ctx, "database configuration",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Name,
		"sslmode", cfg.SSLMode,
		"max_conns", cfg.MaxConns)

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		logger.ErrorContext(ctx, "failed to parse database config", "error", err)
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.ConnConfig.Tracer = NewQueryTracer(logger)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.ErrorContext(ctx, "failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		logger.ErrorContext(ctx, "failed to ping database", "error", err, "sslmode", cfg.SSLMode)
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.InfoContext(ctx, "connected to database pool",
		"max_conns", poolConfig.MaxConns,
		"min_conns", poolConfig.MinConns)

	return pool, nil
}

type queryStartKey struct{}

// QueryTracer logs statements slower than queryDurationThreshold.
type QueryTracer struct {
	logger    *slog.Logger
	threshold time.Duration
}

func NewQueryTracer(logger *slog.Logger) *QueryTracer {
	return &QueryTracer{logger: logger, threshold: queryDurationThreshold}
}

func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, time.Now())
}

func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	queryStart, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}

	duration := time.Since(queryStart)
	if data.Err != nil {
		t.logger.DebugContext(ctx, "query failed", "error", data.Err, "query_duration_ms", duration.Milliseconds())
		return
	}
	if duration > t.threshold {
		t.logger.InfoContext(ctx, "slow query executed",
			"command", data.CommandTag.String(),
			"query_duration_ms", duration.Milliseconds())
	}
}
