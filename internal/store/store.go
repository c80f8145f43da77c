package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/telemetry"
)

// DefaultBatchSize is how many records are buffered before a COPY.
const DefaultBatchSize = 256

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS samples (
    run_id      TEXT             NOT NULL,
    robot       TEXT             NOT NULL,
    tick        INTEGER          NOT NULL,
    sim_time    DOUBLE PRECISION NOT NULL,
    x           DOUBLE PRECISION NOT NULL,
    y           DOUBLE PRECISION NOT NULL,
    mode        TEXT             NOT NULL,
    class       SMALLINT         NOT NULL,
    raw         DOUBLE PRECISION NOT NULL,
    recorded_at TIMESTAMPTZ      NOT NULL
);`

var sampleColumns = []string{"run_id", "robot", "tick", "sim_time", "x", "y", "mode", "class", "raw", "recorded_at"}

// Store buffers sample records and writes them to PostgreSQL with COPY.
// It implements telemetry.Recorder.
type Store struct {
	pool      DBPool
	log       *zap.Logger
	batchSize int

	mu  sync.Mutex
	buf [][]any
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool:      pool,
		log:       logger.Named("store"),
		batchSize: DefaultBatchSize,
	}, nil
}

// Connect opens a pgx pool for url and wraps it in a Store. The returned
// close function flushes pending records before closing the pool.
func Connect(ctx context.Context, url string, logger *zap.Logger) (*Store, func(), error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	s, err := New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	closeFn := func() {
		// The run context may already be cancelled at shutdown.
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Flush(flushCtx); err != nil {
			s.log.Error("Failed to flush samples on close", zap.Error(err))
		}
		pool.Close()
	}
	return s, closeFn, nil
}

// SetBatchSize changes the flush threshold. Values below 1 flush every record.
func (s *Store) SetBatchSize(n int) {
	if n < 1 {
		n = 1
	}
	s.mu.Lock()
	s.batchSize = n
	s.mu.Unlock()
}

// EnsureSchema creates the samples table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create samples table: %w", err)
	}
	return nil
}

// Record buffers one sample and flushes once the batch is full.
func (s *Store) Record(ctx context.Context, r telemetry.Record) error {
	s.mu.Lock()
	s.buf = append(s.buf, []any{
		r.RunID, r.Robot, r.Tick, r.SimTime,
		r.X, r.Y, r.Mode, r.Class, r.Raw,
		time.Now().UTC(),
	})
	full := len(s.buf) >= s.batchSize
	s.mu.Unlock()

	if full {
		return s.Flush(ctx)
	}
	return nil
}

// Flush copies every buffered record into the samples table.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	rows := s.buf
	s.buf = nil
	s.mu.Unlock()

	if len(rows) == 0 {
		return nil
	}

	copyCount, err := s.pool.CopyFrom(ctx, pgx.Identifier{"samples"}, sampleColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy samples: %w", err)
	}
	if int(copyCount) != len(rows) {
		return fmt.Errorf("mismatch in copied samples count: expected %d, got %d", len(rows), copyCount)
	}
	s.log.Debug("Flushed samples", zap.Int("count", len(rows)))
	return nil
}

// Pending returns the number of buffered records.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}
