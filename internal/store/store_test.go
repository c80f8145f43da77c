package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/telemetry"
)

// flexibleSQLMatcher creates a regex that is insensitive to whitespace for more robust SQL mock testing.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	mockPool.ExpectPing()
	s, err := New(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)
	return s, mockPool
}

func record(tick int) telemetry.Record {
	return telemetry.Record{RunID: "run", Robot: "R0", Tick: tick, SimTime: 1, X: 0.5, Y: 0.7, Mode: "exact", Class: 1, Raw: 1}
}

func TestNewStore(t *testing.T) {
	t.Run("should return error if ping fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err = New(context.Background(), mockPool, zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, pingErr, "Error from ping should be propagated")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestEnsureSchema(t *testing.T) {
	s, mockPool := newMockStore(t)

	mockPool.ExpectExec(flexibleSQLMatcher(schemaSQL)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	require.NoError(t, s.EnsureSchema(context.Background()))

	mockPool.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))
	err := s.EnsureSchema(context.Background())
	assert.ErrorContains(t, err, "failed to create samples table")

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRecord_FlushesFullBatch(t *testing.T) {
	s, mockPool := newMockStore(t)
	s.SetBatchSize(2)

	require.NoError(t, s.Record(context.Background(), record(1)))
	assert.Equal(t, 1, s.Pending(), "first record is buffered")

	mockPool.ExpectCopyFrom(pgx.Identifier{"samples"}, sampleColumns).WillReturnResult(2)
	require.NoError(t, s.Record(context.Background(), record(2)))
	assert.Equal(t, 0, s.Pending())

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestFlush(t *testing.T) {
	t.Run("empty buffer does not touch the database", func(t *testing.T) {
		s, mockPool := newMockStore(t)
		require.NoError(t, s.Flush(context.Background()))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("count mismatch is an error", func(t *testing.T) {
		s, mockPool := newMockStore(t)
		require.NoError(t, s.Record(context.Background(), record(1)))
		require.NoError(t, s.Record(context.Background(), record(2)))

		mockPool.ExpectCopyFrom(pgx.Identifier{"samples"}, sampleColumns).WillReturnResult(1)
		err := s.Flush(context.Background())
		assert.ErrorContains(t, err, "mismatch in copied samples count")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("copy failure is wrapped", func(t *testing.T) {
		s, mockPool := newMockStore(t)
		require.NoError(t, s.Record(context.Background(), record(1)))

		copyErr := errors.New("connection reset")
		mockPool.ExpectCopyFrom(pgx.Identifier{"samples"}, sampleColumns).WillReturnError(copyErr)
		err := s.Flush(context.Background())
		assert.ErrorIs(t, err, copyErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestStore_IsRecorder(t *testing.T) {
	var _ telemetry.Recorder = (*Store)(nil)
}
