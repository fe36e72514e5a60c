package sequence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func newBunDB(t *testing.T) (*bun.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })
	return bun.NewDB(sqldb, pgdialect.New()), mock
}

func TestAllocator_Next(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	t.Run("FirstOfDayIsOne", func(t *testing.T) {
		db, mock := newBunDB(t)
		alloc := NewAllocator()

		mock.ExpectQuery("INSERT INTO daily_sequences").
			WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(1))

		seq, err := alloc.Next(ctx, db, day)
		require.NoError(t, err)
		assert.Equal(t, 1, seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Increments", func(t *testing.T) {
		db, mock := newBunDB(t)
		alloc := NewAllocator()

		mock.ExpectQuery("INSERT INTO daily_sequences").
			WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(41))
		mock.ExpectQuery("INSERT INTO daily_sequences").
			WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(42))

		seq, err := alloc.Next(ctx, db, day)
		require.NoError(t, err)
		assert.Equal(t, 41, seq)

		seq, err = alloc.Next(ctx, db, day)
		require.NoError(t, err)
		assert.Equal(t, 42, seq)
	})

	t.Run("Error", func(t *testing.T) {
		db, mock := newBunDB(t)
		alloc := NewAllocator()

		mock.ExpectQuery("INSERT INTO daily_sequences").
			WillReturnError(errors.New("connection reset"))

		_, err := alloc.Next(ctx, db, day)
		assert.Error(t, err)
	})
}
