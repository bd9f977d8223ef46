package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/grocerypos/backend/internal/infrastructure/config"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", SQLiteDSN(""))
	assert.Equal(t, "pos.db?cache=shared&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", SQLiteDSN("pos.db?cache=shared"))
}

func TestNewDatabase(t *testing.T) {
	t.Run("opens sqlite", func(t *testing.T) {
		db, err := NewDatabase(&config.DatabaseConfig{Driver: DriverSQLite, SQLitePath: ":memory:"})
		require.NoError(t, err)
		defer db.Close()

		assert.Equal(t, DriverSQLite, db.Driver())
		require.NoError(t, db.Ping())
		stats, err := db.Stats()
		require.NoError(t, err)
		assert.Equal(t, 1, stats.MaxOpenConnections)
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		_, err := NewDatabase(&config.DatabaseConfig{Driver: "oracle"})
		assert.Error(t, err)
	})
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want *shared.DomainError
	}{
		{"not found", gorm.ErrRecordNotFound, shared.ErrNotFound},
		{"duplicate", gorm.ErrDuplicatedKey, shared.ErrConstraintViolation},
		{"foreign key", gorm.ErrForeignKeyViolated, shared.ErrConstraintViolation},
		{"serialization failure", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"}), shared.ErrConcurrencyConflict},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, shared.ErrConcurrencyConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(translateError(tt.err, "op"), tt.want))
		})
	}

	assert.Nil(t, translateError(nil, "op"))
	plain := errors.New("disk full")
	wrapped := translateError(plain, "save")
	assert.ErrorIs(t, wrapped, plain)
	assert.Equal(t, "save: disk full", wrapped.Error())
}

// newMockProductRepository creates a GormProductRepository over a mocked postgres connection
func newMockProductRepository(t *testing.T) (*GormProductRepository, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewGormProductRepository(gormDB), mock
}

func TestGormProductRepository_DecrementStockGuarded_SQL(t *testing.T) {
	repo, mock := newMockProductRepository(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE "products" SET "stock_qty"=stock_qty - \$1,"updated_at"=\$2 WHERE id = \$3 AND stock_qty >= \$4`).
		WithArgs(dec("2"), sqlmock.AnyArg(), id, dec("2")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.DecrementStockGuarded(t.Context(), id, dec("2"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
