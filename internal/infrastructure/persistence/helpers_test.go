package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

// setupTestDB opens a migrated in-memory sqlite database on a single connection
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(SQLiteDSN(":memory:")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedProductUnsaved(t *testing.T, sku string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, sku+" product", "pcs", catalog.Prices{Retail: dec("2.5")}, testNow)
	require.NoError(t, err)
	return p
}

func seedProduct(t *testing.T, db *gorm.DB, sku string) *catalog.Product {
	t.Helper()
	p := seedProductUnsaved(t, sku)
	require.NoError(t, NewGormProductRepository(db).Save(context.Background(), p))
	return p
}
