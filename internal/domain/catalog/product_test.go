package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)

func prices(retail, wholesale string) Prices {
	return Prices{
		Retail:    decimal.RequireFromString(retail),
		Wholesale: decimal.RequireFromString(wholesale),
	}
}

func TestNewProduct(t *testing.T) {
	p, err := NewProduct(" milk-1l ", "Fresh milk 1L", "btl", prices("2.50", "2.25"), now)
	require.NoError(t, err)

	assert.Equal(t, "MILK-1L", p.SKU)
	assert.True(t, p.IsActive)
	assert.True(t, p.StockQty.IsZero())
	assert.Equal(t, 1, p.Version)
}

func TestNewProduct_Validation(t *testing.T) {
	tests := []struct {
		name  string
		sku   string
		pname string
		unit  string
		p     Prices
	}{
		{"empty sku", "", "Milk", "btl", prices("1", "1")},
		{"empty name", "MILK", " ", "btl", prices("1", "1")},
		{"empty unit", "MILK", "Milk", "", prices("1", "1")},
		{"negative price", "MILK", "Milk", "btl", prices("-1", "1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProduct(tt.sku, tt.pname, tt.unit, tt.p, now)
			assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		})
	}
}

func TestPriceFor(t *testing.T) {
	p, err := NewProduct("EGG", "Eggs", "tray", prices("4.00", "3.50"), now)
	require.NoError(t, err)

	assert.True(t, p.PriceFor(PriceTierRetail).Equal(decimal.RequireFromString("4")))
	assert.True(t, p.PriceFor(PriceTierWholesale).Equal(decimal.RequireFromString("3.5")))
	assert.True(t, p.PriceFor(PriceTierCredit).Equal(decimal.RequireFromString("4")), "unset tier falls back to retail")
	assert.True(t, p.PriceFor("").Equal(decimal.RequireFromString("4")))
}

func TestEnsureSellable(t *testing.T) {
	p, err := NewProduct("EGG", "Eggs", "tray", prices("4", "0"), now)
	require.NoError(t, err)
	require.NoError(t, p.EnsureSellable())

	p.Deactivate(now.Add(time.Minute))
	err = p.EnsureSellable()
	assert.True(t, errors.Is(err, shared.ErrProductInactive))
	assert.Equal(t, 2, p.Version)

	p.Activate(now.Add(2 * time.Minute))
	assert.NoError(t, p.EnsureSellable())
}
