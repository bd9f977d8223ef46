package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[uuid.UUID]*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByBarcode(ctx context.Context, barcode string) (*catalog.Product, error) {
	args := m.Called(ctx, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) AdjustStockQty(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *MockProductRepository) DecrementStockGuarded(ctx context.Context, id uuid.UUID, qty decimal.Decimal) (bool, error) {
	args := m.Called(ctx, id, qty)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) SetStockQty(ctx context.Context, id uuid.UUID, qty decimal.Decimal) error {
	args := m.Called(ctx, id, qty)
	return args.Error(0)
}

var testNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func newTestService(repo *MockProductRepository) *ProductService {
	return NewProductService(repo, func() time.Time { return testNow }, nil)
}

func manager() identity.Actor {
	return identity.NewActor(uuid.New(), "budi", identity.RoleManager)
}

func cashier() identity.Actor {
	return identity.NewActor(uuid.New(), "ana", identity.RoleCashier)
}

func existingProduct(t *testing.T, sku string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, "Rice 5kg", "bag", catalog.Prices{Retail: decimal.NewFromInt(12)}, testNow)
	require.NoError(t, err)
	return p
}

func TestProductService_Create(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("FindBySKU", ctx, "rice-5").Return(nil, shared.ErrProductNotFound)
	repo.On("FindByBarcode", ctx, "8991234567890").Return(nil, shared.ErrProductNotFound)
	repo.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).Return(nil)

	resp, err := svc.Create(ctx, CreateProductRequest{
		SKU:     "rice-5",
		Barcode: "8991234567890",
		Name:    "Rice 5kg",
		NameAlt: "Beras 5kg",
		Unit:    "bag",
		Prices:  PricesInput{Retail: decimal.RequireFromString("12.50"), Wholesale: decimal.NewFromInt(11)},
		Actor:   manager(),
	})
	require.NoError(t, err)

	assert.Equal(t, "RICE-5", resp.SKU)
	assert.Equal(t, "8991234567890", resp.Barcode)
	assert.Equal(t, "Beras 5kg", resp.NameAlt)
	assert.True(t, resp.IsActive)
	assert.True(t, resp.StockQty.IsZero())
	assert.True(t, decimal.RequireFromString("12.5").Equal(resp.Prices.Retail))
	repo.AssertExpectations(t)
}

func TestProductService_Create_DuplicateSKU(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("FindBySKU", ctx, "RICE-5").Return(existingProduct(t, "RICE-5"), nil)

	_, err := svc.Create(ctx, CreateProductRequest{SKU: "RICE-5", Name: "Rice", Unit: "bag", Actor: manager()})
	assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProductService_Create_RequiresCatalogPermission(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateProductRequest{SKU: "X", Name: "X", Unit: "pcs", Actor: cashier()})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
	repo.AssertExpectations(t)
}

func TestProductService_Create_RejectsNegativePrice(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newTestService(repo)
	ctx := context.Background()
	repo.On("FindBySKU", ctx, "EGG").Return(nil, shared.ErrProductNotFound)

	_, err := svc.Create(ctx, CreateProductRequest{
		SKU: "EGG", Name: "Egg", Unit: "pcs",
		Prices: PricesInput{Retail: decimal.NewFromInt(-1)},
		Actor:  manager(),
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestProductService_Update(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newTestService(repo)
	ctx := context.Background()
	product := existingProduct(t, "RICE-5")

	newName := "Premium Rice 5kg"
	barcode := "8990000000001"
	repo.On("FindByID", ctx, product.ID).Return(product, nil)
	repo.On("FindByBarcode", ctx, barcode).Return(nil, shared.ErrProductNotFound)
	repo.On("Save", ctx, product).Return(nil)

	resp, err := svc.Update(ctx, UpdateProductRequest{
		ProductID: product.ID,
		Name:      &newName,
		Barcode:   &barcode,
		Prices:    &PricesInput{Retail: decimal.NewFromInt(14)},
		Actor:     manager(),
	})
	require.NoError(t, err)
	assert.Equal(t, newName, resp.Name)
	assert.Equal(t, barcode, resp.Barcode)
	assert.True(t, decimal.NewFromInt(14).Equal(resp.Prices.Retail))
	assert.Greater(t, resp.Version, 1)
	repo.AssertExpectations(t)
}

func TestProductService_Update_BarcodeTaken(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newTestService(repo)
	ctx := context.Background()
	product := existingProduct(t, "RICE-5")
	other := existingProduct(t, "SUGAR-1")

	barcode := "8990000000001"
	repo.On("FindByID", ctx, product.ID).Return(product, nil)
	repo.On("FindByBarcode", ctx, barcode).Return(other, nil)

	_, err := svc.Update(ctx, UpdateProductRequest{ProductID: product.ID, Barcode: &barcode, Actor: manager()})
	assert.ErrorIs(t, err, shared.ErrConstraintViolation)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProductService_SetActive(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newTestService(repo)
	ctx := context.Background()
	product := existingProduct(t, "RICE-5")

	repo.On("FindByID", ctx, product.ID).Return(product, nil)
	repo.On("Save", ctx, product).Return(nil).Once()

	resp, err := svc.SetActive(ctx, SetActiveRequest{ProductID: product.ID, Active: false, Actor: manager()})
	require.NoError(t, err)
	assert.False(t, resp.IsActive)

	// already inactive: no write
	resp, err = svc.SetActive(ctx, SetActiveRequest{ProductID: product.ID, Active: false, Actor: manager()})
	require.NoError(t, err)
	assert.False(t, resp.IsActive)
	repo.AssertNumberOfCalls(t, "Save", 1)
}

func TestProductService_Lookup(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newTestService(repo)
	ctx := context.Background()
	product := existingProduct(t, "RICE-5")

	repo.On("FindByBarcode", ctx, "899").Return(product, nil)
	repo.On("FindBySKU", ctx, "rice-5").Return(product, nil)

	resp, err := svc.Lookup(ctx, cashier(), LookupQuery{Barcode: "899", SKU: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, product.ID, resp.ID)

	resp, err = svc.Lookup(ctx, cashier(), LookupQuery{SKU: "rice-5"})
	require.NoError(t, err)
	assert.Equal(t, "RICE-5", resp.SKU)

	_, err = svc.Lookup(ctx, cashier(), LookupQuery{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.Lookup(ctx, identity.Actor{}, LookupQuery{SKU: "rice-5"})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestProductService_List(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("FindAll", ctx).Return([]catalog.Product{*existingProduct(t, "A"), *existingProduct(t, "B")}, nil)

	list, err := svc.List(ctx, cashier())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].SKU)
}
