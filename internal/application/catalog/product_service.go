package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	appshared "github.com/grocerypos/backend/internal/application/shared"
	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductService handles product master data. Stock quantities are never
// written here; they only move through the stock ledger.
type ProductService struct {
	productRepo catalog.ProductRepository
	clock       shared.Clock
	logger      *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, clock shared.Clock, logger *zap.Logger) *ProductService {
	if clock == nil {
		clock = shared.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{productRepo: productRepo, clock: clock, logger: logger}
}

// Create creates a new active product with zero stock
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if err := appshared.RequirePermission(req.Actor, identity.PermCatalogManage); err != nil {
		return nil, err
	}
	if err := s.ensureSKUFree(ctx, req.SKU); err != nil {
		return nil, err
	}
	if err := s.ensureBarcodeFree(ctx, req.Barcode, uuid.Nil); err != nil {
		return nil, err
	}

	now := s.clock()
	product, err := catalog.NewProduct(req.SKU, req.Name, req.Unit, req.Prices.toDomain(), now)
	if err != nil {
		return nil, err
	}
	if req.NameAlt != "" {
		if err := product.Rename(product.Name, req.NameAlt, now); err != nil {
			return nil, err
		}
	}
	if req.Barcode != "" {
		if err := product.SetBarcode(req.Barcode, now); err != nil {
			return nil, err
		}
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
		zap.String("request_id", req.RequestID))
	resp := ToProductResponse(product)
	return &resp, nil
}

// Update changes a product's names, barcode and prices
func (s *ProductService) Update(ctx context.Context, req UpdateProductRequest) (*ProductResponse, error) {
	if err := appshared.RequirePermission(req.Actor, identity.PermCatalogManage); err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if req.Name != nil || req.NameAlt != nil {
		name, alt := product.Name, product.NameAlt
		if req.Name != nil {
			name = *req.Name
		}
		if req.NameAlt != nil {
			alt = *req.NameAlt
		}
		if err := product.Rename(name, alt, now); err != nil {
			return nil, err
		}
	}
	if req.Barcode != nil && *req.Barcode != product.Barcode {
		if err := s.ensureBarcodeFree(ctx, *req.Barcode, product.ID); err != nil {
			return nil, err
		}
		if err := product.SetBarcode(*req.Barcode, now); err != nil {
			return nil, err
		}
	}
	if req.Prices != nil {
		if err := product.SetPrices(req.Prices.toDomain(), now); err != nil {
			return nil, err
		}
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product updated",
		zap.String("product_id", product.ID.String()),
		zap.Int("version", product.Version),
		zap.String("request_id", req.RequestID))
	resp := ToProductResponse(product)
	return &resp, nil
}

// SetActive activates or deactivates a product. Inactive products cannot be sold
// but keep their ledger history and still count in valuation.
func (s *ProductService) SetActive(ctx context.Context, req SetActiveRequest) (*ProductResponse, error) {
	if err := appshared.RequirePermission(req.Actor, identity.PermCatalogManage); err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product.IsActive == req.Active {
		resp := ToProductResponse(product)
		return &resp, nil
	}

	if req.Active {
		product.Activate(s.clock())
	} else {
		product.Deactivate(s.clock())
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product status changed",
		zap.String("product_id", product.ID.String()),
		zap.Bool("active", product.IsActive),
		zap.String("request_id", req.RequestID))
	resp := ToProductResponse(product)
	return &resp, nil
}

// GetByID returns a product by ID
func (s *ProductService) GetByID(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ProductResponse, error) {
	if err := appshared.RequirePermission(actor, identity.PermStockView); err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// Lookup finds a product by barcode (checked first, as scanners send it) or SKU
func (s *ProductService) Lookup(ctx context.Context, actor identity.Actor, q LookupQuery) (*ProductResponse, error) {
	if err := appshared.RequirePermission(actor, identity.PermStockView); err != nil {
		return nil, err
	}
	var (
		product *catalog.Product
		err     error
	)
	switch {
	case q.Barcode != "":
		product, err = s.productRepo.FindByBarcode(ctx, q.Barcode)
	case q.SKU != "":
		product, err = s.productRepo.FindBySKU(ctx, q.SKU)
	default:
		return nil, shared.NewInvalidInputError("sku or barcode is required")
	}
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List returns every product ordered by SKU
func (s *ProductService) List(ctx context.Context, actor identity.Actor) ([]ProductResponse, error) {
	if err := appshared.RequirePermission(actor, identity.PermStockView); err != nil {
		return nil, err
	}
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out, nil
}

func (s *ProductService) ensureSKUFree(ctx context.Context, sku string) error {
	existing, err := s.productRepo.FindBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, shared.ErrProductNotFound) {
			return nil
		}
		return err
	}
	return shared.NewConstraintViolationError("SKU %s is already in use", existing.SKU)
}

func (s *ProductService) ensureBarcodeFree(ctx context.Context, barcode string, owner uuid.UUID) error {
	if barcode == "" {
		return nil
	}
	existing, err := s.productRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, shared.ErrProductNotFound) {
			return nil
		}
		return err
	}
	if existing.ID == owner {
		return nil
	}
	return shared.NewConstraintViolationError("Barcode %s is already assigned to %s", barcode, existing.SKU)
}
