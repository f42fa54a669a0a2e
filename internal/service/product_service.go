package service

import (
	"errors"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/ws"
	"go-pos-backoffice/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bounds for the bulk price update percentage, inclusive.
const (
	minPriceIncreasePct = -50
	maxPriceIncreasePct = 200
)

type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	CostPrice   float64 `json:"cost_price" validate:"gte=0"`
	MarginPct   float64 `json:"margin_pct" validate:"gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	MinStock    int     `json:"min_stock" validate:"gte=0"`
	Category    string  `json:"category"`
	Barcode     *string `json:"barcode"`
}

// UpdateProductRequest enumerates every settable field explicitly; each is
// independently optional. Cost or margin present triggers a sale-price
// recompute; a direct sale-price set is applied as-is and may drift from the
// cost/margin formula.
type UpdateProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	CostPrice   *float64 `json:"cost_price" validate:"omitempty,gte=0"`
	MarginPct   *float64 `json:"margin_pct" validate:"omitempty,gte=0"`
	SalePrice   *float64 `json:"sale_price" validate:"omitempty,gte=0"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	MinStock    *int     `json:"min_stock" validate:"omitempty,gte=0"`
	Category    *string  `json:"category"`
	Barcode     *string  `json:"barcode"`
	IsActive    *bool    `json:"is_active"`
}

type ProductService interface {
	CreateProduct(req *CreateProductRequest, userID string) (*model.Product, error)
	GetProduct(id uuid.UUID) (*model.Product, error)
	GetProductByBarcode(barcode string) (*model.Product, error)
	UpdateProduct(id uuid.UUID, req *UpdateProductRequest, userID string) (*model.Product, error)
	DeactivateProduct(id uuid.UUID, userID string) error
	BulkUpdatePrices(ids []uuid.UUID, pct float64, userID string) (int, error)
	ListProducts(filter repository.ProductFilter) ([]model.Product, int64, error)
	ListProductIDs(filter repository.ProductFilter) ([]uuid.UUID, error)
	ListCategories() ([]string, error)
	ListLowStock(limit, offset int) ([]model.Product, int64, error)
	ListCriticalStock(limit, offset int) ([]model.Product, int64, error)
}

type productService struct {
	productRepo repository.ProductRepository
	db          *gorm.DB
	hub         *ws.Hub
}

func NewProductService(productRepo repository.ProductRepository, db *gorm.DB, hub *ws.Hub) ProductService {
	return &productService{
		productRepo: productRepo,
		db:          db,
		hub:         hub,
	}
}

func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// salePriceFrom derives the sale price: cost × (1 + margin/100), 2 decimals.
func salePriceFrom(cost, marginPct float64) float64 {
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(marginPct).Div(decimal.NewFromInt(100)))
	return round2(decimal.NewFromFloat(cost).Mul(factor)).InexactFloat64()
}

// currentMargin re-derives the margin percentage from the stored cost/sale
// ratio. Zero cost means no meaningful margin.
func currentMargin(costPrice, salePrice float64) decimal.Decimal {
	cost := decimal.NewFromFloat(costPrice)
	if cost.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(salePrice).Div(cost).
		Sub(decimal.NewFromInt(1)).
		Mul(decimal.NewFromInt(100))
}

func (s *productService) CreateProduct(req *CreateProductRequest, userID string) (*model.Product, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError("%s", validator.FirstError(errs))
	}

	if req.Barcode != nil && *req.Barcode != "" {
		exists, err := s.productRepo.BarcodeExists(*req.Barcode, nil)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrBarcodeExists
		}
	}

	minStock := req.MinStock
	if minStock == 0 {
		minStock = 10
	}

	product := &model.Product{
		Name:        req.Name,
		Description: req.Description,
		CostPrice:   req.CostPrice,
		SalePrice:   salePriceFrom(req.CostPrice, req.MarginPct),
		Stock:       req.Stock,
		MinStock:    minStock,
		Category:    req.Category,
		Barcode:     req.Barcode,
		IsActive:    true,
	}
	product.CreatedBy = userID
	product.UpdatedBy = userID

	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}

	return product, nil
}

func (s *productService) GetProduct(id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ProductNotFoundError{ProductID: id}
		}
		return nil, err
	}
	return product, nil
}

// GetProductByBarcode resolves an active product for the register scanner.
func (s *productService) GetProductByBarcode(barcode string) (*model.Product, error) {
	product, err := s.productRepo.FindByBarcode(barcode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ProductNotFoundError{Barcode: barcode}
		}
		return nil, err
	}
	if product.Stock <= 0 {
		return nil, &InsufficientStockError{
			ProductID: product.ID,
			Name:      product.Name,
			Requested: 1,
			Available: product.Stock,
		}
	}
	return product, nil
}

func (s *productService) UpdateProduct(id uuid.UUID, req *UpdateProductRequest, userID string) (*model.Product, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError("%s", validator.FirstError(errs))
	}

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ProductNotFoundError{ProductID: id}
		}
		return nil, err
	}

	if req.Barcode != nil && *req.Barcode != "" {
		exists, err := s.productRepo.BarcodeExists(*req.Barcode, &id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrBarcodeExists
		}
	}

	// The margin to recompute with: the request's when present, otherwise
	// re-derived from the stored cost/sale ratio before this update.
	margin := currentMargin(product.CostPrice, product.SalePrice)
	if req.MarginPct != nil {
		margin = decimal.NewFromFloat(*req.MarginPct)
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.MinStock != nil {
		product.MinStock = *req.MinStock
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Barcode != nil {
		product.Barcode = req.Barcode
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.CostPrice != nil {
		product.CostPrice = *req.CostPrice
	}

	// Recompute only when cost or margin is part of the payload; a direct
	// sale-price set applies verbatim.
	if req.CostPrice != nil || req.MarginPct != nil {
		product.SalePrice = salePriceFrom(product.CostPrice, margin.InexactFloat64())
	} else if req.SalePrice != nil {
		product.SalePrice = *req.SalePrice
	}

	product.UpdatedBy = userID

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}

	if s.hub != nil {
		go s.hub.BroadcastEvent("product_updated", map[string]interface{}{
			"product": map[string]interface{}{
				"id":         product.ID,
				"name":       product.Name,
				"stock":      product.Stock,
				"sale_price": product.SalePrice,
			},
		})
	}

	return product, nil
}

// DeactivateProduct hides a product from the catalog; history keeps pointing
// at it.
func (s *productService) DeactivateProduct(id uuid.UUID, userID string) error {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ProductNotFoundError{ProductID: id}
		}
		return err
	}

	product.IsActive = false
	product.UpdatedBy = userID
	return s.productRepo.Update(product)
}

// BulkUpdatePrices applies a percentage to the cost price of each selected
// product and recomputes its sale price with the margin it already carried.
// Inactive, missing and zeroed-out products are skipped without counting;
// an unexpected store error aborts and rolls back the whole batch.
func (s *productService) BulkUpdatePrices(ids []uuid.UUID, pct float64, userID string) (int, error) {
	if pct < minPriceIncreasePct || pct > maxPriceIncreasePct {
		return 0, newValidationError("percentage increase must be between %d and %d", minPriceIncreasePct, maxPriceIncreasePct)
	}
	if len(ids) == 0 {
		return 0, newValidationError("at least one product must be selected")
	}

	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100)))

	updated := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			var product model.Product
			err := tx.Where("id = ? AND is_active = ?", id, true).First(&product).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue // inactive or unknown: expected-path skip
			}
			if err != nil {
				return err
			}

			newCost := round2(decimal.NewFromFloat(product.CostPrice).Mul(factor))
			if newCost.LessThanOrEqual(decimal.Zero) {
				continue
			}

			margin := currentMargin(product.CostPrice, product.SalePrice)
			marginFactor := decimal.NewFromInt(1).Add(margin.Div(decimal.NewFromInt(100)))
			newSale := round2(newCost.Mul(marginFactor))

			if err := s.productRepo.UpdatePrices(tx, product.ID, newCost.InexactFloat64(), newSale.InexactFloat64(), userID); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return updated, nil
}

func (s *productService) ListProducts(filter repository.ProductFilter) ([]model.Product, int64, error) {
	return s.productRepo.List(filter)
}

func (s *productService) ListProductIDs(filter repository.ProductFilter) ([]uuid.UUID, error) {
	return s.productRepo.ListIDs(filter)
}

func (s *productService) ListCategories() ([]string, error) {
	return s.productRepo.ListCategories()
}

func (s *productService) ListLowStock(limit, offset int) ([]model.Product, int64, error) {
	return s.productRepo.ListLowStock(limit, offset)
}

func (s *productService) ListCriticalStock(limit, offset int) ([]model.Product, int64, error) {
	return s.productRepo.ListCriticalStock(limit, offset)
}
