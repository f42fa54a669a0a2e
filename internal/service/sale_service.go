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

// SaleItemRequest is one requested line. The unit price is taken from the
// request, not looked up live: the register already quoted it to the customer.
type SaleItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64   `json:"unit_price" validate:"gte=0"`
}

type CreateSaleRequest struct {
	Items         []SaleItemRequest `json:"items" validate:"dive"`
	PaymentMethod string            `json:"payment_method"`
	Notes         string            `json:"notes"`
}

type SaleService interface {
	CreateSale(userID uuid.UUID, req *CreateSaleRequest) (*model.Sale, error)
	GetSale(id uuid.UUID) (*model.Sale, error)
	ListSales(filter repository.SaleFilter) ([]model.Sale, int64, error)
}

type saleService struct {
	saleRepo    repository.SaleRepository
	productRepo repository.ProductRepository
	db          *gorm.DB
	hub         *ws.Hub
}

func NewSaleService(saleRepo repository.SaleRepository, productRepo repository.ProductRepository, db *gorm.DB, hub *ws.Hub) SaleService {
	return &saleService{
		saleRepo:    saleRepo,
		productRepo: productRepo,
		db:          db,
		hub:         hub,
	}
}

func lineSubtotal(quantity int, unitPrice float64) decimal.Decimal {
	return decimal.NewFromFloat(unitPrice).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(2)
}

// CreateSale records a sale and decrements stock atomically: either the
// header, every line item and every decrement land together, or none do.
// Stock is checked per line against the value read inside the transaction,
// with the product row locked, so two concurrent sales of the same product
// serialize and the loser sees the post-decrement stock.
func (s *saleService) CreateSale(userID uuid.UUID, req *CreateSaleRequest) (*model.Sale, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError("%s", validator.FirstError(errs))
	}

	if req.PaymentMethod == "" {
		req.PaymentMethod = model.PaymentCash
	}

	// Total from caller-supplied unit prices, rounded per line.
	total := decimal.Zero
	for _, item := range req.Items {
		total = total.Add(lineSubtotal(item.Quantity, item.UnitPrice))
	}

	sale := &model.Sale{
		UserID:        userID,
		Total:         total.InexactFloat64(),
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}
	sale.CreatedBy = userID.String()
	sale.UpdatedBy = userID.String()

	// Products that crossed their low-stock threshold in this sale,
	// collected for broadcast after commit.
	var lowStock []model.Product

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sale).Error; err != nil {
			return err
		}

		for _, item := range req.Items {
			product, err := s.productRepo.FindByIDLocked(tx, item.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &ProductNotFoundError{ProductID: item.ProductID}
				}
				return err
			}

			if product.Stock < item.Quantity {
				return &InsufficientStockError{
					ProductID: product.ID,
					Name:      product.Name,
					Requested: item.Quantity,
					Available: product.Stock,
				}
			}

			saleItem := model.SaleItem{
				SaleID:    sale.ID,
				ProductID: product.ID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Subtotal:  lineSubtotal(item.Quantity, item.UnitPrice).InexactFloat64(),
			}
			saleItem.CreatedBy = userID.String()
			saleItem.UpdatedBy = userID.String()
			if err := tx.Create(&saleItem).Error; err != nil {
				return err
			}

			newStock := product.Stock - item.Quantity
			if err := s.productRepo.UpdateStock(tx, product.ID, newStock, userID.String()); err != nil {
				return err
			}

			if newStock < product.MinStock && product.Stock >= product.MinStock {
				crossed := *product
				crossed.Stock = newStock
				lowStock = append(lowStock, crossed)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.saleRepo.FindByID(sale.ID)
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		go s.broadcastSale(created, lowStock)
	}

	return created, nil
}

func (s *saleService) broadcastSale(sale *model.Sale, lowStock []model.Product) {
	s.hub.BroadcastEvent("sale_created", map[string]interface{}{
		"sale": map[string]interface{}{
			"id":             sale.ID,
			"total":          sale.Total,
			"payment_method": sale.PaymentMethod,
			"item_count":     len(sale.Items),
		},
		"user_id": sale.UserID.String(),
	})

	for _, p := range lowStock {
		s.hub.BroadcastEvent("stock_low", map[string]interface{}{
			"product": map[string]interface{}{
				"id":        p.ID,
				"name":      p.Name,
				"stock":     p.Stock,
				"min_stock": p.MinStock,
			},
		})
	}
}

func (s *saleService) GetSale(id uuid.UUID) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	return sale, nil
}

func (s *saleService) ListSales(filter repository.SaleFilter) ([]model.Sale, int64, error) {
	return s.saleRepo.List(filter)
}
