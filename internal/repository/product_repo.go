package repository

import (
	"go-pos-backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Stock state thresholds used by the catalog filters.
const (
	criticalStockCeiling = 5  // stock < 5 is critical
	lowStockFloor        = 10 // low band starts at 10 (below that it is critical territory)
)

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	Search     string // matches name, category or barcode
	Category   string // "" or "all" = no filter; "uncategorized" matches empty category
	StockState string // "", "all", "normal", "low", "critical"
	Limit      int
	Offset     int
}

type ProductRepository interface {
	Create(product *model.Product) error
	FindByID(id uuid.UUID) (*model.Product, error)
	FindByIDLocked(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	FindByBarcode(barcode string) (*model.Product, error)
	BarcodeExists(barcode string, excludeID *uuid.UUID) (bool, error)
	Update(product *model.Product) error
	UpdateStock(tx *gorm.DB, id uuid.UUID, newStock int, updatedBy string) error
	UpdatePrices(tx *gorm.DB, id uuid.UUID, costPrice, salePrice float64, updatedBy string) error
	List(filter ProductFilter) ([]model.Product, int64, error)
	ListIDs(filter ProductFilter) ([]uuid.UUID, error)
	ListCategories() ([]string, error)
	ListLowStock(limit, offset int) ([]model.Product, int64, error)
	ListCriticalStock(limit, offset int) ([]model.Product, int64, error)
	DB() *gorm.DB
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDLocked fetches a product with a row lock so that concurrent sale
// transactions serialize on the stock read-modify-write. SQLite (tests)
// serializes writers on its own and rejects the FOR UPDATE syntax.
func (r *productRepo) FindByIDLocked(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var product model.Product
	if err := q.First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByBarcode(barcode string) (*model.Product, error) {
	var product model.Product
	err := r.db.Where("barcode = ? AND is_active = ?", barcode, true).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// BarcodeExists reports whether any product other than excludeID carries the
// barcode, active or not: the unique index spans both.
func (r *productRepo) BarcodeExists(barcode string, excludeID *uuid.UUID) (bool, error) {
	q := r.db.Model(&model.Product{}).Where("barcode = ?", barcode)
	if excludeID != nil {
		q = q.Where("id != ?", *excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Save(product).Error
}

// UpdateStock runs on the given handle (tx) so it participates in the caller's transaction
func (r *productRepo) UpdateStock(tx *gorm.DB, id uuid.UUID, newStock int, updatedBy string) error {
	return tx.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      newStock,
			"updated_by": updatedBy,
		}).Error
}

func (r *productRepo) UpdatePrices(tx *gorm.DB, id uuid.UUID, costPrice, salePrice float64, updatedBy string) error {
	return tx.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"cost_price": costPrice,
			"sale_price": salePrice,
			"updated_by": updatedBy,
		}).Error
}

func (r *productRepo) filtered(filter ProductFilter) *gorm.DB {
	q := r.db.Model(&model.Product{}).Where("is_active = ?", true)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("LOWER(name) LIKE LOWER(?) OR LOWER(category) LIKE LOWER(?) OR barcode LIKE ?",
			pattern, pattern, pattern)
	}

	if filter.Category != "" && filter.Category != "all" {
		if filter.Category == "uncategorized" {
			q = q.Where("category IS NULL OR category = ''")
		} else {
			q = q.Where("category = ?", filter.Category)
		}
	}

	switch filter.StockState {
	case "critical":
		q = q.Where("stock < ?", criticalStockCeiling)
	case "low":
		q = q.Where("stock >= ? AND stock < min_stock", lowStockFloor)
	case "normal":
		q = q.Where("stock >= min_stock")
	}

	return q
}

func (r *productRepo) List(filter ProductFilter) ([]model.Product, int64, error) {
	q := r.filtered(filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []model.Product
	err := q.Order("name ASC").Offset(filter.Offset).Limit(filter.Limit).Find(&products).Error
	return products, total, err
}

// ListIDs returns only the matching ids, for bulk selection.
func (r *productRepo) ListIDs(filter ProductFilter) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.filtered(filter).Pluck("id", &ids).Error
	return ids, err
}

func (r *productRepo) ListCategories() ([]string, error) {
	var categories []string
	err := r.db.Model(&model.Product{}).
		Where("is_active = ? AND category IS NOT NULL AND category != ''", true).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}

func (r *productRepo) ListLowStock(limit, offset int) ([]model.Product, int64, error) {
	q := r.db.Model(&model.Product{}).
		Where("stock < min_stock AND stock >= ? AND is_active = ?", lowStockFloor, true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []model.Product
	err := q.Order("stock ASC, id ASC").Offset(offset).Limit(limit).Find(&products).Error
	return products, total, err
}

func (r *productRepo) ListCriticalStock(limit, offset int) ([]model.Product, int64, error) {
	q := r.db.Model(&model.Product{}).
		Where("stock < ? AND is_active = ?", criticalStockCeiling, true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []model.Product
	err := q.Order("stock ASC, id ASC").Offset(offset).Limit(limit).Find(&products).Error
	return products, total, err
}
