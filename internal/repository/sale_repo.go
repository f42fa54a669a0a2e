package repository

import (
	"time"

	"go-pos-backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleFilter narrows sale listings and exports. From is inclusive, To is
// exclusive (callers pass the start of the day after the requested range).
type SaleFilter struct {
	From          *time.Time
	To            *time.Time
	UserID        *uuid.UUID
	PaymentMethod string
	Limit         int
	Offset        int
}

type SaleRepository interface {
	FindByID(id uuid.UUID) (*model.Sale, error)
	List(filter SaleFilter) ([]model.Sale, int64, error)
	ListAll(filter SaleFilter) ([]model.Sale, error)
	DB() *gorm.DB
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) FindByID(id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	err := r.db.
		Preload("Items").
		Preload("Items.Product").
		Preload("User").
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) filtered(filter SaleFilter) *gorm.DB {
	q := r.db.Model(&model.Sale{})
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", *filter.To)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.PaymentMethod != "" {
		q = q.Where("payment_method = ?", filter.PaymentMethod)
	}
	return q
}

// List returns a page of sales, newest first, with the unpaged total.
func (r *saleRepo) List(filter SaleFilter) ([]model.Sale, int64, error) {
	q := r.filtered(filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sales []model.Sale
	err := q.
		Preload("Items").
		Preload("Items.Product").
		Preload("User").
		Order("created_at DESC").
		Offset(filter.Offset).Limit(filter.Limit).
		Find(&sales).Error
	return sales, total, err
}

// ListAll ignores pagination; used by the spreadsheet export.
func (r *saleRepo) ListAll(filter SaleFilter) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.filtered(filter).
		Preload("Items").
		Preload("Items.Product").
		Preload("User").
		Order("created_at DESC").
		Find(&sales).Error
	return sales, err
}
