package model

import "github.com/google/uuid"

// Payment methods accepted at the counter.
const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
)

// Sale is the immutable header of a completed sale. A sale and its items are
// created inside one transaction and never amended afterwards.
type Sale struct {
	BaseModel
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User          *User     `json:"user,omitempty" validate:"-"`
	Total         float64   `gorm:"not null" json:"total"`
	PaymentMethod string    `gorm:"type:varchar(50);not null;default:'cash'" json:"payment_method"`
	Notes         string    `gorm:"type:varchar(500)" json:"notes"`

	// Items cannot outlive their sale.
	Items []SaleItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

// SaleItem is one product line within a sale. UnitPrice is snapshotted at
// sale time so later price changes never rewrite history.
type SaleItem struct {
	BaseModel
	SaleID    uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product  `json:"product,omitempty" validate:"-"`
	Quantity  int       `gorm:"not null" json:"quantity" validate:"required,gt=0"`
	UnitPrice float64   `gorm:"not null" json:"unit_price" validate:"gte=0"`
	Subtotal  float64   `gorm:"not null" json:"subtotal"`
}
