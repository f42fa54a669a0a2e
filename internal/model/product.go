package model

// Product is a sellable item. SalePrice is derived from CostPrice and a
// margin percentage at create/update time but stored as its own column, so it
// can drift from the formula when either side is patched without a recompute.
type Product struct {
	BaseModel
	Name        string  `gorm:"type:varchar(200);not null" json:"name" validate:"required"`
	Description string  `gorm:"type:varchar(500)" json:"description"`
	CostPrice   float64 `gorm:"not null;default:0" json:"cost_price"`
	SalePrice   float64 `gorm:"not null" json:"sale_price"`
	Stock       int     `gorm:"default:0" json:"stock"`
	MinStock    int     `gorm:"default:10" json:"min_stock"`
	Category    string  `gorm:"type:varchar(100);index" json:"category"`
	Barcode     *string `gorm:"type:varchar(50);uniqueIndex" json:"barcode,omitempty"`
	IsActive    bool    `gorm:"default:true" json:"is_active"`

	// Relations
	SaleItems []SaleItem `json:"sale_items,omitempty"`
}

// LowOnStock reports whether stock fell below the product's threshold.
func (p *Product) LowOnStock() bool {
	return p.Stock < p.MinStock
}
