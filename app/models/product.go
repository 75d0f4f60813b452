package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a listing owned by exactly one farmer. FarmerID never changes
// after creation. Deleted products are soft-deleted so order history keeps
// resolving to its farmer.
type Product struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	FarmerID          uint            `gorm:"not null;index" json:"farmerId"`
	Name              string          `gorm:"size:255;not null" json:"name"`
	Description       *string         `gorm:"type:text" json:"description"`
	CategoryID        *uint           `gorm:"index" json:"categoryId"`
	Price             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Unit              string          `gorm:"size:32;not null" json:"unit"`
	AvailableQuantity decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"availableQuantity"`
	MinOrderQuantity  decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"minOrderQuantity"`
	ImageURL          *string         `gorm:"column:image_url;size:512" json:"imageUrl"`
	IsOrganic         bool            `gorm:"not null;default:false" json:"isOrganic"`
	InStock           bool            `gorm:"not null" json:"inStock"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Available reports whether qty can be ordered right now.
func (p *Product) Available(qty decimal.Decimal) bool {
	return p.InStock && p.AvailableQuantity.GreaterThanOrEqual(qty)
}
