package requests

import (
	"github.com/farmchain/farmchain/app/models"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Name              string           `json:"name"              validate:"required,min=2,max=255"`
	Description       *string          `json:"description"       validate:"omitempty,max=5000"`
	CategoryID        *uint            `json:"categoryId"        validate:"omitempty,gte=1"`
	Price             decimal.Decimal  `json:"price"             validate:"gt=0"`
	Unit              string           `json:"unit"              validate:"required,max=32"`
	AvailableQuantity decimal.Decimal  `json:"availableQuantity" validate:"gte=0"`
	MinOrderQuantity  *decimal.Decimal `json:"minOrderQuantity"  validate:"omitempty,gt=0"`
	ImageURL          *string          `json:"imageUrl"          validate:"omitempty,max=512"`
	IsOrganic         bool             `json:"isOrganic"`
	InStock           *bool            `json:"inStock"`
}

// Product builds the model owned by farmerID. Prices keep 2 places and
// quantities 3. inStock defaults to whether any quantity is available.
func (r CreateProductRequest) Product(farmerID uint) *models.Product {
	minQty := decimal.NewFromInt(1)
	if r.MinOrderQuantity != nil {
		minQty = *r.MinOrderQuantity
	}
	inStock := r.AvailableQuantity.IsPositive()
	if r.InStock != nil {
		inStock = *r.InStock
	}
	return &models.Product{
		FarmerID:          farmerID,
		Name:              r.Name,
		Description:       r.Description,
		CategoryID:        r.CategoryID,
		Price:             r.Price.Round(2),
		Unit:              r.Unit,
		AvailableQuantity: r.AvailableQuantity.Round(3),
		MinOrderQuantity:  minQty.Round(3),
		ImageURL:          r.ImageURL,
		IsOrganic:         r.IsOrganic,
		InStock:           inStock,
	}
}

// UpdateProductRequest is a partial update. farmerId is not a field, so an
// owner can never hand a product to someone else.
type UpdateProductRequest struct {
	Name              *string          `json:"name"              validate:"omitempty,min=2,max=255"`
	Description       *string          `json:"description"       validate:"omitempty,max=5000"`
	CategoryID        *uint            `json:"categoryId"        validate:"omitempty,gte=1"`
	Price             *decimal.Decimal `json:"price"             validate:"omitempty,gt=0"`
	Unit              *string          `json:"unit"              validate:"omitempty,min=1,max=32"`
	AvailableQuantity *decimal.Decimal `json:"availableQuantity" validate:"omitempty,gte=0"`
	MinOrderQuantity  *decimal.Decimal `json:"minOrderQuantity"  validate:"omitempty,gt=0"`
	ImageURL          *string          `json:"imageUrl"          validate:"omitempty,max=512"`
	IsOrganic         *bool            `json:"isOrganic"`
	InStock           *bool            `json:"inStock"`
}

// Fields returns the column updates for the fields present in the body.
func (r UpdateProductRequest) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if r.Name != nil {
		fields["name"] = *r.Name
	}
	if r.Description != nil {
		fields["description"] = *r.Description
	}
	if r.CategoryID != nil {
		fields["category_id"] = *r.CategoryID
	}
	if r.Price != nil {
		fields["price"] = r.Price.Round(2)
	}
	if r.Unit != nil {
		fields["unit"] = *r.Unit
	}
	if r.AvailableQuantity != nil {
		fields["available_quantity"] = r.AvailableQuantity.Round(3)
		if r.InStock == nil {
			fields["in_stock"] = r.AvailableQuantity.IsPositive()
		}
	}
	if r.MinOrderQuantity != nil {
		fields["min_order_quantity"] = r.MinOrderQuantity.Round(3)
	}
	if r.ImageURL != nil {
		fields["image_url"] = *r.ImageURL
	}
	if r.IsOrganic != nil {
		fields["is_organic"] = *r.IsOrganic
	}
	if r.InStock != nil {
		fields["in_stock"] = *r.InStock
	}
	return fields
}
