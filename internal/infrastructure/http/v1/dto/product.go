package dto

import (
	"stockpile/internal/core/types"
	"stockpile/internal/domain/catalog/product"
)

// CreateProductRequest for creating products.
type CreateProductRequest struct {
	SKU              string       `json:"sku" binding:"required"`
	Name             string       `json:"name" binding:"required"`
	Code             string       `json:"code"`
	Category         string       `json:"category"`
	UnitCost         *types.Money `json:"unitCost"`
	UnitPrice        *types.Money `json:"unitPrice"`
	ReorderThreshold int64        `json:"reorderThreshold"`
}

// ToEntity converts the request to a Product.
func (r CreateProductRequest) ToEntity() *product.Product {
	p := product.NewProduct(r.SKU, r.Name)
	p.Code = r.Code
	p.Category = r.Category
	p.ReorderThreshold = r.ReorderThreshold
	if r.UnitCost != nil {
		p.UnitCost = *r.UnitCost
	}
	if r.UnitPrice != nil {
		p.UnitPrice = *r.UnitPrice
	}
	return p
}

// UpdateProductRequest for updating products. Nil fields are left unchanged.
type UpdateProductRequest struct {
	Name             *string      `json:"name"`
	Category         *string      `json:"category"`
	UnitCost         *types.Money `json:"unitCost"`
	UnitPrice        *types.Money `json:"unitPrice"`
	ReorderThreshold *int64       `json:"reorderThreshold"`
	Version          int          `json:"version" binding:"required,min=1"`
}

// ApplyTo applies non-nil fields to an existing Product.
func (r UpdateProductRequest) ApplyTo(p *product.Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Category != nil {
		p.Category = *r.Category
	}
	if r.UnitCost != nil {
		p.UnitCost = *r.UnitCost
	}
	if r.UnitPrice != nil {
		p.UnitPrice = *r.UnitPrice
	}
	if r.ReorderThreshold != nil {
		p.ReorderThreshold = *r.ReorderThreshold
	}
	p.Version = r.Version
}
