// Package product provides the Product catalog.
package product

import (
	"context"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/entity"
	"stockpile/internal/core/types"
)

// StockStatus is the derived availability of a product. It is computed
// from on-hand vs reorder threshold at read time and never stored.
type StockStatus string

const (
	StatusInStock    StockStatus = "in_stock"
	StatusLowStock   StockStatus = "low_stock"
	StatusOutOfStock StockStatus = "out_of_stock"
)

// Product represents a sellable item tracked by the stock ledger.
type Product struct {
	entity.Catalog

	// SKU is the stock keeping unit (unique)
	SKU string `db:"sku" json:"sku"`

	// Category groups products for reporting
	Category string `db:"category" json:"category,omitempty"`

	// UnitCost is the acquisition cost per unit
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	// UnitPrice is the selling price per unit
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// OnHand is the current on-hand quantity in whole units.
	// Owned by the stock ledger: mutated only through ledger deltas,
	// never assigned directly by order logic.
	OnHand int64 `db:"on_hand" json:"onHand"`

	// ReorderThreshold triggers the low-stock status
	ReorderThreshold int64 `db:"reorder_threshold" json:"reorderThreshold"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(sku, name string) *Product {
	return &Product{
		Catalog:   entity.NewCatalog("", name),
		SKU:       sku,
		UnitCost:  types.Zero(),
		UnitPrice: types.Zero(),
	}
}

// StockStatus derives the availability status.
func (p *Product) StockStatus() StockStatus {
	switch {
	case p.OnHand <= 0:
		return StatusOutOfStock
	case p.OnHand <= p.ReorderThreshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.SKU == "" {
		return apperror.NewValidation("sku is required").
			WithDetail("field", "sku")
	}

	if p.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost cannot be negative").
			WithDetail("field", "unitCost")
	}

	if p.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice")
	}

	if p.ReorderThreshold < 0 {
		return apperror.NewValidation("reorder threshold cannot be negative").
			WithDetail("field", "reorderThreshold")
	}

	return nil
}
