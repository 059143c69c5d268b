// Package material provides the Raw Material catalog and its stock operations.
package material

import (
	"context"
	"time"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/entity"
	"stockpile/internal/core/id"
	"stockpile/internal/core/types"
)

// RawMaterial represents a production input tracked in fractional units.
type RawMaterial struct {
	entity.Catalog

	// Unit is the unit of measure (kg, l, pcs)
	Unit string `db:"unit" json:"unit"`

	// CurrentStock is the available quantity, fixed-point 4 decimals.
	// Mutated only through ApplyStockDelta / AdjustStock.
	CurrentStock types.Quantity `db:"current_stock" json:"currentStock"`

	// CostPerUnit is the acquisition cost per unit of measure
	CostPerUnit types.Money `db:"cost_per_unit" json:"costPerUnit"`

	// ReorderLevel triggers the low-stock status
	ReorderLevel types.Quantity `db:"reorder_level" json:"reorderLevel"`
}

// NewRawMaterial creates a new RawMaterial with required fields.
func NewRawMaterial(name, unit string) *RawMaterial {
	return &RawMaterial{
		Catalog:     entity.NewCatalog("", name),
		Unit:        unit,
		CostPerUnit: types.Zero(),
	}
}

// IsLow reports whether current stock is at or under the reorder level.
func (m *RawMaterial) IsLow() bool {
	return m.CurrentStock <= m.ReorderLevel
}

// Validate implements entity.Validatable interface.
func (m *RawMaterial) Validate(ctx context.Context) error {
	if err := m.Catalog.Validate(ctx); err != nil {
		return err
	}

	if m.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}

	if m.CurrentStock.IsNegative() {
		return apperror.NewValidation("current stock cannot be negative").
			WithDetail("field", "currentStock")
	}

	if m.CostPerUnit.IsNegative() {
		return apperror.NewValidation("cost per unit cannot be negative").
			WithDetail("field", "costPerUnit")
	}

	return nil
}

// StockMovement is an immutable entry in the material stock trail,
// mirroring the product ledger's movement rows.
type StockMovement struct {
	LineID     id.ID          `db:"line_id" json:"lineId"`
	MaterialID id.ID          `db:"material_id" json:"materialId"`
	Delta      types.Quantity `db:"delta" json:"delta"`
	Resulting  types.Quantity `db:"resulting" json:"resulting"`

	RecorderID   id.ID  `db:"recorder_id" json:"recorderId"`
	RecorderType string `db:"recorder_type" json:"recorderType"`
	Reason       string `db:"reason" json:"reason"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Stock movement reasons.
const (
	ReasonReplenishment = "replenishment"
	ReasonConsumption   = "production_consumption"
	ReasonAdjustment    = "adjustment"
)

// StockRef identifies the document that triggered a stock movement.
type StockRef struct {
	RecorderID   id.ID
	RecorderType string
	Reason       string
}
