package dto

import (
	"stockpile/internal/core/types"
	"stockpile/internal/domain/catalog/material"
)

// CreateMaterialRequest for creating raw materials.
type CreateMaterialRequest struct {
	Name         string          `json:"name" binding:"required"`
	Code         string          `json:"code"`
	Unit         string          `json:"unit" binding:"required"`
	CurrentStock *types.Quantity `json:"currentStock"`
	CostPerUnit  *types.Money    `json:"costPerUnit"`
	ReorderLevel *types.Quantity `json:"reorderLevel"`
}

// ToEntity converts the request to a RawMaterial.
func (r CreateMaterialRequest) ToEntity() *material.RawMaterial {
	m := material.NewRawMaterial(r.Name, r.Unit)
	m.Code = r.Code
	if r.CurrentStock != nil {
		m.CurrentStock = *r.CurrentStock
	}
	if r.CostPerUnit != nil {
		m.CostPerUnit = *r.CostPerUnit
	}
	if r.ReorderLevel != nil {
		m.ReorderLevel = *r.ReorderLevel
	}
	return m
}

// UpdateMaterialRequest for updating raw materials. Stock is not
// updatable here, it moves only through adjustments and consumption.
type UpdateMaterialRequest struct {
	Name         *string         `json:"name"`
	Unit         *string         `json:"unit"`
	CostPerUnit  *types.Money    `json:"costPerUnit"`
	ReorderLevel *types.Quantity `json:"reorderLevel"`
	Version      int             `json:"version" binding:"required,min=1"`
}

// ApplyTo applies non-nil fields to an existing RawMaterial.
func (r UpdateMaterialRequest) ApplyTo(m *material.RawMaterial) {
	if r.Name != nil {
		m.Name = *r.Name
	}
	if r.Unit != nil {
		m.Unit = *r.Unit
	}
	if r.CostPerUnit != nil {
		m.CostPerUnit = *r.CostPerUnit
	}
	if r.ReorderLevel != nil {
		m.ReorderLevel = *r.ReorderLevel
	}
	m.Version = r.Version
}

// AdjustMaterialStockRequest sets an absolute stock level.
type AdjustMaterialStockRequest struct {
	Quantity types.Quantity `json:"quantity"`
}
