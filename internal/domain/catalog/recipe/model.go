// Package recipe provides the Recipe catalog (bill of materials).
package recipe

import (
	"context"

	"github.com/shopspring/decimal"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/entity"
	"stockpile/internal/core/id"
	"stockpile/internal/core/types"
)

// Recipe lists the materials required to produce one unit of a product.
type Recipe struct {
	entity.Catalog

	// ProductID is the finished product this recipe produces
	ProductID id.ID `db:"product_id" json:"productId"`

	// Active marks the recipe currently used for production.
	// A product has at most one active recipe.
	Active bool `db:"active" json:"active"`

	// Table part: required materials
	Lines []Line `db:"-" json:"lines"`
}

// Line is one required material in a recipe.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	MaterialID id.ID `db:"material_id" json:"materialId"`

	// PerUnit is the required quantity per unit of output, before wastage
	PerUnit types.Quantity `db:"per_unit" json:"perUnit"`

	// Unit is the unit of measure for PerUnit
	Unit string `db:"unit" json:"unit"`

	// WastagePercent is the expected loss during production, e.g. 10 for 10%
	WastagePercent decimal.Decimal `db:"wastage_percent" json:"wastagePercent"`
}

// NewRecipe creates a new Recipe for a product.
func NewRecipe(productID id.ID, name string) *Recipe {
	return &Recipe{
		Catalog:   entity.NewCatalog("", name),
		ProductID: productID,
		Active:    true,
		Lines:     make([]Line, 0),
	}
}

// AddLine appends a material requirement.
func (r *Recipe) AddLine(materialID id.ID, perUnit types.Quantity, unit string, wastagePercent decimal.Decimal) {
	r.Lines = append(r.Lines, Line{
		LineID:         id.New(),
		LineNo:         len(r.Lines) + 1,
		MaterialID:     materialID,
		PerUnit:        perUnit,
		Unit:           unit,
		WastagePercent: wastagePercent,
	})
}

// EffectivePerUnit returns the per-unit requirement including wastage:
// perUnit * (1 + wastage/100). Exact decimal arithmetic, no floats.
func (l Line) EffectivePerUnit() decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(l.WastagePercent.Div(decimal.NewFromInt(100)))
	return l.PerUnit.Decimal().Mul(factor)
}

// Validate implements entity.Validatable interface.
func (r *Recipe) Validate(ctx context.Context) error {
	if err := r.Catalog.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(r.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}

	seen := make(map[id.ID]bool, len(r.Lines))
	for i, line := range r.Lines {
		if id.IsNil(line.MaterialID) {
			return apperror.NewValidation("material is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.PerUnit.IsNegative() {
			return apperror.NewValidation("required quantity cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.WastagePercent.IsNegative() {
			return apperror.NewValidation("wastage percent cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if seen[line.MaterialID] {
			return apperror.NewValidation("duplicate material in recipe").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		seen[line.MaterialID] = true
	}

	return nil
}
