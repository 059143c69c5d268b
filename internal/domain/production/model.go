package production

import (
	"context"

	"github.com/shopspring/decimal"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/entity"
	"stockpile/internal/core/id"
	"stockpile/internal/core/types"
	"stockpile/internal/domain/catalog/recipe"
)

// Status is the lifecycle state of a production batch.
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Batch is a production run. It snapshots the recipe lines at planning
// time, so later recipe edits do not change what an open batch consumes.
type Batch struct {
	entity.Document

	ProductID id.ID `db:"product_id" json:"productId"`
	RecipeID  id.ID `db:"recipe_id" json:"recipeId"`

	PlannedQuantity int64  `db:"planned_qty" json:"plannedQuantity"`
	Status          Status `db:"status" json:"status"`

	// Consumed records whether material stock has been decremented for
	// this batch. Consumption happens exactly once per batch.
	Consumed bool `db:"consumed" json:"consumed"`

	// Table part: recipe snapshot
	Lines []BatchLine `db:"-" json:"lines"`
}

// BatchLine is one snapshotted material requirement.
type BatchLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	MaterialID id.ID `db:"material_id" json:"materialId"`

	PerUnit        types.Quantity  `db:"per_unit" json:"perUnit"`
	Unit           string          `db:"unit" json:"unit"`
	WastagePercent decimal.Decimal `db:"wastage_percent" json:"wastagePercent"`
}

// EffectivePerUnit returns the per-unit requirement including wastage.
func (l BatchLine) EffectivePerUnit() decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(l.WastagePercent.Div(decimal.NewFromInt(100)))
	return l.PerUnit.Decimal().Mul(factor)
}

// ConsumptionFor returns the material amount consumed when producing
// quantity units, rounded to fixed-point precision.
func (l BatchLine) ConsumptionFor(quantity int64) types.Quantity {
	return types.QuantityFromDecimal(l.EffectivePerUnit().Mul(decimal.NewFromInt(quantity)))
}

// NewBatch plans a batch from a recipe, snapshotting its lines.
func NewBatch(rec *recipe.Recipe, plannedQuantity int64) *Batch {
	b := &Batch{
		Document:        entity.NewDocument(),
		ProductID:       rec.ProductID,
		RecipeID:        rec.ID,
		PlannedQuantity: plannedQuantity,
		Status:          StatusPlanned,
		Lines:           make([]BatchLine, 0, len(rec.Lines)),
	}
	for i, line := range rec.Lines {
		b.Lines = append(b.Lines, BatchLine{
			LineID:         id.New(),
			LineNo:         i + 1,
			MaterialID:     line.MaterialID,
			PerUnit:        line.PerUnit,
			Unit:           line.Unit,
			WastagePercent: line.WastagePercent,
		})
	}
	return b
}

// Validate implements entity.Validatable interface.
func (b *Batch) Validate(ctx context.Context) error {
	if err := b.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(b.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if id.IsNil(b.RecipeID) {
		return apperror.NewValidation("recipe is required").
			WithDetail("field", "recipeId")
	}
	if b.PlannedQuantity <= 0 {
		return apperror.NewValidation("planned quantity must be positive").
			WithDetail("field", "plannedQuantity")
	}

	return nil
}
