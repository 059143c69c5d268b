package dto

import (
	"github.com/shopspring/decimal"

	"stockpile/internal/core/id"
	"stockpile/internal/core/types"
	"stockpile/internal/domain/catalog/recipe"
)

// RecipeLineRequest is one material requirement.
type RecipeLineRequest struct {
	MaterialID     string           `json:"materialId" binding:"required"`
	PerUnit        types.Quantity   `json:"perUnit"`
	Unit           string           `json:"unit"`
	WastagePercent *decimal.Decimal `json:"wastagePercent"`
}

// CreateRecipeRequest for creating recipes.
type CreateRecipeRequest struct {
	ProductID string              `json:"productId" binding:"required"`
	Name      string              `json:"name" binding:"required"`
	Code      string              `json:"code"`
	Lines     []RecipeLineRequest `json:"lines" binding:"required,min=1"`
}

// ToEntity converts the request to a Recipe. Returns an error for
// malformed ids.
func (r CreateRecipeRequest) ToEntity() (*recipe.Recipe, error) {
	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return nil, err
	}

	rec := recipe.NewRecipe(productID, r.Name)
	rec.Code = r.Code

	for _, line := range r.Lines {
		materialID, err := id.Parse(line.MaterialID)
		if err != nil {
			return nil, err
		}
		wastage := decimal.Zero
		if line.WastagePercent != nil {
			wastage = *line.WastagePercent
		}
		rec.AddLine(materialID, line.PerUnit, line.Unit, wastage)
	}

	return rec, nil
}

// UpdateRecipeRequest replaces a recipe's name and lines.
type UpdateRecipeRequest struct {
	Name    *string             `json:"name"`
	Lines   []RecipeLineRequest `json:"lines"`
	Version int                 `json:"version" binding:"required,min=1"`
}

// ApplyTo applies the request to an existing Recipe.
func (r UpdateRecipeRequest) ApplyTo(rec *recipe.Recipe) error {
	if r.Name != nil {
		rec.Name = *r.Name
	}
	if r.Lines != nil {
		rec.Lines = rec.Lines[:0]
		for _, line := range r.Lines {
			materialID, err := id.Parse(line.MaterialID)
			if err != nil {
				return err
			}
			wastage := decimal.Zero
			if line.WastagePercent != nil {
				wastage = *line.WastagePercent
			}
			rec.AddLine(materialID, line.PerUnit, line.Unit, wastage)
		}
	}
	rec.Version = r.Version
	return nil
}
