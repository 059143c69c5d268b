package recipe

import (
	"context"

	"stockpile/internal/core/id"
	"stockpile/internal/domain"
)

// Repository defines storage operations for the Recipe catalog.
// Lines are stored as a table part and loaded with the header.
type Repository interface {
	Create(ctx context.Context, r *Recipe) error
	GetByID(ctx context.Context, recipeID id.ID) (*Recipe, error)

	// GetActiveByProduct returns the active recipe for a product, or
	// a NOT_FOUND error when the product has none.
	GetActiveByProduct(ctx context.Context, productID id.ID) (*Recipe, error)

	Update(ctx context.Context, r *Recipe) error
	SetDeletionMark(ctx context.Context, recipeID id.ID, marked bool) error

	// DeactivateByProduct clears the active flag on all recipes of a
	// product. Used before activating a replacement.
	DeactivateByProduct(ctx context.Context, productID id.ID) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Recipe], error)
}

// ListFilter extends the common filter with recipe-specific criteria.
type ListFilter struct {
	domain.ListFilter

	ProductID  *id.ID
	ActiveOnly bool
}
