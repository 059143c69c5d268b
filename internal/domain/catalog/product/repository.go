package product

import (
	"context"

	"stockpile/internal/core/id"
	"stockpile/internal/domain"
)

// Repository defines storage operations for the Product catalog.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	Update(ctx context.Context, p *Product) error
	SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error
	Exists(ctx context.Context, productID id.ID) (bool, error)
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error)

	// ListBelowThreshold returns products whose on-hand quantity is at or
	// under their reorder threshold.
	ListBelowThreshold(ctx context.Context) ([]*Product, error)
}

// ListFilter extends the common filter with product-specific options.
type ListFilter struct {
	domain.ListFilter

	Category *string
}
