package bill

import (
	"context"

	"stockpile/internal/core/id"
	"stockpile/internal/domain"
)

// Repository defines storage operations for bills.
type Repository interface {
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, billID id.ID) (*Bill, error)

	// GetByIDForUpdate loads the bill and locks its header row.
	GetByIDForUpdate(ctx context.Context, billID id.ID) (*Bill, error)

	Update(ctx context.Context, b *Bill) error

	// SetDeletionMark soft-deletes the bill, keeping it for history.
	SetDeletionMark(ctx context.Context, billID id.ID, marked bool) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Bill], error)
}

// ListFilter extends the common filter with bill criteria.
type ListFilter struct {
	domain.ListFilter

	Status   *Status
	Customer *string
}
