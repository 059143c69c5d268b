package production

import (
	"context"

	"stockpile/internal/core/id"
	"stockpile/internal/domain"
)

// Repository defines storage operations for production batches.
type Repository interface {
	Create(ctx context.Context, b *Batch) error
	GetByID(ctx context.Context, batchID id.ID) (*Batch, error)

	// GetByIDForUpdate loads the batch and locks its header row, so a
	// commit cannot race a cancel for the same batch.
	GetByIDForUpdate(ctx context.Context, batchID id.ID) (*Batch, error)

	Update(ctx context.Context, b *Batch) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Batch], error)
}

// ListFilter extends the common filter with batch criteria.
type ListFilter struct {
	domain.ListFilter

	Status    *Status
	ProductID *id.ID
}
