package outbound

import (
	"context"

	"stockpile/internal/core/id"
	"stockpile/internal/domain"
)

// Repository defines storage operations for customer orders.
type Repository interface {
	Create(ctx context.Context, co *CustomerOrder) error
	GetByID(ctx context.Context, orderID id.ID) (*CustomerOrder, error)

	// GetByIDForUpdate loads the order and locks its header row, so
	// concurrent transitions for the same order serialize.
	GetByIDForUpdate(ctx context.Context, orderID id.ID) (*CustomerOrder, error)

	// Update persists the header and lines with an optimistic version
	// check, returning CONCURRENT_MODIFICATION on a stale version.
	Update(ctx context.Context, co *CustomerOrder) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*CustomerOrder], error)
}

// ListFilter extends the common filter with customer-order criteria.
type ListFilter struct {
	domain.ListFilter

	Status   *Status
	Customer *string
}
