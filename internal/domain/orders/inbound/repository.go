package inbound

import (
	"context"

	"stockpile/internal/core/id"
	"stockpile/internal/domain"
)

// Repository defines storage operations for purchase orders.
type Repository interface {
	Create(ctx context.Context, po *PurchaseOrder) error
	GetByID(ctx context.Context, orderID id.ID) (*PurchaseOrder, error)

	// GetByIDForUpdate loads the order and locks its header row. Must be
	// called within a transaction; receiving and transitions use it to
	// serialize concurrent submissions.
	GetByIDForUpdate(ctx context.Context, orderID id.ID) (*PurchaseOrder, error)

	// Update persists the header and lines, bumping the optimistic
	// version. Returns CONCURRENT_MODIFICATION when the stored version
	// does not match.
	Update(ctx context.Context, po *PurchaseOrder) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error)
}

// ListFilter extends the common filter with purchase-order criteria.
type ListFilter struct {
	domain.ListFilter

	Status   *Status
	Supplier *string
}
