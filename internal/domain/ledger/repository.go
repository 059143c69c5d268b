package ledger

import (
	"context"
	"time"

	"stockpile/internal/core/id"
)

// Repository defines storage operations for the stock ledger.
type Repository interface {
	// GetOnHand returns the current on-hand quantity for a product.
	GetOnHand(ctx context.Context, productID id.ID) (int64, error)

	// GetOnHandForUpdate returns the quantity with a row lock.
	// Must be called within a transaction; the lock serializes concurrent
	// updates for the same product without blocking other products.
	GetOnHandForUpdate(ctx context.Context, productID id.ID) (int64, error)

	// SetOnHand writes the new quantity for a product.
	// Only the ledger service calls this, after a locked read.
	SetOnHand(ctx context.Context, productID id.ID, quantity int64) error

	// InsertMovement records an immutable movement entry.
	InsertMovement(ctx context.Context, m Movement) error

	// ListMovements returns movement history for reporting.
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error)
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	ProductID  *id.ID
	RecorderID *id.ID
	Reason     *Reason
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}
