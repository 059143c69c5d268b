package ledger

import (
	"context"
	"fmt"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/id"
	"stockpile/internal/core/tx"
	"stockpile/pkg/logger"
)

// Service is the single sanctioned mutator of product on-hand quantities.
// Each delta is applied as a locked read-modify-write inside the ambient
// transaction, so concurrent decrements on the same product cannot both
// pass a stale insufficient-stock check.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new ledger service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// ApplyDelta applies a signed quantity change to a product and returns the
// new on-hand quantity. A decrement that would take the quantity below zero
// fails with INSUFFICIENT_STOCK and leaves the quantity unchanged.
//
// Nested transactions are reused, so callers that already opened one
// (order transitions, batch commits) get their deltas inside it.
func (s *Service) ApplyDelta(ctx context.Context, productID id.ID, delta int64, ref Ref) (int64, error) {
	var resulting int64

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetOnHandForUpdate(ctx, productID)
		if err != nil {
			return err
		}

		if delta == 0 {
			resulting = current
			return nil
		}

		next := current + delta
		if next < 0 {
			return apperror.NewInsufficientStock(productID.String(), -delta, current)
		}

		if err := s.repo.SetOnHand(ctx, productID, next); err != nil {
			return fmt.Errorf("set on-hand: %w", err)
		}

		if err := s.repo.InsertMovement(ctx, NewMovement(productID, delta, next, ref)); err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}

		resulting = next
		return nil
	})
	if err != nil {
		return 0, err
	}

	if delta != 0 {
		logger.Debug(ctx, "ledger delta applied",
			"product_id", productID,
			"delta", delta,
			"resulting", resulting,
			"reason", ref.Reason,
		)
	}

	return resulting, nil
}

// ApplyDeltas applies a set of deltas atomically: either every delta lands
// or none does. Used by outbound reservations, bill creation and
// production commits, which must not leave partial effects behind.
func (s *Service) ApplyDeltas(ctx context.Context, deltas []Delta, ref Ref) error {
	if len(deltas) == 0 {
		return nil
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, d := range deltas {
			if _, err := s.ApplyDelta(ctx, d.ProductID, d.Quantity, ref); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetOnHand returns the current on-hand quantity. Read only.
func (s *Service) GetOnHand(ctx context.Context, productID id.ID) (int64, error) {
	return s.repo.GetOnHand(ctx, productID)
}

// Adjust is the administrative stock write: it sets an absolute quantity,
// clamping negative inputs to zero instead of failing. Order-driven code
// must never call this; it exists for manual corrections only.
func (s *Service) Adjust(ctx context.Context, productID id.ID, quantity int64, ref Ref) (int64, error) {
	if quantity < 0 {
		quantity = 0
	}

	var resulting int64
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetOnHandForUpdate(ctx, productID)
		if err != nil {
			return err
		}

		if current == quantity {
			resulting = current
			return nil
		}

		if err := s.repo.SetOnHand(ctx, productID, quantity); err != nil {
			return fmt.Errorf("set on-hand: %w", err)
		}

		m := NewMovement(productID, quantity-current, quantity, ref)
		if err := s.repo.InsertMovement(ctx, m); err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}

		resulting = quantity
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx, "stock adjusted",
		"product_id", productID,
		"quantity", resulting,
	)

	return resulting, nil
}

// History returns movement history for reporting.
func (s *Service) History(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.ListMovements(ctx, filter)
}
