package bill

import (
	"context"
	"fmt"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/id"
	"stockpile/internal/core/tx"
	"stockpile/internal/domain"
	"stockpile/internal/domain/ledger"
	"stockpile/pkg/logger"
	"stockpile/pkg/numerator"
)

// StockPoster posts sale and reversal deltas. Satisfied by the ledger
// service.
type StockPoster interface {
	ApplyDelta(ctx context.Context, productID id.ID, delta int64, ref ledger.Ref) (int64, error)
}

// Service drives the bill lifecycle.
type Service struct {
	repo      Repository
	stock     StockPoster
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new bill service.
func NewService(repo Repository, stock StockPoster, numerator *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		stock:     stock,
		numerator: numerator,
		txManager: txManager,
	}
}

// Create creates a bill and decrements stock for every item in the same
// transaction. An item that cannot be covered fails the whole creation
// with INSUFFICIENT_STOCK naming the offending product; nothing is sold
// partially.
func (s *Service) Create(ctx context.Context, b *Bill) error {
	if b.Status == "" {
		b.Status = StatusPending
	}
	if b.Status != StatusPending {
		return apperror.NewValidation("bill must be created as pending").
			WithDetail("status", string(b.Status))
	}

	if err := b.Validate(ctx); err != nil {
		return err
	}

	if b.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("BILL"), nil, b.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		b.Number = number
	}
	b.CalculateTotal()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		ref := ledger.Ref{
			RecorderID:   b.ID,
			RecorderType: "Bill",
			Reason:       ledger.ReasonBillSale,
		}
		for _, item := range b.Items {
			if _, err := s.stock.ApplyDelta(ctx, item.ProductID, -item.Quantity, ref); err != nil {
				return err
			}
		}
		return s.repo.Create(ctx, b)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "bill created",
		"id", b.ID,
		"number", b.Number,
		"items", len(b.Items),
		"total", b.Total,
	)
	return nil
}

// GetByID retrieves a bill with its items.
func (s *Service) GetByID(ctx context.Context, billID id.ID) (*Bill, error) {
	return s.repo.GetByID(ctx, billID)
}

// List retrieves bills with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Bill], error) {
	if filter.Limit <= 0 {
		filter.Limit = domain.DefaultListFilter().Limit
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "date"
	}
	return s.repo.List(ctx, filter)
}

// MarkPaid settles a pending bill. Stock was already decremented at
// creation, so payment itself has no ledger effect.
func (s *Service) MarkPaid(ctx context.Context, billID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByIDForUpdate(ctx, billID)
		if err != nil {
			return err
		}

		if b.Status != StatusPending {
			return apperror.NewInvalidTransition("Bill", string(b.Status), string(StatusPaid))
		}

		b.Status = StatusPaid
		b.Touch()
		return s.repo.Update(ctx, b)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "bill paid", "id", billID)
	return nil
}

// Cancel voids a pending bill and restores its stock. A paid bill cannot
// be cancelled; corrections to settled sales go through adjustments.
func (s *Service) Cancel(ctx context.Context, billID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByIDForUpdate(ctx, billID)
		if err != nil {
			return err
		}

		if b.Status != StatusPending {
			return apperror.NewInvalidTransition("Bill", string(b.Status), string(StatusCancelled))
		}

		if err := s.restoreStock(ctx, b); err != nil {
			return err
		}

		b.Status = StatusCancelled
		b.Touch()
		return s.repo.Update(ctx, b)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "bill cancelled", "id", billID)
	return nil
}

// Delete soft-deletes a bill. A pending bill gets its stock back first;
// a paid bill keeps its ledger effect, the sale happened.
func (s *Service) Delete(ctx context.Context, billID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByIDForUpdate(ctx, billID)
		if err != nil {
			return err
		}

		if b.Status == StatusPending {
			if err := s.restoreStock(ctx, b); err != nil {
				return err
			}
		}

		return s.repo.SetDeletionMark(ctx, billID, true)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "bill deleted", "id", billID)
	return nil
}

func (s *Service) restoreStock(ctx context.Context, b *Bill) error {
	ref := ledger.Ref{
		RecorderID:   b.ID,
		RecorderType: "Bill",
		Reason:       ledger.ReasonBillReversal,
	}
	for _, item := range b.Items {
		if _, err := s.stock.ApplyDelta(ctx, item.ProductID, item.Quantity, ref); err != nil {
			return err
		}
	}
	return nil
}
