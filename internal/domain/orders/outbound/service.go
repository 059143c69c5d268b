package outbound

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

// StockPoster applies reservation and release deltas atomically.
// Satisfied by the ledger service.
type StockPoster interface {
	ApplyDeltas(ctx context.Context, deltas []ledger.Delta, ref ledger.Ref) error
}

// Service drives the customer-order lifecycle. Every status change goes
// through Transition, which evaluates the reservation rule exactly once
// per order lifetime in each direction.
type Service struct {
	repo      Repository
	stock     StockPoster
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new customer-order service.
func NewService(repo Repository, stock StockPoster, numerator *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		stock:     stock,
		numerator: numerator,
		txManager: txManager,
	}
}

// Create creates a pending customer order. No stock moves until the
// order is confirmed.
func (s *Service) Create(ctx context.Context, co *CustomerOrder) error {
	if co.Status == "" {
		co.Status = StatusPending
	}
	if co.Status != StatusPending {
		return apperror.NewValidation("customer order must be created as pending").
			WithDetail("status", string(co.Status))
	}
	if co.StockReserved {
		return apperror.NewValidation("new order cannot have reserved stock")
	}

	if err := co.Validate(ctx); err != nil {
		return err
	}

	if co.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("SO"), nil, co.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		co.Number = number
	}
	co.CalculateTotal()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, co)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "customer order created",
		"id", co.ID,
		"number", co.Number,
		"customer", co.CustomerName,
		"lines", len(co.Lines),
	)
	return nil
}

// GetByID retrieves a customer order with its lines.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*CustomerOrder, error) {
	return s.repo.GetByID(ctx, orderID)
}

// List retrieves customer orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*CustomerOrder], error) {
	if filter.Limit <= 0 {
		filter.Limit = domain.DefaultListFilter().Limit
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "date"
	}
	return s.repo.List(ctx, filter)
}

// TransitionResult reports the outcome of a status change.
type TransitionResult struct {
	Status        Status `json:"status"`
	StockReserved bool   `json:"stockReserved"`
	Effect        Effect `json:"-"`
}

// Transition moves an order to the target status, applying the
// reservation rule. The order row is locked for the duration, so a
// cancel racing a confirm for the same order serializes; repeating a
// call with the current status is a no-op.
func (s *Service) Transition(ctx context.Context, orderID id.ID, target Status) (*TransitionResult, error) {
	var result TransitionResult

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		co, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if co.Status == target {
			result = TransitionResult{Status: co.Status, StockReserved: co.StockReserved, Effect: EffectNone}
			return nil
		}
		if !co.Status.CanTransitionTo(target) {
			return apperror.NewInvalidTransition("CustomerOrder", string(co.Status), string(target))
		}

		effect := TransitionEffect(co.StockReserved, target)
		switch effect {
		case EffectReserve:
			if err := s.stock.ApplyDeltas(ctx, co.reservationDeltas(-1), ledger.Ref{
				RecorderID:   co.ID,
				RecorderType: "CustomerOrder",
				Reason:       ledger.ReasonOrderReservation,
			}); err != nil {
				return err
			}
			co.StockReserved = true
		case EffectRelease:
			if err := s.stock.ApplyDeltas(ctx, co.reservationDeltas(+1), ledger.Ref{
				RecorderID:   co.ID,
				RecorderType: "CustomerOrder",
				Reason:       ledger.ReasonOrderRelease,
			}); err != nil {
				return err
			}
			co.StockReserved = false
		}

		co.Status = target
		co.Touch()
		if err := s.repo.Update(ctx, co); err != nil {
			return err
		}

		result = TransitionResult{Status: co.Status, StockReserved: co.StockReserved, Effect: effect}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "customer order transitioned",
		"id", orderID,
		"status", result.Status,
		"stock_reserved", result.StockReserved,
	)
	return &result, nil
}

// reservationDeltas builds one signed delta per line. sign is -1 for a
// reservation, +1 for a release.
func (co *CustomerOrder) reservationDeltas(sign int64) []ledger.Delta {
	deltas := make([]ledger.Delta, 0, len(co.Lines))
	for _, line := range co.Lines {
		deltas = append(deltas, ledger.Delta{
			ProductID: line.ProductID,
			Quantity:  sign * line.Quantity,
		})
	}
	return deltas
}

// Confirm is shorthand for Transition to confirmed.
func (s *Service) Confirm(ctx context.Context, orderID id.ID) (*TransitionResult, error) {
	return s.Transition(ctx, orderID, StatusConfirmed)
}

// Cancel is shorthand for Transition to cancelled.
func (s *Service) Cancel(ctx context.Context, orderID id.ID) (*TransitionResult, error) {
	return s.Transition(ctx, orderID, StatusCancelled)
}
