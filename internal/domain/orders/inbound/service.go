package inbound

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

// StockPoster posts stock increments for received goods. Satisfied by
// the ledger service.
type StockPoster interface {
	ApplyDelta(ctx context.Context, productID id.ID, delta int64, ref ledger.Ref) (int64, error)
}

// Service drives the purchase-order lifecycle and posts receiving
// increments to the stock ledger.
type Service struct {
	repo      Repository
	stock     StockPoster
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new purchase-order service.
func NewService(repo Repository, stock StockPoster, numerator *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		stock:     stock,
		numerator: numerator,
		txManager: txManager,
	}
}

// Create creates a draft purchase order.
func (s *Service) Create(ctx context.Context, po *PurchaseOrder) error {
	if po.Status == "" {
		po.Status = StatusDraft
	}
	if po.Status != StatusDraft {
		return apperror.NewValidation("purchase order must be created as draft").
			WithDetail("status", string(po.Status))
	}

	if err := po.Validate(ctx); err != nil {
		return err
	}

	if po.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PO"), nil, po.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		po.Number = number
	}
	po.CalculateTotal()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, po)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase order created",
		"id", po.ID,
		"number", po.Number,
		"supplier", po.SupplierName,
		"lines", len(po.Lines),
	)
	return nil
}

// GetByID retrieves a purchase order with its lines.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*PurchaseOrder, error) {
	return s.repo.GetByID(ctx, orderID)
}

// List retrieves purchase orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	if filter.Limit <= 0 {
		filter.Limit = domain.DefaultListFilter().Limit
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "date"
	}
	return s.repo.List(ctx, filter)
}

// Submit moves a draft order to pending.
func (s *Service) Submit(ctx context.Context, orderID id.ID) error {
	return s.advance(ctx, orderID, StatusPending)
}

// Approve moves a pending order to approved.
func (s *Service) Approve(ctx context.Context, orderID id.ID) error {
	return s.advance(ctx, orderID, StatusApproved)
}

// MarkShipped moves an approved order to shipped.
func (s *Service) MarkShipped(ctx context.Context, orderID id.ID) error {
	return s.advance(ctx, orderID, StatusShipped)
}

// Complete closes a fully received order.
func (s *Service) Complete(ctx context.Context, orderID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if !po.Status.CanAdvanceTo(StatusCompleted) {
			return apperror.NewInvalidTransition("PurchaseOrder", string(po.Status), string(StatusCompleted))
		}
		if !po.FullyReceived() {
			return apperror.NewValidation("purchase order is not fully received").
				WithDetail("order_id", orderID.String())
		}

		po.Status = StatusCompleted
		po.Touch()
		return s.repo.Update(ctx, po)
	})
}

// Cancel cancels an order in any pre-received state. Stock already
// received from partial receipts stays on hand: the goods physically
// exist regardless of the order's fate, and corrections go through
// adjustments.
func (s *Service) Cancel(ctx context.Context, orderID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if !po.Status.CanCancel() {
			return apperror.NewInvalidTransition("PurchaseOrder", string(po.Status), string(StatusCancelled))
		}

		po.Status = StatusCancelled
		po.Touch()
		return s.repo.Update(ctx, po)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase order cancelled", "id", orderID)
	return nil
}

func (s *Service) advance(ctx context.Context, orderID id.ID, next Status) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if !po.Status.CanAdvanceTo(next) {
			return apperror.NewInvalidTransition("PurchaseOrder", string(po.Status), string(next))
		}

		po.Status = next
		po.Touch()
		return s.repo.Update(ctx, po)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase order advanced", "id", orderID, "status", next)
	return nil
}

// ReceiptLine reports the cumulative received total for one order line.
type ReceiptLine struct {
	LineID      id.ID `json:"lineId"`
	ReceivedQty int64 `json:"receivedQty"`
}

// LineError is a per-line receiving failure.
type LineError struct {
	LineID id.ID  `json:"lineId"`
	Error  string `json:"error"`
}

// AppliedLine is one line whose receipt changed stock.
type AppliedLine struct {
	LineID      id.ID `json:"lineId"`
	ProductID   id.ID `json:"productId"`
	Delta       int64 `json:"delta"`
	ReceivedQty int64 `json:"receivedQty"`
}

// ReceiptResult summarizes a receiving submission.
type ReceiptResult struct {
	Applied []AppliedLine `json:"applied"`
	Errors  []LineError   `json:"errors,omitempty"`
	Status  Status        `json:"status"`
}

// ReceiveItems records received quantities against a shipped order.
// Quantities are cumulative totals, so resubmitting the same report is a
// no-op: the stock delta is the difference between the reported and the
// stored total. Lines that fail validation are collected and skipped,
// valid lines in the same report still land. When every line reaches
// its ordered quantity the order moves to received automatically.
func (s *Service) ReceiveItems(ctx context.Context, orderID id.ID, receipts []ReceiptLine) (*ReceiptResult, error) {
	if len(receipts) == 0 {
		return nil, apperror.NewValidation("receipt must have at least one line")
	}

	var result ReceiptResult

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if po.Status != StatusShipped && po.Status != StatusReceived {
			return apperror.NewInvalidTransition("PurchaseOrder", string(po.Status), string(StatusReceived)).
				WithDetail("reason", "receiving requires a shipped order")
		}

		result = ReceiptResult{Applied: make([]AppliedLine, 0, len(receipts))}
		ref := ledger.Ref{
			RecorderID:   po.ID,
			RecorderType: "PurchaseOrder",
			Reason:       ledger.ReasonPurchaseReceipt,
		}

		changed := false
		for _, r := range receipts {
			line := po.LineByID(r.LineID)
			if line == nil {
				result.Errors = append(result.Errors, LineError{
					LineID: r.LineID,
					Error:  "line not found on order",
				})
				continue
			}
			if r.ReceivedQty < 0 {
				result.Errors = append(result.Errors, LineError{
					LineID: r.LineID,
					Error:  "received quantity cannot be negative",
				})
				continue
			}
			if r.ReceivedQty > line.OrderedQty {
				overErr := apperror.NewOverReceipt(r.LineID.String(), line.OrderedQty, r.ReceivedQty)
				result.Errors = append(result.Errors, LineError{
					LineID: r.LineID,
					Error:  overErr.Message,
				})
				continue
			}

			delta := r.ReceivedQty - line.ReceivedQty
			if delta < 0 {
				result.Errors = append(result.Errors, LineError{
					LineID: r.LineID,
					Error:  "received total is below the recorded total",
				})
				continue
			}
			if delta == 0 {
				// Replay of an already recorded total, nothing to post.
				continue
			}

			if _, err := s.stock.ApplyDelta(ctx, line.ProductID, delta, ref); err != nil {
				return err
			}

			line.ReceivedQty = r.ReceivedQty
			changed = true
			result.Applied = append(result.Applied, AppliedLine{
				LineID:      line.LineID,
				ProductID:   line.ProductID,
				Delta:       delta,
				ReceivedQty: line.ReceivedQty,
			})
		}

		if changed {
			if po.FullyReceived() && po.Status == StatusShipped {
				po.Status = StatusReceived
			}
			po.Touch()
			if err := s.repo.Update(ctx, po); err != nil {
				return err
			}
		}

		result.Status = po.Status
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order receipt recorded",
		"id", orderID,
		"applied", len(result.Applied),
		"errors", len(result.Errors),
		"status", result.Status,
	)
	return &result, nil
}
