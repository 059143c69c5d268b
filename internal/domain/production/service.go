package production

import (
	"context"
	"fmt"
	"time"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/id"
	"stockpile/internal/core/tx"
	"stockpile/internal/core/types"
	"stockpile/internal/domain"
	"stockpile/internal/domain/catalog/material"
	"stockpile/internal/domain/catalog/recipe"
	"stockpile/internal/domain/ledger"
	"stockpile/pkg/logger"
	"stockpile/pkg/numerator"
)

// RecipeSource resolves recipes. Satisfied by the recipe service.
type RecipeSource interface {
	GetByID(ctx context.Context, recipeID id.ID) (*recipe.Recipe, error)
	GetActiveByProduct(ctx context.Context, productID id.ID) (*recipe.Recipe, error)
}

// MaterialStore reads material stock and applies consumption deltas.
// Satisfied by the material service.
type MaterialStore interface {
	GetByIDs(ctx context.Context, materialIDs []id.ID) ([]*material.RawMaterial, error)
	ApplyStockDelta(ctx context.Context, materialID id.ID, delta types.Quantity, ref material.StockRef) (types.Quantity, error)
}

// StockPoster posts finished-product output. Satisfied by the ledger
// service.
type StockPoster interface {
	ApplyDelta(ctx context.Context, productID id.ID, delta int64, ref ledger.Ref) (int64, error)
}

// Service drives the production-batch lifecycle. Feasibility previews
// never move stock; consumption happens exactly once per batch, when it
// enters in_progress or completed.
type Service struct {
	repo      Repository
	recipes   RecipeSource
	materials MaterialStore
	stock     StockPoster
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new production service.
func NewService(
	repo Repository,
	recipes RecipeSource,
	materials MaterialStore,
	stock StockPoster,
	numerator *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		recipes:   recipes,
		materials: materials,
		stock:     stock,
		numerator: numerator,
		txManager: txManager,
	}
}

// EvaluateProduct previews feasibility for producing quantity units of a
// product with its active recipe. Read only.
func (s *Service) EvaluateProduct(ctx context.Context, productID id.ID, quantity int64) (*Evaluation, error) {
	rec, err := s.recipes.GetActiveByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, rec, quantity)
}

func (s *Service) evaluate(ctx context.Context, rec *recipe.Recipe, quantity int64) (*Evaluation, error) {
	stocks, err := s.availability(ctx, materialIDsOf(rec))
	if err != nil {
		return nil, err
	}
	return Evaluate(rec, stocks, quantity)
}

func materialIDsOf(rec *recipe.Recipe) []id.ID {
	ids := make([]id.ID, 0, len(rec.Lines))
	for _, line := range rec.Lines {
		ids = append(ids, line.MaterialID)
	}
	return ids
}

func (s *Service) availability(ctx context.Context, ids []id.ID) (map[id.ID]Availability, error) {
	if len(ids) == 0 {
		return map[id.ID]Availability{}, nil
	}
	materials, err := s.materials.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	stocks := make(map[id.ID]Availability, len(materials))
	for _, m := range materials {
		stocks[m.ID] = Availability{Stock: m.CurrentStock, CostPerUnit: m.CostPerUnit}
	}
	return stocks, nil
}

// Plan creates a planned batch for a product, snapshotting its active
// recipe. A product without an active recipe cannot be planned.
func (s *Service) Plan(ctx context.Context, productID id.ID, quantity int64) (*Batch, error) {
	if quantity <= 0 {
		return nil, apperror.NewValidation("planned quantity must be positive").
			WithDetail("quantity", quantity)
	}

	rec, err := s.recipes.GetActiveByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	b := NewBatch(rec, quantity)
	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PB"), nil, time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}
	b.Number = number

	if err := b.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "production batch planned",
		"id", b.ID,
		"number", b.Number,
		"product_id", b.ProductID,
		"quantity", b.PlannedQuantity,
	)
	return b, nil
}

// GetByID retrieves a batch with its snapshot lines.
func (s *Service) GetByID(ctx context.Context, batchID id.ID) (*Batch, error) {
	return s.repo.GetByID(ctx, batchID)
}

// List retrieves batches with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Batch], error) {
	if filter.Limit <= 0 {
		filter.Limit = domain.DefaultListFilter().Limit
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "date"
	}
	return s.repo.List(ctx, filter)
}

// Start moves a planned batch to in_progress, consuming its materials.
// The consumption requirement is re-checked against current stock under
// row locks, so a preview that has gone stale cannot oversubscribe.
func (s *Service) Start(ctx context.Context, batchID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByIDForUpdate(ctx, batchID)
		if err != nil {
			return err
		}

		if b.Status != StatusPlanned {
			return apperror.NewInvalidTransition("ProductionBatch", string(b.Status), string(StatusInProgress))
		}

		if err := s.consume(ctx, b); err != nil {
			return err
		}

		b.Status = StatusInProgress
		b.Touch()
		return s.repo.Update(ctx, b)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "production batch started", "id", batchID)
	return nil
}

// Complete finishes a batch and posts the produced quantity to the
// product ledger. A planned batch may complete directly, consuming its
// materials on the way.
func (s *Service) Complete(ctx context.Context, batchID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByIDForUpdate(ctx, batchID)
		if err != nil {
			return err
		}

		if b.Status != StatusPlanned && b.Status != StatusInProgress {
			return apperror.NewInvalidTransition("ProductionBatch", string(b.Status), string(StatusCompleted))
		}

		if err := s.consume(ctx, b); err != nil {
			return err
		}

		if _, err := s.stock.ApplyDelta(ctx, b.ProductID, b.PlannedQuantity, ledger.Ref{
			RecorderID:   b.ID,
			RecorderType: "ProductionBatch",
			Reason:       ledger.ReasonProductionOutput,
		}); err != nil {
			return err
		}

		b.Status = StatusCompleted
		b.Touch()
		return s.repo.Update(ctx, b)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "production batch completed", "id", batchID)
	return nil
}

// Cancel aborts a batch. Materials already consumed go back to stock:
// nothing was produced, so the consumption was an intent, not a fact.
func (s *Service) Cancel(ctx context.Context, batchID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByIDForUpdate(ctx, batchID)
		if err != nil {
			return err
		}

		if b.Status.IsTerminal() {
			return apperror.NewInvalidTransition("ProductionBatch", string(b.Status), string(StatusCancelled))
		}

		if b.Consumed {
			ref := material.StockRef{
				RecorderID:   b.ID,
				RecorderType: "ProductionBatch",
				Reason:       material.ReasonAdjustment,
			}
			for _, line := range b.Lines {
				amount := line.ConsumptionFor(b.PlannedQuantity)
				if amount.IsZero() {
					continue
				}
				if _, err := s.materials.ApplyStockDelta(ctx, line.MaterialID, amount, ref); err != nil {
					return err
				}
			}
			b.Consumed = false
		}

		b.Status = StatusCancelled
		b.Touch()
		return s.repo.Update(ctx, b)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "production batch cancelled", "id", batchID)
	return nil
}

// consume decrements every snapshot line's material once. All deltas
// land in the ambient transaction, so a shortfall on the last material
// rolls back the earlier ones.
func (s *Service) consume(ctx context.Context, b *Batch) error {
	if b.Consumed {
		return nil
	}

	ref := material.StockRef{
		RecorderID:   b.ID,
		RecorderType: "ProductionBatch",
		Reason:       material.ReasonConsumption,
	}
	for _, line := range b.Lines {
		amount := line.ConsumptionFor(b.PlannedQuantity)
		if amount.IsZero() {
			continue
		}
		if _, err := s.materials.ApplyStockDelta(ctx, line.MaterialID, amount.Neg(), ref); err != nil {
			return err
		}
	}

	b.Consumed = true
	return nil
}
