package material

import (
	"context"
	"fmt"
	"time"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/id"
	"stockpile/internal/core/tx"
	"stockpile/internal/core/types"
	"stockpile/internal/domain"
	"stockpile/pkg/logger"
	"stockpile/pkg/numerator"
)

// Service provides business operations for raw materials, including the
// stock mutation primitive used by production commits and replenishment.
type Service struct {
	repo      Repository
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new material service.
func NewService(repo Repository, numerator *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		numerator: numerator,
		txManager: txManager,
	}
}

// Create creates a new raw material.
func (s *Service) Create(ctx context.Context, m *RawMaterial) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}

	if m.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("MAT"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		m.Code = code
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, m)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "raw material created", "id", m.ID, "name", m.Name)
	return nil
}

// GetByID retrieves a material by id.
func (s *Service) GetByID(ctx context.Context, materialID id.ID) (*RawMaterial, error) {
	return s.repo.GetByID(ctx, materialID)
}

// GetByIDs retrieves several materials at once (used by the feasibility engine).
func (s *Service) GetByIDs(ctx context.Context, materialIDs []id.ID) ([]*RawMaterial, error) {
	return s.repo.GetByIDs(ctx, materialIDs)
}

// Update updates a material's catalog fields. CurrentStock is not written
// here; it belongs to the stock primitives below.
func (s *Service) Update(ctx context.Context, m *RawMaterial) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, m)
	})
}

// Deactivate soft-deletes a material.
func (s *Service) Deactivate(ctx context.Context, materialID id.ID) error {
	return s.repo.SetDeletionMark(ctx, materialID, true)
}

// List retrieves materials with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*RawMaterial], error) {
	if filter.Limit <= 0 {
		filter.Limit = domain.DefaultListFilter().Limit
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
	}
	return s.repo.List(ctx, filter)
}

// LowStock returns materials at or under their reorder level.
func (s *Service) LowStock(ctx context.Context) ([]*RawMaterial, error) {
	return s.repo.ListBelowReorderLevel(ctx)
}

// ApplyStockDelta applies a signed stock change to a material under a row
// lock, recording a movement. A decrement below zero fails with
// INSUFFICIENT_STOCK and leaves the stock unchanged.
func (s *Service) ApplyStockDelta(ctx context.Context, materialID id.ID, delta types.Quantity, ref StockRef) (types.Quantity, error) {
	var resulting types.Quantity

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetStockForUpdate(ctx, materialID)
		if err != nil {
			return err
		}

		if delta.IsZero() {
			resulting = current
			return nil
		}

		next := current + delta
		if next.IsNegative() {
			return apperror.NewInsufficientMaterial(materialID.String(), delta.Neg().String(), current.String())
		}

		if err := s.repo.SetStock(ctx, materialID, next); err != nil {
			return fmt.Errorf("set stock: %w", err)
		}

		m := StockMovement{
			LineID:       id.New(),
			MaterialID:   materialID,
			Delta:        delta,
			Resulting:    next,
			RecorderID:   ref.RecorderID,
			RecorderType: ref.RecorderType,
			Reason:       ref.Reason,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.repo.InsertStockMovement(ctx, m); err != nil {
			return fmt.Errorf("insert stock movement: %w", err)
		}

		resulting = next
		return nil
	})
	if err != nil {
		return 0, err
	}

	return resulting, nil
}

// AdjustStock is the administrative stock write for materials: sets an
// absolute quantity, clamping negative inputs to zero.
func (s *Service) AdjustStock(ctx context.Context, materialID id.ID, quantity types.Quantity, ref StockRef) (types.Quantity, error) {
	if quantity.IsNegative() {
		quantity = 0
	}

	var resulting types.Quantity
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetStockForUpdate(ctx, materialID)
		if err != nil {
			return err
		}

		if current == quantity {
			resulting = current
			return nil
		}

		if err := s.repo.SetStock(ctx, materialID, quantity); err != nil {
			return fmt.Errorf("set stock: %w", err)
		}

		m := StockMovement{
			LineID:       id.New(),
			MaterialID:   materialID,
			Delta:        quantity - current,
			Resulting:    quantity,
			RecorderID:   ref.RecorderID,
			RecorderType: ref.RecorderType,
			Reason:       ReasonAdjustment,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.repo.InsertStockMovement(ctx, m); err != nil {
			return fmt.Errorf("insert stock movement: %w", err)
		}

		resulting = quantity
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx, "material stock adjusted",
		"material_id", materialID,
		"quantity", resulting,
	)

	return resulting, nil
}
