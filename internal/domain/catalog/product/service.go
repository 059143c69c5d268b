package product

import (
	"context"
	"fmt"
	"time"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/id"
	"stockpile/internal/core/tx"
	"stockpile/internal/domain"
	"stockpile/pkg/logger"
	"stockpile/pkg/numerator"
)

// Service provides business operations for the Product catalog.
type Service struct {
	repo      Repository
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new product service.
func NewService(repo Repository, numerator *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		numerator: numerator,
		txManager: txManager,
	}
}

// Create creates a new product.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	if exists, err := s.repo.ExistsBySKU(ctx, p.SKU); err != nil {
		return fmt.Errorf("check sku: %w", err)
	} else if exists {
		return apperror.NewDuplicate("product", "sku", p.SKU)
	}

	if p.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PRD"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		p.Code = code
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product created", "id", p.ID, "sku", p.SKU)
	return nil
}

// GetByID retrieves a product by id.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// GetBySKU retrieves a product by SKU.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.repo.GetBySKU(ctx, sku)
}

// Update updates an existing product. On-hand quantity is not written here;
// it belongs to the ledger.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, p)
	})
}

// Deactivate soft-deletes a product. Historical order lines keep referencing it.
func (s *Service) Deactivate(ctx context.Context, productID id.ID) error {
	if err := s.repo.SetDeletionMark(ctx, productID, true); err != nil {
		return err
	}
	logger.Info(ctx, "product deactivated", "id", productID)
	return nil
}

// Reactivate clears the deletion mark.
func (s *Service) Reactivate(ctx context.Context, productID id.ID) error {
	return s.repo.SetDeletionMark(ctx, productID, false)
}

// List retrieves products with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error) {
	if filter.Limit <= 0 {
		filter.Limit = domain.DefaultListFilter().Limit
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
	}
	return s.repo.List(ctx, filter)
}

// LowStock returns products at or under their reorder threshold.
func (s *Service) LowStock(ctx context.Context) ([]*Product, error) {
	return s.repo.ListBelowThreshold(ctx)
}
