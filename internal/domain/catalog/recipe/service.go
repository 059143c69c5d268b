package recipe

import (
	"context"
	"fmt"
	"time"

	"stockpile/internal/core/id"
	"stockpile/internal/core/tx"
	"stockpile/internal/domain"
	"stockpile/pkg/logger"
	"stockpile/pkg/numerator"
)

// Service provides business operations for recipes.
type Service struct {
	repo      Repository
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new recipe service.
func NewService(repo Repository, numerator *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		numerator: numerator,
		txManager: txManager,
	}
}

// Create creates a new recipe. When the recipe is active, any previously
// active recipe of the same product is deactivated in the same transaction.
func (s *Service) Create(ctx context.Context, r *Recipe) error {
	if err := r.Validate(ctx); err != nil {
		return err
	}

	if r.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("RCP"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		r.Code = code
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if r.Active {
			if err := s.repo.DeactivateByProduct(ctx, r.ProductID); err != nil {
				return fmt.Errorf("deactivate previous recipes: %w", err)
			}
		}
		return s.repo.Create(ctx, r)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "recipe created",
		"id", r.ID,
		"product_id", r.ProductID,
		"lines", len(r.Lines),
	)
	return nil
}

// GetByID retrieves a recipe with its lines.
func (s *Service) GetByID(ctx context.Context, recipeID id.ID) (*Recipe, error) {
	return s.repo.GetByID(ctx, recipeID)
}

// GetActiveByProduct returns the active recipe for a product.
func (s *Service) GetActiveByProduct(ctx context.Context, productID id.ID) (*Recipe, error) {
	return s.repo.GetActiveByProduct(ctx, productID)
}

// Update replaces a recipe's header and lines.
func (s *Service) Update(ctx context.Context, r *Recipe) error {
	if err := r.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if r.Active {
			if err := s.repo.DeactivateByProduct(ctx, r.ProductID); err != nil {
				return fmt.Errorf("deactivate previous recipes: %w", err)
			}
		}
		return s.repo.Update(ctx, r)
	})
}

// Activate makes a recipe the active one for its product, deactivating
// any other recipe of the same product.
func (s *Service) Activate(ctx context.Context, recipeID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		r, err := s.repo.GetByID(ctx, recipeID)
		if err != nil {
			return err
		}
		if r.Active {
			return nil
		}

		if err := s.repo.DeactivateByProduct(ctx, r.ProductID); err != nil {
			return fmt.Errorf("deactivate previous recipes: %w", err)
		}

		r.Active = true
		return s.repo.Update(ctx, r)
	})
}

// Deactivate soft-deletes a recipe.
func (s *Service) Deactivate(ctx context.Context, recipeID id.ID) error {
	return s.repo.SetDeletionMark(ctx, recipeID, true)
}

// List retrieves recipes with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Recipe], error) {
	if filter.Limit <= 0 {
		filter.Limit = domain.DefaultListFilter().Limit
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
	}
	return s.repo.List(ctx, filter)
}
