// Package ledger_repo provides the PostgreSQL implementation of the
// stock ledger. On-hand quantities live on the product rows; movements
// form an append-only register.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/id"
	"stockpile/internal/domain/ledger"
	"stockpile/internal/infrastructure/storage/postgres"
)

const (
	productTable   = "cat_products"
	movementsTable = "reg_stock_movements"
)

// StockRepo implements ledger.Repository.
type StockRepo struct {
	txm *postgres.TxManager
}

// NewStockRepo creates a new stock ledger repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{txm: txm}
}

func (r *StockRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// GetOnHand returns the current on-hand quantity for a product.
func (r *StockRepo) GetOnHand(ctx context.Context, productID id.ID) (int64, error) {
	return r.getOnHand(ctx, productID, false)
}

// GetOnHandForUpdate returns the quantity with a row lock. Must run
// inside a transaction; the lock serializes concurrent deltas for the
// same product.
func (r *StockRepo) GetOnHandForUpdate(ctx context.Context, productID id.ID) (int64, error) {
	return r.getOnHand(ctx, productID, true)
}

func (r *StockRepo) getOnHand(ctx context.Context, productID id.ID, forUpdate bool) (int64, error) {
	q := r.builder().
		Select("on_hand").
		From(productTable).
		Where(squirrel.Eq{"id": productID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var onHand int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&onHand); err != nil {
		if pgxscan.NotFound(err) {
			return 0, apperror.NewNotFound("product", productID.String())
		}
		return 0, fmt.Errorf("get on-hand: %w", err)
	}

	return onHand, nil
}

// SetOnHand writes the new quantity for a product.
func (r *StockRepo) SetOnHand(ctx context.Context, productID id.ID, quantity int64) error {
	q := r.builder().
		Update(productTable).
		Set("on_hand", quantity).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set on-hand: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}

	return nil
}

// InsertMovement records an immutable movement entry.
func (r *StockRepo) InsertMovement(ctx context.Context, m ledger.Movement) error {
	q := r.builder().
		Insert(movementsTable).
		SetMap(postgres.StructToMap(m))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}

	return nil
}

// ListMovements returns movement history, newest first.
func (r *StockRepo) ListMovements(ctx context.Context, filter ledger.MovementFilter) ([]ledger.Movement, error) {
	q := r.builder().
		Select(postgres.ExtractDBColumns[ledger.Movement]()...).
		From(movementsTable)

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.RecorderID != nil {
		q = q.Where(squirrel.Eq{"recorder_id": *filter.RecorderID})
	}
	if filter.Reason != nil {
		q = q.Where(squirrel.Eq{"reason": *filter.Reason})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}

	q = q.OrderBy("created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []ledger.Movement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}

	return movements, nil
}
