package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/id"
	"stockpile/internal/core/types"
	"stockpile/internal/domain/catalog/material"
	"stockpile/internal/infrastructure/storage/postgres"
)

const (
	materialTable          = "cat_raw_materials"
	materialMovementsTable = "reg_material_movements"
)

// MaterialRepo implements material.Repository.
type MaterialRepo struct {
	*BaseCatalogRepo[*material.RawMaterial]
}

// NewMaterialRepo creates a new raw material repository.
func NewMaterialRepo(txm *postgres.TxManager) *MaterialRepo {
	return &MaterialRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			materialTable,
			postgres.ExtractDBColumns[material.RawMaterial](),
			func() *material.RawMaterial { return &material.RawMaterial{} },
		),
	}
}

// GetByIDs retrieves several materials at once.
func (r *MaterialRepo) GetByIDs(ctx context.Context, materialIDs []id.ID) ([]*material.RawMaterial, error) {
	if len(materialIDs) == 0 {
		return nil, nil
	}

	q := r.baseSelect().
		Where(squirrel.Eq{"id": materialIDs})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*material.RawMaterial
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get by ids: %w", err)
	}

	return items, nil
}

// GetStockForUpdate reads a material's stock with a row lock. Must run
// inside a transaction.
func (r *MaterialRepo) GetStockForUpdate(ctx context.Context, materialID id.ID) (types.Quantity, error) {
	q := r.Builder().
		Select("current_stock").
		From(materialTable).
		Where(squirrel.Eq{"id": materialID}).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var stock types.Quantity
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&stock); err != nil {
		if pgxscan.NotFound(err) {
			return 0, apperror.NewNotFound("raw material", materialID.String())
		}
		return 0, fmt.Errorf("get stock for update: %w", err)
	}

	return stock, nil
}

// SetStock writes the new stock quantity. Only the material service
// calls this, after a locked read.
func (r *MaterialRepo) SetStock(ctx context.Context, materialID id.ID, quantity types.Quantity) error {
	q := r.Builder().
		Update(materialTable).
		Set("current_stock", quantity).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": materialID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set stock: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("raw material", materialID.String())
	}

	return nil
}

// InsertStockMovement records an immutable material movement entry.
func (r *MaterialRepo) InsertStockMovement(ctx context.Context, m material.StockMovement) error {
	q := r.Builder().
		Insert(materialMovementsTable).
		SetMap(postgres.StructToMap(m))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert material movement: %w", err)
	}

	return nil
}

// ListBelowReorderLevel retrieves materials at or under their reorder level.
func (r *MaterialRepo) ListBelowReorderLevel(ctx context.Context) ([]*material.RawMaterial, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Expr("current_stock <= reorder_level")).
		OrderBy("current_stock ASC, name ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*material.RawMaterial
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list below reorder level: %w", err)
	}

	return items, nil
}
