// Package production_repo provides the PostgreSQL implementation of the
// production batch repository.
package production_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockpile/internal/core/id"
	"stockpile/internal/domain"
	"stockpile/internal/domain/production"
	"stockpile/internal/infrastructure/storage/postgres"
	"stockpile/internal/infrastructure/storage/postgres/order_repo"
)

const (
	batchesTable    = "doc_production_batches"
	batchLinesTable = "doc_production_batch_lines"
)

// BatchRepo implements production.Repository.
type BatchRepo struct {
	*order_repo.BaseDocumentRepo[*production.Batch]
}

// NewBatchRepo creates a new production batch repository.
func NewBatchRepo(txm *postgres.TxManager) *BatchRepo {
	return &BatchRepo{
		BaseDocumentRepo: order_repo.NewBaseDocumentRepo(
			txm,
			batchesTable,
			postgres.ExtractDBColumns[production.Batch](),
			func() *production.Batch { return &production.Batch{} },
		),
	}
}

// Create inserts the header and the recipe snapshot lines.
func (r *BatchRepo) Create(ctx context.Context, b *production.Batch) error {
	if err := r.BaseDocumentRepo.Create(ctx, b); err != nil {
		return err
	}
	return r.saveLines(ctx, b.ID, b.Lines)
}

// Update persists the header with optimistic locking. Snapshot lines
// are immutable after planning and are not rewritten.
func (r *BatchRepo) Update(ctx context.Context, b *production.Batch) error {
	return r.BaseDocumentRepo.Update(ctx, b)
}

// GetByID retrieves a batch with its snapshot lines.
func (r *BatchRepo) GetByID(ctx context.Context, batchID id.ID) (*production.Batch, error) {
	b, err := r.BaseDocumentRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if b.Lines, err = r.getLines(ctx, batchID); err != nil {
		return nil, err
	}
	return b, nil
}

// GetByIDForUpdate retrieves a batch with its snapshot lines, locking
// the header row.
func (r *BatchRepo) GetByIDForUpdate(ctx context.Context, batchID id.ID) (*production.Batch, error) {
	b, err := r.GetForUpdate(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if b.Lines, err = r.getLines(ctx, batchID); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *BatchRepo) getLines(ctx context.Context, batchID id.ID) ([]production.BatchLine, error) {
	q := r.Builder().
		Select("line_id", "line_no", "material_id", "per_unit", "unit", "wastage_percent").
		From(batchLinesTable).
		Where(squirrel.Eq{"document_id": batchID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []production.BatchLine
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

func (r *BatchRepo) saveLines(ctx context.Context, batchID id.ID, lines []production.BatchLine) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + batchLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, batchID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(batchLinesTable).
		Columns("line_id", "document_id", "line_no", "material_id", "per_unit", "unit", "wastage_percent")

	for _, line := range lines {
		q = q.Values(line.LineID, batchID, line.LineNo, line.MaterialID, line.PerUnit, line.Unit, line.WastagePercent)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

// List retrieves batches with filtering. Snapshot lines are not loaded.
func (r *BatchRepo) List(ctx context.Context, filter production.ListFilter) (domain.ListResult[*production.Batch], error) {
	q := r.BaseSelect()

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}

	return r.ListQuery(ctx, q, filter.ListFilter)
}
