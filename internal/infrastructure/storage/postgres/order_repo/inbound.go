package order_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockpile/internal/core/id"
	"stockpile/internal/domain"
	"stockpile/internal/domain/orders/inbound"
	"stockpile/internal/infrastructure/storage/postgres"
)

const (
	purchaseOrdersTable     = "doc_purchase_orders"
	purchaseOrderLinesTable = "doc_purchase_order_lines"
)

// PurchaseOrderRepo implements inbound.Repository.
type PurchaseOrderRepo struct {
	*BaseDocumentRepo[*inbound.PurchaseOrder]
}

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txm *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			purchaseOrdersTable,
			postgres.ExtractDBColumns[inbound.PurchaseOrder](),
			func() *inbound.PurchaseOrder { return &inbound.PurchaseOrder{} },
		),
	}
}

// Create inserts the header and lines.
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *inbound.PurchaseOrder) error {
	if err := r.BaseDocumentRepo.Create(ctx, po); err != nil {
		return err
	}
	return r.saveLines(ctx, po.ID, po.Lines)
}

// Update persists the header and lines with optimistic locking.
func (r *PurchaseOrderRepo) Update(ctx context.Context, po *inbound.PurchaseOrder) error {
	if err := r.BaseDocumentRepo.Update(ctx, po); err != nil {
		return err
	}
	return r.saveLines(ctx, po.ID, po.Lines)
}

// GetByID retrieves a purchase order with its lines.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*inbound.PurchaseOrder, error) {
	po, err := r.BaseDocumentRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if po.Lines, err = r.getLines(ctx, orderID); err != nil {
		return nil, err
	}
	return po, nil
}

// GetByIDForUpdate retrieves a purchase order with its lines, locking
// the header row.
func (r *PurchaseOrderRepo) GetByIDForUpdate(ctx context.Context, orderID id.ID) (*inbound.PurchaseOrder, error) {
	po, err := r.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if po.Lines, err = r.getLines(ctx, orderID); err != nil {
		return nil, err
	}
	return po, nil
}

func (r *PurchaseOrderRepo) getLines(ctx context.Context, orderID id.ID) ([]inbound.Line, error) {
	q := r.Builder().
		Select("line_id", "line_no", "product_id", "ordered_qty", "received_qty", "unit_cost").
		From(purchaseOrderLinesTable).
		Where(squirrel.Eq{"document_id": orderID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []inbound.Line
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

func (r *PurchaseOrderRepo) saveLines(ctx context.Context, orderID id.ID, lines []inbound.Line) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + purchaseOrderLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, orderID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(purchaseOrderLinesTable).
		Columns("line_id", "document_id", "line_no", "product_id", "ordered_qty", "received_qty", "unit_cost")

	for _, line := range lines {
		q = q.Values(line.LineID, orderID, line.LineNo, line.ProductID, line.OrderedQty, line.ReceivedQty, line.UnitCost)
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

// List retrieves purchase orders with filtering. Lines are not loaded.
func (r *PurchaseOrderRepo) List(ctx context.Context, filter inbound.ListFilter) (domain.ListResult[*inbound.PurchaseOrder], error) {
	q := r.BaseSelect()

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Supplier != nil {
		q = q.Where(squirrel.ILike{"supplier_name": "%" + *filter.Supplier + "%"})
	}

	return r.ListQuery(ctx, q, filter.ListFilter)
}
