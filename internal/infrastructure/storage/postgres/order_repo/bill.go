package order_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockpile/internal/core/id"
	"stockpile/internal/domain"
	"stockpile/internal/domain/orders/bill"
	"stockpile/internal/infrastructure/storage/postgres"
)

const (
	billsTable     = "doc_bills"
	billItemsTable = "doc_bill_items"
)

// BillRepo implements bill.Repository.
type BillRepo struct {
	*BaseDocumentRepo[*bill.Bill]
}

// NewBillRepo creates a new bill repository.
func NewBillRepo(txm *postgres.TxManager) *BillRepo {
	return &BillRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			billsTable,
			postgres.ExtractDBColumns[bill.Bill](),
			func() *bill.Bill { return &bill.Bill{} },
		),
	}
}

// Create inserts the header and items.
func (r *BillRepo) Create(ctx context.Context, b *bill.Bill) error {
	if err := r.BaseDocumentRepo.Create(ctx, b); err != nil {
		return err
	}
	return r.saveItems(ctx, b.ID, b.Items)
}

// Update persists the header and items with optimistic locking.
func (r *BillRepo) Update(ctx context.Context, b *bill.Bill) error {
	if err := r.BaseDocumentRepo.Update(ctx, b); err != nil {
		return err
	}
	return r.saveItems(ctx, b.ID, b.Items)
}

// GetByID retrieves a bill with its items.
func (r *BillRepo) GetByID(ctx context.Context, billID id.ID) (*bill.Bill, error) {
	b, err := r.BaseDocumentRepo.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if b.Items, err = r.getItems(ctx, billID); err != nil {
		return nil, err
	}
	return b, nil
}

// GetByIDForUpdate retrieves a bill with its items, locking the header row.
func (r *BillRepo) GetByIDForUpdate(ctx context.Context, billID id.ID) (*bill.Bill, error) {
	b, err := r.GetForUpdate(ctx, billID)
	if err != nil {
		return nil, err
	}
	if b.Items, err = r.getItems(ctx, billID); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *BillRepo) getItems(ctx context.Context, billID id.ID) ([]bill.Item, error) {
	q := r.Builder().
		Select("line_id", "line_no", "product_id", "quantity", "unit_price").
		From(billItemsTable).
		Where(squirrel.Eq{"document_id": billID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []bill.Item
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	return items, nil
}

func (r *BillRepo) saveItems(ctx context.Context, billID id.ID, items []bill.Item) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + billItemsTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, billID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(billItemsTable).
		Columns("line_id", "document_id", "line_no", "product_id", "quantity", "unit_price")

	for _, item := range items {
		q = q.Values(item.LineID, billID, item.LineNo, item.ProductID, item.Quantity, item.UnitPrice)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}

	return nil
}

// List retrieves bills with filtering. Items are not loaded.
func (r *BillRepo) List(ctx context.Context, filter bill.ListFilter) (domain.ListResult[*bill.Bill], error) {
	q := r.BaseSelect()

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Customer != nil {
		q = q.Where(squirrel.ILike{"customer_name": "%" + *filter.Customer + "%"})
	}

	return r.ListQuery(ctx, q, filter.ListFilter)
}
