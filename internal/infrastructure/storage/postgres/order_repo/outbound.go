package order_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockpile/internal/core/id"
	"stockpile/internal/domain"
	"stockpile/internal/domain/orders/outbound"
	"stockpile/internal/infrastructure/storage/postgres"
)

const (
	customerOrdersTable     = "doc_customer_orders"
	customerOrderLinesTable = "doc_customer_order_lines"
)

// CustomerOrderRepo implements outbound.Repository.
type CustomerOrderRepo struct {
	*BaseDocumentRepo[*outbound.CustomerOrder]
}

// NewCustomerOrderRepo creates a new customer order repository.
func NewCustomerOrderRepo(txm *postgres.TxManager) *CustomerOrderRepo {
	return &CustomerOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			customerOrdersTable,
			postgres.ExtractDBColumns[outbound.CustomerOrder](),
			func() *outbound.CustomerOrder { return &outbound.CustomerOrder{} },
		),
	}
}

// Create inserts the header and lines.
func (r *CustomerOrderRepo) Create(ctx context.Context, co *outbound.CustomerOrder) error {
	if err := r.BaseDocumentRepo.Create(ctx, co); err != nil {
		return err
	}
	return r.saveLines(ctx, co.ID, co.Lines)
}

// Update persists the header and lines with optimistic locking.
func (r *CustomerOrderRepo) Update(ctx context.Context, co *outbound.CustomerOrder) error {
	if err := r.BaseDocumentRepo.Update(ctx, co); err != nil {
		return err
	}
	return r.saveLines(ctx, co.ID, co.Lines)
}

// GetByID retrieves a customer order with its lines.
func (r *CustomerOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*outbound.CustomerOrder, error) {
	co, err := r.BaseDocumentRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if co.Lines, err = r.getLines(ctx, orderID); err != nil {
		return nil, err
	}
	return co, nil
}

// GetByIDForUpdate retrieves a customer order with its lines, locking
// the header row.
func (r *CustomerOrderRepo) GetByIDForUpdate(ctx context.Context, orderID id.ID) (*outbound.CustomerOrder, error) {
	co, err := r.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if co.Lines, err = r.getLines(ctx, orderID); err != nil {
		return nil, err
	}
	return co, nil
}

func (r *CustomerOrderRepo) getLines(ctx context.Context, orderID id.ID) ([]outbound.Line, error) {
	q := r.Builder().
		Select("line_id", "line_no", "product_id", "quantity", "unit_price").
		From(customerOrderLinesTable).
		Where(squirrel.Eq{"document_id": orderID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []outbound.Line
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

func (r *CustomerOrderRepo) saveLines(ctx context.Context, orderID id.ID, lines []outbound.Line) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + customerOrderLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, orderID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(customerOrderLinesTable).
		Columns("line_id", "document_id", "line_no", "product_id", "quantity", "unit_price")

	for _, line := range lines {
		q = q.Values(line.LineID, orderID, line.LineNo, line.ProductID, line.Quantity, line.UnitPrice)
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

// List retrieves customer orders with filtering. Lines are not loaded.
func (r *CustomerOrderRepo) List(ctx context.Context, filter outbound.ListFilter) (domain.ListResult[*outbound.CustomerOrder], error) {
	q := r.BaseSelect()

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Customer != nil {
		q = q.Where(squirrel.ILike{"customer_name": "%" + *filter.Customer + "%"})
	}

	return r.ListQuery(ctx, q, filter.ListFilter)
}
