// Package bill implements point-of-sale bills. A bill is the degenerate
// outbound document: stock is decremented synchronously at creation and
// restored only if the bill is deleted before payment.
package bill

import (
	"context"

	"github.com/shopspring/decimal"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/entity"
	"stockpile/internal/core/id"
	"stockpile/internal/core/types"
)

// Status is the lifecycle state of a bill.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// Bill is a point-of-sale document.
type Bill struct {
	entity.Document

	CustomerName string      `db:"customer_name" json:"customerName"`
	Status       Status      `db:"status" json:"status"`
	Total        types.Money `db:"total" json:"total"`

	// Table part
	Items []Item `db:"-" json:"items"`
}

// Item is one sold product on a bill.
type Item struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`
	Quantity  int64 `db:"quantity" json:"quantity"`

	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
}

// NewBill creates a pending bill.
func NewBill(customerName string) *Bill {
	return &Bill{
		Document:     entity.NewDocument(),
		CustomerName: customerName,
		Status:       StatusPending,
		Items:        make([]Item, 0),
	}
}

// AddItem appends a sold product.
func (b *Bill) AddItem(productID id.ID, quantity int64, unitPrice types.Money) {
	b.Items = append(b.Items, Item{
		LineID:    id.New(),
		LineNo:    len(b.Items) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
}

// CalculateTotal recomputes the document total from its items.
func (b *Bill) CalculateTotal() {
	total := types.Zero()
	for _, item := range b.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)))
	}
	b.Total = total
}

// Validate implements entity.Validatable interface.
func (b *Bill) Validate(ctx context.Context) error {
	if err := b.Document.Validate(ctx); err != nil {
		return err
	}

	if len(b.Items) == 0 {
		return apperror.NewValidation("bill must have at least one item").
			WithDetail("field", "items")
	}

	for i, item := range b.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
