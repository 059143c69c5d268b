// Package inbound implements purchase orders: the inbound replenishment
// document whose receiving posts stock increments to the ledger.
package inbound

import (
	"context"

	"github.com/shopspring/decimal"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/entity"
	"stockpile/internal/core/id"
	"stockpile/internal/core/types"
)

// Status is the lifecycle state of a purchase order.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusShipped   Status = "shipped"
	StatusReceived  Status = "received"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// forwardTransitions lists the allowed forward edges of the lifecycle.
// Cancellation is handled separately: any pre-received state may cancel.
var forwardTransitions = map[Status]Status{
	StatusDraft:    StatusPending,
	StatusPending:  StatusApproved,
	StatusApproved: StatusShipped,
	StatusShipped:  StatusReceived,
	StatusReceived: StatusCompleted,
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanAdvanceTo reports whether the single-step forward transition to
// next is allowed from s.
func (s Status) CanAdvanceTo(next Status) bool {
	return forwardTransitions[s] == next
}

// CanCancel reports whether the order may still be cancelled. A fully
// received order must run to completed instead.
func (s Status) CanCancel() bool {
	return s != StatusReceived && !s.IsTerminal()
}

// PurchaseOrder is an inbound replenishment document.
type PurchaseOrder struct {
	entity.Document

	SupplierName string      `db:"supplier_name" json:"supplierName"`
	Status       Status      `db:"status" json:"status"`
	Total        types.Money `db:"total" json:"total"`

	// Table part
	Lines []Line `db:"-" json:"lines"`
}

// Line is one ordered product on a purchase order. ReceivedQty is
// cumulative: receiving reports totals, not increments.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

	OrderedQty  int64 `db:"ordered_qty" json:"orderedQty"`
	ReceivedQty int64 `db:"received_qty" json:"receivedQty"`

	UnitCost types.Money `db:"unit_cost" json:"unitCost"`
}

// NewPurchaseOrder creates a draft purchase order.
func NewPurchaseOrder(supplierName string) *PurchaseOrder {
	return &PurchaseOrder{
		Document:     entity.NewDocument(),
		SupplierName: supplierName,
		Status:       StatusDraft,
		Lines:        make([]Line, 0),
	}
}

// AddLine appends an ordered product.
func (po *PurchaseOrder) AddLine(productID id.ID, orderedQty int64, unitCost types.Money) {
	po.Lines = append(po.Lines, Line{
		LineID:     id.New(),
		LineNo:     len(po.Lines) + 1,
		ProductID:  productID,
		OrderedQty: orderedQty,
		UnitCost:   unitCost,
	})
}

// LineByID returns the line with the given id, or nil.
func (po *PurchaseOrder) LineByID(lineID id.ID) *Line {
	for i := range po.Lines {
		if po.Lines[i].LineID == lineID {
			return &po.Lines[i]
		}
	}
	return nil
}

// FullyReceived reports whether every line's cumulative received quantity
// has reached its ordered quantity.
func (po *PurchaseOrder) FullyReceived() bool {
	for _, line := range po.Lines {
		if line.ReceivedQty < line.OrderedQty {
			return false
		}
	}
	return len(po.Lines) > 0
}

// CalculateTotal recomputes the document total from its lines.
func (po *PurchaseOrder) CalculateTotal() {
	total := types.Zero()
	for _, line := range po.Lines {
		total = total.Add(line.UnitCost.Mul(decimal.NewFromInt(line.OrderedQty)))
	}
	po.Total = total
}

// Validate implements entity.Validatable interface.
func (po *PurchaseOrder) Validate(ctx context.Context) error {
	if err := po.Document.Validate(ctx); err != nil {
		return err
	}

	if po.SupplierName == "" {
		return apperror.NewValidation("supplier name is required").
			WithDetail("field", "supplierName")
	}
	if len(po.Lines) == 0 {
		return apperror.NewValidation("purchase order must have at least one line").
			WithDetail("field", "lines")
	}

	for i, line := range po.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.OrderedQty <= 0 {
			return apperror.NewValidation("ordered quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
