// Package outbound implements customer orders: the outbound demand
// document whose status transitions reserve and release product stock.
package outbound

import (
	"context"

	"github.com/shopspring/decimal"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/entity"
	"stockpile/internal/core/id"
	"stockpile/internal/core/types"
)

// Status is the lifecycle state of a customer order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRejected   Status = "rejected"
)

// fulfilling statuses hold stock committed to the order. Entering any of
// them from an unreserved order triggers the reservation decrement, even
// on a direct jump like pending to delivered.
var fulfilling = map[Status]bool{
	StatusConfirmed:  true,
	StatusProcessing: true,
	StatusShipped:    true,
	StatusDelivered:  true,
}

// allowedTransitions drives the state machine. Forward jumps are legal
// (pending straight to delivered); cancellation is only reachable before
// the goods ship.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusConfirmed: true, StatusProcessing: true, StatusShipped: true,
		StatusDelivered: true, StatusCancelled: true, StatusRejected: true,
	},
	StatusConfirmed: {
		StatusProcessing: true, StatusShipped: true, StatusDelivered: true,
		StatusCancelled: true, StatusRejected: true,
	},
	StatusProcessing: {
		StatusShipped: true, StatusDelivered: true,
		StatusCancelled: true, StatusRejected: true,
	},
	StatusShipped: {
		StatusDelivered: true,
	},
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRejected
}

// IsFulfilling reports whether the status implies stock committed to
// the order.
func (s Status) IsFulfilling() bool {
	return fulfilling[s]
}

// CanTransitionTo reports whether the transition to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	return allowedTransitions[s][next]
}

// Effect is the ledger consequence of a status transition.
type Effect int

const (
	EffectNone Effect = iota
	EffectReserve
	EffectRelease
)

// TransitionEffect evaluates the reservation rule for a transition into
// target, keyed off the explicit stockReserved flag rather than the
// previous status string. A reserved order entering another fulfilling
// status is a no-op, which makes repeated calls with the same target
// harmless.
func TransitionEffect(stockReserved bool, target Status) Effect {
	switch {
	case target.IsFulfilling() && !stockReserved:
		return EffectReserve
	case (target == StatusCancelled || target == StatusRejected) && stockReserved:
		return EffectRelease
	default:
		return EffectNone
	}
}

// CustomerOrder is an outbound demand document.
type CustomerOrder struct {
	entity.Document

	CustomerName string      `db:"customer_name" json:"customerName"`
	Status       Status      `db:"status" json:"status"`
	Total        types.Money `db:"total" json:"total"`

	// StockReserved records whether the reservation decrement has been
	// applied. Transitions consult this flag, never the status history.
	StockReserved bool `db:"stock_reserved" json:"stockReserved"`

	// Table part. Lines do not track partial fulfillment; the whole
	// order's reservation is applied and reversed as a unit.
	Lines []Line `db:"-" json:"lines"`
}

// Line is one ordered product on a customer order.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`
	Quantity  int64 `db:"quantity" json:"quantity"`

	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
}

// NewCustomerOrder creates a pending customer order.
func NewCustomerOrder(customerName string) *CustomerOrder {
	return &CustomerOrder{
		Document:     entity.NewDocument(),
		CustomerName: customerName,
		Status:       StatusPending,
		Lines:        make([]Line, 0),
	}
}

// AddLine appends an ordered product.
func (co *CustomerOrder) AddLine(productID id.ID, quantity int64, unitPrice types.Money) {
	co.Lines = append(co.Lines, Line{
		LineID:    id.New(),
		LineNo:    len(co.Lines) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
}

// CalculateTotal recomputes the document total from its lines.
func (co *CustomerOrder) CalculateTotal() {
	total := types.Zero()
	for _, line := range co.Lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity)))
	}
	co.Total = total
}

// Validate implements entity.Validatable interface.
func (co *CustomerOrder) Validate(ctx context.Context) error {
	if err := co.Document.Validate(ctx); err != nil {
		return err
	}

	if co.CustomerName == "" {
		return apperror.NewValidation("customer name is required").
			WithDetail("field", "customerName")
	}
	if len(co.Lines) == 0 {
		return apperror.NewValidation("order must have at least one line").
			WithDetail("field", "lines")
	}

	for i, line := range co.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
