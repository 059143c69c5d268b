// Package ledger provides the authoritative per-product stock ledger.
// Every change to a product's on-hand quantity goes through this package;
// order state machines and production never write the quantity directly.
package ledger

import (
	"time"

	"stockpile/internal/core/id"
)

// Reason classifies why a movement was applied.
type Reason string

const (
	ReasonPurchaseReceipt  Reason = "purchase_receipt"
	ReasonOrderReservation Reason = "order_reservation"
	ReasonOrderRelease     Reason = "order_release"
	ReasonBillSale         Reason = "bill_sale"
	ReasonBillReversal     Reason = "bill_reversal"
	ReasonProductionOutput Reason = "production_output"
	ReasonAdjustment       Reason = "adjustment"
)

// Ref identifies the document that triggered a movement.
type Ref struct {
	RecorderID   id.ID
	RecorderType string // "PurchaseOrder", "CustomerOrder", "Bill", "ProductionBatch", "Adjustment"
	Reason       Reason
}

// Movement is an immutable ledger entry. Movements are never updated,
// they form the audit trail behind every on-hand quantity.
type Movement struct {
	// LineID is unique identifier for this movement line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	ProductID id.ID `db:"product_id" json:"productId"`

	// Delta is the signed quantity change.
	Delta int64 `db:"delta" json:"delta"`

	// Resulting is the on-hand quantity after applying the delta.
	Resulting int64 `db:"resulting" json:"resulting"`

	// Recorder is the document that created this movement.
	RecorderID   id.ID  `db:"recorder_id" json:"recorderId"`
	RecorderType string `db:"recorder_type" json:"recorderType"`

	Reason Reason `db:"reason" json:"reason"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewMovement creates a movement entry for an applied delta.
func NewMovement(productID id.ID, delta, resulting int64, ref Ref) Movement {
	return Movement{
		LineID:       id.New(),
		ProductID:    productID,
		Delta:        delta,
		Resulting:    resulting,
		RecorderID:   ref.RecorderID,
		RecorderType: ref.RecorderType,
		Reason:       ref.Reason,
		CreatedAt:    time.Now().UTC(),
	}
}

// Delta is one product's quantity change within a multi-line operation.
type Delta struct {
	ProductID id.ID
	Quantity  int64
}
