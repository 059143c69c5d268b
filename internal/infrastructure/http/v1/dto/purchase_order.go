package dto

import (
	"time"

	"stockpile/internal/core/id"
	"stockpile/internal/core/types"
	"stockpile/internal/domain/orders/inbound"
)

// PurchaseOrderLineRequest is one ordered product.
type PurchaseOrderLineRequest struct {
	ProductID  string       `json:"productId" binding:"required"`
	OrderedQty int64        `json:"orderedQty" binding:"required,min=1"`
	UnitCost   *types.Money `json:"unitCost"`
}

// CreatePurchaseOrderRequest for creating purchase orders.
type CreatePurchaseOrderRequest struct {
	SupplierName string                     `json:"supplierName" binding:"required"`
	Date         *time.Time                 `json:"date"`
	Comment      string                     `json:"comment"`
	Lines        []PurchaseOrderLineRequest `json:"lines" binding:"required,min=1"`
}

// ToEntity converts the request to a PurchaseOrder.
func (r CreatePurchaseOrderRequest) ToEntity() (*inbound.PurchaseOrder, error) {
	po := inbound.NewPurchaseOrder(r.SupplierName)
	if r.Date != nil {
		po.Date = *r.Date
	}
	po.Comment = r.Comment

	for _, line := range r.Lines {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			return nil, err
		}
		cost := types.Zero()
		if line.UnitCost != nil {
			cost = *line.UnitCost
		}
		po.AddLine(productID, line.OrderedQty, cost)
	}

	return po, nil
}

// ReceiptLineRequest reports the cumulative received total for a line.
type ReceiptLineRequest struct {
	LineID      string `json:"lineId" binding:"required"`
	ReceivedQty int64  `json:"receivedQty"`
}

// ReceiveItemsRequest submits a receiving report.
type ReceiveItemsRequest struct {
	Lines []ReceiptLineRequest `json:"lines" binding:"required,min=1"`
}

// ToReceiptLines converts the request to domain receipt lines.
func (r ReceiveItemsRequest) ToReceiptLines() ([]inbound.ReceiptLine, error) {
	lines := make([]inbound.ReceiptLine, 0, len(r.Lines))
	for _, line := range r.Lines {
		lineID, err := id.Parse(line.LineID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, inbound.ReceiptLine{
			LineID:      lineID,
			ReceivedQty: line.ReceivedQty,
		})
	}
	return lines, nil
}
