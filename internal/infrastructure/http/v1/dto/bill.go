package dto

import (
	"time"

	"stockpile/internal/core/id"
	"stockpile/internal/core/types"
	"stockpile/internal/domain/orders/bill"
)

// BillItemRequest is one sold product.
type BillItemRequest struct {
	ProductID string       `json:"productId" binding:"required"`
	Quantity  int64        `json:"quantity" binding:"required,min=1"`
	UnitPrice *types.Money `json:"unitPrice"`
}

// CreateBillRequest for creating bills. Stock is decremented when the
// bill is created, not when it is paid.
type CreateBillRequest struct {
	CustomerName string            `json:"customerName" binding:"required"`
	Date         *time.Time        `json:"date"`
	Comment      string            `json:"comment"`
	Items        []BillItemRequest `json:"items" binding:"required,min=1"`
}

// ToEntity converts the request to a Bill.
func (r CreateBillRequest) ToEntity() (*bill.Bill, error) {
	b := bill.NewBill(r.CustomerName)
	if r.Date != nil {
		b.Date = *r.Date
	}
	b.Comment = r.Comment

	for _, item := range r.Items {
		productID, err := id.Parse(item.ProductID)
		if err != nil {
			return nil, err
		}
		price := types.Zero()
		if item.UnitPrice != nil {
			price = *item.UnitPrice
		}
		b.AddItem(productID, item.Quantity, price)
	}

	return b, nil
}
