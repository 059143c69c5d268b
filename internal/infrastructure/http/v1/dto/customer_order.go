package dto

import (
	"time"

	"stockpile/internal/core/id"
	"stockpile/internal/core/types"
	"stockpile/internal/domain/orders/outbound"
)

// CustomerOrderLineRequest is one ordered product.
type CustomerOrderLineRequest struct {
	ProductID string       `json:"productId" binding:"required"`
	Quantity  int64        `json:"quantity" binding:"required,min=1"`
	UnitPrice *types.Money `json:"unitPrice"`
}

// CreateCustomerOrderRequest for creating customer orders.
type CreateCustomerOrderRequest struct {
	CustomerName string                     `json:"customerName" binding:"required"`
	Date         *time.Time                 `json:"date"`
	Comment      string                     `json:"comment"`
	Lines        []CustomerOrderLineRequest `json:"lines" binding:"required,min=1"`
}

// ToEntity converts the request to a CustomerOrder.
func (r CreateCustomerOrderRequest) ToEntity() (*outbound.CustomerOrder, error) {
	co := outbound.NewCustomerOrder(r.CustomerName)
	if r.Date != nil {
		co.Date = *r.Date
	}
	co.Comment = r.Comment

	for _, line := range r.Lines {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			return nil, err
		}
		price := types.Zero()
		if line.UnitPrice != nil {
			price = *line.UnitPrice
		}
		co.AddLine(productID, line.Quantity, price)
	}

	return co, nil
}

// TransitionRequest moves an order to a new status.
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}
