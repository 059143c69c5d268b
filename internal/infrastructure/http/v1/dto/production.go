package dto

// PlanBatchRequest plans a production batch for a product.
type PlanBatchRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
}

// AdjustStockRequest sets an absolute on-hand quantity for a product.
type AdjustStockRequest struct {
	Quantity int64 `json:"quantity"`
}
