package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/id"
	"stockpile/internal/domain"
	"stockpile/internal/domain/orders/inbound"
	"stockpile/internal/infrastructure/http/v1/dto"
)

// PurchaseOrderHandler handles HTTP requests for purchase orders.
type PurchaseOrderHandler struct {
	*BaseHandler
	service *inbound.Service
}

// NewPurchaseOrderHandler creates a new purchase order handler.
func NewPurchaseOrderHandler(base *BaseHandler, service *inbound.Service) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /orders/purchase
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	po, err := req.ToEntity()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("error", err.Error()))
		return
	}

	if err := h.service.Create(c.Request.Context(), po); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, po)
}

// Get handles GET /orders/purchase/:id
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	po, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, po)
}

// List handles GET /orders/purchase
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	filter := inbound.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-date")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if status := c.Query("status"); status != "" {
		s := inbound.Status(status)
		filter.Status = &s
	}
	if supplier := c.Query("supplier"); supplier != "" {
		filter.Supplier = &supplier
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Submit handles POST /orders/purchase/:id/submit
func (h *PurchaseOrderHandler) Submit(c *gin.Context) {
	h.advance(c, h.service.Submit)
}

// Approve handles POST /orders/purchase/:id/approve
func (h *PurchaseOrderHandler) Approve(c *gin.Context) {
	h.advance(c, h.service.Approve)
}

// MarkShipped handles POST /orders/purchase/:id/ship
func (h *PurchaseOrderHandler) MarkShipped(c *gin.Context) {
	h.advance(c, h.service.MarkShipped)
}

// Complete handles POST /orders/purchase/:id/complete
func (h *PurchaseOrderHandler) Complete(c *gin.Context) {
	h.advance(c, h.service.Complete)
}

// Cancel handles POST /orders/purchase/:id/cancel
// Stock already received stays on hand.
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	h.advance(c, h.service.Cancel)
}

func (h *PurchaseOrderHandler) advance(c *gin.Context, op func(ctx context.Context, orderID id.ID) error) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := op(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}

	po, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, po)
}

// Receive handles POST /orders/purchase/:id/receive
// Quantities are cumulative totals; resubmitting the same report is a
// no-op. Per-line failures are reported without failing the whole batch.
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ReceiveItemsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	receipts, err := req.ToReceiptLines()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("error", err.Error()))
		return
	}

	result, err := h.service.ReceiveItems(c.Request.Context(), orderID, receipts)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// RegisterRoutes registers purchase order routes.
func (h *PurchaseOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/submit", h.Submit)
	rg.POST("/:id/approve", h.Approve)
	rg.POST("/:id/ship", h.MarkShipped)
	rg.POST("/:id/receive", h.Receive)
	rg.POST("/:id/complete", h.Complete)
	rg.POST("/:id/cancel", h.Cancel)
}
