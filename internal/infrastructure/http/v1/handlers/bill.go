package handlers

import (
	"github.com/gin-gonic/gin"

	"stockpile/internal/core/apperror"
	"stockpile/internal/domain"
	"stockpile/internal/domain/orders/bill"
	"stockpile/internal/infrastructure/http/v1/dto"
)

// BillHandler handles HTTP requests for bills.
type BillHandler struct {
	*BaseHandler
	service *bill.Service
}

// NewBillHandler creates a new bill handler.
func NewBillHandler(base *BaseHandler, service *bill.Service) *BillHandler {
	return &BillHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /orders/bills
// Stock is decremented synchronously; insufficient stock fails the
// whole bill and names the offending product.
func (h *BillHandler) Create(c *gin.Context) {
	var req dto.CreateBillRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := req.ToEntity()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("error", err.Error()))
		return
	}

	if err := h.service.Create(c.Request.Context(), b); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, b)
}

// Get handles GET /orders/bills/:id
func (h *BillHandler) Get(c *gin.Context) {
	billID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), billID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, b)
}

// List handles GET /orders/bills
func (h *BillHandler) List(c *gin.Context) {
	filter := bill.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-date")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if status := c.Query("status"); status != "" {
		s := bill.Status(status)
		filter.Status = &s
	}
	if customer := c.Query("customer"); customer != "" {
		filter.Customer = &customer
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

// MarkPaid handles POST /orders/bills/:id/pay
func (h *BillHandler) MarkPaid(c *gin.Context) {
	billID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.MarkPaid(c.Request.Context(), billID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "bill paid")
}

// Cancel handles POST /orders/bills/:id/cancel
// Cancelling a pending bill restores its stock.
func (h *BillHandler) Cancel(c *gin.Context) {
	billID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), billID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "bill cancelled")
}

// Delete handles DELETE /orders/bills/:id
func (h *BillHandler) Delete(c *gin.Context) {
	billID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), billID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers bill routes.
func (h *BillHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/pay", h.MarkPaid)
	rg.POST("/:id/cancel", h.Cancel)
	rg.DELETE("/:id", h.Delete)
}
