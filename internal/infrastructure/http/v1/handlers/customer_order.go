package handlers

import (
	"github.com/gin-gonic/gin"

	"stockpile/internal/core/apperror"
	"stockpile/internal/domain"
	"stockpile/internal/domain/orders/outbound"
	"stockpile/internal/infrastructure/http/v1/dto"
)

// CustomerOrderHandler handles HTTP requests for customer orders.
type CustomerOrderHandler struct {
	*BaseHandler
	service *outbound.Service
}

// NewCustomerOrderHandler creates a new customer order handler.
func NewCustomerOrderHandler(base *BaseHandler, service *outbound.Service) *CustomerOrderHandler {
	return &CustomerOrderHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /orders/customer
func (h *CustomerOrderHandler) Create(c *gin.Context) {
	var req dto.CreateCustomerOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	co, err := req.ToEntity()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("error", err.Error()))
		return
	}

	if err := h.service.Create(c.Request.Context(), co); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, co)
}

// Get handles GET /orders/customer/:id
func (h *CustomerOrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	co, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, co)
}

// List handles GET /orders/customer
func (h *CustomerOrderHandler) List(c *gin.Context) {
	filter := outbound.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-date")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if status := c.Query("status"); status != "" {
		s := outbound.Status(status)
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

// Transition handles POST /orders/customer/:id/transition
// Moving into a fulfilling status reserves stock once; cancellation
// releases it. Repeating the current status is a no-op.
func (h *CustomerOrderHandler) Transition(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Transition(c.Request.Context(), orderID, outbound.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// Confirm handles POST /orders/customer/:id/confirm
func (h *CustomerOrderHandler) Confirm(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Confirm(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// Cancel handles POST /orders/customer/:id/cancel
func (h *CustomerOrderHandler) Cancel(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Cancel(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// RegisterRoutes registers customer order routes.
func (h *CustomerOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/transition", h.Transition)
	rg.POST("/:id/confirm", h.Confirm)
	rg.POST("/:id/cancel", h.Cancel)
}
