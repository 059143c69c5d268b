package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/id"
	"stockpile/internal/domain"
	"stockpile/internal/domain/production"
	"stockpile/internal/infrastructure/http/v1/dto"
)

// ProductionHandler handles HTTP requests for production batches and
// feasibility checks.
type ProductionHandler struct {
	*BaseHandler
	service *production.Service
}

// NewProductionHandler creates a new production handler.
func NewProductionHandler(base *BaseHandler, service *production.Service) *ProductionHandler {
	return &ProductionHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Evaluate handles GET /production/feasibility/:productId?quantity=N
// Read-only: computes the feasibility report without touching stock.
func (h *ProductionHandler) Evaluate(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	quantity := int64(h.ParseIntQuery(c, "quantity", 0))
	if quantity <= 0 {
		h.Error(c, apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity"))
		return
	}

	eval, err := h.service.EvaluateProduct(c.Request.Context(), productID, quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, eval)
}

// Plan handles POST /production/batches
func (h *ProductionHandler) Plan(c *gin.Context) {
	var req dto.PlanBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	batch, err := h.service.Plan(c.Request.Context(), productID, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, batch)
}

// Get handles GET /production/batches/:id
func (h *ProductionHandler) Get(c *gin.Context) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	batch, err := h.service.GetByID(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, batch)
}

// List handles GET /production/batches
func (h *ProductionHandler) List(c *gin.Context) {
	filter := production.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-date")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if status := c.Query("status"); status != "" {
		s := production.Status(status)
		filter.Status = &s
	}
	if productIDStr := c.Query("productId"); productIDStr != "" {
		productID, err := id.Parse(productIDStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format"))
			return
		}
		filter.ProductID = &productID
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

// Start handles POST /production/batches/:id/start
// Consumes material stock for the whole batch, all or nothing.
func (h *ProductionHandler) Start(c *gin.Context) {
	h.operate(c, h.service.Start)
}

// Complete handles POST /production/batches/:id/complete
// Consumes materials if not yet consumed and posts the produced
// quantity to the product ledger.
func (h *ProductionHandler) Complete(c *gin.Context) {
	h.operate(c, h.service.Complete)
}

// Cancel handles POST /production/batches/:id/cancel
// Restores consumed materials for in-progress batches.
func (h *ProductionHandler) Cancel(c *gin.Context) {
	h.operate(c, h.service.Cancel)
}

func (h *ProductionHandler) operate(c *gin.Context, op func(ctx context.Context, batchID id.ID) error) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := op(c.Request.Context(), batchID); err != nil {
		h.Error(c, err)
		return
	}

	batch, err := h.service.GetByID(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, batch)
}

// RegisterRoutes registers production routes.
func (h *ProductionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/feasibility/:productId", h.Evaluate)

	batches := rg.Group("/batches")
	batches.POST("", h.Plan)
	batches.GET("", h.List)
	batches.GET("/:id", h.Get)
	batches.POST("/:id/start", h.Start)
	batches.POST("/:id/complete", h.Complete)
	batches.POST("/:id/cancel", h.Cancel)
}
