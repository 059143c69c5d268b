package handlers

import (
	"github.com/gin-gonic/gin"

	"stockpile/internal/core/id"
	"stockpile/internal/domain"
	"stockpile/internal/domain/catalog/material"
	"stockpile/internal/infrastructure/http/v1/dto"
)

// MaterialHandler handles HTTP requests for the Raw Material catalog.
type MaterialHandler struct {
	*BaseHandler
	service *material.Service
}

// NewMaterialHandler creates a new material handler.
func NewMaterialHandler(base *BaseHandler, service *material.Service) *MaterialHandler {
	return &MaterialHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /catalog/materials
func (h *MaterialHandler) Create(c *gin.Context) {
	var req dto.CreateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), m); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, m)
}

// Get handles GET /catalog/materials/:id
func (h *MaterialHandler) Get(c *gin.Context) {
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	m, err := h.service.GetByID(c.Request.Context(), materialID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, m)
}

// Update handles PUT /catalog/materials/:id
func (h *MaterialHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := h.service.GetByID(ctx, materialID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(m)

	if err := h.service.Update(ctx, m); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, m)
}

// List handles GET /catalog/materials
func (h *MaterialHandler) List(c *gin.Context) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "name")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

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

// LowStock handles GET /catalog/materials/low-stock
func (h *MaterialHandler) LowStock(c *gin.Context) {
	materials, err := h.service.LowStock(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": materials})
}

// AdjustStock handles POST /catalog/materials/:id/adjust-stock
// Sets an absolute stock level, recording the delta in the movement trail.
func (h *MaterialHandler) AdjustStock(c *gin.Context) {
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AdjustMaterialStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ref := material.StockRef{
		RecorderID:   id.New(),
		RecorderType: "Adjustment",
		Reason:       material.ReasonAdjustment,
	}

	resulting, err := h.service.AdjustStock(c.Request.Context(), materialID, req.Quantity, ref)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"materialId":   materialID.String(),
		"currentStock": resulting,
	})
}

// Deactivate handles POST /catalog/materials/:id/deactivate
func (h *MaterialHandler) Deactivate(c *gin.Context) {
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), materialID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "material deactivated")
}

// RegisterRoutes registers material routes.
func (h *MaterialHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/low-stock", h.LowStock)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/adjust-stock", h.AdjustStock)
	rg.POST("/:id/deactivate", h.Deactivate)
}
