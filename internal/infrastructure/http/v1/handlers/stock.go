package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/id"
	"stockpile/internal/domain/ledger"
	"stockpile/internal/infrastructure/http/v1/dto"
)

// StockHandler handles HTTP requests for the product stock ledger.
type StockHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewStockHandler creates a new stock ledger handler.
func NewStockHandler(base *BaseHandler, service *ledger.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
	}
}

// GetOnHand handles GET /stock/products/:productId
func (h *StockHandler) GetOnHand(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	onHand, err := h.service.GetOnHand(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"productId": productID.String(),
		"onHand":    onHand,
	})
}

// Adjust handles POST /stock/products/:productId/adjust
// Sets an absolute on-hand quantity, recording the delta as a movement.
func (h *StockHandler) Adjust(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ref := ledger.Ref{
		RecorderID:   id.New(),
		RecorderType: "Adjustment",
		Reason:       ledger.ReasonAdjustment,
	}

	onHand, err := h.service.Adjust(c.Request.Context(), productID, req.Quantity, ref)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"productId": productID.String(),
		"onHand":    onHand,
	})
}

// GetMovements handles GET /stock/movements
func (h *StockHandler) GetMovements(c *gin.Context) {
	filter := ledger.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if productIDStr := c.Query("productId"); productIDStr != "" {
		productID, err := id.Parse(productIDStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format"))
			return
		}
		filter.ProductID = &productID
	}

	if recorderIDStr := c.Query("recorderId"); recorderIDStr != "" {
		recorderID, err := id.Parse(recorderIDStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid recorderId format"))
			return
		}
		filter.RecorderID = &recorderID
	}

	if reason := c.Query("reason"); reason != "" {
		r := ledger.Reason(reason)
		filter.Reason = &r
	}

	if fromStr := c.Query("fromDate"); fromStr != "" {
		if parsed, err := time.Parse(time.RFC3339, fromStr); err == nil {
			filter.FromDate = &parsed
		}
	}

	if toStr := c.Query("toDate"); toStr != "" {
		if parsed, err := time.Parse(time.RFC3339, toStr); err == nil {
			filter.ToDate = &parsed
		}
	}

	movements, err := h.service.History(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"items":      movements,
		"totalCount": len(movements),
	})
}

// RegisterRoutes registers stock ledger routes.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/movements", h.GetMovements)
	rg.GET("/products/:productId", h.GetOnHand)
	rg.POST("/products/:productId/adjust", h.Adjust)
}
