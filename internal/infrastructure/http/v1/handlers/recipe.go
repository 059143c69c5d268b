package handlers

import (
	"github.com/gin-gonic/gin"

	"stockpile/internal/core/apperror"
	"stockpile/internal/core/id"
	"stockpile/internal/domain"
	"stockpile/internal/domain/catalog/recipe"
	"stockpile/internal/infrastructure/http/v1/dto"
)

// RecipeHandler handles HTTP requests for the Recipe catalog.
type RecipeHandler struct {
	*BaseHandler
	service *recipe.Service
}

// NewRecipeHandler creates a new recipe handler.
func NewRecipeHandler(base *BaseHandler, service *recipe.Service) *RecipeHandler {
	return &RecipeHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /catalog/recipes
// Creating a recipe deactivates the product's previous active recipe.
func (h *RecipeHandler) Create(c *gin.Context) {
	var req dto.CreateRecipeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := req.ToEntity()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("error", err.Error()))
		return
	}

	if err := h.service.Create(c.Request.Context(), rec); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, rec)
}

// Get handles GET /catalog/recipes/:id
func (h *RecipeHandler) Get(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	rec, err := h.service.GetByID(c.Request.Context(), recipeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, rec)
}

// GetByProduct handles GET /catalog/recipes/by-product/:productId
// Returns the product's active recipe.
func (h *RecipeHandler) GetByProduct(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	rec, err := h.service.GetActiveByProduct(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, rec)
}

// Update handles PUT /catalog/recipes/:id
func (h *RecipeHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateRecipeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.GetByID(ctx, recipeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := req.ApplyTo(rec); err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("error", err.Error()))
		return
	}

	if err := h.service.Update(ctx, rec); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, rec)
}

// List handles GET /catalog/recipes
func (h *RecipeHandler) List(c *gin.Context) {
	filter := recipe.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "name")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"
	filter.ActiveOnly = c.Query("activeOnly") == "true"

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

// Activate handles POST /catalog/recipes/:id/activate
func (h *RecipeHandler) Activate(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Activate(c.Request.Context(), recipeID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "recipe activated")
}

// Deactivate handles POST /catalog/recipes/:id/deactivate
func (h *RecipeHandler) Deactivate(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), recipeID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "recipe deactivated")
}

// RegisterRoutes registers recipe routes.
func (h *RecipeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/by-product/:productId", h.GetByProduct)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/activate", h.Activate)
	rg.POST("/:id/deactivate", h.Deactivate)
}
