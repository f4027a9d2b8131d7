package handler

import (
	"net/http"

	"requisition-backend/internal/middleware"
	"requisition-backend/internal/model"
	"requisition-backend/internal/service"
	"requisition-backend/pkg/pagination"
	"requisition-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ItemHandler struct {
	catalogService service.CatalogService
}

func NewItemHandler(catalogService service.CatalogService) *ItemHandler {
	return &ItemHandler{catalogService: catalogService}
}

func (h *ItemHandler) RegisterRoutes(router *gin.RouterGroup) {
	items := router.Group("/items")
	{
		items.GET("", middleware.RequireRole(anyRole...), h.ListItems)
		items.GET("/:id", middleware.RequireRole(anyRole...), h.GetItem)
		items.POST("", middleware.RequireRole(warehouseRoles...), h.CreateItem)
		items.PUT("/:id", middleware.RequireRole(warehouseRoles...), h.UpdateItem)
		items.DELETE("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.DeleteItem)
	}
}

// CreateItem handles POST /items
func (h *ItemHandler) CreateItem(c *gin.Context) {
	var req service.ItemDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.catalogService.Create(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// ListItems handles GET /items
func (h *ItemHandler) ListItems(c *gin.Context) {
	p := pagination.Parse(c)

	items, total, err := h.catalogService.List(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": items,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}

// GetItem handles GET /items/:id
func (h *ItemHandler) GetItem(c *gin.Context) {
	item, err := h.catalogService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// UpdateItem handles PUT /items/:id
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	var req service.ItemDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.catalogService.Update(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteItem handles DELETE /items/:id
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	if err := h.catalogService.Delete(c.Request.Context(), middleware.CurrentActor(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Item deleted successfully"))
}
