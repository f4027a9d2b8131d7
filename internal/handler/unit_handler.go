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

type UnitHandler struct {
	unitService service.UnitService
}

func NewUnitHandler(unitService service.UnitService) *UnitHandler {
	return &UnitHandler{unitService: unitService}
}

func (h *UnitHandler) RegisterRoutes(router *gin.RouterGroup) {
	units := router.Group("/units")
	{
		units.GET("", middleware.RequireRole(anyRole...), h.ListUnits)
		units.GET("/:id", middleware.RequireRole(anyRole...), h.GetUnit)
		units.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreateUnit)
		units.PUT("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.UpdateUnit)

		// Distribution-center stock
		units.GET("/:id/stock", middleware.RequireRole(warehouseRoles...), h.ListStock)
		units.PUT("/:id/stock", middleware.RequireRole(warehouseRoles...), h.UpsertStock)
	}
}

// CreateUnit handles POST /units
func (h *UnitHandler) CreateUnit(c *gin.Context) {
	var req service.UnitDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	unit, err := h.unitService.Create(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, unit))
}

// ListUnits handles GET /units; cd=true filters to distribution centers
func (h *UnitHandler) ListUnits(c *gin.Context) {
	p := pagination.Parse(c)
	onlyCD := c.Query("cd") == "true"

	units, total, err := h.unitService.List(c.Request.Context(), onlyCD, p.Page, p.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"units": units,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}

// GetUnit handles GET /units/:id
func (h *UnitHandler) GetUnit(c *gin.Context) {
	unit, err := h.unitService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, unit))
}

// UpdateUnit handles PUT /units/:id
func (h *UnitHandler) UpdateUnit(c *gin.Context) {
	var req service.UnitDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	unit, err := h.unitService.Update(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, unit))
}

// UpsertStock handles PUT /units/:id/stock to set on-hand quantity
// @Summary      Set distribution-center stock
// @Description  Sets the on-hand quantity of an item at a distribution center
// @Tags         units
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Unit ID"
// @Param        payload  body      service.StockUpsertDTO  true  "Stock Payload"
// @Success      200      {object}  response.Response{data=model.CDStock}
// @Failure      403      {object}  response.Response
// @Router       /units/{id}/stock [put]
func (h *UnitHandler) UpsertStock(c *gin.Context) {
	var req service.StockUpsertDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	stock, err := h.unitService.UpsertStock(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stock))
}

// ListStock handles GET /units/:id/stock
func (h *UnitHandler) ListStock(c *gin.Context) {
	p := pagination.Parse(c)

	stock, total, err := h.unitService.ListStock(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"stock": stock,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}
