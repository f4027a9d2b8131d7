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

type SupplierHandler struct {
	supplierService service.SupplierService
}

func NewSupplierHandler(supplierService service.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService}
}

func (h *SupplierHandler) RegisterRoutes(router *gin.RouterGroup) {
	suppliers := router.Group("/suppliers")
	{
		suppliers.GET("", middleware.RequireRole(anyRole...), h.ListSuppliers)
		suppliers.GET("/:id", middleware.RequireRole(anyRole...), h.GetSupplier)
		suppliers.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreateSupplier)
		suppliers.PUT("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.UpdateSupplier)
		suppliers.DELETE("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.DeactivateSupplier)
	}
}

// CreateSupplier handles POST /suppliers
func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	var req service.SupplierDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	supplier, err := h.supplierService.Create(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, supplier))
}

// ListSuppliers handles GET /suppliers; active=true hides deactivated ones
func (h *SupplierHandler) ListSuppliers(c *gin.Context) {
	p := pagination.Parse(c)
	activeOnly := c.Query("active") == "true"

	suppliers, total, err := h.supplierService.List(c.Request.Context(), activeOnly, p.Page, p.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"suppliers": suppliers,
		"total":     total,
		"page":      p.Page,
		"limit":     p.Limit,
	}))
}

// GetSupplier handles GET /suppliers/:id
func (h *SupplierHandler) GetSupplier(c *gin.Context) {
	supplier, err := h.supplierService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}

// UpdateSupplier handles PUT /suppliers/:id
func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	var req service.SupplierDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	supplier, err := h.supplierService.Update(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}

// DeactivateSupplier handles DELETE /suppliers/:id as a soft deactivation
func (h *SupplierHandler) DeactivateSupplier(c *gin.Context) {
	if err := h.supplierService.Deactivate(c.Request.Context(), middleware.CurrentActor(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Supplier deactivated"))
}
