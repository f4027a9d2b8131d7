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

type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	purchases := router.Group("/purchases")
	{
		purchases.GET("", middleware.RequireRole(anyRole...), h.ListPurchases)
		purchases.POST("", middleware.RequireRole(warehouseRoles...), h.CreatePurchase)
		purchases.GET("/:id", middleware.RequireRole(anyRole...), h.GetPurchase)
		purchases.PUT("/:id", middleware.RequireRole(warehouseRoles...), h.UpdatePurchase)
		purchases.PUT("/:id/status", middleware.RequireRole(warehouseRoles...), h.UpdatePurchaseStatus)
	}
}

// CreatePurchase handles POST /purchases for standalone replenishment orders
// @Summary      Create a purchase order
// @Description  Creates a purchase order for a distribution center, optionally bound to a supplier
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePurchaseDTO  true  "Create Purchase Payload"
// @Success      201      {object}  response.Response{data=model.Purchase}
// @Failure      400      {object}  response.Response
// @Router       /purchases [post]
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req service.CreatePurchaseDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	purchase, err := h.purchaseService.Create(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, purchase))
}

// ListPurchases handles GET /purchases with an optional status filter
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	p := pagination.Parse(c)

	purchases, total, err := h.purchaseService.List(c.Request.Context(), middleware.CurrentActor(c), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"purchases": purchases,
		"total":     total,
		"page":      p.Page,
		"limit":     p.Limit,
	}))
}

// GetPurchase handles GET /purchases/:id
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	purchase, err := h.purchaseService.Get(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

// UpdatePurchase handles PUT /purchases/:id for non-status fields
func (h *PurchaseHandler) UpdatePurchase(c *gin.Context) {
	var req service.UpdatePurchaseDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	purchase, err := h.purchaseService.Update(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

type purchaseStatusDTO struct {
	Status string `json:"status" binding:"required,oneof=order_placed supplier_confirmed in_transit finalized canceled"`
}

// UpdatePurchaseStatus handles PUT /purchases/:id/status
// @Summary      Move a purchase along its lifecycle
// @Description  Advances a purchase order; finalizing the last open purchase of a request lifts its purchase gap
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string             true  "Purchase ID"
// @Param        payload  body      purchaseStatusDTO  true  "Target status"
// @Success      200      {object}  response.Response{data=model.Purchase}
// @Failure      409      {object}  response.Response
// @Router       /purchases/{id}/status [put]
func (h *PurchaseHandler) UpdatePurchaseStatus(c *gin.Context) {
	var req purchaseStatusDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	purchase, err := h.purchaseService.UpdateStatus(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), model.PurchaseStatus(req.Status))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}
