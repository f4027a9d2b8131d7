package handler

import (
	"net/http"

	"requisition-backend/internal/middleware"
	"requisition-backend/internal/service"
	"requisition-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ShipmentHandler struct {
	shipmentService service.ShipmentService
}

func NewShipmentHandler(shipmentService service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{shipmentService: shipmentService}
}

func (h *ShipmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	shipments := router.Group("/shipments")
	{
		shipments.GET("", middleware.RequireRole(anyRole...), h.ListByRequest)
		shipments.POST("", middleware.RequireRole(warehouseRoles...), h.CreateLeg)
		shipments.POST("/:id/dispatch", middleware.RequireRole(warehouseRoles...), h.Dispatch)
		shipments.POST("/:id/deliver", middleware.RequireRole(warehouseRoles...), h.MarkDelivered)
	}
}

// CreateLeg handles POST /shipments to open a new leg for a request
// @Summary      Create a shipment leg
// @Description  Opens a new shipment leg in preparing for a requisition
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateShipmentLegDTO  true  "Create Shipment Leg Payload"
// @Success      201      {object}  response.Response{data=model.ShipmentLeg}
// @Failure      400      {object}  response.Response
// @Router       /shipments [post]
func (h *ShipmentHandler) CreateLeg(c *gin.Context) {
	var req service.CreateShipmentLegDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	leg, err := h.shipmentService.CreateLeg(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, leg))
}

// ListByRequest handles GET /shipments?request_id=...
func (h *ShipmentHandler) ListByRequest(c *gin.Context) {
	requestID := c.Query("request_id")
	if requestID == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "request_id query parameter is required"))
		return
	}

	legs, err := h.shipmentService.ListByRequest(c.Request.Context(), middleware.CurrentActor(c), requestID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, legs))
}

// Dispatch handles POST /shipments/:id/dispatch
func (h *ShipmentHandler) Dispatch(c *gin.Context) {
	leg, err := h.shipmentService.Dispatch(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, leg))
}

// MarkDelivered handles POST /shipments/:id/deliver
func (h *ShipmentHandler) MarkDelivered(c *gin.Context) {
	leg, err := h.shipmentService.MarkDelivered(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, leg))
}
