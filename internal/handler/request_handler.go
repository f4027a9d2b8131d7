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

var (
	anyRole        = []string{model.RoleAdmin, model.RoleManager, model.RoleWarehouse, model.RoleUnitAdmin, model.RoleFinance}
	warehouseRoles = []string{model.RoleAdmin, model.RoleManager, model.RoleWarehouse}
	financeRoles   = []string{model.RoleAdmin, model.RoleManager, model.RoleFinance}
)

type RequestHandler struct {
	requests  service.RequestService
	lifecycle service.LifecycleService
	analysis  service.AnalysisService
}

func NewRequestHandler(requests service.RequestService, lifecycle service.LifecycleService, analysis service.AnalysisService) *RequestHandler {
	return &RequestHandler{requests: requests, lifecycle: lifecycle, analysis: analysis}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/requests")
	{
		requests.GET("", middleware.RequireRole(anyRole...), h.ListRequests)
		requests.POST("", middleware.RequireRole(anyRole...), h.CreateRequest)
		requests.GET("/:id", middleware.RequireRole(anyRole...), h.GetRequest)
		requests.PUT("/:id", middleware.RequireRole(anyRole...), h.UpdateRequest)
		requests.DELETE("/:id", middleware.RequireRole(anyRole...), h.DeleteRequest)

		// Analysis and purchase-gap resolution
		requests.POST("/:id/analyze", middleware.RequireRole(warehouseRoles...), h.AnalyzeRequest)
		requests.PUT("/:id/items/:itemID/purchase-flag", middleware.RequireRole(warehouseRoles...), h.SetPurchaseFlag)
		requests.POST("/:id/purchase", middleware.RequireRole(warehouseRoles...), h.CreatePurchase)

		// Lifecycle transitions; the state machine enforces the real guards
		requests.POST("/:id/approve", middleware.RequireRole(anyRole...), h.ApproveRequest)
		requests.POST("/:id/reject", middleware.RequireRole(anyRole...), h.RejectRequest)
		requests.POST("/:id/cancel", middleware.RequireRole(anyRole...), h.CancelRequest)
		requests.POST("/:id/prepare", middleware.RequireRole(warehouseRoles...), h.StartPreparing)
		requests.POST("/:id/mark-error", middleware.RequireRole(warehouseRoles...), h.MarkError)
		requests.POST("/:id/resolve-error", middleware.RequireRole(warehouseRoles...), h.ResolveError)
		requests.POST("/:id/finalize", middleware.RequireRole(anyRole...), h.FinalizeRequest)
		requests.PUT("/:id/items/:itemID/price", middleware.RequireRole(financeRoles...), h.SetItemPrice)
	}
}

// CreateRequest handles POST /requests
// @Summary      Create a requisition
// @Description  Creates a new requisition against a distribution center
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRequestDTO  true  "Create Request Payload"
// @Success      201      {object}  response.Response{data=model.Request}
// @Failure      400      {object}  response.Response
// @Router       /requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var req service.CreateRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	request, err := h.requests.Create(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, request))
}

// ListRequests handles GET /requests with status/unit/priority filters
// @Summary      List requisitions
// @Description  Retrieves a paginated, filterable list of requisitions scoped to the caller's unit
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        status    query  string  false  "Filter by status"
// @Param        unit_id   query  string  false  "Filter by requesting unit"
// @Param        priority  query  string  false  "Filter by priority"
// @Success      200       {object}  response.Response{data=object}
// @Router       /requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	p := pagination.Parse(c)
	filter := service.ListRequestsFilter{
		Status:   c.Query("status"),
		UnitID:   c.Query("unit_id"),
		CDUnitID: c.Query("cd_unit_id"),
		Priority: c.Query("priority"),
		Page:     p.Page,
		Limit:    p.Limit,
	}

	requests, total, err := h.requests.List(c.Request.Context(), middleware.CurrentActor(c), filter)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"requests": requests,
		"total":    total,
		"page":     p.Page,
		"limit":    p.Limit,
	}))
}

// GetRequest handles GET /requests/:id
func (h *RequestHandler) GetRequest(c *gin.Context) {
	request, err := h.requests.Get(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// UpdateRequest handles PUT /requests/:id while items are still editable
func (h *RequestHandler) UpdateRequest(c *gin.Context) {
	var req service.UpdateRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	request, err := h.requests.Update(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// DeleteRequest handles DELETE /requests/:id
func (h *RequestHandler) DeleteRequest(c *gin.Context) {
	if err := h.requests.Delete(c.Request.Context(), middleware.CurrentActor(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Request deleted successfully"))
}

// AnalyzeRequest handles POST /requests/:id/analyze
// @Summary      Analyze stock availability
// @Description  Snapshots CD stock per item, flags purchase gaps, and moves the request to analyzing
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=[]service.ItemAvailability}
// @Failure      409  {object}  response.Response
// @Router       /requests/{id}/analyze [post]
func (h *RequestHandler) AnalyzeRequest(c *gin.Context) {
	results, err := h.analysis.Analyze(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, results))
}

type purchaseFlagDTO struct {
	NeedsPurchase bool `json:"needs_purchase"`
}

// SetPurchaseFlag handles PUT /requests/:id/items/:itemID/purchase-flag
func (h *RequestHandler) SetPurchaseFlag(c *gin.Context) {
	var req purchaseFlagDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	err := h.analysis.SetItemPurchaseFlag(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), c.Param("itemID"), req.NeedsPurchase)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Purchase flag updated"))
}

// CreatePurchase handles POST /requests/:id/purchase, turning flagged items
// into a purchase order
func (h *RequestHandler) CreatePurchase(c *gin.Context) {
	purchase, err := h.analysis.CreatePurchaseFromRequest(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, purchase))
}

// ApproveRequest handles POST /requests/:id/approve
// @Summary      Approve a requisition
// @Description  Approves a requisition, optionally adjusting quantities and fixing unit prices
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true   "Request ID"
// @Param        payload  body      service.ApproveRequestDTO  false  "Approval adjustments"
// @Success      200      {object}  response.Response{data=model.Request}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /requests/{id}/approve [post]
func (h *RequestHandler) ApproveRequest(c *gin.Context) {
	var req service.ApproveRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		// Allow empty body — adjustments are optional
		req = service.ApproveRequestDTO{}
	}

	request, err := h.lifecycle.Approve(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

type rejectDTO struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectRequest handles POST /requests/:id/reject
func (h *RequestHandler) RejectRequest(c *gin.Context) {
	var req rejectDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "A rejection reason is required"))
		return
	}

	request, err := h.lifecycle.Reject(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req.Reason)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// CancelRequest handles POST /requests/:id/cancel
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	request, err := h.lifecycle.Cancel(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// StartPreparing handles POST /requests/:id/prepare
func (h *RequestHandler) StartPreparing(c *gin.Context) {
	request, err := h.lifecycle.StartPreparing(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

type markErrorDTO struct {
	Items []service.ItemErrorInput `json:"items" binding:"required,min=1,dive"`
}

// MarkError handles POST /requests/:id/mark-error
func (h *RequestHandler) MarkError(c *gin.Context) {
	var req markErrorDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	request, err := h.lifecycle.MarkError(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req.Items)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// ResolveError handles POST /requests/:id/resolve-error
func (h *RequestHandler) ResolveError(c *gin.Context) {
	request, err := h.lifecycle.ResolveError(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// FinalizeRequest handles POST /requests/:id/finalize
// @Summary      Finalize a received requisition
// @Description  Confirms receipt, debits the unit's budget period, and appends the ledger entry
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=model.Request}
// @Failure      422  {object}  response.Response
// @Router       /requests/{id}/finalize [post]
func (h *RequestHandler) FinalizeRequest(c *gin.Context) {
	request, err := h.lifecycle.Finalize(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

type itemPriceDTO struct {
	UnitPrice string `json:"unit_price" binding:"required"`
}

// SetItemPrice handles PUT /requests/:id/items/:itemID/price
func (h *RequestHandler) SetItemPrice(c *gin.Context) {
	var req itemPriceDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	request, err := h.lifecycle.SetItemPrice(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), c.Param("itemID"), req.UnitPrice)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}
