package handler

import (
	"net/http"

	"requisition-backend/internal/middleware"
	"requisition-backend/internal/service"
	"requisition-backend/pkg/pagination"
	"requisition-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type BudgetHandler struct {
	budgetService service.BudgetService
}

func NewBudgetHandler(budgetService service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

func (h *BudgetHandler) RegisterRoutes(router *gin.RouterGroup) {
	budgets := router.Group("/budgets")
	{
		budgets.POST("", middleware.RequireRole(financeRoles...), h.CreatePeriod)
		budgets.GET("/unit/:unitID", middleware.RequireRole(anyRole...), h.ListByUnit)
		budgets.GET("/:id/transactions", middleware.RequireRole(anyRole...), h.ListTransactions)
		budgets.GET("/:id/summary", middleware.RequireRole(anyRole...), h.Summary)
	}
}

// CreatePeriod handles POST /budgets
// @Summary      Create a budget period
// @Description  Allocates a budget envelope for a unit over a date range
// @Tags         budgets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateBudgetDTO  true  "Create Budget Payload"
// @Success      201      {object}  response.Response{data=model.UnitBudget}
// @Failure      400      {object}  response.Response
// @Router       /budgets [post]
func (h *BudgetHandler) CreatePeriod(c *gin.Context) {
	var req service.CreateBudgetDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	budget, err := h.budgetService.CreatePeriod(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, budget))
}

// ListByUnit handles GET /budgets/unit/:unitID
func (h *BudgetHandler) ListByUnit(c *gin.Context) {
	budgets, err := h.budgetService.ListByUnit(c.Request.Context(), middleware.CurrentActor(c), c.Param("unitID"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, budgets))
}

// Summary handles GET /budgets/:id/summary
func (h *BudgetHandler) Summary(c *gin.Context) {
	summary, err := h.budgetService.Summary(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// ListTransactions handles GET /budgets/:id/transactions, the append-only
// ledger of debits against a budget period
func (h *BudgetHandler) ListTransactions(c *gin.Context) {
	p := pagination.Parse(c)

	transactions, total, err := h.budgetService.ListTransactions(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"total":        total,
		"page":         p.Page,
		"limit":        p.Limit,
	}))
}
