package handler

import (
	"errors"
	"net/http"

	"requisition-backend/internal/service"
	"requisition-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// abortWithError maps service errors onto HTTP status codes so every
// handler reports failures the same way.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case service.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrPermission):
		status = http.StatusForbidden
	case errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrRequestLocked):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInsufficientBudget),
		errors.Is(err, service.ErrBudgetAlreadyConsumed),
		errors.Is(err, service.ErrNoBudgetPeriod):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, response.Error(status, err.Error()))
}
