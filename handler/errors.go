package handler

import (
	"errors"
	"net/http"

	"github.com/AnTengye/jurieasy/pkg/apperr"
	"github.com/AnTengye/jurieasy/pkg/logger"
	"github.com/AnTengye/jurieasy/service"
	"github.com/gin-gonic/gin"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation: http.StatusUnprocessableEntity,
	apperr.KindNotFound:   http.StatusNotFound,
	apperr.KindConflict:   http.StatusConflict,
	apperr.KindForbidden:  http.StatusForbidden,
	apperr.KindIO:         http.StatusBadGateway,
}

// respondError writes err as a JSON error and aborts the request.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *apperr.Error
	switch {
	case errors.Is(err, service.ErrSaveInProgress):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error": "Já existe um salvamento em andamento",
			"code":  "SAVE_IN_PROGRESS",
		})
	case errors.As(err, &appErr):
		status, ok := kindStatus[appErr.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		body := gin.H{"error": appErr.Message, "code": appErr.Code()}
		if appErr.Field != "" {
			body["field"] = appErr.Field
		}
		if status >= 500 {
			logger.Error(c.Request.Context(), "request failed", "error", err)
		}
		c.AbortWithStatusJSON(status, body)
	default:
		logger.Error(c.Request.Context(), "request failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
			"code":  "INTERNAL_ERROR",
		})
	}
}

// badRequest rejects a body or query that could not be bound.
func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error": "Invalid request",
		"code":  "BAD_REQUEST",
	})
}
