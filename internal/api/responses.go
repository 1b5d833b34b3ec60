package api

import (
	"errors"
	"net/http"

	"gymhub/internal/apperr"
	"gymhub/internal/logger"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error" example:"class is full"`
	Kind  string `json:"kind,omitempty" example:"CONFLICT"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:      http.StatusBadRequest,
	apperr.KindConflict:        http.StatusConflict,
	apperr.KindStateTransition: http.StatusUnprocessableEntity,
	apperr.KindAuthorization:   http.StatusForbidden,
	apperr.KindNotFound:        http.StatusNotFound,
}

// StatusOf maps an error to the HTTP status it is reported with.
func StatusOf(err error) int {
	if kind, ok := apperr.KindOf(err); ok {
		if status, ok := kindStatus[kind]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// RespondError writes err as an ErrorResponse. Errors outside the taxonomy
// are logged and reported without detail.
func RespondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		c.JSON(StatusOf(err), ErrorResponse{Error: appErr.Reason, Kind: string(appErr.Kind)})
		return
	}

	logger.WithError(err).Errorw("request failed", "method", c.Request.Method, "path", c.FullPath())
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// BadRequest reports a malformed request body or parameter.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Kind: string(apperr.KindValidation)})
}
