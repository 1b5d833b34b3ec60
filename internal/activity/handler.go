package activity

import (
	"net/http"

	"gymhub/internal/api"
	"gymhub/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	recorder *Recorder
}

func NewHandler(recorder *Recorder) *Handler {
	return &Handler{recorder: recorder}
}

// @Summary      List platform activity
// @Description  Platform admin only: most recent activity records, newest first
// @Tags         platform
// @Produce      json
// @Security     BearerAuth
// @Param        gym_id query string false "Filter by gym"
// @Param        limit  query int    false "Maximum records (1-500)"
// @Success      200 {array} activity.Record
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Router       /platform/activity [get]
func (h *Handler) List(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	var filter Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	records, err := h.recorder.List(c.Request.Context(), identity, filter)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}
