package gym

import (
	"context"
	"net/http"

	"gymhub/internal/access"
	"gymhub/internal/api"
	"gymhub/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// @Summary      Register a gym
// @Description  Creates a gym owned by the caller. It starts PENDING until a platform admin approves it.
// @Tags         gyms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body gym.RegisterGymRequest true "Gym payload"
// @Success      201 {object} gym.Gym
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Router       /gyms [post]
func (h *Handler) Register(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	var req RegisterGymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	g, err := h.service.Register(c.Request.Context(), identity, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, g)
}

// @Summary      List gyms
// @Description  Platform admins see every gym; everyone else sees ACTIVE gyms
// @Tags         gyms
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} gym.Gym
// @Failure      401 {object} api.ErrorResponse
// @Router       /gyms [get]
func (h *Handler) List(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	gyms, err := h.service.List(c.Request.Context(), identity)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gyms)
}

// @Summary      Get a gym
// @Tags         gyms
// @Produce      json
// @Security     BearerAuth
// @Param        gymID path string true "Gym ID"
// @Success      200 {object} gym.Gym
// @Failure      404 {object} api.ErrorResponse
// @Router       /gyms/{gymID} [get]
func (h *Handler) Get(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	g, err := h.service.Get(c.Request.Context(), identity, c.Param("gymID"))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, g)
}

// @Summary      Find a gym by join code
// @Tags         gyms
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Gym code"
// @Success      200 {object} gym.Gym
// @Failure      404 {object} api.ErrorResponse
// @Router       /gyms/code/{code} [get]
func (h *Handler) GetByCode(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	g, err := h.service.GetByCode(c.Request.Context(), identity, c.Param("code"))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, g)
}

// @Summary      Add a gym admin
// @Tags         gyms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        gymID   path string               true "Gym ID"
// @Param        request body gym.AddAdminRequest true "Admin payload"
// @Success      200 {object} gym.Gym
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /gyms/{gymID}/admins [post]
func (h *Handler) AddAdmin(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	var req AddAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	g, err := h.service.AddAdmin(c.Request.Context(), identity, c.Param("gymID"), req.UserID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, g)
}

// @Summary      Approve a pending gym
// @Tags         platform
// @Produce      json
// @Security     BearerAuth
// @Param        gymID path string true "Gym ID"
// @Success      200 {object} gym.Gym
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Router       /platform/gyms/{gymID}/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

// @Summary      Reject a pending gym
// @Tags         platform
// @Produce      json
// @Security     BearerAuth
// @Param        gymID path string true "Gym ID"
// @Success      200 {object} gym.Gym
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Router       /platform/gyms/{gymID}/reject [post]
func (h *Handler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject)
}

// @Summary      Suspend an active gym
// @Tags         platform
// @Produce      json
// @Security     BearerAuth
// @Param        gymID path string true "Gym ID"
// @Success      200 {object} gym.Gym
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Router       /platform/gyms/{gymID}/suspend [post]
func (h *Handler) Suspend(c *gin.Context) {
	h.transition(c, h.service.Suspend)
}

// @Summary      Reactivate a suspended gym
// @Tags         platform
// @Produce      json
// @Security     BearerAuth
// @Param        gymID path string true "Gym ID"
// @Success      200 {object} gym.Gym
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Router       /platform/gyms/{gymID}/reactivate [post]
func (h *Handler) Reactivate(c *gin.Context) {
	h.transition(c, h.service.Reactivate)
}

type transitionFunc func(ctx context.Context, identity access.Identity, gymID string) (*Gym, error)

func (h *Handler) transition(c *gin.Context, fn transitionFunc) {
	identity, _ := auth.IdentityFrom(c)

	g, err := fn(c.Request.Context(), identity, c.Param("gymID"))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, g)
}
