package plan

import (
	"net/http"

	"gymhub/internal/api"
	"gymhub/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Create a plan
// @Tags         plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        gymID   path string                 true "Gym ID"
// @Param        request body plan.CreatePlanRequest true "Plan payload"
// @Success      201 {object} plan.Plan
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /gyms/{gymID}/plans [post]
func (h *Handler) Create(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	p, err := h.service.CreatePlan(c.Request.Context(), identity, c.Param("gymID"), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// @Summary      List a gym's plans
// @Tags         plans
// @Produce      json
// @Security     BearerAuth
// @Param        gymID            path  string true  "Gym ID"
// @Param        include_inactive query bool   false "Include inactive plans (gym staff only)"
// @Success      200 {array} plan.Plan
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /gyms/{gymID}/plans [get]
func (h *Handler) List(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	plans, err := h.service.ListPlans(c.Request.Context(), identity, c.Param("gymID"), q.IncludeInactive)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, plans)
}

// @Summary      Get a plan
// @Tags         plans
// @Produce      json
// @Security     BearerAuth
// @Param        planID path string true "Plan ID"
// @Success      200 {object} plan.Plan
// @Failure      404 {object} api.ErrorResponse
// @Router       /plans/{planID} [get]
func (h *Handler) Get(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	p, err := h.service.GetPlan(c.Request.Context(), identity, c.Param("planID"))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// @Summary      Update a plan
// @Description  Changes apply to future subscriptions only
// @Tags         plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        planID  path string                 true "Plan ID"
// @Param        request body plan.UpdatePlanRequest true "Fields to change"
// @Success      200 {object} plan.Plan
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /plans/{planID} [put]
func (h *Handler) Update(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	p, err := h.service.UpdatePlan(c.Request.Context(), identity, c.Param("planID"), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// @Summary      Activate or deactivate a plan
// @Tags         plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        planID  path string                true "Plan ID"
// @Param        request body plan.SetActiveRequest true "Active flag"
// @Success      200 {object} plan.Plan
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /plans/{planID}/active [patch]
func (h *Handler) SetActive(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	p, err := h.service.SetActive(c.Request.Context(), identity, c.Param("planID"), *req.IsActive)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}
