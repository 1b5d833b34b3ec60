package membership

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

// @Summary      Subscribe to a plan
// @Description  Creates an ACTIVE membership with a snapshot of the plan terms
// @Tags         memberships
// @Produce      json
// @Security     BearerAuth
// @Param        planID path string true "Plan ID"
// @Success      201 {object} membership.Membership
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /plans/{planID}/subscribe [post]
func (h *Handler) Subscribe(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	m, err := h.service.Subscribe(c.Request.Context(), identity, c.Param("planID"))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, m)
}

// @Summary      List my memberships
// @Tags         memberships
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} membership.Membership
// @Router       /memberships [get]
func (h *Handler) ListMine(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	ms, err := h.service.ListMine(c.Request.Context(), identity)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ms)
}

// @Summary      Get a membership
// @Tags         memberships
// @Produce      json
// @Security     BearerAuth
// @Param        membershipID path string true "Membership ID"
// @Success      200 {object} membership.Membership
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /memberships/{membershipID} [get]
func (h *Handler) Get(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	m, err := h.service.Get(c.Request.Context(), identity, c.Param("membershipID"))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

// @Summary      List a gym's memberships
// @Tags         memberships
// @Produce      json
// @Security     BearerAuth
// @Param        gymID  path  string true  "Gym ID"
// @Param        status query string false "Effective status filter"
// @Success      200 {array} membership.Membership
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /gyms/{gymID}/memberships [get]
func (h *Handler) ListByGym(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	ms, err := h.service.ListByGym(c.Request.Context(), identity, c.Param("gymID"), Status(q.Status))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ms)
}

// @Summary      Renew a membership
// @Tags         memberships
// @Produce      json
// @Security     BearerAuth
// @Param        membershipID path string true "Membership ID"
// @Success      200 {object} membership.Membership
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Router       /memberships/{membershipID}/renew [post]
func (h *Handler) Renew(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	m, err := h.service.Renew(c.Request.Context(), identity, c.Param("membershipID"))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

// @Summary      Cancel a membership
// @Tags         memberships
// @Produce      json
// @Security     BearerAuth
// @Param        membershipID path string true "Membership ID"
// @Success      200 {object} membership.Membership
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Router       /memberships/{membershipID}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	m, err := h.service.Cancel(c.Request.Context(), identity, c.Param("membershipID"))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

// @Summary      Set auto-renew
// @Tags         memberships
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        membershipID path string                      true "Membership ID"
// @Param        request      body membership.AutoRenewRequest true "Auto-renew flag"
// @Success      200 {object} membership.Membership
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /memberships/{membershipID}/auto-renew [patch]
func (h *Handler) SetAutoRenew(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	var req AutoRenewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	m, err := h.service.SetAutoRenew(c.Request.Context(), identity, c.Param("membershipID"), *req.AutoRenew)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

// @Summary      Request membership at a gym
// @Tags         membership-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body membership.CreateRequestRequest true "Gym code and message"
// @Success      201 {object} membership.Request
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /membership-requests [post]
func (h *Handler) CreateRequest(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	r, err := h.service.RequestMembership(c.Request.Context(), identity, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, r)
}

// @Summary      List my membership requests
// @Tags         membership-requests
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} membership.Request
// @Router       /membership-requests [get]
func (h *Handler) ListRequestsMine(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	rs, err := h.service.ListRequestsMine(c.Request.Context(), identity)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rs)
}

// @Summary      List a gym's membership requests
// @Tags         membership-requests
// @Produce      json
// @Security     BearerAuth
// @Param        gymID  path  string true  "Gym ID"
// @Param        status query string false "PENDING, APPROVED or REJECTED"
// @Success      200 {array} membership.Request
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /gyms/{gymID}/membership-requests [get]
func (h *Handler) ListRequestsByGym(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	rs, err := h.service.ListRequestsByGym(c.Request.Context(), identity, c.Param("gymID"), RequestStatus(q.Status))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rs)
}

// @Summary      Resolve a membership request
// @Description  APPROVED may carry a plan_id, in which case the membership is created in the same step
// @Tags         membership-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        requestID path string                           true "Request ID"
// @Param        request   body membership.ResolveRequestRequest true "Decision"
// @Success      200 {object} membership.Request
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Router       /membership-requests/{requestID}/resolve [post]
func (h *Handler) ResolveRequest(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	var req ResolveRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	r, err := h.service.ResolveRequest(c.Request.Context(), identity, c.Param("requestID"), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, r)
}
