package schedule

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

// @Summary      Create a class
// @Tags         classes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        gymID   path string                      true "Gym ID"
// @Param        request body schedule.CreateClassRequest true "Class payload"
// @Success      201 {object} schedule.Class
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /gyms/{gymID}/classes [post]
func (h *Handler) CreateClass(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	var req CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	class, err := h.service.CreateClass(c.Request.Context(), identity, c.Param("gymID"), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, class)
}

// @Summary      List a gym's classes
// @Tags         classes
// @Produce      json
// @Security     BearerAuth
// @Param        gymID            path  string true  "Gym ID"
// @Param        include_inactive query bool   false "Include inactive classes (gym staff only)"
// @Success      200 {array} schedule.Class
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /gyms/{gymID}/classes [get]
func (h *Handler) ListClasses(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	classes, err := h.service.ListClasses(c.Request.Context(), identity, c.Param("gymID"), q.IncludeInactive)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, classes)
}

// @Summary      Get a class
// @Tags         classes
// @Produce      json
// @Security     BearerAuth
// @Param        classID path string true "Class ID"
// @Success      200 {object} schedule.Class
// @Failure      404 {object} api.ErrorResponse
// @Router       /classes/{classID} [get]
func (h *Handler) GetClass(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	class, err := h.service.GetClass(c.Request.Context(), identity, c.Param("classID"))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, class)
}

// @Summary      Update a class
// @Tags         classes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        classID path string                      true "Class ID"
// @Param        request body schedule.UpdateClassRequest true "Fields to change"
// @Success      200 {object} schedule.Class
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /classes/{classID} [put]
func (h *Handler) UpdateClass(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	var req UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	class, err := h.service.UpdateClass(c.Request.Context(), identity, c.Param("classID"), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, class)
}

// @Summary      Activate or deactivate a class
// @Description  Existing bookings are kept
// @Tags         classes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        classID path string                    true "Class ID"
// @Param        request body schedule.SetActiveRequest true "Active flag"
// @Success      200 {object} schedule.Class
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /classes/{classID}/active [patch]
func (h *Handler) SetClassActive(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	class, err := h.service.SetClassActive(c.Request.Context(), identity, c.Param("classID"), *req.IsActive)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, class)
}

// @Summary      Delete a class
// @Description  Confirmed bookings of the class are cancelled
// @Tags         classes
// @Produce      json
// @Security     BearerAuth
// @Param        classID path string true "Class ID"
// @Success      200 {object} api.MessageResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /classes/{classID} [delete]
func (h *Handler) DeleteClass(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	if err := h.service.DeleteClass(c.Request.Context(), identity, c.Param("classID")); err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Class deleted"})
}

// @Summary      Book a class
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        classID path string true "Class ID"
// @Success      201 {object} schedule.Booking
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /classes/{classID}/book [post]
func (h *Handler) Book(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	booking, err := h.service.Book(c.Request.Context(), identity, c.Param("classID"))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// @Summary      List a class's bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        classID path string true "Class ID"
// @Success      200 {array} schedule.BookingWithClass
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /classes/{classID}/bookings [get]
func (h *Handler) ListClassBookings(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	bookings, err := h.service.ListClassBookings(c.Request.Context(), identity, c.Param("classID"))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// @Summary      List my bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} schedule.BookingWithClass
// @Router       /bookings [get]
func (h *Handler) ListMyBookings(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	bookings, err := h.service.ListMyBookings(c.Request.Context(), identity)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// @Summary      Cancel a booking
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path string true "Booking ID"
// @Success      200 {object} schedule.Booking
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Router       /bookings/{bookingID}/cancel [post]
func (h *Handler) CancelBooking(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	booking, err := h.service.CancelBooking(c.Request.Context(), identity, c.Param("bookingID"))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// @Summary      Daily booking stats for a gym
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        gymID path  string true "Gym ID"
// @Param        from  query string true "First day (YYYY-MM-DD)"
// @Param        to    query string true "Last day, inclusive (YYYY-MM-DD)"
// @Success      200 {array} schedule.DailyBookingStats
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /gyms/{gymID}/booking-stats [get]
func (h *Handler) BookingStats(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	var q StatsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	stats, err := h.service.BookingStats(c.Request.Context(), identity, c.Param("gymID"), q)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
