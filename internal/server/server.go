package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gymhub/internal/access"
	"gymhub/internal/activity"
	"gymhub/internal/auth"
	"gymhub/internal/config"
	"gymhub/internal/gym"
	"gymhub/internal/membership"
	"gymhub/internal/plan"
	"gymhub/internal/schedule"

	"github.com/gin-gonic/gin"
)

// Handlers bundles the HTTP handlers mounted by New.
type Handlers struct {
	Gym        *gym.Handler
	Plan       *plan.Handler
	Membership *membership.Handler
	Schedule   *schedule.Handler
	Activity   *activity.Handler
}

type Server struct {
	router *gin.Engine
	http   *http.Server
	config *config.Config
}

func New(cfg *config.Config, h Handlers) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	if cfg.RateLimitRPS > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.POST("/gyms", h.Gym.Register)
		protected.GET("/gyms", h.Gym.List)
		protected.GET("/gyms/:gymID", h.Gym.Get)
		protected.GET("/gyms/code/:code", h.Gym.GetByCode)
		protected.POST("/gyms/:gymID/admins", h.Gym.AddAdmin)

		protected.POST("/gyms/:gymID/plans", h.Plan.Create)
		protected.GET("/gyms/:gymID/plans", h.Plan.List)
		protected.GET("/plans/:planID", h.Plan.Get)
		protected.PUT("/plans/:planID", h.Plan.Update)
		protected.PATCH("/plans/:planID/active", h.Plan.SetActive)

		protected.POST("/plans/:planID/subscribe", h.Membership.Subscribe)
		protected.GET("/memberships", h.Membership.ListMine)
		protected.GET("/memberships/:membershipID", h.Membership.Get)
		protected.GET("/gyms/:gymID/memberships", h.Membership.ListByGym)
		protected.POST("/memberships/:membershipID/renew", h.Membership.Renew)
		protected.POST("/memberships/:membershipID/cancel", h.Membership.Cancel)
		protected.PATCH("/memberships/:membershipID/auto-renew", h.Membership.SetAutoRenew)
		protected.POST("/membership-requests", h.Membership.CreateRequest)
		protected.GET("/membership-requests", h.Membership.ListRequestsMine)
		protected.GET("/gyms/:gymID/membership-requests", h.Membership.ListRequestsByGym)
		protected.POST("/membership-requests/:requestID/resolve", h.Membership.ResolveRequest)

		protected.POST("/gyms/:gymID/classes", h.Schedule.CreateClass)
		protected.GET("/gyms/:gymID/classes", h.Schedule.ListClasses)
		protected.GET("/gyms/:gymID/booking-stats", h.Schedule.BookingStats)
		protected.GET("/classes/:classID", h.Schedule.GetClass)
		protected.PUT("/classes/:classID", h.Schedule.UpdateClass)
		protected.PATCH("/classes/:classID/active", h.Schedule.SetClassActive)
		protected.DELETE("/classes/:classID", h.Schedule.DeleteClass)
		protected.POST("/classes/:classID/book", h.Schedule.Book)
		protected.GET("/classes/:classID/bookings", h.Schedule.ListClassBookings)
		protected.GET("/bookings", h.Schedule.ListMyBookings)
		protected.POST("/bookings/:bookingID/cancel", h.Schedule.CancelBooking)
	}

	platform := router.Group("/platform")
	platform.Use(authMiddleware, auth.RequireRole(access.RoleSuperAdmin))
	{
		platform.POST("/gyms/:gymID/approve", h.Gym.Approve)
		platform.POST("/gyms/:gymID/reject", h.Gym.Reject)
		platform.POST("/gyms/:gymID/suspend", h.Gym.Suspend)
		platform.POST("/gyms/:gymID/reactivate", h.Gym.Reactivate)
		platform.GET("/activity", h.Activity.List)
	}

	return &Server{
		router: router,
		config: cfg,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
