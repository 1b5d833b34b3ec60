package schedule

import (
	"context"
	"errors"
	"strings"
	"time"

	"gymhub/internal/access"
	"gymhub/internal/activity"
	"gymhub/internal/apperr"
	"gymhub/internal/clock"
	"gymhub/internal/gym"
	"gymhub/internal/logger"
	"gymhub/internal/metrics"
	"gymhub/internal/notify"
	"gymhub/internal/validation"

	"github.com/google/uuid"
)

var (
	ErrClassNotFound          = apperr.NotFound("class not found")
	ErrBookingNotFound        = apperr.NotFound("booking not found")
	ErrClassFull              = apperr.Conflict("class full")
	ErrDuplicateBooking       = apperr.Conflict("duplicate booking")
	ErrClassInactive          = apperr.Conflict("class is not open for booking")
	ErrGymNotActive           = apperr.Conflict("gym is not active")
	ErrMembershipRequired     = apperr.Conflict("an active membership at this gym is required to book")
	ErrCapacityBelowConfirmed = apperr.Conflict("capacity cannot drop below the number of confirmed bookings")
	ErrClassStarted           = apperr.Conflict("class has already started")
)

type GymLookup interface {
	GetByID(ctx context.Context, id string) (*gym.Gym, error)
}

// MembershipChecker answers whether a user may book at a gym when bookings
// require membership.
type MembershipChecker interface {
	HasActiveMembership(ctx context.Context, userID, gymID string) (bool, error)
}

type Options struct {
	RequireMembership bool
}

type Service interface {
	CreateClass(ctx context.Context, identity access.Identity, gymID string, req CreateClassRequest) (*Class, error)
	UpdateClass(ctx context.Context, identity access.Identity, classID string, req UpdateClassRequest) (*Class, error)
	SetClassActive(ctx context.Context, identity access.Identity, classID string, isActive bool) (*Class, error)
	DeleteClass(ctx context.Context, identity access.Identity, classID string) error
	GetClass(ctx context.Context, identity access.Identity, classID string) (*Class, error)
	ListClasses(ctx context.Context, identity access.Identity, gymID string, includeInactive bool) ([]Class, error)

	Book(ctx context.Context, identity access.Identity, classID string) (*Booking, error)
	CancelBooking(ctx context.Context, identity access.Identity, bookingID string) (*Booking, error)
	ListMyBookings(ctx context.Context, identity access.Identity) ([]BookingWithClass, error)
	ListClassBookings(ctx context.Context, identity access.Identity, classID string) ([]BookingWithClass, error)
	BookingStats(ctx context.Context, identity access.Identity, gymID string, q StatsQuery) ([]DailyBookingStats, error)
}

type service struct {
	repo        Repository
	gyms        GymLookup
	memberships MembershipChecker
	recorder    *activity.Recorder
	notifier    notify.Notifier
	clock       clock.Clock
	opts        Options
}

func NewService(repo Repository, gyms GymLookup, memberships MembershipChecker, recorder *activity.Recorder, notifier notify.Notifier, clk clock.Clock, opts Options) Service {
	return &service{
		repo:        repo,
		gyms:        gyms,
		memberships: memberships,
		recorder:    recorder,
		notifier:    notifier,
		clock:       clk,
		opts:        opts,
	}
}

func (s *service) CreateClass(ctx context.Context, identity access.Identity, gymID string, req CreateClassRequest) (*Class, error) {
	g, err := s.gyms.GetByID(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(identity, access.ActionManageClasses, g.Target("")); err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	date, err := ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	start, err := ParseTimeOfDay(req.StartTime)
	if err != nil {
		return nil, err
	}
	if err := validateSlot(req.Capacity, start, req.DurationMinutes); err != nil {
		return nil, err
	}
	if err := validation.Price(req.Price); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	c := &Class{
		ID:              uuid.NewString(),
		GymID:           gymID,
		TrainerID:       req.TrainerID,
		Name:            req.Name,
		Description:     req.Description,
		Capacity:        req.Capacity,
		Date:            date,
		StartTime:       start,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.CreateClass(ctx, c); err != nil {
		return nil, err
	}

	logger.Info("class created", "class_id", c.ID, "gym_id", gymID, "date", c.Date.String(), "start", c.StartTime.String())
	s.recorder.Record(ctx, activity.ActionClassCreated, identity.UserID, activity.TargetClass, c.ID, gymID)
	return c.withAvailability(), nil
}

func (s *service) UpdateClass(ctx context.Context, identity access.Identity, classID string, req UpdateClassRequest) (*Class, error) {
	current, err := s.authorizedClass(ctx, identity, classID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.Validation("Name is required")
		}
		req.Name = &name
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if req.Price != nil {
		if err := validation.Price(*req.Price); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	c, err := s.repo.UpdateClass(ctx, classID, func(c *Class) error {
		if err := applyUpdate(c, req); err != nil {
			return err
		}
		if err := validateSlot(c.Capacity, c.StartTime, c.DurationMinutes); err != nil {
			return err
		}
		if c.Capacity < c.ConfirmedCount {
			return ErrCapacityBelowConfirmed
		}
		c.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, activity.ActionClassUpdated, identity.UserID, activity.TargetClass, classID, current.GymID)
	return c.withAvailability(), nil
}

func applyUpdate(c *Class, req UpdateClassRequest) error {
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.TrainerID != nil {
		c.TrainerID = req.TrainerID
	}
	if req.Capacity != nil {
		c.Capacity = *req.Capacity
	}
	if req.Date != nil {
		date, err := ParseDate(*req.Date)
		if err != nil {
			return err
		}
		c.Date = date
	}
	if req.StartTime != nil {
		start, err := ParseTimeOfDay(*req.StartTime)
		if err != nil {
			return err
		}
		c.StartTime = start
	}
	if req.DurationMinutes != nil {
		c.DurationMinutes = *req.DurationMinutes
	}
	if req.Price != nil {
		c.Price = *req.Price
	}
	return nil
}

// SetClassActive only hides or shows the class for new bookings. Existing
// bookings are left as they are.
func (s *service) SetClassActive(ctx context.Context, identity access.Identity, classID string, isActive bool) (*Class, error) {
	c, err := s.authorizedClass(ctx, identity, classID)
	if err != nil {
		return nil, err
	}
	if c.IsActive == isActive {
		return c.withAvailability(), nil
	}

	now := s.clock.Now()
	updated, err := s.repo.UpdateClass(ctx, classID, func(c *Class) error {
		c.IsActive = isActive
		c.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("class active flag changed", "class_id", classID, "is_active", isActive)
	s.recorder.Record(ctx, activity.ActionClassActiveChanged, identity.UserID, activity.TargetClass, classID, c.GymID)
	return updated.withAvailability(), nil
}

func (s *service) DeleteClass(ctx context.Context, identity access.Identity, classID string) error {
	c, err := s.authorizedClass(ctx, identity, classID)
	if err != nil {
		return err
	}

	cancelled, err := s.repo.DeleteClass(ctx, classID, s.clock.Now())
	if err != nil {
		return err
	}

	logger.Info("class deleted", "class_id", classID, "gym_id", c.GymID, "bookings_cancelled", cancelled)
	metrics.RecordBookingCancellation("class_deleted", cancelled)
	s.recorder.Record(ctx, activity.ActionClassDeleted, identity.UserID, activity.TargetClass, classID, c.GymID)
	return nil
}

// GetClass hides inactive classes from callers who cannot manage them.
func (s *service) GetClass(ctx context.Context, identity access.Identity, classID string) (*Class, error) {
	c, err := s.repo.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		g, err := s.gyms.GetByID(ctx, c.GymID)
		if err != nil {
			return nil, err
		}
		if access.Authorize(identity, access.ActionViewGymRecords, g.Target("")) != nil {
			return nil, ErrClassNotFound
		}
	}
	return c.withAvailability(), nil
}

func (s *service) ListClasses(ctx context.Context, identity access.Identity, gymID string, includeInactive bool) ([]Class, error) {
	g, err := s.gyms.GetByID(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if includeInactive {
		if err := access.Authorize(identity, access.ActionViewGymRecords, g.Target("")); err != nil {
			return nil, err
		}
	}

	classes, err := s.repo.ListClasses(ctx, gymID, includeInactive)
	if err != nil {
		return nil, err
	}
	return withAvailabilityAll(classes), nil
}

// Book reserves one seat. The capacity check and the insert happen under the
// class lock, so concurrent calls never overfill a class.
func (s *service) Book(ctx context.Context, identity access.Identity, classID string) (*Booking, error) {
	c, err := s.repo.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	g, err := s.gyms.GetByID(ctx, c.GymID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(identity, access.ActionBookClass, g.Target(identity.UserID)); err != nil {
		return nil, err
	}
	if g.Status != gym.StatusActive {
		return nil, ErrGymNotActive
	}

	if s.opts.RequireMembership {
		ok, err := s.memberships.HasActiveMembership(ctx, identity.UserID, g.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			metrics.RecordBooking("no_membership")
			return nil, ErrMembershipRequired
		}
	}

	now := s.clock.Now()
	b := &Booking{
		ID:        uuid.NewString(),
		ClassID:   classID,
		GymID:     g.ID,
		UserID:    identity.UserID,
		Status:    BookingConfirmed,
		CreatedAt: now,
	}

	booked, err := s.repo.Book(ctx, b, func(c *Class) error {
		if !c.IsActive {
			return ErrClassInactive
		}
		if !now.Before(c.StartsAt()) {
			return ErrClassStarted
		}
		return nil
	})
	if err != nil {
		metrics.RecordBooking(bookingResult(err))
		return nil, err
	}

	logger.Info("class booked", "booking_id", b.ID, "class_id", classID, "user_id", b.UserID, "confirmed", booked.ConfirmedCount, "capacity", booked.Capacity)
	metrics.RecordBooking("confirmed")
	s.recorder.Record(ctx, activity.ActionBookingCreated, identity.UserID, activity.TargetBooking, b.ID, g.ID)
	s.notify(ctx, notify.BookingConfirmed(b.UserID, b.ID, booked.Name, booked.StartsAt()))
	return b, nil
}

func bookingResult(err error) string {
	switch {
	case errors.Is(err, ErrClassFull):
		return "full"
	case errors.Is(err, ErrDuplicateBooking):
		return "duplicate"
	}
	return "rejected"
}

func (s *service) CancelBooking(ctx context.Context, identity access.Identity, bookingID string) (*Booking, error) {
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	g, err := s.gyms.GetByID(ctx, b.GymID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(identity, access.ActionCancelBooking, g.Target(b.UserID)); err != nil {
		return nil, err
	}
	if _, err := b.Status.Cancel(); err != nil {
		return nil, err
	}

	cancelled, err := s.repo.CancelBooking(ctx, bookingID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	reason := "member"
	if identity.UserID != b.UserID {
		reason = "staff"
	}
	logger.Info("booking cancelled", "booking_id", bookingID, "class_id", b.ClassID, "actor_id", identity.UserID)
	metrics.RecordBookingCancellation(reason, 1)
	s.recorder.Record(ctx, activity.ActionBookingCancelled, identity.UserID, activity.TargetBooking, bookingID, g.ID)

	className := ""
	if c, err := s.repo.GetClass(ctx, b.ClassID); err == nil {
		className = c.Name
	}
	s.notify(ctx, notify.BookingCancelled(b.UserID, bookingID, className))
	return cancelled, nil
}

func (s *service) ListMyBookings(ctx context.Context, identity access.Identity) ([]BookingWithClass, error) {
	return s.repo.ListBookingsByUser(ctx, identity.UserID)
}

func (s *service) ListClassBookings(ctx context.Context, identity access.Identity, classID string) ([]BookingWithClass, error) {
	c, err := s.repo.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	g, err := s.gyms.GetByID(ctx, c.GymID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(identity, access.ActionViewGymRecords, g.Target("")); err != nil {
		return nil, err
	}
	return s.repo.ListBookingsByClass(ctx, classID)
}

const maxStatsDays = 366

// BookingStats reports bookings per day between two inclusive dates.
func (s *service) BookingStats(ctx context.Context, identity access.Identity, gymID string, q StatsQuery) ([]DailyBookingStats, error) {
	g, err := s.gyms.GetByID(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(identity, access.ActionViewGymRecords, g.Target("")); err != nil {
		return nil, err
	}

	from, err := ParseDate(q.From)
	if err != nil {
		return nil, err
	}
	to, err := ParseDate(q.To)
	if err != nil {
		return nil, err
	}
	if to.Before(from.Time) {
		return nil, apperr.Validation("to must not be before from")
	}
	end := to.AddDate(0, 0, 1)
	if end.Sub(from.Time) > maxStatsDays*24*time.Hour {
		return nil, apperr.Validation("range must not exceed %d days", maxStatsDays)
	}

	return s.repo.BookingStatsByDay(ctx, gymID, from.Time, end)
}

func (s *service) authorizedClass(ctx context.Context, identity access.Identity, classID string) (*Class, error) {
	c, err := s.repo.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	g, err := s.gyms.GetByID(ctx, c.GymID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(identity, access.ActionManageClasses, g.Target("")); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) notify(ctx context.Context, n notify.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		logger.Warn("notification not queued", "kind", n.Kind, "user_id", n.UserID, "error", err)
	}
}

