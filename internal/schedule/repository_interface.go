package schedule

import (
	"context"
	"time"
)

type Repository interface {
	CreateClass(ctx context.Context, c *Class) error
	GetClass(ctx context.Context, id string) (*Class, error)
	ListClasses(ctx context.Context, gymID string, includeInactive bool) ([]Class, error)
	// UpdateClass applies fn to the locked class and writes the result.
	// fn sees the current confirmed count.
	UpdateClass(ctx context.Context, id string, fn func(c *Class) error) (*Class, error)
	// DeleteClass soft-deletes the class and cancels its confirmed bookings
	// in one unit. It returns the number of bookings cancelled.
	DeleteClass(ctx context.Context, id string, at time.Time) (int, error)

	// Book admits b into its class if admit accepts the locked class, the
	// user holds no confirmed booking for it and a seat is free.
	Book(ctx context.Context, b *Booking, admit func(c *Class) error) (*Class, error)
	GetBooking(ctx context.Context, id string) (*Booking, error)
	CancelBooking(ctx context.Context, id string, at time.Time) (*Booking, error)
	ListBookingsByUser(ctx context.Context, userID string) ([]BookingWithClass, error)
	ListBookingsByClass(ctx context.Context, classID string) ([]BookingWithClass, error)

	// BookingStatsByDay groups a gym's bookings created in [from, to) by day.
	BookingStatsByDay(ctx context.Context, gymID string, from, to time.Time) ([]DailyBookingStats, error)
}
