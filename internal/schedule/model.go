package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gymhub/internal/apperr"

	"github.com/shopspring/decimal"
)

const (
	MinCapacity     = 1
	MaxCapacity     = 100
	MinDuration     = 15
	MaxDuration     = 180
	DurationStep    = 15
	minutesPerDay   = 24 * 60
	dateLayout      = "2006-01-02"
	timeOfDayLayout = "15:04"
)

// TimeOfDay is a wall-clock time stored as minutes since midnight and
// exchanged as "HH:MM".
type TimeOfDay int

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(timeOfDayLayout, s)
	if err != nil {
		return 0, apperr.Validation("time %q must be formatted as HH:MM", s)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) String() string {
	m := int(t) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Date is a calendar day with no time zone of its own; classes run on UTC
// wall-clock time.
type Date struct {
	time.Time
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, apperr.Validation("date %q must be formatted as YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = Date{time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)}
		return nil
	case string:
		parsed, err := ParseDate(v[:min(len(v), len(dateLayout))])
		*d = parsed
		return err
	case []byte:
		return d.Scan(string(v))
	}
	return fmt.Errorf("cannot scan %T into Date", src)
}

type Class struct {
	ID              string          `db:"id" json:"id"`
	GymID           string          `db:"gym_id" json:"gym_id"`
	TrainerID       *string         `db:"trainer_id" json:"trainer_id,omitempty"`
	Name            string          `db:"name" json:"name"`
	Description     string          `db:"description" json:"description"`
	Capacity        int             `db:"capacity" json:"capacity"`
	Date            Date            `db:"class_date" json:"date" swaggertype:"string" example:"2026-06-01"`
	StartTime       TimeOfDay       `db:"start_minute" json:"start_time" swaggertype:"string" example:"18:30"`
	DurationMinutes int             `db:"duration_minutes" json:"duration_minutes"`
	Price           decimal.Decimal `db:"price" json:"price" swaggertype:"string" example:"12.50"`
	IsActive        bool            `db:"is_active" json:"is_active"`
	DeletedAt       *time.Time      `db:"deleted_at" json:"-"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`

	ConfirmedCount int       `db:"confirmed_count" json:"confirmed_count"`
	EndTime        TimeOfDay `db:"-" json:"end_time" swaggertype:"string" example:"19:30"`
	AvailableSpots int       `db:"-" json:"available_spots"`
	IsFullyBooked  bool      `db:"-" json:"is_fully_booked"`
}

// StartsAt is the instant the class begins, in UTC.
func (c *Class) StartsAt() time.Time {
	return c.Date.Add(time.Duration(c.StartTime) * time.Minute)
}

// withAvailability fills the fields derived from capacity and the confirmed
// count.
func (c *Class) withAvailability() *Class {
	c.EndTime = c.StartTime + TimeOfDay(c.DurationMinutes)
	c.AvailableSpots = c.Capacity - c.ConfirmedCount
	c.IsFullyBooked = c.AvailableSpots <= 0
	return c
}

func withAvailabilityAll(cs []Class) []Class {
	for i := range cs {
		cs[i].withAvailability()
	}
	return cs
}

// validateSlot checks capacity and the daily time window of a class.
func validateSlot(capacity int, start TimeOfDay, duration int) error {
	if capacity < MinCapacity || capacity > MaxCapacity {
		return apperr.Validation("capacity must be between %d and %d", MinCapacity, MaxCapacity)
	}
	if duration < MinDuration || duration > MaxDuration || duration%DurationStep != 0 {
		return apperr.Validation("duration must be between %d and %d minutes in steps of %d", MinDuration, MaxDuration, DurationStep)
	}
	if int(start)+duration > minutesPerDay {
		return apperr.Validation("class may not run past midnight")
	}
	return nil
}

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Cancel returns the status after cancellation. Only CONFIRMED bookings can
// be cancelled.
func (s BookingStatus) Cancel() (BookingStatus, error) {
	if s != BookingConfirmed {
		return "", apperr.StateTransition("cannot cancel a booking that is %s", s)
	}
	return BookingCancelled, nil
}

type Booking struct {
	ID          string        `db:"id" json:"id"`
	ClassID     string        `db:"class_id" json:"class_id"`
	GymID       string        `db:"gym_id" json:"gym_id"`
	UserID      string        `db:"user_id" json:"user_id"`
	Status      BookingStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	CancelledAt *time.Time    `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

type BookingWithClass struct {
	Booking
	ClassName      string    `db:"class_name" json:"class_name"`
	ClassDate      Date      `db:"class_date" json:"class_date" swaggertype:"string" example:"2026-06-01"`
	ClassStartTime TimeOfDay `db:"class_start_minute" json:"class_start_time" swaggertype:"string" example:"18:30"`
}

type CreateClassRequest struct {
	Name            string          `json:"name" validate:"required,max=120" example:"Morning HIIT"`
	Description     string          `json:"description" validate:"max=1000"`
	TrainerID       *string         `json:"trainer_id,omitempty"`
	Capacity        int             `json:"capacity" example:"20"`
	Date            string          `json:"date" validate:"required,datetime=2006-01-02" example:"2026-06-01"`
	StartTime       string          `json:"start_time" validate:"required,datetime=15:04" example:"07:00"`
	DurationMinutes int             `json:"duration_minutes" example:"45"`
	Price           decimal.Decimal `json:"price" swaggertype:"string" example:"12.50"`
}

// UpdateClassRequest changes only the fields that are present.
type UpdateClassRequest struct {
	Name            *string          `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Description     *string          `json:"description,omitempty" validate:"omitempty,max=1000"`
	TrainerID       *string          `json:"trainer_id,omitempty"`
	Capacity        *int             `json:"capacity,omitempty"`
	Date            *string          `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartTime       *string          `json:"start_time,omitempty" validate:"omitempty,datetime=15:04"`
	DurationMinutes *int             `json:"duration_minutes,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty" swaggertype:"string"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type ListQuery struct {
	IncludeInactive bool `form:"include_inactive"`
}

// DailyBookingStats counts bookings made on one UTC day and how many of
// those were later cancelled.
type DailyBookingStats struct {
	Day       string `db:"day" json:"day" example:"2026-06-01"`
	Created   int    `db:"bookings_created" json:"bookings_created"`
	Cancelled int    `db:"bookings_cancelled" json:"bookings_cancelled"`
}

type StatsQuery struct {
	From string `form:"from" binding:"required" example:"2026-06-01"`
	To   string `form:"to" binding:"required" example:"2026-06-30"`
}
