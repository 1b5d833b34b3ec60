package membership

import (
	"math"
	"time"

	"gymhub/internal/apperr"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

type Event string

const (
	EventRenew  Event = "renew"
	EventCancel Event = "cancel"
	EventExpire Event = "expire"
)

// allowedFrom lists the source statuses each event may be applied to.
// CANCELLED is terminal.
var allowedFrom = map[Event][]Status{
	EventRenew:  {StatusActive, StatusExpired},
	EventCancel: {StatusActive, StatusPending},
	EventExpire: {StatusActive},
}

var eventTarget = map[Event]Status{
	EventRenew:  StatusActive,
	EventCancel: StatusCancelled,
	EventExpire: StatusExpired,
}

// Next returns the status reached by applying e to s.
func (s Status) Next(e Event) (Status, error) {
	for _, from := range allowedFrom[e] {
		if from == s {
			return eventTarget[e], nil
		}
	}
	return "", apperr.StateTransition("cannot %s a membership that is %s", e, s)
}

// PlanSnapshot is a copy of the plan terms at subscription time. Later plan
// edits never reach it.
type PlanSnapshot struct {
	PlanID       string          `db:"plan_id" json:"plan_id"`
	Name         string          `db:"plan_name" json:"name"`
	Price        decimal.Decimal `db:"plan_price" json:"price" swaggertype:"string" example:"29.99"`
	DurationDays int             `db:"plan_duration_days" json:"duration_days"`
}

type Membership struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"user_id"`
	GymID  string `db:"gym_id" json:"gym_id"`

	PlanSnapshot `json:"plan_snapshot"`

	Status    Status    `db:"status" json:"status"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	AutoRenew bool      `db:"auto_renew" json:"auto_renew"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	DaysRemaining int `db:"-" json:"days_remaining"`
}

// EffectiveStatus is the status a reader observes at now: an ACTIVE
// membership past its end date reads as EXPIRED whether or not the stored
// row has been corrected yet.
func EffectiveStatus(m *Membership, now time.Time) Status {
	if m.Status == StatusActive && m.EndDate.Before(now) {
		return StatusExpired
	}
	return m.Status
}

// DaysRemaining counts whole or partial days left on an effectively ACTIVE
// membership. It is never negative.
func DaysRemaining(m *Membership, now time.Time) int {
	if EffectiveStatus(m, now) != StatusActive {
		return 0
	}
	return int(math.Ceil(m.EndDate.Sub(now).Hours() / 24))
}

// Observe rewrites m in place with what a reader sees at now.
func (m *Membership) Observe(now time.Time) *Membership {
	m.Status = EffectiveStatus(m, now)
	m.DaysRemaining = DaysRemaining(m, now)
	return m
}

func observeAll(ms []Membership, now time.Time) []Membership {
	for i := range ms {
		ms[i].Observe(now)
	}
	return ms
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

type Request struct {
	ID           string        `db:"id" json:"id"`
	UserID       string        `db:"user_id" json:"user_id"`
	GymID        string        `db:"gym_id" json:"gym_id"`
	GymCode      string        `db:"gym_code" json:"gym_code"`
	Message      string        `db:"message" json:"message,omitempty"`
	Status       RequestStatus `db:"status" json:"status"`
	RequestedAt  time.Time     `db:"requested_at" json:"requested_at"`
	ResolvedAt   *time.Time    `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy   *string       `db:"resolved_by" json:"resolved_by,omitempty"`
	MembershipID *string       `db:"membership_id" json:"membership_id,omitempty"`
}

// Resolution is the outcome applied to a PENDING request in one unit. When
// Membership is set it is created together with the approval.
type Resolution struct {
	Status     RequestStatus
	ResolvedBy string
	ResolvedAt time.Time
	Membership *Membership
}

type MembershipFilter struct {
	UserID string
	GymID  string
}

type RequestFilter struct {
	UserID string
	GymID  string
	Status RequestStatus
}

type AutoRenewRequest struct {
	AutoRenew *bool `json:"auto_renew" binding:"required"`
}

type CreateRequestRequest struct {
	GymCode string `json:"gym_code" binding:"required" example:"IRON2345"`
	Message string `json:"message" binding:"max=500" example:"I trained here last year"`
}

type ResolveRequestRequest struct {
	Decision RequestStatus `json:"decision" binding:"required" example:"APPROVED"`
	PlanID   string        `json:"plan_id,omitempty"`
}

type ListQuery struct {
	Status string `form:"status"`
}
