package activity

import "time"

type Action string

const (
	ActionGymRegistered     Action = "GYM_REGISTERED"
	ActionGymApproved       Action = "GYM_APPROVED"
	ActionGymRejected       Action = "GYM_REJECTED"
	ActionGymSuspended      Action = "GYM_SUSPENDED"
	ActionGymReactivated    Action = "GYM_REACTIVATED"
	ActionGymAdminAdded     Action = "GYM_ADMIN_ADDED"
	ActionPlanCreated       Action = "PLAN_CREATED"
	ActionPlanUpdated       Action = "PLAN_UPDATED"
	ActionPlanActiveChanged Action = "PLAN_ACTIVE_CHANGED"

	ActionMembershipSubscribed Action = "MEMBERSHIP_SUBSCRIBED"
	ActionMembershipRenewed    Action = "MEMBERSHIP_RENEWED"
	ActionMembershipCancelled  Action = "MEMBERSHIP_CANCELLED"
	ActionRequestCreated       Action = "MEMBERSHIP_REQUEST_CREATED"
	ActionRequestApproved      Action = "MEMBERSHIP_REQUEST_APPROVED"
	ActionRequestRejected      Action = "MEMBERSHIP_REQUEST_REJECTED"

	ActionClassCreated       Action = "CLASS_CREATED"
	ActionClassUpdated       Action = "CLASS_UPDATED"
	ActionClassActiveChanged Action = "CLASS_ACTIVE_CHANGED"
	ActionClassDeleted       Action = "CLASS_DELETED"
	ActionBookingCreated     Action = "BOOKING_CREATED"
	ActionBookingCancelled   Action = "BOOKING_CANCELLED"
)

type TargetType string

const (
	TargetGym               TargetType = "gym"
	TargetPlan              TargetType = "plan"
	TargetMembership        TargetType = "membership"
	TargetMembershipRequest TargetType = "membership_request"
	TargetClass             TargetType = "class"
	TargetBooking           TargetType = "booking"
)

// Record is one append-only entry of the platform activity log.
type Record struct {
	ID         string     `db:"id" json:"id"`
	Action     Action     `db:"action" json:"action"`
	ActorID    string     `db:"actor_id" json:"actor_id"`
	TargetType TargetType `db:"target_type" json:"target_type"`
	TargetID   string     `db:"target_id" json:"target_id"`
	GymID      string     `db:"gym_id" json:"gym_id,omitempty"`
	At         time.Time  `db:"at" json:"at"`
}

type Filter struct {
	GymID string `form:"gym_id"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

const (
	defaultLimit = 100
	maxLimit     = 500
)

func (f Filter) limit() int {
	switch {
	case f.Limit <= 0:
		return defaultLimit
	case f.Limit > maxLimit:
		return maxLimit
	}
	return f.Limit
}
