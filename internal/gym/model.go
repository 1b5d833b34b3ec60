package gym

import (
	"time"

	"gymhub/internal/access"
	"gymhub/internal/apperr"

	"github.com/lib/pq"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusRejected  Status = "REJECTED"
)

// Frozen gyms accept no mutations on anything they own.
func (s Status) Frozen() bool {
	return s == StatusSuspended || s == StatusRejected
}

type Event string

const (
	EventApprove    Event = "approve"
	EventReject     Event = "reject"
	EventSuspend    Event = "suspend"
	EventReactivate Event = "reactivate"
)

type transition struct {
	from Status
	to   Status
}

// REJECTED is terminal.
var transitions = map[Event]transition{
	EventApprove:    {from: StatusPending, to: StatusActive},
	EventReject:     {from: StatusPending, to: StatusRejected},
	EventSuspend:    {from: StatusActive, to: StatusSuspended},
	EventReactivate: {from: StatusSuspended, to: StatusActive},
}

// Next returns the status reached by applying e to s.
func (s Status) Next(e Event) (Status, error) {
	t, ok := transitions[e]
	if !ok {
		return "", apperr.StateTransition("unknown gym event %q", e)
	}
	if t.from != s {
		return "", apperr.StateTransition("cannot %s a gym that is %s", e, s)
	}
	return t.to, nil
}

type Gym struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Location  string         `db:"location" json:"location"`
	Code      string         `db:"gym_code" json:"gym_code"`
	Status    Status         `db:"status" json:"status"`
	AdminIDs  pq.StringArray `db:"admin_ids" json:"admin_ids" swaggertype:"array,string"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// OwnerID is the admin who registered the gym.
func (g *Gym) OwnerID() string {
	if len(g.AdminIDs) == 0 {
		return ""
	}
	return g.AdminIDs[0]
}

func (g *Gym) HasAdmin(userID string) bool {
	for _, id := range g.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Target builds the authorization target for an action on something this
// gym owns. ownerID is the user owning the entity, if any.
func (g *Gym) Target(ownerID string) access.Target {
	return access.Target{GymID: g.ID, GymFrozen: g.Status.Frozen(), OwnerID: ownerID}
}

type RegisterGymRequest struct {
	Name     string `json:"name" binding:"required,max=120" example:"Iron Temple"`
	Location string `json:"location" binding:"required,max=200" example:"12 Harbour St"`
}

type AddAdminRequest struct {
	UserID string `json:"user_id" binding:"required" example:"2f1c0d9e-8c1b-4e3a-9a55-3c1d7b0b9f10"`
}
