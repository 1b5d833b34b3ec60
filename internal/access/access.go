// Package access decides whether an identity may perform an action against a
// gym-scoped target. It holds no state; callers load the target first and
// call Authorize before validating any state transition.
package access

import "gymhub/internal/apperr"

type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleGymAdmin   Role = "GYM_ADMIN"
	RoleTrainer    Role = "TRAINER"
	RoleMember     Role = "MEMBER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleGymAdmin, RoleTrainer, RoleMember:
		return true
	}
	return false
}

// Identity is the authenticated principal attached to every call.
type Identity struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	GymID  string `json:"gym_id,omitempty"`
}

type Action string

const (
	ActionRegisterGym   Action = "gym.register"
	ActionApproveGym    Action = "gym.approve"
	ActionRejectGym     Action = "gym.reject"
	ActionSuspendGym    Action = "gym.suspend"
	ActionReactivateGym Action = "gym.reactivate"
	ActionViewActivity  Action = "activity.view"

	ActionAddGymAdmin    Action = "gym.add_admin"
	ActionManagePlans    Action = "plan.manage"
	ActionManageClasses  Action = "class.manage"
	ActionResolveRequest Action = "membership_request.resolve"

	ActionSubscribe         Action = "membership.subscribe"
	ActionRenewMembership   Action = "membership.renew"
	ActionSetAutoRenew      Action = "membership.auto_renew"
	ActionRequestMembership Action = "membership_request.create"
	ActionBookClass         Action = "booking.create"

	ActionCancelMembership Action = "membership.cancel"
	ActionCancelBooking    Action = "booking.cancel"

	ActionViewGymRecords Action = "gym.view_records"
	ActionViewOwnRecords Action = "user.view_records"
)

type scope int

const (
	scopeRegistry scope = iota
	scopeRegister
	scopeTenant
	scopeOwner
	scopeOwnerOrTenant
	scopeTenantRead
	scopeOwnerRead
)

var actionScopes = map[Action]scope{
	ActionApproveGym:    scopeRegistry,
	ActionRejectGym:     scopeRegistry,
	ActionSuspendGym:    scopeRegistry,
	ActionReactivateGym: scopeRegistry,
	ActionViewActivity:  scopeRegistry,

	ActionRegisterGym: scopeRegister,

	ActionAddGymAdmin:    scopeTenant,
	ActionManagePlans:    scopeTenant,
	ActionManageClasses:  scopeTenant,
	ActionResolveRequest: scopeTenant,

	ActionSubscribe:         scopeOwner,
	ActionRenewMembership:   scopeOwner,
	ActionSetAutoRenew:      scopeOwner,
	ActionRequestMembership: scopeOwner,
	ActionBookClass:         scopeOwner,

	ActionCancelMembership: scopeOwnerOrTenant,
	ActionCancelBooking:    scopeOwnerOrTenant,

	ActionViewGymRecords: scopeTenantRead,
	ActionViewOwnRecords: scopeOwnerRead,
}

// Target describes the entity an action is aimed at. GymFrozen is true when
// the owning gym is SUSPENDED or REJECTED; OwnerID is the user owning a
// membership, request or booking (or the acting user for creations).
type Target struct {
	GymID     string
	GymFrozen bool
	OwnerID   string
}

// Authorize returns nil when identity may perform action on target and an
// AuthorizationError otherwise.
func Authorize(identity Identity, action Action, target Target) error {
	if identity.UserID == "" || !identity.Role.Valid() {
		return apperr.Authorization("unauthenticated identity")
	}

	sc, ok := actionScopes[action]
	if !ok {
		return apperr.Authorization("unknown action %q", action)
	}

	var allowed bool
	switch sc {
	case scopeRegistry:
		allowed = identity.Role == RoleSuperAdmin
	case scopeRegister:
		allowed = identity.Role == RoleGymAdmin || identity.Role == RoleMember
	case scopeTenant:
		allowed = isTenantAdmin(identity, target)
	case scopeOwner:
		allowed = isOwner(identity, target)
	case scopeOwnerOrTenant:
		allowed = isOwner(identity, target) || isTenantAdmin(identity, target)
	case scopeTenantRead:
		allowed = identity.Role == RoleSuperAdmin ||
			((identity.Role == RoleGymAdmin || identity.Role == RoleTrainer) && sameGym(identity, target))
	case scopeOwnerRead:
		allowed = identity.Role == RoleSuperAdmin || identity.UserID == target.OwnerID
	}

	if !allowed {
		return apperr.Authorization("%s is not allowed to perform %s", identity.Role, action)
	}

	if target.GymFrozen && mutates(sc) {
		return apperr.Authorization("gym %s is suspended or rejected; %s is not allowed", target.GymID, action)
	}

	return nil
}

func mutates(sc scope) bool {
	switch sc {
	case scopeTenant, scopeOwner, scopeOwnerOrTenant:
		return true
	}
	return false
}

func sameGym(identity Identity, target Target) bool {
	return identity.GymID != "" && identity.GymID == target.GymID
}

func isTenantAdmin(identity Identity, target Target) bool {
	return identity.Role == RoleGymAdmin && sameGym(identity, target)
}

func isOwner(identity Identity, target Target) bool {
	return identity.Role != RoleSuperAdmin && target.OwnerID != "" && identity.UserID == target.OwnerID
}
