package membership

import (
	"context"
	"time"

	"gymhub/internal/access"
	"gymhub/internal/activity"
	"gymhub/internal/apperr"
	"gymhub/internal/clock"
	"gymhub/internal/gym"
	"gymhub/internal/logger"
	"gymhub/internal/metrics"
	"gymhub/internal/notify"
	"gymhub/internal/plan"

	"github.com/google/uuid"
)

var (
	ErrMembershipNotFound     = apperr.NotFound("membership not found")
	ErrRequestNotFound        = apperr.NotFound("membership request not found")
	ErrActiveMembershipExists = apperr.Conflict("user already holds an active membership at this gym")
	ErrDuplicateRequest       = apperr.Conflict("a pending membership request for this gym already exists")
	ErrRequestNotPending      = apperr.StateTransition("membership request is already resolved")
	ErrPlanInactive           = apperr.Conflict("plan is not active")
	ErrGymNotActive           = apperr.Conflict("gym is not active")
	ErrPlanOtherGym           = apperr.Validation("plan does not belong to this gym")
)

type GymLookup interface {
	GetByID(ctx context.Context, id string) (*gym.Gym, error)
	GetByCode(ctx context.Context, code string) (*gym.Gym, error)
}

type PlanLookup interface {
	GetByID(ctx context.Context, id string) (*plan.Plan, error)
}

type Service interface {
	Subscribe(ctx context.Context, identity access.Identity, planID string) (*Membership, error)
	Renew(ctx context.Context, identity access.Identity, membershipID string) (*Membership, error)
	Cancel(ctx context.Context, identity access.Identity, membershipID string) (*Membership, error)
	SetAutoRenew(ctx context.Context, identity access.Identity, membershipID string, autoRenew bool) (*Membership, error)
	Get(ctx context.Context, identity access.Identity, membershipID string) (*Membership, error)
	ListMine(ctx context.Context, identity access.Identity) ([]Membership, error)
	ListByGym(ctx context.Context, identity access.Identity, gymID string, status Status) ([]Membership, error)

	RequestMembership(ctx context.Context, identity access.Identity, req CreateRequestRequest) (*Request, error)
	ResolveRequest(ctx context.Context, identity access.Identity, requestID string, req ResolveRequestRequest) (*Request, error)
	ListRequestsMine(ctx context.Context, identity access.Identity) ([]Request, error)
	ListRequestsByGym(ctx context.Context, identity access.Identity, gymID string, status RequestStatus) ([]Request, error)

	HasActiveMembership(ctx context.Context, userID, gymID string) (bool, error)
}

type service struct {
	repo     Repository
	gyms     GymLookup
	plans    PlanLookup
	recorder *activity.Recorder
	notifier notify.Notifier
	clock    clock.Clock
}

func NewService(repo Repository, gyms GymLookup, plans PlanLookup, recorder *activity.Recorder, notifier notify.Notifier, clk clock.Clock) Service {
	return &service{
		repo:     repo,
		gyms:     gyms,
		plans:    plans,
		recorder: recorder,
		notifier: notifier,
		clock:    clk,
	}
}

func newMembership(userID string, p *plan.Plan, now time.Time) *Membership {
	return &Membership{
		ID:     uuid.NewString(),
		UserID: userID,
		GymID:  p.GymID,
		PlanSnapshot: PlanSnapshot{
			PlanID:       p.ID,
			Name:         p.Name,
			Price:        p.Price,
			DurationDays: p.DurationDays,
		},
		Status:    StatusActive,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, p.DurationDays),
		AutoRenew: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func subscribable(g *gym.Gym, p *plan.Plan) error {
	if g.Status != gym.StatusActive {
		return ErrGymNotActive
	}
	if !p.IsActive {
		return ErrPlanInactive
	}
	return nil
}

func (s *service) Subscribe(ctx context.Context, identity access.Identity, planID string) (*Membership, error) {
	p, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	g, err := s.gyms.GetByID(ctx, p.GymID)
	if err != nil {
		return nil, err
	}

	if err := access.Authorize(identity, access.ActionSubscribe, g.Target(identity.UserID)); err != nil {
		return nil, err
	}
	if err := subscribable(g, p); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	m := newMembership(identity.UserID, p, now)
	if err := s.repo.CreateMembership(ctx, m, now); err != nil {
		return nil, err
	}

	logger.Info("membership created", "membership_id", m.ID, "user_id", m.UserID, "gym_id", m.GymID, "plan_id", p.ID)
	metrics.RecordMembership("subscribed")
	s.recorder.Record(ctx, activity.ActionMembershipSubscribed, identity.UserID, activity.TargetMembership, m.ID, m.GymID)
	s.notify(ctx, notify.MembershipStarted(m.UserID, m.ID, m.Name, m.EndDate))

	return m.Observe(now), nil
}

// Renew extends from the later of now and the current end date, using the
// duration captured at subscription time.
func (s *service) Renew(ctx context.Context, identity access.Identity, membershipID string) (*Membership, error) {
	if err := s.authorizeOn(ctx, identity, access.ActionRenewMembership, membershipID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	m, err := s.repo.UpdateMembership(ctx, membershipID, now, func(m *Membership) error {
		next, err := EffectiveStatus(m, now).Next(EventRenew)
		if err != nil {
			return err
		}

		base := m.EndDate
		if now.After(base) {
			base = now
		}
		m.EndDate = base.AddDate(0, 0, m.DurationDays)
		m.Status = next
		m.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("membership renewed", "membership_id", m.ID, "end_date", m.EndDate)
	metrics.RecordMembership("renewed")
	s.recorder.Record(ctx, activity.ActionMembershipRenewed, identity.UserID, activity.TargetMembership, m.ID, m.GymID)
	return m.Observe(now), nil
}

func (s *service) Cancel(ctx context.Context, identity access.Identity, membershipID string) (*Membership, error) {
	if err := s.authorizeOn(ctx, identity, access.ActionCancelMembership, membershipID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	m, err := s.repo.UpdateMembership(ctx, membershipID, now, func(m *Membership) error {
		next, err := EffectiveStatus(m, now).Next(EventCancel)
		if err != nil {
			return err
		}
		m.Status = next
		m.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("membership cancelled", "membership_id", m.ID, "actor_id", identity.UserID)
	metrics.RecordMembership("cancelled")
	s.recorder.Record(ctx, activity.ActionMembershipCancelled, identity.UserID, activity.TargetMembership, m.ID, m.GymID)
	s.notify(ctx, notify.MembershipCancelled(m.UserID, m.ID, m.Name))
	return m.Observe(now), nil
}

// SetAutoRenew records the member's intent only. Billing is handled
// elsewhere and nothing in this service renews automatically.
func (s *service) SetAutoRenew(ctx context.Context, identity access.Identity, membershipID string, autoRenew bool) (*Membership, error) {
	if err := s.authorizeOn(ctx, identity, access.ActionSetAutoRenew, membershipID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	m, err := s.repo.UpdateMembership(ctx, membershipID, now, func(m *Membership) error {
		if m.Status == StatusCancelled {
			return apperr.StateTransition("cannot change auto-renew on a cancelled membership")
		}
		if effective := EffectiveStatus(m, now); effective != m.Status {
			m.Status = effective
			m.UpdatedAt = now
		}
		if m.AutoRenew != autoRenew {
			m.AutoRenew = autoRenew
			m.UpdatedAt = now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m.Observe(now), nil
}

func (s *service) Get(ctx context.Context, identity access.Identity, membershipID string) (*Membership, error) {
	m, err := s.repo.GetMembership(ctx, membershipID)
	if err != nil {
		return nil, err
	}

	if access.Authorize(identity, access.ActionViewOwnRecords, access.Target{OwnerID: m.UserID}) != nil {
		g, err := s.gyms.GetByID(ctx, m.GymID)
		if err != nil {
			return nil, err
		}
		if err := access.Authorize(identity, access.ActionViewGymRecords, g.Target("")); err != nil {
			return nil, err
		}
	}
	return m.Observe(s.clock.Now()), nil
}

func (s *service) ListMine(ctx context.Context, identity access.Identity) ([]Membership, error) {
	ms, err := s.repo.ListMemberships(ctx, MembershipFilter{UserID: identity.UserID})
	if err != nil {
		return nil, err
	}
	return observeAll(ms, s.clock.Now()), nil
}

// ListByGym filters on effective status, so a lapsed membership is listed
// under EXPIRED before its row is corrected.
func (s *service) ListByGym(ctx context.Context, identity access.Identity, gymID string, status Status) ([]Membership, error) {
	g, err := s.gyms.GetByID(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(identity, access.ActionViewGymRecords, g.Target("")); err != nil {
		return nil, err
	}

	ms, err := s.repo.ListMemberships(ctx, MembershipFilter{GymID: gymID})
	if err != nil {
		return nil, err
	}
	ms = observeAll(ms, s.clock.Now())
	if status == "" {
		return ms, nil
	}

	out := make([]Membership, 0, len(ms))
	for _, m := range ms {
		if m.Status == status {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *service) RequestMembership(ctx context.Context, identity access.Identity, req CreateRequestRequest) (*Request, error) {
	g, err := s.gyms.GetByCode(ctx, req.GymCode)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(identity, access.ActionRequestMembership, g.Target(identity.UserID)); err != nil {
		return nil, err
	}
	if g.Status != gym.StatusActive {
		return nil, ErrGymNotActive
	}

	active, err := s.HasActiveMembership(ctx, identity.UserID, g.ID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrActiveMembershipExists
	}

	r := &Request{
		ID:          uuid.NewString(),
		UserID:      identity.UserID,
		GymID:       g.ID,
		GymCode:     g.Code,
		Message:     req.Message,
		Status:      RequestPending,
		RequestedAt: s.clock.Now(),
	}
	if err := s.repo.CreateRequest(ctx, r); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, activity.ActionRequestCreated, identity.UserID, activity.TargetMembershipRequest, r.ID, g.ID)
	return r, nil
}

func (s *service) ResolveRequest(ctx context.Context, identity access.Identity, requestID string, req ResolveRequestRequest) (*Request, error) {
	r, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	g, err := s.gyms.GetByID(ctx, r.GymID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(identity, access.ActionResolveRequest, g.Target("")); err != nil {
		return nil, err
	}

	if req.Decision != RequestApproved && req.Decision != RequestRejected {
		return nil, apperr.Validation("decision must be APPROVED or REJECTED")
	}
	if req.Decision == RequestRejected && req.PlanID != "" {
		return nil, apperr.Validation("plan_id is only accepted with an APPROVED decision")
	}
	if r.Status != RequestPending {
		return nil, ErrRequestNotPending
	}

	now := s.clock.Now()
	res := Resolution{Status: req.Decision, ResolvedBy: identity.UserID, ResolvedAt: now}

	if req.PlanID != "" {
		p, err := s.plans.GetByID(ctx, req.PlanID)
		if err != nil {
			return nil, err
		}
		if p.GymID != g.ID {
			return nil, ErrPlanOtherGym
		}
		if err := subscribable(g, p); err != nil {
			return nil, err
		}
		res.Membership = newMembership(r.UserID, p, now)
	}

	resolved, err := s.repo.ResolveRequest(ctx, requestID, res)
	if err != nil {
		return nil, err
	}

	logger.Info("membership request resolved", "request_id", requestID, "decision", req.Decision, "with_membership", res.Membership != nil)
	recorded := activity.ActionRequestApproved
	if req.Decision == RequestRejected {
		recorded = activity.ActionRequestRejected
	}
	s.recorder.Record(ctx, recorded, identity.UserID, activity.TargetMembershipRequest, requestID, g.ID)

	if res.Membership != nil {
		metrics.RecordMembership("subscribed")
		s.recorder.Record(ctx, activity.ActionMembershipSubscribed, identity.UserID, activity.TargetMembership, res.Membership.ID, g.ID)
	}
	s.notify(ctx, notify.RequestResolved(r.UserID, requestID, g.Name, string(req.Decision)))

	return resolved, nil
}

func (s *service) ListRequestsMine(ctx context.Context, identity access.Identity) ([]Request, error) {
	return s.repo.ListRequests(ctx, RequestFilter{UserID: identity.UserID})
}

func (s *service) ListRequestsByGym(ctx context.Context, identity access.Identity, gymID string, status RequestStatus) ([]Request, error) {
	g, err := s.gyms.GetByID(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(identity, access.ActionViewGymRecords, g.Target("")); err != nil {
		return nil, err
	}
	return s.repo.ListRequests(ctx, RequestFilter{GymID: gymID, Status: status})
}

func (s *service) HasActiveMembership(ctx context.Context, userID, gymID string) (bool, error) {
	ms, err := s.repo.ListMemberships(ctx, MembershipFilter{UserID: userID, GymID: gymID})
	if err != nil {
		return false, err
	}
	now := s.clock.Now()
	for i := range ms {
		if EffectiveStatus(&ms[i], now) == StatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) authorizeOn(ctx context.Context, identity access.Identity, action access.Action, membershipID string) error {
	m, err := s.repo.GetMembership(ctx, membershipID)
	if err != nil {
		return err
	}
	g, err := s.gyms.GetByID(ctx, m.GymID)
	if err != nil {
		return err
	}
	return access.Authorize(identity, action, g.Target(m.UserID))
}

func (s *service) notify(ctx context.Context, n notify.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		logger.Warn("notification not queued", "kind", n.Kind, "user_id", n.UserID, "error", err)
	}
}
