package gym

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"

	"gymhub/internal/access"
	"gymhub/internal/activity"
	"gymhub/internal/apperr"
	"gymhub/internal/clock"
	"gymhub/internal/logger"
	"gymhub/internal/metrics"
	"gymhub/internal/notify"

	"github.com/google/uuid"
)

var (
	ErrGymNotFound   = apperr.NotFound("gym not found")
	ErrGymCodeTaken  = apperr.Conflict("gym code already in use")
	ErrAlreadyAdmin  = apperr.Conflict("user is already an admin of this gym")
	ErrStatusChanged = apperr.StateTransition("gym status changed concurrently")
)

const (
	codeLength   = 8
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeAttempts = 5
)

type Service interface {
	Register(ctx context.Context, identity access.Identity, req RegisterGymRequest) (*Gym, error)
	Approve(ctx context.Context, identity access.Identity, gymID string) (*Gym, error)
	Reject(ctx context.Context, identity access.Identity, gymID string) (*Gym, error)
	Suspend(ctx context.Context, identity access.Identity, gymID string) (*Gym, error)
	Reactivate(ctx context.Context, identity access.Identity, gymID string) (*Gym, error)
	Get(ctx context.Context, identity access.Identity, gymID string) (*Gym, error)
	GetByCode(ctx context.Context, identity access.Identity, code string) (*Gym, error)
	List(ctx context.Context, identity access.Identity) ([]Gym, error)
	AddAdmin(ctx context.Context, identity access.Identity, gymID, userID string) (*Gym, error)
}

type Options struct {
	// ApprovalRequired keeps newly registered gyms PENDING until a platform
	// admin approves them. When false they start ACTIVE.
	ApprovalRequired bool
}

type service struct {
	repo     Repository
	recorder *activity.Recorder
	notifier notify.Notifier
	clock    clock.Clock
	opts     Options
}

func NewService(repo Repository, recorder *activity.Recorder, notifier notify.Notifier, clk clock.Clock, opts Options) Service {
	return &service{
		repo:     repo,
		recorder: recorder,
		notifier: notifier,
		clock:    clk,
		opts:     opts,
	}
}

func (s *service) Register(ctx context.Context, identity access.Identity, req RegisterGymRequest) (*Gym, error) {
	if err := access.Authorize(identity, access.ActionRegisterGym, access.Target{OwnerID: identity.UserID}); err != nil {
		return nil, err
	}

	status := StatusPending
	if !s.opts.ApprovalRequired {
		status = StatusActive
	}

	now := s.clock.Now()
	g := &Gym{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Location:  req.Location,
		Status:    status,
		AdminIDs:  []string{identity.UserID},
		CreatedAt: now,
		UpdatedAt: now,
	}

	var err error
	for attempt := 0; attempt < codeAttempts; attempt++ {
		if g.Code, err = generateCode(); err != nil {
			return nil, err
		}
		err = s.repo.Create(ctx, g)
		if !errors.Is(err, ErrGymCodeTaken) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	logger.Info("gym registered", "gym_id", g.ID, "status", g.Status, "owner_id", identity.UserID)
	s.recorder.Record(ctx, activity.ActionGymRegistered, identity.UserID, activity.TargetGym, g.ID, g.ID)
	return g, nil
}

func (s *service) Approve(ctx context.Context, identity access.Identity, gymID string) (*Gym, error) {
	return s.transition(ctx, identity, gymID, EventApprove, access.ActionApproveGym, activity.ActionGymApproved)
}

func (s *service) Reject(ctx context.Context, identity access.Identity, gymID string) (*Gym, error) {
	return s.transition(ctx, identity, gymID, EventReject, access.ActionRejectGym, activity.ActionGymRejected)
}

func (s *service) Suspend(ctx context.Context, identity access.Identity, gymID string) (*Gym, error) {
	return s.transition(ctx, identity, gymID, EventSuspend, access.ActionSuspendGym, activity.ActionGymSuspended)
}

func (s *service) Reactivate(ctx context.Context, identity access.Identity, gymID string) (*Gym, error) {
	return s.transition(ctx, identity, gymID, EventReactivate, access.ActionReactivateGym, activity.ActionGymReactivated)
}

func (s *service) transition(ctx context.Context, identity access.Identity, gymID string, event Event, action access.Action, recorded activity.Action) (*Gym, error) {
	if err := access.Authorize(identity, action, access.Target{GymID: gymID}); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, gymID)
	if err != nil {
		return nil, err
	}

	next, err := current.Status.Next(event)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, gymID, current.Status, next, s.clock.Now())
	if err != nil {
		return nil, err
	}

	logger.Info("gym status changed", "gym_id", gymID, "from", current.Status, "to", next, "actor_id", identity.UserID)
	metrics.RecordGymTransition(string(current.Status), string(next))
	s.recorder.Record(ctx, recorded, identity.UserID, activity.TargetGym, gymID, gymID)

	if owner := updated.OwnerID(); owner != "" {
		if err := s.notifier.Notify(ctx, notify.GymStatusChanged(owner, updated.ID, updated.Name, string(updated.Status))); err != nil {
			logger.Warn("gym status notification not queued", "gym_id", gymID, "error", err)
		}
	}

	return updated, nil
}

// Get hides gyms that are not ACTIVE from everyone but platform admins and
// the gym's own staff.
func (s *service) Get(ctx context.Context, identity access.Identity, gymID string) (*Gym, error) {
	g, err := s.repo.GetByID(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if !visible(identity, g) {
		return nil, ErrGymNotFound
	}
	return g, nil
}

func (s *service) GetByCode(ctx context.Context, identity access.Identity, code string) (*Gym, error) {
	g, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !visible(identity, g) {
		return nil, ErrGymNotFound
	}
	return g, nil
}

func (s *service) List(ctx context.Context, identity access.Identity) ([]Gym, error) {
	if identity.Role == access.RoleSuperAdmin {
		return s.repo.List(ctx, "")
	}
	return s.repo.List(ctx, StatusActive)
}

func (s *service) AddAdmin(ctx context.Context, identity access.Identity, gymID, userID string) (*Gym, error) {
	g, err := s.repo.GetByID(ctx, gymID)
	if err != nil {
		return nil, err
	}

	if err := access.Authorize(identity, access.ActionAddGymAdmin, g.Target("")); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, apperr.Validation("user_id is required")
	}

	updated, err := s.repo.AddAdmin(ctx, gymID, userID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, activity.ActionGymAdminAdded, identity.UserID, activity.TargetGym, gymID, gymID)
	return updated, nil
}

func visible(identity access.Identity, g *Gym) bool {
	if g.Status == StatusActive || identity.Role == access.RoleSuperAdmin {
		return true
	}
	return g.HasAdmin(identity.UserID) || (identity.GymID == g.ID && identity.Role != access.RoleMember)
}

func generateCode() (string, error) {
	size := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}
