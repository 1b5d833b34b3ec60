package plan

import (
	"context"
	"strings"

	"gymhub/internal/access"
	"gymhub/internal/activity"
	"gymhub/internal/apperr"
	"gymhub/internal/clock"
	"gymhub/internal/gym"
	"gymhub/internal/logger"
	"gymhub/internal/validation"

	"github.com/google/uuid"
)

var ErrPlanNotFound = apperr.NotFound("plan not found")

// GymLookup is the part of the gym registry plans depend on.
type GymLookup interface {
	GetByID(ctx context.Context, id string) (*gym.Gym, error)
}

type Service interface {
	CreatePlan(ctx context.Context, identity access.Identity, gymID string, req CreatePlanRequest) (*Plan, error)
	UpdatePlan(ctx context.Context, identity access.Identity, planID string, req UpdatePlanRequest) (*Plan, error)
	SetActive(ctx context.Context, identity access.Identity, planID string, isActive bool) (*Plan, error)
	GetPlan(ctx context.Context, identity access.Identity, planID string) (*Plan, error)
	ListPlans(ctx context.Context, identity access.Identity, gymID string, includeInactive bool) ([]Plan, error)
}

type service struct {
	repo     Repository
	gyms     GymLookup
	recorder *activity.Recorder
	clock    clock.Clock
}

func NewService(repo Repository, gyms GymLookup, recorder *activity.Recorder, clk clock.Clock) Service {
	return &service{
		repo:     repo,
		gyms:     gyms,
		recorder: recorder,
		clock:    clk,
	}
}

func (s *service) CreatePlan(ctx context.Context, identity access.Identity, gymID string, req CreatePlanRequest) (*Plan, error) {
	g, err := s.gyms.GetByID(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(identity, access.ActionManagePlans, g.Target("")); err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Features = trimAll(req.Features)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if err := validation.Price(req.Price); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	p := &Plan{
		ID:           uuid.NewString(),
		GymID:        gymID,
		Name:         req.Name,
		Price:        req.Price,
		DurationDays: req.DurationDays,
		Features:     req.Features,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if p.Features == nil {
		p.Features = []string{}
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	logger.Info("plan created", "plan_id", p.ID, "gym_id", gymID, "price", p.Price.String(), "duration_days", p.DurationDays)
	s.recorder.Record(ctx, activity.ActionPlanCreated, identity.UserID, activity.TargetPlan, p.ID, gymID)
	return p, nil
}

// UpdatePlan changes future subscriptions only; issued memberships keep the
// terms they were sold with.
func (s *service) UpdatePlan(ctx context.Context, identity access.Identity, planID string, req UpdatePlanRequest) (*Plan, error) {
	p, err := s.authorizedPlan(ctx, identity, planID)
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
	req.Features = trimAll(req.Features)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Price != nil {
		if err := validation.Price(*req.Price); err != nil {
			return nil, err
		}
		p.Price = *req.Price
	}
	if req.DurationDays != nil {
		p.DurationDays = *req.DurationDays
	}
	if req.Features != nil {
		p.Features = req.Features
	}
	p.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, activity.ActionPlanUpdated, identity.UserID, activity.TargetPlan, p.ID, p.GymID)
	return p, nil
}

func (s *service) SetActive(ctx context.Context, identity access.Identity, planID string, isActive bool) (*Plan, error) {
	p, err := s.authorizedPlan(ctx, identity, planID)
	if err != nil {
		return nil, err
	}
	if p.IsActive == isActive {
		return p, nil
	}

	updated, err := s.repo.SetActive(ctx, planID, isActive, s.clock.Now())
	if err != nil {
		return nil, err
	}

	logger.Info("plan active flag changed", "plan_id", planID, "is_active", isActive)
	s.recorder.Record(ctx, activity.ActionPlanActiveChanged, identity.UserID, activity.TargetPlan, planID, p.GymID)
	return updated, nil
}

// GetPlan hides inactive plans from callers who cannot manage them.
func (s *service) GetPlan(ctx context.Context, identity access.Identity, planID string) (*Plan, error) {
	p, err := s.repo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p.IsActive {
		return p, nil
	}

	g, err := s.gyms.GetByID(ctx, p.GymID)
	if err != nil {
		return nil, err
	}
	if access.Authorize(identity, access.ActionViewGymRecords, g.Target("")) != nil {
		return nil, ErrPlanNotFound
	}
	return p, nil
}

func (s *service) ListPlans(ctx context.Context, identity access.Identity, gymID string, includeInactive bool) ([]Plan, error) {
	g, err := s.gyms.GetByID(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if includeInactive {
		if err := access.Authorize(identity, access.ActionViewGymRecords, g.Target("")); err != nil {
			return nil, err
		}
	}
	return s.repo.ListByGym(ctx, gymID, !includeInactive)
}

func (s *service) authorizedPlan(ctx context.Context, identity access.Identity, planID string) (*Plan, error) {
	p, err := s.repo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	g, err := s.gyms.GetByID(ctx, p.GymID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(identity, access.ActionManagePlans, g.Target("")); err != nil {
		return nil, err
	}
	return p, nil
}


func trimAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
