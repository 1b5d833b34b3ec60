package plan

import (
	"context"
	"testing"
	"time"

	"gymhub/internal/access"
	"gymhub/internal/activity"
	"gymhub/internal/apperr"
	"gymhub/internal/clock"
	"gymhub/internal/gym"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now    = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	admin  = access.Identity{UserID: "owner", Role: access.RoleGymAdmin, GymID: "g-1"}
	member = access.Identity{UserID: "m-1", Role: access.RoleMember}
)

type fixture struct {
	svc      Service
	repo     Repository
	gyms     gym.Repository
	activity activity.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.NewFake(now)
	gyms := gym.NewMemoryRepository()
	require.NoError(t, gyms.Create(context.Background(), &gym.Gym{
		ID: "g-1", Name: "Iron Temple", Code: "IRON2345", Status: gym.StatusActive, AdminIDs: []string{"owner"},
	}))
	require.NoError(t, gyms.Create(context.Background(), &gym.Gym{
		ID: "g-2", Name: "Other", Code: "OTHR2345", Status: gym.StatusActive, AdminIDs: []string{"other"},
	}))

	repo := NewMemoryRepository()
	activityRepo := activity.NewMemoryRepository()
	return &fixture{
		svc:      NewService(repo, gyms, activity.NewRecorder(activityRepo, nil, clk), clk),
		repo:     repo,
		gyms:     gyms,
		activity: activityRepo,
	}
}

func goldPlan() CreatePlanRequest {
	return CreatePlanRequest{
		Name:         "Gold",
		Price:        decimal.RequireFromString("29.99"),
		DurationDays: 30,
		Features:     []string{"sauna", "classes"},
	}
}

func TestService_CreatePlan(t *testing.T) {
	ctx := context.Background()

	t.Run("creates active plan", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.svc.CreatePlan(ctx, admin, "g-1", goldPlan())
		require.NoError(t, err)

		assert.True(t, p.IsActive)
		assert.Equal(t, "g-1", p.GymID)
		assert.True(t, p.Price.Equal(decimal.RequireFromString("29.99")))
		assert.Equal(t, now, p.CreatedAt)
	})

	t.Run("free plan with no features", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.svc.CreatePlan(ctx, admin, "g-1", CreatePlanRequest{Name: "Trial", Price: decimal.Zero, DurationDays: 7})
		require.NoError(t, err)
		assert.NotNil(t, p.Features)
	})

	invalid := []struct {
		name   string
		mutate func(*CreatePlanRequest)
	}{
		{"negative price", func(r *CreatePlanRequest) { r.Price = decimal.RequireFromString("-1") }},
		{"sub-cent price", func(r *CreatePlanRequest) { r.Price = decimal.RequireFromString("9.999") }},
		{"zero duration", func(r *CreatePlanRequest) { r.DurationDays = 0 }},
		{"blank name", func(r *CreatePlanRequest) { r.Name = "   " }},
		{"blank feature", func(r *CreatePlanRequest) { r.Features = []string{"sauna", " "} }},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := goldPlan()
			tt.mutate(&req)

			_, err := f.svc.CreatePlan(ctx, admin, "g-1", req)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation), "got %v", err)
		})
	}

	t.Run("authorization before validation", func(t *testing.T) {
		f := newFixture(t)
		req := goldPlan()
		req.DurationDays = 0

		_, err := f.svc.CreatePlan(ctx, member, "g-1", req)
		assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))

		_, err = f.svc.CreatePlan(ctx, admin, "g-2", goldPlan())
		assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
	})

	t.Run("frozen gym", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.gyms.UpdateStatus(ctx, "g-1", gym.StatusActive, gym.StatusSuspended, now)
		require.NoError(t, err)

		_, err = f.svc.CreatePlan(ctx, admin, "g-1", goldPlan())
		assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
	})

	t.Run("unknown gym", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreatePlan(ctx, admin, "nope", goldPlan())
		assert.ErrorIs(t, err, gym.ErrGymNotFound)
	})
}

func TestService_SetActiveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.svc.CreatePlan(ctx, admin, "g-1", goldPlan())
	require.NoError(t, err)

	first, err := f.svc.SetActive(ctx, admin, p.ID, false)
	require.NoError(t, err)
	second, err := f.svc.SetActive(ctx, admin, p.ID, false)
	require.NoError(t, err)

	assert.False(t, first.IsActive)
	assert.Equal(t, first, second)

	records, err := f.activity.List(ctx, activity.Filter{})
	require.NoError(t, err)
	assert.Len(t, records, 2, "create plus one flag change")

	_, err = f.svc.SetActive(ctx, member, p.ID, true)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))

	_, err = f.svc.SetActive(ctx, admin, "missing", true)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestService_UpdatePlan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.svc.CreatePlan(ctx, admin, "g-1", goldPlan())
	require.NoError(t, err)

	price := decimal.RequireFromString("39.99")
	days := 60
	updated, err := f.svc.UpdatePlan(ctx, admin, p.ID, UpdatePlanRequest{Price: &price, DurationDays: &days})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(price))
	assert.Equal(t, 60, updated.DurationDays)
	assert.Equal(t, "Gold", updated.Name)

	stored, err := f.repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, stored.DurationDays)

	empty := " "
	_, err = f.svc.UpdatePlan(ctx, admin, p.ID, UpdatePlanRequest{Name: &empty})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	negative := decimal.RequireFromString("-5")
	_, err = f.svc.UpdatePlan(ctx, admin, p.ID, UpdatePlanRequest{Price: &negative})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestService_Reads(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	active, err := f.svc.CreatePlan(ctx, admin, "g-1", goldPlan())
	require.NoError(t, err)
	hidden, err := f.svc.CreatePlan(ctx, admin, "g-1", CreatePlanRequest{Name: "Legacy", Price: decimal.NewFromInt(10), DurationDays: 30})
	require.NoError(t, err)
	_, err = f.svc.SetActive(ctx, admin, hidden.ID, false)
	require.NoError(t, err)

	plans, err := f.svc.ListPlans(ctx, member, "g-1", false)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, active.ID, plans[0].ID)

	_, err = f.svc.ListPlans(ctx, member, "g-1", true)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))

	plans, err = f.svc.ListPlans(ctx, admin, "g-1", true)
	require.NoError(t, err)
	assert.Len(t, plans, 2)

	_, err = f.svc.GetPlan(ctx, member, hidden.ID)
	assert.ErrorIs(t, err, ErrPlanNotFound)

	got, err := f.svc.GetPlan(ctx, admin, hidden.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}
