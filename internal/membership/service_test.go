package membership

import (
	"context"
	"sync"
	"testing"
	"time"

	"gymhub/internal/access"
	"gymhub/internal/activity"
	"gymhub/internal/apperr"
	"gymhub/internal/clock"
	"gymhub/internal/gym"
	"gymhub/internal/notify"
	"gymhub/internal/plan"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, n notify.Notification) error {
	return m.Called(ctx, n).Error(0)
}

var (
	now        = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	member     = access.Identity{UserID: "m-1", Role: access.RoleMember}
	stranger   = access.Identity{UserID: "m-2", Role: access.RoleMember}
	admin      = access.Identity{UserID: "owner", Role: access.RoleGymAdmin, GymID: "g-1"}
	otherAdmin = access.Identity{UserID: "other", Role: access.RoleGymAdmin, GymID: "g-2"}
	trainer    = access.Identity{UserID: "t-1", Role: access.RoleTrainer, GymID: "g-1"}
	root       = access.Identity{UserID: "root", Role: access.RoleSuperAdmin}
)

type fixture struct {
	svc      Service
	repo     Repository
	plans    plan.Repository
	activity activity.Repository
	clock    *clock.Fake
}

func newFixture(t *testing.T, notifier notify.Notifier) *fixture {
	t.Helper()
	if notifier == nil {
		notifier = notify.Discard{}
	}
	ctx := context.Background()
	clk := clock.NewFake(now)

	gyms := gym.NewMemoryRepository()
	for _, g := range []*gym.Gym{
		{ID: "g-1", Name: "Iron Temple", Code: "IRON2345", Status: gym.StatusActive, AdminIDs: []string{"owner"}},
		{ID: "g-2", Name: "Other", Code: "OTHR2345", Status: gym.StatusActive, AdminIDs: []string{"other"}},
		{ID: "g-3", Name: "Frozen", Code: "FRZN2345", Status: gym.StatusSuspended, AdminIDs: []string{"frozen"}},
		{ID: "g-4", Name: "Newcomer", Code: "NEWC2345", Status: gym.StatusPending, AdminIDs: []string{"new"}},
	} {
		require.NoError(t, gyms.Create(ctx, g))
	}

	plans := plan.NewMemoryRepository()
	for _, p := range []*plan.Plan{
		{ID: "p-gold", GymID: "g-1", Name: "Gold", Price: decimal.RequireFromString("29.99"), DurationDays: 30, IsActive: true},
		{ID: "p-off", GymID: "g-1", Name: "Retired", Price: decimal.RequireFromString("10"), DurationDays: 30, IsActive: false},
		{ID: "p-other", GymID: "g-2", Name: "Basic", Price: decimal.RequireFromString("5"), DurationDays: 7, IsActive: true},
		{ID: "p-frozen", GymID: "g-3", Name: "Basic", Price: decimal.RequireFromString("5"), DurationDays: 7, IsActive: true},
	} {
		require.NoError(t, plans.Create(ctx, p))
	}

	repo := NewMemoryRepository()
	activityRepo := activity.NewMemoryRepository()
	return &fixture{
		svc:      NewService(repo, gyms, plans, activity.NewRecorder(activityRepo, nil, clk), notifier, clk),
		repo:     repo,
		plans:    plans,
		activity: activityRepo,
		clock:    clk,
	}
}

func (f *fixture) subscribe(t *testing.T, identity access.Identity, planID string) *Membership {
	t.Helper()
	m, err := f.svc.Subscribe(context.Background(), identity, planID)
	require.NoError(t, err)
	return m
}

func (f *fixture) request(t *testing.T, identity access.Identity, code string) *Request {
	t.Helper()
	r, err := f.svc.RequestMembership(context.Background(), identity, CreateRequestRequest{GymCode: code})
	require.NoError(t, err)
	return r
}

func TestService_Subscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots plan terms", func(t *testing.T) {
		f := newFixture(t, nil)
		m := f.subscribe(t, member, "p-gold")

		assert.Equal(t, StatusActive, m.Status)
		assert.Equal(t, "g-1", m.GymID)
		assert.Equal(t, now, m.StartDate)
		assert.Equal(t, now.AddDate(0, 0, 30), m.EndDate)
		assert.Equal(t, 30, m.DaysRemaining)
		assert.False(t, m.AutoRenew)
		assert.Equal(t, "Gold", m.Name)
		assert.True(t, m.Price.Equal(decimal.RequireFromString("29.99")))

		p, err := f.plans.GetByID(ctx, "p-gold")
		require.NoError(t, err)
		p.Name = "Platinum"
		p.Price = decimal.RequireFromString("99")
		p.DurationDays = 90
		require.NoError(t, f.plans.Update(ctx, p))

		got, err := f.svc.Get(ctx, member, m.ID)
		require.NoError(t, err)
		assert.Equal(t, "Gold", got.Name)
		assert.Equal(t, 30, got.DurationDays)
		assert.True(t, got.Price.Equal(decimal.RequireFromString("29.99")))

		recs, err := f.activity.List(ctx, activity.Filter{GymID: "g-1"})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, activity.ActionMembershipSubscribed, recs[0].Action)
	})

	t.Run("second active membership at same gym conflicts", func(t *testing.T) {
		f := newFixture(t, nil)
		f.subscribe(t, member, "p-gold")

		_, err := f.svc.Subscribe(ctx, member, "p-gold")
		assert.ErrorIs(t, err, ErrActiveMembershipExists)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))

		f.subscribe(t, member, "p-other")
	})

	t.Run("lapsed membership does not block", func(t *testing.T) {
		f := newFixture(t, nil)
		old := f.subscribe(t, member, "p-gold")

		f.clock.Advance(31 * 24 * time.Hour)
		fresh := f.subscribe(t, member, "p-gold")
		assert.Equal(t, StatusActive, fresh.Status)

		got, err := f.repo.GetMembership(ctx, old.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusExpired, got.Status)
	})

	t.Run("inactive plan", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.Subscribe(ctx, member, "p-off")
		assert.ErrorIs(t, err, ErrPlanInactive)
	})

	t.Run("frozen gym", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.Subscribe(ctx, member, "p-frozen")
		assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
	})

	t.Run("super admin cannot subscribe", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.Subscribe(ctx, root, "p-gold")
		assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
	})

	t.Run("unknown plan", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.Subscribe(ctx, member, "missing")
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}

func TestService_SubscribeConcurrent(t *testing.T) {
	f := newFixture(t, nil)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Subscribe(context.Background(), member, "p-gold")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if apperr.IsKind(err, apperr.KindConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 19, conflicts)
}

func TestService_Renew(t *testing.T) {
	ctx := context.Background()

	t.Run("extends from current end date", func(t *testing.T) {
		f := newFixture(t, nil)
		m := f.subscribe(t, member, "p-gold")

		f.clock.Advance(10 * 24 * time.Hour)
		renewed, err := f.svc.Renew(ctx, member, m.ID)
		require.NoError(t, err)
		assert.Equal(t, now.AddDate(0, 0, 60), renewed.EndDate)
		assert.Equal(t, 50, renewed.DaysRemaining)
	})

	t.Run("expired restarts from now", func(t *testing.T) {
		f := newFixture(t, nil)
		m := f.subscribe(t, member, "p-gold")

		f.clock.Advance(40 * 24 * time.Hour)
		renewed, err := f.svc.Renew(ctx, member, m.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, renewed.Status)
		assert.Equal(t, f.clock.Now().AddDate(0, 0, 30), renewed.EndDate)
	})

	t.Run("cancelled cannot renew", func(t *testing.T) {
		f := newFixture(t, nil)
		m := f.subscribe(t, member, "p-gold")
		_, err := f.svc.Cancel(ctx, member, m.ID)
		require.NoError(t, err)

		_, err = f.svc.Renew(ctx, member, m.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindStateTransition))
	})

	t.Run("expired renew conflicts with newer membership", func(t *testing.T) {
		f := newFixture(t, nil)
		old := f.subscribe(t, member, "p-gold")
		f.clock.Advance(40 * 24 * time.Hour)
		f.subscribe(t, member, "p-gold")

		_, err := f.svc.Renew(ctx, member, old.ID)
		assert.ErrorIs(t, err, ErrActiveMembershipExists)
	})

	t.Run("expired renew succeeds once newer membership lapsed too", func(t *testing.T) {
		f := newFixture(t, nil)
		first := f.subscribe(t, member, "p-gold")
		f.clock.Advance(31 * 24 * time.Hour)
		second := f.subscribe(t, member, "p-gold")
		f.clock.Advance(31 * 24 * time.Hour)

		ok, err := f.svc.HasActiveMembership(ctx, "m-1", "g-1")
		require.NoError(t, err)
		require.False(t, ok)

		renewed, err := f.svc.Renew(ctx, member, first.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, renewed.Status)
		assert.Equal(t, f.clock.Now().AddDate(0, 0, 30), renewed.EndDate)

		stored, err := f.repo.GetMembership(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusExpired, stored.Status)

		ok, err = f.svc.HasActiveMembership(ctx, "m-1", "g-1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("only the holder renews", func(t *testing.T) {
		f := newFixture(t, nil)
		m := f.subscribe(t, member, "p-gold")

		_, err := f.svc.Renew(ctx, stranger, m.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
		_, err = f.svc.Renew(ctx, admin, m.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
	})
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("holder cancels", func(t *testing.T) {
		notifier := new(mockNotifier)
		notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n notify.Notification) bool {
			return n.Kind == notify.KindMembershipStarted
		})).Return(nil)
		notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n notify.Notification) bool {
			return n.Kind == notify.KindMembershipCancelled && n.UserID == "m-1"
		})).Return(nil).Once()

		f := newFixture(t, notifier)
		m := f.subscribe(t, member, "p-gold")

		cancelled, err := f.svc.Cancel(ctx, member, m.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)
		assert.Equal(t, 0, cancelled.DaysRemaining)
		notifier.AssertExpectations(t)

		_, err = f.svc.Cancel(ctx, member, m.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindStateTransition))
	})

	t.Run("gym admin cancels on behalf", func(t *testing.T) {
		f := newFixture(t, nil)
		m := f.subscribe(t, member, "p-gold")

		_, err := f.svc.Cancel(ctx, otherAdmin, m.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))

		_, err = f.svc.Cancel(ctx, admin, m.ID)
		require.NoError(t, err)
	})

	t.Run("lapsed membership cannot be cancelled", func(t *testing.T) {
		f := newFixture(t, nil)
		m := f.subscribe(t, member, "p-gold")
		f.clock.Advance(31 * 24 * time.Hour)

		_, err := f.svc.Cancel(ctx, member, m.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindStateTransition))
	})

	t.Run("notification failure does not fail cancel", func(t *testing.T) {
		notifier := new(mockNotifier)
		notifier.On("Notify", mock.Anything, mock.Anything).Return(assert.AnError)

		f := newFixture(t, notifier)
		m := f.subscribe(t, member, "p-gold")
		_, err := f.svc.Cancel(ctx, member, m.ID)
		require.NoError(t, err)
	})
}

func TestService_SetAutoRenew(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	m := f.subscribe(t, member, "p-gold")

	got, err := f.svc.SetAutoRenew(ctx, member, m.ID, true)
	require.NoError(t, err)
	assert.True(t, got.AutoRenew)
	assert.Equal(t, m.EndDate, got.EndDate)

	_, err = f.svc.SetAutoRenew(ctx, stranger, m.ID, false)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))

	_, err = f.svc.Cancel(ctx, member, m.ID)
	require.NoError(t, err)
	_, err = f.svc.SetAutoRenew(ctx, member, m.ID, false)
	assert.True(t, apperr.IsKind(err, apperr.KindStateTransition))
}

func TestService_SetAutoRenewPersistsExpiry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	m := f.subscribe(t, member, "p-gold")
	f.clock.Advance(31 * 24 * time.Hour)

	got, err := f.svc.SetAutoRenew(ctx, member, m.ID, true)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)
	assert.True(t, got.AutoRenew)

	stored, err := f.repo.GetMembership(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, stored.Status)
	assert.Equal(t, f.clock.Now(), stored.UpdatedAt)
	assert.True(t, stored.AutoRenew)
}

func TestService_Visibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	m := f.subscribe(t, member, "p-gold")

	for _, identity := range []access.Identity{member, admin, trainer, root} {
		_, err := f.svc.Get(ctx, identity, m.ID)
		assert.NoError(t, err, identity.UserID)
	}
	for _, identity := range []access.Identity{stranger, otherAdmin} {
		_, err := f.svc.Get(ctx, identity, m.ID)
		assert.True(t, apperr.IsKind(err, apperr.KindAuthorization), identity.UserID)
	}

	_, err := f.svc.ListByGym(ctx, member, "g-1", "")
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))

	mine, err := f.svc.ListMine(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestService_ListByGymUsesEffectiveStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.subscribe(t, member, "p-gold")
	f.clock.Advance(20 * 24 * time.Hour)
	f.subscribe(t, stranger, "p-gold")
	f.clock.Advance(15 * 24 * time.Hour)

	expired, err := f.svc.ListByGym(ctx, admin, "g-1", StatusExpired)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "m-1", expired[0].UserID)

	active, err := f.svc.ListByGym(ctx, trainer, "g-1", StatusActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "m-2", active[0].UserID)
	assert.Equal(t, 15, active[0].DaysRemaining)

	ok, err := f.svc.HasActiveMembership(ctx, "m-1", "g-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_RequestMembership(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending request", func(t *testing.T) {
		f := newFixture(t, nil)
		r := f.request(t, member, "IRON2345")
		assert.Equal(t, RequestPending, r.Status)
		assert.Equal(t, "g-1", r.GymID)
		assert.Equal(t, now, r.RequestedAt)

		_, err := f.svc.RequestMembership(ctx, member, CreateRequestRequest{GymCode: "IRON2345"})
		assert.ErrorIs(t, err, ErrDuplicateRequest)

		mine, err := f.svc.ListRequestsMine(ctx, member)
		require.NoError(t, err)
		assert.Len(t, mine, 1)
	})

	tests := []struct {
		name     string
		identity access.Identity
		code     string
		kind     apperr.Kind
	}{
		{"unknown code", member, "NOPE2345", apperr.KindNotFound},
		{"suspended gym", member, "FRZN2345", apperr.KindAuthorization},
		{"pending gym", member, "NEWC2345", apperr.KindConflict},
		{"super admin", root, "IRON2345", apperr.KindAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			_, err := f.svc.RequestMembership(ctx, tt.identity, CreateRequestRequest{GymCode: tt.code})
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, tt.kind), "%v", err)
		})
	}

	t.Run("existing member", func(t *testing.T) {
		f := newFixture(t, nil)
		f.subscribe(t, member, "p-gold")
		_, err := f.svc.RequestMembership(ctx, member, CreateRequestRequest{GymCode: "IRON2345"})
		assert.ErrorIs(t, err, ErrActiveMembershipExists)
	})
}

func TestService_ResolveRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("approve with plan creates membership", func(t *testing.T) {
		f := newFixture(t, nil)
		r := f.request(t, member, "IRON2345")
		f.clock.Advance(time.Hour)

		resolved, err := f.svc.ResolveRequest(ctx, admin, r.ID, ResolveRequestRequest{Decision: RequestApproved, PlanID: "p-gold"})
		require.NoError(t, err)
		assert.Equal(t, RequestApproved, resolved.Status)
		require.NotNil(t, resolved.ResolvedBy)
		assert.Equal(t, "owner", *resolved.ResolvedBy)
		require.NotNil(t, resolved.MembershipID)

		m, err := f.svc.Get(ctx, member, *resolved.MembershipID)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, m.Status)
		assert.Equal(t, "m-1", m.UserID)
		assert.Equal(t, now.Add(time.Hour), m.StartDate)

		_, err = f.svc.ResolveRequest(ctx, admin, r.ID, ResolveRequestRequest{Decision: RequestRejected})
		assert.ErrorIs(t, err, ErrRequestNotPending)
		assert.True(t, apperr.IsKind(err, apperr.KindStateTransition))
	})

	t.Run("reject notifies requester", func(t *testing.T) {
		notifier := new(mockNotifier)
		notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n notify.Notification) bool {
			return n.Kind == notify.KindRequestResolved && n.UserID == "m-1" && n.Data["decision"] == "REJECTED"
		})).Return(nil).Once()

		f := newFixture(t, notifier)
		r := f.request(t, member, "IRON2345")

		resolved, err := f.svc.ResolveRequest(ctx, admin, r.ID, ResolveRequestRequest{Decision: RequestRejected})
		require.NoError(t, err)
		assert.Equal(t, RequestRejected, resolved.Status)
		assert.Nil(t, resolved.MembershipID)
		notifier.AssertExpectations(t)

		f.request(t, member, "IRON2345")
	})

	t.Run("other gym admin", func(t *testing.T) {
		f := newFixture(t, nil)
		r := f.request(t, member, "IRON2345")

		_, err := f.svc.ResolveRequest(ctx, otherAdmin, r.ID, ResolveRequestRequest{Decision: RequestApproved})
		assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))

		_, err = f.svc.ResolveRequest(ctx, trainer, r.ID, ResolveRequestRequest{Decision: RequestApproved})
		assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
	})

	invalid := []struct {
		name string
		req  ResolveRequestRequest
	}{
		{"unknown decision", ResolveRequestRequest{Decision: "MAYBE"}},
		{"pending decision", ResolveRequestRequest{Decision: RequestPending}},
		{"reject with plan", ResolveRequestRequest{Decision: RequestRejected, PlanID: "p-gold"}},
		{"plan of another gym", ResolveRequestRequest{Decision: RequestApproved, PlanID: "p-other"}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			r := f.request(t, member, "IRON2345")

			_, err := f.svc.ResolveRequest(ctx, admin, r.ID, tt.req)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation), "%v", err)

			got, err := f.repo.GetRequest(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, RequestPending, got.Status)
		})
	}

	t.Run("approval fails when user already holds membership", func(t *testing.T) {
		f := newFixture(t, nil)
		r := f.request(t, member, "IRON2345")
		f.subscribe(t, member, "p-gold")

		_, err := f.svc.ResolveRequest(ctx, admin, r.ID, ResolveRequestRequest{Decision: RequestApproved, PlanID: "p-gold"})
		assert.ErrorIs(t, err, ErrActiveMembershipExists)

		got, err := f.repo.GetRequest(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, RequestPending, got.Status)
	})

	t.Run("gym lists its requests", func(t *testing.T) {
		f := newFixture(t, nil)
		f.request(t, member, "IRON2345")
		f.request(t, stranger, "IRON2345")
		f.request(t, stranger, "OTHR2345")

		pending, err := f.svc.ListRequestsByGym(ctx, admin, "g-1", RequestPending)
		require.NoError(t, err)
		assert.Len(t, pending, 2)

		_, err = f.svc.ListRequestsByGym(ctx, otherAdmin, "g-1", "")
		assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
	})
}

func TestService_ResolveRequestConcurrent(t *testing.T) {
	f := newFixture(t, nil)
	r := f.request(t, member, "IRON2345")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ResolveRequest(context.Background(), admin, r.ID, ResolveRequestRequest{Decision: RequestApproved, PlanID: "p-gold"})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	ms, err := f.repo.ListMemberships(context.Background(), MembershipFilter{UserID: "m-1"})
	require.NoError(t, err)
	assert.Len(t, ms, 1)
}
