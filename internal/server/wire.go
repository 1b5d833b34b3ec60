package server

import (
	"gymhub/internal/activity"
	"gymhub/internal/clock"
	"gymhub/internal/config"
	"gymhub/internal/gym"
	"gymhub/internal/membership"
	"gymhub/internal/notify"
	"gymhub/internal/plan"
	"gymhub/internal/schedule"

	"github.com/jmoiron/sqlx"
)

// Stores groups the storage backends, postgres or in-memory.
type Stores struct {
	Gyms        gym.Repository
	Plans       plan.Repository
	Memberships membership.Repository
	Schedule    schedule.Repository
	Activity    activity.Repository
}

type Services struct {
	Gyms        gym.Service
	Plans       plan.Service
	Memberships membership.Service
	Schedule    schedule.Service
	Recorder    *activity.Recorder
}

func NewServices(cfg *config.Config, stores Stores, publisher activity.Publisher, notifier notify.Notifier, clk clock.Clock) Services {
	recorder := activity.NewRecorder(stores.Activity, publisher, clk)
	memberships := membership.NewService(stores.Memberships, stores.Gyms, stores.Plans, recorder, notifier, clk)

	return Services{
		Gyms: gym.NewService(stores.Gyms, recorder, notifier, clk, gym.Options{
			ApprovalRequired: cfg.GymApprovalRequired,
		}),
		Plans:       plan.NewService(stores.Plans, stores.Gyms, recorder, clk),
		Memberships: memberships,
		Schedule: schedule.NewService(stores.Schedule, stores.Gyms, memberships, recorder, notifier, clk, schedule.Options{
			RequireMembership: cfg.BookingRequiresMembership,
		}),
		Recorder: recorder,
	}
}

func (s Services) Handlers() Handlers {
	return Handlers{
		Gym:        gym.NewHandler(s.Gyms),
		Plan:       plan.NewHandler(s.Plans),
		Membership: membership.NewHandler(s.Memberships),
		Schedule:   schedule.NewHandler(s.Schedule),
		Activity:   activity.NewHandler(s.Recorder),
	}
}

func MemoryStores() Stores {
	return Stores{
		Gyms:        gym.NewMemoryRepository(),
		Plans:       plan.NewMemoryRepository(),
		Memberships: membership.NewMemoryRepository(),
		Schedule:    schedule.NewMemoryRepository(),
		Activity:    activity.NewMemoryRepository(),
	}
}

func PostgresStores(db *sqlx.DB) Stores {
	return Stores{
		Gyms:        gym.NewRepository(db),
		Plans:       plan.NewRepository(db),
		Memberships: membership.NewRepository(db),
		Schedule:    schedule.NewRepository(db),
		Activity:    activity.NewRepository(db),
	}
}
