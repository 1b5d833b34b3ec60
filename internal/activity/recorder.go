package activity

import (
	"context"

	"gymhub/internal/access"
	"gymhub/internal/clock"
	"gymhub/internal/logger"
	"gymhub/internal/metrics"

	"github.com/google/uuid"
)

// Recorder appends activity records and publishes them. Recording happens
// after the state change has committed, so failures are logged and never
// surface to the caller.
type Recorder struct {
	repo      Repository
	publisher Publisher
	clock     clock.Clock
}

func NewRecorder(repo Repository, publisher Publisher, clk clock.Clock) *Recorder {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Recorder{repo: repo, publisher: publisher, clock: clk}
}

func (r *Recorder) Record(ctx context.Context, action Action, actorID string, targetType TargetType, targetID, gymID string) {
	rec := &Record{
		ID:         uuid.NewString(),
		Action:     action,
		ActorID:    actorID,
		TargetType: targetType,
		TargetID:   targetID,
		GymID:      gymID,
		At:         r.clock.Now(),
	}

	if err := r.repo.Append(ctx, rec); err != nil {
		metrics.RecordActivity(string(action), "append_failed")
		logger.Warn("failed to append activity record", "action", action, "target_id", targetID, "error", err)
		return
	}

	if err := r.publisher.Publish(ctx, *rec); err != nil {
		metrics.RecordActivity(string(action), "publish_failed")
		logger.Warn("failed to publish activity record", "action", action, "target_id", targetID, "error", err)
		return
	}

	metrics.RecordActivity(string(action), "published")
}

// List returns the most recent records, newest first. Platform admins only.
func (r *Recorder) List(ctx context.Context, identity access.Identity, filter Filter) ([]Record, error) {
	if err := access.Authorize(identity, access.ActionViewActivity, access.Target{}); err != nil {
		return nil, err
	}
	return r.repo.List(ctx, filter)
}
