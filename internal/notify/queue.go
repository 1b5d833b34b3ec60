package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gymhub/internal/logger"
	"gymhub/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey       = "notifications"
	failedQueueKey = "notifications:failed"

	maxTries    = 3
	popTimeout  = 2 * time.Second
	popBackoff  = time.Second
	statusQueue = "queued"
)

// Queue pushes notifications onto a redis list.
type Queue struct {
	redis *redis.Client
	now   func() time.Time
}

func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{redis: rdb, now: time.Now}
}

func (q *Queue) Notify(ctx context.Context, n Notification) error {
	n.Tries = 0
	n.Created = q.now().UTC()

	data, err := json.Marshal(n)
	if err != nil {
		return err
	}

	if err := q.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		metrics.RecordNotification(string(n.Kind), "queue_failed")
		logger.Error("failed to queue notification", "kind", n.Kind, "user_id", n.UserID, "error", err)
		return err
	}

	metrics.RecordNotification(string(n.Kind), statusQueue)
	logger.Debug("notification queued", "kind", n.Kind, "user_id", n.UserID)
	return nil
}

func (q *Queue) Length(ctx context.Context) int64 {
	return queueLength(ctx, q.redis)
}

// queueLength reads the pending count and publishes it on the gauge.
func queueLength(ctx context.Context, rdb *redis.Client) int64 {
	length, err := rdb.LLen(ctx, queueKey).Result()
	if err != nil {
		logger.Warn("failed to read notification queue length", "error", err)
		return 0
	}
	metrics.NotificationQueueLength.Set(float64(length))
	return length
}

func (q *Queue) Close() error {
	return q.redis.Close()
}

// Sender delivers one notification to its recipient.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender writes notifications to the log. It stands in for a real
// channel in development.
type LogSender struct{}

func (LogSender) Send(_ context.Context, n Notification) error {
	logger.Info("notification delivered", "kind", n.Kind, "user_id", n.UserID, "subject", n.Subject)
	return nil
}

// Worker drains the queue through a Sender, retrying failed deliveries
// and parking them on a failed list after maxTries attempts.
type Worker struct {
	redis   *redis.Client
	sender  Sender
	backoff time.Duration
}

func NewWorker(rdb *redis.Client, sender Sender) *Worker {
	return &Worker{redis: rdb, sender: sender, backoff: popBackoff}
}

func (w *Worker) Start(ctx context.Context) {
	logger.Info("notification worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("notification worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *Worker) processNext(ctx context.Context) {
	result, err := w.redis.BRPop(ctx, popTimeout, queueKey).Result()
	if errors.Is(err, redis.Nil) {
		metrics.NotificationQueueLength.Set(0)
		return
	}
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Error("notification queue unavailable", "error", err)
		select {
		case <-ctx.Done():
		case <-time.After(w.backoff):
		}
		return
	}
	queueLength(ctx, w.redis)

	var n Notification
	if err := json.Unmarshal([]byte(result[1]), &n); err != nil {
		logger.Error("bad notification payload", "error", err)
		return
	}

	n.Tries++
	if err := w.sender.Send(ctx, n); err != nil {
		logger.Error("notification delivery failed", "kind", n.Kind, "user_id", n.UserID, "attempt", n.Tries, "error", err)

		data, _ := json.Marshal(n)
		if n.Tries < maxTries {
			w.redis.LPush(ctx, queueKey, data)
			metrics.RecordNotification(string(n.Kind), "retried")
			return
		}

		failed, _ := json.Marshal(map[string]any{"notification": n, "error": err.Error(), "time": time.Now().UTC()})
		w.redis.LPush(ctx, failedQueueKey, failed)
		metrics.RecordNotification(string(n.Kind), "failed")
		return
	}

	metrics.RecordNotification(string(n.Kind), "sent")
}
