package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/devjogerio/juris-alerts/internal/domain/alert"
	"github.com/devjogerio/juris-alerts/internal/obs/retry"
)

// AlertEventsKafka publishes alert lifecycle events as a best-effort audit
// stream. Delivery is retried with backoff but never guaranteed; callers
// treat a publish error as log-and-continue.
type AlertEventsKafka struct {
	p      *Producer
	log    *zap.Logger
	policy retry.Policy
}

var _ alert.Events = (*AlertEventsKafka)(nil)

func NewAlertEvents(p *Producer, log *zap.Logger) *AlertEventsKafka {
	return &AlertEventsKafka{
		p:      p,
		log:    log,
		policy: retry.DefaultKafkaPolicy(log),
	}
}

type lifecycleEvent struct {
	Event     string    `json:"event"`
	AlertID   string    `json:"alert_id"`
	OwnerID   int64     `json:"owner_id"`
	Type      string    `json:"type"`
	Priority  string    `json:"priority"`
	Status    string    `json:"status"`
	TriggerAt time.Time `json:"trigger_at"`
	At        time.Time `json:"at"`
}

func (e *AlertEventsKafka) PublishLifecycle(ctx context.Context, event string, a *alert.Alert) error {
	ev := lifecycleEvent{
		Event:     event,
		AlertID:   a.ID.String(),
		OwnerID:   a.OwnerID,
		Type:      string(a.Type),
		Priority:  string(a.Priority),
		Status:    string(a.Status),
		TriggerAt: a.TriggerAt,
		At:        time.Now().UTC(),
	}
	return retry.Do(ctx, func() error {
		return e.p.PublishJSON(ctx, []byte(a.ID.String()), ev)
	}, e.policy)
}
