package dispatcher

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/devjogerio/juris-alerts/internal/domain/notification"
	"github.com/devjogerio/juris-alerts/internal/domain/user"
)

// Input carries everything needed to build one notification. Correlation
// (RelatedType/RelatedID) links it to the business entity that caused it;
// sweep-side dedup keys on (owner, type, related) and is not done here.
type Input struct {
	OwnerID     int64
	Type        notification.Type
	Priority    notification.Priority
	Title       string
	Body        string
	ActionURL   string
	Icon        string
	RelatedType string
	RelatedID   string
}

// expiries lists the notification kinds that age out on their own.
var expiries = map[notification.Type]time.Duration{
	notification.TypeSuccess: 24 * time.Hour,
}

// Dispatcher turns dispatch requests into persisted notifications, honoring
// the owner's per-category suppression config. A suppressed dispatch is a
// silent no-op: (nil, nil).
type Dispatcher struct {
	cfgs  notification.ConfigRepo
	store notification.Repo
	users user.Repo
	mail  notification.EmailSender
	clock notification.Clock
	log   *zap.Logger
}

func New(cfgs notification.ConfigRepo, store notification.Repo, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		cfgs:  cfgs,
		store: store,
		clock: systemClock{},
		log:   log,
	}
}

// WithEmail enables best-effort email delivery for owners who opted in.
func (d *Dispatcher) WithEmail(users user.Repo, mail notification.EmailSender) *Dispatcher {
	d.users = users
	d.mail = mail
	return d
}

func (d *Dispatcher) WithClock(c notification.Clock) *Dispatcher {
	if c != nil {
		d.clock = c
	}
	return d
}

func (d *Dispatcher) Dispatch(ctx context.Context, in Input) (*notification.Notification, error) {
	cfg, err := d.cfgs.GetOrCreate(ctx, in.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("notification config: %w", err)
	}
	if !cfg.Allowed(in.Type) {
		return nil, nil
	}

	if in.Priority == "" {
		in.Priority = notification.PriorityMedium
	}

	n := &notification.Notification{
		OwnerID:     in.OwnerID,
		Title:       in.Title,
		Body:        in.Body,
		Type:        in.Type,
		Priority:    in.Priority,
		ActionURL:   in.ActionURL,
		Icon:        in.Icon,
		RelatedType: in.RelatedType,
		RelatedID:   in.RelatedID,
	}
	if ttl, ok := expiries[in.Type]; ok {
		exp := d.clock.Now().Add(ttl)
		n.ExpiresAt = &exp
	}

	if err := d.store.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	d.deliverEmail(ctx, cfg, n)

	return n, nil
}

// DispatchOnce suppresses the dispatch when an identical correlated
// notification already exists for the owner. Event-driven callers that may
// fire more than once per business event (document uploads, case updates)
// use this instead of Dispatch.
func (d *Dispatcher) DispatchOnce(ctx context.Context, in Input) (*notification.Notification, error) {
	if in.RelatedType != "" && in.RelatedID != "" {
		exists, err := d.store.ExistsForRelated(ctx, in.OwnerID, in.Type, in.RelatedType, in.RelatedID)
		if err != nil {
			return nil, fmt.Errorf("dedup probe: %w", err)
		}
		if exists {
			return nil, nil
		}
	}
	return d.Dispatch(ctx, in)
}

// deliverEmail is a best-effort side channel; a failed send never fails the
// dispatch that produced the notification.
func (d *Dispatcher) deliverEmail(ctx context.Context, cfg *notification.Config, n *notification.Notification) {
	if d.mail == nil || d.users == nil || !cfg.EmailEnabled {
		return
	}
	u, err := d.users.GetByID(ctx, n.OwnerID)
	if err != nil {
		d.log.Warn("email delivery: owner lookup failed",
			zap.Int64("owner_id", n.OwnerID), zap.Error(err))
		return
	}
	if u.Email == "" {
		return
	}
	if err := d.mail.Send(ctx, u.Email, n.Title, n.Body); err != nil {
		d.log.Warn("email delivery failed",
			zap.Int64("owner_id", n.OwnerID),
			zap.String("notification_id", n.ID.String()),
			zap.Error(err))
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
