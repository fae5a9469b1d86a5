package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/devjogerio/juris-alerts/internal/domain/alert"
	"github.com/devjogerio/juris-alerts/internal/domain/notification"
	"github.com/devjogerio/juris-alerts/internal/obs"
	"github.com/devjogerio/juris-alerts/internal/services/dispatcher"
)

// AlertStore is the slice of the alert repository the sweep needs.
type AlertStore interface {
	FetchDueUnnotified(ctx context.Context, now time.Time, limit int) ([]*alert.Alert, error)
	FetchAdvanceCandidates(ctx context.Context, now time.Time, limit int) ([]*alert.Alert, error)
	FetchRecurringElapsed(ctx context.Context, now time.Time, limit int) ([]*alert.Alert, error)
	MarkDueNotified(ctx context.Context, id uuid.UUID) (bool, error)
	MarkAdvanceNotified(ctx context.Context, id uuid.UUID) (bool, error)
	CompleteIfActive(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	Create(ctx context.Context, a *alert.Alert) error
}

type NotificationStore interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type Notifier interface {
	Dispatch(ctx context.Context, in dispatcher.Input) (*notification.Notification, error)
}

// Tx couples a dedup-flag claim and its notification write into one atomic
// unit; a failed dispatch rolls the claim back so a later sweep retries it.
type Tx interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Options struct {
	DryRun     bool
	Verbose    bool
	BatchLimit int
}

// Report counts what one sweep pass did (or, under DryRun, would have done).
type Report struct {
	DueNotified     int
	AdvanceNotified int
	RolledOver      int
	Purged          int
	Errors          int
}

type Usecase struct {
	Alerts   AlertStore
	Notifs   NotificationStore
	Notifier Notifier
	Tx       Tx
	Policy   alert.Policy
	Events   alert.Events
	Log      *zap.Logger

	now func() time.Time
}

func NewUC(alerts AlertStore, notifs NotificationStore, notifier Notifier, tx Tx, log *zap.Logger) *Usecase {
	return &Usecase{
		Alerts:   alerts,
		Notifs:   notifs,
		Notifier: notifier,
		Tx:       tx,
		Policy:   alert.DefaultPolicy(),
		Log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithEvents enables best-effort lifecycle events for rolled-over alerts.
func (u *Usecase) WithEvents(e alert.Events) *Usecase {
	u.Events = e
	return u
}

func (u *Usecase) WithNow(now func() time.Time) *Usecase {
	if now != nil {
		u.now = now
	}
	return u
}

// Sweep runs the four phases of one pass: overdue alerts, advance reminders,
// recurring rollover, expired-notification purge. Each alert is handled in
// its own transaction so one failure never poisons the batch; the pass keeps
// going and reports the error count.
func (u *Usecase) Sweep(ctx context.Context, opts Options) (Report, error) {
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = 100
	}
	now := u.now()

	tr := otel.Tracer("sweeper.uc")
	ctx, span := tr.Start(ctx, "sweeper.sweep",
		trace.WithAttributes(
			attribute.Int("batch.limit", opts.BatchLimit),
			attribute.Bool("dry_run", opts.DryRun),
		),
	)
	defer span.End()

	var rep Report
	u.sweepDue(ctx, now, opts, &rep)
	u.sweepAdvance(ctx, now, opts, &rep)
	u.sweepRollover(ctx, now, opts, &rep)
	u.sweepPurge(ctx, now, opts, &rep)

	span.SetAttributes(
		attribute.Int("sweep.due", rep.DueNotified),
		attribute.Int("sweep.advance", rep.AdvanceNotified),
		attribute.Int("sweep.rolled_over", rep.RolledOver),
		attribute.Int("sweep.purged", rep.Purged),
		attribute.Int("sweep.errors", rep.Errors),
	)
	return rep, nil
}

func (u *Usecase) sweepDue(ctx context.Context, now time.Time, opts Options, rep *Report) {
	log := obs.WithTrace(ctx, u.Log)
	due, err := u.Alerts.FetchDueUnnotified(ctx, now, opts.BatchLimit)
	if err != nil {
		rep.Errors++
		log.Warn("fetch overdue alerts", zap.Error(err))
		return
	}
	for _, a := range due {
		if opts.DryRun {
			rep.DueNotified++
			if opts.Verbose {
				log.Info("would notify overdue alert", sweepFields(a)...)
			}
			continue
		}
		var claimed bool
		err := u.Tx.WithTx(ctx, func(ctx context.Context) error {
			var err error
			if claimed, err = u.Alerts.MarkDueNotified(ctx, a.ID); err != nil {
				return fmt.Errorf("claim due flag: %w", err)
			}
			if !claimed {
				return nil
			}
			_, err = u.Notifier.Dispatch(ctx, dispatcher.Input{
				OwnerID:     a.OwnerID,
				Type:        u.Policy.MapType(a.Type),
				Priority:    notification.PriorityHigh,
				Title:       "Overdue: " + a.Title,
				Body:        fmt.Sprintf("The alert %q passed its due date on %s.", a.Title, a.DueAt.Format("2006-01-02 15:04")),
				ActionURL:   a.ActionURL,
				RelatedType: "alert",
				RelatedID:   a.ID.String(),
			})
			return err
		})
		if err != nil {
			rep.Errors++
			log.Warn("overdue notification failed", append(sweepFields(a), zap.Error(err))...)
			continue
		}
		if !claimed {
			continue
		}
		rep.DueNotified++
		if opts.Verbose {
			log.Info("overdue alert notified", sweepFields(a)...)
		}
	}
}

func (u *Usecase) sweepAdvance(ctx context.Context, now time.Time, opts Options, rep *Report) {
	log := obs.WithTrace(ctx, u.Log)
	cands, err := u.Alerts.FetchAdvanceCandidates(ctx, now, opts.BatchLimit)
	if err != nil {
		rep.Errors++
		log.Warn("fetch advance candidates", zap.Error(err))
		return
	}
	for _, a := range cands {
		if now.Before(a.NotifyAt()) {
			continue
		}
		if opts.DryRun {
			rep.AdvanceNotified++
			if opts.Verbose {
				log.Info("would send advance reminder", sweepFields(a)...)
			}
			continue
		}
		var claimed bool
		err := u.Tx.WithTx(ctx, func(ctx context.Context) error {
			var err error
			if claimed, err = u.Alerts.MarkAdvanceNotified(ctx, a.ID); err != nil {
				return fmt.Errorf("claim advance flag: %w", err)
			}
			if !claimed {
				return nil
			}
			_, err = u.Notifier.Dispatch(ctx, dispatcher.Input{
				OwnerID:     a.OwnerID,
				Type:        u.Policy.MapType(a.Type),
				Priority:    u.Policy.MapPriority(a.Priority),
				Title:       "Upcoming: " + a.Title,
				Body:        fmt.Sprintf("The alert %q is scheduled for %s.", a.Title, a.TriggerAt.Format("2006-01-02 15:04")),
				ActionURL:   a.ActionURL,
				RelatedType: "alert",
				RelatedID:   a.ID.String(),
			})
			return err
		})
		if err != nil {
			rep.Errors++
			log.Warn("advance reminder failed", append(sweepFields(a), zap.Error(err))...)
			continue
		}
		if !claimed {
			continue
		}
		rep.AdvanceNotified++
		if opts.Verbose {
			log.Info("advance reminder sent", sweepFields(a)...)
		}
	}
}

func (u *Usecase) sweepRollover(ctx context.Context, now time.Time, opts Options, rep *Report) {
	log := obs.WithTrace(ctx, u.Log)
	elapsed, err := u.Alerts.FetchRecurringElapsed(ctx, now, opts.BatchLimit)
	if err != nil {
		rep.Errors++
		log.Warn("fetch recurring alerts", zap.Error(err))
		return
	}
	for _, a := range elapsed {
		next, ok := alert.NextOccurrence(a.TriggerAt, a.Frequency)
		if !ok {
			rep.Errors++
			log.Warn("recurring alert without a valid frequency", sweepFields(a)...)
			continue
		}
		if opts.DryRun {
			rep.RolledOver++
			if opts.Verbose {
				log.Info("would roll over recurring alert",
					append(sweepFields(a), zap.Time("next_trigger", next))...)
			}
			continue
		}
		var claimed bool
		clone := a.NextInstance(next)
		err := u.Tx.WithTx(ctx, func(ctx context.Context) error {
			var err error
			if claimed, err = u.Alerts.CompleteIfActive(ctx, a.ID, now); err != nil {
				return fmt.Errorf("complete elapsed instance: %w", err)
			}
			if !claimed {
				return nil
			}
			return u.Alerts.Create(ctx, clone)
		})
		if err != nil {
			rep.Errors++
			log.Warn("rollover failed", append(sweepFields(a), zap.Error(err))...)
			continue
		}
		if !claimed {
			continue
		}
		rep.RolledOver++
		if u.Events != nil {
			if err := u.Events.PublishLifecycle(ctx, "alert.rolled_over", clone); err != nil {
				log.Warn("rollover event publish failed", append(sweepFields(clone), zap.Error(err))...)
			}
		}
		if opts.Verbose {
			log.Info("recurring alert rolled over",
				append(sweepFields(a), zap.Time("next_trigger", next))...)
		}
	}
}

func (u *Usecase) sweepPurge(ctx context.Context, now time.Time, opts Options, rep *Report) {
	log := obs.WithTrace(ctx, u.Log)
	if opts.DryRun {
		return
	}
	purged, err := u.Notifs.DeleteExpired(ctx, now)
	if err != nil {
		rep.Errors++
		log.Warn("purge expired notifications", zap.Error(err))
		return
	}
	rep.Purged = purged
	if opts.Verbose && purged > 0 {
		log.Info("expired notifications purged", zap.Int("purged", purged))
	}
}

func sweepFields(a *alert.Alert) []zap.Field {
	return []zap.Field{
		zap.String("alert_id", a.ID.String()),
		zap.Int64("owner_id", a.OwnerID),
		zap.String("type", string(a.Type)),
	}
}
