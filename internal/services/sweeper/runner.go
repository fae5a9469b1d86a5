package sweeper

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	config "github.com/devjogerio/juris-alerts/internal/config/sweeper"
)

type Runner struct {
	Log *zap.Logger
	UC  *Usecase
	Cfg *config.SweepCfg

	mDue      prometheus.Counter
	mAdvance  prometheus.Counter
	mRolled   prometheus.Counter
	mPurged   prometheus.Counter
	mErr      prometheus.Counter
	mSweepDur prometheus.Histogram
}

func New(log *zap.Logger, uc *Usecase, cfg *config.SweepCfg) *Runner {
	return &Runner{
		Log: log,
		UC:  uc,
		Cfg: cfg,
		mDue: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sweeper_due_notified_total", Help: "Overdue notifications created",
		}),
		mAdvance: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sweeper_advance_notified_total", Help: "Advance reminders created",
		}),
		mRolled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sweeper_rollovers_total", Help: "Recurring alerts rolled over",
		}),
		mPurged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sweeper_notifications_purged_total", Help: "Expired notifications purged",
		}),
		mErr: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sweeper_errors_total", Help: "Errors in sweep passes",
		}),
		mSweepDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "sweeper_pass_duration_seconds", Help: "Sweep pass duration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (r *Runner) pass(ctx context.Context) {
	start := time.Now()
	rep, err := r.UC.Sweep(ctx, Options{BatchLimit: r.Cfg.BatchLimit})
	if err != nil {
		r.mErr.Inc()
		r.Log.Warn("sweep pass error", zap.Error(err))
	}
	r.mDue.Add(float64(rep.DueNotified))
	r.mAdvance.Add(float64(rep.AdvanceNotified))
	r.mRolled.Add(float64(rep.RolledOver))
	r.mPurged.Add(float64(rep.Purged))
	if rep.Errors > 0 {
		r.mErr.Add(float64(rep.Errors))
	}
	if rep.DueNotified+rep.AdvanceNotified+rep.RolledOver+rep.Purged > 0 {
		r.Log.Debug("sweep pass done",
			zap.Int("due", rep.DueNotified),
			zap.Int("advance", rep.AdvanceNotified),
			zap.Int("rolled_over", rep.RolledOver),
			zap.Int("purged", rep.Purged),
			zap.Int("errors", rep.Errors),
		)
	}
	r.mSweepDur.Observe(time.Since(start).Seconds())
}

func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Cfg.Tick)
	defer ticker.Stop()

	r.pass(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.pass(ctx)
		}
	}
}
