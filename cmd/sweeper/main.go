package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/devjogerio/juris-alerts/internal/config/sweeper"
	"github.com/devjogerio/juris-alerts/internal/obs"
	kafkaRepo "github.com/devjogerio/juris-alerts/internal/repository/kafka"
	pg "github.com/devjogerio/juris-alerts/internal/repository/postgres"
	"github.com/devjogerio/juris-alerts/internal/services/dispatcher"
	"github.com/devjogerio/juris-alerts/internal/services/sweeper"
	"github.com/devjogerio/juris-alerts/internal/services/sweeper/repo"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "path to config yaml")
		dryRun  = flag.Bool("dry-run", false, "report what a sweep would do without writing")
		verbose = flag.Bool("verbose", false, "log every alert the sweep touches")
		daemon  = flag.Bool("daemon", false, "keep sweeping on a ticker instead of one pass")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()
	zap.ReplaceGlobals(l)

	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	db, err := pg.New(ctx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	alertRepo := pg.NewAlertRepo(db)
	notifRepo := pg.NewNotificationRepo(db)
	notifCfgRepo := pg.NewNotificationConfigRepo(db)
	userRepo := pg.NewUserRepo(db)
	tx := pg.NewTransactor(db, l)

	disp := dispatcher.New(notifCfgRepo, notifRepo, l).
		WithEmail(userRepo, dispatcher.NewMailer(cfg.SMTP).WithLogger(l))

	uc := sweeper.NewUC(
		repo.Alerts{R: alertRepo},
		repo.Notifications{R: notifRepo},
		disp,
		tx,
		l,
	)

	if cfg.Kafka.Enabled {
		prod := kafkaRepo.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic).WithLogger(l)
		defer func() { _ = prod.Close() }()
		uc.WithEvents(kafkaRepo.NewAlertEvents(prod, l))
	}

	if !*daemon {
		runOnce(ctx, l, uc, cfg, *dryRun, *verbose)
		return
	}

	l.Info("starting sweeper",
		zap.Duration("tick", cfg.Sweep.Tick),
		zap.String("metrics_addr", cfg.Sweep.MetricsAddr),
	)

	ms := obs.BootstrapMetricsServer(cfg.Sweep.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	runner := sweeper.New(l, uc, &cfg.Sweep)

	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	l.Info("sweeper started")

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runner error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}

func runOnce(ctx context.Context, l *zap.Logger, uc *sweeper.Usecase, cfg *config.Config, dryRun, verbose bool) {
	rep, err := uc.Sweep(ctx, sweeper.Options{
		DryRun:     dryRun,
		Verbose:    verbose,
		BatchLimit: cfg.Sweep.BatchLimit,
	})
	if err != nil {
		l.Fatal("sweep failed", zap.Error(err))
	}
	l.Info("sweep finished",
		zap.Bool("dry_run", dryRun),
		zap.Int("due_notified", rep.DueNotified),
		zap.Int("advance_notified", rep.AdvanceNotified),
		zap.Int("rolled_over", rep.RolledOver),
		zap.Int("purged", rep.Purged),
		zap.Int("errors", rep.Errors),
	)
	if rep.Errors > 0 {
		os.Exit(1)
	}
}
