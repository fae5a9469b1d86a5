//go:build integration

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/devjogerio/juris-alerts/internal/services/sweeper"
)

func TestSweeper_Overdue_NotifiesExactlyOnce(t *testing.T) {
	cfg := LoadCfg()
	ctx := context.Background()

	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()

	ownerID := RandID()
	SeedUser(t, db, ownerID, fmt.Sprintf("sw-%d@example.com", ownerID))

	now := time.Now().UTC()
	due := now.Add(-2 * time.Hour)
	alertID := SeedAlert(t, db, SeedAlertOpts{
		OwnerID:   ownerID,
		Title:     "file motion to dismiss",
		Type:      "deadline",
		TriggerAt: now.Add(-3 * time.Hour),
		DueAt:     &due,
		Advance:   60,
	})

	uc := NewSweeper(t, ctx, cfg.DBDSN)

	rep, err := uc.Sweep(ctx, sweeper.Options{})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if rep.Errors != 0 {
		t.Fatalf("sweep errors: %d", rep.Errors)
	}

	// the overdue phase and the advance phase each fire once for this alert
	if n := CountNotifications(t, db, ownerID, alertID.String()); n != 2 {
		t.Fatalf("notifications after first sweep: got %d want 2", n)
	}
	advance, dueFlag, status := AlertFlags(t, db, alertID)
	if !advance || !dueFlag || status != "active" {
		t.Fatalf("flags after first sweep: advance=%v due=%v status=%s", advance, dueFlag, status)
	}

	// repeating the sweep must not duplicate anything
	if _, err := uc.Sweep(ctx, sweeper.Options{}); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if n := CountNotifications(t, db, ownerID, alertID.String()); n != 2 {
		t.Fatalf("notifications after second sweep: got %d want 2", n)
	}
}

func TestSweeper_DryRun_WritesNothing(t *testing.T) {
	cfg := LoadCfg()
	ctx := context.Background()

	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()

	ownerID := RandID()
	SeedUser(t, db, ownerID, fmt.Sprintf("dr-%d@example.com", ownerID))

	now := time.Now().UTC()
	due := now.Add(-time.Hour)
	alertID := SeedAlert(t, db, SeedAlertOpts{
		OwnerID:   ownerID,
		Title:     "pay court fees",
		Type:      "payment",
		TriggerAt: now.Add(-time.Hour),
		DueAt:     &due,
	})

	uc := NewSweeper(t, ctx, cfg.DBDSN)

	rep, err := uc.Sweep(ctx, sweeper.Options{DryRun: true})
	if err != nil {
		t.Fatalf("dry-run sweep: %v", err)
	}
	if rep.DueNotified != 1 {
		t.Fatalf("dry-run due count: got %d want 1", rep.DueNotified)
	}
	if n := CountNotifications(t, db, ownerID, alertID.String()); n != 0 {
		t.Fatalf("dry run created %d notifications", n)
	}
	_, dueFlag, _ := AlertFlags(t, db, alertID)
	if dueFlag {
		t.Fatalf("dry run set due_notified")
	}
}

func TestSweeper_Recurring_RollsOver(t *testing.T) {
	cfg := LoadCfg()
	ctx := context.Background()

	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()

	ownerID := RandID()
	SeedUser(t, db, ownerID, fmt.Sprintf("rr-%d@example.com", ownerID))

	now := time.Now().UTC()
	alertID := SeedAlert(t, db, SeedAlertOpts{
		OwnerID:   ownerID,
		Title:     "weekly case review",
		Type:      "task",
		TriggerAt: now.Add(-time.Hour),
		Recurring: true,
		Frequency: "weekly",
	})

	uc := NewSweeper(t, ctx, cfg.DBDSN)

	rep, err := uc.Sweep(ctx, sweeper.Options{})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if rep.RolledOver != 1 {
		t.Fatalf("rolled over: got %d want 1", rep.RolledOver)
	}

	if n := CountAlertsByOwner(t, db, ownerID); n != 2 {
		t.Fatalf("alerts after rollover: got %d want 2", n)
	}
	_, _, status := AlertFlags(t, db, alertID)
	if status != "completed" {
		t.Fatalf("elapsed instance status: got %s want completed", status)
	}

	// the clone must not be rolled over again on the next pass
	rep, err = uc.Sweep(ctx, sweeper.Options{})
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if rep.RolledOver != 0 {
		t.Fatalf("second rollover: got %d want 0", rep.RolledOver)
	}
}
