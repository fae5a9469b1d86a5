package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/devjogerio/juris-alerts/internal/domain/alert"
	"github.com/devjogerio/juris-alerts/internal/domain/notification"
)

// Thin adapters narrowing the domain repositories to what the sweep uses.

type Alerts struct{ R alert.Repo }

func (a Alerts) FetchDueUnnotified(ctx context.Context, now time.Time, limit int) ([]*alert.Alert, error) {
	return a.R.FetchDueUnnotified(ctx, now, limit)
}

func (a Alerts) FetchAdvanceCandidates(ctx context.Context, now time.Time, limit int) ([]*alert.Alert, error) {
	return a.R.FetchAdvanceCandidates(ctx, now, limit)
}

func (a Alerts) FetchRecurringElapsed(ctx context.Context, now time.Time, limit int) ([]*alert.Alert, error) {
	return a.R.FetchRecurringElapsed(ctx, now, limit)
}

func (a Alerts) MarkDueNotified(ctx context.Context, id uuid.UUID) (bool, error) {
	return a.R.MarkDueNotified(ctx, id)
}

func (a Alerts) MarkAdvanceNotified(ctx context.Context, id uuid.UUID) (bool, error) {
	return a.R.MarkAdvanceNotified(ctx, id)
}

func (a Alerts) CompleteIfActive(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	return a.R.CompleteIfActive(ctx, id, now)
}

func (a Alerts) Create(ctx context.Context, al *alert.Alert) error {
	return a.R.Create(ctx, al)
}

type Notifications struct{ R notification.Repo }

func (n Notifications) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return n.R.DeleteExpired(ctx, now)
}
