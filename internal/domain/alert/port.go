package alert

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repo interface {
	Create(ctx context.Context, a *Alert) error
	GetByID(ctx context.Context, id uuid.UUID) (*Alert, error)
	GetOwned(ctx context.Context, id uuid.UUID, ownerID int64) (*Alert, error)
	ListByOwner(ctx context.Context, ownerID int64, status Status) ([]*Alert, error)
	Update(ctx context.Context, a *Alert) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context, ownerID int64) (map[Status]int, error)

	// Sweep candidate scans. Results may be stale by the time they are
	// processed; the claim calls below are the authority.
	FetchDueUnnotified(ctx context.Context, now time.Time, limit int) ([]*Alert, error)
	FetchAdvanceCandidates(ctx context.Context, now time.Time, limit int) ([]*Alert, error)
	FetchRecurringElapsed(ctx context.Context, now time.Time, limit int) ([]*Alert, error)

	// Compare-and-swap claims. Each update applies only while the guarded
	// column still holds its pre-claim value, so overlapping sweep workers
	// claim an alert at most once; false means another worker got there
	// first. Run inside a transaction together with the notification write
	// so a failed dispatch rolls the claim back.
	MarkDueNotified(ctx context.Context, id uuid.UUID) (bool, error)
	MarkAdvanceNotified(ctx context.Context, id uuid.UUID) (bool, error)
	CompleteIfActive(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

type ConfigRepo interface {
	GetOrCreate(ctx context.Context, ownerID int64) (*Config, error)
	Update(ctx context.Context, c *Config) error
}

type HistoryRepo interface {
	Append(ctx context.Context, e *HistoryEntry) error
	ListByAlert(ctx context.Context, alertID uuid.UUID, limit int) ([]*HistoryEntry, error)
}

// Events is the optional lifecycle event stream. Publishing is best-effort:
// callers log failures and carry on.
type Events interface {
	PublishLifecycle(ctx context.Context, event string, a *Alert) error
}
