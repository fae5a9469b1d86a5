package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repo interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	ListByOwner(ctx context.Context, ownerID int64, limit int) ([]*Notification, error)
	ListUnread(ctx context.Context, ownerID int64, limit int) ([]*Notification, error)
	CountUnread(ctx context.Context, ownerID int64) (int, error)
	MarkRead(ctx context.Context, id uuid.UUID, ownerID int64, at time.Time) error
	MarkAllRead(ctx context.Context, ownerID int64, at time.Time) (int, error)
	Delete(ctx context.Context, id uuid.UUID, ownerID int64) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)

	// ExistsForRelated is the dedup probe: has a notification of this type
	// already been created for the given related entity?
	ExistsForRelated(ctx context.Context, ownerID int64, t Type, relatedType, relatedID string) (bool, error)
}

type ConfigRepo interface {
	GetOrCreate(ctx context.Context, ownerID int64) (*Config, error)
	Update(ctx context.Context, c *Config) error
}

// EmailSender delivers a notification out of band. Implementations are
// best-effort collaborators; dispatch never fails on a send error.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Clock interface {
	Now() time.Time
}
