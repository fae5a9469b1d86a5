package inbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devjogerio/juris-alerts/internal/domain/notification"
)

// Service is the read/acknowledge surface over a user's notifications.
// Every operation is owner-scoped; a notification id belonging to another
// owner behaves as not found.
type Service struct {
	store notification.Repo
	cfgs  notification.ConfigRepo
	log   *zap.Logger
}

func New(store notification.Repo, cfgs notification.ConfigRepo, log *zap.Logger) *Service {
	return &Service{store: store, cfgs: cfgs, log: log}
}

func (s *Service) List(ctx context.Context, ownerID int64, limit int) ([]*notification.Notification, error) {
	return s.store.ListByOwner(ctx, ownerID, limit)
}

func (s *Service) ListUnread(ctx context.Context, ownerID int64, limit int) ([]*notification.Notification, error) {
	return s.store.ListUnread(ctx, ownerID, limit)
}

func (s *Service) UnreadCount(ctx context.Context, ownerID int64) (int, error) {
	return s.store.CountUnread(ctx, ownerID)
}

func (s *Service) MarkRead(ctx context.Context, id uuid.UUID, ownerID int64) error {
	return s.store.MarkRead(ctx, id, ownerID, time.Now().UTC())
}

// MarkAllRead returns how many notifications changed state.
func (s *Service) MarkAllRead(ctx context.Context, ownerID int64) (int, error) {
	n, err := s.store.MarkAllRead(ctx, ownerID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Debug("inbox cleared", zap.Int64("owner_id", ownerID), zap.Int("marked", n))
	}
	return n, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, ownerID int64) error {
	return s.store.Delete(ctx, id, ownerID)
}

func (s *Service) Preferences(ctx context.Context, ownerID int64) (*notification.Config, error) {
	return s.cfgs.GetOrCreate(ctx, ownerID)
}

func (s *Service) UpdatePreferences(ctx context.Context, cfg *notification.Config) error {
	return s.cfgs.Update(ctx, cfg)
}
