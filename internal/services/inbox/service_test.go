package inbox

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devjogerio/juris-alerts/internal/domain/notification"
	pg "github.com/devjogerio/juris-alerts/internal/repository/postgres"
)

type fakeStore struct {
	items map[uuid.UUID]*notification.Notification
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[uuid.UUID]*notification.Notification{}}
}

func (f *fakeStore) Create(_ context.Context, n *notification.Notification) error {
	f.items[n.ID] = n
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*notification.Notification, error) {
	n, ok := f.items[id]
	if !ok {
		return nil, pg.ErrNotFound
	}
	return n, nil
}

func (f *fakeStore) ListByOwner(_ context.Context, ownerID int64, limit int) ([]*notification.Notification, error) {
	var out []*notification.Notification
	for _, n := range f.items {
		if n.OwnerID == ownerID && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeStore) ListUnread(_ context.Context, ownerID int64, limit int) ([]*notification.Notification, error) {
	var out []*notification.Notification
	for _, n := range f.items {
		if n.OwnerID == ownerID && !n.Read && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeStore) CountUnread(_ context.Context, ownerID int64) (int, error) {
	c := 0
	for _, n := range f.items {
		if n.OwnerID == ownerID && !n.Read {
			c++
		}
	}
	return c, nil
}

func (f *fakeStore) MarkRead(_ context.Context, id uuid.UUID, ownerID int64, at time.Time) error {
	n, ok := f.items[id]
	if !ok || n.OwnerID != ownerID {
		return pg.ErrNotFound
	}
	n.Read = true
	if n.ReadAt == nil {
		n.ReadAt = &at
	}
	return nil
}

func (f *fakeStore) MarkAllRead(_ context.Context, ownerID int64, at time.Time) (int, error) {
	c := 0
	for _, n := range f.items {
		if n.OwnerID == ownerID && !n.Read {
			n.Read = true
			n.ReadAt = &at
			c++
		}
	}
	return c, nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID, ownerID int64) error {
	n, ok := f.items[id]
	if !ok || n.OwnerID != ownerID {
		return pg.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	c := 0
	for id, n := range f.items {
		if n.Expired(now) {
			delete(f.items, id)
			c++
		}
	}
	return c, nil
}

func (f *fakeStore) ExistsForRelated(_ context.Context, ownerID int64, t notification.Type, relatedType, relatedID string) (bool, error) {
	for _, n := range f.items {
		if n.OwnerID == ownerID && n.Type == t && n.RelatedType == relatedType && n.RelatedID == relatedID {
			return true, nil
		}
	}
	return false, nil
}

type fakeConfigs struct {
	byOwner map[int64]*notification.Config
}

func (f *fakeConfigs) GetOrCreate(_ context.Context, ownerID int64) (*notification.Config, error) {
	if c, ok := f.byOwner[ownerID]; ok {
		return c, nil
	}
	c := notification.DefaultConfig(ownerID)
	f.byOwner[ownerID] = c
	return c, nil
}

func (f *fakeConfigs) Update(_ context.Context, c *notification.Config) error {
	f.byOwner[c.OwnerID] = c
	return nil
}

func seed(t *testing.T, st *fakeStore, ownerID int64, read bool) *notification.Notification {
	t.Helper()
	n := &notification.Notification{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     "hearing tomorrow",
		Type:      notification.TypeActivity,
		Priority:  notification.PriorityMedium,
		Read:      read,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Create(context.Background(), n))
	return n
}

func TestMarkReadOwnerScoped(t *testing.T) {
	st := newFakeStore()
	svc := New(st, &fakeConfigs{byOwner: map[int64]*notification.Config{}}, zap.NewNop())
	ctx := context.Background()

	n := seed(t, st, 7, false)

	require.ErrorIs(t, svc.MarkRead(ctx, n.ID, 8), pg.ErrNotFound)
	require.False(t, st.items[n.ID].Read)

	require.NoError(t, svc.MarkRead(ctx, n.ID, 7))
	require.True(t, st.items[n.ID].Read)
	require.NotNil(t, st.items[n.ID].ReadAt)

	// re-acking an already-read notification is a no-op, not an error,
	// and keeps the original read_at
	first := *st.items[n.ID].ReadAt
	require.NoError(t, svc.MarkRead(ctx, n.ID, 7))
	require.Equal(t, first, *st.items[n.ID].ReadAt)
}

func TestMarkAllRead(t *testing.T) {
	st := newFakeStore()
	svc := New(st, &fakeConfigs{byOwner: map[int64]*notification.Config{}}, zap.NewNop())
	ctx := context.Background()

	seed(t, st, 7, false)
	seed(t, st, 7, false)
	seed(t, st, 7, true)
	seed(t, st, 9, false)

	n, err := svc.MarkAllRead(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	c, err := svc.UnreadCount(ctx, 7)
	require.NoError(t, err)
	require.Zero(t, c)

	c, err = svc.UnreadCount(ctx, 9)
	require.NoError(t, err)
	require.Equal(t, 1, c)
}

func TestDeleteForeignRow(t *testing.T) {
	st := newFakeStore()
	svc := New(st, &fakeConfigs{byOwner: map[int64]*notification.Config{}}, zap.NewNop())
	ctx := context.Background()

	n := seed(t, st, 7, false)

	require.ErrorIs(t, svc.Delete(ctx, n.ID, 8), pg.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, n.ID, 7))

	got, err := svc.List(ctx, 7, 10)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestPreferencesLazyCreate(t *testing.T) {
	cfgs := &fakeConfigs{byOwner: map[int64]*notification.Config{}}
	svc := New(newFakeStore(), cfgs, zap.NewNop())
	ctx := context.Background()

	cfg, err := svc.Preferences(ctx, 7)
	require.NoError(t, err)
	require.True(t, cfg.NewActivity)
	require.Equal(t, 3, cfg.DeadlineDays)

	cfg.EmailEnabled = true
	require.NoError(t, svc.UpdatePreferences(ctx, cfg))

	got, err := svc.Preferences(ctx, 7)
	require.NoError(t, err)
	require.True(t, got.EmailEnabled)
}
