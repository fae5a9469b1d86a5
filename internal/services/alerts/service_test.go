package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devjogerio/juris-alerts/internal/domain/alert"
	"github.com/devjogerio/juris-alerts/internal/domain/notification"
	"github.com/devjogerio/juris-alerts/internal/services/dispatcher"
)

type fakeAlertRepo struct {
	alerts map[uuid.UUID]*alert.Alert
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{alerts: map[uuid.UUID]*alert.Alert{}}
}

func (f *fakeAlertRepo) Create(_ context.Context, a *alert.Alert) error {
	f.alerts[a.ID] = a
	return nil
}

func (f *fakeAlertRepo) GetByID(_ context.Context, id uuid.UUID) (*alert.Alert, error) {
	a, ok := f.alerts[id]
	if !ok {
		return nil, errors.New("alert not found")
	}
	return a, nil
}

func (f *fakeAlertRepo) GetOwned(_ context.Context, id uuid.UUID, ownerID int64) (*alert.Alert, error) {
	a, ok := f.alerts[id]
	if !ok || a.OwnerID != ownerID {
		return nil, errors.New("alert not found")
	}
	return a, nil
}

func (f *fakeAlertRepo) ListByOwner(_ context.Context, ownerID int64, status alert.Status) ([]*alert.Alert, error) {
	var out []*alert.Alert
	for _, a := range f.alerts {
		if a.OwnerID == ownerID && (status == "" || a.Status == status) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlertRepo) Update(_ context.Context, a *alert.Alert) error {
	f.alerts[a.ID] = a
	return nil
}

func (f *fakeAlertRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.alerts, id)
	return nil
}

func (f *fakeAlertRepo) CountByStatus(_ context.Context, ownerID int64) (map[alert.Status]int, error) {
	out := map[alert.Status]int{}
	for _, a := range f.alerts {
		if a.OwnerID == ownerID {
			out[a.Status]++
		}
	}
	return out, nil
}

func (f *fakeAlertRepo) FetchDueUnnotified(context.Context, time.Time, int) ([]*alert.Alert, error) {
	return nil, nil
}

func (f *fakeAlertRepo) FetchAdvanceCandidates(context.Context, time.Time, int) ([]*alert.Alert, error) {
	return nil, nil
}

func (f *fakeAlertRepo) FetchRecurringElapsed(context.Context, time.Time, int) ([]*alert.Alert, error) {
	return nil, nil
}

func (f *fakeAlertRepo) MarkDueNotified(context.Context, uuid.UUID) (bool, error) { return false, nil }

func (f *fakeAlertRepo) MarkAdvanceNotified(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeAlertRepo) CompleteIfActive(context.Context, uuid.UUID, time.Time) (bool, error) {
	return false, nil
}

type fakeAlertConfigs struct{ cfgs map[int64]*alert.Config }

func (f *fakeAlertConfigs) GetOrCreate(_ context.Context, ownerID int64) (*alert.Config, error) {
	if c, ok := f.cfgs[ownerID]; ok {
		return c, nil
	}
	c := alert.DefaultConfig(ownerID)
	if f.cfgs == nil {
		f.cfgs = map[int64]*alert.Config{}
	}
	f.cfgs[ownerID] = c
	return c, nil
}

func (f *fakeAlertConfigs) Update(_ context.Context, c *alert.Config) error {
	f.cfgs[c.OwnerID] = c
	return nil
}

type fakeHistory struct{ entries []*alert.HistoryEntry }

func (f *fakeHistory) Append(_ context.Context, e *alert.HistoryEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeHistory) ListByAlert(_ context.Context, id uuid.UUID, _ int) ([]*alert.HistoryEntry, error) {
	var out []*alert.HistoryEntry
	for _, e := range f.entries {
		if e.AlertID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeNotifStore struct{ created []*notification.Notification }

func (f *fakeNotifStore) Create(_ context.Context, n *notification.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotifStore) GetByID(context.Context, uuid.UUID) (*notification.Notification, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeNotifStore) ListByOwner(context.Context, int64, int) ([]*notification.Notification, error) {
	return nil, nil
}

func (f *fakeNotifStore) ListUnread(context.Context, int64, int) ([]*notification.Notification, error) {
	return nil, nil
}

func (f *fakeNotifStore) CountUnread(context.Context, int64) (int, error) { return 0, nil }

func (f *fakeNotifStore) MarkRead(context.Context, uuid.UUID, int64, time.Time) error { return nil }

func (f *fakeNotifStore) MarkAllRead(context.Context, int64, time.Time) (int, error) { return 0, nil }

func (f *fakeNotifStore) Delete(context.Context, uuid.UUID, int64) error { return nil }

func (f *fakeNotifStore) DeleteExpired(context.Context, time.Time) (int, error) { return 0, nil }

func (f *fakeNotifStore) ExistsForRelated(context.Context, int64, notification.Type, string, string) (bool, error) {
	return false, nil
}

type fakeNotifConfigs struct{}

func (fakeNotifConfigs) GetOrCreate(_ context.Context, ownerID int64) (*notification.Config, error) {
	return notification.DefaultConfig(ownerID), nil
}

func (fakeNotifConfigs) Update(context.Context, *notification.Config) error { return nil }

type harness struct {
	svc     *Service
	repo    *fakeAlertRepo
	cfgs    *fakeAlertConfigs
	notifs  *fakeNotifStore
	history *fakeHistory
}

func newHarness() *harness {
	repo := newFakeAlertRepo()
	cfgs := &fakeAlertConfigs{}
	notifs := &fakeNotifStore{}
	history := &fakeHistory{}
	disp := dispatcher.New(fakeNotifConfigs{}, notifs, zap.NewNop())
	svc := New(repo, cfgs, disp, zap.NewNop()).WithHistory(history)
	return &harness{svc: svc, repo: repo, cfgs: cfgs, notifs: notifs, history: history}
}

func TestCreateAlert(t *testing.T) {
	h := newHarness()
	trigger := time.Now().UTC().Add(24 * time.Hour)

	a, err := h.svc.Create(context.Background(), CreateInput{
		OwnerID:   1,
		Title:     "court hearing",
		Type:      alert.TypeHearing,
		TriggerAt: trigger,
	})
	require.NoError(t, err)
	require.NotNil(t, a)
	require.Equal(t, alert.StatusActive, a.Status)
	require.Equal(t, alert.PriorityMedium, a.Priority)
	require.Equal(t, 60, a.AdvanceMinutes, "advance defaults from owner config")
	require.Contains(t, h.repo.alerts, a.ID)

	require.Len(t, h.notifs.created, 1)
	require.Equal(t, notification.TypeActivity, h.notifs.created[0].Type)
	require.Equal(t, a.ID.String(), h.notifs.created[0].RelatedID)

	require.Len(t, h.history.entries, 1)
	require.Equal(t, alert.HistoryCreated, h.history.entries[0].Action)
}

func TestCreateSuppressedByConfig(t *testing.T) {
	h := newHarness()
	cfg := alert.DefaultConfig(1)
	cfg.Hearings = false
	h.cfgs.cfgs = map[int64]*alert.Config{1: cfg}

	a, err := h.svc.Create(context.Background(), CreateInput{
		OwnerID: 1,
		Title:   "court hearing",
		Type:    alert.TypeHearing,
	})
	require.NoError(t, err)
	require.Nil(t, a)
	require.Empty(t, h.repo.alerts)
	require.Empty(t, h.notifs.created)
}

func TestCreateAdvanceOverride(t *testing.T) {
	h := newHarness()
	advance := 15

	a, err := h.svc.Create(context.Background(), CreateInput{
		OwnerID:        1,
		Title:          "quick call",
		Type:           alert.TypeReminder,
		AdvanceMinutes: &advance,
	})
	require.NoError(t, err)
	require.Equal(t, 15, a.AdvanceMinutes)
}

func TestCreateRejectsDueBeforeTrigger(t *testing.T) {
	h := newHarness()
	trigger := time.Now().UTC().Add(24 * time.Hour)
	due := trigger.Add(-time.Hour)

	_, err := h.svc.Create(context.Background(), CreateInput{
		OwnerID:   1,
		Title:     "bad window",
		Type:      alert.TypeDeadline,
		TriggerAt: trigger,
		DueAt:     &due,
	})
	require.ErrorIs(t, err, alert.ErrDueBeforeTrigger)
	require.Empty(t, h.repo.alerts)
}

func TestComplete(t *testing.T) {
	h := newHarness()
	a, err := h.svc.Create(context.Background(), CreateInput{
		OwnerID: 1, Title: "draft contract", Type: alert.TypeTask,
	})
	require.NoError(t, err)
	h.notifs.created = nil

	done, err := h.svc.Complete(context.Background(), a.ID, 1)
	require.NoError(t, err)
	require.Equal(t, alert.StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	require.Len(t, h.notifs.created, 1)
	require.Equal(t, notification.TypeSuccess, h.notifs.created[0].Type)
}

func TestCompleteWrongOwner(t *testing.T) {
	h := newHarness()
	a, err := h.svc.Create(context.Background(), CreateInput{
		OwnerID: 1, Title: "draft contract", Type: alert.TypeTask,
	})
	require.NoError(t, err)

	_, err = h.svc.Complete(context.Background(), a.ID, 2)
	require.Error(t, err)
	require.Equal(t, alert.StatusActive, h.repo.alerts[a.ID].Status)
}

func TestPostpone(t *testing.T) {
	h := newHarness()
	a, err := h.svc.Create(context.Background(), CreateInput{
		OwnerID: 1, Title: "deposition", Type: alert.TypeMeeting,
	})
	require.NoError(t, err)

	_, err = h.svc.Postpone(context.Background(), a.ID, 1, time.Now().UTC().Add(-time.Hour))
	require.ErrorIs(t, err, alert.ErrPostponeToPast)

	target := time.Now().UTC().Add(72 * time.Hour)
	moved, err := h.svc.Postpone(context.Background(), a.ID, 1, target)
	require.NoError(t, err)
	require.Equal(t, alert.StatusPostponed, moved.Status)
	require.Equal(t, target, moved.TriggerAt)
}

func TestDelete(t *testing.T) {
	h := newHarness()
	a, err := h.svc.Create(context.Background(), CreateInput{
		OwnerID: 1, Title: "old reminder", Type: alert.TypeReminder,
	})
	require.NoError(t, err)
	h.notifs.created = nil

	require.NoError(t, h.svc.Delete(context.Background(), a.ID, 1))
	require.NotContains(t, h.repo.alerts, a.ID)
	require.Len(t, h.notifs.created, 1)
	require.Equal(t, notification.TypeWarning, h.notifs.created[0].Type)
}

func TestTypedBuilders(t *testing.T) {
	h := newHarness()
	due := time.Now().UTC().Add(7 * 24 * time.Hour)

	a, err := h.svc.CreateDeadlineAlert(context.Background(), 1, "answer complaint", due)
	require.NoError(t, err)
	require.Equal(t, alert.TypeDeadline, a.Type)
	require.Equal(t, alert.PriorityHigh, a.Priority)
	require.Equal(t, due.Add(-24*time.Hour), a.TriggerAt)
	require.NotNil(t, a.DueAt)
	require.Equal(t, due, *a.DueAt)

	m, err := h.svc.CreateMeetingAlert(context.Background(), 1, "client intake", due)
	require.NoError(t, err)
	require.Equal(t, alert.TypeMeeting, m.Type)
	require.Equal(t, alert.PriorityMedium, m.Priority)
	require.Nil(t, m.DueAt)
}

func TestStats(t *testing.T) {
	h := newHarness()
	a, err := h.svc.Create(context.Background(), CreateInput{
		OwnerID: 1, Title: "one", Type: alert.TypeTask,
	})
	require.NoError(t, err)
	_, err = h.svc.Create(context.Background(), CreateInput{
		OwnerID: 1, Title: "two", Type: alert.TypeTask,
	})
	require.NoError(t, err)

	_, err = h.svc.Complete(context.Background(), a.ID, 1)
	require.NoError(t, err)

	stats, err := h.svc.Stats(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, stats[alert.StatusActive])
	require.Equal(t, 1, stats[alert.StatusCompleted])
}
