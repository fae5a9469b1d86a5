package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devjogerio/juris-alerts/internal/domain/alert"
	"github.com/devjogerio/juris-alerts/internal/domain/notification"
	"github.com/devjogerio/juris-alerts/internal/services/dispatcher"
)

// Service is the business-event surface for alerts. Every mutating operation
// persists first and then calls the dispatcher explicitly; there is no hidden
// signal path. Notification, history and event failures are logged and
// swallowed so the primary action always wins.
type Service struct {
	alerts  alert.Repo
	cfgs    alert.ConfigRepo
	history alert.HistoryRepo
	events  alert.Events
	disp    *dispatcher.Dispatcher
	policy  alert.Policy
	now     func() time.Time
	log     *zap.Logger
}

func New(alerts alert.Repo, cfgs alert.ConfigRepo, disp *dispatcher.Dispatcher, log *zap.Logger) *Service {
	return &Service{
		alerts: alerts,
		cfgs:   cfgs,
		disp:   disp,
		policy: alert.DefaultPolicy(),
		now:    func() time.Time { return time.Now().UTC() },
		log:    log,
	}
}

func (s *Service) WithHistory(h alert.HistoryRepo) *Service { s.history = h; return s }
func (s *Service) WithEvents(e alert.Events) *Service      { s.events = e; return s }
func (s *Service) WithPolicy(p alert.Policy) *Service      { s.policy = p; return s }
func (s *Service) WithNow(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

type CreateInput struct {
	OwnerID        int64
	Title          string
	Body           string
	Type           alert.Type
	Priority       alert.Priority
	TriggerAt      time.Time
	DueAt          *time.Time
	AdvanceMinutes *int
	Recurring      bool
	Frequency      alert.Frequency
	NotifyByEmail  bool
	ActionURL      string
}

// Create persists a new alert unless the owner's configuration suppresses
// the alert type, in which case it returns (nil, nil).
func (s *Service) Create(ctx context.Context, in CreateInput) (*alert.Alert, error) {
	cfg, err := s.cfgs.GetOrCreate(ctx, in.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("alert config: %w", err)
	}

	if in.Type == "" {
		in.Type = alert.TypeReminder
	}
	if !s.policy.Allowed(in.Type, cfg) {
		return nil, nil
	}

	if in.Priority == "" {
		in.Priority = alert.PriorityMedium
	}
	if in.TriggerAt.IsZero() {
		in.TriggerAt = s.now()
	}
	advance := cfg.AdvanceMinutes
	if in.AdvanceMinutes != nil {
		advance = *in.AdvanceMinutes
	}

	a := &alert.Alert{
		ID:             uuid.New(),
		OwnerID:        in.OwnerID,
		Title:          in.Title,
		Body:           in.Body,
		Type:           in.Type,
		Priority:       in.Priority,
		Status:         alert.StatusActive,
		TriggerAt:      in.TriggerAt,
		DueAt:          in.DueAt,
		AdvanceMinutes: advance,
		Recurring:      in.Recurring,
		Frequency:      in.Frequency,
		NotifyByEmail:  in.NotifyByEmail,
		ActionURL:      in.ActionURL,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := s.alerts.Create(ctx, a); err != nil {
		return nil, err
	}

	s.notify(ctx, a, dispatcher.Input{
		OwnerID:     a.OwnerID,
		Type:        s.policy.MapType(a.Type),
		Priority:    s.policy.MapPriority(a.Priority),
		Title:       "New alert: " + a.Title,
		Body:        fmt.Sprintf("A new alert is scheduled for %s.", a.TriggerAt.Format("2006-01-02 15:04")),
		ActionURL:   alertURL(a.ID),
		RelatedType: "alert",
		RelatedID:   a.ID.String(),
	})
	s.record(ctx, a, alert.HistoryCreated, "")
	s.publish(ctx, "alert.created", a)

	return a, nil
}

// Typed builders for the common firm workflows. Each is a thin preset over
// Create; the owner's configuration can still suppress the result.

// CreateDeadlineAlert schedules a high-priority deadline reminder that
// triggers one day ahead of the due time.
func (s *Service) CreateDeadlineAlert(ctx context.Context, ownerID int64, title string, due time.Time) (*alert.Alert, error) {
	return s.Create(ctx, CreateInput{
		OwnerID:   ownerID,
		Title:     title,
		Type:      alert.TypeDeadline,
		Priority:  alert.PriorityHigh,
		TriggerAt: due.Add(-24 * time.Hour),
		DueAt:     &due,
	})
}

func (s *Service) CreateHearingAlert(ctx context.Context, ownerID int64, title string, at time.Time) (*alert.Alert, error) {
	return s.Create(ctx, CreateInput{
		OwnerID:   ownerID,
		Title:     title,
		Type:      alert.TypeHearing,
		Priority:  alert.PriorityHigh,
		TriggerAt: at,
	})
}

func (s *Service) CreateMeetingAlert(ctx context.Context, ownerID int64, title string, at time.Time) (*alert.Alert, error) {
	return s.Create(ctx, CreateInput{
		OwnerID:   ownerID,
		Title:     title,
		Type:      alert.TypeMeeting,
		TriggerAt: at,
	})
}

func (s *Service) CreatePaymentAlert(ctx context.Context, ownerID int64, title string, due time.Time) (*alert.Alert, error) {
	return s.Create(ctx, CreateInput{
		OwnerID:   ownerID,
		Title:     title,
		Type:      alert.TypePayment,
		Priority:  alert.PriorityHigh,
		TriggerAt: due.Add(-24 * time.Hour),
		DueAt:     &due,
	})
}

// Complete marks an owned alert as done and emits a low-priority success
// notification.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, ownerID int64) (*alert.Alert, error) {
	a, err := s.alerts.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if err := a.Complete(s.now()); err != nil {
		return nil, err
	}
	if err := s.alerts.Update(ctx, a); err != nil {
		return nil, err
	}

	s.notify(ctx, a, dispatcher.Input{
		OwnerID:     a.OwnerID,
		Type:        notification.TypeSuccess,
		Priority:    notification.PriorityLow,
		Title:       "Alert completed",
		Body:        fmt.Sprintf("The alert %q was marked as completed.", a.Title),
		ActionURL:   alertURL(a.ID),
		RelatedType: "alert",
		RelatedID:   a.ID.String(),
	})
	s.record(ctx, a, alert.HistoryCompleted, "")
	s.publish(ctx, "alert.completed", a)
	return a, nil
}

// Postpone moves an owned alert to a new trigger time. Targets in the past
// are rejected.
func (s *Service) Postpone(ctx context.Context, id uuid.UUID, ownerID int64, newTrigger time.Time) (*alert.Alert, error) {
	a, err := s.alerts.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	prev := a.TriggerAt
	if err := a.Postpone(newTrigger, s.now()); err != nil {
		return nil, err
	}
	if err := s.alerts.Update(ctx, a); err != nil {
		return nil, err
	}

	s.notify(ctx, a, dispatcher.Input{
		OwnerID:  a.OwnerID,
		Type:     notification.TypeWarning,
		Priority: notification.PriorityMedium,
		Title:    "Alert postponed",
		Body: fmt.Sprintf("The alert %q was postponed from %s to %s.",
			a.Title, prev.Format("2006-01-02 15:04"), newTrigger.Format("2006-01-02 15:04")),
		ActionURL:   alertURL(a.ID),
		RelatedType: "alert",
		RelatedID:   a.ID.String(),
	})
	s.record(ctx, a, alert.HistoryPostponed, "from "+prev.Format(time.RFC3339))
	s.publish(ctx, "alert.postponed", a)
	return a, nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, ownerID int64) (*alert.Alert, error) {
	a, err := s.alerts.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if err := a.Cancel(); err != nil {
		return nil, err
	}
	if err := s.alerts.Update(ctx, a); err != nil {
		return nil, err
	}

	s.notify(ctx, a, dispatcher.Input{
		OwnerID:     a.OwnerID,
		Type:        notification.TypeWarning,
		Priority:    notification.PriorityLow,
		Title:       "Alert cancelled",
		Body:        fmt.Sprintf("The alert %q was cancelled.", a.Title),
		ActionURL:   alertURL(a.ID),
		RelatedType: "alert",
		RelatedID:   a.ID.String(),
	})
	s.record(ctx, a, alert.HistoryCancelled, "")
	s.publish(ctx, "alert.cancelled", a)
	return a, nil
}

// Reactivate returns a cancelled or postponed alert to the active state,
// making it visible to the sweep again.
func (s *Service) Reactivate(ctx context.Context, id uuid.UUID, ownerID int64) (*alert.Alert, error) {
	a, err := s.alerts.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if err := a.Reactivate(); err != nil {
		return nil, err
	}
	if err := s.alerts.Update(ctx, a); err != nil {
		return nil, err
	}

	s.record(ctx, a, alert.HistoryReactivated, "")
	s.publish(ctx, "alert.reactivated", a)
	return a, nil
}

// Delete removes an owned alert. The "deleted" notification goes out first,
// best-effort, because afterwards there is nothing left to describe.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, ownerID int64) error {
	a, err := s.alerts.GetOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}

	s.notify(ctx, a, dispatcher.Input{
		OwnerID:     a.OwnerID,
		Type:        notification.TypeWarning,
		Priority:    notification.PriorityLow,
		Title:       "Alert deleted",
		Body:        fmt.Sprintf("The alert %q was removed.", a.Title),
		RelatedType: "alert",
		RelatedID:   a.ID.String(),
	})
	s.publish(ctx, "alert.deleted", a)

	return s.alerts.Delete(ctx, a.ID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, ownerID int64) (*alert.Alert, error) {
	return s.alerts.GetOwned(ctx, id, ownerID)
}

func (s *Service) List(ctx context.Context, ownerID int64, status alert.Status) ([]*alert.Alert, error) {
	return s.alerts.ListByOwner(ctx, ownerID, status)
}

func (s *Service) Stats(ctx context.Context, ownerID int64) (map[alert.Status]int, error) {
	return s.alerts.CountByStatus(ctx, ownerID)
}

func (s *Service) History(ctx context.Context, id uuid.UUID, ownerID int64, limit int) ([]*alert.HistoryEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	if _, err := s.alerts.GetOwned(ctx, id, ownerID); err != nil {
		return nil, err
	}
	return s.history.ListByAlert(ctx, id, limit)
}

func (s *Service) notify(ctx context.Context, a *alert.Alert, in dispatcher.Input) {
	if _, err := s.disp.Dispatch(ctx, in); err != nil {
		s.log.Warn("alert notification dispatch failed",
			zap.String("alert_id", a.ID.String()), zap.Error(err))
	}
}

func (s *Service) record(ctx context.Context, a *alert.Alert, action alert.HistoryAction, detail string) {
	if s.history == nil {
		return
	}
	e := &alert.HistoryEntry{AlertID: a.ID, Action: action, Detail: detail, ActorID: a.OwnerID}
	if err := s.history.Append(ctx, e); err != nil {
		s.log.Warn("alert history append failed",
			zap.String("alert_id", a.ID.String()), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, event string, a *alert.Alert) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLifecycle(ctx, event, a); err != nil {
		s.log.Warn("alert event publish failed",
			zap.String("alert_id", a.ID.String()),
			zap.String("event", event), zap.Error(err))
	}
}

func alertURL(id uuid.UUID) string { return "/alerts/" + id.String() + "/" }
