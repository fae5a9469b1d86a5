package alert

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeDeadline       Type = "deadline"
	TypeHearing        Type = "hearing"
	TypeMeeting        Type = "meeting"
	TypeDocumentExpiry Type = "document_expiry"
	TypePayment        Type = "payment"
	TypeTask           Type = "task"
	TypeEvent          Type = "event"
	TypeReminder       Type = "reminder"
	TypeAnniversary    Type = "anniversary"
	TypeOther          Type = "other"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusPostponed Status = "postponed"
)

type Frequency string

const (
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
	FreqYearly  Frequency = "yearly"
)

var (
	ErrDueBeforeTrigger  = errors.New("due time before trigger time")
	ErrMissingFrequency  = errors.New("recurring alert without frequency")
	ErrPostponeToPast    = errors.New("postpone target in the past")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Alert is a scheduled reminder owned by a user. AdvanceNotified and
// DueNotified are set once per alert instance and never reset except by
// an explicit re-open, which is what keeps repeated sweeps idempotent.
type Alert struct {
	ID             uuid.UUID  `json:"id"`
	OwnerID        int64      `json:"owner_id"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	Type           Type       `json:"type"`
	Priority       Priority   `json:"priority"`
	Status         Status     `json:"status"`
	TriggerAt      time.Time  `json:"trigger_at"`
	DueAt          *time.Time `json:"due_at"`
	AdvanceMinutes int        `json:"advance_minutes"`
	Recurring      bool       `json:"recurring"`
	Frequency      Frequency  `json:"frequency"`
	NotifyByEmail  bool       `json:"notify_by_email"`
	ActionURL      string     `json:"action_url"`

	AdvanceNotified bool `json:"advance_notified"`
	DueNotified     bool `json:"due_notified"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (a *Alert) Validate() error {
	if a.DueAt != nil && a.DueAt.Before(a.TriggerAt) {
		return ErrDueBeforeTrigger
	}
	if a.Recurring && a.Frequency == "" {
		return ErrMissingFrequency
	}
	return nil
}

// NotifyAt is the instant from which the advance notification is due.
func (a *Alert) NotifyAt() time.Time {
	return a.TriggerAt.Add(-time.Duration(a.AdvanceMinutes) * time.Minute)
}

func (a *Alert) Overdue(now time.Time) bool {
	return a.DueAt != nil && now.After(*a.DueAt)
}

func (a *Alert) Complete(now time.Time) error {
	if a.Status != StatusActive && a.Status != StatusPostponed {
		return ErrInvalidTransition
	}
	a.Status = StatusCompleted
	t := now
	a.CompletedAt = &t
	return nil
}

func (a *Alert) Postpone(newTrigger, now time.Time) error {
	if a.Status != StatusActive && a.Status != StatusPostponed {
		return ErrInvalidTransition
	}
	if newTrigger.Before(now) {
		return ErrPostponeToPast
	}
	a.TriggerAt = newTrigger
	a.Status = StatusPostponed
	return nil
}

func (a *Alert) Cancel() error {
	if a.Status == StatusCompleted || a.Status == StatusCancelled {
		return ErrInvalidTransition
	}
	a.Status = StatusCancelled
	return nil
}

// Reactivate returns a cancelled or postponed alert to the active state so
// the sweep picks it up again. Dedup flags are left as-is: re-opening is the
// only path that may clear them, and that is a separate administrative call.
func (a *Alert) Reactivate() error {
	if a.Status != StatusCancelled && a.Status != StatusPostponed {
		return ErrInvalidTransition
	}
	a.Status = StatusActive
	return nil
}

// NextInstance clones the alert for the next occurrence of a recurring
// schedule: same content, new id, fresh dedup flags, status active.
func (a *Alert) NextInstance(trigger time.Time) *Alert {
	next := &Alert{
		ID:             uuid.New(),
		OwnerID:        a.OwnerID,
		Title:          a.Title,
		Body:           a.Body,
		Type:           a.Type,
		Priority:       a.Priority,
		Status:         StatusActive,
		TriggerAt:      trigger,
		AdvanceMinutes: a.AdvanceMinutes,
		Recurring:      true,
		Frequency:      a.Frequency,
		NotifyByEmail:  a.NotifyByEmail,
		ActionURL:      a.ActionURL,
	}
	if a.DueAt != nil {
		due := trigger.Add(a.DueAt.Sub(a.TriggerAt))
		next.DueAt = &due
	}
	return next
}

// Config holds per-user alert preferences. QuietStart/QuietEnd and Weekends
// are persisted but not consulted by the sweep; the delivery window was never
// enforced upstream and stored schedules rely on that.
type Config struct {
	OwnerID        int64     `json:"owner_id"`
	Enabled        bool      `json:"enabled"`
	Deadlines      bool      `json:"deadlines"`
	Hearings       bool      `json:"hearings"`
	Meetings       bool      `json:"meetings"`
	Payments       bool      `json:"payments"`
	Tasks          bool      `json:"tasks"`
	EmailEnabled   bool      `json:"email_enabled"`
	PushEnabled    bool      `json:"push_enabled"`
	AdvanceMinutes int       `json:"advance_minutes"`
	QuietStart     string    `json:"quiet_start"`
	QuietEnd       string    `json:"quiet_end"`
	Weekends       bool      `json:"weekends"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func DefaultConfig(ownerID int64) *Config {
	return &Config{
		OwnerID:        ownerID,
		Enabled:        true,
		Deadlines:      true,
		Hearings:       true,
		Meetings:       true,
		Payments:       true,
		Tasks:          true,
		PushEnabled:    true,
		AdvanceMinutes: 60,
		QuietStart:     "08:00",
		QuietEnd:       "18:00",
	}
}

type HistoryAction string

const (
	HistoryCreated     HistoryAction = "created"
	HistoryEdited      HistoryAction = "edited"
	HistoryCompleted   HistoryAction = "completed"
	HistoryCancelled   HistoryAction = "cancelled"
	HistoryPostponed   HistoryAction = "postponed"
	HistoryReactivated HistoryAction = "reactivated"
	HistoryFired       HistoryAction = "fired"
	HistoryDeleted     HistoryAction = "deleted"
)

// HistoryEntry is a best-effort audit record; writes must never fail the
// operation they describe.
type HistoryEntry struct {
	ID      int64         `json:"id"`
	AlertID uuid.UUID     `json:"alert_id"`
	Action  HistoryAction `json:"action"`
	Detail  string        `json:"detail"`
	ActorID int64         `json:"actor_id"`
	At      time.Time     `json:"at"`
}
