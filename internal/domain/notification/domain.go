package notification

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeDeadlineCritical Type = "deadline_critical"
	TypeDeadlineExpired  Type = "deadline_expired"
	TypeActivity         Type = "activity"
	TypeDocument         Type = "document_upload"
	TypeSystem           Type = "system"
	TypeFinancial        Type = "financial"
	TypeClient           Type = "client"
	TypeCase             Type = "case"
	TypeSuccess          Type = "success"
	TypeError            Type = "error"
	TypeWarning          Type = "warning"
	TypeInfo             Type = "info"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Notification is a persisted user-facing message. RelatedType/RelatedID
// correlate it with the business entity that produced it; together with Type
// they form the dedup key checked before sweep-driven creation.
type Notification struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     int64      `json:"owner_id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Type        Type       `json:"type"`
	Priority    Priority   `json:"priority"`
	Read        bool       `json:"read"`
	ReadAt      *time.Time `json:"read_at"`
	ActionURL   string     `json:"action_url"`
	Icon        string     `json:"icon"`
	RelatedType string     `json:"related_type"`
	RelatedID   string     `json:"related_id"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

func (n *Notification) Expired(now time.Time) bool {
	return n.ExpiresAt != nil && now.After(*n.ExpiresAt)
}

var typeIcons = map[Type]string{
	TypeDeadlineCritical: "bi-exclamation-triangle-fill",
	TypeDeadlineExpired:  "bi-x-circle-fill",
	TypeActivity:         "bi-file-text",
	TypeDocument:         "bi-file-earmark-arrow-up",
	TypeSystem:           "bi-gear",
	TypeFinancial:        "bi-currency-dollar",
	TypeClient:           "bi-person",
	TypeCase:             "bi-folder",
	TypeSuccess:          "bi-check-circle-fill",
	TypeError:            "bi-x-circle-fill",
	TypeWarning:          "bi-exclamation-triangle",
	TypeInfo:             "bi-info-circle",
}

// IconClass resolves the icon hint for rendering, falling back to the
// per-type default.
func (n *Notification) IconClass() string {
	if n.Icon != "" {
		return n.Icon
	}
	if ic, ok := typeIcons[n.Type]; ok {
		return ic
	}
	return "bi-bell"
}

// Config holds per-user notification preferences, one row per user,
// created lazily on first dispatch.
type Config struct {
	OwnerID          int64     `json:"owner_id"`
	DeadlineCritical bool      `json:"deadline_critical"`
	NewActivity      bool      `json:"new_activity"`
	DocumentUpload   bool      `json:"document_upload"`
	Financial        bool      `json:"financial"`
	System           bool      `json:"system"`
	EmailEnabled     bool      `json:"email_enabled"`
	DeadlineDays     int       `json:"deadline_days"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func DefaultConfig(ownerID int64) *Config {
	return &Config{
		OwnerID:          ownerID,
		DeadlineCritical: true,
		NewActivity:      true,
		DocumentUpload:   true,
		Financial:        true,
		System:           true,
		DeadlineDays:     3,
	}
}

// categoryFlags maps a notification type to the config switch that gates it.
// Types without an entry are always delivered.
var categoryFlags = map[Type]func(*Config) bool{
	TypeDeadlineCritical: func(c *Config) bool { return c.DeadlineCritical },
	TypeDeadlineExpired:  func(c *Config) bool { return c.DeadlineCritical },
	TypeActivity:         func(c *Config) bool { return c.NewActivity },
	TypeDocument:         func(c *Config) bool { return c.DocumentUpload },
	TypeFinancial:        func(c *Config) bool { return c.Financial },
	TypeSystem:           func(c *Config) bool { return c.System },
}

// Allowed reports whether the user's config permits a notification of type t.
func (c *Config) Allowed(t Type) bool {
	if flag, ok := categoryFlags[t]; ok {
		return flag(c)
	}
	return true
}
