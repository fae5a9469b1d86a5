package alert

import (
	"github.com/devjogerio/juris-alerts/internal/domain/notification"
)

// Policy decides whether an alert type may notify a given user and how alert
// attributes translate to notification attributes. All three tables are plain
// data so deployments can override individual entries instead of forking the
// evaluation logic.
type Policy struct {
	// TypeFlags selects the config switch gating each alert type. Types
	// without an entry are always allowed.
	TypeFlags map[Type]func(*Config) bool

	// Priorities maps alert priority to notification priority. Unknown
	// input falls back to medium.
	Priorities map[Priority]notification.Priority

	// Types maps alert type to the notification type emitted for it.
	// Unknown input falls back to info.
	Types map[Type]notification.Type
}

func DefaultPolicy() Policy {
	return Policy{
		TypeFlags: map[Type]func(*Config) bool{
			TypeDeadline: func(c *Config) bool { return c.Deadlines },
			TypeHearing:  func(c *Config) bool { return c.Hearings },
			TypeMeeting:  func(c *Config) bool { return c.Meetings },
			TypePayment:  func(c *Config) bool { return c.Payments },
			TypeTask:     func(c *Config) bool { return c.Tasks },
		},
		Priorities: map[Priority]notification.Priority{
			PriorityCritical: notification.PriorityCritical,
			PriorityHigh:     notification.PriorityHigh,
			PriorityMedium:   notification.PriorityMedium,
			PriorityLow:      notification.PriorityLow,
		},
		Types: map[Type]notification.Type{
			TypeDeadline:       notification.TypeDeadlineCritical,
			TypeHearing:        notification.TypeActivity,
			TypeMeeting:        notification.TypeClient,
			TypeDocumentExpiry: notification.TypeDocument,
			TypePayment:        notification.TypeFinancial,
			TypeTask:           notification.TypeSystem,
			TypeEvent:          notification.TypeSystem,
			TypeReminder:       notification.TypeInfo,
			TypeAnniversary:    notification.TypeClient,
			TypeOther:          notification.TypeInfo,
		},
	}
}

// Allowed reports whether cfg permits alerts of type t. A disabled master
// switch suppresses everything; unmapped types default to allowed.
func (p Policy) Allowed(t Type, cfg *Config) bool {
	if !cfg.Enabled {
		return false
	}
	if flag, ok := p.TypeFlags[t]; ok {
		return flag(cfg)
	}
	return true
}

func (p Policy) MapPriority(pr Priority) notification.Priority {
	if np, ok := p.Priorities[pr]; ok {
		return np
	}
	return notification.PriorityMedium
}

func (p Policy) MapType(t Type) notification.Type {
	if nt, ok := p.Types[t]; ok {
		return nt
	}
	return notification.TypeInfo
}
