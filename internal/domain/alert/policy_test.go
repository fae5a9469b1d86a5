package alert

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devjogerio/juris-alerts/internal/domain/notification"
)

func TestPolicyAllowed(t *testing.T) {
	p := DefaultPolicy()
	cfg := DefaultConfig(1)

	require.True(t, p.Allowed(TypeDeadline, cfg))

	cfg.Deadlines = false
	require.False(t, p.Allowed(TypeDeadline, cfg))
	require.True(t, p.Allowed(TypeHearing, cfg))

	// types without a config switch are always allowed
	require.True(t, p.Allowed(TypeReminder, cfg))
	require.True(t, p.Allowed(TypeAnniversary, cfg))

	cfg.Enabled = false
	require.False(t, p.Allowed(TypeHearing, cfg))
	require.False(t, p.Allowed(TypeReminder, cfg))
}

func TestPolicyMapType(t *testing.T) {
	p := DefaultPolicy()

	require.Equal(t, notification.TypeDeadlineCritical, p.MapType(TypeDeadline))
	require.Equal(t, notification.TypeFinancial, p.MapType(TypePayment))
	require.Equal(t, notification.TypeClient, p.MapType(TypeMeeting))
	require.Equal(t, notification.TypeInfo, p.MapType(Type("unknown")))
}

func TestPolicyMapPriority(t *testing.T) {
	p := DefaultPolicy()

	require.Equal(t, notification.PriorityCritical, p.MapPriority(PriorityCritical))
	require.Equal(t, notification.PriorityLow, p.MapPriority(PriorityLow))
	require.Equal(t, notification.PriorityMedium, p.MapPriority(Priority("")))
}
