package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextOccurrence(t *testing.T) {
	last := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		freq Frequency
		want time.Time
	}{
		{FreqDaily, last.Add(24 * time.Hour)},
		{FreqWeekly, last.Add(7 * 24 * time.Hour)},
		{FreqMonthly, last.Add(30 * 24 * time.Hour)},
		{FreqYearly, last.Add(365 * 24 * time.Hour)},
	}
	for _, c := range cases {
		got, ok := NextOccurrence(last, c.freq)
		require.True(t, ok, "freq %s", c.freq)
		require.Equal(t, c.want, got, "freq %s", c.freq)
	}
}

func TestNextOccurrenceUnknownFrequency(t *testing.T) {
	_, ok := NextOccurrence(time.Now(), "")
	require.False(t, ok)

	_, ok = NextOccurrence(time.Now(), Frequency("biweekly"))
	require.False(t, ok)
}
