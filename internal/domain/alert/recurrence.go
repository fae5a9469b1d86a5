package alert

import "time"

// NextOccurrence computes the next trigger time for a recurring alert.
// Monthly is a fixed 30-day offset and yearly a fixed 365-day offset; the
// stored schedules were produced with these offsets, so they drift against
// calendar months and leap years rather than being calendar-aware.
// ok is false for an unrecognized frequency and the caller must not roll
// the alert over in that case.
func NextOccurrence(last time.Time, f Frequency) (time.Time, bool) {
	switch f {
	case FreqDaily:
		return last.Add(24 * time.Hour), true
	case FreqWeekly:
		return last.Add(7 * 24 * time.Hour), true
	case FreqMonthly:
		return last.Add(30 * 24 * time.Hour), true
	case FreqYearly:
		return last.Add(365 * 24 * time.Hour), true
	default:
		return time.Time{}, false
	}
}
