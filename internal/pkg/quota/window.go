package quota

import "time"

// ISTOffset is the fixed UTC+5:30 offset of the platform's billing calendar.
// Call quotas roll over at midnight IST regardless of where the server runs;
// a fixed offset avoids any dependency on the host timezone database.
const ISTOffset = 5*time.Hour + 30*time.Minute

// MonthWindowStart returns the UTC instant at which the calendar month
// containing now begins, evaluated at the given fixed offset. The result is
// the inclusive lower bound of the counting window; there is no upper bound,
// the window runs from month start through now.
func MonthWindowStart(now time.Time, offset time.Duration) time.Time {
	local := now.UTC().Add(offset)
	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, time.UTC)
	return monthStart.Add(-offset)
}
