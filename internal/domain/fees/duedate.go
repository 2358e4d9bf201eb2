package fees

import "time"

// DueDate maps a fee period and an anchor day-of-month to the calendar due
// date within that month. The due day is min(anchorDay, last day of month),
// so an anchor of 29-31 lands on the last day of shorter months instead of
// rolling over. The result is normalized to end-of-day (23:59:59 UTC) so
// overdue comparisons against a wall-clock instant are unambiguous.
//
// Pure: identical input always yields identical output.
func DueDate(period Period, anchorDay int) time.Time {
	if anchorDay < 1 {
		anchorDay = 1
	}
	day := anchorDay
	if last := period.DaysInMonth(); day > last {
		day = last
	}
	return time.Date(period.Year, period.Month, day, 23, 59, 59, 0, time.UTC)
}

// SameDueDay reports whether two due dates agree at day granularity.
// Reconciliation uses this to decide whether a stored due date needs
// rewriting without being tripped up by time-of-day drift.
func SameDueDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
