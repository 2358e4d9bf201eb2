package fees

import (
	"fmt"
	"time"

	"github.com/coachdesk/backend/internal/domain/shared"
)

// Period is a calendar year-month, the unit one obligation covers.
// Its label form is "YYYY-MM".
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing the given time
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses a "YYYY-MM" label into a Period
func ParsePeriod(label string) (Period, error) {
	t, err := time.Parse("2006-01", label)
	if err != nil {
		return Period{}, shared.NewDomainError("INVALID_PERIOD", fmt.Sprintf("Invalid fee period %q, expected YYYY-MM", label))
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// String returns the period label, e.g. "2025-02"
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// IsZero reports whether the period is the zero value
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Next returns the following calendar month
func (p Period) Next() Period {
	return p.AddMonths(1)
}

// AddMonths returns the period n months after p (n may be negative)
func (p Period) AddMonths(n int) Period {
	t := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return Period{Year: t.Year(), Month: t.Month()}
}

// Before reports whether p is earlier than other
func (p Period) Before(other Period) bool {
	return p.index() < other.index()
}

// After reports whether p is later than other
func (p Period) After(other Period) bool {
	return p.index() > other.index()
}

// MonthsUntil returns the number of calendar months from p to other;
// negative when other is earlier.
func (p Period) MonthsUntil(other Period) int {
	return other.index() - p.index()
}

// IsConsecutive reports whether next is exactly one month after p
func (p Period) IsConsecutive(next Period) bool {
	return p.MonthsUntil(next) == 1
}

// DaysInMonth returns the number of days in the period's month
func (p Period) DaysInMonth() int {
	return time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (p Period) index() int {
	return p.Year*12 + int(p.Month) - 1
}
