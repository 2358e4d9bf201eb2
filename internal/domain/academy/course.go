package academy

import (
	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Course maps a (stage, level) pair to the monthly fee and course duration.
// It is read-only to the fee engine: obligations copy the fee at creation
// time and the duration bounds how far obligations may extend.
type Course struct {
	shared.BaseEntity
	Name           string
	Stage          string
	Level          string
	MonthlyFee     decimal.Decimal
	DurationMonths int // 0 means unbounded
}

// NewCourse creates a new course configuration
func NewCourse(name, stage, level string, monthlyFee decimal.Decimal, durationMonths int) (*Course, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Course name cannot be empty")
	}
	if stage == "" || level == "" {
		return nil, shared.NewDomainError("INVALID_STAGE_LEVEL", "Course stage and level are required")
	}
	if monthlyFee.IsNegative() || monthlyFee.IsZero() {
		return nil, shared.NewDomainError("INVALID_FEE", "Monthly fee must be positive")
	}
	if durationMonths < 0 {
		return nil, shared.NewDomainError("INVALID_DURATION", "Course duration cannot be negative")
	}
	return &Course{
		BaseEntity:     shared.NewBaseEntity(),
		Name:           name,
		Stage:          stage,
		Level:          level,
		MonthlyFee:     monthlyFee,
		DurationMonths: durationMonths,
	}, nil
}

// HasDuration reports whether the course bounds how many obligations may exist
func (c *Course) HasDuration() bool {
	return c.DurationMonths > 0
}
