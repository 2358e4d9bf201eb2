package academy

import (
	"time"

	"github.com/coachdesk/backend/internal/domain/academy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateStudentRequest carries the fields for enrolling a student
type CreateStudentRequest struct {
	Name           string     `json:"name" binding:"required"`
	Phone          string     `json:"phone"`
	Stage          string     `json:"stage" binding:"required"`
	Level          string     `json:"level" binding:"required"`
	EnrollmentDate time.Time  `json:"enrollment_date" binding:"required"`
	BatchID        *uuid.UUID `json:"batch_id"`
}

// UpdateStudentRequest carries the mutable student fields. Nil pointers
// leave the field unchanged.
type UpdateStudentRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Stage *string `json:"stage"`
	Level *string `json:"level"`
}

// StudentResponse represents a student in service responses
type StudentResponse struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone,omitempty"`
	Stage          string     `json:"stage"`
	Level          string     `json:"level"`
	EnrollmentDate time.Time  `json:"enrollment_date"`
	BatchID        *uuid.UUID `json:"batch_id,omitempty"`
	FeeCycleAnchor *time.Time `json:"fee_cycle_anchor,omitempty"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToStudentResponse converts a domain student
func ToStudentResponse(s *academy.Student) StudentResponse {
	return StudentResponse{
		ID:             s.ID,
		Name:           s.Name,
		Phone:          s.Phone,
		Stage:          s.Stage,
		Level:          s.Level,
		EnrollmentDate: s.EnrollmentDate,
		BatchID:        s.BatchID,
		FeeCycleAnchor: s.FeeCycleAnchor,
		Active:         s.Active,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

// DeleteStudentResult reports what the cascade removed along with the student
type DeleteStudentResult struct {
	ObligationsDeleted   int64 `json:"obligations_deleted"`
	LedgerEntriesDeleted int64 `json:"ledger_entries_deleted"`
}

// CreateBatchRequest carries the fields for opening a batch
type CreateBatchRequest struct {
	Name      string    `json:"name" binding:"required"`
	Stage     string    `json:"stage" binding:"required"`
	Level     string    `json:"level" binding:"required"`
	StartDate time.Time `json:"start_date" binding:"required"`
	Schedule  string    `json:"schedule"`
	Capacity  int       `json:"capacity" binding:"required,gt=0"`
}

// BatchResponse represents a batch in service responses
type BatchResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Stage     string    `json:"stage"`
	Level     string    `json:"level"`
	StartDate time.Time `json:"start_date"`
	Schedule  string    `json:"schedule,omitempty"`
	Capacity  int       `json:"capacity"`
	Enrolled  int64     `json:"enrolled"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToBatchResponse converts a domain batch with its current enrollment count
func ToBatchResponse(b *academy.Batch, enrolled int64) BatchResponse {
	return BatchResponse{
		ID:        b.ID,
		Name:      b.Name,
		Stage:     b.Stage,
		Level:     b.Level,
		StartDate: b.StartDate,
		Schedule:  b.Schedule,
		Capacity:  b.Capacity,
		Enrolled:  enrolled,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// CreateCourseRequest carries the fields for a course configuration
type CreateCourseRequest struct {
	Name           string          `json:"name" binding:"required"`
	Stage          string          `json:"stage" binding:"required"`
	Level          string          `json:"level" binding:"required"`
	MonthlyFee     decimal.Decimal `json:"monthly_fee" binding:"required"`
	DurationMonths int             `json:"duration_months" binding:"gte=0"`
}

// UpdateCourseRequest carries the mutable course fields
type UpdateCourseRequest struct {
	Name           *string          `json:"name"`
	MonthlyFee     *decimal.Decimal `json:"monthly_fee"`
	DurationMonths *int             `json:"duration_months"`
}

// CourseResponse represents a course configuration in service responses
type CourseResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Stage          string          `json:"stage"`
	Level          string          `json:"level"`
	MonthlyFee     decimal.Decimal `json:"monthly_fee"`
	DurationMonths int             `json:"duration_months"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToCourseResponse converts a domain course
func ToCourseResponse(c *academy.Course) CourseResponse {
	return CourseResponse{
		ID:             c.ID,
		Name:           c.Name,
		Stage:          c.Stage,
		Level:          c.Level,
		MonthlyFee:     c.MonthlyFee,
		DurationMonths: c.DurationMonths,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
