package academy

import (
	"time"

	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Student represents an enrolled student. The fee engine reads enrollment and
// batch data from here and writes back the fee-cycle anchor on batch changes.
type Student struct {
	shared.BaseEntity
	Name           string
	Phone          string
	Stage          string
	Level          string
	EnrollmentDate time.Time
	BatchID        *uuid.UUID
	FeeCycleAnchor *time.Time
	Active         bool
}

// NewStudent creates a new student enrolled on the given date
func NewStudent(name, stage, level string, enrollmentDate time.Time) (*Student, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Student name cannot be empty")
	}
	if stage == "" || level == "" {
		return nil, shared.NewDomainError("INVALID_STAGE_LEVEL", "Student stage and level are required")
	}
	if enrollmentDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_ENROLLMENT_DATE", "Enrollment date is required")
	}
	return &Student{
		BaseEntity:     shared.NewBaseEntity(),
		Name:           name,
		Stage:          stage,
		Level:          level,
		EnrollmentDate: enrollmentDate,
		Active:         true,
	}, nil
}

// HasBatch reports whether the student is currently assigned to a batch
func (s *Student) HasBatch() bool {
	return s.BatchID != nil && *s.BatchID != uuid.Nil
}

// FeeCycleStart returns the date monthly obligations are counted from:
// the later of the fee-cycle anchor and the enrollment date. When only one
// is present that one is used. A student with neither is an invalid state.
func (s *Student) FeeCycleStart() (time.Time, error) {
	hasAnchor := s.FeeCycleAnchor != nil && !s.FeeCycleAnchor.IsZero()
	hasEnrollment := !s.EnrollmentDate.IsZero()

	switch {
	case hasAnchor && hasEnrollment:
		if s.FeeCycleAnchor.After(s.EnrollmentDate) {
			return *s.FeeCycleAnchor, nil
		}
		return s.EnrollmentDate, nil
	case hasAnchor:
		return *s.FeeCycleAnchor, nil
	case hasEnrollment:
		return s.EnrollmentDate, nil
	default:
		return time.Time{}, ErrMissingAnchor
	}
}

// AssignBatch assigns the student to a batch and resets the fee-cycle anchor
// to the batch start date. Obligation regeneration is the caller's concern.
func (s *Student) AssignBatch(batchID uuid.UUID, batchStart time.Time) error {
	if batchID == uuid.Nil {
		return shared.NewDomainError("INVALID_BATCH", "Batch ID cannot be empty")
	}
	s.BatchID = &batchID
	anchor := batchStart
	s.FeeCycleAnchor = &anchor
	s.Touch()
	return nil
}

// RemoveBatch clears the batch assignment. Existing obligations are left
// untouched; no further obligations are generated until a new batch is set.
func (s *Student) RemoveBatch() {
	s.BatchID = nil
	s.Touch()
}

// SetFeeCycleAnchor overwrites the fee-cycle anchor. Only batch assignment
// and reconciliation's anchor correction may call this.
func (s *Student) SetFeeCycleAnchor(anchor time.Time) {
	s.FeeCycleAnchor = &anchor
	s.Touch()
}

// Deactivate marks the student inactive
func (s *Student) Deactivate() {
	s.Active = false
	s.Touch()
}

// ErrMissingAnchor is returned when a student has neither an enrollment date
// nor a fee-cycle anchor, so no fee cycle can be derived.
var ErrMissingAnchor = shared.NewDomainError("MISSING_ANCHOR", "Student has no enrollment date or fee-cycle anchor")
