package academy

import (
	"time"

	"github.com/coachdesk/backend/internal/domain/shared"
)

// BatchStatus represents the lifecycle state of a batch
type BatchStatus string

const (
	BatchStatusActive BatchStatus = "ACTIVE"
	BatchStatusClosed BatchStatus = "CLOSED"
)

// IsValid returns true if the status is a valid BatchStatus
func (s BatchStatus) IsValid() bool {
	return s == BatchStatusActive || s == BatchStatusClosed
}

// Batch represents a scheduled group of students at one stage/level.
// The fee engine consults it only for anchor derivation and transfer
// eligibility checks.
type Batch struct {
	shared.BaseEntity
	Name      string
	Stage     string
	Level     string
	StartDate time.Time
	Schedule  string
	Capacity  int
	Status    BatchStatus
}

// NewBatch creates a new active batch
func NewBatch(name, stage, level string, startDate time.Time, capacity int) (*Batch, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Batch name cannot be empty")
	}
	if stage == "" || level == "" {
		return nil, shared.NewDomainError("INVALID_STAGE_LEVEL", "Batch stage and level are required")
	}
	if startDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_START_DATE", "Batch start date is required")
	}
	if capacity <= 0 {
		return nil, shared.NewDomainError("INVALID_CAPACITY", "Batch capacity must be positive")
	}
	return &Batch{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Stage:      stage,
		Level:      level,
		StartDate:  startDate,
		Capacity:   capacity,
		Status:     BatchStatusActive,
	}, nil
}

// IsOpen reports whether the batch accepts new students
func (b *Batch) IsOpen() bool {
	return b.Status == BatchStatusActive
}

// Accepts reports whether a student at the given stage/level may join
func (b *Batch) Accepts(stage, level string) bool {
	return b.Stage == stage && b.Level == level
}

// Close marks the batch closed to new assignments
func (b *Batch) Close() {
	b.Status = BatchStatusClosed
	b.Touch()
}

// ErrBatchClosed is returned when a transfer targets a batch that no longer
// accepts students.
var ErrBatchClosed = shared.NewDomainError("BATCH_CLOSED", "Batch is closed to new assignments")
