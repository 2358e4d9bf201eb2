package academy

import (
	"context"

	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StudentRepository defines the interface for student persistence
type StudentRepository interface {
	// FindByID finds a student by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Student, error)

	// FindAll finds all students with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]Student, int64, error)

	// FindActive finds all active students
	FindActive(ctx context.Context, filter shared.Filter) ([]Student, int64, error)

	// ListIDs returns the IDs of all students, optionally active only.
	// Used by reconciliation sweeps to walk the population without
	// loading every record at once.
	ListIDs(ctx context.Context, activeOnly bool) ([]uuid.UUID, error)

	// CountInBatch counts students currently assigned to a batch
	CountInBatch(ctx context.Context, batchID uuid.UUID) (int64, error)

	// Save creates or updates a student
	Save(ctx context.Context, student *Student) error

	// Delete removes a student record. Cascading removal of fee data is
	// application-level and explicit, never implicit here.
	Delete(ctx context.Context, id uuid.UUID) error
}

// BatchRepository defines the interface for batch persistence
type BatchRepository interface {
	// FindByID finds a batch by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)

	// FindAll finds all batches with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]Batch, int64, error)

	// Save creates or updates a batch
	Save(ctx context.Context, batch *Batch) error
}

// CourseRepository defines the read-only course configuration lookup
type CourseRepository interface {
	// FindByStageLevel finds the course configuration for a stage/level pair
	FindByStageLevel(ctx context.Context, stage, level string) (*Course, error)

	// FindAll finds all course configurations
	FindAll(ctx context.Context, filter shared.Filter) ([]Course, int64, error)

	// Save creates or updates a course configuration
	Save(ctx context.Context, course *Course) error
}
