package academy

import (
	"context"

	"github.com/coachdesk/backend/internal/domain/academy"
	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BatchService handles batch scheduling operations
type BatchService struct {
	batches  academy.BatchRepository
	students academy.StudentRepository
}

// NewBatchService creates a new BatchService
func NewBatchService(batches academy.BatchRepository, students academy.StudentRepository) *BatchService {
	return &BatchService{
		batches:  batches,
		students: students,
	}
}

// Create opens a new batch
func (s *BatchService) Create(ctx context.Context, req CreateBatchRequest) (*BatchResponse, error) {
	batch, err := academy.NewBatch(req.Name, req.Stage, req.Level, req.StartDate, req.Capacity)
	if err != nil {
		return nil, err
	}
	batch.Schedule = req.Schedule

	if err := s.batches.Save(ctx, batch); err != nil {
		return nil, err
	}
	resp := ToBatchResponse(batch, 0)
	return &resp, nil
}

// Get returns one batch with its current enrollment count
func (s *BatchService) Get(ctx context.Context, id uuid.UUID) (*BatchResponse, error) {
	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.students.CountInBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBatchResponse(batch, enrolled)
	return &resp, nil
}

// List returns batches with pagination
func (s *BatchService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[BatchResponse], error) {
	batches, total, err := s.batches.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]BatchResponse, len(batches))
	for i := range batches {
		enrolled, err := s.students.CountInBatch(ctx, batches[i].ID)
		if err != nil {
			return nil, err
		}
		responses[i] = ToBatchResponse(&batches[i], enrolled)
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Close marks a batch closed to new assignments. Students already in the
// batch keep their assignment and fee cycle.
func (s *BatchService) Close(ctx context.Context, id uuid.UUID) (*BatchResponse, error) {
	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	batch.Close()
	if err := s.batches.Save(ctx, batch); err != nil {
		return nil, err
	}
	enrolled, err := s.students.CountInBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBatchResponse(batch, enrolled)
	return &resp, nil
}
