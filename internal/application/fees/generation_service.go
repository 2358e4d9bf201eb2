package fees

import (
	"context"
	"time"

	"github.com/coachdesk/backend/internal/domain/fees"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerationService produces monthly fee obligations from enrollment and
// batch timelines.
type GenerationService struct {
	scope   TransactionScope
	locks   *StudentLocks
	logger  *zap.Logger
	ceiling int
	nowFn   func() time.Time
}

// NewGenerationService creates a new GenerationService. A non-positive
// ceiling falls back to DefaultGenerationCeilingMonths.
func NewGenerationService(scope TransactionScope, locks *StudentLocks, logger *zap.Logger, ceilingMonths int) *GenerationService {
	if ceilingMonths <= 0 {
		ceilingMonths = DefaultGenerationCeilingMonths
	}
	return &GenerationService{
		scope:   scope,
		locks:   locks,
		logger:  logger,
		ceiling: ceilingMonths,
		nowFn:   time.Now,
	}
}

// GenerateMissingObligations creates all missing obligations from the
// student's fee-cycle start through the current month. Idempotent: months
// already present are skipped, never overwritten. Fails with
// academy.ErrMissingAnchor when the student has neither enrollment date nor
// anchor, and fees.ErrNoBatchAssigned when no batch is assigned.
func (s *GenerationService) GenerateMissingObligations(ctx context.Context, studentID uuid.UUID) ([]ObligationResponse, error) {
	unlock := s.locks.Lock(studentID)
	defer unlock()

	now := s.nowFn()
	var created []fees.Obligation
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		student, err := repos.Students().FindByID(ctx, studentID)
		if err != nil {
			return err
		}
		if !student.HasBatch() {
			return fees.ErrNoBatchAssigned
		}
		created, err = generateMissing(ctx, repos, student, now, s.ceiling)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(created) > 0 {
		s.logger.Info("generated missing obligations",
			zap.String("student_id", studentID.String()),
			zap.Int("created", len(created)),
		)
	}

	responses := make([]ObligationResponse, len(created))
	for i := range created {
		responses[i] = ToObligationResponse(&created[i], now)
	}
	return responses, nil
}

// GenerateNextObligation rolls the fee cycle forward by one month past the
// student's latest obligation. Returns nil when there is nothing to extend
// or the course duration or ceiling has been reached.
func (s *GenerationService) GenerateNextObligation(ctx context.Context, studentID uuid.UUID) (*ObligationResponse, error) {
	unlock := s.locks.Lock(studentID)
	defer unlock()

	now := s.nowFn()
	var created *fees.Obligation
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		student, err := repos.Students().FindByID(ctx, studentID)
		if err != nil {
			return err
		}
		created, err = generateNext(ctx, repos, student, s.ceiling)
		return err
	})
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, nil
	}
	resp := ToObligationResponse(created, now)
	return &resp, nil
}
