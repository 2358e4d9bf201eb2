package fees

import (
	"context"
	"time"

	"github.com/coachdesk/backend/internal/domain/academy"
	"github.com/coachdesk/backend/internal/domain/fees"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransferService reconciles a student's fee cycle when their batch
// assignment changes
type TransferService struct {
	scope    TransactionScope
	students academy.StudentRepository
	batches  academy.BatchRepository
	locks    *StudentLocks
	logger   *zap.Logger
	ceiling  int
	nowFn    func() time.Time
}

// NewTransferService creates a new TransferService
func NewTransferService(
	scope TransactionScope,
	students academy.StudentRepository,
	batches academy.BatchRepository,
	locks *StudentLocks,
	logger *zap.Logger,
	ceilingMonths int,
) *TransferService {
	if ceilingMonths <= 0 {
		ceilingMonths = DefaultGenerationCeilingMonths
	}
	return &TransferService{
		scope:    scope,
		students: students,
		batches:  batches,
		locks:    locks,
		logger:   logger,
		ceiling:  ceilingMonths,
		nowFn:    time.Now,
	}
}

// OnBatchAssigned assigns a student to a batch, resets the fee-cycle anchor
// to the batch start date, regenerates obligations from the new anchor and
// applies any stored prepaid credit against them, all in one transaction.
// Eligibility pre-checks (batch open, stage/level match, capacity) fail fast
// before any mutation.
func (s *TransferService) OnBatchAssigned(ctx context.Context, studentID, batchID uuid.UUID, actor *uuid.UUID) (*BatchAssignmentResult, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEligibility(ctx, student, batch); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(studentID)
	defer unlock()

	now := s.nowFn()
	result := &BatchAssignmentResult{CreditApplied: decimal.Zero}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		student, err := repos.Students().FindByID(ctx, studentID)
		if err != nil {
			return err
		}
		if err := student.AssignBatch(batchID, batch.StartDate); err != nil {
			return err
		}
		if err := repos.Students().Save(ctx, student); err != nil {
			return err
		}

		created, err := generateMissing(ctx, repos, student, now, s.ceiling)
		if err != nil {
			return err
		}
		result.ObligationsCreated = len(created)

		applied, err := applyCredits(ctx, repos, studentID, now, actor)
		if err != nil {
			return err
		}
		result.CreditApplied = applied.AmountUsed
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("batch assigned",
		zap.String("student_id", studentID.String()),
		zap.String("batch_id", batchID.String()),
		zap.Int("obligations_created", result.ObligationsCreated),
		zap.String("credit_applied", result.CreditApplied.String()),
	)
	return result, nil
}

// OnBatchRemoved clears the student's batch reference. Existing obligations
// remain part of history; no further obligations are generated until a new
// batch is assigned.
func (s *TransferService) OnBatchRemoved(ctx context.Context, studentID uuid.UUID) error {
	unlock := s.locks.Lock(studentID)
	defer unlock()

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		student, err := repos.Students().FindByID(ctx, studentID)
		if err != nil {
			return err
		}
		student.RemoveBatch()
		return repos.Students().Save(ctx, student)
	})
	if err != nil {
		return err
	}

	s.logger.Info("batch removed", zap.String("student_id", studentID.String()))
	return nil
}

// checkEligibility verifies stage/level compatibility and available
// capacity before any fee mutation occurs
func (s *TransferService) checkEligibility(ctx context.Context, student *academy.Student, batch *academy.Batch) error {
	if !batch.IsOpen() {
		return academy.ErrBatchClosed
	}
	if !batch.Accepts(student.Stage, student.Level) {
		return fees.ErrStageLevelMismatch
	}
	enrolled, err := s.students.CountInBatch(ctx, batch.ID)
	if err != nil {
		return err
	}
	// A student already in this batch re-assigning does not consume a seat.
	if student.BatchID != nil && *student.BatchID == batch.ID {
		enrolled--
	}
	if enrolled >= int64(batch.Capacity) {
		return fees.ErrCapacityExceeded
	}
	return nil
}
