package fees

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/coachdesk/backend/internal/domain/academy"
	"github.com/coachdesk/backend/internal/domain/fees"
	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// errDryRunRollback aborts a transaction after all repairs have been
// counted, so a dry run reports exactly what a live run would change.
var errDryRunRollback = errors.New("dry run rollback")

// ReconcileOptions controls a reconciliation sweep
type ReconcileOptions struct {
	DryRun     bool
	ActiveOnly bool
}

// SweepFailure records one student the sweep could not repair
type SweepFailure struct {
	StudentID uuid.UUID `json:"student_id"`
	Step      string    `json:"step"`
	Message   string    `json:"message"`
}

// SweepReport accumulates the counts of every repair step across a sweep
type SweepReport struct {
	DryRun                     bool            `json:"dry_run"`
	StudentsExamined           int             `json:"students_examined"`
	AnchorsCorrected           int             `json:"anchors_corrected"`
	DuplicatesRemoved          int             `json:"duplicates_removed"`
	OverpaymentsAdjusted       int             `json:"overpayments_adjusted"`
	DueDatesCorrected          int             `json:"due_dates_corrected"`
	ObligationsCreated         int             `json:"obligations_created"`
	ExcessRemoved              int             `json:"excess_removed"`
	ObligationsCredited        int             `json:"obligations_credited"`
	CreditAmountApplied        decimal.Decimal `json:"credit_amount_applied"`
	OrphanObligationsRemoved   int             `json:"orphan_obligations_removed"`
	OrphanLedgerEntriesRemoved int             `json:"orphan_ledger_entries_removed"`
	Failures                   []SweepFailure  `json:"failures,omitempty"`
	StartedAt                  time.Time       `json:"started_at"`
	FinishedAt                 time.Time       `json:"finished_at"`
}

// sweepDelta collects one student's repairs; merged into the report only
// when the student's transaction ran to completion.
type sweepDelta struct {
	anchorsCorrected     int
	duplicatesRemoved    int
	overpaymentsAdjusted int
	dueDatesCorrected    int
	obligationsCreated   int
	excessRemoved        int
	obligationsCredited  int
	creditAmountApplied  decimal.Decimal
}

// ReconcileService runs offline sweeps that repair drift accumulated from
// manual edits or partial failures. Sweeps are idempotent and safely
// re-runnable after interruption.
type ReconcileService struct {
	scope    TransactionScope
	students academy.StudentRepository
	locks    *StudentLocks
	logger   *zap.Logger
	ceiling  int
	nowFn    func() time.Time
}

// NewReconcileService creates a new ReconcileService
func NewReconcileService(
	scope TransactionScope,
	students academy.StudentRepository,
	locks *StudentLocks,
	logger *zap.Logger,
	ceilingMonths int,
) *ReconcileService {
	if ceilingMonths <= 0 {
		ceilingMonths = DefaultGenerationCeilingMonths
	}
	return &ReconcileService{
		scope:    scope,
		students: students,
		locks:    locks,
		logger:   logger,
		ceiling:  ceilingMonths,
		nowFn:    time.Now,
	}
}

// ReconcileAll sweeps the population (or its active subset), repairing in
// dependency order: anchors, duplicates, overpayments, due dates, gaps,
// excess-beyond-duration, credit application, orphans. Per-student failures
// are recorded without aborting the sweep.
func (s *ReconcileService) ReconcileAll(ctx context.Context, opts ReconcileOptions) (*SweepReport, error) {
	report := &SweepReport{
		DryRun:              opts.DryRun,
		CreditAmountApplied: decimal.Zero,
		StartedAt:           s.nowFn(),
	}

	ids, err := s.students.ListIDs(ctx, opts.ActiveOnly)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		report.StudentsExamined++
		if err := s.reconcileStudent(ctx, id, opts, report); err != nil {
			report.Failures = append(report.Failures, SweepFailure{
				StudentID: id,
				Step:      "student",
				Message:   err.Error(),
			})
			s.logger.Warn("reconciliation failed for student",
				zap.String("student_id", id.String()),
				zap.Error(err),
			)
		}
	}

	if err := s.cleanupOrphans(ctx, opts, report); err != nil {
		report.Failures = append(report.Failures, SweepFailure{
			Step:    "orphan_cleanup",
			Message: err.Error(),
		})
		s.logger.Warn("orphan cleanup failed", zap.Error(err))
	}

	report.FinishedAt = s.nowFn()
	s.logger.Info("reconciliation sweep finished",
		zap.Bool("dry_run", report.DryRun),
		zap.Int("students_examined", report.StudentsExamined),
		zap.Int("duplicates_removed", report.DuplicatesRemoved),
		zap.Int("obligations_created", report.ObligationsCreated),
		zap.Int("failures", len(report.Failures)),
	)
	return report, nil
}

func (s *ReconcileService) reconcileStudent(ctx context.Context, studentID uuid.UUID, opts ReconcileOptions, report *SweepReport) error {
	unlock := s.locks.Lock(studentID)
	defer unlock()

	now := s.nowFn()
	delta := &sweepDelta{creditAmountApplied: decimal.Zero}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		student, err := repos.Students().FindByID(ctx, studentID)
		if err != nil {
			return err
		}

		if err := s.correctAnchor(ctx, repos, student, delta); err != nil {
			return err
		}
		if err := s.collapseDuplicates(ctx, repos, student, delta); err != nil {
			return err
		}
		if err := s.correctOverpayments(ctx, repos, student, delta); err != nil {
			return err
		}
		if err := s.correctDueDates(ctx, repos, student, delta); err != nil {
			return err
		}

		created, err := generateMissing(ctx, repos, student, now, s.ceiling)
		if err != nil {
			return err
		}
		delta.obligationsCreated += len(created)

		if err := s.removeExcess(ctx, repos, student, delta); err != nil {
			return err
		}

		applied, err := applyCredits(ctx, repos, studentID, now, nil)
		if err != nil {
			return err
		}
		delta.obligationsCredited += applied.ObligationsTouched
		delta.creditAmountApplied = delta.creditAmountApplied.Add(applied.AmountUsed)

		if opts.DryRun {
			return errDryRunRollback
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRunRollback) {
		return err
	}

	report.AnchorsCorrected += delta.anchorsCorrected
	report.DuplicatesRemoved += delta.duplicatesRemoved
	report.OverpaymentsAdjusted += delta.overpaymentsAdjusted
	report.DueDatesCorrected += delta.dueDatesCorrected
	report.ObligationsCreated += delta.obligationsCreated
	report.ExcessRemoved += delta.excessRemoved
	report.ObligationsCredited += delta.obligationsCredited
	report.CreditAmountApplied = report.CreditAmountApplied.Add(delta.creditAmountApplied)
	return nil
}

// correctAnchor recomputes the fee-cycle anchor as the later of batch start
// and enrollment date and rewrites a stored value that disagrees
func (s *ReconcileService) correctAnchor(ctx context.Context, repos TransactionalRepositories, student *academy.Student, delta *sweepDelta) error {
	if !student.HasBatch() {
		return nil
	}
	batch, err := repos.Batches().FindByID(ctx, *student.BatchID)
	if err != nil {
		return err
	}
	expected := batch.StartDate
	if student.EnrollmentDate.After(expected) {
		expected = student.EnrollmentDate
	}
	if student.FeeCycleAnchor != nil && student.FeeCycleAnchor.Equal(expected) {
		return nil
	}
	student.SetFeeCycleAnchor(expected)
	if err := repos.Students().Save(ctx, student); err != nil {
		return err
	}
	delta.anchorsCorrected++
	return nil
}

// collapseDuplicates keeps one obligation per (student, period): the one
// with payment data, preferring higher paid amount, then earliest creation
func (s *ReconcileService) collapseDuplicates(ctx context.Context, repos TransactionalRepositories, student *academy.Student, delta *sweepDelta) error {
	obs, err := repos.Obligations().FindByStudent(ctx, student.ID)
	if err != nil {
		return err
	}
	groups := make(map[string][]*fees.Obligation)
	for i := range obs {
		key := obs[i].Period.String()
		groups[key] = append(groups[key], &obs[i])
	}
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			a, b := group[i], group[j]
			if (a.PaymentDate != nil) != (b.PaymentDate != nil) {
				return a.PaymentDate != nil
			}
			if !a.PaidAmount.Equal(b.PaidAmount) {
				return a.PaidAmount.GreaterThan(b.PaidAmount)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		})
		for _, dup := range group[1:] {
			if err := repos.Obligations().Delete(ctx, dup.ID); err != nil {
				return err
			}
			delta.duplicatesRemoved++
		}
	}
	return nil
}

// correctOverpayments caps paid amounts at the fee amount, converting the
// excess into a ledger adjustment rather than discarding it
func (s *ReconcileService) correctOverpayments(ctx context.Context, repos TransactionalRepositories, student *academy.Student, delta *sweepDelta) error {
	obs, err := repos.Obligations().FindByStudent(ctx, student.ID)
	if err != nil {
		return err
	}
	for i := range obs {
		ob := &obs[i]
		excess := ob.CapOverpayment()
		if excess.IsZero() {
			continue
		}
		if err := repos.Obligations().Save(ctx, ob); err != nil {
			return err
		}
		balance, err := repos.Ledger().CurrentBalance(ctx, student.ID)
		if err != nil {
			return err
		}
		entry, err := fees.NewCreditAdjustment(student.ID, excess, balance)
		if err != nil {
			return err
		}
		entry.WithObligation(ob.ID).WithRemark("overpayment excess on " + ob.Period.String())
		if err := repos.Ledger().Create(ctx, entry); err != nil {
			return err
		}
		delta.overpaymentsAdjusted++
	}
	return nil
}

// correctDueDates recomputes each due date from the fee-cycle anchor and
// overwrites stored dates that disagree at day granularity
func (s *ReconcileService) correctDueDates(ctx context.Context, repos TransactionalRepositories, student *academy.Student, delta *sweepDelta) error {
	start, err := student.FeeCycleStart()
	if err != nil {
		// No cycle to derive due dates from; gap fill will fail the same
		// way and the failure is recorded there.
		return nil
	}
	anchorDay := start.Day()

	obs, err := repos.Obligations().FindByStudent(ctx, student.ID)
	if err != nil {
		return err
	}
	for i := range obs {
		ob := &obs[i]
		expected := fees.DueDate(ob.Period, anchorDay)
		if fees.SameDueDay(ob.DueDate, expected) {
			continue
		}
		ob.RelocateDueDate(expected)
		if err := repos.Obligations().Save(ctx, ob); err != nil {
			return err
		}
		delta.dueDatesCorrected++
	}
	return nil
}

// removeExcess deletes unpaid obligations whose period falls at or after
// (fee-cycle start + course duration)
func (s *ReconcileService) removeExcess(ctx context.Context, repos TransactionalRepositories, student *academy.Student, delta *sweepDelta) error {
	start, err := student.FeeCycleStart()
	if err != nil {
		return nil
	}
	course, err := repos.Courses().FindByStageLevel(ctx, student.Stage, student.Level)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if !course.HasDuration() {
		return nil
	}

	startPeriod := fees.PeriodOf(start)
	obs, err := repos.Obligations().FindByStudent(ctx, student.ID)
	if err != nil {
		return err
	}
	for i := range obs {
		ob := &obs[i]
		if startPeriod.MonthsUntil(ob.Period) < course.DurationMonths {
			continue
		}
		if ob.PaymentDate != nil || !ob.PaidAmount.IsZero() {
			continue // paid history is never reclaimed
		}
		if err := repos.Obligations().Delete(ctx, ob.ID); err != nil {
			return err
		}
		delta.excessRemoved++
	}
	return nil
}

// cleanupOrphans removes obligations and ledger entries referencing deleted
// students, and ledger entries whose linked obligation no longer exists
func (s *ReconcileService) cleanupOrphans(ctx context.Context, opts ReconcileOptions, report *SweepReport) error {
	var orphanObligations, orphanEntries int

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		known, err := repos.Students().ListIDs(ctx, false)
		if err != nil {
			return err
		}
		knownSet := make(map[uuid.UUID]struct{}, len(known))
		for _, id := range known {
			knownSet[id] = struct{}{}
		}

		obStudents, err := repos.Obligations().ListStudentIDs(ctx)
		if err != nil {
			return err
		}
		for _, id := range obStudents {
			if _, ok := knownSet[id]; ok {
				continue
			}
			n, err := repos.Obligations().DeleteByStudent(ctx, id)
			if err != nil {
				return err
			}
			orphanObligations += int(n)
		}

		ledgerStudents, err := repos.Ledger().ListStudentIDs(ctx)
		if err != nil {
			return err
		}
		for _, id := range ledgerStudents {
			if _, ok := knownSet[id]; ok {
				continue
			}
			n, err := repos.Ledger().DeleteByStudent(ctx, id)
			if err != nil {
				return err
			}
			orphanEntries += int(n)
		}

		dangling, err := repos.Ledger().FindOrphanedByObligations(ctx)
		if err != nil {
			return err
		}
		for i := range dangling {
			if err := repos.Ledger().Delete(ctx, dangling[i].ID); err != nil {
				return err
			}
			orphanEntries++
		}

		if opts.DryRun {
			return errDryRunRollback
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRunRollback) {
		return err
	}

	report.OrphanObligationsRemoved += orphanObligations
	report.OrphanLedgerEntriesRemoved += orphanEntries
	return nil
}
