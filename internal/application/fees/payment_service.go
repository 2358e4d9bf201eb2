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

// PaymentService records single and multi-month fee payments
type PaymentService struct {
	scope       TransactionScope
	obligations fees.ObligationRepository
	locks       *StudentLocks
	logger      *zap.Logger
	ceiling     int
	nowFn       func() time.Time
}

// NewPaymentService creates a new PaymentService. The standalone obligation
// repository serves the non-transactional pre-read that resolves an
// obligation to its student before the lock is taken.
func NewPaymentService(
	scope TransactionScope,
	obligations fees.ObligationRepository,
	locks *StudentLocks,
	logger *zap.Logger,
	ceilingMonths int,
) *PaymentService {
	if ceilingMonths <= 0 {
		ceilingMonths = DefaultGenerationCeilingMonths
	}
	return &PaymentService{
		scope:       scope,
		obligations: obligations,
		locks:       locks,
		logger:      logger,
		ceiling:     ceilingMonths,
		nowFn:       time.Now,
	}
}

// RecordPayment updates a single obligation's payment fields. Setting a
// payment date with no explicit paid amount (or zero) assumes full payment;
// clearing the payment date resets the paid amount; paying more than the fee
// fails with fees.ErrOverpaymentRejected.
func (s *PaymentService) RecordPayment(ctx context.Context, obligationID uuid.UUID, patch PaymentPatch) (*ObligationResponse, error) {
	pre, err := s.obligations.FindByID(ctx, obligationID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(pre.StudentID)
	defer unlock()

	now := s.nowFn()
	var updated *fees.Obligation
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		ob, err := repos.Obligations().FindByID(ctx, obligationID)
		if err != nil {
			return err
		}

		if patch.TransactionRef != nil && *patch.TransactionRef != "" {
			if err := s.checkReference(ctx, repos.Obligations(), *patch.TransactionRef, ob.StudentID); err != nil {
				return err
			}
		}

		switch {
		case patch.ClearPaymentDate:
			ob.ClearPayment()
		case patch.PaymentDate != nil:
			paid := decimal.Zero
			if patch.PaidAmount != nil {
				paid = *patch.PaidAmount
			}
			method := ob.PaymentMethod
			if patch.PaymentMethod != nil {
				method = *patch.PaymentMethod
			}
			ref := ob.TransactionRef
			if patch.TransactionRef != nil {
				ref = patch.TransactionRef
			}
			if err := ob.RecordPayment(*patch.PaymentDate, paid, method, ref); err != nil {
				return err
			}
		case patch.PaidAmount != nil:
			if ob.PaymentDate == nil {
				return shared.NewDomainError("INVALID_INPUT", "Cannot set a paid amount without a payment date")
			}
			method := ob.PaymentMethod
			if patch.PaymentMethod != nil {
				method = *patch.PaymentMethod
			}
			if err := ob.RecordPayment(*ob.PaymentDate, *patch.PaidAmount, method, ob.TransactionRef); err != nil {
				return err
			}
		}

		if patch.Remarks != nil {
			ob.Remarks = *patch.Remarks
		}
		if patch.RecordedBy != nil {
			ob.RecordedBy = patch.RecordedBy
		}

		if err := repos.Obligations().Save(ctx, ob); err != nil {
			return err
		}
		updated = ob
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToObligationResponse(updated, now)
	return &resp, nil
}

// RecordBulkPayment records one payment spread over several periods. With a
// shared transaction reference the periods must be calendar-consecutive and
// the reference must not belong to another student. Students without a batch
// assignment get the whole amount credited to their ledger instead; no
// obligations are created for them. After a successful obligation payment
// the cycle is rolled forward by one month so a next-upcoming obligation
// always exists.
func (s *PaymentService) RecordBulkPayment(ctx context.Context, studentID uuid.UUID, input BulkPaymentInput) (*BulkPaymentResult, error) {
	if len(input.Periods) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one fee period is required")
	}
	if input.PaymentDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_DATE", "Payment date is required")
	}

	unlock := s.locks.Lock(studentID)
	defer unlock()

	now := s.nowFn()
	result := &BulkPaymentResult{}
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		student, err := repos.Students().FindByID(ctx, studentID)
		if err != nil {
			return err
		}
		course, err := repos.Courses().FindByStageLevel(ctx, student.Stage, student.Level)
		if err != nil {
			return err
		}

		if !student.HasBatch() {
			entry, err := s.routeToCredit(ctx, repos, student, course, input)
			if err != nil {
				return err
			}
			resp := ToLedgerEntryResponse(entry)
			result.RoutedToCredit = &resp
			return nil
		}

		entries := make([]PeriodPayment, len(input.Periods))
		copy(entries, input.Periods)
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Period.Before(entries[j].Period)
		})

		if input.TransactionRef != nil && *input.TransactionRef != "" {
			if err := s.checkReference(ctx, repos.Obligations(), *input.TransactionRef, studentID); err != nil {
				return err
			}
			for i := 1; i < len(entries); i++ {
				if !entries[i-1].Period.IsConsecutive(entries[i].Period) {
					return fees.ErrNonConsecutivePeriods
				}
			}
		}

		start, err := student.FeeCycleStart()
		if err != nil {
			return err
		}
		anchorDay := start.Day()

		for _, e := range entries {
			amount := e.Amount
			if amount.IsZero() {
				amount = course.MonthlyFee
			}

			ob, err := repos.Obligations().FindByStudentAndPeriod(ctx, studentID, e.Period)
			switch {
			case err == nil:
				ob.AddPayment(amount, input.PaymentDate, input.PaymentMethod, input.TransactionRef)
				if input.Remarks != "" {
					ob.Remarks = input.Remarks
				}
				if input.RecordedBy != nil {
					ob.RecordedBy = input.RecordedBy
				}
				if err := repos.Obligations().Save(ctx, ob); err != nil {
					return err
				}
				result.Obligations = append(result.Obligations, ToObligationResponse(ob, now))
			case errors.Is(err, shared.ErrNotFound):
				dueDate := e.DueDate
				if dueDate.IsZero() {
					dueDate = fees.DueDate(e.Period, anchorDay)
				}
				created, err := fees.NewObligation(
					student.ID, student.Name, student.Stage, student.Level,
					e.Period, dueDate, course.MonthlyFee,
				)
				if err != nil {
					return err
				}
				created.AddPayment(amount, input.PaymentDate, input.PaymentMethod, input.TransactionRef)
				created.Remarks = input.Remarks
				created.RecordedBy = input.RecordedBy
				if err := repos.Obligations().Create(ctx, created); err != nil {
					return err
				}
				result.Obligations = append(result.Obligations, ToObligationResponse(created, now))
			default:
				return err
			}
		}

		rolled, err := generateNext(ctx, repos, student, s.ceiling)
		if err != nil {
			return err
		}
		if rolled != nil {
			resp := ToObligationResponse(rolled, now)
			result.RolledForward = &resp
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bulk payment recorded",
		zap.String("student_id", studentID.String()),
		zap.Int("periods", len(input.Periods)),
		zap.Bool("routed_to_credit", result.RoutedToCredit != nil),
	)
	return result, nil
}

// GetPayableObligations returns everything overdue plus the next upcoming
// obligation for a student
func (s *PaymentService) GetPayableObligations(ctx context.Context, studentID uuid.UUID) (*PayableObligations, error) {
	now := s.nowFn()
	outstanding, err := s.obligations.FindOutstanding(ctx, studentID)
	if err != nil {
		return nil, err
	}

	result := &PayableObligations{}
	for i := range outstanding {
		ob := &outstanding[i]
		if ob.DueDate.Before(now) {
			result.Overdue = append(result.Overdue, ToObligationResponse(ob, now))
		} else if result.NextUpcoming == nil {
			resp := ToObligationResponse(ob, now)
			result.NextUpcoming = &resp
		}
	}
	return result, nil
}

// routeToCredit converts a batchless student's payment into a credit_added
// ledger entry so it can be applied once a batch is assigned
func (s *PaymentService) routeToCredit(
	ctx context.Context,
	repos TransactionalRepositories,
	student *academy.Student,
	course *academy.Course,
	input BulkPaymentInput,
) (*fees.LedgerEntry, error) {
	total := decimal.Zero
	for _, e := range input.Periods {
		amount := e.Amount
		if amount.IsZero() {
			amount = course.MonthlyFee
		}
		total = total.Add(amount)
	}

	balance, err := repos.Ledger().CurrentBalance(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	entry, err := fees.NewCreditAdded(student.ID, total, balance)
	if err != nil {
		return nil, err
	}
	entry.WithRemark("payment received before batch assignment")
	if input.RecordedBy != nil {
		entry.WithProcessedBy(*input.RecordedBy)
	}
	if err := repos.Ledger().Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// checkReference rejects a transaction reference already used by a different
// student
func (s *PaymentService) checkReference(ctx context.Context, repo fees.ObligationRepository, ref string, studentID uuid.UUID) error {
	holders, err := repo.FindByTransactionRef(ctx, ref)
	if err != nil {
		return err
	}
	for i := range holders {
		if holders[i].StudentID != studentID {
			return fees.ErrDuplicateReference
		}
	}
	return nil
}
