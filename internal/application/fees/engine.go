package fees

import (
	"context"
	"errors"
	"time"

	"github.com/coachdesk/backend/internal/domain/academy"
	"github.com/coachdesk/backend/internal/domain/fees"
	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultGenerationCeilingMonths bounds how many obligations one generation
// call may create. Malformed anchors (decades in the past) would otherwise
// produce runaway generation.
const DefaultGenerationCeilingMonths = 120

// generateMissing creates every missing obligation from the student's
// fee-cycle start month through the current month inclusive. Existing
// periods are skipped, so re-running fills gaps without duplicating.
// The course duration and the generation ceiling both bound the window.
func generateMissing(
	ctx context.Context,
	repos TransactionalRepositories,
	student *academy.Student,
	now time.Time,
	ceiling int,
) ([]fees.Obligation, error) {
	if !student.HasBatch() {
		return nil, nil
	}
	start, err := student.FeeCycleStart()
	if err != nil {
		return nil, err
	}
	course, err := repos.Courses().FindByStageLevel(ctx, student.Stage, student.Level)
	if err != nil {
		return nil, err
	}

	if ceiling <= 0 {
		ceiling = DefaultGenerationCeilingMonths
	}

	startPeriod := fees.PeriodOf(start)
	endPeriod := fees.PeriodOf(now)
	if endPeriod.Before(startPeriod) {
		return nil, nil
	}
	if course.HasDuration() {
		lastAllowed := startPeriod.AddMonths(course.DurationMonths - 1)
		if lastAllowed.Before(endPeriod) {
			endPeriod = lastAllowed
		}
	}
	if startPeriod.MonthsUntil(endPeriod) >= ceiling {
		endPeriod = startPeriod.AddMonths(ceiling - 1)
	}

	existing, err := repos.Obligations().FindByStudent(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, len(existing))
	for i := range existing {
		present[existing[i].Period.String()] = struct{}{}
	}

	anchorDay := start.Day()
	var created []fees.Obligation
	for p := startPeriod; !p.After(endPeriod); p = p.Next() {
		if _, ok := present[p.String()]; ok {
			continue
		}
		ob, err := fees.NewObligation(
			student.ID, student.Name, student.Stage, student.Level,
			p, fees.DueDate(p, anchorDay), course.MonthlyFee,
		)
		if err != nil {
			return nil, err
		}
		if err := repos.Obligations().Create(ctx, ob); err != nil {
			return nil, err
		}
		created = append(created, *ob)
	}
	return created, nil
}

// generateNext rolls the cycle forward by exactly one month past the
// student's latest obligation. Returns nil when the student has no
// obligations yet, when the next month already exists, or when the course
// duration or generation ceiling has been reached.
func generateNext(
	ctx context.Context,
	repos TransactionalRepositories,
	student *academy.Student,
	ceiling int,
) (*fees.Obligation, error) {
	if !student.HasBatch() {
		return nil, nil
	}
	start, err := student.FeeCycleStart()
	if err != nil {
		return nil, err
	}
	latest, err := repos.Obligations().FindLatestByDueDate(ctx, student.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	course, err := repos.Courses().FindByStageLevel(ctx, student.Stage, student.Level)
	if err != nil {
		return nil, err
	}

	if ceiling <= 0 {
		ceiling = DefaultGenerationCeilingMonths
	}

	startPeriod := fees.PeriodOf(start)
	nextPeriod := latest.Period.Next()
	if course.HasDuration() && startPeriod.MonthsUntil(nextPeriod) >= course.DurationMonths {
		return nil, nil
	}
	if startPeriod.MonthsUntil(nextPeriod) >= ceiling {
		return nil, nil
	}

	if _, err := repos.Obligations().FindByStudentAndPeriod(ctx, student.ID, nextPeriod); err == nil {
		return nil, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	ob, err := fees.NewObligation(
		student.ID, student.Name, student.Stage, student.Level,
		nextPeriod, fees.DueDate(nextPeriod, start.Day()), course.MonthlyFee,
	)
	if err != nil {
		return nil, err
	}
	if err := repos.Obligations().Create(ctx, ob); err != nil {
		return nil, err
	}
	return ob, nil
}

// applyCredits walks a student's outstanding obligations oldest due date
// first, consuming the prepaid balance until it is exhausted or everything
// is paid. Each touched obligation gets a linked credit_used ledger entry.
// The oldest-first order guarantees overdue months clear before upcoming
// ones.
func applyCredits(
	ctx context.Context,
	repos TransactionalRepositories,
	studentID uuid.UUID,
	now time.Time,
	actor *uuid.UUID,
) (*CreditApplication, error) {
	balance, err := repos.Ledger().CurrentBalance(ctx, studentID)
	if err != nil {
		return nil, err
	}
	result := &CreditApplication{
		AmountUsed:       decimal.Zero,
		RemainingBalance: balance,
	}
	if balance.IsZero() || balance.IsNegative() {
		return result, nil
	}

	outstanding, err := repos.Obligations().FindOutstanding(ctx, studentID)
	if err != nil {
		return nil, err
	}

	for i := range outstanding {
		if result.RemainingBalance.IsZero() {
			break
		}
		ob := &outstanding[i]
		applied := ob.ApplyCredit(result.RemainingBalance, now)
		if applied.IsZero() {
			continue
		}
		if err := repos.Obligations().Save(ctx, ob); err != nil {
			return nil, err
		}
		entry, err := fees.NewCreditUsed(studentID, applied, result.RemainingBalance)
		if err != nil {
			return nil, err
		}
		entry.WithObligation(ob.ID).WithRemark("applied to " + ob.Period.String())
		if actor != nil {
			entry.WithProcessedBy(*actor)
		}
		if err := repos.Ledger().Create(ctx, entry); err != nil {
			return nil, err
		}
		result.AmountUsed = result.AmountUsed.Add(applied)
		result.ObligationsTouched++
		result.RemainingBalance = entry.BalanceAfter
	}
	return result, nil
}
