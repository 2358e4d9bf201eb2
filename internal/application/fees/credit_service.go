package fees

import (
	"context"
	"time"

	"github.com/coachdesk/backend/internal/domain/fees"
	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreditService tracks prepaid balance per student and applies it
// deterministically to outstanding obligations
type CreditService struct {
	scope  TransactionScope
	ledger fees.LedgerRepository
	locks  *StudentLocks
	logger *zap.Logger
	nowFn  func() time.Time
}

// NewCreditService creates a new CreditService
func NewCreditService(scope TransactionScope, ledger fees.LedgerRepository, locks *StudentLocks, logger *zap.Logger) *CreditService {
	return &CreditService{
		scope:  scope,
		ledger: ledger,
		locks:  locks,
		logger: logger,
		nowFn:  time.Now,
	}
}

// AddCredit appends a credit_added entry to the student's ledger
func (s *CreditService) AddCredit(ctx context.Context, studentID uuid.UUID, amount decimal.Decimal, info CreditInfo) (*LedgerEntryResponse, error) {
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}

	unlock := s.locks.Lock(studentID)
	defer unlock()

	var entry *fees.LedgerEntry
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Students().FindByID(ctx, studentID); err != nil {
			return err
		}
		balance, err := repos.Ledger().CurrentBalance(ctx, studentID)
		if err != nil {
			return err
		}
		entry, err = fees.NewCreditAdded(studentID, amount, balance)
		if err != nil {
			return err
		}
		if info.Remark != "" {
			entry.WithRemark(info.Remark)
		}
		if info.ProcessedBy != nil {
			entry.WithProcessedBy(*info.ProcessedBy)
		}
		return repos.Ledger().Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("credit added",
		zap.String("student_id", studentID.String()),
		zap.String("amount", amount.String()),
	)
	resp := ToLedgerEntryResponse(entry)
	return &resp, nil
}

// ApplyCreditsToFeeRecords consumes the student's prepaid balance against
// outstanding obligations, oldest due date first, until the balance is
// exhausted or everything is paid
func (s *CreditService) ApplyCreditsToFeeRecords(ctx context.Context, studentID uuid.UUID, actor *uuid.UUID) (*CreditApplication, error) {
	unlock := s.locks.Lock(studentID)
	defer unlock()

	now := s.nowFn()
	var result *CreditApplication
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Students().FindByID(ctx, studentID); err != nil {
			return err
		}
		var err error
		result, err = applyCredits(ctx, repos, studentID, now, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.ObligationsTouched > 0 {
		s.logger.Info("credits applied",
			zap.String("student_id", studentID.String()),
			zap.String("amount_used", result.AmountUsed.String()),
			zap.Int("obligations_touched", result.ObligationsTouched),
		)
	}
	return result, nil
}

// MakeAdjustment converts a detected overpayment excess (or other
// correction) into credit, preserving the audit trail instead of discarding
// the amount
func (s *CreditService) MakeAdjustment(ctx context.Context, studentID uuid.UUID, amount decimal.Decimal, remark string, actor *uuid.UUID) (*LedgerEntryResponse, error) {
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Adjustment amount must be positive")
	}

	unlock := s.locks.Lock(studentID)
	defer unlock()

	var entry *fees.LedgerEntry
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		balance, err := repos.Ledger().CurrentBalance(ctx, studentID)
		if err != nil {
			return err
		}
		entry, err = fees.NewCreditAdjustment(studentID, amount, balance)
		if err != nil {
			return err
		}
		entry.WithRemark(remark)
		if actor != nil {
			entry.WithProcessedBy(*actor)
		}
		return repos.Ledger().Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	resp := ToLedgerEntryResponse(entry)
	return &resp, nil
}

// Balance returns the student's current prepaid balance
func (s *CreditService) Balance(ctx context.Context, studentID uuid.UUID) (decimal.Decimal, error) {
	return s.ledger.CurrentBalance(ctx, studentID)
}

// History lists the student's ledger entries, most recent first
func (s *CreditService) History(ctx context.Context, studentID uuid.UUID, filter fees.LedgerFilter) ([]LedgerEntryResponse, int64, error) {
	entries, total, err := s.ledger.FindByStudent(ctx, studentID, filter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToLedgerEntryResponse(&entries[i])
	}
	return responses, total, nil
}
