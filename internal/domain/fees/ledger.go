package fees

import (
	"time"

	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntryType represents the type of credit ledger transaction
type LedgerEntryType string

const (
	// LedgerEntryTypeCreditAdded represents prepaid money received (balance increase)
	LedgerEntryTypeCreditAdded LedgerEntryType = "CREDIT_ADDED"
	// LedgerEntryTypeCreditUsed represents balance applied to an obligation (balance decrease)
	LedgerEntryTypeCreditUsed LedgerEntryType = "CREDIT_USED"
	// LedgerEntryTypeCreditRefund represents balance returned to the student (balance decrease)
	LedgerEntryTypeCreditRefund LedgerEntryType = "CREDIT_REFUND"
	// LedgerEntryTypeCreditAdjustment represents a correction, e.g. overpayment excess (balance increase)
	LedgerEntryTypeCreditAdjustment LedgerEntryType = "CREDIT_ADJUSTMENT"
)

// String returns the string representation of LedgerEntryType
func (t LedgerEntryType) String() string {
	return string(t)
}

// IsValid returns true if the entry type is valid
func (t LedgerEntryType) IsValid() bool {
	switch t {
	case LedgerEntryTypeCreditAdded,
		LedgerEntryTypeCreditUsed,
		LedgerEntryTypeCreditRefund,
		LedgerEntryTypeCreditAdjustment:
		return true
	}
	return false
}

// IsIncrease returns true if this entry type increases the prepaid balance
func (t LedgerEntryType) IsIncrease() bool {
	return t == LedgerEntryTypeCreditAdded || t == LedgerEntryTypeCreditAdjustment
}

// LedgerEntry is an immutable, append-only record of one prepaid-balance
// change for a student. Corrections are new entries, never edits. For a
// given student the signed amounts always sum to the current balance and
// the balance never goes negative.
type LedgerEntry struct {
	shared.BaseEntity
	StudentID     uuid.UUID
	EntryType     LedgerEntryType
	Amount        decimal.Decimal // always positive, direction from EntryType
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	ObligationID  *uuid.UUID // obligation the credit was applied against
	Remark        string
	ProcessedBy   *uuid.UUID
	EntryDate     time.Time
}

// NewLedgerEntry creates a new ledger entry, enforcing balance arithmetic
func NewLedgerEntry(
	studentID uuid.UUID,
	entryType LedgerEntryType,
	amount, balanceBefore, balanceAfter decimal.Decimal,
) (*LedgerEntry, error) {
	if studentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STUDENT", "Student ID cannot be empty")
	}
	if !entryType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTRY_TYPE", "Invalid ledger entry type")
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if balanceBefore.IsNegative() || balanceAfter.IsNegative() {
		return nil, shared.NewDomainError("NEGATIVE_BALANCE", "Ledger balance cannot go negative")
	}
	return &LedgerEntry{
		BaseEntity:    shared.NewBaseEntity(),
		StudentID:     studentID,
		EntryType:     entryType,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		EntryDate:     time.Now(),
	}, nil
}

// WithObligation links the entry to the obligation it was applied against
func (e *LedgerEntry) WithObligation(obligationID uuid.UUID) *LedgerEntry {
	e.ObligationID = &obligationID
	return e
}

// WithRemark sets the remark
func (e *LedgerEntry) WithRemark(remark string) *LedgerEntry {
	e.Remark = remark
	return e
}

// WithProcessedBy sets the actor who processed the entry
func (e *LedgerEntry) WithProcessedBy(actorID uuid.UUID) *LedgerEntry {
	e.ProcessedBy = &actorID
	return e
}

// SignedAmount returns the amount signed by direction: positive for balance
// increases, negative for decreases.
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	if e.EntryType.IsIncrease() {
		return e.Amount
	}
	return e.Amount.Neg()
}

// NewCreditAdded records prepaid money received
func NewCreditAdded(studentID uuid.UUID, amount, balanceBefore decimal.Decimal) (*LedgerEntry, error) {
	return NewLedgerEntry(studentID, LedgerEntryTypeCreditAdded, amount, balanceBefore, balanceBefore.Add(amount))
}

// NewCreditUsed records balance consumed against an obligation
func NewCreditUsed(studentID uuid.UUID, amount, balanceBefore decimal.Decimal) (*LedgerEntry, error) {
	if balanceBefore.LessThan(amount) {
		return nil, shared.NewDomainError("NEGATIVE_BALANCE", "Cannot use more credit than the available balance")
	}
	return NewLedgerEntry(studentID, LedgerEntryTypeCreditUsed, amount, balanceBefore, balanceBefore.Sub(amount))
}

// NewCreditRefund records balance paid back out to the student
func NewCreditRefund(studentID uuid.UUID, amount, balanceBefore decimal.Decimal) (*LedgerEntry, error) {
	if balanceBefore.LessThan(amount) {
		return nil, shared.NewDomainError("NEGATIVE_BALANCE", "Cannot refund more credit than the available balance")
	}
	return NewLedgerEntry(studentID, LedgerEntryTypeCreditRefund, amount, balanceBefore, balanceBefore.Sub(amount))
}

// NewCreditAdjustment records a correction that adds to the balance,
// preserving the audit trail instead of silently discarding the amount.
func NewCreditAdjustment(studentID uuid.UUID, amount, balanceBefore decimal.Decimal) (*LedgerEntry, error) {
	return NewLedgerEntry(studentID, LedgerEntryTypeCreditAdjustment, amount, balanceBefore, balanceBefore.Add(amount))
}
