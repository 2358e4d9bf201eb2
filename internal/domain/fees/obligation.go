package fees

import (
	"time"

	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the derived payment state of an obligation. It is never
// stored: every reader computes it from the same fields via Status.
type PaymentStatus string

const (
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusOverdue       PaymentStatus = "overdue"
	PaymentStatusUpcoming      PaymentStatus = "upcoming"
)

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// PaymentMethod values accepted on obligations
const (
	PaymentMethodCash     = "CASH"
	PaymentMethodUPI      = "UPI"
	PaymentMethodCard     = "CARD"
	PaymentMethodTransfer = "BANK_TRANSFER"
	PaymentMethodCredit   = "CREDIT_BALANCE"
)

// Obligation represents one month's fee for one student. The fee amount is
// copied from the course configuration at creation time and is immutable
// afterwards; 0 <= PaidAmount <= FeeAmount holds at all times.
type Obligation struct {
	shared.BaseEntity
	StudentID      uuid.UUID
	StudentName    string // denormalized for list views
	Stage          string
	Level          string
	Period         Period
	DueDate        time.Time
	FeeAmount      decimal.Decimal
	PaidAmount     decimal.Decimal
	PaymentDate    *time.Time
	PaymentMethod  string
	TransactionRef *string
	Remarks        string
	RecordedBy     *uuid.UUID
}

// NewObligation creates an unpaid obligation for one student and period
func NewObligation(
	studentID uuid.UUID,
	studentName, stage, level string,
	period Period,
	dueDate time.Time,
	feeAmount decimal.Decimal,
) (*Obligation, error) {
	if studentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STUDENT", "Student ID cannot be empty")
	}
	if period.IsZero() {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Fee period is required")
	}
	if dueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date is required")
	}
	if feeAmount.IsNegative() || feeAmount.IsZero() {
		return nil, shared.NewDomainError("INVALID_FEE", "Fee amount must be positive")
	}
	return &Obligation{
		BaseEntity:  shared.NewBaseEntity(),
		StudentID:   studentID,
		StudentName: studentName,
		Stage:       stage,
		Level:       level,
		Period:      period,
		DueDate:     dueDate,
		FeeAmount:   feeAmount,
		PaidAmount:  decimal.Zero,
	}, nil
}

// Status computes the payment status relative to now. This is the single
// source of truth; no stored field may disagree with it.
func (o *Obligation) Status(now time.Time) PaymentStatus {
	if o.PaymentDate != nil {
		if o.PaidAmount.GreaterThanOrEqual(o.FeeAmount) {
			return PaymentStatusPaid
		}
		return PaymentStatusPartiallyPaid
	}
	if o.DueDate.Before(now) {
		return PaymentStatusOverdue
	}
	return PaymentStatusUpcoming
}

// Outstanding returns the unpaid remainder of the fee
func (o *Obligation) Outstanding() decimal.Decimal {
	return o.FeeAmount.Sub(o.PaidAmount)
}

// IsOutstanding reports whether any part of the fee is unpaid
func (o *Obligation) IsOutstanding() bool {
	return o.PaidAmount.LessThan(o.FeeAmount)
}

// RecordPayment sets the payment fields. A zero paid amount defaults to the
// full fee (full payment assumed). Paying more than the fee fails with
// ErrOverpaymentRejected; the excess belongs in a ledger adjustment.
func (o *Obligation) RecordPayment(paymentDate time.Time, paidAmount decimal.Decimal, method string, transactionRef *string) error {
	if paymentDate.IsZero() {
		return shared.NewDomainError("INVALID_PAYMENT_DATE", "Payment date is required")
	}
	if paidAmount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Paid amount cannot be negative")
	}
	if paidAmount.GreaterThan(o.FeeAmount) {
		return ErrOverpaymentRejected
	}
	if paidAmount.IsZero() {
		paidAmount = o.FeeAmount
	}
	o.PaidAmount = paidAmount
	o.PaymentDate = &paymentDate
	o.PaymentMethod = method
	o.TransactionRef = transactionRef
	o.Touch()
	return nil
}

// ClearPayment removes the payment, resetting the paid amount to zero
func (o *Obligation) ClearPayment() {
	o.PaidAmount = decimal.Zero
	o.PaymentDate = nil
	o.PaymentMethod = ""
	o.TransactionRef = nil
	o.Touch()
}

// AddPayment adds to the paid amount, capped at the fee amount, and returns
// the portion actually absorbed. Used by bulk payments where one amount is
// spread across several periods.
func (o *Obligation) AddPayment(amount decimal.Decimal, paymentDate time.Time, method string, transactionRef *string) decimal.Decimal {
	if amount.IsNegative() || amount.IsZero() || !o.IsOutstanding() {
		return decimal.Zero
	}
	absorbed := decimal.Min(amount, o.Outstanding())
	o.PaidAmount = o.PaidAmount.Add(absorbed)
	o.PaymentDate = &paymentDate
	if method != "" {
		o.PaymentMethod = method
	}
	if transactionRef != nil {
		o.TransactionRef = transactionRef
	}
	o.Touch()
	return absorbed
}

// ApplyCredit consumes prepaid balance against this obligation and returns
// the amount applied (at most the outstanding remainder).
func (o *Obligation) ApplyCredit(available decimal.Decimal, appliedAt time.Time) decimal.Decimal {
	applied := o.AddPayment(available, appliedAt, PaymentMethodCredit, nil)
	return applied
}

// CapOverpayment trims a paid amount that exceeds the fee amount back to the
// fee and returns the excess. Reconciliation converts the excess to credit;
// zero is returned when nothing was wrong.
func (o *Obligation) CapOverpayment() decimal.Decimal {
	if o.PaidAmount.LessThanOrEqual(o.FeeAmount) {
		return decimal.Zero
	}
	excess := o.PaidAmount.Sub(o.FeeAmount)
	o.PaidAmount = o.FeeAmount
	o.Touch()
	return excess
}

// RelocateDueDate overwrites the due date. Only reconciliation's due-date
// correction may call this.
func (o *Obligation) RelocateDueDate(dueDate time.Time) {
	o.DueDate = dueDate
	o.Touch()
}
