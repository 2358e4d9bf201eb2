package fees

import (
	"time"

	"github.com/coachdesk/backend/internal/domain/fees"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ObligationResponse represents a fee obligation in service responses.
// Status is computed at response time, never read from storage.
type ObligationResponse struct {
	ID             uuid.UUID       `json:"id"`
	StudentID      uuid.UUID       `json:"student_id"`
	StudentName    string          `json:"student_name"`
	Stage          string          `json:"stage"`
	Level          string          `json:"level"`
	Period         string          `json:"period"`
	DueDate        time.Time       `json:"due_date"`
	FeeAmount      decimal.Decimal `json:"fee_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	PaymentDate    *time.Time      `json:"payment_date,omitempty"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	TransactionRef *string         `json:"transaction_ref,omitempty"`
	Remarks        string          `json:"remarks,omitempty"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToObligationResponse converts a domain obligation, computing status at now
func ToObligationResponse(o *fees.Obligation, now time.Time) ObligationResponse {
	return ObligationResponse{
		ID:             o.ID,
		StudentID:      o.StudentID,
		StudentName:    o.StudentName,
		Stage:          o.Stage,
		Level:          o.Level,
		Period:         o.Period.String(),
		DueDate:        o.DueDate,
		FeeAmount:      o.FeeAmount,
		PaidAmount:     o.PaidAmount,
		PaymentDate:    o.PaymentDate,
		PaymentMethod:  o.PaymentMethod,
		TransactionRef: o.TransactionRef,
		Remarks:        o.Remarks,
		Status:         o.Status(now).String(),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

// LedgerEntryResponse represents a credit ledger entry in service responses
type LedgerEntryResponse struct {
	ID            uuid.UUID       `json:"id"`
	StudentID     uuid.UUID       `json:"student_id"`
	EntryType     string          `json:"entry_type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	ObligationID  *uuid.UUID      `json:"obligation_id,omitempty"`
	Remark        string          `json:"remark,omitempty"`
	ProcessedBy   *uuid.UUID      `json:"processed_by,omitempty"`
	EntryDate     time.Time       `json:"entry_date"`
}

// ToLedgerEntryResponse converts a domain ledger entry
func ToLedgerEntryResponse(e *fees.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:            e.ID,
		StudentID:     e.StudentID,
		EntryType:     e.EntryType.String(),
		Amount:        e.Amount,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		ObligationID:  e.ObligationID,
		Remark:        e.Remark,
		ProcessedBy:   e.ProcessedBy,
		EntryDate:     e.EntryDate,
	}
}

// PaymentPatch carries the mutable payment fields of a single obligation
// update. Nil pointers leave the field unchanged; ClearPaymentDate removes
// the payment entirely.
type PaymentPatch struct {
	PaidAmount       *decimal.Decimal
	PaymentDate      *time.Time
	ClearPaymentDate bool
	PaymentMethod    *string
	TransactionRef   *string
	Remarks          *string
	RecordedBy       *uuid.UUID
}

// PeriodPayment is one period covered by a bulk payment. A zero amount means
// the full monthly fee. DueDate is optional; when zero it is derived from
// the student's fee-cycle anchor.
type PeriodPayment struct {
	Period  fees.Period
	DueDate time.Time
	Amount  decimal.Decimal
}

// BulkPaymentInput carries a multi-month payment
type BulkPaymentInput struct {
	Periods        []PeriodPayment
	PaymentDate    time.Time
	PaymentMethod  string
	TransactionRef *string
	Remarks        string
	RecordedBy     *uuid.UUID
}

// BulkPaymentResult is the outcome of a bulk payment. When the student has
// no batch the amount is routed to the credit ledger instead and
// RoutedToCredit carries that ledger entry.
type BulkPaymentResult struct {
	Obligations    []ObligationResponse `json:"obligations"`
	RolledForward  *ObligationResponse  `json:"rolled_forward,omitempty"`
	RoutedToCredit *LedgerEntryResponse `json:"routed_to_credit,omitempty"`
}

// PayableObligations partitions a student's outstanding obligations for the
// fee-collection screen: everything overdue plus the next upcoming one.
type PayableObligations struct {
	Overdue      []ObligationResponse `json:"overdue"`
	NextUpcoming *ObligationResponse  `json:"next_upcoming,omitempty"`
}

// CreditApplication is the outcome of applying prepaid balance to
// outstanding obligations
type CreditApplication struct {
	AmountUsed         decimal.Decimal `json:"amount_used"`
	ObligationsTouched int             `json:"obligations_touched"`
	RemainingBalance   decimal.Decimal `json:"remaining_balance"`
}

// BatchAssignmentResult is the outcome of assigning a student to a batch
type BatchAssignmentResult struct {
	ObligationsCreated int             `json:"obligations_created"`
	CreditApplied      decimal.Decimal `json:"credit_applied"`
}

// CreditInfo carries metadata for a credit addition
type CreditInfo struct {
	Remark      string
	ProcessedBy *uuid.UUID
}
