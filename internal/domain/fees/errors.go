package fees

import "github.com/coachdesk/backend/internal/domain/shared"

// Fee engine error taxonomy. Validation and business-rule errors are
// recoverable by the caller; they are surfaced with specific codes so the
// HTTP layer can map them to actionable responses.
var (
	// ErrOverpaymentRejected is returned when a paid amount would exceed the
	// fee amount. The excess must go through a ledger adjustment instead.
	ErrOverpaymentRejected = shared.NewDomainError("OVERPAYMENT_REJECTED", "Paid amount cannot exceed the fee amount")

	// ErrDuplicateReference is returned when a transaction reference is
	// already used by a different student.
	ErrDuplicateReference = shared.NewDomainError("DUPLICATE_REFERENCE", "Transaction reference already used by another student")

	// ErrNonConsecutivePeriods is returned when a bulk payment with a shared
	// transaction reference covers periods that are not calendar-consecutive.
	ErrNonConsecutivePeriods = shared.NewDomainError("NON_CONSECUTIVE_PERIODS", "Bulk payment periods must be consecutive calendar months")

	// ErrNoBatchAssigned is returned when an operation needs a batch
	// assignment the student does not have; payments in this state are
	// routed to the credit ledger instead.
	ErrNoBatchAssigned = shared.NewDomainError("NO_BATCH_ASSIGNED", "Student has no batch assignment")

	// ErrCapacityExceeded is returned by the batch-transfer pre-check when
	// the target batch is full.
	ErrCapacityExceeded = shared.NewDomainError("CAPACITY_EXCEEDED", "Batch has no available capacity")

	// ErrStageLevelMismatch is returned by the batch-transfer pre-check when
	// the student's stage/level does not match the batch.
	ErrStageLevelMismatch = shared.NewDomainError("STAGE_LEVEL_MISMATCH", "Student stage/level does not match the batch")
)
