package fees

import (
	"context"
	"time"

	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ObligationFilter defines filtering options for obligation queries
type ObligationFilter struct {
	shared.Filter
	StudentID  *uuid.UUID
	PeriodFrom *Period
	PeriodTo   *Period
	DueBefore  *time.Time
	Unpaid     *bool
}

// ObligationRepository defines the interface for fee obligation persistence
type ObligationRepository interface {
	// FindByID finds an obligation by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Obligation, error)

	// FindByStudent finds all obligations of a student ordered by due date ascending
	FindByStudent(ctx context.Context, studentID uuid.UUID) ([]Obligation, error)

	// FindByStudentAndPeriod finds the obligation for one (student, period)
	// pair. At most one may exist; shared.ErrNotFound when absent.
	FindByStudentAndPeriod(ctx context.Context, studentID uuid.UUID, period Period) (*Obligation, error)

	// FindOutstanding finds unpaid or partially paid obligations of a
	// student, oldest due date first. The ordering is load-bearing: credit
	// application walks it to clear overdue months before upcoming ones.
	FindOutstanding(ctx context.Context, studentID uuid.UUID) ([]Obligation, error)

	// FindLatestByDueDate finds the student's obligation with the latest due
	// date; shared.ErrNotFound when the student has none.
	FindLatestByDueDate(ctx context.Context, studentID uuid.UUID) (*Obligation, error)

	// FindByTransactionRef finds obligations carrying the given external
	// transaction reference, across all students.
	FindByTransactionRef(ctx context.Context, ref string) ([]Obligation, error)

	// List lists obligations with filtering
	List(ctx context.Context, filter ObligationFilter) ([]Obligation, int64, error)

	// ListStudentIDs returns the distinct student IDs that have obligations.
	// Orphan cleanup checks these against the student directory.
	ListStudentIDs(ctx context.Context) ([]uuid.UUID, error)

	// Create inserts a new obligation
	Create(ctx context.Context, obligation *Obligation) error

	// Save updates an existing obligation
	Save(ctx context.Context, obligation *Obligation) error

	// Delete removes an obligation. Only reconciliation (duplicates,
	// orphans, excess-beyond-duration) and explicit cascade may delete.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByStudent removes all obligations of a student (explicit cascade)
	DeleteByStudent(ctx context.Context, studentID uuid.UUID) (int64, error)
}

// LedgerFilter defines filtering options for ledger queries
type LedgerFilter struct {
	shared.Filter
	EntryType *LedgerEntryType
	DateFrom  *time.Time
	DateTo    *time.Time
}

// LedgerRepository defines the interface for credit ledger persistence.
// The ledger is append-only; there is no update operation.
type LedgerRepository interface {
	// Create appends a ledger entry
	Create(ctx context.Context, entry *LedgerEntry) error

	// FindByStudent finds a student's ledger entries, most recent first
	FindByStudent(ctx context.Context, studentID uuid.UUID, filter LedgerFilter) ([]LedgerEntry, int64, error)

	// CurrentBalance returns the student's prepaid balance: the sum of
	// signed entry amounts, zero when none exist.
	CurrentBalance(ctx context.Context, studentID uuid.UUID) (decimal.Decimal, error)

	// ListStudentIDs returns the distinct student IDs present in the ledger
	ListStudentIDs(ctx context.Context) ([]uuid.UUID, error)

	// ListLinkedObligationIDs returns the distinct non-null obligation IDs
	// referenced by ledger entries. Orphan cleanup checks these against the
	// obligation store.
	ListLinkedObligationIDs(ctx context.Context) ([]uuid.UUID, error)

	// Delete removes a ledger entry. Only orphan cleanup may delete: such
	// entries cannot arise from normal operation.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByStudent removes all ledger entries of a student (explicit cascade)
	DeleteByStudent(ctx context.Context, studentID uuid.UUID) (int64, error)

	// FindOrphanedByObligations returns entries whose linked obligation no
	// longer exists.
	FindOrphanedByObligations(ctx context.Context) ([]LedgerEntry, error)
}
