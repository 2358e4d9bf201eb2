package fees

import (
	"context"

	"github.com/coachdesk/backend/internal/domain/academy"
	"github.com/coachdesk/backend/internal/domain/fees"
)

// TransactionScope provides transactional access to the repositories the fee
// engine mutates. Every operation that touches obligations and ledger entries
// together runs inside one Execute call so the mutations commit or roll back
// as a unit; a crash mid-operation never leaves obligations without matching
// ledger state.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the fee engine repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// Obligations returns the fee obligation repository scoped to the current transaction
	Obligations() fees.ObligationRepository
	// Ledger returns the credit ledger repository scoped to the current transaction
	Ledger() fees.LedgerRepository
	// Students returns the student repository scoped to the current transaction
	Students() academy.StudentRepository
	// Batches returns the batch repository scoped to the current transaction
	Batches() academy.BatchRepository
	// Courses returns the course repository scoped to the current transaction
	Courses() academy.CourseRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Used in tests and anywhere transactional guarantees are not
// required.
type NoOpTransactionScope struct {
	obligations fees.ObligationRepository
	ledger      fees.LedgerRepository
	students    academy.StudentRepository
	batches     academy.BatchRepository
	courses     academy.CourseRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	obligations fees.ObligationRepository,
	ledger fees.LedgerRepository,
	students academy.StudentRepository,
	batches academy.BatchRepository,
	courses academy.CourseRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		obligations: obligations,
		ledger:      ledger,
		students:    students,
		batches:     batches,
		courses:     courses,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Obligations returns the fee obligation repository
func (s *NoOpTransactionScope) Obligations() fees.ObligationRepository { return s.obligations }

// Ledger returns the credit ledger repository
func (s *NoOpTransactionScope) Ledger() fees.LedgerRepository { return s.ledger }

// Students returns the student repository
func (s *NoOpTransactionScope) Students() academy.StudentRepository { return s.students }

// Batches returns the batch repository
func (s *NoOpTransactionScope) Batches() academy.BatchRepository { return s.batches }

// Courses returns the course repository
func (s *NoOpTransactionScope) Courses() academy.CourseRepository { return s.courses }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
