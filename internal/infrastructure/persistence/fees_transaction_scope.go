package persistence

import (
	"context"

	appfees "github.com/coachdesk/backend/internal/application/fees"
	"github.com/coachdesk/backend/internal/domain/academy"
	"github.com/coachdesk/backend/internal/domain/fees"
	"gorm.io/gorm"
)

// GormTransactionScope implements the fee engine's TransactionScope using
// GORM transactions. Obligation and ledger mutations issued through one
// Execute call commit or roll back as a unit.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appfees.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Obligations returns the fee obligation repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Obligations() fees.ObligationRepository {
	return NewGormObligationRepository(r.tx)
}

// Ledger returns the credit ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Ledger() fees.LedgerRepository {
	return NewGormLedgerRepository(r.tx)
}

// Students returns the student repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Students() academy.StudentRepository {
	return NewGormStudentRepository(r.tx)
}

// Batches returns the batch repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Batches() academy.BatchRepository {
	return NewGormBatchRepository(r.tx)
}

// Courses returns the course repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Courses() academy.CourseRepository {
	return NewGormCourseRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appfees.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appfees.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
