package persistence

import (
	"context"
	"fmt"

	"github.com/coachdesk/backend/internal/domain/fees"
	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/coachdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormLedgerRepository implements LedgerRepository using GORM
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Create appends a ledger entry
func (r *GormLedgerRepository) Create(ctx context.Context, entry *fees.LedgerEntry) error {
	model := models.LedgerEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByStudent finds a student's ledger entries, most recent first
func (r *GormLedgerRepository) FindByStudent(ctx context.Context, studentID uuid.UUID, filter fees.LedgerFilter) ([]fees.LedgerEntry, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Where("student_id = ?", studentID)

	if filter.EntryType != nil {
		query = query.Where("entry_type = ?", *filter.EntryType)
	}
	if filter.DateFrom != nil {
		query = query.Where("entry_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("entry_date <= ?", *filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, LedgerSortFields, "entry_date")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		if offset < 0 {
			offset = 0
		}
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var entryModels []models.LedgerEntryModel
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, 0, err
	}
	return toLedgerEntries(entryModels), total, nil
}

// CurrentBalance returns the student's prepaid balance as the sum of signed
// entry amounts, zero when no entries exist. Increases carry positive sign,
// decreases negative, so the sum equals the running balance regardless of
// entry ordering within a transaction.
func (r *GormLedgerRepository) CurrentBalance(ctx context.Context, studentID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Select("COALESCE(SUM(CASE WHEN entry_type IN (?) THEN amount ELSE -amount END), 0)",
			[]string{fees.LedgerEntryTypeCreditAdded.String(), fees.LedgerEntryTypeCreditAdjustment.String()}).
		Where("student_id = ?", studentID).
		Scan(&balance).Error
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// ListStudentIDs returns the distinct student IDs present in the ledger
func (r *GormLedgerRepository) ListStudentIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Distinct("student_id").
		Pluck("student_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ListLinkedObligationIDs returns the distinct non-null obligation IDs
// referenced by ledger entries
func (r *GormLedgerRepository) ListLinkedObligationIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Where("obligation_id IS NOT NULL").
		Distinct("obligation_id").
		Pluck("obligation_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Delete removes a ledger entry
func (r *GormLedgerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.LedgerEntryModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByStudent removes all ledger entries of a student
func (r *GormLedgerRepository) DeleteByStudent(ctx context.Context, studentID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.LedgerEntryModel{}, "student_id = ?", studentID)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// FindOrphanedByObligations returns entries whose linked obligation no longer exists
func (r *GormLedgerRepository) FindOrphanedByObligations(ctx context.Context) ([]fees.LedgerEntry, error) {
	var entryModels []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Joins("LEFT JOIN fee_obligations ON fee_obligations.id = credit_ledger_entries.obligation_id").
		Where("credit_ledger_entries.obligation_id IS NOT NULL AND fee_obligations.id IS NULL").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	return toLedgerEntries(entryModels), nil
}

// toLedgerEntries converts persistence models to domain entities
func toLedgerEntries(entryModels []models.LedgerEntryModel) []fees.LedgerEntry {
	entries := make([]fees.LedgerEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries
}

var _ fees.LedgerRepository = (*GormLedgerRepository)(nil)
