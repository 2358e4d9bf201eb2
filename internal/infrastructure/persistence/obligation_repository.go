package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/coachdesk/backend/internal/domain/fees"
	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/coachdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormObligationRepository implements ObligationRepository using GORM
type GormObligationRepository struct {
	db *gorm.DB
}

// NewGormObligationRepository creates a new GormObligationRepository
func NewGormObligationRepository(db *gorm.DB) *GormObligationRepository {
	return &GormObligationRepository{db: db}
}

// FindByID finds an obligation by its ID
func (r *GormObligationRepository) FindByID(ctx context.Context, id uuid.UUID) (*fees.Obligation, error) {
	var model models.ObligationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStudent finds all obligations of a student ordered by due date ascending
func (r *GormObligationRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]fees.Obligation, error) {
	var obligationModels []models.ObligationModel
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("due_date ASC").
		Find(&obligationModels).Error; err != nil {
		return nil, err
	}
	return toObligations(obligationModels), nil
}

// FindByStudentAndPeriod finds the obligation for one (student, period) pair
func (r *GormObligationRepository) FindByStudentAndPeriod(ctx context.Context, studentID uuid.UUID, period fees.Period) (*fees.Obligation, error) {
	var model models.ObligationModel
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND fee_period = ?", studentID, period.String()).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOutstanding finds unpaid or partially paid obligations of a student,
// oldest due date first
func (r *GormObligationRepository) FindOutstanding(ctx context.Context, studentID uuid.UUID) ([]fees.Obligation, error) {
	var obligationModels []models.ObligationModel
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND paid_amount < fee_amount", studentID).
		Order("due_date ASC").
		Find(&obligationModels).Error; err != nil {
		return nil, err
	}
	return toObligations(obligationModels), nil
}

// FindLatestByDueDate finds the student's obligation with the latest due date
func (r *GormObligationRepository) FindLatestByDueDate(ctx context.Context, studentID uuid.UUID) (*fees.Obligation, error) {
	var model models.ObligationModel
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("due_date DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTransactionRef finds obligations carrying the given transaction reference
func (r *GormObligationRepository) FindByTransactionRef(ctx context.Context, ref string) ([]fees.Obligation, error) {
	var obligationModels []models.ObligationModel
	if err := r.db.WithContext(ctx).
		Where("transaction_ref = ?", ref).
		Order("due_date ASC").
		Find(&obligationModels).Error; err != nil {
		return nil, err
	}
	return toObligations(obligationModels), nil
}

// List lists obligations with filtering
func (r *GormObligationRepository) List(ctx context.Context, filter fees.ObligationFilter) ([]fees.Obligation, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ObligationModel{})

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	// Period labels are zero-padded YYYY-MM, so string comparison orders
	// them chronologically.
	if filter.PeriodFrom != nil {
		query = query.Where("fee_period >= ?", filter.PeriodFrom.String())
	}
	if filter.PeriodTo != nil {
		query = query.Where("fee_period <= ?", filter.PeriodTo.String())
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date < ?", *filter.DueBefore)
	}
	if filter.Unpaid != nil {
		if *filter.Unpaid {
			query = query.Where("paid_amount < fee_amount")
		} else {
			query = query.Where("paid_amount >= fee_amount")
		}
	}
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("student_name ILIKE ?", searchPattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, ObligationSortFields, "due_date")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		if offset < 0 {
			offset = 0
		}
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var obligationModels []models.ObligationModel
	if err := query.Find(&obligationModels).Error; err != nil {
		return nil, 0, err
	}
	return toObligations(obligationModels), total, nil
}

// ListStudentIDs returns the distinct student IDs that have obligations
func (r *GormObligationRepository) ListStudentIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.ObligationModel{}).
		Distinct("student_id").
		Pluck("student_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Create inserts a new obligation
func (r *GormObligationRepository) Create(ctx context.Context, obligation *fees.Obligation) error {
	model := models.ObligationModelFromDomain(obligation)
	return r.db.WithContext(ctx).Create(model).Error
}

// Save updates an existing obligation
func (r *GormObligationRepository) Save(ctx context.Context, obligation *fees.Obligation) error {
	model := models.ObligationModelFromDomain(obligation)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes an obligation
func (r *GormObligationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ObligationModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByStudent removes all obligations of a student
func (r *GormObligationRepository) DeleteByStudent(ctx context.Context, studentID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.ObligationModel{}, "student_id = ?", studentID)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// toObligations converts persistence models to domain entities
func toObligations(obligationModels []models.ObligationModel) []fees.Obligation {
	obligations := make([]fees.Obligation, len(obligationModels))
	for i, model := range obligationModels {
		obligations[i] = *model.ToDomain()
	}
	return obligations
}

var _ fees.ObligationRepository = (*GormObligationRepository)(nil)
