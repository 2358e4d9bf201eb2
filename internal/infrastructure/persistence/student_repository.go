package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/coachdesk/backend/internal/domain/academy"
	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/coachdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStudentRepository implements StudentRepository using GORM
type GormStudentRepository struct {
	db *gorm.DB
}

// NewGormStudentRepository creates a new GormStudentRepository
func NewGormStudentRepository(db *gorm.DB) *GormStudentRepository {
	return &GormStudentRepository{db: db}
}

// FindByID finds a student by its ID
func (r *GormStudentRepository) FindByID(ctx context.Context, id uuid.UUID) (*academy.Student, error) {
	var model models.StudentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all students matching the filter
func (r *GormStudentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]academy.Student, int64, error) {
	return r.findWithFilter(r.db.WithContext(ctx).Model(&models.StudentModel{}), filter)
}

// FindActive finds all active students matching the filter
func (r *GormStudentRepository) FindActive(ctx context.Context, filter shared.Filter) ([]academy.Student, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StudentModel{}).Where("active = ?", true)
	return r.findWithFilter(query, filter)
}

// ListIDs returns the IDs of all students, optionally active only
func (r *GormStudentRepository) ListIDs(ctx context.Context, activeOnly bool) ([]uuid.UUID, error) {
	query := r.db.WithContext(ctx).Model(&models.StudentModel{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var ids []uuid.UUID
	if err := query.Order("created_at ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// CountInBatch counts students currently assigned to a batch
func (r *GormStudentRepository) CountInBatch(ctx context.Context, batchID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StudentModel{}).
		Where("batch_id = ?", batchID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a student
func (r *GormStudentRepository) Save(ctx context.Context, student *academy.Student) error {
	model := models.StudentModelFromDomain(student)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete deletes a student record
func (r *GormStudentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.StudentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// findWithFilter runs the count and the paginated select on the given query
func (r *GormStudentRepository) findWithFilter(query *gorm.DB, filter shared.Filter) ([]academy.Student, int64, error) {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR phone ILIKE ?", searchPattern, searchPattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, StudentSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		if offset < 0 {
			offset = 0
		}
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var studentModels []models.StudentModel
	if err := query.Find(&studentModels).Error; err != nil {
		return nil, 0, err
	}

	students := make([]academy.Student, len(studentModels))
	for i, model := range studentModels {
		students[i] = *model.ToDomain()
	}
	return students, total, nil
}

var _ academy.StudentRepository = (*GormStudentRepository)(nil)
