package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/coachdesk/backend/internal/domain/academy"
	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/coachdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCourseRepository implements CourseRepository using GORM
type GormCourseRepository struct {
	db *gorm.DB
}

// NewGormCourseRepository creates a new GormCourseRepository
func NewGormCourseRepository(db *gorm.DB) *GormCourseRepository {
	return &GormCourseRepository{db: db}
}

// FindByStageLevel finds the course configuration for a stage/level pair
func (r *GormCourseRepository) FindByStageLevel(ctx context.Context, stage, level string) (*academy.Course, error) {
	var model models.CourseModel
	if err := r.db.WithContext(ctx).
		Where("stage = ? AND level = ?", stage, level).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all course configurations matching the filter
func (r *GormCourseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]academy.Course, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CourseModel{})

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR stage ILIKE ? OR level ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, CourseSortFields, "stage")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		if offset < 0 {
			offset = 0
		}
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var courseModels []models.CourseModel
	if err := query.Find(&courseModels).Error; err != nil {
		return nil, 0, err
	}

	courses := make([]academy.Course, len(courseModels))
	for i, model := range courseModels {
		courses[i] = *model.ToDomain()
	}
	return courses, total, nil
}

// Save creates or updates a course configuration
func (r *GormCourseRepository) Save(ctx context.Context, course *academy.Course) error {
	model := models.CourseModelFromDomain(course)
	return r.db.WithContext(ctx).Save(model).Error
}

var _ academy.CourseRepository = (*GormCourseRepository)(nil)
