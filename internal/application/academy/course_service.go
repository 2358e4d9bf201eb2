package academy

import (
	"context"
	"errors"

	"github.com/coachdesk/backend/internal/domain/academy"
	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CourseService handles course configuration. One configuration exists per
// (stage, level) pair; the fee engine copies its monthly fee into each
// obligation at creation time.
type CourseService struct {
	courses academy.CourseRepository
}

// NewCourseService creates a new CourseService
func NewCourseService(courses academy.CourseRepository) *CourseService {
	return &CourseService{courses: courses}
}

// Create adds a course configuration for a stage/level pair
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*CourseResponse, error) {
	existing, err := s.courses.FindByStageLevel(ctx, req.Stage, req.Level)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A course already exists for this stage and level")
	}

	course, err := academy.NewCourse(req.Name, req.Stage, req.Level, req.MonthlyFee, req.DurationMonths)
	if err != nil {
		return nil, err
	}
	if err := s.courses.Save(ctx, course); err != nil {
		return nil, err
	}
	resp := ToCourseResponse(course)
	return &resp, nil
}

// Get returns the course configuration for a stage/level pair
func (s *CourseService) Get(ctx context.Context, stage, level string) (*CourseResponse, error) {
	course, err := s.courses.FindByStageLevel(ctx, stage, level)
	if err != nil {
		return nil, err
	}
	resp := ToCourseResponse(course)
	return &resp, nil
}

// List returns course configurations with pagination
func (s *CourseService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[CourseResponse], error) {
	courses, total, err := s.courses.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]CourseResponse, len(courses))
	for i := range courses {
		responses[i] = ToCourseResponse(&courses[i])
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Update updates a course configuration. A fee change affects only
// obligations created afterwards; existing obligations keep the fee they
// were created with.
func (s *CourseService) Update(ctx context.Context, id uuid.UUID, stage, level string, req UpdateCourseRequest) (*CourseResponse, error) {
	course, err := s.courses.FindByStageLevel(ctx, stage, level)
	if err != nil {
		return nil, err
	}
	if course.ID != id {
		return nil, shared.ErrNotFound
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, shared.NewDomainError("INVALID_NAME", "Course name cannot be empty")
		}
		course.Name = *req.Name
	}
	if req.MonthlyFee != nil {
		if req.MonthlyFee.IsNegative() || req.MonthlyFee.IsZero() {
			return nil, shared.NewDomainError("INVALID_FEE", "Monthly fee must be positive")
		}
		course.MonthlyFee = *req.MonthlyFee
	}
	if req.DurationMonths != nil {
		if *req.DurationMonths < 0 {
			return nil, shared.NewDomainError("INVALID_DURATION", "Course duration cannot be negative")
		}
		course.DurationMonths = *req.DurationMonths
	}

	if err := s.courses.Save(ctx, course); err != nil {
		return nil, err
	}
	resp := ToCourseResponse(course)
	return &resp, nil
}
