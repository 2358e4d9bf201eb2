package academy

import (
	"context"

	feesapp "github.com/coachdesk/backend/internal/application/fees"
	"github.com/coachdesk/backend/internal/domain/academy"
	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StudentService handles student enrollment and directory operations.
// Batch assignment goes through the fee engine's transfer service, not here,
// because it triggers obligation regeneration.
type StudentService struct {
	scope    feesapp.TransactionScope
	students academy.StudentRepository
	logger   *zap.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(scope feesapp.TransactionScope, students academy.StudentRepository, logger *zap.Logger) *StudentService {
	return &StudentService{
		scope:    scope,
		students: students,
		logger:   logger,
	}
}

// Create enrolls a new student. A batch assignment at enrollment time is
// recorded without generating obligations; the caller follows up with the
// transfer service for that.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*StudentResponse, error) {
	student, err := academy.NewStudent(req.Name, req.Stage, req.Level, req.EnrollmentDate)
	if err != nil {
		return nil, err
	}
	student.Phone = req.Phone

	if err := s.students.Save(ctx, student); err != nil {
		return nil, err
	}

	s.logger.Info("student enrolled",
		zap.String("student_id", student.ID.String()),
		zap.String("stage", student.Stage),
		zap.String("level", student.Level),
	)
	resp := ToStudentResponse(student)
	return &resp, nil
}

// Get returns one student
func (s *StudentService) Get(ctx context.Context, id uuid.UUID) (*StudentResponse, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToStudentResponse(student)
	return &resp, nil
}

// List returns students with pagination
func (s *StudentService) List(ctx context.Context, filter shared.Filter, activeOnly bool) (*shared.Paginated[StudentResponse], error) {
	var (
		students []academy.Student
		total    int64
		err      error
	)
	if activeOnly {
		students, total, err = s.students.FindActive(ctx, filter)
	} else {
		students, total, err = s.students.FindAll(ctx, filter)
	}
	if err != nil {
		return nil, err
	}

	responses := make([]StudentResponse, len(students))
	for i := range students {
		responses[i] = ToStudentResponse(&students[i])
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Update updates the mutable student fields. Changing stage or level does not
// touch existing obligations; the reconciliation sweep trues them up against
// the new course configuration.
func (s *StudentService) Update(ctx context.Context, id uuid.UUID, req UpdateStudentRequest) (*StudentResponse, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, shared.NewDomainError("INVALID_NAME", "Student name cannot be empty")
		}
		student.Name = *req.Name
	}
	if req.Phone != nil {
		student.Phone = *req.Phone
	}
	if req.Stage != nil {
		student.Stage = *req.Stage
	}
	if req.Level != nil {
		student.Level = *req.Level
	}

	if err := s.students.Save(ctx, student); err != nil {
		return nil, err
	}
	resp := ToStudentResponse(student)
	return &resp, nil
}

// Deactivate marks the student inactive without touching fee history
func (s *StudentService) Deactivate(ctx context.Context, id uuid.UUID) error {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		return err
	}
	student.Deactivate()
	return s.students.Save(ctx, student)
}

// Delete removes a student together with their obligations and ledger
// entries in one transaction. The cascade is explicit: nothing in the
// persistence layer deletes fee data implicitly.
func (s *StudentService) Delete(ctx context.Context, id uuid.UUID) (*DeleteStudentResult, error) {
	result := &DeleteStudentResult{}
	err := s.scope.Execute(ctx, func(repos feesapp.TransactionalRepositories) error {
		if _, err := repos.Students().FindByID(ctx, id); err != nil {
			return err
		}

		obligations, err := repos.Obligations().DeleteByStudent(ctx, id)
		if err != nil {
			return err
		}
		entries, err := repos.Ledger().DeleteByStudent(ctx, id)
		if err != nil {
			return err
		}
		if err := repos.Students().Delete(ctx, id); err != nil {
			return err
		}

		result.ObligationsDeleted = obligations
		result.LedgerEntriesDeleted = entries
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("student deleted",
		zap.String("student_id", id.String()),
		zap.Int64("obligations_deleted", result.ObligationsDeleted),
		zap.Int64("ledger_entries_deleted", result.LedgerEntriesDeleted),
	)
	return result, nil
}
