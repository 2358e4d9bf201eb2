package models

import (
	"time"

	"github.com/coachdesk/backend/internal/domain/academy"
	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StudentModel is the persistence model for the Student domain entity.
type StudentModel struct {
	BaseModel
	Name           string     `gorm:"type:varchar(200);not null;index"`
	Phone          string     `gorm:"type:varchar(50);index"`
	Stage          string     `gorm:"type:varchar(50);not null;index:idx_student_stage_level"`
	Level          string     `gorm:"type:varchar(50);not null;index:idx_student_stage_level"`
	EnrollmentDate time.Time  `gorm:"not null"`
	BatchID        *uuid.UUID `gorm:"type:uuid;index"`
	FeeCycleAnchor *time.Time
	Active         bool `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (StudentModel) TableName() string {
	return "students"
}

// ToDomain converts the persistence model to a domain Student entity.
func (m *StudentModel) ToDomain() *academy.Student {
	return &academy.Student{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Name:           m.Name,
		Phone:          m.Phone,
		Stage:          m.Stage,
		Level:          m.Level,
		EnrollmentDate: m.EnrollmentDate,
		BatchID:        m.BatchID,
		FeeCycleAnchor: m.FeeCycleAnchor,
		Active:         m.Active,
	}
}

// FromDomain populates the persistence model from a domain Student entity.
func (m *StudentModel) FromDomain(s *academy.Student) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.Name = s.Name
	m.Phone = s.Phone
	m.Stage = s.Stage
	m.Level = s.Level
	m.EnrollmentDate = s.EnrollmentDate
	m.BatchID = s.BatchID
	m.FeeCycleAnchor = s.FeeCycleAnchor
	m.Active = s.Active
}

// StudentModelFromDomain creates a new persistence model from a domain Student entity.
func StudentModelFromDomain(s *academy.Student) *StudentModel {
	m := &StudentModel{}
	m.FromDomain(s)
	return m
}

// BatchModel is the persistence model for the Batch domain entity.
type BatchModel struct {
	BaseModel
	Name      string              `gorm:"type:varchar(200);not null"`
	Stage     string              `gorm:"type:varchar(50);not null;index:idx_batch_stage_level"`
	Level     string              `gorm:"type:varchar(50);not null;index:idx_batch_stage_level"`
	StartDate time.Time           `gorm:"not null"`
	Schedule  string              `gorm:"type:varchar(200)"`
	Capacity  int                 `gorm:"not null"`
	Status    academy.BatchStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
}

// TableName returns the table name for GORM
func (BatchModel) TableName() string {
	return "batches"
}

// ToDomain converts the persistence model to a domain Batch entity.
func (m *BatchModel) ToDomain() *academy.Batch {
	return &academy.Batch{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Name:      m.Name,
		Stage:     m.Stage,
		Level:     m.Level,
		StartDate: m.StartDate,
		Schedule:  m.Schedule,
		Capacity:  m.Capacity,
		Status:    m.Status,
	}
}

// FromDomain populates the persistence model from a domain Batch entity.
func (m *BatchModel) FromDomain(b *academy.Batch) {
	m.FromDomainBaseEntity(b.BaseEntity)
	m.Name = b.Name
	m.Stage = b.Stage
	m.Level = b.Level
	m.StartDate = b.StartDate
	m.Schedule = b.Schedule
	m.Capacity = b.Capacity
	m.Status = b.Status
}

// BatchModelFromDomain creates a new persistence model from a domain Batch entity.
func BatchModelFromDomain(b *academy.Batch) *BatchModel {
	m := &BatchModel{}
	m.FromDomain(b)
	return m
}

// CourseModel is the persistence model for the Course domain entity.
// One row per (stage, level) pair.
type CourseModel struct {
	BaseModel
	Name           string          `gorm:"type:varchar(200);not null"`
	Stage          string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_course_stage_level,priority:1"`
	Level          string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_course_stage_level,priority:2"`
	MonthlyFee     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DurationMonths int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (CourseModel) TableName() string {
	return "courses"
}

// ToDomain converts the persistence model to a domain Course entity.
func (m *CourseModel) ToDomain() *academy.Course {
	return &academy.Course{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Name:           m.Name,
		Stage:          m.Stage,
		Level:          m.Level,
		MonthlyFee:     m.MonthlyFee,
		DurationMonths: m.DurationMonths,
	}
}

// FromDomain populates the persistence model from a domain Course entity.
func (m *CourseModel) FromDomain(c *academy.Course) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.Name = c.Name
	m.Stage = c.Stage
	m.Level = c.Level
	m.MonthlyFee = c.MonthlyFee
	m.DurationMonths = c.DurationMonths
}

// CourseModelFromDomain creates a new persistence model from a domain Course entity.
func CourseModelFromDomain(c *academy.Course) *CourseModel {
	m := &CourseModel{}
	m.FromDomain(c)
	return m
}
