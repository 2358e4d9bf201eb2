package models

import (
	"time"

	"github.com/coachdesk/backend/internal/domain/fees"
	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ObligationModel is the persistence model for the fee Obligation domain entity.
// The (student_id, fee_period) pair is unique; duplicates are a defect the
// reconciliation sweep removes, never a state the store accepts twice.
type ObligationModel struct {
	BaseModel
	StudentID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_obligation_student_period,priority:1"`
	StudentName    string          `gorm:"type:varchar(200);not null"`
	Stage          string          `gorm:"type:varchar(50);not null"`
	Level          string          `gorm:"type:varchar(50);not null"`
	FeePeriod      string          `gorm:"type:varchar(7);not null;uniqueIndex:idx_obligation_student_period,priority:2"`
	DueDate        time.Time       `gorm:"not null;index"`
	FeeAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PaidAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PaymentDate    *time.Time
	PaymentMethod  string     `gorm:"type:varchar(50)"`
	TransactionRef *string    `gorm:"type:varchar(100);index"`
	Remarks        string     `gorm:"type:varchar(500)"`
	RecordedBy     *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ObligationModel) TableName() string {
	return "fee_obligations"
}

// ToDomain converts the persistence model to a domain Obligation entity.
func (m *ObligationModel) ToDomain() *fees.Obligation {
	// FeePeriod is always written via Period.String(), so the parse cannot fail.
	period, _ := fees.ParsePeriod(m.FeePeriod)
	return &fees.Obligation{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		StudentID:      m.StudentID,
		StudentName:    m.StudentName,
		Stage:          m.Stage,
		Level:          m.Level,
		Period:         period,
		DueDate:        m.DueDate,
		FeeAmount:      m.FeeAmount,
		PaidAmount:     m.PaidAmount,
		PaymentDate:    m.PaymentDate,
		PaymentMethod:  m.PaymentMethod,
		TransactionRef: m.TransactionRef,
		Remarks:        m.Remarks,
		RecordedBy:     m.RecordedBy,
	}
}

// FromDomain populates the persistence model from a domain Obligation entity.
func (m *ObligationModel) FromDomain(o *fees.Obligation) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.StudentID = o.StudentID
	m.StudentName = o.StudentName
	m.Stage = o.Stage
	m.Level = o.Level
	m.FeePeriod = o.Period.String()
	m.DueDate = o.DueDate
	m.FeeAmount = o.FeeAmount
	m.PaidAmount = o.PaidAmount
	m.PaymentDate = o.PaymentDate
	m.PaymentMethod = o.PaymentMethod
	m.TransactionRef = o.TransactionRef
	m.Remarks = o.Remarks
	m.RecordedBy = o.RecordedBy
}

// ObligationModelFromDomain creates a new persistence model from a domain Obligation entity.
func ObligationModelFromDomain(o *fees.Obligation) *ObligationModel {
	m := &ObligationModel{}
	m.FromDomain(o)
	return m
}

// LedgerEntryModel is the persistence model for the credit LedgerEntry domain
// entity. Rows are append-only; deletion happens only through orphan cleanup
// and the explicit student cascade.
type LedgerEntryModel struct {
	BaseModel
	StudentID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	EntryType     fees.LedgerEntryType `gorm:"type:varchar(30);not null"`
	Amount        decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	BalanceBefore decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	BalanceAfter  decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	ObligationID  *uuid.UUID           `gorm:"type:uuid;index"`
	Remark        string               `gorm:"type:varchar(500)"`
	ProcessedBy   *uuid.UUID           `gorm:"type:uuid"`
	EntryDate     time.Time            `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "credit_ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry entity.
func (m *LedgerEntryModel) ToDomain() *fees.LedgerEntry {
	return &fees.LedgerEntry{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		StudentID:     m.StudentID,
		EntryType:     m.EntryType,
		Amount:        m.Amount,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		ObligationID:  m.ObligationID,
		Remark:        m.Remark,
		ProcessedBy:   m.ProcessedBy,
		EntryDate:     m.EntryDate,
	}
}

// FromDomain populates the persistence model from a domain LedgerEntry entity.
func (m *LedgerEntryModel) FromDomain(e *fees.LedgerEntry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.StudentID = e.StudentID
	m.EntryType = e.EntryType
	m.Amount = e.Amount
	m.BalanceBefore = e.BalanceBefore
	m.BalanceAfter = e.BalanceAfter
	m.ObligationID = e.ObligationID
	m.Remark = e.Remark
	m.ProcessedBy = e.ProcessedBy
	m.EntryDate = e.EntryDate
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain LedgerEntry entity.
func LedgerEntryModelFromDomain(e *fees.LedgerEntry) *LedgerEntryModel {
	m := &LedgerEntryModel{}
	m.FromDomain(e)
	return m
}
