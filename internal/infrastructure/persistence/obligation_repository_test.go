package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coachdesk/backend/internal/domain/fees"
	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockObligationRepository creates a GormObligationRepository with a mocked SQL connection
func newMockObligationRepository(t *testing.T) (*GormObligationRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormObligationRepository(gormDB), mock, mockDB
}

func obligationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_id", "student_name", "stage", "level",
		"fee_period", "due_date", "fee_amount", "paid_amount",
	})
}

func TestGormObligationRepository_FindByStudentAndPeriod(t *testing.T) {
	t.Run("finds obligation for period", func(t *testing.T) {
		repo, mock, mockDB := newMockObligationRepository(t)
		defer mockDB.Close()

		obligationID := uuid.New()
		studentID := uuid.New()
		dueDate := time.Date(2025, 2, 15, 23, 59, 59, 0, time.UTC)

		rows := obligationRows().
			AddRow(obligationID, studentID, "Aarav Mehta", "secondary", "grade-9",
				"2025-02", dueDate, decimal.NewFromInt(2000), decimal.Zero)

		mock.ExpectQuery(`SELECT \* FROM "fee_obligations" WHERE student_id = \$1 AND fee_period = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(studentID, "2025-02", 1).
			WillReturnRows(rows)

		obligation, err := repo.FindByStudentAndPeriod(context.Background(), studentID, fees.Period{Year: 2025, Month: time.February})

		assert.NoError(t, err)
		require.NotNil(t, obligation)
		assert.Equal(t, obligationID, obligation.ID)
		assert.Equal(t, "2025-02", obligation.Period.String())
		assert.True(t, obligation.FeeAmount.Equal(decimal.NewFromInt(2000)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when period is absent", func(t *testing.T) {
		repo, mock, mockDB := newMockObligationRepository(t)
		defer mockDB.Close()

		studentID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "fee_obligations" WHERE student_id = \$1 AND fee_period = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(studentID, "2025-03", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		obligation, err := repo.FindByStudentAndPeriod(context.Background(), studentID, fees.Period{Year: 2025, Month: time.March})

		assert.Error(t, err)
		assert.Nil(t, obligation)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormObligationRepository_FindOutstanding(t *testing.T) {
	t.Run("returns unpaid obligations oldest first", func(t *testing.T) {
		repo, mock, mockDB := newMockObligationRepository(t)
		defer mockDB.Close()

		studentID := uuid.New()
		janDue := time.Date(2025, 1, 15, 23, 59, 59, 0, time.UTC)
		febDue := time.Date(2025, 2, 15, 23, 59, 59, 0, time.UTC)

		rows := obligationRows().
			AddRow(uuid.New(), studentID, "Aarav Mehta", "secondary", "grade-9",
				"2025-01", janDue, decimal.NewFromInt(2000), decimal.Zero).
			AddRow(uuid.New(), studentID, "Aarav Mehta", "secondary", "grade-9",
				"2025-02", febDue, decimal.NewFromInt(2000), decimal.NewFromInt(500))

		mock.ExpectQuery(`SELECT \* FROM "fee_obligations" WHERE student_id = \$1 AND paid_amount < fee_amount ORDER BY due_date ASC`).
			WithArgs(studentID).
			WillReturnRows(rows)

		obligations, err := repo.FindOutstanding(context.Background(), studentID)

		assert.NoError(t, err)
		require.Len(t, obligations, 2)
		assert.Equal(t, "2025-01", obligations[0].Period.String())
		assert.Equal(t, "2025-02", obligations[1].Period.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormObligationRepository_FindLatestByDueDate(t *testing.T) {
	t.Run("returns latest obligation", func(t *testing.T) {
		repo, mock, mockDB := newMockObligationRepository(t)
		defer mockDB.Close()

		studentID := uuid.New()
		aprDue := time.Date(2025, 4, 15, 23, 59, 59, 0, time.UTC)

		rows := obligationRows().
			AddRow(uuid.New(), studentID, "Aarav Mehta", "secondary", "grade-9",
				"2025-04", aprDue, decimal.NewFromInt(2000), decimal.Zero)

		mock.ExpectQuery(`SELECT \* FROM "fee_obligations" WHERE student_id = \$1 ORDER BY due_date DESC,.* LIMIT .*`).
			WithArgs(studentID, 1).
			WillReturnRows(rows)

		obligation, err := repo.FindLatestByDueDate(context.Background(), studentID)

		assert.NoError(t, err)
		require.NotNil(t, obligation)
		assert.Equal(t, "2025-04", obligation.Period.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when student has no obligations", func(t *testing.T) {
		repo, mock, mockDB := newMockObligationRepository(t)
		defer mockDB.Close()

		studentID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "fee_obligations" WHERE student_id = \$1 ORDER BY due_date DESC,.* LIMIT .*`).
			WithArgs(studentID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		obligation, err := repo.FindLatestByDueDate(context.Background(), studentID)

		assert.Error(t, err)
		assert.Nil(t, obligation)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormObligationRepository_FindByTransactionRef(t *testing.T) {
	t.Run("finds obligations by reference", func(t *testing.T) {
		repo, mock, mockDB := newMockObligationRepository(t)
		defer mockDB.Close()

		dueDate := time.Date(2025, 1, 15, 23, 59, 59, 0, time.UTC)

		rows := obligationRows().
			AddRow(uuid.New(), uuid.New(), "Aarav Mehta", "secondary", "grade-9",
				"2025-01", dueDate, decimal.NewFromInt(2000), decimal.NewFromInt(2000))

		mock.ExpectQuery(`SELECT \* FROM "fee_obligations" WHERE transaction_ref = \$1 ORDER BY due_date ASC`).
			WithArgs("UTR-1001").
			WillReturnRows(rows)

		obligations, err := repo.FindByTransactionRef(context.Background(), "UTR-1001")

		assert.NoError(t, err)
		assert.Len(t, obligations, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormObligationRepository_ListStudentIDs(t *testing.T) {
	t.Run("lists distinct student ids", func(t *testing.T) {
		repo, mock, mockDB := newMockObligationRepository(t)
		defer mockDB.Close()

		firstID := uuid.New()
		secondID := uuid.New()

		rows := sqlmock.NewRows([]string{"student_id"}).
			AddRow(firstID).
			AddRow(secondID)

		mock.ExpectQuery(`SELECT DISTINCT "student_id" FROM "fee_obligations"`).
			WillReturnRows(rows)

		ids, err := repo.ListStudentIDs(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, []uuid.UUID{firstID, secondID}, ids)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormObligationRepository_Create(t *testing.T) {
	t.Run("inserts new obligation", func(t *testing.T) {
		repo, mock, mockDB := newMockObligationRepository(t)
		defer mockDB.Close()

		obligation, err := fees.NewObligation(
			uuid.New(), "Aarav Mehta", "secondary", "grade-9",
			fees.Period{Year: 2025, Month: time.January},
			time.Date(2025, 1, 15, 23, 59, 59, 0, time.UTC),
			decimal.NewFromInt(2000),
		)
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "fee_obligations"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.Create(context.Background(), obligation)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormObligationRepository_DeleteByStudent(t *testing.T) {
	t.Run("reports number of removed rows", func(t *testing.T) {
		repo, mock, mockDB := newMockObligationRepository(t)
		defer mockDB.Close()

		studentID := uuid.New()

		mock.ExpectExec(`DELETE FROM "fee_obligations" WHERE student_id = \$1`).
			WithArgs(studentID).
			WillReturnResult(sqlmock.NewResult(0, 4))

		removed, err := repo.DeleteByStudent(context.Background(), studentID)

		assert.NoError(t, err)
		assert.Equal(t, int64(4), removed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("removing nothing is not an error", func(t *testing.T) {
		repo, mock, mockDB := newMockObligationRepository(t)
		defer mockDB.Close()

		studentID := uuid.New()

		mock.ExpectExec(`DELETE FROM "fee_obligations" WHERE student_id = \$1`).
			WithArgs(studentID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		removed, err := repo.DeleteByStudent(context.Background(), studentID)

		assert.NoError(t, err)
		assert.Equal(t, int64(0), removed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
