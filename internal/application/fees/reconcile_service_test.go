package fees

import (
	"context"
	"testing"
	"time"

	"github.com/coachdesk/backend/internal/domain/fees"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReconcileService(f *fixture, now time.Time) *ReconcileService {
	svc := NewReconcileService(f.scope, f.students, f.locks, f.logger, 0)
	svc.nowFn = fixedNow(now)
	return svc
}

func TestReconcileAnchorCorrection(t *testing.T) {
	ctx := context.Background()
	now := date(2025, time.March, 10)

	f := newFixture()
	f.seedCourse("foundation", "beginner", 2000, 0)
	batch := f.seedBatch("foundation", "beginner", date(2025, time.March, 1), 30)
	student := f.seedStudent("Asha", "foundation", "beginner", date(2025, time.January, 15), batch)

	// Drift: a manual edit left the anchor pointing before the batch start.
	drifted := f.store.students[student.ID]
	wrong := date(2025, time.January, 10)
	drifted.FeeCycleAnchor = &wrong
	f.store.students[student.ID] = drifted

	svc := newReconcileService(f, now)
	report, err := svc.ReconcileAll(ctx, ReconcileOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.AnchorsCorrected)
	assert.Empty(t, report.Failures)

	stored, err := f.students.FindByID(ctx, student.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.FeeCycleAnchor)
	assert.True(t, stored.FeeCycleAnchor.Equal(date(2025, time.March, 1)))

	// Gap fill ran against the corrected anchor, not the drifted one.
	obs := f.obligationsOf(student.ID)
	require.Len(t, obs, 1)
	assert.Equal(t, "2025-03", obs[0].Period.String())
}

func TestReconcileDuplicateCollapse(t *testing.T) {
	ctx := context.Background()
	now := date(2025, time.January, 20)

	f := newFixture()
	f.seedCourse("foundation", "beginner", 2000, 0)
	batch := f.seedBatch("foundation", "beginner", date(2025, time.January, 10), 30)
	student := f.seedStudent("Asha", "foundation", "beginner", date(2025, time.January, 15), batch)

	jan := fees.Period{Year: 2025, Month: time.January}
	paid := f.seedObligation(student, jan, fees.DueDate(jan, 15), 2000)
	f.seedObligation(student, jan, fees.DueDate(jan, 15), 2000)

	stored := f.obligation(paid.ID)
	require.NoError(t, stored.RecordPayment(date(2025, time.January, 12), decimal.Zero, fees.PaymentMethodCash, nil))
	require.NoError(t, f.obligations.Save(ctx, &stored))

	svc := newReconcileService(f, now)
	report, err := svc.ReconcileAll(ctx, ReconcileOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.DuplicatesRemoved)

	// The survivor is the one carrying payment data.
	obs := f.obligationsOf(student.ID)
	require.Len(t, obs, 1)
	assert.Equal(t, paid.ID, obs[0].ID)
	assert.NotNil(t, obs[0].PaymentDate)
}

func TestReconcileOverpaymentCorrection(t *testing.T) {
	ctx := context.Background()
	now := date(2025, time.January, 20)

	f := newFixture()
	f.seedCourse("foundation", "beginner", 2000, 0)
	batch := f.seedBatch("foundation", "beginner", date(2025, time.January, 10), 30)
	student := f.seedStudent("Asha", "foundation", "beginner", date(2025, time.January, 15), batch)

	jan := fees.Period{Year: 2025, Month: time.January}
	ob := f.seedObligation(student, jan, fees.DueDate(jan, 15), 2000)

	// Drift: a record paid 2500 against a 2000 fee.
	drifted := f.obligation(ob.ID)
	paidAt := date(2025, time.January, 12)
	drifted.PaidAmount = decimal.NewFromInt(2500)
	drifted.PaymentDate = &paidAt
	f.store.obligations[ob.ID] = drifted

	svc := newReconcileService(f, now)
	report, err := svc.ReconcileAll(ctx, ReconcileOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.OverpaymentsAdjusted)

	capped := f.obligation(ob.ID)
	assert.True(t, capped.PaidAmount.Equal(decimal.NewFromInt(2000)))

	// The 500 excess became credit instead of vanishing.
	assert.True(t, f.balanceOf(student.ID).Equal(decimal.NewFromInt(500)))
	entries, _, err := f.ledger.FindByStudent(ctx, student.ID, fees.LedgerFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, fees.LedgerEntryTypeCreditAdjustment, entries[0].EntryType)
}

func TestReconcileDueDateCorrection(t *testing.T) {
	ctx := context.Background()
	now := date(2025, time.January, 20)

	f := newFixture()
	f.seedCourse("foundation", "beginner", 2000, 0)
	batch := f.seedBatch("foundation", "beginner", date(2025, time.January, 10), 30)
	student := f.seedStudent("Asha", "foundation", "beginner", date(2025, time.January, 15), batch)

	jan := fees.Period{Year: 2025, Month: time.January}
	ob := f.seedObligation(student, jan, fees.DueDate(jan, 5), 2000)

	svc := newReconcileService(f, now)
	report, err := svc.ReconcileAll(ctx, ReconcileOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.DueDatesCorrected)
	assert.Equal(t, 15, f.obligation(ob.ID).DueDate.Day())
}

func TestReconcileGapFill(t *testing.T) {
	ctx := context.Background()
	now := date(2025, time.March, 20)

	f := newFixture()
	f.seedCourse("foundation", "beginner", 2000, 0)
	batch := f.seedBatch("foundation", "beginner", date(2025, time.January, 10), 30)
	student := f.seedStudent("Asha", "foundation", "beginner", date(2025, time.January, 15), batch)

	jan := fees.Period{Year: 2025, Month: time.January}
	mar := fees.Period{Year: 2025, Month: time.March}
	f.seedObligation(student, jan, fees.DueDate(jan, 15), 2000)
	f.seedObligation(student, mar, fees.DueDate(mar, 15), 2000)

	svc := newReconcileService(f, now)
	report, err := svc.ReconcileAll(ctx, ReconcileOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.ObligationsCreated)
	obs := f.obligationsOf(student.ID)
	require.Len(t, obs, 3)
	assert.Equal(t, "2025-02", obs[1].Period.String())
}

func TestReconcileExcessRemoval(t *testing.T) {
	ctx := context.Background()
	now := date(2025, time.February, 20)

	f := newFixture()
	f.seedCourse("crash", "advanced", 5000, 2)
	batch := f.seedBatch("crash", "advanced", date(2025, time.January, 5), 30)
	student := f.seedStudent("Ravi", "crash", "advanced", date(2025, time.January, 5), batch)

	jan := fees.Period{Year: 2025, Month: time.January}
	feb := fees.Period{Year: 2025, Month: time.February}
	mar := fees.Period{Year: 2025, Month: time.March}
	apr := fees.Period{Year: 2025, Month: time.April}
	f.seedObligation(student, jan, fees.DueDate(jan, 5), 5000)
	f.seedObligation(student, feb, fees.DueDate(feb, 5), 5000)
	f.seedObligation(student, mar, fees.DueDate(mar, 5), 5000)
	paidBeyond := f.seedObligation(student, apr, fees.DueDate(apr, 5), 5000)

	// April is beyond the two-month course but already paid; it stays.
	stored := f.obligation(paidBeyond.ID)
	require.NoError(t, stored.RecordPayment(date(2025, time.April, 1), decimal.Zero, fees.PaymentMethodCash, nil))
	require.NoError(t, f.obligations.Save(ctx, &stored))

	svc := newReconcileService(f, now)
	report, err := svc.ReconcileAll(ctx, ReconcileOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.ExcessRemoved)
	obs := f.obligationsOf(student.ID)
	require.Len(t, obs, 3)
	for _, o := range obs {
		assert.NotEqual(t, mar, o.Period)
	}
}

func TestReconcileOrphanCleanup(t *testing.T) {
	ctx := context.Background()
	now := date(2025, time.March, 20)

	f := newFixture()
	f.seedCourse("foundation", "beginner", 2000, 0)
	batch := f.seedBatch("foundation", "beginner", date(2025, time.January, 10), 30)
	student := f.seedStudent("Asha", "foundation", "beginner", date(2025, time.March, 15), batch)
	jan := fees.Period{Year: 2025, Month: time.January}
	f.seedObligation(student, jan, fees.DueDate(jan, 15), 2000)

	// A deleted student left obligations and ledger entries behind.
	ghost, err := fees.NewObligation(uuid.New(), "Ghost", "foundation", "beginner", jan, fees.DueDate(jan, 15), decimal.NewFromInt(2000))
	require.NoError(t, err)
	f.store.obligations[ghost.ID] = *ghost
	ghostEntry, err := fees.NewCreditAdded(ghost.StudentID, decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, f.ledger.Create(ctx, ghostEntry))

	// A live student's entry points at an obligation that no longer exists.
	dangling, err := fees.NewCreditAdded(student.ID, decimal.NewFromInt(1), decimal.Zero)
	require.NoError(t, err)
	dangling.WithObligation(uuid.New())
	require.NoError(t, f.ledger.Create(ctx, dangling))

	svc := newReconcileService(f, now)
	report, err := svc.ReconcileAll(ctx, ReconcileOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.OrphanObligationsRemoved)
	assert.Equal(t, 2, report.OrphanLedgerEntriesRemoved)
	assert.Empty(t, f.obligationsOf(ghost.StudentID))
}

func TestReconcileDryRun(t *testing.T) {
	ctx := context.Background()
	now := date(2025, time.March, 20)

	setup := func() (*fixture, uuid.UUID) {
		f := newFixture()
		f.seedCourse("foundation", "beginner", 2000, 0)
		batch := f.seedBatch("foundation", "beginner", date(2025, time.January, 10), 30)
		student := f.seedStudent("Asha", "foundation", "beginner", date(2025, time.January, 15), batch)
		jan := fees.Period{Year: 2025, Month: time.January}
		f.seedObligation(student, jan, fees.DueDate(jan, 15), 2000)
		f.seedObligation(student, jan, fees.DueDate(jan, 15), 2000)
		return f, student.ID
	}

	f, studentID := setup()
	svc := newReconcileService(f, now)

	dry, err := svc.ReconcileAll(ctx, ReconcileOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, dry.DryRun)
	assert.Equal(t, 1, dry.DuplicatesRemoved)
	assert.Equal(t, 2, dry.ObligationsCreated)
	assert.Empty(t, dry.Failures)

	// Nothing was persisted.
	assert.Len(t, f.obligationsOf(studentID), 2)

	// A live run reports exactly the same counts, then actually applies them.
	live, err := svc.ReconcileAll(ctx, ReconcileOptions{})
	require.NoError(t, err)
	assert.Equal(t, dry.DuplicatesRemoved, live.DuplicatesRemoved)
	assert.Equal(t, dry.ObligationsCreated, live.ObligationsCreated)
	assert.Len(t, f.obligationsOf(studentID), 3)

	// And re-running finds nothing left to repair.
	again, err := svc.ReconcileAll(ctx, ReconcileOptions{})
	require.NoError(t, err)
	assert.Zero(t, again.DuplicatesRemoved)
	assert.Zero(t, again.ObligationsCreated)
	assert.Zero(t, again.AnchorsCorrected)
	assert.Zero(t, again.DueDatesCorrected)
}

func TestReconcileFailureIsolation(t *testing.T) {
	ctx := context.Background()
	now := date(2025, time.January, 20)

	f := newFixture()
	f.seedCourse("foundation", "beginner", 2000, 0)
	goodBatch := f.seedBatch("foundation", "beginner", date(2025, time.January, 10), 30)
	good := f.seedStudent("Asha", "foundation", "beginner", date(2025, time.January, 15), goodBatch)

	// No course configuration exists for this student's stage/level.
	badBatch := f.seedBatch("orphaned", "level", date(2025, time.January, 10), 30)
	bad := f.seedStudent("Ravi", "orphaned", "level", date(2025, time.January, 15), badBatch)

	svc := newReconcileService(f, now)
	report, err := svc.ReconcileAll(ctx, ReconcileOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, report.StudentsExamined)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, bad.ID, report.Failures[0].StudentID)

	// The healthy student was still repaired.
	assert.Len(t, f.obligationsOf(good.ID), 1)
	assert.Empty(t, f.obligationsOf(bad.ID))
}

func TestReconcileActiveOnly(t *testing.T) {
	ctx := context.Background()
	now := date(2025, time.January, 20)

	f := newFixture()
	f.seedCourse("foundation", "beginner", 2000, 0)
	batch := f.seedBatch("foundation", "beginner", date(2025, time.January, 10), 30)
	active := f.seedStudent("Asha", "foundation", "beginner", date(2025, time.January, 15), batch)
	inactive := f.seedStudent("Left", "foundation", "beginner", date(2025, time.January, 15), batch)
	s := f.store.students[inactive.ID]
	s.Deactivate()
	f.store.students[inactive.ID] = s

	svc := newReconcileService(f, now)
	report, err := svc.ReconcileAll(ctx, ReconcileOptions{ActiveOnly: true})
	require.NoError(t, err)

	assert.Equal(t, 1, report.StudentsExamined)
	assert.Len(t, f.obligationsOf(active.ID), 1)
	assert.Empty(t, f.obligationsOf(inactive.ID))
}

func TestReconcileCreditApplication(t *testing.T) {
	ctx := context.Background()
	now := date(2025, time.February, 20)

	f := newFixture()
	f.seedCourse("foundation", "beginner", 2000, 0)
	batch := f.seedBatch("foundation", "beginner", date(2025, time.January, 10), 30)
	student := f.seedStudent("Asha", "foundation", "beginner", date(2025, time.January, 15), batch)

	entry, err := fees.NewCreditAdded(student.ID, decimal.NewFromInt(3000), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, f.ledger.Create(ctx, entry))

	svc := newReconcileService(f, now)
	report, err := svc.ReconcileAll(ctx, ReconcileOptions{})
	require.NoError(t, err)

	// Jan and Feb were generated, then the stored credit paid Jan in full
	// and half of Feb.
	assert.Equal(t, 2, report.ObligationsCreated)
	assert.Equal(t, 2, report.ObligationsCredited)
	assert.True(t, report.CreditAmountApplied.Equal(decimal.NewFromInt(3000)))
	assert.True(t, f.balanceOf(student.ID).IsZero())
}
