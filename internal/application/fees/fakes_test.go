package fees

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coachdesk/backend/internal/domain/academy"
	"github.com/coachdesk/backend/internal/domain/fees"
	"github.com/coachdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// memStore backs the in-memory repository fakes. Entities are stored by
// value so mutations only become visible through Save/Create.
type memStore struct {
	mu          sync.Mutex
	students    map[uuid.UUID]academy.Student
	batches     map[uuid.UUID]academy.Batch
	courses     map[string]academy.Course
	obligations map[uuid.UUID]fees.Obligation
	ledger      []fees.LedgerEntry
}

func newMemStore() *memStore {
	return &memStore{
		students:    make(map[uuid.UUID]academy.Student),
		batches:     make(map[uuid.UUID]academy.Batch),
		courses:     make(map[string]academy.Course),
		obligations: make(map[uuid.UUID]fees.Obligation),
	}
}

func courseKey(stage, level string) string { return stage + "|" + level }

type memSnapshot struct {
	students    map[uuid.UUID]academy.Student
	batches     map[uuid.UUID]academy.Batch
	courses     map[string]academy.Course
	obligations map[uuid.UUID]fees.Obligation
	ledger      []fees.LedgerEntry
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		students:    make(map[uuid.UUID]academy.Student, len(s.students)),
		batches:     make(map[uuid.UUID]academy.Batch, len(s.batches)),
		courses:     make(map[string]academy.Course, len(s.courses)),
		obligations: make(map[uuid.UUID]fees.Obligation, len(s.obligations)),
		ledger:      make([]fees.LedgerEntry, len(s.ledger)),
	}
	for k, v := range s.students {
		snap.students[k] = v
	}
	for k, v := range s.batches {
		snap.batches[k] = v
	}
	for k, v := range s.courses {
		snap.courses[k] = v
	}
	for k, v := range s.obligations {
		snap.obligations[k] = v
	}
	copy(snap.ledger, s.ledger)
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students = snap.students
	s.batches = snap.batches
	s.courses = snap.courses
	s.obligations = snap.obligations
	s.ledger = snap.ledger
}

// memScope runs the function against the shared store and rolls back to a
// snapshot when it returns an error, mirroring a database transaction.
type memScope struct {
	store *memStore
	repos *memRepos
}

func (s *memScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	snap := s.store.snapshot()
	if err := fn(s.repos); err != nil {
		s.store.restore(snap)
		return err
	}
	return nil
}

type memRepos struct {
	students    *memStudentRepo
	batches     *memBatchRepo
	courses     *memCourseRepo
	obligations *memObligationRepo
	ledger      *memLedgerRepo
}

func (r *memRepos) Obligations() fees.ObligationRepository { return r.obligations }
func (r *memRepos) Ledger() fees.LedgerRepository          { return r.ledger }
func (r *memRepos) Students() academy.StudentRepository    { return r.students }
func (r *memRepos) Batches() academy.BatchRepository       { return r.batches }
func (r *memRepos) Courses() academy.CourseRepository      { return r.courses }

type memStudentRepo struct{ store *memStore }

func (r *memStudentRepo) FindByID(_ context.Context, id uuid.UUID) (*academy.Student, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.students[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &s, nil
}

func (r *memStudentRepo) FindAll(_ context.Context, _ shared.Filter) ([]academy.Student, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]academy.Student, 0, len(r.store.students))
	for _, s := range r.store.students {
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

func (r *memStudentRepo) FindActive(_ context.Context, _ shared.Filter) ([]academy.Student, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []academy.Student
	for _, s := range r.store.students {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memStudentRepo) ListIDs(_ context.Context, activeOnly bool) ([]uuid.UUID, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var ids []uuid.UUID
	for _, s := range r.store.students {
		if activeOnly && !s.Active {
			continue
		}
		ids = append(ids, s.ID)
	}
	return ids, nil
}

func (r *memStudentRepo) CountInBatch(_ context.Context, batchID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, s := range r.store.students {
		if s.BatchID != nil && *s.BatchID == batchID {
			n++
		}
	}
	return n, nil
}

func (r *memStudentRepo) Save(_ context.Context, student *academy.Student) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.students[student.ID] = *student
	return nil
}

func (r *memStudentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.students, id)
	return nil
}

type memBatchRepo struct{ store *memStore }

func (r *memBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*academy.Batch, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &b, nil
}

func (r *memBatchRepo) FindAll(_ context.Context, _ shared.Filter) ([]academy.Batch, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]academy.Batch, 0, len(r.store.batches))
	for _, b := range r.store.batches {
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

func (r *memBatchRepo) Save(_ context.Context, batch *academy.Batch) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.batches[batch.ID] = *batch
	return nil
}

type memCourseRepo struct{ store *memStore }

func (r *memCourseRepo) FindByStageLevel(_ context.Context, stage, level string) (*academy.Course, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.courses[courseKey(stage, level)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (r *memCourseRepo) FindAll(_ context.Context, _ shared.Filter) ([]academy.Course, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]academy.Course, 0, len(r.store.courses))
	for _, c := range r.store.courses {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (r *memCourseRepo) Save(_ context.Context, course *academy.Course) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.courses[courseKey(course.Stage, course.Level)] = *course
	return nil
}

type memObligationRepo struct{ store *memStore }

func (r *memObligationRepo) FindByID(_ context.Context, id uuid.UUID) (*fees.Obligation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.obligations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &o, nil
}

func (r *memObligationRepo) byStudent(studentID uuid.UUID) []fees.Obligation {
	var out []fees.Obligation
	for _, o := range r.store.obligations {
		if o.StudentID == studentID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

func (r *memObligationRepo) FindByStudent(_ context.Context, studentID uuid.UUID) ([]fees.Obligation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.byStudent(studentID), nil
}

func (r *memObligationRepo) FindByStudentAndPeriod(_ context.Context, studentID uuid.UUID, period fees.Period) (*fees.Obligation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, o := range r.store.obligations {
		if o.StudentID == studentID && o.Period == period {
			ob := o
			return &ob, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memObligationRepo) FindOutstanding(_ context.Context, studentID uuid.UUID) ([]fees.Obligation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []fees.Obligation
	for _, o := range r.byStudent(studentID) {
		if o.IsOutstanding() {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memObligationRepo) FindLatestByDueDate(_ context.Context, studentID uuid.UUID) (*fees.Obligation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	obs := r.byStudent(studentID)
	if len(obs) == 0 {
		return nil, shared.ErrNotFound
	}
	latest := obs[len(obs)-1]
	return &latest, nil
}

func (r *memObligationRepo) FindByTransactionRef(_ context.Context, ref string) ([]fees.Obligation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []fees.Obligation
	for _, o := range r.store.obligations {
		if o.TransactionRef != nil && *o.TransactionRef == ref {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memObligationRepo) List(_ context.Context, filter fees.ObligationFilter) ([]fees.Obligation, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []fees.Obligation
	for _, o := range r.store.obligations {
		if filter.StudentID != nil && o.StudentID != *filter.StudentID {
			continue
		}
		if filter.PeriodFrom != nil && o.Period.Before(*filter.PeriodFrom) {
			continue
		}
		if filter.PeriodTo != nil && o.Period.After(*filter.PeriodTo) {
			continue
		}
		if filter.DueBefore != nil && !o.DueDate.Before(*filter.DueBefore) {
			continue
		}
		if filter.Unpaid != nil && *filter.Unpaid != o.IsOutstanding() {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, int64(len(out)), nil
}

func (r *memObligationRepo) ListStudentIDs(_ context.Context) ([]uuid.UUID, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, o := range r.store.obligations {
		if _, ok := seen[o.StudentID]; ok {
			continue
		}
		seen[o.StudentID] = struct{}{}
		ids = append(ids, o.StudentID)
	}
	return ids, nil
}

func (r *memObligationRepo) Create(_ context.Context, obligation *fees.Obligation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.obligations[obligation.ID]; ok {
		return shared.ErrAlreadyExists
	}
	r.store.obligations[obligation.ID] = *obligation
	return nil
}

func (r *memObligationRepo) Save(_ context.Context, obligation *fees.Obligation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.obligations[obligation.ID] = *obligation
	return nil
}

func (r *memObligationRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.obligations, id)
	return nil
}

func (r *memObligationRepo) DeleteByStudent(_ context.Context, studentID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for id, o := range r.store.obligations {
		if o.StudentID == studentID {
			delete(r.store.obligations, id)
			n++
		}
	}
	return n, nil
}

type memLedgerRepo struct{ store *memStore }

func (r *memLedgerRepo) Create(_ context.Context, entry *fees.LedgerEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.ledger = append(r.store.ledger, *entry)
	return nil
}

func (r *memLedgerRepo) FindByStudent(_ context.Context, studentID uuid.UUID, filter fees.LedgerFilter) ([]fees.LedgerEntry, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []fees.LedgerEntry
	for i := len(r.store.ledger) - 1; i >= 0; i-- {
		e := r.store.ledger[i]
		if e.StudentID != studentID {
			continue
		}
		if filter.EntryType != nil && e.EntryType != *filter.EntryType {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (r *memLedgerRepo) CurrentBalance(_ context.Context, studentID uuid.UUID) (decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := len(r.store.ledger) - 1; i >= 0; i-- {
		if r.store.ledger[i].StudentID == studentID {
			return r.store.ledger[i].BalanceAfter, nil
		}
	}
	return decimal.Zero, nil
}

func (r *memLedgerRepo) ListStudentIDs(_ context.Context) ([]uuid.UUID, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, e := range r.store.ledger {
		if _, ok := seen[e.StudentID]; ok {
			continue
		}
		seen[e.StudentID] = struct{}{}
		ids = append(ids, e.StudentID)
	}
	return ids, nil
}

func (r *memLedgerRepo) ListLinkedObligationIDs(_ context.Context) ([]uuid.UUID, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, e := range r.store.ledger {
		if e.ObligationID == nil {
			continue
		}
		if _, ok := seen[*e.ObligationID]; ok {
			continue
		}
		seen[*e.ObligationID] = struct{}{}
		ids = append(ids, *e.ObligationID)
	}
	return ids, nil
}

func (r *memLedgerRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.ledger {
		if r.store.ledger[i].ID == id {
			r.store.ledger = append(r.store.ledger[:i], r.store.ledger[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *memLedgerRepo) DeleteByStudent(_ context.Context, studentID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var kept []fees.LedgerEntry
	var n int64
	for _, e := range r.store.ledger {
		if e.StudentID == studentID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	r.store.ledger = kept
	return n, nil
}

func (r *memLedgerRepo) FindOrphanedByObligations(_ context.Context) ([]fees.LedgerEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []fees.LedgerEntry
	for _, e := range r.store.ledger {
		if e.ObligationID == nil {
			continue
		}
		if _, ok := r.store.obligations[*e.ObligationID]; !ok {
			out = append(out, e)
		}
	}
	return out, nil
}

var (
	_ academy.StudentRepository = (*memStudentRepo)(nil)
	_ academy.BatchRepository   = (*memBatchRepo)(nil)
	_ academy.CourseRepository  = (*memCourseRepo)(nil)
	_ fees.ObligationRepository = (*memObligationRepo)(nil)
	_ fees.LedgerRepository     = (*memLedgerRepo)(nil)
	_ TransactionScope          = (*memScope)(nil)
)

// fixture wires the fakes together the way the container wires the real
// repositories
type fixture struct {
	store       *memStore
	scope       *memScope
	students    *memStudentRepo
	batches     *memBatchRepo
	courses     *memCourseRepo
	obligations *memObligationRepo
	ledger      *memLedgerRepo
	locks       *StudentLocks
	logger      *zap.Logger
}

func newFixture() *fixture {
	store := newMemStore()
	repos := &memRepos{
		students:    &memStudentRepo{store: store},
		batches:     &memBatchRepo{store: store},
		courses:     &memCourseRepo{store: store},
		obligations: &memObligationRepo{store: store},
		ledger:      &memLedgerRepo{store: store},
	}
	return &fixture{
		store:       store,
		scope:       &memScope{store: store, repos: repos},
		students:    repos.students,
		batches:     repos.batches,
		courses:     repos.courses,
		obligations: repos.obligations,
		ledger:      repos.ledger,
		locks:       NewStudentLocks(),
		logger:      zap.NewNop(),
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) seedCourse(stage, level string, fee int64, durationMonths int) *academy.Course {
	course, err := academy.NewCourse(stage+" "+level, stage, level, decimal.NewFromInt(fee), durationMonths)
	if err != nil {
		panic(err)
	}
	f.store.courses[courseKey(stage, level)] = *course
	return course
}

func (f *fixture) seedBatch(stage, level string, start time.Time, capacity int) *academy.Batch {
	batch, err := academy.NewBatch(stage+" "+level+" morning", stage, level, start, capacity)
	if err != nil {
		panic(err)
	}
	f.store.batches[batch.ID] = *batch
	return batch
}

func (f *fixture) seedStudent(name, stage, level string, enrolled time.Time, batch *academy.Batch) *academy.Student {
	student, err := academy.NewStudent(name, stage, level, enrolled)
	if err != nil {
		panic(err)
	}
	if batch != nil {
		if err := student.AssignBatch(batch.ID, batch.StartDate); err != nil {
			panic(err)
		}
	}
	f.store.students[student.ID] = *student
	return student
}

func (f *fixture) seedObligation(student *academy.Student, period fees.Period, dueDate time.Time, fee int64) *fees.Obligation {
	ob, err := fees.NewObligation(student.ID, student.Name, student.Stage, student.Level, period, dueDate, decimal.NewFromInt(fee))
	if err != nil {
		panic(err)
	}
	f.store.obligations[ob.ID] = *ob
	return ob
}

func (f *fixture) obligation(id uuid.UUID) fees.Obligation {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.obligations[id]
}

func (f *fixture) obligationsOf(studentID uuid.UUID) []fees.Obligation {
	obs, err := f.obligations.FindByStudent(context.Background(), studentID)
	if err != nil {
		panic(err)
	}
	return obs
}

func (f *fixture) balanceOf(studentID uuid.UUID) decimal.Decimal {
	balance, err := f.ledger.CurrentBalance(context.Background(), studentID)
	if err != nil {
		panic(err)
	}
	return balance
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
