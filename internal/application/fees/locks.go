package fees

import (
	"sync"

	"github.com/google/uuid"
)

// StudentLocks serializes engine operations per student. The persistence
// layer guarantees atomicity of each operation but not isolation between two
// concurrent operations on the same student (two simultaneous payments could
// interleave into duplicate periods or inconsistent balances), so every
// mutating service takes the student's lock for the duration of its
// transaction. Different students never contend.
type StudentLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*studentLock
}

type studentLock struct {
	mu   sync.Mutex
	refs int
}

// NewStudentLocks creates an empty lock set
func NewStudentLocks() *StudentLocks {
	return &StudentLocks{locks: make(map[uuid.UUID]*studentLock)}
}

// Lock acquires the lock for one student and returns the release function.
// Lock entries are reference counted so the map does not grow with the
// student population.
func (l *StudentLocks) Lock(studentID uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[studentID]
	if !ok {
		entry = &studentLock{}
		l.locks[studentID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, studentID)
		}
		l.mu.Unlock()
	}
}
