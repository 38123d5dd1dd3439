package roster

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/quipper/poc/gradebook/pkg/common/logger"
)

var (
	ErrIndexOutOfRange = errors.New("student index out of range")
	// ErrStaleRevision means the caller addressed a row by index against a
	// roster that has changed since it was rendered.
	ErrStaleRevision = errors.New("roster changed since it was displayed")
)

// MutationOption adjusts a single Store mutation.
type MutationOption func(*mutation)

type mutation struct {
	revision string
}

// IfRevision makes the mutation fail with ErrStaleRevision unless the store
// is still at rev. An empty rev disables the check.
func IfRevision(rev string) MutationOption {
	return func(m *mutation) { m.revision = rev }
}

func applyOptions(opts []MutationOption) mutation {
	var m mutation
	for _, o := range opts {
		o(&m)
	}
	return m
}

// Store owns the roster. Every mutation builds the next roster, persists it
// and only then swaps it in, so a failed save leaves memory untouched.
type Store struct {
	mu       sync.RWMutex
	persist  Persister
	students Roster
	revision string
}

// OpenStore hydrates the roster once from p.
func OpenStore(ctx context.Context, p Persister) (*Store, error) {
	students, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Store{
		persist:  p,
		students: students,
		revision: uuid.NewString(),
	}, nil
}

// Students returns a snapshot copy.
func (s *Store) Students() Roster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.students.Clone()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.students)
}

func (s *Store) At(i int) (Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.students) {
		return Student{}, ErrIndexOutOfRange
	}
	return s.students[i], nil
}

// Revision changes after every successful mutation.
func (s *Store) Revision() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// CheckRevision returns ErrStaleRevision when rev is set and outdated.
func (s *Store) CheckRevision(rev string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkRevisionLocked(rev)
}

func (s *Store) checkRevisionLocked(rev string) error {
	if rev != "" && rev != s.revision {
		return ErrStaleRevision
	}
	return nil
}

// commitLocked persists next and makes it current. Callers hold s.mu.
func (s *Store) commitLocked(ctx context.Context, next Roster) error {
	if err := s.persist.Save(ctx, next); err != nil {
		logger.Error("persist roster: %v", err)
		return errors.Wrap(err, "persisting roster")
	}
	s.students = next
	s.revision = uuid.NewString()
	return nil
}

// Append adds st at the end.
func (s *Store) Append(ctx context.Context, st Student, opts ...MutationOption) (int, error) {
	m := applyOptions(opts)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRevisionLocked(m.revision); err != nil {
		return -1, err
	}
	next := append(s.students.Clone(), st)
	if err := s.commitLocked(ctx, next); err != nil {
		return -1, err
	}
	i := len(next) - 1
	logger.Debug("appended student at index %d", i)
	return i, nil
}

// Replace overwrites the student at i.
func (s *Store) Replace(ctx context.Context, i int, st Student, opts ...MutationOption) error {
	m := applyOptions(opts)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRevisionLocked(m.revision); err != nil {
		return err
	}
	if i < 0 || i >= len(s.students) {
		return ErrIndexOutOfRange
	}
	next := s.students.Clone()
	next[i] = st
	if err := s.commitLocked(ctx, next); err != nil {
		return err
	}
	logger.Debug("replaced student at index %d", i)
	return nil
}

// Remove deletes the student at i, shifting later ones down by one.
func (s *Store) Remove(ctx context.Context, i int, opts ...MutationOption) (Student, error) {
	m := applyOptions(opts)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRevisionLocked(m.revision); err != nil {
		return Student{}, err
	}
	if i < 0 || i >= len(s.students) {
		return Student{}, ErrIndexOutOfRange
	}
	removed := s.students[i]
	next := make(Roster, 0, len(s.students)-1)
	next = append(next, s.students[:i]...)
	next = append(next, s.students[i+1:]...)
	if err := s.commitLocked(ctx, next); err != nil {
		return Student{}, err
	}
	logger.Debug("removed student at index %d", i)
	return removed, nil
}

// ReplaceAll swaps the whole roster in one persisted step.
func (s *Store) ReplaceAll(ctx context.Context, r Roster, opts ...MutationOption) error {
	m := applyOptions(opts)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRevisionLocked(m.revision); err != nil {
		return err
	}
	if err := s.commitLocked(ctx, r.Clone()); err != nil {
		return err
	}
	logger.Debug("replaced roster with %d students", len(r))
	return nil
}
