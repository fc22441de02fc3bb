// Package captcha implements the process-wide captcha store spec.md §5
// describes as shared state: uuid to challenge answer, short TTL, atomic
// attempt-and-consume. Grounded on the teacher's cacheLock/RWMutex-guarded
// map idiom (app/persistentdb.go's cache field) generalized from a
// read-mostly string cache to a single-use, expiring challenge registry.
package captcha

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/intermodalis/transitcore/store"
)

type challenge struct {
	answer string
	expiry time.Time
	used   bool
}

// Store is an in-memory store.CaptchaStore. It holds no database
// connection of its own; challenges are process-local and never survive a
// restart, matching spec.md §5's description of this as "shared state"
// rather than persisted state.
type Store struct {
	mu         sync.Mutex
	challenges map[uuid.UUID]*challenge
	now        func() time.Time
}

var _ store.CaptchaStore = (*Store)(nil)

// New builds an empty Store. now defaults to time.Now if nil.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{challenges: make(map[uuid.UUID]*challenge), now: now}
}

// Issue records a new challenge with the given answer and expiry.
func (s *Store) Issue(ctx context.Context, answer string, expiry time.Time) (uuid.UUID, error) {
	id := uuid.New()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[id] = &challenge{answer: answer, expiry: expiry}
	return id, nil
}

// Consume atomically checks and invalidates the challenge named by id. It
// returns true only the first time the correct answer is presented before
// expiry; every other presentation (wrong answer, already used, expired,
// unknown id) returns false without error.
func (s *Store) Consume(ctx context.Context, id uuid.UUID, answer string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[id]
	if !ok || c.used {
		return false, nil
	}
	if s.now().After(c.expiry) {
		delete(s.challenges, id)
		return false, nil
	}
	if c.answer != answer {
		return false, nil
	}
	c.used = true
	delete(s.challenges, id)
	return true, nil
}
