package auth_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/intermodalis/transitcore/model"
	"github.com/intermodalis/transitcore/store"
)

// fakeDB is an in-memory store.TransactionRunner covering just the
// Users/Sessions/Audit surface auth.Service depends on, mirroring
// contrib_test's fakeDB for the same reason: no SQL dependency to spin up
// for a unit test.
type fakeDB struct {
	mu sync.Mutex

	users            map[int64]model.User
	sessions         map[uuid.UUID]model.Session
	accessSessions   map[uuid.UUID]model.AccessSession
	managementTokens map[uuid.UUID]model.ManagementTokenRecord
	audit            []model.AuditLogEntry
	nextID           int64
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:            map[int64]model.User{},
		sessions:         map[uuid.UUID]model.Session{},
		accessSessions:   map[uuid.UUID]model.AccessSession{},
		managementTokens: map[uuid.UUID]model.ManagementTokenRecord{},
	}
}

func (db *fakeDB) Transaction(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(ctx, &fakeTx{db: db})
}

func (db *fakeDB) allocID() int64 {
	db.nextID++
	return db.nextID
}

type fakeTx struct{ db *fakeDB }

func (tx *fakeTx) Stops() store.StopStore                 { return nil }
func (tx *fakeTx) Routes() store.RouteStore               { return nil }
func (tx *fakeTx) Subroutes() store.SubrouteStore         { return nil }
func (tx *fakeTx) Departures() store.DepartureStore       { return nil }
func (tx *fakeTx) Pictures() store.PictureStore           { return nil }
func (tx *fakeTx) Contributions() store.ContributionStore { return nil }
func (tx *fakeTx) Changesets() store.ChangesetStore       { return nil }
func (tx *fakeTx) Users() store.UserStore                 { return fakeUserStore{tx.db} }
func (tx *fakeTx) Sessions() store.SessionStore           { return fakeSessionStore{tx.db} }
func (tx *fakeTx) Audit() store.AuditStore                { return fakeAuditStore{tx.db} }

type fakeUserStore struct{ db *fakeDB }

func (s fakeUserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, ok := s.db.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s fakeUserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range s.db.users {
		if u.Username == username {
			cloned := u
			return &cloned, nil
		}
	}
	return nil, nil
}

func (s fakeUserStore) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	for _, u := range s.db.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s fakeUserStore) Create(ctx context.Context, u model.User) (int64, error) {
	id := s.db.allocID()
	u.ID = id
	s.db.users[id] = u
	return id, nil
}

func (s fakeUserStore) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	u, ok := s.db.users[userID]
	if !ok {
		return nil
	}
	u.PasswordHash = hash
	s.db.users[userID] = u
	return nil
}

type fakeSessionStore struct{ db *fakeDB }

func (s fakeSessionStore) CreateSession(ctx context.Context, sess model.Session) error {
	s.db.sessions[sess.ID] = sess
	return nil
}

func (s fakeSessionStore) GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	sess, ok := s.db.sessions[id]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (s fakeSessionStore) RevokeSession(ctx context.Context, id uuid.UUID) error {
	sess, ok := s.db.sessions[id]
	if !ok {
		return nil
	}
	sess.Revoked = true
	s.db.sessions[id] = sess
	return nil
}

func (s fakeSessionStore) CreateAccessSession(ctx context.Context, a model.AccessSession) error {
	s.db.accessSessions[a.ID] = a
	return nil
}

func (s fakeSessionStore) CreateManagementToken(ctx context.Context, m model.ManagementTokenRecord) error {
	s.db.managementTokens[m.ID] = m
	return nil
}

type fakeAuditStore struct{ db *fakeDB }

func (s fakeAuditStore) Append(ctx context.Context, e model.AuditLogEntry) (int64, error) {
	e.ID = s.db.allocID()
	s.db.audit = append(s.db.audit, e)
	return e.ID, nil
}

func (s fakeAuditStore) ListForUser(ctx context.Context, userID int64, offset, limit int) ([]model.AuditLogEntry, int, error) {
	var out []model.AuditLogEntry
	for _, e := range s.db.audit {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}
