package audit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/intermodalis/transitcore/audit"
	"github.com/intermodalis/transitcore/coreerrors"
	"github.com/intermodalis/transitcore/model"
	"github.com/intermodalis/transitcore/permissions"
	"github.com/intermodalis/transitcore/store"
)

type fakeDB struct {
	mu      sync.Mutex
	entries []model.AuditLogEntry
	nextID  int64
}

func newFakeDB() *fakeDB { return &fakeDB{} }

func (db *fakeDB) Transaction(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(ctx, &fakeTx{db: db})
}

type fakeTx struct{ db *fakeDB }

func (tx *fakeTx) Stops() store.StopStore                 { return nil }
func (tx *fakeTx) Routes() store.RouteStore               { return nil }
func (tx *fakeTx) Subroutes() store.SubrouteStore         { return nil }
func (tx *fakeTx) Departures() store.DepartureStore       { return nil }
func (tx *fakeTx) Pictures() store.PictureStore           { return nil }
func (tx *fakeTx) Contributions() store.ContributionStore { return nil }
func (tx *fakeTx) Changesets() store.ChangesetStore       { return nil }
func (tx *fakeTx) Users() store.UserStore                 { return nil }
func (tx *fakeTx) Sessions() store.SessionStore           { return nil }
func (tx *fakeTx) Audit() store.AuditStore                { return fakeAuditStore{tx.db} }

type fakeAuditStore struct{ db *fakeDB }

func (s fakeAuditStore) Append(ctx context.Context, e model.AuditLogEntry) (int64, error) {
	s.db.nextID++
	e.ID = s.db.nextID
	s.db.entries = append(s.db.entries, e)
	return e.ID, nil
}

func (s fakeAuditStore) ListForUser(ctx context.Context, userID int64, offset, limit int) ([]model.AuditLogEntry, int, error) {
	var matched []model.AuditLogEntry
	for _, e := range s.db.entries {
		if e.UserID == userID {
			matched = append(matched, e)
		}
	}
	total := len(matched)
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) || limit <= 0 {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

type capturingNotifier struct {
	mu      sync.Mutex
	entries []model.AuditLogEntry
}

func (n *capturingNotifier) Notify(ctx context.Context, e model.AuditLogEntry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, e)
}

func TestRecordAppendsAndNotifies(t *testing.T) {
	db := newFakeDB()
	notifier := &capturingNotifier{}
	svc := audit.NewService(zap.NewNop(), db, notifier)

	err := db.Transaction(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, err := svc.Record(ctx, tx, model.AuditLogEntry{
			UserID:   1,
			Datetime: time.Now(),
			Action:   model.AuditAction{Kind: model.ActionLogin},
		})
		return err
	})
	require.NoError(t, err)

	require.Len(t, notifier.entries, 1)
	assert.Equal(t, model.ActionLogin, notifier.entries[0].Action.Kind)
	assert.NotZero(t, notifier.entries[0].ID)
}

func TestListForUserAllowsSelf(t *testing.T) {
	db := newFakeDB()
	svc := audit.NewService(zap.NewNop(), db, nil)

	require.NoError(t, db.Transaction(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, err := svc.Record(ctx, tx, model.AuditLogEntry{UserID: 5, Action: model.AuditAction{Kind: model.ActionLogin}})
		return err
	}))

	entries, total, err := svc.ListForUser(context.Background(), 5, permissions.Default(), 5, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)
}

func TestListForUserRequiresAdminForOthers(t *testing.T) {
	db := newFakeDB()
	svc := audit.NewService(zap.NewNop(), db, nil)

	_, _, err := svc.ListForUser(context.Background(), 5, permissions.Default(), 6, 0, 10)
	require.Error(t, err)
	assert.True(t, coreerrors.Forbidden.Has(err))
}

func TestListForUserAllowsAdminForOthers(t *testing.T) {
	db := newFakeDB()
	svc := audit.NewService(zap.NewNop(), db, nil)

	require.NoError(t, db.Transaction(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, err := svc.Record(ctx, tx, model.AuditLogEntry{UserID: 6, Action: model.AuditAction{Kind: model.ActionLogin}})
		return err
	}))

	adminPerms := permissions.Permissions{Admin: permissions.Admin{ManageUsers: true}}
	entries, total, err := svc.ListForUser(context.Background(), 1, adminPerms, 6, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)
}
