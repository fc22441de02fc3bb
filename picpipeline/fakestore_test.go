package picpipeline_test

import (
	"context"
	"sync"

	"github.com/intermodalis/transitcore/contrib"
	"github.com/intermodalis/transitcore/model"
	"github.com/intermodalis/transitcore/store"
)

// fakeDB covers just the Pictures/Changesets surface picpipeline.Pipeline
// depends on, the same shape as contrib_test's fakeDB for the same reason.
type fakeDB struct {
	mu sync.Mutex

	pictures   map[int64]model.Picture
	links      map[int64][]model.PictureStopLink
	changesets []contrib.Changeset
	nextID     int64
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		pictures: map[int64]model.Picture{},
		links:    map[int64][]model.PictureStopLink{},
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
func (tx *fakeTx) Pictures() store.PictureStore           { return fakePictureStore{tx.db} }
func (tx *fakeTx) Contributions() store.ContributionStore { return nil }
func (tx *fakeTx) Changesets() store.ChangesetStore       { return fakeChangesetStore{tx.db} }
func (tx *fakeTx) Users() store.UserStore                 { return nil }
func (tx *fakeTx) Sessions() store.SessionStore           { return nil }
func (tx *fakeTx) Audit() store.AuditStore                { return nil }

type fakePictureStore struct{ db *fakeDB }

func (s fakePictureStore) GetByHash(ctx context.Context, hash string) (*model.Picture, error) {
	for _, p := range s.db.pictures {
		if p.ContentHash == hash {
			cloned := p
			return &cloned, nil
		}
	}
	return nil, nil
}
func (s fakePictureStore) Get(ctx context.Context, id int64) (*model.Picture, error) {
	p, ok := s.db.pictures[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}
func (s fakePictureStore) Create(ctx context.Context, p model.Picture) (int64, error) {
	id := s.db.allocID()
	p.ID = id
	s.db.pictures[id] = p
	return id, nil
}
func (s fakePictureStore) UpdateMeta(ctx context.Context, p model.Picture) error {
	s.db.pictures[p.ID] = p
	return nil
}
func (s fakePictureStore) Delete(ctx context.Context, id int64) error {
	delete(s.db.pictures, id)
	delete(s.db.links, id)
	return nil
}
func (s fakePictureStore) LinksForPicture(ctx context.Context, pictureID int64) ([]model.PictureStopLink, error) {
	return s.db.links[pictureID], nil
}
func (s fakePictureStore) SetLinks(ctx context.Context, pictureID int64, links []model.PictureStopLink) error {
	s.db.links[pictureID] = links
	return nil
}
func (s fakePictureStore) DeleteLinks(ctx context.Context, pictureID int64) error {
	delete(s.db.links, pictureID)
	return nil
}

type fakeChangesetStore struct{ db *fakeDB }

func (s fakeChangesetStore) Append(ctx context.Context, c contrib.Changeset) (int64, error) {
	id := s.db.allocID()
	c.ID = id
	s.db.changesets = append(s.db.changesets, c)
	return id, nil
}
