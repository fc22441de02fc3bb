package contrib_test

import (
	"context"
	"sync"

	"github.com/intermodalis/transitcore/contrib"
	"github.com/intermodalis/transitcore/model"
	"github.com/intermodalis/transitcore/store"
)

// fakeDB is an in-memory store.TransactionRunner used to exercise the
// contrib.Engine without a real database, the way the teacher's tests
// exercise app logic against a throwaway sqlite file — here kept purely
// in-process since contrib has no SQL dependency of its own.
type fakeDB struct {
	mu sync.Mutex

	stops         map[int64]model.Stop
	routes        map[int64]model.Route
	subroutes     map[int64]model.Subroute
	departures    map[int64]model.Departure
	pictures      map[int64]model.Picture
	links         map[int64][]model.PictureStopLink
	contributions map[int64]contrib.Contribution
	changesets    []contrib.Changeset
	nextID        int64

	failChangesetAppend bool
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		stops:         map[int64]model.Stop{},
		routes:        map[int64]model.Route{},
		subroutes:     map[int64]model.Subroute{},
		departures:    map[int64]model.Departure{},
		pictures:      map[int64]model.Picture{},
		links:         map[int64][]model.PictureStopLink{},
		contributions: map[int64]contrib.Contribution{},
	}
}

func (db *fakeDB) Transaction(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := db.snapshot()
	if err := fn(ctx, &fakeTx{db: db}); err != nil {
		db.restore(snapshot)
		return err
	}
	return nil
}

type dbSnapshot struct {
	stops         map[int64]model.Stop
	contributions map[int64]contrib.Contribution
	changesets    []contrib.Changeset
}

func (db *fakeDB) snapshot() dbSnapshot {
	stops := make(map[int64]model.Stop, len(db.stops))
	for k, v := range db.stops {
		stops[k] = v
	}
	contributions := make(map[int64]contrib.Contribution, len(db.contributions))
	for k, v := range db.contributions {
		contributions[k] = v
	}
	changesets := make([]contrib.Changeset, len(db.changesets))
	copy(changesets, db.changesets)
	return dbSnapshot{stops: stops, contributions: contributions, changesets: changesets}
}

func (db *fakeDB) restore(s dbSnapshot) {
	db.stops = s.stops
	db.contributions = s.contributions
	db.changesets = s.changesets
}

func (db *fakeDB) allocID() int64 {
	db.nextID++
	return db.nextID
}

type fakeTx struct {
	db *fakeDB
}

func (tx *fakeTx) Stops() store.StopStore                 { return fakeStopStore{tx.db} }
func (tx *fakeTx) Routes() store.RouteStore               { return fakeRouteStore{tx.db} }
func (tx *fakeTx) Subroutes() store.SubrouteStore         { return fakeSubrouteStore{tx.db} }
func (tx *fakeTx) Departures() store.DepartureStore       { return fakeDepartureStore{tx.db} }
func (tx *fakeTx) Pictures() store.PictureStore           { return fakePictureStore{tx.db} }
func (tx *fakeTx) Contributions() store.ContributionStore { return fakeContributionStore{tx.db} }
func (tx *fakeTx) Changesets() store.ChangesetStore       { return fakeChangesetStore{tx.db} }
func (tx *fakeTx) Users() store.UserStore                 { return nil }
func (tx *fakeTx) Sessions() store.SessionStore           { return nil }
func (tx *fakeTx) Audit() store.AuditStore                { return nil }

type fakeStopStore struct{ db *fakeDB }

func (s fakeStopStore) Get(ctx context.Context, id int64) (*model.Stop, error) {
	st, ok := s.db.stops[id]
	if !ok {
		return nil, nil
	}
	cloned := st.Clone()
	return &cloned, nil
}

func (s fakeStopStore) Create(ctx context.Context, st model.Stop) (int64, error) {
	id := s.db.allocID()
	st.ID = id
	s.db.stops[id] = st
	return id, nil
}

func (s fakeStopStore) Update(ctx context.Context, st model.Stop) error {
	s.db.stops[st.ID] = st
	return nil
}

func (s fakeStopStore) Delete(ctx context.Context, id int64) error {
	delete(s.db.stops, id)
	return nil
}

type fakeRouteStore struct{ db *fakeDB }

func (s fakeRouteStore) Get(ctx context.Context, id int64) (*model.Route, error) {
	r, ok := s.db.routes[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}
func (s fakeRouteStore) Create(ctx context.Context, r model.Route) (int64, error) {
	id := s.db.allocID()
	r.ID = id
	s.db.routes[id] = r
	return id, nil
}
func (s fakeRouteStore) Update(ctx context.Context, r model.Route) error {
	s.db.routes[r.ID] = r
	return nil
}
func (s fakeRouteStore) Delete(ctx context.Context, id int64) error {
	delete(s.db.routes, id)
	return nil
}

type fakeSubrouteStore struct{ db *fakeDB }

func (s fakeSubrouteStore) Get(ctx context.Context, id int64) (*model.Subroute, error) {
	r, ok := s.db.subroutes[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}
func (s fakeSubrouteStore) ListByRoute(ctx context.Context, routeID int64) ([]model.Subroute, error) {
	var out []model.Subroute
	for _, sr := range s.db.subroutes {
		if sr.RouteID == routeID {
			out = append(out, sr)
		}
	}
	return out, nil
}
func (s fakeSubrouteStore) Create(ctx context.Context, sr model.Subroute) (int64, error) {
	id := s.db.allocID()
	sr.ID = id
	s.db.subroutes[id] = sr
	return id, nil
}
func (s fakeSubrouteStore) Update(ctx context.Context, sr model.Subroute) error {
	s.db.subroutes[sr.ID] = sr
	return nil
}
func (s fakeSubrouteStore) Delete(ctx context.Context, id int64) error {
	delete(s.db.subroutes, id)
	return nil
}

type fakeDepartureStore struct{ db *fakeDB }

func (s fakeDepartureStore) Get(ctx context.Context, id int64) (*model.Departure, error) {
	d, ok := s.db.departures[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}
func (s fakeDepartureStore) Create(ctx context.Context, d model.Departure) (int64, error) {
	id := s.db.allocID()
	d.ID = id
	s.db.departures[id] = d
	return id, nil
}
func (s fakeDepartureStore) Update(ctx context.Context, d model.Departure) error {
	s.db.departures[d.ID] = d
	return nil
}
func (s fakeDepartureStore) Delete(ctx context.Context, id int64) error {
	delete(s.db.departures, id)
	return nil
}

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

type fakeContributionStore struct{ db *fakeDB }

func (s fakeContributionStore) Get(ctx context.Context, id int64) (*contrib.Contribution, error) {
	c, ok := s.db.contributions[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}
func (s fakeContributionStore) GetForUpdate(ctx context.Context, id int64) (*contrib.Contribution, error) {
	return s.Get(ctx, id)
}
func (s fakeContributionStore) Create(ctx context.Context, c contrib.Contribution) (int64, error) {
	id := s.db.allocID()
	c.ID = id
	s.db.contributions[id] = c
	return id, nil
}
func (s fakeContributionStore) SetEvaluation(ctx context.Context, id int64, eval contrib.Evaluation) error {
	c := s.db.contributions[id]
	c.Eval = &eval
	s.db.contributions[id] = c
	return nil
}
func (s fakeContributionStore) UpdateUndecided(ctx context.Context, c contrib.Contribution) error {
	s.db.contributions[c.ID] = c
	return nil
}
func (s fakeContributionStore) ListUndecided(ctx context.Context, authorID *int64, offset, limit int) ([]contrib.Contribution, int, error) {
	var out []contrib.Contribution
	for _, c := range s.db.contributions {
		if c.State() != contrib.Undecided {
			continue
		}
		if authorID != nil && c.AuthorID != *authorID {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}
func (s fakeContributionStore) ListDecided(ctx context.Context, authorID *int64, offset, limit int) ([]contrib.Contribution, int, error) {
	var out []contrib.Contribution
	for _, c := range s.db.contributions {
		if c.State() == contrib.Undecided {
			continue
		}
		if authorID != nil && c.AuthorID != *authorID {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}
func (s fakeContributionStore) ListPendingStopUpdatesByAuthor(ctx context.Context, authorID int64) ([]contrib.Contribution, error) {
	var out []contrib.Contribution
	for _, c := range s.db.contributions {
		if c.AuthorID != authorID || c.State() != contrib.Undecided {
			continue
		}
		if _, ok := c.Change.(contrib.StopUpdate); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeChangesetStore struct{ db *fakeDB }

func (s fakeChangesetStore) Append(ctx context.Context, c contrib.Changeset) (int64, error) {
	if s.db.failChangesetAppend {
		return 0, assertErr
	}
	id := s.db.allocID()
	c.ID = id
	s.db.changesets = append(s.db.changesets, c)
	return id, nil
}

var assertErr = &injectedFault{}

type injectedFault struct{}

func (*injectedFault) Error() string { return "injected changeset append failure" }
