// Package store defines the persistence interfaces the core depends on
// (spec.md §2 components F, E, D data, J data). Concrete implementations
// live in sqlstore; this package exists so contrib, auth, and picpipeline
// depend only on the shape of persistence, not on database/sql or a driver
// (grounded on the teacher's app.PersistentDB, which is consumed the same
// way by its gerrit/slack collaborators).
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/intermodalis/transitcore/model"
)

// Tx is an open transaction handle. Callers obtain one via
// TransactionRunner.Transaction and must not retain it beyond the callback.
type Tx interface {
	Stops() StopStore
	Routes() RouteStore
	Subroutes() SubrouteStore
	Departures() DepartureStore
	Pictures() PictureStore
	Contributions() ContributionStore
	Changesets() ChangesetStore
	Users() UserStore
	Sessions() SessionStore
	Audit() AuditStore
}

// TransactionRunner runs fn inside a single ACID transaction (spec.md §5):
// if fn returns an error, every write inside it is rolled back.
type TransactionRunner interface {
	Transaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// StopStore persists Stop rows.
type StopStore interface {
	Get(ctx context.Context, id int64) (*model.Stop, error)
	Create(ctx context.Context, s model.Stop) (int64, error)
	Update(ctx context.Context, s model.Stop) error
	Delete(ctx context.Context, id int64) error
}

// RouteStore persists Route rows.
type RouteStore interface {
	Get(ctx context.Context, id int64) (*model.Route, error)
	Create(ctx context.Context, r model.Route) (int64, error)
	Update(ctx context.Context, r model.Route) error
	Delete(ctx context.Context, id int64) error
}

// SubrouteStore persists Subroute rows.
type SubrouteStore interface {
	Get(ctx context.Context, id int64) (*model.Subroute, error)
	ListByRoute(ctx context.Context, routeID int64) ([]model.Subroute, error)
	Create(ctx context.Context, s model.Subroute) (int64, error)
	Update(ctx context.Context, s model.Subroute) error
	Delete(ctx context.Context, id int64) error
}

// DepartureStore persists Departure rows.
type DepartureStore interface {
	Get(ctx context.Context, id int64) (*model.Departure, error)
	Create(ctx context.Context, d model.Departure) (int64, error)
	Update(ctx context.Context, d model.Departure) error
	Delete(ctx context.Context, id int64) error
}

// PictureStore persists Picture rows and their stop links.
type PictureStore interface {
	GetByHash(ctx context.Context, hash string) (*model.Picture, error)
	Get(ctx context.Context, id int64) (*model.Picture, error)
	Create(ctx context.Context, p model.Picture) (int64, error)
	UpdateMeta(ctx context.Context, p model.Picture) error
	Delete(ctx context.Context, id int64) error
	LinksForPicture(ctx context.Context, pictureID int64) ([]model.PictureStopLink, error)
	SetLinks(ctx context.Context, pictureID int64, links []model.PictureStopLink) error
	DeleteLinks(ctx context.Context, pictureID int64) error
}

// ContributionStore persists Contribution rows (spec.md §3 Contribution).
type ContributionStore interface {
	Get(ctx context.Context, id int64) (*model.Contribution, error)
	// GetForUpdate loads a contribution with a row lock held for the
	// duration of the enclosing transaction (spec.md §5 "database-level
	// row locks serialize the conflicting transactions").
	GetForUpdate(ctx context.Context, id int64) (*model.Contribution, error)
	Create(ctx context.Context, c model.Contribution) (int64, error)
	SetEvaluation(ctx context.Context, id int64, eval model.Evaluation) error
	UpdateUndecided(ctx context.Context, c model.Contribution) error
	ListUndecided(ctx context.Context, authorID *int64, offset, limit int) ([]model.Contribution, int, error)
	ListDecided(ctx context.Context, authorID *int64, offset, limit int) ([]model.Contribution, int, error)
	ListPendingStopUpdatesByAuthor(ctx context.Context, authorID int64) ([]model.Contribution, error)
}

// ChangesetStore persists the append-only Changeset log (spec.md §3).
type ChangesetStore interface {
	Append(ctx context.Context, c model.Changeset) (int64, error)
}

// UserStore persists User rows (spec.md §4.4).
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, u model.User) (int64, error)
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
}

// SessionStore persists Session, AccessSession, and ManagementTokenRecord
// rows (spec.md §3, §4.4).
type SessionStore interface {
	CreateSession(ctx context.Context, s model.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error)
	RevokeSession(ctx context.Context, id uuid.UUID) error
	CreateAccessSession(ctx context.Context, a model.AccessSession) error
	CreateManagementToken(ctx context.Context, m model.ManagementTokenRecord) error
}

// AuditStore persists AuditLogEntry rows (spec.md §3, Component E).
type AuditStore interface {
	Append(ctx context.Context, e model.AuditLogEntry) (int64, error)
	ListForUser(ctx context.Context, userID int64, offset, limit int) ([]model.AuditLogEntry, int, error)
}

// CaptchaStore is the process-wide captcha registry (spec.md §5 "Shared
// state"): uuid to challenge answer, single-use and atomic.
type CaptchaStore interface {
	// Issue records a new challenge, valid until expiry, and returns its id.
	Issue(ctx context.Context, answer string, expiry time.Time) (uuid.UUID, error)
	// Consume atomically checks and invalidates the challenge named by id;
	// it returns true only the first time a correct answer is presented
	// before expiry.
	Consume(ctx context.Context, id uuid.UUID, answer string) (bool, error)
}
