package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/intermodalis/transitcore/coreerrors"
	"github.com/intermodalis/transitcore/store"
)

// tx adapts one *sql.Tx to store.Tx, handing out thin per-entity views over
// the same transaction (grounded on contrib/engine.go's own store.Tx
// threading: every sub-store method that mutates state runs inside the
// caller's transaction, never opening its own).
type tx struct {
	sqlTx   *sql.Tx
	dialect dialect
}

func (t *tx) Stops() store.StopStore                 { return stopStore{t} }
func (t *tx) Routes() store.RouteStore               { return routeStore{t} }
func (t *tx) Subroutes() store.SubrouteStore         { return subrouteStore{t} }
func (t *tx) Departures() store.DepartureStore       { return departureStore{t} }
func (t *tx) Pictures() store.PictureStore           { return pictureStore{t} }
func (t *tx) Contributions() store.ContributionStore { return contributionStore{t} }
func (t *tx) Changesets() store.ChangesetStore       { return changesetStore{t} }
func (t *tx) Users() store.UserStore                 { return userStore{t} }
func (t *tx) Sessions() store.SessionStore           { return sessionStore{t} }
func (t *tx) Audit() store.AuditStore                { return auditStore{t} }

func (t *tx) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	rows, err := t.sqlTx.QueryContext(ctx, t.dialect.rebind(query), args...)
	if err != nil {
		return nil, coreerrors.DatabaseExecution.Wrap(err)
	}
	return rows, nil
}

func (t *tx) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return t.sqlTx.QueryRowContext(ctx, t.dialect.rebind(query), args...)
}

func (t *tx) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	res, err := t.sqlTx.ExecContext(ctx, t.dialect.rebind(query), args...)
	if err != nil {
		return nil, coreerrors.DatabaseExecution.Wrap(err)
	}
	return res, nil
}

// nextID allocates the next id for kind out of the id_sequences table,
// portable across postgres and sqlite3 without relying on either engine's
// native auto-increment syntax (spec.md has no opinion on key generation;
// this keeps the migration DDL identical for both backends).
func (t *tx) nextID(ctx context.Context, kind string) (int64, error) {
	if _, err := t.exec(ctx, `UPDATE id_sequences SET next_id = next_id + 1 WHERE kind = ?`, kind); err != nil {
		return 0, err
	}
	var id int64
	if err := t.queryRow(ctx, `SELECT next_id FROM id_sequences WHERE kind = ?`, kind).Scan(&id); err != nil {
		return 0, coreerrors.DatabaseExecution.Wrap(err)
	}
	return id, nil
}

func rowNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
