package sqlstore

import (
	"context"
	"encoding/json"

	"github.com/intermodalis/transitcore/coreerrors"
	"github.com/intermodalis/transitcore/model"
)

type subrouteRow struct {
	Name     string
	Flag     string
	Via      []int64
	Headsign *string
}

func toSubrouteRow(s model.Subroute) subrouteRow {
	return subrouteRow{Name: s.Name, Flag: s.Flag, Via: s.Via, Headsign: s.Headsign}
}

func (r subrouteRow) toModel(id, routeID int64) model.Subroute {
	return model.Subroute{ID: id, RouteID: routeID, Name: r.Name, Flag: r.Flag, Via: r.Via, Headsign: r.Headsign}
}

type subrouteStore struct{ tx *tx }

func (s subrouteStore) Get(ctx context.Context, id int64) (*model.Subroute, error) {
	var routeID int64
	var data string
	err := s.tx.queryRow(ctx, `SELECT route_id, data FROM subroutes WHERE id = ?`, id).Scan(&routeID, &data)
	if err != nil {
		if rowNotFound(err) {
			return nil, nil
		}
		return nil, coreerrors.DatabaseExecution.Wrap(err)
	}
	var row subrouteRow
	if err := json.Unmarshal([]byte(data), &row); err != nil {
		return nil, coreerrors.DatabaseDeserialization.Wrap(err)
	}
	sub := row.toModel(id, routeID)
	return &sub, nil
}

func (s subrouteStore) ListByRoute(ctx context.Context, routeID int64) ([]model.Subroute, error) {
	rows, err := s.tx.query(ctx, `SELECT id, data FROM subroutes WHERE route_id = ? ORDER BY id`, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Subroute
	for rows.Next() {
		var id int64
		var data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, coreerrors.DatabaseExecution.Wrap(err)
		}
		var row subrouteRow
		if err := json.Unmarshal([]byte(data), &row); err != nil {
			return nil, coreerrors.DatabaseDeserialization.Wrap(err)
		}
		out = append(out, row.toModel(id, routeID))
	}
	if err := rows.Err(); err != nil {
		return nil, coreerrors.DatabaseExecution.Wrap(err)
	}
	return out, nil
}

func (s subrouteStore) Create(ctx context.Context, sub model.Subroute) (int64, error) {
	id, err := s.tx.nextID(ctx, "subroute")
	if err != nil {
		return 0, err
	}
	data, err := json.Marshal(toSubrouteRow(sub))
	if err != nil {
		return 0, coreerrors.DatabaseDeserialization.Wrap(err)
	}
	if _, err := s.tx.exec(ctx, `INSERT INTO subroutes (id, route_id, data) VALUES (?, ?, ?)`, id, sub.RouteID, string(data)); err != nil {
		return 0, err
	}
	return id, nil
}

func (s subrouteStore) Update(ctx context.Context, sub model.Subroute) error {
	data, err := json.Marshal(toSubrouteRow(sub))
	if err != nil {
		return coreerrors.DatabaseDeserialization.Wrap(err)
	}
	_, err = s.tx.exec(ctx, `UPDATE subroutes SET route_id = ?, data = ? WHERE id = ?`, sub.RouteID, string(data), sub.ID)
	return err
}

func (s subrouteStore) Delete(ctx context.Context, id int64) error {
	_, err := s.tx.exec(ctx, `DELETE FROM subroutes WHERE id = ?`, id)
	return err
}
