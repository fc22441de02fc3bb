package sqlstore

import (
	"context"
	"encoding/json"

	"github.com/intermodalis/transitcore/coreerrors"
	"github.com/intermodalis/transitcore/model"
)

type routeRow struct {
	OperatorID int64
	Code       string
	Name       string
	Circular   bool
}

func toRouteRow(r model.Route) routeRow {
	return routeRow{OperatorID: r.OperatorID, Code: r.Code, Name: r.Name, Circular: r.Circular}
}

func (r routeRow) toModel(id int64) model.Route {
	return model.Route{ID: id, OperatorID: r.OperatorID, Code: r.Code, Name: r.Name, Circular: r.Circular}
}

type routeStore struct{ tx *tx }

func (s routeStore) Get(ctx context.Context, id int64) (*model.Route, error) {
	var data string
	err := s.tx.queryRow(ctx, `SELECT data FROM routes WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if rowNotFound(err) {
			return nil, nil
		}
		return nil, coreerrors.DatabaseExecution.Wrap(err)
	}
	var row routeRow
	if err := json.Unmarshal([]byte(data), &row); err != nil {
		return nil, coreerrors.DatabaseDeserialization.Wrap(err)
	}
	route := row.toModel(id)
	return &route, nil
}

func (s routeStore) Create(ctx context.Context, route model.Route) (int64, error) {
	id, err := s.tx.nextID(ctx, "route")
	if err != nil {
		return 0, err
	}
	data, err := json.Marshal(toRouteRow(route))
	if err != nil {
		return 0, coreerrors.DatabaseDeserialization.Wrap(err)
	}
	if _, err := s.tx.exec(ctx, `INSERT INTO routes (id, data) VALUES (?, ?)`, id, string(data)); err != nil {
		return 0, err
	}
	return id, nil
}

func (s routeStore) Update(ctx context.Context, route model.Route) error {
	data, err := json.Marshal(toRouteRow(route))
	if err != nil {
		return coreerrors.DatabaseDeserialization.Wrap(err)
	}
	_, err = s.tx.exec(ctx, `UPDATE routes SET data = ? WHERE id = ?`, string(data), route.ID)
	return err
}

func (s routeStore) Delete(ctx context.Context, id int64) error {
	_, err := s.tx.exec(ctx, `DELETE FROM routes WHERE id = ?`, id)
	return err
}
