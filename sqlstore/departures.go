package sqlstore

import (
	"context"
	"encoding/json"

	"github.com/intermodalis/transitcore/coreerrors"
	"github.com/intermodalis/transitcore/model"
)

type departureRow struct {
	Time       int
	CalendarID int64
}

func toDepartureRow(d model.Departure) departureRow {
	return departureRow{Time: d.Time, CalendarID: d.CalendarID}
}

func (r departureRow) toModel(id, subrouteID int64) model.Departure {
	return model.Departure{ID: id, SubrouteID: subrouteID, Time: r.Time, CalendarID: r.CalendarID}
}

type departureStore struct{ tx *tx }

func (s departureStore) Get(ctx context.Context, id int64) (*model.Departure, error) {
	var subrouteID int64
	var data string
	err := s.tx.queryRow(ctx, `SELECT subroute_id, data FROM departures WHERE id = ?`, id).Scan(&subrouteID, &data)
	if err != nil {
		if rowNotFound(err) {
			return nil, nil
		}
		return nil, coreerrors.DatabaseExecution.Wrap(err)
	}
	var row departureRow
	if err := json.Unmarshal([]byte(data), &row); err != nil {
		return nil, coreerrors.DatabaseDeserialization.Wrap(err)
	}
	d := row.toModel(id, subrouteID)
	return &d, nil
}

func (s departureStore) Create(ctx context.Context, d model.Departure) (int64, error) {
	id, err := s.tx.nextID(ctx, "departure")
	if err != nil {
		return 0, err
	}
	data, err := json.Marshal(toDepartureRow(d))
	if err != nil {
		return 0, coreerrors.DatabaseDeserialization.Wrap(err)
	}
	if _, err := s.tx.exec(ctx, `INSERT INTO departures (id, subroute_id, data) VALUES (?, ?, ?)`, id, d.SubrouteID, string(data)); err != nil {
		return 0, err
	}
	return id, nil
}

func (s departureStore) Update(ctx context.Context, d model.Departure) error {
	data, err := json.Marshal(toDepartureRow(d))
	if err != nil {
		return coreerrors.DatabaseDeserialization.Wrap(err)
	}
	_, err = s.tx.exec(ctx, `UPDATE departures SET subroute_id = ?, data = ? WHERE id = ?`, d.SubrouteID, string(data), d.ID)
	return err
}

func (s departureStore) Delete(ctx context.Context, id int64) error {
	_, err := s.tx.exec(ctx, `DELETE FROM departures WHERE id = ?`, id)
	return err
}
