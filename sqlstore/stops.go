package sqlstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/intermodalis/transitcore/coreerrors"
	"github.com/intermodalis/transitcore/model"
)

// stopRow mirrors model.Stop minus the id, which lives in its own column.
type stopRow struct {
	NameCanonical *string
	NameShort     *string
	Address       *model.Address
	ParishID      *int64
	Lat, Lon      *float64
	Notes         string
	Tags          []string
	A11y          model.A11y
	Flags         []string
	Schedules     []model.ScheduleRef
	Verification  model.Verification

	ServiceCheckDate        *time.Time
	InfrastructureCheckDate *time.Time
}

func toStopRow(s model.Stop) stopRow {
	return stopRow{
		NameCanonical:           s.NameCanonical,
		NameShort:               s.NameShort,
		Address:                 s.Address,
		ParishID:                s.ParishID,
		Lat:                     s.Lat,
		Lon:                     s.Lon,
		Notes:                   s.Notes,
		Tags:                    s.Tags,
		A11y:                    s.A11y,
		Flags:                   s.Flags,
		Schedules:               s.Schedules,
		Verification:            s.Verification,
		ServiceCheckDate:        s.ServiceCheckDate,
		InfrastructureCheckDate: s.InfrastructureCheckDate,
	}
}

func (r stopRow) toModel(id int64) model.Stop {
	return model.Stop{
		ID:                      id,
		NameCanonical:           r.NameCanonical,
		NameShort:               r.NameShort,
		Address:                 r.Address,
		ParishID:                r.ParishID,
		Lat:                     r.Lat,
		Lon:                     r.Lon,
		Notes:                   r.Notes,
		Tags:                    r.Tags,
		A11y:                    r.A11y,
		Flags:                   r.Flags,
		Schedules:               r.Schedules,
		Verification:            r.Verification,
		ServiceCheckDate:        r.ServiceCheckDate,
		InfrastructureCheckDate: r.InfrastructureCheckDate,
	}
}

type stopStore struct{ tx *tx }

func (s stopStore) Get(ctx context.Context, id int64) (*model.Stop, error) {
	var data string
	err := s.tx.queryRow(ctx, `SELECT data FROM stops WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if rowNotFound(err) {
			return nil, nil
		}
		return nil, coreerrors.DatabaseExecution.Wrap(err)
	}
	var row stopRow
	if err := json.Unmarshal([]byte(data), &row); err != nil {
		return nil, coreerrors.DatabaseDeserialization.Wrap(err)
	}
	stop := row.toModel(id)
	return &stop, nil
}

func (s stopStore) Create(ctx context.Context, stop model.Stop) (int64, error) {
	id, err := s.tx.nextID(ctx, "stop")
	if err != nil {
		return 0, err
	}
	data, err := json.Marshal(toStopRow(stop))
	if err != nil {
		return 0, coreerrors.DatabaseDeserialization.Wrap(err)
	}
	if _, err := s.tx.exec(ctx, `INSERT INTO stops (id, data) VALUES (?, ?)`, id, string(data)); err != nil {
		return 0, err
	}
	return id, nil
}

func (s stopStore) Update(ctx context.Context, stop model.Stop) error {
	data, err := json.Marshal(toStopRow(stop))
	if err != nil {
		return coreerrors.DatabaseDeserialization.Wrap(err)
	}
	_, err = s.tx.exec(ctx, `UPDATE stops SET data = ? WHERE id = ?`, string(data), stop.ID)
	return err
}

func (s stopStore) Delete(ctx context.Context, id int64) error {
	_, err := s.tx.exec(ctx, `DELETE FROM stops WHERE id = ?`, id)
	return err
}
