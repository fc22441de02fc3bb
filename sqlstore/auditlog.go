package sqlstore

import (
	"context"
	"encoding/json"

	"github.com/intermodalis/transitcore/coreerrors"
	"github.com/intermodalis/transitcore/model"
)

type auditStore struct{ tx *tx }

func (s auditStore) Append(ctx context.Context, e model.AuditLogEntry) (int64, error) {
	id, err := s.tx.nextID(ctx, "audit_log")
	if err != nil {
		return 0, err
	}
	data, err := json.Marshal(e.Action)
	if err != nil {
		return 0, coreerrors.DatabaseDeserialization.Wrap(err)
	}
	if _, err := s.tx.exec(ctx,
		`INSERT INTO audit_log (id, user_id, datetime, ip, data) VALUES (?, ?, ?, ?, ?)`,
		id, e.UserID, e.Datetime, e.IP, string(data)); err != nil {
		return 0, err
	}
	return id, nil
}

func (s auditStore) ListForUser(ctx context.Context, userID int64, offset, limit int) ([]model.AuditLogEntry, int, error) {
	var total int
	if err := s.tx.queryRow(ctx, `SELECT COUNT(*) FROM audit_log WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, coreerrors.DatabaseExecution.Wrap(err)
	}

	query := `SELECT id, datetime, ip, data FROM audit_log WHERE user_id = ? ORDER BY datetime DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := s.tx.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.AuditLogEntry
	for rows.Next() {
		e := model.AuditLogEntry{UserID: userID}
		var data string
		if err := rows.Scan(&e.ID, &e.Datetime, &e.IP, &data); err != nil {
			return nil, 0, coreerrors.DatabaseExecution.Wrap(err)
		}
		if err := json.Unmarshal([]byte(data), &e.Action); err != nil {
			return nil, 0, coreerrors.DatabaseDeserialization.Wrap(err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, coreerrors.DatabaseExecution.Wrap(err)
	}
	return out, total, nil
}
