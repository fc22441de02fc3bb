package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/intermodalis/transitcore/contrib"
	"github.com/intermodalis/transitcore/coreerrors"
)

// contributionRow mirrors contrib.Contribution minus the columns promoted
// for filtering (author_id, change_kind, decided, submission_date).
type contributionRow struct {
	Change  json.RawMessage
	Eval    *contrib.Evaluation
	Comment *string
}

func toContributionRow(c contrib.Contribution) (contributionRow, error) {
	changeJSON, err := contrib.MarshalChange(c.Change)
	if err != nil {
		return contributionRow{}, err
	}
	return contributionRow{Change: changeJSON, Eval: c.Eval, Comment: c.Comment}, nil
}

func (r contributionRow) toModel(id, authorID int64, submissionDate time.Time) (contrib.Contribution, error) {
	change, err := contrib.UnmarshalChange(r.Change)
	if err != nil {
		return contrib.Contribution{}, err
	}
	return contrib.Contribution{
		ID:             id,
		AuthorID:       authorID,
		Change:         change,
		SubmissionDate: submissionDate,
		Eval:           r.Eval,
		Comment:        r.Comment,
	}, nil
}

type contributionStore struct{ tx *tx }

func (s contributionStore) get(ctx context.Context, id int64, forUpdate bool) (*contrib.Contribution, error) {
	query := `SELECT author_id, submission_date, data FROM contributions WHERE id = ?`
	if forUpdate {
		query += s.tx.dialect.forUpdateClause()
	}
	var authorID int64
	var submissionDate time.Time
	var data string
	err := s.tx.queryRow(ctx, query, id).Scan(&authorID, &submissionDate, &data)
	if err != nil {
		if rowNotFound(err) {
			return nil, nil
		}
		return nil, coreerrors.DatabaseExecution.Wrap(err)
	}
	var row contributionRow
	if err := json.Unmarshal([]byte(data), &row); err != nil {
		return nil, coreerrors.DatabaseDeserialization.Wrap(err)
	}
	c, err := row.toModel(id, authorID, submissionDate)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s contributionStore) Get(ctx context.Context, id int64) (*contrib.Contribution, error) {
	return s.get(ctx, id, false)
}

// GetForUpdate loads a contribution with a row lock held for the duration
// of the enclosing transaction. SQLite has no row-lock clause; there, the
// engine's single-writer-at-a-time behavior already serializes the
// conflicting transactions that Postgres's FOR UPDATE targets explicitly.
func (s contributionStore) GetForUpdate(ctx context.Context, id int64) (*contrib.Contribution, error) {
	return s.get(ctx, id, true)
}

func (s contributionStore) Create(ctx context.Context, c contrib.Contribution) (int64, error) {
	id, err := s.tx.nextID(ctx, "contribution")
	if err != nil {
		return 0, err
	}
	row, err := toContributionRow(c)
	if err != nil {
		return 0, err
	}
	data, err := json.Marshal(row)
	if err != nil {
		return 0, coreerrors.DatabaseDeserialization.Wrap(err)
	}
	if _, err := s.tx.exec(ctx,
		`INSERT INTO contributions (id, author_id, change_kind, decided, submission_date, data) VALUES (?, ?, ?, ?, ?, ?)`,
		id, c.AuthorID, string(c.Change.Kind()), c.Eval != nil, c.SubmissionDate, string(data)); err != nil {
		return 0, err
	}
	return id, nil
}

func (s contributionStore) SetEvaluation(ctx context.Context, id int64, eval contrib.Evaluation) error {
	c, err := s.get(ctx, id, false)
	if err != nil {
		return err
	}
	if c == nil {
		return coreerrors.NotFoundUpstream.Wrap(sql.ErrNoRows)
	}
	c.Eval = &eval
	return s.update(ctx, *c)
}

func (s contributionStore) UpdateUndecided(ctx context.Context, c contrib.Contribution) error {
	return s.update(ctx, c)
}

func (s contributionStore) update(ctx context.Context, c contrib.Contribution) error {
	row, err := toContributionRow(c)
	if err != nil {
		return err
	}
	data, err := json.Marshal(row)
	if err != nil {
		return coreerrors.DatabaseDeserialization.Wrap(err)
	}
	_, err = s.tx.exec(ctx,
		`UPDATE contributions SET change_kind = ?, decided = ?, data = ? WHERE id = ?`,
		string(c.Change.Kind()), c.Eval != nil, string(data), c.ID)
	return err
}

func (s contributionStore) list(ctx context.Context, decided bool, authorID *int64, offset, limit int) ([]contrib.Contribution, int, error) {
	countQuery := `SELECT COUNT(*) FROM contributions WHERE decided = ?`
	listQuery := `SELECT id, author_id, submission_date, data FROM contributions WHERE decided = ?`
	args := []interface{}{decided}
	if authorID != nil {
		countQuery += ` AND author_id = ?`
		listQuery += ` AND author_id = ?`
		args = append(args, *authorID)
	}

	var total int
	if err := s.tx.queryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, coreerrors.DatabaseExecution.Wrap(err)
	}

	listQuery += ` ORDER BY id`
	if limit > 0 {
		listQuery += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := s.tx.query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []contrib.Contribution
	for rows.Next() {
		var id, authorID int64
		var submissionDate time.Time
		var data string
		if err := rows.Scan(&id, &authorID, &submissionDate, &data); err != nil {
			return nil, 0, coreerrors.DatabaseExecution.Wrap(err)
		}
		var row contributionRow
		if err := json.Unmarshal([]byte(data), &row); err != nil {
			return nil, 0, coreerrors.DatabaseDeserialization.Wrap(err)
		}
		c, err := row.toModel(id, authorID, submissionDate)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, coreerrors.DatabaseExecution.Wrap(err)
	}
	return out, total, nil
}

func (s contributionStore) ListUndecided(ctx context.Context, authorID *int64, offset, limit int) ([]contrib.Contribution, int, error) {
	return s.list(ctx, false, authorID, offset, limit)
}

func (s contributionStore) ListDecided(ctx context.Context, authorID *int64, offset, limit int) ([]contrib.Contribution, int, error) {
	return s.list(ctx, true, authorID, offset, limit)
}

func (s contributionStore) ListPendingStopUpdatesByAuthor(ctx context.Context, authorID int64) ([]contrib.Contribution, error) {
	rows, err := s.tx.query(ctx,
		`SELECT id, author_id, submission_date, data FROM contributions WHERE author_id = ? AND change_kind = ? AND decided = ? ORDER BY id`,
		authorID, string(contrib.KindStopUpdate), false)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []contrib.Contribution
	for rows.Next() {
		var id, author int64
		var submissionDate time.Time
		var data string
		if err := rows.Scan(&id, &author, &submissionDate, &data); err != nil {
			return nil, coreerrors.DatabaseExecution.Wrap(err)
		}
		var row contributionRow
		if err := json.Unmarshal([]byte(data), &row); err != nil {
			return nil, coreerrors.DatabaseDeserialization.Wrap(err)
		}
		c, err := row.toModel(id, author, submissionDate)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, coreerrors.DatabaseExecution.Wrap(err)
	}
	return out, nil
}
