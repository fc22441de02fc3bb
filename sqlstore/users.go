package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/intermodalis/transitcore/coreerrors"
	"github.com/intermodalis/transitcore/model"
)

// userRow mirrors model.User minus the columns promoted for uniqueness
// lookups (username, email).
type userRow struct {
	PasswordHash string
	IsAdmin      bool
	IsTrusted    bool
	WorksFor     *int64
	Consent      model.Consent
	CreatedAt    time.Time
}

func toUserRow(u model.User) userRow {
	return userRow{
		PasswordHash: u.PasswordHash,
		IsAdmin:      u.IsAdmin,
		IsTrusted:    u.IsTrusted,
		WorksFor:     u.WorksFor,
		Consent:      u.Consent,
		CreatedAt:    u.CreatedAt,
	}
}

func (r userRow) toModel(id int64, username, email string) model.User {
	return model.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: r.PasswordHash,
		IsAdmin:      r.IsAdmin,
		IsTrusted:    r.IsTrusted,
		WorksFor:     r.WorksFor,
		Consent:      r.Consent,
		CreatedAt:    r.CreatedAt,
	}
}

type userStore struct{ tx *tx }

func (s userStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var username, email, data string
	err := s.tx.queryRow(ctx, `SELECT username, email, data FROM users WHERE id = ?`, id).Scan(&username, &email, &data)
	if err != nil {
		if rowNotFound(err) {
			return nil, nil
		}
		return nil, coreerrors.DatabaseExecution.Wrap(err)
	}
	var row userRow
	if err := json.Unmarshal([]byte(data), &row); err != nil {
		return nil, coreerrors.DatabaseDeserialization.Wrap(err)
	}
	u := row.toModel(id, username, email)
	return &u, nil
}

func (s userStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var id int64
	var email, data string
	err := s.tx.queryRow(ctx, `SELECT id, email, data FROM users WHERE username = ?`, username).Scan(&id, &email, &data)
	if err != nil {
		if rowNotFound(err) {
			return nil, nil
		}
		return nil, coreerrors.DatabaseExecution.Wrap(err)
	}
	var row userRow
	if err := json.Unmarshal([]byte(data), &row); err != nil {
		return nil, coreerrors.DatabaseDeserialization.Wrap(err)
	}
	u := row.toModel(id, username, email)
	return &u, nil
}

func (s userStore) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int
	err := s.tx.queryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`, username, email).Scan(&count)
	if err != nil {
		return false, coreerrors.DatabaseExecution.Wrap(err)
	}
	return count > 0, nil
}

func (s userStore) Create(ctx context.Context, u model.User) (int64, error) {
	id, err := s.tx.nextID(ctx, "user")
	if err != nil {
		return 0, err
	}
	data, err := json.Marshal(toUserRow(u))
	if err != nil {
		return 0, coreerrors.DatabaseDeserialization.Wrap(err)
	}
	if _, err := s.tx.exec(ctx, `INSERT INTO users (id, username, email, data) VALUES (?, ?, ?, ?)`,
		id, u.Username, u.Email, string(data)); err != nil {
		return 0, err
	}
	return id, nil
}

func (s userStore) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return coreerrors.NotFoundUpstream.Wrap(sql.ErrNoRows)
	}
	u.PasswordHash = hash
	data, err := json.Marshal(toUserRow(*u))
	if err != nil {
		return coreerrors.DatabaseDeserialization.Wrap(err)
	}
	_, err = s.tx.exec(ctx, `UPDATE users SET data = ? WHERE id = ?`, string(data), userID)
	return err
}
