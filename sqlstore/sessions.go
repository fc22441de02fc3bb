package sqlstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/intermodalis/transitcore/coreerrors"
	"github.com/intermodalis/transitcore/model"
)

type sessionStore struct{ tx *tx }

func (s sessionStore) CreateSession(ctx context.Context, sess model.Session) error {
	_, err := s.tx.exec(ctx,
		`INSERT INTO sessions (id, user_id, ip, user_agent, expiration, revoked) VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID.String(), sess.UserID, sess.IP, sess.UserAgent, sess.Expiration, sess.Revoked)
	return err
}

func (s sessionStore) GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	var sess model.Session
	var idStr string
	err := s.tx.queryRow(ctx,
		`SELECT id, user_id, ip, user_agent, expiration, revoked FROM sessions WHERE id = ?`, id.String()).
		Scan(&idStr, &sess.UserID, &sess.IP, &sess.UserAgent, &sess.Expiration, &sess.Revoked)
	if err != nil {
		if rowNotFound(err) {
			return nil, nil
		}
		return nil, coreerrors.DatabaseExecution.Wrap(err)
	}
	parsed, err := uuid.Parse(idStr)
	if err != nil {
		return nil, coreerrors.DatabaseDeserialization.Wrap(err)
	}
	sess.ID = parsed
	return &sess, nil
}

func (s sessionStore) RevokeSession(ctx context.Context, id uuid.UUID) error {
	_, err := s.tx.exec(ctx, `UPDATE sessions SET revoked = ? WHERE id = ?`, true, id.String())
	return err
}

func (s sessionStore) CreateAccessSession(ctx context.Context, a model.AccessSession) error {
	_, err := s.tx.exec(ctx,
		`INSERT INTO access_sessions (id, refresh_id, user_id, expiration) VALUES (?, ?, ?, ?)`,
		a.ID.String(), a.RefreshID.String(), a.UserID, a.Expiration)
	return err
}

func (s sessionStore) CreateManagementToken(ctx context.Context, m model.ManagementTokenRecord) error {
	_, err := s.tx.exec(ctx,
		`INSERT INTO management_tokens (id, name, user_id, token) VALUES (?, ?, ?, ?)`,
		m.ID.String(), m.Name, m.UserID, m.Token)
	return err
}
