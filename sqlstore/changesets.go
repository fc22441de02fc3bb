package sqlstore

import (
	"context"
	"encoding/json"

	"github.com/intermodalis/transitcore/contrib"
	"github.com/intermodalis/transitcore/coreerrors"
)

type changesetStore struct{ tx *tx }

func (s changesetStore) Append(ctx context.Context, c contrib.Changeset) (int64, error) {
	id, err := s.tx.nextID(ctx, "changeset")
	if err != nil {
		return 0, err
	}

	changes := make([]json.RawMessage, len(c.Changes))
	for i, ch := range c.Changes {
		encoded, err := contrib.MarshalChange(ch)
		if err != nil {
			return 0, err
		}
		changes[i] = encoded
	}
	data, err := json.Marshal(struct {
		Changes        []json.RawMessage
		ContributionID *int64
	}{Changes: changes, ContributionID: c.ContributionID})
	if err != nil {
		return 0, coreerrors.DatabaseDeserialization.Wrap(err)
	}

	if _, err := s.tx.exec(ctx,
		`INSERT INTO changesets (id, author_id, timestamp, data) VALUES (?, ?, ?, ?)`,
		id, c.AuthorID, c.Timestamp, string(data)); err != nil {
		return 0, err
	}
	return id, nil
}
