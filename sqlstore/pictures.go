package sqlstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/intermodalis/transitcore/coreerrors"
	"github.com/intermodalis/transitcore/model"
)

// pictureRow mirrors model.Picture minus ID and ContentHash, which live in
// their own columns (the latter under a unique index, spec.md §3's
// "unique across stop pictures" invariant).
type pictureRow struct {
	Kind             model.PictureKind
	OriginalFilename string
	UploaderID       int64
	UploadDate       time.Time
	CaptureDate      *time.Time
	CameraModel      *string
	Width, Height    int
	Meta             model.PictureMeta
	Tagged           bool
	UpdaterID        *int64
	UpdateDate       *time.Time
}

func toPictureRow(p model.Picture) pictureRow {
	return pictureRow{
		Kind:             p.Kind,
		OriginalFilename: p.OriginalFilename,
		UploaderID:       p.UploaderID,
		UploadDate:       p.UploadDate,
		CaptureDate:      p.CaptureDate,
		CameraModel:      p.CameraModel,
		Width:            p.Width,
		Height:           p.Height,
		Meta:             p.Meta,
		Tagged:           p.Tagged,
		UpdaterID:        p.UpdaterID,
		UpdateDate:       p.UpdateDate,
	}
}

func (r pictureRow) toModel(id int64, contentHash string) model.Picture {
	return model.Picture{
		ID:               id,
		Kind:             r.Kind,
		OriginalFilename: r.OriginalFilename,
		ContentHash:      contentHash,
		UploaderID:       r.UploaderID,
		UploadDate:       r.UploadDate,
		CaptureDate:      r.CaptureDate,
		CameraModel:      r.CameraModel,
		Width:            r.Width,
		Height:           r.Height,
		Meta:             r.Meta,
		Tagged:           r.Tagged,
		UpdaterID:        r.UpdaterID,
		UpdateDate:       r.UpdateDate,
	}
}

type pictureStore struct{ tx *tx }

func (s pictureStore) Get(ctx context.Context, id int64) (*model.Picture, error) {
	var contentHash, data string
	err := s.tx.queryRow(ctx, `SELECT content_hash, data FROM pictures WHERE id = ?`, id).Scan(&contentHash, &data)
	if err != nil {
		if rowNotFound(err) {
			return nil, nil
		}
		return nil, coreerrors.DatabaseExecution.Wrap(err)
	}
	var r pictureRow
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, coreerrors.DatabaseDeserialization.Wrap(err)
	}
	pic := r.toModel(id, contentHash)
	return &pic, nil
}

func (s pictureStore) GetByHash(ctx context.Context, hash string) (*model.Picture, error) {
	var id int64
	var data string
	err := s.tx.queryRow(ctx, `SELECT id, data FROM pictures WHERE content_hash = ?`, hash).Scan(&id, &data)
	if err != nil {
		if rowNotFound(err) {
			return nil, nil
		}
		return nil, coreerrors.DatabaseExecution.Wrap(err)
	}
	var r pictureRow
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, coreerrors.DatabaseDeserialization.Wrap(err)
	}
	pic := r.toModel(id, hash)
	return &pic, nil
}

func (s pictureStore) Create(ctx context.Context, p model.Picture) (int64, error) {
	id, err := s.tx.nextID(ctx, "picture")
	if err != nil {
		return 0, err
	}
	data, err := json.Marshal(toPictureRow(p))
	if err != nil {
		return 0, coreerrors.DatabaseDeserialization.Wrap(err)
	}
	if _, err := s.tx.exec(ctx, `INSERT INTO pictures (id, content_hash, data) VALUES (?, ?, ?)`,
		id, p.ContentHash, string(data)); err != nil {
		return 0, err
	}
	return id, nil
}

func (s pictureStore) UpdateMeta(ctx context.Context, p model.Picture) error {
	data, err := json.Marshal(toPictureRow(p))
	if err != nil {
		return coreerrors.DatabaseDeserialization.Wrap(err)
	}
	_, err = s.tx.exec(ctx, `UPDATE pictures SET data = ? WHERE id = ?`, string(data), p.ID)
	return err
}

func (s pictureStore) Delete(ctx context.Context, id int64) error {
	_, err := s.tx.exec(ctx, `DELETE FROM pictures WHERE id = ?`, id)
	return err
}

func (s pictureStore) LinksForPicture(ctx context.Context, pictureID int64) ([]model.PictureStopLink, error) {
	rows, err := s.tx.query(ctx, `SELECT stop_id, attrs FROM picture_stop_links WHERE picture_id = ? ORDER BY stop_id`, pictureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PictureStopLink
	for rows.Next() {
		var stopID int64
		var attrsJSON string
		if err := rows.Scan(&stopID, &attrsJSON); err != nil {
			return nil, coreerrors.DatabaseExecution.Wrap(err)
		}
		var attrs []string
		if err := json.Unmarshal([]byte(attrsJSON), &attrs); err != nil {
			return nil, coreerrors.DatabaseDeserialization.Wrap(err)
		}
		out = append(out, model.PictureStopLink{PictureID: pictureID, StopID: stopID, Attrs: attrs})
	}
	if err := rows.Err(); err != nil {
		return nil, coreerrors.DatabaseExecution.Wrap(err)
	}
	return out, nil
}

func (s pictureStore) SetLinks(ctx context.Context, pictureID int64, links []model.PictureStopLink) error {
	if _, err := s.tx.exec(ctx, `DELETE FROM picture_stop_links WHERE picture_id = ?`, pictureID); err != nil {
		return err
	}
	for _, link := range links {
		attrsJSON, err := json.Marshal(link.Attrs)
		if err != nil {
			return coreerrors.DatabaseDeserialization.Wrap(err)
		}
		if _, err := s.tx.exec(ctx, `INSERT INTO picture_stop_links (picture_id, stop_id, attrs) VALUES (?, ?, ?)`,
			pictureID, link.StopID, string(attrsJSON)); err != nil {
			return err
		}
	}
	return nil
}

func (s pictureStore) DeleteLinks(ctx context.Context, pictureID int64) error {
	_, err := s.tx.exec(ctx, `DELETE FROM picture_stop_links WHERE picture_id = ?`, pictureID)
	return err
}
