// Package picpipeline implements Component H (spec.md §4.3): the
// upload/delete orchestration tying together imaging, objstore, and
// store. It holds no state of its own beyond those three collaborators.
package picpipeline

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/intermodalis/transitcore/coreerrors"
	"github.com/intermodalis/transitcore/imaging"
	"github.com/intermodalis/transitcore/model"
	"github.com/intermodalis/transitcore/store"
)

// BlobStore is the subset of objstore.Store this package depends on,
// declared as an interface for the same reason the store package is: so
// this package's tests can fake the blob layer without a live bucket.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
}

const (
	mediumMaxW, mediumMaxH = 1200, 800
	thumbMaxW, thumbMaxH   = 300, 200
	mediumQuality          = 85
	thumbQuality           = 90
)

func oriKey(hash string) string    { return "ori/" + hash }
func mediumKey(hash string) string { return "medium/" + hash }
func thumbKey(hash string) string  { return "thumb/" + hash }
func panoKey(hash string) string   { return "pano/" + hash }

// Pipeline is Component H.
type Pipeline struct {
	logger *zap.Logger
	txs    store.TransactionRunner
	blobs  BlobStore
	now    func() time.Time
}

// NewPipeline builds a Pipeline. now defaults to time.Now if nil.
func NewPipeline(logger *zap.Logger, txs store.TransactionRunner, blobs BlobStore, now func() time.Time) *Pipeline {
	if now == nil {
		now = time.Now
	}
	return &Pipeline{logger: logger, txs: txs, blobs: blobs, now: now}
}

// UploadRequest is the input to Upload (spec.md §4.3 "upload contract").
type UploadRequest struct {
	UploaderID int64
	Filename   string
	Bytes      []byte
	Stops      []int64
}

func sha1Hex(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Upload implements the stop-picture upload algorithm (spec.md §4.3 steps
// 1-6).
func (p *Pipeline) Upload(ctx context.Context, req UploadRequest) (*model.Picture, error) {
	hash := sha1Hex(req.Bytes)

	var existing *model.Picture
	if err := p.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		existing, err = tx.Pictures().GetByHash(ctx, hash)
		return err
	}); err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, coreerrors.NewDuplicatedResource(existing)
	}

	img, err := imaging.Decode(req.Bytes)
	if err != nil {
		return nil, err
	}
	exif, _ := imaging.ExtractExif(req.Bytes)
	orientation := 1
	if exif != nil {
		orientation = exif.Orientation
	}
	upright := imaging.ApplyOrientation(img, orientation)
	bounds := upright.Bounds()

	mediumBytes, err := imaging.EncodeWebp(imaging.ResizeWithin(upright, mediumMaxW, mediumMaxH), mediumQuality)
	if err != nil {
		return nil, err
	}
	thumbBytes, err := imaging.EncodeWebp(imaging.ResizeWithin(upright, thumbMaxW, thumbMaxH), thumbQuality)
	if err != nil {
		return nil, err
	}

	originalContentType := mime.TypeByExtension(filepath.Ext(req.Filename))
	if originalContentType == "" {
		originalContentType = "application/octet-stream"
	}

	written := make([]string, 0, 3)
	put := func(key string, data []byte, contentType string) error {
		if err := p.blobs.Put(ctx, key, data, contentType); err != nil {
			return err
		}
		written = append(written, key)
		return nil
	}
	if err := put(oriKey(hash), req.Bytes, originalContentType); err != nil {
		p.cleanup(ctx, written)
		return nil, err
	}
	if err := put(mediumKey(hash), mediumBytes, "image/webp"); err != nil {
		p.cleanup(ctx, written)
		return nil, err
	}
	if err := put(thumbKey(hash), thumbBytes, "image/webp"); err != nil {
		p.cleanup(ctx, written)
		return nil, err
	}

	pic := model.Picture{
		Kind:             model.KindStopPic,
		OriginalFilename: req.Filename,
		ContentHash:      hash,
		UploaderID:       req.UploaderID,
		UploadDate:       p.now(),
		Width:            bounds.Dx(),
		Height:           bounds.Dy(),
	}
	if exif != nil {
		pic.CaptureDate = exif.Capture
		pic.CameraModel = exif.CameraModel
		pic.Meta.Lat, pic.Meta.Lon = exif.Lat, exif.Lon
	}

	if err := p.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		id, err := tx.Pictures().Create(ctx, pic)
		if err != nil {
			return err
		}
		pic.ID = id

		links := make([]model.PictureStopLink, len(req.Stops))
		for i, stopID := range req.Stops {
			links[i] = model.PictureStopLink{PictureID: id, StopID: stopID}
		}
		if err := tx.Pictures().SetLinks(ctx, id, links); err != nil {
			return err
		}

		return appendChangeset(ctx, tx, req.UploaderID, p.now(), stopPicUploadChange(pic, req.Stops))
	}); err != nil {
		p.cleanup(ctx, written)
		return nil, err
	}

	return &pic, nil
}

// PanoramaUploadRequest is the input to UploadPanorama (spec.md §4.3
// "Panorama upload").
type PanoramaUploadRequest struct {
	UploaderID int64
	Filename   string
	Bytes      []byte
	Stops      []int64
}

// UploadPanorama implements the panorama-specific branch of the upload
// algorithm: the filename extension must be .insp (case-insensitive), EXIF
// is mandatory, and exactly one blob is written (spec.md §4.3).
func (p *Pipeline) UploadPanorama(ctx context.Context, req PanoramaUploadRequest) (*model.Picture, error) {
	if !strings.EqualFold(filepath.Ext(req.Filename), ".insp") {
		return nil, coreerrors.ValidationFailure.New("panorama filename must have an .insp extension")
	}

	hash := sha1Hex(req.Bytes)

	var existing *model.Picture
	if err := p.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		existing, err = tx.Pictures().GetByHash(ctx, hash)
		return err
	}); err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, coreerrors.NewDuplicatedResource(existing)
	}

	exif, _ := imaging.ExtractExif(req.Bytes)
	if exif == nil {
		return nil, coreerrors.Processing.New("panorama upload requires EXIF metadata")
	}

	if err := p.blobs.Put(ctx, panoKey(hash), req.Bytes, "image/jpeg"); err != nil {
		return nil, err
	}

	pic := model.Picture{
		Kind:             model.KindPano,
		OriginalFilename: req.Filename,
		ContentHash:      hash,
		UploaderID:       req.UploaderID,
		UploadDate:       p.now(),
		CaptureDate:      exif.Capture,
		CameraModel:      exif.CameraModel,
	}
	pic.Meta.Lat, pic.Meta.Lon = exif.Lat, exif.Lon

	if err := p.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		id, err := tx.Pictures().Create(ctx, pic)
		if err != nil {
			return err
		}
		pic.ID = id

		links := make([]model.PictureStopLink, len(req.Stops))
		for i, stopID := range req.Stops {
			links[i] = model.PictureStopLink{PictureID: id, StopID: stopID}
		}
		if err := tx.Pictures().SetLinks(ctx, id, links); err != nil {
			return err
		}

		return appendChangeset(ctx, tx, req.UploaderID, p.now(), stopPicUploadChange(pic, req.Stops))
	}); err != nil {
		p.cleanup(ctx, []string{panoKey(hash)})
		return nil, err
	}

	return &pic, nil
}

// Delete implements spec.md §4.3's delete contract: authorizes (uploader OR
// StopPics.delete, checked by the caller before invoking this), removes
// blobs, then deletes rows transactionally.
func (p *Pipeline) Delete(ctx context.Context, pictureID int64, evaluatorID int64) error {
	var pic *model.Picture
	var links []model.PictureStopLink
	if err := p.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		pic, err = tx.Pictures().Get(ctx, pictureID)
		if err != nil {
			return err
		}
		if pic == nil {
			return coreerrors.NotFoundUpstream.New("picture %d not found", pictureID)
		}
		links, err = tx.Pictures().LinksForPicture(ctx, pictureID)
		return err
	}); err != nil {
		return err
	}

	var keys []string
	if pic.Kind == model.KindPano {
		keys = []string{panoKey(pic.ContentHash)}
	} else {
		keys = []string{oriKey(pic.ContentHash), mediumKey(pic.ContentHash), thumbKey(pic.ContentHash)}
	}
	if err := p.blobs.Delete(ctx, keys...); err != nil {
		return err
	}

	stopIDs := make([]int64, len(links))
	for i, l := range links {
		stopIDs[i] = l.StopID
	}

	return p.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Pictures().DeleteLinks(ctx, pictureID); err != nil {
			return err
		}
		if err := tx.Pictures().Delete(ctx, pictureID); err != nil {
			return err
		}
		return appendChangeset(ctx, tx, evaluatorID, p.now(), stopPicDeletionChange(*pic, stopIDs))
	})
}

// cleanup best-effort deletes blobs already written before a later step
// failed (spec.md §5 "cancellation" / §7 "the picture pipeline
// compensates by deleting already-written blobs"). Errors here are logged,
// not propagated: the caller's original error is more actionable, and a
// leaked blob is still recoverable by the janitor spec.md §5 describes.
func (p *Pipeline) cleanup(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := p.blobs.Delete(ctx, keys...); err != nil {
		p.logger.Error("picpipeline: compensating blob cleanup failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
