// Package objstore is the content-addressed blob facade (spec.md §4.3,
// §6 "Object storage layout") sitting in front of an S3-compatible
// bucket. It knows nothing about pictures, hashes, or variants — it is a
// plain key/bytes/content-type store; picpipeline and imaging own the key
// scheme and the bytes they put there.
package objstore

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/intermodalis/transitcore/coreerrors"
)

// Store is a thin wrapper over a minio-go client scoped to one bucket,
// grounded on storj-storj's pkg/miniogw gateway (the S3-compatible surface
// this module's pack exercises minio-go/v7 against, here used from the
// client rather than the gateway side).
type Store struct {
	client *minio.Client
	bucket string
}

// New wraps an already-constructed minio client. Bucket creation/lifecycle
// is an operational concern left to deployment tooling, not this package.
func New(client *minio.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Put writes data under key with the given content type, overwriting any
// existing object at that key.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return coreerrors.ObjectStorageFailure.Wrap(err)
	}
	return nil
}

// Get reads the full contents of key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, coreerrors.ObjectStorageFailure.Wrap(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, coreerrors.ObjectStorageFailure.Wrap(err)
	}
	return data, nil
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, coreerrors.ObjectStorageFailure.Wrap(err)
	}
	return true, nil
}

// Delete removes zero or more keys. Deleting a key that does not exist is
// not an error (spec.md §5 "cancellation" relies on blob deletion being
// safe to retry during janitor cleanup).
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return coreerrors.ObjectStorageFailure.Wrap(err)
		}
	}
	return nil
}
