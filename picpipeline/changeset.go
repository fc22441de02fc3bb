package picpipeline

import (
	"context"
	"time"

	"github.com/intermodalis/transitcore/contrib"
	"github.com/intermodalis/transitcore/model"
	"github.com/intermodalis/transitcore/store"
)

// appendChangeset records the changeset entry spec.md §4.3 requires
// alongside the picture row write, reusing contrib.Changeset/Change so
// picture uploads and deletions show up in the same provenance log as
// moderated contribution accepts.
func appendChangeset(ctx context.Context, tx store.Tx, authorID int64, at time.Time, change contrib.Change) error {
	_, err := tx.Changesets().Append(ctx, contrib.Changeset{
		AuthorID:  authorID,
		Changes:   []contrib.Change{change},
		Timestamp: at,
	})
	return err
}

func stopPicUploadChange(pic model.Picture, stops []int64) contrib.Change {
	return contrib.StopPicUpload{Pic: pic, Stops: stops}
}

func stopPicDeletionChange(pic model.Picture, stops []int64) contrib.Change {
	return contrib.StopPicDeletion{Pic: pic, Stops: stops}
}
