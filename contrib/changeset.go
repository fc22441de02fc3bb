package contrib

import "github.com/intermodalis/transitcore/model"

// Changeset lives in package model (shared with package store); aliased
// here so this package and its callers keep spelling it contrib.Changeset.
type Changeset = model.Changeset
