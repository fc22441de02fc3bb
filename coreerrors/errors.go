// Package coreerrors defines the closed set of error kinds that every core
// operation surfaces to its caller (spec.md §7). Each kind is a
// github.com/zeebo/errs Class; callers use errors.As/errs.Class.Has to
// branch on kind rather than matching strings.
package coreerrors

import (
	"errors"

	"github.com/zeebo/errs"
)

var (
	// ValidationFailure marks malformed input that is client-recoverable.
	ValidationFailure = errs.Class("validation failure")

	// Forbidden marks an authenticated-but-unauthorized request, or invalid
	// credentials (login intentionally collapses "no such user" and "wrong
	// password" into this single kind).
	Forbidden = errs.Class("forbidden")

	// Unauthorized marks a missing or revoked session.
	Unauthorized = errs.Class("unauthorized")

	// NotFoundUpstream marks a referenced entity that does not exist.
	NotFoundUpstream = errs.Class("not found")

	// DuplicatedResource marks a creation that would violate a uniqueness
	// invariant. Wrap a *DuplicatedResourceError to carry the existing
	// resource back to the caller.
	DuplicatedResource = errs.Class("duplicated resource")

	// DependenciesNotMet marks an operation whose preconditions are unmet.
	DependenciesNotMet = errs.Class("dependencies not met")

	// IllegalState marks an internal invariant violation. Every IllegalState
	// must be logged at error level with full context at the point it is
	// detected; it is the only kind logged inside the core.
	IllegalState = errs.Class("illegal state")

	// Processing marks a decode/encode/EXIF/crypto failure.
	Processing = errs.Class("processing failure")

	// DatabaseExecution marks a storage-layer failure while executing a
	// statement.
	DatabaseExecution = errs.Class("database execution failure")

	// DatabaseDeserialization marks a storage-layer failure decoding a
	// stored row, including an unrecognized Change variant tag (spec.md §9:
	// unknown variants must surface as an error, never be silently dropped).
	DatabaseDeserialization = errs.Class("database deserialization failure")

	// ObjectStorageFailure marks a blob-layer failure.
	ObjectStorageFailure = errs.Class("object storage failure")
)

// DuplicatedResourceError carries the already-existing resource that caused
// a DuplicatedResource error, so the caller can hand it back to the client
// without a second lookup.
type DuplicatedResourceError struct {
	Existing any
}

func (e *DuplicatedResourceError) Error() string {
	return "resource already exists"
}

// NewDuplicatedResource wraps an existing resource into a DuplicatedResource
// error.
func NewDuplicatedResource(existing any) error {
	return DuplicatedResource.Wrap(&DuplicatedResourceError{Existing: existing})
}

// AsDuplicatedResource extracts the existing resource from err, if err (or
// something it wraps) is a DuplicatedResource error.
func AsDuplicatedResource(err error) (any, bool) {
	var dup *DuplicatedResourceError
	if !errors.As(err, &dup) {
		return nil, false
	}
	return dup.Existing, true
}
