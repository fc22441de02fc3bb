// Package contrib implements the contribution lifecycle (Component F/G,
// spec.md §4.2): the Change tagged variant, Contribution and Changeset
// records, and the Engine that moves a contribution from Undecided to
// Accepted or Declined.
package contrib

import (
	"encoding/json"
	"fmt"

	"github.com/intermodalis/transitcore/coreerrors"
	"github.com/intermodalis/transitcore/model"
	"github.com/intermodalis/transitcore/patch"
)

// ChangeKind and Change live in package model (shared with package store,
// which must not import contrib): aliased here so the concrete variants
// below, and this package's callers, keep spelling them contrib.X. JSON
// encoding adds the "type" discriminator via MarshalChange/UnmarshalChange
// below rather than per-type MarshalJSON methods, keeping the wire dispatch
// in one place.
type ChangeKind = model.ChangeKind

const (
	KindStopCreation      = model.KindStopCreation
	KindStopUpdate        = model.KindStopUpdate
	KindStopDeletion      = model.KindStopDeletion
	KindRouteCreation     = model.KindRouteCreation
	KindRouteUpdate       = model.KindRouteUpdate
	KindRouteDeletion     = model.KindRouteDeletion
	KindSubrouteCreation  = model.KindSubrouteCreation
	KindSubrouteUpdate    = model.KindSubrouteUpdate
	KindSubrouteDeletion  = model.KindSubrouteDeletion
	KindDepartureCreation = model.KindDepartureCreation
	KindDepartureUpdate   = model.KindDepartureUpdate
	KindDepartureDeletion = model.KindDepartureDeletion
	KindStopPicUpload     = model.KindStopPicUpload
	KindStopPicMetaUpdate = model.KindStopPicMetaUpdate
	KindStopPicDeletion   = model.KindStopPicDeletion
	KindIssueCreation     = model.KindIssueCreation
	KindIssueUpdate       = model.KindIssueUpdate
)

type Change = model.Change

type StopCreation struct {
	Stop model.Stop `json:"stop"`
}

func (StopCreation) Kind() ChangeKind { return KindStopCreation }

type StopUpdate struct {
	Original model.Stop      `json:"original"`
	Patch    patch.StopPatch `json:"patch"`
}

func (StopUpdate) Kind() ChangeKind { return KindStopUpdate }

type StopDeletion struct {
	Stop model.Stop `json:"stop"`
}

func (StopDeletion) Kind() ChangeKind { return KindStopDeletion }

type RouteCreation struct {
	Route model.Route `json:"route"`
}

func (RouteCreation) Kind() ChangeKind { return KindRouteCreation }

type RouteUpdate struct {
	Original model.Route      `json:"original"`
	Patch    patch.RoutePatch `json:"patch"`
}

func (RouteUpdate) Kind() ChangeKind { return KindRouteUpdate }

type RouteDeletion struct {
	Route model.Route `json:"route"`
}

func (RouteDeletion) Kind() ChangeKind { return KindRouteDeletion }

type SubrouteCreation struct {
	Subroute model.Subroute `json:"subroute"`
}

func (SubrouteCreation) Kind() ChangeKind { return KindSubrouteCreation }

type SubrouteUpdate struct {
	Original model.Subroute      `json:"original"`
	Patch    patch.SubroutePatch `json:"patch"`
}

func (SubrouteUpdate) Kind() ChangeKind { return KindSubrouteUpdate }

type SubrouteDeletion struct {
	Subroute model.Subroute `json:"subroute"`
}

func (SubrouteDeletion) Kind() ChangeKind { return KindSubrouteDeletion }

type DepartureCreation struct {
	Departure model.Departure `json:"departure"`
}

func (DepartureCreation) Kind() ChangeKind { return KindDepartureCreation }

type DepartureUpdate struct {
	Original model.Departure      `json:"original"`
	Patch    patch.DeparturePatch `json:"patch"`
}

func (DepartureUpdate) Kind() ChangeKind { return KindDepartureUpdate }

type DepartureDeletion struct {
	Departure model.Departure `json:"departure"`
}

func (DepartureDeletion) Kind() ChangeKind { return KindDepartureDeletion }

type StopPicUpload struct {
	Pic   model.Picture `json:"pic"`
	Stops []int64       `json:"stops"`
}

func (StopPicUpload) Kind() ChangeKind { return KindStopPicUpload }

type StopPicMetaUpdate struct {
	OriginalMeta  model.PictureMeta       `json:"original_meta"`
	OriginalStops []model.PictureStopLink `json:"original_stops"`
	MetaPatch     patch.PictureMetaPatch  `json:"meta_patch"`
	Stops         []model.PictureStopLink `json:"stops"`
	PictureID     int64                   `json:"picture_id"`
}

func (StopPicMetaUpdate) Kind() ChangeKind { return KindStopPicMetaUpdate }

type StopPicDeletion struct {
	Pic   model.Picture `json:"pic"`
	Stops []int64       `json:"stops"`
}

func (StopPicDeletion) Kind() ChangeKind { return KindStopPicDeletion }

type IssueCreation struct {
	Issue model.Issue `json:"issue"`
}

func (IssueCreation) Kind() ChangeKind { return KindIssueCreation }

type IssueUpdate struct {
	Original model.Issue `json:"original"`
	Title    *string     `json:"title,omitempty"`
	Body     *string     `json:"body,omitempty"`
}

func (IssueUpdate) Kind() ChangeKind { return KindIssueUpdate }

// envelope is the wire shape of a tagged Change: {"type": ..., ...fields}.
type envelope struct {
	Type ChangeKind `json:"type"`
}

// MarshalChange encodes a Change with its type discriminator flattened
// alongside its fields.
func MarshalChange(c Change) ([]byte, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	typeTag, err := json.Marshal(c.Kind())
	if err != nil {
		return nil, err
	}
	m["type"] = typeTag
	return json.Marshal(m)
}

// UnmarshalChange decodes a tagged Change. An unrecognized type tag is a
// DatabaseDeserialization error (spec.md §9): forward compatibility
// requires that a reader too old to know a new Change variant fails loudly
// rather than silently dropping data.
func UnmarshalChange(data []byte) (Change, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, coreerrors.DatabaseDeserialization.Wrap(err)
	}
	switch env.Type {
	case KindStopCreation:
		var v StopCreation
		return v, unmarshalInto(data, &v)
	case KindStopUpdate:
		var v StopUpdate
		return v, unmarshalInto(data, &v)
	case KindStopDeletion:
		var v StopDeletion
		return v, unmarshalInto(data, &v)
	case KindRouteCreation:
		var v RouteCreation
		return v, unmarshalInto(data, &v)
	case KindRouteUpdate:
		var v RouteUpdate
		return v, unmarshalInto(data, &v)
	case KindRouteDeletion:
		var v RouteDeletion
		return v, unmarshalInto(data, &v)
	case KindSubrouteCreation:
		var v SubrouteCreation
		return v, unmarshalInto(data, &v)
	case KindSubrouteUpdate:
		var v SubrouteUpdate
		return v, unmarshalInto(data, &v)
	case KindSubrouteDeletion:
		var v SubrouteDeletion
		return v, unmarshalInto(data, &v)
	case KindDepartureCreation:
		var v DepartureCreation
		return v, unmarshalInto(data, &v)
	case KindDepartureUpdate:
		var v DepartureUpdate
		return v, unmarshalInto(data, &v)
	case KindDepartureDeletion:
		var v DepartureDeletion
		return v, unmarshalInto(data, &v)
	case KindStopPicUpload:
		var v StopPicUpload
		return v, unmarshalInto(data, &v)
	case KindStopPicMetaUpdate:
		var v StopPicMetaUpdate
		return v, unmarshalInto(data, &v)
	case KindStopPicDeletion:
		var v StopPicDeletion
		return v, unmarshalInto(data, &v)
	case KindIssueCreation:
		var v IssueCreation
		return v, unmarshalInto(data, &v)
	case KindIssueUpdate:
		var v IssueUpdate
		return v, unmarshalInto(data, &v)
	default:
		return nil, coreerrors.DatabaseDeserialization.Wrap(
			fmt.Errorf("unrecognized change variant tag %q", env.Type))
	}
}

func unmarshalInto(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return coreerrors.DatabaseDeserialization.Wrap(err)
	}
	return nil
}
