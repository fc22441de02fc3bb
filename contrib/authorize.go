package contrib

import (
	"github.com/intermodalis/transitcore/coreerrors"
	"github.com/intermodalis/transitcore/permissions"
)

// authorizeAccept checks that evaluator holds the capability relevant to
// change's variant (spec.md §4.2.2 step 2). StopPicUpload additionally
// admits its own uploader while the picture is still untagged.
// StopPicMetaUpdate requires StopPics.ModifyOthers and does not admit the
// uploader.
func authorizeAccept(change Change, evaluatorID int64, perms permissions.Permissions) error {
	switch c := change.(type) {
	case StopCreation, StopUpdate, StopDeletion:
		if !perms.Stops.ModifyAttrs {
			return coreerrors.Forbidden.New("missing stops.modify_attrs capability")
		}
		return nil
	case RouteCreation, RouteUpdate, RouteDeletion,
		SubrouteCreation, SubrouteUpdate, SubrouteDeletion,
		DepartureCreation, DepartureUpdate, DepartureDeletion:
		if !perms.Routes.ModifyRoutes {
			return coreerrors.Forbidden.New("missing routes.modify_routes capability")
		}
		return nil
	case StopPicUpload:
		if perms.StopPics.ModifyOthers {
			return nil
		}
		if evaluatorID == c.Pic.UploaderID && !c.Pic.Tagged {
			return nil
		}
		return coreerrors.Forbidden.New("missing stop_pics.modify_others capability")
	case StopPicMetaUpdate:
		if perms.StopPics.ModifyOthers {
			return nil
		}
		return coreerrors.Forbidden.New("missing stop_pics.modify_others capability")
	case StopPicDeletion:
		if !perms.StopPics.Delete {
			return coreerrors.Forbidden.New("missing stop_pics.delete capability")
		}
		return nil
	case IssueCreation, IssueUpdate:
		if !perms.News.ModifyNews {
			return coreerrors.Forbidden.New("missing news.modify_news capability")
		}
		return nil
	default:
		return coreerrors.IllegalState.New("unrecognized change variant in authorization check")
	}
}
