package contrib

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/intermodalis/transitcore/coreerrors"
	"github.com/intermodalis/transitcore/model"
	"github.com/intermodalis/transitcore/patch"
	"github.com/intermodalis/transitcore/permissions"
	"github.com/intermodalis/transitcore/store"
)

// Engine is the Contribution Engine (spec.md §2 Component G, §4.2). It
// holds no connections of its own; every operation runs through the
// injected TransactionRunner, the way the teacher's PersistentDB exposes a
// single handle shared by its callers.
type Engine struct {
	logger *zap.Logger
	txs    store.TransactionRunner
	now    func() time.Time
}

// NewEngine builds an Engine. now defaults to time.Now if nil; tests pass
// a fixed clock to make the evaluation timestamp deterministic.
func NewEngine(logger *zap.Logger, txs store.TransactionRunner, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{logger: logger, txs: txs, now: now}
}

// AcceptOptions are the knobs accept() exposes (spec.md §4.2 "options").
type AcceptOptions struct {
	IgnoredFields map[string]struct{}
	Verify        bool
}

// Submit persists a new Contribution (spec.md §4.2 submit()). A StopUpdate
// whose patch collapses to empty against the current stop is not
// persisted; NoopContributionID is returned instead (spec.md S4).
func (e *Engine) Submit(ctx context.Context, change Change, authorID int64, comment *string) (int64, error) {
	if err := validateChange(change); err != nil {
		return 0, err
	}

	var id int64
	err := e.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		if su, ok := change.(StopUpdate); ok {
			current, err := tx.Stops().Get(ctx, su.Original.ID)
			if err != nil {
				return err
			}
			if current == nil {
				return coreerrors.NotFoundUpstream.New("stop %d not found", su.Original.ID)
			}
			p := su.Patch
			p.DropNoops(*current)
			if p.IsEmpty() {
				id = NoopContributionID
				return nil
			}
			change = StopUpdate{Original: *current, Patch: p}
		}

		newID, err := tx.Contributions().Create(ctx, Contribution{
			AuthorID:       authorID,
			Change:         change,
			SubmissionDate: e.now(),
			Comment:        comment,
		})
		if err != nil {
			return err
		}
		id = newID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// validateChange runs the entity-specific checks of spec.md §4.2.4 against
// the embedded entity data of a Change before it is accepted for
// submission.
func validateChange(change Change) error {
	switch c := change.(type) {
	case StopCreation:
		return ValidateStop(c.Stop)
	case StopUpdate:
		if c.Patch.Lat != nil || c.Patch.Lon != nil {
			lat, lon := c.Patch.Lat, c.Patch.Lon
			if (lat == nil) != (lon == nil) {
				return coreerrors.ValidationFailure.New("Latitude and longitude must both be present or both be absent")
			}
		}
		return nil
	case DepartureCreation:
		return ValidateDepartureTime(c.Departure.Time)
	case DepartureUpdate:
		if c.Patch.Time != nil {
			return ValidateDepartureTime(*c.Patch.Time)
		}
		return nil
	case IssueCreation:
		return ValidateIssueTitle(c.Issue.Title)
	case IssueUpdate:
		if c.Title != nil {
			return ValidateIssueTitle(*c.Title)
		}
		return nil
	default:
		return nil
	}
}

// Accept runs the accept algorithm of spec.md §4.2.2 inside a single
// transaction.
func (e *Engine) Accept(ctx context.Context, contributionID int64, evaluatorID int64, perms permissions.Permissions, opts AcceptOptions) error {
	err := e.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.Contributions().GetForUpdate(ctx, contributionID)
		if err != nil {
			return err
		}
		if c == nil {
			return coreerrors.NotFoundUpstream.New("contribution %d not found", contributionID)
		}
		if c.State() != Undecided {
			return coreerrors.DependenciesNotMet.New("contribution %d already evaluated", contributionID)
		}

		if err := authorizeAccept(c.Change, evaluatorID, perms); err != nil {
			return err
		}

		// spec.md §4.2.2: verify-on-accept additionally requires the
		// evaluator to hold Stops.modify_map_features, independent of
		// whichever capability authorizeAccept already checked.
		opts.Verify = opts.Verify && perms.Stops.ModifyMapFeatures

		materialized, err := e.applyChange(ctx, tx, c.Change, evaluatorID, opts)
		if err != nil {
			return err
		}

		if _, err := tx.Changesets().Append(ctx, Changeset{
			AuthorID:       evaluatorID,
			Changes:        []Change{materialized},
			Timestamp:      e.now(),
			ContributionID: &contributionID,
		}); err != nil {
			return err
		}

		return tx.Contributions().SetEvaluation(ctx, contributionID, Evaluation{
			Accepted:       true,
			EvaluatorID:    evaluatorID,
			EvaluationDate: e.now(),
		})
	})
	if coreerrors.IllegalState.Has(err) {
		e.logger.Error("contrib: accept hit an illegal state",
			zap.Int64("contribution_id", contributionID), zap.Int64("evaluator_id", evaluatorID), zap.Error(err))
	}
	return err
}

// applyChange materializes one Change's effect against the current store
// state and returns the Change exactly as applied, for changeset
// provenance (spec.md §4.2.2 step 4).
func (e *Engine) applyChange(ctx context.Context, tx store.Tx, change Change, evaluatorID int64, opts AcceptOptions) (Change, error) {
	switch c := change.(type) {
	case StopCreation:
		id, err := tx.Stops().Create(ctx, c.Stop)
		if err != nil {
			return nil, err
		}
		s := c.Stop
		s.ID = id
		return StopCreation{Stop: s}, nil

	case StopDeletion:
		if err := tx.Stops().Delete(ctx, c.Stop.ID); err != nil {
			return nil, err
		}
		return c, nil

	case StopUpdate:
		return e.applyStopUpdate(ctx, tx, c, opts)

	case RouteCreation:
		id, err := tx.Routes().Create(ctx, c.Route)
		if err != nil {
			return nil, err
		}
		r := c.Route
		r.ID = id
		return RouteCreation{Route: r}, nil

	case RouteUpdate:
		current, err := tx.Routes().Get(ctx, c.Original.ID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, coreerrors.NotFoundUpstream.New("route %d not found", c.Original.ID)
		}
		p := c.Patch
		p.DropNoops(*current)
		p.DropFields(opts.IgnoredFields)
		if p.IsEmpty() {
			return RouteUpdate{Original: *current, Patch: p}, nil
		}
		p.Apply(current)
		if err := tx.Routes().Update(ctx, *current); err != nil {
			return nil, err
		}
		return RouteUpdate{Original: *current, Patch: p}, nil

	case RouteDeletion:
		if err := tx.Routes().Delete(ctx, c.Route.ID); err != nil {
			return nil, err
		}
		return c, nil

	case SubrouteCreation:
		id, err := tx.Subroutes().Create(ctx, c.Subroute)
		if err != nil {
			return nil, err
		}
		s := c.Subroute
		s.ID = id
		return SubrouteCreation{Subroute: s}, nil

	case SubrouteUpdate:
		current, err := tx.Subroutes().Get(ctx, c.Original.ID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, coreerrors.NotFoundUpstream.New("subroute %d not found", c.Original.ID)
		}
		p := c.Patch
		p.DropNoops(*current)
		p.DropFields(opts.IgnoredFields)
		if p.IsEmpty() {
			return SubrouteUpdate{Original: *current, Patch: p}, nil
		}
		p.Apply(current)
		if err := tx.Subroutes().Update(ctx, *current); err != nil {
			return nil, err
		}
		return SubrouteUpdate{Original: *current, Patch: p}, nil

	case SubrouteDeletion:
		if err := tx.Subroutes().Delete(ctx, c.Subroute.ID); err != nil {
			return nil, err
		}
		return c, nil

	case DepartureCreation:
		c.Departure.Time = NormalizeDepartureTime(c.Departure.Time)
		id, err := tx.Departures().Create(ctx, c.Departure)
		if err != nil {
			return nil, err
		}
		d := c.Departure
		d.ID = id
		return DepartureCreation{Departure: d}, nil

	case DepartureUpdate:
		current, err := tx.Departures().Get(ctx, c.Original.ID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, coreerrors.NotFoundUpstream.New("departure %d not found", c.Original.ID)
		}
		p := c.Patch
		if p.Time != nil {
			t := NormalizeDepartureTime(*p.Time)
			p.Time = &t
		}
		p.DropNoops(*current)
		p.DropFields(opts.IgnoredFields)
		if p.IsEmpty() {
			return DepartureUpdate{Original: *current, Patch: p}, nil
		}
		p.Apply(current)
		if err := tx.Departures().Update(ctx, *current); err != nil {
			return nil, err
		}
		return DepartureUpdate{Original: *current, Patch: p}, nil

	case DepartureDeletion:
		if err := tx.Departures().Delete(ctx, c.Departure.ID); err != nil {
			return nil, err
		}
		return c, nil

	case StopPicUpload:
		// StopPicUpload carries no separate "has meta" flag; c.Pic.Tagged
		// doubles as that signal; set when the contributor attached stop
		// tags at submission time (spec.md §4.2.2), cleared otherwise.
		if c.Pic.Tagged {
			pic, err := tx.Pictures().Get(ctx, c.Pic.ID)
			if err != nil {
				return nil, err
			}
			if pic == nil {
				return nil, coreerrors.NotFoundUpstream.New("picture %d not found", c.Pic.ID)
			}
			pic.Tagged = true
			if err := tx.Pictures().UpdateMeta(ctx, *pic); err != nil {
				return nil, err
			}
		}
		return c, nil

	case StopPicMetaUpdate:
		return e.applyStopPicMetaUpdate(ctx, tx, c, evaluatorID)

	case StopPicDeletion:
		if err := tx.Pictures().DeleteLinks(ctx, c.Pic.ID); err != nil {
			return nil, err
		}
		if err := tx.Pictures().Delete(ctx, c.Pic.ID); err != nil {
			return nil, err
		}
		return c, nil

	case IssueCreation:
		return c, nil

	case IssueUpdate:
		return c, nil

	default:
		return nil, coreerrors.IllegalState.New("unrecognized change variant in apply")
	}
}

// applyStopUpdate implements spec.md §4.2.2's StopUpdate branch, the one
// with verify-on-accept semantics.
func (e *Engine) applyStopUpdate(ctx context.Context, tx store.Tx, c StopUpdate, opts AcceptOptions) (Change, error) {
	current, err := tx.Stops().Get(ctx, c.Original.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, coreerrors.NotFoundUpstream.New("stop %d not found", c.Original.ID)
	}

	p := c.Patch
	p.DropNoops(*current)
	p.DropFields(opts.IgnoredFields)
	if p.IsEmpty() {
		return StopUpdate{Original: *current, Patch: p}, nil
	}

	serviceTouched, infraTouched := p.TouchedDuets(*current)
	verification := p.Deverify(*current)

	if opts.Verify {
		now := e.now()
		if serviceTouched {
			verification.Service = model.Verified
		}
		if infraTouched {
			verification.Infrastructure = model.Verified
		}
		v := verification
		p.VerificationLevel = &v
		if serviceTouched && p.ServiceCheckDate == nil {
			p.ServiceCheckDate = patch.SetTo(now)
		}
		if infraTouched && p.InfrastructureCheckDate == nil {
			p.InfrastructureCheckDate = patch.SetTo(now)
		}
	}

	p.Apply(current)
	if err := tx.Stops().Update(ctx, *current); err != nil {
		return nil, err
	}
	return StopUpdate{Original: *current, Patch: p}, nil
}

// applyStopPicMetaUpdate implements spec.md §4.2.2's StopPicMetaUpdate
// branch: recompute the meta patch and stop-link diff, apply both, mark
// tagged, stamp the evaluator as updater.
func (e *Engine) applyStopPicMetaUpdate(ctx context.Context, tx store.Tx, c StopPicMetaUpdate, evaluatorID int64) (Change, error) {
	pic, err := tx.Pictures().Get(ctx, c.PictureID)
	if err != nil {
		return nil, err
	}
	if pic == nil {
		return nil, coreerrors.NotFoundUpstream.New("picture %d not found", c.PictureID)
	}

	metaPatch := c.MetaPatch
	metaPatch.DropNoops(pic.Meta)
	metaPatch.Apply(&pic.Meta)
	pic.Tagged = true
	now := e.now()
	pic.UpdaterID = &evaluatorID
	pic.UpdateDate = &now
	if err := tx.Pictures().UpdateMeta(ctx, *pic); err != nil {
		return nil, err
	}
	if err := tx.Pictures().SetLinks(ctx, c.PictureID, c.Stops); err != nil {
		return nil, err
	}

	return StopPicMetaUpdate{
		OriginalMeta:  c.OriginalMeta,
		OriginalStops: c.OriginalStops,
		MetaPatch:     metaPatch,
		Stops:         c.Stops,
		PictureID:     c.PictureID,
	}, nil
}

// EditUndecided implements spec.md §4.2.1's author edit of an Undecided
// contribution: the author may always replace the comment, and — only when
// the underlying change is a StopPicUpload — the embedded picture metadata
// and stops list. Any other field, or any contribution already decided, is
// rejected.
func (e *Engine) EditUndecided(ctx context.Context, contributionID int64, authorID int64, comment *string, pic *model.Picture, stops []int64) error {
	return e.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.Contributions().GetForUpdate(ctx, contributionID)
		if err != nil {
			return err
		}
		if c == nil {
			return coreerrors.NotFoundUpstream.New("contribution %d not found", contributionID)
		}
		if c.AuthorID != authorID {
			return coreerrors.Forbidden.New("contribution %d does not belong to user %d", contributionID, authorID)
		}
		if c.State() != Undecided {
			return coreerrors.DependenciesNotMet.New("contribution %d already evaluated", contributionID)
		}

		if pic != nil || stops != nil {
			upload, ok := c.Change.(StopPicUpload)
			if !ok {
				return coreerrors.ValidationFailure.New("only a stop_pic_upload contribution carries editable picture metadata")
			}
			if pic != nil {
				upload.Pic = *pic
			}
			if stops != nil {
				upload.Stops = stops
			}
			c.Change = upload
		}

		c.Comment = comment
		return tx.Contributions().UpdateUndecided(ctx, *c)
	})
}

// Decline runs spec.md §4.2.3.
func (e *Engine) Decline(ctx context.Context, contributionID int64, evaluatorID int64) error {
	return e.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.Contributions().GetForUpdate(ctx, contributionID)
		if err != nil {
			return err
		}
		if c == nil {
			return coreerrors.NotFoundUpstream.New("contribution %d not found", contributionID)
		}
		if c.State() != Undecided {
			return coreerrors.DependenciesNotMet.New("contribution %d already evaluated", contributionID)
		}
		return tx.Contributions().SetEvaluation(ctx, contributionID, Evaluation{
			Accepted:       false,
			EvaluatorID:    evaluatorID,
			EvaluationDate: e.now(),
		})
	})
}

// ListUndecided returns pending contributions, optionally filtered to one
// author (spec.md §4.2 list_undecided).
func (e *Engine) ListUndecided(ctx context.Context, filterUID *int64, offset, limit int) ([]Contribution, int, error) {
	var items []Contribution
	var total int
	err := e.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		items, total, err = tx.Contributions().ListUndecided(ctx, filterUID, offset, limit)
		return err
	})
	return items, total, err
}

// ListDecided returns evaluated contributions, optionally filtered to one
// author (spec.md §4.2 list_decided).
func (e *Engine) ListDecided(ctx context.Context, filterUID *int64, offset, limit int) ([]Contribution, int, error) {
	var items []Contribution
	var total int
	err := e.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		items, total, err = tx.Contributions().ListDecided(ctx, filterUID, offset, limit)
		return err
	})
	return items, total, err
}

// ListForUserUndecided is list_for_user_undecided: shorthand for
// ListUndecided scoped to one author.
func (e *Engine) ListForUserUndecided(ctx context.Context, userID int64, offset, limit int) ([]Contribution, int, error) {
	return e.ListUndecided(ctx, &userID, offset, limit)
}

// ListForUserDecided is list_for_user_decided: shorthand for ListDecided
// scoped to one author.
func (e *Engine) ListForUserDecided(ctx context.Context, userID int64, offset, limit int) ([]Contribution, int, error) {
	return e.ListDecided(ctx, &userID, offset, limit)
}

// OwnPendingStopPatches projects each of user's pending StopUpdate
// contributions onto its current stop (spec.md §4.2 own_pending_stop_patches),
// so a user never submits a second edit that collides with their own first
// one without seeing it reflected.
func (e *Engine) OwnPendingStopPatches(ctx context.Context, userID int64) ([]model.Stop, error) {
	var result []model.Stop
	err := e.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		pending, err := tx.Contributions().ListPendingStopUpdatesByAuthor(ctx, userID)
		if err != nil {
			return err
		}
		for _, c := range pending {
			su, ok := c.Change.(StopUpdate)
			if !ok {
				continue
			}
			current, err := tx.Stops().Get(ctx, su.Original.ID)
			if err != nil {
				return err
			}
			if current == nil {
				continue
			}
			preview := current.Clone()
			p := su.Patch
			p.DropNoops(*current)
			p.Apply(&preview)
			result = append(result, preview)
		}
		return nil
	})
	return result, err
}
