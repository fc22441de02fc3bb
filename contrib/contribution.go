package contrib

import "github.com/intermodalis/transitcore/model"

// DecisionState, Evaluation, Contribution and NoopContributionID live in
// package model (they are shared with package store, which must not import
// contrib): aliased here so the rest of this package, and its callers, keep
// spelling them contrib.X.
type DecisionState = model.DecisionState

const (
	Undecided = model.Undecided
	Accepted  = model.Accepted
	Declined  = model.Declined
)

type Evaluation = model.Evaluation

type Contribution = model.Contribution

const NoopContributionID = model.NoopContributionID
