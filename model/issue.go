package model

import "time"

// Issue is an operator/news-adjacent report; the full editorial flow is out
// of scope (spec.md §1) beyond the patch semantics it shares with every
// other entity.
type Issue struct {
	ID        int64
	AuthorID  int64
	Title     string
	Body      string
	CreatedAt time.Time
}
