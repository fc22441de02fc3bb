package model

// Route is an internally-curated transit line, associated with an operator
// and (when GTFS-reconcilable) a short code matching a GTFS route's
// short_name (spec.md §4.6).
type Route struct {
	ID         int64
	OperatorID int64
	Code       string
	Name       string
	Circular   bool
}

// Subroute is a named direction/variant of a Route (spec.md Glossary) — the
// entity paired against GTFS pattern clusters by the reconciler.
type Subroute struct {
	ID       int64
	RouteID  int64
	Name     string
	Flag     string // direction flag, e.g. "0"/"1", opaque to this core
	Via      []int64 // ordered internal stop ids
	Headsign *string
}

// Departure is a single scheduled departure time on a Subroute. Time is
// minutes since midnight; the contribution engine reduces it modulo 1440
// when it accepts a departure creation or update.
type Departure struct {
	ID         int64
	SubrouteID int64
	Time       int
	CalendarID int64
}
