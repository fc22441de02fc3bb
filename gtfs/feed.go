// Package gtfs implements Component I (spec.md §4.6): clustering GTFS
// trips into stop-pattern clusters and pairing those clusters against
// internally-curated subroutes. It never touches the core's database or
// HTTP surface — Reconcile is a pure function of a parsed feed, a stop-id
// mapping, and the caller's routes/subroutes, grounded on the original
// Rust importer's gtfs_import::gtfs module (trip clustering) and on
// api_server's gtfs::models (the SubrouteValidation pairing record this
// package's Pairing corresponds to).
package gtfs

import "sort"

type StopID = string
type RouteID = string
type TripID = string
type PatternID = string

// Stop is a raw GTFS stop record (stops.txt).
type Stop struct {
	ID   StopID
	Name string
	Lat  float64
	Lon  float64
}

// Route is a raw GTFS route record (routes.txt). ShortName is matched
// against an internal Route's Code by the reconciler (spec.md §4.6 step 3).
type Route struct {
	ID        RouteID
	ShortName string
}

// Trip is a raw GTFS trip record (trips.txt). PatternID groups trips that
// share a physical path even across service dates; it is opaque to this
// package beyond being carried through into PatternCluster.
type Trip struct {
	ID        TripID
	RouteID   RouteID
	PatternID PatternID
	Headsign  string
}

// StopTime is one (trip, stop, sequence) row of stop_times.txt.
type StopTime struct {
	TripID       TripID
	StopID       StopID
	StopSequence int
}

// Feed is the parsed GTFS static feed subset the reconciler consumes
// (spec.md §4.6 "Input").
type Feed struct {
	Stops     []Stop
	Routes    []Route
	Trips     []Trip
	StopTimes []StopTime
}

// PatternCluster is the set of GTFS trips sharing both route and
// stop-sequence, deduplicated (spec.md Glossary "Pattern cluster").
type PatternCluster struct {
	Stops      []StopID
	PatternIDs map[PatternID]struct{}
	TripIDs    map[TripID]struct{}
	Headsigns  map[string]struct{}
}

// tripStopSequences sorts each trip's stop_times by StopSequence ascending
// and returns the resulting ordered stop-id list per trip (spec.md §4.6
// step 1).
func tripStopSequences(feed Feed) map[TripID][]StopID {
	byTrip := make(map[TripID][]StopTime)
	for _, st := range feed.StopTimes {
		byTrip[st.TripID] = append(byTrip[st.TripID], st)
	}
	out := make(map[TripID][]StopID, len(byTrip))
	for tripID, times := range byTrip {
		sort.Slice(times, func(i, j int) bool { return times[i].StopSequence < times[j].StopSequence })
		stops := make([]StopID, len(times))
		for i, t := range times {
			stops[i] = t.StopID
		}
		out[tripID] = stops
	}
	return out
}

// ClusterPatterns groups every route's trips into pattern clusters keyed
// by their exact ordered stop sequence (spec.md §4.6 step 2). Trips with
// no stop_times rows are dropped; they carry no pattern information.
func ClusterPatterns(feed Feed) map[RouteID][]PatternCluster {
	tripStops := tripStopSequences(feed)

	tripsByRoute := make(map[RouteID][]Trip)
	for _, trip := range feed.Trips {
		tripsByRoute[trip.RouteID] = append(tripsByRoute[trip.RouteID], trip)
	}

	out := make(map[RouteID][]PatternCluster, len(tripsByRoute))
	for routeID, trips := range tripsByRoute {
		byStops := make(map[string][]Trip)
		stopSeqs := make(map[string][]StopID)
		for _, trip := range trips {
			stops, ok := tripStops[trip.ID]
			if !ok || len(stops) == 0 {
				continue
			}
			key := stopKey(stops)
			byStops[key] = append(byStops[key], trip)
			stopSeqs[key] = stops
		}

		var clusters []PatternCluster
		for key, clusterTrips := range byStops {
			patternIDs := make(map[PatternID]struct{})
			tripIDs := make(map[TripID]struct{})
			headsigns := make(map[string]struct{})
			for _, trip := range clusterTrips {
				patternIDs[trip.PatternID] = struct{}{}
				tripIDs[trip.ID] = struct{}{}
				headsigns[trip.Headsign] = struct{}{}
			}
			clusters = append(clusters, PatternCluster{
				Stops:      stopSeqs[key],
				PatternIDs: patternIDs,
				TripIDs:    tripIDs,
				Headsigns:  headsigns,
			})
		}
		out[routeID] = clusters
	}
	return out
}

// stopKey collapses an ordered stop sequence into a single map key; GTFS
// stop ids never contain NUL, so joining with it is collision-free.
func stopKey(stops []StopID) string {
	const sep = "\x00"
	out := ""
	for i, s := range stops {
		if i > 0 {
			out += sep
		}
		out += s
	}
	return out
}
