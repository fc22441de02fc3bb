package gtfs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intermodalis/transitcore/gtfs"
	"github.com/intermodalis/transitcore/model"
)

func ptr(id int64) *int64 { return &id }

func TestReconcilePairsExactMatch(t *testing.T) {
	feed := gtfs.Feed{
		Routes: []gtfs.Route{{ID: "g1", ShortName: "200"}},
		Trips: []gtfs.Trip{
			{ID: "t1", RouteID: "g1", PatternID: "p1", Headsign: "Aliados"},
		},
		StopTimes: []gtfs.StopTime{
			{TripID: "t1", StopID: "gA", StopSequence: 0},
			{TripID: "t1", StopID: "gB", StopSequence: 1},
			{TripID: "t1", StopID: "gC", StopSequence: 2},
		},
	}
	mapping := gtfs.StopMapping{
		"gA": ptr(1),
		"gB": ptr(2),
		"gC": ptr(3),
	}

	route := model.Route{ID: 10, OperatorID: 1, Code: "200"}
	subroutes := map[int64][]model.Subroute{
		10: {{ID: 100, RouteID: 10, Name: "Forward", Via: []int64{1, 2, 3}}},
	}

	results, err := gtfs.Reconcile(context.Background(), feed, mapping, []model.Route{route}, subroutes)
	require.NoError(t, err)
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, int64(10), r.RouteID)
	require.Len(t, r.Pairings, 1)
	assert.Equal(t, int64(100), r.Pairings[0].Subroute.ID)
	assert.Equal(t, 3, r.Pairings[0].Matches)
	assert.Equal(t, 0, r.Pairings[0].Mismatches)
	assert.Empty(t, r.UnpairedSubroutes)
	assert.Empty(t, r.UnpairedClusters)
	assert.False(t, r.HadConflicts)
}

func TestReconcileSkipsRoutesWithoutOperatorOrCode(t *testing.T) {
	feed := gtfs.Feed{}
	route := model.Route{ID: 1, Code: "200"} // no operator
	results, err := gtfs.Reconcile(context.Background(), feed, gtfs.StopMapping{}, []model.Route{route}, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestReconcileLeavesUnmatchedStopsAsMismatches(t *testing.T) {
	feed := gtfs.Feed{
		Routes: []gtfs.Route{{ID: "g1", ShortName: "200"}},
		Trips:  []gtfs.Trip{{ID: "t1", RouteID: "g1", PatternID: "p1"}},
		StopTimes: []gtfs.StopTime{
			{TripID: "t1", StopID: "gA", StopSequence: 0},
			{TripID: "t1", StopID: "unmapped", StopSequence: 1},
			{TripID: "t1", StopID: "gC", StopSequence: 2},
		},
	}
	mapping := gtfs.StopMapping{"gA": ptr(1), "gC": ptr(3)}

	route := model.Route{ID: 10, OperatorID: 1, Code: "200"}
	subroutes := map[int64][]model.Subroute{
		10: {{ID: 100, RouteID: 10, Via: []int64{1, 3}}},
	}

	results, err := gtfs.Reconcile(context.Background(), feed, mapping, []model.Route{route}, subroutes)
	require.NoError(t, err)
	require.Len(t, results[0].Pairings, 1)
	assert.Equal(t, 2, results[0].Pairings[0].Matches)
	assert.Equal(t, 1, results[0].Pairings[0].Mismatches)
}

func TestReconcileConflictLeavesBothSubroutesUnpaired(t *testing.T) {
	feed := gtfs.Feed{
		Routes: []gtfs.Route{{ID: "g1", ShortName: "200"}},
		Trips:  []gtfs.Trip{{ID: "t1", RouteID: "g1", PatternID: "p1"}},
		StopTimes: []gtfs.StopTime{
			{TripID: "t1", StopID: "gA", StopSequence: 0},
			{TripID: "t1", StopID: "gB", StopSequence: 1},
		},
	}
	mapping := gtfs.StopMapping{"gA": ptr(1), "gB": ptr(2)}

	route := model.Route{ID: 10, OperatorID: 1, Code: "200"}
	subroutes := map[int64][]model.Subroute{
		10: {
			{ID: 100, Via: []int64{1, 2}},
			{ID: 101, Via: []int64{1, 2}},
		},
	}

	results, err := gtfs.Reconcile(context.Background(), feed, mapping, []model.Route{route}, subroutes)
	require.NoError(t, err)
	r := results[0]
	assert.True(t, r.HadConflicts)
	assert.Empty(t, r.Pairings)
	assert.Len(t, r.UnpairedSubroutes, 2)
	assert.Len(t, r.UnpairedClusters, 1)
}

func TestReconcileSecondaryHeadsignHeuristic(t *testing.T) {
	feed := gtfs.Feed{
		Routes: []gtfs.Route{{ID: "g1", ShortName: "200"}},
		Trips:  []gtfs.Trip{{ID: "t1", RouteID: "g1", PatternID: "p1", Headsign: "Campanha"}},
		StopTimes: []gtfs.StopTime{
			{TripID: "t1", StopID: "gA", StopSequence: 0},
		},
	}
	mapping := gtfs.StopMapping{}

	headsign := "Campanha"
	route := model.Route{ID: 10, OperatorID: 1, Code: "200"}
	subroutes := map[int64][]model.Subroute{
		10: {{ID: 100, Headsign: &headsign}}, // empty Via, no alignment candidate
	}

	results, err := gtfs.Reconcile(context.Background(), feed, mapping, []model.Route{route}, subroutes)
	require.NoError(t, err)
	require.Len(t, results[0].Pairings, 1)
	assert.Equal(t, int64(100), results[0].Pairings[0].Subroute.ID)
}

func TestAlignmentCostExactLCS(t *testing.T) {
	// Indirectly exercised through Reconcile above; this pins the metric's
	// shape directly for a case with no common subsequence at all.
	feed := gtfs.Feed{
		Routes: []gtfs.Route{{ID: "g1", ShortName: "1"}},
		Trips:  []gtfs.Trip{{ID: "t1", RouteID: "g1", PatternID: "p1"}},
		StopTimes: []gtfs.StopTime{
			{TripID: "t1", StopID: "gX", StopSequence: 0},
			{TripID: "t1", StopID: "gY", StopSequence: 1},
		},
	}
	mapping := gtfs.StopMapping{"gX": ptr(9), "gY": ptr(8)}
	route := model.Route{ID: 1, OperatorID: 1, Code: "1"}
	subroutes := map[int64][]model.Subroute{
		1: {{ID: 1, Via: []int64{1, 2}}},
	}
	results, err := gtfs.Reconcile(context.Background(), feed, mapping, []model.Route{route}, subroutes)
	require.NoError(t, err)
	require.Len(t, results[0].Pairings, 1)
	assert.Equal(t, 0, results[0].Pairings[0].Matches)
	assert.Equal(t, 2, results[0].Pairings[0].Mismatches)
}
