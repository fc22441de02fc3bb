package gtfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intermodalis/transitcore/gtfs"
)

func TestClusterPatternsDeduplicatesByStopSequence(t *testing.T) {
	feed := gtfs.Feed{
		Trips: []gtfs.Trip{
			{ID: "t1", RouteID: "r1", PatternID: "p1", Headsign: "Pinhal Novo"},
			{ID: "t2", RouteID: "r1", PatternID: "p1", Headsign: "Pinhal Novo"},
			{ID: "t3", RouteID: "r1", PatternID: "p2", Headsign: "Palmela"},
		},
		StopTimes: []gtfs.StopTime{
			{TripID: "t1", StopID: "A", StopSequence: 0},
			{TripID: "t1", StopID: "B", StopSequence: 1},
			{TripID: "t2", StopID: "B", StopSequence: 1},
			{TripID: "t2", StopID: "A", StopSequence: 0},
			{TripID: "t3", StopID: "B", StopSequence: 0},
			{TripID: "t3", StopID: "A", StopSequence: 1},
		},
	}

	clusters := gtfs.ClusterPatterns(feed)
	require.Len(t, clusters["r1"], 2)

	var forward, backward *gtfs.PatternCluster
	for i, c := range clusters["r1"] {
		if c.Stops[0] == "A" {
			forward = &clusters["r1"][i]
		} else {
			backward = &clusters["r1"][i]
		}
	}
	require.NotNil(t, forward)
	require.NotNil(t, backward)
	assert.Equal(t, []gtfs.StopID{"A", "B"}, forward.Stops)
	assert.Len(t, forward.TripIDs, 2)
	assert.Len(t, forward.PatternIDs, 1)
	assert.Len(t, backward.TripIDs, 1)
}

func TestClusterPatternsDropsTripsWithoutStopTimes(t *testing.T) {
	feed := gtfs.Feed{
		Trips: []gtfs.Trip{{ID: "ghost", RouteID: "r1", PatternID: "p1"}},
	}
	clusters := gtfs.ClusterPatterns(feed)
	assert.Empty(t, clusters["r1"])
}
