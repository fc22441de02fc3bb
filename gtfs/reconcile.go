package gtfs

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/intermodalis/transitcore/model"
)

// StopMapping maps a GTFS stop id to the internal stop it corresponds to.
// A missing entry (or an explicit nil) means the stop is unmapped
// (spec.md §4.6 "gtfs_stop_id -> internal_stop_id?").
type StopMapping map[StopID]*int64

func (m StopMapping) lookup(id StopID) *int64 {
	return m[id]
}

// Pairing is one accepted (subroute, cluster) match (spec.md §4.6 step 7).
type Pairing struct {
	Subroute   model.Subroute
	Cluster    PatternCluster
	Matches    int
	Mismatches int
}

// RouteResult is the reconciler's per-route output.
type RouteResult struct {
	RouteID           int64
	Pairings          []Pairing
	UnpairedSubroutes []model.Subroute
	UnpairedClusters  []PatternCluster
	HadConflicts      bool
}

// mappedSequence translates a cluster's GTFS stop sequence through mapping
// into a sequence of internal stop ids, using nil for unmapped stops
// (spec.md §4.6 step 4, "unknown stops become None").
func mappedSequence(cluster PatternCluster, mapping StopMapping) []*int64 {
	out := make([]*int64, len(cluster.Stops))
	for i, s := range cluster.Stops {
		out[i] = mapping.lookup(s)
	}
	return out
}

// alignmentCost scores how well an ordered internal-id sequence (a
// subroute's Via) aligns against a mapped cluster sequence (b, with nil
// standing in for unmapped/unknown stops) via longest-common-subsequence
// alignment: matches is the LCS length (nils never match anything, even
// each other); mismatches is the number of steps in the alignment beyond
// that common subsequence (spec.md §4.6 step 5).
func alignmentCost(a []int64, b []*int64) (matches, mismatches int) {
	n, m := len(a), len(b)
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if b[j-1] != nil && *b[j-1] == a[i-1] {
				lcs[i][j] = lcs[i-1][j-1] + 1
			} else if lcs[i-1][j] >= lcs[i][j-1] {
				lcs[i][j] = lcs[i-1][j]
			} else {
				lcs[i][j] = lcs[i][j-1]
			}
		}
	}
	matches = lcs[n][m]
	longest := n
	if m > longest {
		longest = m
	}
	mismatches = longest - matches
	return matches, mismatches
}

// candidate is a subroute's best-scoring cluster before conflict resolution.
type candidate struct {
	subrouteIdx int
	clusterIdx  int
	matches     int
	mismatches  int
}

// reconcileRoute runs the pairing algorithm for a single internal route
// against its matched GTFS pattern clusters (spec.md §4.6 steps 4-7).
func reconcileRoute(routeID int64, subroutes []model.Subroute, clusters []PatternCluster, mapping StopMapping) RouteResult {
	result := RouteResult{RouteID: routeID}
	if len(subroutes) == 0 || len(clusters) == 0 {
		result.UnpairedSubroutes = subroutes
		result.UnpairedClusters = clusters
		return result
	}

	mappedClusters := make([][]*int64, len(clusters))
	for i, c := range clusters {
		mappedClusters[i] = mappedSequence(c, mapping)
	}

	// Best cluster per subroute with a non-empty Via (step 5).
	best := make(map[int]candidate)
	for si, sub := range subroutes {
		if len(sub.Via) == 0 {
			continue
		}
		var chosen *candidate
		for ci, mapped := range mappedClusters {
			matches, mismatches := alignmentCost(sub.Via, mapped)
			if chosen == nil || mismatches < chosen.mismatches {
				chosen = &candidate{subrouteIdx: si, clusterIdx: ci, matches: matches, mismatches: mismatches}
			}
		}
		if chosen != nil {
			best[si] = *chosen
		}
	}

	// Detect contention: subroutes whose chosen cluster collides with
	// another subroute's choice are conflicts, and both are left unpaired.
	claimants := make(map[int][]int) // clusterIdx -> subrouteIdx list
	for si, c := range best {
		claimants[c.clusterIdx] = append(claimants[c.clusterIdx], si)
	}

	pairedSubroutes := make(map[int]bool)
	pairedClusters := make(map[int]bool)
	for clusterIdx, subIdxs := range claimants {
		if len(subIdxs) > 1 {
			result.HadConflicts = true
			continue
		}
		si := subIdxs[0]
		c := best[si]
		result.Pairings = append(result.Pairings, Pairing{
			Subroute:   subroutes[si],
			Cluster:    clusters[clusterIdx],
			Matches:    c.matches,
			Mismatches: c.mismatches,
		})
		pairedSubroutes[si] = true
		pairedClusters[clusterIdx] = true
	}

	// Secondary heuristic: subroutes with no Via (empty-stop) try a
	// headsign match against still-unpaired clusters (spec.md §4.6 step 6).
	for si, sub := range subroutes {
		if pairedSubroutes[si] || len(sub.Via) != 0 || sub.Headsign == nil {
			continue
		}
		for ci, c := range clusters {
			if pairedClusters[ci] {
				continue
			}
			if _, ok := c.Headsigns[*sub.Headsign]; ok {
				result.Pairings = append(result.Pairings, Pairing{Subroute: sub, Cluster: c})
				pairedSubroutes[si] = true
				pairedClusters[ci] = true
				break
			}
		}
	}

	for si, sub := range subroutes {
		if !pairedSubroutes[si] {
			result.UnpairedSubroutes = append(result.UnpairedSubroutes, sub)
		}
	}
	for ci, c := range clusters {
		if !pairedClusters[ci] {
			result.UnpairedClusters = append(result.UnpairedClusters, c)
		}
	}
	return result
}

// matchingGTFSRoutes returns the GTFS route ids whose ShortName equals
// code (spec.md §4.6 step 3).
func matchingGTFSRoutes(routes []Route, code string) []RouteID {
	var out []RouteID
	for _, r := range routes {
		if r.ShortName == code {
			out = append(out, r.ID)
		}
	}
	return out
}

// Reconcile runs the full pairing algorithm (spec.md §4.6) for every
// internal route that has both an operator and a code, matching GTFS
// routes by short name. Independent routes are reconciled concurrently
// via errgroup, grounded on the teacher's errgroup.WithContext fan-out
// in main.go, since spec.md §5 states the pairing of one route never
// observes another.
func Reconcile(ctx context.Context, feed Feed, mapping StopMapping, routes []model.Route, subroutesByRoute map[int64][]model.Subroute) ([]RouteResult, error) {
	clustersByGTFSRoute := ClusterPatterns(feed)

	eligible := make([]model.Route, 0, len(routes))
	for _, r := range routes {
		if r.OperatorID != 0 && r.Code != "" {
			eligible = append(eligible, r)
		}
	}

	results := make([]RouteResult, len(eligible))
	errg, _ := errgroup.WithContext(ctx)
	for i, route := range eligible {
		i, route := i, route
		errg.Go(func() error {
			var clusters []PatternCluster
			for _, gtfsRouteID := range matchingGTFSRoutes(feed.Routes, route.Code) {
				clusters = append(clusters, clustersByGTFSRoute[gtfsRouteID]...)
			}
			results[i] = reconcileRoute(route.ID, subroutesByRoute[route.ID], clusters, mapping)
			return nil
		})
	}
	if err := errg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
