// Package detect holds the three pattern detectors of the pipeline: cycle
// (fraud ring) detection, smurfing detection, and shell-account detection.
// All three are total functions over a graph.Graph — they never fail, only
// ever produce empty or partial results.
package detect

import (
	"context"
	"sort"

	"github.com/rawblock/fraudring-engine/internal/config"
	"github.com/rawblock/fraudring-engine/internal/graph"
)

// internedGraph is the small-integer-indexed view of the account graph used
// on the hot paths of the cycle and shell detectors. internGraph builds it
// from a graph.Graph each time one of those detectors runs; integer indices
// keep adjacency iteration and visited-set operations cache-friendly and
// avoid hashing long string IDs while walking the SCC and DFS frontiers.
type internedGraph struct {
	accountOf  []string       // index -> account id, in Graph.NodeOrder order
	indexOf    map[string]int // account id -> index
	adj        [][]int        // index -> distinct out-neighbor indices, first-seen order
	reverseAdj [][]int        // index -> distinct in-neighbor indices, first-seen order
}

func internGraph(g *graph.Graph) *internedGraph {
	ig := &internedGraph{
		accountOf: append([]string(nil), g.NodeOrder...),
		indexOf:   make(map[string]int, len(g.NodeOrder)),
	}
	for i, acct := range ig.accountOf {
		ig.indexOf[acct] = i
	}
	ig.adj = make([][]int, len(ig.accountOf))
	ig.reverseAdj = make([][]int, len(ig.accountOf))
	for i, acct := range ig.accountOf {
		seen := make(map[int]struct{})
		for _, e := range g.Adjacency[acct] {
			j := ig.indexOf[e.Receiver]
			if _, dup := seen[j]; dup {
				continue
			}
			seen[j] = struct{}{}
			ig.adj[i] = append(ig.adj[i], j)
		}
	}
	for i, acct := range ig.accountOf {
		seen := make(map[int]struct{})
		for _, e := range g.ReverseAdjacency[acct] {
			j := ig.indexOf[e.Sender]
			if _, dup := seen[j]; dup {
				continue
			}
			seen[j] = struct{}{}
			ig.reverseAdj[i] = append(ig.reverseAdj[i], j)
		}
	}
	return ig
}

// CycleDetector finds strongly connected components, enumerates bounded
// simple cycles within them, and scores each as a graph.FraudRing.
type CycleDetector struct {
	cfg config.Configuration
}

func NewCycleDetector(cfg config.Configuration) *CycleDetector {
	return &CycleDetector{cfg: cfg}
}

// Detect runs the full five-phase cycle detection pipeline described in the
// component design: SCC discovery, SCC admission, bounded cycle enumeration,
// canonicalization/dedup, and per-cycle risk scoring. It respects ctx's
// deadline — on cancellation it returns whatever rings it has already fully
// scored, which may be none.
func (d *CycleDetector) Detect(ctx context.Context, g *graph.Graph, maxResults int) []graph.FraudRing {
	ig := internGraph(g)

	sccs := tarjanSCC(ig)

	var candidates [][]int
	for _, scc := range sccs {
		if len(scc) >= 2 {
			candidates = append(candidates, scc)
		}
	}

	// (b) SCC admission: sort by size ascending, insertion-order tiebreak,
	// keep the first MaxSCCsConsidered.
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i]) < len(candidates[j])
	})
	if len(candidates) > d.cfg.MaxSCCsConsidered {
		candidates = candidates[:d.cfg.MaxSCCsConsidered]
	}

	var rings []graph.FraudRing
	seenCanonical := make(map[string]struct{})

	for _, scc := range candidates {
		select {
		case <-ctx.Done():
			return rings
		default:
		}

		sccSet := make(map[int]struct{}, len(scc))
		for _, idx := range scc {
			sccSet[idx] = struct{}{}
		}

		// (c) bounded DFS cycle enumeration from the lexicographically
		// smallest MaxCycleStartsPerSCC account IDs in the SCC.
		sortedMembers := append([]int(nil), scc...)
		sort.Slice(sortedMembers, func(i, j int) bool {
			return ig.accountOf[sortedMembers[i]] < ig.accountOf[sortedMembers[j]]
		})
		if len(sortedMembers) > d.cfg.MaxCycleStartsPerSCC {
			sortedMembers = sortedMembers[:d.cfg.MaxCycleStartsPerSCC]
		}

		rawCycles := enumerateCycles(ig, sccSet, sortedMembers, d.cfg.MinCycleLength, d.cfg.MaxCycleLength, d.cfg.MaxCyclesPerSCC)

		for _, cycle := range rawCycles {
			if len(rings) >= maxResults {
				return finalizeRings(rings)
			}
			// canonicalize rotates cycle in place so its lexicographically
			// smallest account ID is first; reverse rotations are treated as
			// distinct cycles since edge direction encodes flow.
			key := canonicalize(ig, cycle)
			if _, dup := seenCanonical[key]; dup {
				continue
			}
			seenCanonical[key] = struct{}{}

			members := make([]string, len(cycle))
			for i, idx := range cycle {
				members[i] = ig.accountOf[idx]
			}

			totalFlow, txCount, amounts := graph.FlowAlongRing(g, members)
			risk := cycleRiskScore(members, amounts, txCount, d.cfg)

			rings = append(rings, graph.FraudRing{
				Members:          members,
				TotalFlow:        totalFlow,
				TransactionCount: txCount,
				RiskScore:        risk,
				CycleLength:      len(members),
			})
		}
	}

	return finalizeRings(rings)
}

// finalizeRings sorts by risk_score descending, ties broken by the order
// rings were discovered (stable sort preserves that order).
func finalizeRings(rings []graph.FraudRing) []graph.FraudRing {
	sort.SliceStable(rings, func(i, j int) bool {
		return rings[i].RiskScore > rings[j].RiskScore
	})
	return rings
}

// cycleRiskScore implements the exact scoring contract of §4.2(e): base 50,
// +20 for tight amount clustering, +15 for high transaction density, +10 for
// cycle length >= 4, clamped to 100.
func cycleRiskScore(members []string, amounts []float64, txCount int, cfg config.Configuration) float64 {
	score := 50.0

	n := len(amounts)
	if n > 0 {
		mean := sum(amounts) / float64(n)
		if mean > 0 {
			var variance float64
			for _, a := range amounts {
				d := a - mean
				variance += d * d
			}
			ratio := variance / (float64(n) * mean * mean)
			if ratio < cfg.CycleVarianceThresh {
				score += 20.0
			}
		}
	}

	if txCount > len(members)*2 {
		score += 15.0
	}
	if len(members) >= 4 {
		score += 10.0
	}

	if score > 100.0 {
		score = 100.0
	}
	return score
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// canonicalize rotates cycle in place so its lexicographically smallest
// account ID is first, then returns the rotated sequence's dedup key.
func canonicalize(ig *internedGraph, cycle []int) string {
	minPos := 0
	for i := 1; i < len(cycle); i++ {
		if ig.accountOf[cycle[i]] < ig.accountOf[cycle[minPos]] {
			minPos = i
		}
	}
	rotated := make([]int, len(cycle))
	for i := range cycle {
		rotated[i] = cycle[(minPos+i)%len(cycle)]
	}
	copy(cycle, rotated)

	key := ""
	for _, idx := range rotated {
		key += ig.accountOf[idx] + ">"
	}
	return key
}
