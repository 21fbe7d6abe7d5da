package detect

import (
	"math"

	"github.com/rawblock/fraudring-engine/internal/config"
	"github.com/rawblock/fraudring-engine/internal/graph"
)

// ShellDetector flags intermediaries whose money in roughly equals money
// out, who sit inside a sufficiently long directed chain (backward reach
// plus forward reach), and who turn funds over fast.
type ShellDetector struct {
	cfg config.Configuration
}

func NewShellDetector(cfg config.Configuration) *ShellDetector {
	return &ShellDetector{cfg: cfg}
}

// Detect returns the set of accounts passing all three tests: balance,
// chain, and velocity.
func (d *ShellDetector) Detect(g *graph.Graph) map[string]struct{} {
	flagged := make(map[string]struct{})
	ig := internGraph(g)

	for _, account := range g.NodeOrder {
		stats := g.Stats[account]
		if stats.InDegree == 0 || stats.OutDegree == 0 {
			continue
		}
		if !d.passesBalance(stats) {
			continue
		}
		if !d.passesChain(ig, account) {
			continue
		}
		if !d.passesVelocity(g, account) {
			continue
		}
		flagged[account] = struct{}{}
	}
	return flagged
}

func (d *ShellDetector) passesBalance(stats *graph.NodeStats) bool {
	if stats.TotalReceived <= 0 {
		return false
	}
	r := stats.TotalSent / stats.TotalReceived
	return r >= d.cfg.PassThroughRatioMin && r <= d.cfg.PassThroughRatioMax
}

// passesChain checks whether target sits inside a directed chain (the
// longest simple path reaching backward into target plus the longest simple
// path reaching forward out of target) of combined length >= MinChainLength,
// each side bounded to depth 10.
//
// The original source copies a fresh visited set on every recursive branch,
// which is quadratic-to-exponential on degenerate graphs. This version
// shares a single visited array across each directional search and
// pushes/pops it around each recursive call instead — the cycle-avoidance
// invariant (a node is "visited" only for the lifetime of its own call
// frame, so no simple path can revisit a node) is preserved exactly; only
// the allocation pattern changes.
func (d *ShellDetector) passesChain(ig *internedGraph, target string) bool {
	targetIdx, ok := ig.indexOf[target]
	if !ok {
		return false
	}

	forward := longestSimplePath(ig.adj, targetIdx, len(ig.accountOf))
	backward := longestSimplePath(ig.reverseAdj, targetIdx, len(ig.accountOf))

	return forward+backward >= d.cfg.MinChainLength
}

const maxChainDepth = 10

// longestSimplePath returns the longest simple directed path, in edges,
// starting at node and following adj outward, capped at maxChainDepth.
func longestSimplePath(adj [][]int, node int, n int) int {
	visited := make([]bool, n)
	visited[node] = true

	var dfs func(cur int, depth int) int
	dfs = func(cur int, depth int) int {
		if depth >= maxChainDepth {
			return depth
		}
		best := depth
		for _, nb := range adj[cur] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			if r := dfs(nb, depth+1); r > best {
				best = r
			}
			visited[nb] = false
		}
		return best
	}
	return dfs(node, 0)
}

// passesVelocity approximates fast pass-through by comparing the mean
// incoming timestamp to the mean outgoing timestamp: their absolute
// difference must be under VelocityThresholdHours.
func (d *ShellDetector) passesVelocity(g *graph.Graph, account string) bool {
	in := g.ReverseAdjacency[account]
	out := g.Adjacency[account]
	if len(in) == 0 || len(out) == 0 {
		return false
	}

	meanIn := meanUnixSeconds(in)
	meanOut := meanUnixSeconds(out)

	diffHours := math.Abs(meanOut-meanIn) / 3600.0
	return diffHours < d.cfg.VelocityThresholdHours
}

func meanUnixSeconds(edges []graph.Edge) float64 {
	var total float64
	for _, e := range edges {
		total += float64(e.Timestamp.Unix())
	}
	return total / float64(len(edges))
}
