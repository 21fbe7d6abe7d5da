package detect

import (
	"sort"

	"github.com/rawblock/fraudring-engine/internal/config"
	"github.com/rawblock/fraudring-engine/internal/graph"
)

// SmurfingDetector flags accounts exhibiting dense below-threshold fan-in or
// fan-out inside a rolling temporal window.
type SmurfingDetector struct {
	cfg config.Configuration
}

func NewSmurfingDetector(cfg config.Configuration) *SmurfingDetector {
	return &SmurfingDetector{cfg: cfg}
}

// Detect inspects every node whose out_degree or in_degree meets
// MinFanDegree and returns the union of fan-out- and fan-in-flagged
// accounts. Fan-out is checked before fan-in, matching the source order;
// both contribute to the same result set, so the order is immaterial to the
// output.
func (d *SmurfingDetector) Detect(g *graph.Graph) map[string]struct{} {
	flagged := make(map[string]struct{})

	for _, account := range g.NodeOrder {
		stats := g.Stats[account]
		if stats.OutDegree >= d.cfg.MinFanDegree {
			if d.checkWindow(g.Adjacency[account]) {
				flagged[account] = struct{}{}
			}
		}
	}
	for _, account := range g.NodeOrder {
		stats := g.Stats[account]
		if stats.InDegree >= d.cfg.MinFanDegree {
			if d.checkWindow(g.ReverseAdjacency[account]) {
				flagged[account] = struct{}{}
			}
		}
	}

	return flagged
}

// checkWindow implements the sliding-window scan of §4.3: sort edges by
// timestamp, and for each starting index form the window
// [t_i, t_i + TimeWindowHours]; if that window holds at least 5 edges and
// BelowThresholdRatio of them sit below SmurfingThreshold, flag and stop.
func (d *SmurfingDetector) checkWindow(edges []graph.Edge) bool {
	if len(edges) == 0 {
		return false
	}
	sorted := append([]graph.Edge(nil), edges...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	windowDuration := timeHours(d.cfg.TimeWindowHours)

	for i := range sorted {
		windowEnd := sorted[i].Timestamp.Add(windowDuration)
		var windowTxs []graph.Edge
		for j := i; j < len(sorted); j++ {
			if sorted[j].Timestamp.After(windowEnd) {
				break
			}
			windowTxs = append(windowTxs, sorted[j])
		}

		if len(windowTxs) >= 5 {
			below := 0
			for _, e := range windowTxs {
				if e.Amount < d.cfg.SmurfingThreshold {
					below++
				}
			}
			if float64(below) >= float64(len(windowTxs))*d.cfg.BelowThresholdRatio {
				return true
			}
		}
	}
	return false
}
