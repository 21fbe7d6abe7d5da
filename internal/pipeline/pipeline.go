// Package pipeline orchestrates the full detection run: ingest, graph
// construction, the three pattern detectors, scoring, false-positive
// suppression, and result assembly. It is the one place that owns wall-clock
// timing, since the assembler requires processing_time to already be
// measured by the time it builds a Result.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rawblock/fraudring-engine/internal/assemble"
	"github.com/rawblock/fraudring-engine/internal/config"
	"github.com/rawblock/fraudring-engine/internal/detect"
	"github.com/rawblock/fraudring-engine/internal/graph"
	"github.com/rawblock/fraudring-engine/internal/guard"
	"github.com/rawblock/fraudring-engine/internal/ingest"
	"github.com/rawblock/fraudring-engine/internal/score"
	"github.com/rawblock/fraudring-engine/pkg/models"
)

// MaxCycleResults bounds how many fraud rings cycle detection ever returns,
// independent of the SCC/per-SCC admission caps in Configuration.
const MaxCycleResults = 500

// Options controls one run of the pipeline, mirroring the request-level
// toggles documented for POST /detect and POST /detect/enhanced.
type Options struct {
	Config           config.Configuration
	Enhanced         bool
	EnableValidation bool
	IncludeGraphData bool
}

// Pipeline runs the full seven-stage detection flow over CSV input.
type Pipeline struct {
	opts Options
}

func New(opts Options) *Pipeline {
	return &Pipeline{opts: opts}
}

// Run executes every stage in order and returns the assembled Result. now is
// the wall-clock start, injected so callers (and tests) control timestamps
// without this package ever calling time.Now itself.
func (p *Pipeline) Run(ctx context.Context, r io.Reader, now time.Time) (models.Result, *ingest.QualityReport, error) {
	start := now

	edges, quality, err := ingest.Parse(r, p.opts.EnableValidation)
	if err != nil {
		return models.Result{}, nil, fmt.Errorf("ingest: %w", err)
	}

	g := graph.NewBuilder().Build(edges)

	rings, filtered := DetectOnGraph(ctx, g, p.opts.Config, p.opts.Enhanced)

	processingTime := time.Since(start)

	assembler := assemble.New(p.opts.IncludeGraphData)
	result := assembler.Build(g, rings, filtered, processingTime, now)

	return result, quality, nil
}

// DetectOnGraph runs cycle detection, smurfing/shell detection, scoring and
// guard suppression over an already-built graph for a given Configuration.
// It holds no ingest or assembly concerns, so internal/shadow can reuse it to
// compare a candidate Configuration against the running baseline without
// re-parsing CSV input.
func DetectOnGraph(ctx context.Context, g *graph.Graph, cfg config.Configuration, enhanced bool) ([]graph.FraudRing, []score.FlaggedAccount) {
	rings := runCycleDetection(ctx, g, cfg)
	smurfing := detect.NewSmurfingDetector(cfg).Detect(g)
	shell := detect.NewShellDetector(cfg).Detect(g)

	if enhanced {
		rings = filterRingsByRiskFloor(rings, cfg.MinSuspicionScore-10)
		stripWhitelisted(g, cfg, smurfing)
		stripWhitelisted(g, cfg, shell)
		addHighRiskPatternAccounts(g, cfg, smurfing)
	}

	cycleMembers := make(map[string]struct{})
	for _, ring := range rings {
		for _, m := range ring.Members {
			cycleMembers[m] = struct{}{}
		}
	}

	scorer := score.NewScorer(cfg, enhanced)
	flagged := scorer.Score(g, score.Inputs{
		Rings:        rings,
		CycleMembers: cycleMembers,
		Smurfing:     smurfing,
		Shell:        shell,
	})

	filtered := guard.New(cfg, enhanced).Filter(g, flagged, cycleMembers)
	return rings, filtered
}

// runCycleDetection bounds cycle enumeration to CycleDeadlineSeconds of wall
// clock, running it on its own goroutine so the request never waits past the
// deadline. When the deadline expires the stage yields no rings and the
// goroutine's late result is discarded.
func runCycleDetection(ctx context.Context, g *graph.Graph, cfg config.Configuration) []graph.FraudRing {
	deadline := time.Duration(cfg.CycleDeadlineSeconds) * time.Second
	cctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	detector := detect.NewCycleDetector(cfg)

	result := make(chan []graph.FraudRing, 1)
	go func() {
		result <- detector.Detect(cctx, g, MaxCycleResults)
	}()

	// Detect checks cctx only between SCCs, so one SCC's enumeration can run
	// past the deadline; the wait is bounded by cctx as well. The channel is
	// buffered, so an abandoned goroutine still finishes and exits.
	select {
	case rings := <-result:
		if cctx.Err() != nil {
			return nil
		}
		return rings
	case <-cctx.Done():
		return nil
	}
}

// filterRingsByRiskFloor drops cycle results below floor — enhanced mode's
// tighter admission bar ahead of scoring, distinct from the Scorer's own
// post-scoring MinSuspicionScore cutoff.
func filterRingsByRiskFloor(rings []graph.FraudRing, floor float64) []graph.FraudRing {
	kept := rings[:0:0]
	for _, r := range rings {
		if r.RiskScore >= floor {
			kept = append(kept, r)
		}
	}
	return kept
}

// stripWhitelisted removes whitelisted accounts from a flagged set in place,
// before scoring — enhanced mode trusts the whitelist earlier than the
// guard's own post-scoring suppression pass.
func stripWhitelisted(g *graph.Graph, cfg config.Configuration, set map[string]struct{}) {
	for account := range set {
		if cfg.IsWhitelisted(account) {
			delete(set, account)
		}
	}
}

// addHighRiskPatternAccounts adds every account matching a configured
// high-risk substring with in_degree or out_degree >= 3 into the
// smurfing-flagged set, which makes it a Scorer candidate. The Scorer's
// fan_in/fan_out weights still apply only when the matching degree meets
// MinFanDegree.
func addHighRiskPatternAccounts(g *graph.Graph, cfg config.Configuration, smurfing map[string]struct{}) {
	for account, stats := range g.Stats {
		if stats.OutDegree < 3 && stats.InDegree < 3 {
			continue
		}
		if cfg.IsHighRiskPattern(account) {
			smurfing[account] = struct{}{}
		}
	}
}
