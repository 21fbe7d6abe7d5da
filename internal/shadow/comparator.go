// Package shadow runs a candidate Configuration alongside the configuration
// currently in production, over the same transaction graph, so an operator
// can see how much a threshold change would move detection output before
// adopting it. No candidate config affects a live /detect response — the
// comparison is always a side run against a graph already built from a
// submitted (or replayed) CSV.
package shadow

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rawblock/fraudring-engine/internal/config"
	"github.com/rawblock/fraudring-engine/internal/graph"
	"github.com/rawblock/fraudring-engine/internal/metrics"
	"github.com/rawblock/fraudring-engine/internal/pipeline"
	"github.com/rawblock/fraudring-engine/internal/score"
)

// ConfigComparator diffs a baseline Configuration's flagged-account output
// against a candidate's, persisting the comparison when a pool is set.
type ConfigComparator struct {
	pool *pgxpool.Pool
}

func NewConfigComparator(pool *pgxpool.Pool) *ConfigComparator {
	return &ConfigComparator{pool: pool}
}

// ComparisonResult reports how a candidate Configuration's flagged accounts
// diverge from the baseline's, plus ARI/VI over the two flagged vs
// not-flagged partitions of the graph's accounts, so the size of a drift can
// be judged, not just its existence.
type ComparisonResult struct {
	SnapshotLabel     string    `json:"snapshotLabel"`
	BaselineFlagged   int       `json:"baselineFlagged"`
	CandidateFlagged  int       `json:"candidateFlagged"`
	AddedAccounts     []string  `json:"addedAccounts"`
	RemovedAccounts   []string  `json:"removedAccounts"`
	AdjustedRandIndex float64   `json:"adjustedRandIndex"`
	VariationOfInfo   float64   `json:"variationOfInformation"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Compare runs both Configurations over g and returns their divergence.
// snapshotLabel identifies this comparison run for the shadow_comparisons
// table (e.g. a candidate preset name); it carries no other meaning.
func (c *ConfigComparator) Compare(ctx context.Context, g *graph.Graph, snapshotLabel string, baseline, candidate config.Configuration) (*ComparisonResult, error) {
	_, baselineFlagged := pipeline.DetectOnGraph(ctx, g, baseline, false)
	_, candidateFlagged := pipeline.DetectOnGraph(ctx, g, candidate, false)

	baseSet := flaggedSet(baselineFlagged)
	candSet := flaggedSet(candidateFlagged)

	result := &ComparisonResult{
		SnapshotLabel:    snapshotLabel,
		BaselineFlagged:  len(baseSet),
		CandidateFlagged: len(candSet),
		CreatedAt:        time.Now(),
	}

	for acct := range candSet {
		if _, ok := baseSet[acct]; !ok {
			result.AddedAccounts = append(result.AddedAccounts, acct)
		}
	}
	for acct := range baseSet {
		if _, ok := candSet[acct]; !ok {
			result.RemovedAccounts = append(result.RemovedAccounts, acct)
		}
	}
	sort.Strings(result.AddedAccounts)
	sort.Strings(result.RemovedAccounts)

	baseLabels, candLabels := membershipLabels(g, baseSet, candSet)
	result.AdjustedRandIndex = metrics.AdjustedRandIndex(candLabels, baseLabels)
	result.VariationOfInfo = metrics.VariationOfInformation(candLabels, baseLabels)

	if len(result.AddedAccounts)+len(result.RemovedAccounts) > 0 {
		log.Printf("[shadow] %s diverges from baseline: +%d -%d accounts, ari=%.3f vi=%.3f",
			snapshotLabel, len(result.AddedAccounts), len(result.RemovedAccounts), result.AdjustedRandIndex, result.VariationOfInfo)
	}

	if c.pool != nil {
		if err := c.persist(ctx, result); err != nil {
			return result, err
		}
	}

	return result, nil
}

func flaggedSet(accounts []score.FlaggedAccount) map[string]struct{} {
	set := make(map[string]struct{}, len(accounts))
	for _, a := range accounts {
		set[a.AccountID] = struct{}{}
	}
	return set
}

// membershipLabels turns two flagged-account sets over the same node order
// into parallel 0/1 label vectors, ready for AdjustedRandIndex and
// VariationOfInformation — 1 meaning "flagged", 0 meaning "clear".
func membershipLabels(g *graph.Graph, baseSet, candSet map[string]struct{}) (baseLabels, candLabels []int) {
	baseLabels = make([]int, len(g.NodeOrder))
	candLabels = make([]int, len(g.NodeOrder))
	for i, node := range g.NodeOrder {
		if _, ok := baseSet[node]; ok {
			baseLabels[i] = 1
		}
		if _, ok := candSet[node]; ok {
			candLabels[i] = 1
		}
	}
	return baseLabels, candLabels
}

func (c *ConfigComparator) persist(ctx context.Context, result *ComparisonResult) error {
	sql := `INSERT INTO shadow_comparisons
		(snapshot_label, baseline_flagged, candidate_flagged, added_count, removed_count, adjusted_rand_index, variation_of_information, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := c.pool.Exec(ctx, sql,
		result.SnapshotLabel,
		result.BaselineFlagged,
		result.CandidateFlagged,
		len(result.AddedAccounts),
		len(result.RemovedAccounts),
		result.AdjustedRandIndex,
		result.VariationOfInfo,
		result.CreatedAt,
	)
	return err
}
