// Package score combines detector outputs into per-account suspicion
// records: an additive composite score, a closed set of flags, and the
// indices of any rings the account participates in.
package score

import (
	"sort"

	"github.com/rawblock/fraudring-engine/internal/config"
	"github.com/rawblock/fraudring-engine/internal/graph"
	"github.com/rawblock/fraudring-engine/internal/ingest"
)

// FlaggedAccount is the scorer's output for one account.
type FlaggedAccount struct {
	AccountID      string
	SuspicionScore float64
	Flags          []Flag
	ConnectedRings []int

	// Degree/volume echo, carried through for the assembler and API
	// response without needing a second graph lookup.
	InDegree      int
	OutDegree     int
	TotalSent     float64
	TotalReceived float64
	AccountType   string
}

// Inputs bundles the detector outputs the scorer consumes.
type Inputs struct {
	Rings        []graph.FraudRing
	CycleMembers map[string]struct{}
	Smurfing     map[string]struct{}
	Shell        map[string]struct{}
}

// Scorer combines detector outputs into per-account suspicion records.
type Scorer struct {
	cfg      config.Configuration
	enhanced bool
}

func NewScorer(cfg config.Configuration, enhanced bool) *Scorer {
	return &Scorer{cfg: cfg, enhanced: enhanced}
}

// Score evaluates every account named by the union of cycle members,
// smurfing flags, and shell flags, in g.NodeOrder order (for determinism),
// and returns them sorted by suspicion score descending.
func (s *Scorer) Score(g *graph.Graph, in Inputs) []FlaggedAccount {
	ringsOf := ringMembership(in.Rings)

	candidates := make(map[string]struct{})
	for acct := range in.CycleMembers {
		candidates[acct] = struct{}{}
	}
	for acct := range in.Smurfing {
		candidates[acct] = struct{}{}
	}
	for acct := range in.Shell {
		candidates[acct] = struct{}{}
	}

	var results []FlaggedAccount
	for _, acct := range g.NodeOrder {
		if _, ok := candidates[acct]; !ok {
			continue
		}
		results = append(results, s.scoreOne(g, acct, in, ringsOf[acct]))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SuspicionScore > results[j].SuspicionScore
	})
	return results
}

func (s *Scorer) scoreOne(g *graph.Graph, account string, in Inputs, rings []int) FlaggedAccount {
	stats := g.Stats[account]
	var score float64
	var flags []Flag

	if _, ok := in.CycleMembers[account]; ok {
		score += s.cfg.ScoreCycleMember
		flags = append(flags, FlagCycleMember)
	}

	_, inSmurfingSet := in.Smurfing[account]
	if inSmurfingSet && stats.InDegree >= s.cfg.MinFanDegree {
		score += s.cfg.ScoreFanInSmurfing
		flags = append(flags, FlagFanInSmurfing)
	}
	if inSmurfingSet && stats.OutDegree >= s.cfg.MinFanDegree {
		score += s.cfg.ScoreFanOutSmurfing
		flags = append(flags, FlagFanOutSmurfing)
	}

	if _, ok := in.Shell[account]; ok {
		score += s.cfg.ScoreShellAccount
		flags = append(flags, FlagShellAccount)
	}

	if s.hasHighVelocity(stats) {
		score += s.cfg.ScoreHighVelocity
		flags = append(flags, FlagHighVelocity)
	}

	if s.hasBelowThresholdTxs(g, account) {
		score += s.cfg.ScoreBelowThresholdStruct
		flags = append(flags, FlagBelowThresholdStructuring)
	}

	if s.enhanced && s.cfg.IsHighRiskPattern(account) {
		score += s.cfg.ScoreHighRiskPattern
		flags = append(flags, FlagHighRiskPattern)
	}

	if len(flags) >= s.cfg.MultiplePatternsMinFlagCount {
		score += s.cfg.ScoreMultiplePatterns
		flags = append(flags, FlagMultiplePatterns)
	}

	if score > 100 {
		score = 100
	}

	return FlaggedAccount{
		AccountID:      account,
		SuspicionScore: score,
		Flags:          flags,
		ConnectedRings: rings,
		InDegree:       stats.InDegree,
		OutDegree:      stats.OutDegree,
		TotalSent:      stats.TotalSent,
		TotalReceived:  stats.TotalReceived,
		AccountType:    ingest.DetectAccountType(account, stats.InDegree, stats.OutDegree),
	}
}

// hasHighVelocity implements §4.5's tx/day test: an account whose first and
// last transaction share the same timestamp counts as high velocity
// outright; otherwise the mean rate over the account's observed span (in
// fractional days) must exceed TxPerDayThreshold.
func (s *Scorer) hasHighVelocity(stats *graph.NodeStats) bool {
	if stats.TransactionCount == 0 {
		return false
	}
	if stats.LastTx.Equal(stats.FirstTx) {
		return true
	}
	spanDays := stats.LastTx.Sub(stats.FirstTx).Hours() / 24.0
	if spanDays <= 0 {
		return true
	}
	txPerDay := float64(stats.TransactionCount) / spanDays
	return txPerDay > s.cfg.TxPerDayThreshold
}

// hasBelowThresholdTxs implements the scorer's own structuring test, distinct
// from the smurfing detector's sliding-window scan: at least 5 adjacent
// edges (incoming and outgoing combined) and BelowThresholdStructRatio
// (=0.7) of them under SmurfingThreshold.
func (s *Scorer) hasBelowThresholdTxs(g *graph.Graph, account string) bool {
	var adjacent []graph.Edge
	adjacent = append(adjacent, g.Adjacency[account]...)
	adjacent = append(adjacent, g.ReverseAdjacency[account]...)

	if len(adjacent) < 5 {
		return false
	}
	below := 0
	for _, e := range adjacent {
		if e.Amount < s.cfg.SmurfingThreshold {
			below++
		}
	}
	return float64(below) >= float64(len(adjacent))*s.cfg.BelowThresholdStructRatio
}

func ringMembership(rings []graph.FraudRing) map[string][]int {
	out := make(map[string][]int)
	for i, r := range rings {
		for _, member := range r.Members {
			out[member] = append(out[member], i)
		}
	}
	return out
}
