package guard

import (
	"fmt"
	"testing"
	"time"

	"github.com/rawblock/fraudring-engine/internal/config"
	"github.com/rawblock/fraudring-engine/internal/graph"
	"github.com/rawblock/fraudring-engine/internal/score"
)

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("bad timestamp %q: %v", s, err)
	}
	return parsed
}

func TestFilter_ScoreCutoffDropsLowScores(t *testing.T) {
	g := graph.NewBuilder().Build(nil)
	accts := []score.FlaggedAccount{{AccountID: "A", SuspicionScore: 39}}
	retained := New(config.Default(), false).Filter(g, accts, nil)
	if len(retained) != 0 {
		t.Fatalf("expected account below MinSuspicionScore to be dropped, got %v", retained)
	}
}

// Scenario C: AMAZON_STORE receives from 60 distinct senders, all below
// 10000 — merchant signature (diversity 1.0, in_degree 60) suppresses it.
func TestFilter_MerchantSignatureSuppressesHighDiversityFanIn(t *testing.T) {
	base := ts(t, "2024-01-01T00:00:00Z")
	var edges []graph.Edge
	for i := 0; i < 60; i++ {
		edges = append(edges, graph.Edge{
			TransactionID: fmt.Sprintf("T%d", i),
			Sender:        fmt.Sprintf("S%d", i),
			Receiver:      "AMAZON_STORE",
			Amount:        500,
			Timestamp:     base.Add(time.Duration(i) * time.Minute),
		})
	}
	g := graph.NewBuilder().Build(edges)

	accts := []score.FlaggedAccount{{
		AccountID:      "AMAZON_STORE",
		SuspicionScore: 60,
		InDegree:       60,
		OutDegree:      0,
	}}
	retained := New(config.Default(), false).Filter(g, accts, nil)
	if len(retained) != 0 {
		t.Fatalf("expected AMAZON_STORE to be suppressed by merchant signature, got %v", retained)
	}
}

func TestFilter_WhitelistOnlyAppliesInEnhancedMode(t *testing.T) {
	g := graph.NewBuilder().Build(nil)
	cfg := config.Default()
	cfg.WhitelistedAccounts = map[string]struct{}{"KNOWNGOOD": {}}

	accts := []score.FlaggedAccount{{AccountID: "KNOWNGOOD", SuspicionScore: 80}}

	base := New(cfg, false).Filter(g, accts, nil)
	if len(base) != 1 {
		t.Fatalf("expected whitelist to be ignored in base mode, got %v", base)
	}

	enhanced := New(cfg, true).Filter(g, accts, nil)
	if len(enhanced) != 0 {
		t.Fatalf("expected whitelist to suppress in enhanced mode, got %v", enhanced)
	}
}

func TestFilter_CycleMembershipExemptsFromMerchantAndExchangeRules(t *testing.T) {
	g := graph.NewBuilder().Build(nil)
	accts := []score.FlaggedAccount{{
		AccountID:      "A",
		SuspicionScore: 90,
		InDegree:       20,
		OutDegree:      20,
		TotalSent:      1000,
		TotalReceived:  1000,
	}}
	cycleMembers := map[string]struct{}{"A": {}}
	retained := New(config.Default(), false).Filter(g, accts, cycleMembers)
	if len(retained) != 1 {
		t.Fatalf("expected cycle member to bypass merchant/exchange suppression, got %v", retained)
	}
}
