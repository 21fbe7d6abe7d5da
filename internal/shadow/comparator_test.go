package shadow

import (
	"context"
	"strings"
	"testing"

	"github.com/rawblock/fraudring-engine/internal/config"
	"github.com/rawblock/fraudring-engine/internal/graph"
	"github.com/rawblock/fraudring-engine/internal/ingest"
)

const sampleCSV = `transaction_id,sender_id,receiver_id,amount,timestamp
T1,A,B,1000,2024-01-01T00:00:00Z
T2,B,C,1000,2024-01-01T01:00:00Z
T3,C,A,1000,2024-01-01T02:00:00Z
T4,D,E,50,2024-01-01T03:00:00Z
`

func buildGraph(t *testing.T) *graph.Graph {
	t.Helper()
	edges, _, err := ingest.Parse(strings.NewReader(sampleCSV), false)
	if err != nil {
		t.Fatalf("ingest.Parse: %v", err)
	}
	return graph.NewBuilder().Build(edges)
}

func TestCompare_IdenticalConfigsProduceNoDivergence(t *testing.T) {
	g := buildGraph(t)
	cfg := config.Default()

	c := NewConfigComparator(nil)
	result, err := c.Compare(context.Background(), g, "identity-check", cfg, cfg)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	if len(result.AddedAccounts) != 0 || len(result.RemovedAccounts) != 0 {
		t.Fatalf("expected no divergence between identical configs, got +%v -%v", result.AddedAccounts, result.RemovedAccounts)
	}
	if result.AdjustedRandIndex != 1.0 {
		t.Fatalf("expected perfect ARI agreement, got %v", result.AdjustedRandIndex)
	}
}

func TestCompare_StricterCandidateFlagsFewerAccounts(t *testing.T) {
	g := buildGraph(t)
	baseline := config.Default()
	candidate := baseline
	candidate.MinSuspicionScore = 99999 // nothing clears this bar

	c := NewConfigComparator(nil)
	result, err := c.Compare(context.Background(), g, "strict-candidate", baseline, candidate)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	if result.CandidateFlagged != 0 {
		t.Fatalf("expected candidate to flag 0 accounts, got %d", result.CandidateFlagged)
	}
	if len(result.RemovedAccounts) != result.BaselineFlagged {
		t.Fatalf("expected every baseline-flagged account to show as removed, got %d removed of %d baseline",
			len(result.RemovedAccounts), result.BaselineFlagged)
	}
}
