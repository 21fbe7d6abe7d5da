package detect

import (
	"context"
	"testing"
	"time"

	"github.com/rawblock/fraudring-engine/internal/config"
	"github.com/rawblock/fraudring-engine/internal/graph"
)

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("bad timestamp %q: %v", s, err)
	}
	return parsed
}

// Scenario A: 3-cycle with uniform amounts.
func TestDetect_ThreeCycleUniformAmounts(t *testing.T) {
	edges := []graph.Edge{
		{TransactionID: "T1", Sender: "A", Receiver: "B", Amount: 100, Timestamp: ts(t, "2024-01-01T00:00:00Z")},
		{TransactionID: "T2", Sender: "B", Receiver: "C", Amount: 100, Timestamp: ts(t, "2024-01-01T01:00:00Z")},
		{TransactionID: "T3", Sender: "C", Receiver: "A", Amount: 100, Timestamp: ts(t, "2024-01-01T02:00:00Z")},
	}
	g := graph.NewBuilder().Build(edges)

	cfg := config.Default()
	rings := NewCycleDetector(cfg).Detect(context.Background(), g, 50)

	if len(rings) != 1 {
		t.Fatalf("expected exactly one ring, got %d: %+v", len(rings), rings)
	}
	r := rings[0]
	if r.CycleLength != 3 || len(r.Members) != 3 {
		t.Fatalf("expected cycle_length 3, got %d (members %v)", r.CycleLength, r.Members)
	}
	if r.Members[0] != "A" {
		t.Fatalf("expected canonical rotation to start at lexicographically smallest member A, got %v", r.Members)
	}
	if r.TotalFlow != 300 {
		t.Fatalf("expected total_flow 300, got %v", r.TotalFlow)
	}
	if r.TransactionCount != 3 {
		t.Fatalf("expected transaction_count 3, got %d", r.TransactionCount)
	}
	if r.RiskScore < 70 {
		t.Fatalf("expected risk_score >= 70 (base 50 + clustering 20), got %v", r.RiskScore)
	}
}

func TestDetect_NoEdgesNoRings(t *testing.T) {
	g := graph.NewBuilder().Build(nil)
	rings := NewCycleDetector(config.Default()).Detect(context.Background(), g, 50)
	if len(rings) != 0 {
		t.Fatalf("expected no rings for empty graph, got %d", len(rings))
	}
}

func TestDetect_SingleEdgeNoRings(t *testing.T) {
	edges := []graph.Edge{
		{TransactionID: "T1", Sender: "A", Receiver: "B", Amount: 100, Timestamp: ts(t, "2024-01-01T00:00:00Z")},
	}
	g := graph.NewBuilder().Build(edges)
	rings := NewCycleDetector(config.Default()).Detect(context.Background(), g, 50)
	if len(rings) != 0 {
		t.Fatalf("expected no rings for a single edge, got %d", len(rings))
	}
}

func TestDetect_RespectsExpiredDeadline(t *testing.T) {
	edges := []graph.Edge{
		{TransactionID: "T1", Sender: "A", Receiver: "B", Amount: 100, Timestamp: ts(t, "2024-01-01T00:00:00Z")},
		{TransactionID: "T2", Sender: "B", Receiver: "C", Amount: 100, Timestamp: ts(t, "2024-01-01T01:00:00Z")},
		{TransactionID: "T3", Sender: "C", Receiver: "A", Amount: 100, Timestamp: ts(t, "2024-01-01T02:00:00Z")},
	}
	g := graph.NewBuilder().Build(edges)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rings := NewCycleDetector(config.Default()).Detect(ctx, g, 50)
	if len(rings) != 0 {
		t.Fatalf("expected an already-cancelled context to yield no rings, got %d", len(rings))
	}
}
