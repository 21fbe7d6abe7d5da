package assemble

import (
	"testing"
	"time"

	"github.com/rawblock/fraudring-engine/internal/graph"
	"github.com/rawblock/fraudring-engine/internal/score"
)

func TestBuild_RingIDsAreStableByIndex(t *testing.T) {
	g := graph.NewBuilder().Build([]graph.Edge{
		{TransactionID: "T1", Sender: "A", Receiver: "B", Amount: 100, Timestamp: time.Now()},
	})
	rings := []graph.FraudRing{
		{Members: []string{"A", "B", "C"}, RiskScore: 90, CycleLength: 3},
		{Members: []string{"X", "Y", "Z"}, RiskScore: 70, CycleLength: 3},
	}

	result := New(false).Build(g, rings, nil, 0, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	if result.FraudRings[0].RingID != "RING_000" || result.FraudRings[1].RingID != "RING_001" {
		t.Fatalf("expected stable RING_%%03d ids by index, got %+v", result.FraudRings)
	}
}

func TestBuild_SummaryCountsAndVolumeMatchInputs(t *testing.T) {
	g := graph.NewBuilder().Build([]graph.Edge{
		{TransactionID: "T1", Sender: "A", Receiver: "B", Amount: 100, Timestamp: time.Now()},
	})
	accounts := []score.FlaggedAccount{
		{AccountID: "A", SuspicionScore: 80, Flags: []score.Flag{score.FlagCycleMember}, TotalSent: 100, TotalReceived: 0},
		{AccountID: "B", SuspicionScore: 60, Flags: []score.Flag{score.FlagShellAccount}, TotalSent: 0, TotalReceived: 100},
	}

	result := New(false).Build(g, nil, accounts, 2*time.Second, time.Now())

	if result.Summary.SuspiciousAccountsFlagged != 2 {
		t.Fatalf("expected 2 suspicious accounts, got %d", result.Summary.SuspiciousAccountsFlagged)
	}
	if result.Summary.TotalFlaggedVolume != 200 {
		t.Fatalf("expected total_flagged_volume 200, got %v", result.Summary.TotalFlaggedVolume)
	}
	if result.Summary.ProcessingTimeSeconds != 2 {
		t.Fatalf("expected processing_time_seconds 2, got %v", result.Summary.ProcessingTimeSeconds)
	}
	if result.GraphData != nil {
		t.Fatal("expected no graph echo when IncludeGraph is false")
	}
}

func TestBuild_OptionalGraphEcho(t *testing.T) {
	g := graph.NewBuilder().Build([]graph.Edge{
		{TransactionID: "T1", Sender: "A", Receiver: "B", Amount: 100, Timestamp: time.Now()},
	})
	result := New(true).Build(g, nil, nil, 0, time.Now())
	if result.GraphData == nil || len(result.GraphData.Nodes) != 2 || len(result.GraphData.Edges) != 1 {
		t.Fatalf("expected graph echo with 2 nodes and 1 edge, got %+v", result.GraphData)
	}
}
