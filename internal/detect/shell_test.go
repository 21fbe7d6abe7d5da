package detect

import (
	"testing"

	"github.com/rawblock/fraudring-engine/internal/config"
	"github.com/rawblock/fraudring-engine/internal/graph"
)

// Scenario D: shell pass-through. Chain A->B->C->D; B and C each receive and
// send the same amount within an hour. B and C should be shell-flagged; A
// and D should not.
func TestDetect_ShellChainPassThrough(t *testing.T) {
	edges := []graph.Edge{
		{TransactionID: "T1", Sender: "A", Receiver: "B", Amount: 1000, Timestamp: ts(t, "2024-01-01T00:00:00Z")},
		{TransactionID: "T2", Sender: "B", Receiver: "C", Amount: 1000, Timestamp: ts(t, "2024-01-01T00:30:00Z")},
		{TransactionID: "T3", Sender: "C", Receiver: "D", Amount: 1000, Timestamp: ts(t, "2024-01-01T01:00:00Z")},
	}
	g := graph.NewBuilder().Build(edges)

	flagged := NewShellDetector(config.Default()).Detect(g)

	if _, ok := flagged["A"]; ok {
		t.Fatal("A is a pure source (no incoming edges) and must not be shell-flagged")
	}
	if _, ok := flagged["D"]; ok {
		t.Fatal("D is a pure sink (no outgoing edges) and must not be shell-flagged")
	}
	if _, ok := flagged["B"]; !ok {
		t.Fatalf("expected B to be shell-flagged (sits inside the length-3 chain A->B->C->D), flagged: %v", flagged)
	}
	if _, ok := flagged["C"]; !ok {
		t.Fatalf("expected C to be shell-flagged (sits inside the length-3 chain A->B->C->D), flagged: %v", flagged)
	}
}

func TestDetect_LongerChainFlagsIntermediateAccounts(t *testing.T) {
	// A->B->C->D->E: B,C,D each pass 1000 through with in_degree=out_degree=1
	// and a backward-plus-forward chain reach of 4 edges (C: 2 back, 2 forward).
	edges := []graph.Edge{
		{TransactionID: "T1", Sender: "A", Receiver: "B", Amount: 1000, Timestamp: ts(t, "2024-01-01T00:00:00Z")},
		{TransactionID: "T2", Sender: "B", Receiver: "C", Amount: 1000, Timestamp: ts(t, "2024-01-01T00:15:00Z")},
		{TransactionID: "T3", Sender: "C", Receiver: "D", Amount: 1000, Timestamp: ts(t, "2024-01-01T00:30:00Z")},
		{TransactionID: "T4", Sender: "D", Receiver: "E", Amount: 1000, Timestamp: ts(t, "2024-01-01T00:45:00Z")},
	}
	g := graph.NewBuilder().Build(edges)

	flagged := NewShellDetector(config.Default()).Detect(g)

	if _, ok := flagged["C"]; !ok {
		t.Fatalf("expected C to be shell-flagged (sits inside the length-4 chain A->B->C->D->E), flagged: %v", flagged)
	}
}

func TestDetect_UnbalancedFlowNotShellFlagged(t *testing.T) {
	edges := []graph.Edge{
		{TransactionID: "T1", Sender: "A", Receiver: "B", Amount: 1000, Timestamp: ts(t, "2024-01-01T00:00:00Z")},
		{TransactionID: "T2", Sender: "X", Receiver: "B", Amount: 1000, Timestamp: ts(t, "2024-01-01T00:05:00Z")},
		{TransactionID: "T3", Sender: "Y", Receiver: "B", Amount: 1000, Timestamp: ts(t, "2024-01-01T00:10:00Z")},
		{TransactionID: "T4", Sender: "B", Receiver: "C", Amount: 500, Timestamp: ts(t, "2024-01-01T00:15:00Z")},
	}
	g := graph.NewBuilder().Build(edges)

	flagged := NewShellDetector(config.Default()).Detect(g)
	if _, ok := flagged["B"]; ok {
		t.Fatalf("B received 3000 but sent only 500 (ratio 0.17), outside [0.8,1.2]; must not be shell-flagged")
	}
}
