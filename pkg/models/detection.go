// Package models holds the wire-level request/response types the HTTP layer
// serializes. They carry no behavior of their own — internal/assemble is
// responsible for populating them from a graph.Graph and a scored,
// filtered account list.
package models

import "github.com/rawblock/fraudring-engine/internal/graph"

// SuspiciousAccount is one flagged account in a detection result.
type SuspiciousAccount struct {
	AccountID      string   `json:"account_id"`
	SuspicionScore float64  `json:"suspicion_score"`
	Flags          []string `json:"flags"`
	ConnectedRings []string `json:"connected_rings"`
	InDegree       int      `json:"in_degree"`
	OutDegree      int      `json:"out_degree"`
	TotalSent      float64  `json:"total_sent"`
	TotalReceived  float64  `json:"total_received"`
	AccountType    string   `json:"account_type,omitempty"`
}

// FraudRing is one detected cycle, with a stable public ring_id.
type FraudRing struct {
	RingID           string   `json:"ring_id"`
	Members          []string `json:"members"`
	TotalFlow        float64  `json:"total_flow"`
	TransactionCount int      `json:"transaction_count"`
	RiskScore        float64  `json:"risk_score"`
	CycleLength      int      `json:"cycle_length"`
}

// Summary is the aggregate totals for one detection run.
type Summary struct {
	TotalNodes                int     `json:"total_nodes"`
	TotalTransactions         int     `json:"total_transactions"`
	SuspiciousAccountsFlagged int     `json:"suspicious_accounts_flagged"`
	FraudRingsDetected        int     `json:"fraud_rings_detected"`
	TotalFlaggedVolume        float64 `json:"total_flagged_volume"`
	ProcessingTimeSeconds     float64 `json:"processing_time_seconds"`
	AnalysisTimestamp         string  `json:"analysis_timestamp"`
}

// GraphData is an optional echo of the built transaction graph.
type GraphData struct {
	Nodes []string     `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

// Result is the full detection response body.
type Result struct {
	SuspiciousAccounts []SuspiciousAccount `json:"suspicious_accounts"`
	FraudRings         []FraudRing         `json:"fraud_rings"`
	Summary            Summary             `json:"summary"`
	GraphData          *GraphData          `json:"graph_data,omitempty"`
}
