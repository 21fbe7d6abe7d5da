// Package assemble shapes the scored, filtered pipeline output into the
// API's public response contract: suspicious accounts, fraud rings, and a
// summary block.
package assemble

import (
	"fmt"
	"time"

	"github.com/rawblock/fraudring-engine/internal/graph"
	"github.com/rawblock/fraudring-engine/internal/score"
	"github.com/rawblock/fraudring-engine/pkg/models"
)

// Assembler shapes scored/filtered accounts and rings into the public
// models.Result, computing ring IDs and the summary block.
type Assembler struct {
	IncludeGraph bool
}

func New(includeGraph bool) *Assembler {
	return &Assembler{IncludeGraph: includeGraph}
}

// Build assembles the final result. processingTime must already be measured
// by the caller before this is invoked — the original source computed it
// too late, after the response body had started assembly; this API makes
// that ordering a precondition instead of an internal detail, so the bug
// cannot recur.
func (a *Assembler) Build(g *graph.Graph, rings []graph.FraudRing, accounts []score.FlaggedAccount, processingTime time.Duration, now time.Time) models.Result {
	publicRings := make([]models.FraudRing, len(rings))
	for i, r := range rings {
		publicRings[i] = models.FraudRing{
			RingID:           fmt.Sprintf("RING_%03d", i),
			Members:          r.Members,
			TotalFlow:        r.TotalFlow,
			TransactionCount: r.TransactionCount,
			RiskScore:        r.RiskScore,
			CycleLength:      r.CycleLength,
		}
	}

	publicAccounts := make([]models.SuspiciousAccount, len(accounts))
	var totalFlaggedVolume float64
	for i, acct := range accounts {
		ringIDs := make([]string, len(acct.ConnectedRings))
		for j, idx := range acct.ConnectedRings {
			ringIDs[j] = fmt.Sprintf("RING_%03d", idx)
		}
		flagStrings := make([]string, len(acct.Flags))
		for j, f := range acct.Flags {
			flagStrings[j] = f.String()
		}
		publicAccounts[i] = models.SuspiciousAccount{
			AccountID:      acct.AccountID,
			SuspicionScore: acct.SuspicionScore,
			Flags:          flagStrings,
			ConnectedRings: ringIDs,
			InDegree:       acct.InDegree,
			OutDegree:      acct.OutDegree,
			TotalSent:      acct.TotalSent,
			TotalReceived:  acct.TotalReceived,
			AccountType:    acct.AccountType,
		}
		totalFlaggedVolume += acct.TotalSent + acct.TotalReceived
	}

	result := models.Result{
		SuspiciousAccounts: publicAccounts,
		FraudRings:         publicRings,
		Summary: models.Summary{
			TotalNodes:                g.NumNodes(),
			TotalTransactions:         g.NumEdges(),
			SuspiciousAccountsFlagged: len(publicAccounts),
			FraudRingsDetected:        len(publicRings),
			TotalFlaggedVolume:        totalFlaggedVolume,
			ProcessingTimeSeconds:     processingTime.Seconds(),
			AnalysisTimestamp:         now.UTC().Format(time.RFC3339),
		},
	}

	if a.IncludeGraph {
		result.GraphData = &models.GraphData{
			Nodes: append([]string(nil), g.NodeOrder...),
			Edges: append([]graph.Edge(nil), g.RawTransactions...),
		}
	}

	return result
}
