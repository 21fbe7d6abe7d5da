package feedback

import "time"

// RunMetrics is one recorded analysis run, grounded on
// PerformanceTracker.record_analysis.
type RunMetrics struct {
	Timestamp             string  `json:"timestamp"`
	TotalAccounts          int     `json:"total_accounts"`
	TotalTransactions      int     `json:"total_transactions"`
	SuspiciousAccounts     int     `json:"suspicious_accounts"`
	FraudRings             int     `json:"fraud_rings"`
	ProcessingTimeSeconds  float64 `json:"processing_time_seconds"`
	FraudRate              float64 `json:"fraud_rate"`
}

// Trends summarizes the most recent runs.
type Trends struct {
	TotalRuns                  int     `json:"total_runs"`
	RecentAvgFraudRate         float64 `json:"recent_avg_fraud_rate"`
	RecentAvgProcessingTime    float64 `json:"recent_avg_processing_time"`
	RecentAvgSuspiciousAccounts float64 `json:"recent_avg_suspicious_accounts"`
	RecentAvgFraudRings        float64 `json:"recent_avg_fraud_rings"`
}

// PerformanceTracker records one RunMetrics per analysis to a JSON-lines
// file and reports trends over the most recent runs.
type PerformanceTracker struct {
	path string
}

func NewPerformanceTracker(path string) *PerformanceTracker {
	return &PerformanceTracker{path: path}
}

func (p *PerformanceTracker) RecordAnalysis(totalAccounts, totalTransactions, suspiciousAccounts, fraudRings int, processingTime time.Duration, now time.Time) error {
	var fraudRate float64
	if totalAccounts > 0 {
		fraudRate = float64(suspiciousAccounts) / float64(totalAccounts)
	}
	return appendJSONLine(p.path, RunMetrics{
		Timestamp:             now.UTC().Format(time.RFC3339),
		TotalAccounts:         totalAccounts,
		TotalTransactions:     totalTransactions,
		SuspiciousAccounts:    suspiciousAccounts,
		FraudRings:            fraudRings,
		ProcessingTimeSeconds: processingTime.Seconds(),
		FraudRate:             fraudRate,
	})
}

// GetTrends averages the last 10 recorded runs.
func (p *PerformanceTracker) GetTrends() (Trends, error) {
	history, err := readJSONLines[RunMetrics](p.path)
	if err != nil {
		return Trends{}, err
	}
	if len(history) == 0 {
		return Trends{}, nil
	}

	recent := history
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}

	var fraudRateSum, processingTimeSum, suspiciousSum, ringsSum float64
	for _, m := range recent {
		fraudRateSum += m.FraudRate
		processingTimeSum += m.ProcessingTimeSeconds
		suspiciousSum += float64(m.SuspiciousAccounts)
		ringsSum += float64(m.FraudRings)
	}
	n := float64(len(recent))

	return Trends{
		TotalRuns:                   len(history),
		RecentAvgFraudRate:          fraudRateSum / n,
		RecentAvgProcessingTime:     processingTimeSum / n,
		RecentAvgSuspiciousAccounts: suspiciousSum / n,
		RecentAvgFraudRings:         ringsSum / n,
	}, nil
}
