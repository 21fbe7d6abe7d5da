// Package feedback collects reviewer feedback on past detection results and
// tracks performance metrics over time, both as append-only JSON-lines
// files outside the pipeline's read path.
package feedback

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// Entry is one reviewer verdict on a previously flagged account.
type Entry struct {
	AccountID       string   `json:"account_id"`
	PredictedScore  float64  `json:"predicted_score"`
	PredictedFlags  []string `json:"predicted_flags"`
	ActualFraud     bool     `json:"actual_fraud"`
	FraudType       string   `json:"fraud_type,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	Timestamp       string   `json:"timestamp"`
}

// Metrics summarizes reviewer feedback against the MinSuspicionScore cutoff.
type Metrics struct {
	TotalReviews   int     `json:"total_reviews"`
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	TrueNegatives  int     `json:"true_negatives"`
	FalseNegatives int     `json:"false_negatives"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1Score        float64 `json:"f1_score"`
	Accuracy       float64 `json:"accuracy"`
}

// FlagPattern counts how often a flag appears among false positives.
type FlagPattern struct {
	Flag  string `json:"flag"`
	Count int    `json:"count"`
}

// Collector appends feedback entries to a JSON-lines file and derives
// precision/recall/F1 metrics from the accumulated history.
type Collector struct {
	path    string
	cutoff  float64
}

func NewCollector(path string, cutoff float64) *Collector {
	return &Collector{path: path, cutoff: cutoff}
}

// AddFeedback appends one entry to the feedback file.
func (c *Collector) AddFeedback(accountID string, predictedScore float64, predictedFlags []string, actualFraud bool, fraudType, notes string, now time.Time) error {
	entry := Entry{
		AccountID:      accountID,
		PredictedScore: predictedScore,
		PredictedFlags: predictedFlags,
		ActualFraud:    actualFraud,
		FraudType:      fraudType,
		Notes:          notes,
		Timestamp:      now.UTC().Format(time.RFC3339),
	}
	return appendJSONLine(c.path, entry)
}

func (c *Collector) load() ([]Entry, error) {
	return readJSONLines[Entry](c.path)
}

// GetMetrics computes precision/recall/F1/accuracy over all recorded
// feedback, treating predicted_score >= cutoff as a positive prediction.
func (c *Collector) GetMetrics() (Metrics, error) {
	entries, err := c.load()
	if err != nil {
		return Metrics{}, err
	}
	if len(entries) == 0 {
		return Metrics{}, nil
	}

	var tp, fp, tn, fn int
	for _, e := range entries {
		positive := e.PredictedScore >= c.cutoff
		switch {
		case e.ActualFraud && positive:
			tp++
		case !e.ActualFraud && positive:
			fp++
		case !e.ActualFraud && !positive:
			tn++
		case e.ActualFraud && !positive:
			fn++
		}
	}

	var precision, recall, f1 float64
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	return Metrics{
		TotalReviews:   len(entries),
		TruePositives:  tp,
		FalsePositives: fp,
		TrueNegatives:  tn,
		FalseNegatives: fn,
		Precision:      precision,
		Recall:         recall,
		F1Score:        f1,
		Accuracy:       float64(tp+tn) / float64(len(entries)),
	}, nil
}

// GetFalsePositivePatterns counts flag frequency among false positives,
// sorted by count descending.
func (c *Collector) GetFalsePositivePatterns() ([]FlagPattern, error) {
	entries, err := c.load()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, e := range entries {
		if e.ActualFraud || e.PredictedScore < c.cutoff {
			continue
		}
		for _, f := range e.PredictedFlags {
			counts[f]++
		}
	}

	patterns := make([]FlagPattern, 0, len(counts))
	for flag, count := range counts {
		patterns = append(patterns, FlagPattern{Flag: flag, Count: count})
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Count > patterns[j].Count
	})
	return patterns, nil
}

// GetFalseNegativePatterns returns every entry that was actual fraud but
// scored below cutoff — accounts the pipeline missed.
func (c *Collector) GetFalseNegativePatterns() ([]Entry, error) {
	entries, err := c.load()
	if err != nil {
		return nil, err
	}
	var missed []Entry
	for _, e := range entries {
		if e.ActualFraud && e.PredictedScore < c.cutoff {
			missed = append(missed, e)
		}
	}
	return missed, nil
}

func appendJSONLine(path string, v any) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open feedback file: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal feedback entry: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write feedback entry: %w", err)
	}
	return nil
}

func readJSONLines[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var out []T
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(line, &v); err != nil {
			return nil, fmt.Errorf("parse line in %s: %w", path, err)
		}
		out = append(out, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return out, nil
}
