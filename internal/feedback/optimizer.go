package feedback

import "fmt"

// ThresholdSuggestion is one proposed parameter change with the reasoning
// behind it — always traceable back to an observed metric, never applied
// automatically.
type ThresholdSuggestion struct {
	Parameter string  `json:"parameter"`
	Current   float64 `json:"current"`
	Suggested float64 `json:"suggested"`
	Reason    string  `json:"reason"`
}

// OptimizationReport pairs the metrics a suggestion was derived from with
// the suggestions themselves, so a caller can audit the "why" alongside
// the "what".
type OptimizationReport struct {
	CurrentMetrics Metrics               `json:"current_metrics"`
	Suggestions    []ThresholdSuggestion `json:"suggestions"`
}

// ConfigurationOptimizer turns accumulated reviewer feedback into suggested
// threshold adjustments. It never mutates a Configuration itself — an
// operator reviews and applies suggestions by hand via the preset/min_score
// query params on /detect/enhanced.
type ConfigurationOptimizer struct {
	collector     *Collector
	currentMinScore float64
	currentMinFan   int
}

func NewConfigurationOptimizer(collector *Collector, currentMinScore float64, currentMinFan int) *ConfigurationOptimizer {
	return &ConfigurationOptimizer{collector: collector, currentMinScore: currentMinScore, currentMinFan: currentMinFan}
}

// SuggestThresholdAdjustment inspects precision/recall and the dominant
// false-positive flag pattern, proposing at most one suggestion per signal.
func (o *ConfigurationOptimizer) SuggestThresholdAdjustment() (OptimizationReport, error) {
	metrics, err := o.collector.GetMetrics()
	if err != nil {
		return OptimizationReport{}, err
	}

	report := OptimizationReport{CurrentMetrics: metrics}

	if metrics.Precision < 0.7 && metrics.FalsePositives > 10 {
		report.Suggestions = append(report.Suggestions, ThresholdSuggestion{
			Parameter: "MIN_SUSPICION_SCORE",
			Current:   o.currentMinScore,
			Suggested: o.currentMinScore + 10,
			Reason:    fmt.Sprintf("precision is low (%.1f%%), increase threshold to reduce false positives", metrics.Precision*100),
		})
	}

	if metrics.Recall < 0.7 && metrics.FalseNegatives > 10 {
		report.Suggestions = append(report.Suggestions, ThresholdSuggestion{
			Parameter: "MIN_SUSPICION_SCORE",
			Current:   o.currentMinScore,
			Suggested: o.currentMinScore - 5,
			Reason:    fmt.Sprintf("recall is low (%.1f%%), decrease threshold to catch more fraud", metrics.Recall*100),
		})
	}

	patterns, err := o.collector.GetFalsePositivePatterns()
	if err != nil {
		return OptimizationReport{}, err
	}
	if len(patterns) > 0 {
		top := patterns[0]
		if top.Flag == "fan_out_smurfing" && top.Count > 5 {
			report.Suggestions = append(report.Suggestions, ThresholdSuggestion{
				Parameter: "MIN_FAN_DEGREE",
				Current:   float64(o.currentMinFan),
				Suggested: float64(o.currentMinFan + 2),
				Reason:    fmt.Sprintf("many false positives tagged fan_out_smurfing (%d cases)", top.Count),
			})
		}
	}

	return report, nil
}
