// Package config builds the immutable Configuration record read by every
// pipeline stage. It is constructed once per request (or once at startup for
// the default configuration) from environment variables with typed
// defaults, the same getEnvOrDefault idiom the engine's cmd/engine/main.go
// uses for its own startup configuration.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Configuration is the read-only record passed to every stage. It is never
// mutated after construction.
type Configuration struct {
	SmurfingThreshold      float64
	TimeWindowHours        float64
	MinFanDegree           int
	BelowThresholdRatio    float64
	PassThroughRatioMin    float64
	PassThroughRatioMax    float64
	MinChainLength         int
	VelocityThresholdHours float64

	MinCycleLength        int
	MaxCycleLength        int
	CycleVarianceThresh   float64
	MaxCyclesPerSCC       int
	MaxSCCsConsidered     int
	MaxCycleStartsPerSCC  int
	CycleDeadlineSeconds  int

	ScoreCycleMember            float64
	ScoreFanInSmurfing           float64
	ScoreFanOutSmurfing          float64
	ScoreShellAccount            float64
	ScoreHighVelocity            float64
	ScoreBelowThresholdStruct    float64
	ScoreMultiplePatterns        float64
	ScoreHighRiskPattern         float64
	BelowThresholdStructRatio    float64 // the Scorer's own 0.7 cutoff, distinct from BelowThresholdRatio (0.8)
	MultiplePatternsMinFlagCount int

	MinSuspicionScore float64

	MerchantMinTx           int
	MerchantMinInDegree     int
	MerchantDiversityRatio  float64
	PayrollMinTx            int
	PayrollRegularity       float64
	ExchangeMinDegree       int
	ExchangeFlowRatioMin    float64
	ExchangeFlowRatioMax    float64
	TxPerDayThreshold       float64

	KnownMerchants        []string
	KnownPayrollProviders []string
	WhitelistedAccounts   map[string]struct{}
	HighRiskPatterns      []string
}

// Default returns the base configuration, reading overrides from
// environment variables where present and falling back to the documented
// defaults otherwise.
func Default() Configuration {
	return Configuration{
		SmurfingThreshold:      getEnvFloat("SMURFING_THRESHOLD", 10000.0),
		TimeWindowHours:        getEnvFloat("TIME_WINDOW_HOURS", 72.0),
		MinFanDegree:           getEnvInt("MIN_FAN_DEGREE", 5),
		BelowThresholdRatio:    getEnvFloat("BELOW_THRESHOLD_RATIO", 0.8),
		PassThroughRatioMin:    getEnvFloat("PASS_THROUGH_RATIO_MIN", 0.8),
		PassThroughRatioMax:    getEnvFloat("PASS_THROUGH_RATIO_MAX", 1.2),
		MinChainLength:         getEnvInt("MIN_CHAIN_LENGTH", 3),
		VelocityThresholdHours: getEnvFloat("VELOCITY_THRESHOLD_HOURS", 24.0),

		MinCycleLength:       getEnvInt("MIN_CYCLE_LENGTH", 3),
		MaxCycleLength:       getEnvInt("MAX_CYCLE_LENGTH", 5),
		CycleVarianceThresh:  getEnvFloat("CYCLE_VARIANCE_THRESHOLD", 0.1),
		MaxCyclesPerSCC:      getEnvInt("MAX_CYCLES_PER_SCC", 100),
		MaxSCCsConsidered:    getEnvInt("MAX_SCCS_CONSIDERED", 20),
		MaxCycleStartsPerSCC: getEnvInt("MAX_CYCLE_STARTS_PER_SCC", 50),
		CycleDeadlineSeconds: getEnvInt("CYCLE_DEADLINE_SECONDS", 30),

		ScoreCycleMember:             getEnvFloat("SCORE_CYCLE_MEMBER", 50.0),
		ScoreFanInSmurfing:           getEnvFloat("SCORE_FAN_IN_SMURFING", 30.0),
		ScoreFanOutSmurfing:          getEnvFloat("SCORE_FAN_OUT_SMURFING", 30.0),
		ScoreShellAccount:            getEnvFloat("SCORE_SHELL_ACCOUNT", 20.0),
		ScoreHighVelocity:            getEnvFloat("SCORE_HIGH_VELOCITY", 10.0),
		ScoreBelowThresholdStruct:    getEnvFloat("SCORE_BELOW_THRESHOLD_STRUCTURING", 20.0),
		ScoreMultiplePatterns:        getEnvFloat("SCORE_MULTIPLE_PATTERNS", 10.0),
		ScoreHighRiskPattern:         getEnvFloat("SCORE_HIGH_RISK_PATTERN", 15.0),
		BelowThresholdStructRatio:    getEnvFloat("SCORE_BELOW_THRESHOLD_RATIO", 0.7),
		MultiplePatternsMinFlagCount: getEnvInt("MULTIPLE_PATTERNS_MIN_FLAG_COUNT", 3),

		MinSuspicionScore: getEnvFloat("MIN_SUSPICION_SCORE", 40.0),

		MerchantMinTx:          getEnvInt("MERCHANT_MIN_TX", 50),
		MerchantMinInDegree:    getEnvInt("MERCHANT_MIN_IN_DEGREE", 20),
		MerchantDiversityRatio: getEnvFloat("MERCHANT_DIVERSITY_RATIO", 0.7),
		PayrollMinTx:           getEnvInt("PAYROLL_MIN_TX", 10),
		PayrollRegularity:      getEnvFloat("PAYROLL_REGULARITY", 0.6),
		ExchangeMinDegree:      getEnvInt("EXCHANGE_MIN_DEGREE", 15),
		ExchangeFlowRatioMin:   getEnvFloat("EXCHANGE_FLOW_RATIO_MIN", 0.7),
		ExchangeFlowRatioMax:   getEnvFloat("EXCHANGE_FLOW_RATIO_MAX", 1.3),
		TxPerDayThreshold:      getEnvFloat("TX_PER_DAY_THRESHOLD", 10.0),

		KnownMerchants:        getEnvList("KNOWN_MERCHANTS", []string{"AMAZON", "WALMART", "TARGET", "COSTCO", "SHOPIFY", "ETSY", "EBAY"}),
		KnownPayrollProviders: getEnvList("KNOWN_PAYROLL_PROVIDERS", []string{"ADP", "GUSTO", "PAYCHEX", "PAYROLL", "PAYCOM", "WORKDAY"}),
		WhitelistedAccounts:   toSet(getEnvList("WHITELISTED_ACCOUNTS", nil)),
		HighRiskPatterns:      getEnvList("HIGH_RISK_PATTERNS", []string{"SHELL", "OFFSHORE", "ANON", "TEMP", "TEST"}),
	}
}

// IsWhitelisted reports whether the (already upper-cased) account ID is in
// the whitelist set, or contains a known-merchant or known-payroll
// substring — mirroring config.py's is_whitelisted.
func (c Configuration) IsWhitelisted(accountID string) bool {
	upper := strings.ToUpper(accountID)
	if _, ok := c.WhitelistedAccounts[upper]; ok {
		return true
	}
	for _, m := range c.KnownMerchants {
		if strings.Contains(upper, strings.ToUpper(m)) {
			return true
		}
	}
	for _, p := range c.KnownPayrollProviders {
		if strings.Contains(upper, strings.ToUpper(p)) {
			return true
		}
	}
	return false
}

// IsHighRiskPattern reports whether the account ID matches one of the
// configured high-risk substrings, case-insensitively.
func (c Configuration) IsHighRiskPattern(accountID string) bool {
	upper := strings.ToUpper(accountID)
	for _, p := range c.HighRiskPatterns {
		if strings.Contains(upper, strings.ToUpper(p)) {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToUpper(v)] = struct{}{}
	}
	return set
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
