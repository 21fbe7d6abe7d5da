package config

import "testing"

func TestDefault_MatchesDocumentedDefaults(t *testing.T) {
	c := Default()
	if c.SmurfingThreshold != 10000.0 {
		t.Errorf("SmurfingThreshold: got %v, want 10000", c.SmurfingThreshold)
	}
	if c.MinFanDegree != 5 {
		t.Errorf("MinFanDegree: got %v, want 5", c.MinFanDegree)
	}
	if c.MinSuspicionScore != 40.0 {
		t.Errorf("MinSuspicionScore: got %v, want 40", c.MinSuspicionScore)
	}
	if c.BelowThresholdStructRatio != 0.7 {
		t.Errorf("BelowThresholdStructRatio: got %v, want 0.7 (distinct from the 0.8 smurfing window ratio)", c.BelowThresholdStructRatio)
	}
}

func TestConservativePreset_TightensFanDegreeAndScoreCutoff(t *testing.T) {
	// Scenario F: conservative preset must raise MIN_FAN_DEGREE above 6 so a
	// 6-edge fan-out is no longer flagged.
	c := Conservative()
	if c.MinFanDegree != 7 {
		t.Fatalf("expected conservative MinFanDegree 7, got %d", c.MinFanDegree)
	}
	if c.MinSuspicionScore != 55.0 {
		t.Fatalf("expected conservative MinSuspicionScore 55, got %v", c.MinSuspicionScore)
	}
}

func TestAggressivePreset_LowersThresholds(t *testing.T) {
	c := Aggressive()
	if c.SmurfingThreshold != 9000.0 {
		t.Errorf("SmurfingThreshold: got %v, want 9000", c.SmurfingThreshold)
	}
	if c.TimeWindowHours != 96.0 {
		t.Errorf("TimeWindowHours: got %v, want 96", c.TimeWindowHours)
	}
	if c.MinFanDegree != 3 {
		t.Errorf("MinFanDegree: got %v, want 3", c.MinFanDegree)
	}
	if c.MinSuspicionScore != 35.0 {
		t.Errorf("MinSuspicionScore: got %v, want 35", c.MinSuspicionScore)
	}
	if c.TxPerDayThreshold != 5.0 {
		t.Errorf("TxPerDayThreshold: got %v, want 5", c.TxPerDayThreshold)
	}
}

func TestIsWhitelisted_MatchesKnownMerchantSubstring(t *testing.T) {
	c := Default()
	if !c.IsWhitelisted("AMAZON_STORE") {
		t.Fatal("expected AMAZON_STORE to match known-merchant substring AMAZON")
	}
	if c.IsWhitelisted("ACME_CORP") {
		t.Fatal("did not expect ACME_CORP to be whitelisted")
	}
}

func TestPreset_UnknownNameReturnsFalse(t *testing.T) {
	if _, ok := Preset("nonexistent"); ok {
		t.Fatal("expected unknown preset name to return false")
	}
}
