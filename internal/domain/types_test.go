package domain

import (
	"testing"
)

func TestSeverityConstants(t *testing.T) {
	tests := []struct {
		name     string
		value    Severity
		expected string
	}{
		{"None", SeverityNone, "None"},
		{"Mild", SeverityMild, "Mild"},
		{"Moderate", SeverityModerate, "Moderate"},
		{"Severe", SeveritySevere, "Severe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.value) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, string(tt.value))
			}
			if !tt.value.IsValid() {
				t.Errorf("Expected %s to be valid", tt.expected)
			}
		})
	}
}

func TestSeverityRankOrdering(t *testing.T) {
	ordered := []Severity{SeverityNone, SeverityMild, SeverityModerate, SeveritySevere}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Rank() <= ordered[i-1].Rank() {
			t.Errorf("Expected %s to rank above %s", ordered[i], ordered[i-1])
		}
	}
}

func TestSeverityInvalid(t *testing.T) {
	if Severity("Critical").IsValid() {
		t.Error("Expected unknown severity to be invalid")
	}
	if Severity("").IsValid() {
		t.Error("Expected empty severity to be invalid")
	}
}

func TestEvidenceConstants(t *testing.T) {
	tests := []struct {
		name     string
		value    Evidence
		expected string
	}{
		{"A", EvidenceA, "A"},
		{"B", EvidenceB, "B"},
		{"C", EvidenceC, "C"},
		{"D", EvidenceD, "D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.value) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, string(tt.value))
			}
			if !tt.value.IsValid() {
				t.Errorf("Expected grade %s to be valid", tt.expected)
			}
		})
	}

	if Evidence("E").IsValid() {
		t.Error("Expected unknown evidence grade to be invalid")
	}
}

func TestRiskTierValidity(t *testing.T) {
	for _, tier := range []RiskTier{"", TierLow, TierModerate, TierHigh} {
		if !tier.IsValid() {
			t.Errorf("Expected tier %q to be valid", tier)
		}
	}
	if RiskTier("Extreme").IsValid() {
		t.Error("Expected unknown tier to be invalid")
	}
}

func TestInteractionRecordInvolves(t *testing.T) {
	rec := &InteractionRecord{A: "caffeine", B: "rhodiola"}
	if !rec.Involves("caffeine") || !rec.Involves("rhodiola") {
		t.Error("Expected record to involve both endpoints")
	}
	if rec.Involves("creatine") {
		t.Error("Expected record not to involve unrelated compound")
	}
	if rec.IsSelf() {
		t.Error("Expected distinct endpoints not to be a self-interaction")
	}

	self := &InteractionRecord{A: "caffeine", B: "caffeine"}
	if !self.IsSelf() {
		t.Error("Expected matching endpoints to be a self-interaction")
	}
}
