// Package domain contains core business entities and types for supplement
// and drug interaction risk assessment.
package domain

// Severity represents the qualitative harm level of a known interaction.
// It is ordinal: None < Mild < Moderate < Severe.
type Severity string

const (
	SeverityNone     Severity = "None"
	SeverityMild     Severity = "Mild"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
)

// Evidence represents the confidence grade of the supporting research.
// A is the strongest grade, D the weakest.
type Evidence string

const (
	EvidenceA Evidence = "A"
	EvidenceB Evidence = "B"
	EvidenceC Evidence = "C"
	EvidenceD Evidence = "D"
)

// RiskTier represents a compound-level risk tier used by contextual
// scoring adjustments (pregnancy, renal and hepatic impairment).
type RiskTier string

const (
	TierLow      RiskTier = "Low"
	TierModerate RiskTier = "Moderate"
	TierHigh     RiskTier = "High"
)

// IsValid validates the severity level against the known ordinal scale.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityNone, SeverityMild, SeverityModerate, SeveritySevere:
		return true
	default:
		return false
	}
}

// Rank returns the ordinal position of the severity (None=0 .. Severe=3).
// Used for deterministic result ordering.
func (s Severity) Rank() int {
	switch s {
	case SeverityMild:
		return 1
	case SeverityModerate:
		return 2
	case SeveritySevere:
		return 3
	default:
		return 0
	}
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// IsValid validates the evidence grade.
func (e Evidence) IsValid() bool {
	switch e {
	case EvidenceA, EvidenceB, EvidenceC, EvidenceD:
		return true
	default:
		return false
	}
}

// Rank returns the ordinal position of the evidence grade (A=0 .. D=3).
func (e Evidence) Rank() int {
	switch e {
	case EvidenceB:
		return 1
	case EvidenceC:
		return 2
	case EvidenceD:
		return 3
	default:
		return 0
	}
}

// String returns the string representation of the evidence grade.
func (e Evidence) String() string {
	return string(e)
}

// IsValid validates the risk tier. The empty tier is valid and means
// "not assessed"; contextual adjustments treat it as neutral.
func (t RiskTier) IsValid() bool {
	switch t {
	case "", TierLow, TierModerate, TierHigh:
		return true
	default:
		return false
	}
}
