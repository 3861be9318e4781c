// Package service implements the risk scoring engine and the stack
// evaluator on top of the loaded data snapshot.
package service

import (
	"math"
	"strings"

	"github.com/supptracker-server/internal/domain"
	"github.com/supptracker-server/internal/rules"
)

// Factor keys reported in scoring results. Mechanism and dose factors
// carry a suffix naming the tag or compound they applied to.
const (
	FactorSeverityBase   = "severity_base"
	FactorEvidenceWeight = "evidence_weight"
	FactorPregnancy      = "pregnancy_weight"
	FactorRenal          = "renal_weight"
	FactorHepatic        = "hepatic_weight"
	FactorQT             = "qt_weight"
	FactorMechanism      = "mechanism:"
	FactorDose           = "dose_factor:"
	FactorDoseSkipped    = "dose_skipped:"
)

// Score computes the risk score for one interaction pair. It is pure:
// the same rule set and input always produce the same result, and no
// I/O or clock is involved. The pipeline is
//
//	base = severity_base[severity] * evidence_weight[evidence]
//	+ sum of mechanism deltas for known tags
//	* contextual weights whose conditions hold
//	* per-compound dose factors
//
// then clamped to zero and rounded to three decimals. Factors records
// exactly the adjustments that fired, so the result explains itself.
func Score(rs *rules.RiskRuleSet, in domain.ScoreInput) domain.ScoringResult {
	rec := in.Record
	factors := make(map[string]float64)

	base := rs.SeverityBase[rec.Severity]
	weight := rs.EvidenceWeight[rec.Evidence]
	factors[FactorSeverityBase] = base
	factors[FactorEvidenceWeight] = weight
	score := base * weight

	// Additive mechanism deltas. Tags absent from the table contribute
	// nothing and are not reported.
	for _, tag := range rec.Mechanism {
		if delta, ok := rs.MechanismDelta[tag]; ok {
			factors[FactorMechanism+tag] = delta
			score += delta
		}
	}

	if in.Context != nil {
		score = applyContext(rs, in, score, factors)
		score = applyDoses(rs, in, score, factors)
	}

	if score < 0 {
		score = 0
	}
	score = round3(score)

	category, defaultAction := rs.Categorize(score)
	action := rec.Action
	if action == "" {
		action = defaultAction
	}

	return domain.ScoringResult{
		Score:    score,
		Category: category,
		Action:   action,
		Factors:  factors,
		Sources:  rec.Sources,
	}
}

// applyContext multiplies in the contextual weights whose conditions
// hold. Pregnancy, renal and hepatic weights require the user flag and
// a High compound-level tier on either endpoint; the QT weight requires
// the flag and a QT-prolonging mechanism tag on the record.
func applyContext(rs *rules.RiskRuleSet, in domain.ScoreInput, score float64, factors map[string]float64) float64 {
	ctx := in.Context
	if ctx.Pregnant && eitherTierHigh(in, func(c *domain.Compound) domain.RiskTier { return c.PregnancyRisk }) {
		factors[FactorPregnancy] = rs.Context.Pregnancy
		score *= rs.Context.Pregnancy
	}
	if ctx.RenalImpairment && eitherTierHigh(in, func(c *domain.Compound) domain.RiskTier { return c.RenalRisk }) {
		factors[FactorRenal] = rs.Context.Renal
		score *= rs.Context.Renal
	}
	if ctx.HepaticImpairment && eitherTierHigh(in, func(c *domain.Compound) domain.RiskTier { return c.HepaticRisk }) {
		factors[FactorHepatic] = rs.Context.Hepatic
		score *= rs.Context.Hepatic
	}
	if ctx.LongQT && hasQTTag(rs, in.Record) {
		factors[FactorQT] = rs.Context.QT
		score *= rs.Context.QT
	}
	return score
}

func eitherTierHigh(in domain.ScoreInput, tier func(*domain.Compound) domain.RiskTier) bool {
	if in.CompoundA != nil && tier(in.CompoundA) == domain.TierHigh {
		return true
	}
	if in.CompoundB != nil && tier(in.CompoundB) == domain.TierHigh {
		return true
	}
	return false
}

func hasQTTag(rs *rules.RiskRuleSet, rec *domain.InteractionRecord) bool {
	for _, tag := range rec.Mechanism {
		if rs.IsQTTag(tag) {
			return true
		}
	}
	return false
}

// applyDoses multiplies in a dose factor per endpoint the user supplied
// a dose for. The ratio of user dose to typical dose is capped, then
// raised to the configured exponent. A dose that cannot be compared
// (no typical dose on record, or unit mismatch) is skipped and reported
// rather than guessed at. A self-interaction applies its dose once.
func applyDoses(rs *rules.RiskRuleSet, in domain.ScoreInput, score float64, factors map[string]float64) float64 {
	endpoints := []*domain.Compound{in.CompoundA}
	if in.CompoundB != nil && (in.CompoundA == nil || in.CompoundB.ID != in.CompoundA.ID) {
		endpoints = append(endpoints, in.CompoundB)
	}
	for _, comp := range endpoints {
		if comp == nil {
			continue
		}
		userDose, ok := in.Context.Doses[comp.ID]
		if !ok {
			continue
		}
		typical := comp.TypicalDose
		if typical == nil || typical.Amount <= 0 || userDose.Amount <= 0 || !sameUnit(userDose.Unit, typical.Unit) {
			factors[FactorDoseSkipped+comp.ID] = 1
			continue
		}
		ratio := userDose.Amount / typical.Amount
		if ratio > rs.DoseCap {
			ratio = rs.DoseCap
		}
		factor := math.Pow(ratio, rs.DoseExponent)
		factors[FactorDose+comp.ID] = factor
		score *= factor
	}
	return score
}

// Engine binds a rule set to the scoring pipeline so callers can hold
// a domain.RiskScorer without seeing the rules package.
type Engine struct {
	Rules *rules.RiskRuleSet
}

var _ domain.RiskScorer = Engine{}

// Score implements domain.RiskScorer.
func (e Engine) Score(in domain.ScoreInput) domain.ScoringResult {
	return Score(e.Rules, in)
}

func sameUnit(a, b string) bool {
	return normalizeUnit(a) == normalizeUnit(b)
}

func normalizeUnit(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	switch u {
	case "mcg", "ug", "µg":
		return "mcg"
	default:
		return u
	}
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
