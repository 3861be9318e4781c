// Package rules loads and validates the versioned risk rule set that
// governs how raw interaction attributes map to a numeric score and a
// qualitative category. The rule set is data, not code: it is parsed
// from a YAML document at startup, validated once, and treated as
// immutable for the lifetime of a snapshot.
package rules

import (
	"fmt"
	"os"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/supptracker-server/internal/domain"
)

// Defaults applied when the document omits optional knobs.
const (
	DefaultDoseCap      = 2.0
	DefaultDoseExponent = 1.0
)

// Threshold maps a minimum score to a category label and a default
// action. Thresholds are ordered ascending by Min; the engine picks the
// last threshold a score meets or exceeds.
type Threshold struct {
	Min      float64 `yaml:"min" json:"min"`
	Category string  `yaml:"category" json:"category"`
	Action   string  `yaml:"action" json:"action"`
}

// ContextWeights holds the multiplicative weights applied when the
// corresponding user flag is set and the compound-level tier (or
// mechanism tag, for QT) matches. A weight of 1.0 is a no-op.
type ContextWeights struct {
	Pregnancy float64 `json:"pregnancy"`
	Renal     float64 `json:"renal"`
	Hepatic   float64 `json:"hepatic"`
	QT        float64 `json:"qt"`
}

// RiskRuleSet is the validated in-memory form of the rule document.
// Build it through Parse or Load; the raw document shape lives in
// ruleDoc.
type RiskRuleSet struct {
	Version        string                      `json:"version"`
	SeverityBase   map[domain.Severity]float64 `json:"severity_base"`
	EvidenceWeight map[domain.Evidence]float64 `json:"evidence_weight"`
	MechanismDelta map[string]float64          `json:"mechanism_delta"`
	Thresholds     []Threshold                 `json:"thresholds"`
	Context        ContextWeights              `json:"context_weights"`
	QTTags         []string                    `json:"qt_tags"`
	DoseCap        float64                     `json:"dose_cap"`
	DoseExponent   float64                     `json:"dose_exponent"`
}

// Load reads, parses and validates a rule set document. Any validation
// failure is fatal configuration: the caller must refuse to start
// scoring until it is resolved.
func Load(path string) (*RiskRuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading rule set %s: %v", domain.ErrInvalidConfiguration, path, err)
	}
	return Parse(data)
}

// Parse parses and validates a rule set document from raw YAML.
func Parse(data []byte) (*RiskRuleSet, error) {
	doc := &ruleDoc{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: parsing rule set: %v", domain.ErrInvalidConfiguration, err)
	}
	rs := doc.toRuleSet()
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

// ruleDoc is the raw document shape. Optional knobs are pointers so an
// omitted key is distinguishable from an explicit zero: omitted keys
// get neutral defaults, explicit invalid values reach Validate and
// fail there.
type ruleDoc struct {
	Version        string                      `yaml:"version"`
	SeverityBase   map[domain.Severity]float64 `yaml:"severity_base"`
	EvidenceWeight map[domain.Evidence]float64 `yaml:"evidence_weight"`
	MechanismDelta map[string]float64          `yaml:"mechanism_delta"`
	Thresholds     []Threshold                 `yaml:"thresholds"`
	Context        contextDoc                  `yaml:"context_weights"`
	QTTags         []string                    `yaml:"qt_tags"`
	DoseCap        *float64                    `yaml:"dose_cap"`
	DoseExponent   *float64                    `yaml:"dose_exponent"`
}

type contextDoc struct {
	Pregnancy *float64 `yaml:"pregnancy"`
	Renal     *float64 `yaml:"renal"`
	Hepatic   *float64 `yaml:"hepatic"`
	QT        *float64 `yaml:"qt"`
}

func (d *ruleDoc) toRuleSet() *RiskRuleSet {
	rs := &RiskRuleSet{
		Version:        d.Version,
		SeverityBase:   d.SeverityBase,
		EvidenceWeight: d.EvidenceWeight,
		MechanismDelta: d.MechanismDelta,
		Thresholds:     d.Thresholds,
		QTTags:         d.QTTags,
		Context: ContextWeights{
			Pregnancy: orDefault(d.Context.Pregnancy, 1.0),
			Renal:     orDefault(d.Context.Renal, 1.0),
			Hepatic:   orDefault(d.Context.Hepatic, 1.0),
			QT:        orDefault(d.Context.QT, 1.0),
		},
		DoseCap:      orDefault(d.DoseCap, DefaultDoseCap),
		DoseExponent: orDefault(d.DoseExponent, DefaultDoseExponent),
	}
	if rs.MechanismDelta == nil {
		rs.MechanismDelta = map[string]float64{}
	}
	return rs
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Validate checks the tables the scoring engine depends on. Scoring
// must never fail on valid input once this has passed.
func (rs *RiskRuleSet) Validate() error {
	for _, sev := range []domain.Severity{domain.SeverityNone, domain.SeverityMild, domain.SeverityModerate, domain.SeveritySevere} {
		if _, ok := rs.SeverityBase[sev]; !ok {
			return fmt.Errorf("%w: severity_base missing key %q", domain.ErrInvalidConfiguration, sev)
		}
	}
	for _, evd := range []domain.Evidence{domain.EvidenceA, domain.EvidenceB, domain.EvidenceC, domain.EvidenceD} {
		w, ok := rs.EvidenceWeight[evd]
		if !ok {
			return fmt.Errorf("%w: evidence_weight missing key %q", domain.ErrInvalidConfiguration, evd)
		}
		if w <= 0 {
			return fmt.Errorf("%w: evidence_weight[%s] must be positive, got %v", domain.ErrInvalidConfiguration, evd, w)
		}
	}
	if len(rs.Thresholds) == 0 {
		return fmt.Errorf("%w: thresholds must not be empty", domain.ErrInvalidConfiguration)
	}
	if !sort.SliceIsSorted(rs.Thresholds, func(i, j int) bool {
		return rs.Thresholds[i].Min < rs.Thresholds[j].Min
	}) {
		return fmt.Errorf("%w: thresholds must be ascending by min", domain.ErrInvalidConfiguration)
	}
	for i, th := range rs.Thresholds {
		if th.Category == "" {
			return fmt.Errorf("%w: threshold %d has no category label", domain.ErrInvalidConfiguration, i)
		}
	}
	for _, w := range []float64{rs.Context.Pregnancy, rs.Context.Renal, rs.Context.Hepatic, rs.Context.QT} {
		if w <= 0 {
			return fmt.Errorf("%w: context weights must be positive", domain.ErrInvalidConfiguration)
		}
	}
	if rs.DoseCap < 1 {
		return fmt.Errorf("%w: dose_cap must be at least 1, got %v", domain.ErrInvalidConfiguration, rs.DoseCap)
	}
	if rs.DoseExponent <= 0 {
		return fmt.Errorf("%w: dose_exponent must be positive, got %v", domain.ErrInvalidConfiguration, rs.DoseExponent)
	}
	return nil
}

// Categorize maps a score to the last threshold it meets or exceeds.
// Scores below every threshold fall into the lowest category.
func (rs *RiskRuleSet) Categorize(score float64) (category, action string) {
	chosen := rs.Thresholds[0]
	for _, th := range rs.Thresholds {
		if score >= th.Min {
			chosen = th
		}
	}
	return chosen.Category, chosen.Action
}

// IsQTTag reports whether the tag marks a QT-prolonging mechanism.
func (rs *RiskRuleSet) IsQTTag(tag string) bool {
	for _, t := range rs.QTTags {
		if t == tag {
			return true
		}
	}
	return false
}
