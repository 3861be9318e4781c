package domain

import (
	"time"
)

// Dose represents a quantity of a compound, e.g. 500 mg oral.
type Dose struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// Compound represents a supplement or drug record. Compounds are
// immutable once loaded: the catalog replaces them wholesale on reload
// and never mutates them in place.
type Compound struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Synonyms      []string          `json:"synonyms,omitempty"`
	Aliases       []string          `json:"aliases,omitempty"`
	Class         string            `json:"class,omitempty"`
	Route         string            `json:"route,omitempty"`
	TypicalDose   *Dose             `json:"typical_dose,omitempty"`
	PregnancyRisk RiskTier          `json:"pregnancy_risk,omitempty"`
	RenalRisk     RiskTier          `json:"renal_risk,omitempty"`
	HepaticRisk   RiskTier          `json:"hepatic_risk,omitempty"`
	ExternalIDs   map[string]string `json:"external_ids,omitempty"`
	ReferenceURLs map[string]string `json:"reference_urls,omitempty"`
	Notes         string            `json:"notes,omitempty"`
}

// InteractionRecord represents a known interaction between an unordered
// pair of compounds. A record with A == B is a self-interaction
// (dose-stacking warning) and is handled by the same pipeline as any
// other pair.
type InteractionRecord struct {
	ID        string   `json:"id"`
	A         string   `json:"a"`
	B         string   `json:"b"`
	Mechanism []string `json:"mechanism,omitempty"`
	Severity  Severity `json:"severity"`
	Evidence  Evidence `json:"evidence"`
	Effect    string   `json:"effect,omitempty"`
	Action    string   `json:"action,omitempty"`
	Sources   []string `json:"sources,omitempty"`
}

// Involves reports whether the record covers the given compound id.
func (r *InteractionRecord) Involves(id string) bool {
	return r.A == id || r.B == id
}

// IsSelf reports whether the record is a self-interaction.
func (r *InteractionRecord) IsSelf() bool {
	return r.A == r.B
}

// HasMechanism reports whether any of the record's mechanism tags is in
// the given set.
func (r *InteractionRecord) HasMechanism(tags []string) bool {
	for _, tag := range r.Mechanism {
		for _, want := range tags {
			if tag == want {
				return true
			}
		}
	}
	return false
}

// Source represents a literature or database citation backing one or
// more interaction records.
type Source struct {
	ID       string `json:"id"`
	Citation string `json:"citation,omitempty"`
	URL      string `json:"url,omitempty"`
	PMID     string `json:"pmid,omitempty"`
	DOI      string `json:"doi,omitempty"`
	Date     string `json:"date,omitempty"`
}

// UserContext carries optional per-request scoring context. It has no
// identity or lifecycle beyond a single request and is never persisted.
type UserContext struct {
	Pregnant          bool            `json:"pregnant,omitempty"`
	RenalImpairment   bool            `json:"renal_impairment,omitempty"`
	HepaticImpairment bool            `json:"hepatic_impairment,omitempty"`
	LongQT            bool            `json:"long_qt,omitempty"`
	Doses             map[string]Dose `json:"doses,omitempty"`
}

// ScoreInput bundles everything the scoring engine needs for one pair.
// CompoundA and CompoundB are the resolved endpoints of the record;
// they supply compound-level risk tiers and recommended doses. For a
// self-interaction both point at the same compound.
type ScoreInput struct {
	Record    *InteractionRecord
	CompoundA *Compound
	CompoundB *Compound
	Context   *UserContext
}

// ScoringResult is the output of the risk scoring engine. Factors maps
// each adjustment that actually fired to its numeric contribution or
// multiplier, so the explanation is exactly the set of rules applied.
type ScoringResult struct {
	Score    float64            `json:"score"`
	Category string             `json:"category"`
	Action   string             `json:"action"`
	Factors  map[string]float64 `json:"factors"`
	Sources  []string           `json:"sources,omitempty"`
}

// UnresolvedRef describes a stack reference that could not be resolved
// to a compound. Candidates is populated for ambiguous references.
type UnresolvedRef struct {
	Ref        string   `json:"ref"`
	Reason     string   `json:"reason"`
	Candidates []string `json:"candidates,omitempty"`
}

// StackEntry is one scored pair within a stack evaluation. Sources
// lists the raw source ids; SourceDetails carries the expanded
// citation records for the ids known to the source table.
type StackEntry struct {
	A             string             `json:"a"`
	B             string             `json:"b"`
	Severity      Severity           `json:"severity"`
	Evidence      Evidence           `json:"evidence"`
	Effect        string             `json:"effect,omitempty"`
	Action        string             `json:"action"`
	Category      string             `json:"category"`
	Score         float64            `json:"score"`
	Factors       map[string]float64 `json:"factors,omitempty"`
	Sources       []string           `json:"sources,omitempty"`
	SourceDetails []*Source          `json:"source_details,omitempty"`
}

// StackResult is the outcome of evaluating a stack of compounds.
// Items holds the deduplicated resolved compound ids in first-seen
// order; Matrix is indexed by that order, nil where no record exists,
// with self-interactions on the diagonal. Pairs without a known
// interaction are omitted from Entries (silence means no known
// interaction); the matrix still distinguishes "checked, nothing
// known" from "not checked".
type StackResult struct {
	Items      []string        `json:"items"`
	Unresolved []UnresolvedRef `json:"unresolved,omitempty"`
	Entries    []StackEntry    `json:"entries"`
	Matrix     [][]*float64    `json:"matrix"`
}

// LoadIssue records a non-fatal problem encountered while loading
// catalog data, surfaced through the health endpoint.
type LoadIssue struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// HealthReport summarizes the loaded snapshot for health checks. The
// core exposes counts and load issues; HTTP formatting is the API
// layer's concern.
type HealthReport struct {
	Status           string      `json:"status"`
	CompoundCount    int         `json:"compounds"`
	InteractionCount int         `json:"interactions"`
	SourceCount      int         `json:"sources"`
	RuleSetVersion   string      `json:"rule_set_version"`
	LoadedAt         time.Time   `json:"loaded_at"`
	Issues           []LoadIssue `json:"issues,omitempty"`
}

// CompoundMatch is a ranked search hit for typeahead use.
type CompoundMatch struct {
	Compound  *Compound `json:"compound"`
	Score     int       `json:"score"`
	MatchType string    `json:"match_type"`
}
