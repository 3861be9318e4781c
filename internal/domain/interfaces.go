package domain

// CompoundResolver resolves free-form compound references and serves
// ranked typeahead searches. Read-only after load.
type CompoundResolver interface {
	Resolve(ref string) (*Compound, error)
	Search(query string, limit int) []CompoundMatch
}

// InteractionLookup serves interaction records by canonical pair.
// Lookup(a, b) equals Lookup(b, a).
type InteractionLookup interface {
	Lookup(idA, idB string) (*InteractionRecord, error)
	AllForCompound(id string) []*InteractionRecord
	All() []*InteractionRecord
}

// RiskScorer produces a deterministic risk score for one interaction.
// Pure: identical input always yields identical output, and scoring
// never fails once the rule set has validated.
type RiskScorer interface {
	Score(in ScoreInput) ScoringResult
}

// StackEvaluator resolves a list of compound references and scores all
// unordered pairs among them, collecting per-reference resolution
// failures instead of aborting.
type StackEvaluator interface {
	EvaluateStack(refs []string, ctx *UserContext) (*StackResult, error)
}
