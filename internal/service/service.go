package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/supptracker-server/internal/domain"
	"github.com/supptracker-server/internal/store"
)

// DefaultScoreCacheSize bounds the per-process score cache when the
// configuration does not say otherwise.
const DefaultScoreCacheSize = 4096

// RiskService is the core facade over the loaded snapshot: compound
// resolution and search, pair assessment, stack evaluation, health and
// reload. All reads go through the snapshot current at call time.
type RiskService struct {
	store        *store.Store
	logger       *logrus.Logger
	scoreCache   *lru.Cache[string, *domain.ScoringResult]
	maxStackSize int
}

var _ domain.StackEvaluator = (*RiskService)(nil)

// PairAssessment is a scored interaction between two resolved
// compounds. SourceDetails carries the full citation records for the
// record's source ids, so clients never need a second lookup.
type PairAssessment struct {
	A             *domain.Compound          `json:"a"`
	B             *domain.Compound          `json:"b"`
	Record        *domain.InteractionRecord `json:"record"`
	Result        domain.ScoringResult      `json:"result"`
	SourceDetails []*domain.Source          `json:"source_details,omitempty"`
}

// NewRiskService creates the service. scoreCacheSize and maxStackSize
// fall back to sane defaults when non-positive.
func NewRiskService(st *store.Store, logger *logrus.Logger, scoreCacheSize, maxStackSize int) (*RiskService, error) {
	if scoreCacheSize <= 0 {
		scoreCacheSize = DefaultScoreCacheSize
	}
	cache, err := lru.New[string, *domain.ScoringResult](scoreCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating score cache: %w", err)
	}
	if maxStackSize <= 0 {
		maxStackSize = 20
	}
	return &RiskService{
		store:        st,
		logger:       logger,
		scoreCache:   cache,
		maxStackSize: maxStackSize,
	}, nil
}

// Resolve maps a free-form reference to a compound.
func (s *RiskService) Resolve(ref string) (*domain.Compound, error) {
	return s.store.Snapshot().Compounds.Resolve(ref)
}

// Search returns ranked typeahead matches for a query.
func (s *RiskService) Search(query string, limit int) []domain.CompoundMatch {
	return s.store.Snapshot().Compounds.Search(query, limit)
}

// Compound returns a compound by exact id together with every
// interaction record it is involved in, most severe first.
func (s *RiskService) Compound(id string) (*domain.Compound, []*domain.InteractionRecord, error) {
	snap := s.store.Snapshot()
	comp, ok := snap.Compounds.Get(id)
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	return comp, snap.Interactions.AllForCompound(id), nil
}

// CheckPair resolves both references, looks up the interaction record
// for the unordered pair and scores it under the given context. Both a
// missing compound and a missing record surface domain.ErrNotFound.
func (s *RiskService) CheckPair(refA, refB string, ctx *domain.UserContext) (*PairAssessment, error) {
	snap := s.store.Snapshot()
	compA, err := snap.Compounds.Resolve(refA)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", refA, err)
	}
	compB, err := snap.Compounds.Resolve(refB)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", refB, err)
	}
	rec, err := snap.Interactions.Lookup(compA.ID, compB.ID)
	if err != nil {
		return nil, err
	}
	result := s.scorePair(snap, rec, compA, compB, ctx)
	return &PairAssessment{
		A:             compA,
		B:             compB,
		Record:        rec,
		Result:        result,
		SourceDetails: expandSources(snap.Sources, rec.Sources),
	}, nil
}

// EvaluateStack resolves a stack of references and scores every
// unordered pair, self-pairs included. Unresolvable references are
// reported, not fatal; the evaluation proceeds on what resolved.
func (s *RiskService) EvaluateStack(refs []string, ctx *domain.UserContext) (*domain.StackResult, error) {
	if len(refs) > s.maxStackSize {
		return nil, &domain.TooManyCompoundsError{Count: len(refs), Max: s.maxStackSize}
	}
	snap := s.store.Snapshot()
	items, compounds, unresolved := resolveStackRefs(snap.Compounds, refs)

	n := len(items)
	matrix := make([][]*float64, n)
	for i := range matrix {
		matrix[i] = make([]*float64, n)
	}

	var entries []domain.StackEntry
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			compA, compB := compounds[items[i]], compounds[items[j]]
			rec, err := snap.Interactions.Lookup(compA.ID, compB.ID)
			if err != nil {
				continue
			}
			result := s.scorePair(snap, rec, compA, compB, ctx)
			score := result.Score
			matrix[i][j] = &score
			matrix[j][i] = &score
			entries = append(entries, domain.StackEntry{
				A:             compA.ID,
				B:             compB.ID,
				Severity:      rec.Severity,
				Evidence:      rec.Evidence,
				Effect:        rec.Effect,
				Action:        result.Action,
				Category:      result.Category,
				Score:         result.Score,
				Factors:       result.Factors,
				Sources:       result.Sources,
				SourceDetails: expandSources(snap.Sources, rec.Sources),
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Severity.Rank() != entries[j].Severity.Rank() {
			return entries[i].Severity.Rank() > entries[j].Severity.Rank()
		}
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if entries[i].A != entries[j].A {
			return entries[i].A < entries[j].A
		}
		return entries[i].B < entries[j].B
	})

	return &domain.StackResult{
		Items:      items,
		Unresolved: unresolved,
		Entries:    entries,
		Matrix:     matrix,
	}, nil
}

// Health reports the state of the current snapshot.
func (s *RiskService) Health() domain.HealthReport {
	return s.store.Health()
}

// Ready reports whether a snapshot has been loaded.
func (s *RiskService) Ready() bool {
	return s.store.Snapshot() != nil
}

// Reload rebuilds the snapshot from disk and purges the score cache.
// On failure the previous snapshot stays in service.
func (s *RiskService) Reload() error {
	if err := s.store.Load(); err != nil {
		return err
	}
	s.scoreCache.Purge()
	return nil
}

// resolveStackRefs resolves stack references through the catalog,
// deduplicating resolved ids in first-seen order and collecting
// per-reference failures.
func resolveStackRefs(resolver domain.CompoundResolver, refs []string) ([]string, map[string]*domain.Compound, []domain.UnresolvedRef) {
	var items []string
	compounds := make(map[string]*domain.Compound)
	var unresolved []domain.UnresolvedRef
	seen := make(map[string]struct{})
	for _, ref := range refs {
		comp, err := resolver.Resolve(ref)
		if err != nil {
			unresolved = append(unresolved, unresolvedFor(ref, err))
			continue
		}
		if _, dup := seen[comp.ID]; dup {
			continue
		}
		seen[comp.ID] = struct{}{}
		items = append(items, comp.ID)
		compounds[comp.ID] = comp
	}
	return items, compounds, unresolved
}

// expandSources resolves source ids into their citation records. Ids
// absent from the table are skipped; the raw id list still carries
// them.
func expandSources(sources map[string]*domain.Source, ids []string) []*domain.Source {
	var out []*domain.Source
	for _, id := range ids {
		if src, ok := sources[id]; ok {
			out = append(out, src)
		}
	}
	return out
}

// scorePair scores one record, consulting the cache first. The key
// covers the snapshot generation, the record, the rule set version and
// the context fingerprint. Keying on the generation means an entry
// added by a request still running on an old snapshot can never be
// served after a reload, even when the rule set version is unchanged.
func (s *RiskService) scorePair(snap *store.Snapshot, rec *domain.InteractionRecord, compA, compB *domain.Compound, ctx *domain.UserContext) domain.ScoringResult {
	key := cacheKey(snap, rec, ctx)
	if cached, ok := s.scoreCache.Get(key); ok {
		return *cached
	}
	result := Score(snap.Rules, domain.ScoreInput{
		Record:    rec,
		CompoundA: compA,
		CompoundB: compB,
		Context:   ctx,
	})
	s.scoreCache.Add(key, &result)
	return result
}

func cacheKey(snap *store.Snapshot, rec *domain.InteractionRecord, ctx *domain.UserContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|", snap.LoadedAt.UnixNano())
	b.WriteString(rec.ID)
	b.WriteByte('|')
	b.WriteString(rec.A)
	b.WriteByte('+')
	b.WriteString(rec.B)
	b.WriteByte('|')
	b.WriteString(snap.Rules.Version)
	if ctx != nil {
		fmt.Fprintf(&b, "|p%tr%th%tq%t", ctx.Pregnant, ctx.RenalImpairment, ctx.HepaticImpairment, ctx.LongQT)
		ids := make([]string, 0, len(ctx.Doses))
		for id := range ctx.Doses {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			d := ctx.Doses[id]
			fmt.Fprintf(&b, "|%s=%g%s", id, d.Amount, d.Unit)
		}
	}
	return b.String()
}

// unresolvedFor translates a resolution error into an unresolved entry,
// carrying candidate names for ambiguous references.
func unresolvedFor(ref string, err error) domain.UnresolvedRef {
	var ambiguous *domain.AmbiguousError
	if errors.As(err, &ambiguous) {
		return domain.UnresolvedRef{
			Ref:        ref,
			Reason:     "ambiguous",
			Candidates: ambiguous.Candidates,
		}
	}
	return domain.UnresolvedRef{Ref: ref, Reason: "not_found"}
}
