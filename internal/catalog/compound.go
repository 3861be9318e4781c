// Package catalog provides the in-memory compound and interaction
// tables. Catalogs are immutable snapshots: built once from loaded
// records, read-only afterwards, replaced wholesale on reload.
package catalog

import (
	"sort"
	"strings"

	"github.com/supptracker-server/internal/domain"
)

// fuzzyThreshold is the minimum bigram similarity (0..100) for a fuzzy
// candidate to count during resolution.
const fuzzyThreshold = 60

// Match type labels reported by Search.
const (
	MatchExact     = "exact"
	MatchPrefix    = "prefix"
	MatchSubstring = "substring"
	MatchSynonym   = "synonym"
	MatchFuzzy     = "fuzzy"
)

// CompoundCatalog is the read-only compound table with synonym and
// external-id resolution. It implements domain.CompoundResolver.
type CompoundCatalog struct {
	byID         map[string]*domain.Compound
	byName       map[string]string
	bySynonym    map[string]string
	byExternalID map[string]string
	ordered      []string
}

var _ domain.CompoundResolver = (*CompoundCatalog)(nil)

// NewCompoundCatalog builds the catalog indexes. Compounds are indexed
// in ascending id order; on name or synonym collisions the first
// (lexicographically smallest) id wins, keeping resolution independent
// of load order.
func NewCompoundCatalog(compounds []*domain.Compound) *CompoundCatalog {
	c := &CompoundCatalog{
		byID:         make(map[string]*domain.Compound, len(compounds)),
		byName:       make(map[string]string),
		bySynonym:    make(map[string]string),
		byExternalID: make(map[string]string),
	}
	for _, comp := range compounds {
		c.byID[comp.ID] = comp
	}
	c.ordered = make([]string, 0, len(c.byID))
	for id := range c.byID {
		c.ordered = append(c.ordered, id)
	}
	sort.Strings(c.ordered)

	for _, id := range c.ordered {
		comp := c.byID[id]
		name := strings.ToLower(comp.Name)
		if _, ok := c.byName[name]; !ok && name != "" {
			c.byName[name] = id
		}
		for _, syn := range comp.Synonyms {
			key := strings.ToLower(syn)
			if _, ok := c.bySynonym[key]; !ok && key != "" {
				c.bySynonym[key] = id
			}
		}
		for _, alias := range comp.Aliases {
			key := strings.ToLower(alias)
			if _, ok := c.bySynonym[key]; !ok && key != "" {
				c.bySynonym[key] = id
			}
		}
		for _, val := range comp.ExternalIDs {
			key := strings.ToLower(val)
			if _, ok := c.byExternalID[key]; !ok && key != "" {
				c.byExternalID[key] = id
			}
		}
	}
	return c
}

// Count returns the number of loaded compounds.
func (c *CompoundCatalog) Count() int {
	return len(c.byID)
}

// Get returns a compound by exact id.
func (c *CompoundCatalog) Get(id string) (*domain.Compound, bool) {
	comp, ok := c.byID[id]
	return comp, ok
}

// All returns every compound in ascending id order.
func (c *CompoundCatalog) All() []*domain.Compound {
	out := make([]*domain.Compound, 0, len(c.ordered))
	for _, id := range c.ordered {
		out = append(out, c.byID[id])
	}
	return out
}

// Resolve maps a compound id, name, synonym, alias or external id to
// its compound record. Matching order: exact id, case-insensitive name,
// case-insensitive synonym/alias, external-id value, then fuzzy best
// match. Returns domain.ErrNotFound when nothing matches and an
// AmbiguousError when multiple candidates tie at the top fuzzy score.
func (c *CompoundCatalog) Resolve(ref string) (*domain.Compound, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.ErrNotFound
	}
	if comp, ok := c.byID[ref]; ok {
		return comp, nil
	}
	key := strings.ToLower(ref)
	if id, ok := c.byName[key]; ok {
		return c.byID[id], nil
	}
	if id, ok := c.bySynonym[key]; ok {
		return c.byID[id], nil
	}
	if id, ok := c.byExternalID[key]; ok {
		return c.byID[id], nil
	}
	return c.resolveFuzzy(ref)
}

// resolveFuzzy picks the single best-scoring fuzzy candidate, or
// reports ambiguity when distinct compounds tie at the top score.
func (c *CompoundCatalog) resolveFuzzy(ref string) (*domain.Compound, error) {
	query := normalizeQuery(ref)
	best := 0
	var candidates []string
	for _, id := range c.ordered {
		score := c.fuzzyScore(query, c.byID[id])
		if score < fuzzyThreshold {
			continue
		}
		switch {
		case score > best:
			best = score
			candidates = candidates[:0]
			candidates = append(candidates, id)
		case score == best:
			candidates = append(candidates, id)
		}
	}
	switch len(candidates) {
	case 0:
		return nil, domain.ErrNotFound
	case 1:
		return c.byID[candidates[0]], nil
	default:
		names := make([]string, 0, len(candidates))
		for _, id := range candidates {
			names = append(names, c.byID[id].Name)
		}
		sort.Strings(names)
		return nil, &domain.AmbiguousError{Query: ref, Candidates: names}
	}
}

// fuzzyScore returns the best bigram similarity between the query and
// the compound's name or any synonym.
func (c *CompoundCatalog) fuzzyScore(query string, comp *domain.Compound) int {
	best := bigramSimilarity(query, normalizeQuery(comp.Name))
	for _, syn := range comp.Synonyms {
		if s := bigramSimilarity(query, normalizeQuery(syn)); s > best {
			best = s
		}
	}
	return best
}

// Search returns up to limit compounds ranked for typeahead: exact
// above prefix above substring above synonym above fuzzy matches, ties
// broken by name for determinism.
func (c *CompoundCatalog) Search(query string, limit int) []domain.CompoundMatch {
	query = normalizeQuery(query)
	if query == "" || limit <= 0 {
		return nil
	}
	var matches []domain.CompoundMatch
	for _, id := range c.ordered {
		comp := c.byID[id]
		if score, matchType, ok := c.matchScore(query, comp); ok {
			matches = append(matches, domain.CompoundMatch{
				Compound:  comp,
				Score:     score,
				MatchType: matchType,
			})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Compound.Name < matches[j].Compound.Name
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// matchScore ranks a compound against a normalized query. Name matches
// rank above synonym matches, prefix above substring, fuzzy last.
func (c *CompoundCatalog) matchScore(query string, comp *domain.Compound) (int, string, bool) {
	name := normalizeQuery(comp.Name)
	if name == query {
		return 100, MatchExact, true
	}
	if strings.HasPrefix(name, query) {
		return 90, MatchPrefix, true
	}
	if strings.Contains(name, query) {
		return 75, MatchSubstring, true
	}
	synBest := 0
	for _, syn := range append(append([]string{}, comp.Synonyms...), comp.Aliases...) {
		s := normalizeQuery(syn)
		switch {
		case s == query:
			return 100, MatchExact, true
		case strings.HasPrefix(s, query) && synBest < 65:
			synBest = 65
		case strings.Contains(s, query) && synBest < 60:
			synBest = 60
		}
	}
	if synBest > 0 {
		return synBest, MatchSynonym, true
	}
	if sim := c.fuzzyScore(query, comp); sim >= fuzzyThreshold {
		// Scale below every lexical tier so fuzzy hits never outrank them.
		return sim * 59 / 100, MatchFuzzy, true
	}
	return 0, "", false
}
