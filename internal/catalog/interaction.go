package catalog

import (
	"fmt"
	"sort"

	"github.com/supptracker-server/internal/domain"
)

// pairKey is the canonical (sorted) form of an unordered compound pair.
type pairKey struct {
	a, b string
}

func canonicalPair(idA, idB string) pairKey {
	if idB < idA {
		idA, idB = idB, idA
	}
	return pairKey{a: idA, b: idB}
}

// InteractionCatalog is the read-only interaction table keyed by
// canonical pair. Lookup(a, b) equals Lookup(b, a). It implements
// domain.InteractionLookup.
type InteractionCatalog struct {
	byPair     map[pairKey]*domain.InteractionRecord
	byCompound map[string][]*domain.InteractionRecord
	ordered    []pairKey
}

var _ domain.InteractionLookup = (*InteractionCatalog)(nil)

// NewInteractionCatalog builds the catalog from loaded records,
// validating that both endpoints resolve to loaded compounds. Records
// with unknown endpoints or invalid enums are skipped and reported as
// issues. Duplicate canonical pairs merge deterministically:
// last-write-wins in input order for scalar fields, sources unioned.
func NewInteractionCatalog(records []*domain.InteractionRecord, compounds *CompoundCatalog) (*InteractionCatalog, []domain.LoadIssue) {
	c := &InteractionCatalog{
		byPair:     make(map[pairKey]*domain.InteractionRecord, len(records)),
		byCompound: make(map[string][]*domain.InteractionRecord),
	}
	var issues []domain.LoadIssue

	for _, rec := range records {
		if _, ok := compounds.Get(rec.A); !ok {
			issues = append(issues, domain.LoadIssue{
				Source:  "interactions",
				Message: fmt.Sprintf("interaction %s references unknown compound %q", rec.ID, rec.A),
			})
			continue
		}
		if _, ok := compounds.Get(rec.B); !ok {
			issues = append(issues, domain.LoadIssue{
				Source:  "interactions",
				Message: fmt.Sprintf("interaction %s references unknown compound %q", rec.ID, rec.B),
			})
			continue
		}
		if !rec.Severity.IsValid() {
			issues = append(issues, domain.LoadIssue{
				Source:  "interactions",
				Message: fmt.Sprintf("interaction %s has invalid severity %q", rec.ID, rec.Severity),
			})
			continue
		}
		if !rec.Evidence.IsValid() {
			issues = append(issues, domain.LoadIssue{
				Source:  "interactions",
				Message: fmt.Sprintf("interaction %s has invalid evidence grade %q", rec.ID, rec.Evidence),
			})
			continue
		}

		key := canonicalPair(rec.A, rec.B)
		if existing, ok := c.byPair[key]; ok {
			c.byPair[key] = mergeRecords(existing, rec)
			continue
		}
		c.byPair[key] = rec
		c.ordered = append(c.ordered, key)
	}

	sort.Slice(c.ordered, func(i, j int) bool {
		if c.ordered[i].a != c.ordered[j].a {
			return c.ordered[i].a < c.ordered[j].a
		}
		return c.ordered[i].b < c.ordered[j].b
	})
	for _, key := range c.ordered {
		rec := c.byPair[key]
		c.byCompound[key.a] = append(c.byCompound[key.a], rec)
		if key.b != key.a {
			c.byCompound[key.b] = append(c.byCompound[key.b], rec)
		}
	}
	return c, issues
}

// mergeRecords merges a duplicate record for the same canonical pair.
// The newer record's populated fields win; sources are unioned in
// first-seen order.
func mergeRecords(older, newer *domain.InteractionRecord) *domain.InteractionRecord {
	merged := *older
	if newer.ID != "" {
		merged.ID = newer.ID
	}
	if len(newer.Mechanism) > 0 {
		merged.Mechanism = newer.Mechanism
	}
	if newer.Severity != "" {
		merged.Severity = newer.Severity
	}
	if newer.Evidence != "" {
		merged.Evidence = newer.Evidence
	}
	if newer.Effect != "" {
		merged.Effect = newer.Effect
	}
	if newer.Action != "" {
		merged.Action = newer.Action
	}
	seen := make(map[string]struct{}, len(merged.Sources))
	for _, s := range merged.Sources {
		seen[s] = struct{}{}
	}
	for _, s := range newer.Sources {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			merged.Sources = append(merged.Sources, s)
		}
	}
	return &merged
}

// Count returns the number of canonical pairs loaded.
func (c *InteractionCatalog) Count() int {
	return len(c.byPair)
}

// Lookup returns the record for the unordered pair (idA, idB), or
// domain.ErrNotFound. Self-pairs (idA == idB) are legitimate lookups.
func (c *InteractionCatalog) Lookup(idA, idB string) (*domain.InteractionRecord, error) {
	if rec, ok := c.byPair[canonicalPair(idA, idB)]; ok {
		return rec, nil
	}
	return nil, domain.ErrNotFound
}

// AllForCompound returns every record involving the compound, most
// severe first, ties broken by record id for determinism.
func (c *InteractionCatalog) AllForCompound(id string) []*domain.InteractionRecord {
	recs := append([]*domain.InteractionRecord{}, c.byCompound[id]...)
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Severity.Rank() != recs[j].Severity.Rank() {
			return recs[i].Severity.Rank() > recs[j].Severity.Rank()
		}
		return recs[i].ID < recs[j].ID
	})
	return recs
}

// All returns every record in canonical pair order.
func (c *InteractionCatalog) All() []*domain.InteractionRecord {
	out := make([]*domain.InteractionRecord, 0, len(c.ordered))
	for _, key := range c.ordered {
		out = append(out, c.byPair[key])
	}
	return out
}
