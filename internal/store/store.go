// Package store owns the loaded data snapshot. A snapshot bundles the
// compound catalog, interaction catalog, source table and rule set that
// were loaded together, so every read in a request sees one consistent
// view. Reload builds a fresh snapshot off to the side and swaps it in
// atomically; in-flight requests keep the snapshot they started with.
package store

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/supptracker-server/internal/catalog"
	"github.com/supptracker-server/internal/domain"
	"github.com/supptracker-server/internal/rules"
)

// Snapshot is one immutable, internally consistent view of all loaded
// data. Nothing in a snapshot is mutated after construction.
type Snapshot struct {
	Compounds    *catalog.CompoundCatalog
	Interactions *catalog.InteractionCatalog
	Sources      map[string]*domain.Source
	Rules        *rules.RiskRuleSet
	LoadedAt     time.Time
	Issues       []domain.LoadIssue
}

// Store loads snapshots from the data directory and serves the current
// one. Concurrent readers and a single reloader are safe without locks.
type Store struct {
	dataDir   string
	rulesPath string
	logger    *logrus.Logger
	current   atomic.Pointer[Snapshot]
}

// New creates a store rooted at dataDir. rulesFile is resolved relative
// to dataDir unless absolute.
func New(dataDir, rulesFile string, logger *logrus.Logger) *Store {
	rulesPath := rulesFile
	if !filepath.IsAbs(rulesPath) {
		rulesPath = filepath.Join(dataDir, rulesFile)
	}
	return &Store{
		dataDir:   dataDir,
		rulesPath: rulesPath,
		logger:    logger,
	}
}

// Load builds a snapshot from the data directory and swaps it in. A
// rule set failure is fatal: scoring must not run on defaults. Catalog
// file problems degrade instead, the snapshot carries them as issues.
func (s *Store) Load() error {
	start := time.Now()

	ruleSet, err := rules.Load(s.rulesPath)
	if err != nil {
		return fmt.Errorf("loading rule set: %w", err)
	}

	var issues []domain.LoadIssue

	compoundRecords, compoundIssues := catalog.LoadCompounds(s.dataDir)
	issues = append(issues, compoundIssues...)
	compounds := catalog.NewCompoundCatalog(compoundRecords)

	interactionRecords, interactionIssues := catalog.LoadInteractions(s.dataDir)
	issues = append(issues, interactionIssues...)
	interactions, indexIssues := catalog.NewInteractionCatalog(interactionRecords, compounds)
	issues = append(issues, indexIssues...)

	sources, sourceIssues := catalog.LoadSources(s.dataDir)
	issues = append(issues, sourceIssues...)

	snap := &Snapshot{
		Compounds:    compounds,
		Interactions: interactions,
		Sources:      sources,
		Rules:        ruleSet,
		LoadedAt:     time.Now().UTC(),
		Issues:       issues,
	}
	s.current.Store(snap)

	s.logger.WithFields(logrus.Fields{
		"compounds":    compounds.Count(),
		"interactions": interactions.Count(),
		"sources":      len(sources),
		"rule_version": ruleSet.Version,
		"issues":       len(issues),
		"duration":     time.Since(start).String(),
	}).Info("Data snapshot loaded")

	for _, issue := range issues {
		s.logger.WithFields(logrus.Fields{
			"source": issue.Source,
		}).Warn(issue.Message)
	}
	return nil
}

// Snapshot returns the current snapshot. Nil until the first Load.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Health summarizes the current snapshot. Status is "degraded" when any
// load issues were recorded, "ok" otherwise.
func (s *Store) Health() domain.HealthReport {
	snap := s.current.Load()
	if snap == nil {
		return domain.HealthReport{Status: "unavailable"}
	}
	status := "ok"
	if len(snap.Issues) > 0 {
		status = "degraded"
	}
	return domain.HealthReport{
		Status:           status,
		CompoundCount:    snap.Compounds.Count(),
		InteractionCount: snap.Interactions.Count(),
		SourceCount:      len(snap.Sources),
		RuleSetVersion:   snap.Rules.Version,
		LoadedAt:         snap.LoadedAt,
		Issues:           snap.Issues,
	}
}
