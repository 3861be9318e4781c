package store

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storeRulesYAML = `
version: "store-test"
severity_base:
  None: 0
  Mild: 1
  Moderate: 3
  Severe: 7
evidence_weight:
  A: 1.3
  B: 1.0
  C: 0.8
  D: 0.6
thresholds:
  - min: 0
    category: Safe
    action: "No action needed"
`

func writeTestData(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"risk_rules.yaml": storeRulesYAML,
		"compounds.csv": `id,name,synonyms,aliases,class,route,typical_dose_amount,typical_dose_unit,pregnancy_risk,renal_risk,hepatic_risk,external_ids,reference_urls,notes
caffeine,Caffeine,,,stimulant,oral,200,mg,Moderate,Low,Low,,,
rhodiola,Rhodiola Rosea,,,adaptogen,oral,400,mg,Moderate,Low,Low,,,
`,
		"interactions.csv": `id,a,b,mechanism,severity,evidence,effect,action,sources
ix_one,caffeine,rhodiola,stimulant,Mild,C,,,
`,
		"sources.csv": "id,citation,url,pmid,doi,date\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestLoadBuildsSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)

	st := New(dir, "risk_rules.yaml", quietLogger())
	require.NoError(t, st.Load())

	snap := st.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, 2, snap.Compounds.Count())
	assert.Equal(t, 1, snap.Interactions.Count())
	assert.Equal(t, "store-test", snap.Rules.Version)
	assert.False(t, snap.LoadedAt.IsZero())
	assert.Empty(t, snap.Issues)
}

func TestLoadFailsOnBrokenRules(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "risk_rules.yaml"), []byte("version: ["), 0o644))

	st := New(dir, "risk_rules.yaml", quietLogger())
	err := st.Load()
	require.Error(t, err)
	assert.Nil(t, st.Snapshot())
}

func TestLoadDegradesOnMissingCatalogFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "risk_rules.yaml"), []byte(storeRulesYAML), 0o644))

	st := New(dir, "risk_rules.yaml", quietLogger())
	require.NoError(t, st.Load())

	report := st.Health()
	assert.Equal(t, "degraded", report.Status)
	assert.Equal(t, 0, report.CompoundCount)
	assert.NotEmpty(t, report.Issues)
}

func TestHealthBeforeLoad(t *testing.T) {
	st := New(t.TempDir(), "risk_rules.yaml", quietLogger())
	assert.Equal(t, "unavailable", st.Health().Status)
}

func TestReloadSwapsSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)

	st := New(dir, "risk_rules.yaml", quietLogger())
	require.NoError(t, st.Load())
	first := st.Snapshot()

	// Grow the catalog and reload; the old snapshot stays intact.
	extra := `id,name,synonyms,aliases,class,route,typical_dose_amount,typical_dose_unit,pregnancy_risk,renal_risk,hepatic_risk,external_ids,reference_urls,notes
caffeine,Caffeine,,,stimulant,oral,200,mg,Moderate,Low,Low,,,
rhodiola,Rhodiola Rosea,,,adaptogen,oral,400,mg,Moderate,Low,Low,,,
creatine,Creatine,,,sports,oral,5000,mg,Low,High,Low,,,
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "compounds.csv"), []byte(extra), 0o644))
	require.NoError(t, st.Load())

	assert.Equal(t, 2, first.Compounds.Count())
	assert.Equal(t, 3, st.Snapshot().Compounds.Count())
}

func TestFailedReloadKeepsPreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)

	st := New(dir, "risk_rules.yaml", quietLogger())
	require.NoError(t, st.Load())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "risk_rules.yaml"), []byte("thresholds: []"), 0o644))
	require.Error(t, st.Load())

	snap := st.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, "store-test", snap.Rules.Version)
}

func TestAbsoluteRulesPath(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)
	rulesPath := filepath.Join(dir, "risk_rules.yaml")

	st := New(dir, rulesPath, quietLogger())
	require.NoError(t, st.Load())
	assert.NotNil(t, st.Snapshot())
}
