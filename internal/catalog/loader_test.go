package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supptracker-server/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const compoundsCSV = `id,name,synonyms,aliases,class,route,typical_dose_amount,typical_dose_unit,pregnancy_risk,renal_risk,hepatic_risk,external_ids,reference_urls,notes
caffeine,Caffeine,"1,3,7-trimethylxanthine|guaranine",,stimulant,oral,200,mg,Moderate,Low,Low,"{""cas"":""58-08-2""}",,
creatine,Creatine,creatine monohydrate,,sports,oral,5000,mg,Low,High,Low,,,
`

func TestLoadCompoundsFromCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "compounds.csv", compoundsCSV)

	compounds, issues := LoadCompounds(dir)
	assert.Empty(t, issues)
	require.Len(t, compounds, 2)

	caffeine := compounds[0]
	assert.Equal(t, "caffeine", caffeine.ID)
	assert.Equal(t, "Caffeine", caffeine.Name)
	assert.Equal(t, []string{"1,3,7-trimethylxanthine", "guaranine"}, caffeine.Synonyms)
	require.NotNil(t, caffeine.TypicalDose)
	assert.Equal(t, 200.0, caffeine.TypicalDose.Amount)
	assert.Equal(t, "mg", caffeine.TypicalDose.Unit)
	assert.Equal(t, domain.TierModerate, caffeine.PregnancyRisk)
	assert.Equal(t, "58-08-2", caffeine.ExternalIDs["cas"])
}

func TestLoadCompoundsMergesJSONSideFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "compounds.csv", compoundsCSV)
	writeFile(t, dir, "compounds.json", `[
		{"id": "caffeine", "synonyms": ["guaranine", "theine"], "notes": "from side file"},
		{"id": "ltheanine", "name": "L-Theanine", "class": "amino acid"}
	]`)

	compounds, issues := LoadCompounds(dir)
	assert.Empty(t, issues)
	require.Len(t, compounds, 3)

	caffeine := compounds[0]
	// Existing synonyms stay, new ones append without duplicates.
	assert.Equal(t, []string{"1,3,7-trimethylxanthine", "guaranine", "theine"}, caffeine.Synonyms)
	assert.Equal(t, "from side file", caffeine.Notes)

	added := compounds[2]
	assert.Equal(t, "ltheanine", added.ID)
	assert.Equal(t, "L-Theanine", added.Name)
}

func TestLoadCompoundsMissingFileDegrades(t *testing.T) {
	compounds, issues := LoadCompounds(t.TempDir())
	assert.Empty(t, compounds)
	require.Len(t, issues, 1)
	assert.Equal(t, "compounds.csv", issues[0].Source)
}

func TestLoadCompoundsRowWithoutID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "compounds.csv", "id,name\n,Nameless\ncaffeine,Caffeine\n")

	compounds, issues := LoadCompounds(dir)
	assert.Len(t, compounds, 1)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "without id")
}

func TestLoadInteractions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "interactions.csv", `id,a,b,mechanism,severity,evidence,effect,action,sources
ix_one,caffeine,rhodiola,stimulant,Mild,C,Additive stimulant effects,,s_one|s_two
`)

	records, issues := LoadInteractions(dir)
	assert.Empty(t, issues)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "ix_one", rec.ID)
	assert.Equal(t, []string{"stimulant"}, rec.Mechanism)
	assert.Equal(t, domain.SeverityMild, rec.Severity)
	assert.Equal(t, domain.EvidenceC, rec.Evidence)
	assert.Equal(t, []string{"s_one", "s_two"}, rec.Sources)
}

func TestLoadInteractionsAppendsJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "interactions.csv", `id,a,b,mechanism,severity,evidence,effect,action,sources
ix_one,caffeine,rhodiola,stimulant,Mild,C,,,
`)
	writeFile(t, dir, "interactions.json", `[
		{"id": "ix_two", "a": "warfarin", "b": "fish_oil", "mechanism": ["anticoagulant"], "severity": "Moderate", "evidence": "B"}
	]`)

	records, issues := LoadInteractions(dir)
	assert.Empty(t, issues)
	require.Len(t, records, 2)
	assert.Equal(t, "ix_two", records[1].ID)
	assert.Equal(t, domain.SeverityModerate, records[1].Severity)
}

func TestLoadInteractionsMissingEndpoint(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "interactions.csv", `id,a,b,mechanism,severity,evidence,effect,action,sources
ix_bad,caffeine,,stimulant,Mild,C,,,
`)

	records, issues := LoadInteractions(dir)
	assert.Empty(t, records)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "missing endpoint")
}

func TestLoadSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sources.csv", `id,citation,url,pmid,doi,date
s_one,"Author A. Title.",,12345,,2020-01-01
`)
	writeFile(t, dir, "sources.json", `[
		{"id": "s_one", "url": "https://example.org/s_one"},
		{"id": "s_two", "citation": "Author B. Other title."}
	]`)

	sources, issues := LoadSources(dir)
	assert.Empty(t, issues)
	require.Len(t, sources, 2)

	// CSV wins on populated fields; JSON fills the blanks.
	assert.Equal(t, "Author A. Title.", sources["s_one"].Citation)
	assert.Equal(t, "https://example.org/s_one", sources["s_one"].URL)
	assert.Equal(t, "Author B. Other title.", sources["s_two"].Citation)
}

func TestLoadMalformedJSONReported(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "compounds.csv", compoundsCSV)
	writeFile(t, dir, "compounds.json", "{not json")

	compounds, issues := LoadCompounds(dir)
	assert.Len(t, compounds, 2)
	require.Len(t, issues, 1)
	assert.Equal(t, "compounds.json", issues[0].Source)
}
