package catalog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/supptracker-server/internal/domain"
)

// Loaders read the catalog source files from a data directory. Missing
// files degrade to empty tables and are reported as load issues rather
// than failing the whole load; the health endpoint surfaces them. Each
// CSV may be supplemented by a JSON side file of the same base name
// whose entries are merged per id.

// LoadCompounds reads compounds.csv and merges compounds.json.
func LoadCompounds(dataDir string) ([]*domain.Compound, []domain.LoadIssue) {
	var issues []domain.LoadIssue
	byID := make(map[string]*domain.Compound)
	var order []string

	rows, issue := readCSV(filepath.Join(dataDir, "compounds.csv"))
	if issue != nil {
		issues = append(issues, *issue)
	}
	for _, row := range rows {
		comp := compoundFromRow(row)
		if comp.ID == "" {
			issues = append(issues, domain.LoadIssue{Source: "compounds.csv", Message: "row without id skipped"})
			continue
		}
		if _, ok := byID[comp.ID]; !ok {
			order = append(order, comp.ID)
		}
		byID[comp.ID] = comp
	}

	var docs []compoundDoc
	if issue := readJSON(filepath.Join(dataDir, "compounds.json"), &docs); issue != nil {
		issues = append(issues, *issue)
	}
	for _, doc := range docs {
		if doc.ID == "" {
			issues = append(issues, domain.LoadIssue{Source: "compounds.json", Message: "entry without id skipped"})
			continue
		}
		existing, ok := byID[doc.ID]
		if !ok {
			existing = &domain.Compound{ID: doc.ID}
			byID[doc.ID] = existing
			order = append(order, doc.ID)
		}
		mergeCompoundDoc(existing, doc)
	}

	out := make([]*domain.Compound, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out, issues
}

// LoadInteractions reads interactions.csv and appends interactions.json.
// Duplicate canonical pairs are merged later during catalog construction.
func LoadInteractions(dataDir string) ([]*domain.InteractionRecord, []domain.LoadIssue) {
	var issues []domain.LoadIssue
	var records []*domain.InteractionRecord

	rows, issue := readCSV(filepath.Join(dataDir, "interactions.csv"))
	if issue != nil {
		issues = append(issues, *issue)
	}
	for _, row := range rows {
		rec := &domain.InteractionRecord{
			ID:        row["id"],
			A:         strings.TrimSpace(row["a"]),
			B:         strings.TrimSpace(row["b"]),
			Mechanism: ParseList(row["mechanism"]),
			Severity:  domain.Severity(row["severity"]),
			Evidence:  domain.Evidence(row["evidence"]),
			Effect:    row["effect"],
			Action:    row["action"],
			Sources:   ParseList(row["sources"]),
		}
		if rec.A == "" || rec.B == "" {
			issues = append(issues, domain.LoadIssue{Source: "interactions.csv", Message: fmt.Sprintf("interaction %q missing endpoint skipped", rec.ID)})
			continue
		}
		records = append(records, rec)
	}

	var docs []interactionDoc
	if issue := readJSON(filepath.Join(dataDir, "interactions.json"), &docs); issue != nil {
		issues = append(issues, *issue)
	}
	for _, doc := range docs {
		if doc.A == "" || doc.B == "" {
			issues = append(issues, domain.LoadIssue{Source: "interactions.json", Message: "entry missing endpoint skipped"})
			continue
		}
		records = append(records, &domain.InteractionRecord{
			ID:        doc.ID,
			A:         doc.A,
			B:         doc.B,
			Mechanism: doc.Mechanism,
			Severity:  domain.Severity(doc.Severity),
			Evidence:  domain.Evidence(doc.Evidence),
			Effect:    doc.Effect,
			Action:    doc.Action,
			Sources:   doc.Sources,
		})
	}
	return records, issues
}

// LoadSources reads sources.csv and merges sources.json per id.
func LoadSources(dataDir string) (map[string]*domain.Source, []domain.LoadIssue) {
	var issues []domain.LoadIssue
	sources := make(map[string]*domain.Source)

	rows, issue := readCSV(filepath.Join(dataDir, "sources.csv"))
	if issue != nil {
		issues = append(issues, *issue)
	}
	for _, row := range rows {
		if row["id"] == "" {
			issues = append(issues, domain.LoadIssue{Source: "sources.csv", Message: "row without id skipped"})
			continue
		}
		sources[row["id"]] = &domain.Source{
			ID:       row["id"],
			Citation: row["citation"],
			URL:      row["url"],
			PMID:     row["pmid"],
			DOI:      row["doi"],
			Date:     row["date"],
		}
	}

	var docs []domain.Source
	if issue := readJSON(filepath.Join(dataDir, "sources.json"), &docs); issue != nil {
		issues = append(issues, *issue)
	}
	for _, doc := range docs {
		if doc.ID == "" {
			issues = append(issues, domain.LoadIssue{Source: "sources.json", Message: "entry without id skipped"})
			continue
		}
		existing, ok := sources[doc.ID]
		if !ok {
			copied := doc
			sources[doc.ID] = &copied
			continue
		}
		if existing.Citation == "" {
			existing.Citation = doc.Citation
		}
		if existing.URL == "" {
			existing.URL = doc.URL
		}
		if existing.PMID == "" {
			existing.PMID = doc.PMID
		}
		if existing.DOI == "" {
			existing.DOI = doc.DOI
		}
		if existing.Date == "" {
			existing.Date = doc.Date
		}
	}
	return sources, issues
}

type compoundDoc struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Synonyms      []string          `json:"synonyms"`
	Aliases       []string          `json:"aliases"`
	Class         string            `json:"class"`
	Route         string            `json:"route"`
	DoseAmount    float64           `json:"typical_dose_amount"`
	DoseUnit      string            `json:"typical_dose_unit"`
	PregnancyRisk string            `json:"pregnancy_risk"`
	RenalRisk     string            `json:"renal_risk"`
	HepaticRisk   string            `json:"hepatic_risk"`
	ExternalIDs   map[string]string `json:"external_ids"`
	ReferenceURLs map[string]string `json:"reference_urls"`
	Notes         string            `json:"notes"`
}

type interactionDoc struct {
	ID        string   `json:"id"`
	A         string   `json:"a"`
	B         string   `json:"b"`
	Mechanism []string `json:"mechanism"`
	Severity  string   `json:"severity"`
	Evidence  string   `json:"evidence"`
	Effect    string   `json:"effect"`
	Action    string   `json:"action"`
	Sources   []string `json:"sources"`
}

func compoundFromRow(row map[string]string) *domain.Compound {
	comp := &domain.Compound{
		ID:            strings.TrimSpace(row["id"]),
		Name:          strings.TrimSpace(row["name"]),
		Synonyms:      ParseSynonyms(row["synonyms"]),
		Aliases:       ParseSynonyms(row["aliases"]),
		Class:         row["class"],
		Route:         row["route"],
		PregnancyRisk: domain.RiskTier(row["pregnancy_risk"]),
		RenalRisk:     domain.RiskTier(row["renal_risk"]),
		HepaticRisk:   domain.RiskTier(row["hepatic_risk"]),
		Notes:         row["notes"],
	}
	if amount, err := strconv.ParseFloat(strings.TrimSpace(row["typical_dose_amount"]), 64); err == nil && amount > 0 {
		comp.TypicalDose = &domain.Dose{Amount: amount, Unit: strings.TrimSpace(row["typical_dose_unit"])}
	}
	comp.ExternalIDs = parseMapping(row["external_ids"])
	comp.ReferenceURLs = parseMapping(row["reference_urls"])
	return comp
}

// mergeCompoundDoc merges a JSON side-file entry into an existing
// record: scalars fill blanks, lists append with dedupe, maps union
// with the CSV value winning on key conflicts.
func mergeCompoundDoc(comp *domain.Compound, doc compoundDoc) {
	if comp.Name == "" {
		comp.Name = doc.Name
	}
	comp.Synonyms = appendUnique(comp.Synonyms, doc.Synonyms)
	comp.Aliases = appendUnique(comp.Aliases, doc.Aliases)
	if comp.Class == "" {
		comp.Class = doc.Class
	}
	if comp.Route == "" {
		comp.Route = doc.Route
	}
	if comp.TypicalDose == nil && doc.DoseAmount > 0 {
		comp.TypicalDose = &domain.Dose{Amount: doc.DoseAmount, Unit: doc.DoseUnit}
	}
	if comp.PregnancyRisk == "" {
		comp.PregnancyRisk = domain.RiskTier(doc.PregnancyRisk)
	}
	if comp.RenalRisk == "" {
		comp.RenalRisk = domain.RiskTier(doc.RenalRisk)
	}
	if comp.HepaticRisk == "" {
		comp.HepaticRisk = domain.RiskTier(doc.HepaticRisk)
	}
	if len(doc.ExternalIDs) > 0 {
		if comp.ExternalIDs == nil {
			comp.ExternalIDs = make(map[string]string)
		}
		for k, v := range doc.ExternalIDs {
			if _, ok := comp.ExternalIDs[k]; !ok {
				comp.ExternalIDs[k] = v
			}
		}
	}
	if len(doc.ReferenceURLs) > 0 {
		if comp.ReferenceURLs == nil {
			comp.ReferenceURLs = make(map[string]string)
		}
		for k, v := range doc.ReferenceURLs {
			if _, ok := comp.ReferenceURLs[k]; !ok {
				comp.ReferenceURLs[k] = v
			}
		}
	}
	if comp.Notes == "" {
		comp.Notes = doc.Notes
	}
}

func appendUnique(dst, src []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, s := range dst {
		seen[s] = struct{}{}
	}
	for _, s := range src {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			dst = append(dst, s)
		}
	}
	return dst
}

// parseMapping parses an external-id style cell: either a JSON object
// or "key=value" / "key:value" pairs separated by | or ;.
func parseMapping(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "{") {
		var m map[string]string
		if err := json.Unmarshal([]byte(raw), &m); err == nil {
			return m
		}
	}
	out := make(map[string]string)
	for _, part := range ParseList(raw) {
		sep := strings.IndexAny(part, "=:")
		if sep <= 0 {
			continue
		}
		key := strings.TrimSpace(part[:sep])
		val := strings.TrimSpace(part[sep+1:])
		if key != "" && val != "" {
			out[key] = val
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// readCSV reads a header-mapped CSV file. A missing or unreadable file
// yields no rows and a load issue.
func readCSV(path string) ([]map[string]string, *domain.LoadIssue) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.LoadIssue{
			Source:  filepath.Base(path),
			Message: fmt.Sprintf("could not open: %v", err),
		}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, &domain.LoadIssue{
			Source:  filepath.Base(path),
			Message: fmt.Sprintf("could not read header: %v", err),
		}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, &domain.LoadIssue{
				Source:  filepath.Base(path),
				Message: fmt.Sprintf("malformed row: %v", err),
			}
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// readJSON reads an optional JSON side file. Absence is not an issue;
// malformed content is.
func readJSON(path string, out any) *domain.LoadIssue {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &domain.LoadIssue{
			Source:  filepath.Base(path),
			Message: fmt.Sprintf("could not read: %v", err),
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.LoadIssue{
			Source:  filepath.Base(path),
			Message: fmt.Sprintf("malformed JSON: %v", err),
		}
	}
	return nil
}
