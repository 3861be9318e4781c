package catalog

import (
	"strings"
	"unicode"
)

// quote characters stripped from the outside of synonym tokens.
const quoteChars = "\"'`“”’"

// ParseSynonyms splits a raw synonym cell into a deterministic list of
// unique synonyms. Separators are | ; / \ + & and commas, except commas
// between digits ("1,3,7-trimethylxanthine" stays whole). Parenthesized
// alternatives are lifted out as their own tokens. Order is preserved,
// duplicates dropped.
func ParseSynonyms(raw string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, token := range tokenizeSegment(raw) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// ParseList splits a simple multi-value cell (mechanism tags, source
// ids) on | and ; with whitespace trimming. No comma handling: these
// cells never contain free text.
func ParseList(raw string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == '|' || r == ';'
	}) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func tokenizeSegment(segment string) []string {
	cleaned := strings.Join(strings.Fields(segment), " ")
	if cleaned == "" {
		return nil
	}

	// Lift "a (b) c" into the tokens of a, b and c.
	if open := strings.Index(cleaned, "("); open >= 0 {
		if close := strings.LastIndex(cleaned, ")"); close > open {
			var collected []string
			collected = append(collected, tokenizeSegment(cleaned[:open])...)
			collected = append(collected, tokenizeSegment(cleaned[open+1:close])...)
			collected = append(collected, tokenizeSegment(cleaned[close+1:])...)
			if len(collected) > 0 {
				return collected
			}
		}
	}

	var tokens []string
	var buf strings.Builder
	emit := func() {
		text := stripOuterQuotes(buf.String())
		buf.Reset()
		if text != "" {
			tokens = append(tokens, text)
		}
	}

	runes := []rune(cleaned)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == ',' {
			if isNumericComma(runes, i) {
				buf.WriteRune(r)
			} else {
				emit()
			}
			continue
		}
		switch r {
		case ';', '|', '/', '\\', '+', '&':
			emit()
		default:
			buf.WriteRune(r)
		}
	}
	emit()

	if len(tokens) == 0 {
		if text := stripOuterQuotes(cleaned); text != "" {
			return []string{text}
		}
	}
	return tokens
}

func stripOuterQuotes(s string) string {
	s = strings.TrimSpace(s)
	for {
		rs := []rune(s)
		if len(rs) < 2 || !strings.ContainsRune(quoteChars, rs[0]) || !strings.ContainsRune(quoteChars, rs[len(rs)-1]) {
			return s
		}
		s = strings.TrimSpace(string(rs[1 : len(rs)-1]))
	}
}

// isNumericComma reports whether the comma at index i sits between two
// digits (ignoring whitespace), as in chemical names.
func isNumericComma(runes []rune, i int) bool {
	prev := i - 1
	for prev >= 0 && unicode.IsSpace(runes[prev]) {
		prev--
	}
	next := i + 1
	for next < len(runes) && unicode.IsSpace(runes[next]) {
		next++
	}
	return prev >= 0 && next < len(runes) &&
		unicode.IsDigit(runes[prev]) && unicode.IsDigit(runes[next])
}
