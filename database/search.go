package database

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SearchQueryParser turns a free-text project search into ILIKE patterns.
// Each surviving word becomes one pattern; a row must match all of them.
type SearchQueryParser struct {
	maxLength int
}

// NewSearchQueryParser creates a SearchQueryParser that accepts queries of
// up to 200 characters.
func NewSearchQueryParser() *SearchQueryParser {
	return &SearchQueryParser{
		maxLength: 200,
	}
}

// Parse validates query and returns one "%word%" pattern per word.
//
// Examples:
//
//	"Billing API" → ["%billing%", "%api%"]
//	"50% done"    → ["%50\%%", "%done%"]
//	"a roadmap"   → ["%a%", "%roadmap%"]
func (p *SearchQueryParser) Parse(query string) ([]string, error) {
	query = strings.TrimSpace(query)

	if query == "" {
		return nil, fmt.Errorf("search query is empty")
	}

	if utf8.RuneCountInString(query) > p.maxLength {
		return nil, fmt.Errorf("search query too long (max %d characters)", p.maxLength)
	}

	query = p.sanitize(query)

	words := strings.Fields(query)
	if len(words) == 0 {
		return nil, fmt.Errorf("search query is empty")
	}

	patterns := make([]string, 0, len(words))
	for _, word := range words {
		patterns = append(patterns, "%"+escapeLike(strings.ToLower(word))+"%")
	}
	return patterns, nil
}

func (p *SearchQueryParser) sanitize(query string) string {
	replacements := map[string]string{
		`"`: "",
		"'": "",
		"(": "",
		")": "",
	}

	for old, new := range replacements {
		query = strings.ReplaceAll(query, old, new)
	}

	return query
}

// escapeLike escapes LIKE wildcards using the default backslash escape.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
