package catalog

import "strings"

const DefaultSearchLimit = 3

type SearchResult struct {
	Matches []Product `json:"matches"`
	Count   int       `json:"count"`
}

// SearchProducts matches products whose name, description and tags contain
// every keyword token as a case-insensitive substring. Count reports all
// matches; Matches is truncated to max(limit, 1).
func (c *Catalog) SearchProducts(keywords, category string, limit int) SearchResult {
	tokens := strings.Fields(strings.ToLower(keywords))
	category = strings.TrimSpace(category)

	matches := make([]Product, 0)
	for _, p := range c.products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if matchesAll(haystack(p), tokens) {
			matches = append(matches, p)
		}
	}

	if limit < 1 {
		limit = 1
	}
	count := len(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]Product, len(matches))
	for i, p := range matches {
		p.Tags = append([]string(nil), p.Tags...)
		out[i] = p
	}
	return SearchResult{Matches: out, Count: count}
}

func haystack(p Product) string {
	return strings.ToLower(strings.Join([]string{p.Name, p.Description, strings.Join(p.Tags, " ")}, " "))
}

func matchesAll(text string, tokens []string) bool {
	for _, token := range tokens {
		if !strings.Contains(text, token) {
			return false
		}
	}
	return true
}
