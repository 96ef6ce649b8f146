package search

import (
	"strings"

	"github.com/kamusis/docindex-cli/internal/searchdata"
)

// KeywordSearch matches query tokens against entry keys the way the browser
// search box does: every token is encoded with searchdata.EncodeKey and must
// be a substring of the key (AND semantics). Exact and prefix matches on the
// first token rank ahead of inner matches; ties keep key order.
func KeywordSearch(idx *searchdata.Index, query string, limit int) []Result {
	tokens := tokenize(query)
	if len(tokens) == 0 || idx == nil {
		return []Result{}
	}

	out := []Result{}
	for _, e := range idx.Entries {
		ok := true
		for _, tok := range tokens {
			if !strings.Contains(e.Key, tok) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		out = append(out, score(e, tokens[0]))
	}

	SortResults(out)

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func score(e searchdata.Entry, first string) Result {
	switch {
	case searchdata.EncodeKey(e.Label) == first:
		return Result{Entry: e, Score: 3, Why: WhyExact}
	case strings.HasPrefix(e.Key, first):
		return Result{Entry: e, Score: 2, Why: WhyPrefix}
	}
	return Result{Entry: e, Score: 1, Why: WhySubstring}
}

func tokenize(q string) []string {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	parts := strings.Fields(q)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = searchdata.EncodeKey(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
