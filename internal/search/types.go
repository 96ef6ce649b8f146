package search

import "github.com/kamusis/docindex-cli/internal/searchdata"

// Match kinds reported in Result.Why.
const (
	WhyExact     = "exact"
	WhyPrefix    = "prefix"
	WhySubstring = "substring"
)

// Result represents one matched index entry.
type Result struct {
	Entry searchdata.Entry `json:"entry"`
	Score float64          `json:"score"`
	Why   string           `json:"why"`
}
