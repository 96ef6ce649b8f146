package searchdata

import (
	"fmt"
	"sort"

	"github.com/kamusis/docindex-cli/internal/symbols"
)

// DefaultURLPrefix is where html pages live relative to the search/ directory.
const DefaultURLPrefix = "../"

// BuildOptions controls index construction.
type BuildOptions struct {
	URLPrefix string

	// ShortOwners abbreviates the signature of functions that have no
	// overload in their scope to "()", as doxygen does.
	ShortOwners bool
}

// Build groups symbols into a key-sorted index.
//
// Occurrences of the same display label keep the order in which symbols
// were given. Repeated (url, owner) pairs collapse into one occurrence.
// Distinct labels that encode to the same key get "_0", "_1", ... suffixes
// in first-seen order.
func Build(syms []symbols.Symbol, opts BuildOptions) (*Index, error) {
	// distinct signatures per function; a declaration and its out-of-class
	// definition count once
	overloads := make(map[string]map[string]struct{})
	for _, s := range syms {
		if s.Kind != symbols.KindFunction {
			continue
		}
		k := s.OverloadKey()
		if overloads[k] == nil {
			overloads[k] = make(map[string]struct{})
		}
		overloads[k][s.Args] = struct{}{}
	}

	type group struct {
		label string
		occ   []Occurrence
		seen  map[Occurrence]struct{}
	}
	groups := make(map[string]*group)
	var labelOrder []string

	for i, s := range syms {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("symbol #%d: %w", i+1, err)
		}
		s.Resolve()

		g, ok := groups[s.Name]
		if !ok {
			g = &group{label: s.Name, seen: make(map[Occurrence]struct{})}
			groups[s.Name] = g
			labelOrder = append(labelOrder, s.Name)
		}
		o := Occurrence{
			URL:   s.URL(opts.URLPrefix),
			Local: true,
			Owner: s.Owner(opts.ShortOwners && len(overloads[s.OverloadKey()]) < 2),
		}
		if _, dup := g.seen[o]; dup {
			continue
		}
		g.seen[o] = struct{}{}
		g.occ = append(g.occ, o)
	}

	byKey := make(map[string][]string)
	var keyOrder []string
	for _, label := range labelOrder {
		k := EncodeKey(label)
		if _, ok := byKey[k]; !ok {
			keyOrder = append(keyOrder, k)
		}
		byKey[k] = append(byKey[k], label)
	}

	entries := make([]Entry, 0, len(labelOrder))
	for _, k := range keyOrder {
		labels := byKey[k]
		for n, label := range labels {
			key := k
			if len(labels) > 1 {
				key = fmt.Sprintf("%s_%d", k, n)
			}
			entries = append(entries, Entry{Key: key, Label: label, Occurrences: groups[label].occ})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	return &Index{Entries: entries}, nil
}
