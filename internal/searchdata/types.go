package searchdata

import "sort"

// Occurrence is one documented location of a label.
// Owner holds the unescaped owner description.
type Occurrence struct {
	URL   string `json:"url"`
	Local bool   `json:"local"`
	Owner string `json:"owner"`
}

// Entry maps a search key to a display label and its occurrences.
// Label holds the unescaped display name.
type Entry struct {
	Key         string       `json:"key"`
	Label       string       `json:"label"`
	Occurrences []Occurrence `json:"occurrences"`
}

// Index is an immutable, key-sorted search table.
type Index struct {
	Entries []Entry

	// issues found while parsing that do not prevent loading
	// (for example, unescaped markup inside strings).
	issues []Problem
}

// Manifest describes a generated index directory.
type Manifest struct {
	IndexVersion int               `json:"index_version"`
	URLPrefix    string            `json:"url_prefix"`
	InputHash    string            `json:"input_hash"`
	Symbols      int               `json:"symbols"`
	Entries      int               `json:"entries"`
	Sections     string            `json:"sections"`
	Files        map[string]string `json:"files"`
}

// Problem is one contract violation found by Validate.
type Problem struct {
	Key string
	Msg string
}

func (p Problem) String() string {
	if p.Key == "" {
		return p.Msg
	}
	return p.Key + ": " + p.Msg
}

// Lookup returns the entry for key, if present.
func (idx *Index) Lookup(key string) (Entry, bool) {
	i := sort.Search(len(idx.Entries), func(i int) bool { return idx.Entries[i].Key >= key })
	if i < len(idx.Entries) && idx.Entries[i].Key == key {
		return idx.Entries[i], true
	}
	return Entry{}, false
}
