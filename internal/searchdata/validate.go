package searchdata

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	anchorURLPattern = regexp.MustCompile(`^[^\s#]+\.html#[A-Za-z0-9_.:-]+$`)
	suffixDigits     = regexp.MustCompile(`^[0-9]+$`)
)

// Validate checks the index against the searchData contract and returns every
// violation found, in key order. An empty result means the index is valid.
func Validate(idx *Index) []Problem {
	var out []Problem
	add := func(key, format string, args ...any) {
		out = append(out, Problem{Key: key, Msg: fmt.Sprintf(format, args...)})
	}

	// labels per encoded key; a "_<n>" suffix is only legal on shared keys
	shared := make(map[string]int)
	for _, e := range idx.Entries {
		shared[EncodeKey(e.Label)]++
	}

	for i, e := range idx.Entries {
		if e.Key == "" {
			add("", "entry #%d has an empty key", i+1)
		}
		if i > 0 && idx.Entries[i-1].Key >= e.Key {
			add(e.Key, "key is not strictly after %q", idx.Entries[i-1].Key)
		}
		if want := EncodeKey(e.Label); !keyMatches(e.Key, want, shared[want]) {
			add(e.Key, "key does not encode label %q (want %q)", e.Label, want)
		}
		if len(e.Occurrences) == 0 {
			add(e.Key, "no occurrences")
		}
		for _, o := range e.Occurrences {
			if !anchorURLPattern.MatchString(o.URL) {
				add(e.Key, "anchor url %q does not match page.html#id", o.URL)
			}
			if strings.TrimSpace(o.Owner) == "" {
				add(e.Key, "occurrence %s has an empty owner", o.URL)
			}
		}
	}
	return append(out, idx.issues...)
}

// keyMatches reports whether key is want itself, or want plus a
// disambiguation suffix when more than one label encodes to want.
func keyMatches(key, want string, labels int) bool {
	if key == want {
		return true
	}
	if labels < 2 || !strings.HasPrefix(key, want+"_") {
		return false
	}
	return suffixDigits.MatchString(key[len(want)+1:])
}
