// Package concept finds known multi-word concepts in free text.
//
// Concepts are stored in a map keyed by their lowercased text. The first word
// of every concept additionally records the word counts of the concepts that
// start with it, so Extract looks each input word up once and then only tries
// the lengths that can match. Comparisons are linear in the number of input
// words rather than in the number of characters.
package concept

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// MaxConceptLength bounds one line of a concept file.
const MaxConceptLength = 1024

// ErrConceptTooLong is returned when a concept file line exceeds MaxConceptLength.
var ErrConceptTooLong = errors.New("concept too long")

type entry struct {
	concept string // original case; empty when only a prefix of longer concepts
	counts  []int  // ascending, unique
}

// Extractor matches registered concepts against input text.
type Extractor struct {
	concepts map[string]*entry
}

// New returns an Extractor holding the given concepts.
func New(concepts ...string) *Extractor {
	e := &Extractor{concepts: make(map[string]*entry)}
	for _, c := range concepts {
		e.Add(c)
	}
	return e
}

// Load reads one concept per line from path. Blank lines are ignored.
func Load(path string) (*Extractor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open concept list %s: %w", path, err)
	}
	defer f.Close()

	e := New()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, MaxConceptLength), MaxConceptLength)
	line := 0
	for sc.Scan() {
		line++
		e.Add(strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("%s:%d: %w (max %d bytes)", path, line+1, ErrConceptTooLong, MaxConceptLength)
		}
		return nil, fmt.Errorf("cannot read concept list %s: %w", path, err)
	}
	slog.Debug("concepts loaded", "path", path, "count", e.Len())
	return e, nil
}

// Add registers a concept. Re-adding a concept with a different case keeps
// the latest spelling.
func (e *Extractor) Add(concept string) {
	words := Words(LowerASCII(concept))
	if len(words) == 0 {
		return
	}
	key := strings.Join(words, " ")
	self := e.slot(key)
	self.concept = concept
	self.counts = insertUnique(self.counts, 1)

	first := e.slot(words[0])
	first.counts = insertUnique(first.counts, len(words))
}

// Len reports the number of registered concepts.
func (e *Extractor) Len() int {
	n := 0
	for _, v := range e.concepts {
		if v.concept != "" {
			n++
		}
	}
	return n
}

// Extract returns the concepts found in text, in original case, ordered by
// position of their first word and then by length.
func (e *Extractor) Extract(text string) []string {
	words := Words(Normalize(text))
	out := []string{}
	for i, w := range words {
		ent, ok := e.concepts[w]
		if !ok {
			continue
		}
		for _, n := range ent.counts {
			if i+n > len(words) {
				break
			}
			if n == 1 {
				if ent.concept != "" {
					out = append(out, ent.concept)
				}
				continue
			}
			if c, ok := e.concepts[strings.Join(words[i:i+n], " ")]; ok && c.concept != "" {
				out = append(out, c.concept)
			}
		}
	}
	return out
}

func (e *Extractor) slot(key string) *entry {
	v, ok := e.concepts[key]
	if !ok {
		v = &entry{}
		e.concepts[key] = v
	}
	return v
}

func insertUnique(s []int, n int) []int {
	i := sort.SearchInts(s, n)
	if i < len(s) && s[i] == n {
		return s
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = n
	return s
}
