package searchdata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Load reads a single searchData file.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open index %s: %w", path, err)
	}
	defer f.Close()

	idx, err := ParseJS(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return idx, nil
}

// LoadDir reads an index directory written by WriteDir and merges its
// section files back into one key-sorted index.
func LoadDir(dir string) (*Index, *Manifest, error) {
	manifestPath := filepath.Join(dir, manifestFile)
	b, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read manifest %s: %w", manifestPath, err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, nil, fmt.Errorf("invalid manifest JSON %s: %w", manifestPath, err)
	}
	if m.IndexVersion != indexVersion {
		return nil, nil, fmt.Errorf("unsupported index version %d in %s", m.IndexVersion, manifestPath)
	}

	merged := &Index{}
	for n := 0; n < len(m.Sections); n++ {
		part, err := Load(filepath.Join(dir, SectionFile(n)))
		if err != nil {
			return nil, nil, err
		}
		merged.Entries = append(merged.Entries, part.Entries...)
		merged.issues = append(merged.issues, part.issues...)
	}
	sort.SliceStable(merged.Entries, func(i, j int) bool { return merged.Entries[i].Key < merged.Entries[j].Key })
	return merged, &m, nil
}

// ReadManifest returns the manifest of an index directory, or nil when the
// directory holds no readable manifest.
func ReadManifest(dir string) *Manifest {
	b, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil
	}
	var m Manifest
	if json.Unmarshal(b, &m) != nil {
		return nil
	}
	return &m
}

// ParseJS parses a doxygen searchData assignment.
//
// Occurrences may be written as [url,flag,owner] or [url,owner]. Labels and
// owners are HTML-unescaped; raw markup in them is recorded as a problem
// reported by Validate rather than rejected.
func ParseJS(r io.Reader) (*Index, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s := string(src)
	eq := strings.IndexByte(s, '=')
	if eq < 0 || !strings.Contains(s[:eq], "searchData") {
		return nil, fmt.Errorf("%w: missing searchData assignment", ErrMalformedIndex)
	}

	p := &jsParser{src: s, pos: eq + 1}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ';' {
		p.pos++
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("trailing content")
	}

	rows, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: searchData is not an array", ErrMalformedIndex)
	}
	idx := &Index{Entries: make([]Entry, 0, len(rows))}
	for i, row := range rows {
		e, issues, err := decodeEntry(row)
		if err != nil {
			return nil, fmt.Errorf("%w: entry #%d: %v", ErrMalformedIndex, i+1, err)
		}
		idx.Entries = append(idx.Entries, e)
		idx.issues = append(idx.issues, issues...)
	}
	return idx, nil
}

func decodeEntry(row any) (Entry, []Problem, error) {
	pair, ok := row.([]any)
	if !ok || len(pair) != 2 {
		return Entry{}, nil, fmt.Errorf("want [key, [label, ...]]")
	}
	key, ok := pair[0].(string)
	if !ok {
		return Entry{}, nil, fmt.Errorf("key is not a string")
	}
	body, ok := pair[1].([]any)
	if !ok || len(body) == 0 {
		return Entry{}, nil, fmt.Errorf("%s: want [label, occurrence...]", key)
	}
	rawLabel, ok := body[0].(string)
	if !ok {
		return Entry{}, nil, fmt.Errorf("%s: label is not a string", key)
	}

	var issues []Problem
	checkEscaped := func(what, s string) {
		if strings.ContainsAny(s, "<>") || hasRawAmpersand(s) {
			issues = append(issues, Problem{Key: key, Msg: fmt.Sprintf("%s %q contains unescaped markup", what, s)})
		}
	}
	checkEscaped("label", rawLabel)

	e := Entry{Key: key, Label: UnescapeHTML(rawLabel)}
	for _, item := range body[1:] {
		occ, ok := item.([]any)
		if !ok {
			return Entry{}, nil, fmt.Errorf("%s: occurrence is not an array", key)
		}
		var o Occurrence
		switch len(occ) {
		case 2:
			o.Local = true
		case 3:
			flag, ok := occ[1].(int)
			if !ok {
				return Entry{}, nil, fmt.Errorf("%s: occurrence flag is not a number", key)
			}
			o.Local = flag != 0
		default:
			return Entry{}, nil, fmt.Errorf("%s: occurrence has %d fields", key, len(occ))
		}
		url, ok1 := occ[0].(string)
		owner, ok2 := occ[len(occ)-1].(string)
		if !ok1 || !ok2 {
			return Entry{}, nil, fmt.Errorf("%s: occurrence url/owner must be strings", key)
		}
		checkEscaped("owner", owner)
		o.URL = url
		o.Owner = UnescapeHTML(owner)
		e.Occurrences = append(e.Occurrences, o)
	}
	return e, issues, nil
}

// hasRawAmpersand reports an '&' that does not start one of the entities
// EscapeHTML produces.
func hasRawAmpersand(s string) bool {
	for i := strings.IndexByte(s, '&'); i >= 0; {
		rest := s[i:]
		if !strings.HasPrefix(rest, "&amp;") && !strings.HasPrefix(rest, "&lt;") && !strings.HasPrefix(rest, "&gt;") {
			return true
		}
		j := strings.IndexByte(rest[1:], '&')
		if j < 0 {
			return false
		}
		i += j + 1
	}
	return false
}

// jsParser reads the JS literal subset doxygen emits: arrays, single- or
// double-quoted strings and non-negative integers.
type jsParser struct {
	src   string
	pos   int
	depth int
}

// maxNesting is the deepest array nesting of a searchData file:
// table, entry, label body, occurrence.
const maxNesting = 4

func (p *jsParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: offset %d: %s", ErrMalformedIndex, p.pos, fmt.Sprintf(format, args...))
}

func (p *jsParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *jsParser) value() (any, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, p.errorf("unexpected end of input")
	}
	switch c := p.src[p.pos]; {
	case c == '[':
		return p.array()
	case c == '\'' || c == '"':
		return p.str()
	case c >= '0' && c <= '9':
		n := 0
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			n = n*10 + int(p.src[p.pos]-'0')
			p.pos++
		}
		return n, nil
	default:
		return nil, p.errorf("unexpected character %q", c)
	}
}

func (p *jsParser) array() ([]any, error) {
	if p.depth == maxNesting {
		return nil, p.errorf("arrays nested deeper than %d", maxNesting)
	}
	p.depth++
	defer func() { p.depth-- }()
	p.pos++ // [
	out := []any{}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated array")
		}
		if p.src[p.pos] == ']' {
			p.pos++
			return out, nil
		}
		if len(out) > 0 {
			if p.src[p.pos] != ',' {
				return nil, p.errorf("expected ',' or ']'")
			}
			p.pos++
			p.skipSpace()
			// tolerate a trailing comma
			if p.pos < len(p.src) && p.src[p.pos] == ']' {
				p.pos++
				return out, nil
			}
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func (p *jsParser) str() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			if p.pos+1 >= len(p.src) {
				return "", p.errorf("unterminated escape")
			}
			p.pos++
			switch e := p.src[p.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(e)
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errorf("unterminated string")
}
