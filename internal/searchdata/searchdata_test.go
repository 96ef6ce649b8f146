package searchdata

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/docindex-cli/internal/symbols"
)

func TestEncodeKey(t *testing.T) {
	cases := map[string]string{
		"operator==": "operator_3d_3d",
		"operator!=": "operator_21_3d",
		"operator()": "operator_28_29",
		"operator+=": "operator_2b_3d",
		"operator[]": "operator_5b_5d",
		"operator<<": "operator_3c_3c",
		"ORDERED":    "ordered",
		"~Vector":    "_7evector",
		"push_back":  "push_5fback",
		"size":       "size",
	}
	for label, want := range cases {
		assert.Equal(t, want, EncodeKey(label), label)
		assert.Equal(t, want, EncodeKey(label), "stable for %s", label)
	}
}

func TestEscapeHTML_RoundTrip(t *testing.T) {
	raw := "Concept::operator<<(std::ostream &os, const String< N > &str)"
	esc := EscapeHTML(raw)
	assert.Equal(t, "Concept::operator&lt;&lt;(std::ostream &amp;os, const String&lt; N &gt; &amp;str)", esc)
	assert.Equal(t, raw, UnescapeHTML(esc))

	tricky := "a &lt; b"
	assert.Equal(t, tricky, UnescapeHTML(EscapeHTML(tricky)))
}

func fn(scope, name, args string) symbols.Symbol {
	s := symbols.Symbol{Name: name, Scope: scope, Args: args, Kind: symbols.KindFunction}
	s.Resolve()
	return s
}

func TestBuild_OperatorEqualsExample(t *testing.T) {
	syms := []symbols.Symbol{
		fn("Concept::String", "operator==", "(const char *cstr) const"),
		fn("Concept::Vector", "operator==", "()"),
	}
	idx, err := Build(syms, BuildOptions{URLPrefix: DefaultURLPrefix})
	require.NoError(t, err)
	require.Len(t, idx.Entries, 1)

	e := idx.Entries[0]
	assert.Equal(t, "operator_3d_3d", e.Key)
	assert.Equal(t, "operator==", e.Label)
	require.Len(t, e.Occurrences, 2)
	assert.Equal(t, "Concept::String::operator==(const char *cstr) const", e.Occurrences[0].Owner)
	assert.Equal(t, "Concept::Vector::operator==()", e.Occurrences[1].Owner)
	assert.True(t, strings.HasPrefix(e.Occurrences[0].URL, "../class_concept_1_1_string.html#a"))
	assert.Empty(t, Validate(idx))
}

func TestBuild_ShortOwnersAbbreviatesUniqueOverloads(t *testing.T) {
	syms := []symbols.Symbol{
		fn("Concept::Vector", "operator[]", "(size_t pos)"),
		fn("Concept::Vector", "operator[]", "(size_t pos) const"),
		fn("Concept::String", "operator[]", "(size_t pos) const"),
	}
	idx, err := Build(syms, BuildOptions{URLPrefix: "../", ShortOwners: true})
	require.NoError(t, err)
	require.Len(t, idx.Entries, 1)

	var owners []string
	for _, o := range idx.Entries[0].Occurrences {
		owners = append(owners, o.Owner)
	}
	assert.Equal(t, []string{
		"Concept::Vector::operator[](size_t pos)",
		"Concept::Vector::operator[](size_t pos) const",
		"Concept::String::operator[]()",
	}, owners)
}

func TestBuild_SortsAndDisambiguates(t *testing.T) {
	ordered := symbols.Symbol{Name: "ORDERED", Scope: "Concept::Vector", Kind: symbols.KindEnumerator}
	lower := symbols.Symbol{Name: "ordered", Scope: "Concept::Sort", Kind: symbols.KindFunction, Args: "()"}
	syms := []symbols.Symbol{
		fn("Concept::Vector", "size", "() const"),
		ordered,
		lower,
		fn("Concept::String", "operator!=", "(const char *cstr) const"),
		ordered,
	}
	idx, err := Build(syms, BuildOptions{URLPrefix: "../"})
	require.NoError(t, err)

	var keys []string
	for _, e := range idx.Entries {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"operator_21_3d", "ordered_0", "ordered_1", "size"}, keys)

	e, ok := idx.Lookup("ordered_0")
	require.True(t, ok)
	assert.Equal(t, "ORDERED", e.Label)
	require.Len(t, e.Occurrences, 1, "duplicate occurrences collapse")
	assert.Equal(t, "Concept::Vector", e.Occurrences[0].Owner)

	assert.Empty(t, Validate(idx))
}

func TestBuild_RejectsInvalidSymbol(t *testing.T) {
	_, err := Build([]symbols.Symbol{{Name: "", Kind: symbols.KindFunction}}, BuildOptions{})
	assert.Error(t, err)
}

func TestWriteJS_Format(t *testing.T) {
	idx := &Index{Entries: []Entry{
		{Key: "operator_3c", Label: "operator<", Occurrences: []Occurrence{
			{URL: "../class_concept_1_1_string.html#a3289", Local: true, Owner: "Concept::String"},
		}},
		{Key: "quote", Label: "it's", Occurrences: []Occurrence{
			{URL: "../x.html#a1", Local: false, Owner: `a\b`},
			{URL: "../x.html#a2", Local: true, Owner: "Vector< T, N > &"},
		}},
	}}
	var buf bytes.Buffer
	require.NoError(t, idx.WriteJS(&buf))

	want := "var searchData=\n[\n" +
		"  ['operator_3c',['operator&lt;',['../class_concept_1_1_string.html#a3289',1,'Concept::String']]],\n" +
		"  ['quote',['it\\'s',['../x.html#a1',0,'a\\\\b'],['../x.html#a2',1,'Vector&lt; T, N &gt; &amp;']]]\n" +
		"];\n"
	assert.Equal(t, want, buf.String())

	back, err := ParseJS(&buf)
	require.NoError(t, err)
	assert.Equal(t, idx.Entries, back.Entries)
}

func TestParseJS_DoxygenOutputRoundTrip(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "doxygen_all_c.js"))
	require.NoError(t, err)

	idx, err := ParseJS(bytes.NewReader(raw))
	require.NoError(t, err)
	require.NotEmpty(t, idx.Entries)
	assert.Empty(t, Validate(idx))

	e, ok := idx.Lookup("operator_3d_3d")
	require.True(t, ok)
	assert.Equal(t, "operator==", e.Label)
	require.Len(t, e.Occurrences, 4)
	assert.Equal(t, "Concept::String::operator==(const String< N > &other) const", e.Occurrences[1].Owner)
	assert.Equal(t, "Concept::Vector::operator==()", e.Occurrences[2].Owner)

	var out bytes.Buffer
	require.NoError(t, idx.WriteJS(&out))
	assert.Equal(t, string(raw), out.String(), "rewriting doxygen output is byte-identical")
}

func TestParseJS_TwoFieldOccurrences(t *testing.T) {
	src := `var searchData=[['size',['size',['../a.html#x','Concept::Vector::size()']]]];`
	idx, err := ParseJS(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, idx.Entries, 1)
	assert.True(t, idx.Entries[0].Occurrences[0].Local)
	assert.Equal(t, "Concept::Vector::size()", idx.Entries[0].Occurrences[0].Owner)
}

func TestParseJS_Malformed(t *testing.T) {
	for _, src := range []string{
		"",
		"var other=[];",
		"var searchData=[['k',['l',['u',1,'o']]]",
		"var searchData=[['k']];",
		"var searchData={};",
		"var searchData=[]; extra",
	} {
		_, err := ParseJS(strings.NewReader(src))
		assert.ErrorIs(t, err, ErrMalformedIndex, src)
	}
}

func TestValidate_ReportsViolations(t *testing.T) {
	src := "var searchData=\n[\n" +
		"  ['size',['size']],\n" +
		"  ['operator_3c',['operator<',['../a.html#x',1,'A::operator<']]],\n" +
		"  ['bogus',['label',['not-a-page',1,'A']]]\n" +
		"];\n"
	idx, err := ParseJS(strings.NewReader(src))
	require.NoError(t, err)

	var msgs []string
	for _, p := range Validate(idx) {
		msgs = append(msgs, p.String())
	}
	joined := strings.Join(msgs, "\n")
	assert.Contains(t, joined, "size: no occurrences")
	assert.Contains(t, joined, "key is not strictly after")
	assert.Contains(t, joined, "does not encode label")
	assert.Contains(t, joined, "does not match page.html#id")
	assert.Contains(t, joined, "unescaped markup")
}

func TestWriteDir_SectionsAndLoadDir(t *testing.T) {
	syms := []symbols.Symbol{
		fn("Concept::Vector", "size", "() const"),
		fn("Concept::String", "operator==", "(const char *cstr) const"),
		fn("Concept::Vector", "operator==", "()"),
		{Name: "~Vector", Scope: "Concept::Vector", Args: "()", Kind: symbols.KindFunction},
	}
	idx, err := Build(syms, BuildOptions{URLPrefix: "../"})
	require.NoError(t, err)
	assert.Equal(t, "_os", idx.Sections())

	dir := filepath.Join(t.TempDir(), "search")
	require.NoError(t, WriteDir(dir, idx, Manifest{URLPrefix: "../"}))

	for _, name := range []string{"all_0.js", "all_1.js", "all_2.js", "searchdata.js", "index_manifest.json"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	sections, err := os.ReadFile(filepath.Join(dir, "searchdata.js"))
	require.NoError(t, err)
	assert.Contains(t, string(sections), `0: "_os"`)

	loaded, m, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, idx.Entries, loaded.Entries)
	assert.Equal(t, 3, m.Entries)
	assert.Len(t, m.Files, 4)
}

func TestGenerate_IdempotentAndIncremental(t *testing.T) {
	syms := []symbols.Symbol{
		fn("Concept::String", "operator==", "(const char *cstr) const"),
		fn("Concept::Vector", "operator==", "()"),
	}
	out := filepath.Join(t.TempDir(), "html", "search")
	opts := GenerateOptions{OutDir: out, URLPrefix: "../"}

	res, err := Generate(context.Background(), syms, opts)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	first, err := os.ReadFile(filepath.Join(out, "all_0.js"))
	require.NoError(t, err)

	res, err = Generate(context.Background(), syms, opts)
	require.NoError(t, err)
	assert.True(t, res.Skipped, "unchanged inputs are not regenerated")

	opts.Force = true
	res, err = Generate(context.Background(), syms, opts)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	second, err := os.ReadFile(filepath.Join(out, "all_0.js"))
	require.NoError(t, err)
	assert.Equal(t, first, second, "regeneration is byte-identical")

	_, err = os.Stat(out + ".bak")
	assert.True(t, os.IsNotExist(err))
}

func TestGenerate_RequiresInputs(t *testing.T) {
	_, err := Generate(context.Background(), nil, GenerateOptions{OutDir: t.TempDir()})
	assert.Error(t, err)
	_, err = Generate(context.Background(), []symbols.Symbol{fn("A", "b", "()")}, GenerateOptions{})
	assert.Error(t, err)
}

func TestWriteFile_SingleFile(t *testing.T) {
	idx, err := Build([]symbols.Symbol{fn("Concept::Vector", "size", "() const")}, BuildOptions{URLPrefix: "../"})
	require.NoError(t, err)

	p := filepath.Join(t.TempDir(), "search", "all_0.js")
	require.NoError(t, WriteFile(p, idx))
	require.NoError(t, WriteFile(p, idx))

	loaded, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, idx.Entries, loaded.Entries)
}

func TestGenerate_LockedOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "search")
	require.NoError(t, os.MkdirAll(filepath.Dir(out), 0o755))

	held := flock.New(out + ".lock")
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)

	busy, err := LockHeld(out)
	require.NoError(t, err)
	assert.True(t, busy)

	_, err = Generate(context.Background(), []symbols.Symbol{fn("A", "b", "()")},
		GenerateOptions{OutDir: out, LockTimeout: 300 * time.Millisecond})
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, held.Unlock())
	busy, err = LockHeld(out)
	require.NoError(t, err)
	assert.False(t, busy)
}

func TestLeftovers(t *testing.T) {
	parent := t.TempDir()
	out := filepath.Join(parent, "search")

	left, err := Leftovers(out)
	require.NoError(t, err)
	assert.Empty(t, left)

	require.NoError(t, os.Mkdir(filepath.Join(parent, ".searchdata-123"), 0o755))
	require.NoError(t, os.Mkdir(out+".bak", 0o755))
	left, err = Leftovers(out)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(parent, ".searchdata-123"), out + ".bak"}, left)
}

func TestValidate_KeySuffixNeedsSharedLabel(t *testing.T) {
	occ := []Occurrence{{URL: "../a.html#x", Local: true, Owner: "A"}}
	idx := &Index{Entries: []Entry{{Key: "operator_28_29", Label: "operator(", Occurrences: occ}}}
	problems := Validate(idx)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0].Msg, "does not encode label")

	idx = &Index{Entries: []Entry{{Key: "size_0", Label: "size", Occurrences: occ}}}
	assert.Len(t, Validate(idx), 1, "suffix on a key no other label shares")

	idx = &Index{Entries: []Entry{
		{Key: "ordered_0", Label: "ORDERED", Occurrences: occ},
		{Key: "ordered_1", Label: "ordered", Occurrences: occ},
	}}
	assert.Empty(t, Validate(idx))
}

func TestParseJS_RawAmpersand(t *testing.T) {
	src := "var searchData=\n[\n  ['f',['f',['../a.html#x',1,'A::f(int &x)']]]\n];\n"
	idx, err := ParseJS(strings.NewReader(src))
	require.NoError(t, err)
	problems := Validate(idx)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0].Msg, "unescaped markup")

	src = "var searchData=\n[\n  ['f',['f',['../a.html#x',1,'A::f(int &amp;x, B&lt;C&gt;)']]]\n];\n"
	idx, err = ParseJS(strings.NewReader(src))
	require.NoError(t, err)
	assert.Empty(t, Validate(idx))
}

func TestParseJS_NestingLimit(t *testing.T) {
	src := "var searchData=" + strings.Repeat("[", 10000) + strings.Repeat("]", 10000) + ";"
	_, err := ParseJS(strings.NewReader(src))
	assert.ErrorIs(t, err, ErrMalformedIndex)
}

func TestBuild_ShortOwnersIgnoresRepeatedDeclarations(t *testing.T) {
	// in-class declaration and out-of-class definition
	decl := fn("Concept::Vector", "size", "() const")
	idx, err := Build([]symbols.Symbol{decl, decl}, BuildOptions{URLPrefix: "../", ShortOwners: true})
	require.NoError(t, err)
	require.Len(t, idx.Entries, 1)
	require.NotEmpty(t, idx.Entries[0].Occurrences)
	for _, o := range idx.Entries[0].Occurrences {
		assert.Equal(t, "Concept::Vector::size()", o.Owner)
	}
}
