package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/docindex-cli/internal/searchdata"
	"github.com/kamusis/docindex-cli/internal/symbols"
)

func testIndex(t *testing.T) *searchdata.Index {
	t.Helper()
	syms := []symbols.Symbol{
		{Name: "String", Scope: "Concept", Kind: symbols.KindClass},
		{Name: "operator==", Scope: "Concept::String", Args: "(const char *cstr) const", Kind: symbols.KindFunction},
		{Name: "operator!=", Scope: "Concept::String", Args: "(const char *cstr) const", Kind: symbols.KindFunction},
		{Name: "size", Scope: "Concept::String", Args: "() const", Kind: symbols.KindFunction},
		{Name: "resize", Scope: "Concept::Vector", Args: "(size_t n)", Kind: symbols.KindFunction},
		{Name: "sizeInBytes", Scope: "Concept::Vector", Args: "() const", Kind: symbols.KindFunction},
	}
	for i := range syms {
		syms[i].Resolve()
	}
	idx, err := searchdata.Build(syms, searchdata.BuildOptions{})
	require.NoError(t, err)
	return idx
}

func keys(rs []Result) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Entry.Key)
	}
	return out
}

func TestKeywordSearch_RanksExactThenPrefix(t *testing.T) {
	rs := KeywordSearch(testIndex(t), "size", 0)
	assert.Equal(t, []string{"size", "sizeinbytes", "resize"}, keys(rs))
	assert.Equal(t, WhyExact, rs[0].Why)
	assert.Equal(t, WhyPrefix, rs[1].Why)
	assert.Equal(t, WhySubstring, rs[2].Why)
}

func TestKeywordSearch_EncodesOperators(t *testing.T) {
	rs := KeywordSearch(testIndex(t), "operator==", 0)
	require.Len(t, rs, 1)
	assert.Equal(t, "operator_3d_3d", rs[0].Entry.Key)
	assert.Equal(t, "operator==", rs[0].Entry.Label)
	require.Len(t, rs[0].Entry.Occurrences, 1)
	assert.Equal(t, "Concept::String::operator==(const char *cstr) const", rs[0].Entry.Occurrences[0].Owner)

	rs = KeywordSearch(testIndex(t), "Operator", 0)
	assert.Equal(t, []string{"operator_21_3d", "operator_3d_3d"}, keys(rs))
}

func TestKeywordSearch_AllTokensMustMatch(t *testing.T) {
	assert.Equal(t, []string{"sizeinbytes"}, keys(KeywordSearch(testIndex(t), "size bytes", 0)))
	assert.Empty(t, KeywordSearch(testIndex(t), "size vector", 0))
}

func TestKeywordSearch_LimitAndEmpty(t *testing.T) {
	assert.Len(t, KeywordSearch(testIndex(t), "s", 2), 2)
	assert.Empty(t, KeywordSearch(testIndex(t), "   ", 10))
	assert.Empty(t, KeywordSearch(nil, "size", 10))
}

func TestKeywordSearch_HexEscapeIsNotASuffix(t *testing.T) {
	syms := []symbols.Symbol{
		{Name: "operator()", Scope: "Concept::FowlerNollVoHash", Args: "(const char *buffer, size_t len) const", Kind: symbols.KindFunction},
		{Name: "x!", Scope: "Concept", Kind: symbols.KindVariable},
		{Name: "ORDERED", Scope: "Concept::Vector", Kind: symbols.KindEnumerator},
		{Name: "ordered", Scope: "Concept", Args: "()", Kind: symbols.KindFunction},
	}
	for i := range syms {
		syms[i].Resolve()
	}
	idx, err := searchdata.Build(syms, searchdata.BuildOptions{})
	require.NoError(t, err)

	rs := KeywordSearch(idx, "operator(", 0)
	require.Len(t, rs, 1)
	assert.Equal(t, "operator_28_29", rs[0].Entry.Key)
	assert.Equal(t, WhyPrefix, rs[0].Why)

	rs = KeywordSearch(idx, "x", 0)
	require.NotEmpty(t, rs)
	for _, r := range rs {
		assert.NotEqual(t, WhyExact, r.Why, r.Entry.Key)
	}

	rs = KeywordSearch(idx, "ordered", 0)
	assert.Equal(t, []string{"ordered_0", "ordered_1"}, keys(rs))
	for _, r := range rs {
		assert.Equal(t, WhyExact, r.Why, "disambiguated keys still match exactly")
	}
}
