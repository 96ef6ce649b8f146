package concept

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cuisines = []string{
	"Indian",
	"Thai",
	"Sushi",
	"Caribbean",
	"Italian",
	"West Indian",
	"Pub",
	"East Asian",
	"BBQ",
	"Chinese",
	"Portuguese",
	"Spanish",
	"French",
	"East European",
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "i would like some thai food", Normalize(" I would   like, some thai food ! "))
	assert.Equal(t, "", Normalize(" ?! "))
	assert.Equal(t, "École", Normalize("ÉCOLE"))
	assert.Equal(t, "a b", Normalize("a, b"))
	assert.Equal(t, "ab", Normalize("a ,b"))
}

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"west", "indian", "food"}, Words("  west indian\x00food "))
	assert.Empty(t, Words("   "))
}

func TestExtract(t *testing.T) {
	e := New(cuisines...)

	cases := []struct {
		input string
		want  []string
	}{
		{"I would like some thai food", []string{"Thai"}},
		{"Where can I find good sushi", []string{"Sushi"}},
		{"Find me a place that does tapas", []string{}},
		{"Which restaurants do East Asian food", []string{"East Asian"}},
		{"Which restaurants do West Indian food", []string{"West Indian", "Indian"}},
		{"What is the weather like today", []string{}},
		{"east!", []string{}},
		{"BBQ, Pub; or French?", []string{"BBQ", "Pub", "French"}},
	}
	for _, c := range cases {
		t.Run(c.input, func(t *testing.T) {
			assert.Equal(t, c.want, e.Extract(c.input))
		})
	}
}

func TestExtract_ConceptAtEndOfText(t *testing.T) {
	e := New("East European", "East")
	assert.Equal(t, []string{"East"}, e.Extract("far east"))
	assert.Equal(t, []string{"East", "East European"}, e.Extract("east european"))
}

func TestAdd_IgnoresBlankAndKeepsLatestCase(t *testing.T) {
	e := New("", "   ", "thai", "Thai")
	assert.Equal(t, 1, e.Len())
	assert.Equal(t, []string{"Thai"}, e.Extract("THAI"))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concepts.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(cuisines, "\r\n")+"\r\n\r\n"), 0o644))

	e, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, len(cuisines), e.Len())
	assert.Equal(t, []string{"West Indian", "Indian"}, e.Extract("west indian"))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "long.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", MaxConceptLength*2)), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrConceptTooLong)
}
