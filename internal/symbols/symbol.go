// Package symbols defines the documented-symbol records that feed the search
// index, plus the doxygen page and anchor naming rules.
package symbols

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// Kind classifies a documented symbol.
type Kind string

const (
	KindNamespace  Kind = "namespace"
	KindClass      Kind = "class"
	KindStruct     Kind = "struct"
	KindFile       Kind = "file"
	KindFunction   Kind = "function"
	KindEnum       Kind = "enum"
	KindEnumerator Kind = "enumerator"
	KindTypedef    Kind = "typedef"
	KindVariable   Kind = "variable"
)

// IsCompound reports whether symbols of this kind own a page of their own.
func (k Kind) IsCompound() bool {
	switch k {
	case KindNamespace, KindClass, KindStruct, KindFile:
		return true
	}
	return false
}

// Symbol is one documented location of a name.
type Symbol struct {
	Name  string `yaml:"name" json:"name" toml:"name"`
	Scope string `yaml:"scope,omitempty" json:"scope,omitempty" toml:"scope"`

	// ScopeKind is the kind of Scope; empty means class.
	ScopeKind Kind   `yaml:"scope_kind,omitempty" json:"scope_kind,omitempty" toml:"scope_kind"`
	Args      string `yaml:"args,omitempty" json:"args,omitempty" toml:"args"`
	Kind      Kind   `yaml:"kind" json:"kind" toml:"kind"`
	File      string `yaml:"file,omitempty" json:"file,omitempty" toml:"file"`
	Page      string `yaml:"page,omitempty" json:"page,omitempty" toml:"page"`
	Anchor    string `yaml:"anchor,omitempty" json:"anchor,omitempty" toml:"anchor"`
}

// Qualified returns scope::name, or name when the symbol has no scope.
func (s Symbol) Qualified() string {
	if s.Scope == "" {
		return s.Name
	}
	return s.Scope + "::" + s.Name
}

// Owner returns the owner description shown next to an occurrence: the
// qualified name followed by the raw signature for functions.
//
// With short set, a function's argument list is abbreviated to "()". Doxygen
// does this for functions that have no overload in their scope.
func (s Symbol) Owner(short bool) string {
	switch {
	case s.Kind.IsCompound():
		return s.Qualified()
	case s.Kind == KindEnumerator:
		if s.Scope == "" {
			return s.Name
		}
		return s.Scope
	case s.Kind == KindFunction:
		if short || s.Args == "" {
			return s.Qualified() + "()"
		}
		return s.Qualified() + s.Args
	}
	return s.Qualified()
}

// OverloadKey identifies the overload set a function belongs to.
func (s Symbol) OverloadKey() string {
	return string(s.Kind) + "\x00" + s.Qualified()
}

// URL returns the page-relative anchor URL with prefix prepended to the page.
func (s Symbol) URL(prefix string) string {
	return prefix + s.Page + "#" + s.Anchor
}

// Resolve fills in Page and Anchor when they are empty.
func (s *Symbol) Resolve() {
	if s.Page == "" {
		s.Page = DefaultPage(*s)
	}
	if s.Anchor == "" {
		s.Anchor = AnchorID(*s)
	}
}

// Validate reports missing mandatory fields.
func (s Symbol) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("symbol has empty name (scope %q)", s.Scope)
	}
	switch s.Kind {
	case KindNamespace, KindClass, KindStruct, KindFile, KindFunction,
		KindEnum, KindEnumerator, KindTypedef, KindVariable:
	default:
		return fmt.Errorf("symbol %s: unknown kind %q", s.Qualified(), s.Kind)
	}
	switch s.ScopeKind {
	case "", KindNamespace, KindClass, KindStruct:
	default:
		return fmt.Errorf("symbol %s: scope_kind must be namespace, class or struct, got %q", s.Qualified(), s.ScopeKind)
	}
	return nil
}

// DefaultPage returns the html page a symbol is documented on.
//
// Compounds get their own page and class members live on their class page.
// Namespace members go to their declaring file's page, or to the namespace
// page when no file is known. Unscoped symbols go to the file page.
func DefaultPage(s Symbol) string {
	if s.Kind.IsCompound() {
		return PageName(s.Kind, s.Qualified())
	}
	if s.Scope != "" && s.ScopeKind == KindNamespace {
		if s.File != "" {
			return PageName(KindFile, fileBase(s.File))
		}
		return PageName(KindNamespace, s.Scope)
	}
	if s.Scope != "" {
		kind := s.ScopeKind
		if kind == "" {
			kind = KindClass
		}
		return PageName(kind, s.Scope)
	}
	if s.File != "" {
		return PageName(KindFile, fileBase(s.File))
	}
	return PageName(KindFile, "globals")
}

func fileBase(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// PageName returns the doxygen html file name for a compound.
//
//	class   Concept::String  → class_concept_1_1_string.html
//	file    String.hpp       → _string_8hpp.html
func PageName(kind Kind, qualified string) string {
	prefix := ""
	switch kind {
	case KindClass:
		prefix = "class"
	case KindStruct:
		prefix = "struct"
	case KindNamespace:
		prefix = "namespace"
	}
	return prefix + EscapeFileName(qualified) + ".html"
}

var fileNameEscapes = map[rune]string{
	'_': "__",
	':': "_1",
	'/': "_2",
	'<': "_3",
	'>': "_4",
	'*': "_5",
	'&': "_6",
	'|': "_7",
	'.': "_8",
	'!': "_9",
	',': "_00",
	' ': "_01",
	'{': "_02",
	'}': "_03",
	'?': "_04",
	'^': "_05",
	'%': "_06",
	'(': "_07",
	')': "_08",
	'+': "_09",
	'=': "_0a",
	'$': "_0b",
	'\\': "_0c",
	'@': "_0d",
	']': "_0e",
	'[': "_0f",
	'#': "_0g",
	'"': "_0h",
	'~': "_0i",
	'\'': "_0j",
	';': "_0k",
	'`': "_0l",
}

// EscapeFileName applies doxygen's case-insensitive file-name escaping.
func EscapeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if e, ok := fileNameEscapes[r]; ok {
			b.WriteString(e)
			continue
		}
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		if r < 0x80 {
			b.WriteRune(r)
			continue
		}
		for _, c := range []byte(string(r)) {
			fmt.Fprintf(&b, "_%02x", c)
		}
	}
	return b.String()
}

// AnchorID returns a deterministic anchor id for a symbol.
func AnchorID(s Symbol) string {
	if s.Kind.IsCompound() {
		return "details"
	}
	sum := md5.Sum([]byte(string(s.Kind) + ":" + s.Qualified() + s.Args))
	return fmt.Sprintf("a%x", sum[:])
}
