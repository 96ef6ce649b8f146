package concept

import "strings"

func isSeparator(c byte) bool { return c == ' ' || c == 0 }

func isPunctuation(c byte) bool {
	switch c {
	case ',', ';', '.', '!', '?':
		return true
	}
	return false
}

// LowerASCII lowercases A-Z and leaves every other byte untouched.
func LowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

// Normalize lowercases ASCII letters and removes punctuation together with
// separators that lead, trail, repeat or precede punctuation.
//
//	" I would   like, some thai food ! " -> "i would like some thai food"
func Normalize(text string) string {
	src := LowerASCII(text)
	var b strings.Builder
	b.Grow(len(src))
	for i := 0; i < len(src); i++ {
		c := src[i]
		if isPunctuation(c) {
			continue
		}
		if isSeparator(c) {
			if i == 0 || i == len(src)-1 {
				continue
			}
			if next := src[i+1]; isSeparator(next) || isPunctuation(next) {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Words splits text on separators, dropping empty words.
func Words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool { return r == ' ' || r == 0 })
}
