package cppscan

import "strings"

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isOperator(name string) bool {
	return strings.HasPrefix(name, "operator") && len(name) > len("operator") && !isIdentChar(name[len("operator")])
}

// normalizeOperator drops the blanks tree-sitter keeps inside symbolic
// operator names: "operator ==" becomes "operator==". Named operators keep
// one space: "operator new", "operator bool".
func normalizeOperator(name string) string {
	if !isOperator(name) {
		return name
	}
	rest := strings.TrimSpace(name[len("operator"):])
	if rest != "" && isIdentChar(rest[0]) {
		return "operator " + rest
	}
	return "operator" + strings.ReplaceAll(rest, " ", "")
}

// splitQualified splits "Vector<T, N>::operator[]" into ("Vector",
// "operator[]"). Template arguments are dropped from both parts except
// inside operator names.
func splitQualified(s string) (qualifier, name string) {
	if i := operatorStart(s); i >= 0 {
		return stripTemplateArgs(strings.TrimSuffix(s[:i], "::")), s[i:]
	}
	depth := 0
	last := -1
	for i := 0; i+1 < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ':':
			if depth == 0 && s[i+1] == ':' {
				last = i
				i++
			}
		}
	}
	if last < 0 {
		return "", stripTemplateArgs(s)
	}
	return stripTemplateArgs(s[:last]), stripTemplateArgs(s[last+2:])
}

// operatorStart returns the offset of an operator name that is either the
// whole string or the last qualified component, or -1.
func operatorStart(s string) int {
	if isOperator(s) {
		return 0
	}
	for i := strings.Index(s, "::operator"); i >= 0; {
		if isOperator(s[i+2:]) {
			return i + 2
		}
		next := strings.Index(s[i+2:], "::operator")
		if next < 0 {
			break
		}
		i += 2 + next
	}
	return -1
}

// stripTemplateArgs removes every <...> group: "Vector<T, N>" → "Vector".
func stripTemplateArgs(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	var b strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '<':
			depth++
		case c == '>' && depth > 0:
			depth--
		case depth == 0:
			b.WriteByte(c)
		}
	}
	return strings.TrimSpace(b.String())
}

func lastComponent(q string) string {
	if i := strings.LastIndex(q, "::"); i >= 0 {
		return q[i+2:]
	}
	return q
}

func parentScope(q string) string {
	if i := strings.LastIndex(q, "::"); i >= 0 {
		return q[:i]
	}
	return ""
}

func joinScope(outer, inner string) string {
	switch {
	case inner == "":
		return outer
	case outer == "":
		return inner
	}
	return outer + "::" + inner
}
