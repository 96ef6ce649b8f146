package cppscan

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kamusis/docindex-cli/internal/symbols"
)

// scope is the lexical context a node is visited in.
type scope struct {
	name   string // qualified name, "" at file level
	class  bool
	page   string // compound page when class is set
	access string
}

func (sc scope) qualify(name string) string {
	if sc.name == "" {
		return name
	}
	return sc.name + "::" + name
}

type walker struct {
	src            []byte
	file           string
	page           string
	includePrivate bool
	namespaces     map[string]bool
	out            []symbols.Symbol
}

func (w *walker) emit(s symbols.Symbol) {
	s.File = w.file
	s.Resolve()
	w.out = append(w.out, s)
}

func (w *walker) text(n *sitter.Node) string {
	return collapseSpace(n.Content(w.src))
}

func (w *walker) visible(sc scope) bool {
	return w.includePrivate || sc.access != "private"
}

// pageFor returns the page documenting members of sc. Namespace members are
// documented on the file page.
func (w *walker) pageFor(sc scope, qualifier string) string {
	switch {
	case qualifier != "":
		return symbols.PageName(symbols.KindClass, sc.qualify(qualifier))
	case sc.class:
		return sc.page
	}
	return w.page
}

func (w *walker) visit(n *sitter.Node, sc scope) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "preproc_ifdef", "preproc_if", "preproc_else", "preproc_elif",
			"template_declaration", "declaration_list":
			w.visit(child, sc)
		case "linkage_specification":
			if body := child.ChildByFieldName("body"); body != nil {
				w.visit(body, sc)
			}
		case "namespace_definition":
			w.namespace(child, sc)
		case "access_specifier":
			sc.access = strings.TrimSuffix(w.text(child), ":")
		case "class_specifier", "struct_specifier", "union_specifier":
			w.class(child, sc)
		case "enum_specifier":
			w.enum(child, sc)
		case "function_definition", "declaration", "field_declaration":
			w.declaration(child, sc)
		case "type_definition":
			w.typedef(child, sc)
		case "alias_declaration":
			if name := child.ChildByFieldName("name"); name != nil && w.visible(sc) {
				w.emit(symbols.Symbol{Name: w.text(name), Scope: sc.name, Kind: symbols.KindTypedef, Page: w.pageFor(sc, "")})
			}
		}
	}
}

func (w *walker) namespace(n *sitter.Node, sc scope) {
	inner := sc
	if name := n.ChildByFieldName("name"); name != nil {
		q := sc.qualify(w.text(name))
		if !w.namespaces[q] {
			w.namespaces[q] = true
			w.emit(symbols.Symbol{Name: lastComponent(q), Scope: parentScope(q), Kind: symbols.KindNamespace})
		}
		inner = scope{name: q, access: "public"}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		w.visit(body, inner)
	}
}

func (w *walker) class(n *sitter.Node, sc scope) {
	body := n.ChildByFieldName("body")
	if body == nil || !w.visible(sc) {
		return
	}
	access := "public"
	kind := symbols.KindStruct
	if n.Type() == "class_specifier" {
		access = "private"
		kind = symbols.KindClass
	}

	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		// anonymous aggregate: members belong to the enclosing scope
		w.visit(body, scope{name: sc.name, class: sc.class, page: sc.page, access: access})
		return
	}
	q := sc.qualify(stripTemplateArgs(w.text(nameNode)))
	w.emit(symbols.Symbol{Name: lastComponent(q), Scope: parentScope(q), Kind: kind})
	w.visit(body, scope{name: q, class: true, page: symbols.PageName(kind, q), access: access})
}

func (w *walker) enum(n *sitter.Node, sc scope) {
	body := n.ChildByFieldName("body")
	if body == nil || !w.visible(sc) {
		return
	}
	page := w.pageFor(sc, "")
	if name := n.ChildByFieldName("name"); name != nil {
		w.emit(symbols.Symbol{Name: w.text(name), Scope: sc.name, Kind: symbols.KindEnum, Page: page})
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		e := body.NamedChild(i)
		if e.Type() != "enumerator" {
			continue
		}
		if name := e.ChildByFieldName("name"); name != nil {
			w.emit(symbols.Symbol{Name: w.text(name), Scope: sc.name, Kind: symbols.KindEnumerator, Page: page})
		}
	}
}

func (w *walker) typedef(n *sitter.Node, sc scope) {
	if !w.visible(sc) {
		return
	}
	decl := n.ChildByFieldName("declarator")
	if decl == nil {
		return
	}
	decl = unwrapDeclarator(decl)
	if decl.Type() != "type_identifier" {
		return
	}
	w.emit(symbols.Symbol{Name: w.text(decl), Scope: sc.name, Kind: symbols.KindTypedef, Page: w.pageFor(sc, "")})
}

func (w *walker) declaration(n *sitter.Node, sc scope) {
	if !w.visible(sc) {
		return
	}
	if typ := n.ChildByFieldName("type"); typ != nil {
		switch typ.Type() {
		case "class_specifier", "struct_specifier", "union_specifier":
			w.class(typ, sc)
		case "enum_specifier":
			w.enum(typ, sc)
		}
	}

	decl := n.ChildByFieldName("declarator")
	if decl == nil {
		return
	}
	decl = unwrapDeclarator(decl)

	switch decl.Type() {
	case "function_declarator":
		nameNode := decl.ChildByFieldName("declarator")
		params := decl.ChildByFieldName("parameters")
		if nameNode == nil || params == nil {
			return
		}
		if nameNode.Type() == "operator_cast" {
			w.conversion(nameNode, decl, sc)
			return
		}
		qualifier, name := splitQualified(w.text(nameNode))
		if name == "" {
			return
		}
		args := collapseSpace(string(w.src[params.StartByte():decl.EndByte()]))
		w.emit(symbols.Symbol{
			Name:  normalizeOperator(name),
			Scope: joinScope(sc.name, qualifier),
			Args:  args,
			Kind:  symbols.KindFunction,
			Page:  w.pageFor(sc, qualifier),
		})
	case "operator_cast":
		w.conversion(decl, decl, sc)
	case "field_identifier", "identifier":
		if n.Type() == "function_definition" {
			return
		}
		w.emit(symbols.Symbol{
			Name:  w.text(decl),
			Scope: sc.name,
			Kind:  symbols.KindVariable,
			Page:  w.pageFor(sc, ""),
		})
	}
}

// conversion emits a conversion operator such as "operator bool() const".
func (w *walker) conversion(cast, outer *sitter.Node, sc scope) {
	abstract := cast.ChildByFieldName("declarator")
	if abstract == nil {
		return
	}
	name := collapseSpace(string(w.src[cast.StartByte():abstract.StartByte()]))
	args := collapseSpace(string(w.src[abstract.StartByte():outer.EndByte()]))
	w.emit(symbols.Symbol{
		Name:  name,
		Scope: sc.name,
		Args:  args,
		Kind:  symbols.KindFunction,
		Page:  w.pageFor(sc, ""),
	})
}

// unwrapDeclarator strips pointer, reference, init and parenthesized
// declarators down to the one naming the entity.
func unwrapDeclarator(n *sitter.Node) *sitter.Node {
	for {
		switch n.Type() {
		case "pointer_declarator", "reference_declarator", "init_declarator",
			"parenthesized_declarator", "attributed_declarator", "array_declarator":
			inner := n.ChildByFieldName("declarator")
			if inner == nil {
				cnt := int(n.NamedChildCount())
				if cnt == 0 {
					return n
				}
				inner = n.NamedChild(cnt - 1)
			}
			n = inner
		default:
			return n
		}
	}
}
