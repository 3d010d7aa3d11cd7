package tsfront

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/teranos/apiroll/entity"
	"github.com/teranos/apiroll/errors"
	"github.com/teranos/apiroll/logger"
	"github.com/teranos/apiroll/syntax"
)

// Export records one export of the module surface, in declaration order.
type Export struct {
	Symbol entity.SymbolID
	Name   string
}

// Module is the bound result of parsing one declaration file: the converted
// tree, the symbol arena, the export surface, and the name-binding table the
// collector resolves identifiers against.
type Module struct {
	Source      *syntax.Source
	Root        *Node
	Arena       *entity.Arena
	Exports     []Export
	StarExports []string

	bindings    map[string]entity.SymbolID
	declSym     map[*Node]entity.SymbolID
	importTypes map[string]entity.SymbolID
}

// Parse parses and binds one TypeScript declaration source. Syntax errors
// are a hard failure: the rewriting core requires a well-formed tree.
func Parse(ctx context.Context, content []byte, fileName string) (*Module, error) {
	if !utf8.Valid(content) {
		return nil, errors.Wrapf(errors.ErrParse, "%s: content is not valid UTF-8", fileName)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, errors.Wrapf(err, "tree-sitter parse of %s failed", fileName)
	}
	defer tree.Close()

	rootNode := tree.RootNode()
	if rootNode == nil {
		return nil, errors.Wrapf(errors.ErrParse, "%s: parser returned no tree", fileName)
	}
	if rootNode.HasError() {
		return nil, errors.Wrapf(errors.ErrParse, "%s contains syntax errors", fileName)
	}

	m := &Module{
		Source:      &syntax.Source{FileName: fileName, Text: string(content)},
		Root:        convert(rootNode, content),
		Arena:       entity.NewArena(),
		bindings:    make(map[string]entity.SymbolID),
		declSym:     make(map[*Node]entity.SymbolID),
		importTypes: make(map[string]entity.SymbolID),
	}

	if err := m.bindTopLevel(); err != nil {
		return nil, err
	}
	if err := m.bindExports(); err != nil {
		return nil, err
	}
	m.Arena.ResolveEffectiveTags()

	logger.Logger.Debugw("Module bound",
		logger.FieldFile, fileName,
		logger.FieldSymbols, len(m.Arena.Symbols()),
		logger.FieldDeclarations, len(m.Arena.Decls()),
		logger.FieldExports, len(m.Exports),
	)
	return m, nil
}

func (m *Module) text(n *Node) string {
	return m.Source.Text[n.pos:n.end]
}

// Resolve implements the collector's symbol-binding lookup. Qualified names
// resolve through their leading segment; anything the binding table does not
// know stays unresolved (built-ins, type parameters).
func (m *Module) Resolve(n syntax.Node) (entity.SymbolID, bool) {
	nd, ok := n.(*Node)
	if !ok {
		return 0, false
	}

	var name string
	switch n.Kind() {
	case syntax.KindIdentifier:
		name = m.text(nd)
	case syntax.KindQualifiedName:
		name, _, _ = strings.Cut(m.text(nd), ".")
	case syntax.KindImportType:
		return m.importTypeSymbol(nd)
	default:
		return 0, false
	}

	sym, bound := m.bindings[name]
	return sym, bound
}

var importTypePath = regexp.MustCompile(`import\(\s*['"]([^'"]+)['"]`)

// importTypeSymbol binds an inline import type to a synthetic star-import
// symbol for its module path. The symbol is created on first sight and cached
// so every occurrence of the same path resolves to the same binding; the
// rewriter then collapses import('mod').NS.Thing onto the synthesized import.
func (m *Module) importTypeSymbol(n *Node) (entity.SymbolID, bool) {
	match := importTypePath.FindStringSubmatch(m.text(n))
	if match == nil {
		return 0, false
	}
	path := match[1]
	if sym, ok := m.importTypes[path]; ok {
		return sym, true
	}
	sym := m.Arena.AddImportedSymbol(moduleLocalName(path), entity.ImportStar, path, "*")
	if m.importTypes == nil {
		m.importTypes = make(map[string]entity.SymbolID)
	}
	m.importTypes[path] = sym.ID
	return sym.ID, true
}

// moduleLocalName derives an identifier for a synthesized import from its
// module path: the last path segment with non-identifier runes replaced.
func moduleLocalName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	name := make([]rune, 0, len(path))
	for _, r := range path {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			name = append(name, r)
		} else {
			name = append(name, '_')
		}
	}
	if len(name) == 0 || unicode.IsDigit(name[0]) {
		name = append([]rune{'_'}, name...)
	}
	return string(name)
}

// bindTopLevel is the first binding pass: register every import and every
// top-level declaration, so the export pass can resolve clause references in
// any order.
func (m *Module) bindTopLevel() error {
	for i, child := range m.Root.children {
		c := child.(*Node)
		switch c.typ {
		case "import_statement":
			m.bindImport(c)

		case "export_statement":
			inner := declarationChild(c)
			if inner == nil {
				continue
			}
			if err := m.registerDecl(inner, m.precedingDoc(m.Root, i)); err != nil {
				return err
			}

		case "ambient_declaration":
			inner := declarationChild(c)
			if inner == nil {
				continue
			}
			if err := m.registerDecl(inner, m.precedingDoc(m.Root, i)); err != nil {
				return err
			}

		default:
			if c.kind.IsDeclaration() {
				if err := m.registerDecl(c, m.precedingDoc(m.Root, i)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// declarationChild returns the declaration wrapped by an export or ambient
// statement, unwrapping one nesting level of either.
func declarationChild(n *Node) *Node {
	for _, child := range n.children {
		c := child.(*Node)
		if c.kind.IsDeclaration() {
			return c
		}
		if c.typ == "ambient_declaration" {
			return declarationChild(c)
		}
	}
	return nil
}

// registerDecl creates the symbol and declaration records for one top-level
// declaration and binds its members.
func (m *Module) registerDecl(n *Node, doc docInfo) error {
	name := declarationName(m, n)
	if name == "" {
		return errors.AssertionFailedf("tsfront: %s declaration at byte %d has no name", n.typ, n.pos)
	}

	symID, bound := m.bindings[name]
	if !bound {
		symID = m.Arena.AddSymbol(name).ID
		m.bindings[name] = symID
	}
	m.declSym[n] = symID

	d := m.Arena.AddDeclaration(symID, entity.NoDecl, n)
	doc.apply(d)

	return m.bindMembers(d, n)
}

// declarationName extracts the declared identifier for any declaration form.
func declarationName(m *Module, n *Node) string {
	switch n.typ {
	case "lexical_declaration", "variable_declaration":
		if declarator := childOfType(n, "variable_declarator"); declarator != nil {
			if id := childOfType(declarator, "identifier"); id != nil {
				return m.text(id)
			}
		}
		return ""
	}
	for _, typ := range []string{"type_identifier", "identifier", "nested_identifier", "property_identifier"} {
		if id := childOfType(n, typ); id != nil {
			return m.text(id)
		}
	}
	return ""
}

// bindMembers registers the direct members of a container declaration and
// pairs accessors. Non-container declarations have nothing to do.
func (m *Module) bindMembers(parent *entity.Declaration, n *Node) error {
	body := childOfKind(n, syntax.KindBody)
	if body == nil {
		return nil
	}

	memberSyms := make(map[string]entity.SymbolID)
	getters := make(map[string]entity.DeclID)
	setters := make(map[string]entity.DeclID)

	for i, child := range body.children {
		c := child.(*Node)

		// Bare enum members are plain property names in the grammar.
		isEnumMember := body.typ == "enum_body" && c.typ == "property_identifier"
		if !c.kind.IsMember() && !c.kind.IsDeclaration() && !isEnumMember {
			continue
		}

		var name string
		if isEnumMember {
			name = m.text(c)
		} else {
			name = memberName(m, c)
		}
		if name == "" {
			continue
		}

		symID, seen := memberSyms[name]
		if !seen {
			symID = m.Arena.AddSymbol(name).ID
			memberSyms[name] = symID
		}

		d := m.Arena.AddDeclaration(symID, parent.ID, c)
		m.precedingDoc(body, i).apply(d)

		switch c.kind {
		case syntax.KindGetAccessor:
			getters[name] = d.ID
		case syntax.KindSetAccessor:
			setters[name] = d.ID
		case syntax.KindNamespaceDecl, syntax.KindClassDecl, syntax.KindInterfaceDecl, syntax.KindEnumDecl:
			if err := m.bindNested(d, c); err != nil {
				return err
			}
		}
	}

	// A setter with a getter counterpart folds into it; a lone setter
	// stands on its own.
	for name, getter := range getters {
		if setter, ok := setters[name]; ok {
			if err := m.Arena.AttachAncillary(getter, setter); err != nil {
				return err
			}
		}
	}
	return nil
}

// bindNested mirrors bindMembers for containers nested below the top level
// (namespace contents, nested classes).
func (m *Module) bindNested(parent *entity.Declaration, n *Node) error {
	return m.bindMembers(parent, n)
}

// memberName extracts a member's declared name.
func memberName(m *Module, n *Node) string {
	switch n.typ {
	case "internal_module", "module", "class_declaration", "abstract_class_declaration",
		"interface_declaration", "type_alias_declaration", "enum_declaration",
		"function_declaration", "function_signature",
		"lexical_declaration", "variable_declaration":
		return declarationName(m, n)
	}
	if id := childOfType(n, "property_identifier"); id != nil {
		return m.text(id)
	}
	if id := childOfType(n, "identifier"); id != nil {
		return m.text(id)
	}
	return ""
}

// bindImport registers the symbols an import statement introduces.
func (m *Module) bindImport(n *Node) {
	typeOnly := childOfType(n, "type") != nil

	path := ""
	if str := childOfType(n, "string"); str != nil {
		path = stringContent(m.text(str))
	}

	if req := childOfType(n, "import_require_clause"); req != nil {
		if id := childOfType(req, "identifier"); id != nil {
			name := m.text(id)
			reqPath := path
			if str := childOfType(req, "string"); str != nil {
				reqPath = stringContent(m.text(str))
			}
			sym := m.Arena.AddImportedSymbol(name, entity.ImportEquals, reqPath, name)
			sym.TypeOnly = typeOnly
			m.bindings[name] = sym.ID
		}
		return
	}

	clause := childOfType(n, "import_clause")
	if clause == nil {
		return
	}

	for _, child := range clause.children {
		c := child.(*Node)
		switch c.typ {
		case "identifier":
			name := m.text(c)
			sym := m.Arena.AddImportedSymbol(name, entity.ImportDefault, path, "default")
			sym.TypeOnly = typeOnly
			m.bindings[name] = sym.ID

		case "namespace_import":
			if id := childOfType(c, "identifier"); id != nil {
				name := m.text(id)
				sym := m.Arena.AddImportedSymbol(name, entity.ImportStar, path, "*")
				sym.TypeOnly = typeOnly
				m.bindings[name] = sym.ID
			}

		case "named_imports":
			for _, spec := range c.children {
				s := spec.(*Node)
				if s.typ != "import_specifier" {
					continue
				}
				source, local := specifierNames(m, s)
				if source == "" {
					continue
				}
				sym := m.Arena.AddImportedSymbol(local, entity.ImportNamed, path, source)
				sym.TypeOnly = typeOnly
				m.bindings[local] = sym.ID
			}
		}
	}
}

// specifierNames returns the source-side name and local alias of an
// import_specifier or export_specifier (alias equals the name when absent).
func specifierNames(m *Module, spec *Node) (source, local string) {
	for _, child := range spec.children {
		c := child.(*Node)
		if c.typ != "identifier" && c.typ != "type_identifier" {
			continue
		}
		if source == "" {
			source = m.text(c)
			local = source
			continue
		}
		local = m.text(c)
	}
	return source, local
}

// bindExports is the second pass: now that every top-level name is bound,
// walk the export statements and record the export surface in order.
func (m *Module) bindExports() error {
	for _, child := range m.Root.children {
		c := child.(*Node)
		if c.typ != "export_statement" {
			continue
		}

		// export * from "mod";
		if childOfType(c, "*") != nil {
			if str := childOfType(c, "string"); str != nil {
				m.StarExports = append(m.StarExports, stringContent(m.text(str)))
			}
			continue
		}

		isDefault := childOfType(c, "default") != nil

		if inner := declarationChild(c); inner != nil {
			symID, ok := m.declSym[inner]
			if !ok {
				return errors.AssertionFailedf("tsfront: exported %s at byte %d was never registered", inner.typ, inner.pos)
			}
			name := m.Arena.Symbol(symID).LocalName
			if isDefault {
				name = "default"
			}
			m.Exports = append(m.Exports, Export{Symbol: symID, Name: name})
			continue
		}

		if clause := childOfType(c, "export_clause"); clause != nil {
			for _, specChild := range clause.children {
				spec := specChild.(*Node)
				if spec.typ != "export_specifier" {
					continue
				}
				local, exported := specifierNames(m, spec)
				symID, bound := m.bindings[local]
				if !bound {
					logger.Logger.Warnw("Export references unknown name",
						logger.FieldName, local,
						logger.FieldFile, m.Source.FileName)
					continue
				}
				m.Exports = append(m.Exports, Export{Symbol: symID, Name: exported})
			}
			continue
		}

		// export default <expr>;
		if isDefault {
			if id := childOfType(c, "identifier"); id != nil {
				if symID, bound := m.bindings[m.text(id)]; bound {
					m.Exports = append(m.Exports, Export{Symbol: symID, Name: "default"})
				}
			}
		}
	}
	return nil
}

// stringContent strips the quotes from a string literal's source text.
func stringContent(literal string) string {
	if len(literal) >= 2 {
		return literal[1 : len(literal)-1]
	}
	return literal
}
