// Package syntax defines the contract between apiroll's rewriting core and the
// external front-end that parses and binds source files.
//
// The core never parses anything itself. It consumes a read-only tree of Nodes
// (kind, children, byte range) produced by a front-end adapter such as tsfront,
// plus the original source text. Nodes are immutable; all edits happen in the
// span overlay built on top of them.
package syntax

// Kind is the closed set of node categories the rewriting core distinguishes.
// Front-end adapters map their concrete grammar node types onto these; anything
// the core has no special behavior for maps to KindOther and is treated as
// opaque text.
type Kind uint8

const (
	KindOther Kind = iota
	KindSourceFile
	KindImportDecl
	KindExportDecl
	KindClassDecl
	KindInterfaceDecl
	KindTypeAliasDecl
	KindEnumDecl
	KindFunctionDecl
	KindVariableStmt
	KindNamespaceDecl
	KindMethodMember
	KindPropertyMember
	KindGetAccessor
	KindSetAccessor
	KindConstructor
	KindEnumMember
	KindIdentifier
	KindQualifiedName
	KindImportType
	KindTypeArguments
	KindBody
	KindToken
)

var kindNames = map[Kind]string{
	KindOther:          "other",
	KindSourceFile:     "source-file",
	KindImportDecl:     "import-decl",
	KindExportDecl:     "export-decl",
	KindClassDecl:      "class-decl",
	KindInterfaceDecl:  "interface-decl",
	KindTypeAliasDecl:  "type-alias-decl",
	KindEnumDecl:       "enum-decl",
	KindFunctionDecl:   "function-decl",
	KindVariableStmt:   "variable-stmt",
	KindNamespaceDecl:  "namespace-decl",
	KindMethodMember:   "method-member",
	KindPropertyMember: "property-member",
	KindGetAccessor:    "get-accessor",
	KindSetAccessor:    "set-accessor",
	KindConstructor:    "constructor",
	KindEnumMember:     "enum-member",
	KindIdentifier:     "identifier",
	KindQualifiedName:  "qualified-name",
	KindImportType:     "import-type",
	KindTypeArguments:  "type-arguments",
	KindBody:           "body",
	KindToken:          "token",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "other"
}

// IsDeclaration reports whether the kind is a named declaration that can carry
// a release tag and participate in member ordering.
func (k Kind) IsDeclaration() bool {
	switch k {
	case KindClassDecl, KindInterfaceDecl, KindTypeAliasDecl, KindEnumDecl,
		KindFunctionDecl, KindVariableStmt, KindNamespaceDecl,
		KindMethodMember, KindPropertyMember, KindGetAccessor, KindSetAccessor,
		KindConstructor, KindEnumMember:
		return true
	}
	return false
}

// IsMember reports whether the kind is a declaration that lives inside a
// container body (class, interface, enum, namespace).
func (k Kind) IsMember() bool {
	switch k {
	case KindMethodMember, KindPropertyMember, KindGetAccessor, KindSetAccessor,
		KindConstructor, KindEnumMember:
		return true
	}
	return false
}

// Node is one immutable syntax-tree node supplied by the front-end.
// Pos and End are byte offsets into the Source the tree was parsed from;
// children are ordered and their ranges nest strictly inside the parent's.
type Node interface {
	Kind() Kind
	Children() []Node
	Pos() int
	End() int
}

// Source holds the original text a tree was parsed from. The span overlay
// reads trivia (whitespace, comments between siblings) straight out of it,
// which is what makes unmodified subtrees render byte-for-byte.
type Source struct {
	FileName string
	Text     string
}

// Slice returns the text for the half-open byte range [pos, end).
// Callers pass ranges obtained from Nodes of this source; anything else is a
// front-end contract breach and the caller is expected to have validated it.
func (s *Source) Slice(pos, end int) string {
	return s.Text[pos:end]
}

// NodeText is a convenience for the full text of one node.
func NodeText(s *Source, n Node) string {
	return s.Slice(n.Pos(), n.End())
}
