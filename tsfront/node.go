// Package tsfront is the TypeScript front-end adapter: it parses declaration
// source with tree-sitter, converts the grammar tree into the rewriting
// core's node contract, and builds the symbol arena and binding table the
// collector resolves against.
package tsfront

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/teranos/apiroll/syntax"
)

// Node is the converted, self-contained form of one tree-sitter node. The
// grammar tree is released after conversion; everything the core needs
// (category, byte range, child structure, grammar type for binding) is
// copied out.
type Node struct {
	typ      string
	kind     syntax.Kind
	pos, end int
	children []syntax.Node
}

func (n *Node) Kind() syntax.Kind       { return n.kind }
func (n *Node) Children() []syntax.Node { return n.children }
func (n *Node) Pos() int                { return n.pos }
func (n *Node) End() int                { return n.end }

// Type returns the tree-sitter grammar type the node was converted from.
func (n *Node) Type() string { return n.typ }

// kindFor maps tree-sitter grammar types onto the core's closed node
// categories. Everything unlisted is opaque: KindOther for named nodes,
// KindToken for anonymous keyword/punctuation tokens.
var kindFor = map[string]syntax.Kind{
	"program":                    syntax.KindSourceFile,
	"import_statement":           syntax.KindImportDecl,
	"export_statement":           syntax.KindExportDecl,
	"class_declaration":          syntax.KindClassDecl,
	"abstract_class_declaration": syntax.KindClassDecl,
	"interface_declaration":      syntax.KindInterfaceDecl,
	"type_alias_declaration":     syntax.KindTypeAliasDecl,
	"enum_declaration":           syntax.KindEnumDecl,
	"function_declaration":       syntax.KindFunctionDecl,
	"function_signature":         syntax.KindFunctionDecl,
	"lexical_declaration":        syntax.KindVariableStmt,
	"variable_declaration":       syntax.KindVariableStmt,
	"internal_module":            syntax.KindNamespaceDecl,
	"module":                     syntax.KindNamespaceDecl,

	"method_definition":       syntax.KindMethodMember,
	"method_signature":        syntax.KindMethodMember,
	"public_field_definition": syntax.KindPropertyMember,
	"property_signature":      syntax.KindPropertyMember,
	"enum_assignment":         syntax.KindEnumMember,

	"identifier":             syntax.KindIdentifier,
	"type_identifier":        syntax.KindIdentifier,
	"nested_type_identifier": syntax.KindQualifiedName,
	"nested_identifier":      syntax.KindQualifiedName,
	"import_type":            syntax.KindImportType,
	"type_arguments":         syntax.KindTypeArguments,

	"class_body":      syntax.KindBody,
	"object_type":     syntax.KindBody,
	"enum_body":       syntax.KindBody,
	"statement_block": syntax.KindBody,
}

// convert copies a tree-sitter subtree into the adapter's node form. All
// children are kept, anonymous tokens included, so byte coverage stays
// contiguous and keyword tokens remain visible for classification.
func convert(n *sitter.Node, content []byte) *Node {
	out := &Node{
		typ: n.Type(),
		pos: int(n.StartByte()),
		end: int(n.EndByte()),
	}
	if n.IsNamed() {
		out.kind = kindFor[n.Type()]
	} else {
		out.kind = syntax.KindToken
	}

	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		out.children = append(out.children, convert(n.Child(i), content))
	}

	classify(out, content)
	reshapeImportType(out)
	return out
}

// classify refines categories the grammar type alone cannot decide:
// accessor and constructor forms of method_definition.
func classify(n *Node, content []byte) {
	if n.kind != syntax.KindMethodMember {
		return
	}
	for _, child := range n.children {
		c := child.(*Node)
		switch c.typ {
		case "get":
			n.kind = syntax.KindGetAccessor
			return
		case "set":
			n.kind = syntax.KindSetAccessor
			return
		}
	}
	// The grammar types the constructor keyword as an ordinary property name.
	if name := childOfType(n, "property_identifier"); name != nil {
		if string(content[name.pos:name.end]) == "constructor" {
			n.kind = syntax.KindConstructor
		}
	}
}

// reshapeImportType recognizes inline import types, which the grammar parses
// as expression syntax rather than as an import_type node: import('mod')
// arrives as a call_expression whose callee is the import keyword, and a
// qualifier chain wraps it in member_expression nodes. Children are converted
// bottom-up, so a member_expression only has to look at its object child.
//
// The recognized node is collapsed so the rewriter sees the same shape as a
// grammar-level import_type: the prefix covers "import('mod')." and a single
// synthetic qualified-name child covers the qualifier chain.
func reshapeImportType(n *Node) {
	switch n.typ {
	case "call_expression":
		if childOfType(n, "import") == nil {
			return
		}
		n.kind = syntax.KindImportType
		n.children = nil

	case "member_expression":
		if len(n.children) == 0 {
			return
		}
		object, ok := n.children[0].(*Node)
		if !ok || object.kind != syntax.KindImportType {
			return
		}
		start := -1
		if len(object.children) > 0 {
			// The object already carries a collapsed qualifier; extend it
			// over this node's property as well.
			start = object.children[0].Pos()
		} else if prop := childOfType(n, "property_identifier"); prop != nil {
			start = prop.pos
		}
		if start < 0 {
			return
		}
		n.kind = syntax.KindImportType
		n.children = []syntax.Node{&Node{
			typ:  "nested_identifier",
			kind: syntax.KindQualifiedName,
			pos:  start,
			end:  n.end,
		}}
	}
}

// childOfType returns the first direct child with the given grammar type.
func childOfType(n *Node, typ string) *Node {
	for _, child := range n.children {
		c := child.(*Node)
		if c.typ == typ {
			return c
		}
	}
	return nil
}

// childOfKind returns the first direct child with the given category.
func childOfKind(n *Node, kind syntax.Kind) *Node {
	for _, child := range n.children {
		if child.Kind() == kind {
			return child.(*Node)
		}
	}
	return nil
}
