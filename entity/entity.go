// Package entity models the symbols and declarations of the analyzed module
// surface.
//
// Symbols and declarations live in a flat Arena addressed by integer ids.
// Relationships that would otherwise form a non-tree graph (declaration to
// ancillary declaration, declaration to parent) are stored as id references,
// so there are no ownership cycles and the whole arena is trivially read-only
// once built. The front-end adapter builds the arena; the collector, trim
// policy, and orchestrators only ever read it during rendering.
package entity

import (
	"github.com/teranos/apiroll/errors"
	"github.com/teranos/apiroll/syntax"
)

// SymbolID addresses a Symbol inside its Arena.
type SymbolID int

// DeclID addresses a Declaration inside its Arena.
type DeclID int

// NoDecl marks the absence of a declaration reference (e.g. a top-level
// declaration's parent).
const NoDecl DeclID = -1

// ImportKind distinguishes the statement form an imported symbol arrived
// through; the rewriter re-synthesizes the statement from this, never from
// source text.
type ImportKind uint8

const (
	ImportNone ImportKind = iota
	ImportDefault
	ImportNamed
	ImportStar
	ImportEquals
)

// Symbol is one named thing, local or imported. A symbol owns one or more
// declarations: overloads and merged interfaces declare the same symbol
// several times.
type Symbol struct {
	ID        SymbolID
	LocalName string
	Decls     []DeclID

	// Imported symbol fields; zero-valued for local symbols.
	Imported   bool
	ImportKind ImportKind
	ModulePath string
	// SourceName is the name the symbol is exported under in its home module
	// (for default imports this is "default").
	SourceName string
	// TypeOnly marks references that only ever appear in type position; the
	// rewriter emits them as "import type".
	TypeOnly bool
}

// Declaration is one concrete declaration site together with the metadata bag
// the documentation layer supplies (apiroll reads these flags, it never
// computes them).
type Declaration struct {
	ID     DeclID
	Symbol SymbolID
	Parent DeclID
	Node   syntax.Node

	HasDoc bool

	// Tag is the declaration's own release tag; TagNone means untagged.
	// Effective carries the resolved tag after ResolveEffectiveTags, and
	// TagInherited records whether it came from an ancestor (so the review
	// report can suppress redundant annotations).
	Tag          ReleaseTag
	Effective    ReleaseTag
	TagInherited bool

	Sealed        bool
	Virtual       bool
	Override      bool
	EventProperty bool
	Deprecated    bool
	Preapproved   bool

	// IsAncillary marks a declaration folded into another's output (a setter
	// folded into its getter). Ancillary declarations never appear as
	// independent top-level entries.
	IsAncillary bool
	// Ancillary lists the declarations folded into this one. Non-empty
	// implies IsAncillary is false here and true on every listed id.
	Ancillary []DeclID
}

// Arena owns every Symbol and Declaration of one analysis pass. Build it
// fully, call ResolveEffectiveTags, then treat it as read-only.
type Arena struct {
	symbols []*Symbol
	decls   []*Declaration
}

func NewArena() *Arena {
	return &Arena{}
}

// AddSymbol creates a local symbol.
func (a *Arena) AddSymbol(localName string) *Symbol {
	s := &Symbol{ID: SymbolID(len(a.symbols)), LocalName: localName}
	a.symbols = append(a.symbols, s)
	return s
}

// AddImportedSymbol creates a symbol bound to an import statement.
func (a *Arena) AddImportedSymbol(localName string, kind ImportKind, modulePath, sourceName string) *Symbol {
	s := a.AddSymbol(localName)
	s.Imported = true
	s.ImportKind = kind
	s.ModulePath = modulePath
	s.SourceName = sourceName
	return s
}

// AddDeclaration creates a declaration for sym nested under parent (NoDecl
// for top level).
func (a *Arena) AddDeclaration(sym SymbolID, parent DeclID, node syntax.Node) *Declaration {
	d := &Declaration{
		ID:     DeclID(len(a.decls)),
		Symbol: sym,
		Parent: parent,
		Node:   node,
	}
	a.decls = append(a.decls, d)
	a.symbols[sym].Decls = append(a.symbols[sym].Decls, d.ID)
	return d
}

// Symbol returns the symbol for id; out-of-range ids are an invariant breach
// and panic via assertion.
func (a *Arena) Symbol(id SymbolID) *Symbol {
	if int(id) < 0 || int(id) >= len(a.symbols) {
		panic(errors.AssertionFailedf("entity: symbol id %d out of range (%d symbols)", id, len(a.symbols)))
	}
	return a.symbols[id]
}

// Decl returns the declaration for id.
func (a *Arena) Decl(id DeclID) *Declaration {
	if int(id) < 0 || int(id) >= len(a.decls) {
		panic(errors.AssertionFailedf("entity: decl id %d out of range (%d decls)", id, len(a.decls)))
	}
	return a.decls[id]
}

// Symbols returns all symbols in creation order.
func (a *Arena) Symbols() []*Symbol { return a.symbols }

// Decls returns all declarations in creation order.
func (a *Arena) Decls() []*Declaration { return a.decls }

// ChildDecls returns the declarations nested directly under parent, in
// creation order.
func (a *Arena) ChildDecls(parent DeclID) []*Declaration {
	var out []*Declaration
	for _, d := range a.decls {
		if d.Parent == parent {
			out = append(out, d)
		}
	}
	return out
}

// AttachAncillary folds ancillary into primary as one logical API member.
// The invariant is strict in both directions: a primary is never itself
// ancillary, and an ancillary is attached to exactly one primary and owns no
// ancillaries of its own.
func (a *Arena) AttachAncillary(primary, ancillary DeclID) error {
	p := a.Decl(primary)
	anc := a.Decl(ancillary)

	if p.IsAncillary {
		return errors.AssertionFailedf("entity: decl %d is ancillary and cannot own ancillaries", primary)
	}
	if anc.IsAncillary {
		return errors.AssertionFailedf("entity: decl %d is already attached to another primary", ancillary)
	}
	if len(anc.Ancillary) > 0 {
		return errors.AssertionFailedf("entity: decl %d owns ancillaries and cannot become one", ancillary)
	}
	if primary == ancillary {
		return errors.AssertionFailedf("entity: decl %d cannot be its own ancillary", primary)
	}

	anc.IsAncillary = true
	p.Ancillary = append(p.Ancillary, ancillary)
	return nil
}

// ResolveEffectiveTags computes each declaration's effective release tag:
// its own tag if set, otherwise the nearest tagged ancestor's, otherwise
// TagPublic (an untagged surface is treated as public, the most permissive
// reading). Must be called once after the arena is fully built.
func (a *Arena) ResolveEffectiveTags() {
	for _, d := range a.decls {
		if d.Tag != TagNone {
			d.Effective = d.Tag
			d.TagInherited = false
			continue
		}
		d.Effective = TagPublic
		d.TagInherited = true
		for parent := d.Parent; parent != NoDecl; {
			pd := a.Decl(parent)
			if pd.Tag != TagNone {
				d.Effective = pd.Tag
				break
			}
			parent = pd.Parent
		}
	}
}
