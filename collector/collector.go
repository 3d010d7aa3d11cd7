// Package collector performs entity resolution over the module's exported
// surface: it decides, for every reachable symbol, the single canonical
// identifier it will be emitted under, which export statements it needs, and
// which declarations travel together as one logical API member.
//
// The protocol is strictly two-phase: feed every export into the collector,
// call Resolve, and only then render anything. Naming collisions can only be
// detected once the whole reachable set is known, and rendering never mutates
// resolution state.
package collector

import (
	"fmt"

	"github.com/teranos/apiroll/entity"
	"github.com/teranos/apiroll/errors"
	"github.com/teranos/apiroll/syntax"
)

// Resolver is the symbol-binding lookup supplied by the front-end: given an
// identifier node, which symbol does it refer to? Identifiers that resolve to
// nothing are left untouched by the rewriter (built-ins, type parameters).
type Resolver interface {
	Resolve(n syntax.Node) (entity.SymbolID, bool)
}

// Entity is the emission-level wrapper around one symbol: the
// collision-resolved name it is emitted under and its export surface.
type Entity struct {
	Symbol entity.SymbolID

	// NameForEmit is the canonical identifier used in output. Distinct from
	// the symbol's local name when a collision forced a suffix.
	NameForEmit string

	// Exported reports whether the entity is part of the exported surface
	// (as opposed to merely referenced by it).
	Exported bool

	// ExportNames lists the names the symbol is exported under, in the order
	// the exports were declared. A symbol may be re-exported several times.
	ExportNames []string

	// ShouldInlineExport is true when the declaration itself can carry the
	// export keyword: exactly one export name, equal to NameForEmit, on a
	// local (non-imported) symbol. Otherwise a separate export statement is
	// emitted.
	ShouldInlineExport bool

	order int
}

// Collector builds and owns the resolution tables for one analysis pass.
type Collector struct {
	Arena    *entity.Arena
	Warnings *Sink

	resolver Resolver

	entities    []*Entity
	bySymbol    map[entity.SymbolID]*Entity
	usedNames   map[string]bool
	starExports []string

	resolved bool
}

func New(arena *entity.Arena, resolver Resolver, warnings *Sink) *Collector {
	if warnings == nil {
		warnings = NewSink()
	}
	return &Collector{
		Arena:     arena,
		Warnings:  warnings,
		resolver:  resolver,
		bySymbol:  make(map[entity.SymbolID]*Entity),
		usedNames: make(map[string]bool),
	}
}

// AddExport registers that sym is exported under exportName. Call once per
// export clause, in declaration order, before Resolve.
func (c *Collector) AddExport(sym entity.SymbolID, exportName string) {
	if c.resolved {
		panic(errors.AssertionFailedf("collector: AddExport after Resolve"))
	}
	e := c.entityFor(sym)
	e.Exported = true
	for _, existing := range e.ExportNames {
		if existing == exportName {
			return
		}
	}
	e.ExportNames = append(e.ExportNames, exportName)
}

// AddStarExport registers a module that is star-re-exported without being
// individually consumed; the orchestrator appends a passthrough statement
// for it.
func (c *Collector) AddStarExport(modulePath string) {
	if c.resolved {
		panic(errors.AssertionFailedf("collector: AddStarExport after Resolve"))
	}
	for _, existing := range c.starExports {
		if existing == modulePath {
			return
		}
	}
	c.starExports = append(c.starExports, modulePath)
}

// entityFor returns the entity for sym, creating it in first-discovery order.
// Discovery order is what makes collision suffixes deterministic across runs.
func (c *Collector) entityFor(sym entity.SymbolID) *Entity {
	if e, ok := c.bySymbol[sym]; ok {
		return e
	}
	e := &Entity{Symbol: sym, order: len(c.entities)}
	c.entities = append(c.entities, e)
	c.bySymbol[sym] = e
	return e
}

// Resolve closes the entity set over everything transitively referenced from
// the exported surface, then assigns every entity its canonical emit name.
// After Resolve the collector is read-only.
func (c *Collector) Resolve() error {
	if c.resolved {
		return errors.AssertionFailedf("collector: Resolve called twice")
	}

	// Phase 1: reachability. Walking entities by index covers symbols
	// discovered mid-walk, since entityFor appends.
	for i := 0; i < len(c.entities); i++ {
		sym := c.Arena.Symbol(c.entities[i].Symbol)
		for _, declID := range sym.Decls {
			c.discoverReferences(c.Arena.Decl(declID).Node)
		}
	}

	// Phase 2: canonical naming in discovery order.
	for _, e := range c.entities {
		sym := c.Arena.Symbol(e.Symbol)
		base := sym.LocalName
		if base == "" {
			return errors.AssertionFailedf("collector: symbol %d has no local name", sym.ID)
		}
		name := base
		for i := 1; c.usedNames[name]; i++ {
			name = fmt.Sprintf("%s_%d", base, i)
		}
		c.usedNames[name] = true
		e.NameForEmit = name

		e.ShouldInlineExport = e.Exported &&
			!sym.Imported &&
			len(e.ExportNames) == 1 &&
			e.ExportNames[0] == e.NameForEmit
	}

	c.resolved = true
	return nil
}

// discoverReferences walks one declaration's subtree and pulls every symbol
// the resolver can bind into the entity set.
func (c *Collector) discoverReferences(n syntax.Node) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case syntax.KindIdentifier, syntax.KindQualifiedName, syntax.KindImportType:
		if sym, ok := c.resolver.Resolve(n); ok {
			c.entityFor(sym)
		}
	}
	for _, child := range n.Children() {
		c.discoverReferences(child)
	}
}

// Resolved reports whether Resolve has completed.
func (c *Collector) Resolved() bool { return c.resolved }

// Entities returns every entity in first-discovery order: exported entities
// first (in export order), then transitively referenced ones.
func (c *Collector) Entities() []*Entity {
	return c.entities
}

// EntityFor returns the entity for sym, if it is part of the reachable set.
func (c *Collector) EntityFor(sym entity.SymbolID) (*Entity, bool) {
	e, ok := c.bySymbol[sym]
	return e, ok
}

// EntityForNode resolves an identifier node to its entity, if any.
func (c *Collector) EntityForNode(n syntax.Node) (*Entity, bool) {
	sym, ok := c.resolver.Resolve(n)
	if !ok {
		return nil, false
	}
	return c.EntityFor(sym)
}

// StarExports returns the star-re-exported module paths in declaration order.
func (c *Collector) StarExports() []string {
	return c.starExports
}
