// Package trim implements the release-tier inclusion policy: which
// declarations survive a rollup at a given tier, which are collapsed to a
// stub, and how surviving members are ordered inside their container.
package trim

import (
	"fmt"
	"strings"

	"github.com/teranos/apiroll/collector"
	"github.com/teranos/apiroll/entity"
	"github.com/teranos/apiroll/errors"
	"github.com/teranos/apiroll/span"
	"github.com/teranos/apiroll/syntax"
)

// Decision is the inclusion verdict for one declaration at one tier.
type Decision uint8

const (
	// DecisionKeep emits the declaration in full (members individually
	// re-evaluated).
	DecisionKeep Decision = iota
	// DecisionDrop omits the declaration entirely, no stub.
	DecisionDrop
	// DecisionStub keeps the declaration but collapses its body to a
	// one-line placeholder; members are never inspected individually.
	DecisionStub
)

func (d Decision) String() string {
	switch d {
	case DecisionKeep:
		return "keep"
	case DecisionDrop:
		return "drop"
	case DecisionStub:
		return "stub"
	}
	return "drop"
}

// stubBody is the replacement text for a preapproved declaration's body.
const stubBody = "{ /* (preapproved) */ }"

// Policy computes and applies trim decisions for one resolved module surface.
// It only reads the arena and collector; all edits land in the span overlay.
type Policy struct {
	Arena *entity.Arena
	Col   *collector.Collector
}

func NewPolicy(c *collector.Collector) *Policy {
	return &Policy{Arena: c.Arena, Col: c}
}

// DecisionFor returns the declaration's own verdict at tier, before the
// cross-reference consistency pass. Ancillary declarations follow their
// primary and must not be asked directly.
func (p *Policy) DecisionFor(d *entity.Declaration, tier entity.ReleaseTag) Decision {
	if d.Preapproved {
		// Preapproved bypasses per-member trimming at every tier.
		return DecisionStub
	}
	if d.Effective.AtLeast(tier) {
		return DecisionKeep
	}
	return DecisionDrop
}

// Plan computes the final per-declaration decisions for one tier. It starts
// from DecisionFor and then runs the consistency pass to a fixpoint: a
// declaration that would be dropped but is referenced from a kept
// declaration's signature is force-kept, with a warning routed to the
// referencing declaration. Under-trimming with a warning beats emitting a
// rollup with dangling references.
//
// The returned warnings belong to the tier, not to the module surface: they
// are handed back to the caller rather than recorded anywhere, so planning
// the same tier twice is idempotent and rendering never mutates shared state.
func (p *Policy) Plan(tier entity.ReleaseTag) (map[entity.DeclID]Decision, []collector.Warning) {
	plan := make(map[entity.DeclID]Decision)
	for _, d := range p.Arena.Decls() {
		if d.IsAncillary {
			continue
		}
		plan[d.ID] = p.DecisionFor(d, tier)
	}

	var warnings []collector.Warning
	for changed := true; changed; {
		changed = false
		for _, d := range p.Arena.Decls() {
			if d.Parent != entity.NoDecl || d.IsAncillary || plan[d.ID] == DecisionDrop {
				continue
			}
			for _, sym := range p.referencedSymbols(d, tier, plan) {
				if p.forceKeep(d, sym, tier, plan, &warnings) {
					changed = true
				}
			}
		}
	}
	return plan, warnings
}

// forceKeep flips sym's dropped top-level declarations to keep when from (a
// kept declaration) references them. Returns whether the plan changed.
func (p *Policy) forceKeep(from *entity.Declaration, sym entity.SymbolID, tier entity.ReleaseTag, plan map[entity.DeclID]Decision, warnings *[]collector.Warning) bool {
	s := p.Arena.Symbol(sym)
	if s.Imported {
		return false
	}
	changed := false
	for _, declID := range s.Decls {
		top := p.topLevel(declID)
		if plan[top] != DecisionDrop {
			continue
		}
		plan[top] = DecisionKeep
		changed = true

		fromName := p.Arena.Symbol(from.Symbol).LocalName
		target := p.Arena.Decl(top)
		*warnings = append(*warnings, collector.Warning{
			Decl: from.ID,
			Message: fmt.Sprintf(
				"%q is marked @%s and should be trimmed at the %s tier, but %q references it; it has been kept to avoid a broken reference",
				s.LocalName, target.Effective, tier, fromName),
		})
	}
	return changed
}

// UsedSymbols returns the symbols that still appear in the output at tier:
// everything referenced from the surviving text of kept declarations. The
// rollup uses this to prune import statements whose binding no longer occurs.
func (p *Policy) UsedSymbols(tier entity.ReleaseTag, plan map[entity.DeclID]Decision) map[entity.SymbolID]bool {
	used := make(map[entity.SymbolID]bool)
	for _, d := range p.Arena.Decls() {
		if d.Parent != entity.NoDecl || d.IsAncillary || plan[d.ID] == DecisionDrop {
			continue
		}
		for _, sym := range p.referencedSymbols(d, tier, plan) {
			used[sym] = true
		}
	}
	return used
}

// topLevel walks parent links up to the declaration's top-level ancestor.
func (p *Policy) topLevel(id entity.DeclID) entity.DeclID {
	for {
		d := p.Arena.Decl(id)
		if d.Parent == entity.NoDecl {
			return d.ID
		}
		id = d.Parent
	}
}

// referencedSymbols collects the symbols the declaration's surviving text
// refers to at tier: dropped member subtrees are excluded, and a stubbed
// declaration contributes only its signature (heritage clauses, type
// parameters), never its body.
func (p *Policy) referencedSymbols(d *entity.Declaration, tier entity.ReleaseTag, plan map[entity.DeclID]Decision) []entity.SymbolID {
	stub := plan[d.ID] == DecisionStub
	dropped := p.droppedMemberNodes(d, tier)

	var out []entity.SymbolID
	seen := make(map[entity.SymbolID]bool)
	var walk func(n syntax.Node)
	walk = func(n syntax.Node) {
		if stub && n.Kind() == syntax.KindBody {
			return
		}
		if dropped[n] {
			return
		}
		switch n.Kind() {
		case syntax.KindIdentifier, syntax.KindQualifiedName, syntax.KindImportType:
			if sym, ok := p.Col.EntityForNode(n); ok && !seen[sym.Symbol] {
				seen[sym.Symbol] = true
				out = append(out, sym.Symbol)
			}
		}
		for _, child := range n.Children() {
			walk(child)
		}
	}
	walk(d.Node)
	return out
}

// droppedMemberNodes returns the syntax nodes of d's direct members that are
// trimmed at tier, so the reference scan skips them.
func (p *Policy) droppedMemberNodes(d *entity.Declaration, tier entity.ReleaseTag) map[syntax.Node]bool {
	out := make(map[syntax.Node]bool)
	for _, member := range p.Arena.ChildDecls(d.ID) {
		if member.IsAncillary {
			continue
		}
		if p.DecisionFor(member, tier) == DecisionDrop {
			out[member.Node] = true
			for _, ancID := range member.Ancillary {
				out[p.Arena.Decl(ancID).Node] = true
			}
		}
	}
	return out
}

// Apply edits s, the span of one kept top-level declaration, for tier: a
// stubbed declaration has its body replaced wholesale; otherwise under-tier
// members are skipped, ancillaries follow their primaries, and surviving
// members are sorted alphabetically within the body.
func (p *Policy) Apply(s *span.Span, d *entity.Declaration, tier entity.ReleaseTag, plan map[entity.DeclID]Decision) error {
	switch plan[d.ID] {
	case DecisionDrop:
		return errors.AssertionFailedf("trim: Apply called for dropped declaration %q",
			p.Arena.Symbol(d.Symbol).LocalName)

	case DecisionStub:
		body := findSpan(s, func(sp *span.Span) bool { return sp.Kind() == syntax.KindBody })
		if body == nil {
			return errors.AssertionFailedf("trim: preapproved declaration %q has no body to stub",
				p.Arena.Symbol(d.Symbol).LocalName)
		}
		body.ReplaceWith(stubBody)
		return nil
	}

	body := findSpan(s, func(sp *span.Span) bool { return sp.Kind() == syntax.KindBody })
	if body == nil {
		// Type aliases and variable statements have no member list.
		return nil
	}

	for _, member := range p.Arena.ChildDecls(d.ID) {
		if member.IsAncillary {
			continue
		}
		ms := findSpan(body, func(sp *span.Span) bool { return sp.Node() == member.Node })
		if ms == nil {
			return errors.AssertionFailedf("trim: member %q of %q has no span",
				p.Arena.Symbol(member.Symbol).LocalName, p.Arena.Symbol(d.Symbol).LocalName)
		}

		if p.DecisionFor(member, tier) == DecisionDrop {
			ms.Modification.Skip = true
			for _, ancID := range member.Ancillary {
				if as := findSpan(body, func(sp *span.Span) bool {
					return sp.Node() == p.Arena.Decl(ancID).Node
				}); as != nil {
					as.Modification.Skip = true
				}
			}
			continue
		}

		// Ancillaries share the primary's key so a stable sort keeps the
		// pair adjacent, getter before setter.
		key := SortKey(p.Arena.Symbol(member.Symbol).LocalName)
		ms.Modification.SortKey = key
		for _, ancID := range member.Ancillary {
			if as := findSpan(body, func(sp *span.Span) bool {
				return sp.Node() == p.Arena.Decl(ancID).Node
			}); as != nil {
				as.Modification.SortKey = key
			}
		}
	}

	body.Modification.SortChildren = true
	return nil
}

// SortKey returns the alphabetical ordering key for a declaration name: a
// leading underscore is stripped so underscore-prefixed names sort alongside
// their plain counterparts.
func SortKey(name string) string {
	return strings.TrimPrefix(name, "_")
}

// findSpan returns the first span in s's subtree matching pred, depth-first.
func findSpan(s *span.Span, pred func(*span.Span) bool) *span.Span {
	var found *span.Span
	s.Walk(func(sp *span.Span) bool {
		if found != nil {
			return false
		}
		if pred(sp) {
			found = sp
			return false
		}
		return true
	})
	return found
}
