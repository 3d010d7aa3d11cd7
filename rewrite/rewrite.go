// Package rewrite synthesizes import/export statements from resolved entity
// metadata and renames identifiers in span trees to their canonical emitted
// names.
//
// Import statements are never copied from source text: the emitted name may
// differ from the source-local name after collision resolution, so every form
// is rebuilt from the symbol's import metadata.
package rewrite

import (
	"fmt"

	"github.com/teranos/apiroll/collector"
	"github.com/teranos/apiroll/entity"
	"github.com/teranos/apiroll/errors"
	"github.com/teranos/apiroll/internal/util"
	"github.com/teranos/apiroll/span"
	"github.com/teranos/apiroll/syntax"
)

// ImportStatement rebuilds the import statement binding sym to nameForEmit.
func ImportStatement(sym *entity.Symbol, nameForEmit string) (string, error) {
	if !sym.Imported {
		return "", errors.AssertionFailedf("rewrite: %q is not an imported symbol", sym.LocalName)
	}
	if nameForEmit == "" {
		return "", errors.AssertionFailedf("rewrite: imported symbol %q has no emitted name", sym.LocalName)
	}

	kw := "import"
	if sym.TypeOnly {
		kw = "import type"
	}

	switch sym.ImportKind {
	case entity.ImportDefault:
		if nameForEmit != sym.LocalName {
			return fmt.Sprintf("%s { default as %s } from '%s';", kw, nameForEmit, sym.ModulePath), nil
		}
		return fmt.Sprintf("%s %s from '%s';", kw, nameForEmit, sym.ModulePath), nil

	case entity.ImportNamed:
		if nameForEmit != sym.SourceName {
			return fmt.Sprintf("%s { %s as %s } from '%s';", kw, sym.SourceName, nameForEmit, sym.ModulePath), nil
		}
		return fmt.Sprintf("%s { %s } from '%s';", kw, nameForEmit, sym.ModulePath), nil

	case entity.ImportStar:
		return fmt.Sprintf("%s * as %s from '%s';", kw, nameForEmit, sym.ModulePath), nil

	case entity.ImportEquals:
		return fmt.Sprintf("%s %s = require('%s');", kw, nameForEmit, sym.ModulePath), nil
	}

	return "", errors.AssertionFailedf("rewrite: symbol %q has unknown import kind %d", sym.LocalName, sym.ImportKind)
}

// ExportStatements returns the separate export statements an entity needs.
// Empty when the declaration carries the export keyword inline.
func ExportStatements(e *collector.Entity, sym *entity.Symbol) ([]string, error) {
	if !e.Exported || e.ShouldInlineExport {
		return nil, nil
	}
	if e.NameForEmit == "" {
		return nil, errors.AssertionFailedf("rewrite: exported symbol %q has no emitted name", sym.LocalName)
	}

	var out []string
	for _, name := range e.ExportNames {
		switch {
		case name == "default":
			out = append(out, fmt.Sprintf("export default %s;", e.NameForEmit))
		case name == e.NameForEmit:
			out = append(out, fmt.Sprintf("export { %s };", name))
		default:
			out = append(out, fmt.Sprintf("export { %s as %s };", e.NameForEmit, name))
		}
	}
	return out, nil
}

// StarExport returns the passthrough statement for a star-re-exported module.
func StarExport(modulePath string) string {
	return fmt.Sprintf("export * from \"%s\";", modulePath)
}

// Rewriter renames identifiers inside span trees using the collector's
// resolution tables. The collector must be resolved before any rewriting.
type Rewriter struct {
	Col *collector.Collector
}

func NewRewriter(col *collector.Collector) *Rewriter {
	return &Rewriter{Col: col}
}

// Identifiers walks the span tree and replaces every identifier that resolves
// to a known entity with that entity's emitted name. Unresolved identifiers
// are built-ins or type parameters and stay untouched.
func (r *Rewriter) Identifiers(s *span.Span) error {
	if !r.Col.Resolved() {
		return errors.Wrap(errors.ErrNotResolved, "rewrite: identifier rewrite")
	}

	var err error
	s.Walk(func(sp *span.Span) bool {
		if err != nil {
			return false
		}
		switch sp.Kind() {
		case syntax.KindImportType:
			err = r.rewriteImportType(sp)
			return false

		case syntax.KindIdentifier:
			ent, ok := r.Col.EntityForNode(sp.Node())
			if !ok {
				return true
			}
			if ent.NameForEmit == "" {
				err = errors.AssertionFailedf("rewrite: resolved entity for symbol %d has no emitted name", ent.Symbol)
				return false
			}
			sym := r.Col.Arena.Symbol(ent.Symbol)
			if ent.NameForEmit != sym.LocalName {
				sp.ReplaceWith(ent.NameForEmit)
			}
			return false
		}
		return true
	})
	return err
}

// rewriteImportType rewrites an inline `import('mod').NS.Member<T>` reference
// to use the top-level imported name. The qualifier chain after the first dot
// is preserved verbatim; type arguments are re-rendered through the normal
// identifier rewrite.
func (r *Rewriter) rewriteImportType(sp *span.Span) error {
	ent, ok := r.Col.EntityForNode(sp.Node())
	if !ok {
		// Unresolved import() references stay verbatim.
		return nil
	}
	if ent.NameForEmit == "" {
		return errors.AssertionFailedf("rewrite: import type entity for symbol %d has no emitted name", ent.Symbol)
	}

	kids := sp.Children()
	if len(kids) == 0 {
		sp.ReplaceWith(ent.NameForEmit)
		return nil
	}

	// The prefix covers the import('mod') call and the dot before the
	// qualifier chain; everything after renders from the children.
	name := ent.NameForEmit
	if kids[0].Kind() == syntax.KindQualifiedName || kids[0].Kind() == syntax.KindIdentifier {
		name += "."
	}
	sp.Modification.PrefixOverride = util.Ptr(name)

	for _, kid := range kids {
		if kid.Kind() == syntax.KindTypeArguments {
			if err := r.Identifiers(kid); err != nil {
				return err
			}
		}
	}
	return nil
}
