// Package rollup assembles the final output artifacts: one consolidated
// declaration rollup per requested release tier, and the tier-agnostic
// review report.
//
// The orchestrator walks entities in canonical emission order (imported
// entities first, then local entities in discovery order), builds a fresh
// span tree per declaration, lets the trim policy and rewriter edit it, and
// concatenates the rendered pieces. Rendering never mutates resolution
// state, so the same generator produces every artifact of a run.
package rollup

import (
	"regexp"
	"strings"

	"github.com/teranos/apiroll/collector"
	"github.com/teranos/apiroll/entity"
	"github.com/teranos/apiroll/errors"
	"github.com/teranos/apiroll/logger"
	"github.com/teranos/apiroll/rewrite"
	"github.com/teranos/apiroll/span"
	"github.com/teranos/apiroll/syntax"
	"github.com/teranos/apiroll/trim"
)

// Generator renders rollup and report artifacts for one resolved module.
type Generator struct {
	Arena       *entity.Arena
	Col         *collector.Collector
	Source      *syntax.Source
	PackageName string

	policy   *trim.Policy
	rewriter *rewrite.Rewriter
}

func NewGenerator(col *collector.Collector, src *syntax.Source, packageName string) *Generator {
	return &Generator{
		Arena:       col.Arena,
		Col:         col,
		Source:      src,
		PackageName: packageName,
		policy:      trim.NewPolicy(col),
		rewriter:    rewrite.NewRewriter(col),
	}
}

// Rollup renders the consolidated declaration surface for one release tier.
// The returned warnings are the tier's consistency findings (declarations
// force-kept to avoid dangling references); they are specific to this tier
// and are never folded into the module-wide warning sink, so the review
// report stays the same no matter which rollups rendered before it.
func (g *Generator) Rollup(tier entity.ReleaseTag) (string, []collector.Warning, error) {
	if !g.Col.Resolved() {
		return "", nil, errors.Wrap(errors.ErrNotResolved, "rollup: tier generation")
	}

	plan, warnings := g.policy.Plan(tier)
	used := g.policy.UsedSymbols(tier, plan)

	var imports []string
	var body []string

	for _, e := range g.Col.Entities() {
		sym := g.Arena.Symbol(e.Symbol)

		if sym.Imported {
			if !used[sym.ID] {
				continue
			}
			stmt, err := rewrite.ImportStatement(sym, e.NameForEmit)
			if err != nil {
				return "", nil, err
			}
			imports = append(imports, stmt)
			continue
		}

		kept := 0
		for _, declID := range sym.Decls {
			d := g.Arena.Decl(declID)
			if d.Parent != entity.NoDecl || d.IsAncillary {
				continue
			}
			if plan[d.ID] == trim.DecisionDrop {
				continue
			}
			kept++

			s, err := span.Build(d.Node, g.Source)
			if err != nil {
				return "", nil, err
			}
			if err := g.policy.Apply(s, d, tier, plan); err != nil {
				return "", nil, err
			}
			if err := g.rewriter.Identifiers(s); err != nil {
				return "", nil, err
			}

			text := strings.TrimRight(s.Render(), " \t\n")
			if e.Exported && e.ShouldInlineExport {
				text = inlineExport(text)
			}
			body = append(body, text)
		}

		// An entity whose every declaration was trimmed takes its export
		// statements with it.
		if len(sym.Decls) > 0 && kept == 0 {
			continue
		}

		stmts, err := rewrite.ExportStatements(e, sym)
		if err != nil {
			return "", nil, err
		}
		body = append(body, stmts...)
	}

	for _, path := range g.Col.StarExports() {
		body = append(body, rewrite.StarExport(path))
	}

	var sb strings.Builder
	if len(imports) > 0 {
		sb.WriteString(strings.Join(imports, "\n"))
		sb.WriteString("\n\n")
	}
	sb.WriteString(strings.Join(body, "\n\n"))
	sb.WriteString("\n")

	logger.Logger.Debugw("Rollup rendered",
		logger.FieldPackage, g.PackageName,
		logger.FieldTier, tier.String(),
		logger.FieldImports, len(imports),
		logger.FieldDeclarations, len(body),
	)
	return sb.String(), warnings, nil
}

// inlineExport prepends the export keyword to a declaration that carries its
// export inline, preserving any leading comment block.
func inlineExport(text string) string {
	idx := declStart(text)
	if idx < 0 {
		return text
	}
	return text[:idx] + "export " + text[idx:]
}

// declStart returns the offset of the first line past any leading comment
// block, or -1 when that line already carries the export keyword.
func declStart(text string) int {
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "*") {
			offset += len(line)
			continue
		}
		if strings.HasPrefix(trimmed, "export ") || trimmed == "export" {
			return -1
		}
		return offset
	}
	return 0
}

// Report renders the tier-agnostic review snapshot: every declaration, each
// annotated with its synopsis line and any warnings routed to it, wrapped in
// a fenced code block. Trailing horizontal whitespace is stripped from every
// line so the artifact is stable against whitespace-only edits.
func (g *Generator) Report() (string, error) {
	if !g.Col.Resolved() {
		return "", errors.Wrap(errors.ErrNotResolved, "rollup: report generation")
	}

	var imports []string
	var parts []string

	for _, e := range g.Col.Entities() {
		sym := g.Arena.Symbol(e.Symbol)

		if sym.Imported {
			stmt, err := rewrite.ImportStatement(sym, e.NameForEmit)
			if err != nil {
				return "", err
			}
			imports = append(imports, stmt)
			continue
		}

		for _, declID := range sym.Decls {
			d := g.Arena.Decl(declID)
			if d.Parent != entity.NoDecl || d.IsAncillary {
				continue
			}

			text, err := g.reportDecl(d, e)
			if err != nil {
				return "", err
			}
			parts = append(parts, text)
		}

		stmts, err := rewrite.ExportStatements(e, sym)
		if err != nil {
			return "", err
		}
		parts = append(parts, stmts...)
	}

	for _, path := range g.Col.StarExports() {
		parts = append(parts, rewrite.StarExport(path))
	}

	var sb strings.Builder
	sb.WriteString("## API Report File for \"" + g.PackageName + "\"\n\n")
	sb.WriteString("> Do not edit this file. It is a report generated by the API analyzer.\n\n")
	sb.WriteString("```ts\n\n")
	sb.WriteString(strings.Join(append(imports, parts...), "\n\n"))
	sb.WriteString("\n\n```\n")

	return stripTrailingWhitespace(sb.String()), nil
}

// reportDecl renders one top-level declaration for the report: synopsis and
// warning comments, member annotations injected in place, members sorted.
func (g *Generator) reportDecl(d *entity.Declaration, e *collector.Entity) (string, error) {
	s, err := span.Build(d.Node, g.Source)
	if err != nil {
		return "", err
	}

	g.annotateMembers(s, d)
	if err := g.rewriter.Identifiers(s); err != nil {
		return "", err
	}

	var head []string
	if syn := g.synopsis(d); syn != "" {
		head = append(head, syn)
	}
	for _, w := range g.warningsFor(d) {
		head = append(head, "// Warning: "+w.Message)
	}

	text := strings.TrimRight(s.Render(), " \t\n")
	if e.Exported && e.ShouldInlineExport {
		text = inlineExport(text)
	}
	if len(head) > 0 {
		text = strings.Join(head, "\n") + "\n" + text
	}
	return text, nil
}

// annotateMembers sorts the declaration's direct members and injects each
// member's synopsis comment above it.
func (g *Generator) annotateMembers(s *span.Span, d *entity.Declaration) {
	body := findBody(s)
	if body == nil {
		return
	}

	for _, member := range g.Arena.ChildDecls(d.ID) {
		if member.IsAncillary {
			continue
		}
		ms := findByNode(body, member.Node)
		if ms == nil {
			continue
		}
		key := trim.SortKey(g.Arena.Symbol(member.Symbol).LocalName)
		ms.Modification.SortKey = key
		for _, ancID := range member.Ancillary {
			if as := findByNode(body, g.Arena.Decl(ancID).Node); as != nil {
				as.Modification.SortKey = key
			}
		}

		indent := lineIndent(g.Source.Text, member.Node.Pos())
		var lines []string
		if syn := g.synopsis(member); syn != "" {
			lines = append(lines, syn)
		}
		for _, w := range g.warningsFor(member) {
			lines = append(lines, "// Warning: "+w.Message)
		}
		if len(lines) > 0 {
			ms.Prepend(strings.Join(lines, "\n"+indent) + "\n" + indent)
		}

		// Containers nest: annotate a namespace's own members too.
		g.annotateMembers(ms, member)
	}
	body.Modification.SortChildren = true
}

// synopsis builds the annotation comment for one declaration: release tag
// (suppressed when inherited), modifier flags, and the undocumented marker.
// Empty when nothing applies.
func (g *Generator) synopsis(d *entity.Declaration) string {
	var parts []string
	if !d.TagInherited && d.Effective != entity.TagNone {
		parts = append(parts, "@"+d.Effective.String())
	}
	if d.Sealed {
		parts = append(parts, "@sealed")
	}
	if d.Virtual {
		parts = append(parts, "@virtual")
	}
	if d.Override {
		parts = append(parts, "@override")
	}
	if d.EventProperty {
		parts = append(parts, "@eventProperty")
	}
	if d.Deprecated {
		parts = append(parts, "@deprecated")
	}
	if !g.documented(d) {
		parts = append(parts, "(undocumented)")
	}
	if len(parts) == 0 {
		return ""
	}
	return "// " + strings.Join(parts, " ")
}

// documented treats a declaration as documented when it or any of its
// ancillary declarations carries documentation.
func (g *Generator) documented(d *entity.Declaration) bool {
	if d.HasDoc {
		return true
	}
	for _, ancID := range d.Ancillary {
		if g.Arena.Decl(ancID).HasDoc {
			return true
		}
	}
	return false
}

// warningsFor collects the warnings routed to a declaration and to its
// ancillary declarations, so a setter's findings surface under its getter.
func (g *Generator) warningsFor(d *entity.Declaration) []collector.Warning {
	out := g.Col.Warnings.ForDecl(d.ID)
	for _, ancID := range d.Ancillary {
		out = append(out, g.Col.Warnings.ForDecl(ancID)...)
	}
	return out
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Equivalent reports whether two review reports are the same for
// change-detection purposes: identical after collapsing every whitespace run
// (including newlines) to a single space. This, not byte equality, is the
// contract the surrounding tooling uses to decide whether the approved
// report needs updating.
func Equivalent(a, b string) bool {
	return whitespaceRun.ReplaceAllString(a, " ") == whitespaceRun.ReplaceAllString(b, " ")
}

// stripTrailingWhitespace removes trailing spaces and tabs from every line.
func stripTrailingWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// lineIndent returns the leading whitespace of the line containing pos.
func lineIndent(text string, pos int) string {
	start := strings.LastIndexByte(text[:pos], '\n') + 1
	end := start
	for end < len(text) && (text[end] == ' ' || text[end] == '\t') {
		end++
	}
	return text[start:end]
}

func findBody(s *span.Span) *span.Span {
	var found *span.Span
	s.Walk(func(sp *span.Span) bool {
		if found != nil {
			return false
		}
		if sp != s && sp.Kind() == syntax.KindBody {
			found = sp
			return false
		}
		return true
	})
	return found
}

func findByNode(s *span.Span, n syntax.Node) *span.Span {
	var found *span.Span
	s.Walk(func(sp *span.Span) bool {
		if found != nil {
			return false
		}
		if sp.Node() == n {
			found = sp
			return false
		}
		return true
	})
	return found
}
