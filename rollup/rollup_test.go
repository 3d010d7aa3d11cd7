package rollup

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/apiroll/collector"
	"github.com/teranos/apiroll/entity"
	"github.com/teranos/apiroll/errors"
	apirolltest "github.com/teranos/apiroll/internal/testing"
	"github.com/teranos/apiroll/syntax"
)

// widgetFixture models a small module surface:
//
//	class Widget {          // @public, documented, exported inline
//	    b;                  // untagged
//	    a;                  // @beta
//	}
//	declare function helper(): Util;   // @beta, exported as renamedHelper
//
// plus a named import of Util and a star re-export. Brace and punctuation
// tokens are real child nodes, the way the front-end produces them.
func widgetFixture(t *testing.T) *Generator {
	t.Helper()

	text := "class Widget {\n    b;\n    a;\n}\ndeclare function helper(): Util;"
	src := &syntax.Source{FileName: "widget.d.ts", Text: text}

	openBrace := apirolltest.Leaf(syntax.KindToken, 13, 14)
	bNode := apirolltest.Leaf(syntax.KindPropertyMember, 19, 21)
	aNode := apirolltest.Leaf(syntax.KindPropertyMember, 26, 28)
	closeBrace := apirolltest.Leaf(syntax.KindToken, 29, 30)
	bodyNode := apirolltest.Branch(syntax.KindBody, 13, 30, openBrace, bNode, aNode, closeBrace)
	widgetNode := apirolltest.Branch(syntax.KindClassDecl, 0, 30, bodyNode)

	utilRef := apirolltest.Leaf(syntax.KindIdentifier, 58, 62)
	helperNode := apirolltest.Branch(syntax.KindFunctionDecl, 31, 63, utilRef)

	arena := entity.NewArena()

	widgetSym := arena.AddSymbol("Widget")
	widgetDecl := arena.AddDeclaration(widgetSym.ID, entity.NoDecl, widgetNode)
	widgetDecl.Tag = entity.TagPublic
	widgetDecl.HasDoc = true

	bSym := arena.AddSymbol("b")
	arena.AddDeclaration(bSym.ID, widgetDecl.ID, bNode)

	aSym := arena.AddSymbol("a")
	aDecl := arena.AddDeclaration(aSym.ID, widgetDecl.ID, aNode)
	aDecl.Tag = entity.TagBeta

	helperSym := arena.AddSymbol("helper")
	helperDecl := arena.AddDeclaration(helperSym.ID, entity.NoDecl, helperNode)
	helperDecl.Tag = entity.TagBeta

	utilSym := arena.AddImportedSymbol("Util", entity.ImportNamed, "util-lib", "Util")

	arena.ResolveEffectiveTags()

	col := collector.New(arena, apirolltest.MapResolver{utilRef: utilSym.ID}, collector.NewSink())
	col.AddExport(widgetSym.ID, "Widget")
	col.AddExport(helperSym.ID, "renamedHelper")
	col.AddStarExport("widget-extras")
	require.NoError(t, col.Resolve())

	return NewGenerator(col, src, "widget-lib")
}

func TestRollupBetaTierKeepsFullSurface(t *testing.T) {
	gen := widgetFixture(t)

	got, warnings, err := gen.Rollup(entity.TagBeta)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	want := "import { Util } from 'util-lib';\n" +
		"\n" +
		"export class Widget {\n" +
		"    a;\n" +
		"    b;\n" +
		"}\n" +
		"\n" +
		"declare function helper(): Util;\n" +
		"\n" +
		"export { helper as renamedHelper };\n" +
		"\n" +
		"export * from \"widget-extras\";\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rollup mismatch (-want +got):\n%s", diff)
	}
}

func TestRollupPublicTierTrimsBetaSurface(t *testing.T) {
	gen := widgetFixture(t)

	got, warnings, err := gen.Rollup(entity.TagPublic)
	require.NoError(t, err)
	assert.Empty(t, warnings, "nothing kept references a trimmed declaration")

	// helper and the beta member go, and with them the Util import and the
	// separate export statement. Star re-exports are tier-agnostic. The
	// dropped member leaves the indentation of its line behind, which the
	// whitespace-collapsing change detection ignores.
	want := "export class Widget {\n" +
		"    b;\n" +
		"    }\n" +
		"\n" +
		"export * from \"widget-extras\";\n"
	assert.Equal(t, want, got)
}

// forceKeepFixture models a public function whose return type is a beta
// class: trimming at public would dangle the reference, so the class is
// force-kept with a warning.
func forceKeepFixture(t *testing.T) (*Generator, *entity.Declaration) {
	t.Helper()

	text := "declare function fn(): Secret;\ndeclare class Secret {\n}"
	src := &syntax.Source{FileName: "secret.d.ts", Text: text}

	ref := apirolltest.Leaf(syntax.KindIdentifier, 23, 29)
	fnNode := apirolltest.Branch(syntax.KindFunctionDecl, 0, 30, ref)
	secretNode := apirolltest.Leaf(syntax.KindClassDecl, 31, 55)

	arena := entity.NewArena()

	fnSym := arena.AddSymbol("fn")
	fnDecl := arena.AddDeclaration(fnSym.ID, entity.NoDecl, fnNode)
	fnDecl.Tag = entity.TagPublic

	secretSym := arena.AddSymbol("Secret")
	secretDecl := arena.AddDeclaration(secretSym.ID, entity.NoDecl, secretNode)
	secretDecl.Tag = entity.TagBeta

	arena.ResolveEffectiveTags()

	col := collector.New(arena, apirolltest.MapResolver{ref: secretSym.ID}, collector.NewSink())
	col.AddExport(fnSym.ID, "fn")
	require.NoError(t, col.Resolve())

	return NewGenerator(col, src, "secret-lib"), fnDecl
}

func TestRollupReturnsForceKeepWarnings(t *testing.T) {
	gen, fnDecl := forceKeepFixture(t)

	got, warnings, err := gen.Rollup(entity.TagPublic)
	require.NoError(t, err)

	assert.Contains(t, got, "declare function fn(): Secret;")
	assert.Contains(t, got, "declare class Secret", "referenced declaration is force-kept")

	require.Len(t, warnings, 1)
	assert.Equal(t, fnDecl.ID, warnings[0].Decl)
	assert.Contains(t, warnings[0].Message, `"Secret"`)

	// Rendering again yields the same warnings, not an accumulation.
	_, again, err := gen.Rollup(entity.TagPublic)
	require.NoError(t, err)
	assert.Equal(t, warnings, again)
}

func TestReportUnchangedByRollupRendering(t *testing.T) {
	gen, _ := forceKeepFixture(t)

	before, err := gen.Report()
	require.NoError(t, err)

	_, _, err = gen.Rollup(entity.TagPublic)
	require.NoError(t, err)
	_, _, err = gen.Rollup(entity.TagBeta)
	require.NoError(t, err)

	after, err := gen.Report()
	require.NoError(t, err)

	// Tier consistency findings stay with their rollup; the review report
	// is the same whether or not rollups rendered first.
	assert.Equal(t, before, after)
	assert.NotContains(t, after, "// Warning:")
	assert.True(t, Equivalent(before, after))
}

func TestRollupBeforeResolveFails(t *testing.T) {
	col := collector.New(entity.NewArena(), apirolltest.MapResolver{}, collector.NewSink())
	gen := NewGenerator(col, &syntax.Source{FileName: "x.d.ts", Text: ""}, "x")

	_, _, err := gen.Rollup(entity.TagPublic)
	assert.True(t, errors.Is(err, errors.ErrNotResolved))

	_, err = gen.Report()
	assert.True(t, errors.Is(err, errors.ErrNotResolved))
}

func TestReportAnnotatesEveryDeclaration(t *testing.T) {
	gen := widgetFixture(t)

	got, err := gen.Report()
	require.NoError(t, err)

	want := "## API Report File for \"widget-lib\"\n" +
		"\n" +
		"> Do not edit this file. It is a report generated by the API analyzer.\n" +
		"\n" +
		"```ts\n" +
		"\n" +
		"import { Util } from 'util-lib';\n" +
		"\n" +
		"// @public\n" +
		"export class Widget {\n" +
		"    // @beta (undocumented)\n" +
		"    a;\n" +
		"    // (undocumented)\n" +
		"    b;\n" +
		"}\n" +
		"\n" +
		"// @beta (undocumented)\n" +
		"declare function helper(): Util;\n" +
		"\n" +
		"export { helper as renamedHelper };\n" +
		"\n" +
		"export * from \"widget-extras\";\n" +
		"\n" +
		"```\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestReportKeepsAccessorPairAdjacent(t *testing.T) {
	// A stable sort on a shared key must move the ancillary setter together
	// with its getter, ahead of z.
	text := "class W {\n    z;\n    get a();\n    set a(v);\n}"
	src := &syntax.Source{FileName: "w.d.ts", Text: text}

	openBrace := apirolltest.Leaf(syntax.KindToken, 8, 9)
	zNode := apirolltest.Leaf(syntax.KindPropertyMember, 14, 16)
	getNode := apirolltest.Leaf(syntax.KindGetAccessor, 21, 29)
	setNode := apirolltest.Leaf(syntax.KindSetAccessor, 34, 43)
	closeBrace := apirolltest.Leaf(syntax.KindToken, 44, 45)
	bodyNode := apirolltest.Branch(syntax.KindBody, 8, 45, openBrace, zNode, getNode, setNode, closeBrace)
	classNode := apirolltest.Branch(syntax.KindClassDecl, 0, 45, bodyNode)

	arena := entity.NewArena()

	wSym := arena.AddSymbol("W")
	wDecl := arena.AddDeclaration(wSym.ID, entity.NoDecl, classNode)
	wDecl.Tag = entity.TagPublic
	wDecl.HasDoc = true

	zSym := arena.AddSymbol("z")
	arena.AddDeclaration(zSym.ID, wDecl.ID, zNode)

	aSym := arena.AddSymbol("a")
	getter := arena.AddDeclaration(aSym.ID, wDecl.ID, getNode)
	setter := arena.AddDeclaration(aSym.ID, wDecl.ID, setNode)
	require.NoError(t, arena.AttachAncillary(getter.ID, setter.ID))

	arena.ResolveEffectiveTags()

	col := collector.New(arena, apirolltest.MapResolver{}, collector.NewSink())
	col.AddExport(wSym.ID, "W")
	require.NoError(t, col.Resolve())

	gen := NewGenerator(col, src, "w-lib")

	got, err := gen.Report()
	require.NoError(t, err)

	assert.Contains(t, got,
		"    // (undocumented)\n    get a();\n    set a(v);\n    // (undocumented)\n    z;")
}

func TestReportIncludesRoutedWarnings(t *testing.T) {
	gen := widgetFixture(t)

	var helperDecl *entity.Declaration
	for _, d := range gen.Arena.Decls() {
		if gen.Arena.Symbol(d.Symbol).LocalName == "helper" {
			helperDecl = d
		}
	}
	require.NotNil(t, helperDecl)
	gen.Col.Warnings.Add(helperDecl.ID, "the name \"helper\" collides with a global")

	got, err := gen.Report()
	require.NoError(t, err)
	assert.Contains(t, got,
		"// @beta (undocumented)\n// Warning: the name \"helper\" collides with a global\ndeclare function helper(): Util;")
}

func TestReportIsTierAgnostic(t *testing.T) {
	gen := widgetFixture(t)

	got, err := gen.Report()
	require.NoError(t, err)

	// The beta declarations appear even though a public rollup trims them.
	assert.Contains(t, got, "declare function helper(): Util;")
	assert.Contains(t, got, "a;")
}

func TestEquivalentCollapsesWhitespace(t *testing.T) {
	assert.True(t, Equivalent("class A { }", "class A { }"))
	assert.True(t, Equivalent("class A {\n}\n", "class A { }"))
	assert.True(t, Equivalent("a\tb", "a b"))
	assert.False(t, Equivalent("class A { }", "class B { }"))
	assert.False(t, Equivalent("ab", "a b"))
}

func TestInlineExport(t *testing.T) {
	assert.Equal(t, "export class X {}", inlineExport("class X {}"))
	assert.Equal(t, "// @public\nexport class X {}",
		inlineExport("// @public\nclass X {}"))
	assert.Equal(t, "/**\n * Doc.\n */\nexport class X {}",
		inlineExport("/**\n * Doc.\n */\nclass X {}"))
	assert.Equal(t, "export class X {}", inlineExport("export class X {}"),
		"already-exported text stays untouched")
	assert.Equal(t, "export default class {}", inlineExport("export default class {}"))
}

func TestStripTrailingWhitespace(t *testing.T) {
	assert.Equal(t, "a\nb\nc", stripTrailingWhitespace("a  \nb\t\nc"))
	assert.Equal(t, "    a\n", stripTrailingWhitespace("    a\n"),
		"leading indentation is untouched")
}

func TestLineIndent(t *testing.T) {
	text := "class W {\n    a;\n\tb;\n}"
	assert.Equal(t, "    ", lineIndent(text, 14))
	assert.Equal(t, "\t", lineIndent(text, 18))
	assert.Equal(t, "", lineIndent(text, 0))
}
