package span

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apirolltest "github.com/teranos/apiroll/internal/testing"
	"github.com/teranos/apiroll/internal/util"
	"github.com/teranos/apiroll/syntax"
)

// memberList builds a class-like fixture over the given source text:
// a body node holding one child per [pos, end) member range.
func memberList(t *testing.T, text string, ranges [][2]int) (*Span, *syntax.Source) {
	t.Helper()

	src := &syntax.Source{FileName: "fixture.d.ts", Text: text}
	var kids []*apirolltest.Node
	for _, r := range ranges {
		kids = append(kids, apirolltest.Leaf(syntax.KindPropertyMember, r[0], r[1]))
	}
	root := apirolltest.Branch(syntax.KindBody, 0, len(text), kids...)

	s, err := Build(root, src)
	require.NoError(t, err)
	return s, src
}

func TestRenderRoundTripsUnmodifiedTree(t *testing.T) {
	text := "{ alpha: string; beta: number; }"
	s, _ := memberList(t, text, [][2]int{{2, 16}, {17, 30}})

	assert.Equal(t, text, s.Render(), "an unmodified tree must render byte-identically")
}

func TestRenderRoundTripsDeepNesting(t *testing.T) {
	text := "outer { inner { x } tail } end"
	src := &syntax.Source{FileName: "fixture.d.ts", Text: text}
	root := apirolltest.Branch(syntax.KindSourceFile, 0, len(text),
		apirolltest.Branch(syntax.KindClassDecl, 0, 26,
			apirolltest.Branch(syntax.KindBody, 6, 26,
				apirolltest.Leaf(syntax.KindPropertyMember, 8, 19),
				apirolltest.Leaf(syntax.KindIdentifier, 20, 24),
			),
		),
	)

	s, err := Build(root, src)
	require.NoError(t, err)
	assert.Equal(t, text, s.Render())
}

func TestSkipDropsSubtreeAndSeparator(t *testing.T) {
	text := "{ alpha: string; beta: number; }"
	s, _ := memberList(t, text, [][2]int{{2, 16}, {17, 30}})

	s.Children()[0].Modification.Skip = true

	assert.Equal(t, "{ beta: number; }", s.Render())
}

func TestPrefixOverrideReplacesLeafText(t *testing.T) {
	text := "{ alpha: string; }"
	s, _ := memberList(t, text, [][2]int{{2, 16}})

	s.Children()[0].Modification.PrefixOverride = util.Ptr("gamma: boolean;")

	assert.Equal(t, "{ gamma: boolean; }", s.Render())
}

func TestSeparatorOverrideAndOmit(t *testing.T) {
	text := "{ a, b, c }"
	s, _ := memberList(t, text, [][2]int{{2, 3}, {5, 6}, {8, 9}})

	s.Children()[0].Modification.SeparatorOverride = util.Ptr("; ")
	s.Children()[2].Modification.OmitTrailingSeparator = true

	assert.Equal(t, "{ a; b, c", s.Render())
}

func TestSuffixOverrideAppends(t *testing.T) {
	text := "declare const x: number"
	src := &syntax.Source{FileName: "fixture.d.ts", Text: text}
	root := apirolltest.Leaf(syntax.KindVariableStmt, 0, len(text))

	s, err := Build(root, src)
	require.NoError(t, err)
	s.Modification.SuffixOverride = ";"

	assert.Equal(t, text+";", s.Render())
}

func TestReplaceWithSubstitutesWholeSubtree(t *testing.T) {
	text := "class Foo { a(): void; b(): void; }"
	src := &syntax.Source{FileName: "fixture.d.ts", Text: text}
	body := apirolltest.Branch(syntax.KindBody, 10, 35,
		apirolltest.Leaf(syntax.KindMethodMember, 12, 22),
		apirolltest.Leaf(syntax.KindMethodMember, 23, 33),
	)
	root := apirolltest.Branch(syntax.KindClassDecl, 0, len(text), body)

	s, err := Build(root, src)
	require.NoError(t, err)
	s.Children()[0].ReplaceWith("{ /* (preapproved) */ }")

	assert.Equal(t, "class Foo { /* (preapproved) */ }", s.Render())
}

func TestSortChildrenReordersOnlyKeyedSpans(t *testing.T) {
	text := "{ zeta; alpha; Mid; }"
	s, _ := memberList(t, text, [][2]int{{2, 7}, {8, 14}, {15, 19}})

	kids := s.Children()
	kids[0].Modification.SortKey = "zeta"
	kids[1].Modification.SortKey = "alpha"
	kids[2].Modification.SortKey = "Mid"
	s.Modification.SortChildren = true

	// Case-insensitive: alpha < Mid < zeta. Separators stay with the slots,
	// so each span keeps its neighbor trivia shape.
	assert.Equal(t, "{ alpha; Mid; zeta; }", s.Render())
}

func TestSortIsStableForEqualKeys(t *testing.T) {
	text := "{ b1; b2; a; }"
	s, _ := memberList(t, text, [][2]int{{2, 5}, {6, 9}, {10, 12}})

	kids := s.Children()
	kids[0].Modification.SortKey = "same"
	kids[1].Modification.SortKey = "same"
	kids[2].Modification.SortKey = "aaa"
	s.Modification.SortChildren = true

	assert.Equal(t, "{ a; b1; b2; }", s.Render())
}

func TestUnkeyedChildrenKeepTheirSlots(t *testing.T) {
	text := "{ zz; ||| aa; }"
	src := &syntax.Source{FileName: "fixture.d.ts", Text: text}
	root := apirolltest.Branch(syntax.KindBody, 0, len(text),
		apirolltest.Leaf(syntax.KindPropertyMember, 2, 5),
		apirolltest.Leaf(syntax.KindToken, 6, 9),
		apirolltest.Leaf(syntax.KindPropertyMember, 10, 13),
	)
	s, err := Build(root, src)
	require.NoError(t, err)

	kids := s.Children()
	kids[0].Modification.SortKey = "zz"
	kids[2].Modification.SortKey = "aa"
	s.Modification.SortChildren = true

	// The token stays in the middle slot; only the keyed members swap.
	assert.Equal(t, "{ aa; ||| zz; }", s.Render())
}

func TestPrependComposesWithOverrides(t *testing.T) {
	text := "x: number;"
	src := &syntax.Source{FileName: "fixture.d.ts", Text: text}
	s, err := Build(apirolltest.Leaf(syntax.KindPropertyMember, 0, len(text)), src)
	require.NoError(t, err)

	s.Prepend("// (undocumented)\n")
	assert.Equal(t, "// (undocumented)\nx: number;", s.Render())

	s.Prepend("// @beta\n")
	assert.Equal(t, "// @beta\n// (undocumented)\nx: number;", s.Render())
}

func TestRenderIsPureAcrossCalls(t *testing.T) {
	text := "{ b; a; }"
	s, _ := memberList(t, text, [][2]int{{2, 4}, {5, 7}})
	s.Children()[0].Modification.SortKey = "b"
	s.Children()[1].Modification.SortKey = "a"
	s.Modification.SortChildren = true

	first := s.Render()
	second := s.Render()
	assert.Equal(t, first, second, "rendering must not mutate the tree")
}

func TestBuildRejectsMalformedChildRanges(t *testing.T) {
	src := &syntax.Source{FileName: "fixture.d.ts", Text: "0123456789"}

	// Child escapes its parent's range.
	root := apirolltest.Branch(syntax.KindBody, 0, 5,
		apirolltest.Leaf(syntax.KindPropertyMember, 3, 8),
	)
	_, err := Build(root, src)
	require.Error(t, err)

	// Children out of order.
	root = apirolltest.Branch(syntax.KindBody, 0, 10,
		apirolltest.Leaf(syntax.KindPropertyMember, 5, 7),
		apirolltest.Leaf(syntax.KindPropertyMember, 1, 3),
	)
	_, err = Build(root, src)
	require.Error(t, err)
}

func TestBuildRejectsRangeOutsideSource(t *testing.T) {
	src := &syntax.Source{FileName: "fixture.d.ts", Text: "short"}
	_, err := Build(apirolltest.Leaf(syntax.KindBody, 0, 99), src)
	require.Error(t, err)
}
