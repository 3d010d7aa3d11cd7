// Package span implements the rewritable overlay over an external syntax tree.
//
// A Span mirrors one syntax.Node and owns the trivia around it: the text
// between the node's start and its first child, and the separator text between
// the node and its next sibling. The only mutable surface is the Modification
// record. Rendering a span with no modifications anywhere in its subtree
// reproduces the original source text exactly.
package span

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/teranos/apiroll/errors"
	"github.com/teranos/apiroll/syntax"
)

// sortCollator orders sibling sort keys. Case-insensitive and locale-aware;
// ties between equal keys keep original order because the sort is stable.
var sortCollator = collate.New(language.Und, collate.IgnoreCase)

// Modification holds the edit instructions for one span. The zero value means
// "render the original text unchanged".
type Modification struct {
	// Skip suppresses the entire subtree, including the span's separator.
	Skip bool

	// PrefixOverride replaces the span's own leading text: for a leaf span
	// that is the node's whole text, for a span with children it is the text
	// before the first child. nil means keep the original.
	PrefixOverride *string

	// SuffixOverride is appended after the span's content (and after the
	// original text; spans have no original suffix of their own because
	// trailing trivia belongs to the last child's separator).
	SuffixOverride string

	// SeparatorOverride replaces the trivia between this span and its next
	// sibling. nil means keep the original separator.
	SeparatorOverride *string

	// OmitTrailingSeparator drops the separator after this span, e.g. the
	// comma after the last surviving member of a trimmed list.
	OmitTrailingSeparator bool

	// SortChildren reorders this span's children by SortKey before rendering.
	// Children without a key keep their original relative positions.
	SortChildren bool

	// SortKey orders this span among its keyed siblings when the parent has
	// SortChildren set.
	SortKey string
}

// Span wraps one syntax.Node together with its trivia and Modification.
// Spans are built fresh per declaration being emitted and discarded after
// rendering; nothing is shared across declarations.
type Span struct {
	node     syntax.Node
	children []*Span

	// prefix is the original text before the first child, or the node's
	// entire text when it has no children.
	prefix string

	// separator is the original trivia between this node and the next
	// sibling; for the last child it runs to the parent node's end.
	separator string

	Modification Modification
}

// Build constructs the span tree for root. Child ranges must be ordered and
// nested strictly inside their parent; a tree violating that indicates a
// front-end or grammar-version mismatch and fails with an assertion error.
func Build(root syntax.Node, src *syntax.Source) (*Span, error) {
	if root == nil {
		return nil, errors.AssertionFailedf("span: nil root node")
	}
	if root.Pos() < 0 || root.End() > len(src.Text) || root.Pos() > root.End() {
		return nil, errors.AssertionFailedf(
			"span: node range [%d,%d) outside source %q (%d bytes)",
			root.Pos(), root.End(), src.FileName, len(src.Text))
	}
	return build(root, src)
}

func build(n syntax.Node, src *syntax.Source) (*Span, error) {
	s := &Span{node: n}

	kids := n.Children()
	if len(kids) == 0 {
		s.prefix = src.Slice(n.Pos(), n.End())
		return s, nil
	}

	cursor := n.Pos()
	for i, kid := range kids {
		if kid.Pos() < cursor || kid.End() > n.End() || kid.Pos() > kid.End() {
			return nil, errors.AssertionFailedf(
				"span: malformed %s node: child %d range [%d,%d) escapes parent [%d,%d)",
				n.Kind(), i, kid.Pos(), kid.End(), n.Pos(), n.End())
		}
		child, err := build(kid, src)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			s.prefix = src.Slice(n.Pos(), kid.Pos())
		}
		s.children = append(s.children, child)
		cursor = kid.End()
	}

	// Separators: trivia between each child and the next; the last child's
	// separator runs to the parent's end so concatenation is lossless.
	for i, child := range s.children {
		if i+1 < len(kids) {
			child.separator = src.Slice(kids[i].End(), kids[i+1].Pos())
		} else {
			child.separator = src.Slice(kids[i].End(), n.End())
		}
	}
	return s, nil
}

// Node returns the wrapped syntax node.
func (s *Span) Node() syntax.Node { return s.node }

// Kind is shorthand for s.Node().Kind().
func (s *Span) Kind() syntax.Kind { return s.node.Kind() }

// Children returns the child spans in original order.
func (s *Span) Children() []*Span { return s.children }

// ReplaceWith substitutes text for the span's entire subtree while keeping
// its separator intact.
func (s *Span) ReplaceWith(text string) {
	s.Modification.PrefixOverride = &text
	for _, child := range s.children {
		child.Modification.Skip = true
		// The subtree is replaced wholesale; the last child's separator would
		// otherwise leak trailing trivia into the middle of the new text.
	}
}

// Prepend inserts text before the span's own content, composing with any
// prefix override already in place.
func (s *Span) Prepend(text string) {
	base := s.prefix
	if s.Modification.PrefixOverride != nil {
		base = *s.Modification.PrefixOverride
	}
	joined := text + base
	s.Modification.PrefixOverride = &joined
}

// Walk visits the span and its subtree depth-first, in original child order.
// The visitor returning false prunes descent into that span's children.
func (s *Span) Walk(visit func(*Span) bool) {
	if !visit(s) {
		return
	}
	for _, child := range s.children {
		child.Walk(visit)
	}
}

// Render produces the final text for the span's subtree, applying every
// Modification along the way. Rendering never mutates the tree, so it is safe
// to render the same span once per output artifact.
func (s *Span) Render() string {
	var sb strings.Builder
	s.renderInto(&sb)
	return sb.String()
}

func (s *Span) renderInto(sb *strings.Builder) {
	if s.Modification.Skip {
		return
	}

	if s.Modification.PrefixOverride != nil {
		sb.WriteString(*s.Modification.PrefixOverride)
	} else {
		sb.WriteString(s.prefix)
	}

	children := s.children
	if s.Modification.SortChildren {
		children = sortedBySortKey(children)
	}
	for i, child := range children {
		child.renderInto(sb)

		// Separator text stays with the slot, not the child: reordering
		// members must not drag the list's trailing trivia along. Skip and
		// override decisions still come from the child occupying the slot.
		if child.Modification.Skip || child.Modification.OmitTrailingSeparator {
			continue
		}
		if child.Modification.SeparatorOverride != nil {
			sb.WriteString(*child.Modification.SeparatorOverride)
			continue
		}
		sb.WriteString(s.children[i].separator)
	}

	sb.WriteString(s.Modification.SuffixOverride)
}

// sortedBySortKey reorders the keyed children alphabetically among the
// positions they already occupy; unkeyed children (tokens, punctuation) stay
// exactly where they were.
func sortedBySortKey(children []*Span) []*Span {
	var keyed []*Span
	var slots []int
	for i, child := range children {
		if child.Modification.SortKey != "" {
			keyed = append(keyed, child)
			slots = append(slots, i)
		}
	}
	if len(keyed) < 2 {
		return children
	}

	sort.SliceStable(keyed, func(i, j int) bool {
		return sortCollator.CompareString(
			keyed[i].Modification.SortKey, keyed[j].Modification.SortKey) < 0
	})

	out := make([]*Span, len(children))
	copy(out, children)
	for i, slot := range slots {
		out[slot] = keyed[i]
	}
	return out
}
