// Package testing provides shared test fixtures: hand-built syntax trees and
// a map-backed resolver, so core packages can be exercised without running a
// parser front-end.
package testing

import (
	"github.com/teranos/apiroll/entity"
	"github.com/teranos/apiroll/syntax"
)

// Node is a minimal syntax.Node for tests. Positions are byte offsets into
// whatever source text the test pairs the tree with.
type Node struct {
	NodeKind    syntax.Kind
	Start, Stop int
	Kids        []*Node
}

func (n *Node) Kind() syntax.Kind { return n.NodeKind }
func (n *Node) Pos() int          { return n.Start }
func (n *Node) End() int          { return n.Stop }

func (n *Node) Children() []syntax.Node {
	out := make([]syntax.Node, len(n.Kids))
	for i, kid := range n.Kids {
		out[i] = kid
	}
	return out
}

// Leaf builds a childless node covering [pos, end).
func Leaf(kind syntax.Kind, pos, end int) *Node {
	return &Node{NodeKind: kind, Start: pos, Stop: end}
}

// Branch builds a node with the given children.
func Branch(kind syntax.Kind, pos, end int, kids ...*Node) *Node {
	return &Node{NodeKind: kind, Start: pos, Stop: end, Kids: kids}
}

// MapResolver resolves nodes through a literal table, standing in for the
// front-end's binding lookup.
type MapResolver map[syntax.Node]entity.SymbolID

func (r MapResolver) Resolve(n syntax.Node) (entity.SymbolID, bool) {
	sym, ok := r[n]
	return sym, ok
}
