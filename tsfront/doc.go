package tsfront

import (
	"regexp"
	"strings"

	"github.com/teranos/apiroll/entity"
)

// docInfo is the metadata extracted from a declaration's doc comment: the
// release tag and the modifier flags the trim policy and report read.
type docInfo struct {
	hasDoc bool

	tag           entity.ReleaseTag
	sealed        bool
	virtual       bool
	override      bool
	eventProperty bool
	deprecated    bool
	preapproved   bool
}

func (info docInfo) apply(d *entity.Declaration) {
	d.HasDoc = info.hasDoc
	d.Tag = info.tag
	d.Sealed = info.sealed
	d.Virtual = info.virtual
	d.Override = info.override
	d.EventProperty = info.eventProperty
	d.Deprecated = info.deprecated
	d.Preapproved = info.preapproved
}

var blockTag = regexp.MustCompile(`@[A-Za-z]+`)

// parseDoc scans a doc comment's text for block tags. Unknown tags are
// ignored; the documentation layer owns full comment parsing, this adapter
// only lifts the flags the core consumes.
func parseDoc(comment string) docInfo {
	info := docInfo{hasDoc: true}

	for _, word := range blockTag.FindAllString(comment, -1) {
		if tag, ok := entity.ParseReleaseTag(word); ok {
			info.tag = tag
			continue
		}
		switch strings.ToLower(strings.TrimPrefix(word, "@")) {
		case "sealed":
			info.sealed = true
		case "virtual":
			info.virtual = true
		case "override":
			info.override = true
		case "eventproperty":
			info.eventProperty = true
		case "deprecated":
			info.deprecated = true
		case "preapproved":
			info.preapproved = true
		}
	}
	return info
}

// precedingDoc returns the metadata of the doc comment immediately before
// the child at idx, if that sibling is a JSDoc-style block comment.
func (m *Module) precedingDoc(parent *Node, idx int) docInfo {
	for i := idx - 1; i >= 0; i-- {
		c := parent.children[i].(*Node)
		if c.typ != "comment" {
			break
		}
		text := m.text(c)
		if strings.HasPrefix(text, "/**") {
			return parseDoc(text)
		}
	}
	return docInfo{}
}
