package entity

import "strings"

// ReleaseTag is the visibility tier of a declaration. The ordering is
// significant: a rollup requested at tier T keeps declarations whose
// effective tag is >= T, so Internal < Alpha < Beta < Public.
type ReleaseTag uint8

const (
	// TagNone means the declaration carries no tag of its own; the effective
	// tag is inherited from the nearest tagged ancestor.
	TagNone ReleaseTag = iota
	TagInternal
	TagAlpha
	TagBeta
	TagPublic
)

var tagNames = [...]string{
	TagNone:     "",
	TagInternal: "internal",
	TagAlpha:    "alpha",
	TagBeta:     "beta",
	TagPublic:   "public",
}

func (t ReleaseTag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return ""
}

// AtLeast reports whether a declaration tagged t survives a rollup at tier
// min.
func (t ReleaseTag) AtLeast(min ReleaseTag) bool {
	return t >= min
}

// ParseReleaseTag maps a tag word (with or without the leading "@") to its
// ReleaseTag. Unknown words yield TagNone, false.
func ParseReleaseTag(word string) (ReleaseTag, bool) {
	switch strings.TrimPrefix(strings.ToLower(word), "@") {
	case "internal":
		return TagInternal, true
	case "alpha":
		return TagAlpha, true
	case "beta":
		return TagBeta, true
	case "public":
		return TagPublic, true
	}
	return TagNone, false
}
