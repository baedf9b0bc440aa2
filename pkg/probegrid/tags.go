package probegrid

import (
	"sort"

	"github.com/df07/go-probegrid/pkg/core"
)

// TagSet is the set of tags that mark boundary surfaces
type TagSet struct {
	tags map[string]struct{}
}

// NewTagSet builds a tag set. Duplicates are ignored.
func NewTagSet(tags ...string) TagSet {
	set := TagSet{tags: make(map[string]struct{}, len(tags))}
	for _, tag := range tags {
		set.tags[tag] = struct{}{}
	}
	return set
}

// Contains reports whether the tag was listed
func (s TagSet) Contains(tag string) bool {
	_, ok := s.tags[tag]
	return ok
}

// IsBoundary reports whether a surface carrying tag is a boundary.
// The untagged sentinel and the empty tag never are, even when listed.
func (s TagSet) IsBoundary(tag string) bool {
	if tag == "" || tag == core.UntaggedTag {
		return false
	}
	return s.Contains(tag)
}

// Len returns the number of listed tags that can act as boundaries
func (s TagSet) Len() int {
	n := 0
	for tag := range s.tags {
		if s.IsBoundary(tag) {
			n++
		}
	}
	return n
}

// Tags returns the listed tags in sorted order
func (s TagSet) Tags() []string {
	out := make([]string, 0, len(s.tags))
	for tag := range s.tags {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
