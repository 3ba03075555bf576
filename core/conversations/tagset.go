package conversations

import (
	"maps"
	"slices"
)

// TagSet is an unordered set of detection tags. Within a call it only ever
// grows.
type TagSet map[string]struct{}

func (s TagSet) Add(tags ...string) {
	for _, tag := range tags {
		s[tag] = struct{}{}
	}
}

func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

func (s TagSet) Len() int { return len(s) }

// Sorted returns the tags in a stable order for prompts and logs.
func (s TagSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

func (s TagSet) Clone() TagSet {
	if s == nil {
		return TagSet{}
	}
	return maps.Clone(s)
}
