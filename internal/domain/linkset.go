package domain

import "sort"

// LinkSet is the per-source set of links already ingested.
type LinkSet map[string]struct{}

// NewLinkSet builds a set from links, skipping empty strings.
func NewLinkSet(links ...string) LinkSet {
	s := make(LinkSet, len(links))
	for _, l := range links {
		s.Add(l)
	}
	return s
}

func (s LinkSet) Has(link string) bool {
	_, ok := s[link]
	return ok
}

func (s LinkSet) Add(link string) {
	if link == "" {
		return
	}
	s[link] = struct{}{}
}

func (s LinkSet) Len() int { return len(s) }

// Intersect returns the links present in both sets.
func (s LinkSet) Intersect(other LinkSet) LinkSet {
	out := make(LinkSet)
	for l := range s {
		if other.Has(l) {
			out[l] = struct{}{}
		}
	}
	return out
}

// Union returns a new set holding the links of both sets.
func (s LinkSet) Union(other LinkSet) LinkSet {
	out := make(LinkSet, len(s)+len(other))
	for l := range s {
		out[l] = struct{}{}
	}
	for l := range other {
		out[l] = struct{}{}
	}
	return out
}

// Sorted returns the links in lexical order.
func (s LinkSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
