package subject

import "slices"

// FlaggedSet is the immutable set of subjects that satisfy AAGS. The zero value
// is an empty set. It is safe for concurrent readers.
type FlaggedSet struct {
	members map[Canonical]struct{}
}

// NewFlaggedSet builds a set from subjects as given, membership is exact so no
// trimming or case folding is applied. Empty strings are ignored.
func NewFlaggedSet(subjects []string) FlaggedSet {
	members := make(map[Canonical]struct{}, len(subjects))
	for _, s := range subjects {
		if s == "" {
			continue
		}
		members[s] = struct{}{}
	}
	return FlaggedSet{members: members}
}

func (f FlaggedSet) Has(s Canonical) bool {
	_, ok := f.members[s]
	return ok
}

func (f FlaggedSet) Len() int {
	return len(f.members)
}

// Subjects returns a sorted copy of the members.
func (f FlaggedSet) Subjects() []Canonical {
	out := make([]Canonical, 0, len(f.members))
	for s := range f.members {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// IsMember reports whether token is in flagged.
func IsMember(token Canonical, flagged FlaggedSet) bool {
	return flagged.Has(token)
}

// Matches returns the tokens present in flagged, in input order. Duplicates in
// tokens are kept.
func Matches(tokens []Canonical, flagged FlaggedSet) []Canonical {
	var out []Canonical
	for _, t := range tokens {
		if flagged.Has(t) {
			out = append(out, t)
		}
	}
	return out
}
