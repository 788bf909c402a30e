package subject

import (
	"slices"

	"github.com/antzucaro/matchr"
)

// Suggestion is a flagged subject that looks similar to a queried one.
type Suggestion struct {
	Subject    Canonical `json:"subject"`
	Similarity float64   `json:"similarity"`
}

// Suggest returns up to limit flagged subjects whose Jaro-Winkler similarity
// to token is at least threshold, most similar first. Ties sort by subject.
func Suggest(token Canonical, flagged FlaggedSet, threshold float64, limit int) []Suggestion {
	if limit <= 0 || token == "" {
		return nil
	}

	var out []Suggestion
	for s := range flagged.members {
		if s == token {
			continue
		}
		similarity := matchr.JaroWinkler(token, s, false)
		if similarity >= threshold {
			out = append(out, Suggestion{Subject: s, Similarity: similarity})
		}
	}

	slices.SortFunc(out, func(a, b Suggestion) int {
		if a.Similarity > b.Similarity {
			return -1
		}
		if a.Similarity < b.Similarity {
			return 1
		}
		if a.Subject < b.Subject {
			return -1
		}
		if a.Subject > b.Subject {
			return 1
		}
		return 0
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
