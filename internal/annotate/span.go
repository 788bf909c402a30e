package annotate

import (
	"strings"

	"aags-annotator/internal/subject"
)

// Span marks a subject token inside a run of text that has at least one
// flagged subject. Start and End are byte offsets, Raw is the token exactly as
// it appeared.
type Span struct {
	Start   int
	End     int
	Raw     string
	Matched []subject.Canonical
}

// FindSpans computes the annotation spans of text without touching any tree.
func FindSpans(text string, flagged subject.FlaggedSet) []Span {
	if flagged.Len() == 0 || !strings.ContainsAny(text, "0123456789") {
		return nil
	}

	var spans []Span
	for _, token := range subject.FindTokens(text) {
		matched := subject.Matches(subject.Parse(token.Raw), flagged)
		if len(matched) == 0 {
			continue
		}
		spans = append(spans, Span{
			Start:   token.Start,
			End:     token.End,
			Raw:     token.Raw,
			Matched: matched,
		})
	}
	return spans
}
