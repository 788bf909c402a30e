package subject

import (
	"regexp"
	"strings"
)

// TokenMatch is a raw subject token found in a run of text, Start and End are
// byte offsets into that text.
type TokenMatch struct {
	Start int
	End   int
	Raw   string
}

// a dotted subject number, optionally followed by slash suffixes and one
// bracketed legacy number: 6.1220, 6.100A, 6.S890, 6.UAR, 6.1000/A/B,
// 6.1220J[6.046]
var tokenRegex = regexp.MustCompile(
	`(?i)\d+\.(?:[A-Z]?\d+[A-Z]*|UAR|UAT)(?:/[A-Z0-9]+)*(?:\[[^\]\n]*\])?`,
)

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}

func isAlnumByte(b byte) bool {
	return b != '_' && isWordByte(b)
}

// FindTokens returns every non-overlapping, whole-word subject token in text.
func FindTokens(text string) []TokenMatch {
	var out []TokenMatch

	pos := 0
	for pos < len(text) {
		loc := tokenRegex.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]

		if start > 0 && isWordByte(text[start-1]) {
			pos = start + 1
			continue
		}

		end, ok := trimToBoundary(text, start, end)
		if !ok {
			pos = start + 1
			continue
		}

		out = append(out, TokenMatch{Start: start, End: end, Raw: text[start:end]})
		pos = end
	}

	return out
}

// trimToBoundary shrinks a match so it ends on a word boundary. A trailing
// slash segment directly followed by ".<alnum>" is the start of another
// subject number ("6.100A/6.100B") and is given back, as is a bracketed
// number that runs into a word.
func trimToBoundary(text string, start, end int) (int, bool) {
	for {
		if end >= len(text) {
			return end, true
		}
		next, last := text[end], text[end-1]

		if next == '.' && last != ']' && end+1 < len(text) && isAlnumByte(text[end+1]) {
			if slash := strings.LastIndexByte(text[start:end], '/'); slash >= 0 {
				end = start + slash
				continue
			}
		}

		if last == ']' && isWordByte(next) {
			// "6.1220[6.046]x" keeps only the number before the bracket
			if bracket := strings.LastIndexByte(text[start:end], '['); bracket > 0 {
				end = start + bracket
				continue
			}
			return end, false
		}
		return end, last == ']' || !isWordByte(next)
	}
}
