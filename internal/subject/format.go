package subject

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrInvalidSubject = errors.New("invalid subject number")

var (
	validSubjectRegex = regexp.MustCompile(`^\d+\.[\d\w]+$`)
	newFormatRegex    = regexp.MustCompile(`^\d+\.(\d+)`)
	digitRegex        = regexp.MustCompile(`\d`)
)

// IsNewFormat reports whether a subject uses the post-2022 numbering, that is
// 4 digits after the dot. Lettered subjects (6.UAR, 6.UAT) never changed and
// count as new format.
func IsNewFormat(s Canonical) bool {
	_, after, found := strings.Cut(s, ".")
	if !found || !digitRegex.MatchString(after) {
		return true
	}

	groups := newFormatRegex.FindStringSubmatch(s)
	if len(groups) < 2 {
		return false
	}
	return len(groups[1]) == 4
}

// Validate checks that a canonical subject looks like "<dept>.<code>".
func Validate(s Canonical) error {
	if !validSubjectRegex.MatchString(strings.TrimSpace(s)) {
		return fmt.Errorf("%w: %q", ErrInvalidSubject, s)
	}
	return nil
}

// Normalize parses raw and validates every resulting subject.
func Normalize(raw string) ([]Canonical, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty subject string", ErrInvalidSubject)
	}

	subjects := Parse(raw)
	if len(subjects) == 0 {
		return nil, fmt.Errorf("%w: %q has no subject outside brackets", ErrInvalidSubject, raw)
	}
	var errs []error
	for _, s := range subjects {
		if err := Validate(s); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return subjects, nil
}
