package domain

import (
	"regexp"
	"strings"
)

// InstructorID is a newtype over the normalized form of an instructor's name.
// It must never be constructed directly; use NewInstructorID so that every
// comparison in the tracker and room manager operates on the same normal form.
type InstructorID struct {
	normalized string
}

// String returns the normalized form for logging and map keys.
func (id InstructorID) String() string {
	return id.normalized
}

// IsZero reports whether id was never assigned a normalized name.
func (id InstructorID) IsZero() bool {
	return id.normalized == ""
}

// Equal compares two instructor IDs by normalized form.
func (id InstructorID) Equal(other InstructorID) bool {
	return id.normalized == other.normalized
}

// titlePrefixes is the closed list of academic-title prefixes that the parser
// preserves verbatim but which the tracker must treat as identical. Matching
// is case-insensitive; entries are tried longest-first so that a compound
// title ("Assoc. Prof.") is stripped before its shorter substring ("Prof.").
var titlePrefixes = []string{
	"associate professor",
	"assoc. prof.",
	"assoc prof.",
	"senior lecturer",
	"sr. lecturer",
	"sr lecturer",
	"professor",
	"lecturer",
	"docent",
	"prof.",
	"dr.",
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NewInstructorID normalizes raw and returns the id to use for every
// reservation, availability check, and equality comparison. Normalization
// strips academic-title prefixes (case-insensitively, longest match first)
// and collapses interior whitespace. It never strips a person's own leading
// initials: "A. Smith" and "B. Smith" are distinct instructors.
func NewInstructorID(raw string) InstructorID {
	name := strings.TrimSpace(raw)
	lower := strings.ToLower(name)

	stripped := true
	for stripped {
		stripped = false
		for _, prefix := range titlePrefixes {
			if strings.HasPrefix(lower, prefix) {
				name = strings.TrimSpace(name[len(prefix):])
				lower = strings.ToLower(name)
				stripped = true
				break
			}
		}
	}

	name = whitespaceRun.ReplaceAllString(strings.TrimSpace(name), " ")

	return InstructorID{normalized: strings.ToLower(name)}
}
