package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInstructorIDStripsClosedPrefixList(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"Dr. Smith", "smith"},
		{"Prof. Smith", "smith"},
		{"Assoc. Prof. Smith", "smith"},
		{"  Dr.   Jane   Smith  ", "jane smith"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NewInstructorID(c.raw).String(), "raw=%q", c.raw)
	}
}

func TestNewInstructorIDDoesNotMergeDistinctInitials(t *testing.T) {
	a := NewInstructorID("A. Smith")
	b := NewInstructorID("B. Smith")
	assert.False(t, a.Equal(b), "distinct instructors must not collapse to the same id")
	assert.NotEqual(t, "smith", a.String())
	assert.NotEqual(t, "smith", b.String())
}

func TestNewInstructorIDPreservesInitialsAfterTitleStrip(t *testing.T) {
	id := NewInstructorID("Dr. A. Smith")
	assert.Equal(t, "a. smith", id.String())
}
