package timeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eduplan/scheduler-core/internal/domain"
)

func TestShiftForYear(t *testing.T) {
	assert.Equal(t, domain.ShiftFirst, ShiftForYear(1))
	assert.Equal(t, domain.ShiftSecond, ShiftForYear(2))
	assert.Equal(t, domain.ShiftFirst, ShiftForYear(3))
	assert.Equal(t, domain.ShiftSecond, ShiftForYear(4))
	assert.Equal(t, domain.ShiftSecond, ShiftForYear(5))
}

func TestShiftForGroupsSingleYear(t *testing.T) {
	assert.Equal(t, domain.ShiftFirst, ShiftForGroups([]string{"CS-11"}, nil))
	assert.Equal(t, domain.ShiftSecond, ShiftForGroups([]string{"CS-21"}, nil))
}

func TestShiftForGroupsMixedYearMajorityWins(t *testing.T) {
	// 1 first-year group + 3 second-year groups: second shift must win
	// because it is the strict majority (3 > 1), not merely because any
	// group resolved to second.
	groups := []string{"CS-11", "CS-21", "CS-22", "CS-23"}
	assert.Equal(t, domain.ShiftSecond, ShiftForGroups(groups, nil))
}

func TestShiftForGroupsMajorityFirst(t *testing.T) {
	groups := []string{"CS-11", "CS-12", "CS-13", "CS-21"}
	assert.Equal(t, domain.ShiftFirst, ShiftForGroups(groups, nil))
}

func TestShiftForGroupsTieResolvesToSecond(t *testing.T) {
	groups := []string{"CS-11", "CS-21"}
	assert.Equal(t, domain.ShiftSecond, ShiftForGroups(groups, nil))
}

func TestShiftForGroupsForcedSecondOverridesYear(t *testing.T) {
	forced := map[string]bool{"CS-11": true}
	assert.Equal(t, domain.ShiftSecond, ShiftForGroups([]string{"CS-11"}, forced))
}
