package timeutil

import "github.com/eduplan/scheduler-core/internal/domain"

// ShiftForYear derives the shift a group's year inherits: year 2 takes the
// second shift, years 1 and 3 take the first shift, years 4 and 5 are
// automatic and default to the second shift absent any override.
func ShiftForYear(year int) domain.Shift {
	switch year {
	case 2:
		return domain.ShiftSecond
	case 1, 3:
		return domain.ShiftFirst
	default:
		return domain.ShiftSecond
	}
}

// ShiftForGroups derives the shift a stream inherits from its groups' years.
// When groups span more than one year, the stream takes the shift the
// majority of its groups resolve to; a tie prefers the second shift.
// forcedSecond names base groups configured to always take the second shift
// regardless of year.
func ShiftForGroups(groups []string, forcedSecond map[string]bool) domain.Shift {
	firstCount := 0
	secondCount := 0
	for _, raw := range groups {
		parsed := domain.ParseGroupName(raw)
		if forcedSecond[parsed.BaseGroup] {
			secondCount++
			continue
		}
		switch ShiftForYear(parsed.Year) {
		case domain.ShiftFirst:
			firstCount++
		default:
			secondCount++
		}
	}
	if firstCount > secondCount {
		return domain.ShiftFirst
	}
	return domain.ShiftSecond
}
