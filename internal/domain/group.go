package domain

import "regexp"

// groupPattern implements the group-name grammar from the wire protocol:
//
//	group     := specialty '-' two_digits rest
//	specialty := letters+
//	two_digits:= first=year_digit second=subgroup_parity_digit
//	rest      := (' ' (O|R)?)? subgroup?
//	subgroup  := '/' [12] '/' | '\' [12] '\' | '-' [12]
//
// The first digit is the year (1-5); the second digit's parity carries the
// group's language (affects renderers only, not the scheduling core).
var groupPattern = regexp.MustCompile(`^(\p{L}+)-(\d)(\d)(?:\s*[A-Za-z\p{L}]?)?(?:(/([12])/|\\([12])\\|-([12])))?$`)

// ParsedGroup is the decomposition of a raw group name.
type ParsedGroup struct {
	Specialty string
	Year      int
	BaseGroup string
	Subgroup  int // 0 when the raw name carries no subgroup marker
}

// ParseGroupName decomposes a raw group name per the grammar above. Names that
// do not match are returned with BaseGroup equal to the raw input and Year 0,
// so that callers can still use them as an opaque identity.
func ParseGroupName(raw string) ParsedGroup {
	m := groupPattern.FindStringSubmatch(raw)
	if m == nil {
		return ParsedGroup{BaseGroup: raw}
	}
	specialty := m[1]
	yearDigit := int(m[2][0] - '0')
	base := specialty + "-" + m[2] + m[3]

	subgroup := 0
	switch {
	case m[5] != "":
		subgroup = int(m[5][0] - '0')
	case m[6] != "":
		subgroup = int(m[6][0] - '0')
	case m[7] != "":
		subgroup = int(m[7][0] - '0')
	}

	return ParsedGroup{
		Specialty: specialty,
		Year:      yearDigit,
		BaseGroup: base,
		Subgroup:  subgroup,
	}
}

// BaseGroupOf strips subgroup notation and returns the identity used for
// mutual-exclusion bookkeeping across the tracker's reservation maps.
func BaseGroupOf(raw string) string {
	return ParseGroupName(raw).BaseGroup
}

// AreSubgroupSiblings reports whether a and b share a base group but carry
// distinct, non-zero subgroup markers.
func AreSubgroupSiblings(a, b string) bool {
	pa, pb := ParseGroupName(a), ParseGroupName(b)
	return pa.BaseGroup == pb.BaseGroup && pa.Subgroup != 0 && pb.Subgroup != 0 && pa.Subgroup != pb.Subgroup
}
