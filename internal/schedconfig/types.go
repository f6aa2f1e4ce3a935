// Package schedconfig holds the typed configuration tables the scheduling
// core consumes: rooms, subject/instructor/group-building room rules, nearby
// building clusters, instructor availability and day constraints, and the
// handful of policy knobs (max windows, forced shifts) the pipeline reads.
//
// Configuration errors are fatal before any scheduling begins; Build rejects
// unknown day names, malformed clock times, and duplicate room identities at
// the loader boundary so that the rest of the core never has to re-validate
// the shapes it consumes.
package schedconfig

import "github.com/eduplan/scheduler-core/internal/domain"

// RoomRuleMode distinguishes whether a subject's declared rooms are merely
// preferred (fall through to lower tiers on exhaustion) or strict (no
// fall-through; failure to fit is reported as unscheduled). The source
// collapses this distinction; it is made explicit here per design note.
type RoomRuleMode int

const (
	// Preferred rooms are tried first but the room manager may fall through
	// to lower-priority tiers if none fit.
	Preferred RoomRuleMode = iota
	// Strict rooms are the only rooms ever considered; no fall-through.
	Strict
)

// RoomRule names a single allowed room, or an entire address when RoomName
// is empty (meaning any room at that address is acceptable).
type RoomRule struct {
	Address  string
	RoomName string // empty means "any room at Address"
}

// StreamTypeRules groups room rules by stream type, with an "all types"
// fallback used when the source configuration used the "locations" key.
type StreamTypeRules struct {
	ByType map[domain.StreamType][]RoomRule
	All    []RoomRule
}

// For returns the rules applicable to st, preferring a type-specific entry
// and falling back to the "all types" list.
func (r StreamTypeRules) For(st domain.StreamType) ([]RoomRule, bool) {
	if rules, ok := r.ByType[st]; ok && len(rules) > 0 {
		return rules, true
	}
	if len(r.All) > 0 {
		return r.All, true
	}
	return nil, false
}

// SubjectRoomRule is the per-subject room restriction plus its mode.
type SubjectRoomRule struct {
	Mode  RoomRuleMode
	Rules StreamTypeRules
}

// GroupBuildingRule restricts a specialty to one or more addresses, each
// optionally further restricted to named rooms.
type GroupBuildingRule struct {
	Addresses []GroupBuildingAddress
}

// GroupBuildingAddress is one allowed address for a specialty, with an
// optional room-name allowlist.
type GroupBuildingAddress struct {
	Address string
	Rooms   []string // empty means any room at Address
}

// InstructorDayConstraint restricts an instructor to teaching certain years
// only on certain days.
type InstructorDayConstraint struct {
	YearDays   map[int][]domain.Day
	OnePerWeek bool
}

// Config is the fully validated, typed configuration the scheduling core
// consumes. It is immutable once built; the Conflict Tracker and Room
// Manager read from it but never mutate it.
type Config struct {
	Rooms []domain.Room

	SubjectRooms    map[string]SubjectRoomRule
	InstructorRooms map[domain.InstructorID]StreamTypeRules
	GroupBuildings  map[string]GroupBuildingRule // keyed by specialty

	NearbyClusters [][]string // each inner slice is a mutually-nearby address cluster

	InstructorWeeklyUnavailable map[domain.InstructorID]map[domain.Day]map[domain.Slot]bool
	InstructorDayConstraints    map[domain.InstructorID]InstructorDayConstraint

	ForcedSecondShiftGroups map[string]bool // base group name -> true
	DeadGroups              map[string]bool // base group name -> true
	FlexibleSubjects        map[string]bool // subject -> true; accepts any weekday, sorts last

	// MaxWindowsPerDay bounds the number of gaps between a group's first and
	// last class on a day. The source varies this across stages; this port
	// settles on a single per-day-per-group policy (see design notes).
	MaxWindowsPerDay int
}

// ReservedAddresses returns the derived "address -> allowed specialties" map
// used by the room manager's general-pool tier and invariant 7.
func (c Config) ReservedAddresses() map[string]map[string]bool {
	out := make(map[string]map[string]bool)
	for specialty, rule := range c.GroupBuildings {
		for _, addr := range rule.Addresses {
			if out[addr.Address] == nil {
				out[addr.Address] = make(map[string]bool)
			}
			out[addr.Address][specialty] = true
		}
	}
	return out
}

// NearbyCluster returns the cluster containing address, or nil if address is
// not declared nearby to anything else.
func (c Config) NearbyCluster(address string) []string {
	for _, cluster := range c.NearbyClusters {
		for _, a := range cluster {
			if a == address {
				return cluster
			}
		}
	}
	return nil
}

// AreNearby reports whether a and b are the same address, or both members of
// a declared nearby cluster.
func (c Config) AreNearby(a, b string) bool {
	if a == b {
		return true
	}
	cluster := c.NearbyCluster(a)
	for _, addr := range cluster {
		if addr == b {
			return true
		}
	}
	return false
}
