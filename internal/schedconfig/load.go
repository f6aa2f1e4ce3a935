package schedconfig

import (
	"fmt"

	"github.com/eduplan/scheduler-core/internal/domain"
)

// ConfigError is returned by Build when the raw input cannot be resolved into
// a valid Config: malformed rooms table, unknown day names, or any other
// shape violation. It is fatal; the caller must not attempt to schedule.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("scheduler config: %s: %s", e.Field, e.Message)
}

// RawRoom mirrors the CSV-like rooms table record from the external protocol.
type RawRoom struct {
	Name      string `json:"name"`
	Capacity  int    `json:"capacity"`
	Address   string `json:"address"`
	IsSpecial bool   `json:"is_special"`
}

// RawRoomRef is one entry in a subject/instructor room rule list.
type RawRoomRef struct {
	Address string `json:"address"`
	Room    string `json:"room,omitempty"`
}

// RawSubjectRoomRule is the per-subject room restriction as produced upstream.
// Keys of ByStreamType are stream-type strings ("lecture", "practical",
// "lab"), or "locations" meaning "applies to all stream types".
type RawSubjectRoomRule struct {
	Strict      bool                    `json:"strict"`
	ByStreamType map[string][]RawRoomRef `json:"rules"`
}

// RawGroupBuildingAddress is one allowed address entry for a specialty.
type RawGroupBuildingAddress struct {
	Address string   `json:"address"`
	Rooms   []string `json:"rooms,omitempty"`
}

// RawNearbyGroup is one mutually-nearby address cluster.
type RawNearbyGroup struct {
	Addresses []string `json:"addresses"`
}

// RawInstructorUnavailable mirrors one instructor's weekly-unavailable record.
type RawInstructorUnavailable struct {
	Name             string              `json:"name"`
	WeeklyUnavailable map[string][]string `json:"weekly_unavailable"`
}

// RawInstructorDayConstraint mirrors one instructor's day-of-year restriction.
type RawInstructorDayConstraint struct {
	Name       string         `json:"name"`
	YearDays   map[int][]string `json:"year_days"`
	OnePerWeek bool           `json:"one_day_per_week"`
}

// Input is the full external configuration surface described by §6 of the
// protocol: everything the spreadsheet parser and config file loaders hand
// to the scheduling core.
type Input struct {
	Rooms                   []RawRoom
	SubjectRooms            map[string]RawSubjectRoomRule
	InstructorRooms         map[string]RawSubjectRoomRule
	GroupBuildings          map[string][]RawGroupBuildingAddress
	NearbyBuildings         []RawNearbyGroup
	InstructorUnavailable   []RawInstructorUnavailable
	InstructorDayConstraints []RawInstructorDayConstraint
	ForcedSecondShiftGroups []string
	DeadGroups              []string
	FlexibleSubjects        []string
	MaxWindowsPerDay        int // 0 selects the default of 1
}

func parseStreamType(raw string) (domain.StreamType, bool) {
	switch raw {
	case "lecture":
		return domain.Lecture, true
	case "practical":
		return domain.Practical, true
	case "lab":
		return domain.Lab, true
	default:
		return 0, false
	}
}

func buildStreamTypeRules(field string, raw map[string][]RawRoomRef) (StreamTypeRules, error) {
	rules := StreamTypeRules{ByType: make(map[domain.StreamType][]RoomRule)}
	for key, refs := range raw {
		converted := make([]RoomRule, 0, len(refs))
		for _, ref := range refs {
			if ref.Address == "" {
				return StreamTypeRules{}, &ConfigError{Field: field, Message: "room rule missing address"}
			}
			converted = append(converted, RoomRule{Address: ref.Address, RoomName: ref.Room})
		}
		if key == "locations" {
			rules.All = converted
			continue
		}
		st, ok := parseStreamType(key)
		if !ok {
			return StreamTypeRules{}, &ConfigError{Field: field, Message: fmt.Sprintf("unknown stream type key %q", key)}
		}
		rules.ByType[st] = converted
	}
	return rules, nil
}

// Build validates and converts raw input into an immutable Config. Any shape
// violation (unknown day name, malformed clock time, duplicate room
// identity) is returned as a *ConfigError; the caller must abort before
// scheduling.
func Build(in Input) (*Config, error) {
	cfg := &Config{
		SubjectRooms:                make(map[string]SubjectRoomRule),
		InstructorRooms:             make(map[domain.InstructorID]StreamTypeRules),
		GroupBuildings:              make(map[string]GroupBuildingRule),
		InstructorWeeklyUnavailable: make(map[domain.InstructorID]map[domain.Day]map[domain.Slot]bool),
		InstructorDayConstraints:    make(map[domain.InstructorID]InstructorDayConstraint),
		ForcedSecondShiftGroups:     make(map[string]bool),
		DeadGroups:                  make(map[string]bool),
		FlexibleSubjects:            make(map[string]bool),
		MaxWindowsPerDay:            in.MaxWindowsPerDay,
	}
	if cfg.MaxWindowsPerDay <= 0 {
		cfg.MaxWindowsPerDay = 1
	}

	seenRooms := make(map[domain.RoomKey]bool)
	for _, r := range in.Rooms {
		if r.Name == "" || r.Address == "" {
			return nil, &ConfigError{Field: "rooms", Message: "room missing name or address"}
		}
		if r.Capacity <= 0 {
			return nil, &ConfigError{Field: "rooms", Message: fmt.Sprintf("room %s/%s has non-positive capacity", r.Name, r.Address)}
		}
		key := domain.RoomKey{Name: r.Name, Address: r.Address}
		if seenRooms[key] {
			return nil, &ConfigError{Field: "rooms", Message: fmt.Sprintf("duplicate room identity %s/%s", r.Name, r.Address)}
		}
		seenRooms[key] = true
		cfg.Rooms = append(cfg.Rooms, domain.Room{Name: r.Name, Address: r.Address, Capacity: r.Capacity, IsSpecial: r.IsSpecial})
	}

	for subject, rawRule := range in.SubjectRooms {
		rules, err := buildStreamTypeRules("subject_rooms."+subject, rawRule.ByStreamType)
		if err != nil {
			return nil, err
		}
		mode := Preferred
		if rawRule.Strict {
			mode = Strict
		}
		cfg.SubjectRooms[subject] = SubjectRoomRule{Mode: mode, Rules: rules}
	}

	for instructor, rawRule := range in.InstructorRooms {
		rules, err := buildStreamTypeRules("instructor_rooms."+instructor, rawRule.ByStreamType)
		if err != nil {
			return nil, err
		}
		cfg.InstructorRooms[domain.NewInstructorID(instructor)] = rules
	}

	for specialty, addrs := range in.GroupBuildings {
		converted := make([]GroupBuildingAddress, 0, len(addrs))
		for _, a := range addrs {
			if a.Address == "" {
				return nil, &ConfigError{Field: "group_buildings." + specialty, Message: "address missing"}
			}
			converted = append(converted, GroupBuildingAddress{Address: a.Address, Rooms: a.Rooms})
		}
		cfg.GroupBuildings[specialty] = GroupBuildingRule{Addresses: converted}
	}

	for _, group := range in.NearbyBuildings {
		if len(group.Addresses) > 0 {
			cfg.NearbyClusters = append(cfg.NearbyClusters, group.Addresses)
		}
	}

	for _, inst := range in.InstructorUnavailable {
		id := domain.NewInstructorID(inst.Name)
		byDay := make(map[domain.Day]map[domain.Slot]bool)
		for dayName, clocks := range inst.WeeklyUnavailable {
			day, err := domain.ParseDay(dayName)
			if err != nil {
				// "saturday" appears in the protocol's day vocabulary for
				// unavailability even though the scheduler only ever places
				// classes Mon-Fri; it carries no scheduling slots, so skip it.
				if dayName == "saturday" {
					continue
				}
				return nil, &ConfigError{Field: "instructor_unavailable." + inst.Name, Message: err.Error()}
			}
			slots := make(map[domain.Slot]bool)
			for _, clock := range clocks {
				slot, ok := domain.SlotForClockTime(clock)
				if !ok {
					return nil, &ConfigError{Field: "instructor_unavailable." + inst.Name, Message: fmt.Sprintf("unknown clock time %q", clock)}
				}
				slots[slot] = true
			}
			byDay[day] = slots
		}
		cfg.InstructorWeeklyUnavailable[id] = byDay
	}

	for _, inst := range in.InstructorDayConstraints {
		id := domain.NewInstructorID(inst.Name)
		yearDays := make(map[int][]domain.Day)
		for year, dayNames := range inst.YearDays {
			days := make([]domain.Day, 0, len(dayNames))
			for _, dn := range dayNames {
				day, err := domain.ParseDay(dn)
				if err != nil {
					return nil, &ConfigError{Field: "instructor_day_constraints." + inst.Name, Message: err.Error()}
				}
				days = append(days, day)
			}
			yearDays[year] = days
		}
		cfg.InstructorDayConstraints[id] = InstructorDayConstraint{YearDays: yearDays, OnePerWeek: inst.OnePerWeek}
	}

	for _, g := range in.ForcedSecondShiftGroups {
		cfg.ForcedSecondShiftGroups[domain.BaseGroupOf(g)] = true
	}
	for _, g := range in.DeadGroups {
		cfg.DeadGroups[domain.BaseGroupOf(g)] = true
	}
	for _, subject := range in.FlexibleSubjects {
		cfg.FlexibleSubjects[subject] = true
	}

	return cfg, nil
}
