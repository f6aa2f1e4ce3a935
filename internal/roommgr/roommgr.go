// Package roommgr implements the Room Manager: given a stream and a
// candidate (day, slot, week_type), return a concrete room via the four-tier
// priority allocator described by the protocol, with elastic capacity and
// reserved-building enforcement.
//
// The manager holds no occupancy state of its own; availability at a
// candidate position is always tested through the Conflict Tracker's room
// reservation map, so that room booking and release stay in one place.
package roommgr

import (
	"sort"

	"github.com/eduplan/scheduler-core/internal/domain"
	"github.com/eduplan/scheduler-core/internal/schedconfig"
	"github.com/eduplan/scheduler-core/internal/tracker"
)

// Availability is the subset of the Conflict Tracker the room manager needs.
type Availability interface {
	IsRoomAvailable(room domain.RoomKey, day domain.Day, slot domain.Slot, week domain.WeekType) bool
}

var _ Availability = (*tracker.Tracker)(nil)

// Manager selects rooms per the four-tier protocol.
type Manager struct {
	cfg    *schedconfig.Config
	avail  Availability
	byAddr map[string][]domain.Room
	all    []domain.Room

	reserved map[string]map[string]bool // address -> allowed specialties
}

// New constructs a Manager bound to cfg's room catalog and rule tables.
func New(cfg *schedconfig.Config, avail Availability) *Manager {
	m := &Manager{
		cfg:      cfg,
		avail:    avail,
		byAddr:   make(map[string][]domain.Room),
		all:      cfg.Rooms,
		reserved: cfg.ReservedAddresses(),
	}
	for _, r := range cfg.Rooms {
		m.byAddr[r.Address] = append(m.byAddr[r.Address], r)
	}
	return m
}

// Request describes the stream-shaped input to a single room selection.
type Request struct {
	StreamID     string
	StreamType   domain.StreamType
	Subject      string
	Instructor   domain.InstructorID
	Groups       []string
	StudentCount int
	Day          domain.Day
	Slots        []domain.Slot // contiguous block the room must be free for, start..start+hours-1
	WeekType     domain.WeekType
	Blacklist    map[string]bool // addresses excluded for this stream id
}

// Select runs the four-tier protocol and returns a concrete room, or ok=false
// if no tier yields a fitting, available room.
func (m *Manager) Select(req Request) (domain.Room, bool) {
	// Tier 0: instructor-special rooms.
	if rules, ok := m.cfg.InstructorRooms[req.Instructor]; ok {
		if refs, ok := rules.For(req.StreamType); ok {
			candidates := m.resolve(refs, req.Blacklist, true)
			if room, ok := m.pick(candidates, req); ok {
				return room, true
			}
		}
	}

	// Tier 1: subject rooms. Strict mode never falls through.
	if rule, ok := m.cfg.SubjectRooms[req.Subject]; ok {
		if refs, ok := rule.Rules.For(req.StreamType); ok {
			candidates := append(m.resolve(refs, req.Blacklist, false), m.resolve(refs, req.Blacklist, true)...)
			room, found := m.pick(candidates, req)
			if found {
				return room, true
			}
			if rule.Mode == schedconfig.Strict {
				return domain.Room{}, false
			}
		}
	}

	// Tier 2: instructor non-special rooms.
	if rules, ok := m.cfg.InstructorRooms[req.Instructor]; ok {
		if refs, ok := rules.For(req.StreamType); ok {
			candidates := m.resolve(refs, req.Blacklist, false)
			if room, ok := m.pick(candidates, req); ok {
				return room, true
			}
		}
	}

	// Tier 3: group-building rooms, when every group shares one specialty
	// with a building preference.
	if specialty, ok := m.sharedSpecialty(req.Groups); ok {
		if rule, ok := m.cfg.GroupBuildings[specialty]; ok {
			var candidates []domain.Room
			for _, addr := range rule.Addresses {
				refs := []schedconfig.RoomRule{{Address: addr.Address}}
				if len(addr.Rooms) > 0 {
					refs = nil
					for _, name := range addr.Rooms {
						refs = append(refs, schedconfig.RoomRule{Address: addr.Address, RoomName: name})
					}
				}
				candidates = append(candidates, m.resolve(refs, req.Blacklist, false)...)
			}
			if room, ok := m.pick(candidates, req); ok {
				return room, true
			}
		}
	}

	// Tier 4: general pool, excluding rooms at addresses reserved to a
	// specialty not shared by every group in the stream.
	groupSpecialties := m.specialtiesOf(req.Groups)
	var pool []domain.Room
	for _, r := range m.all {
		if r.IsSpecial {
			continue
		}
		if req.Blacklist[r.Address] {
			continue
		}
		if allowed, reserved := m.reserved[r.Address]; reserved {
			if !allSpecialtiesAllowed(groupSpecialties, allowed) {
				continue
			}
		}
		pool = append(pool, r)
	}
	if room, ok := m.pick(pool, req); ok {
		return room, true
	}

	return domain.Room{}, false
}

// resolve expands room rules into concrete rooms, filtered to the blacklist
// and to the requested is_special value (tier 0 wants special rooms only,
// tier 1 takes both kinds by calling it twice, every other tier wants
// non-special rooms only).
func (m *Manager) resolve(refs []schedconfig.RoomRule, blacklist map[string]bool, requireSpecial bool) []domain.Room {
	var out []domain.Room
	for _, ref := range refs {
		if blacklist[ref.Address] {
			continue
		}
		for _, r := range m.byAddr[ref.Address] {
			if ref.RoomName != "" && r.Name != ref.RoomName {
				continue
			}
			if r.IsSpecial != requireSpecial {
				continue
			}
			out = append(out, r)
		}
	}
	return out
}

// pick applies the capacity test: smallest-fitting room first, else the
// largest room whose buffered capacity fits.
func (m *Manager) pick(candidates []domain.Room, req Request) (domain.Room, bool) {
	var available []domain.Room
	for _, r := range candidates {
		if m.fitsBlock(r.Key(), req) {
			available = append(available, r)
		}
	}
	if len(available) == 0 {
		return domain.Room{}, false
	}

	sort.Slice(available, func(i, j int) bool { return available[i].Capacity < available[j].Capacity })
	for _, r := range available {
		if r.Capacity >= req.StudentCount {
			return r, true
		}
	}

	buffer := domain.CapacityBuffer(req.StudentCount)
	sort.Slice(available, func(i, j int) bool { return available[i].Capacity > available[j].Capacity })
	for _, r := range available {
		if float64(r.Capacity)+buffer >= float64(req.StudentCount) {
			return r, true
		}
	}
	return domain.Room{}, false
}

// fitsBlock reports whether room is free at every slot in req.Slots, so that
// multi-hour streams reuse the same room across the whole contiguous block.
func (m *Manager) fitsBlock(room domain.RoomKey, req Request) bool {
	if len(req.Slots) == 0 {
		return false
	}
	for _, s := range req.Slots {
		if !m.avail.IsRoomAvailable(room, req.Day, s, req.WeekType) {
			return false
		}
	}
	return true
}

func (m *Manager) sharedSpecialty(groups []string) (string, bool) {
	specialty := ""
	for i, raw := range groups {
		s := domain.ParseGroupName(raw).Specialty
		if i == 0 {
			specialty = s
			continue
		}
		if s != specialty {
			return "", false
		}
	}
	if specialty == "" {
		return "", false
	}
	return specialty, true
}

func (m *Manager) specialtiesOf(groups []string) map[string]bool {
	out := make(map[string]bool)
	for _, raw := range groups {
		out[domain.ParseGroupName(raw).Specialty] = true
	}
	return out
}

func allSpecialtiesAllowed(have map[string]bool, allowed map[string]bool) bool {
	for s := range have {
		if !allowed[s] {
			return false
		}
	}
	return true
}
