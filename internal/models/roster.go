package models

import (
	"sort"
	"time"
)

// SectionInfo carries the optional metadata attached to a section.
type SectionInfo struct {
	Zoom string `json:"zoom,omitempty" yaml:"zoom,omitempty"`
}

// Day is one scheduling cycle and its pairing set.
type Day struct {
	ID       int
	Name     string
	Locked   bool
	Pairings []Pairing
}

// PairingOf returns the index and record holding s on this day.
func (d *Day) PairingOf(s Student) (int, Pairing, bool) {
	for i, p := range d.Pairings {
		if p.Has(s) {
			return i, p, true
		}
	}
	return -1, nil, false
}

// PairingOnTeam returns the index and record occupying team on this day.
func (d *Day) PairingOnTeam(team Team) (int, Pairing, bool) {
	for i, p := range d.Pairings {
		if t, ok := p.TeamName(); ok && t == team {
			return i, p, true
		}
	}
	return -1, nil, false
}

// Roster is the whole persisted state of one pairing roster.
type Roster struct {
	// Students maps every student to their default section (NoSection when unset).
	Students  map[Student]Section
	Sections  map[Section]SectionInfo
	Teams     map[Team]struct{}
	Days      []*Day
	Revision  string
	UpdatedAt time.Time
}

// NewRoster returns an empty roster.
func NewRoster() *Roster {
	return &Roster{
		Students: make(map[Student]Section),
		Sections: make(map[Section]SectionInfo),
		Teams:    make(map[Team]struct{}),
	}
}

// SortedStudents returns every student ordered by name.
func (r *Roster) SortedStudents() []Student {
	out := make([]Student, 0, len(r.Students))
	for s := range r.Students {
		out = append(out, s)
	}
	SortStudents(out)
	return out
}

// SortedSections returns every section ordered by name.
func (r *Roster) SortedSections() []Section {
	out := make([]Section, 0, len(r.Sections))
	for s := range r.Sections {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SortedTeams returns every team ordered by name.
func (r *Roster) SortedTeams() []Team {
	out := make([]Team, 0, len(r.Teams))
	for t := range r.Teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SortStudents orders students by name in place.
func SortStudents(students []Student) {
	sort.Slice(students, func(i, j int) bool { return students[i] < students[j] })
}

// SortPairings orders records by section, team, kind and first student so listings are stable.
func SortPairings(pairings []Pairing) {
	sort.SliceStable(pairings, func(i, j int) bool {
		a, b := pairings[i], pairings[j]
		as, _ := a.SectionName()
		bs, _ := b.SectionName()
		if as != bs {
			return as < bs
		}
		at, _ := a.TeamName()
		bt, _ := b.TeamName()
		if at != bt {
			if at == NoTeam || bt == NoTeam {
				return bt == NoTeam
			}
			return at < bt
		}
		if a.Kind() != b.Kind() {
			return a.Kind() < b.Kind()
		}
		return a.AllocatedStudents()[0] < b.AllocatedStudents()[0]
	})
}
