package models

import (
	"fmt"
	"time"
)

// Snapshot is the serialisable form of a Roster.
type Snapshot struct {
	Revision  string          `json:"revision" yaml:"revision"`
	UpdatedAt time.Time       `json:"updated_at" yaml:"updated_at"`
	Students  []StudentRecord `json:"students" yaml:"students"`
	Sections  []SectionRecord `json:"sections" yaml:"sections"`
	Teams     []Team          `json:"teams" yaml:"teams"`
	Days      []DayRecord     `json:"days" yaml:"days"`
}

// StudentRecord stores a student and their default section.
type StudentRecord struct {
	Name    Student `json:"name" yaml:"name"`
	Section Section `json:"section,omitempty" yaml:"section,omitempty"`
}

// SectionRecord stores a section and its zoom token.
type SectionRecord struct {
	Name Section `json:"name" yaml:"name"`
	Zoom string  `json:"zoom,omitempty" yaml:"zoom,omitempty"`
}

// DayRecord stores one day.
type DayRecord struct {
	ID       int             `json:"id" yaml:"id"`
	Name     string          `json:"name,omitempty" yaml:"name,omitempty"`
	Locked   bool            `json:"locked,omitempty" yaml:"locked,omitempty"`
	Pairings []PairingRecord `json:"pairings" yaml:"pairings"`
}

// PairingRecord is the flat, tagged form of a Pairing.
type PairingRecord struct {
	Kind      PairingKind `json:"kind" yaml:"kind"`
	Section   Section     `json:"section,omitempty" yaml:"section,omitempty"`
	Team      Team        `json:"team,omitempty" yaml:"team,omitempty"`
	Primary   Student     `json:"primary,omitempty" yaml:"primary,omitempty"`
	Secondary Student     `json:"secondary,omitempty" yaml:"secondary,omitempty"`
	Student   Student     `json:"student,omitempty" yaml:"student,omitempty"`
}

// NewPairingRecord flattens p.
func NewPairingRecord(p Pairing) PairingRecord {
	switch v := p.(type) {
	case Pair:
		return PairingRecord{Kind: PairingKindPair, Section: v.Section, Team: v.Team, Primary: v.Primary, Secondary: v.Secondary}
	case Solo:
		return PairingRecord{Kind: PairingKindSolo, Section: v.Section, Team: v.Team, Student: v.Student}
	case Unassigned:
		return PairingRecord{Kind: PairingKindUnassigned, Section: v.Section, Student: v.Student}
	case Absent:
		return PairingRecord{Kind: PairingKindAbsent, Student: v.Student}
	default:
		panic(fmt.Sprintf("models: unhandled pairing variant %T", p))
	}
}

// Pairing rebuilds the tagged variant.
func (r PairingRecord) Pairing() (Pairing, error) {
	switch r.Kind {
	case PairingKindPair:
		if r.Primary == "" || r.Secondary == "" || r.Primary == r.Secondary {
			return nil, fmt.Errorf("pair on team %q needs two distinct students", r.Team)
		}
		return Pair{Section: r.Section, Team: r.Team, Primary: r.Primary, Secondary: r.Secondary}, nil
	case PairingKindSolo:
		return Solo{Section: r.Section, Team: r.Team, Student: r.Student}, nil
	case PairingKindUnassigned:
		return Unassigned{Section: r.Section, Student: r.Student}, nil
	case PairingKindAbsent:
		return Absent{Student: r.Student}, nil
	default:
		return nil, fmt.Errorf("unknown pairing kind %q", r.Kind)
	}
}

// Snapshot captures the roster in its serialisable form with stable ordering.
func (r *Roster) Snapshot() Snapshot {
	snap := Snapshot{
		Revision:  r.Revision,
		UpdatedAt: r.UpdatedAt,
		Teams:     r.SortedTeams(),
	}
	for _, s := range r.SortedStudents() {
		snap.Students = append(snap.Students, StudentRecord{Name: s, Section: r.Students[s]})
	}
	for _, s := range r.SortedSections() {
		snap.Sections = append(snap.Sections, SectionRecord{Name: s, Zoom: r.Sections[s].Zoom})
	}
	for _, d := range r.Days {
		pairings := append([]Pairing(nil), d.Pairings...)
		SortPairings(pairings)
		rec := DayRecord{ID: d.ID, Name: d.Name, Locked: d.Locked, Pairings: make([]PairingRecord, 0, len(pairings))}
		for _, p := range pairings {
			rec.Pairings = append(rec.Pairings, NewPairingRecord(p))
		}
		snap.Days = append(snap.Days, rec)
	}
	return snap
}

// Roster rebuilds a roster, renumbering days densely in stored order.
func (s Snapshot) Roster() (*Roster, error) {
	r := NewRoster()
	r.Revision = s.Revision
	r.UpdatedAt = s.UpdatedAt
	for _, sec := range s.Sections {
		r.Sections[sec.Name] = SectionInfo{Zoom: sec.Zoom}
	}
	for _, t := range s.Teams {
		r.Teams[t] = struct{}{}
	}
	for _, st := range s.Students {
		r.Students[st.Name] = st.Section
	}
	for i, rec := range s.Days {
		day := &Day{ID: i, Name: rec.Name, Locked: rec.Locked, Pairings: make([]Pairing, 0, len(rec.Pairings))}
		seen := make(map[Student]bool)
		for _, pr := range rec.Pairings {
			p, err := pr.Pairing()
			if err != nil {
				return nil, fmt.Errorf("day %d: %w", i, err)
			}
			for _, st := range p.AllocatedStudents() {
				if seen[st] {
					return nil, fmt.Errorf("day %d: student %q appears in more than one pairing", i, st)
				}
				seen[st] = true
			}
			day.Pairings = append(day.Pairings, p)
		}
		r.Days = append(r.Days, day)
	}
	return r, nil
}
