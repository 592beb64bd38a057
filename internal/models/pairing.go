package models

import "fmt"

// Student, Section and Team are identified by their unique names.
type (
	Student string
	Section string
	Team    string
)

// Empty sentinels used by assignment requests.
const (
	NoSection Section = ""
	NoTeam    Team    = ""
)

// PairingKind tags the variant held by a Pairing.
type PairingKind string

const (
	PairingKindPair       PairingKind = "pair"
	PairingKindSolo       PairingKind = "solo"
	PairingKindUnassigned PairingKind = "unassigned"
	PairingKindAbsent     PairingKind = "absent"
)

// Pairing is one assignment record within a day. The set of implementations is closed:
// Pair, Solo, Unassigned and Absent.
type Pairing interface {
	Kind() PairingKind
	// PresentStudents lists students attending; it governs partner history.
	PresentStudents() []Student
	// AllocatedStudents lists every student the record accounts for, absent ones included.
	AllocatedStudents() []Student
	// AssignedStudents lists students holding a team slot; it governs team capacity.
	AssignedStudents() []Student
	Has(s Student) bool
	SectionName() (Section, bool)
	TeamName() (Team, bool)
	IsFullPair() bool

	pairing()
}

// Pair is a full two-student team.
type Pair struct {
	Section   Section
	Team      Team
	Primary   Student
	Secondary Student
}

// Solo is a team holding a single student.
type Solo struct {
	Section Section
	Team    Team
	Student Student
}

// Unassigned keeps a present student in a section without a team.
type Unassigned struct {
	Section Section
	Student Student
}

// Absent marks a student as not attending that day.
type Absent struct {
	Student Student
}

func (Pair) pairing()       {}
func (Solo) pairing()       {}
func (Unassigned) pairing() {}
func (Absent) pairing()     {}

func (Pair) Kind() PairingKind       { return PairingKindPair }
func (Solo) Kind() PairingKind       { return PairingKindSolo }
func (Unassigned) Kind() PairingKind { return PairingKindUnassigned }
func (Absent) Kind() PairingKind     { return PairingKindAbsent }

func (p Pair) PresentStudents() []Student       { return []Student{p.Primary, p.Secondary} }
func (p Solo) PresentStudents() []Student       { return []Student{p.Student} }
func (p Unassigned) PresentStudents() []Student { return []Student{p.Student} }
func (Absent) PresentStudents() []Student       { return nil }

func (p Pair) AllocatedStudents() []Student       { return []Student{p.Primary, p.Secondary} }
func (p Solo) AllocatedStudents() []Student       { return []Student{p.Student} }
func (p Unassigned) AllocatedStudents() []Student { return []Student{p.Student} }
func (p Absent) AllocatedStudents() []Student     { return []Student{p.Student} }

func (p Pair) AssignedStudents() []Student     { return []Student{p.Primary, p.Secondary} }
func (p Solo) AssignedStudents() []Student     { return []Student{p.Student} }
func (Unassigned) AssignedStudents() []Student { return nil }
func (Absent) AssignedStudents() []Student     { return nil }

func (p Pair) Has(s Student) bool       { return p.Primary == s || p.Secondary == s }
func (p Solo) Has(s Student) bool       { return p.Student == s }
func (p Unassigned) Has(s Student) bool { return p.Student == s }
func (p Absent) Has(s Student) bool     { return p.Student == s }

func (p Pair) SectionName() (Section, bool)       { return p.Section, true }
func (p Solo) SectionName() (Section, bool)       { return p.Section, true }
func (p Unassigned) SectionName() (Section, bool) { return p.Section, true }
func (Absent) SectionName() (Section, bool)       { return NoSection, false }

func (p Pair) TeamName() (Team, bool)     { return p.Team, true }
func (p Solo) TeamName() (Team, bool)     { return p.Team, true }
func (Unassigned) TeamName() (Team, bool) { return NoTeam, false }
func (Absent) TeamName() (Team, bool)     { return NoTeam, false }

func (Pair) IsFullPair() bool       { return true }
func (Solo) IsFullPair() bool       { return false }
func (Unassigned) IsFullPair() bool { return false }
func (Absent) IsFullPair() bool     { return false }

// Partner returns the other member of a pair.
func (p Pair) Partner(s Student) (Student, bool) {
	switch s {
	case p.Primary:
		return p.Secondary, true
	case p.Secondary:
		return p.Primary, true
	}
	return "", false
}

// Without removes s from p and returns what is left of the record, if anything.
func Without(p Pairing, s Student) (Pairing, bool) {
	switch v := p.(type) {
	case Pair:
		other, ok := v.Partner(s)
		if !ok {
			return v, true
		}
		return Solo{Section: v.Section, Team: v.Team, Student: other}, true
	case Solo:
		if v.Student == s {
			return nil, false
		}
		return v, true
	case Unassigned:
		if v.Student == s {
			return nil, false
		}
		return v, true
	case Absent:
		if v.Student == s {
			return nil, false
		}
		return v, true
	default:
		panic(fmt.Sprintf("models: unhandled pairing variant %T", p))
	}
}

// WithSection moves a pairing to another section. Absent records have no section.
func WithSection(p Pairing, section Section) Pairing {
	switch v := p.(type) {
	case Pair:
		v.Section = section
		return v
	case Solo:
		v.Section = section
		return v
	case Unassigned:
		v.Section = section
		return v
	case Absent:
		return v
	default:
		panic(fmt.Sprintf("models: unhandled pairing variant %T", p))
	}
}

// RenameStudent rewrites every occurrence of from with to.
func RenameStudent(p Pairing, from, to Student) Pairing {
	swap := func(s Student) Student {
		if s == from {
			return to
		}
		return s
	}
	switch v := p.(type) {
	case Pair:
		v.Primary, v.Secondary = swap(v.Primary), swap(v.Secondary)
		return v
	case Solo:
		v.Student = swap(v.Student)
		return v
	case Unassigned:
		v.Student = swap(v.Student)
		return v
	case Absent:
		v.Student = swap(v.Student)
		return v
	default:
		panic(fmt.Sprintf("models: unhandled pairing variant %T", p))
	}
}

// RenameSection rewrites the section of p when it matches from.
func RenameSection(p Pairing, from, to Section) Pairing {
	if section, ok := p.SectionName(); ok && section == from {
		return WithSection(p, to)
	}
	return p
}

// RenameTeam rewrites the team of p when it matches from.
func RenameTeam(p Pairing, from, to Team) Pairing {
	switch v := p.(type) {
	case Pair:
		if v.Team == from {
			v.Team = to
		}
		return v
	case Solo:
		if v.Team == from {
			v.Team = to
		}
		return v
	case Unassigned, Absent:
		return v
	default:
		panic(fmt.Sprintf("models: unhandled pairing variant %T", p))
	}
}
