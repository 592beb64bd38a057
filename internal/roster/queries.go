package roster

import (
	"github.com/noah-isme/pairs-api/internal/models"
)

// DaySummary is the listing view of a day.
type DaySummary struct {
	ID       int    `json:"id"`
	Name     string `json:"name,omitempty"`
	Locked   bool   `json:"locked"`
	Pairings int    `json:"pairings"`
}

// SectionSummary is the listing view of a section.
type SectionSummary struct {
	Name models.Section `json:"name"`
	Zoom string         `json:"zoom,omitempty"`
}

// ListDays summarises every day in order.
func (e *Engine) ListDays() []DaySummary {
	out := make([]DaySummary, 0, len(e.roster.Days))
	for _, d := range e.roster.Days {
		out = append(out, DaySummary{ID: d.ID, Name: d.Name, Locked: d.Locked, Pairings: len(d.Pairings)})
	}
	return out
}

// ListStudents returns every student sorted by name.
func (e *Engine) ListStudents() []models.Student {
	return e.roster.SortedStudents()
}

// ListStudentsBySection groups students by default section. Students without one are keyed
// by NoSection.
func (e *Engine) ListStudentsBySection() map[models.Section][]models.Student {
	out := make(map[models.Section][]models.Student)
	for _, s := range e.roster.SortedStudents() {
		sec := e.roster.Students[s]
		out[sec] = append(out[sec], s)
	}
	return out
}

// ListSections returns every section with its zoom token.
func (e *Engine) ListSections() []SectionSummary {
	out := make([]SectionSummary, 0, len(e.roster.Sections))
	for _, name := range e.roster.SortedSections() {
		out = append(out, SectionSummary{Name: name, Zoom: e.roster.Sections[name].Zoom})
	}
	return out
}

// ListTeams returns every team sorted by name.
func (e *Engine) ListTeams() []models.Team {
	return e.roster.SortedTeams()
}

// DayPairings returns a sorted copy of a day's pairing set.
func (e *Engine) DayPairings(dayID int) ([]models.Pairing, error) {
	day, err := e.day(dayID)
	if err != nil {
		return nil, err
	}
	out := append([]models.Pairing(nil), day.Pairings...)
	models.SortPairings(out)
	return out, nil
}

// UnassignedStudents groups the students without a team by section. Students that hold no
// pairing at all that day are listed under NoSection.
func (e *Engine) UnassignedStudents(dayID int) (map[models.Section][]models.Student, error) {
	day, err := e.day(dayID)
	if err != nil {
		return nil, err
	}
	out := make(map[models.Section][]models.Student)
	for _, s := range e.roster.SortedStudents() {
		_, p, ok := day.PairingOf(s)
		switch {
		case !ok:
			out[models.NoSection] = append(out[models.NoSection], s)
		case p.Kind() == models.PairingKindUnassigned:
			sec, _ := p.SectionName()
			out[sec] = append(out[sec], s)
		}
	}
	return out, nil
}

// AbsentStudents lists the students marked absent on the day.
func (e *Engine) AbsentStudents(dayID int) ([]models.Student, error) {
	day, err := e.day(dayID)
	if err != nil {
		return nil, err
	}
	var out []models.Student
	for _, p := range day.Pairings {
		if a, ok := p.(models.Absent); ok {
			out = append(out, a.Student)
		}
	}
	models.SortStudents(out)
	return out, nil
}

// StudentsPresentInSection lists everyone present in section on the day, on a team or not.
func (e *Engine) StudentsPresentInSection(dayID int, section models.Section) ([]models.Student, error) {
	day, err := e.day(dayID)
	if err != nil {
		return nil, err
	}
	if err := e.requireSection(section); err != nil {
		return nil, err
	}
	var out []models.Student
	for _, p := range day.Pairings {
		if sec, ok := p.SectionName(); ok && sec == section {
			out = append(out, p.PresentStudents()...)
		}
	}
	models.SortStudents(out)
	return out, nil
}
