package roster

import (
	"github.com/noah-isme/pairs-api/internal/models"
)

// Slot names a position within a team.
type Slot string

const (
	SlotPrimary   Slot = "primary"
	SlotSecondary Slot = "secondary"
)

// Candidate is a student who could fill a slot.
type Candidate struct {
	Student models.Student `json:"student"`
	Current bool           `json:"current"`
	// Repeat marks a candidate who already partnered the slot's other occupant before this day.
	Repeat bool `json:"repeat"`
	// Reuser marks a candidate who held the same team on the previous day.
	Reuser bool `json:"reuser"`
}

// SlotOptions lists the legal occupants of one filled slot.
type SlotOptions struct {
	Slot       Slot           `json:"slot"`
	Occupant   models.Student `json:"occupant"`
	Candidates []Candidate    `json:"candidates"`
}

// TeamOption describes the replacement choices for an occupied team.
type TeamOption struct {
	Section models.Section `json:"section"`
	Team    models.Team    `json:"team"`
	Slots   []SlotOptions  `json:"slots"`
}

// TeamChoice is a team a student could join.
type TeamChoice struct {
	Team    models.Team `json:"team"`
	Current bool        `json:"current"`
	Reuser  bool        `json:"reuser"`
}

// StudentOption lists the teams one student could legally join.
type StudentOption struct {
	Student models.Student `json:"student"`
	Section models.Section `json:"section,omitempty"`
	Team    models.Team    `json:"team,omitempty"`
	// Reuser is set when the student's current team is the one they held on the previous day.
	Reuser bool         `json:"reuser"`
	Teams  []TeamChoice `json:"teams"`
}

// TeamOptions computes, for each occupied team of the day, the candidates for every filled
// slot: the section's unassigned students plus the slot's occupant.
func (e *Engine) TeamOptions(dayID int) ([]TeamOption, error) {
	day, err := e.day(dayID)
	if err != nil {
		return nil, err
	}
	prev := e.previousDay(dayID)

	unassigned := make(map[models.Section][]models.Student)
	var occupied []models.Pairing
	for _, p := range day.Pairings {
		switch v := p.(type) {
		case models.Unassigned:
			unassigned[v.Section] = append(unassigned[v.Section], v.Student)
		case models.Pair, models.Solo:
			occupied = append(occupied, p)
		}
	}
	for _, students := range unassigned {
		models.SortStudents(students)
	}
	models.SortPairings(occupied)

	options := make([]TeamOption, 0, len(occupied))
	for _, p := range occupied {
		section, _ := p.SectionName()
		team, _ := p.TeamName()
		opt := TeamOption{Section: section, Team: team}

		switch v := p.(type) {
		case models.Pair:
			opt.Slots = []SlotOptions{
				e.slotOptions(dayID, prev, team, SlotPrimary, v.Primary, v.Secondary, unassigned[section]),
				e.slotOptions(dayID, prev, team, SlotSecondary, v.Secondary, v.Primary, unassigned[section]),
			}
		case models.Solo:
			opt.Slots = []SlotOptions{
				e.slotOptions(dayID, prev, team, SlotPrimary, v.Student, models.Student(""), unassigned[section]),
			}
		}
		options = append(options, opt)
	}
	return options, nil
}

func (e *Engine) slotOptions(dayID int, prev *models.Day, team models.Team, slot Slot, occupant, other models.Student, pool []models.Student) SlotOptions {
	out := SlotOptions{Slot: slot, Occupant: occupant}
	for _, s := range append([]models.Student{occupant}, pool...) {
		c := Candidate{
			Student: s,
			Current: s == occupant,
			Reuser:  heldTeam(prev, s, team),
		}
		if other != "" {
			c.Repeat = !e.NonrepeatPartners(dayID, s, other)
		}
		out.Candidates = append(out.Candidates, c)
	}
	return out
}

// StudentOptions computes, for every student, the teams they could join on the day: teams
// without a full pair whose solo, if any, belongs to the student's current section. A student
// with no current section (absent, or holding no pairing) may join any team without a full pair.
func (e *Engine) StudentOptions(dayID int) ([]StudentOption, error) {
	day, err := e.day(dayID)
	if err != nil {
		return nil, err
	}
	prev := e.previousDay(dayID)
	teams := e.roster.SortedTeams()

	options := make([]StudentOption, 0, len(e.roster.Students))
	for _, s := range e.roster.SortedStudents() {
		opt := StudentOption{Student: s, Teams: []TeamChoice{}}
		if _, p, ok := day.PairingOf(s); ok {
			opt.Section, _ = p.SectionName()
			opt.Team, _ = p.TeamName()
		}
		if opt.Team != models.NoTeam {
			opt.Reuser = heldTeam(prev, s, opt.Team)
		}

		for _, team := range teams {
			current := team == opt.Team
			if !current && !joinable(day, team, opt.Section) {
				continue
			}
			opt.Teams = append(opt.Teams, TeamChoice{
				Team:    team,
				Current: current,
				Reuser:  heldTeam(prev, s, team),
			})
		}
		options = append(options, opt)
	}
	return options, nil
}

func joinable(day *models.Day, team models.Team, section models.Section) bool {
	_, p, ok := day.PairingOnTeam(team)
	if !ok {
		return true
	}
	if p.IsFullPair() {
		return false
	}
	if section == models.NoSection {
		return true
	}
	sec, _ := p.SectionName()
	return sec == section
}

func (e *Engine) previousDay(dayID int) *models.Day {
	if dayID <= 0 || dayID > len(e.roster.Days) {
		return nil
	}
	return e.roster.Days[dayID-1]
}

// heldTeam reports whether s was on team during day.
func heldTeam(day *models.Day, s models.Student, team models.Team) bool {
	if day == nil {
		return false
	}
	_, p, ok := day.PairingOnTeam(team)
	return ok && contains(p.AssignedStudents(), s)
}
