// Package roster implements the pairing engine: the mutation primitives over a roster, the
// partner-history constraints, the shuffling algorithms and the read-only projections.
//
// The engine performs no I/O. An Engine owns one *models.Roster for the duration of a call
// chain and is not safe for concurrent use.
package roster

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/pairs-api/internal/models"
	appErrors "github.com/noah-isme/pairs-api/pkg/errors"
)

// Engine applies roster operations to one in-memory roster.
type Engine struct {
	roster *models.Roster
	rng    Rand
	logger *zap.Logger
}

// New wires an engine around r. A nil rng draws a crypto-seeded generator.
func New(r *models.Roster, rng Rand, logger *zap.Logger) *Engine {
	if r == nil {
		r = models.NewRoster()
	}
	if rng == nil {
		rng = NewRand(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{roster: r, rng: rng, logger: logger}
}

// Roster exposes the roster the engine operates on.
func (e *Engine) Roster() *models.Roster {
	return e.roster
}

// --- Day lifecycle ---

// AddDay appends a day. Every student starts Unassigned in the section they held on the
// previous day, falling back to their default section; students with neither are left out.
func (e *Engine) AddDay() *models.Day {
	id := len(e.roster.Days)
	day := &models.Day{ID: id}
	var prev *models.Day
	if id > 0 {
		prev = e.roster.Days[id-1]
	}
	for _, s := range e.roster.SortedStudents() {
		section := e.roster.Students[s]
		if prev != nil {
			if _, p, ok := prev.PairingOf(s); ok {
				if sec, has := p.SectionName(); has {
					section = sec
				}
			}
		}
		if _, ok := e.roster.Sections[section]; !ok {
			continue
		}
		day.Pairings = append(day.Pairings, models.Unassigned{Section: section, Student: s})
	}
	e.roster.Days = append(e.roster.Days, day)
	e.logger.Debug("day added", zap.Int("day", id), zap.Int("pairings", len(day.Pairings)))
	return day
}

// NameDay sets the display name of a day. Locked days may still be renamed.
func (e *Engine) NameDay(id int, name string) error {
	day, err := e.day(id)
	if err != nil {
		return err
	}
	day.Name = strings.TrimSpace(name)
	return nil
}

// ToggleLockDay flips the locked flag and returns the new value.
func (e *Engine) ToggleLockDay(id int) (bool, error) {
	day, err := e.day(id)
	if err != nil {
		return false, err
	}
	day.Locked = !day.Locked
	return day.Locked, nil
}

// --- Assignment primitives ---

// AssignStudent places s on team within section for the given day. An empty section marks the
// student absent and an empty team leaves them unassigned in the section. The day is left
// untouched when the team already holds a full pair or a solo from another section.
func (e *Engine) AssignStudent(dayID int, s models.Student, section models.Section, team models.Team) error {
	day, err := e.mutableDay(dayID)
	if err != nil {
		return err
	}
	if err := e.requireStudent(s); err != nil {
		return err
	}
	if section != models.NoSection {
		if err := e.requireSection(section); err != nil {
			return err
		}
		if team != models.NoTeam {
			if err := e.requireTeam(team); err != nil {
				return err
			}
		}
	}

	if _, current, ok := day.PairingOf(s); ok && team != models.NoTeam {
		sec, _ := current.SectionName()
		t, _ := current.TeamName()
		if sec == section && t == team {
			return nil
		}
	}

	next := withoutStudent(day.Pairings, s)
	switch {
	case section == models.NoSection:
		next = append(next, models.Absent{Student: s})
	case team == models.NoTeam:
		next = append(next, models.Unassigned{Section: section, Student: s})
	default:
		idx, occupant, occupied := pairingOnTeam(next, team)
		if !occupied {
			next = append(next, models.Solo{Section: section, Team: team, Student: s})
			break
		}
		switch p := occupant.(type) {
		case models.Pair:
			return appErrors.Clone(appErrors.ErrTeamFull, fmt.Sprintf("team %s already has a full pair", team))
		case models.Solo:
			if p.Section != section {
				return appErrors.Clone(appErrors.ErrSectionMismatch, fmt.Sprintf("team %s is held by section %s", team, p.Section))
			}
			next[idx] = models.Pair{Section: section, Team: team, Primary: p.Student, Secondary: s}
		}
	}

	day.Pairings = next
	e.logger.Debug("student assigned",
		zap.Int("day", dayID),
		zap.String("student", string(s)),
		zap.String("section", string(section)),
		zap.String("team", string(team)),
	)
	return nil
}

// UnassignStudent drops s from whatever pairing held them. A remaining partner keeps the team
// as a solo. Calling it again is a no-op.
func (e *Engine) UnassignStudent(dayID int, s models.Student) error {
	day, err := e.mutableDay(dayID)
	if err != nil {
		return err
	}
	if err := e.requireStudent(s); err != nil {
		return err
	}
	day.Pairings = withoutStudent(day.Pairings, s)
	return nil
}

// UnpairStudent takes s off their team but keeps them Unassigned in the same section.
func (e *Engine) UnpairStudent(dayID int, s models.Student) error {
	day, err := e.mutableDay(dayID)
	if err != nil {
		return err
	}
	if err := e.requireStudent(s); err != nil {
		return err
	}
	unpair(day, s)
	return nil
}

// UnpairTeam unpairs every member currently on team.
func (e *Engine) UnpairTeam(dayID int, team models.Team) error {
	day, err := e.mutableDay(dayID)
	if err != nil {
		return err
	}
	if err := e.requireTeam(team); err != nil {
		return err
	}
	_, p, ok := day.PairingOnTeam(team)
	if !ok {
		return nil
	}
	for _, s := range p.AssignedStudents() {
		unpair(day, s)
	}
	return nil
}

func unpair(day *models.Day, s models.Student) {
	_, p, ok := day.PairingOf(s)
	if !ok {
		return
	}
	if _, onTeam := p.TeamName(); !onTeam {
		return
	}
	section, _ := p.SectionName()
	day.Pairings = append(withoutStudent(day.Pairings, s), models.Unassigned{Section: section, Student: s})
}

// --- Administrative operations ---

// NewStudent registers a student with an optional default section.
func (e *Engine) NewStudent(name models.Student, section models.Section) error {
	name = clean(name)
	if name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "student name is required")
	}
	if _, exists := e.roster.Students[name]; exists {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("student %s already exists", name))
	}
	if section != models.NoSection {
		if err := e.requireSection(section); err != nil {
			return err
		}
	}
	e.roster.Students[name] = section
	return nil
}

// SetStudentSection changes the default section of a student.
func (e *Engine) SetStudentSection(name models.Student, section models.Section) error {
	if err := e.requireStudent(name); err != nil {
		return err
	}
	if section != models.NoSection {
		if err := e.requireSection(section); err != nil {
			return err
		}
	}
	e.roster.Students[name] = section
	return nil
}

// RenameStudent renames a student on the roster and in every day's pairings.
func (e *Engine) RenameStudent(from, to models.Student) error {
	if err := e.requireStudent(from); err != nil {
		return err
	}
	to = clean(to)
	if to == "" {
		return appErrors.Clone(appErrors.ErrValidation, "student name is required")
	}
	if to == from {
		return nil
	}
	if _, exists := e.roster.Students[to]; exists {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("student %s already exists", to))
	}
	e.roster.Students[to] = e.roster.Students[from]
	delete(e.roster.Students, from)
	for _, day := range e.roster.Days {
		for i, p := range day.Pairings {
			day.Pairings[i] = models.RenameStudent(p, from, to)
		}
	}
	return nil
}

// DeleteStudent removes a student and every pairing slot they held.
func (e *Engine) DeleteStudent(name models.Student) error {
	if err := e.requireStudent(name); err != nil {
		return err
	}
	delete(e.roster.Students, name)
	for _, day := range e.roster.Days {
		day.Pairings = withoutStudent(day.Pairings, name)
	}
	return nil
}

// NewSection registers a section with an optional zoom token.
func (e *Engine) NewSection(name models.Section, zoom string) error {
	name = clean(name)
	if name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "section name is required")
	}
	if _, exists := e.roster.Sections[name]; exists {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("section %s already exists", name))
	}
	e.roster.Sections[name] = models.SectionInfo{Zoom: strings.TrimSpace(zoom)}
	return nil
}

// SetSectionZoom replaces the zoom token of a section.
func (e *Engine) SetSectionZoom(name models.Section, zoom string) error {
	if err := e.requireSection(name); err != nil {
		return err
	}
	e.roster.Sections[name] = models.SectionInfo{Zoom: strings.TrimSpace(zoom)}
	return nil
}

// RenameSection renames a section everywhere it is referenced.
func (e *Engine) RenameSection(from, to models.Section) error {
	if err := e.requireSection(from); err != nil {
		return err
	}
	to = clean(to)
	if to == "" {
		return appErrors.Clone(appErrors.ErrValidation, "section name is required")
	}
	if to == from {
		return nil
	}
	if _, exists := e.roster.Sections[to]; exists {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("section %s already exists", to))
	}
	e.roster.Sections[to] = e.roster.Sections[from]
	delete(e.roster.Sections, from)
	for s, sec := range e.roster.Students {
		if sec == from {
			e.roster.Students[s] = to
		}
	}
	for _, day := range e.roster.Days {
		for i, p := range day.Pairings {
			day.Pairings[i] = models.RenameSection(p, from, to)
		}
	}
	return nil
}

// DeleteSection removes a section and drops every pairing in it from every day.
func (e *Engine) DeleteSection(name models.Section) error {
	if err := e.requireSection(name); err != nil {
		return err
	}
	delete(e.roster.Sections, name)
	for s, sec := range e.roster.Students {
		if sec == name {
			e.roster.Students[s] = models.NoSection
		}
	}
	for _, day := range e.roster.Days {
		kept := day.Pairings[:0]
		for _, p := range day.Pairings {
			if sec, ok := p.SectionName(); ok && sec == name {
				continue
			}
			kept = append(kept, p)
		}
		day.Pairings = kept
	}
	return nil
}

// NewTeam registers a team.
func (e *Engine) NewTeam(name models.Team) error {
	name = clean(name)
	if name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "team name is required")
	}
	if _, exists := e.roster.Teams[name]; exists {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("team %s already exists", name))
	}
	e.roster.Teams[name] = struct{}{}
	return nil
}

// RenameTeam renames a team everywhere it is referenced.
func (e *Engine) RenameTeam(from, to models.Team) error {
	if err := e.requireTeam(from); err != nil {
		return err
	}
	to = clean(to)
	if to == "" {
		return appErrors.Clone(appErrors.ErrValidation, "team name is required")
	}
	if to == from {
		return nil
	}
	if _, exists := e.roster.Teams[to]; exists {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("team %s already exists", to))
	}
	e.roster.Teams[to] = struct{}{}
	delete(e.roster.Teams, from)
	for _, day := range e.roster.Days {
		for i, p := range day.Pairings {
			day.Pairings[i] = models.RenameTeam(p, from, to)
		}
	}
	return nil
}

// DeleteTeam removes a team. Its members on every day become Unassigned in their section.
func (e *Engine) DeleteTeam(name models.Team) error {
	if err := e.requireTeam(name); err != nil {
		return err
	}
	delete(e.roster.Teams, name)
	for _, day := range e.roster.Days {
		_, p, ok := day.PairingOnTeam(name)
		if !ok {
			continue
		}
		for _, s := range p.AssignedStudents() {
			unpair(day, s)
		}
	}
	return nil
}

// --- helpers ---

func (e *Engine) day(id int) (*models.Day, error) {
	if id < 0 || id >= len(e.roster.Days) {
		return nil, appErrors.Clone(appErrors.ErrUnknownEntity, fmt.Sprintf("day %d not found", id))
	}
	return e.roster.Days[id], nil
}

func (e *Engine) mutableDay(id int) (*models.Day, error) {
	day, err := e.day(id)
	if err != nil {
		return nil, err
	}
	if day.Locked {
		return nil, appErrors.Clone(appErrors.ErrDayLocked, fmt.Sprintf("day %d is locked", id))
	}
	return day, nil
}

func (e *Engine) requireStudent(s models.Student) error {
	if _, ok := e.roster.Students[s]; !ok {
		return appErrors.Clone(appErrors.ErrUnknownEntity, fmt.Sprintf("student %s not found", s))
	}
	return nil
}

func (e *Engine) requireSection(s models.Section) error {
	if _, ok := e.roster.Sections[s]; !ok {
		return appErrors.Clone(appErrors.ErrUnknownEntity, fmt.Sprintf("section %s not found", s))
	}
	return nil
}

func (e *Engine) requireTeam(t models.Team) error {
	if _, ok := e.roster.Teams[t]; !ok {
		return appErrors.Clone(appErrors.ErrUnknownEntity, fmt.Sprintf("team %s not found", t))
	}
	return nil
}

// withoutStudent returns a copy of pairings with s removed; a partner degrades to Solo.
func withoutStudent(pairings []models.Pairing, s models.Student) []models.Pairing {
	out := make([]models.Pairing, 0, len(pairings)+1)
	for _, p := range pairings {
		if !p.Has(s) {
			out = append(out, p)
			continue
		}
		if rest, ok := models.Without(p, s); ok {
			out = append(out, rest)
		}
	}
	return out
}

func pairingOnTeam(pairings []models.Pairing, team models.Team) (int, models.Pairing, bool) {
	for i, p := range pairings {
		if t, ok := p.TeamName(); ok && t == team {
			return i, p, true
		}
	}
	return -1, nil, false
}

func clean[T ~string](v T) T {
	return T(strings.TrimSpace(string(v)))
}
