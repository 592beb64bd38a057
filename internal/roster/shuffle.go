package roster

import (
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/pairs-api/internal/models"
)

// scratchSection pools the whole roster during a grand shuffle. It never reaches a stored day.
const scratchSection models.Section = "\x00grand"

// ShuffleResult lists the pairings a shuffle produced for its scope.
type ShuffleResult struct {
	Pairings []models.Pairing
	// RepeatPairs counts pairs whose secondary fell back onto a previous partner.
	RepeatPairs int
}

type matchMode int

const (
	matchFresh matchMode = iota
	matchContinuity
	matchRepeat
)

func (m matchMode) String() string {
	switch m {
	case matchContinuity:
		return "continuity"
	case matchRepeat:
		return "repeat"
	default:
		return "shuffle"
	}
}

// Shuffle re-teams the present students of section from scratch.
func (e *Engine) Shuffle(dayID int, section models.Section) (ShuffleResult, error) {
	return e.shuffleSection(dayID, section, matchFresh)
}

// ShuffleWithContinuity keeps one member of each of yesterday's still-free teams in place
// before re-teaming the rest of section.
func (e *Engine) ShuffleWithContinuity(dayID int, section models.Section) (ShuffleResult, error) {
	return e.shuffleSection(dayID, section, matchContinuity)
}

// Repeat keeps yesterday's teams of section together wherever their members are present,
// even when that revisits a partner, and re-teams whoever is left.
func (e *Engine) Repeat(dayID int, section models.Section) (ShuffleResult, error) {
	return e.shuffleSection(dayID, section, matchRepeat)
}

// GrandShuffle matches every present student across section boundaries, then spreads the
// resulting teams evenly over every section of the roster.
func (e *Engine) GrandShuffle(dayID int) (ShuffleResult, error) {
	return e.grandShuffle(dayID, matchFresh)
}

// GrandShuffleWithContinuity is GrandShuffle with roster-wide continuity seeding.
func (e *Engine) GrandShuffleWithContinuity(dayID int) (ShuffleResult, error) {
	return e.grandShuffle(dayID, matchContinuity)
}

func (e *Engine) shuffleSection(dayID int, section models.Section, mode matchMode) (ShuffleResult, error) {
	day, err := e.mutableDay(dayID)
	if err != nil {
		return ShuffleResult{}, err
	}
	if err := e.requireSection(section); err != nil {
		return ShuffleResult{}, err
	}

	var pool []models.Student
	rest := make([]models.Pairing, 0, len(day.Pairings))
	for _, p := range day.Pairings {
		if sec, ok := p.SectionName(); ok && sec == section {
			pool = append(pool, p.PresentStudents()...)
			continue
		}
		rest = append(rest, p)
	}
	models.SortStudents(pool)

	result := e.match(dayID, section, pool, freeTeams(e.roster.SortedTeams(), rest), mode)
	day.Pairings = append(rest, result.Pairings...)

	e.logger.Debug("section shuffled",
		zap.String("mode", mode.String()),
		zap.Int("day", dayID),
		zap.String("section", string(section)),
		zap.Int("students", len(pool)),
		zap.Int("pairings", len(result.Pairings)),
		zap.Int("repeat_pairs", result.RepeatPairs),
	)
	return result, nil
}

func (e *Engine) grandShuffle(dayID int, mode matchMode) (ShuffleResult, error) {
	day, err := e.mutableDay(dayID)
	if err != nil {
		return ShuffleResult{}, err
	}

	var pool []models.Student
	var kept []models.Pairing
	home := make(map[models.Student]models.Section)
	for _, p := range day.Pairings {
		sec, ok := p.SectionName()
		if !ok {
			kept = append(kept, p)
			continue
		}
		for _, s := range p.PresentStudents() {
			pool = append(pool, s)
			home[s] = sec
		}
	}
	models.SortStudents(pool)

	// Every roster section takes a share of the teams, including ones empty today.
	targets := e.roster.SortedSections()

	result := e.match(dayID, scratchSection, pool, e.roster.SortedTeams(), mode)

	var teamed, leftovers []models.Pairing
	for _, p := range result.Pairings {
		if _, onTeam := p.TeamName(); onTeam {
			teamed = append(teamed, p)
			continue
		}
		for _, s := range p.PresentStudents() {
			leftovers = append(leftovers, models.Unassigned{Section: home[s], Student: s})
		}
	}
	teamed = e.shuffleSections(teamed, targets)

	result.Pairings = append(teamed, leftovers...)
	day.Pairings = append(kept, result.Pairings...)

	e.logger.Debug("grand shuffle",
		zap.String("mode", mode.String()),
		zap.Int("day", dayID),
		zap.Int("students", len(pool)),
		zap.Int("sections", len(targets)),
		zap.Int("teams", len(teamed)),
		zap.Int("repeat_pairs", result.RepeatPairs),
	)
	return result, nil
}

// shuffleSections hands out team-sorted pairings to sections in contiguous, evenly sized runs.
func (e *Engine) shuffleSections(pairings []models.Pairing, sections []models.Section) []models.Pairing {
	if len(sections) == 0 {
		return pairings
	}
	sort.SliceStable(pairings, func(i, j int) bool {
		a, _ := pairings[i].TeamName()
		b, _ := pairings[j].TeamName()
		return a < b
	})
	out := make([]models.Pairing, 0, len(pairings))
	for i, chunk := range SplitEvenly(e.rng, pairings, len(sections)) {
		for _, p := range chunk {
			out = append(out, models.WithSection(p, sections[i]))
		}
	}
	return out
}

// match runs the common matching structure: seeds first, then primaries taken from the front
// of the randomised pool onto the highest remaining team, each with a partner from
// PickPartnerFrom. A last student with a team left goes solo; anyone else stays Unassigned.
func (e *Engine) match(dayID int, section models.Section, pool []models.Student, teams []models.Team, mode matchMode) ShuffleResult {
	var seeds []models.Pairing
	switch mode {
	case matchContinuity:
		seeds, pool, teams = e.seedContinuity(dayID, section, pool, teams)
	case matchRepeat:
		seeds, pool, teams = e.seedRepeat(dayID, section, pool, teams)
	}
	e.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	var res ShuffleResult
	for _, seed := range seeds {
		solo, ok := seed.(models.Solo)
		if !ok || len(pool) == 0 {
			res.Pairings = append(res.Pairings, seed)
			continue
		}
		partner, rest, repeated := e.pickPartner(dayID, solo.Student, pool)
		pool = rest
		if repeated {
			res.RepeatPairs++
		}
		res.Pairings = append(res.Pairings, models.Pair{Section: section, Team: solo.Team, Primary: solo.Student, Secondary: partner})
	}

	for len(pool) > 1 && len(teams) > 0 {
		primary := pool[0]
		team := teams[len(teams)-1]
		teams = teams[:len(teams)-1]
		partner, rest, repeated := e.pickPartner(dayID, primary, pool[1:])
		pool = rest
		if repeated {
			res.RepeatPairs++
		}
		res.Pairings = append(res.Pairings, models.Pair{Section: section, Team: team, Primary: primary, Secondary: partner})
	}
	if len(pool) == 1 && len(teams) > 0 {
		res.Pairings = append(res.Pairings, models.Solo{Section: section, Team: teams[len(teams)-1], Student: pool[0]})
		pool = nil
	}
	for _, s := range pool {
		res.Pairings = append(res.Pairings, models.Unassigned{Section: section, Student: s})
	}
	return res
}

// seedContinuity keeps the first present member of each of yesterday's teams that is still
// free today as a solo on that team.
func (e *Engine) seedContinuity(dayID int, section models.Section, pool []models.Student, teams []models.Team) ([]models.Pairing, []models.Student, []models.Team) {
	if dayID == 0 {
		return nil, pool, teams
	}
	prev := e.roster.Days[dayID-1]
	available := studentSet(pool)
	taken := make(map[models.Team]bool)
	var seeds []models.Pairing
	for i := len(teams) - 1; i >= 0; i-- {
		team := teams[i]
		_, p, ok := prev.PairingOnTeam(team)
		if !ok {
			continue
		}
		for _, s := range p.AssignedStudents() {
			if !available[s] {
				continue
			}
			seeds = append(seeds, models.Solo{Section: section, Team: team, Student: s})
			delete(available, s)
			taken[team] = true
			break
		}
	}
	return seeds, keepStudents(pool, available), dropTeams(teams, taken)
}

// seedRepeat retains yesterday's teams: both members when both are present, otherwise the
// one who is.
func (e *Engine) seedRepeat(dayID int, section models.Section, pool []models.Student, teams []models.Team) ([]models.Pairing, []models.Student, []models.Team) {
	if dayID == 0 {
		return nil, pool, teams
	}
	prev := e.roster.Days[dayID-1]
	available := studentSet(pool)
	taken := make(map[models.Team]bool)
	var seeds []models.Pairing
	for i := len(teams) - 1; i >= 0; i-- {
		team := teams[i]
		_, p, ok := prev.PairingOnTeam(team)
		if !ok {
			continue
		}
		var present []models.Student
		for _, s := range p.AssignedStudents() {
			if available[s] {
				present = append(present, s)
			}
		}
		switch len(present) {
		case 0:
			continue
		case 1:
			seeds = append(seeds, models.Solo{Section: section, Team: team, Student: present[0]})
		default:
			seeds = append(seeds, models.Pair{Section: section, Team: team, Primary: present[0], Secondary: present[1]})
		}
		for _, s := range present {
			delete(available, s)
		}
		taken[team] = true
		e.logger.Debug("retaining team",
			zap.Int("day", dayID),
			zap.String("team", string(team)),
			zap.Int("members", len(present)),
		)
	}
	return seeds, keepStudents(pool, available), dropTeams(teams, taken)
}

// freeTeams returns the teams, in the given order, that no pairing in occupied holds.
func freeTeams(teams []models.Team, occupied []models.Pairing) []models.Team {
	used := make(map[models.Team]bool)
	for _, p := range occupied {
		if t, ok := p.TeamName(); ok {
			used[t] = true
		}
	}
	return dropTeams(teams, used)
}

func dropTeams(teams []models.Team, drop map[models.Team]bool) []models.Team {
	out := make([]models.Team, 0, len(teams))
	for _, t := range teams {
		if !drop[t] {
			out = append(out, t)
		}
	}
	return out
}

func studentSet(students []models.Student) map[models.Student]bool {
	set := make(map[models.Student]bool, len(students))
	for _, s := range students {
		set[s] = true
	}
	return set
}

func keepStudents(students []models.Student, keep map[models.Student]bool) []models.Student {
	out := make([]models.Student, 0, len(students))
	for _, s := range students {
		if keep[s] {
			out = append(out, s)
		}
	}
	return out
}
