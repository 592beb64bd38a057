package roster

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pairs-api/internal/models"
)

func sortedPairings(p []models.Pairing) []models.Pairing {
	out := append([]models.Pairing(nil), p...)
	models.SortPairings(out)
	return out
}

func fiveStudentEngine(t *testing.T) *Engine {
	t.Helper()
	return newTestEngine(t, map[models.Section][]models.Student{"S": {"A", "B", "C", "D", "E"}}, "T1", "T2")
}

func TestShuffleLeavesLastStudentUnassignedWhenTeamsRunOut(t *testing.T) {
	e := fiveStudentEngine(t)
	e.AddDay()

	res, err := e.Shuffle(0, "S")
	require.NoError(t, err)

	want := []models.Pairing{
		models.Pair{Section: "S", Team: "T2", Primary: "E", Secondary: "D"},
		models.Pair{Section: "S", Team: "T1", Primary: "C", Secondary: "B"},
		models.Unassigned{Section: "S", Student: "A"},
	}
	if diff := cmp.Diff(want, res.Pairings); diff != "" {
		t.Fatalf("shuffle mismatch (-want +got):\n%s", diff)
	}
	assert.Zero(t, res.RepeatPairs)
	assert.ElementsMatch(t, want, e.Roster().Days[0].Pairings)
}

func TestShuffleOddPoolWithSpareTeamGoesSolo(t *testing.T) {
	e := newTestEngine(t, map[models.Section][]models.Student{"S": {"A", "B", "C"}}, "T1", "T2", "T3")
	e.AddDay()

	res, err := e.Shuffle(0, "S")
	require.NoError(t, err)
	assert.Equal(t, []models.Pairing{
		models.Pair{Section: "S", Team: "T3", Primary: "C", Secondary: "B"},
		models.Solo{Section: "S", Team: "T2", Student: "A"},
	}, res.Pairings)
}

func TestShuffleSkipsTeamsHeldByOtherSections(t *testing.T) {
	e := newTestEngine(t, map[models.Section][]models.Student{"S1": {"A", "B"}, "S2": {"C", "D"}}, "T1", "T2")
	e.AddDay()
	require.NoError(t, e.AssignStudent(0, "C", "S2", "T2"))

	res, err := e.Shuffle(0, "S1")
	require.NoError(t, err)
	assert.Equal(t, []models.Pairing{models.Pair{Section: "S1", Team: "T1", Primary: "B", Secondary: "A"}}, res.Pairings)

	_, p, _ := e.Roster().Days[0].PairingOf("C")
	assert.Equal(t, models.Solo{Section: "S2", Team: "T2", Student: "C"}, p)
	assertSingleOwnership(t, e.Roster())
}

func TestShuffleIgnoresAbsentStudents(t *testing.T) {
	e := fiveStudentEngine(t)
	e.AddDay()
	require.NoError(t, e.AssignStudent(0, "E", models.NoSection, models.NoTeam))

	res, err := e.Shuffle(0, "S")
	require.NoError(t, err)
	assert.Equal(t, []models.Pairing{
		models.Pair{Section: "S", Team: "T2", Primary: "D", Secondary: "C"},
		models.Pair{Section: "S", Team: "T1", Primary: "B", Secondary: "A"},
	}, res.Pairings)
	_, p, _ := e.Roster().Days[0].PairingOf("E")
	assert.Equal(t, models.Absent{Student: "E"}, p)
}

func TestRepeatKeepsYesterdaysTeams(t *testing.T) {
	e := fiveStudentEngine(t)
	e.AddDay()
	_, err := e.Shuffle(0, "S")
	require.NoError(t, err)

	e.AddDay()
	res, err := e.Repeat(1, "S")
	require.NoError(t, err)

	want := []models.Pairing{
		models.Pair{Section: "S", Team: "T2", Primary: "E", Secondary: "D"},
		models.Pair{Section: "S", Team: "T1", Primary: "C", Secondary: "B"},
		models.Unassigned{Section: "S", Student: "A"},
	}
	if diff := cmp.Diff(want, res.Pairings); diff != "" {
		t.Fatalf("repeat mismatch (-want +got):\n%s", diff)
	}
}

func TestRepeatPairsUpSoloSurvivor(t *testing.T) {
	e := fiveStudentEngine(t)
	e.AddDay()
	_, err := e.Shuffle(0, "S")
	require.NoError(t, err)

	e.AddDay()
	require.NoError(t, e.AssignStudent(1, "D", models.NoSection, models.NoTeam))
	res, err := e.Repeat(1, "S")
	require.NoError(t, err)

	// D is absent: E keeps T2 alone and is topped up from what is left.
	assert.Equal(t, []models.Pairing{
		models.Pair{Section: "S", Team: "T2", Primary: "E", Secondary: "A"},
		models.Pair{Section: "S", Team: "T1", Primary: "C", Secondary: "B"},
	}, res.Pairings)
}

func TestShuffleWithContinuityKeepsOneMemberPerTeam(t *testing.T) {
	e := fiveStudentEngine(t)
	e.AddDay()
	_, err := e.Shuffle(0, "S")
	require.NoError(t, err)

	e.AddDay()
	res, err := e.ShuffleWithContinuity(1, "S")
	require.NoError(t, err)

	want := []models.Pairing{
		models.Pair{Section: "S", Team: "T2", Primary: "E", Secondary: "B"},
		models.Pair{Section: "S", Team: "T1", Primary: "C", Secondary: "D"},
		models.Unassigned{Section: "S", Student: "A"},
	}
	if diff := cmp.Diff(want, res.Pairings); diff != "" {
		t.Fatalf("continuity mismatch (-want +got):\n%s", diff)
	}
	assert.Zero(t, res.RepeatPairs)
}

func TestShuffleWithContinuityOnFirstDayIsPlainShuffle(t *testing.T) {
	a := fiveStudentEngine(t)
	a.AddDay()
	b := fiveStudentEngine(t)
	b.AddDay()

	plain, err := a.Shuffle(0, "S")
	require.NoError(t, err)
	cont, err := b.ShuffleWithContinuity(0, "S")
	require.NoError(t, err)
	assert.Equal(t, plain, cont)
}

func TestShufflePrefersFreshPartners(t *testing.T) {
	e := newTestEngine(t, map[models.Section][]models.Student{"S": {"A", "B", "C", "D", "E", "F", "G", "H"}}, "T1", "T2", "T3", "T4")
	e.rng = NewRand(42)

	for day := 0; day < 6; day++ {
		e.AddDay()
		_, err := e.Shuffle(day, "S")
		require.NoError(t, err)
		assertSingleOwnership(t, e.Roster())
	}

	// Replaying each pick against the history before its day: a repeat is only allowed when the
	// remaining pool had no fresh candidate left.
	for _, day := range e.Roster().Days {
		pool := make(map[models.Student]bool)
		for _, p := range day.Pairings {
			for _, s := range p.PresentStudents() {
				pool[s] = true
			}
		}
		for _, p := range day.Pairings {
			pair, ok := p.(models.Pair)
			if !ok {
				continue
			}
			delete(pool, pair.Primary)
			if !e.NonrepeatPartners(day.ID, pair.Primary, pair.Secondary) {
				for s := range pool {
					if s != pair.Secondary {
						assert.False(t, e.NonrepeatPartners(day.ID, pair.Primary, s),
							"day %d: %s repeated %s although %s was fresh", day.ID, pair.Primary, pair.Secondary, s)
					}
				}
			}
			delete(pool, pair.Secondary)
		}
	}
}

func TestGrandShuffleBalancesSections(t *testing.T) {
	e := newTestEngine(t, map[models.Section][]models.Student{
		"S1": {"A", "B", "C", "D"},
		"S2": {"E", "F", "G", "H"},
	}, "T1", "T2", "T3")
	e.rng = NewRand(7)
	e.AddDay()
	require.NoError(t, e.AssignStudent(0, "H", models.NoSection, models.NoTeam))

	res, err := e.GrandShuffle(0)
	require.NoError(t, err)

	perSection := make(map[models.Section]int)
	teamed := 0
	for _, p := range res.Pairings {
		sec, ok := p.SectionName()
		require.True(t, ok)
		assert.Contains(t, []models.Section{"S1", "S2"}, sec)
		if _, onTeam := p.TeamName(); onTeam {
			perSection[sec]++
			teamed++
		}
	}
	assert.Equal(t, 3, teamed)
	diff := perSection["S1"] - perSection["S2"]
	assert.True(t, diff >= -1 && diff <= 1, "unbalanced: %v", perSection)

	_, p, _ := e.Roster().Days[0].PairingOf("H")
	assert.Equal(t, models.Absent{Student: "H"}, p)
	assertSingleOwnership(t, e.Roster())
	assert.Len(t, e.Roster().Days[0].Pairings, len(res.Pairings)+1)
}

func TestGrandShuffleReturnsLeftoversHome(t *testing.T) {
	e := newTestEngine(t, map[models.Section][]models.Student{"S1": {"A", "B"}, "S2": {"C"}}, "T1")
	e.AddDay()

	res, err := e.GrandShuffle(0)
	require.NoError(t, err)
	// Pool [A,B,C] reversed: C leads T1 with B; A stays unassigned in S1.
	assert.Equal(t, []models.Pairing{
		models.Pair{Section: "S1", Team: "T1", Primary: "C", Secondary: "B"},
		models.Unassigned{Section: "S1", Student: "A"},
	}, res.Pairings)
}

func TestGrandShuffleFillsEmptySections(t *testing.T) {
	e := newTestEngine(t, map[models.Section][]models.Student{
		"S1": {"A", "B", "C", "D", "E", "F", "G"},
		"S2": {},
		"S3": {},
	}, "T1", "T2", "T3")
	e.AddDay()

	res, err := e.GrandShuffle(0)
	require.NoError(t, err)
	// Pool [G..A]: three pairs on T3, T2, T1; one team per section; A has no team and stays in S1.
	assert.Equal(t, []models.Pairing{
		models.Pair{Section: "S1", Team: "T1", Primary: "C", Secondary: "B"},
		models.Pair{Section: "S2", Team: "T2", Primary: "E", Secondary: "D"},
		models.Pair{Section: "S3", Team: "T3", Primary: "G", Secondary: "F"},
		models.Unassigned{Section: "S1", Student: "A"},
	}, res.Pairings)
	assertSingleOwnership(t, e.Roster())
}

func TestGrandShuffleWithContinuitySeedsAcrossSections(t *testing.T) {
	e := newTestEngine(t, map[models.Section][]models.Student{"S1": {"A", "B"}, "S2": {"C", "D"}}, "T1", "T2")
	e.AddDay()
	require.NoError(t, e.AssignStudent(0, "A", "S1", "T1"))
	require.NoError(t, e.AssignStudent(0, "C", "S1", "T1"))
	require.NoError(t, e.AssignStudent(0, "B", "S2", "T2"))
	require.NoError(t, e.AssignStudent(0, "D", "S2", "T2"))

	e.AddDay()
	res, err := e.GrandShuffleWithContinuity(1)
	require.NoError(t, err)

	got := sortedPairings(res.Pairings)
	require.Len(t, got, 2)
	for _, p := range got {
		pair, ok := p.(models.Pair)
		require.True(t, ok)
		assert.True(t, e.NonrepeatPartners(1, pair.Primary, pair.Secondary), "%v repeats day 0", pair)
	}
	_, p, _ := e.Roster().Days[1].PairingOf("A")
	team, _ := p.TeamName()
	assert.Equal(t, models.Team("T1"), team)
	_, p, _ = e.Roster().Days[1].PairingOf("B")
	team, _ = p.TeamName()
	assert.Equal(t, models.Team("T2"), team)
}
