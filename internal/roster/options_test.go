package roster

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pairs-api/internal/models"
)

// secondDay shuffles day 0 into Pair(T2,E,D), Pair(T1,C,B) and leaves day 1 with Pair(T1,C,D).
func secondDay(t *testing.T) *Engine {
	t.Helper()
	e := fiveStudentEngine(t)
	e.AddDay()
	_, err := e.Shuffle(0, "S")
	require.NoError(t, err)
	e.AddDay()
	require.NoError(t, e.AssignStudent(1, "C", "S", "T1"))
	require.NoError(t, e.AssignStudent(1, "D", "S", "T1"))
	return e
}

func TestTeamOptions(t *testing.T) {
	e := secondDay(t)

	got, err := e.TeamOptions(1)
	require.NoError(t, err)

	want := []TeamOption{{
		Section: "S",
		Team:    "T1",
		Slots: []SlotOptions{
			{
				Slot:     SlotPrimary,
				Occupant: "C",
				Candidates: []Candidate{
					{Student: "C", Current: true, Reuser: true},
					{Student: "A"},
					{Student: "B", Reuser: true},
					{Student: "E", Repeat: true},
				},
			},
			{
				Slot:     SlotSecondary,
				Occupant: "D",
				Candidates: []Candidate{
					{Student: "D", Current: true},
					{Student: "A"},
					{Student: "B", Repeat: true, Reuser: true},
					{Student: "E"},
				},
			},
		},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("team options mismatch (-want +got):\n%s", diff)
	}
}

func TestTeamOptionsSoloHasSingleSlot(t *testing.T) {
	e := newTestEngine(t, map[models.Section][]models.Student{"S": {"A", "B"}}, "T1")
	e.AddDay()
	require.NoError(t, e.AssignStudent(0, "A", "S", "T1"))

	got, err := e.TeamOptions(0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Slots, 1)
	assert.Equal(t, []Candidate{{Student: "A", Current: true}, {Student: "B"}}, got[0].Slots[0].Candidates)
}

func TestStudentOptions(t *testing.T) {
	e := secondDay(t)

	got, err := e.StudentOptions(1)
	require.NoError(t, err)
	byStudent := make(map[models.Student]StudentOption, len(got))
	for _, opt := range got {
		byStudent[opt.Student] = opt
	}
	require.Len(t, byStudent, 5)

	assert.Equal(t, StudentOption{
		Student: "A",
		Section: "S",
		Teams:   []TeamChoice{{Team: "T2"}},
	}, byStudent["A"])
	assert.Equal(t, StudentOption{
		Student: "C",
		Section: "S",
		Team:    "T1",
		Reuser:  true,
		Teams:   []TeamChoice{{Team: "T1", Current: true, Reuser: true}, {Team: "T2"}},
	}, byStudent["C"])
	assert.Equal(t, []TeamChoice{{Team: "T2", Reuser: true}}, byStudent["E"].Teams)
}

func TestStudentOptionsRespectSections(t *testing.T) {
	e := newTestEngine(t, map[models.Section][]models.Student{"S1": {"A"}, "S2": {"B", "C"}}, "T1", "T2")
	e.AddDay()
	require.NoError(t, e.AssignStudent(0, "B", "S2", "T1"))
	require.NoError(t, e.AssignStudent(0, "C", models.NoSection, models.NoTeam))

	got, err := e.StudentOptions(0)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, []TeamChoice{{Team: "T2"}}, got[0].Teams)
	assert.Equal(t, []TeamChoice{{Team: "T1", Current: true}, {Team: "T2"}}, got[1].Teams)
	assert.Equal(t, []TeamChoice{{Team: "T1"}, {Team: "T2"}}, got[2].Teams)
	assert.Equal(t, models.NoSection, got[2].Section)
}

func TestStudentOptionsWithoutSectionListAllOpenTeams(t *testing.T) {
	e := newTestEngine(t, map[models.Section][]models.Student{"S": {"A", "B", "C"}}, "T1", "T2", "T3")
	e.AddDay()
	require.NoError(t, e.NewStudent("Z", models.NoSection))
	require.NoError(t, e.AssignStudent(0, "A", "S", "T1"))
	require.NoError(t, e.AssignStudent(0, "B", "S", "T1"))
	require.NoError(t, e.AssignStudent(0, "C", models.NoSection, models.NoTeam))

	got, err := e.StudentOptions(0)
	require.NoError(t, err)
	byStudent := make(map[models.Student]StudentOption, len(got))
	for _, opt := range got {
		byStudent[opt.Student] = opt
	}

	// C is absent and Z holds no pairing; neither is bound to a section, only T1 is full.
	open := []TeamChoice{{Team: "T2"}, {Team: "T3"}}
	assert.Equal(t, StudentOption{Student: "C", Teams: open}, byStudent["C"])
	assert.Equal(t, StudentOption{Student: "Z", Teams: open}, byStudent["Z"])
}
