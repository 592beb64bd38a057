package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pairs-api/internal/models"
)

func TestNonrepeatPartnersLooksOnlyAtEarlierDays(t *testing.T) {
	e := newTestEngine(t, map[models.Section][]models.Student{"S": {"A", "B", "C"}}, "T1")
	e.AddDay()
	require.NoError(t, e.AssignStudent(0, "A", "S", "T1"))
	require.NoError(t, e.AssignStudent(0, "B", "S", "T1"))
	e.AddDay()

	assert.True(t, e.NonrepeatPartners(0, "A", "B"))
	assert.False(t, e.NonrepeatPartners(1, "A", "B"))
	assert.False(t, e.NonrepeatPartners(1, "B", "A"))
	assert.True(t, e.NonrepeatPartners(1, "A", "C"))
	assert.False(t, e.NonrepeatPartners(99, "A", "B"))
}

func TestNonrepeatPartnersIgnoresSolos(t *testing.T) {
	e := newTestEngine(t, map[models.Section][]models.Student{"S": {"A", "B"}}, "T1", "T2")
	e.AddDay()
	require.NoError(t, e.AssignStudent(0, "A", "S", "T1"))
	require.NoError(t, e.AssignStudent(0, "B", "S", "T2"))
	e.AddDay()

	assert.True(t, e.NonrepeatPartners(1, "A", "B"))
}

func TestPickPartnerFrom(t *testing.T) {
	e := newTestEngine(t, map[models.Section][]models.Student{"S": {"A", "B", "C", "D"}}, "T1", "T2")
	e.AddDay()
	require.NoError(t, e.AssignStudent(0, "A", "S", "T1"))
	require.NoError(t, e.AssignStudent(0, "B", "S", "T1"))
	require.NoError(t, e.AssignStudent(0, "C", "S", "T2"))
	require.NoError(t, e.AssignStudent(0, "D", "S", "T2"))
	e.AddDay()

	t.Run("first fresh candidate wins", func(t *testing.T) {
		candidates := []models.Student{"B", "C", "D"}
		partner, rest := e.PickPartnerFrom(1, "A", candidates)
		assert.Equal(t, models.Student("C"), partner)
		assert.Equal(t, []models.Student{"B", "D"}, rest)
		assert.Equal(t, []models.Student{"B", "C", "D"}, candidates)
	})

	t.Run("falls back to the last candidate", func(t *testing.T) {
		partner, rest, repeated := e.pickPartner(1, "C", []models.Student{"D"})
		assert.Equal(t, models.Student("D"), partner)
		assert.Empty(t, rest)
		assert.True(t, repeated)
	})

	t.Run("empty pool panics", func(t *testing.T) {
		assert.Panics(t, func() { e.PickPartnerFrom(1, "A", nil) })
	})
}
