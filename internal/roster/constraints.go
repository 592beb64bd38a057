package roster

import (
	"fmt"

	"github.com/noah-isme/pairs-api/internal/models"
	appErrors "github.com/noah-isme/pairs-api/pkg/errors"
)

// NonrepeatPartners reports whether s1 and s2 were never present together in one pairing on
// any day before dayID.
func (e *Engine) NonrepeatPartners(dayID int, s1, s2 models.Student) bool {
	if dayID > len(e.roster.Days) {
		dayID = len(e.roster.Days)
	}
	for _, day := range e.roster.Days[:max(dayID, 0)] {
		for _, p := range day.Pairings {
			present := p.PresentStudents()
			if len(present) < 2 {
				continue
			}
			if contains(present, s1) && contains(present, s2) {
				return false
			}
		}
	}
	return true
}

// PickPartnerFrom removes and returns the first candidate who has never partnered s before
// dayID. When every candidate is a repeat it falls back to the last one: the history check is
// a preference, and the greedy fallback keeps every team filled.
//
// Callers guard on pool size; an empty pool is an internal scheduling bug and panics.
func (e *Engine) PickPartnerFrom(dayID int, s models.Student, candidates []models.Student) (models.Student, []models.Student) {
	partner, rest, _ := e.pickPartner(dayID, s, candidates)
	return partner, rest
}

func (e *Engine) pickPartner(dayID int, s models.Student, candidates []models.Student) (models.Student, []models.Student, bool) {
	if len(candidates) == 0 {
		panic(appErrors.Clone(appErrors.ErrPreconditionViolation, fmt.Sprintf("no partner candidates left for %s on day %d", s, dayID)))
	}
	for i, c := range candidates {
		if e.NonrepeatPartners(dayID, s, c) {
			return c, removeAt(candidates, i), false
		}
	}
	last := len(candidates) - 1
	return candidates[last], candidates[:last], true
}

func removeAt(students []models.Student, i int) []models.Student {
	out := make([]models.Student, 0, len(students)-1)
	out = append(out, students[:i]...)
	return append(out, students[i+1:]...)
}

func contains(students []models.Student, s models.Student) bool {
	for _, candidate := range students {
		if candidate == s {
			return true
		}
	}
	return false
}
