package dto

import (
	"time"

	"github.com/noah-isme/pairs-api/internal/models"
)

// Shuffle modes accepted by the shuffle endpoint.
const (
	ShuffleModeShuffle         = "shuffle"
	ShuffleModeContinuity      = "continuity"
	ShuffleModeRepeat          = "repeat"
	ShuffleModeGrand           = "grand"
	ShuffleModeGrandContinuity = "grand-continuity"
)

// CreateStudentRequest registers a student.
type CreateStudentRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Section string `json:"section" validate:"omitempty,max=100"`
}

// UpdateStudentRequest renames a student and/or changes their default section. A present but
// empty section clears it.
type UpdateStudentRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=100"`
	Section *string `json:"section" validate:"omitempty,max=100"`
}

// StudentResponse describes a student and their default section.
type StudentResponse struct {
	Name    models.Student `json:"name"`
	Section models.Section `json:"section,omitempty"`
}

// CreateSectionRequest registers a section.
type CreateSectionRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Zoom string `json:"zoom" validate:"omitempty,max=255"`
}

// UpdateSectionRequest renames a section and/or replaces its zoom token.
type UpdateSectionRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
	Zoom *string `json:"zoom" validate:"omitempty,max=255"`
}

// TeamRequest names a team.
type TeamRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// NameDayRequest sets a day's display name.
type NameDayRequest struct {
	Name string `json:"name" validate:"max=100"`
}

// AssignRequest places a student on a day. An empty section marks the student absent and an
// empty team leaves them unassigned in the section.
type AssignRequest struct {
	Student string `json:"student" validate:"required,max=100"`
	Section string `json:"section" validate:"omitempty,max=100"`
	Team    string `json:"team" validate:"omitempty,max=100"`
}

// ShuffleRequest runs one of the shuffling algorithms. Section is required for the
// section-scoped modes.
type ShuffleRequest struct {
	Mode    string `json:"mode" validate:"required,oneof=shuffle continuity repeat grand grand-continuity"`
	Section string `json:"section" validate:"omitempty,max=100"`
}

// DayResponse is the full view of a day.
type DayResponse struct {
	ID         int                                 `json:"id"`
	Name       string                              `json:"name,omitempty"`
	Locked     bool                                `json:"locked"`
	Pairings   []models.PairingRecord              `json:"pairings"`
	Unassigned map[models.Section][]models.Student `json:"unassigned"`
	Absent     []models.Student                    `json:"absent"`
}

// LockResponse reports a day's lock state after toggling.
type LockResponse struct {
	ID     int  `json:"id"`
	Locked bool `json:"locked"`
}

// ShuffleResponse reports the pairings a shuffle produced.
type ShuffleResponse struct {
	Day         int                    `json:"day"`
	Mode        string                 `json:"mode"`
	Section     string                 `json:"section,omitempty"`
	Pairings    []models.PairingRecord `json:"pairings"`
	RepeatPairs int                    `json:"repeat_pairs"`
	Revision    string                 `json:"revision"`
}

// ExportResponse references a generated CSV export.
type ExportResponse struct {
	ID        string    `json:"id"`
	Day       int       `json:"day"`
	Filename  string    `json:"filename"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
