package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pairs-api/internal/dto"
	"github.com/noah-isme/pairs-api/internal/middleware"
	"github.com/noah-isme/pairs-api/internal/models"
	"github.com/noah-isme/pairs-api/internal/roster"
	appErrors "github.com/noah-isme/pairs-api/pkg/errors"
	"github.com/noah-isme/pairs-api/pkg/response"
)

type dayService interface {
	ListDays(ctx context.Context) ([]roster.DaySummary, error)
	GetDay(ctx context.Context, id int) (*dto.DayResponse, error)
	AddDay(ctx context.Context) (*dto.DayResponse, error)
	NameDay(ctx context.Context, id int, req dto.NameDayRequest) error
	ToggleLock(ctx context.Context, id int) (*dto.LockResponse, error)

	Assign(ctx context.Context, day int, req dto.AssignRequest) (*dto.DayResponse, error)
	Unassign(ctx context.Context, day int, student string) (*dto.DayResponse, error)
	UnpairStudent(ctx context.Context, day int, student string) (*dto.DayResponse, error)
	UnpairTeam(ctx context.Context, day int, team string) (*dto.DayResponse, error)
	Shuffle(ctx context.Context, day int, req dto.ShuffleRequest) (*dto.ShuffleResponse, error)

	TeamOptions(ctx context.Context, day int) ([]roster.TeamOption, error)
	StudentOptions(ctx context.Context, day int) ([]roster.StudentOption, error)
	StudentsPresentInSection(ctx context.Context, day int, section string) ([]models.Student, error)
}

// DayHandler exposes day lifecycle, assignment, shuffle and projection endpoints.
type DayHandler struct {
	days dayService
}

// NewDayHandler constructs DayHandler.
func NewDayHandler(days dayService) *DayHandler {
	return &DayHandler{days: days}
}

// List godoc
// @Summary List days
// @Tags Days
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /days [get]
func (h *DayHandler) List(c *gin.Context) {
	days, err := h.days.ListDays(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days, middleware.ResponseMeta(c))
}

// Get godoc
// @Summary Get day with pairings, unassigned and absent students
// @Tags Days
// @Produce json
// @Param day path int true "Day index"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /days/{day} [get]
func (h *DayHandler) Get(c *gin.Context) {
	id, ok := dayParam(c)
	if !ok {
		return
	}
	day, err := h.days.GetDay(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day, middleware.ResponseMeta(c))
}

// Add godoc
// @Summary Append a day seeded from the previous one
// @Tags Days
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /days [post]
func (h *DayHandler) Add(c *gin.Context) {
	day, err := h.days.AddDay(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, day)
}

// Name godoc
// @Summary Set a day's display name
// @Tags Days
// @Accept json
// @Param day path int true "Day index"
// @Param payload body dto.NameDayRequest true "Name payload"
// @Success 204
// @Router /days/{day}/name [put]
func (h *DayHandler) Name(c *gin.Context) {
	id, ok := dayParam(c)
	if !ok {
		return
	}
	var req dto.NameDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.days.NameDay(c.Request.Context(), id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ToggleLock godoc
// @Summary Toggle a day's lock
// @Tags Days
// @Produce json
// @Param day path int true "Day index"
// @Success 200 {object} response.Envelope
// @Router /days/{day}/lock [post]
func (h *DayHandler) ToggleLock(c *gin.Context) {
	id, ok := dayParam(c)
	if !ok {
		return
	}
	resp, err := h.days.ToggleLock(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Assign godoc
// @Summary Place a student in a section and optionally on a team
// @Tags Assignments
// @Accept json
// @Produce json
// @Param day path int true "Day index"
// @Param payload body dto.AssignRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /days/{day}/assignments [put]
func (h *DayHandler) Assign(c *gin.Context) {
	id, ok := dayParam(c)
	if !ok {
		return
	}
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	day, err := h.days.Assign(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day, middleware.ResponseMeta(c))
}

// Unassign godoc
// @Summary Remove a student's pairing on a day
// @Tags Assignments
// @Produce json
// @Param day path int true "Day index"
// @Param student path string true "Student name"
// @Success 200 {object} response.Envelope
// @Router /days/{day}/assignments/{student} [delete]
func (h *DayHandler) Unassign(c *gin.Context) {
	id, ok := dayParam(c)
	if !ok {
		return
	}
	day, err := h.days.Unassign(c.Request.Context(), id, c.Param("student"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day, middleware.ResponseMeta(c))
}

// UnpairStudent godoc
// @Summary Take a student off their team, keeping their section
// @Tags Assignments
// @Produce json
// @Param day path int true "Day index"
// @Param student path string true "Student name"
// @Success 200 {object} response.Envelope
// @Router /days/{day}/students/{student}/unpair [post]
func (h *DayHandler) UnpairStudent(c *gin.Context) {
	id, ok := dayParam(c)
	if !ok {
		return
	}
	day, err := h.days.UnpairStudent(c.Request.Context(), id, c.Param("student"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day, middleware.ResponseMeta(c))
}

// UnpairTeam godoc
// @Summary Take every member off a team
// @Tags Assignments
// @Produce json
// @Param day path int true "Day index"
// @Param team path string true "Team name"
// @Success 200 {object} response.Envelope
// @Router /days/{day}/teams/{team}/unpair [post]
func (h *DayHandler) UnpairTeam(c *gin.Context) {
	id, ok := dayParam(c)
	if !ok {
		return
	}
	day, err := h.days.UnpairTeam(c.Request.Context(), id, c.Param("team"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day, middleware.ResponseMeta(c))
}

// Shuffle godoc
// @Summary Run a shuffling algorithm on a day
// @Tags Shuffle
// @Accept json
// @Produce json
// @Param day path int true "Day index"
// @Param payload body dto.ShuffleRequest true "Shuffle mode and section"
// @Success 200 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /days/{day}/shuffle [post]
func (h *DayHandler) Shuffle(c *gin.Context) {
	id, ok := dayParam(c)
	if !ok {
		return
	}
	var req dto.ShuffleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.days.Shuffle(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "revision", result.Revision)
	response.JSON(c, http.StatusOK, result, middleware.ResponseMeta(c))
}

// TeamOptions godoc
// @Summary Candidate students for every slot of every occupied team
// @Tags Options
// @Produce json
// @Param day path int true "Day index"
// @Success 200 {object} response.Envelope
// @Router /days/{day}/team-options [get]
func (h *DayHandler) TeamOptions(c *gin.Context) {
	id, ok := dayParam(c)
	if !ok {
		return
	}
	options, err := h.days.TeamOptions(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options, middleware.ResponseMeta(c))
}

// StudentOptions godoc
// @Summary Teams each student could join
// @Tags Options
// @Produce json
// @Param day path int true "Day index"
// @Success 200 {object} response.Envelope
// @Router /days/{day}/student-options [get]
func (h *DayHandler) StudentOptions(c *gin.Context) {
	id, ok := dayParam(c)
	if !ok {
		return
	}
	options, err := h.days.StudentOptions(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options, middleware.ResponseMeta(c))
}

// PresentInSection godoc
// @Summary Students present in a section on a day
// @Tags Options
// @Produce json
// @Param day path int true "Day index"
// @Param section path string true "Section name"
// @Success 200 {object} response.Envelope
// @Router /days/{day}/sections/{section}/students [get]
func (h *DayHandler) PresentInSection(c *gin.Context) {
	id, ok := dayParam(c)
	if !ok {
		return
	}
	students, err := h.days.StudentsPresentInSection(c.Request.Context(), id, c.Param("section"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students)
}

// dayParam parses the :day path segment, writing a validation error when it is malformed.
func dayParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("day"))
	if err != nil || id < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "day must be a non-negative integer"))
		return 0, false
	}
	return id, true
}
