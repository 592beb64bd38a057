package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pairs-api/internal/dto"
	"github.com/noah-isme/pairs-api/internal/models"
	appErrors "github.com/noah-isme/pairs-api/pkg/errors"
	"github.com/noah-isme/pairs-api/pkg/response"
)

type teamService interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
	CreateTeam(ctx context.Context, req dto.TeamRequest) (models.Team, error)
	RenameTeam(ctx context.Context, name string, req dto.TeamRequest) (models.Team, error)
	DeleteTeam(ctx context.Context, name string) error
}

// TeamHandler exposes team endpoints.
type TeamHandler struct {
	teams teamService
}

// NewTeamHandler constructs TeamHandler.
func NewTeamHandler(teams teamService) *TeamHandler {
	return &TeamHandler{teams: teams}
}

// List godoc
// @Summary List teams
// @Tags Teams
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teams [get]
func (h *TeamHandler) List(c *gin.Context) {
	teams, err := h.teams.ListTeams(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teams)
}

// Create godoc
// @Summary Create team
// @Tags Teams
// @Accept json
// @Produce json
// @Param payload body dto.TeamRequest true "Team payload"
// @Success 201 {object} response.Envelope
// @Router /teams [post]
func (h *TeamHandler) Create(c *gin.Context) {
	var req dto.TeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	team, err := h.teams.CreateTeam(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"name": team})
}

// Rename godoc
// @Summary Rename team
// @Tags Teams
// @Accept json
// @Produce json
// @Param name path string true "Team name"
// @Param payload body dto.TeamRequest true "New name"
// @Success 200 {object} response.Envelope
// @Router /teams/{name} [put]
func (h *TeamHandler) Rename(c *gin.Context) {
	var req dto.TeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	team, err := h.teams.RenameTeam(c.Request.Context(), c.Param("name"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"name": team})
}

// Delete godoc
// @Summary Delete team
// @Tags Teams
// @Param name path string true "Team name"
// @Success 204
// @Router /teams/{name} [delete]
func (h *TeamHandler) Delete(c *gin.Context) {
	if err := h.teams.DeleteTeam(c.Request.Context(), c.Param("name")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
