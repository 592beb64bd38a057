package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pairs-api/internal/dto"
	"github.com/noah-isme/pairs-api/internal/roster"
	appErrors "github.com/noah-isme/pairs-api/pkg/errors"
	"github.com/noah-isme/pairs-api/pkg/response"
)

type sectionService interface {
	ListSections(ctx context.Context) ([]roster.SectionSummary, error)
	CreateSection(ctx context.Context, req dto.CreateSectionRequest) (*roster.SectionSummary, error)
	UpdateSection(ctx context.Context, name string, req dto.UpdateSectionRequest) (*roster.SectionSummary, error)
	DeleteSection(ctx context.Context, name string) error
}

// SectionHandler exposes section endpoints.
type SectionHandler struct {
	sections sectionService
}

// NewSectionHandler constructs SectionHandler.
func NewSectionHandler(sections sectionService) *SectionHandler {
	return &SectionHandler{sections: sections}
}

// List godoc
// @Summary List sections
// @Tags Sections
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sections [get]
func (h *SectionHandler) List(c *gin.Context) {
	sections, err := h.sections.ListSections(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections)
}

// Create godoc
// @Summary Create section
// @Tags Sections
// @Accept json
// @Produce json
// @Param payload body dto.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Router /sections [post]
func (h *SectionHandler) Create(c *gin.Context) {
	var req dto.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	section, err := h.sections.CreateSection(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// Update godoc
// @Summary Rename a section or replace its zoom token
// @Tags Sections
// @Accept json
// @Produce json
// @Param name path string true "Section name"
// @Param payload body dto.UpdateSectionRequest true "Section payload"
// @Success 200 {object} response.Envelope
// @Router /sections/{name} [patch]
func (h *SectionHandler) Update(c *gin.Context) {
	var req dto.UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	section, err := h.sections.UpdateSection(c.Request.Context(), c.Param("name"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section)
}

// Delete godoc
// @Summary Delete section and its pairings
// @Tags Sections
// @Param name path string true "Section name"
// @Success 204
// @Router /sections/{name} [delete]
func (h *SectionHandler) Delete(c *gin.Context) {
	if err := h.sections.DeleteSection(c.Request.Context(), c.Param("name")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
