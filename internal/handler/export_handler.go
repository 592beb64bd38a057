package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pairs-api/internal/dto"
	"github.com/noah-isme/pairs-api/pkg/response"
	"github.com/noah-isme/pairs-api/pkg/storage"
)

type exportService interface {
	ExportDay(ctx context.Context, day int) (*dto.ExportResponse, error)
	OpenToken(token string) (*os.File, storage.Grant, error)
}

// ExportHandler exposes CSV export endpoints.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Create godoc
// @Summary Export a day's pairings as CSV
// @Tags Exports
// @Produce json
// @Param day path int true "Day index"
// @Success 201 {object} response.Envelope
// @Router /days/{day}/exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	id, ok := dayParam(c)
	if !ok {
		return
	}
	result, err := h.exports.ExportDay(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Download godoc
// @Summary Download an export through its signed token
// @Tags Exports
// @Produce text/csv
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	file, grant, err := h.exports.OpenToken(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(grant.Path)))
	c.Header("Cache-Control", "private, no-store")
	c.DataFromReader(http.StatusOK, info.Size(), "text/csv; charset=utf-8", file, nil)
}
