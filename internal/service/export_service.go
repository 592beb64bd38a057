package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/pairs-api/internal/dto"
	"github.com/noah-isme/pairs-api/internal/models"
	"github.com/noah-isme/pairs-api/internal/roster"
	appErrors "github.com/noah-isme/pairs-api/pkg/errors"
	"github.com/noah-isme/pairs-api/pkg/export"
	"github.com/noah-isme/pairs-api/pkg/storage"
)

// Columns of a day export.
var exportHeader = []string{"Day", "Section", "Zoom", "Team", "Kind", "Primary", "Secondary"}

type dayReader interface {
	GetDay(ctx context.Context, id int) (*dto.DayResponse, error)
	ListSections(ctx context.Context) ([]roster.SectionSummary, error)
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type tableRenderer interface {
	Render(t export.Table) ([]byte, error)
}

type tokenSigner interface {
	Generate(exportID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (storage.Grant, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix       string
	Retention       time.Duration
	CleanupInterval time.Duration
}

// ExportService renders day pairings to CSV files and hands out signed download links.
type ExportService struct {
	days    dayReader
	storage fileStorage
	csv     tableRenderer
	signer  tokenSigner
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(days dayReader, store fileStorage, signer tokenSigner, cfg ExportConfig, logger *zap.Logger, csv tableRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &ExportService{
		days:    days,
		storage: store,
		csv:     csv,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// ExportDay writes the pairings of one day to a CSV file and returns a signed link to it.
func (s *ExportService) ExportDay(ctx context.Context, dayID int) (*dto.ExportResponse, error) {
	day, payload, err := s.render(ctx, dayID)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	filename := s.buildFilename(day)
	relPath, err := s.storage.Save(id+"/"+filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("day exported", zap.String("export_id", id), zap.Int("day", dayID), zap.Int("bytes", len(payload)))
	return &dto.ExportResponse{
		ID:        id,
		Day:       dayID,
		Filename:  filename,
		Token:     token,
		URL:       fmt.Sprintf("%s/exports/%s", prefix, token),
		ExpiresAt: expiresAt,
	}, nil
}

// WriteDay renders the pairings of one day as CSV straight to w.
func (s *ExportService) WriteDay(ctx context.Context, dayID int, w io.Writer) error {
	_, payload, err := s.render(ctx, dayID)
	if err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

func (s *ExportService) render(ctx context.Context, dayID int) (*dto.DayResponse, []byte, error) {
	day, err := s.days.GetDay(ctx, dayID)
	if err != nil {
		return nil, nil, err
	}
	sections, err := s.days.ListSections(ctx)
	if err != nil {
		return nil, nil, err
	}
	payload, err := s.csv.Render(dayTable(day, sections))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return day, payload, nil
}

// OpenToken verifies a download token and opens the file it grants.
func (s *ExportService) OpenToken(token string) (*os.File, storage.Grant, error) {
	grant, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrExpiredToken) {
			return nil, storage.Grant{}, appErrors.Clone(appErrors.ErrExportExpired, "")
		}
		return nil, storage.Grant{}, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export not found")
	}
	file, err := s.storage.Open(grant.Path)
	if err != nil {
		return nil, storage.Grant{}, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export not found")
	}
	return file, grant, nil
}

// Cleanup removes export files older than ttl, or the configured retention when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.Retention
	}
	return s.storage.CleanupOlderThan(ttl)
}

// StartCleanup purges expired exports periodically until ctx is done.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := s.Cleanup(0)
				if err != nil {
					s.logger.Sugar().Warnw("export cleanup failed", "error", err)
					continue
				}
				if len(deleted) > 0 {
					s.logger.Sugar().Infow("expired exports removed", "count", len(deleted))
				}
			}
		}
	}()
}

func (s *ExportService) buildFilename(day *dto.DayResponse) string {
	label := sanitizeFilename(day.Name)
	if label == "" {
		label = "day-" + strconv.Itoa(day.ID)
	}
	return fmt.Sprintf("pairings_%s_%s.csv", label, s.now().UTC().Format("20060102_150405"))
}

func dayTable(day *dto.DayResponse, sections []roster.SectionSummary) export.Table {
	zoom := make(map[models.Section]string, len(sections))
	for _, sec := range sections {
		zoom[sec.Name] = sec.Zoom
	}
	table := export.Table{Header: exportHeader}
	dayLabel := day.Name
	if dayLabel == "" {
		dayLabel = strconv.Itoa(day.ID)
	}
	for _, p := range day.Pairings {
		primary, secondary := p.Primary, p.Secondary
		if p.Kind != models.PairingKindPair {
			primary = p.Student
		}
		table.Append(dayLabel, string(p.Section), zoom[p.Section], string(p.Team), string(p.Kind), string(primary), string(secondary))
	}
	return table
}

func sanitizeFilename(raw string) string {
	raw = strings.TrimSpace(raw)
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
