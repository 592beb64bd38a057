package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/pairs-api/internal/dto"
	"github.com/noah-isme/pairs-api/internal/models"
	"github.com/noah-isme/pairs-api/internal/roster"
	appErrors "github.com/noah-isme/pairs-api/pkg/errors"
	"github.com/noah-isme/pairs-api/pkg/jobs"
)

// JobTypeWarmOptions is the warmer job that precomputes projections for a fresh revision.
const JobTypeWarmOptions = "warm-options"

type rosterRepository interface {
	Load(ctx context.Context) (*models.Roster, error)
	Save(ctx context.Context, roster *models.Roster) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// RosterServiceConfig tunes the roster service.
type RosterServiceConfig struct {
	RosterID   string
	OptionsTTL time.Duration
}

// WarmOptionsPayload identifies the projections a warmer job should compute.
type WarmOptionsPayload struct {
	Revision string
	Day      int
}

// RosterService serialises load, mutate and save cycles over the persisted roster and serves the
// read-only projections.
type RosterService struct {
	repo      rosterRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	rng       roster.Rand
	cfg       RosterServiceConfig
	warmer    jobEnqueuer
	now       func() time.Time

	mu sync.Mutex
}

// NewRosterService constructs the roster service. cache, metrics and rng may be nil.
func NewRosterService(repo rosterRepository, cache *CacheService, metrics *MetricsService, rng roster.Rand, cfg RosterServiceConfig, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if rng == nil {
		rng = roster.NewRand(0)
	}
	if cfg.RosterID == "" {
		cfg.RosterID = "default"
	}
	return &RosterService{
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		rng:       rng,
		cfg:       cfg,
		now:       time.Now,
	}
}

// SetWarmer attaches the queue that receives warm-options jobs after each mutation.
func (s *RosterService) SetWarmer(q jobEnqueuer) {
	s.warmer = q
}

// --- Students ---

// ListStudents returns every student with their default section.
func (s *RosterService) ListStudents(ctx context.Context) ([]dto.StudentResponse, error) {
	engine, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	students := engine.ListStudents()
	out := make([]dto.StudentResponse, 0, len(students))
	for _, st := range students {
		out = append(out, dto.StudentResponse{Name: st, Section: engine.Roster().Students[st]})
	}
	return out, nil
}

// StudentsBySection groups students by default section.
func (s *RosterService) StudentsBySection(ctx context.Context) (map[models.Section][]models.Student, error) {
	engine, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	return engine.ListStudentsBySection(), nil
}

// CreateStudent registers a student.
func (s *RosterService) CreateStudent(ctx context.Context, req dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	if err := s.validate(req, "invalid student payload"); err != nil {
		return nil, err
	}
	name := models.Student(strings.TrimSpace(req.Name))
	section := models.Section(strings.TrimSpace(req.Section))
	_, err := s.mutate(ctx, "create_student", func(e *roster.Engine) error {
		return e.NewStudent(name, section)
	})
	if err != nil {
		return nil, err
	}
	return &dto.StudentResponse{Name: name, Section: section}, nil
}

// UpdateStudent applies a section change and then a rename.
func (s *RosterService) UpdateStudent(ctx context.Context, name string, req dto.UpdateStudentRequest) (*dto.StudentResponse, error) {
	if err := s.validate(req, "invalid student payload"); err != nil {
		return nil, err
	}
	var resp dto.StudentResponse
	_, err := s.mutate(ctx, "update_student", func(e *roster.Engine) error {
		current := models.Student(name)
		if req.Section != nil {
			if err := e.SetStudentSection(current, models.Section(strings.TrimSpace(*req.Section))); err != nil {
				return err
			}
		}
		if req.Name != nil {
			next := models.Student(strings.TrimSpace(*req.Name))
			if err := e.RenameStudent(current, next); err != nil {
				return err
			}
			current = next
		}
		if err := requireKnown(e.Roster().Students, current, "student"); err != nil {
			return err
		}
		resp = dto.StudentResponse{Name: current, Section: e.Roster().Students[current]}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteStudent removes a student from the roster and every day.
func (s *RosterService) DeleteStudent(ctx context.Context, name string) error {
	_, err := s.mutate(ctx, "delete_student", func(e *roster.Engine) error {
		return e.DeleteStudent(models.Student(name))
	})
	return err
}

// --- Sections ---

// ListSections returns every section.
func (s *RosterService) ListSections(ctx context.Context) ([]roster.SectionSummary, error) {
	engine, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	return engine.ListSections(), nil
}

// CreateSection registers a section.
func (s *RosterService) CreateSection(ctx context.Context, req dto.CreateSectionRequest) (*roster.SectionSummary, error) {
	if err := s.validate(req, "invalid section payload"); err != nil {
		return nil, err
	}
	name := models.Section(strings.TrimSpace(req.Name))
	zoom := strings.TrimSpace(req.Zoom)
	_, err := s.mutate(ctx, "create_section", func(e *roster.Engine) error {
		return e.NewSection(name, zoom)
	})
	if err != nil {
		return nil, err
	}
	return &roster.SectionSummary{Name: name, Zoom: zoom}, nil
}

// UpdateSection replaces the zoom token and then renames.
func (s *RosterService) UpdateSection(ctx context.Context, name string, req dto.UpdateSectionRequest) (*roster.SectionSummary, error) {
	if err := s.validate(req, "invalid section payload"); err != nil {
		return nil, err
	}
	var resp roster.SectionSummary
	_, err := s.mutate(ctx, "update_section", func(e *roster.Engine) error {
		current := models.Section(name)
		if req.Zoom != nil {
			if err := e.SetSectionZoom(current, *req.Zoom); err != nil {
				return err
			}
		}
		if req.Name != nil {
			next := models.Section(strings.TrimSpace(*req.Name))
			if err := e.RenameSection(current, next); err != nil {
				return err
			}
			current = next
		}
		info, ok := e.Roster().Sections[current]
		if !ok {
			return appErrors.Clone(appErrors.ErrUnknownEntity, fmt.Sprintf("section %s not found", current))
		}
		resp = roster.SectionSummary{Name: current, Zoom: info.Zoom}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteSection removes a section and its pairings on every day.
func (s *RosterService) DeleteSection(ctx context.Context, name string) error {
	_, err := s.mutate(ctx, "delete_section", func(e *roster.Engine) error {
		return e.DeleteSection(models.Section(name))
	})
	return err
}

// --- Teams ---

// ListTeams returns every team name.
func (s *RosterService) ListTeams(ctx context.Context) ([]models.Team, error) {
	engine, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	return engine.ListTeams(), nil
}

// CreateTeam registers a team.
func (s *RosterService) CreateTeam(ctx context.Context, req dto.TeamRequest) (models.Team, error) {
	if err := s.validate(req, "invalid team payload"); err != nil {
		return "", err
	}
	name := models.Team(strings.TrimSpace(req.Name))
	_, err := s.mutate(ctx, "create_team", func(e *roster.Engine) error {
		return e.NewTeam(name)
	})
	if err != nil {
		return "", err
	}
	return name, nil
}

// RenameTeam renames a team everywhere.
func (s *RosterService) RenameTeam(ctx context.Context, name string, req dto.TeamRequest) (models.Team, error) {
	if err := s.validate(req, "invalid team payload"); err != nil {
		return "", err
	}
	next := models.Team(strings.TrimSpace(req.Name))
	_, err := s.mutate(ctx, "rename_team", func(e *roster.Engine) error {
		return e.RenameTeam(models.Team(name), next)
	})
	if err != nil {
		return "", err
	}
	return next, nil
}

// DeleteTeam removes a team, leaving its members unassigned.
func (s *RosterService) DeleteTeam(ctx context.Context, name string) error {
	_, err := s.mutate(ctx, "delete_team", func(e *roster.Engine) error {
		return e.DeleteTeam(models.Team(name))
	})
	return err
}

// --- Days ---

// ListDays summarises every day.
func (s *RosterService) ListDays(ctx context.Context) ([]roster.DaySummary, error) {
	engine, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	return engine.ListDays(), nil
}

// GetDay returns the full view of one day.
func (s *RosterService) GetDay(ctx context.Context, id int) (*dto.DayResponse, error) {
	engine, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	return dayResponse(engine, id)
}

// AddDay appends a day seeded from the previous one.
func (s *RosterService) AddDay(ctx context.Context) (*dto.DayResponse, error) {
	var resp *dto.DayResponse
	_, err := s.mutate(ctx, "add_day", func(e *roster.Engine) error {
		day := e.AddDay()
		var err error
		resp, err = dayResponse(e, day.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// NameDay sets a day's display name.
func (s *RosterService) NameDay(ctx context.Context, id int, req dto.NameDayRequest) error {
	if err := s.validate(req, "invalid day payload"); err != nil {
		return err
	}
	_, err := s.mutate(ctx, "name_day", func(e *roster.Engine) error {
		return e.NameDay(id, req.Name)
	})
	return err
}

// ToggleLock flips a day's lock.
func (s *RosterService) ToggleLock(ctx context.Context, id int) (*dto.LockResponse, error) {
	resp := &dto.LockResponse{ID: id}
	_, err := s.mutate(ctx, "toggle_lock", func(e *roster.Engine) error {
		locked, err := e.ToggleLockDay(id)
		resp.Locked = locked
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// --- Assignments ---

// Assign places a student and returns the updated day.
func (s *RosterService) Assign(ctx context.Context, day int, req dto.AssignRequest) (*dto.DayResponse, error) {
	if err := s.validate(req, "invalid assignment payload"); err != nil {
		return nil, err
	}
	return s.mutateDay(ctx, "assign_student", day, func(e *roster.Engine) error {
		return e.AssignStudent(day,
			models.Student(strings.TrimSpace(req.Student)),
			models.Section(strings.TrimSpace(req.Section)),
			models.Team(strings.TrimSpace(req.Team)))
	})
}

// Unassign removes a student from their pairing.
func (s *RosterService) Unassign(ctx context.Context, day int, student string) (*dto.DayResponse, error) {
	return s.mutateDay(ctx, "unassign_student", day, func(e *roster.Engine) error {
		return e.UnassignStudent(day, models.Student(student))
	})
}

// UnpairStudent takes a student off their team, keeping them in their section.
func (s *RosterService) UnpairStudent(ctx context.Context, day int, student string) (*dto.DayResponse, error) {
	return s.mutateDay(ctx, "unpair_student", day, func(e *roster.Engine) error {
		return e.UnpairStudent(day, models.Student(student))
	})
}

// UnpairTeam takes every member off a team.
func (s *RosterService) UnpairTeam(ctx context.Context, day int, team string) (*dto.DayResponse, error) {
	return s.mutateDay(ctx, "unpair_team", day, func(e *roster.Engine) error {
		return e.UnpairTeam(day, models.Team(team))
	})
}

// Shuffle runs the requested shuffling algorithm on a day.
func (s *RosterService) Shuffle(ctx context.Context, day int, req dto.ShuffleRequest) (*dto.ShuffleResponse, error) {
	if err := s.validate(req, "invalid shuffle payload"); err != nil {
		return nil, err
	}
	section := models.Section(strings.TrimSpace(req.Section))
	scoped := req.Mode != dto.ShuffleModeGrand && req.Mode != dto.ShuffleModeGrandContinuity
	if scoped && section == models.NoSection {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("section is required for %s", req.Mode))
	}

	var result roster.ShuffleResult
	r, err := s.mutate(ctx, "shuffle_"+strings.ReplaceAll(req.Mode, "-", "_"), func(e *roster.Engine) error {
		start := time.Now()
		var err error
		switch req.Mode {
		case dto.ShuffleModeShuffle:
			result, err = e.Shuffle(day, section)
		case dto.ShuffleModeContinuity:
			result, err = e.ShuffleWithContinuity(day, section)
		case dto.ShuffleModeRepeat:
			result, err = e.Repeat(day, section)
		case dto.ShuffleModeGrand:
			result, err = e.GrandShuffle(day)
		case dto.ShuffleModeGrandContinuity:
			result, err = e.GrandShuffleWithContinuity(day)
		}
		if err == nil {
			s.metrics.ObserveShuffle(req.Mode, time.Since(start), result.RepeatPairs)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	pairings := append([]models.Pairing(nil), result.Pairings...)
	models.SortPairings(pairings)
	return &dto.ShuffleResponse{
		Day:         day,
		Mode:        req.Mode,
		Section:     string(section),
		Pairings:    pairingRecords(pairings),
		RepeatPairs: result.RepeatPairs,
		Revision:    r.Revision,
	}, nil
}

// --- Projections ---

// StudentsPresentInSection lists the students present in a section on a day.
func (s *RosterService) StudentsPresentInSection(ctx context.Context, day int, section string) ([]models.Student, error) {
	engine, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	return engine.StudentsPresentInSection(day, models.Section(section))
}

// TeamOptions returns the slot candidates for every occupied team on a day.
func (s *RosterService) TeamOptions(ctx context.Context, day int) ([]roster.TeamOption, error) {
	engine, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	return s.teamOptions(ctx, engine, day)
}

// StudentOptions returns the joinable teams for every student on a day.
func (s *RosterService) StudentOptions(ctx context.Context, day int) ([]roster.StudentOption, error) {
	engine, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	return s.studentOptions(ctx, engine, day)
}

// WarmOptions is the jobs.Handler for warm-options jobs. Jobs for superseded revisions are dropped.
func (s *RosterService) WarmOptions(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(WarmOptionsPayload)
	if !ok {
		return fmt.Errorf("unexpected warm payload %T", job.Payload)
	}
	engine, err := s.view(ctx)
	if err != nil {
		return err
	}
	if engine.Roster().Revision != payload.Revision {
		s.logger.Debug("skipping stale warm job", zap.String("revision", payload.Revision))
		return nil
	}
	if _, err := s.teamOptions(ctx, engine, payload.Day); err != nil {
		return err
	}
	_, err = s.studentOptions(ctx, engine, payload.Day)
	return err
}

func (s *RosterService) teamOptions(ctx context.Context, engine *roster.Engine, day int) ([]roster.TeamOption, error) {
	return Remember(ctx, s.cache, s.cacheKey(engine, "team-options", day), s.cfg.OptionsTTL, func() ([]roster.TeamOption, error) {
		return engine.TeamOptions(day)
	})
}

func (s *RosterService) studentOptions(ctx context.Context, engine *roster.Engine, day int) ([]roster.StudentOption, error) {
	return Remember(ctx, s.cache, s.cacheKey(engine, "student-options", day), s.cfg.OptionsTTL, func() ([]roster.StudentOption, error) {
		return engine.StudentOptions(day)
	})
}

// --- plumbing ---

func (s *RosterService) load(ctx context.Context) (*models.Roster, error) {
	start := time.Now()
	r, err := s.repo.Load(ctx)
	s.metrics.ObserveStore("load", time.Since(start))
	if err != nil {
		s.logger.Error("failed to load roster", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return r, nil
}

func (s *RosterService) view(ctx context.Context) (*roster.Engine, error) {
	r, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return roster.New(r, s.rng, s.logger), nil
}

// mutate loads the roster under the service lock, applies fn and saves the result under a new
// revision. Nothing is written when fn fails.
func (s *RosterService) mutate(ctx context.Context, op string, fn func(*roster.Engine) error) (*models.Roster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.load(ctx)
	if err != nil {
		s.metrics.RecordRosterOperation(op, outcome(err))
		return nil, err
	}
	if err := fn(roster.New(r, s.rng, s.logger)); err != nil {
		s.metrics.RecordRosterOperation(op, outcome(err))
		s.logger.Debug("roster operation rejected", zap.String("operation", op), zap.Error(err))
		return nil, err
	}

	previous := r.Revision
	r.Revision = uuid.NewString()
	r.UpdatedAt = s.now().UTC()

	start := time.Now()
	err = s.repo.Save(ctx, r)
	s.metrics.ObserveStore("save", time.Since(start))
	if err != nil {
		s.metrics.RecordRosterOperation(op, "error")
		s.logger.Error("failed to save roster", zap.String("operation", op), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save roster")
	}
	s.metrics.RecordRosterOperation(op, "ok")
	s.logger.Info("roster updated",
		zap.String("operation", op),
		zap.String("revision", r.Revision),
		zap.String("previous_revision", previous),
		zap.Int("days", len(r.Days)),
	)

	// Failures are logged and counted by the cache service.
	_ = s.cache.Invalidate(ctx, fmt.Sprintf("roster:%s:%s:*", s.cfg.RosterID, previous))
	s.scheduleWarm(r)
	return r, nil
}

func (s *RosterService) mutateDay(ctx context.Context, op string, day int, fn func(*roster.Engine) error) (*dto.DayResponse, error) {
	var resp *dto.DayResponse
	_, err := s.mutate(ctx, op, func(e *roster.Engine) error {
		if err := fn(e); err != nil {
			return err
		}
		var err error
		resp, err = dayResponse(e, day)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *RosterService) scheduleWarm(r *models.Roster) {
	if s.warmer == nil || len(r.Days) == 0 {
		return
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeWarmOptions,
		Key:     JobTypeWarmOptions + ":" + s.cfg.RosterID,
		Payload: WarmOptionsPayload{Revision: r.Revision, Day: len(r.Days) - 1},
	}
	if err := s.warmer.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue warm job", zap.String("revision", r.Revision), zap.Error(err))
	}
}

func (s *RosterService) cacheKey(engine *roster.Engine, kind string, day int) string {
	return fmt.Sprintf("roster:%s:%s:%s:%d", s.cfg.RosterID, engine.Roster().Revision, kind, day)
}

func (s *RosterService) validate(req interface{}, message string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	return nil
}

func dayResponse(e *roster.Engine, id int) (*dto.DayResponse, error) {
	pairings, err := e.DayPairings(id)
	if err != nil {
		return nil, err
	}
	unassigned, err := e.UnassignedStudents(id)
	if err != nil {
		return nil, err
	}
	absent, err := e.AbsentStudents(id)
	if err != nil {
		return nil, err
	}
	day := e.Roster().Days[id]
	return &dto.DayResponse{
		ID:         day.ID,
		Name:       day.Name,
		Locked:     day.Locked,
		Pairings:   pairingRecords(pairings),
		Unassigned: unassigned,
		Absent:     absent,
	}, nil
}

func pairingRecords(pairings []models.Pairing) []models.PairingRecord {
	out := make([]models.PairingRecord, 0, len(pairings))
	for _, p := range pairings {
		out = append(out, models.NewPairingRecord(p))
	}
	return out
}

func requireKnown[K comparable, V any](m map[K]V, key K, kind string) error {
	if _, ok := m[key]; !ok {
		return appErrors.Clone(appErrors.ErrUnknownEntity, fmt.Sprintf("%s %v not found", kind, key))
	}
	return nil
}

func outcome(err error) string {
	return strings.ToLower(appErrors.FromError(err).Code)
}
