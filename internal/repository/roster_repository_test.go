package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pairs-api/internal/models"
	"github.com/noah-isme/pairs-api/pkg/config"
	"github.com/noah-isme/pairs-api/pkg/database"
)

func sampleRoster() *models.Roster {
	r := models.NewRoster()
	r.Sections["S"] = models.SectionInfo{Zoom: "zoom-s"}
	r.Teams["T1"] = struct{}{}
	r.Students["A"] = "S"
	r.Students["B"] = "S"
	r.Days = []*models.Day{{
		ID:   0,
		Name: "Monday",
		Pairings: []models.Pairing{
			models.Pair{Section: "S", Team: "T1", Primary: "A", Secondary: "B"},
		},
	}}
	r.Revision = "rev-1"
	r.UpdatedAt = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return r
}

func assertSameRoster(t *testing.T, want, got *models.Roster) {
	t.Helper()
	assert.Equal(t, want.Students, got.Students)
	assert.Equal(t, want.Sections, got.Sections)
	assert.Equal(t, want.Teams, got.Teams)
	assert.Equal(t, want.Revision, got.Revision)
	require.Len(t, got.Days, len(want.Days))
	for i := range want.Days {
		assert.Equal(t, want.Days[i].Name, got.Days[i].Name)
		assert.ElementsMatch(t, want.Days[i].Pairings, got.Days[i].Pairings)
	}
}

func TestFileRosterRepositoryMissingFileIsEmpty(t *testing.T) {
	repo := NewFileRosterRepository(filepath.Join(t.TempDir(), "pairs.yaml"), nil)

	roster, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, roster.Students)
	assert.Empty(t, roster.Days)
}

func TestFileRosterRepositoryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileRosterRepository(filepath.Join(dir, "nested", "pairs.yaml"), nil)
	want := sampleRoster()

	require.NoError(t, repo.Save(context.Background(), want))
	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assertSameRoster(t, want, got)

	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, "pairs.yaml", entries[0].Name())
}

func TestFileRosterRepositoryRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("days: [unterminated"), 0o644))

	_, err := NewFileRosterRepository(path, nil).Load(context.Background())
	assert.Error(t, err)
}

func newRosterMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSQLRosterRepositoryLoad(t *testing.T) {
	db, mock, cleanup := newRosterMock(t)
	defer cleanup()
	repo := NewSQLRosterRepository(db, "")

	payload, err := json.Marshal(sampleRoster().Snapshot())
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, revision, payload FROM roster_snapshots WHERE id = $1")).
		WithArgs("default").
		WillReturnRows(sqlmock.NewRows([]string{"id", "revision", "payload"}).AddRow("default", "rev-1", string(payload)))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assertSameRoster(t, sampleRoster(), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRosterRepositoryLoadMissingRow(t *testing.T) {
	db, mock, cleanup := newRosterMock(t)
	defer cleanup()
	repo := NewSQLRosterRepository(db, "class-a")

	mock.ExpectQuery("SELECT id, revision, payload FROM roster_snapshots").
		WithArgs("class-a").
		WillReturnError(sql.ErrNoRows)

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Days)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRosterRepositorySave(t *testing.T) {
	db, mock, cleanup := newRosterMock(t)
	defer cleanup()
	repo := NewSQLRosterRepository(db, "default")
	roster := sampleRoster()

	mock.ExpectExec("INSERT INTO roster_snapshots .* ON CONFLICT \\(id\\) DO UPDATE").
		WithArgs("default", "rev-1", sqlmock.AnyArg(), roster.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Save(context.Background(), roster))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRosterRepositoryOnSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewSQLite(ctx, config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "pairs.db")})
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLRosterRepository(db, "default")
	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.EnsureSchema(ctx))

	first := sampleRoster()
	require.NoError(t, repo.Save(ctx, first))

	second := sampleRoster()
	second.Revision = "rev-2"
	second.Students["C"] = "S"
	require.NoError(t, repo.Save(ctx, second))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assertSameRoster(t, second, got)
}

func TestOpenRosterStore(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := &config.Config{Roster: config.RosterConfig{StorageDriver: config.StorageFile, File: filepath.Join(dir, "pairs.yaml")}}
	store, closeStore, err := OpenRosterStore(ctx, cfg, nil)
	require.NoError(t, err)
	closeStore()
	assert.IsType(t, &FileRosterRepository{}, store)

	cfg = &config.Config{
		Roster: config.RosterConfig{StorageDriver: config.StorageSQLite, ID: "ops"},
		SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "pairs.db")},
	}
	store, closeStore, err = OpenRosterStore(ctx, cfg, nil)
	require.NoError(t, err)
	defer closeStore()
	roster, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, roster.Days)

	_, _, err = OpenRosterStore(ctx, &config.Config{Roster: config.RosterConfig{StorageDriver: "mongo"}}, nil)
	assert.Error(t, err)
}
