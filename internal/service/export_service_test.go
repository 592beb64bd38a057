package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/pairs-api/internal/dto"
	appErrors "github.com/noah-isme/pairs-api/pkg/errors"
	"github.com/noah-isme/pairs-api/pkg/export"
	"github.com/noah-isme/pairs-api/pkg/storage"
)

func newExportServiceForTest(t *testing.T, ttl time.Duration) (*ExportService, *RosterService) {
	t.Helper()
	rosters, _ := newRosterServiceFixture(t)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", ttl)
	cfg := ExportConfig{APIPrefix: "/api/v1/", Retention: time.Hour}
	return NewExportService(rosters, store, signer, cfg, zap.NewNop(), export.NewCSVExporter()), rosters
}

func TestExportServiceExportDay(t *testing.T) {
	svc, rosters := newExportServiceForTest(t, time.Hour)
	ctx := context.Background()
	_, err := rosters.Shuffle(ctx, 0, dto.ShuffleRequest{Mode: dto.ShuffleModeShuffle, Section: "S1"})
	require.NoError(t, err)

	result, err := svc.ExportDay(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/exports/"+result.Token, result.URL)
	assert.True(t, strings.HasPrefix(result.Filename, "pairings_day-0_"))

	file, grant, err := svc.OpenToken(result.Token)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck
	assert.Equal(t, result.ID, grant.ExportID)

	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"Day,Section,Zoom,Team,Kind,Primary,Secondary",
		"0,S1,zoom-1,T1,pair,C,B",
		"0,S1,zoom-1,T2,pair,E,D",
		"0,S1,zoom-1,,unassigned,A,",
		"",
	}, "\n"), string(body))
}

func TestExportServiceUnknownDay(t *testing.T) {
	svc, _ := newExportServiceForTest(t, time.Hour)
	_, err := svc.ExportDay(context.Background(), 9)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnknownEntity))
}

func TestExportServiceOpenTokenErrors(t *testing.T) {
	svc, _ := newExportServiceForTest(t, time.Hour)

	_, _, err := svc.OpenToken("not-a-token")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	signer := storage.NewSignedURLSigner("secret", time.Nanosecond)
	token, _, err := signer.Generate("exp-1", "missing.csv")
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	_, _, err = svc.OpenToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrExportExpired))
}

func TestExportServiceCleanup(t *testing.T) {
	svc, _ := newExportServiceForTest(t, time.Hour)
	_, err := svc.ExportDay(context.Background(), 0)
	require.NoError(t, err)

	deleted, err := svc.Cleanup(0)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}
