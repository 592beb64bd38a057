package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/pairs-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "pairs", nil)
	ctx := context.Background()

	var dest map[string]string
	err := repo.Get(ctx, "team-options:0", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Set(ctx, "team-options:0", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "*"))
	assert.NoError(t, repo.Close())
}

func TestCacheRepositoryNamespacesKeys(t *testing.T) {
	assert.Equal(t, "pairs:roster:default:rev", NewCacheRepository(nil, "pairs", nil).key("roster:default:rev"))
	assert.Equal(t, "roster:default:rev", NewCacheRepository(nil, "", nil).key("roster:default:rev"))
}
