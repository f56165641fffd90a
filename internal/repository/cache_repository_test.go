package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/fitness-score-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "fitness", nil)
	ctx := context.Background()

	var dest map[string]int
	assert.ErrorIs(t, repo.Get(ctx, "stats:f1", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "stats:f1", map[string]int{"a": 1}, time.Minute))
	assert.NoError(t, repo.DeleteByPrefix(ctx, "stats:f1"))
}

func TestCacheRepositoryKeyNamespace(t *testing.T) {
	assert.Equal(t, "fitness:stats:f1", NewCacheRepository(nil, "fitness", nil).key("stats:f1"))
	assert.Equal(t, "stats:f1", NewCacheRepository(nil, "", nil).key("stats:f1"))
}
