package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jrogbaaa/Project-X-sub001/internal/data/repos"
	"github.com/Jrogbaaa/Project-X-sub001/internal/data/repos/testutil"
	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/searcherr"
)

func newWeightService(t *testing.T) WeightService {
	t.Helper()
	db := testutil.DB(t)
	return NewWeightService(testutil.Logger(t), repos.NewWeightPresetRepo(db, testutil.Logger(t)))
}

func TestWeightResolveOrder(t *testing.T) {
	ctx := context.Background()
	svc := newWeightService(t)

	name, w, err := svc.Resolve(ctx, "", nil)
	require.NoError(t, err)
	assert.Equal(t, types.SystemPresetName, name, "built-in weights without any stored preset")
	assert.Equal(t, types.DefaultWeights(), w)

	require.NoError(t, svc.EnsureSystem(ctx))
	require.NoError(t, svc.EnsureSystem(ctx), "seeding is idempotent")

	reach := types.RankingWeights{Credibility: 0.1, Engagement: 0.4, AudienceMatch: 0.1, Growth: 0.1, Geography: 0.1, BrandAffinity: 0.1, CreativeFit: 0.05, NicheMatch: 0.05}
	_, err = svc.Save(ctx, &types.WeightPreset{Name: "reach", Weights: reach})
	require.NoError(t, err)

	name, _, err = svc.Resolve(ctx, "", nil)
	require.NoError(t, err)
	assert.Equal(t, types.SystemPresetName, name, "stored default")

	name, w, err = svc.Resolve(ctx, "Reach", nil)
	require.NoError(t, err)
	assert.Equal(t, "reach", name)
	assert.Equal(t, 0.4, w.Engagement)

	_, err = svc.Save(ctx, &types.WeightPreset{Name: "reach", Weights: reach, IsDefault: true})
	require.NoError(t, err)
	name, _, err = svc.Resolve(ctx, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "reach", name)

	override := types.DefaultWeights()
	name, w, err = svc.Resolve(ctx, "reach", &override)
	require.NoError(t, err)
	assert.Equal(t, "custom", name)
	assert.Equal(t, override, w)

	_, _, err = svc.Resolve(ctx, "nope", nil)
	assert.True(t, searcherr.Is(err, searcherr.KindValidation))
	assert.ErrorIs(t, err, ErrPresetNotFound)
}

func TestWeightSaveAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newWeightService(t)
	require.NoError(t, svc.EnsureSystem(ctx))

	bad := types.DefaultWeights()
	bad.Growth = -0.1
	_, err := svc.Save(ctx, &types.WeightPreset{Name: "bad", Weights: bad})
	assert.True(t, searcherr.Is(err, searcherr.KindValidation))

	_, err = svc.Save(ctx, &types.WeightPreset{Name: types.SystemPresetName, Weights: types.DefaultWeights()})
	assert.ErrorIs(t, err, types.ErrProtectedPreset, "system presets cannot be overwritten")

	err = svc.Delete(ctx, types.SystemPresetName)
	assert.ErrorIs(t, err, types.ErrProtectedPreset)

	_, err = svc.Save(ctx, &types.WeightPreset{Name: "temp", Weights: types.DefaultWeights()})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "temp"))
	assert.ErrorIs(t, svc.Delete(ctx, "temp"), ErrPresetNotFound)
}

func TestWeightSeedFile(t *testing.T) {
	ctx := context.Background()
	svc := newWeightService(t)

	path := filepath.Join(t.TempDir(), "presets.yaml")
	body := `presets:
  - name: engagement-first
    description: Favour active audiences
    weights:
      credibility: 0.15
      engagement: 0.35
      audience_match: 0.15
      growth: 0.10
      geography: 0.10
      brand_affinity: 0.05
      creative_fit: 0.05
      niche_match: 0.05
  - name: balanced
    weights:
      credibility: 1
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	n, err := svc.SeedFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the built-in name is never overwritten from a file")

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "engagement-first", list[0].Name)
	assert.Equal(t, 0.35, list[0].Weights.Engagement)

	require.NoError(t, os.WriteFile(path, []byte("presets:\n  - name: broken\n    weights:\n      credibility: 0.5\n"), 0o600))
	_, err = svc.SeedFile(ctx, path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidWeights))
}
