package influencer

import (
	"context"
	"errors"
	"testing"

	"github.com/Jrogbaaa/Project-X-sub001/internal/data/repos/testutil"
	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/dbctx"
)

func TestWeightPresetRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewWeightPresetRepo(db, testutil.Logger(t))

	sys := testutil.UniqueName("system")
	if _, err := repo.Save(dbc, &types.WeightPreset{Name: sys, Weights: types.DefaultWeights(), IsSystem: true, IsDefault: true}); err != nil {
		t.Fatalf("Save system: %v", err)
	}

	custom := testutil.UniqueName("reach")
	w := types.RankingWeights{
		Credibility:   0.10,
		Engagement:    0.30,
		AudienceMatch: 0.10,
		Growth:        0.20,
		Geography:     0.10,
		BrandAffinity: 0.10,
		CreativeFit:   0.05,
		NicheMatch:    0.05,
	}
	saved, err := repo.Save(dbc, &types.WeightPreset{Name: "  " + custom + " ", Weights: w, IsDefault: true})
	if err != nil {
		t.Fatalf("Save custom: %v", err)
	}
	if saved.Name != custom || saved.Weights.Engagement != 0.30 {
		t.Fatalf("saved = %+v", saved)
	}

	def, err := repo.GetDefault(dbc)
	if err != nil || def == nil {
		t.Fatalf("GetDefault: got=%v err=%v", def, err)
	}
	if def.Name != custom {
		t.Fatalf("default = %q, want %q", def.Name, custom)
	}
	old, err := repo.GetByName(dbc, sys)
	if err != nil || old == nil || old.IsDefault {
		t.Fatalf("previous default not cleared: got=%+v err=%v", old, err)
	}

	w.Engagement, w.Growth = 0.25, 0.25
	if _, err := repo.Save(dbc, &types.WeightPreset{Name: custom, Weights: w}); err != nil {
		t.Fatalf("Save update: %v", err)
	}
	got, err := repo.GetByName(dbc, custom)
	if err != nil || got == nil {
		t.Fatalf("GetByName: got=%v err=%v", got, err)
	}
	if got.Weights.Growth != 0.25 || got.ID != saved.ID {
		t.Fatalf("update not applied in place: %+v", got)
	}

	bad := w
	bad.Credibility = 0.9
	if _, err := repo.Save(dbc, &types.WeightPreset{Name: custom, Weights: bad}); !errors.Is(err, types.ErrInvalidWeights) {
		t.Fatalf("Save invalid weights err = %v", err)
	}

	if _, err := repo.Delete(dbc, sys); !errors.Is(err, types.ErrProtectedPreset) {
		t.Fatalf("Delete system err = %v", err)
	}
	removed, err := repo.Delete(dbc, custom)
	if err != nil || !removed {
		t.Fatalf("Delete custom: removed=%v err=%v", removed, err)
	}
	removed, err = repo.Delete(dbc, custom)
	if err != nil || removed {
		t.Fatalf("second Delete: removed=%v err=%v", removed, err)
	}

	list, err := repo.List(dbc)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, p := range list {
		if p.Name == custom {
			t.Fatalf("deleted preset still listed")
		}
	}
}
