package influencer

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	"github.com/Jrogbaaa/Project-X-sub001/internal/data/repos/testutil"
	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/dbctx"
)

func TestBrandEntryRepo_Upsert(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewBrandEntryRepo(db, testutil.Logger(t))

	key := testutil.UniqueName("bullpadel")
	n, err := repo.Upsert(dbc, []*types.BrandEntry{{
		Name:          "Bullpadel",
		NormalizedKey: key,
		Category:      "sports",
		Related:       datatypes.NewJSONType([]string{"adidas padel"}),
		Aliases:       datatypes.NewJSONType([]string{}),
	}})
	if err != nil || n != 1 {
		t.Fatalf("Upsert: n=%d err=%v", n, err)
	}

	n, err = repo.Upsert(dbc, []*types.BrandEntry{{
		Name:          "Bullpadel S.L.",
		NormalizedKey: key,
		Category:      "padel",
		Related:       datatypes.NewJSONType([]string{"adidas padel", "head"}),
		Aliases:       datatypes.NewJSONType([]string{"bull padel"}),
	}})
	if err != nil || n != 1 {
		t.Fatalf("second Upsert: n=%d err=%v", n, err)
	}

	got, err := repo.GetByKey(dbc, key)
	if err != nil || got == nil {
		t.Fatalf("GetByKey: got=%v err=%v", got, err)
	}
	if got.Name != "Bullpadel S.L." || got.Category != "padel" || len(got.Related.Data()) != 2 {
		t.Fatalf("entry not refreshed: %+v", got)
	}

	all, err := repo.List(dbc)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	count := 0
	for _, b := range all {
		if b.NormalizedKey == key {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("key stored %d times, want 1", count)
	}

	if miss, err := repo.GetByKey(dbc, testutil.UniqueName("nobrand")); err != nil || miss != nil {
		t.Fatalf("GetByKey miss: got=%v err=%v", miss, err)
	}
	if n, err := repo.Upsert(dbc, nil); err != nil || n != 0 {
		t.Fatalf("empty Upsert: n=%d err=%v", n, err)
	}
}
