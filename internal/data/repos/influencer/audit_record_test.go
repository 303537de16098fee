package influencer

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Jrogbaaa/Project-X-sub001/internal/data/repos/testutil"
	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/dbctx"
)

func TestAuditRecordRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewAuditRecordRepo(db, testutil.Logger(t))

	runID := uuid.New()
	for attempt := 1; attempt <= 2; attempt++ {
		status := types.AuditStatusTransient
		if attempt == 2 {
			status = types.AuditStatusOK
		}
		rec := &types.AuditRecord{
			SearchRunID:  &runID,
			Provider:     "audience_provider",
			Endpoint:     "search",
			Params:       datatypes.JSON(`{"keyword":"padel"}`),
			Attempt:      attempt,
			Status:       status,
			LatencyMs:    12,
			PayloadBytes: 512,
		}
		if err := repo.Create(dbc, rec); err != nil {
			t.Fatalf("Create attempt %d: %v", attempt, err)
		}
	}
	if err := repo.Create(dbc, &types.AuditRecord{Provider: "audience_provider", Endpoint: "detail", Attempt: 1, Status: types.AuditStatusOK}); err != nil {
		t.Fatalf("Create unscoped: %v", err)
	}

	rows, err := repo.ListBySearchRun(dbc, runID)
	if err != nil {
		t.Fatalf("ListBySearchRun: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d, want 2", len(rows))
	}
	if rows[0].Attempt != 1 || rows[1].Status != types.AuditStatusOK {
		t.Fatalf("rows out of order: %+v", rows)
	}

	if err := db.WithContext(ctx).Delete(rows[0]).Error; err == nil {
		t.Fatalf("audit record deleted")
	}
}
