package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gorm.io/datatypes"

	"github.com/Jrogbaaa/Project-X-sub001/internal/clients/provider"
	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/ctxutil"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/httpx"
)

// AuditStatus classifies one attempt's outcome.
func AuditStatus(err error) string {
	switch {
	case err == nil:
		return types.AuditStatusOK
	case errors.Is(err, provider.ErrNotFound):
		return types.AuditStatusNotFound
	case httpx.StatusCode(err) == http.StatusTooManyRequests:
		return types.AuditStatusRateLimited
	case httpx.IsRetryableError(err):
		return types.AuditStatusTransient
	default:
		return types.AuditStatusFailed
	}
}

func (d *Discoverer) record(ctx context.Context, endpoint string, params any, attempt int, latency time.Duration, size int, callErr error) {
	if d.audit == nil {
		return
	}
	raw, _ := json.Marshal(params)
	rec := &types.AuditRecord{
		SearchRunID:  ctxutil.SearchRunID(ctx),
		Provider:     provider.Name,
		Endpoint:     endpoint,
		Params:       datatypes.JSON(raw),
		Attempt:      attempt,
		Status:       AuditStatus(callErr),
		HTTPStatus:   httpx.StatusCode(callErr),
		LatencyMs:    latency.Milliseconds(),
		PayloadBytes: size,
	}
	if callErr == nil {
		rec.HTTPStatus = http.StatusOK
	} else {
		rec.Error = callErr.Error()
	}
	// Audit rows are written even for attempts of a cancelled search.
	if err := d.audit.Record(context.WithoutCancel(ctx), rec); err != nil {
		d.log.Warn("Failed to write audit record", "endpoint", endpoint, "attempt", attempt, "error", err)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
