package handlers

import (
	"context"
	"errors"
	"net/http"

	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/apierr"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/searcherr"
	"github.com/Jrogbaaa/Project-X-sub001/internal/services"
)

// toAPIError maps pipeline and service errors onto HTTP statuses. The
// searcherr kind wins over sentinels further down the chain, so an unknown
// preset named in a search is a 400 while deleting one is a 404.
func toAPIError(err error, fallbackCode string) *apierr.Error {
	if k, ok := searcherr.KindOf(err); ok {
		switch k {
		case searcherr.KindValidation:
			return apierr.New(http.StatusBadRequest, "invalid_request", err)
		case searcherr.KindParse:
			return apierr.New(http.StatusUnprocessableEntity, "brief_unparseable", err)
		case searcherr.KindProvider:
			return apierr.New(http.StatusBadGateway, "provider_unavailable", err)
		case searcherr.KindPersistence:
			return apierr.New(http.StatusServiceUnavailable, "store_unavailable", err)
		}
	}
	switch {
	case errors.Is(err, types.ErrProtectedPreset):
		return apierr.New(http.StatusConflict, "preset_protected", err)
	case errors.Is(err, services.ErrSearchNotFound):
		return apierr.New(http.StatusNotFound, "search_not_found", err)
	case errors.Is(err, services.ErrPresetNotFound):
		return apierr.New(http.StatusNotFound, "preset_not_found", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apierr.New(http.StatusGatewayTimeout, "search_timeout", err)
	case errors.Is(err, context.Canceled):
		return apierr.New(http.StatusRequestTimeout, "request_cancelled", err)
	}
	return apierr.New(http.StatusInternalServerError, fallbackCode, err)
}
