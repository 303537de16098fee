package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/http/middleware"
	"github.com/Jrogbaaa/Project-X-sub001/internal/http/response"
	"github.com/Jrogbaaa/Project-X-sub001/internal/services"
)

type SearchHandler struct {
	searches services.SearchService
}

func NewSearchHandler(searches services.SearchService) *SearchHandler {
	return &SearchHandler{searches: searches}
}

type searchResponse struct {
	SearchRunID    uuid.UUID              `json:"search_run_id"`
	Preset         string                 `json:"preset"`
	Query          *types.StructuredQuery `json:"query"`
	Results        []types.SearchResult   `json:"results"`
	CandidateCount int                    `json:"candidate_count"`
	RejectedCount  int                    `json:"rejected_count"`
	Partial        bool                   `json:"partial"`
	DurationMs     int64                  `json:"duration_ms"`
}

// POST /api/searches
func (h *SearchHandler) Create(c *gin.Context) {
	var req services.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	out, err := h.searches.Run(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, toAPIError(err, "search_failed"), "search_failed")
		return
	}
	run := out.Run
	c.Set(middleware.SearchRunKey, run.ID.String())
	results := run.Results
	if results == nil {
		results = []types.SearchResult{}
	}
	response.RespondCreated(c, searchResponse{
		SearchRunID:    run.ID,
		Preset:         run.PresetName,
		Query:          out.Query,
		Results:        results,
		CandidateCount: run.CandidateCount,
		RejectedCount:  run.RejectedCount,
		Partial:        run.Partial,
		DurationMs:     run.DurationMs,
	})
}

// GET /api/searches
func (h *SearchHandler) ListRecent(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 200 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", errors.New("limit must be between 1 and 200"))
			return
		}
		limit = n
	}
	runs, err := h.searches.Recent(c.Request.Context(), limit)
	if err != nil {
		response.RespondAPIError(c, toAPIError(err, "list_searches_failed"), "list_searches_failed")
		return
	}
	response.RespondOK(c, gin.H{"searches": runs})
}

// GET /api/searches/:id
func (h *SearchHandler) Get(c *gin.Context) {
	id, ok := searchID(c)
	if !ok {
		return
	}
	run, err := h.searches.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, toAPIError(err, "load_search_failed"), "load_search_failed")
		return
	}
	response.RespondOK(c, gin.H{"search": run})
}

// GET /api/searches/:id/rejections
func (h *SearchHandler) Rejections(c *gin.Context) {
	id, ok := searchID(c)
	if !ok {
		return
	}
	rej, err := h.searches.Rejections(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, toAPIError(err, "load_rejections_failed"), "load_rejections_failed")
		return
	}
	response.RespondOK(c, gin.H{"search_run_id": id, "rejections": rej})
}

// GET /api/searches/:id/audit
func (h *SearchHandler) Audit(c *gin.Context) {
	id, ok := searchID(c)
	if !ok {
		return
	}
	recs, err := h.searches.Audit(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, toAPIError(err, "load_audit_failed"), "load_audit_failed")
		return
	}
	response.RespondOK(c, gin.H{"search_run_id": id, "audit": recs})
}

func searchID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_search_id", err)
		return uuid.Nil, false
	}
	c.Set(middleware.SearchRunKey, id.String())
	return id, true
}
