package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/Jrogbaaa/Project-X-sub001/internal/data/repos"
	"github.com/Jrogbaaa/Project-X-sub001/internal/data/repos/testutil"
	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/http/response"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/searcherr"
	"github.com/Jrogbaaa/Project-X-sub001/internal/services"
)

type fakeSearches struct {
	runErr error
	run    *types.SearchRun
	got    services.SearchRequest
}

func (f *fakeSearches) Run(ctx context.Context, req services.SearchRequest) (*services.SearchOutcome, error) {
	f.got = req
	if f.runErr != nil {
		return nil, f.runErr
	}
	return &services.SearchOutcome{Run: f.run, Query: &types.StructuredQuery{BrandName: "Bullpadel", TargetCount: 2}, Partial: f.run.Partial}, nil
}

func (f *fakeSearches) Get(ctx context.Context, id uuid.UUID) (*types.SearchRun, error) {
	if f.run == nil || f.run.ID != id {
		return nil, services.ErrSearchNotFound
	}
	return f.run, nil
}

func (f *fakeSearches) Rejections(ctx context.Context, id uuid.UUID) ([]types.Rejection, error) {
	run, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return run.Rejections.Data(), nil
}

func (f *fakeSearches) Audit(ctx context.Context, id uuid.UUID) ([]*types.AuditRecord, error) {
	if _, err := f.Get(ctx, id); err != nil {
		return nil, err
	}
	return []*types.AuditRecord{}, nil
}

func (f *fakeSearches) Recent(ctx context.Context, limit int) ([]*types.SearchRun, error) {
	if f.run == nil {
		return nil, nil
	}
	return []*types.SearchRun{f.run}, nil
}

func storedRun() *types.SearchRun {
	id := uuid.New()
	return &types.SearchRun{
		ID:             id,
		PresetName:     types.SystemPresetName,
		CandidateCount: 3,
		RejectedCount:  1,
		ResultCount:    2,
		Partial:        true,
		Rejections: datatypes.NewJSONType([]types.Rejection{
			{Platform: "instagram", Username: "lowgeo", Rule: types.RuleAudienceGeography, Detail: "ES 40.0% < 60.0%"},
		}),
		Results: []types.SearchResult{
			{SearchRunID: id, Position: 1, Platform: "instagram", Username: "ana", RelevanceScore: 0.81},
			{SearchRunID: id, Position: 2, Platform: "instagram", Username: "bea", RelevanceScore: 0.74},
		},
	}
}

func newTestRouter(t *testing.T, searches services.SearchService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	weights := services.NewWeightService(log, repos.NewWeightPresetRepo(db, log))
	require.NoError(t, weights.EnsureSystem(context.Background()))
	brands := services.NewBrandService(log, repos.NewBrandEntryRepo(db, log))

	sh := NewSearchHandler(searches)
	wh := NewWeightHandler(weights)
	bh := NewBrandHandler(brands)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/searches", sh.Create)
	api.GET("/searches", sh.ListRecent)
	api.GET("/searches/:id", sh.Get)
	api.GET("/searches/:id/rejections", sh.Rejections)
	api.GET("/searches/:id/audit", sh.Audit)
	api.GET("/weights", wh.List)
	api.POST("/weights", wh.Save)
	api.DELETE("/weights/:name", wh.Delete)
	api.GET("/brands", bh.List)
	api.POST("/brands/import", bh.Import)
	r.GET("/healthcheck", NewHealthHandler(nil).HealthCheck)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env response.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error.Code
}

func TestCreateSearchReturnsStoredRun(t *testing.T) {
	fake := &fakeSearches{run: storedRun()}
	r := newTestRouter(t, fake)

	rec := do(r, http.MethodPost, "/api/searches", `{"brief":"10 padel creators in Spain for Bullpadel","preset":"balanced"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "balanced", fake.got.Preset)

	var body struct {
		SearchRunID   uuid.UUID            `json:"search_run_id"`
		Results       []types.SearchResult `json:"results"`
		RejectedCount int                  `json:"rejected_count"`
		Partial       bool                 `json:"partial"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, fake.run.ID, body.SearchRunID)
	require.Len(t, body.Results, 2)
	assert.Equal(t, "ana", body.Results[0].Username)
	assert.Equal(t, 1, body.RejectedCount)
	assert.True(t, body.Partial)
}

func TestCreateSearchErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", searcherr.Validation("search.Run", errors.New("brief is required")), http.StatusBadRequest, "invalid_request"},
		{"unknown preset", searcherr.Validation("weights.Resolve", services.ErrPresetNotFound), http.StatusBadRequest, "invalid_request"},
		{"parse", searcherr.Parse("queryparse.Parse", errors.New("no target country")), http.StatusUnprocessableEntity, "brief_unparseable"},
		{"provider", searcherr.Provider("discovery.search", errors.New("503")), http.StatusBadGateway, "provider_unavailable"},
		{"persistence", searcherr.Persistence("search.Run", errors.New("db down")), http.StatusServiceUnavailable, "store_unavailable"},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "search_timeout"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "search_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(t, &fakeSearches{runErr: tc.err})
			rec := do(r, http.MethodPost, "/api/searches", `{"brief":"x"}`)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, errorCode(t, rec))
		})
	}
}

func TestGetSearchAndRejections(t *testing.T) {
	fake := &fakeSearches{run: storedRun()}
	r := newTestRouter(t, fake)
	id := fake.run.ID.String()

	rec := do(r, http.MethodGet, "/api/searches/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"bea"`)

	rec = do(r, http.MethodGet, "/api/searches/"+id+"/rejections", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rej struct {
		Rejections []types.Rejection `json:"rejections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rej))
	require.Len(t, rej.Rejections, 1)
	assert.Equal(t, types.RuleAudienceGeography, rej.Rejections[0].Rule)

	rec = do(r, http.MethodGet, "/api/searches/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "search_not_found", errorCode(t, rec))

	rec = do(r, http.MethodGet, "/api/searches/not-a-uuid/audit", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodGet, "/api/searches?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(r, http.MethodGet, "/api/searches?limit=5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWeightEndpoints(t *testing.T) {
	r := newTestRouter(t, &fakeSearches{})

	rec := do(r, http.MethodPost, "/api/weights", `{"name":"reach","default":true,"weights":{"credibility":0.1,"engagement":0.4,"audience_match":0.1,"growth":0.1,"geography":0.1,"brand_affinity":0.1,"creative_fit":0.05,"niche_match":0.05}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(r, http.MethodPost, "/api/weights", `{"name":"broken","weights":{"credibility":0.9,"engagement":0.9}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodGet, "/api/weights", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Presets []types.WeightPreset `json:"presets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Presets, 2)

	rec = do(r, http.MethodDelete, "/api/weights/"+types.SystemPresetName, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "preset_protected", errorCode(t, rec))

	rec = do(r, http.MethodDelete, "/api/weights/reach", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(r, http.MethodDelete, "/api/weights/reach", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBrandImportAcceptsJSONAndYAML(t *testing.T) {
	r := newTestRouter(t, &fakeSearches{})

	rec := do(r, http.MethodPost, "/api/brands/import", `[{"name":"Bullpadel","category":"sport","related":["Adidas Padel"]},{"name":"BULLPADEL"}]`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Import services.ImportResult `json:"import"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Import.Received)
	assert.Equal(t, 1, res.Import.Duplicates)

	req := httptest.NewRequest(http.MethodPost, "/api/brands/import", strings.NewReader("brands:\n  - name: Head\n    category: sport\n"))
	req.Header.Set("Content-Type", "application/x-yaml")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(r, http.MethodGet, "/api/brands", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var brands struct {
		Brands []types.BrandEntry `json:"brands"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &brands))
	assert.Len(t, brands.Brands, 2)

	rec = do(r, http.MethodPost, "/api/brands/import", "   ")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type downDB struct{}

func (downDB) Ping(ctx context.Context) error { return errors.New("connection refused") }

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(t, &fakeSearches{})
	rec := do(r, http.MethodGet, "/healthcheck", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	gin.SetMode(gin.TestMode)
	down := gin.New()
	down.GET("/healthcheck", NewHealthHandler(downDB{}).HealthCheck)
	rec = do(down, http.MethodGet, "/healthcheck", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
