package discovery

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jrogbaaa/Project-X-sub001/internal/clients/provider"
	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/ctxutil"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/httpx"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/candidatecache"
	"github.com/Jrogbaaa/Project-X-sub001/internal/search/searcherr"
)

type fakeProvider struct {
	mu           sync.Mutex
	searches     []provider.SearchParams
	searchResult func(call int, p provider.SearchParams) ([]string, error)
	// detailErrs holds the errors returned for successive attempts per username.
	detailErrs  map[string][]error
	detailCalls map[string]int
	inflight    atomic.Int64
	maxInflight atomic.Int64
	// ignoreLimit returns every search result regardless of SearchParams.Limit.
	ignoreLimit bool
}

func newFakeProvider(usernames ...string) *fakeProvider {
	return &fakeProvider{
		searchResult: func(int, provider.SearchParams) ([]string, error) { return usernames, nil },
		detailErrs:   map[string][]error{},
		detailCalls:  map[string]int{},
	}
}

func (f *fakeProvider) Search(ctx context.Context, p provider.SearchParams) (*provider.SearchResult, error) {
	f.mu.Lock()
	f.searches = append(f.searches, p)
	call := len(f.searches)
	f.mu.Unlock()
	names, err := f.searchResult(call, p)
	if err != nil {
		return nil, err
	}
	if !f.ignoreLimit && len(names) > p.Limit {
		names = names[:p.Limit]
	}
	return &provider.SearchResult{Usernames: names, Bytes: 10 * len(names)}, nil
}

func (f *fakeProvider) Detail(ctx context.Context, platform, username string) (*provider.DetailResult, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		m := f.maxInflight.Load()
		if n <= m || f.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)

	f.mu.Lock()
	attempt := f.detailCalls[username]
	f.detailCalls[username] = attempt + 1
	var err error
	if errs := f.detailErrs[username]; attempt < len(errs) {
		err = errs[attempt]
	}
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &provider.DetailResult{
		Profile: &types.CandidateProfile{Platform: platform, Username: username, FollowerCount: 1000, ProfileActive: true},
		Bytes:   100,
	}, nil
}

func (f *fakeProvider) calls(username string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detailCalls[username]
}

func statusErr(code int) error {
	return &provider.CallError{Err: &httpx.StatusError{Service: provider.Name, StatusCode: code}, Bytes: 3}
}

type memStore struct {
	mu   sync.Mutex
	rows map[string]types.CandidateProfile
}

func (m *memStore) GetByKey(ctx context.Context, platform, username string) (*types.CandidateProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[types.ProfileKey(platform, username)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memStore) Upsert(ctx context.Context, p *types.CandidateProfile) (*types.CandidateProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.rows[p.Key()] = *p
	cp := *p
	return &cp, nil
}

func (m *memStore) MarkInactive(ctx context.Context, platform, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := types.ProfileKey(platform, username)
	if p, ok := m.rows[k]; ok {
		p.ProfileActive = false
		m.rows[k] = p
	}
	return nil
}

type memAudit struct {
	mu   sync.Mutex
	recs []types.AuditRecord
}

func (a *memAudit) Record(ctx context.Context, rec *types.AuditRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recs = append(a.recs, *rec)
	return nil
}

func (a *memAudit) byEndpoint(endpoint string) []types.AuditRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []types.AuditRecord
	for _, r := range a.recs {
		if r.Endpoint == endpoint {
			out = append(out, r)
		}
	}
	return out
}

type harness struct {
	prov  *fakeProvider
	store *memStore
	audit *memAudit
	d     *Discoverer
}

func newHarness(p *fakeProvider, cfg Config) *harness {
	store := &memStore{rows: map[string]types.CandidateProfile{}}
	audit := &memAudit{}
	cache := candidatecache.New(logger.Nop(), nil, store, candidatecache.Config{})
	if cfg.BaseBackoff == 0 {
		cfg.BaseBackoff = time.Millisecond
	}
	if cfg.RatePerSec == 0 {
		cfg.RatePerSec = 10000
		cfg.Burst = 100
	}
	return &harness{prov: p, store: store, audit: audit, d: New(logger.Nop(), nil, p, cache, audit, cfg)}
}

func query(count int) *types.StructuredQuery {
	return &types.StructuredQuery{Niche: "padel", Platform: "instagram", TargetCountry: "ES", TargetCount: count, MinAudiencePct: 60, MinCredibility: 70}
}

func names(n int, prefix string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%02d", prefix, i)
	}
	return out
}

func TestDiscoverOversamplesAndAuditsEveryCall(t *testing.T) {
	h := newHarness(newFakeProvider(names(20, "u")...), Config{Oversample: 3})
	runID := uuid.New()
	ctx := ctxutil.WithSearchRunID(context.Background(), runID)

	batch, err := h.d.Discover(ctx, query(2), 2)
	require.NoError(t, err)
	require.Len(t, h.prov.searches, 1)
	assert.Equal(t, 6, h.prov.searches[0].Limit)
	assert.Equal(t, "padel", h.prov.searches[0].Keyword)
	assert.Equal(t, "ES", h.prov.searches[0].Country)
	assert.Len(t, batch.Profiles, 6)
	assert.False(t, batch.Partial)

	assert.Len(t, h.audit.byEndpoint(provider.EndpointSearch), 1)
	details := h.audit.byEndpoint(provider.EndpointDetail)
	assert.Len(t, details, 6)
	for _, r := range details {
		assert.Equal(t, types.AuditStatusOK, r.Status)
		require.NotNil(t, r.SearchRunID)
		assert.Equal(t, runID, *r.SearchRunID)
		assert.Equal(t, 100, r.PayloadBytes)
	}
}

func TestDiscoverPreservesSearchOrder(t *testing.T) {
	h := newHarness(newFakeProvider("c", "a", "b"), Config{Oversample: 1, Workers: 3})
	batch, err := h.d.Discover(context.Background(), query(3), 3)
	require.NoError(t, err)
	require.Len(t, batch.Profiles, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{batch.Profiles[0].Username, batch.Profiles[1].Username, batch.Profiles[2].Username})
}

func TestDiscoverRetriesTransientDetailFailures(t *testing.T) {
	p := newFakeProvider("flaky", "ok")
	p.detailErrs["flaky"] = []error{statusErr(http.StatusServiceUnavailable), statusErr(http.StatusTooManyRequests)}
	h := newHarness(p, Config{Oversample: 1})

	batch, err := h.d.Discover(context.Background(), query(2), 2)
	require.NoError(t, err)
	assert.Len(t, batch.Profiles, 2)
	assert.Equal(t, 3, p.calls("flaky"))

	var statuses []string
	for _, r := range h.audit.byEndpoint(provider.EndpointDetail) {
		if string(r.Params) == `{"platform":"instagram","username":"flaky"}` {
			statuses = append(statuses, fmt.Sprintf("%d:%s", r.Attempt, r.Status))
		}
	}
	assert.ElementsMatch(t, []string{"1:transient_error", "2:rate_limited", "3:ok"}, statuses)
}

func TestDiscoverDoesNotRetryPermanentFailures(t *testing.T) {
	p := newFakeProvider("bad", "gone", "ok")
	p.detailErrs["bad"] = []error{statusErr(http.StatusBadRequest)}
	p.detailErrs["gone"] = []error{&provider.CallError{Err: provider.ErrNotFound}}
	h := newHarness(p, Config{Oversample: 1})

	batch, err := h.d.Discover(context.Background(), query(3), 3)
	require.NoError(t, err)
	assert.Len(t, batch.Profiles, 1)
	assert.Equal(t, 2, batch.Unresolved)
	assert.True(t, batch.Partial)
	assert.Equal(t, 1, p.calls("bad"))
	assert.Equal(t, 1, p.calls("gone"))
}

func TestDiscoverSearchFailureIsProviderError(t *testing.T) {
	p := newFakeProvider()
	p.searchResult = func(int, provider.SearchParams) ([]string, error) { return nil, statusErr(http.StatusBadGateway) }
	h := newHarness(p, Config{MaxAttempts: 3})

	_, err := h.d.Discover(context.Background(), query(5), 5)
	require.Error(t, err)
	assert.True(t, searcherr.Is(err, searcherr.KindProvider))
	assert.Len(t, h.audit.byEndpoint(provider.EndpointSearch), 3)
}

func TestDiscoverEmptySearchIsNotAnError(t *testing.T) {
	h := newHarness(newFakeProvider(), Config{})
	batch, err := h.d.Discover(context.Background(), query(5), 5)
	require.NoError(t, err)
	assert.Empty(t, batch.Profiles)
	assert.False(t, batch.Partial)
}

func TestDiscoverAllDetailsFailingReturnsEmptyPartial(t *testing.T) {
	p := newFakeProvider("a", "b")
	p.detailErrs["a"] = []error{statusErr(500), statusErr(500), statusErr(500)}
	p.detailErrs["b"] = []error{statusErr(403)}
	h := newHarness(p, Config{Oversample: 1, MaxAttempts: 3})

	batch, err := h.d.Discover(context.Background(), query(2), 2)
	require.NoError(t, err)
	assert.Empty(t, batch.Profiles)
	assert.True(t, batch.Partial)
	assert.Equal(t, 3, p.calls("a"))
}

func TestDiscoverSkipsKnownInactiveProfiles(t *testing.T) {
	p := newFakeProvider("dead", "alive")
	h := newHarness(p, Config{Oversample: 1})
	h.store.rows["instagram:dead"] = types.CandidateProfile{Platform: "instagram", Username: "dead", ProfileActive: false}

	batch, err := h.d.Discover(context.Background(), query(2), 2)
	require.NoError(t, err)
	assert.Len(t, batch.Profiles, 1)
	assert.Equal(t, 1, batch.Skipped)
	assert.Zero(t, p.calls("dead"))
}

func TestDiscoverSecondRoundWhenTooFewResolve(t *testing.T) {
	p := newFakeProvider()
	p.searchResult = func(call int, params provider.SearchParams) ([]string, error) {
		return append([]string{"x1", "x2", "x3"}, names(10, "more")...), nil
	}
	p.detailErrs["x1"] = []error{statusErr(404)}
	p.detailErrs["x2"] = []error{statusErr(404)}
	h := newHarness(p, Config{Oversample: 1, SecondRound: true})

	batch, err := h.d.Discover(context.Background(), query(3), 3)
	require.NoError(t, err)
	require.Len(t, p.searches, 2)
	assert.Equal(t, 3, p.searches[0].Limit)
	assert.Equal(t, 6, p.searches[1].Limit)
	assert.Equal(t, 2, batch.Rounds)
	assert.Len(t, batch.Profiles, 4)
	assert.Equal(t, 1, p.calls("x3"), "first-round usernames are not fetched twice")
}

func TestDiscoverRespectsWorkerBound(t *testing.T) {
	p := newFakeProvider(names(30, "w")...)
	h := newHarness(p, Config{Oversample: 1, Workers: 3})

	_, err := h.d.Discover(context.Background(), query(30), 30)
	require.NoError(t, err)
	assert.LessOrEqual(t, p.maxInflight.Load(), int64(3))
}

func TestDiscoverCancelled(t *testing.T) {
	h := newHarness(newFakeProvider(names(5, "c")...), Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.d.Discover(ctx, query(5), 5)
	require.Error(t, err)
}

func TestAuditStatus(t *testing.T) {
	assert.Equal(t, types.AuditStatusOK, AuditStatus(nil))
	assert.Equal(t, types.AuditStatusNotFound, AuditStatus(&provider.CallError{Err: provider.ErrNotFound}))
	assert.Equal(t, types.AuditStatusRateLimited, AuditStatus(statusErr(429)))
	assert.Equal(t, types.AuditStatusTransient, AuditStatus(statusErr(503)))
	assert.Equal(t, types.AuditStatusTransient, AuditStatus(context.DeadlineExceeded))
	assert.Equal(t, types.AuditStatusFailed, AuditStatus(statusErr(401)))
}

func (f *fakeProvider) totalDetailCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.detailCalls {
		n += c
	}
	return n
}

func TestDiscoverBoundsFanOutWhenProviderIgnoresLimit(t *testing.T) {
	p := newFakeProvider(names(50, "u")...)
	p.ignoreLimit = true
	h := newHarness(p, Config{Oversample: 3})

	batch, err := h.d.Discover(context.Background(), query(2), 2)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(batch.Profiles) != 6 {
		t.Fatalf("resolved = %d, want 6", len(batch.Profiles))
	}
	if got := p.totalDetailCalls(); got != 6 {
		t.Fatalf("detail calls = %d, want 6", got)
	}
	if got := len(h.audit.byEndpoint(provider.EndpointDetail)); got != 6 {
		t.Fatalf("detail audit records = %d, want 6", got)
	}
}

func TestDiscoverSecondRoundRespectsLimit(t *testing.T) {
	p := newFakeProvider()
	p.ignoreLimit = true
	p.searchResult = func(call int, _ provider.SearchParams) ([]string, error) {
		if call == 1 {
			return names(40, "a"), nil
		}
		return names(40, "b"), nil
	}
	for _, u := range names(40, "a") {
		p.detailErrs[u] = []error{statusErr(http.StatusBadRequest)}
	}
	h := newHarness(p, Config{Oversample: 2, SecondRound: true, MaxCandidates: 100})

	batch, err := h.d.Discover(context.Background(), query(2), 2)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if batch.Rounds != 2 {
		t.Fatalf("rounds = %d, want 2", batch.Rounds)
	}
	if len(h.prov.searches) != 2 || h.prov.searches[1].Limit != 8 {
		t.Fatalf("searches = %+v, want second round limit 8", h.prov.searches)
	}
	if got := p.totalDetailCalls(); got != 4+8 {
		t.Fatalf("detail calls = %d, want 12", got)
	}
}
