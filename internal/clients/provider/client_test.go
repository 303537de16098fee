package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/httpx"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(logger.Nop(), nil, Config{BaseURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)
	return c
}

func TestSearchDedupesAndNormalizes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search", r.URL.Path)
		assert.Equal(t, "padel", r.URL.Query().Get("keyword"))
		assert.Equal(t, "ES", r.URL.Query().Get("country"))
		assert.Equal(t, "15", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"results":[{"username":"@Ana"},{"username":"ana"},{"username":""},{"username":"luis"}]}`))
	})

	res, err := c.Search(context.Background(), SearchParams{Keyword: "padel", Country: "ES", Limit: 15})
	require.NoError(t, err)
	assert.Equal(t, []string{"ana", "luis"}, res.Usernames)
	assert.Positive(t, res.Bytes)
}

func TestSearchCapsResultsAtLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"username":"a"},{"username":"a"},{"username":"b"},{"username":"c"},{"username":"d"}]}`))
	})

	res, err := c.Search(context.Background(), SearchParams{Keyword: "padel", Limit: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Usernames) != 2 || res.Usernames[0] != "a" || res.Usernames[1] != "b" {
		t.Fatalf("usernames = %v, want [a b]", res.Usernames)
	}
}

func TestDetailMapsPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/profiles/instagram/ana", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"username":"ana","display_name":" Ana ","country":"es","followers":64000,
			"credibility":81.5,"engagement_rate":3.2,"growth_6m":12,
			"audience":{"geo":{"es":64,"fr":10},"gender":{"Female":72,"male":28},"age":{"18-24":40}},
			"niche":"Padel","niche_confidence":0.9,
			"brand_mentions":["Head","HEAD","Bullpadel"],
			"themes":["Padel","Training"],
			"sponsored_ratio":0.2,
			"extra":{"verified":true,"rank":3,"note":"x","nested":{"a":1}}
		}`))
	})

	res, err := c.Detail(context.Background(), "Instagram", "@Ana")
	require.NoError(t, err)
	p := res.Profile
	assert.Equal(t, "instagram", p.Platform)
	assert.Equal(t, "ana", p.Username)
	assert.Equal(t, "Ana", p.DisplayName)
	assert.Equal(t, types.TierMid, p.Tier)
	assert.True(t, p.ProfileActive)
	require.NotNil(t, p.CredibilityScore)
	assert.Equal(t, 81.5, *p.CredibilityScore)
	share, ok := p.Geo().Share("ES")
	assert.True(t, ok)
	assert.Equal(t, 64.0, share)
	share, ok = p.Genders().Share("female")
	assert.True(t, ok)
	assert.Equal(t, 72.0, share)
	assert.Equal(t, "padel", p.DetectedNiche)
	assert.Equal(t, []string{"head", "bullpadel"}, p.Brands())
	assert.Equal(t, types.BoolValue(true), p.Extra.Data()["verified"])
	assert.Equal(t, types.IntValue(3), p.Extra.Data()["rank"])
	_, nested := p.Extra.Data()["nested"]
	assert.False(t, nested)
}

func TestDetailNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"no such user"}`, http.StatusNotFound)
	})
	_, err := c.Detail(context.Background(), "instagram", "ghost")
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, httpx.IsRetryableError(err))
	assert.Positive(t, PayloadBytes(err))
}

func TestStatusErrorsClassify(t *testing.T) {
	cases := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusBadRequest, false},
		{http.StatusForbidden, false},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := c.Search(context.Background(), SearchParams{Keyword: "x"})
		require.Error(t, err)
		var se *httpx.StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, tc.status, httpx.StatusCode(err))
		assert.Equal(t, tc.retryable, httpx.IsRetryableError(err), "status %d", tc.status)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(logger.Nop(), nil, Config{})
	assert.Error(t, err)
}
