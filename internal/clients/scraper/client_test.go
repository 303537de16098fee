package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/httpx"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
)

func TestFetchPostsMapsAndBounds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/posts/instagram/ana", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"posts":[
			{"id":"p1","caption":"Match day","hashtags":["#Padel","padel","#HeadPadel"],"mentions":["@bullpadel"],"sponsored":true,"likes":10},
			{"id":"","caption":"skipped"},
			{"id":"p2","caption":"Rest","hashtags":[]},
			{"id":"p3","caption":"over the limit"}
		]}`))
	}))
	defer srv.Close()

	c, err := NewClient(logger.Nop(), Config{BaseURL: srv.URL})
	require.NoError(t, err)
	posts, err := c.FetchPosts(context.Background(), "instagram", "@ana", 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "p1", posts[0].ExternalID)
	assert.Equal(t, []string{"padel", "headpadel"}, posts[0].Hashtags.Data())
	assert.Equal(t, []string{"bullpadel"}, posts[0].Mentions.Data())
	assert.True(t, posts[0].IsSponsored)
	assert.Equal(t, "p2", posts[1].ExternalID)
}

func TestFetchPostsDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := NewClient(logger.Nop(), Config{BaseURL: srv.URL, MaxRetries: 3})
	require.NoError(t, err)
	_, err = c.FetchPosts(context.Background(), "instagram", "ana", 5)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, httpx.StatusCode(err))
	assert.EqualValues(t, 1, hits.Load())
}
