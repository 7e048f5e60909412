package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/readrec/pkg/domain"
)

func TestClient_Articles(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/articles", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"id":"a1","title":"First","category":"science"},{"id":"a2","title":"Second","category":"art"}]`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL + "/"})

	articles, err := c.Articles(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, gotQuery)
	require.Len(t, articles, 2)
	assert.Equal(t, "a1", articles[0].ID)
	assert.Equal(t, "science", articles[0].Category)

	_, err = c.Articles(context.Background(), "science & tech")
	require.NoError(t, err)
	assert.Equal(t, "category=science+%26+tech", gotQuery)
}

func TestClient_ArticlesErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("category") {
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"Failed to fetch articles"}`))
		case "garbage":
			_, _ = w.Write([]byte(`not json`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer ts.Close()
	c := New(Config{BaseURL: ts.URL})

	_, err := c.Articles(context.Background(), "broken")
	var nerr *domain.NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, http.StatusInternalServerError, nerr.Status)
	assert.Equal(t, "Failed to fetch articles", nerr.Message)
	assert.Equal(t, "get articles: status 500: Failed to fetch articles", err.Error())

	_, err = c.Articles(context.Background(), "other")
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, http.StatusBadGateway, nerr.Status)
	assert.Empty(t, nerr.Message)

	_, err = c.Articles(context.Background(), "garbage")
	require.ErrorAs(t, err, &nerr)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_NetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := New(Config{BaseURL: url, Timeout: time.Second})
	_, err := c.Articles(context.Background(), "")
	var nerr *domain.NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Zero(t, nerr.Status)
	assert.Error(t, nerr.Err)
}

func TestClient_Recommend(t *testing.T) {
	var got domain.RecommendationRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/recommendations", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"recommendations":[{"id":"a2"}]}`))
	}))
	defer ts.Close()

	prefs := domain.DefaultPreferences()
	c := New(Config{BaseURL: ts.URL})
	recs, err := c.Recommend(context.Background(), domain.RecommendationRequest{
		UserID: "u1", Preferences: &prefs, Articles: []domain.Article{{ID: "a1"}, {ID: "a2"}}, Topic: "tech",
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "a2", recs[0].ID)

	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "tech", got.Topic)
	assert.Len(t, got.Articles, 2)
	require.NotNil(t, got.Preferences)
	assert.Equal(t, prefs, *got.Preferences)
}

func TestClient_RecommendEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	recs, err := New(Config{BaseURL: ts.URL}).Recommend(context.Background(), domain.RecommendationRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestClient_RecommendBreaker(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to get recommendations"}`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, BreakerFailures: 2, BreakerTimeout: time.Minute})
	for range 2 {
		_, err := c.Recommend(context.Background(), domain.RecommendationRequest{UserID: "u1"})
		var rerr *domain.RecommendationError
		require.ErrorAs(t, err, &rerr)
		var nerr *domain.NetworkError
		require.ErrorAs(t, err, &nerr, "network error is wrapped")
	}
	assert.Equal(t, int32(2), hits.Load())

	_, err := c.Recommend(context.Background(), domain.RecommendationRequest{UserID: "u1"})
	var rerr *domain.RecommendationError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, int32(2), hits.Load(), "open breaker doesn't call the service")

	// articles are not guarded by the breaker
	_, err = c.Articles(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClient_RecommendCanceledDoesNotTrip(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"recommendations":[]}`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, BreakerFailures: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Recommend(ctx, domain.RecommendationRequest{UserID: "u1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	_, err = c.Recommend(context.Background(), domain.RecommendationRequest{UserID: "u1"})
	require.NoError(t, err, "breaker still closed")
}

func TestClient_GetUser(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/u1":
			_, _ = w.Write([]byte(`{"userId":"u1","email":"u1@example.com","username":"one","preferences":
				{"preferred_category":"Science","preferred_tone":"Fun","preferred_length":"Short","wants_trending":false}}`))
		case "/api/users/partial":
			_, _ = w.Write([]byte(`{"userId":"partial","email":"p@example.com","username":"p",
				"preferences":{"preferred_category":"Science","preferred_tone":"Fun","preferred_length":"Short"}}`))
		case "/api/users/noprefs":
			_, _ = w.Write([]byte(`{"email":"n@example.com"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"User not found"}`))
		}
	}))
	defer ts.Close()
	c := New(Config{BaseURL: ts.URL})

	t.Run("full record", func(t *testing.T) {
		user, err := c.GetUser(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, "one", user.Username)
		require.NotNil(t, user.Preferences)
		assert.Equal(t, domain.Preferences{PreferredCategory: "Science", PreferredTone: "Fun", PreferredLength: "Short"},
			*user.Preferences)
		assert.True(t, user.IsComplete())
	})

	t.Run("missing wants_trending drops preferences", func(t *testing.T) {
		user, err := c.GetUser(context.Background(), "partial")
		require.NoError(t, err)
		assert.Nil(t, user.Preferences)
		assert.Equal(t, "p", user.Username)
	})

	t.Run("id filled from request", func(t *testing.T) {
		user, err := c.GetUser(context.Background(), "noprefs")
		require.NoError(t, err)
		assert.Equal(t, "noprefs", user.ID)
		assert.Nil(t, user.Preferences)
		assert.False(t, user.IsComplete())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := c.GetUser(context.Background(), "unknown")
		require.ErrorIs(t, err, domain.ErrNotFound)
		var nerr *domain.NetworkError
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, "User not found", nerr.Message)
	})
}

func TestClient_UpsertUserAndRate(t *testing.T) {
	var user domain.User
	var rating domain.Rating
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		switch r.URL.Path {
		case "/api/users":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&user))
		case "/api/ratings":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&rating))
			if rating.ArticleID == "broken" {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"Failed to save rating"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer ts.Close()
	c := New(Config{BaseURL: ts.URL})

	prefs := domain.DefaultPreferences()
	require.NoError(t, c.UpsertUser(context.Background(), domain.User{ID: "u1", Email: "u1@example.com", Preferences: &prefs}))
	assert.Equal(t, "u1", user.ID)
	require.NotNil(t, user.Preferences)
	assert.True(t, user.Preferences.WantsTrending)

	ts1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, c.Rate(context.Background(), domain.Rating{UserID: "u1", ArticleID: "a1", Rating: 4, Timestamp: ts1}))
	assert.Equal(t, 4, rating.Rating)
	assert.True(t, ts1.Equal(rating.Timestamp))

	err := c.Rate(context.Background(), domain.Rating{UserID: "u1", ArticleID: "broken", Rating: 4})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to save rating")
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{BaseURL: "http://localhost:8080///"})
	assert.Equal(t, "http://localhost:8080", c.baseURL)
	assert.Equal(t, 10*time.Second, c.http.Timeout)

	custom := &http.Client{Timeout: time.Second}
	c = New(Config{BaseURL: "http://localhost", HTTPClient: custom})
	assert.Same(t, custom, c.http)
}
