// Package client implements the HTTP client of the article service
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/umputun/readrec/pkg/domain"
)

// Client talks JSON to the article service. It never retries, failures are
// returned to the caller which decides on a fallback.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]domain.Article]
}

// Config holds client configuration
type Config struct {
	BaseURL         string        // service root, e.g. http://localhost:8080
	Timeout         time.Duration // per-request timeout, 10s by default
	BreakerFailures uint32        // consecutive recommendation failures opening the breaker, 5 by default
	BreakerTimeout  time.Duration // time the breaker stays open, 30s by default
	HTTPClient      *http.Client  // optional, overrides Timeout
}

// New makes a client for the service at cfg.BaseURL
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[[]domain.Article](gobreaker.Settings{
		Name:    "recommendations",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			lgr.Printf("[INFO] circuit breaker %s: %s -> %s", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			// client side errors don't mean the service is down
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		breaker: breaker,
	}
}

// Articles returns articles of the given category, all articles if category is empty
func (c *Client) Articles(ctx context.Context, category string) ([]domain.Article, error) {
	path := "/api/articles"
	if category != "" {
		path += "?" + url.Values{"category": {category}}.Encode()
	}
	articles := []domain.Article{}
	if err := c.do(ctx, "get articles", http.MethodGet, path, nil, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// Recommend asks the service for personalized recommendations. Failures, including
// an open circuit breaker, are returned as domain.RecommendationError.
func (c *Client) Recommend(ctx context.Context, req domain.RecommendationRequest) ([]domain.Article, error) {
	recs, err := c.breaker.Execute(func() ([]domain.Article, error) {
		var resp domain.RecommendationResponse
		if err := c.do(ctx, "get recommendations", http.MethodPost, "/api/recommendations", req, &resp); err != nil {
			return nil, err
		}
		if resp.Recommendations == nil {
			return []domain.Article{}, nil
		}
		return resp.Recommendations, nil
	})
	if err != nil {
		return nil, &domain.RecommendationError{Err: err}
	}
	return recs, nil
}

// Rate submits an article rating
func (c *Client) Rate(ctx context.Context, rating domain.Rating) error {
	return c.do(ctx, "rate article", http.MethodPost, "/api/ratings", rating, nil)
}

// preferencesJSON is the wire form of preferences, every field has to be present
type preferencesJSON struct {
	PreferredCategory string `json:"preferred_category" validate:"required"`
	PreferredTone     string `json:"preferred_tone" validate:"required"`
	PreferredLength   string `json:"preferred_length" validate:"required"`
	WantsTrending     *bool  `json:"wants_trending" validate:"required"`
}

type userJSON struct {
	ID          string           `json:"userId"`
	Email       string           `json:"email"`
	Username    string           `json:"username"`
	UserType    string           `json:"userType"`
	Preferences *preferencesJSON `json:"preferences"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// GetUser loads the user record, domain.ErrNotFound for unknown users.
// Preferences missing any field are dropped.
func (c *Client) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var rec userJSON
	if err := c.do(ctx, "get user", http.MethodGet, "/api/users/"+url.PathEscape(id), nil, &rec); err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:        rec.ID,
		Email:     rec.Email,
		Username:  rec.Username,
		UserType:  rec.UserType,
		UpdatedAt: rec.UpdatedAt,
	}
	if user.ID == "" {
		user.ID = id
	}
	if rec.Preferences != nil {
		if err := domain.Validate(rec.Preferences); err != nil {
			lgr.Printf("[DEBUG] ignoring incomplete preferences of %s: %v", id, err)
			return user, nil
		}
		user.Preferences = &domain.Preferences{
			PreferredCategory: rec.Preferences.PreferredCategory,
			PreferredTone:     rec.Preferences.PreferredTone,
			PreferredLength:   rec.Preferences.PreferredLength,
			WantsTrending:     *rec.Preferences.WantsTrending,
		}
	}
	return user, nil
}

// UpsertUser creates or updates the user record
func (c *Client) UpsertUser(ctx context.Context, user domain.User) error {
	return c.do(ctx, "upsert user", http.MethodPost, "/api/users", user, nil)
}

// do sends a JSON request and decodes the JSON response into out, if set.
// Non-2xx responses become domain.NetworkError with the server message, 404
// additionally matches domain.ErrNotFound.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&errResp)
		nerr := &domain.NetworkError{Op: op, Status: resp.StatusCode, Message: errResp.Error}
		if resp.StatusCode == http.StatusNotFound {
			nerr.Err = domain.ErrNotFound
		}
		return nerr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.NetworkError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
