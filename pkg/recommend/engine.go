// Package recommend picks articles for a user out of a candidate set.
// Rule-based preference and topic filtering is always applied, an optional
// Ranker (LLM) reorders the filtered candidates.
package recommend

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/readrec/pkg/domain"
)

//go:generate moq -out mocks/ranker.go -pkg mocks -skip-ensure -fmt goimports . Ranker

// MaxResults is the number of recommendations returned by the engine
const MaxResults = 5

// Ranker orders candidate articles by relevance for the given preferences and topic
type Ranker interface {
	Rank(ctx context.Context, prefs domain.Preferences, topic string, candidates []domain.Article) ([]domain.Article, error)
}

// Engine makes recommendations from the articles sent by the client
type Engine struct {
	ranker Ranker
}

// NewEngine makes an engine, ranker is optional
func NewEngine(ranker Ranker) *Engine {
	return &Engine{ranker: ranker}
}

// Recommend filters req.Articles by preferences and topic and returns up to
// MaxResults articles. If nothing matches, the first MaxResults input articles are
// returned. userId, preferences and articles are required.
func (e *Engine) Recommend(ctx context.Context, req domain.RecommendationRequest) ([]domain.Article, error) {
	if req.UserID == "" || req.Preferences == nil || len(req.Articles) == 0 {
		return nil, &domain.ValidationError{Err: errors.New("missing userId, preferences, or articles")}
	}

	prefs := *req.Preferences
	topic := strings.ToLower(strings.TrimSpace(req.Topic))
	filtered := []domain.Article{}
	for _, a := range req.Articles {
		if matchPreferences(a, prefs) && matchTopic(a, topic) {
			filtered = append(filtered, a)
		}
	}
	if len(filtered) == 0 {
		lgr.Printf("[DEBUG] no articles matched preferences of %s, using first %d", req.UserID, MaxResults)
		filtered = req.Articles[:min(len(req.Articles), MaxResults)]
	}

	if e.ranker != nil && len(filtered) > 1 {
		ranked, err := e.ranker.Rank(ctx, prefs, topic, filtered)
		if err != nil {
			lgr.Printf("[WARN] ranking failed for %s, keeping rule order: %v", req.UserID, err)
		} else {
			filtered = ranked
		}
	}

	res := slices.Clone(filtered[:min(len(filtered), MaxResults)])
	lgr.Printf("[DEBUG] recommended %d of %d articles for %s, topic %q", len(res), len(req.Articles), req.UserID, topic)
	return res, nil
}

// matchPreferences applies partial matching, empty preference or article attributes don't filter
func matchPreferences(a domain.Article, p domain.Preferences) bool {
	category := strings.ToLower(a.Category)
	if c := strings.ToLower(p.PreferredCategory); c != "" && !strings.Contains(category, c) {
		return false
	}
	if t, at := strings.ToLower(p.PreferredTone), strings.ToLower(a.Tone); t != "" && at != "" && !strings.Contains(at, t) {
		return false
	}
	if l, al := strings.ToLower(p.PreferredLength), strings.ToLower(a.Length); l != "" && al != "" && !strings.Contains(al, l) {
		return false
	}
	if p.WantsTrending && !a.Trending {
		return false
	}
	return true
}

// matchTopic requires exact category match or the topic as a whole word of title or summary
func matchTopic(a domain.Article, topic string) bool {
	if topic == "" {
		return true
	}
	if strings.ToLower(a.Category) == topic {
		return true
	}
	return slices.Contains(strings.Fields(strings.ToLower(a.Title)), topic) ||
		slices.Contains(strings.Fields(strings.ToLower(a.Summary)), topic)
}
