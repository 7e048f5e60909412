// Package importer fills the article catalog from RSS/Atom feeds.
// Each configured feed maps to a category; feed items become articles with
// sanitized summaries and, optionally, extracted full content.
package importer

import (
	"context"
	"crypto/sha1" //nolint:gosec // used for stable ids, not security
	"encoding/hex"
	"fmt"
	"html"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/readrec/pkg/config"
	"github.com/umputun/readrec/pkg/domain"
)

//go:generate moq -out mocks/article_store.go -pkg mocks -skip-ensure -fmt goimports . ArticleStore
//go:generate moq -out mocks/feed_parser.go -pkg mocks -skip-ensure -fmt goimports . FeedParser
//go:generate moq -out mocks/extractor.go -pkg mocks -skip-ensure -fmt goimports . Extractor

// ArticleStore persists imported articles
type ArticleStore interface {
	UpsertArticles(ctx context.Context, articles []domain.Article) error
}

// FeedParser fetches and parses a feed
type FeedParser interface {
	Parse(ctx context.Context, url string) (*gofeed.Feed, error)
}

// Extractor returns the main text of an article page
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

const (
	maxSummaryLen  = 500
	trendingWindow = 48 * time.Hour
)

// Importer imports configured feeds into the article store
type Importer struct {
	store      ArticleStore
	parser     FeedParser
	extractor  Extractor // nil disables content extraction
	feeds      []config.FeedConfig
	maxWorkers int
	policy     *bluemonday.Policy
	now        func() time.Time

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// Params holds importer dependencies and settings
type Params struct {
	Store      ArticleStore
	Parser     FeedParser
	Extractor  Extractor
	Feeds      []config.FeedConfig
	MaxWorkers int
}

// Stats is the result of a single import run
type Stats struct {
	Feeds    int // feeds imported successfully
	Failed   int // feeds failed to fetch, parse or store
	Articles int // articles stored
}

// New makes an importer
func New(p Params) *Importer {
	if p.MaxWorkers <= 0 {
		p.MaxWorkers = 5
	}
	return &Importer{
		store:      p.Store,
		parser:     p.Parser,
		extractor:  p.Extractor,
		feeds:      p.Feeds,
		maxWorkers: p.MaxWorkers,
		policy:     bluemonday.StrictPolicy(),
		now:        time.Now,
	}
}

// Run imports all feeds once. Failed feeds are logged and counted,
// an error is returned only if ctx is canceled.
func (im *Importer) Run(ctx context.Context) (Stats, error) {
	var feedsOK, failed, stored atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.maxWorkers)
	for _, f := range im.feeds {
		g.Go(func() error {
			n, err := im.importFeed(gctx, f)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				lgr.Printf("[WARN] failed to import feed %s: %v", f.URL, err)
				failed.Add(1)
				return nil
			}
			feedsOK.Add(1)
			stored.Add(int64(n))
			return nil
		})
	}
	err := g.Wait()

	stats := Stats{Feeds: int(feedsOK.Load()), Failed: int(failed.Load()), Articles: int(stored.Load())}
	if err != nil {
		return stats, fmt.Errorf("import canceled: %w", err)
	}
	lgr.Printf("[INFO] imported %d articles from %d feeds, %d failed", stats.Articles, stats.Feeds, stats.Failed)
	return stats, nil
}

// Start runs the import immediately and then every interval until Stop is called
func (im *Importer) Start(ctx context.Context, interval time.Duration) {
	ctx, im.cancel = context.WithCancel(ctx)
	im.wg.Add(1)
	go func() {
		defer im.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if _, err := im.Run(ctx); err != nil {
				lgr.Printf("[DEBUG] %v", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	lgr.Printf("[INFO] importer started with interval %v, %d feeds", interval, len(im.feeds))
}

// Stop ends periodic imports and waits for the running one
func (im *Importer) Stop() {
	if im.cancel != nil {
		im.cancel()
	}
	im.wg.Wait()
	lgr.Printf("[INFO] importer stopped")
}

func (im *Importer) importFeed(ctx context.Context, f config.FeedConfig) (int, error) {
	lgr.Printf("[DEBUG] importing feed %s (%s)", f.URL, f.Category)
	feed, err := im.parser.Parse(ctx, f.URL)
	if err != nil {
		return 0, err
	}

	articles := make([]domain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || (item.Title == "" && item.Link == "") {
			continue
		}
		a := im.toArticle(item, f.Category)
		if im.extractor != nil && a.Link != "" {
			text, err := im.extractor.Extract(ctx, a.Link)
			if err != nil {
				lgr.Printf("[DEBUG] extraction failed for %s: %v", a.Link, err)
			} else {
				a.Content = text
				a.Length = lengthOf(text)
			}
		}
		articles = append(articles, a)
	}
	if len(articles) == 0 {
		return 0, nil
	}

	if err := im.store.UpsertArticles(ctx, articles); err != nil {
		return 0, fmt.Errorf("store articles: %w", err)
	}
	return len(articles), nil
}

// toArticle maps a feed item to an article of the given category
func (im *Importer) toArticle(item *gofeed.Item, category string) domain.Article {
	a := domain.Article{
		ID:       articleID(item),
		Title:    strings.TrimSpace(item.Title),
		Link:     item.Link,
		Category: strings.ToLower(category),
		Summary:  im.clean(item.Description, maxSummaryLen),
		Content:  im.clean(item.Content, 0),
	}
	if a.Summary == "" {
		a.Summary = im.clean(item.Content, maxSummaryLen)
	}

	switch {
	case item.PublishedParsed != nil:
		a.Published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		a.Published = *item.UpdatedParsed
	}
	if !a.Published.IsZero() {
		a.Trending = im.now().Sub(a.Published) < trendingWindow
	}

	switch {
	case item.Image != nil && item.Image.URL != "":
		a.ImageURL = item.Image.URL
	default:
		for _, enc := range item.Enclosures {
			if enc != nil && strings.HasPrefix(enc.Type, "image/") {
				a.ImageURL = enc.URL
				break
			}
		}
	}

	body := a.Content
	if body == "" {
		body = a.Summary
	}
	a.Length = lengthOf(body)
	return a
}

// clean strips html, decodes entities and collapses whitespace, limit 0 keeps the full text
func (im *Importer) clean(s string, limit int) string {
	text := strings.Join(strings.Fields(html.UnescapeString(im.policy.Sanitize(s))), " ")
	if limit > 0 && len([]rune(text)) > limit {
		text = string([]rune(text)[:limit]) + "..."
	}
	return text
}

// articleID is a stable id derived from the item GUID, or the link if GUID is missing
func articleID(item *gofeed.Item) string {
	key := item.GUID
	if key == "" {
		key = item.Link
	}
	if key == "" {
		key = item.Title
	}
	sum := sha1.Sum([]byte(key)) //nolint:gosec // not used for security
	return hex.EncodeToString(sum[:])
}

// lengthOf classifies text by word count
func lengthOf(text string) string {
	switch words := len(strings.Fields(text)); {
	case words == 0:
		return ""
	case words < 300:
		return "Short"
	case words < 1000:
		return "Medium"
	default:
		return "Long"
	}
}
