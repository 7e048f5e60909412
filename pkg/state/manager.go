// Package state keeps the client-side article and recommendation state.
// Manager owns the fetched article batch and the sets derived from it, and reacts to
// identity, preference and category changes. Refresher debounces personalized
// recommendation requests and holds the analyzing indicator for a minimum time.
package state

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/readrec/pkg/domain"
	"github.com/umputun/readrec/pkg/session"
)

//go:generate moq -out mocks/article_service.go -pkg mocks -skip-ensure -fmt goimports . ArticleService

// ArticleService is the remote article service
type ArticleService interface {
	Articles(ctx context.Context, category string) ([]domain.Article, error)
	Recommend(ctx context.Context, req domain.RecommendationRequest) ([]domain.Article, error)
	Rate(ctx context.Context, rating domain.Rating) error
}

// defaultLoadError is shown when the service gave no message of its own
const defaultLoadError = "Failed to load articles. Please try again later."

// Options holds optional Manager settings
type Options struct {
	QuietPeriod time.Duration  // debounce of recommendation refresh, 500ms by default
	MinDisplay  time.Duration  // minimal analyzing indicator time, 5s by default
	Rand        Rand           // random source for sampling, math/rand/v2 by default
	OnChange    func(Snapshot) // called after every state change, outside the lock

	afterFunc afterFunc
	now       func() time.Time
}

// Snapshot is a copy of all observable state values
type Snapshot struct {
	Session                session.Snapshot // last applied session state
	Category               string
	Articles               []domain.Article
	Discover               []domain.Article
	Recommended            []domain.Article
	Loading                bool   // article batch is being fetched
	LoadingRecommendations bool   // personalized request in flight
	RefreshPending         bool   // debounced refresh waiting for the quiet period
	Refreshing             bool   // debounced refresh running
	Analyzing              bool   // analyzing indicator visible
	Error                  string // human-readable article load failure
}

// Manager keeps fetched articles and derived discover and recommended sets.
// All mutations are serialized by a single mutex. Every article load and every
// recommendation request gets a sequence number, responses older than the last
// applied one are discarded.
type Manager struct {
	svc       ArticleService
	rnd       Rand
	onChange  func(Snapshot)
	now       func() time.Time
	refresher *Refresher

	mu          sync.Mutex
	category    string
	sess        session.Snapshot
	articles    []domain.Article
	discover    []domain.Article
	recommended []domain.Article
	errMsg      string
	loadSeq     uint64 // last issued article load
	loadApplied uint64 // last applied article load
	recSeq      uint64 // last issued recommendation request
	recApplied  uint64 // last applied (or invalidated) recommendation request
	recInFlight int
	deferred    *string // topic of a refresh requested while a load was in flight
}

// NewManager makes a manager on top of the article service
func NewManager(svc ArticleService, opts Options) *Manager {
	m := &Manager{
		svc:      svc,
		rnd:      opts.Rand,
		onChange: opts.OnChange,
		now:      opts.now,
	}
	if m.rnd == nil {
		m.rnd = globalRand{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.refresher = NewRefresher(RefresherConfig{
		QuietPeriod: opts.QuietPeriod,
		MinDisplay:  opts.MinDisplay,
		Refresh:     m.RefreshRecommendations,
		OnChange:    m.notify,
		afterFunc:   opts.afterFunc,
	})
	return m
}

// Snapshot returns a copy of the current state
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	snap := Snapshot{
		Session:                m.sess,
		Category:               m.category,
		Articles:               clone(m.articles),
		Discover:               clone(m.discover),
		Recommended:            clone(m.recommended),
		Loading:                m.loadSeq != m.loadApplied,
		LoadingRecommendations: m.recInFlight > 0,
		Error:                  m.errMsg,
	}
	m.mu.Unlock()

	rs := m.refresher.State()
	snap.RefreshPending = rs.Pending
	snap.Refreshing = rs.Refreshing
	snap.Analyzing = rs.Analyzing || snap.LoadingRecommendations
	return snap
}

// SetCategory changes the category filter, reloads articles and, for a personalized
// session, schedules a debounced recommendation refresh for the new category.
// ctx is also used by the delayed refresh and has to outlive the quiet period.
func (m *Manager) SetCategory(ctx context.Context, category string) {
	m.mu.Lock()
	m.category = category
	personalized := m.sess.Personalized()
	m.mu.Unlock()

	if personalized {
		m.refresher.Trigger(ctx, category)
	}
	m.Load(ctx)
}

// SetSession applies an identity or preferences change, reloads articles and
// schedules a recommendation refresh for a personalized session
func (m *Manager) SetSession(ctx context.Context, snap session.Snapshot) {
	m.mu.Lock()
	m.sess = snap
	category := m.category
	m.mu.Unlock()

	if snap.Personalized() {
		m.refresher.Trigger(ctx, category)
	}
	m.Load(ctx)
}

// Watch applies session snapshots until ctx is done or the stream is closed
func (m *Manager) Watch(ctx context.Context, changes <-chan session.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-changes:
			if !ok {
				return
			}
			m.SetSession(ctx, snap)
		}
	}
}

// Close stops pending delayed tasks
func (m *Manager) Close() {
	m.refresher.Stop()
}

// Load fetches the article batch for the current category and rebuilds the
// discover set and the provisional recommended set. On failure the error message
// is set and both derived sets are cleared.
func (m *Manager) Load(ctx context.Context) {
	m.mu.Lock()
	m.loadSeq++
	seq := m.loadSeq
	category := m.category
	m.errMsg = ""
	m.mu.Unlock()
	m.notify()

	articles, err := m.svc.Articles(ctx, strings.ToLower(category))

	m.mu.Lock()
	if seq <= m.loadApplied {
		m.mu.Unlock()
		lgr.Printf("[DEBUG] discarding stale article batch #%d", seq)
		return
	}
	m.loadApplied = seq

	if err != nil {
		lgr.Printf("[WARN] failed to load articles: %v", err)
		m.errMsg = loadErrorMessage(err)
		m.discover = []domain.Article{}
		m.recommended = []domain.Article{}
		m.deferred = nil
		m.recApplied = m.recSeq // late responses must not refill the cleared set
		m.mu.Unlock()
		m.notify()
		return
	}

	m.articles = articles
	m.discover = discoverSet(articles)
	if m.sess.Personalized() {
		m.recommended = groupedByCategory(articles, domain.MaxPerCategory, domain.MaxRecommended)
	} else {
		m.recommended = sampleArticles(m.rnd, articles, domain.MaxRecommended)
	}
	// requests issued for an older batch must not overwrite this one
	m.recApplied = m.recSeq

	var deferred *string
	if m.loadApplied == m.loadSeq {
		deferred, m.deferred = m.deferred, nil
	}
	m.mu.Unlock()
	lgr.Printf("[DEBUG] loaded %d articles, category %q", len(articles), category)
	m.notify()

	if deferred != nil {
		m.RefreshRecommendations(ctx, *deferred)
	}
}

// RefreshRecommendations asks the service for personalized recommendations based on
// up to 20 loaded articles. It does nothing without identity and preferences.
// On success the first 4 recommendations replace the recommended set, on failure a
// random sample of loaded articles is used instead. A refresh requested while an
// article load is in flight runs after the load is applied.
func (m *Manager) RefreshRecommendations(ctx context.Context, topic string) {
	m.mu.Lock()
	if !m.sess.Personalized() {
		m.mu.Unlock()
		lgr.Printf("[DEBUG] recommendations skipped, user or preferences missing")
		return
	}
	if m.loadSeq != m.loadApplied {
		m.deferred = &topic
		m.mu.Unlock()
		return
	}
	m.recSeq++
	seq := m.recSeq
	loaded := clone(m.articles)
	prefs := *m.sess.Preferences
	req := domain.RecommendationRequest{
		UserID:      m.sess.Identity.UID,
		Preferences: &prefs,
		Articles:    loaded[:min(len(loaded), domain.MaxRecommendationInput)],
		Topic:       topic,
	}
	m.recInFlight++
	m.mu.Unlock()
	m.notify()

	recs, err := m.svc.Recommend(ctx, req)

	m.mu.Lock()
	m.recInFlight--
	if seq <= m.recApplied {
		m.mu.Unlock()
		lgr.Printf("[DEBUG] discarding stale recommendations #%d", seq)
		m.notify()
		return
	}
	m.recApplied = seq
	if err != nil {
		lgr.Printf("[WARN] recommendations failed, using random sample: %v", err)
		m.recommended = sampleArticles(m.rnd, loaded, domain.MaxRecommended)
	} else {
		m.recommended = knownArticles(recs, m.articles, domain.MaxRecommended)
	}
	m.mu.Unlock()
	m.notify()
}

// ArticleByID returns an article of the current batch
func (m *Manager) ArticleByID(id string) (domain.Article, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Article{}, false
}

// RateArticle submits a rating of the signed-in user and reports success.
// Failures are logged and reported as false.
func (m *Manager) RateArticle(ctx context.Context, articleID string, rating int) bool {
	m.mu.Lock()
	id := m.sess.Identity
	m.mu.Unlock()
	if id == nil {
		return false
	}

	r := domain.Rating{UserID: id.UID, ArticleID: articleID, Rating: rating, Timestamp: m.now()}
	if err := domain.Validate(r); err != nil {
		lgr.Printf("[WARN] invalid rating for %s: %v", articleID, err)
		return false
	}
	if err := m.svc.Rate(ctx, r); err != nil {
		lgr.Printf("[WARN] failed to rate article %s: %v", articleID, err)
		return false
	}
	return true
}

func (m *Manager) notify() {
	if m.onChange != nil {
		m.onChange(m.Snapshot())
	}
}

// knownArticles keeps recommendations present in the current batch, up to limit.
// Batch copies are returned so the result is a subset of the batch.
func knownArticles(recs, batch []domain.Article, limit int) []domain.Article {
	byID := make(map[string]domain.Article, len(batch))
	for _, a := range batch {
		byID[a.ID] = a
	}
	res := []domain.Article{}
	seen := map[string]bool{}
	for _, r := range recs {
		if len(res) >= limit {
			break
		}
		a, ok := byID[r.ID]
		if !ok || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		res = append(res, a)
	}
	return res
}

// loadErrorMessage returns the service message if there is one
func loadErrorMessage(err error) string {
	var nerr *domain.NetworkError
	if errors.As(err, &nerr) && nerr.Message != "" {
		return nerr.Message
	}
	return defaultLoadError
}

func clone(articles []domain.Article) []domain.Article {
	if articles == nil {
		return nil
	}
	res := make([]domain.Article, len(articles))
	copy(res, articles)
	return res
}
