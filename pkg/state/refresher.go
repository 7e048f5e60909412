package state

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
)

const (
	defaultQuietPeriod = 500 * time.Millisecond
	defaultMinDisplay  = 5 * time.Second
)

// afterFunc schedules f to run after d and returns a function cancelling it
type afterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// RefresherConfig holds configuration for Refresher
type RefresherConfig struct {
	QuietPeriod time.Duration                           // debounce interval after the last trigger
	MinDisplay  time.Duration                           // minimal time the analyzing indicator stays on
	Refresh     func(ctx context.Context, topic string) // called once per quiet period
	OnChange    func()                                  // called after every state transition, outside the lock

	afterFunc afterFunc
}

// Refresher coalesces rapid filter changes into a single recommendation refresh.
// It runs two independent delayed tasks, each keyed by its own generation counter:
//   - quiet-period task, restarted by every Trigger; when it fires, Refresh is called
//   - minimum-display task, restarted whenever a refresh starts; keeps Analyzing on
//
// A task whose generation no longer matches the current one is stale and does nothing.
// In-flight refreshes are never cancelled.
type Refresher struct {
	cfg RefresherConfig

	mu             sync.Mutex
	quietGen       uint64
	stopQuiet      func() bool
	displayGen     uint64
	stopDisplay    func() bool
	pending        bool // quiet-period task armed
	refreshing     int  // refresh calls in flight
	displayPending bool // minimum-display task armed
	stopped        bool
}

// RefresherState is a point-in-time view of the refresher
type RefresherState struct {
	Pending    bool // a refresh is scheduled but the quiet period has not passed yet
	Refreshing bool // a refresh call is in flight
	Analyzing  bool // analyzing indicator should be visible
}

// NewRefresher makes a refresher with defaults applied
func NewRefresher(cfg RefresherConfig) *Refresher {
	if cfg.QuietPeriod <= 0 {
		cfg.QuietPeriod = defaultQuietPeriod
	}
	if cfg.MinDisplay <= 0 {
		cfg.MinDisplay = defaultMinDisplay
	}
	if cfg.afterFunc == nil {
		cfg.afterFunc = realAfterFunc
	}
	if cfg.Refresh == nil {
		cfg.Refresh = func(context.Context, string) {}
	}
	return &Refresher{cfg: cfg}
}

// Trigger restarts the quiet period. The refresh fires with the topic of the last
// trigger once no other trigger arrives for QuietPeriod. ctx is passed to the refresh
// call and has to outlive the quiet period.
func (r *Refresher) Trigger(ctx context.Context, topic string) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.quietGen++
	gen := r.quietGen
	if r.stopQuiet != nil {
		r.stopQuiet()
	}
	r.pending = true
	r.stopQuiet = r.cfg.afterFunc(r.cfg.QuietPeriod, func() { r.fire(ctx, gen, topic) })
	r.mu.Unlock()
	r.notify()
}

// State returns the current refresher state
func (r *Refresher) State() RefresherState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RefresherState{
		Pending:    r.pending,
		Refreshing: r.refreshing > 0,
		Analyzing:  r.refreshing > 0 || r.displayPending,
	}
}

// Stop cancels both delayed tasks and ignores further triggers
func (r *Refresher) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.quietGen++
	r.displayGen++
	if r.stopQuiet != nil {
		r.stopQuiet()
	}
	if r.stopDisplay != nil {
		r.stopDisplay()
	}
	r.pending, r.displayPending = false, false
	r.mu.Unlock()
	r.notify()
}

func (r *Refresher) fire(ctx context.Context, gen uint64, topic string) {
	r.mu.Lock()
	if r.stopped || gen != r.quietGen {
		r.mu.Unlock()
		return
	}
	r.pending = false
	r.refreshing++
	r.startDisplayLocked()
	r.mu.Unlock()
	r.notify()

	lgr.Printf("[DEBUG] refreshing recommendations, topic %q", topic)
	r.cfg.Refresh(ctx, topic)

	r.mu.Lock()
	r.refreshing--
	r.mu.Unlock()
	r.notify()
}

// startDisplayLocked (re)arms the minimum-display task, r.mu must be held
func (r *Refresher) startDisplayLocked() {
	r.displayGen++
	gen := r.displayGen
	if r.stopDisplay != nil {
		r.stopDisplay()
	}
	r.displayPending = true
	r.stopDisplay = r.cfg.afterFunc(r.cfg.MinDisplay, func() {
		r.mu.Lock()
		if gen != r.displayGen {
			r.mu.Unlock()
			return
		}
		r.displayPending = false
		r.mu.Unlock()
		r.notify()
	})
}

func (r *Refresher) notify() {
	if r.cfg.OnChange != nil {
		r.cfg.OnChange()
	}
}
