package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"time"

	"github.com/fatih/color"

	"github.com/umputun/readrec/pkg/client"
	"github.com/umputun/readrec/pkg/config"
	"github.com/umputun/readrec/pkg/domain"
	"github.com/umputun/readrec/pkg/session"
	"github.com/umputun/readrec/pkg/state"
)

// idlePoll caps the wait between state checks when no change notification arrives
const idlePoll = 100 * time.Millisecond

// runBrowse signs in (if a user is given), walks through the requested categories
// and prints discover and recommended articles for each of them
func runBrowse(ctx context.Context, cfg *config.Config, opts BrowseCmd, out io.Writer) error {
	apiURL := cfg.Client.APIURL
	if opts.API != "" {
		apiURL = opts.API
	}
	cl := client.New(client.Config{
		BaseURL:         apiURL,
		Timeout:         cfg.Client.Timeout,
		BreakerFailures: cfg.Client.BreakerFailures,
	})

	changed := make(chan struct{}, 1)
	mgr := state.NewManager(cl, state.Options{
		QuietPeriod: cfg.Client.QuietPeriod,
		MinDisplay:  cfg.Client.MinDisplay,
		OnChange: func(state.Snapshot) {
			select {
			case changed <- struct{}{}:
			default:
			}
		},
	})
	defer mgr.Close()

	if opts.User != "" {
		email := opts.Email
		if email == "" {
			email = opts.User + "@localhost"
		}
		provider := session.NewLocalProvider(session.Identity{UID: opts.User, Email: email, DisplayName: opts.User})
		sess := session.New(provider, cl)
		sess.Start(ctx)
		defer sess.Close()

		watchCtx, cancelWatch := context.WithCancel(ctx)
		defer cancelWatch()
		go mgr.Watch(watchCtx, sess.Changes())

		snap, err := signIn(ctx, sess, mgr, changed, opts, email)
		if err != nil {
			return err
		}
		printSession(out, snap)
	}

	categories := opts.Categories
	if len(categories) == 0 {
		categories = []string{""}
	}
	for _, category := range categories {
		mgr.SetCategory(ctx, category)
		snap, err := waitIdle(ctx, mgr, changed)
		if err != nil {
			return err
		}
		printArticles(out, snap)
	}

	return rateArticles(ctx, out, mgr, opts.Rate)
}

// signIn signs the user in and waits until the manager has the resolved session.
// Preferences given on the command line are stored before returning.
func signIn(ctx context.Context, sess *session.Session, mgr *state.Manager, changed <-chan struct{},
	opts BrowseCmd, email string) (session.Snapshot, error) {
	if _, err := sess.SignIn(ctx); err != nil {
		return session.Snapshot{}, err
	}
	snap, err := waitFor(ctx, mgr, changed, func(s state.Snapshot) bool { return s.Session.Identity != nil })
	if err != nil {
		return session.Snapshot{}, err
	}

	if opts.PrefCategory == "" && opts.PrefTone == "" && opts.PrefLength == "" && opts.PrefTrending == "" {
		return snap.Session, nil
	}

	prefs := domain.DefaultPreferences()
	if snap.Session.Preferences != nil {
		prefs = *snap.Session.Preferences
	}
	if opts.PrefCategory != "" {
		prefs.PreferredCategory = opts.PrefCategory
	}
	if opts.PrefTone != "" {
		prefs.PreferredTone = opts.PrefTone
	}
	if opts.PrefLength != "" {
		prefs.PreferredLength = opts.PrefLength
	}
	if opts.PrefTrending != "" {
		prefs.WantsTrending = opts.PrefTrending == "yes"
	}

	username := opts.Username
	if username == "" {
		username = email
	}
	if err := sess.UpdatePreferences(ctx, prefs, username, ""); err != nil {
		return session.Snapshot{}, fmt.Errorf("failed to save preferences: %w", err)
	}
	snap, err = waitFor(ctx, mgr, changed, func(s state.Snapshot) bool {
		return s.Session.Preferences != nil && *s.Session.Preferences == prefs
	})
	if err != nil {
		return session.Snapshot{}, err
	}
	return snap.Session, nil
}

// waitFor blocks until the manager state matches the condition
func waitFor(ctx context.Context, mgr *state.Manager, changed <-chan struct{}, cond func(state.Snapshot) bool) (state.Snapshot, error) {
	for {
		snap := mgr.Snapshot()
		if cond(snap) {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-changed:
		case <-time.After(idlePoll):
		}
	}
}

// waitIdle blocks until no article load or recommendation refresh is scheduled or running.
// The minimum-display indicator is not waited for.
func waitIdle(ctx context.Context, mgr *state.Manager, changed <-chan struct{}) (state.Snapshot, error) {
	return waitFor(ctx, mgr, changed, func(s state.Snapshot) bool {
		return !s.Loading && !s.RefreshPending && !s.Refreshing && !s.LoadingRecommendations
	})
}

func rateArticles(ctx context.Context, out io.Writer, mgr *state.Manager, ratings map[string]int) error {
	ids := make([]string, 0, len(ratings))
	for id := range ratings {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	failed := 0
	for _, id := range ids {
		if mgr.RateArticle(ctx, id, ratings[id]) {
			fmt.Fprintf(out, "rated %s: %d\n", id, ratings[id])
			continue
		}
		failed++
		fmt.Fprintln(out, color.RedString("failed to rate %s", id))
	}
	if failed > 0 {
		log.Printf("[WARN] %d of %d ratings failed", failed, len(ids))
		return fmt.Errorf("%d ratings failed", failed)
	}
	return nil
}

func printSession(out io.Writer, snap session.Snapshot) {
	fmt.Fprintf(out, "signed in as %s\n", color.GreenString(snap.Identity.Email))
	if snap.IsNewUser {
		fmt.Fprintln(out, color.YellowString("new profile, set preferences with --pref-* options to personalize recommendations"))
		return
	}
	if p := snap.Preferences; p != nil {
		fmt.Fprintf(out, "preferences: %s, %s, %s, trending: %v\n",
			p.PreferredCategory, p.PreferredTone, p.PreferredLength, p.WantsTrending)
	}
}

func printArticles(out io.Writer, snap state.Snapshot) {
	title := color.New(color.FgCyan, color.Bold)
	category := snap.Category
	if category == "" {
		category = "all"
	}
	title.Fprintf(out, "\n== %s (%d articles) ==\n", category, len(snap.Articles)) //nolint:errcheck // terminal output
	if snap.Error != "" {
		fmt.Fprintln(out, color.RedString(snap.Error))
		return
	}

	title.Fprintln(out, "discover") //nolint:errcheck // terminal output
	printList(out, snap.Discover)
	title.Fprintln(out, "recommended") //nolint:errcheck // terminal output
	printList(out, snap.Recommended)
}

func printList(out io.Writer, articles []domain.Article) {
	if len(articles) == 0 {
		fmt.Fprintln(out, "  (none)")
		return
	}
	for _, a := range articles {
		fmt.Fprintf(out, "  %s [%s] %s\n", color.HiBlackString(a.ID), color.MagentaString(a.Category), a.Title)
	}
}
