package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/readrec/pkg/domain"
)

//go:generate moq -out mocks/user_service.go -pkg mocks -skip-ensure -fmt goimports . UserService

// UserService is the user part of the article service
type UserService interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpsertUser(ctx context.Context, user domain.User) error
}

// ErrNotSignedIn is returned by operations requiring an identity
var ErrNotSignedIn = errors.New("user must be logged in")

// Snapshot is the observable state of a session
type Snapshot struct {
	Identity    *Identity
	Preferences *domain.Preferences
	IsNewUser   bool // profile has to be completed on the preferences form
	Loading     bool // first auth-state notification not processed yet
}

// Personalized reports whether both identity and valid preferences are present
func (s Snapshot) Personalized() bool {
	return s.Identity != nil && s.Preferences != nil
}

// Session tracks identity and preferences of the current user.
// It is created on app start, passed explicitly to its consumers and closed on exit.
// Every state transition is published on Changes, where only the latest
// unread snapshot is kept.
type Session struct {
	provider Provider
	users    UserService

	mu   sync.Mutex
	snap Snapshot

	pubMu   sync.Mutex
	changes chan Snapshot
	closed  bool

	unsubscribe func()
	wg          sync.WaitGroup
}

// New makes a session bound to an identity provider and the user service
func New(provider Provider, users UserService) *Session {
	return &Session{
		provider: provider,
		users:    users,
		snap:     Snapshot{Loading: true},
		changes:  make(chan Snapshot, 1),
	}
}

// Start subscribes to auth-state changes. Each change loads the user record
// or provisions a new one, then publishes the resulting snapshot.
func (s *Session) Start(ctx context.Context) {
	ch, unsubscribe := s.provider.Subscribe()
	s.unsubscribe = unsubscribe
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case id, ok := <-ch:
				if !ok {
					return
				}
				s.apply(s.resolve(ctx, id))
			}
		}
	}()
}

// Close ends the auth-state subscription and closes Changes
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.wg.Wait()
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.changes)
	}
}

// Changes returns the stream of session snapshots
func (s *Session) Changes() <-chan Snapshot {
	return s.changes
}

// Snapshot returns the current session state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// SignIn delegates to the provider, the session state follows from the auth stream
func (s *Session) SignIn(ctx context.Context) (*Identity, error) {
	id, err := s.provider.SignIn(ctx)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return id, nil
}

// SignOut signs out with the provider and clears identity and preferences
func (s *Session) SignOut(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	s.apply(Snapshot{})
	return nil
}

// UpdatePreferences validates and stores preferences of the signed-in user
func (s *Session) UpdatePreferences(ctx context.Context, prefs domain.Preferences, username, userType string) error {
	s.mu.Lock()
	id := s.snap.Identity
	s.mu.Unlock()
	if id == nil {
		return ErrNotSignedIn
	}
	if err := prefs.Validate(); err != nil {
		return err
	}

	user := domain.User{ID: id.UID, Email: id.Email, Username: username, UserType: userType, Preferences: &prefs}
	if err := s.users.UpsertUser(ctx, user); err != nil {
		lgr.Printf("[WARN] failed to update preferences of %s: %v", id.UID, err)
		return fmt.Errorf("update preferences: %w", err)
	}

	s.mu.Lock()
	snap := s.snap
	snap.Preferences = &prefs
	snap.IsNewUser = false
	s.mu.Unlock()
	s.apply(snap)
	return nil
}

// resolve builds the snapshot for an auth-state change
func (s *Session) resolve(ctx context.Context, id *Identity) Snapshot {
	snap := Snapshot{Identity: id}
	if id == nil {
		return snap
	}

	user, err := s.users.GetUser(ctx, id.UID)
	switch {
	case err == nil:
		if user.Preferences != nil && user.Preferences.Validate() == nil {
			prefs := *user.Preferences
			snap.Preferences = &prefs
		}
		if !user.IsComplete() {
			lgr.Printf("[DEBUG] user %s misses username or email, marking as new", id.UID)
			snap.Preferences = nil
			snap.IsNewUser = true
		}
	case errors.Is(err, domain.ErrNotFound):
		lgr.Printf("[INFO] user %s not found, creating with default preferences", id.UID)
		prefs := domain.DefaultPreferences()
		newUser := domain.User{ID: id.UID, Email: id.Email, Username: id.Email, Preferences: &prefs}
		if err := s.users.UpsertUser(ctx, newUser); err != nil {
			lgr.Printf("[WARN] failed to create user %s: %v", id.UID, err)
		}
		// preferences stay empty until the user confirms them
		snap.IsNewUser = true
	default:
		lgr.Printf("[WARN] failed to load user %s: %v", id.UID, err)
	}
	return snap
}

func (s *Session) apply(snap Snapshot) {
	snap.Loading = false
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.changes:
	default:
	}
	s.changes <- snap
}
