package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/readrec/pkg/domain"
	"github.com/umputun/readrec/pkg/session/mocks"
)

var testIdentity = Identity{UID: "u1", Email: "u1@example.com", DisplayName: "User One"}

// nextSnapshot waits for a snapshot matching the condition
func nextSnapshot(t *testing.T, s *Session, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case snap, ok := <-s.Changes():
			require.True(t, ok, "changes closed")
			if cond(snap) {
				return snap
			}
		case <-timeout:
			t.Fatal("no matching snapshot")
		}
	}
}

func signedIn(s Snapshot) bool { return s.Identity != nil }

func startSession(t *testing.T, users UserService) (*Session, *LocalProvider) {
	t.Helper()
	provider := NewLocalProvider(testIdentity)
	s := New(provider, users)
	assert.True(t, s.Snapshot().Loading)
	s.Start(context.Background())
	t.Cleanup(s.Close)

	first := nextSnapshot(t, s, func(Snapshot) bool { return true })
	assert.Nil(t, first.Identity, "signed out on start")
	assert.False(t, first.Loading)

	_, err := s.SignIn(context.Background())
	require.NoError(t, err)
	return s, provider
}

func TestSession_ExistingUser(t *testing.T) {
	prefs := domain.Preferences{PreferredCategory: "Science", PreferredTone: "Fun", PreferredLength: "Short", WantsTrending: false}
	users := &mocks.UserServiceMock{
		GetUserFunc: func(_ context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Email: "u1@example.com", Username: "one", Preferences: &prefs}, nil
		},
	}
	s, _ := startSession(t, users)

	snap := nextSnapshot(t, s, signedIn)
	assert.Equal(t, "u1", snap.Identity.UID)
	require.NotNil(t, snap.Preferences)
	assert.Equal(t, prefs, *snap.Preferences)
	assert.False(t, snap.IsNewUser)
	assert.True(t, snap.Personalized())
	assert.Equal(t, snap, s.Snapshot())
	assert.Empty(t, users.UpsertUserCalls())
}

func TestSession_IncompleteUser(t *testing.T) {
	prefs := domain.DefaultPreferences()
	users := &mocks.UserServiceMock{
		GetUserFunc: func(_ context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Email: "u1@example.com", Preferences: &prefs}, nil // no username
		},
	}
	s, _ := startSession(t, users)

	snap := nextSnapshot(t, s, signedIn)
	assert.True(t, snap.IsNewUser)
	assert.Nil(t, snap.Preferences)
	assert.False(t, snap.Personalized())
}

func TestSession_InvalidPreferencesIgnored(t *testing.T) {
	users := &mocks.UserServiceMock{
		GetUserFunc: func(_ context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Email: "u1@example.com", Username: "one",
				Preferences: &domain.Preferences{PreferredCategory: "Science"}}, nil
		},
	}
	s, _ := startSession(t, users)

	snap := nextSnapshot(t, s, signedIn)
	assert.Nil(t, snap.Preferences)
	assert.False(t, snap.IsNewUser)
}

func TestSession_ProvisionsNewUser(t *testing.T) {
	users := &mocks.UserServiceMock{
		GetUserFunc: func(context.Context, string) (*domain.User, error) {
			return nil, &domain.NetworkError{Op: "get user", Status: 404, Err: domain.ErrNotFound}
		},
		UpsertUserFunc: func(context.Context, domain.User) error { return nil },
	}
	s, _ := startSession(t, users)

	snap := nextSnapshot(t, s, signedIn)
	assert.True(t, snap.IsNewUser)
	assert.Nil(t, snap.Preferences, "preferences stay empty until confirmed")

	require.Len(t, users.UpsertUserCalls(), 1)
	created := users.UpsertUserCalls()[0].User
	assert.Equal(t, "u1", created.ID)
	assert.Equal(t, "u1@example.com", created.Email)
	assert.Equal(t, "u1@example.com", created.Username)
	require.NotNil(t, created.Preferences)
	assert.Equal(t, domain.DefaultPreferences(), *created.Preferences)
}

func TestSession_ProvisionFailure(t *testing.T) {
	users := &mocks.UserServiceMock{
		GetUserFunc: func(context.Context, string) (*domain.User, error) { return nil, domain.ErrNotFound },
		UpsertUserFunc: func(context.Context, domain.User) error {
			return errors.New("service down")
		},
	}
	s, _ := startSession(t, users)

	snap := nextSnapshot(t, s, signedIn)
	assert.True(t, snap.IsNewUser)
	assert.Nil(t, snap.Preferences)
}

func TestSession_LoadFailure(t *testing.T) {
	users := &mocks.UserServiceMock{
		GetUserFunc: func(context.Context, string) (*domain.User, error) {
			return nil, &domain.NetworkError{Op: "get user", Status: 500}
		},
	}
	s, _ := startSession(t, users)

	snap := nextSnapshot(t, s, signedIn)
	assert.Nil(t, snap.Preferences)
	assert.False(t, snap.IsNewUser)
	assert.Empty(t, users.UpsertUserCalls(), "no provisioning on errors other than not found")
}

func TestSession_UpdatePreferences(t *testing.T) {
	users := &mocks.UserServiceMock{
		GetUserFunc:    func(context.Context, string) (*domain.User, error) { return nil, domain.ErrNotFound },
		UpsertUserFunc: func(context.Context, domain.User) error { return nil },
	}
	s, _ := startSession(t, users)
	nextSnapshot(t, s, signedIn)

	prefs := domain.Preferences{PreferredCategory: "Art", PreferredTone: "Casual", PreferredLength: "Long", WantsTrending: true}
	require.NoError(t, s.UpdatePreferences(context.Background(), prefs, "artfan", "reader"))

	snap := nextSnapshot(t, s, func(s Snapshot) bool { return s.Preferences != nil })
	assert.Equal(t, prefs, *snap.Preferences)
	assert.False(t, snap.IsNewUser)
	assert.True(t, snap.Personalized())

	require.Len(t, users.UpsertUserCalls(), 2)
	stored := users.UpsertUserCalls()[1].User
	assert.Equal(t, "artfan", stored.Username)
	assert.Equal(t, "reader", stored.UserType)
	assert.Equal(t, "u1@example.com", stored.Email)

	t.Run("incomplete preferences rejected", func(t *testing.T) {
		err := s.UpdatePreferences(context.Background(), domain.Preferences{PreferredCategory: "Art"}, "artfan", "")
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, users.UpsertUserCalls(), 2)
	})

	t.Run("service failure", func(t *testing.T) {
		users.UpsertUserFunc = func(context.Context, domain.User) error { return errors.New("down") }
		err := s.UpdatePreferences(context.Background(), prefs, "artfan", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "update preferences")
	})
}

func TestSession_UpdatePreferencesSignedOut(t *testing.T) {
	s := New(NewLocalProvider(testIdentity), &mocks.UserServiceMock{})
	err := s.UpdatePreferences(context.Background(), domain.DefaultPreferences(), "x", "")
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestSession_SignOut(t *testing.T) {
	prefs := domain.DefaultPreferences()
	users := &mocks.UserServiceMock{
		GetUserFunc: func(_ context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Email: "u1@example.com", Username: "one", Preferences: &prefs}, nil
		},
	}
	s, _ := startSession(t, users)
	nextSnapshot(t, s, signedIn)

	require.NoError(t, s.SignOut(context.Background()))
	snap := nextSnapshot(t, s, func(s Snapshot) bool { return s.Identity == nil })
	assert.Nil(t, snap.Preferences)
	assert.False(t, snap.Personalized())
	assert.Nil(t, s.Snapshot().Identity)
}

type failingProvider struct{ *LocalProvider }

func (failingProvider) SignIn(context.Context) (*Identity, error) {
	return nil, errors.New("popup closed")
}
func (failingProvider) SignOut(context.Context) error { return errors.New("offline") }

func TestSession_ProviderErrors(t *testing.T) {
	s := New(failingProvider{NewLocalProvider(testIdentity)}, &mocks.UserServiceMock{})

	_, err := s.SignIn(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign in")

	err = s.SignOut(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign out")
}

func TestSession_Close(t *testing.T) {
	s := New(NewLocalProvider(testIdentity), &mocks.UserServiceMock{})
	s.Start(context.Background())
	s.Close()
	s.Close()

	// drain the initial snapshot, then the stream ends
	for range s.Changes() {
	}
	s.apply(Snapshot{}) // publishing after close is a no-op
}
