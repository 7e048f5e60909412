package session

import (
	"context"
	"sync"
)

// Identity is the signed-in principal as reported by the identity provider
type Identity struct {
	UID         string
	Email       string
	DisplayName string
}

// Provider is an identity provider. Its internals are opaque to the rest of the
// system; only sign-in, sign-out and the auth-state stream are used.
type Provider interface {
	SignIn(ctx context.Context) (*Identity, error)
	SignOut(ctx context.Context) error
	// Subscribe returns a stream of auth-state changes, starting with the current
	// state (nil when signed out), and a function ending the subscription.
	Subscribe() (<-chan *Identity, func())
}

// LocalProvider is an in-process provider signing in a fixed identity.
// It is used by the terminal client and tests.
type LocalProvider struct {
	identity Identity

	mu      sync.Mutex
	current *Identity
	subs    map[int]chan *Identity
	nextSub int
}

// NewLocalProvider makes a provider which signs in as id
func NewLocalProvider(id Identity) *LocalProvider {
	return &LocalProvider{identity: id, subs: map[int]chan *Identity{}}
}

// SignIn marks the configured identity as signed in and notifies subscribers
func (p *LocalProvider) SignIn(_ context.Context) (*Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.identity
	p.current = &id
	p.broadcastLocked()
	return &id, nil
}

// SignOut clears the current identity and notifies subscribers
func (p *LocalProvider) SignOut(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
	p.broadcastLocked()
	return nil
}

// Subscribe implements Provider. Slow subscribers only see the latest state.
func (p *LocalProvider) Subscribe() (<-chan *Identity, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan *Identity, 1)
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	ch <- p.copyCurrent()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.subs, id)
			close(ch)
		})
	}
	return ch, unsubscribe
}

func (p *LocalProvider) broadcastLocked() {
	for _, ch := range p.subs {
		select {
		case <-ch: // drop the state nobody has read yet
		default:
		}
		ch <- p.copyCurrent()
	}
}

func (p *LocalProvider) copyCurrent() *Identity {
	if p.current == nil {
		return nil
	}
	id := *p.current
	return &id
}
