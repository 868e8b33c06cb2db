package identity

import (
	"context"
	"sync"

	"github.com/gamerscove/cove/pkg/domain"
)

// Static signs in a fixed identity with a fixed identity token. It backs
// dev mode and tests.
type Static struct {
	identity *domain.Identity
	idToken  string
	notify   notifier

	mu       sync.Mutex
	signedIn bool
}

// NewStatic returns a signed-out provider that will sign in as id.
func NewStatic(id *domain.Identity, idToken string) *Static {
	return &Static{identity: id, idToken: idToken, notify: newNotifier()}
}

// SignIn marks the identity signed in.
func (s *Static) SignIn(context.Context) (*domain.Identity, error) {
	s.mu.Lock()
	s.signedIn = true
	s.mu.Unlock()
	s.notify.emit(s.identity)
	return s.identity, nil
}

// IDToken returns the fixed token while signed in.
func (s *Static) IDToken(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.signedIn {
		return "", ErrSignedOut
	}
	return s.idToken, nil
}

// SignOut marks the identity signed out.
func (s *Static) SignOut(context.Context) error {
	s.mu.Lock()
	s.signedIn = false
	s.mu.Unlock()
	s.notify.emit(nil)
	return nil
}

// Changes delivers the identity on sign-in and nil on sign-out.
func (s *Static) Changes() <-chan *domain.Identity { return s.notify.ch }

// Current returns the signed-in identity or nil.
func (s *Static) Current() *domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.signedIn {
		return nil
	}
	return s.identity
}
