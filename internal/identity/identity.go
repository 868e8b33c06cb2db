// Package identity implements the third-party identity providers the
// session controller signs in through.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gamerscove/cove/pkg/domain"
)

// ErrSignedOut is returned when an identity token is requested while no
// identity is signed in.
var ErrSignedOut = errors.New("identity: signed out")

// claims are the identity-token fields the client reads. The token is
// verified by the backend, not here.
type claims struct {
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
	AuthTime int64  `json:"auth_time,omitempty"`
	jwt.RegisteredClaims
}

// ParseIDToken extracts the identity from an unverified identity token.
func ParseIDToken(raw string) (*domain.Identity, error) {
	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &c); err != nil {
		return nil, fmt.Errorf("identity.ParseIDToken: %w", err)
	}
	if c.Subject == "" {
		return nil, errors.New("identity.ParseIDToken: token has no subject")
	}
	id := &domain.Identity{
		ID:          c.Subject,
		DisplayName: c.Name,
		Email:       c.Email,
		PhotoURL:    c.Picture,
	}
	switch {
	case c.AuthTime > 0:
		id.AuthTime = time.Unix(c.AuthTime, 0)
	case c.IssuedAt != nil:
		id.AuthTime = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id, nil
}

// tokenFresh reports whether raw is an identity token that is still valid
// for at least another minute.
func tokenFresh(raw string, now time.Time) bool {
	if raw == "" {
		return false
	}
	id, err := ParseIDToken(raw)
	if err != nil || id.ExpiresAt.IsZero() {
		return false
	}
	return now.Add(time.Minute).Before(id.ExpiresAt)
}

// notifier fans auth-state changes out on a buffered channel.
type notifier struct {
	ch chan *domain.Identity
}

func newNotifier() notifier {
	return notifier{ch: make(chan *domain.Identity, 8)}
}

// emit delivers id without blocking; a full buffer drops the change.
func (n notifier) emit(id *domain.Identity) {
	select {
	case n.ch <- id:
	default:
	}
}
