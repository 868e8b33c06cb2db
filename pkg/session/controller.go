package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gamerscove/cove/pkg/domain"
)

// ErrNotSignedIn is returned by operations that need a provider identity.
var ErrNotSignedIn = errors.New("not signed in")

// ErrEmptyUsername is returned by SetUsername for a blank name.
var ErrEmptyUsername = errors.New("Please enter a username") //nolint:staticcheck // shown to users verbatim

// Provider is the external identity provider.
type Provider interface {
	// SignIn runs the interactive sign-in flow.
	SignIn(ctx context.Context) (*domain.Identity, error)
	// IDToken returns a fresh identity token for the signed-in identity.
	IDToken(ctx context.Context) (string, error)
	SignOut(ctx context.Context) error
	// Changes delivers the identity on every auth-state change; nil means signed out.
	Changes() <-chan *domain.Identity
	Current() *domain.Identity
}

// API is the part of the backend the controller talks to.
type API interface {
	Login(ctx context.Context, idToken string) (*domain.LoginResponse, error)
	GetMe(ctx context.Context) (*domain.User, error)
}

// Event is a snapshot of the session published to subscribers.
type Event struct {
	State         domain.SessionState
	Identity      *domain.Identity
	User          *domain.User
	NeedsUsername bool
	// Err is the failure that produced this event, if any.
	Err error
}

// Username returns the best known display name for the session.
func (e Event) Username() string {
	if e.User != nil && e.User.Username != "" {
		return e.User.Username
	}
	return e.Identity.Name()
}

// Controller drives the SignedOut -> Authenticating -> SignedIn lifecycle
// and keeps the token Store in step with the provider.
type Controller struct {
	provider Provider
	api      API
	store    Store
	profiles *ProfileCache
	logger   *slog.Logger

	mu   sync.Mutex
	cur  Event
	subs []chan Event

	cancel context.CancelFunc
	done   chan struct{}
}

// NewController wires a controller. profiles may be nil.
func NewController(p Provider, api API, store Store, profiles *ProfileCache, logger *slog.Logger) *Controller {
	if profiles == nil {
		profiles = NewProfileCache("")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		provider: p,
		api:      api,
		store:    store,
		profiles: profiles,
		logger:   logger,
		cur:      Event{State: domain.SignedOut},
	}
}

// Current returns the latest session snapshot.
func (c *Controller) Current() Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// Subscribe returns a channel receiving every subsequent Event. Slow
// subscribers miss events rather than block the controller.
func (c *Controller) Subscribe() <-chan Event {
	ch := make(chan Event, 16)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()
	return ch
}

func (c *Controller) publish(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = e
	for _, ch := range c.subs {
		select {
		case ch <- e:
		default:
			c.logger.Warn("session event dropped", "state", e.State.String())
		}
	}
}

// Start follows the provider's auth-state stream until ctx ends or Close
// is called. A signed-in change runs the token exchange; a signed-out
// change clears the session.
func (c *Controller) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.mu.Lock()
	c.cancel, c.done = cancel, done
	c.mu.Unlock()

	changes := c.provider.Changes()
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case id, ok := <-changes:
				if !ok {
					return
				}
				if id == nil {
					c.clear(ctx, nil)
					continue
				}
				if err := c.exchange(ctx, id); err != nil {
					// Provider stays signed in; the session is read-only.
					c.logger.Warn("token exchange on auth change", "error", err)
				}
			}
		}
	}()
}

// Close stops the subscription started by Start and closes subscriber channels.
func (c *Controller) Close() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	c.mu.Lock()
	for _, ch := range c.subs {
		close(ch)
	}
	c.subs = nil
	c.mu.Unlock()
}

// SignIn runs the provider's interactive flow and then the token exchange.
// An exchange failure is returned with the provider left signed in.
func (c *Controller) SignIn(ctx context.Context) error {
	prev := c.Current()
	c.publish(Event{State: domain.Authenticating, Identity: prev.Identity})

	id, err := c.provider.SignIn(ctx)
	if err != nil {
		prev.Err = fmt.Errorf("session.SignIn: %w", err)
		c.publish(prev)
		return prev.Err
	}
	return c.exchange(ctx, id)
}

// exchange trades the provider's identity token for a backend session token.
func (c *Controller) exchange(ctx context.Context, id *domain.Identity) error {
	fail := func(err error) error {
		if clearErr := c.store.Clear(ctx); clearErr != nil {
			c.logger.Warn("clear session token", "error", clearErr)
		}
		err = fmt.Errorf("session.exchange: %w", err)
		c.publish(Event{State: domain.SignedIn, Identity: id, Err: err})
		return err
	}

	idToken, err := c.provider.IDToken(ctx)
	if err != nil {
		return fail(err)
	}
	resp, err := c.api.Login(ctx, idToken)
	if err != nil {
		return fail(err)
	}
	if resp.Token == "" {
		// No session was issued; a token left over from another identity
		// must not keep riding along on authenticated requests.
		if err := c.store.Clear(ctx); err != nil {
			c.logger.Warn("clear session token", "error", err)
		}
		c.publish(Event{State: domain.SignedIn, Identity: id, NeedsUsername: resp.NeedsUsername})
		return nil
	}
	if err := c.store.Set(ctx, resp.Token); err != nil {
		return fail(err)
	}

	e := Event{State: domain.SignedIn, Identity: id, User: resp.User}
	if resp.NeedsUsername {
		e.NeedsUsername = true
	} else {
		user, err := c.api.GetMe(ctx)
		switch {
		case err != nil:
			c.logger.Warn("fetch profile, assuming username is needed", "error", err)
			e.NeedsUsername = true
		case strings.TrimSpace(user.Username) == "":
			e.User = user
			e.NeedsUsername = true
		default:
			e.User = user
		}
	}
	c.applyProfile(id, &e)
	c.logger.Info("signed in", "identity", id.ID, "needs_username", e.NeedsUsername)
	c.publish(e)
	return nil
}

// applyProfile folds the locally saved username into e.
func (c *Controller) applyProfile(id *domain.Identity, e *Event) {
	pr, err := c.profiles.Get(id.ID)
	if err != nil {
		c.logger.Warn("read profile cache", "error", err)
		return
	}
	if e.NeedsUsername && pr.Username != "" {
		e.NeedsUsername = false
		if e.User == nil {
			e.User = &domain.User{}
		}
		e.User.Username = pr.Username
		return
	}
	if e.NeedsUsername {
		if err := c.profiles.MarkNeedsUsername(id.ID); err != nil {
			c.logger.Warn("write profile cache", "error", err)
		}
	}
}

// SignOut signs out of the provider and clears the session token and the
// needs-username flag. Local state is cleared even when the provider fails.
func (c *Controller) SignOut(ctx context.Context) error {
	perr := c.provider.SignOut(ctx)
	c.clear(ctx, perr)
	if perr != nil {
		return fmt.Errorf("session.SignOut: %w", perr)
	}
	return nil
}

func (c *Controller) clear(ctx context.Context, cause error) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("clear session token", "error", err)
	}
	c.publish(Event{State: domain.SignedOut, Err: cause})
}

// SetUsername saves name for the signed-in identity and clears the
// needs-username flag.
func (c *Controller) SetUsername(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyUsername
	}
	e := c.Current()
	if e.State != domain.SignedIn || e.Identity == nil {
		return ErrNotSignedIn
	}
	if err := c.profiles.SetUsername(e.Identity.ID, name); err != nil {
		return fmt.Errorf("session.SetUsername: %w", err)
	}
	user := domain.User{}
	if e.User != nil {
		user = *e.User
	}
	user.Username = name
	e.User = &user
	e.NeedsUsername = false
	e.Err = nil
	c.publish(e)
	return nil
}
