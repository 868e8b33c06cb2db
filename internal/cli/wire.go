package cli

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gamerscove/cove/internal/config"
	"github.com/gamerscove/cove/internal/identity"
	"github.com/gamerscove/cove/pkg/client"
	"github.com/gamerscove/cove/pkg/domain"
	"github.com/gamerscove/cove/pkg/session"
)

// devIdentity is the account dev mode signs in as. Its id matches the
// first user the dev backend seeds, so ownership labels line up.
var devIdentity = domain.Identity{ID: "1", DisplayName: "Dev Player", Email: "dev@gamerscove.local"}

// devIDToken is the identity token the dev backend maps to devIdentity.
const devIDToken = "dev"

var errNoGoogleClient = errors.New("google.client_id is not configured; set COVE_GOOGLE_CLIENT_ID or enable dev mode")

func (e *env) newStore() (session.Store, error) {
	s := e.cfg.Session
	switch s.Backend {
	case config.BackendMemory:
		return session.NewMemoryStore(), nil
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: s.RedisAddr})
		return session.NewRedisStore(rdb, s.RedisKey, 0), nil
	case config.BackendFile:
		return session.NewFileStore(e.cfg.SessionPath()), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", s.Backend)
	}
}

func (e *env) newClient() *client.Client {
	return client.New(e.cfg.APIURL, e.store,
		client.WithRateLimit(e.cfg.RateLimit, 1),
		client.WithMetrics(client.NewMetrics(e.registry)),
		client.WithLogger(e.logger),
		client.WithHeader("User-Agent", applicationName+"/"+e.version),
	)
}

// newProvider returns the identity provider for this run. onAuthURL is
// told the Google consent URL; it may be nil. A persisted Google session
// is restored, which replays it as a signed-in change.
func (e *env) newProvider(onAuthURL func(string)) (session.Provider, error) {
	if e.cfg.Dev {
		id := devIdentity
		return identity.NewStatic(&id, devIDToken), nil
	}
	if e.cfg.Google.ClientID == "" {
		return nil, errNoGoogleClient
	}
	g := identity.NewGoogle(identity.GoogleConfig{
		ClientID:     e.cfg.Google.ClientID,
		ClientSecret: e.cfg.Google.ClientSecret,
		StatePath:    e.cfg.ProviderPath(),
		OnAuthURL:    onAuthURL,
		Logger:       e.logger.With("component", "identity"),
	})
	if _, err := g.Restore(); err != nil {
		e.logger.Warn("restore provider session", "error", err)
	}
	return g, nil
}

func (e *env) newController(p session.Provider) *session.Controller {
	return session.NewController(p, e.client, e.store,
		session.NewProfileCache(e.cfg.ProfilesPath()), e.logger.With("component", "session"))
}
