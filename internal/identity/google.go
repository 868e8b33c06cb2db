package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/gamerscove/cove/internal/browser"
	"github.com/gamerscove/cove/pkg/domain"
	"github.com/gamerscove/cove/pkg/session"
)

// GoogleConfig configures the Google provider.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	// StatePath persists the provider session between runs. Empty keeps it in memory.
	StatePath string
	// Endpoint defaults to Google's OAuth endpoints.
	Endpoint oauth2.Endpoint
	// ListenAddr is the loopback address for the redirect. Defaults to 127.0.0.1:0.
	ListenAddr string
	// OpenURL opens the consent page. Defaults to browser.Open.
	OpenURL func(string) error
	// OnAuthURL, when set, is told the consent URL so it can be shown
	// to the user in case no browser opens.
	OnAuthURL func(string)
	Logger    *slog.Logger
}

// savedSession is the provider session persisted at StatePath.
type savedSession struct {
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
}

// Google signs in with Google using the authorization-code flow on a
// loopback redirect. The identity token is the id_token of the grant.
type Google struct {
	conf      oauth2.Config
	statePath string
	listen    string
	open      func(string) error
	onURL     func(string)
	logger    *slog.Logger
	notify    notifier
	now       func() time.Time

	mu       sync.Mutex
	session  savedSession
	identity *domain.Identity
}

// NewGoogle creates a signed-out Google provider.
func NewGoogle(cfg GoogleConfig) *Google {
	if cfg.Endpoint.TokenURL == "" {
		cfg.Endpoint = endpoints.Google
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:0"
	}
	if cfg.OpenURL == nil {
		cfg.OpenURL = browser.Open
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Google{
		conf: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     cfg.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		statePath: cfg.StatePath,
		listen:    cfg.ListenAddr,
		open:      cfg.OpenURL,
		onURL:     cfg.OnAuthURL,
		logger:    cfg.Logger,
		notify:    newNotifier(),
		now:       time.Now,
	}
}

type callbackResult struct {
	code string
	err  error
}

// SignIn opens the consent page and waits for the redirect.
func (g *Google) SignIn(ctx context.Context) (*domain.Identity, error) {
	if g.conf.ClientID == "" {
		return nil, errors.New("identity.Google: google.client_id is not configured")
	}
	ln, err := net.Listen("tcp", g.listen)
	if err != nil {
		return nil, fmt.Errorf("identity.Google: listen: %w", err)
	}
	conf := g.conf
	conf.RedirectURL = fmt.Sprintf("http://%s/callback", ln.Addr().String())

	state := uuid.NewString()
	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackRouter(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go srv.Serve(ln) //nolint:errcheck // returns ErrServerClosed on shutdown
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck,contextcheck
	}()

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "select_account"))
	if g.onURL != nil {
		g.onURL(authURL)
	}
	if err := g.open(authURL); err != nil {
		g.logger.Warn("open browser", "error", err)
	}

	var res callbackResult
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("identity.Google: %w", ctx.Err())
	case res = <-results:
	}
	if res.err != nil {
		return nil, fmt.Errorf("identity.Google: %w", res.err)
	}

	tok, err := conf.Exchange(ctx, res.code)
	if err != nil {
		return nil, fmt.Errorf("identity.Google: exchange code: %w", err)
	}
	idTok, _ := tok.Extra("id_token").(string)
	if idTok == "" {
		return nil, errors.New("identity.Google: grant has no id_token")
	}
	id, err := ParseIDToken(idTok)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.session = savedSession{RefreshToken: tok.RefreshToken, IDToken: idTok}
	g.identity = id
	sess := g.session
	g.mu.Unlock()
	g.persist(sess)

	g.logger.Info("google sign-in", "subject", id.ID)
	g.notify.emit(id)
	return id, nil
}

// callbackRouter serves the loopback redirect and reports the code once.
func callbackRouter(state string, results chan<- callbackResult) http.Handler {
	var once sync.Once
	report := func(res callbackResult) {
		once.Do(func() { results <- res })
	}
	r := chi.NewRouter()
	r.Get("/callback", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		case q.Get("error") != "":
			report(callbackResult{err: fmt.Errorf("sign-in denied: %s", q.Get("error"))})
			fmt.Fprintln(w, "Sign-in was cancelled. You can close this window.") //nolint:errcheck
			return
		case q.Get("code") == "":
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		report(callbackResult{code: q.Get("code")})
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "Signed in to Gamers Cove. You can close this window.") //nolint:errcheck
	})
	return r
}

// IDToken returns the current identity token, refreshing it when it is
// about to expire.
func (g *Google) IDToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	sess := g.session
	g.mu.Unlock()
	if sess.IDToken == "" && sess.RefreshToken == "" {
		return "", ErrSignedOut
	}
	if tokenFresh(sess.IDToken, g.now()) {
		return sess.IDToken, nil
	}
	if sess.RefreshToken == "" {
		return "", fmt.Errorf("identity.Google: id token expired and no refresh token: %w", ErrSignedOut)
	}

	tok, err := g.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: sess.RefreshToken}).Token()
	if err != nil {
		return "", fmt.Errorf("identity.Google: refresh: %w", err)
	}
	idTok, _ := tok.Extra("id_token").(string)
	if idTok == "" {
		return "", errors.New("identity.Google: refresh returned no id_token")
	}
	id, err := ParseIDToken(idTok)
	if err != nil {
		return "", err
	}

	g.mu.Lock()
	g.session.IDToken = idTok
	if tok.RefreshToken != "" {
		g.session.RefreshToken = tok.RefreshToken
	}
	g.identity = id
	sess = g.session
	g.mu.Unlock()
	g.persist(sess)
	return idTok, nil
}

// Restore loads a persisted provider session and, when one exists,
// reports the identity as a signed-in change.
func (g *Google) Restore() (*domain.Identity, error) {
	if g.statePath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(g.statePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("identity.Google: restore: %w", err)
	}
	var sess savedSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("identity.Google: restore: %w", err)
	}
	if sess.IDToken == "" {
		return nil, nil
	}
	id, err := ParseIDToken(sess.IDToken)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.session = sess
	g.identity = id
	g.mu.Unlock()
	g.notify.emit(id)
	return id, nil
}

// SignOut forgets the provider session.
func (g *Google) SignOut(context.Context) error {
	g.mu.Lock()
	g.session = savedSession{}
	g.identity = nil
	g.mu.Unlock()
	g.notify.emit(nil)
	if g.statePath == "" {
		return nil
	}
	if err := os.Remove(g.statePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("identity.Google: sign out: %w", err)
	}
	return nil
}

// Changes delivers the identity on sign-in or restore and nil on sign-out.
func (g *Google) Changes() <-chan *domain.Identity { return g.notify.ch }

// Current returns the signed-in identity or nil.
func (g *Google) Current() *domain.Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.identity
}

func (g *Google) persist(sess savedSession) {
	if g.statePath == "" {
		return
	}
	data, err := json.Marshal(sess)
	if err == nil {
		err = session.WritePrivate(g.statePath, data)
	}
	if err != nil {
		g.logger.Warn("persist provider session", "error", err)
	}
}
