package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gamerscove/cove/pkg/client"
	"github.com/gamerscove/cove/pkg/domain"
	"github.com/gamerscove/cove/pkg/session"
)

// fakeSession records calls; it never publishes on its own.
type fakeSession struct {
	cur      session.Event
	ch       chan session.Event
	signIns  int
	signOuts int
	username string
	err      error
}

func newFakeSession() *fakeSession {
	return &fakeSession{cur: session.Event{State: domain.SignedOut}, ch: make(chan session.Event, 1)}
}

func (f *fakeSession) Current() session.Event          { return f.cur }
func (f *fakeSession) Subscribe() <-chan session.Event { return f.ch }
func (f *fakeSession) SignIn(context.Context) error    { f.signIns++; return f.err }
func (f *fakeSession) SignOut(context.Context) error   { f.signOuts++; return nil }
func (f *fakeSession) SetUsername(name string) error   { f.username = name; return f.err }

func newTestApp() App {
	a := NewApp(nil, nil)
	a.width = 80
	a.height = 30
	return a
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	model, cmd := a.Update(msg)
	return model.(App), cmd
}

func signedIn(id string) sessionMsg {
	return sessionMsg(session.Event{
		State:    domain.SignedIn,
		Identity: &domain.Identity{ID: id, DisplayName: "Ada Lovelace"},
		User:     &domain.User{ID: 7, Username: "ada"},
	})
}

func TestAppTabSwitching(t *testing.T) {
	tests := []struct {
		keys     []string
		wantView view
	}{
		{[]string{"2"}, viewReviews},
		{[]string{"3"}, viewProfile},
		{[]string{"3", "1"}, viewGames},
	}

	for _, tc := range tests {
		t.Run(strings.Join(tc.keys, ","), func(t *testing.T) {
			a := newTestApp()
			for _, k := range tc.keys {
				a, _ = update(t, a, key(k))
			}
			if a.view != tc.wantView {
				t.Errorf("after keys %v: expected view=%d, got %d", tc.keys, tc.wantView, a.view)
			}
		})
	}
}

func TestAppGlobalQuitOnQ(t *testing.T) {
	a := newTestApp()
	_, cmd := update(t, a, key("q"))
	if cmd == nil {
		t.Fatal("expected quit command on 'q', got nil")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestAppGlobalKeysIgnoredWhileSearching(t *testing.T) {
	a := newTestApp()
	a, _ = update(t, a, key("/"))
	a, _ = update(t, a, key("2"))
	if a.view != viewGames {
		t.Errorf("typing in search switched view to %d", a.view)
	}
	if a.games.search != "2" {
		t.Errorf("search = %q, want %q", a.games.search, "2")
	}
}

func TestAppOpenGameAndBack(t *testing.T) {
	a := newTestApp()
	a, cmd := update(t, a, openGameMsg{id: 2})
	if a.view != viewDetail || cmd == nil {
		t.Fatalf("view=%d cmd=%v after openGameMsg", a.view, cmd)
	}
	a, _ = update(t, a, gameLoadedMsg{id: 2, game: &domain.Game{ID: 2, Title: "Pong", ReleaseDate: "1972-11-29"}})
	if v := a.View(); !strings.Contains(v, "Pong") || !strings.Contains(v, "1972") {
		t.Errorf("detail view missing game: %q", v)
	}

	_, cmd = update(t, a, key("esc"))
	if cmd == nil {
		t.Fatal("expected a command on esc")
	}
	a, _ = update(t, a, cmd())
	if a.view != viewGames {
		t.Errorf("expected games view after esc, got %d", a.view)
	}
}

func TestAppNotFoundView(t *testing.T) {
	a := newTestApp()
	a, _ = update(t, a, openGameMsg{id: 99})
	a, _ = update(t, a, gameLoadedMsg{id: 99, err: &client.HTTPError{StatusCode: 404, Message: "Game not found"}})
	v := a.View()
	if !strings.Contains(v, "404") || !strings.Contains(v, "Page Not Found") {
		t.Errorf("expected not-found view, got %q", v)
	}
}

func TestAppSessionSignedIn(t *testing.T) {
	a := NewApp(nil, newFakeSession())
	a.width, a.height = 80, 30

	a, cmd := update(t, a, signedIn("u1"))
	if cmd == nil {
		t.Fatal("expected the session listener to be re-armed")
	}
	if !a.canWrite() {
		t.Error("expected a writable session")
	}
	if !a.detail.signedIn || !a.reviews.signedIn {
		t.Error("sub-models did not receive the session")
	}
	if a.detail.identityID != "u1" {
		t.Errorf("identityID = %q", a.detail.identityID)
	}
	if !strings.Contains(a.View(), "ada") {
		t.Error("status line should show the username")
	}
}

func TestAppReadOnlySession(t *testing.T) {
	a := NewApp(nil, newFakeSession())
	e := session.Event(signedIn("u1"))
	e.Err = errors.New("session.exchange: HTTP 500: boom")
	a, _ = update(t, a, sessionMsg(e))
	if a.canWrite() {
		t.Error("a failed exchange must not allow writes")
	}
	if a.detail.signedIn {
		t.Error("detail should treat a read-only session as signed out")
	}
	if !strings.Contains(a.View(), "read-only") {
		t.Error("status line should flag read-only mode")
	}
}

func TestAppUsernameModal(t *testing.T) {
	fs := newFakeSession()
	a := NewApp(nil, fs)
	a.width, a.height = 80, 30

	e := session.Event(signedIn("u1"))
	e.User.Username = ""
	e.NeedsUsername = true
	a, _ = update(t, a, sessionMsg(e))
	if !a.usernameOpen {
		t.Fatal("expected username modal to open")
	}

	// Global keys are captured by the modal.
	a, _ = update(t, a, key("2"))
	if a.view != viewGames {
		t.Error("modal should capture tab keys")
	}
	a, _ = update(t, a, key("backspace"))

	a, cmd := update(t, a, key("enter"))
	if cmd != nil {
		t.Error("empty username should not submit")
	}
	if !strings.Contains(a.View(), "Please enter a username") {
		t.Error("expected empty-username message")
	}

	a, _ = update(t, a, key("neo"))
	a, cmd = update(t, a, key("enter"))
	if cmd == nil {
		t.Fatal("expected save command")
	}
	a, cmd = update(t, a, cmd())
	if cmd == nil {
		t.Fatal("expected SetUsername command")
	}
	a, _ = update(t, a, cmd())
	if fs.username != "neo" {
		t.Errorf("SetUsername got %q", fs.username)
	}
	if a.usernameOpen {
		t.Error("modal should close after saving")
	}
}

func TestAppUsernameModalSaveError(t *testing.T) {
	fs := newFakeSession()
	fs.err = errors.New("disk full")
	a := NewApp(nil, fs)
	a, _ = update(t, a, openUsernameMsg{})
	a, _ = update(t, a, key("neo"))
	a, cmd := update(t, a, key("enter"))
	a, cmd = update(t, a, cmd())
	a, _ = update(t, a, cmd())
	if !a.usernameOpen || !strings.Contains(a.View(), "Error saving username") {
		t.Error("expected the modal to stay open with an error")
	}
}

func TestAppUsernameModalDismissed(t *testing.T) {
	a := NewApp(nil, newFakeSession())
	e := session.Event(signedIn("u1"))
	e.NeedsUsername = true
	a, _ = update(t, a, sessionMsg(e))

	_, cmd := update(t, a, key("esc"))
	a, _ = update(t, a, cmd())
	if a.usernameOpen {
		t.Fatal("esc should close the modal")
	}

	a, _ = update(t, a, sessionMsg(e))
	if a.usernameOpen {
		t.Error("a dismissed modal should stay closed for the same identity")
	}
}

func TestAppComposerWaitsForUsername(t *testing.T) {
	a := NewApp(nil, newFakeSession())
	a.width, a.height = 80, 30
	e := session.Event(signedIn("u1"))
	e.User.Username = ""
	e.NeedsUsername = true
	a, _ = update(t, a, sessionMsg(e))

	_, cmd := update(t, a, key("esc"))
	a, _ = update(t, a, cmd())
	a, _ = update(t, a, openGameMsg{id: 1})
	a, _ = update(t, a, gameLoadedMsg{id: 1, game: &domain.Game{ID: 1, Title: "Celeste"}})

	a, cmd = update(t, a, key("w"))
	if a.detail.composing {
		t.Fatal("the composer opened before a username was chosen")
	}
	if cmd == nil {
		t.Fatal("expected a toast")
	}
	if got, ok := cmd().(toastMsg); !ok || !strings.Contains(got.text, "press u") {
		t.Errorf("got %#v", cmd())
	}

	a, _ = update(t, a, key("2"))
	a, _ = update(t, a, pickerGamesMsg{games: []domain.Game{{ID: 1, Title: "Celeste"}}})
	a, _ = update(t, a, key("w"))
	if a.reviews.composing {
		t.Error("the reviews page composer opened before a username was chosen")
	}
	if !strings.Contains(a.View(), "Choose a username to write a review.") {
		t.Errorf("reviews page should explain the lock:\n%s", a.View())
	}

	// u reopens the modal from any tab.
	a, cmd = update(t, a, key("u"))
	a, _ = update(t, a, cmd())
	if !a.usernameOpen {
		t.Fatal("u should reopen the username modal")
	}

	e.NeedsUsername = false
	e.User = &domain.User{ID: 7, Username: "madeline"}
	a, _ = update(t, a, sessionMsg(e))
	a, _ = update(t, a, key("w"))
	if !a.reviews.composing {
		t.Error("the composer should open once the username is set")
	}
}

func TestAppSignInFlow(t *testing.T) {
	fs := newFakeSession()
	a := NewApp(nil, fs)
	a.width, a.height = 80, 30

	a, _ = update(t, a, key("i"))
	if a.view != viewLogin {
		t.Fatalf("expected login view, got %d", a.view)
	}
	if !strings.Contains(a.View(), "Sign in with Google") {
		t.Error("login view missing sign-in control")
	}

	a, cmd := update(t, a, key("enter"))
	a, cmd = update(t, a, cmd())
	if a.login.state != domain.Authenticating {
		t.Errorf("login state = %v", a.login.state)
	}
	if !strings.Contains(a.View(), "Signing in...") {
		t.Error("expected a busy sign-in control")
	}
	a, _ = update(t, a, cmd())
	if fs.signIns != 1 {
		t.Errorf("SignIn called %d times", fs.signIns)
	}

	a, _ = update(t, a, signedIn("u1"))
	if a.view != viewGames {
		t.Errorf("expected to return to games after sign-in, got %d", a.view)
	}
}

func TestAppSignInFailure(t *testing.T) {
	fs := newFakeSession()
	fs.err = errors.New("consent denied")
	a := NewApp(nil, fs)
	a, _ = update(t, a, key("i"))
	a, cmd := update(t, a, key("enter"))
	a, cmd = update(t, a, cmd())
	a, _ = update(t, a, cmd())
	if a.login.state != domain.SignedOut {
		t.Errorf("login state = %v, want signed out", a.login.state)
	}
	if !strings.Contains(a.View(), "consent denied") {
		t.Error("expected the failure on the login view")
	}
}

func TestAppSignOut(t *testing.T) {
	fs := newFakeSession()
	a := NewApp(nil, fs)
	a, _ = update(t, a, signedIn("u1"))

	_, cmd := update(t, a, key("o"))
	if cmd == nil {
		t.Fatal("expected sign-out command")
	}
	msg := cmd()
	if _, ok := msg.(signOutResultMsg); !ok {
		t.Fatalf("got %T", msg)
	}
	if fs.signOuts != 1 {
		t.Errorf("SignOut called %d times", fs.signOuts)
	}
}

func TestAppSignInWithoutSession(t *testing.T) {
	a := newTestApp()
	_, cmd := update(t, a, signInMsg{})
	msg, ok := cmd().(toastMsg)
	if !ok || !msg.isErr {
		t.Errorf("expected an error toast, got %#v", msg)
	}
}

func TestAppToastExpires(t *testing.T) {
	a := newTestApp()
	a, cmd := update(t, a, toastMsg{text: "Review submitted successfully!"})
	if cmd == nil {
		t.Fatal("expected expiry tick")
	}
	if !strings.Contains(a.View(), "Review submitted successfully!") {
		t.Error("toast not shown")
	}

	a, _ = update(t, a, toastExpiredMsg{seq: a.toastSeq - 1})
	if a.toast.text == "" {
		t.Error("a stale expiry must not clear a newer toast")
	}
	a, _ = update(t, a, toastExpiredMsg{seq: a.toastSeq})
	if a.toast.text != "" {
		t.Error("toast should clear")
	}
}

func TestAppHelpOverlay(t *testing.T) {
	a := newTestApp()
	a, _ = update(t, a, key("?"))
	if !a.helpOpen || !strings.Contains(a.View(), "Commands") {
		t.Fatal("expected help overlay")
	}
	a, _ = update(t, a, key("2"))
	if a.view != viewGames {
		t.Error("help overlay should capture keys")
	}
	a, _ = update(t, a, key("esc"))
	if a.helpOpen {
		t.Error("esc should close help")
	}
}

func TestAppRoutesDataToHiddenViews(t *testing.T) {
	a := newTestApp()
	a, _ = update(t, a, key("3"))
	a, _ = update(t, a, gamesLoadedMsg{games: []domain.Game{{ID: 1, Title: "Zelda"}}})
	if len(a.games.games) != 1 || a.games.loading {
		t.Error("games model missed its data while hidden")
	}
}

func TestAppCopyResultToast(t *testing.T) {
	a := newTestApp()
	_, cmd := update(t, a, copyResultMsg{what: "title"})
	if msg := cmd().(toastMsg); msg.text != "copied title!" || msg.isErr {
		t.Errorf("got %#v", msg)
	}
	_, cmd = update(t, a, copyResultMsg{err: errors.New("no clipboard")})
	if msg := cmd().(toastMsg); !msg.isErr {
		t.Errorf("got %#v", msg)
	}
}

func TestAppViewFitsHeight(t *testing.T) {
	a := newTestApp()
	games := make([]domain.Game, 40)
	for i := range games {
		games[i] = domain.Game{ID: int64(i + 1), Title: "Game"}
	}
	a, _ = update(t, a, tea.WindowSizeMsg{Width: 80, Height: 20})
	a, _ = update(t, a, gamesLoadedMsg{games: games})
	if n := strings.Count(a.View(), "\n") + 1; n > 20 {
		t.Errorf("view is %d lines, terminal is 20", n)
	}
}
