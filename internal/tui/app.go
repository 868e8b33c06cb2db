package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gamerscove/cove/pkg/client"
	"github.com/gamerscove/cove/pkg/domain"
	"github.com/gamerscove/cove/pkg/session"
)

type view int

const (
	viewGames view = iota
	viewReviews
	viewProfile
	viewDetail
	viewLogin
)

// signInTimeout bounds the interactive browser flow.
const signInTimeout = 5 * time.Minute

// toastDuration is how long a toast stays on screen.
const toastDuration = 4 * time.Second

// Session is the part of the session controller the TUI drives.
type Session interface {
	Current() session.Event
	Subscribe() <-chan session.Event
	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error
	SetUsername(name string) error
}

// sessionMsg delivers a controller event.
type sessionMsg session.Event

type signInResultMsg struct{ err error }
type signOutResultMsg struct{ err error }

type toastExpiredMsg struct{ seq int }

// App is the root Bubbletea model.
type App struct {
	client   *client.Client
	sess     Session
	events   <-chan session.Event
	session  session.Event
	view     view
	prev     view // where esc returns to from login and detail
	games    gamesModel
	detail   detailModel
	reviews  reviewsModel
	profile  profileModel
	login    loginModel
	username usernameModel

	usernameOpen bool
	// dismissed holds identities that closed the username modal this run.
	dismissed map[string]bool
	helpOpen  bool

	toast    toastMsg
	toastSeq int

	width  int
	height int
	frame  int // logo shimmer animation frame
}

// NewApp creates a new TUI application. s may be nil, in which case the
// app runs signed out.
func NewApp(c *client.Client, s Session) App {
	a := App{
		client:    c,
		sess:      s,
		games:     newGamesModel(c),
		reviews:   newReviewsModel(c),
		profile:   newProfileModel(c),
		dismissed: make(map[string]bool),
		session:   session.Event{State: domain.SignedOut},
	}
	if s != nil {
		a.events = s.Subscribe()
		a.session = s.Current()
	}
	a.applySession()
	a.profile, _ = a.profile.setSession(a.session)
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.games.Init(), shimmerTickCmd(), waitForSession(a.events), a.profile.Init())
}

// waitForSession reads the next controller event; it is re-armed after
// every delivery.
func waitForSession(ch <-chan session.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return sessionMsg(e)
	}
}

// chooseUsernameFirst is shown when a write is attempted before the
// needs-username step is done.
const chooseUsernameFirst = "Choose a username first (press u)"

// canWrite reports whether the backend session is usable for writes.
// A pending username only closes the composer; see setSession.
func (a App) canWrite() bool {
	return a.session.State == domain.SignedIn && a.session.Err == nil
}

func (a App) identityID() string {
	if a.session.Identity == nil {
		return ""
	}
	return a.session.Identity.ID
}

// applySession pushes the current snapshot into the sub-models.
func (a *App) applySession() {
	a.login.state = a.session.State
	a.detail.setSession(a.identityID(), a.canWrite(), a.session.NeedsUsername)
	a.reviews.setSession(a.identityID(), a.canWrite(), a.session.NeedsUsername)
	a.profile.session = a.session
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + toast(1) + help(1) = 5 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 5}
		a.games, _ = a.games.Update(bodyMsg)
		a.detail, _ = a.detail.Update(bodyMsg)
		a.reviews, _ = a.reviews.Update(bodyMsg)
		a.profile, _ = a.profile.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case sessionMsg:
		return a.onSession(session.Event(msg))

	case signInMsg:
		if a.sess == nil {
			return a, toastCmd("Sign-in is not configured", true)
		}
		a.login.state = domain.Authenticating
		s := a.sess
		return a, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), signInTimeout)
			defer cancel()
			return signInResultMsg{err: s.SignIn(ctx)}
		}

	case signInResultMsg:
		if msg.err != nil {
			a.login.err = msg.err
			if a.login.state == domain.Authenticating {
				a.login.state = a.session.State
				if a.login.state == domain.Authenticating {
					a.login.state = domain.SignedOut
				}
			}
		}
		return a, nil

	case signOutResultMsg:
		if msg.err != nil {
			return a, toastCmd("Sign-out: "+client.Message(msg.err), true)
		}
		return a, toastCmd("Signed out", false)

	case AuthURLMsg:
		a.login, _ = a.login.Update(msg)
		return a, nil

	case closeLoginMsg:
		a.view = a.prev
		return a, nil

	case openGameMsg:
		if a.view != viewDetail {
			a.prev = a.view
		}
		a.detail = newDetailModel(a.client, msg.id)
		a.detail.width, a.detail.height = a.width, a.height-5
		a.detail.setSession(a.identityID(), a.canWrite(), a.session.NeedsUsername)
		a.view = viewDetail
		return a, a.detail.Init()

	case closeDetailMsg:
		a.view = a.prev
		if a.view == viewDetail || a.view == viewLogin {
			a.view = viewGames
		}
		return a, nil

	case toastMsg:
		a.toast = msg
		a.toastSeq++
		seq := a.toastSeq
		return a, tea.Tick(toastDuration, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })

	case toastExpiredMsg:
		if msg.seq == a.toastSeq {
			a.toast = toastMsg{}
		}
		return a, nil

	case copyResultMsg:
		if msg.err != nil {
			return a, toastCmd(fmt.Sprintf("copy failed: %v", msg.err), true)
		}
		return a, toastCmd("copied "+msg.what+"!", false)

	case openUsernameMsg:
		a.usernameOpen = true
		a.username = usernameModel{}
		return a, nil

	case saveUsernameMsg:
		if a.sess == nil {
			a.username.saving = false
			a.username.statusMsg = "Error saving username"
			return a, nil
		}
		s, name := a.sess, msg.name
		return a, func() tea.Msg { return usernameSavedMsg{name: name, err: s.SetUsername(name)} }

	case usernameSavedMsg:
		a.username.saving = false
		if msg.err != nil {
			a.username.statusMsg = "Error saving username"
			return a, nil
		}
		a.usernameOpen = false
		return a, toastCmd("Username saved successfully!", false)

	case closeUsernameMsg:
		a.usernameOpen = false
		if id := a.identityID(); id != "" {
			a.dismissed[id] = true
		}
		return a, nil

	// Data messages go to their owner whatever view is showing.
	case gamesLoadedMsg:
		var cmd tea.Cmd
		a.games, cmd = a.games.Update(msg)
		return a, cmd
	case gameLoadedMsg, gameReviewsMsg, reviewCreatedMsg:
		var cmd tea.Cmd
		a.detail, cmd = a.detail.Update(msg)
		return a, cmd
	case pickerGamesMsg, pickerReviewsMsg, pickerReviewCreatedMsg:
		var cmd tea.Cmd
		a.reviews, cmd = a.reviews.Update(msg)
		return a, cmd
	case profileReviewsMsg:
		var cmd tea.Cmd
		a.profile, cmd = a.profile.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		// Help overlay captures all keys when open
		if a.helpOpen {
			switch msg.String() {
			case "?", "esc":
				a.helpOpen = false
			case "q":
				return a, tea.Quit
			}
			return a, nil
		}

		// Username modal captures all keys when open
		if a.usernameOpen {
			var cmd tea.Cmd
			a.username, cmd = a.username.Update(msg)
			return a, cmd
		}

		// Global keys (only when not editing)
		if !a.isEditing() {
			switch msg.String() {
			case "?":
				a.helpOpen = true
				return a, nil
			case "q":
				return a, tea.Quit
			case "1":
				return a.switchTo(viewGames)
			case "2":
				return a.switchTo(viewReviews)
			case "3":
				return a.switchTo(viewProfile)
			case "i":
				if a.session.State == domain.SignedIn {
					return a, toastCmd("Already signed in as "+a.session.Username(), false)
				}
				if a.view != viewLogin {
					a.prev = a.view
					a.view = viewLogin
				}
				return a, nil
			case "u":
				if a.session.State == domain.SignedIn {
					return a, func() tea.Msg { return openUsernameMsg{} }
				}
				return a, nil
			case "o":
				if a.session.State != domain.SignedIn || a.sess == nil {
					return a, nil
				}
				s := a.sess
				return a, func() tea.Msg { return signOutResultMsg{err: s.SignOut(context.Background())} }
			}
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewGames:
		a.games, cmd = a.games.Update(msg)
	case viewReviews:
		a.reviews, cmd = a.reviews.Update(msg)
	case viewProfile:
		a.profile, cmd = a.profile.Update(msg)
	case viewDetail:
		a.detail, cmd = a.detail.Update(msg)
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	}
	return a, cmd
}

func (a App) switchTo(v view) (tea.Model, tea.Cmd) {
	if a.view == v {
		return a, nil
	}
	a.view = v
	switch v {
	case viewGames:
		return a, a.games.Init()
	case viewReviews:
		return a, a.reviews.Init()
	case viewProfile:
		return a, a.profile.Init()
	}
	return a, nil
}

func (a App) onSession(e session.Event) (tea.Model, tea.Cmd) {
	prev := a.session
	a.session = e
	a.applySession()

	cmds := []tea.Cmd{waitForSession(a.events)}
	var cmd tea.Cmd
	a.profile, cmd = a.profile.setSession(e)
	cmds = append(cmds, cmd)

	switch e.State {
	case domain.SignedIn:
		if e.Err != nil {
			a.login.err = e.Err
			cmds = append(cmds, toastCmd("Signed in read-only: "+client.Message(e.Err), true))
			break
		}
		a.login.err = nil
		if a.view == viewLogin {
			a.view = a.prev
		}
		if prev.State != domain.SignedIn {
			cmds = append(cmds, toastCmd("Signed in as "+e.Username(), false))
		}
		if e.NeedsUsername && !a.dismissed[a.identityID()] {
			if !a.usernameOpen {
				a.username = usernameModel{}
			}
			a.usernameOpen = true
		} else if !e.NeedsUsername {
			a.usernameOpen = false
		}
	case domain.SignedOut:
		a.usernameOpen = false
		if e.Err != nil {
			a.login.err = e.Err
		}
	}
	return a, tea.Batch(cmds...)
}

func (a App) isEditing() bool {
	switch a.view {
	case viewGames:
		return a.games.editing || a.games.jumping
	case viewReviews:
		return a.reviews.editing || a.reviews.composing
	case viewDetail:
		return a.detail.composing
	}
	return false
}

func (a App) statusLine() string {
	switch a.session.State {
	case domain.Authenticating:
		return dimStyle.Render("signing in...")
	case domain.SignedIn:
		s := accentStyle.Render("●") + " " + normalStyle.Render(clean(a.session.Username()))
		if a.session.Err != nil {
			s += " " + errorStyle.Render("(read-only)")
		}
		return s
	default:
		return metaStyle.Render("signed out · press i to sign in")
	}
}

func (a App) View() string {
	logo := renderShimmerLogo(a.frame)
	logoPad := max((a.width-lipgloss.Width(logo))/2, 0)
	header := strings.Repeat(" ", logoPad) + logo

	status := a.statusLine()
	statusPad := max((a.width-lipgloss.Width(status))/2, 0)
	header += "\n" + strings.Repeat(" ", statusPad) + status

	type tabEntry struct {
		key  string
		name string
		v    view
	}
	tabs := []tabEntry{
		{"1", "Games", viewGames},
		{"2", "Reviews", viewReviews},
		{"3", "Profile", viewProfile},
	}
	current := a.view
	if current == viewDetail || current == viewLogin {
		current = a.prev
	}
	colWidth := a.width / len(tabs)
	var tabBar strings.Builder
	for _, t := range tabs {
		var label string
		if t.v == current {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		labelWidth := lipgloss.Width(label)
		leftPad := max((colWidth-labelWidth)/2, 0)
		rightPad := max(colWidth-labelWidth-leftPad, 0)
		tabBar.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
	}

	var body, help string
	switch a.view {
	case viewGames:
		body = a.games.View()
		switch {
		case a.games.editing:
			help = " " + helpEntry("enter", "search") + "  " + helpEntry("esc", "clear")
		case a.games.jumping:
			help = " " + helpEntry("0-9", "id") + "  " + helpEntry("enter", "open") + "  " + helpEntry("esc", "cancel")
		default:
			help = " " + helpEntry("1-3", "tabs") + "  " + helpEntry("j/k", "nav") + "  " + helpEntry("enter", "open") + "  " + helpEntry("/", "search") + "  " + helpEntry("g", "go to id") + "  " + helpEntry("r", "refresh") + "  " + helpEntry("?", "help") + "  " + helpEntry("q", "quit")
		}
	case viewReviews:
		body = a.reviews.View()
		switch {
		case a.reviews.composing:
			help = composerHelp()
		case a.reviews.editing:
			help = " " + helpEntry("enter", "done") + "  " + helpEntry("esc", "clear")
		default:
			help = " " + helpEntry("1-3", "tabs") + "  " + helpEntry("j/k", "nav") + "  " + helpEntry("enter", "select") + "  " + helpEntry("w", "write") + "  " + helpEntry("/", "search") + "  " + helpEntry("r", "refresh") + "  " + helpEntry("?", "help")
		}
	case viewProfile:
		body = a.profile.View()
		help = " " + helpEntry("1-3", "tabs") + "  " + helpEntry("r", "refresh") + "  " + helpEntry("u", "username") + "  " + helpEntry("i/o", "sign in/out") + "  " + helpEntry("?", "help") + "  " + helpEntry("q", "quit")
	case viewDetail:
		body = a.detail.View()
		if a.detail.composing {
			help = composerHelp()
		} else {
			help = " " + helpEntry("esc", "back") + "  " + helpEntry("j/k", "reviews") + "  " + helpEntry("w", "write") + "  " + helpEntry("c", "copy") + "  " + helpEntry("r", "refresh") + "  " + helpEntry("?", "help")
		}
	case viewLogin:
		body = a.login.View()
		help = " " + helpEntry("enter", "sign in") + "  " + helpEntry("esc", "back")
	}

	if a.usernameOpen {
		body = "\n" + a.username.View(a.width) + "\n" + body
		help = " " + helpEntry("enter", "save") + "  " + helpEntry("esc", "later")
	}

	if a.helpOpen {
		body = helpView()
		help = " " + helpEntry("esc", "close")
	}

	toast := ""
	if a.toast.text != "" {
		if a.toast.isErr {
			toast = " " + errorStyle.Render(a.toast.text)
		} else {
			toast = " " + successStyle.Render(a.toast.text)
		}
	}

	// Chrome budget: header(2) + tabs(1) + toast(1) + help(1) = 5 lines + body
	chrome := 5
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, tabBar.String(), body, toast, help)
}

func composerHelp() string {
	return " " + helpEntry("tab", "next") + "  " + helpEntry("1-5 h/l", "rating") + "  " + helpEntry("space", "visibility") + "  " + helpEntry("ctrl+s", "submit") + "  " + helpEntry("esc", "cancel")
}
