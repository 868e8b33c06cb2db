package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gamerscove/cove/pkg/client"
	"github.com/gamerscove/cove/pkg/domain"
	"github.com/gamerscove/cove/pkg/session"
)

// signInTimeout bounds the browser round trip of an interactive sign-in.
const signInTimeout = 5 * time.Minute

func newLoginCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with Google and store a session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := e.newProvider(func(url string) {
				e.info("Opening your browser to sign in. If nothing opens, visit:\n  %s", url)
			})
			if err != nil {
				return err
			}
			ctrl := e.newController(p)

			ctx, cancel := context.WithTimeout(cmd.Context(), signInTimeout)
			defer cancel()
			err = ctrl.SignIn(ctx)
			cur := ctrl.Current()
			if err != nil {
				if cur.State == domain.SignedIn {
					return fmt.Errorf("signed in as %s but the backend session could not be created: %s",
						cur.Identity.Name(), client.Message(err))
				}
				return err
			}

			if e.opts.output != formatTable {
				return e.render(newSessionView(cur), nil)
			}
			e.success("Signed in as %s", cur.Username())
			if cur.NeedsUsername {
				e.info("Choose a username with: cove username set <name>")
			}
			return nil
		},
	}
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := e.newProvider(nil)
			if errors.Is(err, errNoGoogleClient) {
				// Nothing to sign out of; the token still goes.
				if err := e.store.Clear(cmd.Context()); err != nil {
					return err
				}
				e.success("Signed out")
				return nil
			}
			if err != nil {
				return err
			}
			if err := e.newController(p).SignOut(cmd.Context()); err != nil {
				return err
			}
			e.success("Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the backend profile of the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := e.client.GetMe(cmd.Context())
			if client.IsUnauthorized(err) {
				return fmt.Errorf("not signed in, run `cove login`: %w", err)
			}
			if err != nil {
				return err
			}
			return e.renderUser(u)
		},
	}
}

func newUsernameCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "username",
		Short: "Manage the username shown on your reviews",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <name>",
		Short: "Save a username for the signed-in account on this machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := e.currentIdentity()
			if err != nil {
				return err
			}
			name := strings.TrimSpace(args[0])
			if name == "" {
				return session.ErrEmptyUsername
			}
			if err := session.NewProfileCache(e.cfg.ProfilesPath()).SetUsername(id.ID, name); err != nil {
				return err
			}
			e.success("Username saved successfully!")
			return nil
		},
	})
	return cmd
}

// errUsernameRequired is returned by writes while the signed-in identity
// has not picked a username yet.
var errUsernameRequired = errors.New("choose a username first: cove username set <name>")

// requireUsername fails when the current identity is marked as still
// needing a username. Signed-out callers pass; the backend rejects them.
func (e *env) requireUsername() error {
	id, err := e.currentIdentity()
	if err != nil {
		return nil
	}
	p, err := session.NewProfileCache(e.cfg.ProfilesPath()).Get(id.ID)
	if err != nil {
		return err
	}
	if p.NeedsUsername {
		return errUsernameRequired
	}
	return nil
}

// currentIdentity is the provider identity without a network round trip:
// the restored Google session, or the dev identity.
func (e *env) currentIdentity() (*domain.Identity, error) {
	if e.cfg.Dev {
		id := devIdentity
		return &id, nil
	}
	p, err := e.newProvider(nil)
	if errors.Is(err, errNoGoogleClient) {
		return nil, session.ErrNotSignedIn
	}
	if err != nil {
		return nil, err
	}
	id := p.Current()
	if id == nil {
		return nil, session.ErrNotSignedIn
	}
	return id, nil
}

// statusView is what `cove status` reports.
type statusView struct {
	APIURL     string `json:"apiUrl" yaml:"api_url"`
	Reachable  bool   `json:"reachable" yaml:"reachable"`
	Probe      string `json:"probe" yaml:"probe"`
	ConfigFile string `json:"configFile,omitempty" yaml:"config_file,omitempty"`
	Backend    string `json:"sessionBackend" yaml:"session_backend"`
	HasToken   bool   `json:"hasToken" yaml:"has_token"`
	Identity   string `json:"identity,omitempty" yaml:"identity,omitempty"`
	Dev        bool   `json:"dev" yaml:"dev"`
}

func newStatusCmd(e *env) *cobra.Command {
	var metrics bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration, session and backend reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st := statusView{
				APIURL:     e.cfg.APIURL,
				ConfigFile: e.cfg.File,
				Backend:    e.cfg.Session.Backend,
				Dev:        e.cfg.Dev,
			}
			if tok, err := e.store.Get(ctx); err == nil && tok != "" {
				st.HasToken = true
			}
			if id, err := e.currentIdentity(); err == nil {
				st.Identity = id.Name()
			}

			resp, err := e.client.Do(ctx, "GET", "/games", "")
			if err != nil {
				st.Probe = client.Message(err)
			} else {
				st.Reachable = resp.StatusCode < 500
				st.Probe = fmt.Sprintf("%s in %s", resp.Status, resp.Duration.Round(time.Millisecond))
			}

			if err := e.render(st, func(t table.Writer) {
				t.AppendRow(table.Row{"API", st.APIURL})
				t.AppendRow(table.Row{"Reachable", fmt.Sprintf("%v (%s)", st.Reachable, st.Probe)})
				cfgFile := st.ConfigFile
				if cfgFile == "" {
					cfgFile = "(defaults)"
				}
				t.AppendRow(table.Row{"Config", cfgFile})
				t.AppendRow(table.Row{"Session", fmt.Sprintf("%s, token stored: %v", st.Backend, st.HasToken)})
				ident := st.Identity
				if ident == "" {
					ident = "signed out"
				}
				if st.Dev {
					ident += " (dev mode)"
				}
				t.AppendRow(table.Row{"Identity", ident})
			}); err != nil {
				return err
			}
			if metrics {
				return e.renderMetrics()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&metrics, "metrics", false, "also print the client request metrics")
	return cmd
}

// metricRow is one sample of a gathered metric.
type metricRow struct {
	Name   string  `json:"name" yaml:"name"`
	Labels string  `json:"labels" yaml:"labels"`
	Value  float64 `json:"value" yaml:"value"`
}

func (e *env) renderMetrics() error {
	families, err := e.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	var rows []metricRow
	for _, f := range families {
		for _, m := range f.GetMetric() {
			var labels []string
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			row := metricRow{Name: f.GetName(), Labels: strings.Join(labels, ",")}
			switch {
			case m.GetCounter() != nil:
				row.Value = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				row.Name += "_count"
				row.Value = float64(m.GetHistogram().GetSampleCount())
			}
			rows = append(rows, row)
		}
	}
	return e.render(rows, func(t table.Writer) {
		t.AppendHeader(table.Row{"Metric", "Labels", "Value"})
		for _, r := range rows {
			t.AppendRow(table.Row{r.Name, r.Labels, r.Value})
		}
	})
}
