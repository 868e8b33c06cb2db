// Package cli provides the cove command line: the TUI launcher plus
// scriptable commands for the catalog, reviews and the session.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gamerscove/cove/internal/config"
	"github.com/gamerscove/cove/internal/logging"
	"github.com/gamerscove/cove/pkg/client"
	"github.com/gamerscove/cove/pkg/session"
)

const applicationName = "cove"

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	apiURL     string
	output     string
	verbose    bool
}

// env is the state built once per invocation before a command runs.
type env struct {
	version string
	opts    options
	out     io.Writer
	errOut  io.Writer

	// isTerminal reports whether out is an interactive terminal.
	isTerminal func() bool

	cfg      *config.Config
	logger   *slog.Logger
	closer   io.Closer
	registry *prometheus.Registry
	store    session.Store
	client   *client.Client
}

// Execute runs the root command with the process arguments.
func Execute(version string) error {
	e := &env{version: version}
	defer e.teardown()
	return newRootCmd(e).Execute()
}

// newRootCmd builds the command tree around e.
func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   applicationName,
		Short: "Gamers Cove - browse games and share reviews from your terminal",
		Long: `cove is a terminal client for Gamers Cove.

Run it without arguments to open the interactive browser. The subcommands
cover the same ground for scripts: the game catalog, reviews, your session
and a raw API tester.`,
		Version:       e.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !e.isTerminal() {
				// Piped output gets the catalog instead of a full-screen UI.
				return e.renderGames(e.client.ListGames(cmd.Context(), ""))
			}
			return e.runTUI(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&e.opts.configPath, "config", "", "config file (default is ~/.cove/config.yaml)")
	flags.StringVar(&e.opts.apiURL, "api-url", "", "backend API root (overrides api_url)")
	flags.StringVarP(&e.opts.output, "output", "o", formatTable, "output format (table, json, yaml)")
	flags.BoolVarP(&e.opts.verbose, "verbose", "v", false, "log to stderr as well as the log file")

	root.AddCommand(
		newLoginCmd(e),
		newLogoutCmd(e),
		newStatusCmd(e),
		newWhoamiCmd(e),
		newUsernameCmd(e),
		newGamesCmd(e),
		newReviewsCmd(e),
		newAPICmd(e),
		newDevServerCmd(e),
		newVersionCmd(e),
	)
	return root
}

// setup loads configuration and builds the logger, token store and client.
func (e *env) setup(cmd *cobra.Command) error {
	e.out = cmd.OutOrStdout()
	e.errOut = cmd.ErrOrStderr()
	if e.isTerminal == nil {
		e.isTerminal = func() bool {
			f, ok := e.out.(*os.File)
			return ok && term.IsTerminal(int(f.Fd()))
		}
	}

	e.opts.output = strings.ToLower(e.opts.output)
	switch e.opts.output {
	case formatTable, formatJSON, formatYAML, formatYML:
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", e.opts.output)
	}

	cfg, err := config.Load(config.Options{Path: e.opts.configPath})
	if err != nil {
		return err
	}
	if e.opts.apiURL != "" {
		cfg.APIURL = e.opts.apiURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	e.cfg = cfg

	logger, closer, err := logging.Setup(cfg.Log.File, cfg.Log.Level, e.opts.verbose, e.errOut)
	if err != nil {
		return err
	}
	e.logger, e.closer = logger, closer
	e.logger.Debug("config loaded", "file", cfg.File, "api_url", cfg.APIURL, "session_backend", cfg.Session.Backend)

	store, err := e.newStore()
	if err != nil {
		return err
	}
	e.store = store
	e.registry = prometheus.NewRegistry()
	e.client = e.newClient()
	return nil
}

// teardown releases the log file.
func (e *env) teardown() {
	if e.closer != nil {
		_ = e.closer.Close() //nolint:errcheck // best-effort on exit
		e.closer = nil
	}
}

func newVersionCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cove version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			fmt.Fprintln(e.out, applicationName+" "+e.version)
			return nil
		},
	}
}
