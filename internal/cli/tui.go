package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gamerscove/cove/internal/tui"
)

// runTUI launches the full-screen browser. Without a configured provider
// the TUI still runs, signed out, with sign-in disabled.
func (e *env) runTUI(ctx context.Context) error {
	var prog *tea.Program
	provider, err := e.newProvider(func(url string) {
		if prog != nil {
			prog.Send(tui.AuthURLMsg(url))
		}
	})
	if err != nil && !errors.Is(err, errNoGoogleClient) {
		return err
	}

	var sess tui.Session
	if provider != nil {
		ctrl := e.newController(provider)
		ctrl.Start(ctx)
		defer ctrl.Close()
		sess = ctrl
	} else {
		e.logger.Info("sign-in disabled", "reason", err)
	}

	prog = tea.NewProgram(tui.NewApp(e.client, sess), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
