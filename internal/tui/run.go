package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/lanprobe/internal/discovery"
	"github.com/muurk/lanprobe/internal/logging"
)

// Run shows the discovery screen until the user quits or ctx is cancelled.
// The client is closed on return.
func Run(ctx context.Context, client *discovery.Client, timeout time.Duration) error {
	m := NewWatchModel(client, timeout)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	final, err := p.Run()
	if wm, ok := final.(WatchModel); ok {
		wm.shutdown()
	} else {
		_ = client.Close()
	}

	if err != nil && ctx.Err() != nil {
		logging.Debug("Discovery screen stopped by context")
		return nil
	}
	return err
}
