package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/roadmap/internal/roadmap"
)

// Run shows the roadmap in the alternate screen until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, store *roadmap.Store) error {
	model := NewModel(store)
	defer model.Close()

	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
