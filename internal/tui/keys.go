package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the roadmap TUI.
type KeyMap struct {
	// Navigation.
	Up     key.Binding
	Down   key.Binding
	Select key.Binding

	// Node mutations on the highlighted row.
	CycleStatus    key.Binding
	ToggleFavorite key.Binding
	MoveUp         key.Binding // Swap with the node above in display order.
	MoveDown       key.Binding
	Next           key.Binding // Start the next recommended node.

	// Search.
	SearchActivate  key.Binding
	SearchCancel    key.Binding
	SearchAccept    key.Binding
	FavoritesFilter key.Binding // Toggle is:fav in the stored query.

	// Preferences.
	ViewMode    key.Binding
	Compact     key.Binding
	Theme       key.Binding
	AccentColor key.Binding

	// Reset asks for confirmation; Confirm answers it.
	Reset   key.Binding
	Confirm key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set. Vim-style j/k navigation
// alongside arrow keys; capitals for the heavier actions.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "open"),
	),
	CycleStatus: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "status"),
	),
	ToggleFavorite: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "favorite"),
	),
	MoveUp: key.NewBinding(
		key.WithKeys("K"),
		key.WithHelp("K", "move up"),
	),
	MoveDown: key.NewBinding(
		key.WithKeys("J"),
		key.WithHelp("J", "move down"),
	),
	Next: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "next"),
	),
	SearchActivate: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	SearchCancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "cancel"),
	),
	SearchAccept: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "apply"),
	),
	FavoritesFilter: key.NewBinding(
		key.WithKeys("F"),
		key.WithHelp("F", "favorites"),
	),
	ViewMode: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "view"),
	),
	Compact: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "compact"),
	),
	Theme: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "theme"),
	),
	AccentColor: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "accent"),
	),
	Reset: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "reset"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.CycleStatus, k.ToggleFavorite, k.Next, k.SearchActivate, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.MoveUp, k.MoveDown},
		{k.CycleStatus, k.ToggleFavorite, k.Next, k.Reset},
		{k.SearchActivate, k.FavoritesFilter},
		{k.ViewMode, k.Compact, k.Theme, k.AccentColor, k.Quit},
	}
}
