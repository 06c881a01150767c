// Package tui implements an interactive terminal view of the roadmap store
// built on Bubble Tea.
package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/roadmap/internal/models"
	"github.com/starford/roadmap/internal/query"
	"github.com/starford/roadmap/internal/roadmap"
)

// changeBuffer bounds how many store notifications may queue up between
// renders. Extra notifications are dropped; one pending refresh is enough.
const changeBuffer = 16

// changeMsg reports that the store changed outside of a key handler.
type changeMsg struct{}

// Model is the Bubble Tea model for the roadmap view.
type Model struct {
	store *roadmap.Store
	keys  KeyMap
	help  help.Model

	changes     chan roadmap.Change
	unsubscribe func()

	// Derived from the store on every refresh.
	nodes []models.Node
	prefs models.Preferences
	stats models.Stats
	query string

	cursor int
	width  int
	height int

	searching   bool
	searchInput textinput.Model
	searchPrev  string

	confirmReset bool
	systemDark   bool
}

// NewModel creates a model bound to store and subscribes to its changes.
// Call Close when the program exits.
func NewModel(store *roadmap.Store) Model {
	input := textinput.New()
	input.Prompt = "/ "
	input.Placeholder = "is:progress cat:css flexbox"
	input.CharLimit = 256

	m := Model{
		store:       store,
		keys:        DefaultKeyMap,
		help:        help.New(),
		changes:     make(chan roadmap.Change, changeBuffer),
		searchInput: input,
		systemDark:  lipgloss.HasDarkBackground(),
	}
	changes := m.changes
	m.unsubscribe = store.Subscribe(func(c roadmap.Change) {
		select {
		case changes <- c:
		default:
		}
	})
	m.refresh()
	return m
}

// Close detaches the model from the store.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init implements tea.Model. Starts listening for store changes.
func (m Model) Init() tea.Cmd {
	return listenForChange(m.changes)
}

// listenForChange returns a tea.Cmd that blocks until the store reports a
// change, then delivers it as a changeMsg.
func listenForChange(ch <-chan roadmap.Change) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changeMsg{}
	}
}

// refresh re-reads the store, keeping the cursor on the same node when it
// is still visible.
func (m *Model) refresh() {
	current := m.currentID()

	m.query = m.store.SearchQuery()
	m.nodes = query.Search(m.store.Nodes(), m.query)
	m.prefs = m.store.Preferences()
	m.stats = m.store.Stats()

	if i := slices.IndexFunc(m.nodes, func(n models.Node) bool { return n.ID == current }); i >= 0 {
		m.cursor = i
	}
	m.cursor = max(0, min(m.cursor, len(m.nodes)-1))
}

func (m Model) currentID() string {
	if m.cursor < 0 || m.cursor >= len(m.nodes) {
		return ""
	}
	return m.nodes[m.cursor].ID
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changeMsg:
		m.refresh()
		return m, listenForChange(m.changes)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.searchInput.Width = max(10, msg.Width-4)
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		if m.confirmReset {
			m.confirmReset = false
			if key.Matches(msg, m.keys.Confirm) {
				m.store.ResetProgress()
				m.refresh()
			}
			return m, nil
		}
		return m.handleListKeys(msg)
	}
	return m, nil
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.currentID()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.nodes)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if id != "" {
			m.store.SelectNode(id)
		}

	case key.Matches(msg, m.keys.CycleStatus):
		if n, ok := m.store.Node(id); ok {
			m.store.SetStatus(id, n.Status.Next())
		}

	case key.Matches(msg, m.keys.ToggleFavorite):
		m.store.ToggleFavorite(id)

	case key.Matches(msg, m.keys.MoveUp):
		m.store.ReorderNode(id, models.DirectionUp)

	case key.Matches(msg, m.keys.MoveDown):
		m.store.ReorderNode(id, models.DirectionDown)

	case key.Matches(msg, m.keys.Next):
		if n, ok := m.store.NextRecommended(); ok {
			m.refresh()
			if i := slices.IndexFunc(m.nodes, func(x models.Node) bool { return x.ID == n.ID }); i >= 0 {
				m.cursor = i
			}
			return m, nil
		}

	case key.Matches(msg, m.keys.FavoritesFilter):
		m.store.SetSearchQuery(query.ToggleFavorites(m.store.SearchQuery()))

	case key.Matches(msg, m.keys.SearchActivate):
		m.searching = true
		m.searchPrev = m.query
		m.searchInput.SetValue(m.query)
		m.searchInput.CursorEnd()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.ViewMode):
		m.cyclePreference(func(p *models.PreferencesPatch, prefs models.Preferences) {
			v := cycle(models.ViewModes, prefs.ViewMode)
			p.ViewMode = &v
		})

	case key.Matches(msg, m.keys.Compact):
		m.cyclePreference(func(p *models.PreferencesPatch, prefs models.Preferences) {
			v := !prefs.CompactMode
			p.CompactMode = &v
		})

	case key.Matches(msg, m.keys.Theme):
		m.cyclePreference(func(p *models.PreferencesPatch, prefs models.Preferences) {
			v := cycle(models.Themes, prefs.Theme)
			p.Theme = &v
		})

	case key.Matches(msg, m.keys.AccentColor):
		m.cyclePreference(func(p *models.PreferencesPatch, prefs models.Preferences) {
			v := cycle(models.AccentColors, prefs.AccentColor)
			p.AccentColor = &v
		})

	case key.Matches(msg, m.keys.Reset):
		m.confirmReset = true
		return m, nil

	default:
		return m, nil
	}

	m.refresh()
	return m, nil
}

// handleSearchKeys edits the query live; Enter keeps it, Esc restores the
// query that was active when search mode started.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.SearchCancel):
		m.searching = false
		m.searchInput.Blur()
		m.store.SetSearchQuery(m.searchPrev)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.SearchAccept):
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.store.SetSearchQuery(m.searchInput.Value())
	m.refresh()
	return m, cmd
}

func (m *Model) cyclePreference(fn func(*models.PreferencesPatch, models.Preferences)) {
	var patch models.PreferencesPatch
	fn(&patch, m.store.Preferences())
	m.store.UpdatePreferences(patch)
}

// cycle returns the value after current in values, wrapping around.
func cycle(values []string, current string) string {
	i := slices.Index(values, current)
	return values[(i+1)%len(values)]
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	st := newStyles(m.prefs, m.systemDark)

	var b strings.Builder
	b.WriteString(m.renderHeader(st))
	b.WriteString("\n")
	if m.searching {
		b.WriteString(m.searchInput.View())
	} else if m.query != "" {
		b.WriteString(st.prompt.Render("/ " + m.query))
	} else {
		b.WriteString(st.faint.Render("/ to search"))
	}
	b.WriteString("\n\n")

	if len(m.nodes) == 0 {
		b.WriteString(st.faint.Render("No nodes match the current search."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderList(st))
	}

	if detail := m.renderDetail(st); detail != "" {
		b.WriteString("\n")
		b.WriteString(detail)
	}

	b.WriteString("\n")
	if m.confirmReset {
		b.WriteString(st.warning.Render("Reset all progress? y to confirm, any other key to cancel"))
	} else {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m Model) renderHeader(st styles) string {
	s := m.stats
	summary := fmt.Sprintf("%d/%d completed (%d%%) · %d in progress · %s/%sh · %d today",
		s.CompletedCount, s.TotalNodes, s.CompletionPercentage, s.InProgressCount,
		formatHours(s.CompletedEstimatedHours), formatHours(s.TotalEstimatedHours), s.CompletedToday)
	return st.title.Render("Roadmap") + "  " + st.header.Render(summary) +
		"  " + st.faint.Render(fmt.Sprintf("%d shown", len(m.nodes)))
}

// visibleRows is the number of list rows that fit under the header and
// above the detail and help panes.
func (m Model) visibleRows() int {
	perNode := 1
	if !m.prefs.CompactMode {
		perNode = 2
	}
	return max(1, (m.height-12)/perNode)
}

func (m Model) renderList(st styles) string {
	rows := m.visibleRows()
	offset := 0
	if m.cursor >= rows {
		offset = m.cursor - rows + 1
	}
	end := min(len(m.nodes), offset+rows)

	var b strings.Builder
	for i := offset; i < end; i++ {
		n := m.nodes[i]
		if m.prefs.ViewMode == models.ViewModeTimeline {
			b.WriteString(m.renderTimelineRow(st, n, i))
		} else {
			b.WriteString(m.renderGridRow(st, n, i))
		}
	}
	if end < len(m.nodes) {
		b.WriteString(st.faint.Render(fmt.Sprintf("  … %d more", len(m.nodes)-end)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderGridRow(st styles, n models.Node, i int) string {
	marker := st.status(n.Status).Render(statusMarker(n.Status))
	fav := " "
	if n.Favorite {
		fav = st.favorite.Render("★")
	}
	title := n.Title
	if i == m.cursor {
		title = st.selected.Render(" " + title + " ")
	} else {
		title = st.normal.Render(title)
	}
	meta := st.faint.Render(fmt.Sprintf("%s · %sh", n.Category, formatHours(n.EstimatedHours)))

	line := fmt.Sprintf("%s %s %s  %s\n", marker, fav, title, meta)
	if !m.prefs.CompactMode {
		line += "    " + st.faint.Render(truncate(n.Description, max(20, m.width-6))) + "\n"
	}
	return line
}

func (m Model) renderTimelineRow(st styles, n models.Node, i int) string {
	marker := st.status(n.Status).Render(statusMarker(n.Status))
	title := n.Title
	if i == m.cursor {
		title = st.selected.Render(" " + title + " ")
	} else {
		title = st.normal.Render(title)
	}
	if n.Favorite {
		title += " " + st.favorite.Render("★")
	}
	line := fmt.Sprintf("%s %s  %s\n", marker, title, st.faint.Render(n.Category))
	if !m.prefs.CompactMode && i < len(m.nodes)-1 {
		line += st.faint.Render("│") + "\n"
	}
	return line
}

// renderDetail shows the selected node, or nothing when none is selected.
func (m Model) renderDetail(st styles) string {
	id := m.store.SelectedNodeID()
	if id == "" {
		return ""
	}
	n, ok := m.store.Node(id)
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(st.title.Render(n.Title))
	b.WriteString(" ")
	b.WriteString(st.status(n.Status).Render(string(n.Status)))
	b.WriteString("\n")
	if n.Description != "" {
		b.WriteString(st.normal.Render(n.Description))
		b.WriteString("\n")
	}
	if len(n.Tags) > 0 {
		b.WriteString(st.faint.Render("tags: " + strings.Join(n.Tags, ", ")))
		b.WriteString("\n")
	}
	for _, r := range n.Resources {
		b.WriteString(st.faint.Render("↗ " + r.Label + " " + r.URL))
		b.WriteString("\n")
	}
	if n.Notes != "" {
		b.WriteString(st.normal.Render("notes: " + n.Notes))
		b.WriteString("\n")
	}
	return b.String()
}

func formatHours(h float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", h), "0"), ".")
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
