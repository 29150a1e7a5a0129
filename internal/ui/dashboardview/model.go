// Package dashboardview renders the widget dashboard and its customizer.
// Outside the customizer the view shows enabled widgets only; inside it,
// every widget is listed and edits accumulate in the store's draft until
// saved or cancelled.
package dashboardview

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nicway1/truelog-cli/internal/dashboard"
	"github.com/nicway1/truelog-cli/internal/keys"
	"github.com/nicway1/truelog-cli/internal/model"
	"github.com/nicway1/truelog-cli/internal/theme"
)

// widgetTitles maps widget ids to display names.
var widgetTitles = map[string]string{
	"open_tickets":    "Open Tickets",
	"my_assignments":  "My Assignments",
	"asset_summary":   "Asset Summary",
	"recent_activity": "Recent Activity",
	"queue_load":      "Queue Load",
	"license_expiry":  "License Expiry",
}

// sizeCycle is the order the size key steps through.
var sizeCycle = []model.WidgetSize{
	model.WidgetSmall,
	model.WidgetMedium,
	model.WidgetLarge,
	model.WidgetFull,
}

// Model is the dashboard view component.
type Model struct {
	store  *dashboard.Store
	keys   *keys.KeyMap
	cursor int
	width  int
	height int
}

// New creates a dashboard view over the given layout store.
func New(store *dashboard.Store, k *keys.KeyMap, width, height int) Model {
	return Model{
		store:  store,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init pulls the server layout in the background.
func (m Model) Init() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		s.Sync(context.Background())
		return nil
	}
}

// Update handles messages for the dashboard view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.store.Editing() {
		return m.handleCustomizerKeys(keyMsg)
	}

	switch {
	case key.Matches(keyMsg, m.keys.Customize):
		m.store.StartEditing()
		m.cursor = 0
	case key.Matches(keyMsg, m.keys.Refresh):
		return m, m.Init()
	}
	return m, nil
}

// handleCustomizerKeys processes key input while the customizer is open.
func (m Model) handleCustomizerKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	widgets := m.store.AllWidgets()
	if len(widgets) == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(widgets)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.MoveDown):
		m.store.ReorderWidgets(context.Background(), m.cursor, m.cursor+1)
		if m.cursor < len(widgets)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.MoveUp):
		m.store.ReorderWidgets(context.Background(), m.cursor, m.cursor-1)
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Toggle):
		w := widgets[m.cursor]
		m.store.SetWidgetEnabled(context.Background(), w.WidgetID, !w.Enabled)

	case key.Matches(msg, m.keys.CycleSize):
		w := widgets[m.cursor]
		m.store.SetWidgetSize(context.Background(), w.WidgetID, nextSize(w.Size))

	case key.Matches(msg, m.keys.Save):
		m.store.SaveChanges(context.Background())

	case key.Matches(msg, m.keys.Back):
		m.store.CancelEditing()
	}
	return m, nil
}

// nextSize steps to the next widget size in the cycle.
func nextSize(s model.WidgetSize) model.WidgetSize {
	for i, candidate := range sizeCycle {
		if candidate == s {
			return sizeCycle[(i+1)%len(sizeCycle)]
		}
	}
	return model.WidgetMedium
}

// View renders the dashboard or the customizer.
func (m Model) View() string {
	if m.store.Editing() {
		return m.viewCustomizer()
	}
	return m.viewDashboard()
}

// viewDashboard renders the enabled widgets as cards in position order.
func (m Model) viewDashboard() string {
	widgets := m.store.EnabledWidgets()
	if len(widgets) == 0 {
		return theme.HelpStyle.Render("No widgets enabled. Press e to customize.")
	}

	var rows []string
	var row []string
	rowWidth := 0
	for _, w := range widgets {
		card := m.renderWidgetCard(w)
		cardWidth := lipgloss.Width(card)
		if rowWidth+cardWidth > m.width && len(row) > 0 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
			rowWidth = 0
		}
		row = append(row, card)
		rowWidth += cardWidth
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderWidgetCard draws a single widget placeholder card. Widget bodies
// are populated lazily by their data sources; the card frame and title
// come from the layout alone.
func (m Model) renderWidgetCard(w model.WidgetConfig) string {
	title := widgetTitles[w.WidgetID]
	if title == "" {
		title = w.WidgetID
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Render(title)
	body := theme.HelpStyle.Render(string(w.Size))

	return theme.WidgetSizeStyle(w.Size).Render(header + "\n" + body)
}

// viewCustomizer renders the full widget list with the edit cursor.
func (m Model) viewCustomizer() string {
	widgets := m.store.AllWidgets()

	var b strings.Builder
	title := "Customize Dashboard"
	if m.store.HasUnsavedChanges() {
		title += " (unsaved)"
	}
	b.WriteString(theme.HeaderStyle.Render(title))
	b.WriteString("\n\n")

	for i, w := range widgets {
		mark := "[ ]"
		if w.Enabled {
			mark = "[x]"
		}
		name := widgetTitles[w.WidgetID]
		if name == "" {
			name = w.WidgetID
		}
		line := fmt.Sprintf("%s %-18s %s", mark, name, w.Size)

		if i == m.cursor {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("space toggle | s size | J/K move | ctrl+s save | esc cancel"))
	return b.String()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
