// Package ticketview renders a ticket opened from a notification: a
// scrollable detail pane on top and the comment editor below it.
package ticketview

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nicway1/truelog-cli/internal/api"
	"github.com/nicway1/truelog-cli/internal/keys"
	"github.com/nicway1/truelog-cli/internal/mention"
	"github.com/nicway1/truelog-cli/internal/theme"
	"github.com/nicway1/truelog-cli/internal/ui/commentbox"
)

// LoadedMsg carries the fetched ticket.
type LoadedMsg struct {
	Ticket *api.Ticket
}

// loadFailedMsg carries a presentable fetch failure.
type loadFailedMsg struct {
	text string
}

// Loader fetches the ticket being displayed. *api.Client satisfies it.
type Loader interface {
	GetTicket(ctx context.Context, id string) (*api.Ticket, error)
}

// commentHeight is the rows reserved for the editor under the detail pane.
const commentHeight = 11

// Model is the ticket tab view.
type Model struct {
	ticketID string
	loader   Loader
	viewport viewport.Model
	comment  commentbox.Model
	ticket   *api.Ticket
	errText  string
	loading  bool
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a ticket view for the given ticket ID.
func New(ticketID string, loader Loader, suggester *mention.Suggester, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, viewportHeight(height))
	vp.Style = lipgloss.NewStyle()

	return Model{
		ticketID: ticketID,
		loader:   loader,
		viewport: vp,
		comment:  commentbox.New(ticketID, suggester, k, width, commentHeight),
		loading:  true,
		keys:     k,
		width:    width,
		height:   height,
	}
}

func viewportHeight(total int) int {
	h := total - commentHeight
	if h < 3 {
		h = 3
	}
	return h
}

// Init fetches the ticket and focuses the editor.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.comment.Init(), m.comment.Focus())
}

// load fetches the ticket in the background.
func (m Model) load() tea.Cmd {
	loader := m.loader
	id := m.ticketID
	return func() tea.Msg {
		t, err := loader.GetTicket(context.Background(), id)
		if err != nil {
			return loadFailedMsg{text: api.Message(err, "could not load ticket")}
		}
		return LoadedMsg{Ticket: t}
	}
}

// Update handles messages for the ticket view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.ticket = msg.Ticket
		m.loading = false
		m.viewport.SetContent(m.renderDetail())
		m.viewport.GotoTop()
		return m, nil

	case loadFailedMsg:
		m.errText = msg.text
		m.loading = false
		return m, nil

	case tea.KeyMsg:
		// The editor owns the keyboard; only paging keys reach the
		// detail pane so scrolling never steals typed characters.
		switch msg.String() {
		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.comment, cmd = m.comment.Update(msg)
	return m, cmd
}

// renderDetail builds the detail pane content.
func (m Model) renderDetail() string {
	if m.ticket == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	sections := []string{
		titleStyle.Render(m.ticket.Subject),
		"",
		fmt.Sprintf("%s  %s", metaStyle.Render("Ticket:"), valStyle.Render(m.ticket.ID)),
		fmt.Sprintf("%s  %s", metaStyle.Render("Status:"), valStyle.Render(m.ticket.Status)),
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "", sep)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// View renders the detail pane over the comment editor.
func (m Model) View() string {
	var top string
	switch {
	case m.loading:
		top = lipgloss.NewStyle().
			Width(m.width).
			Height(m.viewport.Height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Loading ticket...")
	case m.errText != "":
		top = lipgloss.NewStyle().
			Width(m.width).
			Height(m.viewport.Height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorRed).
			Render(m.errText)
	default:
		top = m.viewport.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, top, m.comment.View())
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = viewportHeight(height)
	m.comment.SetSize(width, commentHeight)
	if m.ticket != nil {
		m.viewport.SetContent(m.renderDetail())
	}
}
