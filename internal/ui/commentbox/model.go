// Package commentbox is the ticket comment editor with @mention
// completion. Keystrokes are matched against the in-progress mention
// token; suggestion fetches are tagged with a sequence number so a slow
// response never replaces the dropdown for a newer query.
package commentbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nicway1/truelog-cli/internal/keys"
	"github.com/nicway1/truelog-cli/internal/mention"
	"github.com/nicway1/truelog-cli/internal/model"
	"github.com/nicway1/truelog-cli/internal/theme"
)

// SubmitMsg carries the finished comment text.
type SubmitMsg struct {
	TicketID string
	Text     string
}

// CancelMsg is sent when the user abandons the comment.
type CancelMsg struct{}

// suggestionsMsg delivers a completed suggestion fetch.
type suggestionsMsg struct {
	result mention.Result
}

// Model is the comment editor component.
type Model struct {
	ticketID  string
	input     textarea.Model
	suggester *mention.Suggester
	keys      *keys.KeyMap

	match       mention.Match
	matchActive bool
	suggestions []model.MentionSuggestion
	cursor      int

	width  int
	height int
}

// New creates a comment editor for the given ticket.
func New(ticketID string, suggester *mention.Suggester, k *keys.KeyMap, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "Write a comment... use @ to mention"
	ta.SetWidth(width - 4)
	ta.SetHeight(6)

	return Model{
		ticketID:  ticketID,
		input:     ta,
		suggester: suggester,
		keys:      k,
		width:     width,
		height:    height,
	}
}

// Focus puts the editor in input mode.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages for the comment editor.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case suggestionsMsg:
		// Discard anything that is no longer the latest query.
		if !m.suggester.Latest(msg.result.Seq) || !m.matchActive {
			return m, nil
		}
		m.suggestions = msg.result.Suggestions
		if m.cursor >= len(m.suggestions) {
			m.cursor = 0
		}
		return m, nil

	case tea.KeyMsg:
		if m.matchActive && len(m.suggestions) > 0 {
			switch msg.String() {
			case "down", "ctrl+n":
				m.cursor = (m.cursor + 1) % len(m.suggestions)
				return m, nil
			case "up", "ctrl+p":
				m.cursor = (m.cursor - 1 + len(m.suggestions)) % len(m.suggestions)
				return m, nil
			case "enter", "tab":
				return m.acceptSuggestion()
			case "esc":
				m.dismissSuggestions()
				return m, nil
			}
		}

		switch msg.String() {
		case "ctrl+s":
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			ticketID := m.ticketID
			return m, func() tea.Msg {
				return SubmitMsg{TicketID: ticketID, Text: text}
			}
		case "esc":
			return m, func() tea.Msg { return CancelMsg{} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	detect := m.detectMention()
	return m, tea.Batch(cmd, detect)
}

// detectMention re-evaluates the mention token at the caret after every
// input change and schedules a suggestion fetch when one is live.
func (m *Model) detectMention() tea.Cmd {
	text := m.input.Value()
	caret := m.caretOffset()

	match, ok := mention.Find(text, caret)
	if !ok {
		m.dismissSuggestions()
		return nil
	}

	m.match = match
	m.matchActive = true

	seq := m.suggester.Next()
	suggester := m.suggester
	query := match.Query
	return func() tea.Msg {
		result, err := suggester.Fetch(context.Background(), query, seq)
		if err != nil {
			// A failed fetch just leaves the dropdown as is.
			return nil
		}
		return suggestionsMsg{result: result}
	}
}

// caretOffset computes the rune offset of the caret within the full text.
func (m Model) caretOffset() int {
	text := m.input.Value()
	lines := strings.Split(text, "\n")
	row := m.input.Line()
	if row >= len(lines) {
		row = len(lines) - 1
	}

	offset := 0
	for i := 0; i < row; i++ {
		offset += len([]rune(lines[i])) + 1 // +1 for the newline
	}

	col := m.input.LineInfo().ColumnOffset
	lineLen := len([]rune(lines[row]))
	if col > lineLen {
		col = lineLen
	}
	return offset + col
}

// acceptSuggestion splices the highlighted suggestion into the text.
func (m Model) acceptSuggestion() (Model, tea.Cmd) {
	if m.cursor >= len(m.suggestions) {
		return m, nil
	}
	chosen := m.suggestions[m.cursor]

	text := m.input.Value()
	caret := m.caretOffset()
	newText, newCaret := mention.Splice(text, caret, m.match.Start, chosen.Name)

	m.input.SetValue(newText)
	m.moveCaretTo(newText, newCaret)
	m.dismissSuggestions()
	return m, nil
}

// moveCaretTo positions the textarea cursor at the given rune offset.
// SetValue leaves the cursor at the end of the text, so the target row is
// reached by walking up from the last line.
func (m *Model) moveCaretTo(text string, offset int) {
	runes := []rune(text)
	if offset > len(runes) {
		offset = len(runes)
	}

	row, col := 0, 0
	for _, r := range runes[:offset] {
		if r == '\n' {
			row++
			col = 0
			continue
		}
		col++
	}

	lastRow := strings.Count(text, "\n")
	for i := row; i < lastRow; i++ {
		m.input.CursorUp()
	}
	m.input.SetCursor(col)
}

// dismissSuggestions closes the dropdown.
func (m *Model) dismissSuggestions() {
	m.matchActive = false
	m.suggestions = nil
	m.cursor = 0
}

// View renders the editor plus the suggestion dropdown when live.
func (m Model) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).
		Render("Comment on " + m.ticketID)

	parts := []string{title, m.input.View()}

	if m.matchActive && len(m.suggestions) > 0 {
		parts = append(parts, m.viewDropdown())
	}

	hints := theme.HelpStyle.Render("ctrl+s submit | esc cancel")
	parts = append(parts, hints)

	return lipgloss.NewStyle().Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// viewDropdown renders the completion candidates.
func (m Model) viewDropdown() string {
	var b strings.Builder
	for i, s := range m.suggestions {
		label := fmt.Sprintf("@%s  %s", s.Name, s.DisplayName)
		if s.IsGroup {
			label += theme.HelpStyle.Render(" (group)")
		}
		if i == m.cursor {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}
	return theme.BorderStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// SetSize updates the editor dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width - 4)
}
