package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nicway1/truelog-cli/internal/model"
	"github.com/nicway1/truelog-cli/internal/theme"
)

// Layout manages the multi-panel terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	TabBarHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		TabBarHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header, tab bar, and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.TabBarHeight - l.StatusBarHeight
}

// RenderHeader renders the top header bar with a title and a right-aligned
// status segment (unread badge, user name).
func (l Layout) RenderHeader(title string, status string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(status)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(statusRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		statusRendered,
	)
}

// tabIcons maps the closed icon set to single-cell glyphs.
var tabIcons = map[model.TabIcon]string{
	model.IconHome:      "⌂",
	model.IconTicket:    "◉",
	model.IconAsset:     "▣",
	model.IconAccessory: "▤",
	model.IconInventory: "☰",
	model.IconReport:    "▦",
	model.IconDev:       "‹›",
	model.IconCustomer:  "☺",
	model.IconAdmin:     "⚙",
	model.IconSettings:  "⚙",
}

// RenderTabBar renders the open tabs, highlighting the active one.
func (l Layout) RenderTabBar(tabs []model.Tab, activeID string) string {
	segments := make([]string, 0, len(tabs))
	for _, t := range tabs {
		icon, ok := tabIcons[t.Icon]
		if !ok {
			icon = tabIcons[model.IconHome]
		}
		label := icon + " " + t.Title

		if t.ID == activeID {
			segments = append(segments, theme.ActiveTabStyle.Render(label))
		} else {
			segments = append(segments, theme.TabStyle.Render(label))
		}
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Top, segments...)
	return lipgloss.NewStyle().Width(l.Width).MaxHeight(1).Render(bar)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining the
// header, tab bar, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	tabBar string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		tabBar,
		content,
		statusBar,
	)
}
