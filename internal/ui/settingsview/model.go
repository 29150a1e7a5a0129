// Package settingsview edits the application configuration in place and
// writes it back to the config file.
package settingsview

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nicway1/truelog-cli/internal/keys"
	"github.com/nicway1/truelog-cli/internal/model"
	"github.com/nicway1/truelog-cli/internal/theme"
)

// SavedMsg signals the configuration was written to disk.
type SavedMsg struct{}

// ClosedMsg signals the settings tab should close.
type ClosedMsg struct{}

// saveFailedMsg carries a presentable write failure.
type saveFailedMsg struct {
	text string
}

// formBindings holds the form field values on the heap so the pointers
// handed to huh stay valid across Bubble Tea model copies.
type formBindings struct {
	baseURL    string
	timeoutSec string
	pollSec    string
	theme      string
}

// Model is the settings tab view.
type Model struct {
	cfg        *model.AppConfig
	configPath string
	form       *huh.Form
	fb         *formBindings
	keys       *keys.KeyMap
	status     string
	width      int
	height     int
}

// New creates the settings view over the live configuration.
func New(cfg *model.AppConfig, configPath string, k *keys.KeyMap, width, height int) Model {
	m := Model{
		cfg:        cfg,
		configPath: configPath,
		keys:       k,
		width:      width,
		height:     height,
	}
	m.form, m.fb = buildForm(cfg, m.formWidth())
	return m
}

// buildForm constructs the edit form pre-filled from the configuration.
func buildForm(cfg *model.AppConfig, width int) (*huh.Form, *formBindings) {
	fb := &formBindings{
		baseURL:    cfg.API.BaseURL,
		timeoutSec: strconv.Itoa(cfg.API.TimeoutSec),
		pollSec:    strconv.Itoa(cfg.Notifications.PollIntervalSec),
		theme:      cfg.Display.Theme,
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API Base URL").
				Description("Root URL of the TrueLog backend").
				Placeholder("https://truelog.example.com").
				Value(&fb.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Request Timeout (seconds)").
				Value(&fb.timeoutSec).
				Validate(validateIntMin(1, "timeout")),
			huh.NewInput().
				Title("Notification Poll Interval (seconds)").
				Description("How often the unread counter refreshes").
				Value(&fb.pollSec).
				Validate(validateIntMin(5, "poll interval")),
			huh.NewSelect[string]().
				Title("Theme").
				Options(
					huh.NewOption("Default", "default"),
					huh.NewOption("Dark", "dark"),
					huh.NewOption("Light", "light"),
				).
				Value(&fb.theme),
		),
	).WithWidth(width)

	return form, fb
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the settings view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SavedMsg:
		m.status = "saved, connection changes apply on restart"
		m.form, m.fb = buildForm(m.cfg, m.formWidth())
		return m, m.form.Init()

	case saveFailedMsg:
		m.status = msg.text
		m.form, m.fb = buildForm(m.cfg, m.formWidth())
		return m, m.form.Init()
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.save()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return ClosedMsg{} }
	}

	return m, cmd
}

// save applies the form values to the configuration and writes it out.
// Field validators already guarantee the numeric fields parse.
func (m Model) save() tea.Cmd {
	cfg := m.cfg
	path := m.configPath
	fb := m.fb
	return func() tea.Msg {
		cfg.API.BaseURL = strings.TrimSpace(fb.baseURL)
		cfg.API.TimeoutSec, _ = strconv.Atoi(strings.TrimSpace(fb.timeoutSec))
		cfg.Notifications.PollIntervalSec, _ = strconv.Atoi(strings.TrimSpace(fb.pollSec))
		cfg.Display.Theme = fb.theme

		if err := model.SaveConfig(path, cfg); err != nil {
			return saveFailedMsg{text: err.Error()}
		}
		return SavedMsg{}
	}
}

// View renders the settings form.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render("Settings"), m.form.View()}

	if m.status != "" {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Italic(true).
			Render(m.status))
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.com)")
	}
	return nil
}

func validateIntMin(minValue int, name string) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%s must be a number", name)
		}
		if n < minValue {
			return fmt.Errorf("%s must be at least %d", name, minValue)
		}
		return nil
	}
}
