package login

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-playground/validator/v10"

	"github.com/nicway1/truelog-cli/internal/api"
	"github.com/nicway1/truelog-cli/internal/model"
	"github.com/nicway1/truelog-cli/internal/theme"
)

// SucceededMsg carries the issued session after a successful login.
type SucceededMsg struct {
	User  model.User
	Token string
}

// failedMsg carries a login failure back into the form.
type failedMsg struct {
	text string
}

// Authenticator is the backend surface for logging in. *api.Client
// satisfies it.
type Authenticator interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	email    string
	password string
}

// Model is the login form view.
type Model struct {
	auth      Authenticator
	validate  *validator.Validate
	form      *huh.Form
	fb        *formBindings
	notice    string
	errorText string
	busy      bool
	width     int
	height    int
}

// New creates the login form. notice is shown above the form, e.g. the
// message of the auth error that forced a re-login.
func New(auth Authenticator, notice string, width, height int) Model {
	m := Model{
		auth:     auth,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		fb:       &formBindings{},
		notice:   notice,
		width:    width,
		height:   height,
	}
	m.form = m.buildForm()
	return m
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Placeholder("you@corp.example.com").
			Value(&m.fb.email).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("email is required")
				}
				return nil
			}),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.password).
			Validate(func(s string) error {
				if s == "" {
					return fmt.Errorf("password is required")
				}
				return nil
			}),
	)).WithWidth(m.formWidth())
}

// Update handles messages for the login form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if fail, ok := msg.(failedMsg); ok {
		m.busy = false
		m.errorText = fail.text
		m.fb.password = ""
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	if m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.submit()
	}

	return m, cmd
}

// submit validates the credentials and performs the login call.
func (m Model) submit() (Model, tea.Cmd) {
	req := api.LoginRequest{
		Email:    strings.TrimSpace(m.fb.email),
		Password: m.fb.password,
	}
	if err := m.validate.Struct(req); err != nil {
		m.errorText = "enter a valid email address"
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	m.busy = true
	m.errorText = ""
	auth := m.auth
	return m, func() tea.Msg {
		resp, err := auth.Login(context.Background(), req)
		if err != nil {
			return failedMsg{text: api.Message(err, "login failed, check your credentials")}
		}
		return SucceededMsg{User: resp.User, Token: resp.Token}
	}
}

// View renders the login form.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render("Sign in to TrueLog")}
	if m.notice != "" {
		parts = append(parts, theme.HelpStyle.Foreground(theme.ColorYellow).Render(m.notice))
	}
	if m.errorText != "" {
		parts = append(parts, theme.HelpStyle.Foreground(theme.ColorRed).Render(m.errorText))
	}
	if m.busy {
		parts = append(parts, theme.HelpStyle.Render("Signing in..."))
	} else {
		parts = append(parts, m.form.View())
	}

	return lipgloss.NewStyle().Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}
