package app

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nicway1/truelog-cli/internal/api"
	"github.com/nicway1/truelog-cli/internal/dashboard"
	"github.com/nicway1/truelog-cli/internal/keys"
	"github.com/nicway1/truelog-cli/internal/mention"
	"github.com/nicway1/truelog-cli/internal/model"
	"github.com/nicway1/truelog-cli/internal/notify"
	"github.com/nicway1/truelog-cli/internal/report"
	"github.com/nicway1/truelog-cli/internal/session"
	"github.com/nicway1/truelog-cli/internal/tabs"
	"github.com/nicway1/truelog-cli/internal/ui"
	"github.com/nicway1/truelog-cli/internal/ui/commentbox"
	"github.com/nicway1/truelog-cli/internal/ui/dashboardview"
	helpview "github.com/nicway1/truelog-cli/internal/ui/help"
	loginview "github.com/nicway1/truelog-cli/internal/ui/login"
	"github.com/nicway1/truelog-cli/internal/ui/notifications"
	"github.com/nicway1/truelog-cli/internal/ui/reportview"
	"github.com/nicway1/truelog-cli/internal/ui/settingsview"
	"github.com/nicway1/truelog-cli/internal/ui/ticketview"
)

// unreadCountMsg carries the number of unread notifications to the UI.
type unreadCountMsg struct {
	count int
}

// commentPostedMsg reports a successful comment submission.
type commentPostedMsg struct {
	ticketID string
}

// commentFailedMsg reports a non-auth comment submission failure.
type commentFailedMsg struct {
	text string
}

// authExpiredMsg forces a re-login with the given notice.
type authExpiredMsg struct {
	notice string
}

// Deps bundles everything the root model needs. All stores are owned by
// the caller (main) so they can be closed on shutdown.
type Deps struct {
	Config       *model.AppConfig
	Client       *api.Client
	Session      *session.Manager
	Tabs         *tabs.Manager
	Notify       *notify.Store
	Poller       *notify.Poller
	Visible      *atomic.Bool
	Dashboard    *dashboard.Store
	SavedReports *report.SavedStore
	Suggester    *mention.Suggester
	ExportDir    string
	ConfigPath   string
	Log          zerolog.Logger
}

// Model is the root Bubble Tea model. Content is routed by the active
// tab's URL; login and help render as full-screen overlays on top.
type Model struct {
	deps   Deps
	keys   *keys.KeyMap
	layout ui.Layout
	log    zerolog.Logger

	dashboardView dashboardview.Model
	notifView     notifications.Model
	reportView    reportview.Model
	helpView      helpview.Model
	loginView     loginview.Model
	settingsView  settingsview.Model

	ticketView   ticketview.Model
	ticketViewID string

	showLogin   bool
	showHelp    bool
	ready       bool
	unreadCount int
	statusText  string
}

// New creates the root application model.
func New(deps Deps) Model {
	k := keys.DefaultKeyMap()

	m := Model{
		deps:          deps,
		keys:          k,
		log:           deps.Log,
		dashboardView: dashboardview.New(deps.Dashboard, k, 80, 24),
		notifView:     notifications.New(deps.Notify, k, 80, 24),
		reportView:    reportview.New(deps.Client, deps.SavedReports, k, deps.ExportDir, 80, 24),
		helpView:      helpview.New(k, 80, 24),
		loginView:     loginview.New(deps.Client, "", 80, 24),
		settingsView:  settingsview.New(deps.Config, deps.ConfigPath, k, 80, 24),
	}
	m.showLogin = !deps.Session.Valid()
	return m
}

// Init starts the poller subscription and, when logged in, the initial
// data loads.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForUnread()}
	if !m.showLogin {
		cmds = append(cmds, m.startSession())
	}
	return tea.Batch(cmds...)
}

// startSession kicks off the loads that need a valid session.
func (m Model) startSession() tea.Cmd {
	m.deps.Poller.Start()
	return tea.Batch(
		m.notifView.Init(),
		m.dashboardView.Init(),
		m.reportView.Init(),
	)
}

// waitForUnread bridges the poller's update channel into the message loop.
func (m Model) waitForUnread() tea.Cmd {
	updates := m.deps.Poller.Updates()
	return func() tea.Msg {
		count, ok := <-updates
		if !ok {
			return nil
		}
		return unreadCountMsg{count: count}
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w := m.layout.ContentWidth()
		h := m.layout.ContentHeight()
		m.dashboardView.SetSize(w, h)
		m.notifView.SetSize(w, h)
		m.reportView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.loginView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.ticketView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case tea.FocusMsg:
		m.deps.Visible.Store(true)
		return m, nil

	case tea.BlurMsg:
		m.deps.Visible.Store(false)
		return m, nil

	case unreadCountMsg:
		m.unreadCount = msg.count
		// Keep the notifications panel title in sync with the badge.
		var cmd tea.Cmd
		m.notifView, cmd = m.notifView.Update(notifications.RefreshedMsg{})
		return m, tea.Batch(cmd, m.waitForUnread())

	case loginview.SucceededMsg:
		if err := m.deps.Session.Establish(msg.User, msg.Token); err != nil {
			m.log.Error().Err(err).Msg("storing session")
		}
		m.showLogin = false
		m.statusText = "signed in as " + msg.User.Name
		return m, m.startSession()

	case authExpiredMsg:
		m.deps.Session.Clear()
		m.showLogin = true
		m.loginView = loginview.New(m.deps.Client, msg.notice, m.layout.ContentWidth(), m.layout.ContentHeight())
		return m, m.loginView.Init()

	case notifications.OpenReferenceMsg:
		m.openReference(msg.ReferenceType, msg.ReferenceID)
		if strings.HasPrefix(m.activeURL(), "/tickets/") {
			return m, m.ensureTicketView()
		}
		return m, nil

	case commentbox.SubmitMsg:
		return m, m.postComment(msg.TicketID, msg.Text)

	case commentbox.CancelMsg:
		m.deps.Tabs.RemoveTab(m.deps.Tabs.ActiveTabID())
		return m, nil

	case commentPostedMsg:
		m.statusText = "comment posted on " + msg.ticketID
		// Fresh editor for the next comment on the same ticket.
		m.ticketViewID = ""
		return m, nil

	case settingsview.SavedMsg:
		m.statusText = "settings saved"
		var cmd tea.Cmd
		m.settingsView, cmd = m.settingsView.Update(msg)
		return m, cmd

	case settingsview.ClosedMsg:
		m.deps.Tabs.RemoveTab(m.deps.Tabs.ActiveTabID())
		m.settingsView = settingsview.New(m.deps.Config, m.deps.ConfigPath, m.keys,
			m.layout.ContentWidth(), m.layout.ContentHeight())
		return m, nil

	case commentFailedMsg:
		m.statusText = msg.text
		return m, nil

	case tea.KeyMsg:
		m.statusText = ""
		if mdl, cmd, handled := m.handleGlobalKeys(msg); handled {
			return mdl, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKeys processes keys that work regardless of the active view.
// Keys that collide with text entry are suppressed while an input has
// focus.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.deps.Poller.Stop()
		return m, tea.Quit, true

	case "?":
		if m.typingContext() {
			return m, nil, false
		}
		m.showHelp = !m.showHelp
		return m, nil, true

	case "q":
		if m.showHelp {
			m.showHelp = false
			return m, nil, true
		}
		if m.activeURL() == "/" && !m.typingContext() && !m.deps.Dashboard.Editing() {
			m.deps.Poller.Stop()
			return m, tea.Quit, true
		}

	case "]":
		if !m.typingContext() {
			m.cycleTab(1)
			return m, nil, true
		}

	case "[":
		if !m.typingContext() {
			m.cycleTab(-1)
			return m, nil, true
		}

	case "ctrl+w":
		// In a textarea ctrl+w deletes the previous word; only treat it
		// as close-tab outside text entry.
		if !m.typingContext() {
			m.deps.Tabs.RemoveTab(m.deps.Tabs.ActiveTabID())
			return m, nil, true
		}

	case "n":
		if m.activeURL() == "/" && !m.deps.Dashboard.Editing() {
			m.deps.Tabs.OpenNewTab("/notifications", "Notifications", model.IconInventory)
			return m, nil, true
		}

	case "g":
		if m.activeURL() == "/" && !m.deps.Dashboard.Editing() {
			m.deps.Tabs.OpenNewTab("/reports", "Reports", model.IconReport)
			return m, nil, true
		}

	case "c":
		if m.activeURL() == "/" && !m.deps.Dashboard.Editing() {
			m.deps.Tabs.OpenNewTab("/settings", "Settings", model.IconSettings)
			return m, m.settingsView.Init(), true
		}
	}
	return m, nil, false
}

// typingContext reports whether keystrokes currently belong to a text
// input somewhere in the UI.
func (m Model) typingContext() bool {
	if m.showLogin {
		return true
	}
	if strings.HasPrefix(m.activeURL(), "/tickets/") {
		return true
	}
	if m.activeURL() == "/settings" {
		return true
	}
	if m.activeURL() == "/notifications" && m.notifView.Searching() {
		return true
	}
	if m.activeURL() == "/reports" && m.reportView.Typing() {
		return true
	}
	return false
}

// cycleTab activates the neighbor tab in the given direction, wrapping.
func (m *Model) cycleTab(dir int) {
	open := m.deps.Tabs.Tabs()
	if len(open) < 2 {
		return
	}
	active := m.deps.Tabs.ActiveTabID()
	for i, t := range open {
		if t.ID == active {
			next := (i + dir + len(open)) % len(open)
			m.deps.Tabs.SetActiveTab(open[next].ID)
			return
		}
	}
}

// openReference opens (or re-activates) the tab for a notification target.
func (m *Model) openReference(refType model.ReferenceType, refID string) {
	switch refType {
	case model.ReferenceTicket, model.ReferenceComment:
		m.deps.Tabs.OpenNewTab("/tickets/"+refID, "Ticket "+refID, model.IconTicket)
	case model.ReferenceAsset:
		m.deps.Tabs.OpenNewTab("/assets/"+refID, "Asset "+refID, model.IconAsset)
	}
}

// postComment submits a ticket comment. An expired session routes to the
// login overlay instead of surfacing a raw error.
func (m Model) postComment(ticketID, text string) tea.Cmd {
	client := m.deps.Client
	return func() tea.Msg {
		_, err := client.AddComment(context.Background(), ticketID, text)
		if err != nil {
			if api.IsAuthError(err) {
				return authExpiredMsg{notice: api.Message(err, "your session expired, sign in again")}
			}
			return commentFailedMsg{text: api.Message(err, "could not post comment")}
		}
		return commentPostedMsg{ticketID: ticketID}
	}
}

// ensureTicketView lazily (re)creates the ticket view when a ticket tab
// becomes active.
func (m *Model) ensureTicketView() tea.Cmd {
	url := m.activeURL()
	ticketID := strings.TrimPrefix(url, "/tickets/")
	if ticketID == m.ticketViewID {
		return nil
	}
	m.ticketViewID = ticketID
	m.ticketView = ticketview.New(ticketID, m.deps.Client, m.deps.Suggester, m.keys,
		m.layout.ContentWidth(), m.layout.ContentHeight())
	return m.ticketView.Init()
}

// activeURL returns the active tab's URL ("/" when none).
func (m Model) activeURL() string {
	tab := m.deps.Tabs.ActiveTab()
	if tab == nil {
		return "/"
	}
	return tab.URL
}

// updateActiveView dispatches the message to the view the active tab (or
// overlay) selects.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.showLogin {
		m.loginView, cmd = m.loginView.Update(msg)
		return m, cmd
	}
	if m.showHelp {
		m.helpView, cmd = m.helpView.Update(msg)
		return m, cmd
	}

	url := m.activeURL()
	switch {
	case url == "/notifications":
		m.notifView, cmd = m.notifView.Update(msg)
	case url == "/reports":
		m.reportView, cmd = m.reportView.Update(msg)
	case url == "/settings":
		m.settingsView, cmd = m.settingsView.Update(msg)
	case strings.HasPrefix(url, "/tickets/"):
		setup := m.ensureTicketView()
		var viewCmd tea.Cmd
		m.ticketView, viewCmd = m.ticketView.Update(msg)
		cmd = tea.Batch(setup, viewCmd)
	default:
		m.dashboardView, cmd = m.dashboardView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showLogin {
		return m.loginView.View()
	}

	title := "TrueLog"
	if m.unreadCount > 0 {
		title = fmt.Sprintf("TrueLog [%d unread]", m.unreadCount)
	}
	right := ""
	if u := m.deps.Session.User(); u != nil {
		right = u.Name
	}

	header := m.layout.RenderHeader(title, right)
	tabBar := m.layout.RenderTabBar(m.deps.Tabs.Tabs(), m.deps.Tabs.ActiveTabID())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, tabBar, content, statusBar)
}

// renderContent returns the rendered string for the active tab or overlay.
func (m Model) renderContent() string {
	if m.showHelp {
		return m.helpView.View()
	}

	url := m.activeURL()
	switch {
	case url == "/notifications":
		return m.notifView.View()
	case url == "/reports":
		return m.reportView.View()
	case url == "/settings":
		return m.settingsView.View()
	case strings.HasPrefix(url, "/tickets/"):
		return m.ticketView.View()
	case strings.HasPrefix(url, "/assets/"):
		return m.renderAssetStub(url)
	default:
		return m.dashboardView.View()
	}
}

// renderAssetStub is the placeholder body for asset tabs. Asset detail
// rendering lands together with the asset endpoints.
func (m Model) renderAssetStub(url string) string {
	id := strings.TrimPrefix(url, "/assets/")
	return fmt.Sprintf("\n  Asset %s\n\n  Open in the web console for full detail.\n", id)
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusText != "" {
		return m.statusText
	}

	url := m.activeURL()
	switch {
	case m.showHelp:
		return "? close help"
	case url == "/notifications":
		return "enter open | m read | M all read | d delete | 1 type | 2 read | L more | / search"
	case url == "/reports":
		return "enter run | S saved | esc back"
	case url == "/settings":
		return "enter next field | esc close"
	case strings.HasPrefix(url, "/tickets/"):
		return "@ mention | ctrl+s submit | pgup/pgdn scroll | esc close"
	default:
		if m.deps.Dashboard.Editing() {
			return "space toggle | s size | J/K move | ctrl+s save | esc cancel"
		}
		return "q quit | ? help | e customize | n notifications | g reports | c settings | [/] tabs"
	}
}
