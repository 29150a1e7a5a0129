package notifications

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nicway1/truelog-cli/internal/api"
	"github.com/nicway1/truelog-cli/internal/keys"
	"github.com/nicway1/truelog-cli/internal/model"
	"github.com/nicway1/truelog-cli/internal/notify"
	"github.com/nicway1/truelog-cli/internal/theme"
)

// RefreshedMsg signals that the notification store changed and the list
// should re-render from it.
type RefreshedMsg struct{}

// OpenReferenceMsg is sent when the user opens a notification that points
// at a ticket or asset; the root model routes it to a tab.
type OpenReferenceMsg struct {
	ReferenceType model.ReferenceType
	ReferenceID   string
}

// ErrorMsg carries a user-presentable failure out of a mutation command.
type ErrorMsg struct {
	Text string
}

// typeFilters is the cycle order for the type filter key. nil means all.
var typeFilters = []*model.NotificationType{
	nil,
	ptr(model.NotificationMention),
	ptr(model.NotificationTicketAssigned),
	ptr(model.NotificationTicketUpdated),
	ptr(model.NotificationAssetCheckout),
	ptr(model.NotificationSystem),
}

func ptr[T any](v T) *T { return &v }

// Model is the notifications panel view.
type Model struct {
	list        list.Model
	store       *notify.Store
	keys        *keys.KeyMap
	searchMode  bool
	searchInput textinput.Model
	typeIndex   int
	readIndex   int // 0 all, 1 unread, 2 read
	errorText   string
	width       int
	height      int
}

// New creates the notifications panel over the given store.
func New(store *notify.Store, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search notifications..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		store:       store,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init loads the first page.
func (m Model) Init() tea.Cmd {
	return m.fetch()
}

// Update handles messages for the notifications panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshedMsg:
		m.syncItems()
		return m, nil

	case ErrorMsg:
		m.errorText = msg.Text
		m.syncItems()
		return m, nil

	case tea.KeyMsg:
		m.errorText = ""
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// syncItems replaces the list contents from the store.
func (m *Model) syncItems() {
	notifs := m.store.Notifications()
	items := make([]list.Item, len(notifs))
	for i, n := range notifs {
		items[i] = Item{Notification: n}
	}
	m.list.SetItems(items)
	m.list.Title = m.title()
}

// title renders the list header with the active filters.
func (m Model) title() string {
	t := "Notifications"
	if unread := m.store.UnreadCount(); unread > 0 {
		t = fmt.Sprintf("Notifications (%d unread)", unread)
	}
	if typ := typeFilters[m.typeIndex]; typ != nil {
		t += " · " + string(*typ)
	}
	switch m.readIndex {
	case 1:
		t += " · unread only"
	case 2:
		t += " · read only"
	}
	return t
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.store.SetSearchQuery(m.searchInput.Value())
		return m, m.fetch()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.store.SetSearchQuery("")
		return m, m.fetch()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(Item)
		if !ok {
			return m, nil
		}
		n := item.Notification
		cmds := []tea.Cmd{}
		if !n.IsRead {
			cmds = append(cmds, m.markRead(n.ID))
		}
		if n.ReferenceType != nil && n.ReferenceID != nil {
			refType, refID := *n.ReferenceType, *n.ReferenceID
			cmds = append(cmds, func() tea.Msg {
				return OpenReferenceMsg{ReferenceType: refType, ReferenceID: refID}
			})
		}
		return m, tea.Batch(cmds...)

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.ToggleRead):
		item, ok := m.list.SelectedItem().(Item)
		if !ok {
			return m, nil
		}
		if item.Notification.IsRead {
			return m, m.markUnread(item.Notification.ID)
		}
		return m, m.markRead(item.Notification.ID)

	case key.Matches(msg, m.keys.MarkAllRead):
		return m, m.markAllRead()

	case key.Matches(msg, m.keys.Delete):
		item, ok := m.list.SelectedItem().(Item)
		if !ok {
			return m, nil
		}
		return m, m.delete(item.Notification.ID)

	case key.Matches(msg, m.keys.FilterType):
		m.typeIndex = (m.typeIndex + 1) % len(typeFilters)
		typ := typeFilters[m.typeIndex]
		return m, func() tea.Msg {
			if err := m.store.SetTypeFilter(context.Background(), typ); err != nil {
				return ErrorMsg{Text: api.Message(err, "could not load notifications")}
			}
			return RefreshedMsg{}
		}

	case key.Matches(msg, m.keys.FilterRead):
		m.readIndex = (m.readIndex + 1) % 3
		var isRead *bool
		switch m.readIndex {
		case 1:
			isRead = ptr(false)
		case 2:
			isRead = ptr(true)
		}
		return m, func() tea.Msg {
			if err := m.store.SetReadFilter(context.Background(), isRead); err != nil {
				return ErrorMsg{Text: api.Message(err, "could not load notifications")}
			}
			return RefreshedMsg{}
		}

	case key.Matches(msg, m.keys.LoadMore):
		return m, func() tea.Msg {
			if err := m.store.FetchMore(context.Background()); err != nil {
				return ErrorMsg{Text: api.Message(err, "could not load more notifications")}
			}
			return RefreshedMsg{}
		}

	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetch()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// fetch replaces the list with page 1 under the current filters.
func (m Model) fetch() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		if err := s.Fetch(context.Background(), notify.FetchParams{Page: 1}); err != nil {
			return ErrorMsg{Text: api.Message(err, "could not load notifications")}
		}
		if err := s.FetchUnreadCount(context.Background()); err != nil {
			return ErrorMsg{Text: api.Message(err, "could not load unread count")}
		}
		return RefreshedMsg{}
	}
}

func (m Model) markRead(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		if err := s.MarkAsRead(context.Background(), id); err != nil {
			return ErrorMsg{Text: api.Message(err, "could not mark as read")}
		}
		return RefreshedMsg{}
	}
}

func (m Model) markUnread(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		if err := s.MarkAsUnread(context.Background(), id); err != nil {
			return ErrorMsg{Text: api.Message(err, "could not mark as unread")}
		}
		return RefreshedMsg{}
	}
}

func (m Model) markAllRead() tea.Cmd {
	s := m.store
	typ := typeFilters[m.typeIndex]
	return func() tea.Msg {
		if err := s.MarkAllAsRead(context.Background(), typ); err != nil {
			return ErrorMsg{Text: api.Message(err, "could not mark all as read")}
		}
		return RefreshedMsg{}
	}
}

func (m Model) delete(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		if err := s.DeleteNotification(context.Background(), id); err != nil {
			return ErrorMsg{Text: api.Message(err, "could not delete notification")}
		}
		return RefreshedMsg{}
	}
}

// View renders the notifications panel.
func (m Model) View() string {
	if m.searchMode {
		return m.searchInput.View() + "\n" + m.list.View()
	}
	if m.errorText != "" {
		errLine := theme.HelpStyle.Foreground(theme.ColorRed).Render(m.errorText)
		return errLine + "\n" + m.list.View()
	}
	return m.list.View()
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
