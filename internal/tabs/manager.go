// Package tabs maintains the ordered set of logical views the user has
// open, analogous to browser tabs. State is persisted to the session
// key-value store after every mutation so it survives view restarts
// within one run of the client.
package tabs

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nicway1/truelog-cli/internal/kvstore"
	"github.com/nicway1/truelog-cli/internal/model"
)

const sessionKey = "tabs.session"

// Manager owns the tab list and the active-tab pointer. Every operation
// is synchronous and leaves the invariants intact: ids unique, at most one
// tab per URL, home tab first and never closable, active id always valid.
type Manager struct {
	mu       sync.Mutex
	tabs     []model.Tab
	activeID string
	store    kvstore.Store
	log      zerolog.Logger
}

// New creates a manager, restoring any persisted session and normalizing
// it so the home tab exists and is first.
func New(store kvstore.Store, log zerolog.Logger) *Manager {
	m := &Manager{store: store, log: log}

	var sess model.TabSession
	ok, err := kvstore.GetJSON(store, sessionKey, &sess)
	if err != nil {
		log.Warn().Err(err).Msg("discarding unreadable tab session")
	}
	if ok && err == nil {
		m.tabs = sess.Tabs
		m.activeID = sess.ActiveTabID
	}

	m.normalize()
	m.persist()
	return m
}

// normalize enforces the structural invariants on restored state: the
// home tab exists and is first, ids and URLs are unique, and the active
// id refers to an existing tab.
func (m *Manager) normalize() {
	seenID := make(map[string]bool)
	seenURL := make(map[string]bool)

	var cleaned []model.Tab
	for _, t := range m.tabs {
		if t.ID == "" || seenID[t.ID] || seenURL[t.URL] {
			continue
		}
		seenID[t.ID] = true
		seenURL[t.URL] = true
		cleaned = append(cleaned, t)
	}
	m.tabs = cleaned

	homeIdx := m.indexOf(model.HomeTabID)
	if homeIdx < 0 {
		m.tabs = append([]model.Tab{model.HomeTab()}, m.tabs...)
	} else {
		home := m.tabs[homeIdx]
		home.Closable = false
		m.tabs = append(m.tabs[:homeIdx], m.tabs[homeIdx+1:]...)
		m.tabs = append([]model.Tab{home}, m.tabs...)
	}

	if m.indexOf(m.activeID) < 0 {
		m.activeID = model.HomeTabID
	}
}

// persist writes the current session; persistence failure is logged, not
// surfaced, since the in-memory state stays authoritative.
func (m *Manager) persist() {
	sess := model.TabSession{Tabs: m.tabs, ActiveTabID: m.activeID}
	if err := kvstore.SetJSON(m.store, sessionKey, sess); err != nil {
		m.log.Warn().Err(err).Msg("persisting tab session")
	}
}

// indexOf returns the position of the tab with the given id, or -1.
func (m *Manager) indexOf(id string) int {
	for i, t := range m.tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// OpenNewTab opens a view by URL with browser-like dedup: if a tab with
// this URL already exists it is activated and its id returned; otherwise
// a new closable tab is appended, activated, and its id returned.
func (m *Manager) OpenNewTab(url, title string, icon model.TabIcon) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tabs {
		if t.URL == url {
			m.activeID = t.ID
			m.persist()
			return t.ID
		}
	}

	tab := model.Tab{
		ID:       uuid.New().String(),
		Title:    title,
		URL:      url,
		Icon:     icon,
		Closable: true,
	}
	m.tabs = append(m.tabs, tab)
	m.activeID = tab.ID
	m.persist()
	return tab.ID
}

// AddTab unconditionally appends and activates a tab, bypassing the
// duplicate-by-URL check. The tab is assigned a fresh id if it has none.
func (m *Manager) AddTab(tab model.Tab) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tab.ID == "" {
		tab.ID = uuid.New().String()
	}
	m.tabs = append(m.tabs, tab)
	m.activeID = tab.ID
	m.persist()
	return tab.ID
}

// RemoveTab closes a tab. Non-closable tabs (home) are left untouched.
// If the removed tab was active, the tab immediately to its left becomes
// active.
func (m *Manager) RemoveTab(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(id)
	if idx < 0 || !m.tabs[idx].Closable {
		return
	}

	wasActive := m.activeID == id
	m.tabs = append(m.tabs[:idx], m.tabs[idx+1:]...)

	if wasActive {
		if len(m.tabs) == 0 {
			m.activeID = ""
		} else {
			newIdx := idx - 1
			if newIdx < 0 {
				newIdx = 0
			}
			m.activeID = m.tabs[newIdx].ID
		}
	}
	m.persist()
}

// SetActiveTab activates the tab with the given id. Unknown ids are
// silently ignored (fail-soft, matching stale references from the view
// layer).
func (m *Manager) SetActiveTab(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOf(id) < 0 {
		return
	}
	m.activeID = id
	m.persist()
}

// TabUpdate is a merge patch for a tab; nil fields are left unchanged.
type TabUpdate struct {
	Title    *string
	URL      *string
	Icon     *model.TabIcon
	Closable *bool
}

// UpdateTab merge-patches an existing tab. Absent ids are a no-op.
func (m *Manager) UpdateTab(id string, patch TabUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(id)
	if idx < 0 {
		return
	}

	t := &m.tabs[idx]
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.URL != nil {
		t.URL = *patch.URL
	}
	if patch.Icon != nil {
		t.Icon = *patch.Icon
	}
	if patch.Closable != nil && t.ID != model.HomeTabID {
		t.Closable = *patch.Closable
	}
	m.persist()
}

// ReorderTabs moves the tab at fromIndex to toIndex. Out-of-range indices
// are clamped into the valid range.
func (m *Manager) ReorderTabs(fromIndex, toIndex int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.tabs)
	if n < 2 {
		return
	}
	fromIndex = clamp(fromIndex, 0, n-1)
	toIndex = clamp(toIndex, 0, n-1)
	if fromIndex == toIndex {
		return
	}

	tab := m.tabs[fromIndex]
	m.tabs = append(m.tabs[:fromIndex], m.tabs[fromIndex+1:]...)

	rest := make([]model.Tab, 0, n)
	rest = append(rest, m.tabs[:toIndex]...)
	rest = append(rest, tab)
	rest = append(rest, m.tabs[toIndex:]...)
	m.tabs = rest

	m.normalize()
	m.persist()
}

// CloseAllTabs removes every closable tab and activates home.
func (m *Manager) CloseAllTabs() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeMatching(func(model.Tab) bool { return true })
	m.activeID = model.HomeTabID
	m.persist()
}

// CloseOtherTabs removes every closable tab except the given one. The
// active tab resets to home, same as CloseAllTabs, even when the kept
// tab was active.
func (m *Manager) CloseOtherTabs(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeMatching(func(t model.Tab) bool { return t.ID != id })
	m.activeID = model.HomeTabID
	m.persist()
}

// CloseTabsToRight removes every closable tab positioned after the given
// tab. Unknown ids are a no-op.
func (m *Manager) CloseTabsToRight(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(id)
	if idx < 0 {
		return
	}

	keep := m.tabs[:idx+1]
	for _, t := range m.tabs[idx+1:] {
		if !t.Closable {
			keep = append(keep, t)
		}
	}
	m.tabs = keep
	if m.indexOf(m.activeID) < 0 {
		m.activeID = id
	}
	m.persist()
}

// closeMatching removes closable tabs for which pred returns true.
// Callers hold the lock and fix up the active pointer afterwards.
func (m *Manager) closeMatching(pred func(model.Tab) bool) {
	var keep []model.Tab
	for _, t := range m.tabs {
		if !t.Closable || !pred(t) {
			keep = append(keep, t)
		}
	}
	m.tabs = keep
}

// ActiveTab returns the currently active tab, or nil when the list is
// empty (never the case in steady state: home always exists).
func (m *Manager) ActiveTab() *model.Tab {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(m.activeID)
	if idx < 0 {
		return nil
	}
	t := m.tabs[idx]
	return &t
}

// TabByID returns a copy of the tab with the given id, or nil.
func (m *Manager) TabByID(id string) *model.Tab {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(id)
	if idx < 0 {
		return nil
	}
	t := m.tabs[idx]
	return &t
}

// TabByURL returns a copy of the tab with the given URL, or nil.
func (m *Manager) TabByURL(url string) *model.Tab {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tabs {
		if t.URL == url {
			tab := t
			return &tab
		}
	}
	return nil
}

// Tabs returns a copy of the current tab list in order.
func (m *Manager) Tabs() []model.Tab {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Tab, len(m.tabs))
	copy(out, m.tabs)
	return out
}

// ActiveTabID returns the id of the active tab.
func (m *Manager) ActiveTabID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
