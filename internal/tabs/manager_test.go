package tabs

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/nicway1/truelog-cli/internal/kvstore"
	"github.com/nicway1/truelog-cli/internal/model"
)

func newTestManager(t *testing.T) (*Manager, kvstore.Store) {
	t.Helper()
	kv := kvstore.NewMemory()
	return New(kv, zerolog.Nop()), kv
}

func TestNewEnsuresHomeTab(t *testing.T) {
	m, _ := newTestManager(t)

	tabs := m.Tabs()
	if len(tabs) != 1 {
		t.Fatalf("expected 1 tab, got %d", len(tabs))
	}
	if tabs[0].ID != model.HomeTabID {
		t.Errorf("expected home tab first, got %q", tabs[0].ID)
	}
	if tabs[0].Closable {
		t.Error("home tab must not be closable")
	}
	if m.ActiveTabID() != model.HomeTabID {
		t.Errorf("expected home active, got %q", m.ActiveTabID())
	}
}

func TestOpenNewTabDedupesByURL(t *testing.T) {
	m, _ := newTestManager(t)

	first := m.OpenNewTab("/tickets/42", "Ticket #42", model.IconTicket)
	m.OpenNewTab("/assets", "Assets", model.IconAsset)
	again := m.OpenNewTab("/tickets/42", "Ticket #42 (dup)", model.IconTicket)

	if first != again {
		t.Errorf("expected duplicate open to return existing id %q, got %q", first, again)
	}

	count := 0
	for _, tab := range m.Tabs() {
		if tab.URL == "/tickets/42" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one tab for the url, got %d", count)
	}
	if m.ActiveTabID() != first {
		t.Errorf("expected re-open to activate existing tab %q, got %q", first, m.ActiveTabID())
	}
}

func TestAddTabSkipsDedup(t *testing.T) {
	m, _ := newTestManager(t)

	a := m.AddTab(model.Tab{Title: "A", URL: "/same", Icon: model.IconDev, Closable: true})
	b := m.AddTab(model.Tab{Title: "B", URL: "/same", Icon: model.IconDev, Closable: true})

	if a == b {
		t.Error("AddTab must create distinct tabs even for the same url")
	}
	if len(m.Tabs()) != 3 {
		t.Errorf("expected 3 tabs, got %d", len(m.Tabs()))
	}
	if m.ActiveTabID() != b {
		t.Errorf("expected last added tab active, got %q", m.ActiveTabID())
	}
}

func TestRemoveTabHomeIsNoop(t *testing.T) {
	m, _ := newTestManager(t)
	m.OpenNewTab("/reports", "Reports", model.IconReport)

	before := len(m.Tabs())
	m.RemoveTab(model.HomeTabID)
	if len(m.Tabs()) != before {
		t.Error("removing the home tab must not change the tab list")
	}
}

func TestRemoveActiveTabActivatesLeftNeighbor(t *testing.T) {
	m, _ := newTestManager(t)

	a := m.OpenNewTab("/a", "A", model.IconTicket)
	b := m.OpenNewTab("/b", "B", model.IconTicket)
	m.OpenNewTab("/c", "C", model.IconTicket)

	m.SetActiveTab(b)
	m.RemoveTab(b)

	if m.ActiveTabID() != a {
		t.Errorf("expected left neighbor %q active after removal, got %q", a, m.ActiveTabID())
	}
}

func TestRemoveInactiveTabKeepsActive(t *testing.T) {
	m, _ := newTestManager(t)

	a := m.OpenNewTab("/a", "A", model.IconTicket)
	b := m.OpenNewTab("/b", "B", model.IconTicket)

	m.SetActiveTab(b)
	m.RemoveTab(a)

	if m.ActiveTabID() != b {
		t.Errorf("expected active tab unchanged, got %q", m.ActiveTabID())
	}
}

func TestSetActiveTabUnknownIDIsNoop(t *testing.T) {
	m, _ := newTestManager(t)
	a := m.OpenNewTab("/a", "A", model.IconTicket)

	m.SetActiveTab("no-such-tab")

	if m.ActiveTabID() != a {
		t.Errorf("expected active tab unchanged, got %q", m.ActiveTabID())
	}
}

func TestUpdateTabMergePatch(t *testing.T) {
	m, _ := newTestManager(t)
	id := m.OpenNewTab("/tickets/7", "Loading...", model.IconTicket)

	title := "Ticket #7 - printer on fire"
	m.UpdateTab(id, TabUpdate{Title: &title})

	tab := m.TabByID(id)
	if tab == nil {
		t.Fatal("tab not found")
	}
	if tab.Title != title {
		t.Errorf("title = %q, want %q", tab.Title, title)
	}
	if tab.URL != "/tickets/7" {
		t.Errorf("url changed unexpectedly: %q", tab.URL)
	}
}

func TestUpdateTabCannotMakeHomeClosable(t *testing.T) {
	m, _ := newTestManager(t)

	closable := true
	m.UpdateTab(model.HomeTabID, TabUpdate{Closable: &closable})

	if m.TabByID(model.HomeTabID).Closable {
		t.Error("home tab must stay non-closable")
	}
}

func TestReorderTabsClampsOutOfRange(t *testing.T) {
	m, _ := newTestManager(t)
	m.OpenNewTab("/a", "A", model.IconTicket)
	m.OpenNewTab("/b", "B", model.IconTicket)

	// Wildly out-of-range indices clamp instead of panicking.
	m.ReorderTabs(-5, 100)

	tabs := m.Tabs()
	if len(tabs) != 3 {
		t.Fatalf("expected 3 tabs, got %d", len(tabs))
	}
	if tabs[0].ID != model.HomeTabID {
		t.Error("home tab must stay first after reorder")
	}
}

func TestReorderTabsMoves(t *testing.T) {
	m, _ := newTestManager(t)
	m.OpenNewTab("/a", "A", model.IconTicket)
	b := m.OpenNewTab("/b", "B", model.IconTicket)
	m.OpenNewTab("/c", "C", model.IconTicket)

	// home, a, b, c -> move b before a
	m.ReorderTabs(2, 1)

	tabs := m.Tabs()
	if tabs[1].ID != b {
		t.Errorf("expected %q at index 1, got %q", b, tabs[1].ID)
	}
}

func TestCloseAllTabsResetsToHome(t *testing.T) {
	m, _ := newTestManager(t)
	m.OpenNewTab("/a", "A", model.IconTicket)
	m.OpenNewTab("/b", "B", model.IconTicket)

	m.CloseAllTabs()

	tabs := m.Tabs()
	if len(tabs) != 1 || tabs[0].ID != model.HomeTabID {
		t.Fatalf("expected only home tab, got %d tabs", len(tabs))
	}
	if m.ActiveTabID() != model.HomeTabID {
		t.Errorf("expected home active, got %q", m.ActiveTabID())
	}
}

func TestCloseOtherTabs(t *testing.T) {
	m, _ := newTestManager(t)
	a := m.OpenNewTab("/a", "A", model.IconTicket)
	m.OpenNewTab("/b", "B", model.IconTicket)
	m.OpenNewTab("/c", "C", model.IconTicket)

	m.CloseOtherTabs(a)

	tabs := m.Tabs()
	if len(tabs) != 2 {
		t.Fatalf("expected home + kept tab, got %d tabs", len(tabs))
	}
	if tabs[1].ID != a {
		t.Errorf("expected kept tab %q, got %q", a, tabs[1].ID)
	}
	if m.ActiveTabID() != model.HomeTabID {
		t.Errorf("expected home active after close-others, got %q", m.ActiveTabID())
	}
}

func TestCloseOtherTabsResetsActiveEvenWhenKeptTabWasActive(t *testing.T) {
	m, _ := newTestManager(t)
	a := m.OpenNewTab("/a", "A", model.IconTicket)
	m.OpenNewTab("/b", "B", model.IconTicket)
	m.SetActiveTab(a)

	m.CloseOtherTabs(a)

	if m.ActiveTabID() != model.HomeTabID {
		t.Errorf("expected home active, got %q", m.ActiveTabID())
	}
}

func TestCloseTabsToRight(t *testing.T) {
	m, _ := newTestManager(t)
	a := m.OpenNewTab("/a", "A", model.IconTicket)
	b := m.OpenNewTab("/b", "B", model.IconTicket)
	c := m.OpenNewTab("/c", "C", model.IconTicket)

	m.SetActiveTab(c)
	m.CloseTabsToRight(a)

	tabs := m.Tabs()
	if len(tabs) != 2 {
		t.Fatalf("expected 2 tabs, got %d", len(tabs))
	}
	if m.TabByID(b) != nil || m.TabByID(c) != nil {
		t.Error("tabs to the right should be closed")
	}
	if m.ActiveTabID() != a {
		t.Errorf("expected %q active after its right side closed, got %q", a, m.ActiveTabID())
	}
}

func TestSessionRoundTrip(t *testing.T) {
	kv := kvstore.NewMemory()
	m := New(kv, zerolog.Nop())

	a := m.OpenNewTab("/a", "A", model.IconAsset)
	m.OpenNewTab("/b", "B", model.IconReport)
	m.SetActiveTab(a)

	// A second manager over the same store restores the session.
	restored := New(kv, zerolog.Nop())

	if len(restored.Tabs()) != 3 {
		t.Fatalf("expected 3 restored tabs, got %d", len(restored.Tabs()))
	}
	if restored.ActiveTabID() != a {
		t.Errorf("expected active tab %q restored, got %q", a, restored.ActiveTabID())
	}
	if restored.Tabs()[0].ID != model.HomeTabID {
		t.Error("home tab must be first after restore")
	}
}

func TestRestoreCorruptSessionFallsBackToHome(t *testing.T) {
	kv := kvstore.NewMemory()
	if err := kv.Set("tabs.session", "{not json"); err != nil {
		t.Fatal(err)
	}

	m := New(kv, zerolog.Nop())

	tabs := m.Tabs()
	if len(tabs) != 1 || tabs[0].ID != model.HomeTabID {
		t.Fatalf("expected clean home-only session, got %d tabs", len(tabs))
	}
}
