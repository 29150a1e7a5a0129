package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nicway1/truelog-cli/internal/kvstore"
	"github.com/nicway1/truelog-cli/internal/model"
)

// fakePrefs records layout pushes; Get serves a configured layout.
// Pushes arrive from the store's commit goroutine, hence the mutex.
type fakePrefs struct {
	mu      sync.Mutex
	remote  *model.DashboardLayout
	pushed  []model.DashboardLayout
	failGet bool
}

func (f *fakePrefs) GetDashboardLayout(context.Context) (*model.DashboardLayout, error) {
	if f.failGet {
		return nil, errors.New("backend unavailable")
	}
	return f.remote, nil
}

func (f *fakePrefs) PutDashboardLayout(_ context.Context, layout model.DashboardLayout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, layout)
	return nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(kvstore.NewMemory(), nil, zerolog.Nop())
}

func layoutJSON(t *testing.T, l model.DashboardLayout) string {
	t.Helper()
	data, err := json.Marshal(l)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestNewFallsBackToDefaultLayout(t *testing.T) {
	s := newTestStore(t)

	def := model.DefaultDashboardLayout()
	if got := len(s.AllWidgets()); got != len(def.Widgets) {
		t.Fatalf("expected %d default widgets, got %d", len(def.Widgets), got)
	}
}

func TestDirectMutationStampsAndPersists(t *testing.T) {
	kv := kvstore.NewMemory()
	s := New(kv, nil, zerolog.Nop())

	s.SetWidgetEnabled(context.Background(), "queue_load", true)

	layout := s.Layout()
	if layout.LastUpdated == nil {
		t.Fatal("direct mutation must stamp lastUpdated")
	}

	// A fresh store over the same kv sees the change.
	restored := New(kv, nil, zerolog.Nop())
	w := restored.WidgetConfig("queue_load")
	if w == nil || !w.Enabled {
		t.Error("direct mutation was not persisted")
	}
}

func TestDraftMutationDoesNotTouchCommitted(t *testing.T) {
	s := newTestStore(t)
	before := layoutJSON(t, s.Layout())

	s.StartEditing()
	s.SetWidgetEnabled(context.Background(), "open_tickets", false)
	s.SetWidgetSize(context.Background(), "asset_summary", model.WidgetSmall)

	if got := layoutJSON(t, s.Layout()); got != before {
		t.Error("draft edits leaked into the committed layout")
	}
	if !s.HasUnsavedChanges() {
		t.Error("draft edits must flag unsaved changes")
	}
}

func TestCancelEditingRestoresByteEqualLayout(t *testing.T) {
	s := newTestStore(t)
	before := layoutJSON(t, s.Layout())

	s.StartEditing()
	s.SetWidgetEnabled(context.Background(), "open_tickets", false)
	s.ReorderWidgets(context.Background(), 0, 3)
	s.CancelEditing()

	if got := layoutJSON(t, s.Layout()); got != before {
		t.Errorf("layout after cancel = %s, want pre-draft %s", got, before)
	}
	if s.Editing() {
		t.Error("cancel must close the edit session")
	}
}

func TestSaveChangesCommitsDraft(t *testing.T) {
	s := newTestStore(t)

	s.StartEditing()
	s.SetWidgetEnabled(context.Background(), "open_tickets", false)
	s.SaveChanges(context.Background())

	if s.Editing() || s.HasUnsavedChanges() {
		t.Error("save must close the edit session")
	}
	w := s.WidgetConfig("open_tickets")
	if w == nil || w.Enabled {
		t.Error("draft change not committed")
	}
	if s.Layout().LastUpdated == nil {
		t.Error("save must stamp lastUpdated")
	}
}

func TestEnabledWidgetsSortedByPosition(t *testing.T) {
	s := newTestStore(t)
	s.SetWidgetPosition(context.Background(), "open_tickets", 50)

	widgets := s.EnabledWidgets()
	for i, w := range widgets {
		if !w.Enabled {
			t.Errorf("widget %q at %d is disabled", w.WidgetID, i)
		}
		if i > 0 && widgets[i-1].Position > w.Position {
			t.Errorf("widgets not sorted: %d before %d", widgets[i-1].Position, w.Position)
		}
	}
}

func TestSelectorsReadDraftWhileEditing(t *testing.T) {
	s := newTestStore(t)

	s.StartEditing()
	s.SetWidgetEnabled(context.Background(), "open_tickets", false)

	for _, w := range s.EnabledWidgets() {
		if w.WidgetID == "open_tickets" {
			t.Error("selector must reflect the draft while editing")
		}
	}
}

func TestReorderWidgetsClampsAndRenumbers(t *testing.T) {
	s := newTestStore(t)

	s.ReorderWidgets(context.Background(), -3, 999)

	widgets := s.AllWidgets()
	for i, w := range widgets {
		if w.Position != i {
			t.Errorf("position[%d] = %d, want contiguous %d", i, w.Position, i)
		}
	}
	// First default widget moved to the end.
	if widgets[len(widgets)-1].WidgetID != "open_tickets" {
		t.Errorf("expected open_tickets last, got %q", widgets[len(widgets)-1].WidgetID)
	}
}

func TestAddWidgetRejectsDuplicates(t *testing.T) {
	s := newTestStore(t)
	before := len(s.AllWidgets())

	s.AddWidget(context.Background(), model.WidgetConfig{WidgetID: "open_tickets", Enabled: true, Size: model.WidgetSmall})

	if got := len(s.AllWidgets()); got != before {
		t.Errorf("duplicate widget id added: %d widgets", got)
	}
}

func TestAddAndRemoveWidget(t *testing.T) {
	s := newTestStore(t)

	s.AddWidget(context.Background(), model.WidgetConfig{WidgetID: "sla_breaches", Enabled: true, Size: model.WidgetMedium})
	w := s.WidgetConfig("sla_breaches")
	if w == nil {
		t.Fatal("widget not added")
	}
	if w.Position <= 0 {
		t.Errorf("new widget position = %d, want appended at the end", w.Position)
	}

	s.RemoveWidget(context.Background(), "sla_breaches")
	if s.WidgetConfig("sla_breaches") != nil {
		t.Error("widget not removed")
	}
}

func TestResetToDefault(t *testing.T) {
	s := newTestStore(t)
	s.SetWidgetEnabled(context.Background(), "open_tickets", false)
	s.RemoveWidget(context.Background(), "asset_summary")

	s.ResetToDefault(context.Background())

	def := model.DefaultDashboardLayout()
	got := s.AllWidgets()
	if !reflect.DeepEqual(got, sortedWidgets(def.Widgets)) {
		t.Errorf("reset layout = %v, want default", got)
	}
}

func TestSyncPrefersNewerRemote(t *testing.T) {
	newer := time.Now().Add(time.Hour)
	remote := model.DefaultDashboardLayout()
	remote.Widgets[0].Enabled = false
	remote.LastUpdated = &newer

	prefs := &fakePrefs{remote: &remote}
	s := New(kvstore.NewMemory(), prefs, zerolog.Nop())
	s.SetWidgetSize(context.Background(), "open_tickets", model.WidgetLarge)

	s.Sync(context.Background())

	w := s.WidgetConfig("open_tickets")
	if w == nil || w.Enabled {
		t.Error("newer remote layout should replace local state")
	}
}

func TestSyncIgnoresOlderRemote(t *testing.T) {
	older := time.Now().Add(-time.Hour)
	remote := model.DefaultDashboardLayout()
	remote.Widgets[0].Enabled = false
	remote.LastUpdated = &older

	prefs := &fakePrefs{remote: &remote}
	s := New(kvstore.NewMemory(), prefs, zerolog.Nop())
	s.SetWidgetSize(context.Background(), "open_tickets", model.WidgetLarge)

	s.Sync(context.Background())

	w := s.WidgetConfig("open_tickets")
	if w == nil || !w.Enabled {
		t.Error("older remote layout must not replace local state")
	}
}

func TestSyncSurvivesBackendFailure(t *testing.T) {
	prefs := &fakePrefs{failGet: true}
	s := New(kvstore.NewMemory(), prefs, zerolog.Nop())

	s.Sync(context.Background()) // must not panic or clear state

	if len(s.AllWidgets()) == 0 {
		t.Error("layout lost on failed sync")
	}
}
