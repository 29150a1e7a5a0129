// Package dashboard manages the user's widget layout with two mutation
// modes: direct (no edit session, changes commit immediately) and draft
// (an open customizer accumulates changes that only take effect on save).
package dashboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nicway1/truelog-cli/internal/kvstore"
	"github.com/nicway1/truelog-cli/internal/model"
)

const layoutKey = "dashboard.layout"

// Preferences is the backend surface for layout sync. *api.Client
// satisfies it.
type Preferences interface {
	GetDashboardLayout(ctx context.Context) (*model.DashboardLayout, error)
	PutDashboardLayout(ctx context.Context, layout model.DashboardLayout) error
}

// Store holds the committed layout plus an optional draft. Every mutator
// routes through a single target-layout resolution: the draft while a
// customizer session is open, the committed layout otherwise.
type Store struct {
	mu    sync.Mutex
	kv    kvstore.Store
	prefs Preferences
	log   zerolog.Logger

	layout  model.DashboardLayout
	draft   *model.DashboardLayout
	unsaved bool
}

// New creates a store seeded from the durable cache, falling back to the
// default layout. prefs may be nil (offline operation).
func New(kv kvstore.Store, prefs Preferences, log zerolog.Logger) *Store {
	s := &Store{kv: kv, prefs: prefs, log: log}

	var cached model.DashboardLayout
	ok, err := kvstore.GetJSON(kv, layoutKey, &cached)
	if err != nil {
		log.Warn().Err(err).Msg("discarding unreadable dashboard layout")
	}
	if ok && err == nil && len(cached.Widgets) > 0 {
		s.layout = cached
	} else {
		s.layout = model.DefaultDashboardLayout()
	}
	return s
}

// Sync pulls the server copy of the layout, replacing the local one when
// the backend has a newer stamp. Best-effort: errors are logged only.
func (s *Store) Sync(ctx context.Context) {
	if s.prefs == nil {
		return
	}
	remote, err := s.prefs.GetDashboardLayout(ctx)
	if err != nil {
		s.log.Debug().Err(err).Msg("dashboard layout sync failed")
		return
	}
	if remote == nil || len(remote.Widgets) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.layout.LastUpdated != nil && remote.LastUpdated != nil &&
		!remote.LastUpdated.After(*s.layout.LastUpdated) {
		return
	}
	s.layout = remote.Clone()
	s.persistLocked()
}

// target resolves which layout mutators operate on: the draft while
// editing, the committed layout otherwise.
func (s *Store) target() *model.DashboardLayout {
	if s.draft != nil {
		return s.draft
	}
	return &s.layout
}

// afterMutate finishes a mutation: a draft edit just flags unsaved
// changes, a direct edit stamps and persists immediately.
func (s *Store) afterMutate() {
	if s.draft != nil {
		s.unsaved = true
		return
	}
	s.commitLocked()
}

// pushTimeout bounds the detached backend push after a commit.
const pushTimeout = 10 * time.Second

// commitLocked stamps the committed layout and persists it locally and,
// best-effort, to the backend. Callers hold the lock.
func (s *Store) commitLocked() {
	now := time.Now()
	s.layout.LastUpdated = &now
	s.persistLocked()

	if s.prefs != nil {
		// Push outside the lock with its own context: the push outlives
		// the mutating call, so the caller's ctx must not cancel it. The
		// local copy stays authoritative if the backend is unreachable.
		layout := s.layout.Clone()
		go func() {
			pushCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
			defer cancel()
			if err := s.prefs.PutDashboardLayout(pushCtx, layout); err != nil {
				s.log.Debug().Err(err).Msg("pushing dashboard layout failed")
			}
		}()
	}
}

// persistLocked writes the committed layout to the durable cache.
func (s *Store) persistLocked() {
	if err := kvstore.SetJSON(s.kv, layoutKey, s.layout); err != nil {
		s.log.Warn().Err(err).Msg("persisting dashboard layout")
	}
}

// StartEditing opens a customizer session: a snapshot copy of the
// committed layout becomes the mutation target. Re-entry is a no-op.
func (s *Store) StartEditing() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft != nil {
		return
	}
	draft := s.layout.Clone()
	s.draft = &draft
	s.unsaved = false
}

// SaveChanges commits the draft, stamping LastUpdated, and closes the
// edit session. A no-op without an open session.
func (s *Store) SaveChanges(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft == nil {
		return
	}
	s.layout = *s.draft
	s.draft = nil
	s.unsaved = false
	s.commitLocked()
}

// CancelEditing discards the draft without committing.
func (s *Store) CancelEditing() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = nil
	s.unsaved = false
}

// Editing reports whether a customizer session is open.
func (s *Store) Editing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft != nil
}

// HasUnsavedChanges reports whether the open draft differs from the
// committed layout.
func (s *Store) HasUnsavedChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsaved
}

// SetWidgetEnabled toggles a widget's visibility.
func (s *Store) SetWidgetEnabled(ctx context.Context, widgetID string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.target()
	for i := range t.Widgets {
		if t.Widgets[i].WidgetID == widgetID {
			t.Widgets[i].Enabled = enabled
			s.afterMutate()
			return
		}
	}
}

// SetWidgetSize changes a widget's rendered size.
func (s *Store) SetWidgetSize(ctx context.Context, widgetID string, size model.WidgetSize) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.target()
	for i := range t.Widgets {
		if t.Widgets[i].WidgetID == widgetID {
			t.Widgets[i].Size = size
			s.afterMutate()
			return
		}
	}
}

// SetWidgetPosition assigns an explicit position value.
func (s *Store) SetWidgetPosition(ctx context.Context, widgetID string, position int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.target()
	for i := range t.Widgets {
		if t.Widgets[i].WidgetID == widgetID {
			t.Widgets[i].Position = position
			s.afterMutate()
			return
		}
	}
}

// SetWidgetConfig replaces a widget's option map.
func (s *Store) SetWidgetConfig(ctx context.Context, widgetID string, config map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.target()
	for i := range t.Widgets {
		if t.Widgets[i].WidgetID == widgetID {
			t.Widgets[i].Config = config
			s.afterMutate()
			return
		}
	}
}

// ReorderWidgets moves the widget at fromIndex (in position order) to
// toIndex and renumbers positions contiguously. Out-of-range indices are
// clamped.
func (s *Store) ReorderWidgets(ctx context.Context, fromIndex, toIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.target()
	ordered := sortedWidgets(t.Widgets)
	n := len(ordered)
	if n < 2 {
		return
	}
	fromIndex = clamp(fromIndex, 0, n-1)
	toIndex = clamp(toIndex, 0, n-1)
	if fromIndex == toIndex {
		return
	}

	w := ordered[fromIndex]
	ordered = append(ordered[:fromIndex], ordered[fromIndex+1:]...)

	rest := make([]model.WidgetConfig, 0, n)
	rest = append(rest, ordered[:toIndex]...)
	rest = append(rest, w)
	rest = append(rest, ordered[toIndex:]...)

	for i := range rest {
		rest[i].Position = i
	}
	t.Widgets = rest
	s.afterMutate()
}

// AddWidget appends a widget at the end of the order. Duplicate ids are
// ignored: a widget appears at most once in a layout.
func (s *Store) AddWidget(ctx context.Context, w model.WidgetConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.target()
	for _, existing := range t.Widgets {
		if existing.WidgetID == w.WidgetID {
			return
		}
	}

	maxPos := -1
	for _, existing := range t.Widgets {
		if existing.Position > maxPos {
			maxPos = existing.Position
		}
	}
	w.Position = maxPos + 1
	t.Widgets = append(t.Widgets, w)
	s.afterMutate()
}

// RemoveWidget deletes a widget from the layout.
func (s *Store) RemoveWidget(ctx context.Context, widgetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.target()
	for i := range t.Widgets {
		if t.Widgets[i].WidgetID == widgetID {
			t.Widgets = append(t.Widgets[:i], t.Widgets[i+1:]...)
			s.afterMutate()
			return
		}
	}
}

// ResetToDefault replaces the target layout with the hard-coded default.
func (s *Store) ResetToDefault(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def := model.DefaultDashboardLayout()
	t := s.target()
	t.Widgets = def.Widgets
	s.afterMutate()
}

// EnabledWidgets returns the enabled widgets of the authoritative layout
// (draft while editing), sorted ascending by position.
func (s *Store) EnabledWidgets() []model.WidgetConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.WidgetConfig
	for _, w := range s.target().Widgets {
		if w.Enabled {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// AllWidgets returns every widget of the authoritative layout sorted by
// position.
func (s *Store) AllWidgets() []model.WidgetConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedWidgets(s.target().Widgets)
}

// WidgetConfig returns the config of one widget, or nil when absent.
func (s *Store) WidgetConfig(widgetID string) *model.WidgetConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.target().Widgets {
		if w.WidgetID == widgetID {
			out := w
			return &out
		}
	}
	return nil
}

// Layout returns a copy of the committed layout.
func (s *Store) Layout() model.DashboardLayout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout.Clone()
}

// sortedWidgets returns a position-sorted copy of widgets.
func sortedWidgets(widgets []model.WidgetConfig) []model.WidgetConfig {
	out := make([]model.WidgetConfig, len(widgets))
	copy(out, widgets)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
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
