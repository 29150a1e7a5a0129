package report

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nicway1/truelog-cli/internal/kvstore"
	"github.com/nicway1/truelog-cli/internal/model"
)

func newSavedStore(t *testing.T) (*SavedStore, kvstore.Store) {
	t.Helper()
	kv := kvstore.NewMemory()
	return NewSavedStore(kv, zerolog.Nop()), kv
}

func TestSaveAssignsIDAndTimestamp(t *testing.T) {
	s, _ := newSavedStore(t)

	id, err := s.Save(model.SavedReport{
		Name:       "Weekly tickets",
		TemplateID: "ticket_volume",
		Parameters: map[string]any{"date_from": "2026-01-01"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("expected a generated id")
	}

	got := s.Get(id)
	if got == nil {
		t.Fatal("saved report not retrievable")
	}
	if got.SavedAt.IsZero() {
		t.Error("SavedAt not stamped")
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	s, _ := newSavedStore(t)

	if _, err := s.Save(model.SavedReport{TemplateID: "x"}); err == nil {
		t.Error("expected validation error for missing name")
	}
	if _, err := s.Save(model.SavedReport{Name: "x"}); err == nil {
		t.Error("expected validation error for missing template id")
	}
	if len(s.List()) != 0 {
		t.Error("invalid reports must not be stored")
	}
}

func TestSaveReplacesExistingID(t *testing.T) {
	s, _ := newSavedStore(t)

	id, err := s.Save(model.SavedReport{Name: "v1", TemplateID: "t"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(model.SavedReport{ID: id, Name: "v2", TemplateID: "t"}); err != nil {
		t.Fatal(err)
	}

	if got := len(s.List()); got != 1 {
		t.Fatalf("expected 1 report after replace, got %d", got)
	}
	if s.Get(id).Name != "v2" {
		t.Errorf("name = %q, want v2", s.Get(id).Name)
	}
}

func TestListNewestFirst(t *testing.T) {
	s, _ := newSavedStore(t)

	old := time.Now().Add(-time.Hour)
	if _, err := s.Save(model.SavedReport{Name: "old", TemplateID: "t", SavedAt: old}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(model.SavedReport{Name: "new", TemplateID: "t"}); err != nil {
		t.Fatal(err)
	}

	list := s.List()
	if len(list) != 2 || list[0].Name != "new" {
		t.Errorf("list order = %v, want newest first", list)
	}
}

func TestTouchLastRun(t *testing.T) {
	s, _ := newSavedStore(t)

	id, err := s.Save(model.SavedReport{Name: "r", TemplateID: "t"})
	if err != nil {
		t.Fatal(err)
	}

	at := time.Now()
	s.TouchLastRun(id, at)

	got := s.Get(id)
	if got.LastRun == nil || !got.LastRun.Equal(at) {
		t.Errorf("LastRun = %v, want %v", got.LastRun, at)
	}
}

func TestDeleteAndUnknownIDNoop(t *testing.T) {
	s, _ := newSavedStore(t)

	id, err := s.Save(model.SavedReport{Name: "r", TemplateID: "t"})
	if err != nil {
		t.Fatal(err)
	}

	s.Delete("no-such-id")
	if len(s.List()) != 1 {
		t.Error("deleting an unknown id must be a no-op")
	}

	s.Delete(id)
	if len(s.List()) != 0 || s.Get(id) != nil {
		t.Error("report not deleted")
	}
}

func TestSavedReportsPersistAcrossStores(t *testing.T) {
	kv := kvstore.NewMemory()
	s := NewSavedStore(kv, zerolog.Nop())

	id, err := s.Save(model.SavedReport{Name: "r", TemplateID: "t"})
	if err != nil {
		t.Fatal(err)
	}

	restored := NewSavedStore(kv, zerolog.Nop())
	if restored.Get(id) == nil {
		t.Error("saved report lost across store instances")
	}
}

func TestCorruptPersistedListIsDiscarded(t *testing.T) {
	kv := kvstore.NewMemory()
	if err := kv.Set("reports.saved", "[broken"); err != nil {
		t.Fatal(err)
	}

	s := NewSavedStore(kv, zerolog.Nop())
	if len(s.List()) != 0 {
		t.Error("corrupt persisted list must yield an empty store")
	}
}
