package report

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nicway1/truelog-cli/internal/kvstore"
	"github.com/nicway1/truelog-cli/internal/model"
)

const savedKey = "reports.saved"

// SavedStore keeps the client-only list of saved report configurations
// in the durable key-value store.
type SavedStore struct {
	mu       sync.Mutex
	kv       kvstore.Store
	log      zerolog.Logger
	validate *validator.Validate

	saved []model.SavedReport
}

// NewSavedStore loads any persisted saved reports.
func NewSavedStore(kv kvstore.Store, log zerolog.Logger) *SavedStore {
	s := &SavedStore{
		kv:       kv,
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	if _, err := kvstore.GetJSON(kv, savedKey, &s.saved); err != nil {
		log.Warn().Err(err).Msg("discarding unreadable saved reports")
		s.saved = nil
	}
	return s
}

// Save stores a new saved report configuration and returns its id.
func (s *SavedStore) Save(r model.SavedReport) (string, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.SavedAt.IsZero() {
		r.SavedAt = time.Now()
	}
	if err := s.validate.Struct(r); err != nil {
		return "", fmt.Errorf("invalid saved report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i := range s.saved {
		if s.saved[i].ID == r.ID {
			s.saved[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		s.saved = append(s.saved, r)
	}
	s.persist()
	return r.ID, nil
}

// TouchLastRun stamps a saved report after it was replayed.
func (s *SavedStore) TouchLastRun(id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.saved {
		if s.saved[i].ID == id {
			ts := at
			s.saved[i].LastRun = &ts
			s.persist()
			return
		}
	}
}

// Get returns a saved report by id, or nil.
func (s *SavedStore) Get(id string) *model.SavedReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.saved {
		if r.ID == id {
			out := r
			return &out
		}
	}
	return nil
}

// List returns all saved reports, most recently saved first.
func (s *SavedStore) List() []model.SavedReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.SavedReport, len(s.saved))
	copy(out, s.saved)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out
}

// Delete removes a saved report by id. Unknown ids are a no-op.
func (s *SavedStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.saved {
		if s.saved[i].ID == id {
			s.saved = append(s.saved[:i], s.saved[i+1:]...)
			s.persist()
			return
		}
	}
}

// persist writes the list; callers hold the lock.
func (s *SavedStore) persist() {
	if err := kvstore.SetJSON(s.kv, savedKey, s.saved); err != nil {
		s.log.Warn().Err(err).Msg("persisting saved reports")
	}
}
