// Package notify maintains the paginated notification list and the unread
// counter, with optimistic mutations for low-latency UI feedback.
//
// Failure policy is two-tier: single-item mutations (read/unread/delete)
// roll back to an exact pre-mutation snapshot, while bulk mutations
// resynchronize with an authoritative re-fetch. The tiers are not
// interchangeable: snapshot rollback after a partial bulk failure would
// resurrect items the server already mutated.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nicway1/truelog-cli/internal/api"
	"github.com/nicway1/truelog-cli/internal/model"
)

// Service is the backend surface the store depends on. *api.Client
// satisfies it; tests substitute a scripted fake.
type Service interface {
	ListNotifications(ctx context.Context, q api.NotificationQuery) (*api.NotificationPage, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkUnread(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, typ *model.NotificationType) error
	DeleteNotification(ctx context.Context, id string) error
	BulkDeleteNotifications(ctx context.Context, ids []string) error
	DeleteAllRead(ctx context.Context) error
}

// FetchParams are per-call overrides merged over the store's filter state.
type FetchParams struct {
	Page   int // 0 means page 1
	Type   *model.NotificationType
	IsRead *bool
	Search *string
}

// Store holds one page of notifications plus the unread counter.
type Store struct {
	mu  sync.Mutex
	svc Service
	log zerolog.Logger

	notifications []model.Notification
	unreadCount   int
	pagination    model.Pagination

	typeFilter  *model.NotificationType
	readFilter  *bool
	searchQuery string

	loading     bool
	loadingMore bool
	lastFetched time.Time
}

// New creates an empty notification store.
func New(svc Service, log zerolog.Logger) *Store {
	return &Store{svc: svc, log: log}
}

// query builds the list query from the current filter state with the
// given overrides applied on top.
func (s *Store) query(p FetchParams) api.NotificationQuery {
	q := api.NotificationQuery{
		Page:   p.Page,
		Type:   s.typeFilter,
		IsRead: s.readFilter,
		Search: s.searchQuery,
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if p.Type != nil {
		q.Type = p.Type
	}
	if p.IsRead != nil {
		q.IsRead = p.IsRead
	}
	if p.Search != nil {
		q.Search = *p.Search
	}
	return q
}

// Fetch replaces the current page with a fresh server fetch. On failure
// prior state is left untouched except the loading flag.
func (s *Store) Fetch(ctx context.Context, p FetchParams) error {
	s.mu.Lock()
	q := s.query(p)
	s.loading = true
	s.mu.Unlock()

	page, err := s.svc.ListNotifications(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		return err
	}

	// Copy so later optimistic in-place writes never alias a slice the
	// service still owns.
	s.notifications = append([]model.Notification(nil), page.Items...)
	s.unreadCount = page.UnreadCount
	s.pagination = page.Pagination
	s.lastFetched = time.Now()
	return nil
}

// FetchMore appends the next page to the current list. It is the one
// operation that accumulates rather than replaces; a no-op when the
// server has no further pages.
func (s *Store) FetchMore(ctx context.Context) error {
	s.mu.Lock()
	if !s.pagination.HasNext || s.loadingMore {
		s.mu.Unlock()
		return nil
	}
	q := s.query(FetchParams{Page: s.pagination.CurrentPage + 1})
	s.loadingMore = true
	s.mu.Unlock()

	page, err := s.svc.ListNotifications(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadingMore = false
	if err != nil {
		return err
	}

	s.notifications = append(s.notifications, page.Items...)
	s.unreadCount = page.UnreadCount
	s.pagination = page.Pagination
	s.lastFetched = time.Now()
	return nil
}

// Refresh re-fetches page 1 with the current filters. Failures are
// swallowed: this is background housekeeping, never surfaced.
func (s *Store) Refresh(ctx context.Context) {
	if err := s.Fetch(ctx, FetchParams{Page: 1}); err != nil {
		s.log.Debug().Err(err).Msg("background notification refresh failed")
	}
}

// FetchUnreadCount updates only the unread counter. Used by the poller.
func (s *Store) FetchUnreadCount(ctx context.Context) error {
	count, err := s.svc.UnreadCount(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.unreadCount = count
	s.mu.Unlock()
	return nil
}

// MarkAsRead optimistically flips a notification to read and decrements
// the unread counter, then confirms with the server. On failure the exact
// pre-mutation state is restored.
func (s *Store) MarkAsRead(ctx context.Context, id string) error {
	return s.optimistic(ctx,
		func() {
			now := time.Now()
			for i := range s.notifications {
				if s.notifications[i].ID != id {
					continue
				}
				if !s.notifications[i].IsRead {
					s.notifications[i].IsRead = true
					s.notifications[i].ReadAt = &now
					s.unreadCount = floorZero(s.unreadCount - 1)
				}
				return
			}
		},
		func(ctx context.Context) error { return s.svc.MarkRead(ctx, id) },
	)
}

// MarkAsUnread optimistically flips a notification to unread and bumps
// the unread counter, then confirms with the server.
func (s *Store) MarkAsUnread(ctx context.Context, id string) error {
	return s.optimistic(ctx,
		func() {
			for i := range s.notifications {
				if s.notifications[i].ID != id {
					continue
				}
				if s.notifications[i].IsRead {
					s.notifications[i].IsRead = false
					s.notifications[i].ReadAt = nil
					s.unreadCount++
				}
				return
			}
		},
		func(ctx context.Context) error { return s.svc.MarkUnread(ctx, id) },
	)
}

// DeleteNotification optimistically removes one notification, adjusting
// the unread counter and total when it applies.
func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	return s.optimistic(ctx,
		func() {
			for i := range s.notifications {
				if s.notifications[i].ID != id {
					continue
				}
				if !s.notifications[i].IsRead {
					s.unreadCount = floorZero(s.unreadCount - 1)
				}
				s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
				s.pagination.TotalItems = floorZero(s.pagination.TotalItems - 1)
				return
			}
		},
		func(ctx context.Context) error { return s.svc.DeleteNotification(ctx, id) },
	)
}

// MarkAllAsRead optimistically marks everything (or everything of one
// type) read. The expected residual unread count is computed locally: the
// unread items of other types, or zero without a type filter. On failure
// the optimistic guess is discarded via an authoritative re-fetch.
func (s *Store) MarkAllAsRead(ctx context.Context, typ *model.NotificationType) error {
	s.mu.Lock()
	now := time.Now()
	residual := 0
	for i := range s.notifications {
		n := &s.notifications[i]
		if typ != nil && n.Type != *typ {
			if !n.IsRead {
				residual++
			}
			continue
		}
		if !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
		}
	}
	s.unreadCount = residual
	s.mu.Unlock()

	if err := s.svc.MarkAllRead(ctx, typ); err != nil {
		s.resync(ctx)
		return err
	}
	return nil
}

// BulkDelete optimistically removes the given ids, decrementing the
// unread counter by the number of unread items removed (floored at zero).
// On failure the store resynchronizes with the server.
func (s *Store) BulkDelete(ctx context.Context, ids []string) error {
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	s.mu.Lock()
	var keep []model.Notification
	removedUnread, removed := 0, 0
	for _, n := range s.notifications {
		if !idSet[n.ID] {
			keep = append(keep, n)
			continue
		}
		removed++
		if !n.IsRead {
			removedUnread++
		}
	}
	s.notifications = keep
	s.unreadCount = floorZero(s.unreadCount - removedUnread)
	s.pagination.TotalItems = floorZero(s.pagination.TotalItems - removed)
	s.mu.Unlock()

	if err := s.svc.BulkDeleteNotifications(ctx, ids); err != nil {
		s.resync(ctx)
		return err
	}
	return nil
}

// DeleteAllRead optimistically removes every already-read notification.
// On failure the store resynchronizes with the server.
func (s *Store) DeleteAllRead(ctx context.Context) error {
	s.mu.Lock()
	var keep []model.Notification
	removed := 0
	for _, n := range s.notifications {
		if n.IsRead {
			removed++
			continue
		}
		keep = append(keep, n)
	}
	s.notifications = keep
	s.pagination.TotalItems = floorZero(s.pagination.TotalItems - removed)
	s.mu.Unlock()

	if err := s.svc.DeleteAllRead(ctx); err != nil {
		s.resync(ctx)
		return err
	}
	return nil
}

// resync discards local guesses after a failed bulk mutation by
// re-fetching authoritative state. Best-effort: its own failures are
// swallowed.
func (s *Store) resync(ctx context.Context) {
	s.Refresh(ctx)
	if err := s.FetchUnreadCount(ctx); err != nil {
		s.log.Debug().Err(err).Msg("unread count resync failed")
	}
}

// SetTypeFilter updates the type filter, resets to page 1, and re-fetches.
func (s *Store) SetTypeFilter(ctx context.Context, typ *model.NotificationType) error {
	s.mu.Lock()
	s.typeFilter = typ
	s.mu.Unlock()
	return s.Fetch(ctx, FetchParams{Page: 1})
}

// SetReadFilter updates the read filter, resets to page 1, and re-fetches.
func (s *Store) SetReadFilter(ctx context.Context, isRead *bool) error {
	s.mu.Lock()
	s.readFilter = isRead
	s.mu.Unlock()
	return s.Fetch(ctx, FetchParams{Page: 1})
}

// ClearFilters drops all filters and re-fetches page 1.
func (s *Store) ClearFilters(ctx context.Context) error {
	s.mu.Lock()
	s.typeFilter = nil
	s.readFilter = nil
	s.searchQuery = ""
	s.mu.Unlock()
	return s.Fetch(ctx, FetchParams{Page: 1})
}

// SetSearchQuery updates the search term only. The caller debounces and
// triggers the fetch, keeping keystroke-level calls cheap.
func (s *Store) SetSearchQuery(q string) {
	s.mu.Lock()
	s.searchQuery = q
	s.mu.Unlock()
}

// Notifications returns a copy of the current page.
func (s *Store) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// UnreadCount returns the current unread counter.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadCount
}

// Pagination returns the current pagination state.
func (s *Store) Pagination() model.Pagination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagination
}

// SearchQuery returns the current search term.
func (s *Store) SearchQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchQuery
}

// Loading reports whether a replace-fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LastFetched returns the time of the last successful fetch.
func (s *Store) LastFetched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFetched
}

func floorZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
