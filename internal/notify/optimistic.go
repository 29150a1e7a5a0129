package notify

import (
	"context"

	"github.com/nicway1/truelog-cli/internal/model"
)

// snapshot is the full pre-mutation state captured before an optimistic
// single-item write. Restoring it (rather than inverting the mutation)
// avoids double-counting when other mutations interleaved.
type snapshot struct {
	notifications []model.Notification
	unreadCount   int
	totalItems    int
}

// capture clones the mutable state. Callers hold the lock.
func (s *Store) capture() snapshot {
	items := make([]model.Notification, len(s.notifications))
	copy(items, s.notifications)
	return snapshot{
		notifications: items,
		unreadCount:   s.unreadCount,
		totalItems:    s.pagination.TotalItems,
	}
}

// restoreSnapshot reinstates captured state. Callers hold the lock.
func (s *Store) restoreSnapshot(sn snapshot) {
	s.notifications = sn.notifications
	s.unreadCount = sn.unreadCount
	s.pagination.TotalItems = sn.totalItems
}

// optimistic applies mutate locally, captures an undo snapshot first,
// then attempts the confirming remote call. On failure the snapshot is
// restored exactly and the error returned to the caller.
func (s *Store) optimistic(
	ctx context.Context,
	mutate func(),
	call func(ctx context.Context) error,
) error {
	s.mu.Lock()
	sn := s.capture()
	mutate()
	s.mu.Unlock()

	if err := call(ctx); err != nil {
		s.mu.Lock()
		s.restoreSnapshot(sn)
		s.mu.Unlock()
		return err
	}
	return nil
}
