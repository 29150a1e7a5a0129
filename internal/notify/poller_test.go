package notify

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nicway1/truelog-cli/internal/api"
	"github.com/nicway1/truelog-cli/internal/model"
)

// pollerService is a Service fake safe for cross-goroutine use: the
// poller goroutine hits it while the test inspects the counters.
type pollerService struct {
	count       atomic.Int64
	unreadCalls atomic.Int64
	fail        atomic.Bool
}

func (p *pollerService) ListNotifications(context.Context, api.NotificationQuery) (*api.NotificationPage, error) {
	return &api.NotificationPage{Pagination: model.Pagination{CurrentPage: 1}}, nil
}

func (p *pollerService) UnreadCount(context.Context) (int, error) {
	p.unreadCalls.Add(1)
	if p.fail.Load() {
		return 0, errBackend
	}
	return int(p.count.Load()), nil
}

func (p *pollerService) MarkRead(context.Context, string) error   { return nil }
func (p *pollerService) MarkUnread(context.Context, string) error { return nil }
func (p *pollerService) MarkAllRead(context.Context, *model.NotificationType) error {
	return nil
}
func (p *pollerService) DeleteNotification(context.Context, string) error { return nil }
func (p *pollerService) BulkDeleteNotifications(context.Context, []string) error {
	return nil
}
func (p *pollerService) DeleteAllRead(context.Context) error { return nil }

func TestPollerUpdatesUnreadCount(t *testing.T) {
	svc := &pollerService{}
	svc.count.Store(7)
	s := New(svc, zerolog.Nop())

	p := NewPoller(s, 10*time.Millisecond, nil, zerolog.Nop())
	p.Start()
	defer p.Stop()

	select {
	case count := <-p.Updates():
		if count != 7 {
			t.Errorf("count = %d, want 7", count)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no poll update received")
	}

	if s.UnreadCount() != 7 {
		t.Errorf("store unread = %d, want 7", s.UnreadCount())
	}
}

func TestPollerSkipsWhileHidden(t *testing.T) {
	svc := &pollerService{}
	svc.count.Store(3)
	s := New(svc, zerolog.Nop())

	var visible atomic.Bool // starts hidden
	p := NewPoller(s, 10*time.Millisecond, visible.Load, zerolog.Nop())
	p.Start()
	defer p.Stop()

	time.Sleep(60 * time.Millisecond)
	if calls := svc.unreadCalls.Load(); calls != 0 {
		t.Fatalf("poller issued %d requests while hidden", calls)
	}

	// Regaining visibility resumes polling within one interval.
	visible.Store(true)
	select {
	case <-p.Updates():
	case <-time.After(2 * time.Second):
		t.Fatal("no poll update after becoming visible")
	}
}

func TestPollerRestartsAfterStop(t *testing.T) {
	svc := &pollerService{}
	svc.count.Store(5)
	s := New(svc, zerolog.Nop())

	p := NewPoller(s, 10*time.Millisecond, nil, zerolog.Nop())
	p.Start()

	select {
	case <-p.Updates():
	case <-time.After(2 * time.Second):
		t.Fatal("no poll update from the first run")
	}

	p.Stop()

	// Drain anything published before the stop landed.
	for {
		select {
		case <-p.Updates():
			continue
		default:
		}
		break
	}

	p.Start()
	defer p.Stop()

	select {
	case count := <-p.Updates():
		if count != 5 {
			t.Errorf("count = %d, want 5", count)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no poll update after restart")
	}
}

func TestPollerStopIsIdempotent(t *testing.T) {
	s := New(&pollerService{}, zerolog.Nop())
	p := NewPoller(s, time.Hour, nil, zerolog.Nop())

	p.Start()
	p.Stop()
	p.Stop() // second stop must not close the channel twice
}

func TestPollerSwallowsFailures(t *testing.T) {
	svc := &pollerService{}
	svc.fail.Store(true)
	s := New(svc, zerolog.Nop())

	p := NewPoller(s, 10*time.Millisecond, nil, zerolog.Nop())
	p.Start()
	defer p.Stop()

	time.Sleep(50 * time.Millisecond)

	select {
	case <-p.Updates():
		t.Error("failed polls must not publish updates")
	default:
	}
	if s.UnreadCount() != 0 {
		t.Errorf("unread = %d, want untouched 0", s.UnreadCount())
	}
}
