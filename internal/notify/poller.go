package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// fetchTimeout is the maximum time allowed for a single poll request.
const fetchTimeout = 10 * time.Second

// DefaultPollInterval is used when no interval is configured.
const DefaultPollInterval = 30 * time.Second

// Poller refreshes the unread counter on a fixed interval. It fetches
// only the counter, never the full list, and skips the network call
// entirely while the client is not visible to the user. After the client
// regains focus the counter can be stale by up to one interval; that is
// accepted staleness, not a bug.
type Poller struct {
	store    *Store
	interval time.Duration
	visible  func() bool
	log      zerolog.Logger

	updateCh chan int
	stopCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewPoller creates a poller for the given store. visible gates each
// tick; nil means always visible.
func NewPoller(store *Store, interval time.Duration, visible func() bool, log zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if visible == nil {
		visible = func() bool { return true }
	}
	return &Poller{
		store:    store,
		interval: interval,
		visible:  visible,
		log:      log,
		updateCh: make(chan int, 16),
	}
}

// Start launches the polling goroutine. Calling Start on a running
// poller is a no-op. A stopped poller can be started again.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	// Stop closed the previous channel; each run gets its own.
	stopCh := make(chan struct{})
	p.stopCh = stopCh
	p.running = true
	p.mu.Unlock()

	go p.loop(stopCh)
}

// Stop halts the polling goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
}

// Updates delivers the unread count after each successful poll. The UI
// subscribes to this channel to refresh its badge.
func (p *Poller) Updates() <-chan int {
	return p.updateCh
}

// loop runs the ticker until its stop channel closes.
func (p *Poller) loop(stopCh <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			p.pollOnce()
		}
	}
}

// pollOnce performs one gated poll. Failures are swallowed: polling is
// non-critical housekeeping.
func (p *Poller) pollOnce() {
	if !p.visible() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	if err := p.store.FetchUnreadCount(ctx); err != nil {
		p.log.Debug().Err(err).Msg("unread count poll failed")
		return
	}

	select {
	case p.updateCh <- p.store.UnreadCount():
	default:
		// Drop if the channel is full to avoid blocking the poller.
	}
}
