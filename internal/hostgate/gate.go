package hostgate

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// Store persists the forever-disabled host list as one string value.
// Implementations may do their own I/O; the Gate calls Save from a
// background goroutine and never retries a failed write.
type Store interface {
	// Load returns the persisted value, or "" when nothing is stored yet.
	Load(ctx context.Context) (string, error)

	// Save replaces the persisted value.
	Save(ctx context.Context, value string) error
}

// Gate decides whether annotation is permitted on a host.
//
// It owns two disjoint sets of host entries: the persistent set (disabled
// forever, written through Store) and the session set (disabled until the
// process exits). A host is disabled when it is in either set.
//
// Calls for the same host are expected to be serialized by the caller;
// in practice a single UI surface issues Disable and Enable. The internal
// mutex only keeps the maps consistent for concurrent readers.
type Gate struct {
	mu         sync.RWMutex
	persistent map[string]struct{}
	session    map[string]struct{}

	store  Store
	logger *slog.Logger

	// dirty signals the writer that the persistent set changed.
	// Capacity 1 coalesces bursts of changes into a single write.
	dirty     chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger used for persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

// New creates a Gate and loads the persistent set from store.
//
// A nil store keeps everything in memory. A load failure is logged and the
// gate starts with an empty persistent set, so annotation stays the default.
func New(ctx context.Context, store Store, opts ...Option) *Gate {
	g := &Gate{
		persistent: make(map[string]struct{}),
		session:    make(map[string]struct{}),
		store:      store,
		dirty:      make(chan struct{}, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.logger == nil {
		g.logger = slog.Default()
	}

	if store == nil {
		close(g.done)
		return g
	}

	value, err := store.Load(ctx)
	if err != nil {
		g.logger.Warn("failed to load disabled hosts, starting empty", "error", err)
	}
	for _, h := range Decode(value) {
		g.persistent[h] = struct{}{}
	}

	go g.writer()

	return g
}

// IsDisabled reports whether annotation is disabled for the URL's host,
// in either the persistent or the session set.
func (g *Gate) IsDisabled(rawURL string) bool {
	_, disabled := g.Mode(rawURL)
	return disabled
}

// Mode reports which set holds the URL's host.
// The second return value is false when the host is not disabled.
func (g *Gate) Mode(rawURL string) (Mode, bool) {
	host := Normalize(rawURL)

	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.persistent[host]; ok {
		return Forever, true
	}
	if _, ok := g.session[host]; ok {
		return Once, true
	}
	return 0, false
}

// Disable disables annotation for the URL's host.
//
// Once moves the host into the session set; Forever moves it into the
// persistent set. The host is always removed from the other set, so
// switching modes is allowed. Persistent changes are written
// asynchronously.
func (g *Gate) Disable(rawURL string, mode Mode) {
	host := Normalize(rawURL)
	if host == "" {
		return
	}
	if !mode.Valid() {
		g.logger.Warn("ignoring disable with unknown mode", "host", host, "mode", int(mode))
		return
	}

	g.mu.Lock()
	_, wasPersistent := g.persistent[host]
	switch mode {
	case Forever:
		g.persistent[host] = struct{}{}
		delete(g.session, host)
	case Once:
		g.session[host] = struct{}{}
		delete(g.persistent, host)
	}
	g.mu.Unlock()

	if mode == Forever || wasPersistent {
		g.persistAsync()
	}
}

// Enable removes the URL's host from both sets and persists the result.
// Enabling a host that is not disabled still writes the (unchanged) list.
func (g *Gate) Enable(rawURL string) {
	host := Normalize(rawURL)

	g.mu.Lock()
	delete(g.persistent, host)
	delete(g.session, host)
	g.mu.Unlock()

	g.persistAsync()
}

// Persistent returns the forever-disabled hosts in sorted order.
func (g *Gate) Persistent() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.persistent)
}

// Session returns the hosts disabled for this session in sorted order.
func (g *Gate) Session() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.session)
}

// Close flushes any pending write and stops the background writer.
// It is safe to call more than once.
func (g *Gate) Close() {
	g.closeOnce.Do(func() {
		if g.store != nil {
			close(g.stop)
		}
	})
	<-g.done
}

// persistAsync schedules a write of the persistent set without blocking.
func (g *Gate) persistAsync() {
	if g.store == nil {
		return
	}
	select {
	case g.dirty <- struct{}{}:
	default:
		// A write is already pending and will pick up this change.
	}
}

// writer drains write requests until Close is called.
func (g *Gate) writer() {
	defer close(g.done)
	for {
		select {
		case <-g.dirty:
			g.save()
		case <-g.stop:
			select {
			case <-g.dirty:
				g.save()
			default:
			}
			return
		}
	}
}

// save writes a snapshot of the persistent set. Failures are logged only;
// the in-memory state remains authoritative for the rest of the session.
func (g *Gate) save() {
	g.mu.RLock()
	value := Encode(sortedKeys(g.persistent))
	g.mu.RUnlock()

	if err := g.store.Save(context.Background(), value); err != nil {
		g.logger.Warn("failed to persist disabled hosts", "error", err)
		return
	}
	g.logger.Debug("persisted disabled hosts", "value", value)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
