package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/sales-dashboard/internal/salesapi"
)

// DefaultIdleTTL evicts views nobody has looked at for this long.
const DefaultIdleTTL = 30 * time.Minute

// RegistryConfig tunes a Registry.
type RegistryConfig struct {
	Defaults salesapi.DateRange
	IdleTTL  time.Duration
	Logger   *slog.Logger
	// ViewCount, when set, receives the number of live views after it changes.
	ViewCount func(n int)
}

// Registry keeps one View per session id. Views live in memory only.
type Registry struct {
	ctx      context.Context
	loader   Loader
	defaults salesapi.DateRange
	idleTTL  time.Duration
	logger   *slog.Logger
	count    func(int)
	now      func() time.Time

	mu    sync.Mutex
	views map[string]*registryEntry
}

type registryEntry struct {
	view     *View
	lastSeen time.Time
}

// NewRegistry creates a registry. Views are cancelled when ctx ends.
func NewRegistry(ctx context.Context, loader Loader, cfg RegistryConfig) *Registry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Registry{
		ctx:      ctx,
		loader:   &sharedDirectory{Loader: loader},
		defaults: cfg.Defaults,
		idleTTL:  cfg.IdleTTL,
		logger:   cfg.Logger,
		count:    cfg.ViewCount,
		now:      time.Now,
		views:    make(map[string]*registryEntry),
	}
}

// WithNow overrides the registry clock for testing.
func (r *Registry) WithNow(fn func() time.Time) {
	if fn != nil {
		r.now = fn
	}
}

// View returns the view for id, creating and starting it on first use.
func (r *Registry) View(id string) *View {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.views[id]; ok {
		entry.lastSeen = r.now()
		return entry.view
	}
	view := NewView(r.ctx, r.loader, r.defaults, r.logger.With(slog.String("view", id)))
	r.views[id] = &registryEntry{view: view, lastSeen: r.now()}
	r.reportLocked()
	view.Start()
	return view
}

// Len reports the number of live views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Sweep closes views idle for longer than the configured TTL.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)
	var stale []*View
	r.mu.Lock()
	for id, entry := range r.views {
		if entry.lastSeen.Before(cutoff) {
			stale = append(stale, entry.view)
			delete(r.views, id)
		}
	}
	r.reportLocked()
	r.mu.Unlock()
	for _, view := range stale {
		view.Close()
	}
	if len(stale) > 0 {
		r.logger.Debug("evicted idle dashboard views", slog.Int("count", len(stale)))
	}
	return len(stale)
}

// Run sweeps on every tick until ctx is done, then closes all views.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.idleTTL / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Close()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close closes every view.
func (r *Registry) Close() {
	r.mu.Lock()
	views := make([]*View, 0, len(r.views))
	for id, entry := range r.views {
		views = append(views, entry.view)
		delete(r.views, id)
	}
	r.reportLocked()
	r.mu.Unlock()
	for _, view := range views {
		view.Close()
	}
}

func (r *Registry) reportLocked() {
	if r.count != nil {
		r.count(len(r.views))
	}
}

// sharedDirectory collapses concurrent directory loads from different views
// into one upstream request. Each view still issues at most one.
type sharedDirectory struct {
	Loader
	group singleflight.Group
}

func (d *sharedDirectory) Companies(ctx context.Context) ([]string, error) {
	ch := d.group.DoChan("companies", func() (interface{}, error) {
		return d.Loader.Companies(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		companies, _ := res.Val.([]string)
		return append([]string{}, companies...), nil
	}
}
