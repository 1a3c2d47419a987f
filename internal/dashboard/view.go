package dashboard

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/sales-dashboard/internal/salesapi"
)

// Loader is the part of the sales API client the view depends on.
type Loader interface {
	Companies(ctx context.Context) ([]string, error)
	Dashboard(ctx context.Context, company string, r salesapi.DateRange) (*salesapi.Aggregate, error)
}

// View is one dashboard instance. All state changes go through the pure
// transition functions under mu; loads run on goroutines tracked by group.
type View struct {
	loader Loader
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	group  errgroup.Group

	mu       sync.Mutex
	state    State
	inflight context.CancelFunc
	changed  chan struct{}
	closed   bool
}

// NewView creates a view whose loads are bound to parent.
func NewView(parent context.Context, loader Loader, defaults salesapi.DateRange, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(parent)
	return &View{
		loader:  loader,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		state:   Initial(defaults),
		changed: make(chan struct{}),
	}
}

// Start loads the company directory. Only the first call has any effect.
func (v *View) Start() {
	v.once.Do(func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.closed {
			return
		}
		v.group.Go(func() error {
			companies, err := v.loader.Companies(v.ctx)
			if err != nil {
				v.apply(CompaniesFailed)
				return nil
			}
			v.apply(func(s State) State { return CompaniesLoaded(s, companies) })
			return nil
		})
	})
}

// Select applies a user change to the company or date range. It returns
// ErrUnknownCompany, leaving the state untouched, when the company is not in
// the directory.
func (v *View) Select(sel Selection) error {
	var err error
	v.apply(func(s State) State {
		var next State
		next, err = ChangeSelection(s, sel)
		return next
	})
	return err
}

// Snapshot returns a copy of the current state.
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Clone()
}

// WaitIdle blocks until nothing is pending or ctx is done and returns the
// state observed last.
func (v *View) WaitIdle(ctx context.Context) State {
	return v.waitUntil(ctx, func(s State) bool { return !s.Pending() })
}

// WaitDirectory blocks until the company directory has resolved or ctx is
// done.
func (v *View) WaitDirectory(ctx context.Context) State {
	return v.waitUntil(ctx, func(s State) bool { return s.DirectoryLoaded })
}

func (v *View) waitUntil(ctx context.Context, done func(State) bool) State {
	for {
		v.mu.Lock()
		st := v.state.Clone()
		ch := v.changed
		v.mu.Unlock()
		if done(st) {
			return st
		}
		select {
		case <-ctx.Done():
			return st
		case <-ch:
		}
	}
}

// Close cancels in-flight loads and waits for their goroutines.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()

	v.cancel()
	_ = v.group.Wait()
}

func (v *View) apply(transition func(State) State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	before := v.state.Selection()
	v.state = transition(v.state)
	after := v.state.Selection()
	if after != before && after.Ready() && !v.closed {
		v.requestLocked(after)
	}
	v.notifyLocked()
}

// requestLocked supersedes any in-flight aggregate load with a new one.
func (v *View) requestLocked(sel Selection) {
	if v.inflight != nil {
		v.inflight()
	}
	var gen uint64
	v.state, gen = DashboardRequested(v.state)
	ctx, cancel := context.WithCancel(v.ctx)
	v.inflight = cancel

	v.group.Go(func() error {
		defer cancel()
		agg, err := v.loader.Dashboard(ctx, sel.Company, sel.Range())

		v.mu.Lock()
		defer v.mu.Unlock()
		if gen != v.state.Generation {
			v.logger.Debug("discard stale dashboard response",
				slog.Uint64("generation", gen),
				slog.Uint64("latest", v.state.Generation))
			return nil
		}
		if err != nil {
			v.state = DashboardFailed(v.state, gen, err)
		} else {
			v.state = DashboardLoaded(v.state, gen, agg)
		}
		v.inflight = nil
		v.notifyLocked()
		return nil
	})
}

func (v *View) notifyLocked() {
	close(v.changed)
	v.changed = make(chan struct{})
}
