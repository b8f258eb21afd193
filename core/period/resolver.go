package period

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/presence/core"
)

var NowFunc = time.Now // mockable

// Resolver resolves semester periods. The active override is cached for ttl;
// a failing override source falls back to the defaults.
type Resolver struct {
	store    OverrideStore
	defaults Boundaries
	ttl      time.Duration
	logger   core.Logger

	mu        sync.RWMutex
	fetched   bool
	fetchedAt time.Time
	active    *Override
}

func NewResolver(store OverrideStore, conf *core.Config, logger core.Logger) *Resolver {
	return &Resolver{
		store:    store,
		defaults: DefaultBoundaries(conf.Semester),
		ttl:      conf.Attendance.OverrideCacheTTL,
		logger:   logger,
	}
}

// Resolve returns the period containing date, or the one that just ended during the summer gap.
func (r *Resolver) Resolve(ctx context.Context, date time.Time) Period {
	if o := r.override(ctx); o != nil && o.InEffect(date) {
		p := o.Boundaries.Resolve(date)
		p.Source = SourceOverride
		p.Emergency = o.IsEmergency
		return p
	}
	return r.defaults.Resolve(date)
}

// Current resolves the period of today.
func (r *Resolver) Current(ctx context.Context, loc *time.Location) Period {
	return r.Resolve(ctx, core.DateOf(NowFunc(), loc))
}

func (r *Resolver) override(ctx context.Context) *Override {
	r.mu.RLock()
	if r.fetched && NowFunc().Sub(r.fetchedAt) < r.ttl {
		o := r.active
		r.mu.RUnlock()
		return o
	}
	r.mu.RUnlock()
	return r.Refresh(ctx)
}

// Refresh reloads the active override. On failure the cache is left empty and nil is returned.
func (r *Resolver) Refresh(ctx context.Context) *Override {
	o, err := r.store.ActiveOverride(ctx)
	switch {
	case err == nil:
	case core.IsNotFound(err):
		err = nil
	default:
		r.logger.Warn("semester override lookup failed, using defaults", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.fetched, r.active = false, nil
		return nil
	}
	r.fetched, r.fetchedAt, r.active = true, NowFunc(), nil
	if o.ID != "" {
		r.active = &o
	}
	return r.active
}

// Invalidate drops the cached override; the next Resolve reloads it.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.fetched, r.active = false, nil
	r.mu.Unlock()
}
