package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"esusu/observability"
	"esusu/services/savings/source"
)

var (
	// ErrThrottled is returned when a refresh is requested sooner than the
	// configured minimum gap allows.
	ErrThrottled = errors.New("snapshot: refresh throttled")
	// ErrNotFound is returned by stores that hold no snapshot yet.
	ErrNotFound = errors.New("snapshot: not found")
)

// Store persists snapshots across restarts.
type Store interface {
	// Save stores snap unless the latest stored snapshot has the same
	// digest. It reports whether a row was written.
	Save(ctx context.Context, snap *Snapshot) (bool, error)
	// Latest returns the most recently stored snapshot or ErrNotFound.
	Latest(ctx context.Context) (*Snapshot, error)
}

// Config tunes a Refresher.
type Config struct {
	// Interval between scheduled refreshes in Run.
	Interval time.Duration
	// MinGap is the minimum time between two source reads.
	MinGap  time.Duration
	Logger  *slog.Logger
	Metrics *observability.SnapshotMetrics
	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

const (
	defaultInterval = 30 * time.Second
	defaultMinGap   = 5 * time.Second
)

// Refresher pulls snapshots from a source and publishes the latest one to
// concurrent readers.
type Refresher struct {
	source   source.Source
	store    Store
	interval time.Duration
	limiter  *rate.Limiter
	logger   *slog.Logger
	metrics  *observability.SnapshotMetrics
	now      func() time.Time

	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
}

// NewRefresher constructs a refresher. store may be nil to keep snapshots
// in memory only.
func NewRefresher(src source.Source, store Store, cfg Config) (*Refresher, error) {
	if src == nil {
		return nil, fmt.Errorf("snapshot source required")
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	gap := cfg.MinGap
	if gap <= 0 {
		gap = defaultMinGap
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Refresher{
		source:   src,
		store:    store,
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(gap), 1),
		logger:   logger.With("component", "snapshot-refresher"),
		metrics:  cfg.Metrics,
		now:      now,
	}, nil
}

// Current returns the snapshot being served, if any.
func (r *Refresher) Current() (*Snapshot, bool) {
	snap := r.current.Load()
	return snap, snap != nil
}

// Restore seeds the current snapshot from the store. A missing store or an
// empty store is not an error.
func (r *Refresher) Restore(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	snap, err := r.store.Latest(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("restore snapshot: %w", err)
	}
	if r.current.CompareAndSwap(nil, snap) {
		r.metrics.SetCurrent(len(snap.Campaigns), len(snap.Locks), snap.TakenAt)
		r.logger.Info("restored snapshot", "digest", snap.Digest, "taken_at", snap.TakenAt)
	}
	return nil
}

// Refresh reads a new snapshot from the source and publishes it. On failure
// the previous snapshot stays in place. Calls closer together than the
// configured gap fail with ErrThrottled.
func (r *Refresher) Refresh(ctx context.Context) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.limiter.Allow() {
		r.metrics.ObserveRefresh("throttled", 0)
		return nil, ErrThrottled
	}
	start := time.Now()
	campaigns, err := r.source.Campaigns(ctx)
	if err != nil {
		r.metrics.ObserveRefresh("error", time.Since(start))
		return nil, fmt.Errorf("load campaigns: %w", err)
	}
	locks, err := r.source.Locks(ctx)
	if err != nil {
		r.metrics.ObserveRefresh("error", time.Since(start))
		return nil, fmt.Errorf("load locks: %w", err)
	}
	snap := New(campaigns, locks, r.now())
	elapsed := time.Since(start)

	outcome := "updated"
	if prev := r.current.Load(); prev != nil && prev.Digest == snap.Digest {
		outcome = "unchanged"
	}
	if r.store != nil {
		if _, err := r.store.Save(ctx, snap); err != nil {
			r.logger.Warn("persist snapshot failed", "digest", snap.Digest, "error", err)
		}
	}
	r.current.Store(snap)
	r.metrics.ObserveRefresh(outcome, elapsed)
	r.metrics.SetCurrent(len(snap.Campaigns), len(snap.Locks), snap.TakenAt)
	if outcome == "updated" {
		r.logger.Info("snapshot updated",
			"digest", snap.Digest,
			"campaigns", len(snap.Campaigns),
			"locks", len(snap.Locks),
			"duration", elapsed)
	}
	return snap, nil
}

// Run refreshes immediately and then on every interval until ctx is done.
// Failed refreshes are logged and retried on the next tick.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.Refresh(ctx); err != nil && !errors.Is(err, ErrThrottled) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Error("snapshot refresh failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
