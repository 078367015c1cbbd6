package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"esusu/native/savings"
)

type memorySource struct {
	mu        sync.Mutex
	campaigns []savings.Campaign
	locks     []savings.Lock
	err       error
	reads     int
}

func (m *memorySource) Campaigns(context.Context) ([]savings.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.err != nil {
		return nil, m.err
	}
	return append([]savings.Campaign(nil), m.campaigns...), nil
}

func (m *memorySource) Locks(context.Context) ([]savings.Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]savings.Lock(nil), m.locks...), nil
}

func (m *memorySource) set(campaigns []savings.Campaign, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns = campaigns
	m.err = err
}

type memoryStore struct {
	saved []*Snapshot
}

func (m *memoryStore) Save(_ context.Context, snap *Snapshot) (bool, error) {
	if n := len(m.saved); n > 0 && m.saved[n-1].Digest == snap.Digest {
		return false, nil
	}
	m.saved = append(m.saved, snap)
	return true, nil
}

func (m *memoryStore) Latest(context.Context) (*Snapshot, error) {
	if len(m.saved) == 0 {
		return nil, ErrNotFound
	}
	return m.saved[len(m.saved)-1], nil
}

func testCampaign(id uint64, amount string) savings.Campaign {
	return savings.Campaign{
		ID:                 id,
		Participants:       []common.Address{common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e")},
		ContributionAmount: decimal.RequireFromString(amount),
		TotalRounds:        5,
		Status:             savings.StatusActive,
	}
}

func TestDigestIgnoresDecimalFormatting(t *testing.T) {
	a := Digest([]savings.Campaign{testCampaign(1, "12.50")}, nil)
	b := Digest([]savings.Campaign{testCampaign(1, "12.5")}, nil)
	if a != b {
		t.Fatalf("expected equal digests, got %s and %s", a, b)
	}
	c := Digest([]savings.Campaign{testCampaign(1, "12.51")}, nil)
	if a == c {
		t.Fatalf("expected amount change to alter digest")
	}
	if len(a) != 64 {
		t.Fatalf("expected 32 byte hex digest, got %d chars", len(a))
	}
}

func TestSnapshotCampaignLookup(t *testing.T) {
	snap := New([]savings.Campaign{testCampaign(3, "1"), testCampaign(7, "2")}, nil, time.Now())
	if c, ok := snap.Campaign(7); !ok || c.ID != 7 {
		t.Fatalf("expected campaign 7, got %+v %v", c, ok)
	}
	if _, ok := snap.Campaign(8); ok {
		t.Fatalf("unexpected campaign 8")
	}
	if snap.Locks == nil {
		t.Fatalf("expected non-nil empty locks")
	}
}

func newTestRefresher(t *testing.T, src *memorySource, store Store, gap time.Duration) *Refresher {
	t.Helper()
	fixed := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	r, err := NewRefresher(src, store, Config{MinGap: gap, Clock: func() time.Time { return fixed }})
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}
	return r
}

func TestRefresherPublishesAndPersists(t *testing.T) {
	src := &memorySource{campaigns: []savings.Campaign{testCampaign(1, "50")}}
	store := &memoryStore{}
	r := newTestRefresher(t, src, store, time.Nanosecond)

	if _, ok := r.Current(); ok {
		t.Fatalf("expected no snapshot before first refresh")
	}
	snap, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	current, ok := r.Current()
	if !ok || current != snap || len(current.Campaigns) != 1 {
		t.Fatalf("unexpected current snapshot %+v", current)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected snapshot to be persisted")
	}

	time.Sleep(time.Millisecond)
	if _, err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected unchanged snapshot to be deduplicated, got %d rows", len(store.saved))
	}
}

func TestRefresherKeepsPreviousSnapshotOnError(t *testing.T) {
	src := &memorySource{campaigns: []savings.Campaign{testCampaign(1, "50")}}
	r := newTestRefresher(t, src, nil, time.Nanosecond)
	first, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	src.set(nil, errors.New("rpc unavailable"))
	time.Sleep(time.Millisecond)
	if _, err := r.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	current, _ := r.Current()
	if current != first {
		t.Fatalf("expected previous snapshot to remain current")
	}
}

func TestRefresherThrottles(t *testing.T) {
	src := &memorySource{}
	r := newTestRefresher(t, src, nil, time.Hour)
	if _, err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := r.Refresh(context.Background()); !errors.Is(err, ErrThrottled) {
		t.Fatalf("expected throttled refresh, got %v", err)
	}
	if src.reads != 1 {
		t.Fatalf("expected a single source read, got %d", src.reads)
	}
}

func TestRefresherRestore(t *testing.T) {
	stored := New([]savings.Campaign{testCampaign(5, "10")}, nil, time.Now())
	store := &memoryStore{saved: []*Snapshot{stored}}
	r := newTestRefresher(t, &memorySource{}, store, time.Nanosecond)
	if err := r.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	current, ok := r.Current()
	if !ok || current.Digest != stored.Digest {
		t.Fatalf("expected restored snapshot")
	}

	empty := newTestRefresher(t, &memorySource{}, &memoryStore{}, time.Nanosecond)
	if err := empty.Restore(context.Background()); err != nil {
		t.Fatalf("restore from empty store: %v", err)
	}
	if _, ok := empty.Current(); ok {
		t.Fatalf("expected no snapshot after empty restore")
	}
}

func TestRefresherRunStopsOnCancel(t *testing.T) {
	src := &memorySource{campaigns: []savings.Campaign{testCampaign(1, "1")}}
	r, err := NewRefresher(src, nil, Config{Interval: 5 * time.Millisecond, MinGap: time.Nanosecond})
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := r.Current(); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("refresher did not publish a snapshot")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context cancellation, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
}
