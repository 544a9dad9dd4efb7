package orderjournal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/sbansal6/alpaca-mcp-server/internal/config"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/shopspring/decimal"
)

type memorySink struct {
	mu      sync.Mutex
	entries []entity.OrderJournal
	err     error
}

func (s *memorySink) Write(_ context.Context, entry entity.OrderJournal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	return s.err
}

func (s *memorySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

func TestJournalServiceFlushesOnShutdown(t *testing.T) {
	sink := &memorySink{}
	svc := NewJournalService(sink, config.OrderJournalConfig{BufferSize: 8})

	for i := 0; i < 3; i++ {
		svc.Record(context.Background(), entity.OrderJournal{ID: string(rune('a' + i))})
	}

	ctx, cancel := context.WithCancel(context.Background())
	go svc.Run(ctx)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}

	if sink.count() != 3 {
		t.Fatalf("expected 3 entries written, got %d", sink.count())
	}
}

func TestJournalServiceDropsWhenFull(t *testing.T) {
	sink := &memorySink{}
	svc := NewJournalService(sink, config.OrderJournalConfig{BufferSize: 1})

	svc.Record(context.Background(), entity.OrderJournal{ID: "kept"})
	svc.Record(context.Background(), entity.OrderJournal{ID: "dropped"})

	if svc.Dropped() != 1 {
		t.Fatalf("expected 1 dropped entry, got %d", svc.Dropped())
	}
}

func TestJournalServiceSurvivesSinkErrors(t *testing.T) {
	sink := &memorySink{err: errors.New("database unavailable")}
	svc := NewJournalService(sink, config.OrderJournalConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	go svc.Run(ctx)

	svc.Record(context.Background(), entity.OrderJournal{ID: "1"})
	svc.Record(context.Background(), entity.OrderJournal{ID: "2"})

	deadline := time.Now().Add(time.Second)
	for sink.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if sink.count() != 2 {
		t.Fatalf("expected both entries attempted, got %d", sink.count())
	}
}

type fakeOrders struct {
	orders map[string]*entity.Order
}

func (f fakeOrders) GetOrder(_ context.Context, orderID string) (*entity.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, errors.New("order not found")
	}
	return order, nil
}

type fakeSyncStore struct {
	pending  []entity.OrderJournal
	updated  []entity.OrderJournal
	terminal []string
}

func (f *fakeSyncStore) GetPendingSync(_ context.Context, terminalStatuses []string, _ uint64) ([]entity.OrderJournal, error) {
	f.terminal = terminalStatuses
	return f.pending, nil
}

func (f *fakeSyncStore) Update(_ context.Context, orderJournal *entity.OrderJournal) error {
	f.updated = append(f.updated, *orderJournal)
	return nil
}

func TestSyncPendingJournals(t *testing.T) {
	zero := decimal.Zero
	avg := decimal.RequireFromString("101.5")
	now := time.Date(2026, 1, 2, 16, 0, 0, 0, time.UTC)

	store := &fakeSyncStore{pending: []entity.OrderJournal{
		{ID: "j1", RemoteOrderID: null.StringFrom("o1"), RemoteStatus: null.StringFrom("new"), FilledQuantity: &zero},
		{ID: "j2", RemoteOrderID: null.StringFrom("o2"), RemoteStatus: null.StringFrom("new"), FilledQuantity: &zero},
		{ID: "j3", RemoteOrderID: null.StringFrom("missing"), RemoteStatus: null.StringFrom("new")},
	}}
	orders := fakeOrders{orders: map[string]*entity.Order{
		"o1": {ID: "o1", Status: "filled", FilledQuantity: decimal.NewFromInt(10), FilledAvgPrice: &avg},
		"o2": {ID: "o2", Status: "new", FilledQuantity: decimal.Zero},
	}}

	svc := NewSyncService(orders, store, 0)
	svc.now = func() time.Time { return now }

	updated := svc.SyncPendingJournals(context.Background())
	if updated != 1 || len(store.updated) != 1 {
		t.Fatalf("expected 1 update, got %d", updated)
	}

	got := store.updated[0]
	if got.ID != "j1" || got.RemoteStatus.String != "filled" || got.FilledQuantity.String() != "10" || got.FilledAvgPrice.String() != "101.5" {
		t.Fatalf("unexpected update: %+v", got)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Fatalf("expected updated_at %s, got %s", now, got.UpdatedAt)
	}
	if len(store.terminal) == 0 {
		t.Fatalf("expected terminal statuses to be excluded")
	}
}

func TestSyncStopsOnCancelledContext(t *testing.T) {
	store := &fakeSyncStore{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if NewSyncService(fakeOrders{}, store, time.Second).SyncPendingJournals(ctx) != 0 {
		t.Fatalf("expected no work on cancelled context")
	}
	if store.terminal != nil {
		t.Fatalf("expected no query on cancelled context")
	}
}
