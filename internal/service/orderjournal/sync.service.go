package orderjournal

import (
	"context"
	"time"

	"github.com/guregu/null/v6"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	defaultSyncInterval  = 30 * time.Second
	defaultSyncBatchSize = 200
)

type orderFetcher interface {
	GetOrder(ctx context.Context, orderID string) (*entity.Order, error)
}

type journalSyncStore interface {
	GetPendingSync(ctx context.Context, terminalStatuses []string, limit uint64) ([]entity.OrderJournal, error)
	Update(ctx context.Context, orderJournal *entity.OrderJournal) error
}

// SyncService refreshes the remote status and fills of accepted orders until
// the broker reports a terminal status.
type SyncService struct {
	orders       orderFetcher
	repo         journalSyncStore
	syncInterval time.Duration
	now          func() time.Time
}

func NewSyncService(orders orderFetcher, repo journalSyncStore, syncInterval time.Duration) *SyncService {
	if syncInterval <= 0 {
		syncInterval = defaultSyncInterval
	}

	return &SyncService{
		orders:       orders,
		repo:         repo,
		syncInterval: syncInterval,
		now:          time.Now,
	}
}

func (s *SyncService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	s.SyncPendingJournals(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SyncPendingJournals(ctx)
		}
	}
}

// SyncPendingJournals returns the number of entries that changed.
func (s *SyncService) SyncPendingJournals(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}

	journals, err := s.repo.GetPendingSync(ctx, entity.TerminalOrderStatuses, defaultSyncBatchSize)
	if err != nil {
		logrus.WithError(err).Error("failed to load order journals to sync")
		return 0
	}

	updated := 0
	for idx := range journals {
		if ctx.Err() != nil {
			return updated
		}

		journal := &journals[idx]
		logger := logrus.WithFields(logrus.Fields{
			"id":       journal.ID,
			"order_id": journal.RemoteOrderID.String,
			"status":   journal.RemoteStatus.String,
		})

		order, err := s.orders.GetOrder(ctx, journal.RemoteOrderID.String)
		if err != nil {
			logger.WithError(err).Error("failed to fetch order for journal sync")
			continue
		}
		if !applyOrder(journal, order, s.now()) {
			continue
		}

		if err := s.repo.Update(ctx, journal); err != nil {
			logger.WithError(err).Error("failed to update order journal")
			continue
		}
		updated++
	}

	return updated
}

// applyOrder copies the broker's view onto journal and reports whether anything changed.
func applyOrder(journal *entity.OrderJournal, order *entity.Order, now time.Time) bool {
	if order == nil {
		return false
	}

	changed := journal.RemoteStatus.String != order.Status
	if journal.FilledQuantity == nil || !journal.FilledQuantity.Equal(order.FilledQuantity) {
		changed = true
	}
	if !decimalPtrEqual(journal.FilledAvgPrice, order.FilledAvgPrice) {
		changed = true
	}
	if !changed {
		return false
	}

	filled := order.FilledQuantity
	journal.RemoteStatus = null.StringFrom(order.Status)
	journal.FilledQuantity = &filled
	journal.FilledAvgPrice = order.FilledAvgPrice
	journal.UpdatedAt = now.UTC()

	return true
}

func decimalPtrEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Equal(*b)
}
