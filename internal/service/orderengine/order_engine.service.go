package orderengine

import (
	"context"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/guregu/null/v6"
	"github.com/sbansal6/alpaca-mcp-server/internal/constant"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	outcomeAccepted  = "accepted"
	outcomeInvalid   = "invalid"
	outcomeThrottled = "throttled"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"
)

// OrderReceipt is a successful submission: the request that was sent and the
// order the broker returned for it.
type OrderReceipt struct {
	Family  entity.OrderFamily
	Request entity.PlaceOrderRequest
	Order   entity.Order
}

// OrderEngineService validates order parameters, submits at most one request
// per call and classifies failures. throttle, journal and metrics are optional.
type OrderEngineService struct {
	broker   entity.OrderBroker
	throttle entity.OrderThrottle
	journal  entity.OrderJournaler
	metrics  *Metrics
	now      func() time.Time
}

func NewOrderEngineService(broker entity.OrderBroker, throttle entity.OrderThrottle, journal entity.OrderJournaler, metrics *Metrics) *OrderEngineService {
	return &OrderEngineService{
		broker:   broker,
		throttle: throttle,
		journal:  journal,
		metrics:  metrics,
		now:      time.Now,
	}
}

func (s *OrderEngineService) PlaceStockOrder(ctx context.Context, params StockOrderParams) (*OrderReceipt, error) {
	started := s.now()

	req, err := BuildStockOrder(params, started)
	if err != nil {
		s.metrics.observe(entity.OrderFamilyStock, outcomeInvalid, started)
		return nil, err
	}

	return s.dispatch(ctx, entity.OrderFamilyStock, req, started)
}

func (s *OrderEngineService) PlaceOptionMarketOrder(ctx context.Context, params OptionOrderParams) (*OrderReceipt, error) {
	started := s.now()

	req, err := BuildOptionMarketOrder(params, started)
	if err != nil {
		s.metrics.observe(entity.OrderFamilyOption, outcomeInvalid, started)
		return nil, err
	}

	return s.dispatch(ctx, entity.OrderFamilyOption, req, started)
}

// ClosePosition liquidates all or part of a position. qty and percentage are
// mutually exclusive; with neither the whole position is closed.
func (s *OrderEngineService) ClosePosition(ctx context.Context, symbol string, qty, percentage decimal.NullDecimal) (*entity.Order, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, validationError("symbol", "Symbol is required.")
	}

	var qtyPtr, percentagePtr *decimal.Decimal
	switch {
	case qty.Valid && percentage.Valid:
		return nil, validationError("qty", "Only one of qty or percentage may be set.")
	case qty.Valid:
		if !qty.Decimal.IsPositive() {
			return nil, validationError("qty", "qty must be positive.")
		}
		qtyPtr = decimalPtr(qty.Decimal)
	case percentage.Valid:
		if !percentage.Decimal.IsPositive() || percentage.Decimal.GreaterThan(decimal.NewFromInt(100)) {
			return nil, validationError("percentage", "percentage must be greater than 0 and at most 100.")
		}
		percentagePtr = decimalPtr(percentage.Decimal)
	}

	order, err := s.broker.ClosePosition(ctx, symbol, qtyPtr, percentagePtr)
	if err != nil {
		orderErr := classifyCloseError(err)
		logrus.WithFields(logrus.Fields{
			"symbol": symbol,
			"kind":   orderErr.Kind,
			"reason": orderErr.Reason,
		}).WithError(err).Warn("close position failed")
		return nil, orderErr
	}

	return order, nil
}

func (s *OrderEngineService) dispatch(ctx context.Context, family entity.OrderFamily, req entity.PlaceOrderRequest, started time.Time) (*OrderReceipt, error) {
	logger := logrus.WithFields(logrus.Fields{
		"family":          family,
		"symbol":          req.Symbol,
		"legs":            len(req.Legs),
		"side":            req.Side,
		"type":            req.Type,
		"order_class":     req.OrderClass,
		"quantity":        req.Quantity.String(),
		"client_order_id": req.ClientOrderID,
	})

	if s.throttle != nil {
		allowed, retryAfter, err := s.throttle.Allow(ctx, constant.OrderThrottleKey, s.now())
		switch {
		case err != nil:
			logger.WithError(err).Warn("order throttle unavailable, submitting anyway")
		case !allowed:
			s.metrics.observe(family, outcomeThrottled, started)
			logger.WithField("retry_after", retryAfter.String()).Warn("order throttled")
			return nil, &OrderError{
				Kind:    FailureThrottled,
				Message: "Order rate limit reached. Retry in " + retryAfter.Round(time.Second).String() + ".",
			}
		}
	}

	order, err := s.broker.SubmitOrder(ctx, req)
	if err != nil {
		orderErr := classifySubmitError(family, req, err)
		outcome := outcomeRejected
		if orderErr.Kind == FailureTransport {
			outcome = outcomeFailed
		}
		s.metrics.observe(family, outcome, started)
		s.record(ctx, newJournalEntry(family, req, nil, orderErr, s.now()))

		logger.WithFields(logrus.Fields{
			"kind":   orderErr.Kind,
			"reason": orderErr.Reason,
		}).WithError(err).Warn("order submission failed")

		return nil, orderErr
	}

	s.metrics.observe(family, outcomeAccepted, started)
	s.record(ctx, newJournalEntry(family, req, order, nil, s.now()))

	logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"status":   order.Status,
	}).Info("order placed")

	return &OrderReceipt{Family: family, Request: req, Order: *order}, nil
}

func (s *OrderEngineService) record(ctx context.Context, entry entity.OrderJournal) {
	if s.journal == nil {
		return
	}

	s.journal.Record(ctx, entry)
}

func newJournalEntry(family entity.OrderFamily, req entity.PlaceOrderRequest, order *entity.Order, orderErr *OrderError, now time.Time) entity.OrderJournal {
	now = now.UTC()
	entry := entity.OrderJournal{
		ID:            uuid.NewString(),
		ClientOrderID: req.ClientOrderID,
		Family:        family,
		Symbol:        req.Symbol,
		Side:          null.NewString(string(req.Side), req.Side != ""),
		OrderType:     string(req.Type),
		OrderClass:    null.NewString(string(req.OrderClass), req.OrderClass != ""),
		TimeInForce:   string(req.TimeInForce),
		Quantity:      req.Quantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if len(req.Legs) > 0 {
		if legs, err := json.Marshal(req.Legs); err == nil {
			entry.Legs = legs
		}
		symbols := make([]string, 0, len(req.Legs))
		for _, leg := range req.Legs {
			symbols = append(symbols, leg.Symbol)
		}
		entry.Symbol = strings.Join(symbols, ",")
	}

	if order != nil {
		entry.Outcome = entity.OrderJournalOutcomeAccepted
		entry.RemoteOrderID = null.StringFrom(order.ID)
		entry.RemoteStatus = null.StringFrom(order.Status)
		entry.FilledQuantity = decimalPtr(order.FilledQuantity)
		entry.FilledAvgPrice = order.FilledAvgPrice
		return entry
	}

	entry.Outcome = entity.OrderJournalOutcomeRejected
	if orderErr.Kind == FailureTransport {
		entry.Outcome = entity.OrderJournalOutcomeFailed
	}
	entry.FailureKind = null.StringFrom(string(orderErr.Kind))
	entry.FailureReason = null.NewString(string(orderErr.Reason), orderErr.Reason != "")
	if orderErr.Cause != nil {
		entry.Message = null.StringFrom(orderErr.Cause.Error())
	}

	return entry
}
