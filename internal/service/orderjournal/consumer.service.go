package orderjournal

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/sbansal6/alpaca-mcp-server/internal/config"
	"github.com/sbansal6/alpaca-mcp-server/internal/constant"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/sbansal6/alpaca-mcp-server/internal/util"
	"github.com/sirupsen/logrus"
)

const defaultMaxRetries = 3

// ConsumerService persists journal entries published by JetstreamSink.
type ConsumerService struct {
	js   nats.JetStreamContext
	repo journalWriter
}

func NewConsumerService(js nats.JetStreamContext, repo journalWriter) *ConsumerService {
	return &ConsumerService{js: js, repo: repo}
}

func (s *ConsumerService) JetstreamEventInit(ctx context.Context) error {
	return initOrderJournalStream(ctx, s.js)
}

func (s *ConsumerService) JetstreamEventSubscribe(ctx context.Context) error {
	err := s.JetstreamEventInit(ctx)
	if err != nil {
		logrus.Error(err)
		return err
	}

	_, err = s.js.QueueSubscribe(
		constant.OrderJournalStreamSubjectSave,
		constant.OrderJournalQueueName,
		func(msg *nats.Msg) {
			err := util.ProcessWithTimeout(handlerTimeout(), msg, s.handleRecordedEvent)
			if err != nil {
				logrus.Errorf("error processing message: %v", err)
				return
			}

			err = msg.Ack()
			if err != nil {
				logrus.Errorf("failed to acknowledge message: %v", err)
				return
			}
		},
		nats.ManualAck(),
		nats.Durable(constant.OrderJournalQueueGroup),
	)
	return err
}

// handleRecordedEvent stores the entry. A failed write is republished until
// the retry budget runs out; the original message is acked either way.
func (s *ConsumerService) handleRecordedEvent(ctx context.Context, msg *nats.Msg) error {
	var event entity.OrderJournalEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logrus.WithField("data", string(msg.Data)).WithError(err).Error("invalid order journal event")
		return nil
	}

	logger := logrus.WithFields(logrus.Fields{
		"id":              event.Data.ID,
		"client_order_id": event.Data.ClientOrderID,
		"retry":           event.RetryCount,
	})

	err := s.repo.Create(ctx, &event.Data)
	if err == nil {
		return nil
	}

	logger.WithError(err).Error("failed to persist order journal entry")

	event.RetryCount++
	if event.RetryCount >= maxRetries() {
		logger.Warn("order journal entry discarded after max retries")
		return nil
	}

	return util.PublishEvent(s.js, constant.OrderJournalStreamSubjectSave, event, "")
}

func handlerTimeout() time.Duration {
	if config.Env != nil {
		if timeout := config.Env.NatsJetstream.TimeoutHandler["order_journal"]; timeout > 0 {
			return timeout
		}
	}

	return defaultWriteTimeout
}

func maxRetries() int {
	if config.Env != nil && config.Env.NatsJetstream.MaxRetries > 0 {
		return config.Env.NatsJetstream.MaxRetries
	}

	return defaultMaxRetries
}
