package orderjournal

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sbansal6/alpaca-mcp-server/internal/constant"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/sbansal6/alpaca-mcp-server/internal/util"
	"github.com/sirupsen/logrus"
)

type journalWriter interface {
	Create(ctx context.Context, orderJournal *entity.OrderJournal) error
}

// RepositorySink writes entries straight to postgres.
type RepositorySink struct {
	repo journalWriter
}

func NewRepositorySink(repo journalWriter) *RepositorySink {
	return &RepositorySink{repo: repo}
}

func (s *RepositorySink) Write(ctx context.Context, entry entity.OrderJournal) error {
	return s.repo.Create(ctx, &entry)
}

// JetstreamSink publishes entries for the journal consumer to persist.
type JetstreamSink struct {
	js nats.JetStreamContext
}

func NewJetstreamSink(js nats.JetStreamContext) *JetstreamSink {
	return &JetstreamSink{js: js}
}

func (s *JetstreamSink) JetstreamEventInit(ctx context.Context) error {
	return initOrderJournalStream(ctx, s.js)
}

func (s *JetstreamSink) Write(_ context.Context, entry entity.OrderJournal) error {
	return util.PublishEvent(s.js, constant.OrderJournalStreamSubjectSave, entity.OrderJournalEvent{Data: entry}, entry.ID)
}

func initOrderJournalStream(ctx context.Context, js nats.JetStreamContext) error {
	streamConfig := &nats.StreamConfig{
		Name:      constant.OrderJournalStreamName,
		Subjects:  []string{constant.OrderJournalStreamSubjectAll},
		Retention: nats.WorkQueuePolicy,
		Storage:   nats.FileStorage,
		MaxAge:    7 * 24 * time.Hour,
	}

	stream, err := js.StreamInfo(constant.OrderJournalStreamName, nats.Context(ctx))
	if err != nil && !errors.Is(err, nats.ErrStreamNotFound) {
		logrus.Error(err)
		return err
	}

	if stream == nil {
		logrus.Infof("creating stream: %s", constant.OrderJournalStreamName)
		_, err = js.AddStream(streamConfig, nats.Context(ctx))
		return err
	}

	logrus.Infof("updating stream: %s", constant.OrderJournalStreamName)
	_, err = js.UpdateStream(streamConfig, nats.Context(ctx))
	if err != nil {
		logrus.Error(err)
		return err
	}

	return nil
}
