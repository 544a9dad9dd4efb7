package bootstrap

import (
	"context"
	"strings"

	"github.com/sbansal6/alpaca-mcp-server/internal/config"
	"github.com/sbansal6/alpaca-mcp-server/internal/constant"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/sbansal6/alpaca-mcp-server/internal/infrastructure"
	"github.com/sbansal6/alpaca-mcp-server/internal/repository"
	"github.com/sbansal6/alpaca-mcp-server/internal/service/alpaca"
	"github.com/sbansal6/alpaca-mcp-server/internal/service/orderjournal"
	"github.com/sbansal6/alpaca-mcp-server/internal/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// StartOrderJournalSyncWorker refreshes journaled orders from the broker and,
// when jetstream is configured, persists entries published by the MCP server.
func StartOrderJournalSyncWorker(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := config.Env.Alpaca.Validate()
	util.ContinueOrFatal(err)

	dbConfig := config.Env.Database[constant.OrderJournalDatabaseName]
	orderJournalDB, err := infrastructure.NewPostgresConnection(ctx, dbConfig)
	util.ContinueOrFatal(err)
	infrastructure.StartPostgresHealthCheck(ctx, orderJournalDB, dbConfig.PingInterval)

	orderJournalRepo := repository.NewOrderJournalRepository(orderJournalDB)
	alpacaClient := alpaca.NewClient(config.Env.Alpaca)

	ops := map[string]operation{
		"order journal database": func(ctx context.Context) error {
			cancel()
			return orderJournalDB.Close()
		},
	}

	if strings.TrimSpace(config.Env.NatsJetstream.URL) != "" {
		nc, js, err := infrastructure.NewJetstream(config.Env.NatsJetstream)
		util.ContinueOrFatal(err)

		subscribers := []entity.Subscriber{orderjournal.NewConsumerService(js, orderJournalRepo)}
		for _, v := range subscribers {
			err = v.JetstreamEventSubscribe(ctx)
			util.ContinueOrFatal(err)
		}

		ops["nats connection"] = func(ctx context.Context) error {
			return infrastructure.CloseJetstream(nc)
		}
	} else {
		logrus.Info("nats jetstream url not set, journal consumer disabled")
	}

	syncService := orderjournal.NewSyncService(alpacaClient, orderJournalRepo, config.Env.OrderJournal.SyncInterval)
	go syncService.Run(ctx)

	wait := gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, ops)

	<-wait
}
