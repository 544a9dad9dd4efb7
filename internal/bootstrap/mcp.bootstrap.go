package bootstrap

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sbansal6/alpaca-mcp-server/internal/config"
	"github.com/sbansal6/alpaca-mcp-server/internal/constant"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/sbansal6/alpaca-mcp-server/internal/handler/mcp"
	"github.com/sbansal6/alpaca-mcp-server/internal/infrastructure"
	"github.com/sbansal6/alpaca-mcp-server/internal/repository"
	"github.com/sbansal6/alpaca-mcp-server/internal/service/alpaca"
	"github.com/sbansal6/alpaca-mcp-server/internal/service/orderengine"
	"github.com/sbansal6/alpaca-mcp-server/internal/service/orderjournal"
	"github.com/sbansal6/alpaca-mcp-server/internal/service/orderthrottle"
	"github.com/sbansal6/alpaca-mcp-server/internal/util"
	"github.com/sirupsen/logrus"
)

// mcpRuntime is a fully wired MCP server plus the resources that must be
// released when it stops.
type mcpRuntime struct {
	server      *mcp.Server
	registry    *prometheus.Registry
	httpMetrics *infrastructure.HTTPMetrics
	cleanups    map[string]operation
}

func newMCPRuntime(ctx context.Context) *mcpRuntime {
	err := config.Env.Alpaca.Validate()
	util.ContinueOrFatal(err)

	rt := &mcpRuntime{cleanups: map[string]operation{}}
	rt.registry, rt.httpMetrics = infrastructure.NewMetricsRegistry()

	alpacaClient := alpaca.NewClient(config.Env.Alpaca)
	logrus.WithFields(logrus.Fields{
		"trade_api_url": config.Env.Alpaca.ResolveTradeAPIURL(),
		"paper":         config.Env.Alpaca.Paper,
	}).Info("alpaca client configured")

	throttle := orderthrottle.New(config.Env.OrderThrottle, rt.newThrottleRedis(ctx))
	journal := rt.newJournal(ctx)

	orderEngineService := orderengine.NewOrderEngineService(alpacaClient, throttle, journal, orderengine.NewMetrics(rt.registry))

	toolRegistry := mcp.NewRegistry()
	err = toolRegistry.RegisterHook(mcp.LogHook{})
	util.ContinueOrFatal(err)
	err = toolRegistry.RegisterHook(mcp.NewMetricsHook(rt.registry))
	util.ContinueOrFatal(err)

	err = mcp.RegisterTools(toolRegistry, mcp.Dependencies{
		Trading:    alpacaClient,
		MarketData: alpacaClient,
		OptionData: alpacaClient,
		Streamer:   alpacaClient,
		Orders:     orderEngineService,
	})
	util.ContinueOrFatal(err)

	rt.server = mcp.NewServer(toolRegistry, config.ServiceName, config.ServiceVersion)

	return rt
}

// newThrottleRedis connects the shared throttle store. Nil means the throttle
// keeps its window in process memory.
func (rt *mcpRuntime) newThrottleRedis(ctx context.Context) *redis.Client {
	if config.Env.OrderThrottle.MaxOrders <= 0 {
		return nil
	}

	redisConfig, ok := config.Env.Redis[constant.OrderThrottleRedisName]
	if !ok || redisConfig.CacheDSN == "" {
		return nil
	}

	client, err := infrastructure.NewRedisClient(ctx, redisConfig)
	util.ContinueOrFatal(err)

	rt.cleanups["order throttle redis"] = func(context.Context) error {
		return client.Close()
	}

	return client
}

// newJournal returns nil when journaling is disabled. Entries go to postgres
// directly, or through jetstream when order_journal.publish is set.
func (rt *mcpRuntime) newJournal(ctx context.Context) entity.OrderJournaler {
	cfg := config.Env.OrderJournal
	if !cfg.Enabled {
		return nil
	}

	var (
		sink      orderjournal.Sink
		closeSink func() error
	)
	if cfg.Publish {
		nc, js, err := infrastructure.NewJetstream(config.Env.NatsJetstream)
		util.ContinueOrFatal(err)
		closeSink = func() error {
			return infrastructure.CloseJetstream(nc)
		}

		jetstreamSink := orderjournal.NewJetstreamSink(js)
		publishers := []entity.Publisher{jetstreamSink}
		for _, v := range publishers {
			err = v.JetstreamEventInit(ctx)
			util.ContinueOrFatal(err)
		}
		sink = jetstreamSink
	} else {
		dbConfig := config.Env.Database[constant.OrderJournalDatabaseName]
		db, err := infrastructure.NewPostgresConnection(ctx, dbConfig)
		util.ContinueOrFatal(err)
		infrastructure.StartPostgresHealthCheck(ctx, db, dbConfig.PingInterval)
		closeSink = db.Close

		sink = orderjournal.NewRepositorySink(repository.NewOrderJournalRepository(db))
	}

	journalCtx, stop := context.WithCancel(context.Background())
	journalService := orderjournal.NewJournalService(sink, cfg)
	go journalService.Run(journalCtx)

	// the sink is closed only after the buffered entries are flushed
	rt.cleanups["order journal"] = func(ctx context.Context) error {
		stop()
		if err := journalService.Shutdown(ctx); err != nil {
			return err
		}
		if dropped := journalService.Dropped(); dropped > 0 {
			logrus.WithField("dropped", dropped).Warn("order journal dropped entries")
		}
		return closeSink()
	}

	return journalService
}
