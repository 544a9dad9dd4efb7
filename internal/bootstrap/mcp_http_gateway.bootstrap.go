package bootstrap

import (
	"context"

	"github.com/sbansal6/alpaca-mcp-server/internal/config"
	"github.com/sbansal6/alpaca-mcp-server/internal/handler/mcp"
	"github.com/sbansal6/alpaca-mcp-server/internal/infrastructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// StartMCPHTTPGateway serves MCP on POST /mcp next to the health probes and
// the prometheus endpoint.
func StartMCPHTTPGateway(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := newMCPRuntime(ctx)

	httpMux := infrastructure.NewHTTPMux(rt.registry)
	mcp.NewHTTPHandler(rt.server).Register(httpMux)

	httpConfig := infrastructure.DefaultHTTPServerConfig()
	httpConfig.Metrics = rt.httpMetrics
	httpServer := infrastructure.NewHTTPServerWithConfig(httpConfig, httpMux)

	go func() {
		err := httpServer.Start()
		if err != nil {
			logrus.Error(err)
			cancel()
		}
	}()
	logrus.WithField("addr", httpConfig.Addr).Info("mcp http gateway started")

	ops := map[string]operation{
		"http": func(ctx context.Context) error {
			return httpServer.Shutdown(ctx)
		},
	}
	for name, op := range rt.cleanups {
		ops[name] = op
	}

	wait := gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, ops)

	<-wait
}
