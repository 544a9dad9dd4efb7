package bootstrap

import (
	"context"
	"os"

	"github.com/sbansal6/alpaca-mcp-server/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// StartMCPServer serves MCP over stdin and stdout until the client closes
// stdin or the process is signalled.
func StartMCPServer(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := newMCPRuntime(ctx)

	go func() {
		defer cancel()

		logrus.Info("mcp server listening on stdio")
		if err := rt.server.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil {
			logrus.WithError(err).Error("stdio transport stopped")
		}
	}()

	ops := map[string]operation{
		"mcp stdio": func(context.Context) error {
			cancel()
			return nil
		},
	}
	for name, op := range rt.cleanups {
		ops[name] = op
	}

	wait := gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, ops)

	<-wait
}
