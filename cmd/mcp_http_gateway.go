/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/sbansal6/alpaca-mcp-server/internal/bootstrap"
	"github.com/spf13/cobra"
)

// mcpHTTPGatewayCmd represents the mcp http gateway command
var mcpHTTPGatewayCmd = &cobra.Command{
	Use:   "mcp-http-gateway",
	Short: "Serve the Alpaca tools over MCP on HTTP",
	Long: `Accepts JSON-RPC messages on POST /mcp authenticated with an API key from
the api_keys config, and exposes /healthz, /readyz and /metrics.`,
	Run: bootstrap.StartMCPHTTPGateway,
}

func init() {
	rootCmd.AddCommand(mcpHTTPGatewayCmd)
}
