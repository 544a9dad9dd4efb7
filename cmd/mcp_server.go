/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/sbansal6/alpaca-mcp-server/internal/bootstrap"
	"github.com/spf13/cobra"
)

// mcpServerCmd represents the mcp server command
var mcpServerCmd = &cobra.Command{
	Use:   "mcp-server",
	Short: "Serve the Alpaca tools over MCP stdio",
	Long: `Reads newline delimited JSON-RPC messages from stdin and writes responses
to stdout. Logs go to stderr so they never interleave with the protocol stream.`,
	Run: bootstrap.StartMCPServer,
}

func init() {
	rootCmd.AddCommand(mcpServerCmd)
}
