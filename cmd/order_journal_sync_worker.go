/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/sbansal6/alpaca-mcp-server/internal/bootstrap"
	"github.com/spf13/cobra"
)

// orderJournalSyncWorkerCmd represents the order journal sync worker command
var orderJournalSyncWorkerCmd = &cobra.Command{
	Use:   "order-journal-sync-worker",
	Short: "Sync journaled orders with Alpaca",
	Long: `Periodically fetches every journaled order that has not reached a terminal
status and stores the latest status and fills. When nats jetstream is configured
it also persists the journal entries published by the MCP server.`,
	Run: bootstrap.StartOrderJournalSyncWorker,
}

func init() {
	rootCmd.AddCommand(orderJournalSyncWorkerCmd)
}
