// Package cli wires the digest bot's components behind cobra commands.
package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "rssdigest",
		Short: "Summarize new RSS articles and post the digest to Telegram",
		Long: "Polls the configured news feeds, scrapes articles not delivered before, " +
			"summarizes them with an LLM and sends the digest to a Telegram chat.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd)
		},
	}

	root.AddCommand(
		runCmd(),
		serveCmd(),
		sourcesCmd(),
		ledgerCmd(),
	)
	return root
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one digest batch and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd)
		},
	}
}
