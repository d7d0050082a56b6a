package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rssdigest/internal/domain/repository"
	"rssdigest/internal/infrastructure/storage"
	"rssdigest/internal/interfaces/config"
)

func ledgerCmd() *cobra.Command {
	ledger := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and maintain the seen-link ledger",
	}

	ledger.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "Print the number of links already delivered",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(func(l repository.LedgerRepository) error {
				counter, ok := l.(storage.Counter)
				if !ok {
					return fmt.Errorf("ledger backend does not support counting")
				}
				n, err := counter.Count(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	})

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Forget links first seen longer ago than --older-than (sqlite only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			return withLedger(func(l repository.LedgerRepository) error {
				pruner, ok := l.(storage.Pruner)
				if !ok {
					return fmt.Errorf("ledger backend does not record first-seen times; use LEDGER_BACKEND=sqlite")
				}
				n, err := pruner.Prune(cmd.Context(), olderThan)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pruned %d links\n", n)
				return nil
			})
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age after which a link is forgotten")
	ledger.AddCommand(prune)

	return ledger
}

func withLedger(fn func(repository.LedgerRepository) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := newLogger(cfg)

	l, err := storage.OpenLedger(cfg.LedgerBackend, cfg.LedgerPath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := storage.CloseLedger(l); err != nil {
			logger.Warn().Err(err).Msg("failed to close ledger")
		}
	}()

	return fn(l)
}
