package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"rssdigest/internal/interfaces/config"
)

func runOnce(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := newLogger(cfg)

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.runBatch(cmd.Context())
}
