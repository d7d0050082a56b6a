package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"rssdigest/internal/application"
	"rssdigest/internal/domain/repository"
	"rssdigest/internal/infrastructure/llm"
	"rssdigest/internal/infrastructure/logging"
	"rssdigest/internal/infrastructure/rss"
	"rssdigest/internal/infrastructure/scraper"
	"rssdigest/internal/infrastructure/storage"
	"rssdigest/internal/infrastructure/telegram"
	"rssdigest/internal/interfaces/config"
)

// app holds the wired digest pipeline for one process.
type app struct {
	digest *application.DigestService
	ledger repository.LedgerRepository
	logger zerolog.Logger
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	sources := cfg.RSSURL
	if len(sources) == 0 {
		sources = rss.LoadSources(cfg.SourcesFile, logger)
	}

	ledger, err := storage.OpenLedger(cfg.LedgerBackend, cfg.LedgerPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	messageRepo, err := telegram.NewMessageRepository(telegram.Config{
		Token:    cfg.TelegramBotToken,
		Endpoint: cfg.TelegramAPIEndpoint,
		Timeout:  cfg.RequestTimeout,
		Retry:    cfg.RetryPolicy(),
	}, logger.With().Str("component", "telegram").Logger())
	if err != nil {
		_ = storage.CloseLedger(ledger)
		return nil, err
	}

	summarizerRepo, err := llm.NewSummarizerRepository(ctx, cfg.LLMConfig())
	if err != nil {
		_ = storage.CloseLedger(ledger)
		return nil, fmt.Errorf("failed to initialize summarizer: %w", err)
	}

	feedRepo := rss.NewFeedRepository(rss.Config{
		Timeout: cfg.RequestTimeout,
		Retry:   cfg.RetryPolicy(),
	}, logger.With().Str("component", "rss").Logger())

	contentFetcher := scraper.NewContentFetcher(scraper.Config{
		Timeout:   cfg.RequestTimeout,
		Retry:     cfg.RetryPolicy(),
		MinLength: cfg.MinContentLength,
		MaxLength: cfg.MaxContentLength,
	}, logger.With().Str("component", "scraper").Logger())

	delivery := application.NewDeliveryService(messageRepo, application.DeliveryConfig{
		Limit:  cfg.MessageLimit,
		Pacing: cfg.MessagePacing,
	}, logger.With().Str("component", "delivery").Logger())

	digest := application.NewDigestService(
		sources,
		feedRepo,
		contentFetcher,
		summarizerRepo,
		ledger,
		delivery,
		application.DigestConfig{
			ChatTarget:           cfg.TelegramChatID,
			Mode:                 cfg.DigestMode,
			Workers:              cfg.Workers,
			TaskTimeout:          cfg.TaskTimeout,
			BatchTimeout:         cfg.BatchTimeout,
			MaxArticlesPerSource: cfg.MaxArticlesPerSource,
			MaxInput:             cfg.LLMMaxInput,
		},
		logger,
	)

	return &app{digest: digest, ledger: ledger, logger: logger}, nil
}

func (a *app) Close() {
	if err := storage.CloseLedger(a.ledger); err != nil {
		a.logger.Warn().Err(err).Msg("failed to close ledger")
	}
}

// runBatch runs one digest. An empty batch is not an error.
func (a *app) runBatch(ctx context.Context) error {
	_, err := a.digest.Run(ctx)
	if errors.Is(err, application.ErrNoArticles) {
		return nil
	}
	return err
}
