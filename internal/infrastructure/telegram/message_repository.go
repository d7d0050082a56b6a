package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"rssdigest/internal/domain/repository"
	"rssdigest/internal/infrastructure/retry"
)

type Config struct {
	Token string
	// Endpoint is either a bot API base URL or a full tgbotapi endpoint
	// format with two %s verbs. Empty selects tgbotapi.APIEndpoint.
	Endpoint string
	Timeout  time.Duration
	Retry    retry.Policy
	// MinInterval spaces consecutive API calls, retries included.
	// Zero selects defaultMinInterval; negative disables the limit.
	MinInterval time.Duration
}

// Bot API allows about 30 messages per second per bot.
const defaultMinInterval = time.Second / 30

type messageRepository struct {
	api     *tgbotapi.BotAPI
	policy  retry.Policy
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewMessageRepository connects to the bot API and verifies the token with getMe.
func NewMessageRepository(cfg Config, logger zerolog.Logger) (repository.MessageRepository, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpointFormat(cfg.Endpoint), &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram bot API: %w", err)
	}

	interval := cfg.MinInterval
	if interval == 0 {
		interval = defaultMinInterval
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &messageRepository{
		api:     api,
		policy:  cfg.Retry,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}, nil
}

func endpointFormat(endpoint string) string {
	switch {
	case endpoint == "":
		return tgbotapi.APIEndpoint
	case strings.Contains(endpoint, "%s"):
		return endpoint
	default:
		return strings.TrimRight(endpoint, "/") + "/bot%s/%s"
	}
}

// Send posts text with MarkdownV2 parsing. The text must already be escaped.
func (r *messageRepository) Send(ctx context.Context, chatTarget, text string) error {
	msg, err := newMessage(chatTarget, text)
	if err != nil {
		return err
	}

	return retry.Do(ctx, r.policy, retry.IsTransient,
		func(attempt int, wait time.Duration, err error) {
			r.logger.Warn().Err(err).Str("chat", chatTarget).Int("attempt", attempt).Dur("wait", wait).Msg("telegram send failed, retrying")
		},
		func(ctx context.Context) error {
			if err := r.limiter.Wait(ctx); err != nil {
				return retry.Permanent(err)
			}
			if _, err := r.api.Send(msg); err != nil {
				return classify(err)
			}
			return nil
		})
}

func newMessage(chatTarget, text string) (tgbotapi.MessageConfig, error) {
	chatTarget = strings.TrimSpace(chatTarget)
	if chatTarget == "" {
		return tgbotapi.MessageConfig{}, fmt.Errorf("telegram chat target is required")
	}

	var msg tgbotapi.MessageConfig
	if strings.HasPrefix(chatTarget, "@") {
		msg = tgbotapi.NewMessageToChannel(chatTarget, text)
	} else {
		chatID, err := strconv.ParseInt(chatTarget, 10, 64)
		if err != nil {
			return tgbotapi.MessageConfig{}, fmt.Errorf("invalid telegram chat target %q: %w", chatTarget, err)
		}
		msg = tgbotapi.NewMessage(chatID, text)
	}
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true
	return msg, nil
}

// classify turns a bot API error into a retry.StatusError so 429 and 5xx
// replies are retried and retry_after is honoured.
func classify(err error) error {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	statusErr := &retry.StatusError{
		URL:        "sendMessage",
		StatusCode: apiErr.Code,
		RetryAfter: time.Duration(apiErr.RetryAfter) * time.Second,
	}
	return fmt.Errorf("telegram API error: %s: %w", apiErr.Message, statusErr)
}
