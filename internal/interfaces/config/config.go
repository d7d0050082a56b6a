package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"rssdigest/internal/domain/entity"
	"rssdigest/internal/infrastructure/llm"
	"rssdigest/internal/infrastructure/retry"
)

// TelegramMaxMessageLength is the bot API cap on one message.
const TelegramMaxMessageLength = 4096

type Config struct {
	TelegramBotToken    string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID      string `envconfig:"TELEGRAM_CHAT_ID"`
	TelegramAPIEndpoint string `envconfig:"TELEGRAM_API_ENDPOINT"`

	LLMProvider          string        `envconfig:"LLM_PROVIDER" default:"gemini"`
	LLMAPIKey            string        `envconfig:"LLM_API_KEY"`
	GeminiAPIKey         string        `envconfig:"GEMINI_API_KEY"`
	LLMModel             string        `envconfig:"LLM_MODEL"`
	LLMRegion            string        `envconfig:"LLM_REGION"`
	LLMMaxTokens         int           `envconfig:"LLM_MAX_TOKENS"`
	LLMTimeout           time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`
	LLMMaxInput          int           `envconfig:"LLM_MAX_INPUT" default:"30000"`
	LLMSystemInstruction string        `envconfig:"LLM_SYSTEM_INSTRUCTION"`

	SourcesFile string `envconfig:"SOURCES_FILE" default:"sources.json"`
	// RSSURL holds sources given directly in the environment; they are used
	// in place of SourcesFile when present.
	RSSURL []entity.Source `ignored:"true"`

	LedgerBackend string `envconfig:"LEDGER_BACKEND" default:"json"`
	LedgerPath    string `envconfig:"LEDGER_PATH" default:"data/seen_links.json"`

	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	TaskTimeout    time.Duration `envconfig:"TASK_TIMEOUT" default:"2m"`
	BatchTimeout   time.Duration `envconfig:"BATCH_TIMEOUT" default:"10m"`
	MaxRetries     int           `envconfig:"MAX_RETRIES" default:"3"`
	RetryBaseDelay time.Duration `envconfig:"RETRY_BASE_DELAY" default:"2s"`
	RetryMaxDelay  time.Duration `envconfig:"RETRY_MAX_DELAY" default:"30s"`
	Workers        int           `envconfig:"WORKERS" default:"4"`

	MessageLimit  int           `envconfig:"MESSAGE_LIMIT" default:"4000"`
	MessagePacing time.Duration `envconfig:"MESSAGE_PACING" default:"1s"`

	MaxArticlesPerSource int    `envconfig:"MAX_ARTICLES_PER_SOURCE" default:"5"`
	MinContentLength     int    `envconfig:"MIN_CONTENT_LENGTH" default:"100"`
	MaxContentLength     int    `envconfig:"MAX_CONTENT_LENGTH" default:"50000"`
	DigestMode           string `envconfig:"DIGEST_MODE" default:"combined"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	Schedule string `envconfig:"SCHEDULE"`
}

// Load reads .env (if any) and the environment without checking that the
// delivery settings are present. Commands that only touch the ledger use it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = cfg.GeminiAPIKey
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	cfg.DigestMode = strings.ToLower(strings.TrimSpace(cfg.DigestMode))
	cfg.Workers = min(max(cfg.Workers, 1), 8)
	cfg.RSSURL = loadRSSURLs()

	return &cfg, nil
}

// LoadConfig loads the configuration for a digest run and fails fast when a
// required setting is missing or out of range.
func LoadConfig() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.TelegramChatID == "" {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required")
	}

	switch c.LLMProvider {
	case llm.ProviderNoop:
	case llm.ProviderGemini, llm.ProviderBedrock:
		if c.LLMAPIKey == "" {
			return fmt.Errorf("LLM_API_KEY (or GEMINI_API_KEY) is required for provider %s", c.LLMProvider)
		}
		if c.LLMProvider == llm.ProviderBedrock && (c.LLMRegion == "" || c.LLMModel == "") {
			return fmt.Errorf("LLM_REGION and LLM_MODEL are required for provider bedrock")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER: %s", c.LLMProvider)
	}

	if c.MessageLimit <= 0 || c.MessageLimit > TelegramMaxMessageLength {
		return fmt.Errorf("MESSAGE_LIMIT must be between 1 and %d, got %d", TelegramMaxMessageLength, c.MessageLimit)
	}
	if c.MessagePacing < 0 {
		return fmt.Errorf("MESSAGE_PACING must not be negative")
	}

	switch c.DigestMode {
	case "combined", "per_article":
	default:
		return fmt.Errorf("unknown DIGEST_MODE: %s", c.DigestMode)
	}
	return nil
}

// RetryPolicy overrides retry.DefaultPolicy with the configured values.
func (c *Config) RetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	if c.MaxRetries > 0 {
		p.Attempts = c.MaxRetries
	}
	if c.RetryBaseDelay > 0 {
		p.BaseDelay = c.RetryBaseDelay
	}
	if c.RetryMaxDelay > 0 {
		p.MaxDelay = c.RetryMaxDelay
	}
	return p
}

func (c *Config) LLMConfig() llm.Config {
	return llm.Config{
		Provider:          c.LLMProvider,
		APIKey:            c.LLMAPIKey,
		Model:             c.LLMModel,
		Region:            c.LLMRegion,
		MaxTokens:         c.LLMMaxTokens,
		MaxInput:          c.LLMMaxInput,
		SystemInstruction: c.LLMSystemInstruction,
		Timeout:           c.LLMTimeout,
	}
}

// loadRSSURLs reads RSS_URL_1, RSS_URL_2, ... until the first gap, each with
// an optional RSS_URL_n_FILTER keyword list. Without numbered variables a
// comma separated RSS_URL is accepted.
func loadRSSURLs() []entity.Source {
	var sources []entity.Source

	for i := 1; ; i++ {
		key := fmt.Sprintf("RSS_URL_%d", i)
		u := strings.TrimSpace(os.Getenv(key))
		if u == "" {
			break
		}
		sources = append(sources, entity.Source{
			Name:     sourceName(u, i),
			URL:      u,
			Keywords: splitList(os.Getenv(key + "_FILTER")),
		})
	}
	if len(sources) > 0 {
		return sources
	}

	for i, u := range splitList(os.Getenv("RSS_URL")) {
		sources = append(sources, entity.Source{Name: sourceName(u, i+1), URL: u})
	}
	return sources
}

func sourceName(rawURL string, index int) string {
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		return strings.TrimPrefix(u.Hostname(), "www.")
	}
	return fmt.Sprintf("feed-%d", index)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
