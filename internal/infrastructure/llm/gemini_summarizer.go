package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"rssdigest/internal/domain/repository"
)

const geminiDefaultModel = "gemini-1.5-flash-latest"

// geminiSummarizer summarizes through the Gemini API.
type geminiSummarizer struct {
	client       *genai.Client
	model        string
	maxTokens    *int32
	systemPrompt string
	maxInput     int
	timeout      time.Duration
}

func newGeminiSummarizer(ctx context.Context, cfg Config) (repository.SummarizerRepository, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	cfg = withDefaults(cfg)

	model := cfg.Model
	if model == "" {
		model = geminiDefaultModel
	}

	var maxTokens *int32
	if cfg.MaxTokens > 0 {
		tokens := int32(cfg.MaxTokens)
		maxTokens = &tokens
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &geminiSummarizer{
		client:       client,
		model:        model,
		maxTokens:    maxTokens,
		systemPrompt: cfg.SystemInstruction,
		maxInput:     cfg.MaxInput,
		timeout:      cfg.Timeout,
	}, nil
}

func (s *geminiSummarizer) Summarize(ctx context.Context, content, title string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Models.GenerateContent(ctx, s.model,
		genai.Text(buildPrompt(title, content, s.maxInput)), s.generateConfig())
	if err != nil {
		return "", fmt.Errorf("failed to call Gemini API: %w", err)
	}

	summary := strings.TrimSpace(resp.Text())
	if summary == "" {
		return "", fmt.Errorf("no summary returned from Gemini API")
	}
	return summary, nil
}

func (s *geminiSummarizer) generateConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(s.systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.3),
	}
	if s.maxTokens != nil {
		cfg.MaxOutputTokens = *s.maxTokens
	}
	return cfg
}

func (s *geminiSummarizer) IsEnabled() bool {
	return true
}
