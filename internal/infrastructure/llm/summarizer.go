package llm

import (
	"context"
	"fmt"
	"time"

	"rssdigest/internal/domain/repository"
)

const (
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"
	ProviderNoop    = "noop"
)

// Config configures the summarization provider.
type Config struct {
	Provider          string        // "gemini", "bedrock" or "noop"
	APIKey            string        // Gemini API key or Bedrock bearer token
	Model             string        // empty selects the provider default
	Region            string        // Bedrock only
	MaxTokens         int           // 0 leaves the provider default
	MaxInput          int           // in runes
	SystemInstruction string        // empty selects DefaultSystemInstruction
	Timeout           time.Duration // per call
	BaseURL           string        // overrides the API endpoint
}

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxInput = 30000
)

// DefaultSystemInstruction asks for three neutral Vietnamese bullet points per article.
const DefaultSystemInstruction = `Bạn là một biên tập viên báo chí chuyên nghiệp và giàu kinh nghiệm.
Hãy đọc và tóm tắt nội dung bài báo sau đây thành 3 gạch đầu dòng súc tích, dễ hiểu bằng tiếng Việt.
Giữ giọng văn trung lập, chỉ tập trung vào các thông tin quan trọng nhất.
Nếu có nhiều bài báo, chúng được phân tách bởi dòng "---END ARTICLE---".`

// NewSummarizerRepository builds the summarizer for cfg.Provider.
func NewSummarizerRepository(ctx context.Context, cfg Config) (repository.SummarizerRepository, error) {
	switch cfg.Provider {
	case ProviderGemini:
		return newGeminiSummarizer(ctx, cfg)
	case ProviderBedrock:
		return newBedrockSummarizer(ctx, cfg)
	case ProviderNoop, "":
		return newNoopSummarizer(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}

func buildPrompt(title, content string, maxInput int) string {
	content = truncateRunes(content, maxInput)
	if title == "" {
		return fmt.Sprintf("BÀI BÁO:\n---\n%s\n---\n\nTÓM TẮT:", content)
	}
	return fmt.Sprintf("Tiêu đề: %s\n\nBÀI BÁO:\n---\n%s\n---\n\nTÓM TẮT:", title, content)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func withDefaults(cfg Config) Config {
	if cfg.SystemInstruction == "" {
		cfg.SystemInstruction = DefaultSystemInstruction
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxInput == 0 {
		cfg.MaxInput = defaultMaxInput
	}
	return cfg
}
