package factory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wildanku/hala-ai/pkg/llm"
	"github.com/wildanku/hala-ai/pkg/llm/gemini"
	"github.com/wildanku/hala-ai/pkg/llm/huggingface"
	"github.com/wildanku/hala-ai/pkg/llm/ollama"
	"github.com/wildanku/hala-ai/pkg/llm/openai"
)

// Config carries the settings for every backend; only the selected one is read.
type Config struct {
	OllamaURL   string
	OllamaModel string

	GeminiAPIKey string
	GeminiModel  string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	HuggingFaceAPIKey  string
	HuggingFaceBaseURL string
	HuggingFaceModel   string
}

// NotFoundError is returned for unknown or unconfigured backend names.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Provider '%s' tidak ditemukan atau tidak dikonfigurasi.", e.Name)
}

// IsNotFound reports whether err came from an unknown backend name.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

var names = []string{"gemini", "openai", "ollama", "huggingface"}

// Names lists the backend names NewLLMProvider understands.
func Names() []string {
	return append([]string(nil), names...)
}

func NewLLMProvider(ctx context.Context, name string, cfg Config) (llm.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ollama":
		return ollama.NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel), nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, &NotFoundError{Name: name}
		}
		return gemini.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, &NotFoundError{Name: name}
		}
		return openai.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	case "huggingface", "hf":
		if cfg.HuggingFaceAPIKey == "" {
			return nil, &NotFoundError{Name: name}
		}
		return huggingface.NewHuggingFaceProvider(cfg.HuggingFaceAPIKey, cfg.HuggingFaceBaseURL, cfg.HuggingFaceModel), nil
	default:
		return nil, &NotFoundError{Name: name}
	}
}

// Configured builds every backend that has enough settings to run.
// Failures are skipped; the health endpoint reports what is missing.
func Configured(ctx context.Context, cfg Config) map[string]llm.Provider {
	out := make(map[string]llm.Provider)
	for _, n := range names {
		p, err := NewLLMProvider(ctx, n, cfg)
		if err != nil {
			continue
		}
		out[n] = p
	}
	return out
}
