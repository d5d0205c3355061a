package llm

import (
	"context"
	"os"
	"strings"
)

// New selects a provider. OpenAI is the default and is configured from the
// settings (OPENAI_API_KEY et al.); Anthropic and Gemini can be chosen with
// LLM_PROVIDER plus their own API keys. With no key configured at all, the
// mock client answers so dry runs and heuristic-only goals still work.
func New(ctx context.Context, apiKey, baseURL, model string) Client {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))) {
	case "anthropic":
		if key := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); key != "" {
			return &AnthropicClient{APIKey: key, Model: modelOr(model, "claude-3-5-sonnet-latest")}
		}
	case "gemini":
		if key := strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")); key != "" {
			if c, err := NewGeminiClient(ctx, key, modelOr(model, "gemini-1.5-flash")); err == nil {
				return c
			}
		}
	}
	if apiKey != "" {
		return &OpenAIClient{APIKey: apiKey, Model: model, BaseURL: strings.TrimRight(baseURL, "/")}
	}
	return &MockClient{}
}

func modelOr(model, def string) string {
	// The configured default is OpenAI-flavored; alternate providers get
	// their own default unless the user overrode the model explicitly.
	if model == "" || strings.HasPrefix(model, "gpt-") {
		return def
	}
	return model
}
