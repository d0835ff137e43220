package llm

import (
	"context"
	"fmt"
)

// NewProvider builds the configured provider wrapped with the call-log
// decorator. Failed calls surface immediately so the educator can
// re-invoke the operation; nothing retries on its own.
func NewProvider(ctx context.Context, cfg Config, log CallLogger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown model provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	if log != nil {
		base = WithCallLog(base, log)
	}
	return base, nil
}

// NewProviderFromEnv builds a provider from BIPKIT_* configuration,
// falling back to probing the standard provider key variables.
func NewProviderFromEnv(ctx context.Context, log CallLogger) (Provider, error) {
	cfg := ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		discovered, ok := DiscoverConfig()
		if !ok {
			return nil, err
		}
		cfg = discovered
	}
	return NewProvider(ctx, cfg, log)
}
