package llm

import (
	"strings"

	"interview-coach/internal/config"
)

// Provider names as they appear in errors and meta; the values come from
// the LLM_PROVIDER setting.
const (
	ProviderOpenAI = string(config.ProviderOpenAI)
	ProviderYandex = string(config.ProviderYandex)
	ProviderMock   = string(config.ProviderMock)
)

// Factory creates LLM clients with consistent logic
type Factory struct {
	OpenaiAPIKey       string
	OpenaiBaseURL      string
	OpenRouterReferrer string
	OpenRouterTitle    string
	YandexOAuthToken   string
	YandexFolderID     string
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		OpenaiAPIKey:       cfg.OpenAIAPIKey,
		OpenaiBaseURL:      cfg.OpenAIBaseURL,
		OpenRouterReferrer: cfg.OpenRouterReferrer,
		OpenRouterTitle:    cfg.OpenRouterTitle,
		YandexOAuthToken:   cfg.YandexOAuthToken,
		YandexFolderID:     cfg.YandexFolderID,
	}
}

// CreateClient returns a *ConfigurationError for unknown providers and
// missing credentials.
func (f *Factory) CreateClient(provider, model string) (Client, error) {
	switch config.LLMProvider(strings.ToLower(provider)) {
	case config.ProviderOpenAI:
		c, err := NewOpenAI(f.OpenaiAPIKey, f.OpenaiBaseURL, model, f.OpenRouterReferrer, f.OpenRouterTitle)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderYandex:
		c, err := NewYandex(f.YandexOAuthToken, f.YandexFolderID)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderMock:
		return NewMockClient(), nil
	default:
		return nil, &ConfigurationError{Provider: provider, Reason: "unknown llm provider"}
	}
}
