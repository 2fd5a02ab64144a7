package agent

import "fmt"

// Provider names accepted by NewProvider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// NewProvider builds the named provider. An empty name selects OpenAI.
func NewProvider(name, apiKey, baseURL string) (Provider, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	switch name {
	case "", ProviderOpenAI:
		return NewOpenAIProvider(apiKey, baseURL), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey, baseURL), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
}
