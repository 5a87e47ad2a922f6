package models

import (
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider identifiers accepted by NewFromConfig.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderGitHub    = "github"
)

// Providers lists every supported provider identifier.
var Providers = []string{ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderGitHub}

const (
	// GitHubModelsBaseURL is the base URL for the GitHub Models API.
	// The OpenAI-compatible chat completions endpoint is at
	// {baseURL}/chat/completions.
	GitHubModelsBaseURL = "https://models.github.ai/inference"
)

// ProviderConfig selects and configures a provider.
type ProviderConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string // optional endpoint override (Ollama server URL for ollama)
}

// NewFromConfig builds a Client for cfg.Provider.
func NewFromConfig(cfg ProviderConfig) (*Client, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAI(cfg.Model, cfg.APIKey, cfg.BaseURL)
	case ProviderAnthropic:
		return NewAnthropic(cfg.Model, cfg.APIKey, cfg.BaseURL)
	case ProviderOllama:
		return NewOllama(cfg.Model, cfg.BaseURL)
	case ProviderGitHub:
		return NewGitHub(cfg.Model, cfg.APIKey)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// NewOpenAI creates a Client backed by the OpenAI chat completions API, or any compatible
// endpoint when baseURL is set. Additional options are applied after the defaults.
func NewOpenAI(model, apiKey, baseURL string, opts ...openai.Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	base := []openai.Option{openai.WithToken(apiKey), openai.WithModel(model)}
	if baseURL != "" {
		base = append(base, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return New(llm, ProviderOpenAI, model), nil
}

// NewAnthropic creates a Client backed by the Anthropic messages API.
func NewAnthropic(model, apiKey, baseURL string, opts ...anthropic.Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	base := []anthropic.Option{anthropic.WithToken(apiKey), anthropic.WithModel(model)}
	if baseURL != "" {
		base = append(base, anthropic.WithBaseURL(baseURL))
	}
	llm, err := anthropic.New(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Anthropic client: %w", err)
	}
	return New(llm, ProviderAnthropic, model), nil
}

// NewOllama creates a Client backed by a local Ollama server. An empty serverURL uses the
// Ollama default.
func NewOllama(model, serverURL string, opts ...ollama.Option) (*Client, error) {
	base := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		base = append(base, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}
	return New(llm, ProviderOllama, model), nil
}

// githubHeaderTransport wraps an http.RoundTripper and injects
// GitHub-specific headers into every request.
type githubHeaderTransport struct {
	base http.RoundTripper
}

func (t *githubHeaderTransport) Do(
	req *http.Request,
) (*http.Response, error) {
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	return t.base.RoundTrip(req)
}

// NewGitHub creates a Client backed by the GitHub Models API.
//
// The token must be a GitHub Personal Access Token (fine-grained)
// with the models:read permission. Model names use the
// publisher/model format, for example "openai/gpt-4.1".
func NewGitHub(model, token string, opts ...openai.Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf(
			"github token is required: " +
				"create a fine-grained PAT with models:read " +
				"at https://github.com/settings/personal-access-tokens/new",
		)
	}

	// Caller options come after so they can override defaults
	// (e.g. a custom HTTP client).
	base := []openai.Option{
		openai.WithBaseURL(GitHubModelsBaseURL),
		openai.WithToken(token),
		openai.WithModel(model),
		openai.WithHTTPClient(&githubHeaderTransport{
			base: http.DefaultTransport,
		}),
	}
	llm, err := openai.New(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub Models client: %w", err)
	}
	return New(llm, ProviderGitHub, model), nil
}
