package llm

import "context"

// openAIProvider implements Provider for the OpenAI API. The original
// deployment of this pipeline ran its corrections against gpt-4o; any chat
// model name accepted by the API works here.
//
// API key: set via config or the OPENAI_API_KEY env var picked up by the
// server binary.
type openAIProvider struct {
	base openAICompatClient
}

// NewOpenAI creates a provider for OpenAI.
func NewOpenAI(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	return &openAIProvider{base: newOpenAICompatClient(cfg)}
}

func (p *openAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return p.base.chat(ctx, req)
}
