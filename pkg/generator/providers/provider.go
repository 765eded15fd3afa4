// Package providers declares the narrow interface each LLM backend
// implements for the generator's single tool-call contract, mirroring
// the shape of cagent's own model/provider.Provider registry but
// scoped to one forced tool call instead of a full chat stream.
package providers

import "context"

// Request is everything a provider needs to make the one tool call
// the generator ever issues.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	ToolName     string
	ToolSchema   map[string]any
	MaxTokens    int
}

// Response is the provider's tool-call result: the raw JSON arguments
// the model produced for ToolName, plus bookkeeping.
type Response struct {
	ArgumentsJSON []byte
	Model         string
	InputTokens   int
	OutputTokens  int
}

// Provider is implemented by each LLM backend (anthropic, gemini,
// bedrock, ...).
type Provider interface {
	Generate(ctx context.Context, req Request) (Response, error)
	Name() string
}
