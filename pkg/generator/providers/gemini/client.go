// Package gemini implements the generator's single-tool-call contract
// against the Gemini API, using the same google.golang.org/genai
// client cagent's own model/provider/gemini backend wraps.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/apierr"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/generator/providers"
)

// Client wraps a genai.Client bound to a single model.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient builds a Client from a plain API key (the GOOGLE_API_KEY
// flow cagent's gemini client falls back to when no project/location
// is configured).
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

func (c *Client) Name() string { return "gemini" }

// Generate forces a single function call to req.ToolName via
// FunctionCallingConfigModeAny and returns its arguments.
func (c *Client) Generate(ctx context.Context, req providers.Request) (providers.Response, error) {
	decl := &genai.FunctionDeclaration{
		Name:       req.ToolName,
		Parameters: schemaToGenai(req.ToolSchema),
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
		Tools:             []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{decl}}},
		ToolConfig: &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode:                 genai.FunctionCallingConfigModeAny,
				AllowedFunctionNames: []string{req.ToolName},
			},
		},
		MaxOutputTokens: int32(req.MaxTokens),
	}

	content := genai.NewContentFromText(req.UserPrompt, genai.RoleUser)

	resp, err := c.client.Models.GenerateContent(ctx, c.model, []*genai.Content{content}, config)
	if err != nil {
		return providers.Response{}, &apierr.GenerationError{Provider: c.Name(), Model: c.model, SubKind: classifySubKind(err), Cause: err}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return providers.Response{}, &apierr.GenerationError{
			Provider: c.Name(), Model: c.model, SubKind: apierr.GenOther,
			Cause: fmt.Errorf("gemini: empty response"),
		}
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.FunctionCall == nil || part.FunctionCall.Name != req.ToolName {
			continue
		}
		raw, err := json.Marshal(part.FunctionCall.Args)
		if err != nil {
			return providers.Response{}, &apierr.GenerationError{Provider: c.Name(), Model: c.model, SubKind: apierr.GenOther, Cause: err}
		}
		usage := providers.Response{ArgumentsJSON: raw, Model: c.model}
		if resp.UsageMetadata != nil {
			usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
			usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		}
		return usage, nil
	}

	return providers.Response{}, &apierr.GenerationError{
		Provider: c.Name(), Model: c.model, SubKind: apierr.GenOther,
		Cause: fmt.Errorf("model did not call %s", req.ToolName),
	}
}

func schemaToGenai(schema map[string]any) *genai.Schema {
	props, _ := schema["properties"].(map[string]any)
	out := &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}}
	for name, raw := range props {
		def, _ := raw.(map[string]any)
		out.Properties[name] = fieldSchemaToGenai(def)
	}
	if req, ok := schema["required"].([]string); ok {
		out.Required = req
	}
	return out
}

func fieldSchemaToGenai(def map[string]any) *genai.Schema {
	s := &genai.Schema{}
	switch def["type"] {
	case "string":
		s.Type = genai.TypeString
	case "number", "integer":
		s.Type = genai.TypeNumber
	case "boolean":
		s.Type = genai.TypeBoolean
	case "array":
		s.Type = genai.TypeArray
		if items, ok := def["items"].(map[string]any); ok {
			s.Items = fieldSchemaToGenai(items)
		}
	default:
		s.Type = genai.TypeObject
		if props, ok := def["properties"].(map[string]any); ok {
			s.Properties = map[string]*genai.Schema{}
			for name, raw := range props {
				inner, _ := raw.(map[string]any)
				s.Properties[name] = fieldSchemaToGenai(inner)
			}
		}
	}
	if desc, ok := def["description"].(string); ok {
		s.Description = desc
	}
	return s
}

func classifySubKind(err error) apierr.GenerationSubKind {
	var apiErr *genai.APIError
	if e, ok := err.(*genai.APIError); ok {
		apiErr = e
		switch apiErr.Code {
		case 401, 403:
			return apierr.GenAuth
		case 429:
			return apierr.GenRateLimit
		case 503:
			return apierr.GenUnavailable
		case 408:
			return apierr.GenTimeout
		}
	}
	return apierr.GenOther
}
