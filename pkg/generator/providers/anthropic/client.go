// Package anthropic implements the generator's single-tool-call
// contract against the Anthropic Messages API, the same SDK cagent's
// own model/provider/anthropic client wraps.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/apierr"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/generator/providers"
)

// Client wraps a configured Anthropic SDK client for one-shot,
// forced-tool-call generation requests.
type Client struct {
	client anthropic.Client
	model  string
}

// NewClient builds a Client bound to a single model.
func NewClient(apiKey, model string) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *Client) Name() string { return "anthropic" }

// Generate issues exactly one Messages.New call, forcing the model to
// invoke req.ToolName, and returns the raw tool-call arguments.
func (c *Client) Generate(ctx context.Context, req providers.Request) (providers.Response, error) {
	toolParam := anthropic.ToolParam{
		Name:        req.ToolName,
		Description: anthropic.String(""),
		InputSchema: toInputSchema(req.ToolSchema),
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(req.MaxTokens),
		System:    []anthropic.TextBlockParam{{Text: req.SystemPrompt}},
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt))},
		Tools:     []anthropic.ToolUnionParam{{OfTool: &toolParam}},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: req.ToolName},
		},
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return providers.Response{}, classifyError(c.model, err)
	}

	for _, block := range message.Content {
		if block.Type != "tool_use" {
			continue
		}
		toolUse := block.AsToolUse()
		if toolUse.Name != req.ToolName {
			continue
		}
		raw, err := json.Marshal(toolUse.Input)
		if err != nil {
			return providers.Response{}, &apierr.GenerationError{
				Provider: c.Name(), Model: c.model, SubKind: apierr.GenOther, Cause: err,
			}
		}
		return providers.Response{
			ArgumentsJSON: raw,
			Model:         c.model,
			InputTokens:   int(message.Usage.InputTokens),
			OutputTokens:  int(message.Usage.OutputTokens),
		}, nil
	}

	return providers.Response{}, &apierr.GenerationError{
		Provider: c.Name(), Model: c.model, SubKind: apierr.GenOther,
		Cause: fmt.Errorf("model did not call %s", req.ToolName),
	}
}

// toInputSchema converts the generator's provider-agnostic
// map[string]any schema into the SDK's typed input-schema param, the
// same conversion shape as cagent's ConvertParametersToSchema.
func toInputSchema(schema map[string]any) anthropic.ToolInputSchemaParam {
	props, _ := schema["properties"].(map[string]any)
	required, _ := schema["required"].([]string)
	return anthropic.ToolInputSchemaParam{
		Properties: props,
		Required:   required,
	}
}

func classifyError(model string, err error) error {
	subKind := apierr.GenOther
	var apiErr *anthropic.Error
	if ok := asAnthropicError(err, &apiErr); ok {
		switch apiErr.StatusCode {
		case 401, 403:
			subKind = apierr.GenAuth
		case 429:
			subKind = apierr.GenRateLimit
		case 503, 529:
			subKind = apierr.GenUnavailable
		case 408:
			subKind = apierr.GenTimeout
		}
	}
	return &apierr.GenerationError{Provider: "anthropic", Model: model, SubKind: subKind, Cause: err}
}

func asAnthropicError(err error, target **anthropic.Error) bool {
	var apiErr *anthropic.Error
	if e, ok := err.(*anthropic.Error); ok {
		apiErr = e
		*target = apiErr
		return true
	}
	return false
}
