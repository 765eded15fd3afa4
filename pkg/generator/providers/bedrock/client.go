// Package bedrock implements the generator's single-tool-call
// contract against AWS Bedrock's Converse API. Additive relative to
// the teacher, which has no Bedrock integration; wired in because
// spec §4.3 frames the provider as "selectable by configuration...
// extensible" and the AWS SDK v2 is otherwise unused in this module.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithydocument "github.com/aws/smithy-go/document"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/apierr"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/generator/providers"
)

// Client wraps a bedrockruntime.Client bound to a single model id.
type Client struct {
	client  *bedrockruntime.Client
	modelID string
}

// NewClient builds a Client from an already-configured AWS SDK client.
func NewClient(client *bedrockruntime.Client, modelID string) *Client {
	return &Client{client: client, modelID: modelID}
}

func (c *Client) Name() string { return "bedrock" }

// Generate forces a tool call via ToolChoice and returns its input
// document as JSON.
func (c *Client) Generate(ctx context.Context, req providers.Request) (providers.Response, error) {
	toolSpec := types.ToolSpecification{
		Name:        aws.String(req.ToolName),
		InputSchema: &types.ToolInputSchemaMemberJson{Value: documentFromMap(req.ToolSchema)},
	}

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.modelID),
		System:  []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: req.SystemPrompt}},
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: req.UserPrompt}},
		}},
		ToolConfig: &types.ToolConfiguration{
			Tools:      []types.Tool{&types.ToolMemberToolSpec{Value: toolSpec}},
			ToolChoice: &types.ToolChoiceMemberTool{Value: types.SpecificToolChoice{Name: aws.String(req.ToolName)}},
		},
		InferenceConfig: &types.InferenceConfiguration{MaxTokens: aws.Int32(int32(req.MaxTokens))},
	}

	out, err := c.client.Converse(ctx, input)
	if err != nil {
		return providers.Response{}, &apierr.GenerationError{Provider: c.Name(), Model: c.modelID, SubKind: classifySubKind(err), Cause: err}
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return providers.Response{}, &apierr.GenerationError{
			Provider: c.Name(), Model: c.modelID, SubKind: apierr.GenOther,
			Cause: fmt.Errorf("bedrock: unexpected output shape"),
		}
	}

	for _, block := range msg.Value.Content {
		use, ok := block.(*types.ContentBlockMemberToolUse)
		if !ok || aws.ToString(use.Value.Name) != req.ToolName {
			continue
		}
		raw, err := json.Marshal(mapFromDocument(use.Value.Input))
		if err != nil {
			return providers.Response{}, &apierr.GenerationError{Provider: c.Name(), Model: c.modelID, SubKind: apierr.GenOther, Cause: err}
		}
		resp := providers.Response{ArgumentsJSON: raw, Model: c.modelID}
		if out.Usage != nil {
			resp.InputTokens = int(aws.ToInt32(out.Usage.InputTokens))
			resp.OutputTokens = int(aws.ToInt32(out.Usage.OutputTokens))
		}
		return resp, nil
	}

	return providers.Response{}, &apierr.GenerationError{
		Provider: c.Name(), Model: c.modelID, SubKind: apierr.GenOther,
		Cause: fmt.Errorf("model did not call %s", req.ToolName),
	}
}

// documentFromMap adapts a plain map[string]any into the smithy
// document.Interface Bedrock's typed tool-schema field expects.
func documentFromMap(m map[string]any) smithydocument.Interface {
	return smithydocument.NewLazyDocument(m)
}

func mapFromDocument(doc smithydocument.Interface) map[string]any {
	var out map[string]any
	if doc == nil {
		return out
	}
	_ = doc.UnmarshalSmithyDocument(&out)
	return out
}

func classifySubKind(err error) apierr.GenerationSubKind {
	var throttling *types.ThrottlingException
	var accessDenied *types.AccessDeniedException
	var validation *types.ValidationException
	var serviceUnavail *types.ServiceUnavailableException
	switch {
	case errors.As(err, &throttling):
		return apierr.GenRateLimit
	case errors.As(err, &accessDenied):
		return apierr.GenAuth
	case errors.As(err, &serviceUnavail):
		return apierr.GenUnavailable
	case errors.As(err, &validation):
		return apierr.GenOther
	default:
		return apierr.GenOther
	}
}
