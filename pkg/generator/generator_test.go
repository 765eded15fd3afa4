package generator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/extractor"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/generator/providers"
)

type fakeProvider struct {
	response providers.Response
	err      error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(_ context.Context, _ providers.Request) (providers.Response, error) {
	return f.response, f.err
}

func argsJSON(t *testing.T, v map[string]any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestGenerator_NormalizesValidOutput(t *testing.T) {
	args := argsJSON(t, map[string]any{
		"description": "A flexible button component supporting multiple visual variants and sizes for forms and toolbars.",
		"guidance": map[string]any{
			"whenToUse":         "Use for any clickable action that triggers a command or navigation.",
			"whenNotToUse":      "Avoid for navigation between pages; use a link instead.",
			"accessibility":     "Exposes a native button role with keyboard activation.",
			"patterns":          []string{"controlled", "not-a-real-pattern"},
			"relatedComponents": []string{"IconButton"},
		},
	})

	provider := &fakeProvider{response: providers.Response{ArgumentsJSON: args, Model: "claude-x", InputTokens: 10, OutputTokens: 20}}
	gen, err := New(provider, Config{})
	require.NoError(t, err)

	meta, usage, model, err := gen.Generate(context.Background(), "Button", extractor.ExtractedData{}, Hints{})
	require.NoError(t, err)

	assert.Equal(t, "claude-x", model)
	assert.Equal(t, 10, usage.InputTokens)
	assert.Equal(t, []string{"controlled"}, meta.Guidance.Patterns, "unknown patterns must be filtered out")
	assert.Contains(t, meta.Description, "flexible button")
}

func TestGenerator_ClampsShortDescriptionToProgrammaticDefault(t *testing.T) {
	args := argsJSON(t, map[string]any{
		"description": "Too short.",
		"guidance": map[string]any{
			"whenToUse":     "Use when you need a primary action.",
			"whenNotToUse":  "Avoid for passive display text.",
			"accessibility": "Native semantics.",
		},
	})

	provider := &fakeProvider{response: providers.Response{ArgumentsJSON: args, Model: "claude-x"}}
	gen, err := New(provider, Config{})
	require.NoError(t, err)

	meta, _, _, err := gen.Generate(context.Background(), "Button", extractor.ExtractedData{
		Props: []extractor.Prop{{Name: "variant"}, {Name: "size"}},
	}, Hints{})
	require.NoError(t, err)

	assert.Contains(t, meta.Description, "Button is a component")
	assert.NotEqual(t, "Too short.", meta.Description)
}

func TestGenerator_ParsesStringifiedVariantDescriptions(t *testing.T) {
	inner, err := json.Marshal(map[string]map[string]string{
		"variant": {"default": "The standard look"},
	})
	require.NoError(t, err)

	args := argsJSON(t, map[string]any{
		"description": "A flexible button component supporting multiple visual variants and sizes for forms and toolbars.",
		"guidance": map[string]any{
			"whenToUse":     "Use when you need a primary action.",
			"whenNotToUse":  "Avoid for passive display text.",
			"accessibility": "Native semantics.",
		},
		"variantDescriptions": string(inner),
	})

	provider := &fakeProvider{response: providers.Response{ArgumentsJSON: args, Model: "claude-x"}}
	gen, err := New(provider, Config{})
	require.NoError(t, err)

	meta, _, _, err := gen.Generate(context.Background(), "Button", extractor.ExtractedData{}, Hints{})
	require.NoError(t, err)

	require.NotNil(t, meta.VariantDescriptions)
	val, ok := meta.VariantDescriptions["variant"].Get("default")
	assert.True(t, ok)
	assert.Equal(t, "The standard look", val)
}
