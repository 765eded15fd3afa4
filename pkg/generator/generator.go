package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/apierr"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/extractor"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/generator/providers"
)

// Config bounds the programmatic clamping rules (spec §4.3 / §6).
type Config struct {
	MinDescriptionLen int
	MaxDescriptionLen int
	MaxTokens         int
}

// Generator issues one tool-call generation request per component and
// normalizes whatever the model returns into a ComponentMeta.
type Generator struct {
	provider  providers.Provider
	validator *schemaValidator
	cfg       Config
}

// New builds a Generator bound to one provider.
func New(provider providers.Provider, cfg Config) (*Generator, error) {
	if cfg.MinDescriptionLen <= 0 {
		cfg.MinDescriptionLen = 50
	}
	if cfg.MaxDescriptionLen <= 0 {
		cfg.MaxDescriptionLen = 2000
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}

	validator, err := newSchemaValidator(cfg.MinDescriptionLen, cfg.MaxDescriptionLen)
	if err != nil {
		return nil, err
	}
	return &Generator{provider: provider, validator: validator, cfg: cfg}, nil
}

// ProviderName returns the bound provider's identifier, for callers
// that persist it alongside the generated metadata (spec §4.5).
func (g *Generator) ProviderName() string {
	return g.provider.Name()
}

// Generate calls the LLM exactly once (spec §4.3) and returns the
// normalized metadata plus usage and model identification.
func (g *Generator) Generate(ctx context.Context, componentName string, data extractor.ExtractedData, hints Hints) (ComponentMeta, Usage, string, error) {
	req := providers.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   buildPrompt(componentName, data, hints),
		ToolName:     ToolName,
		ToolSchema:   toolSchemaMap(g.cfg.MinDescriptionLen, g.cfg.MaxDescriptionLen),
		MaxTokens:    g.cfg.MaxTokens,
	}

	// Example generation is skipped iff the component already has
	// extracted stories (spec §4.3): nudge the model away from
	// inventing examples it doesn't need to supply.
	if len(data.Stories) > 0 {
		req.SystemPrompt += " The component already has real usage examples; omit the examples field."
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return ComponentMeta{}, Usage{}, "", err
	}

	if result, verr := g.validator.Validate(resp.ArgumentsJSON); verr == nil {
		for _, e := range result.Errors() {
			switch {
			case e.Type() == "string_gte" || e.Type() == "string_lte":
				continue // length clamped below, not a hard failure
			case e.Type() == "enum" && strings.HasPrefix(e.Field(), "guidance.patterns"):
				continue // unknown patterns are filtered below
			case strings.HasPrefix(e.Field(), "variantDescriptions") || strings.HasPrefix(e.Field(), "subComponentVariantDescriptions"):
				continue // stringified payloads are parsed or dropped below
			}
			return ComponentMeta{}, Usage{}, "", &apierr.GenerationError{
				Provider: g.provider.Name(), Model: resp.Model, SubKind: apierr.GenOther,
				Cause: fmt.Errorf("tool output failed schema validation: %s", e.String()),
			}
		}
	}

	var raw rawMeta
	if err := json.Unmarshal(resp.ArgumentsJSON, &raw); err != nil {
		return ComponentMeta{}, Usage{}, "", &apierr.GenerationError{
			Provider: g.provider.Name(), Model: resp.Model, SubKind: apierr.GenOther, Cause: err,
		}
	}

	meta := normalize(componentName, data, raw, g.cfg)

	usage := Usage{InputTokens: resp.InputTokens, OutputTokens: resp.OutputTokens}
	return meta, usage, resp.Model, nil
}

// rawMeta mirrors the tool's raw JSON shape before normalization;
// variantDescriptions/subComponentVariantDescriptions are kept as
// json.RawMessage since the model sometimes stringifies them (spec
// §4.3: "stringified JSON payloads... are parsed or dropped").
type rawMeta struct {
	Description                     string          `json:"description"`
	Guidance                        Guidance        `json:"guidance"`
	Examples                        *Examples       `json:"examples"`
	VariantDescriptions             json.RawMessage `json:"variantDescriptions"`
	SubComponentVariantDescriptions json.RawMessage `json:"subComponentVariantDescriptions"`
}

func normalize(componentName string, data extractor.ExtractedData, raw rawMeta, cfg Config) ComponentMeta {
	meta := ComponentMeta{
		Description: clampDescription(raw.Description, componentName, data, cfg),
		Guidance:    raw.Guidance,
		Examples:    raw.Examples,
	}

	meta.Guidance.Patterns = filterPatterns(raw.Guidance.Patterns)

	if vd, ok := parseVariantDescriptions(raw.VariantDescriptions); ok {
		meta.VariantDescriptions = vd
	}
	if svd, ok := parseSubComponentVariantDescriptions(raw.SubComponentVariantDescriptions); ok {
		meta.SubComponentVariantDescriptions = svd
	}

	return meta
}

// clampDescription enforces the configured length bounds, falling
// back to a programmatic default composed from the component's name
// and extracted fields when the model's text is unusable.
func clampDescription(desc, componentName string, data extractor.ExtractedData, cfg Config) string {
	desc = strings.TrimSpace(desc)
	if len(desc) < cfg.MinDescriptionLen {
		return programmaticDefaultDescription(componentName, data)
	}
	if len(desc) > cfg.MaxDescriptionLen {
		return desc[:cfg.MaxDescriptionLen]
	}
	return desc
}

func programmaticDefaultDescription(componentName string, data extractor.ExtractedData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is a component", componentName)
	if data.BaseLibrary != nil {
		fmt.Fprintf(&b, " built on %s", data.BaseLibrary.Name)
	}
	if len(data.Props) > 0 {
		fmt.Fprintf(&b, " that accepts %d configurable props", len(data.Props))
	}
	if len(data.Variants) > 0 {
		fmt.Fprintf(&b, " with style variants %s", strings.Join(sortedKeys(data.Variants), ", "))
	}
	b.WriteString(".")
	return b.String()
}

func filterPatterns(patterns []string) []string {
	allowed := make(map[string]bool, len(AllowedPatterns))
	for _, p := range AllowedPatterns {
		allowed[p] = true
	}
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if allowed[p] {
			out = append(out, p)
		}
	}
	return out
}

// parseVariantDescriptions accepts either a real JSON object or a
// JSON-encoded string containing one (the model sometimes stringifies
// nested objects); returns ok=false if neither parses.
func parseVariantDescriptions(raw json.RawMessage) (map[string]*orderedmap.OrderedMap[string, string], bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var direct map[string]*orderedmap.OrderedMap[string, string]
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct, true
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		var nested map[string]*orderedmap.OrderedMap[string, string]
		if err := json.Unmarshal([]byte(asString), &nested); err == nil {
			return nested, true
		}
	}
	return nil, false
}

func parseSubComponentVariantDescriptions(raw json.RawMessage) (map[string]map[string]*orderedmap.OrderedMap[string, string], bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var direct map[string]map[string]*orderedmap.OrderedMap[string, string]
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct, true
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		var nested map[string]map[string]*orderedmap.OrderedMap[string, string]
		if err := json.Unmarshal([]byte(asString), &nested); err == nil {
			return nested, true
		}
	}
	return nil, false
}
