// Package generator calls an LLM once, through a fixed tool-call
// contract, to produce the semantic metadata layer the manifest
// builder merges with structural extraction (spec §4.3).
package generator

import orderedmap "github.com/wk8/go-ordered-map/v2"

// Example is a single usage example attached to the component or to
// one of its variant/value combinations.
type Example struct {
	Title       string `json:"title"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

// Examples bundles the three example tiers the tool contract accepts.
type Examples struct {
	Minimal  *Example  `json:"minimal,omitempty"`
	Common   []Example `json:"common,omitempty"`
	Advanced []Example `json:"advanced,omitempty"`
}

// Guidance is the usage guidance block every generation must include.
type Guidance struct {
	WhenToUse         string   `json:"whenToUse"`
	WhenNotToUse      string   `json:"whenNotToUse"`
	Accessibility     string   `json:"accessibility"`
	Patterns          []string `json:"patterns,omitempty"`
	RelatedComponents []string `json:"relatedComponents,omitempty"`
}

// ComponentMeta is the validated, clamped result of one generation
// call -- the `generate_component_metadata` tool's parameters, spec §6.
type ComponentMeta struct {
	Description                     string                                                   `json:"description"`
	Guidance                        Guidance                                                 `json:"guidance"`
	Examples                        *Examples                                                `json:"examples,omitempty"`
	// VariantDescriptions/SubComponentVariantDescriptions keep the
	// model's own key order for each variant's value->description map
	// (an *orderedmap.OrderedMap preserves JSON decode order, a plain
	// Go map does not) so the manifest's valueDescriptions field reads
	// in the same order the model produced them rather than Go's
	// alphabetical map iteration.
	VariantDescriptions             map[string]*orderedmap.OrderedMap[string, string]            `json:"variantDescriptions,omitempty"`
	SubComponentVariantDescriptions map[string]map[string]*orderedmap.OrderedMap[string, string] `json:"subComponentVariantDescriptions,omitempty"`
}

// AllowedPatterns is the fixed enumeration `guidance.patterns` is
// filtered against (spec §4.3: "patterns are filtered to the fixed
// enumeration").
var AllowedPatterns = []string{
	"controlled", "uncontrolled", "compound", "render-prop", "polymorphic",
	"forwarded-ref", "portal", "async-data", "form-field", "layout",
}

// Usage reports token counts, when the provider supplies them.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Hints are optional caller-supplied nudges folded into the prompt
// (spec §4.3 signature: "(orgId, identity, extractedData, hints?)").
type Hints struct {
	Description       string
	WhenToUse         string
	RelatedComponents []string
}
