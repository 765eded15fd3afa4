// Package manifest builds the AIManifest: the canonical merge of
// structural extraction and generated semantic metadata that the
// chunker and search layer consume (spec §4.4).
package manifest

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/extractor"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/generator"
)

// ManifestProp is a prop after categorization/normalization/enrichment.
type ManifestProp struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Required     bool     `json:"required"`
	DefaultValue any      `json:"defaultValue,omitempty"`
	Values       []string `json:"values,omitempty"`
	Description  string   `json:"description,omitempty"`
	// ValueDescriptions preserves the order the generator emitted each
	// value's description in, rather than Go's unordered map iteration
	// (spec §4.4: the manifest is read directly by clients, so output
	// order should be stable and meaningful, not incidental).
	ValueDescriptions *orderedmap.OrderedMap[string, string] `json:"valueDescriptions,omitempty"`
}

// CategorizedProps groups a component's props into the five closed
// buckets the prop pipeline routes into (spec §3, §4.4 step 1).
// Empty groups are omitted from JSON output.
type CategorizedProps struct {
	Variants  []ManifestProp `json:"variants,omitempty"`
	Behaviors []ManifestProp `json:"behaviors,omitempty"`
	Events    []ManifestProp `json:"events,omitempty"`
	Slots     []ManifestProp `json:"slots,omitempty"`
	Other     []ManifestProp `json:"other,omitempty"`
}

// IsEmpty reports whether every bucket is empty, so the builder can
// omit the whole props block (spec §4.4: "Empty sections are omitted").
func (c *CategorizedProps) IsEmpty() bool {
	return c == nil || (len(c.Variants)+len(c.Behaviors)+len(c.Events)+len(c.Slots)+len(c.Other) == 0)
}

// ImportStatement describes how consumers should import the component
// (spec §3 AIManifest shape, §4.4 step 3).
type ImportStatement struct {
	Primary  string `json:"primary"`
	TypeOnly string `json:"typeOnly,omitempty"`
	Subpath  string `json:"subpath,omitempty"`
}

// Examples holds the three example tiers selected for the manifest
// (spec §4.4 step 2).
type Examples struct {
	Minimal  *generator.Example  `json:"minimal,omitempty"`
	Common   []generator.Example `json:"common,omitempty"`
	Advanced []generator.Example `json:"advanced,omitempty"`
}

// Guidance carries the generator's usage guidance, filtered against
// the caller's known-component set (spec §4.4 step 4).
type Guidance struct {
	WhenToUse         string   `json:"whenToUse,omitempty"`
	WhenNotToUse      string   `json:"whenNotToUse,omitempty"`
	Accessibility     string   `json:"accessibility,omitempty"`
	Patterns          []string `json:"patterns,omitempty"`
	RelatedComponents []string `json:"relatedComponents,omitempty"`
}

// Dependencies mirrors ExtractedData's dependency fields in
// consumer-facing shape.
type Dependencies struct {
	NPM      map[string]string `json:"npm,omitempty"`
	Internal []string          `json:"internal,omitempty"`
}

// SubComponent is one compound sub-component after its own prop
// pipeline (spec §4.4 step 5).
type SubComponent struct {
	Name                  string                    `json:"name"`
	DataSlot              string                    `json:"dataSlot"`
	Description           string                    `json:"description,omitempty"`
	RequiredInComposition bool                      `json:"requiredInComposition"`
	RadixPrimitive        *extractor.RadixPrimitive `json:"radixPrimitive,omitempty"`
	Props                 *CategorizedProps         `json:"props,omitempty"`
}

// AIManifest is the canonical, persisted, consumer-visible description
// of a component (spec §3 "AIManifest").
type AIManifest struct {
	Name            string                    `json:"name"`
	Slug            string                    `json:"slug"`
	Description     string                    `json:"description,omitempty"`
	ImportStatement ImportStatement           `json:"importStatement"`
	Children        bool                      `json:"children,omitempty"`
	Props           *CategorizedProps         `json:"props,omitempty"`
	Examples        *Examples                 `json:"examples,omitempty"`
	Guidance        *Guidance                 `json:"guidance,omitempty"`
	Dependencies    *Dependencies             `json:"dependencies,omitempty"`
	BaseLibrary     *extractor.BaseLibrary    `json:"baseLibrary,omitempty"`
	SubComponents   []SubComponent            `json:"subComponents,omitempty"`
	RadixPrimitive  *extractor.RadixPrimitive `json:"radixPrimitive,omitempty"`
}

// Identity is the minimal naming information the builder needs to
// derive a slug; it never recomputes or stores anything beyond that.
type Identity struct {
	Name      string
	Framework string
	ID        string
}

// Config carries the one cross-cutting configuration value the
// builder needs from its caller (spec §4.4 step 3: "the configured
// default" package name).
type Config struct {
	DefaultPackage string
}
