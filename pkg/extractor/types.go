// Package extractor turns component source (+ optional Storybook
// stories) into ExtractedData: the structural API description the
// rest of the pipeline builds on. See spec §4.2.
package extractor

// Framework enumerates the component frameworks the pipeline accepts.
// Only "react" has a working extraction pipeline; the others are
// reserved per spec §3.
type Framework string

const (
	FrameworkReact   Framework = "react"
	FrameworkVue     Framework = "vue"
	FrameworkSvelte  Framework = "svelte"
	FrameworkAngular Framework = "angular"
)

// Prop describes a single component property.
type Prop struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Description  string   `json:"description,omitempty"`
	DefaultValue any      `json:"defaultValue,omitempty"`
	Values       []string `json:"values,omitempty"`
	Required     bool     `json:"required"`
	IsChildren   bool     `json:"isChildren"`
}

// Complexity classifies a Storybook story per spec §4.2 step 6.
type Complexity string

const (
	ComplexityMinimal  Complexity = "minimal"
	ComplexityCommon   Complexity = "common"
	ComplexityAdvanced Complexity = "advanced"
)

// Story is one Storybook export, classified by complexity.
type Story struct {
	Title      string     `json:"title"`
	Code       string     `json:"code"`
	Complexity Complexity `json:"complexity"`
}

// BaseLibrary names the underlying headless/primitives library a
// component wraps, if any (e.g. Radix).
type BaseLibrary struct {
	Name      string `json:"name"`
	Component string `json:"component,omitempty"`
}

// RadixPrimitive records the resolved Radix UI primitive a component
// (or sub-component) renders, and a link to its documentation.
type RadixPrimitive struct {
	Primitive string `json:"primitive"`
	DocsURL   string `json:"docsUrl"`
}

// CompoundInfo records the compound-component shape detected for a
// root export (spec §4.2 step 8).
type CompoundInfo struct {
	IsCompound     bool     `json:"isCompound"`
	RootComponent  string   `json:"rootComponent"`
	SubComponents  []string `json:"subComponents"`
}

// SubComponent is one member of a compound component.
type SubComponent struct {
	Name                 string            `json:"name"`
	Props                []Prop            `json:"props"`
	Description          string            `json:"description,omitempty"`
	RequiredInComposition bool             `json:"requiredInComposition"`
	RadixPrimitive       *RadixPrimitive    `json:"radixPrimitive,omitempty"`
	Variants             map[string][]string `json:"variants,omitempty"`
	DefaultVariants      map[string]string   `json:"defaultVariants,omitempty"`
}

// ExtractedData is the structural API description produced by the
// extractor (spec §3 "ExtractedData").
type ExtractedData struct {
	Props                []Prop              `json:"props"`
	Variants             map[string][]string `json:"variants,omitempty"`
	DefaultVariants      map[string]string   `json:"defaultVariants,omitempty"`
	NpmDependencies      map[string]string   `json:"npmDependencies,omitempty"`
	InternalDependencies []string            `json:"internalDependencies,omitempty"`
	AcceptsChildren      bool                `json:"acceptsChildren"`
	BaseLibrary          *BaseLibrary        `json:"baseLibrary,omitempty"`
	SourceDescription    string              `json:"sourceDescription,omitempty"`
	Files                []string            `json:"files,omitempty"`
	Stories              []Story             `json:"stories,omitempty"`
	CompoundInfo         *CompoundInfo       `json:"compoundInfo,omitempty"`
	SubComponents        []SubComponent      `json:"subComponents,omitempty"`
	RadixPrimitive       *RadixPrimitive     `json:"radixPrimitive,omitempty"`
}

// Method classifies which extraction strategy ultimately produced the
// props list.
type Method string

const (
	MethodPrimary  Method = "primary"
	MethodFallback Method = "fallback"
	MethodHybrid   Method = "hybrid"
)

// FallbackReason is the symbolic, rule-based reason fallback fired
// (spec §4.2 step 2). Never a free-text quality judgement.
type FallbackReason string

const (
	ReasonNoPrimaryResult  FallbackReason = "no_primary_result"
	ReasonZeroProps        FallbackReason = "zero_props"
	ReasonForwardRefNoProps FallbackReason = "forward_ref_no_props"
	ReasonHOCPattern       FallbackReason = "hoc_pattern"
	ReasonStyledComponents FallbackReason = "styled_components_pattern"
)

// Diagnostic reports how extraction went, for observability and for
// the HTTP /extract response's metadata block.
type Diagnostic struct {
	Method           Method         `json:"extractionMethod"`
	FallbackTriggered bool          `json:"fallbackTriggered"`
	FallbackReason   FallbackReason `json:"fallbackReason,omitempty"`
	// DiagnosticTrace records, in order, which rule fired during
	// extraction. Additive over spec §4.2; purely observational.
	DiagnosticTrace []string `json:"-"`
}

// Input bundles everything Extract needs (spec §4.2 signature).
type Input struct {
	Name          string
	SourceCode    string
	StoriesCode   string
	Framework     Framework
	FilePath      string
	PathAliases   map[string]string // alias prefix -> resolved path prefix
	KnownPackages map[string]bool
}

// Result is what Extract returns: the structural data plus its
// diagnostic trail.
type Result struct {
	Data       ExtractedData
	Diagnostic Diagnostic
}
