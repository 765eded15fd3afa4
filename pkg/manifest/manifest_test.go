package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/extractor"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/generator"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/manifest"
)

func TestBuild_CategorizesAndNormalizesVariants(t *testing.T) {
	data := extractor.ExtractedData{
		Props: []extractor.Prop{
			{Name: "onOpenChange", Type: "(open: boolean) => void"},
			{Name: "icon", Type: "ReactNode"},
			{Name: "disabled", Type: "boolean"},
			{Name: "label", Type: "string", Required: true},
			{Name: "children", Type: "ReactNode", IsChildren: true},
		},
		Variants:        map[string][]string{"variant": {"default", "destructive"}, "size": {"sm", "lg"}},
		DefaultVariants: map[string]string{"variant": "default"},
		AcceptsChildren: true,
	}

	m := manifest.Build(manifest.Identity{Name: "Button", Framework: "react", ID: "abcdef0123456789"}, data, nil, nil, manifest.Config{DefaultPackage: "@acme/ui"})

	require.NotNil(t, m.Props)
	assert.Len(t, m.Props.Events, 1)
	assert.Equal(t, "onOpenChange", m.Props.Events[0].Name)
	assert.Len(t, m.Props.Slots, 1)
	assert.Equal(t, "icon", m.Props.Slots[0].Name)
	assert.Len(t, m.Props.Behaviors, 1)
	assert.Equal(t, "disabled", m.Props.Behaviors[0].Name)
	assert.Len(t, m.Props.Other, 1)
	assert.Equal(t, "label", m.Props.Other[0].Name)

	// both variant axes present, even though only "variant"/"size" never
	// appeared as declared TS props
	require.Len(t, m.Props.Variants, 2)
	names := []string{m.Props.Variants[0].Name, m.Props.Variants[1].Name}
	assert.Contains(t, names, "variant")
	assert.Contains(t, names, "size")

	assert.True(t, m.Children)
	assert.Contains(t, m.Slug, "button-react-")
}

func TestBuild_PrefersStoriesOverGeneratedExamples(t *testing.T) {
	data := extractor.ExtractedData{
		Stories: []extractor.Story{
			{Title: "Default", Code: "<Button />", Complexity: extractor.ComplexityMinimal},
			{Title: "WithIcon", Code: "<Button icon />", Complexity: extractor.ComplexityCommon},
		},
	}
	generated := &generator.ComponentMeta{
		Examples: &generator.Examples{Minimal: &generator.Example{Title: "ignored", Code: "ignored"}},
	}

	m := manifest.Build(manifest.Identity{Name: "Button", Framework: "react", ID: "a"}, data, generated, nil, manifest.Config{})

	require.NotNil(t, m.Examples)
	require.NotNil(t, m.Examples.Minimal)
	assert.Equal(t, "Default", m.Examples.Minimal.Title)
	require.Len(t, m.Examples.Common, 1)
	assert.Equal(t, "WithIcon", m.Examples.Common[0].Title)
}

func TestBuild_FiltersRelatedComponentsAgainstAvailableSet(t *testing.T) {
	meta := &generator.ComponentMeta{
		Description: "A button you click.",
		Guidance: generator.Guidance{
			RelatedComponents: []string{"IconButton", "Ghost", "Link"},
		},
	}

	m := manifest.Build(manifest.Identity{Name: "Button", Framework: "react", ID: "a"}, extractor.ExtractedData{}, meta, []string{"IconButton", "Link"}, manifest.Config{})

	require.NotNil(t, m.Guidance)
	assert.ElementsMatch(t, []string{"IconButton", "Link"}, m.Guidance.RelatedComponents)
}

func TestBuild_ImportStatementPicksDesignSystemPackage(t *testing.T) {
	data := extractor.ExtractedData{
		NpmDependencies: map[string]string{"react": "^18.0.0", "@acme/components": "^1.0.0"},
	}

	m := manifest.Build(manifest.Identity{Name: "Button", Framework: "react", ID: "a"}, data, nil, nil, manifest.Config{DefaultPackage: "fallback-pkg"})

	assert.Contains(t, m.ImportStatement.Primary, "@acme/components")
	assert.Contains(t, m.ImportStatement.TypeOnly, "ButtonProps")
}

func TestBuild_CompoundImportListsAllNames(t *testing.T) {
	data := extractor.ExtractedData{
		CompoundInfo: &extractor.CompoundInfo{IsCompound: true, RootComponent: "Dialog", SubComponents: []string{"DialogTrigger", "DialogContent"}},
		SubComponents: []extractor.SubComponent{
			{Name: "DialogTrigger", Props: []extractor.Prop{{Name: "onClick", Type: "() => void"}}},
			{Name: "DialogContent", RequiredInComposition: true},
		},
	}

	m := manifest.Build(manifest.Identity{Name: "Dialog", Framework: "react", ID: "a"}, data, nil, nil, manifest.Config{DefaultPackage: "@acme/ui"})

	assert.Contains(t, m.ImportStatement.Primary, "Dialog, DialogTrigger, DialogContent")
	require.Len(t, m.SubComponents, 2)
	assert.Equal(t, "dialog-trigger", m.SubComponents[0].DataSlot)
	assert.True(t, m.SubComponents[1].RequiredInComposition)
}

func TestBuild_EmptyPropsOmitted(t *testing.T) {
	m := manifest.Build(manifest.Identity{Name: "Spacer", Framework: "react", ID: "a"}, extractor.ExtractedData{}, nil, nil, manifest.Config{})

	assert.Nil(t, m.Props)
	assert.Nil(t, m.Dependencies)
	assert.Nil(t, m.Guidance)
}
