package manifest

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/extractor"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/generator"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/identity"
)

// Build is a pure function of (identity, extractedData, generatedMeta,
// availableComponents) producing the canonical AIManifest (spec §4.4).
// generatedMeta and availableComponents may both be nil/empty.
func Build(id Identity, data extractor.ExtractedData, meta *generator.ComponentMeta, availableComponents []string, cfg Config) AIManifest {
	props := runPropPipeline(data.Props, data.Variants, data.DefaultVariants, variantDescriptionsOf(meta))
	var propsPtr *CategorizedProps
	if !props.IsEmpty() {
		propsPtr = &props
	}

	m := AIManifest{
		Name:            id.Name,
		Slug:            identity.SlugFor(id.Name, id.Framework, id.ID),
		ImportStatement: buildImportStatement(id.Name, data.CompoundInfo, data.NpmDependencies, cfg.DefaultPackage),
		Children:        data.AcceptsChildren,
		Props:           propsPtr,
		BaseLibrary:     data.BaseLibrary,
		RadixPrimitive:  data.RadixPrimitive,
	}

	if meta != nil {
		m.Description = meta.Description
	} else if data.SourceDescription != "" {
		m.Description = data.SourceDescription
	}

	m.Examples = buildExamples(data.Stories, generatedExamplesOf(meta))

	if meta != nil {
		m.Guidance = buildGuidance(meta.Guidance, availableComponents)
	}

	if len(data.NpmDependencies) > 0 || len(data.InternalDependencies) > 0 {
		m.Dependencies = &Dependencies{
			NPM:      data.NpmDependencies,
			Internal: data.InternalDependencies,
		}
	}

	m.SubComponents = buildSubComponents(data.SubComponents, subComponentVariantDescriptionsOf(meta))

	return m
}

func variantDescriptionsOf(meta *generator.ComponentMeta) map[string]*orderedmap.OrderedMap[string, string] {
	if meta == nil {
		return nil
	}
	return meta.VariantDescriptions
}

func generatedExamplesOf(meta *generator.ComponentMeta) *generator.Examples {
	if meta == nil {
		return nil
	}
	return meta.Examples
}

func subComponentVariantDescriptionsOf(meta *generator.ComponentMeta) map[string]map[string]*orderedmap.OrderedMap[string, string] {
	if meta == nil {
		return nil
	}
	return meta.SubComponentVariantDescriptions
}

// buildGuidance implements spec §4.4 step 4: relatedComponents is
// filtered against availableComponents when the caller supplies it;
// an empty/nil availableComponents means "no filtering".
func buildGuidance(g generator.Guidance, availableComponents []string) *Guidance {
	related := g.RelatedComponents
	if len(availableComponents) > 0 {
		known := make(map[string]bool, len(availableComponents))
		for _, c := range availableComponents {
			known[c] = true
		}
		filtered := make([]string, 0, len(related))
		for _, r := range related {
			if known[r] {
				filtered = append(filtered, r)
			}
		}
		related = filtered
	}

	out := &Guidance{
		WhenToUse:         g.WhenToUse,
		WhenNotToUse:      g.WhenNotToUse,
		Accessibility:     g.Accessibility,
		Patterns:          g.Patterns,
		RelatedComponents: related,
	}
	if out.WhenToUse == "" && out.WhenNotToUse == "" && out.Accessibility == "" &&
		len(out.Patterns) == 0 && len(out.RelatedComponents) == 0 {
		return nil
	}
	return out
}

// buildSubComponents implements spec §4.4 step 5: the same three-step
// prop pipeline applied per sub-component.
func buildSubComponents(subs []extractor.SubComponent, subVariantDescriptions map[string]map[string]*orderedmap.OrderedMap[string, string]) []SubComponent {
	if len(subs) == 0 {
		return nil
	}

	out := make([]SubComponent, 0, len(subs))
	for _, s := range subs {
		props := runPropPipeline(s.Props, s.Variants, s.DefaultVariants, subVariantDescriptions[s.Name])
		var propsPtr *CategorizedProps
		if !props.IsEmpty() {
			propsPtr = &props
		}
		out = append(out, SubComponent{
			Name:                  s.Name,
			DataSlot:              identity.Kebab(s.Name),
			Description:           s.Description,
			RequiredInComposition: s.RequiredInComposition,
			RadixPrimitive:        s.RadixPrimitive,
			Props:                 propsPtr,
		})
	}
	return out
}
