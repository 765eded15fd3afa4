package generator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/extractor"
)

const systemPrompt = "You are a documentation assistant for a component knowledge base. " +
	"Given a component's structural API, call generate_component_metadata exactly once " +
	"with accurate, concise semantic metadata. Do not invent props or behavior not " +
	"implied by the structural data provided."

// buildPrompt is deterministic given its inputs (spec §4.3): the same
// extracted data and hints always produce the same prompt text, so
// re-generation is reproducible modulo the model's own sampling.
func buildPrompt(componentName string, data extractor.ExtractedData, hints Hints) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Component: %s\n\n", componentName)

	if len(data.Props) > 0 {
		b.WriteString("Props:\n")
		for _, p := range sortedProps(data.Props) {
			req := "optional"
			if p.Required {
				req = "required"
			}
			fmt.Fprintf(&b, "- %s: %s (%s)", p.Name, p.Type, req)
			if len(p.Values) > 0 {
				fmt.Fprintf(&b, " values=[%s]", strings.Join(p.Values, ", "))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(data.Variants) > 0 {
		b.WriteString("Variants:\n")
		for _, name := range sortedKeys(data.Variants) {
			fmt.Fprintf(&b, "- %s: [%s]", name, strings.Join(data.Variants[name], ", "))
			if dv, ok := data.DefaultVariants[name]; ok {
				fmt.Fprintf(&b, " default=%s", dv)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(data.SubComponents) > 0 {
		b.WriteString("Sub-components:\n")
		for _, sub := range data.SubComponents {
			fmt.Fprintf(&b, "- %s", sub.Name)
			if len(sub.Variants) > 0 {
				for _, name := range sortedKeys(sub.Variants) {
					fmt.Fprintf(&b, " %s=[%s]", name, strings.Join(sub.Variants[name], ", "))
				}
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(data.InternalDependencies) > 0 || len(data.NpmDependencies) > 0 {
		b.WriteString("Dependencies:\n")
		if len(data.InternalDependencies) > 0 {
			fmt.Fprintf(&b, "- internal: %s\n", strings.Join(data.InternalDependencies, ", "))
		}
		if len(data.NpmDependencies) > 0 {
			fmt.Fprintf(&b, "- npm: %s\n", strings.Join(sortedKeys(data.NpmDependencies), ", "))
		}
		b.WriteString("\n")
	}

	if data.BaseLibrary != nil {
		fmt.Fprintf(&b, "Base library: %s", data.BaseLibrary.Name)
		if data.BaseLibrary.Component != "" {
			fmt.Fprintf(&b, " (%s)", data.BaseLibrary.Component)
		}
		b.WriteString("\n\n")
	}

	if hints.Description != "" || hints.WhenToUse != "" || len(hints.RelatedComponents) > 0 {
		b.WriteString("Hints:\n")
		if hints.Description != "" {
			fmt.Fprintf(&b, "- description: %s\n", hints.Description)
		}
		if hints.WhenToUse != "" {
			fmt.Fprintf(&b, "- whenToUse: %s\n", hints.WhenToUse)
		}
		if len(hints.RelatedComponents) > 0 {
			fmt.Fprintf(&b, "- relatedComponents: %s\n", strings.Join(hints.RelatedComponents, ", "))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Allowed guidance.patterns values: %s\n", strings.Join(AllowedPatterns, ", "))

	return b.String()
}

func sortedProps(props []extractor.Prop) []extractor.Prop {
	out := make([]extractor.Prop, len(props))
	copy(out, props)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
