// Package chunker turns an AIManifest into the ordered list of text
// chunks the embedding service indexes (spec §4.6). It is a pure
// function package: no I/O, no store, no provider -- grounded on
// pkg/manifest's own Build being pure, the same shape the corpus
// favors for anything that only transforms data it's handed.
package chunker

import (
	"fmt"
	"strings"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/manifest"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage"
)

const maxChunkLen = 4000

// Chunk is one indexable slice of a manifest, ordered within its type
// by Index.
type Chunk struct {
	Type    storage.ChunkType
	Content string
	Index   int
}

// Build builds the full ordered chunk list for one manifest (spec
// §4.6). Section builders that have nothing to say contribute no
// chunk at all, rather than an empty one.
func Build(m manifest.AIManifest) []Chunk {
	var out []Chunk
	perType := map[storage.ChunkType]int{}
	appendIfNotEmpty := func(t storage.ChunkType, content string) {
		content = strings.TrimSpace(content)
		if content == "" {
			return
		}
		out = append(out, Chunk{Type: t, Content: truncate(content), Index: perType[t]})
		perType[t]++
	}

	appendIfNotEmpty(storage.ChunkDescription, descriptionChunk(m))
	appendIfNotEmpty(storage.ChunkImport, importChunk(m))
	appendIfNotEmpty(storage.ChunkProps, propsChunk(m))
	if len(m.SubComponents) > 0 {
		appendIfNotEmpty(storage.ChunkComposition, compositionChunk(m))
	}
	appendIfNotEmpty(storage.ChunkExamples, examplesChunk(m))
	appendIfNotEmpty(storage.ChunkPatterns, patternsChunk(m))
	appendIfNotEmpty(storage.ChunkGuidance, guidanceChunk(m))

	return out
}

// truncate clamps content to maxChunkLen, appending "..." when cut
// (spec §4.6: "Each chunk is truncated to 4000 characters").
func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxChunkLen {
		return s
	}
	return string(r[:maxChunkLen-3]) + "..."
}

func descriptionChunk(m manifest.AIManifest) string {
	var b strings.Builder
	b.WriteString(m.Name)
	if m.Description != "" {
		b.WriteString(": ")
		b.WriteString(m.Description)
	}
	if m.BaseLibrary != nil {
		fmt.Fprintf(&b, "\nBase library: %s", m.BaseLibrary.Name)
		if m.BaseLibrary.Component != "" {
			fmt.Fprintf(&b, " (%s)", m.BaseLibrary.Component)
		}
	}
	if m.RadixPrimitive != nil {
		fmt.Fprintf(&b, "\nRadix primitive: %s (%s)", m.RadixPrimitive.Primitive, m.RadixPrimitive.DocsURL)
	}
	return b.String()
}

func importChunk(m manifest.AIManifest) string {
	var b strings.Builder
	b.WriteString(m.ImportStatement.Primary)
	if m.ImportStatement.TypeOnly != "" {
		b.WriteString("\n")
		b.WriteString(m.ImportStatement.TypeOnly)
	}
	return b.String()
}

func propsChunk(m manifest.AIManifest) string {
	if m.Props == nil {
		return ""
	}
	var b strings.Builder
	writeGroup := func(label string, props []manifest.ManifestProp) {
		if len(props) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s:\n", label)
		for _, p := range props {
			writeProp(&b, p)
		}
	}
	writeGroup("Events", m.Props.Events)
	writeGroup("Slots", m.Props.Slots)
	writeGroup("Variants", m.Props.Variants)
	writeGroup("Behaviors", m.Props.Behaviors)
	writeGroup("Other", m.Props.Other)
	return b.String()
}

func writeProp(b *strings.Builder, p manifest.ManifestProp) {
	fmt.Fprintf(b, "- %s: %s", p.Name, p.Type)
	if p.DefaultValue != nil {
		fmt.Fprintf(b, " (default: %v)", p.DefaultValue)
	}
	if p.Description != "" {
		fmt.Fprintf(b, " -- %s", p.Description)
	}
	b.WriteString("\n")
	if p.ValueDescriptions != nil {
		for value, desc := range p.ValueDescriptions.FromOldest() {
			fmt.Fprintf(b, "  %s: %s\n", value, desc)
		}
	}
}

func compositionChunk(m manifest.AIManifest) string {
	var b strings.Builder
	for _, sub := range m.SubComponents {
		if sub.RequiredInComposition {
			b.WriteString("REQUIRED ")
		}
		fmt.Fprintf(&b, "%s (data-slot=%s)", sub.Name, sub.DataSlot)
		if sub.Description != "" {
			fmt.Fprintf(&b, ": %s", sub.Description)
		}
		if sub.Props != nil {
			b.WriteString("\n  props: ")
			b.WriteString(propSummaryLine(sub.Props))
		}
		if sub.RadixPrimitive != nil {
			fmt.Fprintf(&b, "\n  radix: %s", sub.RadixPrimitive.Primitive)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func propSummaryLine(props *manifest.CategorizedProps) string {
	var names []string
	for _, group := range [][]manifest.ManifestProp{props.Events, props.Slots, props.Variants, props.Behaviors, props.Other} {
		for _, p := range group {
			names = append(names, p.Name)
		}
	}
	return strings.Join(names, ", ")
}

func examplesChunk(m manifest.AIManifest) string {
	if m.Examples == nil {
		return ""
	}
	var b strings.Builder
	if m.Examples.Minimal != nil {
		fmt.Fprintf(&b, "%s:\n%s\n", m.Examples.Minimal.Title, m.Examples.Minimal.Code)
	}
	for _, ex := range m.Examples.Common {
		fmt.Fprintf(&b, "%s:\n%s\n", ex.Title, ex.Code)
	}
	for _, ex := range m.Examples.Advanced {
		fmt.Fprintf(&b, "%s:\n%s\n", ex.Title, ex.Code)
	}
	return b.String()
}

func patternsChunk(m manifest.AIManifest) string {
	var b strings.Builder
	if m.BaseLibrary != nil {
		fmt.Fprintf(&b, "Base library: %s\n", m.BaseLibrary.Name)
	}
	if len(m.SubComponents) > 0 {
		names := make([]string, len(m.SubComponents))
		for i, s := range m.SubComponents {
			names[i] = s.Name
		}
		fmt.Fprintf(&b, "Sub-components: %s\n", strings.Join(names, ", "))
	}
	if m.Dependencies != nil && len(m.Dependencies.Internal) > 0 {
		fmt.Fprintf(&b, "Internal dependencies: %s\n", strings.Join(m.Dependencies.Internal, ", "))
	}
	if m.Guidance != nil {
		if len(m.Guidance.Patterns) > 0 {
			fmt.Fprintf(&b, "Patterns: %s\n", strings.Join(m.Guidance.Patterns, ", "))
		}
		if len(m.Guidance.RelatedComponents) > 0 {
			fmt.Fprintf(&b, "Related components: %s\n", strings.Join(m.Guidance.RelatedComponents, ", "))
		}
	}
	return b.String()
}

func guidanceChunk(m manifest.AIManifest) string {
	if m.Guidance == nil {
		return ""
	}
	var b strings.Builder
	if m.Guidance.WhenToUse != "" {
		fmt.Fprintf(&b, "When to use: %s\n", m.Guidance.WhenToUse)
	}
	if m.Guidance.WhenNotToUse != "" {
		fmt.Fprintf(&b, "When not to use: %s\n", m.Guidance.WhenNotToUse)
	}
	if m.Guidance.Accessibility != "" {
		fmt.Fprintf(&b, "Accessibility: %s\n", m.Guidance.Accessibility)
	}
	return b.String()
}
