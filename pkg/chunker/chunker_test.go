package chunker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/chunker"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/generator"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/manifest"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage"
)

func TestBuild_EmitsOnlyNonEmptySections(t *testing.T) {
	m := manifest.AIManifest{
		Name:            "Spacer",
		Slug:            "spacer-react-aaaaaaaa",
		ImportStatement: manifest.ImportStatement{Primary: "import { Spacer } from '@acme/ui'"},
	}

	chunks := chunker.Build(m)

	var types []storage.ChunkType
	for _, c := range chunks {
		types = append(types, c.Type)
	}
	assert.Contains(t, types, storage.ChunkDescription)
	assert.Contains(t, types, storage.ChunkImport)
	assert.NotContains(t, types, storage.ChunkComposition)
	assert.NotContains(t, types, storage.ChunkProps)
	assert.NotContains(t, types, storage.ChunkGuidance)
}

func TestBuild_CompositionOnlyWhenSubComponentsPresent(t *testing.T) {
	m := manifest.AIManifest{
		Name:            "Dialog",
		ImportStatement: manifest.ImportStatement{Primary: "import { Dialog } from '@acme/ui'"},
		SubComponents: []manifest.SubComponent{
			{Name: "DialogTrigger", DataSlot: "dialog-trigger", RequiredInComposition: true},
		},
	}

	chunks := chunker.Build(m)

	var composition *chunker.Chunk
	for i := range chunks {
		if chunks[i].Type == storage.ChunkComposition {
			composition = &chunks[i]
		}
	}
	require.NotNil(t, composition)
	assert.Contains(t, composition.Content, "REQUIRED")
	assert.Contains(t, composition.Content, "data-slot=dialog-trigger")
}

func TestBuild_TruncatesLongContent(t *testing.T) {
	m := manifest.AIManifest{
		Name:            "Button",
		Description:     strings.Repeat("a", 5000),
		ImportStatement: manifest.ImportStatement{Primary: "import { Button } from '@acme/ui'"},
	}

	chunks := chunker.Build(m)

	var description *chunker.Chunk
	for i := range chunks {
		if chunks[i].Type == storage.ChunkDescription {
			description = &chunks[i]
		}
	}
	require.NotNil(t, description)
	assert.LessOrEqual(t, len(description.Content), 4000)
	assert.True(t, strings.HasSuffix(description.Content, "..."))
}

func TestBuild_ExamplesChunkOrdersMinimalCommonAdvanced(t *testing.T) {
	m := manifest.AIManifest{
		Name:            "Button",
		ImportStatement: manifest.ImportStatement{Primary: "import { Button } from '@acme/ui'"},
		Examples: &manifest.Examples{
			Minimal: &generator.Example{Title: "Default", Code: "<Button />"},
			Common:  []generator.Example{{Title: "WithIcon", Code: "<Button icon />"}},
		},
	}

	chunks := chunker.Build(m)

	var examples *chunker.Chunk
	for i := range chunks {
		if chunks[i].Type == storage.ChunkExamples {
			examples = &chunks[i]
		}
	}
	require.NotNil(t, examples)
	assert.True(t, strings.Index(examples.Content, "Default") < strings.Index(examples.Content, "WithIcon"))
}

func TestBuild_GuidanceChunk(t *testing.T) {
	m := manifest.AIManifest{
		Name:            "Button",
		ImportStatement: manifest.ImportStatement{Primary: "import { Button } from '@acme/ui'"},
		Guidance: &manifest.Guidance{
			WhenToUse:    "For primary actions.",
			Accessibility: "Supports keyboard activation.",
		},
	}

	chunks := chunker.Build(m)

	var guidance *chunker.Chunk
	for i := range chunks {
		if chunks[i].Type == storage.ChunkGuidance {
			guidance = &chunks[i]
		}
	}
	require.NotNil(t, guidance)
	assert.Contains(t, guidance.Content, "For primary actions.")
	assert.Contains(t, guidance.Content, "Supports keyboard activation.")
}
