package manifest

import (
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/extractor"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/generator"
)

// buildExamples implements spec §4.4 step 2: prefer extracted stories
// over generated examples, since stories are real code rather than
// model-invented usage.
func buildExamples(stories []extractor.Story, generated *generator.Examples) *Examples {
	if len(stories) > 0 {
		return examplesFromStories(stories)
	}
	if generated != nil {
		return &Examples{
			Minimal:  generated.Minimal,
			Common:   capExamples(generated.Common, 8),
			Advanced: capExamples(generated.Advanced, 3),
		}
	}
	return nil
}

func examplesFromStories(stories []extractor.Story) *Examples {
	out := &Examples{}

	minimalIdx := -1
	for i := range stories {
		if stories[i].Complexity == extractor.ComplexityMinimal {
			minimalIdx = i
			break
		}
	}
	if minimalIdx == -1 {
		minimalIdx = 0 // "or first story" (spec §4.4 step 2)
	}
	minimal := stories[minimalIdx]
	out.Minimal = &generator.Example{Title: minimal.Title, Code: minimal.Code}

	for i, s := range stories {
		if i == minimalIdx {
			continue
		}
		switch s.Complexity {
		case extractor.ComplexityCommon:
			if len(out.Common) < 8 {
				out.Common = append(out.Common, generator.Example{Title: s.Title, Code: s.Code})
			}
		case extractor.ComplexityAdvanced:
			if len(out.Advanced) < 3 {
				out.Advanced = append(out.Advanced, generator.Example{Title: s.Title, Code: s.Code})
			}
		}
	}

	return out
}

func capExamples(in []generator.Example, max int) []generator.Example {
	if len(in) <= max {
		return in
	}
	return in[:max]
}
