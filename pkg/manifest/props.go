package manifest

import (
	"regexp"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/extractor"
)

// eventNameRe matches handler-shaped prop names (onClick, onOpenChange, …).
var eventNameRe = regexp.MustCompile(`^on[A-Z]`)

// slotNameRe matches composition-slot prop names by convention: a
// leading/trailing icon/adornment position, or a "render"-prefixed
// render-prop. Grounded in the shadcn/Radix-style component corpus the
// extractor itself targets (icon, leftIcon, startAdornment, renderItem…).
var slotNameRe = regexp.MustCompile(`(?i)^(icon|avatar|thumbnail|trigger|header|footer|prefix|suffix|leading|trailing|start|end)[a-zA-Z]*$|^render[A-Z]|[a-z](Icon|Adornment|Slot)$`)

// slotTypeRe matches prop types that can only be composition slots:
// React's node/element types.
var slotTypeRe = regexp.MustCompile(`ReactNode|ReactElement|JSX\.Element`)

// behaviorTypeRe matches the boolean-ish type spellings extracted
// props carry (the fallback extractor emits "boolean" directly; the
// primary extractor may retain the original union like "boolean |
// undefined").
var behaviorTypeRe = regexp.MustCompile(`^boolean\b`)

func isEventProp(p extractor.Prop) bool {
	return eventNameRe.MatchString(p.Name)
}

func isSlotProp(p extractor.Prop) bool {
	if p.IsChildren {
		return false // children gets its own top-level flag, not a slot entry
	}
	return slotNameRe.MatchString(p.Name) || slotTypeRe.MatchString(p.Type)
}

func isVariantProp(p extractor.Prop, variants map[string][]string) bool {
	_, ok := variants[p.Name]
	return ok
}

func isBehaviorProp(p extractor.Prop) bool {
	return behaviorTypeRe.MatchString(strings.TrimSpace(p.Type))
}

// categorize buckets props using the closed predicate precedence
// events > slots > variants > behaviors > other (spec §4.4 step 1.i).
func categorize(props []extractor.Prop, variants map[string][]string) CategorizedProps {
	var out CategorizedProps
	for _, p := range props {
		if p.IsChildren {
			continue // surfaced via AIManifest.Children, not a prop entry
		}
		mp := toManifestProp(p)
		switch {
		case isEventProp(p):
			out.Events = append(out.Events, mp)
		case isSlotProp(p):
			out.Slots = append(out.Slots, mp)
		case isVariantProp(p, variants):
			out.Variants = append(out.Variants, mp)
		case isBehaviorProp(p):
			out.Behaviors = append(out.Behaviors, mp)
		default:
			out.Other = append(out.Other, mp)
		}
	}
	return out
}

func toManifestProp(p extractor.Prop) ManifestProp {
	return ManifestProp{
		Name:         p.Name,
		Type:         p.Type,
		Required:     p.Required,
		DefaultValue: p.DefaultValue,
		Values:       p.Values,
		Description:  p.Description,
	}
}

// normalizeVariants ensures every variant axis discovered by the
// extractor (spec §4.2 step 4) has a corresponding entry in the
// variants group, merging default values and synthesizing an entry
// when the axis was never reflected as a declared prop (spec §4.4
// step 1.ii).
func normalizeVariants(props *CategorizedProps, variants map[string][]string, defaultVariants map[string]string) {
	existing := make(map[string]int, len(props.Variants))
	for i, v := range props.Variants {
		existing[v.Name] = i
	}

	for name, values := range variants {
		valueList := sortedCopy(values)
		if idx, ok := existing[name]; ok {
			mp := &props.Variants[idx]
			mp.Type = "string"
			mp.Values = valueList
			mp.Required = false
			if dv, ok := defaultVariants[name]; ok {
				mp.DefaultValue = dv
			}
			continue
		}
		mp := ManifestProp{
			Name:     name,
			Type:     "string",
			Values:   valueList,
			Required: false,
		}
		if dv, ok := defaultVariants[name]; ok {
			mp.DefaultValue = dv
		}
		props.Variants = append(props.Variants, mp)
	}
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// enrichValueDescriptions attaches per-value descriptions from the
// generator's variantDescriptions map onto the matching variant prop
// (spec §4.4 step 1.iii).
func enrichValueDescriptions(props *CategorizedProps, variantDescriptions map[string]*orderedmap.OrderedMap[string, string]) {
	if len(variantDescriptions) == 0 {
		return
	}
	for i := range props.Variants {
		if vd, ok := variantDescriptions[props.Variants[i].Name]; ok {
			props.Variants[i].ValueDescriptions = vd
		}
	}
}

// runPropPipeline executes the full three-step pipeline (spec §4.4
// step 1) shared by the root component and every sub-component.
func runPropPipeline(props []extractor.Prop, variants map[string][]string, defaultVariants map[string]string, variantDescriptions map[string]*orderedmap.OrderedMap[string, string]) CategorizedProps {
	out := categorize(props, variants)
	normalizeVariants(&out, variants, defaultVariants)
	enrichValueDescriptions(&out, variantDescriptions)
	return out
}
