package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

var hocPatterns = []string{
	"withRouter(", "connect(", "withStyles(", "withTheme(", "memo(forwardRef", "forwardRef(memo",
}

var styledComponentPatternRe = regexp.MustCompile("styled\\.\\w+|styled\\(|css`")

// Extract turns component source into ExtractedData and a diagnostic
// describing which strategy produced the result (spec §4.2). It never
// throws to its caller: a parse failure yields an empty payload and a
// fallback diagnostic rather than propagating the parser error.
func Extract(in Input) Result {
	source := []byte(in.SourceCode)

	tree, err := parse(source)
	if err != nil {
		return Result{
			Data: ExtractedData{},
			Diagnostic: Diagnostic{
				Method:           MethodFallback,
				FallbackTriggered: true,
				FallbackReason:   ReasonNoPrimaryResult,
				DiagnosticTrace:  []string{"parse error: " + err.Error()},
			},
		}
	}
	root := tree.RootNode()

	var trace []string

	primaryProps, primaryFound := primaryExtract(root, source, in)
	trace = append(trace, traceLine("primary", primaryFound, len(primaryProps)))

	triggered, reason := decideFallback(in.SourceCode, primaryFound, primaryProps)

	var props []Prop
	method := MethodPrimary
	if triggered {
		props = fallbackExtract(root, source, in)
		method = MethodFallback
		trace = append(trace, traceLine("fallback:"+string(reason), true, len(props)))
	} else {
		props = primaryProps
	}

	variantRes := extractVariants(root, source)
	variantRes = linkVariantsToComponent(root, source, in.Name, variantRes)

	depRes := extractDependencies(root, source, in)

	stories := extractStories(in.StoriesCode)

	acceptsChildren := false
	for _, p := range props {
		if p.IsChildren {
			acceptsChildren = true
			break
		}
	}

	data := ExtractedData{
		Props:                props,
		Variants:             nonEmptyVariants(variantRes.variants),
		DefaultVariants:      nonEmptyDefaults(variantRes.defaultVariants),
		NpmDependencies:      depRes.npm,
		InternalDependencies: depRes.internal,
		AcceptsChildren:      acceptsChildren,
		BaseLibrary:          depRes.baseLibrary,
		Files:                filesFor(in),
		Stories:              stories,
	}

	if depRes.radixNamespaceVar != "" {
		if prim := resolveRadixPrimitive(root, source, depRes.radixNamespaceVar, depRes.radixPackage, in.Name); prim != nil {
			data.RadixPrimitive = prim
		}
	}

	if compound := detectCompound(root, source, in.Name); compound != nil {
		data.CompoundInfo = compound
		for _, subName := range compound.SubComponents {
			subInput := in
			subInput.Name = subName
			subProps := fallbackExtract(root, source, subInput)

			sub := SubComponent{
				Name:                  subName,
				Props:                 subProps,
				RequiredInComposition: subComponentRequiredInComposition(root, source, compound.RootComponent, subName),
			}
			if v, ok := findSubComponentVariants(root, source, subName); ok {
				sub.Variants = nonEmptyVariants(v.variants)
				sub.DefaultVariants = nonEmptyDefaults(v.defaultVariants)
			}
			if depRes.radixNamespaceVar != "" {
				sub.RadixPrimitive = resolveRadixPrimitive(root, source, depRes.radixNamespaceVar, depRes.radixPackage, subName)
			}
			data.SubComponents = append(data.SubComponents, sub)
		}
	}

	return Result{
		Data: data,
		Diagnostic: Diagnostic{
			Method:            method,
			FallbackTriggered: triggered,
			FallbackReason:    reason,
			DiagnosticTrace:   trace,
		},
	}
}

// decideFallback implements spec §4.2 step 2's five explicit,
// rule-based triggers, checked in the order the spec lists them.
func decideFallback(source string, primaryFound bool, primaryProps []Prop) (bool, FallbackReason) {
	if !primaryFound {
		return true, ReasonNoPrimaryResult
	}
	if len(primaryProps) == 0 {
		return true, ReasonZeroProps
	}

	hasForwardRef := strings.Contains(source, "forwardRef")
	hasRefProp := false
	for _, p := range primaryProps {
		if p.Name == "ref" {
			hasRefProp = true
			break
		}
	}
	if hasForwardRef && !hasRefProp && len(primaryProps) < 2 {
		return true, ReasonForwardRefNoProps
	}

	for _, pat := range hocPatterns {
		if strings.Contains(source, pat) {
			if len(primaryProps) < 3 {
				return true, ReasonHOCPattern
			}
			break
		}
	}

	if styledComponentPatternRe.MatchString(source) && len(primaryProps) < 2 {
		return true, ReasonStyledComponents
	}

	return false, ""
}

func traceLine(stage string, found bool, count int) string {
	if !found {
		return stage + ": no result"
	}
	return stage + ": " + strconv.Itoa(count) + " props"
}

func nonEmptyVariants(m map[string][]string) map[string][]string {
	if len(m) == 0 {
		return nil
	}
	return m
}

func nonEmptyDefaults(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return m
}

func filesFor(in Input) []string {
	if in.FilePath == "" {
		return nil
	}
	return []string{in.FilePath}
}
