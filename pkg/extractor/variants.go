package extractor

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// variantCallees are the style-variant builder functions this pass
// recognizes. Both libraries produce the same `variants` /
// `defaultVariants` shape, so one walker serves both (spec §4.2 step 4).
var variantCallees = map[string]bool{"cva": true, "tv": true}

var unionTypeRe = regexp.MustCompile(`type\s+(\w+)\s*=\s*((?:"[^"]*"|'[^']*')(?:\s*\|\s*(?:"[^"]*"|'[^']*'))*)\s*;?`)

// variantResult is the intermediate shape a single variant builder (or
// a merge of several) produces.
type variantResult struct {
	variants        map[string][]string
	defaultVariants map[string]string
}

func newVariantResult() variantResult {
	return variantResult{variants: map[string][]string{}, defaultVariants: map[string]string{}}
}

// extractVariants locates every variable initialized by a cva()/tv()
// call and returns them keyed by variable name (spec §4.2 step 4,
// first half: "store keyed by the variable name").
func extractVariants(root *sitter.Node, source []byte) map[string]variantResult {
	builders := map[string]variantResult{}

	for _, decl := range nodesOfType(root, source, "variable_declarator") {
		nameNode := decl.ChildByFieldName("name")
		value := decl.ChildByFieldName("value")
		if nameNode == nil || value == nil || value.Type() != "call_expression" {
			continue
		}
		fn := value.ChildByFieldName("function")
		if fn == nil || !variantCallees[text(fn, source)] {
			continue
		}
		args := value.ChildByFieldName("arguments")
		if args == nil {
			continue
		}
		res := newVariantResult()
		for _, child := range namedChildren(args) {
			if child.Type() == "object" {
				parseVariantConfigObject(child, source, &res)
			}
		}
		if len(res.variants) > 0 {
			builders[text(nameNode, source)] = res
		}
	}

	return builders
}

// linkVariantsToComponent implements the second half of step 4:
// discover which builders a component's body references by searching
// all call expressions inside its function/arrow/forwardRef body, and
// merge their variants and defaults. Falls back to the
// `{camel(componentName)}Variants` naming convention when no usage
// link is found, and finally to union-typed aliases when even that
// misses.
func linkVariantsToComponent(root *sitter.Node, source []byte, componentName string, builders map[string]variantResult) variantResult {
	merged := newVariantResult()

	if body := componentBody(root, source, componentName); body != nil {
		referenced := referencedBuilderNames(body, source, builders)
		if len(referenced) > 0 {
			for _, name := range referenced {
				mergeVariantResult(&merged, builders[name])
			}
			return merged
		}
	}

	conventionName := lowerFirst(componentName) + "Variants"
	if b, ok := builders[conventionName]; ok {
		mergeVariantResult(&merged, b)
		return merged
	}

	fallbackVariantsFromUnionTypes(source, &merged)
	return merged
}

// findSubComponentVariants applies the same linking rule to a
// sub-component name (spec §4.2 step 9: "match variants by name/usage").
func findSubComponentVariants(root *sitter.Node, source []byte, subName string) (variantResult, bool) {
	builders := extractVariants(root, source)
	res := linkVariantsToComponent(root, source, subName, builders)
	if len(res.variants) == 0 {
		return res, false
	}
	return res, true
}

func mergeVariantResult(dst *variantResult, src variantResult) {
	for k, v := range src.variants {
		dst.variants[k] = append(dst.variants[k], v...)
	}
	for k, v := range src.defaultVariants {
		dst.defaultVariants[k] = v
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// componentBody finds componentName's function/arrow/forwardRef body.
func componentBody(root *sitter.Node, source []byte, componentName string) *sitter.Node {
	for _, fn := range nodesOfType(root, source, "function_declaration") {
		nameNode := fn.ChildByFieldName("name")
		if nameNode != nil && text(nameNode, source) == componentName {
			return fn.ChildByFieldName("body")
		}
	}
	for _, decl := range nodesOfType(root, source, "variable_declarator") {
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil || text(nameNode, source) != componentName {
			continue
		}
		value := decl.ChildByFieldName("value")
		if arrow := findArrowOrForwardRefArrow(value, source); arrow != nil {
			return arrow.ChildByFieldName("body")
		}
	}
	return nil
}

// referencedBuilderNames searches every call expression within body
// for a callee matching one of the known builder variable names.
func referencedBuilderNames(body *sitter.Node, source []byte, builders map[string]variantResult) []string {
	var names []string
	seen := map[string]bool{}
	walk(body, func(n *sitter.Node) bool {
		if n.Type() != "call_expression" && n.Type() != "identifier" {
			return true
		}
		callee := n
		if n.Type() == "call_expression" {
			callee = n.ChildByFieldName("function")
		}
		if callee == nil {
			return true
		}
		name := text(callee, source)
		if _, ok := builders[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		return true
	})
	return names
}

func parseVariantConfigObject(obj *sitter.Node, source []byte, res *variantResult) {
	for _, pair := range namedChildren(obj) {
		if pair.Type() != "pair" {
			continue
		}
		key := propertyKeyText(pair, source)
		value := pair.ChildByFieldName("value")
		if value == nil {
			continue
		}

		switch key {
		case "variants":
			if value.Type() != "object" {
				continue
			}
			for _, variantPair := range namedChildren(value) {
				if variantPair.Type() != "pair" {
					continue
				}
				variantName := propertyKeyText(variantPair, source)
				optionsNode := variantPair.ChildByFieldName("value")
				if optionsNode == nil || optionsNode.Type() != "object" {
					continue
				}
				for _, opt := range namedChildren(optionsNode) {
					if opt.Type() != "pair" {
						continue
					}
					res.variants[variantName] = append(res.variants[variantName], propertyKeyText(opt, source))
				}
			}
		case "defaultVariants":
			if value.Type() != "object" {
				continue
			}
			for _, dv := range namedChildren(value) {
				if dv.Type() != "pair" {
					continue
				}
				dvValue := dv.ChildByFieldName("value")
				res.defaultVariants[propertyKeyText(dv, source)] = stripQuotes(text(dvValue, source))
			}
		}
	}
}

// propertyKeyText reads a pair node's key, stripping quotes/brackets so
// both `variant: {...}` and `"variant": {...}` normalize the same way.
func propertyKeyText(pair *sitter.Node, source []byte) string {
	key := pair.ChildByFieldName("key")
	if key == nil {
		return ""
	}
	return stripQuotes(text(key, source))
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// knownVariantNames are prop identifiers the naming-convention fallback
// treats as variant axes when no cva/tv builder is present.
var knownVariantNames = map[string]bool{
	"variant": true, "size": true, "color": true, "orientation": true, "tone": true,
}

// fallbackVariantsFromUnionTypes scans standalone `type Foo = "a" | "b"`
// aliases for names matching the variant convention (the alias name,
// lowercased and with a trailing "Variant"/"Size" stripped, must be a
// known axis). This is the best a syntax-only pass can do without a
// type checker to connect the alias back to a prop.
func fallbackVariantsFromUnionTypes(source []byte, res *variantResult) {
	for _, m := range unionTypeRe.FindAllStringSubmatch(string(source), -1) {
		aliasName := m[1]
		axis := variantAxisFromAliasName(aliasName)
		if axis == "" {
			continue
		}
		var values []string
		for _, lit := range regexp.MustCompile(`"[^"]*"|'[^']*'`).FindAllString(m[2], -1) {
			values = append(values, stripQuotes(lit))
		}
		if len(values) > 0 {
			res.variants[axis] = values
		}
	}
}

func variantAxisFromAliasName(name string) string {
	lower := strings.ToLower(name)
	for _, suffix := range []string{"variant", "size", "color", "orientation", "tone"} {
		if strings.HasSuffix(lower, suffix) {
			if knownVariantNames[suffix] {
				return suffix
			}
		}
	}
	if knownVariantNames[lower] {
		return lower
	}
	return ""
}
