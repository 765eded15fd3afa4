package extractor

import (
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

var excludedStoryNameRe = regexp.MustCompile(`^(All(Variants|Sizes|States|Modes)|Showcase|Overview|Kitchen ?Sink)$`)

var advancedPatternRe = regexp.MustCompile(`\b(useState|useReducer|useRef|useEffect|useCallback|useMemo|setTimeout|setInterval|Promise|await)\b`)

var minimalNameRe = regexp.MustCompile(`^(Default|Basic|Simple)$`)

// extractStories parses Storybook CSF source (spec §4.2 step 6).
// Returns nil if storiesCode is empty, matching "skipped if and only
// if stories is non-empty" on the generator side of the pipeline.
func extractStories(storiesCode string) []Story {
	if strings.TrimSpace(storiesCode) == "" {
		return nil
	}

	source := []byte(storiesCode)
	tree, err := parse(source)
	if err != nil {
		return nil
	}
	root := tree.RootNode()

	var stories []Story
	for _, decl := range nodesOfType(root, source, "export_statement") {
		for _, child := range namedChildren(decl) {
			if child.Type() != "lexical_declaration" {
				continue
			}
			for _, declarator := range namedChildren(child) {
				if declarator.Type() != "variable_declarator" {
					continue
				}
				nameNode := declarator.ChildByFieldName("name")
				if nameNode == nil {
					continue
				}
				name := text(nameNode, source)
				if name == "meta" {
					continue
				}
				value := unwrapSatisfiesAs(declarator.ChildByFieldName("value"))
				if value == nil || value.Type() != "object" {
					continue
				}
				if st, ok := storyFromObject(name, value, source); ok {
					stories = append(stories, st)
				}
			}
		}
	}

	return stories
}

// unwrapSatisfiesAs strips `expr satisfies T` / `expr as T` wrappers
// that Storybook's typed meta/story objects commonly use.
func unwrapSatisfiesAs(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "satisfies_expression", "as_expression":
			inner := n.ChildByFieldName("expression")
			if inner == nil {
				if children := namedChildren(n); len(children) > 0 {
					inner = children[0]
				}
			}
			n = inner
			continue
		case "parenthesized_expression":
			children := namedChildren(n)
			if len(children) == 1 {
				n = children[0]
				continue
			}
		}
		return n
	}
	return nil
}

func storyFromObject(name string, obj *sitter.Node, source []byte) (Story, bool) {
	if excludedStoryNameRe.MatchString(name) {
		return Story{}, false
	}

	var argsNode, renderNode, parametersNode *sitter.Node
	for _, pair := range namedChildren(obj) {
		if pair.Type() != "pair" {
			continue
		}
		switch propertyKeyText(pair, source) {
		case "args":
			argsNode = pair.ChildByFieldName("value")
		case "render":
			renderNode = pair.ChildByFieldName("value")
		case "parameters":
			parametersNode = pair.ChildByFieldName("value")
		}
	}

	if parametersNode != nil && chromaticSnapshotDisabled(parametersNode, source) {
		return Story{}, false
	}

	var code string
	if renderNode != nil {
		code = text(renderNode, source)
	} else {
		code = synthesizeStoryCode(name, argsNode, source)
	}

	return Story{
		Title:      name,
		Code:       code,
		Complexity: classifyComplexity(name, renderNode, code, source),
	}, true
}

func chromaticSnapshotDisabled(parameters *sitter.Node, source []byte) bool {
	raw := text(parameters, source)
	return strings.Contains(raw, "chromatic") && strings.Contains(raw, "disableSnapshot") && strings.Contains(raw, "true")
}

func classifyComplexity(name string, renderNode *sitter.Node, code string, source []byte) Complexity {
	if minimalNameRe.MatchString(name) {
		return ComplexityMinimal
	}
	if renderNode != nil && advancedPatternRe.MatchString(text(renderNode, source)) {
		return ComplexityAdvanced
	}
	return ComplexityCommon
}

// synthesizeStoryCode builds JSX-shaped source from a story's `args`
// object when no `render` function is present.
func synthesizeStoryCode(componentName string, argsNode *sitter.Node, source []byte) string {
	if argsNode == nil || argsNode.Type() != "object" {
		return fmt.Sprintf("<%s />", componentName)
	}

	var attrs []string
	var childrenExpr string

	for _, pair := range namedChildren(argsNode) {
		if pair.Type() != "pair" {
			continue
		}
		key := propertyKeyText(pair, source)
		value := pair.ChildByFieldName("value")
		if value == nil {
			continue
		}

		if key == "children" {
			childrenExpr = renderChildExpr(value, source)
			continue
		}

		if value.Type() == "function" || value.Type() == "arrow_function" {
			continue
		}

		switch value.Type() {
		case "string", "template_string":
			attrs = append(attrs, fmt.Sprintf(`%s="%s"`, key, stripQuotes(text(value, source))))
		case "true":
			attrs = append(attrs, key)
		case "false":
			attrs = append(attrs, fmt.Sprintf("%s={false}", key))
		case "number":
			attrs = append(attrs, fmt.Sprintf("%s={%s}", key, text(value, source)))
		default:
			attrs = append(attrs, fmt.Sprintf("%s={%s}", key, text(value, source)))
		}
	}

	open := componentName
	if len(attrs) > 0 {
		open += " " + strings.Join(attrs, " ")
	}

	if childrenExpr != "" {
		return fmt.Sprintf("<%s>%s</%s>", open, childrenExpr, componentName)
	}
	return fmt.Sprintf("<%s />", open)
}

func renderChildExpr(value *sitter.Node, source []byte) string {
	switch value.Type() {
	case "string", "template_string":
		return stripQuotes(text(value, source))
	default:
		return text(value, source)
	}
}
