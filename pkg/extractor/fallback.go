package extractor

import (
	"regexp"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// fallbackExtract implements spec §4.2 step 3: a syntactic walk that
// never needs a type checker. It looks, in order, for an interface
// `{Name}Props`, a type alias `{Name}Props` (intersections contribute
// only their literal object members), and finally the component's
// first parameter.
func fallbackExtract(root *sitter.Node, source []byte, in Input) []Prop {
	propsTypeName := in.Name + "Props"

	if iface := findNamedNode(root, source, "interface_declaration", propsTypeName); iface != nil {
		if body := iface.ChildByFieldName("body"); body != nil {
			return propsFromObjectMembers(body, source)
		}
	}

	if alias := findNamedNode(root, source, "type_alias_declaration", propsTypeName); alias != nil {
		if value := alias.ChildByFieldName("value"); value != nil {
			return propsFromTypeValue(value, source)
		}
	}

	return propsFromFirstParameter(root, source, in.Name)
}

// findNamedNode finds the first node of the given grammar type whose
// "name" field equals name.
func findNamedNode(root *sitter.Node, source []byte, nodeType, name string) *sitter.Node {
	for _, n := range nodesOfType(root, source, nodeType) {
		nameField := n.ChildByFieldName("name")
		if nameField != nil && text(nameField, source) == name {
			return n
		}
	}
	return nil
}

// propsFromTypeValue handles both a plain object type and an
// intersection type, in which case only literal object members are
// adopted (inherited/extended types are ignored per spec).
func propsFromTypeValue(value *sitter.Node, source []byte) []Prop {
	var props []Prop
	switch value.Type() {
	case "object_type":
		props = append(props, propsFromObjectMembers(value, source)...)
	case "intersection_type":
		for _, child := range namedChildren(value) {
			if child.Type() == "object_type" {
				props = append(props, propsFromObjectMembers(child, source)...)
			}
		}
	}
	return props
}

// propsFromObjectMembers walks an interface body / object type's
// property_signature members.
func propsFromObjectMembers(body *sitter.Node, source []byte) []Prop {
	var props []Prop
	for _, member := range namedChildren(body) {
		if member.Type() != "property_signature" {
			continue
		}
		props = append(props, propFromSignature(member, source))
	}
	return props
}

func propFromSignature(sig *sitter.Node, source []byte) Prop {
	nameNode := sig.ChildByFieldName("name")
	name := stripQuotes(text(nameNode, source))

	optional := strings.Contains(text(sig, source), "?:") || hasOptionalMarker(sig, source)

	var typeNode *sitter.Node
	if tn := sig.ChildByFieldName("type"); tn != nil {
		typeNode = tn
	}

	p := Prop{
		Name:       name,
		Required:   !optional,
		IsChildren: name == "children",
	}

	if typeNode != nil {
		p.Type = simplifyType(text(typeNode, source))
		p.Values = unionLiteralValues(text(typeNode, source))
	} else {
		p.Type = "any"
	}

	p.Description = leadingJSDoc(sig, source)

	return p
}

func hasOptionalMarker(sig *sitter.Node, source []byte) bool {
	for i := 0; i < int(sig.ChildCount()); i++ {
		c := sig.Child(i)
		if c != nil && text(c, source) == "?" {
			return true
		}
	}
	return false
}

// simplifyType reduces a TS type annotation to one of a small set of
// labels; anything that doesn't match a primitive/shape keeps its raw
// text (spec: "type simplified").
func simplifyType(raw string) string {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, ":"))
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "string":
		return "string"
	case raw == "number":
		return "number"
	case raw == "boolean":
		return "boolean"
	case strings.HasPrefix(raw, "() =>") || strings.Contains(raw, "=>"):
		return "function"
	case strings.HasSuffix(raw, "[]") || strings.HasPrefix(raw, "Array<"):
		return "array"
	case raw == "React.ReactNode" || raw == "ReactNode":
		return "node"
	case strings.Contains(raw, "\"") || strings.Contains(raw, "'"):
		return "string"
	default:
		return raw
	}
}

var stringLiteralRe = regexp.MustCompile(`"[^"]*"|'[^']*'`)

// unionLiteralValues extracts the literal members of a string-literal
// union type (e.g. `"sm" | "md" | "lg"`); returns nil for anything else.
func unionLiteralValues(raw string) []string {
	if !strings.Contains(raw, "|") {
		return nil
	}
	matches := stringLiteralRe.FindAllString(raw, -1)
	if len(matches) == 0 {
		return nil
	}
	values := make([]string, 0, len(matches))
	for _, m := range matches {
		values = append(values, stripQuotes(m))
	}
	return values
}

// leadingJSDoc returns the text of the nearest preceding `/** ... */`
// comment sibling, stripped of comment markers, or "" if none.
func leadingJSDoc(n *sitter.Node, source []byte) string {
	prev := n.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	raw := text(prev, source)
	if !strings.HasPrefix(raw, "/**") {
		return ""
	}
	raw = strings.TrimPrefix(raw, "/**")
	raw = strings.TrimSuffix(raw, "*/")
	lines := strings.Split(raw, "\n")
	var out []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "*")
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, " ")
}

// propsFromFirstParameter is the last-resort fallback: the component's
// first parameter, whether a plain identifier with an inline object
// type, a destructuring pattern, or the props argument of
// forwardRef((props, ref) => ...).
func propsFromFirstParameter(root *sitter.Node, source []byte, componentName string) []Prop {
	param := findComponentFirstParam(root, source, componentName)
	if param == nil {
		return nil
	}

	switch param.Type() {
	case "required_parameter", "optional_parameter":
		return propsFromParameterNode(param, source)
	case "object_pattern":
		return propsFromObjectPattern(param, source, nil)
	}
	return nil
}

// findComponentFirstParam locates componentName's declaration --
// function declaration, arrow assigned to a const, or forwardRef(...)
// wrapping an arrow -- and returns its first parameter node.
func findComponentFirstParam(root *sitter.Node, source []byte, componentName string) *sitter.Node {
	for _, fn := range nodesOfType(root, source, "function_declaration") {
		nameNode := fn.ChildByFieldName("name")
		if nameNode != nil && text(nameNode, source) == componentName {
			if params := fn.ChildByFieldName("parameters"); params != nil {
				return firstNamedChild(params)
			}
		}
	}

	for _, decl := range nodesOfType(root, source, "variable_declarator") {
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil || text(nameNode, source) != componentName {
			continue
		}
		value := decl.ChildByFieldName("value")
		if value == nil {
			continue
		}
		if arrow := findArrowOrForwardRefArrow(value, source); arrow != nil {
			if params := arrow.ChildByFieldName("parameters"); params != nil {
				return firstNamedChild(params)
			}
			if p := arrow.ChildByFieldName("parameter"); p != nil {
				return p
			}
		}
	}
	return nil
}

// findArrowOrForwardRefArrow unwraps `forwardRef((props, ref) => ...)`
// and `memo(forwardRef(...))` down to the innermost arrow function.
func findArrowOrForwardRefArrow(n *sitter.Node, source []byte) *sitter.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "arrow_function", "function_expression":
		return n
	case "call_expression":
		args := n.ChildByFieldName("arguments")
		if args == nil {
			return nil
		}
		for _, child := range namedChildren(args) {
			if r := findArrowOrForwardRefArrow(child, source); r != nil {
				return r
			}
		}
	}
	return nil
}

func firstNamedChild(n *sitter.Node) *sitter.Node {
	children := namedChildren(n)
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// propsFromParameterNode handles `(props: SomeInlineType)` and
// `({ a, b = 1 }: Props)` shaped single parameters.
func propsFromParameterNode(param *sitter.Node, source []byte) []Prop {
	pattern := param.ChildByFieldName("pattern")
	typeNode := param.ChildByFieldName("type")

	if pattern != nil && pattern.Type() == "object_pattern" {
		return propsFromObjectPattern(pattern, source, typeNode)
	}

	if typeNode != nil {
		inline := typeNode
		if inline.Type() == "object_type" {
			return propsFromObjectMembers(inline, source)
		}
	}
	return nil
}

// propsFromObjectPattern reads a destructuring parameter's members,
// pulling defaults from `= value` shorthand assignment patterns and
// cross-referencing an optional sibling type annotation for per-field
// types.
func propsFromObjectPattern(pattern *sitter.Node, source []byte, typeHint *sitter.Node) []Prop {
	typeMembers := map[string]*sitter.Node{}
	if typeHint != nil && typeHint.Type() == "object_type" {
		for _, m := range namedChildren(typeHint) {
			if m.Type() == "property_signature" {
				if nameNode := m.ChildByFieldName("name"); nameNode != nil {
					typeMembers[text(nameNode, source)] = m
				}
			}
		}
	}

	var props []Prop
	for _, member := range namedChildren(pattern) {
		var name string
		var defaultNode *sitter.Node

		switch member.Type() {
		case "shorthand_property_identifier_pattern":
			name = text(member, source)
		case "assignment_pattern", "object_assignment_pattern":
			left := member.ChildByFieldName("left")
			name = text(left, source)
			defaultNode = member.ChildByFieldName("right")
		case "pair_pattern":
			key := member.ChildByFieldName("key")
			name = stripQuotes(text(key, source))
		default:
			continue
		}
		if name == "" {
			continue
		}

		p := Prop{Name: name, IsChildren: name == "children", Required: true}
		if sig, ok := typeMembers[name]; ok {
			p = propFromSignature(sig, source)
		} else {
			p.Type = "any"
		}

		if defaultNode != nil {
			p.Required = false
			p.DefaultValue = parseDefaultLiteral(text(defaultNode, source))
		}

		props = append(props, p)
	}
	return props
}

// parseDefaultLiteral parses strings, numbers, booleans, null and
// undefined; anything else (object/array/expression) is kept as raw
// text per spec.
func parseDefaultLiteral(raw string) any {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "null":
		return nil
	case "undefined":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'' || raw[0] == '`') {
		return stripQuotes(raw)
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}
