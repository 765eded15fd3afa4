package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// radixDocsURL builds the primitive's documentation link per spec
// §4.2 step 7.
func radixDocsURL(radixPackage, member string) string {
	y := strings.TrimPrefix(radixPackage, "@radix-ui/react-")
	return "https://www.radix-ui.com/primitives/docs/components/" + y + "#" + strings.ToLower(member)
}

// resolveRadixPrimitive looks for one of the three ways a named
// export can wrap a Radix namespace member: a direct re-export
// (`const N = X.Member`), a forwardRef whose body renders `<X.Member>`,
// or a plain function/arrow component doing the same.
func resolveRadixPrimitive(root *sitter.Node, source []byte, namespaceVar, radixPackage, subName string) *RadixPrimitive {
	if namespaceVar == "" {
		return nil
	}

	for _, decl := range nodesOfType(root, source, "variable_declarator") {
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil || text(nameNode, source) != subName {
			continue
		}
		value := decl.ChildByFieldName("value")
		if value == nil {
			continue
		}

		if member := directNamespaceMember(value, source, namespaceVar); member != "" {
			return &RadixPrimitive{Primitive: member, DocsURL: radixDocsURL(radixPackage, member)}
		}

		if arrow := findArrowOrForwardRefArrow(value, source); arrow != nil {
			if member := namespaceMemberInJSXReturn(arrow, source, namespaceVar); member != "" {
				return &RadixPrimitive{Primitive: member, DocsURL: radixDocsURL(radixPackage, member)}
			}
		}
	}

	for _, fn := range nodesOfType(root, source, "function_declaration") {
		nameNode := fn.ChildByFieldName("name")
		if nameNode == nil || text(nameNode, source) != subName {
			continue
		}
		if member := namespaceMemberInJSXReturn(fn, source, namespaceVar); member != "" {
			return &RadixPrimitive{Primitive: member, DocsURL: radixDocsURL(radixPackage, member)}
		}
	}

	return nil
}

// directNamespaceMember matches `X.Member` exactly (a plain
// re-export), rejecting anything wrapped in a call.
func directNamespaceMember(value *sitter.Node, source []byte, namespaceVar string) string {
	if value.Type() != "member_expression" {
		return ""
	}
	obj := value.ChildByFieldName("object")
	prop := value.ChildByFieldName("property")
	if obj == nil || prop == nil || text(obj, source) != namespaceVar {
		return ""
	}
	return text(prop, source)
}

// namespaceMemberInJSXReturn scans a function/arrow body for the first
// JSX element whose tag is `X.Member`.
func namespaceMemberInJSXReturn(fn *sitter.Node, source []byte, namespaceVar string) string {
	var found string
	walk(fn, func(n *sitter.Node) bool {
		if found != "" {
			return false
		}
		if n.Type() != "jsx_opening_element" && n.Type() != "jsx_self_closing_element" {
			return true
		}
		nameNode := n.ChildByFieldName("name")
		if nameNode == nil || nameNode.Type() != "member_expression" {
			return true
		}
		obj := nameNode.ChildByFieldName("object")
		prop := nameNode.ChildByFieldName("property")
		if obj != nil && prop != nil && text(obj, source) == namespaceVar {
			found = text(prop, source)
			return false
		}
		return true
	})
	return found
}
