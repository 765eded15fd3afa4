package extractor

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

var pascalIdentRe = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)

// detectCompound implements spec §4.2 step 8's three patterns, checked
// in order. Returns nil when none match.
func detectCompound(root *sitter.Node, source []byte, componentName string) *CompoundInfo {
	if info := detectObjectAssignCompound(root, source); info != nil {
		return info
	}
	if info := detectRenamedReExportCompound(root, source); info != nil {
		return info
	}
	if info := detectSharedPrefixCompound(root, source, componentName); info != nil {
		return info
	}
	return nil
}

// detectObjectAssignCompound matches
// `const Root = Object.assign(Base, { Sub1, Sub2 })`.
func detectObjectAssignCompound(root *sitter.Node, source []byte) *CompoundInfo {
	for _, decl := range nodesOfType(root, source, "variable_declarator") {
		nameNode := decl.ChildByFieldName("name")
		value := decl.ChildByFieldName("value")
		if nameNode == nil || value == nil || value.Type() != "call_expression" {
			continue
		}
		fn := value.ChildByFieldName("function")
		if fn == nil || text(fn, source) != "Object.assign" {
			continue
		}
		args := value.ChildByFieldName("arguments")
		if args == nil {
			continue
		}
		argNodes := namedChildren(args)
		if len(argNodes) < 2 {
			continue
		}
		subsObject := argNodes[len(argNodes)-1]
		if subsObject.Type() != "object" {
			continue
		}

		var subs []string
		for _, member := range namedChildren(subsObject) {
			switch member.Type() {
			case "shorthand_property_identifier":
				subs = append(subs, text(member, source))
			case "pair":
				if key := member.ChildByFieldName("key"); key != nil {
					subs = append(subs, text(key, source))
				}
			}
		}
		if len(subs) == 0 {
			continue
		}
		return &CompoundInfo{IsCompound: true, RootComponent: text(nameNode, source), SubComponents: subs}
	}
	return nil
}

// detectRenamedReExportCompound matches
// `export { Root as Dialog, Trigger as DialogTrigger }`: the first
// renamed binding is treated as root, the rest as sub-components.
func detectRenamedReExportCompound(root *sitter.Node, source []byte) *CompoundInfo {
	for _, exp := range nodesOfType(root, source, "export_statement") {
		clause := findExportClause(exp)
		if clause == nil {
			continue
		}
		var renamed []string
		for _, spec := range namedChildren(clause) {
			if spec.Type() != "export_specifier" {
				continue
			}
			aliasNode := spec.ChildByFieldName("alias")
			if aliasNode == nil {
				continue
			}
			renamed = append(renamed, text(aliasNode, source))
		}
		if len(renamed) < 2 {
			continue
		}
		return &CompoundInfo{IsCompound: true, RootComponent: renamed[0], SubComponents: renamed[1:]}
	}
	return nil
}

func findExportClause(exp *sitter.Node) *sitter.Node {
	for _, c := range namedChildren(exp) {
		if c.Type() == "export_clause" {
			return c
		}
	}
	return nil
}

// detectSharedPrefixCompound implements the word-boundary common-prefix
// rule: multiple PascalCase named exports share a prefix P where the
// character following P in every longer name is uppercase. The
// exact-prefix export (== P) is root.
func detectSharedPrefixCompound(root *sitter.Node, source []byte, componentName string) *CompoundInfo {
	names := pascalCaseNamedExports(root, source)
	if len(names) < 2 {
		return nil
	}

	for _, candidate := range names {
		if !pascalIdentRe.MatchString(candidate) {
			continue
		}
		var subs []string
		matchesAll := true
		for _, other := range names {
			if other == candidate {
				continue
			}
			if !strings.HasPrefix(other, candidate) {
				continue
			}
			rest := other[len(candidate):]
			if rest == "" || !(rest[0] >= 'A' && rest[0] <= 'Z') {
				continue
			}
			subs = append(subs, other)
		}
		if len(subs) >= 1 && (candidate == componentName || len(subs) >= 2) {
			matchesAll = matchesAll && true
			return &CompoundInfo{IsCompound: true, RootComponent: candidate, SubComponents: subs}
		}
	}
	return nil
}

func pascalCaseNamedExports(root *sitter.Node, source []byte) []string {
	var names []string
	seen := map[string]bool{}
	add := func(n string) {
		if n != "" && pascalIdentRe.MatchString(n) && !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}

	for _, exp := range nodesOfType(root, source, "export_statement") {
		for _, child := range namedChildren(exp) {
			switch child.Type() {
			case "function_declaration":
				if nameNode := child.ChildByFieldName("name"); nameNode != nil {
					add(text(nameNode, source))
				}
			case "lexical_declaration":
				for _, decl := range namedChildren(child) {
					if decl.Type() == "variable_declarator" {
						if nameNode := decl.ChildByFieldName("name"); nameNode != nil {
							add(text(nameNode, source))
						}
					}
				}
			case "export_clause":
				for _, spec := range namedChildren(child) {
					if spec.Type() == "export_specifier" {
						if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
							add(text(nameNode, source))
						}
					}
				}
			}
		}
	}
	return names
}

// subComponentRequiredInComposition approximates spec §4.2 step 9's
// static composition pass: without a real usage example in the same
// file, the best syntactic signal is whether the root's own JSX (if
// the root renders one) references the sub-component's tag directly.
func subComponentRequiredInComposition(root *sitter.Node, source []byte, rootName, subName string) bool {
	rootFirstParam := findComponentFirstParam(root, source, rootName)
	_ = rootFirstParam // root may have no JSX body of its own (compound root is often Object.assign)

	required := false
	for _, fn := range nodesOfType(root, source, "function_declaration") {
		nameNode := fn.ChildByFieldName("name")
		if nameNode == nil || text(nameNode, source) != rootName {
			continue
		}
		walk(fn, func(n *sitter.Node) bool {
			if required {
				return false
			}
			if n.Type() == "jsx_opening_element" || n.Type() == "jsx_self_closing_element" {
				if nameNode := n.ChildByFieldName("name"); nameNode != nil && text(nameNode, source) == subName {
					required = true
					return false
				}
			}
			return true
		})
	}
	return required
}
