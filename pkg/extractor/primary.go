package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// domEventProps is the closed set of standard DOM event handler props
// rejected by primary extraction (spec §4.2 step 1).
var domEventProps = buildDenySet(
	// mouse
	"onClick", "onMouseDown", "onMouseUp", "onMouseMove", "onMouseEnter", "onMouseLeave",
	"onMouseOver", "onMouseOut", "onContextMenu", "onDoubleClick", "onWheel",
	// keyboard
	"onKeyDown", "onKeyUp", "onKeyPress",
	// focus
	"onFocus", "onBlur",
	// form
	"onChange", "onInput", "onSubmit", "onReset", "onInvalid",
	// drag
	"onDrag", "onDragStart", "onDragEnd", "onDragEnter", "onDragLeave", "onDragOver", "onDrop",
	// touch
	"onTouchStart", "onTouchMove", "onTouchEnd", "onTouchCancel",
	// pointer
	"onPointerDown", "onPointerMove", "onPointerUp", "onPointerCancel", "onPointerEnter", "onPointerLeave",
	"onPointerOver", "onPointerOut", "onGotPointerCapture", "onLostPointerCapture",
	// clipboard
	"onCopy", "onCut", "onPaste",
	// media
	"onLoad", "onError", "onPlay", "onPause", "onEnded", "onVolumeChange", "onTimeUpdate",
	// animation
	"onAnimationStart", "onAnimationEnd", "onAnimationIteration", "onTransitionEnd",
)

// passthroughAttrs is the closed set of plain HTML passthrough
// attributes rejected by primary extraction; "aria-*" and "data-*" are
// rejected by prefix instead.
var passthroughAttrs = buildDenySet(
	"className", "style", "id", "ref", "key", "slot", "tabIndex", "role", "title", "lang", "dir",
	"hidden", "draggable", "spellCheck", "translate", "contentEditable", "inputMode", "enterKeyHint",
	"autoFocus", "form", "formAction", "formEncType", "formMethod", "formNoValidate", "formTarget",
)

func buildDenySet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func isRejectedProp(name string) bool {
	if name == "children" {
		return false
	}
	if domEventProps[name] || passthroughAttrs[name] {
		return true
	}
	return strings.HasPrefix(name, "aria-") || strings.HasPrefix(name, "data-")
}

// primaryExtract is the "strongly-typed TS-aware" pass treated as a
// capability per spec §4.2 step 1. Since no real type checker sits
// behind it, it works over the same concrete syntax tree as the
// fallback pass but resolves one extra level of indirection: an
// intersection member that is itself a type-alias reference (rather
// than only a literal object_type) is followed and its members merged
// in. This is the "TS-aware" edge fallback deliberately does not get,
// matching spec §4.2's framing of fallback as a strictly syntactic
// walk.
func primaryExtract(root *sitter.Node, source []byte, in Input) ([]Prop, bool) {
	propsTypeName := in.Name + "Props"

	var raw []Prop
	found := false

	if iface := findNamedNode(root, source, "interface_declaration", propsTypeName); iface != nil {
		found = true
		if body := iface.ChildByFieldName("body"); body != nil {
			raw = propsFromObjectMembers(body, source)
		}
		if ext := iface.ChildByFieldName("heritage"); ext != nil {
			raw = append(raw, resolveHeritageMembers(root, source, ext)...)
		}
	} else if alias := findNamedNode(root, source, "type_alias_declaration", propsTypeName); alias != nil {
		found = true
		if value := alias.ChildByFieldName("value"); value != nil {
			raw = resolveTypeValueDeep(root, source, value)
		}
	}

	if !found {
		return nil, false
	}

	filtered := make([]Prop, 0, len(raw))
	for _, p := range raw {
		if isRejectedProp(p.Name) {
			continue
		}
		filtered = append(filtered, p)
	}

	return filtered, true
}

// resolveTypeValueDeep is propsFromTypeValue plus one level of
// reference-following: an intersection member that names another type
// alias (rather than an inline object_type) is resolved against that
// alias's own declaration.
func resolveTypeValueDeep(root *sitter.Node, source []byte, value *sitter.Node) []Prop {
	switch value.Type() {
	case "object_type":
		return propsFromObjectMembers(value, source)
	case "intersection_type":
		var props []Prop
		for _, child := range namedChildren(value) {
			switch child.Type() {
			case "object_type":
				props = append(props, propsFromObjectMembers(child, source)...)
			case "type_identifier", "generic_type":
				refName := text(child, source)
				if idx := strings.Index(refName, "<"); idx >= 0 {
					refName = refName[:idx]
				}
				if ref := findNamedNode(root, source, "type_alias_declaration", refName); ref != nil {
					if refValue := ref.ChildByFieldName("value"); refValue != nil && refValue.Type() == "object_type" {
						props = append(props, propsFromObjectMembers(refValue, source)...)
					}
				}
			}
		}
		return props
	}
	return nil
}

// resolveHeritageMembers follows `interface FooProps extends BarProps`
// to a same-file BarProps interface or type alias, one level deep.
func resolveHeritageMembers(root *sitter.Node, source []byte, heritage *sitter.Node) []Prop {
	var props []Prop
	raw := text(heritage, source)
	raw = strings.TrimPrefix(raw, "extends")
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if iface := findNamedNode(root, source, "interface_declaration", name); iface != nil {
			if body := iface.ChildByFieldName("body"); body != nil {
				props = append(props, propsFromObjectMembers(body, source)...)
			}
			continue
		}
		if alias := findNamedNode(root, source, "type_alias_declaration", name); alias != nil {
			if value := alias.ChildByFieldName("value"); value != nil && value.Type() == "object_type" {
				props = append(props, propsFromObjectMembers(value, source)...)
			}
		}
	}
	return props
}
