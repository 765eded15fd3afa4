package extractor

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/identity"
)

// utilDenyList holds the last-path-segment names that never count as
// an internal-component dependency (spec §4.2 step 5).
var utilDenyList = map[string]bool{
	"utils": true, "helpers": true, "lib": true, "hooks": true,
	"types": true, "cn": true, "clsx": true, "constants": true,
}

var (
	importStmtRe  = regexp.MustCompile(`(?s)^import\s+(type\s+)?(.*?)\s*from\s*['"]([^'"]+)['"]`)
	namedImportRe = regexp.MustCompile(`\{([^}]*)\}`)
	namespaceRe   = regexp.MustCompile(`\*\s+as\s+(\w+)`)
	defaultRe     = regexp.MustCompile(`^(\w+)\s*,?`)
)

// dependencyResult is the intermediate shape produced by
// extractDependencies before it is folded into ExtractedData.
type dependencyResult struct {
	npm               map[string]string
	internal          []string
	baseLibrary       *BaseLibrary
	radixNamespaceVar string // variable bound to `import * as X from '@radix-ui/react-Y'`
	radixPackage      string
}

// extractDependencies walks every import statement in the file (spec
// §4.2 step 5, "always run"). Path aliases are a best-effort hint
// supplied by the caller; the known-packages table is not consulted
// here. When no aliases are given,
// dependencies starting with "." or "/" are the only ones treated as
// internal.
func extractDependencies(root *sitter.Node, source []byte, in Input) dependencyResult {
	res := dependencyResult{
		npm: map[string]string{},
	}

	var radixCandidates []string

	for _, node := range nodesOfType(root, source, "import_statement") {
		raw := text(node, source)
		m := importStmtRe.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		isTypeOnly := m[1] != ""
		clause := strings.TrimSpace(m[2])
		spec := m[3]

		if isTypeOnly {
			continue
		}

		if isInternalSpecifier(spec, in.PathAliases) {
			recordInternalImport(&res, clause, spec)
			continue
		}

		pkg := npmPackageName(spec)
		res.npm[pkg] = "*"

		if strings.HasPrefix(pkg, "@radix-ui/react-") {
			radixCandidates = append(radixCandidates, pkg)
			if ns := namespaceRe.FindStringSubmatch(clause); ns != nil {
				res.radixNamespaceVar = ns[1]
				res.radixPackage = pkg
			}
		}
	}

	if len(radixCandidates) == 1 {
		component := strings.TrimPrefix(radixCandidates[0], "@radix-ui/react-")
		res.baseLibrary = &BaseLibrary{Name: "radix-ui", Component: pascalCase(component)}
	}

	return res
}

func isInternalSpecifier(spec string, aliases map[string]string) bool {
	if strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/") {
		return true
	}
	for alias := range aliases {
		if strings.HasPrefix(spec, alias) {
			return true
		}
	}
	return false
}

func npmPackageName(spec string) string {
	if strings.HasPrefix(spec, "@") {
		parts := strings.SplitN(spec, "/", 3)
		if len(parts) >= 2 {
			return parts[0] + "/" + parts[1]
		}
		return spec
	}
	parts := strings.SplitN(spec, "/", 2)
	return parts[0]
}

func recordInternalImport(res *dependencyResult, clause, spec string) {
	last := spec
	if idx := strings.LastIndex(spec, "/"); idx >= 0 {
		last = spec[idx+1:]
	}
	last = strings.TrimSuffix(strings.TrimSuffix(last, ".tsx"), ".ts")

	if utilDenyList[strings.ToLower(last)] {
		return
	}

	for _, name := range importedNames(clause) {
		res.internal = append(res.internal, pascalCase(name))
	}
}

// importedNames extracts the local binding names from an import
// clause: default import, namespace import, or named-import list.
func importedNames(clause string) []string {
	var names []string

	if ns := namespaceRe.FindStringSubmatch(clause); ns != nil {
		names = append(names, ns[1])
		return names
	}

	if named := namedImportRe.FindStringSubmatch(clause); named != nil {
		for _, part := range strings.Split(named[1], ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			// `Foo as Bar` -> local binding is Bar.
			if idx := strings.Index(part, " as "); idx >= 0 {
				part = strings.TrimSpace(part[idx+4:])
			}
			names = append(names, part)
		}
		return names
	}

	clause = namedImportRe.ReplaceAllString(clause, "")
	clause = strings.Trim(clause, ", ")
	if m := defaultRe.FindStringSubmatch(clause); m != nil && m[1] != "" {
		names = append(names, m[1])
	}

	return names
}

func pascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		if len(p) > 1 {
			b.WriteString(p[1:])
		}
	}
	if b.Len() == 0 {
		return s
	}
	return b.String()
}

// ensure identity import is actually used (slug helper shares pascalCase
// semantics with Kebab in spec's naming rules); referenced to avoid an
// unused-import footgun if extraction logic changes.
var _ = identity.Kebab
