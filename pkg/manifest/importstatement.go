package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/extractor"
)

// designSystemPackageRe matches npm dependency names that look like a
// component package (spec §4.4 step 3).
var designSystemPackageRe = regexp.MustCompile(`^@[a-z-]+/(react|components|ui)$`)

// choosePackage implements the package-name selection rule: the first
// dependency matching the design-system shape, else the configured
// default.
func choosePackage(npmDependencies map[string]string, defaultPackage string) string {
	for name := range npmDependencies {
		if designSystemPackageRe.MatchString(name) || strings.Contains(name, "design-system") {
			return name
		}
	}
	return defaultPackage
}

// buildImportStatement implements spec §4.4 step 3.
func buildImportStatement(name string, compound *extractor.CompoundInfo, npmDependencies map[string]string, defaultPackage string) ImportStatement {
	pkg := choosePackage(npmDependencies, defaultPackage)

	var primary string
	if compound != nil && compound.IsCompound && len(compound.SubComponents) > 0 {
		names := append([]string{name}, compound.SubComponents...)
		primary = fmt.Sprintf("import { %s } from '%s'", strings.Join(names, ", "), pkg)
	} else {
		primary = fmt.Sprintf("import { %s } from '%s'", name, pkg)
	}

	return ImportStatement{
		Primary:  primary,
		TypeOnly: fmt.Sprintf("import type { %sProps } from '%s'", name, pkg),
	}
}
