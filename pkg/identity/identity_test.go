package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/identity"
)

func TestSlugFor_Shape(t *testing.T) {
	id := identity.NewComponentID()
	slug := identity.SlugFor("Primary Button", "react", id)

	assert.Contains(t, slug, "primary-button-react-")
	assert.Len(t, slug, len("primary-button-react-")+8)
}

func TestSlugFor_Idempotent(t *testing.T) {
	id := identity.NewComponentID()

	first := identity.SlugFor("Dialog", "react", id)
	second := identity.SlugFor("Dialog", "react", id)

	assert.Equal(t, first, second)
}

func TestSourceHash_SensitiveToWhitespace(t *testing.T) {
	a := identity.SourceHash("const Button = () => null;")
	b := identity.SourceHash("const Button = () => null; ")

	assert.NotEqual(t, a, b)
}

func TestSourceHash_Stable(t *testing.T) {
	text := "export const Button = () => null;"
	require.Equal(t, identity.SourceHash(text), identity.SourceHash(text))
}

func TestKebab(t *testing.T) {
	cases := map[string]string{
		"PrimaryButton":  "primary-button",
		"Primary Button": "primary-button",
		"Dialog_Trigger": "dialog-trigger",
		"  Leading":      "leading",
	}

	for in, want := range cases {
		assert.Equal(t, want, identity.Kebab(in), "input=%q", in)
	}
}
