package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const buttonSource = `
import * as React from "react"
import { cva } from "class-variance-authority"
import { cn } from "../utils"

const buttonVariants = cva("inline-flex items-center", {
  variants: {
    variant: {
      default: "bg-primary text-white",
      outline: "border border-input",
    },
    size: {
      sm: "h-8 px-3",
      lg: "h-10 px-6",
    },
  },
  defaultVariants: {
    variant: "default",
    size: "sm",
  },
})

export interface ButtonProps {
  /** The visual style of the button */
  variant?: "default" | "outline"
  size?: "sm" | "lg"
  disabled?: boolean
  children?: React.ReactNode
  onClick?: (e: React.MouseEvent) => void
  className?: string
}

export function Button({ variant, size, disabled, children, onClick }: ButtonProps) {
  return <button className={cn(buttonVariants({ variant, size }))} onClick={onClick} disabled={disabled}>{children}</button>
}
`

func TestExtract_PrimaryInterfaceWithVariants(t *testing.T) {
	result := Extract(Input{
		Name:       "Button",
		SourceCode: buttonSource,
		Framework:  FrameworkReact,
	})

	require.False(t, result.Diagnostic.FallbackTriggered)
	assert.Equal(t, MethodPrimary, result.Diagnostic.Method)

	names := propNames(result.Data.Props)
	assert.Contains(t, names, "disabled")
	assert.Contains(t, names, "children")
	assert.NotContains(t, names, "onClick", "DOM event props must be rejected by primary extraction")
	assert.NotContains(t, names, "className", "passthrough attrs must be rejected by primary extraction")

	assert.True(t, result.Data.AcceptsChildren)

	require.NotNil(t, result.Data.Variants)
	assert.ElementsMatch(t, []string{"default", "outline"}, result.Data.Variants["variant"])
	assert.ElementsMatch(t, []string{"sm", "lg"}, result.Data.Variants["size"])
	assert.Equal(t, "default", result.Data.DefaultVariants["variant"])

	assert.Contains(t, result.Data.NpmDependencies, "class-variance-authority")
	assert.NotContains(t, result.Data.InternalDependencies, "Cn", "utility imports are not internal component dependencies")
}

const zeroPropsSource = `
export interface EmptyProps {
}

export function Empty(props: EmptyProps) {
  return <div />
}
`

func TestExtract_FallbackOnZeroProps(t *testing.T) {
	result := Extract(Input{
		Name:       "Empty",
		SourceCode: zeroPropsSource,
		Framework:  FrameworkReact,
	})

	assert.True(t, result.Diagnostic.FallbackTriggered)
	assert.Equal(t, ReasonZeroProps, result.Diagnostic.FallbackReason)
	assert.Equal(t, MethodFallback, result.Diagnostic.Method)
}

const destructuredSource = `
export function Badge({ label, tone = "neutral", count }) {
  return <span>{label}{count}</span>
}
`

func TestExtract_FallbackFromDestructuredParameter(t *testing.T) {
	result := Extract(Input{
		Name:       "Badge",
		SourceCode: destructuredSource,
		Framework:  FrameworkReact,
	})

	names := propNames(result.Data.Props)
	assert.Contains(t, names, "label")
	assert.Contains(t, names, "tone")
	assert.Contains(t, names, "count")

	for _, p := range result.Data.Props {
		if p.Name == "tone" {
			assert.Equal(t, "neutral", p.DefaultValue)
			assert.False(t, p.Required)
		}
	}
}

const compoundSource = `
function DialogRoot(props) {
  return <div>{props.children}</div>
}

function DialogTrigger(props) {
  return <button>{props.children}</button>
}

function DialogContent(props) {
  return <div role="dialog">{props.children}</div>
}

export const Dialog = Object.assign(DialogRoot, {
  Trigger: DialogTrigger,
  Content: DialogContent,
})
`

func TestExtract_CompoundObjectAssign(t *testing.T) {
	result := Extract(Input{
		Name:       "Dialog",
		SourceCode: compoundSource,
		Framework:  FrameworkReact,
	})

	require.NotNil(t, result.Data.CompoundInfo)
	assert.True(t, result.Data.CompoundInfo.IsCompound)
	assert.Equal(t, "Dialog", result.Data.CompoundInfo.RootComponent)
	assert.ElementsMatch(t, []string{"Trigger", "Content"}, result.Data.CompoundInfo.SubComponents)
	assert.Len(t, result.Data.SubComponents, 2)
}

func TestExtract_NeverThrowsOnParseError(t *testing.T) {
	result := Extract(Input{
		Name:       "Broken",
		SourceCode: "export function Broken( {{{ sjk !!! ",
		Framework:  FrameworkReact,
	})

	assert.NotNil(t, result.Data)
	assert.True(t, result.Diagnostic.FallbackTriggered)
}

func propNames(props []Prop) []string {
	names := make([]string, 0, len(props))
	for _, p := range props {
		names = append(names, p.Name)
	}
	return names
}
