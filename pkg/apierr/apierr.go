// Package apierr defines the small closed error taxonomy described in
// spec §7. Every layer above storage returns either a plain Go error
// (for truly unexpected failures) or one of these typed errors so that
// the HTTP and MCP transports can map them to the right status code /
// JSON-RPC error code without string-matching messages.
package apierr

import (
	"errors"
	"fmt"
)

// Kind is the closed taxonomy of client-relevant error classes.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindUnauthorized        Kind = "unauthorized"
	KindForbidden           Kind = "forbidden"
	KindExtractionFailed    Kind = "extraction_failed"
	KindGenerationFailed    Kind = "generation_failed"
	KindServiceUnavailable  Kind = "service_unavailable"
	KindInternal            Kind = "internal"
)

// Error is the canonical typed error. Details is optional, client-safe
// structured context (e.g. field-level validation failures).
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func new_(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func Validation(msg string, details map[string]any) *Error {
	return &Error{Kind: KindValidation, Message: msg, Details: details}
}

func NotFound(msg string) *Error           { return new_(KindNotFound, msg, nil) }
func Conflict(msg string) *Error           { return new_(KindConflict, msg, nil) }
func Unauthorized(msg string) *Error       { return new_(KindUnauthorized, msg, nil) }
func Forbidden(msg string) *Error          { return new_(KindForbidden, msg, nil) }
func Internal(msg string, cause error) *Error {
	return new_(KindInternal, msg, cause)
}
func ServiceUnavailable(msg string) *Error { return new_(KindServiceUnavailable, msg, nil) }

// ExtractionFailed never propagates to a 5xx from pipeline calls; it is
// surfaced alongside metadata.extractionMethod=fallback when degraded.
func ExtractionFailed(msg string, cause error) *Error {
	return new_(KindExtractionFailed, msg, cause)
}

// GenerationSubKind classifies a GenerationFailed error per spec §4.3/§7.
type GenerationSubKind string

const (
	GenAuth        GenerationSubKind = "auth"
	GenRateLimit   GenerationSubKind = "rate-limit"
	GenUnavailable GenerationSubKind = "unavailable"
	GenTimeout     GenerationSubKind = "timeout"
	GenOther       GenerationSubKind = "other"
)

// GenerationError annotates a generation failure with the provider,
// model, and HTTP-like class that caused it.
type GenerationError struct {
	Provider string
	Model    string
	SubKind  GenerationSubKind
	Cause    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (provider=%s model=%s kind=%s): %v",
		e.Provider, e.Model, e.SubKind, e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

// Is reports whether err is (or wraps) an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}
