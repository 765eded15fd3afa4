// Package auth validates the two API token families spec §4.11
// defines and exposes the scope-checking helpers every authenticated
// request is gated by.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage"
)

// Prefixes distinguishing the two token families. cep_ is checked
// before ce_ since it is the longer, more specific prefix (spec §4.11:
// "prefix checked before ce_").
const (
	tenantPrefix   = "ce_"
	platformPrefix = "cep_"
)

var (
	// ErrInvalidToken is returned for anything that isn't a
	// recognized, valid token of either family.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Kind distinguishes which auth context a validated token produced.
type Kind string

const (
	KindTenant   Kind = "tenant"
	KindPlatform Kind = "platform"
)

// PlatformAdminScope is the single scope a platform token context
// carries.
const PlatformAdminScope = "platform:admin"

// Context is the validated identity and authority a request carries.
// Exactly one of the Kind-specific fields is meaningful.
type Context struct {
	Kind     Kind
	OrgID    string // tenant only
	APIKeyID string // tenant only
	Scopes   []string
}

// HasScope reports whether ctx authorizes scope s. Per spec §4.11:
// tenant contexts are authorized if admin is among their scopes or s
// itself is; platform contexts never satisfy a tenant scope check.
func (c Context) HasScope(s storage.APIKeyScope) bool {
	if c.Kind != KindTenant {
		return false
	}
	for _, have := range c.Scopes {
		if storage.APIKeyScope(have) == storage.ScopeAdmin || storage.APIKeyScope(have) == s {
			return true
		}
	}
	return false
}

// HasAllScopes reports whether ctx authorizes every scope in ss. The
// empty set is vacuously true for tenant contexts (spec §4.11).
func (c Context) HasAllScopes(ss []storage.APIKeyScope) bool {
	if c.Kind != KindTenant {
		return false
	}
	for _, s := range ss {
		if !c.HasScope(s) {
			return false
		}
	}
	return true
}

// Validator turns a raw Authorization-header token into a Context,
// looking tenant keys up by their HMAC digest.
type Validator struct {
	store         storage.Store
	serverSecret  []byte
	platformToken string
}

// NewValidator binds a Validator to the store used to look up tenant
// keys, the server-wide HMAC secret, and the one configured platform
// admin token.
func NewValidator(store storage.Store, serverSecret, platformToken string) *Validator {
	return &Validator{store: store, serverSecret: []byte(serverSecret), platformToken: platformToken}
}

// Digest computes the stored digest for a raw ce_ key: hex(HMAC-SHA256(rawKey, serverSecret)).
func (v *Validator) Digest(rawKey string) string {
	mac := hmac.New(sha256.New, v.serverSecret)
	mac.Write([]byte(rawKey))
	return hex.EncodeToString(mac.Sum(nil))
}

// Validate classifies and validates raw (the full bearer token,
// prefix included) and returns the resulting Context (spec §4.11).
func (v *Validator) Validate(ctx context.Context, raw string) (Context, error) {
	switch {
	case strings.HasPrefix(raw, platformPrefix):
		return v.validatePlatform(raw)
	case strings.HasPrefix(raw, tenantPrefix):
		return v.validateTenant(ctx, raw)
	default:
		return Context{}, ErrInvalidToken
	}
}

func (v *Validator) validatePlatform(raw string) (Context, error) {
	if v.platformToken == "" {
		return Context{}, ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(raw), []byte(v.platformToken)) != 1 {
		return Context{}, ErrInvalidToken
	}
	return Context{Kind: KindPlatform, Scopes: []string{PlatformAdminScope}}, nil
}

func (v *Validator) validateTenant(ctx context.Context, raw string) (Context, error) {
	digest := v.Digest(raw)

	key, err := v.store.FindAPIKeyByDigest(ctx, digest)
	if err != nil {
		return Context{}, ErrInvalidToken
	}
	if !key.Active {
		return Context{}, ErrInvalidToken
	}
	if key.ExpiresAt != nil && key.ExpiresAt.Before(time.Now()) {
		return Context{}, ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(digest), []byte(key.KeyDigest)) != 1 {
		return Context{}, ErrInvalidToken
	}

	scopes := make([]string, 0, len(key.Scopes))
	for _, s := range key.Scopes {
		if storage.AllScopes[s] {
			scopes = append(scopes, string(s))
		}
	}

	return Context{Kind: KindTenant, OrgID: key.OrgID, APIKeyID: key.ID, Scopes: scopes}, nil
}
