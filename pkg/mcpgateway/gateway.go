// Package mcpgateway mounts the Model Context Protocol surface spec
// §4.13 describes at /mcp: a streamable-HTTP JSON-RPC transport,
// fronted by the same tenant authentication as pkg/httpapi, with an
// in-process session store enforcing per-org session ownership.
//
// Grounded on cagent's pkg/mcp/server.go (mcp.NewServer +
// mcp.NewStreamableHTTPHandler(getServer, opts), one *mcp.Server per
// negotiated session) generalized from "one tool per agent" to the
// fixed four tools and six resources spec §4.13 names, and on
// Aman-CERP-amanmcp's internal/mcp package for resource registration
// and JSON-RPC error shaping idioms.
package mcpgateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gosdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/apierr"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/auth"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/mcpgateway/session"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/search"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/sweeper"
)

// sessionIDHeader is the transport-assigned header both cagent's and
// the MCP spec's streamable HTTP transport use to identify a session
// (spec §4.13: "session id negotiated by the transport and echoed in
// the mcp-session-id response header").
const sessionIDHeader = "Mcp-Session-Id"

// Config configures the gateway's CORS policy and session lifetime.
type Config struct {
	// AllowedOrigins is the CORS_ALLOWED_ORIGINS list. Only strict mode
	// consults it; there an empty list allows no origin.
	AllowedOrigins []string
	// CORSMode mirrors MCP_CORS_MODE: "strict" only ever matches
	// AllowedOrigins; any other value (such as "permissive") reflects
	// any Origin, or answers "*" when the request carries none.
	CORSMode string
	// SessionIdleTimeout bounds how long an idle session lives before
	// the sweep reclaims it (spec §9 open question 2). Defaults to 30m.
	SessionIdleTimeout time.Duration
}

// Gateway owns the MCP session store and every dependency its tool
// and resource handlers need.
type Gateway struct {
	store     storage.Store
	search    *search.Engine
	validator *auth.Validator
	sessions  *session.Store
	cfg       Config
	sweep     *sweeper.Sweeper
}

// New builds a Gateway. Call Start to begin the idle-session sweep.
func New(store storage.Store, searchEngine *search.Engine, validator *auth.Validator, cfg Config) *Gateway {
	if cfg.SessionIdleTimeout <= 0 {
		cfg.SessionIdleTimeout = 30 * time.Minute
	}

	g := &Gateway{
		store: store, search: searchEngine, validator: validator,
		sessions: session.NewStore(), cfg: cfg,
	}
	g.sweep = sweeper.New("mcp-session-idle", cfg.SessionIdleTimeout/2, func(_ context.Context) {
		if n := g.sessions.SweepIdle(cfg.SessionIdleTimeout); n > 0 {
			slog.Info("mcpgateway: swept idle sessions", "count", n)
		}
	})
	return g
}

// Start begins the periodic idle-session sweep.
func (g *Gateway) Start(ctx context.Context) { g.sweep.Start(ctx) }

// Stop cancels the sweep.
func (g *Gateway) Stop() { g.sweep.Stop() }

// SessionCount reports the number of live sessions, for diagnostics.
func (g *Gateway) SessionCount() int { return g.sessions.Count() }

// Handler returns the /mcp endpoint's http.Handler with the fixed
// middleware order spec §4.13 requires: CORS writes headers directly
// to the underlying response (the transport bypasses any HTTP
// framework's response abstraction), then auth (tenant key with
// component:read), then -- for GET/DELETE only -- session retrieval
// and ownership check.
func (g *Gateway) Handler() http.Handler {
	inner := gosdk.NewStreamableHTTPHandler(g.getServer, nil)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.applyCORS(w, r)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		authCtx, err := g.authenticate(r)
		if err != nil {
			writeJSONRPCError(w, err)
			return
		}

		if r.Method == http.MethodGet || r.Method == http.MethodDelete {
			sessionID := r.Header.Get(sessionIDHeader)
			if sessionID == "" {
				writeJSONRPCError(w, sessionError("missing "+sessionIDHeader+" header"))
				return
			}
			sess, ok := g.sessions.Get(sessionID)
			if !ok {
				writeJSONRPCError(w, sessionError("unknown session: "+sessionID))
				return
			}
			if sess.OrgID != authCtx.OrgID {
				writeJSONRPCError(w, apierr.Forbidden("session belongs to a different organization"))
				return
			}
			g.sessions.Touch(sessionID)
			if r.Method == http.MethodDelete {
				g.sessions.Delete(sessionID)
			}
		}

		r = r.WithContext(context.WithValue(r.Context(), authContextKey{}, authCtx))
		inner.ServeHTTP(w, r)

		if sid := w.Header().Get(sessionIDHeader); sid != "" {
			if _, ok := g.sessions.Get(sid); !ok {
				g.sessions.Register(sid, authCtx.OrgID)
			}
		}
	})
}

// authContextKey is the request-context key getServer reads the
// validated auth.Context back out of, to scope the per-session
// *mcp.Server's tools and resources to one org.
type authContextKey struct{}

// getServer builds a fresh, org-scoped *mcp.Server for a newly
// negotiated session (spec §4.13: "POST without mcp-session-id
// creates a new session"). cagent's createMCPServer builds one
// process-wide server; here each session gets its own because tools
// and resources must be scoped to the caller's org.
func (g *Gateway) getServer(r *http.Request) *gosdk.Server {
	authCtx, _ := r.Context().Value(authContextKey{}).(auth.Context)

	server := gosdk.NewServer(&gosdk.Implementation{
		Name:    "componentkb",
		Version: "1.0.0",
	}, nil)

	g.registerTools(server, authCtx.OrgID)
	g.registerResources(server, authCtx.OrgID)
	return server
}

// authenticate validates the bearer token and requires tenant
// component:read (spec §4.13: "auth (must be a tenant key with
// component:read)").
func (g *Gateway) authenticate(r *http.Request) (auth.Context, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return auth.Context{}, apierr.Unauthorized("missing bearer token")
	}

	authCtx, err := g.validator.Validate(r.Context(), token)
	if err != nil {
		return auth.Context{}, apierr.Unauthorized("invalid token")
	}
	if authCtx.Kind != auth.KindTenant {
		return auth.Context{}, apierr.Forbidden("platform tokens cannot call the MCP gateway")
	}
	if !authCtx.HasScope(storage.ScopeComponentRead) {
		return auth.Context{}, apierr.Forbidden("missing required scope: " + string(storage.ScopeComponentRead))
	}
	return authCtx, nil
}

// applyCORS writes CORS headers directly onto the response, per spec
// §4.13's fixed middleware order -- the MCP transport bypasses any
// HTTP framework's own CORS middleware, so this gateway applies it
// itself before delegating.
func (g *Gateway) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	allowed := "*"
	if g.cfg.CORSMode == "strict" {
		allowed = ""
		for _, o := range g.cfg.AllowedOrigins {
			if o == origin {
				allowed = origin
				break
			}
		}
	} else if origin != "" {
		allowed = origin
	}

	if allowed != "" {
		w.Header().Set("Access-Control-Allow-Origin", allowed)
	}
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+sessionIDHeader+", Mcp-Protocol-Version")
	w.Header().Set("Access-Control-Expose-Headers", sessionIDHeader+", Mcp-Protocol-Version")
}

// jsonRPCError is the wire shape spec §4.13/§7 requires for MCP
// transport-level failures (auth, session lookup) that never reach
// the streamable handler's own JSON-RPC error formatting.
type jsonRPCError struct {
	JSONRPC string `json:"jsonrpc"`
	Error   struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	ID any `json:"id"`
}

// rpcCode maps apierr.Kind to JSON-RPC error codes (spec §7):
// unauthorized/forbidden both -32001, session (not-found) errors
// -32000, validation errors -32602, anything else -32603. Parse errors
// are not mapped here.
func rpcCode(err error) int {
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		return -32603 // internal error, standard JSON-RPC code
	}
	switch apiErr.Kind {
	case apierr.KindUnauthorized, apierr.KindForbidden:
		return -32001
	case apierr.KindValidation:
		return -32602 // invalid params
	case apierr.KindNotFound:
		return -32000
	default:
		return -32603
	}
}

func sessionError(msg string) error {
	return &apierr.Error{Kind: apierr.KindNotFound, Message: msg}
}

func writeJSONRPCError(w http.ResponseWriter, err error) {
	resp := jsonRPCError{JSONRPC: "2.0"}
	resp.Error.Code = rpcCode(err)
	resp.Error.Message = err.Error()

	w.Header().Set("Content-Type", "application/json")
	status := http.StatusOK
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case apierr.KindUnauthorized:
			status = http.StatusUnauthorized
		case apierr.KindForbidden:
			status = http.StatusForbidden
		case apierr.KindNotFound:
			status = http.StatusNotFound
		case apierr.KindValidation:
			status = http.StatusBadRequest
		default:
			status = http.StatusInternalServerError
		}
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
