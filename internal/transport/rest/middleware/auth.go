package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"formgate/internal/service"
)

type contextKey string

const (
	SessionIDKey contextKey = "sessionId"
	ClientIPKey  contextKey = "clientIp"
)

// IdentityMiddleware attaches the caller's session to the request context.
// Identity is always optional here: an invalid or missing token degrades to
// an anonymous session, it never rejects the request. Access decisions
// belong to the policy evaluator, not the transport.
type IdentityMiddleware struct {
	authSvc     *service.AuthService
	identitySvc *service.IdentityService
}

// NewIdentityMiddleware creates a new identity middleware
func NewIdentityMiddleware(authSvc *service.AuthService, identitySvc *service.IdentityService) *IdentityMiddleware {
	return &IdentityMiddleware{authSvc: authSvc, identitySvc: identitySvc}
}

// Resolve extracts the session id from a bearer token when present, falling
// back to the client-generated X-Session-Id header, and remembers the
// caller's network address as the anonymous-identity fallback.
func (m *IdentityMiddleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if token := extractBearerToken(r); token != "" {
			if claims, err := m.authSvc.ValidateSessionToken(token); err == nil {
				sessionID = claims.SessionID
			}
		}
		if sessionID == "" {
			sessionID = r.Header.Get("X-Session-Id")
		}

		clientIP := extractClientIP(r)
		if sessionID != "" && clientIP != "" {
			m.identitySvc.CaptureNetworkAddress(r.Context(), sessionID, clientIP)
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, SessionIDKey, sessionID)
		ctx = context.WithValue(ctx, ClientIPKey, clientIP)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionID extracts the session id from context
func GetSessionID(ctx context.Context) string {
	if v := ctx.Value(SessionIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetClientIP extracts the caller's network address from context
func GetClientIP(ctx context.Context) string {
	if v := ctx.Value(ClientIPKey); v != nil {
		return v.(string)
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func extractClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop is the originating client
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
