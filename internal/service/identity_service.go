package service

import (
	"context"
	"encoding/json"
	"log"

	"formgate/internal/model"
	"formgate/internal/session"
)

// IdentityService resolves the current actor from locally persisted session
// state. It never calls the backend: absence of data degrades to an
// anonymous actor, never a failure.
type IdentityService struct {
	sessions session.Store
}

// NewIdentityService creates a new identity service.
func NewIdentityService(sessions session.Store) *IdentityService {
	return &IdentityService{sessions: sessions}
}

// Resolve returns the authenticated actor when a valid cached user record
// exists for the session, else an anonymous actor carrying the previously
// captured network address (empty string if never captured).
func (s *IdentityService) Resolve(ctx context.Context, sessionID string) model.Identity {
	networkAddress := ""
	if sessionID != "" {
		if ip, err := s.sessions.Get(ctx, sessionID, session.KeyClientIP); err == nil {
			networkAddress = ip
		}
	}

	if sessionID == "" {
		return model.AnonymousIdentity(networkAddress)
	}

	data, err := s.sessions.Get(ctx, sessionID, session.KeyUser)
	if err != nil || data == "" {
		return model.AnonymousIdentity(networkAddress)
	}

	var user model.CachedUser
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		log.Printf("[identity] discarding unreadable user record for session %s: %v", sessionID, err)
		return model.AnonymousIdentity(networkAddress)
	}
	if user.Email == "" {
		return model.AnonymousIdentity(networkAddress)
	}

	return model.AuthenticatedIdentity(user.Email, user.DisplayName, user.ExternalUserID, networkAddress)
}

// CaptureNetworkAddress remembers the actor's network address as the
// anonymous-identity fallback for later submissions.
func (s *IdentityService) CaptureNetworkAddress(ctx context.Context, sessionID, address string) {
	if sessionID == "" || address == "" {
		return
	}
	if err := s.sessions.Set(ctx, sessionID, session.KeyClientIP, address); err != nil {
		log.Printf("[identity] capture network address for session %s: %v", sessionID, err)
	}
}
