package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are JWT claims for gateway session tokens minted after an
// identity-provider login.
type SessionClaims struct {
	SessionID      string `json:"sessionId"`
	Email          string `json:"email,omitempty"`
	DisplayName    string `json:"displayName,omitempty"`
	ExternalUserID string `json:"externalUserId,omitempty"`
	jwt.RegisteredClaims
}

// ProviderUser is the user record returned by the identity provider's OAuth
// popup flow.
type ProviderUser struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// LoginRequest is the request body for exchanging a provider login result
// for a gateway session.
type LoginRequest struct {
	User    ProviderUser `json:"user"`
	IDToken string       `json:"idToken"`
}

// LoginResponse is returned after a successful session exchange.
type LoginResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
}
