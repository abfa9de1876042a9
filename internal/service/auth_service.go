package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"formgate/internal/config"
	"formgate/internal/model"
	"formgate/internal/session"
)

var (
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrMissingIdentity = errors.New("login result carries no identity")
	ErrLoginCancelled  = errors.New("login cancelled by user")
)

// AuthService exchanges identity-provider login results for gateway
// sessions. The OAuth protocol itself belongs to the provider; this service
// only sanity-checks the handed-over token and mints its own session JWT.
type AuthService struct {
	jwtSecret  []byte
	sessionTTL time.Duration
	sessions   session.Store
	provider   *config.ProviderConfig
}

// NewAuthService creates a new auth service. The secret comes from the loaded
// configuration; a nil provider falls back to the environment defaults.
func NewAuthService(sessions session.Store, jwtSecret string, sessionTTL time.Duration, provider *config.ProviderConfig) *AuthService {
	if jwtSecret == "" {
		jwtSecret = "super-secret-key-change-in-production"
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	if provider == nil {
		provider = config.DefaultProviderConfig()
	}
	return &AuthService{
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		sessions:   sessions,
		provider:   provider,
	}
}

// Login validates a provider login result and opens a gateway session. A
// result with neither a user nor a token means the actor closed the popup;
// that surfaces as ErrLoginCancelled, which is not a hard failure.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	if req.IDToken == "" && req.User.UID == "" {
		return nil, ErrLoginCancelled
	}
	if req.IDToken == "" || req.User.Email == "" {
		return nil, ErrMissingIdentity
	}
	if err := s.checkProviderToken(req.IDToken); err != nil {
		return nil, err
	}

	sessionID := uuid.New().String()

	claims := &model.SessionClaims{
		SessionID:      sessionID,
		Email:          req.User.Email,
		DisplayName:    req.User.DisplayName,
		ExternalUserID: req.User.UID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.sessionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	user := model.CachedUser{
		ExternalUserID: req.User.UID,
		Email:          req.User.Email,
		DisplayName:    req.User.DisplayName,
		PhotoURL:       req.User.PhotoURL,
	}
	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encode user record: %w", err)
	}
	if err := s.sessions.Set(ctx, sessionID, session.KeyUser, string(data)); err != nil {
		return nil, fmt.Errorf("cache user record: %w", err)
	}
	if err := s.sessions.Set(ctx, sessionID, session.KeyIDToken, req.IDToken); err != nil {
		return nil, fmt.Errorf("cache provider token: %w", err)
	}

	return &model.LoginResponse{
		Token:     tokenString,
		SessionID: sessionID,
	}, nil
}

// Logout drops the cached session state. Drafts are left alone so a pending
// form is not lost by signing out.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID, session.KeyUser); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, sessionID, session.KeyIDToken)
}

// ValidateSessionToken validates a gateway session JWT and returns claims.
func (s *AuthService) ValidateSessionToken(tokenString string) (*model.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// checkProviderToken inspects the provider token's claims without verifying
// its signature; signature verification is the provider's trust boundary and
// a declared non-goal here. With no project configured the check is skipped.
func (s *AuthService) checkProviderToken(tokenString string) error {
	if !s.provider.IsEnabled() {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return ErrInvalidToken
	}
	if iss, _ := claims["iss"].(string); iss != s.provider.Issuer {
		log.Printf("[auth] provider token issuer mismatch: %q", iss)
		return ErrInvalidToken
	}
	if aud, _ := claims["aud"].(string); aud != s.provider.ProjectID {
		return ErrInvalidToken
	}
	if exp, err := claims.GetExpirationTime(); err != nil || exp == nil || exp.Before(time.Now()) {
		return ErrInvalidToken
	}
	return nil
}
