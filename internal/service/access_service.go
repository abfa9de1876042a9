package service

import (
	"time"

	"formgate/internal/model"
)

// AccessService decides whether an actor may view or submit a form.
type AccessService struct{}

// NewAccessService creates a new access service.
func NewAccessService() *AccessService {
	return &AccessService{}
}

// Evaluate applies the form's access configuration to the actor. First match
// wins, and the order is load-bearing: the login gate runs before anything
// else because an anonymous actor cannot be checked against the allowlist,
// then the deadline, then the private flag.
func (s *AccessService) Evaluate(form *model.FormDefinition, identity model.Identity, now time.Time) model.AccessDecision {
	cfg := form.AccessConfig

	if cfg.RequiresLogin && !cfg.IsPublic {
		if !identity.IsAuthenticated() {
			return model.AccessRequiresLogin
		}
		if !cfg.EmailAuthorized(identity.Email) {
			return model.AccessUnauthorized
		}
	}

	if cfg.Deadline != nil && now.After(*cfg.Deadline) {
		return model.AccessClosed
	}

	if cfg.IsPrivate {
		return model.AccessUnpublished
	}

	return model.AccessAllowed
}

// EvaluateSubmit re-runs the login gate immediately before dispatch, since
// access configuration or identity may have changed since load (a login
// completed in another tab, say). Closed and unpublished forms were already
// filtered at load time. Single-response forms additionally refuse anonymous
// submissions with a distinct decision.
func (s *AccessService) EvaluateSubmit(form *model.FormDefinition, identity model.Identity) model.AccessDecision {
	cfg := form.AccessConfig

	if cfg.RequiresLogin && !cfg.IsPublic {
		if !identity.IsAuthenticated() {
			return model.AccessRequiresLogin
		}
		if !cfg.EmailAuthorized(identity.Email) {
			return model.AccessUnauthorized
		}
	}

	if cfg.SingleResponseOnly && !identity.IsAuthenticated() {
		return model.AccessRequiresLoginForSingleResponse
	}

	return model.AccessAllowed
}
