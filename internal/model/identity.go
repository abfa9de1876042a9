package model

// IdentityKind discriminates the two actor variants. Exactly one is active
// per session, never both.
type IdentityKind string

const (
	IdentityAuthenticated IdentityKind = "authenticated"
	IdentityAnonymous     IdentityKind = "anonymous"
)

// Identity is the actor attempting to view or submit a form. NetworkAddress
// is carried for both variants: it is the match key for anonymous actors and
// the ip_address fallback in submission payloads for authenticated ones.
type Identity struct {
	Kind           IdentityKind `json:"kind"`
	Email          string       `json:"email,omitempty"`
	DisplayName    string       `json:"displayName,omitempty"`
	ExternalUserID string       `json:"externalUserId,omitempty"`
	NetworkAddress string       `json:"networkAddress,omitempty"`
}

// AuthenticatedIdentity builds an authenticated actor.
func AuthenticatedIdentity(email, displayName, externalUserID, networkAddress string) Identity {
	return Identity{
		Kind:           IdentityAuthenticated,
		Email:          email,
		DisplayName:    displayName,
		ExternalUserID: externalUserID,
		NetworkAddress: networkAddress,
	}
}

// AnonymousIdentity builds an anonymous actor from a network address, which
// may be empty if one was never captured.
func AnonymousIdentity(networkAddress string) Identity {
	return Identity{
		Kind:           IdentityAnonymous,
		NetworkAddress: networkAddress,
	}
}

// IsAuthenticated reports whether the actor carries a user record.
func (i Identity) IsAuthenticated() bool {
	return i.Kind == IdentityAuthenticated
}

// CachedUser is the user record cached in the session store after login.
type CachedUser struct {
	ExternalUserID string `json:"uid"`
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	PhotoURL       string `json:"photoURL,omitempty"`
}
