package config

import "os"

// ProviderConfig holds settings for the external identity provider. The
// gateway never implements the OAuth protocol itself; it only sanity-checks
// the issuer and audience claims of tokens the provider hands to the SPA.
type ProviderConfig struct {
	ProjectID string `json:"projectId"`
	Issuer    string `json:"issuer"`
}

// DefaultProviderConfig returns the provider configuration from the
// environment.
func DefaultProviderConfig() *ProviderConfig {
	projectID := os.Getenv("FIREBASE_PROJECT_ID")
	issuer := os.Getenv("FIREBASE_ISSUER")
	if issuer == "" && projectID != "" {
		issuer = "https://securetoken.google.com/" + projectID
	}
	return &ProviderConfig{
		ProjectID: projectID,
		Issuer:    issuer,
	}
}

// IsEnabled reports whether provider token claims should be checked.
func (c *ProviderConfig) IsEnabled() bool {
	return c.ProjectID != ""
}
