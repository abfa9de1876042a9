package service

import (
	"context"
	"log"
	"strings"

	"formgate/internal/backend"
	"formgate/internal/model"
)

// DetectorService finds a prior response belonging to the current actor.
type DetectorService struct {
	backend     *backend.Client
	broadcaster Broadcaster
}

// NewDetectorService creates a new prior-response detector.
func NewDetectorService(client *backend.Client) *DetectorService {
	return &DetectorService{backend: client}
}

// SetBroadcaster sets the broadcaster for observability events.
func (s *DetectorService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// FindExisting scans the form's stored responses for one belonging to the
// actor: authenticated actors match on email (case-insensitive), anonymous
// ones on network address. The first match in backend order is returned so
// behavior stays reproducible even if the backend holds duplicates. On any
// failure the detector fails open and allows a fresh submission; the failure
// is surfaced to the owner channel, never to the user flow.
func (s *DetectorService) FindExisting(ctx context.Context, formID string, identity model.Identity) *model.SubmittedResponse {
	responses, err := s.backend.ListResponses(ctx, formID)
	if err != nil {
		log.Printf("[detector] listing responses for form %s failed: %v", formID, err)
		if s.broadcaster != nil {
			s.broadcaster.BroadcastToOwner(formID, "detector_error", map[string]string{
				"formId": formID,
				"error":  err.Error(),
			})
		}
		return nil
	}

	for i := range responses {
		r := &responses[i]
		if identity.IsAuthenticated() {
			if r.Respondent.Email != "" && strings.EqualFold(r.Respondent.Email, identity.Email) {
				return r
			}
			continue
		}
		if identity.NetworkAddress != "" && r.Respondent.IPAddress == identity.NetworkAddress {
			return r
		}
	}
	return nil
}
