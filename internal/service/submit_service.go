package service

import (
	"context"
	"log"

	"formgate/internal/backend"
	"formgate/internal/model"
)

// SubmitInput carries everything the dispatcher needs for one submission.
type SubmitInput struct {
	Form                  *model.FormDefinition
	Draft                 *model.ResponseDraft
	Identity              model.Identity
	Prior                 *model.SubmittedResponse
	AmendRequested        bool
	CompletionTimeSeconds int
	SessionID             string
}

// SubmitService assembles the final payload, chooses create vs. amend
// semantics, and performs the backend call. No automatic retry: submissions
// are not idempotent at this layer and a blind retry could create duplicates.
type SubmitService struct {
	backend     *backend.Client
	drafts      *DraftService
	access      *AccessService
	broadcaster Broadcaster
}

// NewSubmitService creates a new submission dispatcher.
func NewSubmitService(client *backend.Client, drafts *DraftService, access *AccessService) *SubmitService {
	return &SubmitService{
		backend: client,
		drafts:  drafts,
		access:  access,
	}
}

// SetBroadcaster sets the broadcaster for owner-channel events.
func (s *SubmitService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Submit re-checks access, validates the draft, and dispatches. On a 401 the
// draft is persisted before the error is returned so no input is lost; on
// any other failure the draft is left untouched for a user-triggered retry.
// On success the persisted draft is cleared.
func (s *SubmitService) Submit(ctx context.Context, in SubmitInput) (*model.SubmittedResponse, error) {
	if decision := s.access.EvaluateSubmit(in.Form, in.Identity); decision != model.AccessAllowed {
		s.persistQuietly(ctx, in)
		return nil, &AccessDeniedError{Decision: decision}
	}

	if fieldErrs := s.drafts.Validate(in.Form, in.Draft); len(fieldErrs) > 0 {
		return nil, &ValidationFailedError{Fields: fieldErrs}
	}

	payload := s.buildPayload(in)

	var resp *model.SubmittedResponse
	var err error
	if in.Prior != nil && in.Form.AccessConfig.AllowEditingOwnResponse && in.AmendRequested {
		resp, err = s.backend.UpdateResponse(ctx, in.Prior.ID, payload)
	} else {
		resp, err = s.backend.CreateResponse(ctx, payload)
	}
	if err != nil {
		if backend.IsAuthRequired(err) {
			// Late-discovered login requirement: keep the user's input for
			// the redirect-and-resume round trip.
			s.persistQuietly(ctx, in)
		}
		return nil, err
	}

	if err := s.drafts.Clear(ctx, in.SessionID, in.Form.ID); err != nil {
		log.Printf("[submit] clearing draft for form %s failed: %v", in.Form.ID, err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToOwner(in.Form.ID, "response_submitted", map[string]interface{}{
			"formId":     in.Form.ID,
			"responseId": resp.ID,
			"amended":    in.Prior != nil && in.AmendRequested,
		})
	}

	return resp, nil
}

func (s *SubmitService) persistQuietly(ctx context.Context, in SubmitInput) {
	if err := s.drafts.Persist(ctx, in.SessionID, in.Form.ID, in.Draft); err != nil {
		log.Printf("[submit] persisting draft for form %s failed: %v", in.Form.ID, err)
	}
}

// buildPayload assembles the wire body. The respondent block always carries
// the network address; identity fields are included only when authenticated
// and non-empty. Answers follow question order for a deterministic payload.
func (s *SubmitService) buildPayload(in SubmitInput) *model.ResponsePayload {
	respondent := model.Respondent{IPAddress: in.Identity.NetworkAddress}
	if in.Identity.IsAuthenticated() {
		respondent.Email = in.Identity.Email
		respondent.Name = in.Identity.DisplayName
		respondent.GoogleID = in.Identity.ExternalUserID
	}

	answers := make([]model.SubmittedAnswer, 0, len(in.Form.Questions))
	for _, q := range in.Form.Questions {
		value, ok := in.Draft.Get(q.ID)
		if !ok || value.IsEmpty() {
			continue
		}
		answers = append(answers, model.SubmittedAnswer{
			QuestionID: q.ID,
			Type:       q.Type,
			Values:     value.Flatten(),
		})
	}

	return &model.ResponsePayload{
		FormID:                in.Form.ID,
		Respondent:            respondent,
		CompletionTimeSeconds: in.CompletionTimeSeconds,
		Answers:               answers,
	}
}
