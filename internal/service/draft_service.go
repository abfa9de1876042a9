package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"

	"formgate/internal/model"
	"formgate/internal/session"
)

// DraftService manages in-progress answer drafts: preloading from a prior
// response, persisting across an authentication redirect, and pre-submit
// validation.
type DraftService struct {
	sessions session.Store
}

// NewDraftService creates a new draft service.
func NewDraftService(sessions session.Store) *DraftService {
	return &DraftService{sessions: sessions}
}

// Preload converts a submitted response into draft form. Answers with more
// than one value become multi-valued; single values stay scalar so the
// single-control question types edit ergonomically.
func (s *DraftService) Preload(resp *model.SubmittedResponse) *model.ResponseDraft {
	draft := model.NewDraft()
	for _, a := range resp.Answers {
		switch {
		case len(a.Values) > 1:
			draft.Set(a.QuestionID, a.Type, model.MultiAnswer(a.Values...))
		case len(a.Values) == 1:
			draft.Set(a.QuestionID, a.Type, model.ScalarAnswer(a.Values[0]))
		}
	}
	return draft
}

// Persist writes the draft to the session store under the form's draft key.
// Persisting an empty draft is a no-op: a stale render must never erase a
// previously persisted non-empty draft.
func (s *DraftService) Persist(ctx context.Context, sessionID, formID string, draft *model.ResponseDraft) error {
	if sessionID == "" || draft.IsEmpty() {
		return nil
	}
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return s.sessions.Set(ctx, sessionID, session.DraftKey(formID), string(data))
}

// Restore reads back a previously persisted draft, or nil if none exists.
// Restoring twice yields the same draft.
func (s *DraftService) Restore(ctx context.Context, sessionID, formID string) (*model.ResponseDraft, error) {
	if sessionID == "" {
		return nil, nil
	}
	data, err := s.sessions.Get(ctx, sessionID, session.DraftKey(formID))
	if err != nil {
		return nil, err
	}
	if data == "" {
		return nil, nil
	}
	var draft model.ResponseDraft
	if err := json.Unmarshal([]byte(data), &draft); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &draft, nil
}

// Clear removes the persisted draft for a form.
func (s *DraftService) Clear(ctx context.Context, sessionID, formID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID, session.DraftKey(formID))
}

// Validate checks the draft against question-level rules. Client-side
// convenience only, not a trust boundary: the backend revalidates. The draft
// is never mutated here.
func (s *DraftService) Validate(form *model.FormDefinition, draft *model.ResponseDraft) []model.FieldError {
	var errs []model.FieldError

	for _, q := range form.Questions {
		value, ok := draft.Get(q.ID)
		if !ok || value.IsEmpty() {
			if q.Required {
				errs = append(errs, model.FieldError{QuestionID: q.ID, Reason: "answer is required"})
			}
			continue
		}

		switch q.Type {
		case model.QuestionTypeNumericScale:
			errs = append(errs, validateNumeric(q, value)...)
		case model.QuestionTypeFreeText:
			errs = append(errs, validateFreeText(q, value)...)
		}
	}

	return errs
}

func validateNumeric(q model.Question, value model.AnswerValue) []model.FieldError {
	n, err := strconv.ParseFloat(value.Value, 64)
	if err != nil {
		return []model.FieldError{{QuestionID: q.ID, Reason: "value is not a number"}}
	}
	if q.Validation == nil {
		return nil
	}
	if q.Validation.MinValue != nil && n < *q.Validation.MinValue {
		return []model.FieldError{{QuestionID: q.ID, Reason: fmt.Sprintf("value below minimum %v", *q.Validation.MinValue)}}
	}
	if q.Validation.MaxValue != nil && n > *q.Validation.MaxValue {
		return []model.FieldError{{QuestionID: q.ID, Reason: fmt.Sprintf("value above maximum %v", *q.Validation.MaxValue)}}
	}
	return nil
}

func validateFreeText(q model.Question, value model.AnswerValue) []model.FieldError {
	if q.Validation == nil {
		return nil
	}
	length := utf8.RuneCountInString(value.Value)
	if q.Validation.MinLength != nil && length < *q.Validation.MinLength {
		return []model.FieldError{{QuestionID: q.ID, Reason: fmt.Sprintf("answer shorter than %d characters", *q.Validation.MinLength)}}
	}
	if q.Validation.MaxLength != nil && length > *q.Validation.MaxLength {
		return []model.FieldError{{QuestionID: q.ID, Reason: fmt.Sprintf("answer longer than %d characters", *q.Validation.MaxLength)}}
	}
	return nil
}
