package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"formgate/internal/backend"
	"formgate/internal/model"
)

// FlowState is the per-form-viewing-session state machine position.
type FlowState string

const (
	StateLoading          FlowState = "loading"
	StateEvaluating       FlowState = "evaluating"
	StateBlocked          FlowState = "blocked"
	StateViewing          FlowState = "viewing"
	StateViewingWithPrior FlowState = "viewing_with_prior_response"
	StateSubmitting       FlowState = "submitting"
	StateSubmitted        FlowState = "submitted"
	StateFailed           FlowState = "failed"
)

// FlowSession is one actor's pass through a form: load, evaluate, detect,
// draft, submit. The epoch uniquely identifies the pass; opening the same
// form again in the same session supersedes the older pass, so completions
// arriving for a stale epoch are discarded. Operations on one session are
// serialized by mu: a debounced draft save and a submit can land on the same
// epoch concurrently.
type FlowSession struct {
	Epoch     string
	FormID    string
	SessionID string

	mu sync.Mutex

	State    FlowState
	Decision model.AccessDecision
	Form     *model.FormDefinition
	Identity model.Identity
	Prior    *model.SubmittedResponse
	Draft    *model.ResponseDraft
	Result   *model.SubmittedResponse

	ValidationErrors []model.FieldError
	LastError        string
	StartedAt        time.Time

	amendRequested bool
}

// CanEditPrior reports whether the prior-response prompt may offer editing.
func (fs *FlowSession) CanEditPrior() bool {
	return fs.Prior != nil && fs.Form != nil && fs.Form.AccessConfig.AllowEditingOwnResponse
}

// CanSubmitAnother reports whether the prior-response prompt may offer a
// fresh submission.
func (fs *FlowSession) CanSubmitAnother() bool {
	return fs.Prior != nil && fs.Form != nil && !fs.Form.AccessConfig.SingleResponseOnly
}

// DraftUpdate is one answer change applied to a flow's draft.
type DraftUpdate struct {
	QuestionID int
	Value      model.AnswerValue
}

// FlowService orchestrates the submission workflow with strict sequencing:
// load, then evaluate, then detect. Detection never runs once evaluation
// blocked the actor, and results of calls that outlive their session are
// discarded.
type FlowService struct {
	backend   *backend.Client
	identity  *IdentityService
	access    *AccessService
	detector  *DetectorService
	drafts    *DraftService
	submitter *SubmitService

	clock func() time.Time

	mu       sync.Mutex
	sessions map[string]*FlowSession // epoch -> session
	current  map[string]string       // sessionID|formID -> live epoch
}

// NewFlowService creates a new flow orchestrator.
func NewFlowService(
	client *backend.Client,
	identity *IdentityService,
	access *AccessService,
	detector *DetectorService,
	drafts *DraftService,
	submitter *SubmitService,
) *FlowService {
	return &FlowService{
		backend:   client,
		identity:  identity,
		access:    access,
		detector:  detector,
		drafts:    drafts,
		submitter: submitter,
		clock:     time.Now,
		sessions:  make(map[string]*FlowSession),
		current:   make(map[string]string),
	}
}

// SetClock overrides the time source.
func (s *FlowService) SetClock(clock func() time.Time) {
	s.clock = clock
}

func pairKey(sessionID, formID string) string {
	return sessionID + "|" + formID
}

func (s *FlowService) track(fs *FlowSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[fs.Epoch] = fs
	if fs.SessionID != "" {
		if old, ok := s.current[pairKey(fs.SessionID, fs.FormID)]; ok {
			delete(s.sessions, old)
		}
		s.current[pairKey(fs.SessionID, fs.FormID)] = fs.Epoch
	}
}

func (s *FlowService) untrack(fs *FlowSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, fs.Epoch)
	if fs.SessionID != "" && s.current[pairKey(fs.SessionID, fs.FormID)] == fs.Epoch {
		delete(s.current, pairKey(fs.SessionID, fs.FormID))
	}
}

// live reports whether the session is still the current pass for its form.
func (s *FlowService) live(fs *FlowSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[fs.Epoch]
	return ok
}

func (s *FlowService) lookup(epoch string) (*FlowSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs, ok := s.sessions[epoch]
	if !ok {
		return nil, ErrFlowNotFound
	}
	return fs, nil
}

// Open starts a new pass through a form: Loading -> Evaluating ->
// Blocked/Viewing. Returns the session even when it ends Blocked or Failed
// so callers can render the terminal screen.
func (s *FlowService) Open(ctx context.Context, sessionID, formID string) (*FlowSession, error) {
	fs := &FlowSession{
		Epoch:     uuid.New().String(),
		FormID:    formID,
		SessionID: sessionID,
		State:     StateLoading,
		StartedAt: s.clock(),
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	s.track(fs)

	form, err := s.backend.LoadForm(ctx, formID)
	if err != nil {
		fs.State = StateFailed
		fs.LastError = err.Error()
		s.untrack(fs)
		return fs, err
	}
	if !s.live(fs) {
		return nil, ErrFlowNotFound
	}

	fs.Form = form
	fs.State = StateEvaluating
	fs.Identity = s.identity.Resolve(ctx, sessionID)

	decision := s.access.Evaluate(form, fs.Identity, s.clock())
	fs.Decision = decision
	if decision.Blocked() {
		fs.State = StateBlocked
		return fs, nil
	}

	// Analytics beacon, detached from the request: a beacon failure must
	// never block the view.
	go func(formID string) {
		beaconCtx, cancel := context.WithTimeout(context.Background(), backend.DefaultTimeout)
		defer cancel()
		_ = s.backend.RecordVisit(beaconCtx, formID)
	}(formID)

	prior := s.detector.FindExisting(ctx, formID, fs.Identity)
	if !s.live(fs) {
		return nil, ErrFlowNotFound
	}
	fs.Prior = prior

	if restored, err := s.drafts.Restore(ctx, sessionID, formID); err == nil && restored != nil {
		fs.Draft = restored
	} else {
		if err != nil {
			log.Printf("[flow] restoring draft for form %s failed: %v", formID, err)
		}
		fs.Draft = model.NewDraft()
	}

	switch {
	case prior == nil:
		fs.State = StateViewing
	case !fs.CanEditPrior() && !fs.CanSubmitAnother():
		fs.State = StateBlocked
		fs.Decision = model.AccessAlreadyResponded
	default:
		fs.State = StateViewingWithPrior
	}

	return fs, nil
}

// ResolvePrior answers the decision prompt shown when a prior response was
// detected: "edit" preloads the prior answers for amending, "new" starts a
// fresh submission.
func (s *FlowService) ResolvePrior(ctx context.Context, epoch, action string) (*FlowSession, error) {
	fs, err := s.lookup(epoch)
	if err != nil {
		return nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.State != StateViewingWithPrior {
		return fs, ErrInvalidFlowState
	}

	switch action {
	case "edit":
		if !fs.CanEditPrior() {
			return fs, ErrInvalidFlowState
		}
		fs.Draft = s.drafts.Preload(fs.Prior)
		fs.amendRequested = true
	case "new":
		if !fs.CanSubmitAnother() {
			return fs, ErrInvalidFlowState
		}
		fs.Draft = model.NewDraft()
		fs.amendRequested = false
	default:
		return fs, ErrInvalidFlowState
	}

	fs.State = StateViewing
	return fs, nil
}

// SaveDraft applies answer updates and persists the draft so it survives a
// navigation away for authentication. The prior-response prompt must be
// resolved before input is accepted.
func (s *FlowService) SaveDraft(ctx context.Context, epoch string, updates []DraftUpdate) (*FlowSession, error) {
	fs, err := s.lookup(epoch)
	if err != nil {
		return nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.State != StateViewing && fs.State != StateFailed {
		return fs, ErrInvalidFlowState
	}

	for _, u := range updates {
		q := fs.Form.QuestionByID(u.QuestionID)
		if q == nil {
			return fs, ErrUnknownQuestion
		}
		fs.Draft.Set(q.ID, q.Type, u.Value)
	}

	if err := s.drafts.Persist(ctx, fs.SessionID, fs.FormID, fs.Draft); err != nil {
		return fs, err
	}
	return fs, nil
}

// Submit runs the Viewing -> Submitting transition: validation first, then
// the dispatcher. A retryable failure returns the session to a state the
// user can resubmit from; a 401 blocks with RequiresLogin and keeps the
// draft persisted.
func (s *FlowService) Submit(ctx context.Context, epoch string) (*FlowSession, error) {
	fs, err := s.lookup(epoch)
	if err != nil {
		return nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.State != StateViewing && fs.State != StateFailed {
		return fs, ErrInvalidFlowState
	}

	if fieldErrs := s.drafts.Validate(fs.Form, fs.Draft); len(fieldErrs) > 0 {
		fs.ValidationErrors = fieldErrs
		return fs, &ValidationFailedError{Fields: fieldErrs}
	}
	fs.ValidationErrors = nil
	fs.State = StateSubmitting

	// Identity may have changed since load (login completed in another tab).
	fs.Identity = s.identity.Resolve(ctx, fs.SessionID)

	completion := int(s.clock().Sub(fs.StartedAt).Seconds())
	resp, err := s.submitter.Submit(ctx, SubmitInput{
		Form:                  fs.Form,
		Draft:                 fs.Draft,
		Identity:              fs.Identity,
		Prior:                 fs.Prior,
		AmendRequested:        fs.amendRequested,
		CompletionTimeSeconds: completion,
		SessionID:             fs.SessionID,
	})
	if !s.live(fs) {
		return nil, ErrFlowNotFound
	}
	if err != nil {
		var denied *AccessDeniedError
		switch {
		case errors.As(err, &denied):
			fs.State = StateBlocked
			fs.Decision = denied.Decision
		case backend.IsAuthRequired(err):
			fs.State = StateBlocked
			fs.Decision = model.AccessRequiresLogin
		default:
			fs.State = StateFailed
			fs.LastError = err.Error()
		}
		return fs, err
	}

	fs.State = StateSubmitted
	fs.Result = resp
	s.untrack(fs)
	return fs, nil
}

// Close discards a pass, typically when the actor navigates away. Any
// in-flight completion for the epoch will be dropped.
func (s *FlowService) Close(epoch string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fs, ok := s.sessions[epoch]; ok {
		delete(s.sessions, epoch)
		if fs.SessionID != "" && s.current[pairKey(fs.SessionID, fs.FormID)] == epoch {
			delete(s.current, pairKey(fs.SessionID, fs.FormID))
		}
	}
}
