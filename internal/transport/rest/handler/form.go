package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"formgate/internal/backend"
	"formgate/internal/model"
	"formgate/internal/service"
	"formgate/internal/transport/rest/middleware"
)

// FormHandler exposes the form-viewing and submission workflow
type FormHandler struct {
	flowSvc    *service.FlowService
	backendCli *backend.Client
}

// NewFormHandler creates a new form handler
func NewFormHandler(flowSvc *service.FlowService, backendCli *backend.Client) *FormHandler {
	return &FormHandler{
		flowSvc:    flowSvc,
		backendCli: backendCli,
	}
}

// View handles GET /v1/forms/{formId}/view. It runs the full open sequence
// (load, evaluate, detect, restore draft) and returns the resulting flow
// state for the SPA to render.
func (h *FormHandler) View(w http.ResponseWriter, r *http.Request) {
	formID := mux.Vars(r)["formId"]
	sessionID := middleware.GetSessionID(r.Context())

	fs, err := h.flowSvc.Open(r.Context(), sessionID, formID)
	if err != nil {
		switch {
		case backend.IsNotFound(err):
			writeError(w, http.StatusNotFound, "form not found")
		case errors.Is(err, service.ErrFlowNotFound):
			writeError(w, http.StatusConflict, err.Error())
		default:
			// Load errors are non-retryable for the view: the SPA renders a
			// blocking screen with a single way out.
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, flowView(fs))
}

// PriorDecisionRequest is the request body for resolving the prior-response
// prompt.
type PriorDecisionRequest struct {
	Epoch  string `json:"epoch"`
	Action string `json:"action"` // "edit" or "new"
}

// ResolvePrior handles POST /v1/forms/{formId}/prior
func (h *FormHandler) ResolvePrior(w http.ResponseWriter, r *http.Request) {
	var req PriorDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fs, err := h.flowSvc.ResolvePrior(r.Context(), req.Epoch, req.Action)
	if err != nil {
		writeFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, flowView(fs))
}

// DraftAnswerUpdate is one answer change in a draft request.
type DraftAnswerUpdate struct {
	QuestionID int      `json:"questionId"`
	Kind       string   `json:"kind"` // "scalar" or "multi"
	Value      string   `json:"value,omitempty"`
	Values     []string `json:"values,omitempty"`
}

// DraftRequest is the request body for saving draft answers.
type DraftRequest struct {
	Epoch   string              `json:"epoch"`
	Answers []DraftAnswerUpdate `json:"answers"`
}

// SaveDraft handles PUT /v1/forms/{formId}/draft
func (h *FormHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updates := make([]service.DraftUpdate, 0, len(req.Answers))
	for _, a := range req.Answers {
		var value model.AnswerValue
		if a.Kind == string(model.AnswerMulti) {
			value = model.MultiAnswer(a.Values...)
		} else {
			value = model.ScalarAnswer(a.Value)
		}
		updates = append(updates, service.DraftUpdate{QuestionID: a.QuestionID, Value: value})
	}

	fs, err := h.flowSvc.SaveDraft(r.Context(), req.Epoch, updates)
	if err != nil {
		writeFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "saved", "epoch": fs.Epoch})
}

// SubmitRequest is the request body for submitting a form.
type SubmitRequest struct {
	Epoch string `json:"epoch"`
}

// Submit handles POST /v1/forms/{formId}/submit
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fs, err := h.flowSvc.Submit(r.Context(), req.Epoch)
	if err != nil {
		var validation *service.ValidationFailedError
		var denied *service.AccessDeniedError
		switch {
		case errors.As(err, &validation):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":  "validation failed",
				"fields": validation.Fields,
			})
		case errors.As(err, &denied):
			status := http.StatusForbidden
			if denied.Decision.Recoverable() {
				status = http.StatusUnauthorized
			}
			writeJSON(w, status, map[string]interface{}{
				"error":    "access denied",
				"decision": denied.Decision,
			})
		case backend.IsAuthRequired(err):
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"error":    err.Error(),
				"decision": model.AccessRequiresLogin,
			})
		case backend.IsConflict(err):
			writeError(w, http.StatusConflict, err.Error())
		case backend.IsNetwork(err):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			writeFlowError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":    fs.State,
		"response": fs.Result,
	})
}

// Abandon handles DELETE /v1/forms/{formId}/view. The pass is discarded and
// any in-flight completion for it is dropped.
func (h *FormHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	epoch := r.URL.Query().Get("epoch")
	if epoch == "" {
		writeError(w, http.StatusBadRequest, "epoch is required")
		return
	}
	h.flowSvc.Close(epoch)
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// Visit handles POST /v1/forms/{formId}/visit. The beacon is relayed off
// the request path; failures are logged by the client and never surface.
func (h *FormHandler) Visit(w http.ResponseWriter, r *http.Request) {
	formID := mux.Vars(r)["formId"]

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backend.DefaultTimeout)
		defer cancel()
		_ = h.backendCli.RecordVisit(ctx, formID)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

func writeFlowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrFlowNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidFlowState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnknownQuestion):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// flowView shapes a flow session for the SPA.
func flowView(fs *service.FlowSession) map[string]interface{} {
	view := map[string]interface{}{
		"epoch": fs.Epoch,
		"state": fs.State,
	}
	if fs.Decision != "" {
		view["decision"] = fs.Decision
	}
	if fs.State == service.StateBlocked {
		// Blocked screens never leak form content
		return view
	}
	if fs.Form != nil {
		view["form"] = fs.Form
	}
	if fs.Draft != nil {
		view["draft"] = fs.Draft
	}
	if fs.Prior != nil {
		view["priorResponse"] = map[string]interface{}{
			"exists":           true,
			"canEdit":          fs.CanEditPrior(),
			"canSubmitAnother": fs.CanSubmitAnother(),
		}
	}
	if len(fs.ValidationErrors) > 0 {
		view["validationErrors"] = fs.ValidationErrors
	}
	return view
}
