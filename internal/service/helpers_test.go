package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"formgate/internal/backend"
	"formgate/internal/model"
)

// fakeBackend is an httptest double for the form backend collaborator.
type fakeBackend struct {
	mu sync.Mutex

	form       *model.FormDefinition
	formStatus int

	responses  []model.SubmittedResponse
	listStatus int

	createStatus  int
	createErrBody string

	listCalls   int
	createCalls int
	updateCalls int
	visitCalls  int

	lastPayload  *model.ResponsePayload
	lastUpdateID string
}

func newFakeBackend(form *model.FormDefinition) *fakeBackend {
	return &fakeBackend{form: form}
}

func (f *fakeBackend) start(t *testing.T) *backend.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(srv.Close)
	return backend.NewClient(srv.URL, 5*time.Second)
}

func (f *fakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/visita/"):
		f.visitCalls++
		writeStub(w, http.StatusOK, map[string]int{"visitas": f.visitCalls})

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/formularios/"):
		if f.formStatus != 0 {
			writeStub(w, f.formStatus, map[string]string{"error": "Formulario no encontrado."})
			return
		}
		writeStub(w, http.StatusOK, f.form)

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/respuestas/"):
		f.listCalls++
		if f.listStatus != 0 {
			writeStub(w, f.listStatus, map[string]string{"error": "backend unavailable"})
			return
		}
		writeStub(w, http.StatusOK, f.responses)

	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/respuestas/"):
		f.createCalls++
		var payload model.ResponsePayload
		json.NewDecoder(r.Body).Decode(&payload)
		f.lastPayload = &payload
		if f.createStatus != 0 {
			body := f.createErrBody
			if body == "" {
				body = "rejected"
			}
			writeStub(w, f.createStatus, map[string]string{"error": body})
			return
		}
		now := time.Now()
		writeStub(w, http.StatusCreated, model.SubmittedResponse{
			ID:          "r-1",
			FormID:      payload.FormID,
			Respondent:  payload.Respondent,
			SubmittedAt: &now,
			Answers:     payload.Answers,
		})

	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/respuestas/"):
		f.updateCalls++
		f.lastUpdateID = strings.Trim(strings.TrimPrefix(r.URL.Path, "/respuestas/"), "/")
		var payload model.ResponsePayload
		json.NewDecoder(r.Body).Decode(&payload)
		f.lastPayload = &payload
		writeStub(w, http.StatusOK, model.SubmittedResponse{
			ID:         f.lastUpdateID,
			FormID:     payload.FormID,
			Respondent: payload.Respondent,
			Answers:    payload.Answers,
		})

	default:
		writeStub(w, http.StatusNotFound, map[string]string{"error": "no route"})
	}
}

type backendActivity struct {
	listCalls    int
	createCalls  int
	updateCalls  int
	visitCalls   int
	lastPayload  *model.ResponsePayload
	lastUpdateID string
}

func (f *fakeBackend) snapshot() backendActivity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return backendActivity{
		listCalls:    f.listCalls,
		createCalls:  f.createCalls,
		updateCalls:  f.updateCalls,
		visitCalls:   f.visitCalls,
		lastPayload:  f.lastPayload,
		lastUpdateID: f.lastUpdateID,
	}
}

// recordingBroadcaster captures owner-channel events for assertions.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

type broadcastEvent struct {
	FormID  string
	Type    string
	Payload interface{}
}

func (b *recordingBroadcaster) BroadcastToOwner(formID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{FormID: formID, Type: msgType, Payload: payload})
}

func (b *recordingBroadcaster) DisconnectForm(formID string) {}

func (b *recordingBroadcaster) recorded() []broadcastEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]broadcastEvent, len(b.events))
	copy(out, b.events)
	return out
}

func writeStub(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// sampleForm builds an open public form with one question of each type.
// Question 1 is required free text, question 4 a 1-10 numeric scale.
func sampleForm(mutate ...func(*model.AccessConfig)) *model.FormDefinition {
	minVal, maxVal := 1.0, 10.0
	minLen, maxLen := 2, 100
	form := &model.FormDefinition{
		ID:    "form-1",
		Title: "Feedback",
		Questions: []model.Question{
			{ID: 1, Type: model.QuestionTypeFreeText, Prompt: "Thoughts?", Required: true, Position: 1,
				Validation: &model.Validation{MinLength: &minLen, MaxLength: &maxLen}},
			{ID: 2, Type: model.QuestionTypeSingleChoice, Prompt: "Recommend?", Position: 2,
				Options: []model.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}}},
			{ID: 3, Type: model.QuestionTypeMultiChoice, Prompt: "Features?", Position: 3,
				Options: []model.Option{{Value: "a", Label: "A"}, {Value: "b", Label: "B"}}},
			{ID: 4, Type: model.QuestionTypeNumericScale, Prompt: "Score?", Position: 4,
				Validation: &model.Validation{MinValue: &minVal, MaxValue: &maxVal}},
		},
	}
	for _, m := range mutate {
		m(&form.AccessConfig)
	}
	return form
}
