package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"formgate/internal/model"
)

// A stand-in for the real form backend, for local development of the
// gateway. Serves one sample form and keeps submitted responses in memory.
func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	srv := newStubServer()

	r := mux.NewRouter()
	r.HandleFunc("/api/formularios/{id}/", srv.getForm).Methods("GET")
	r.HandleFunc("/api/formularios/{id}/visita/", srv.recordVisit).Methods("POST")
	r.HandleFunc("/api/respuestas/", srv.listResponses).Methods("GET")
	r.HandleFunc("/api/respuestas/", srv.createResponse).Methods("POST")
	r.HandleFunc("/api/respuestas/{id}/", srv.updateResponse).Methods("PUT")

	log.Printf("Stub form backend listening on :%s", port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}

type stubServer struct {
	mu        sync.Mutex
	form      model.FormDefinition
	responses []model.SubmittedResponse
	nextID    int
	visits    int
}

func newStubServer() *stubServer {
	deadline := time.Now().Add(30 * 24 * time.Hour)
	minVal, maxVal := 1.0, 10.0
	return &stubServer{
		nextID: 1,
		form: model.FormDefinition{
			ID:          "demo-form",
			Title:       "Customer satisfaction",
			Description: "Tell us how we did",
			Questions: []model.Question{
				{ID: 1, Type: model.QuestionTypeFreeText, Prompt: "What did you like most?", Required: true, Position: 1},
				{ID: 2, Type: model.QuestionTypeSingleChoice, Prompt: "Would you recommend us?", Required: true, Position: 2,
					Options: []model.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}}},
				{ID: 3, Type: model.QuestionTypeMultiChoice, Prompt: "Which features did you use?", Position: 3,
					Options: []model.Option{{Value: "a", Label: "Search"}, {Value: "b", Label: "Reports"}, {Value: "c", Label: "Export"}}},
				{ID: 4, Type: model.QuestionTypeNumericScale, Prompt: "Rate us 1-10", Position: 4,
					Validation: &model.Validation{MinValue: &minVal, MaxValue: &maxVal}},
			},
			AccessConfig: model.AccessConfig{
				Deadline:                &deadline,
				AllowEditingOwnResponse: true,
			},
		},
	}
}

func (s *stubServer) getForm(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id != s.form.ID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Formulario no encontrado."})
		return
	}
	writeJSON(w, http.StatusOK, s.form)
}

func (s *stubServer) recordVisit(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.visits++
	visits := s.visits
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"visitas": visits})
}

func (s *stubServer) listResponses(w http.ResponseWriter, r *http.Request) {
	formID := r.URL.Query().Get("formulario")
	if formID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Query param 'formulario' es requerido."})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.SubmittedResponse, 0, len(s.responses))
	for _, resp := range s.responses {
		if resp.FormID == formID {
			out = append(out, resp)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *stubServer) createResponse(w http.ResponseWriter, r *http.Request) {
	var payload model.ResponsePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cuerpo invalido"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	resp := model.SubmittedResponse{
		ID:                    strconv.Itoa(s.nextID),
		FormID:                payload.FormID,
		Respondent:            payload.Respondent,
		SubmittedAt:           &now,
		CompletionTimeSeconds: payload.CompletionTimeSeconds,
		Answers:               payload.Answers,
	}
	s.nextID++
	s.responses = append(s.responses, resp)
	writeJSON(w, http.StatusCreated, resp)
}

func (s *stubServer) updateResponse(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var payload model.ResponsePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cuerpo invalido"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.responses {
		if s.responses[i].ID == id {
			now := time.Now()
			s.responses[i].Respondent = payload.Respondent
			s.responses[i].Answers = payload.Answers
			s.responses[i].CompletionTimeSeconds = payload.CompletionTimeSeconds
			s.responses[i].SubmittedAt = &now
			writeJSON(w, http.StatusOK, s.responses[i])
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Respuesta no encontrada."})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
