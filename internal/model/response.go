package model

import "time"

// AnswerKind discriminates scalar from multi-valued answers. The kind is
// fixed by the question type, never inferred from value counts at use sites.
type AnswerKind string

const (
	AnswerScalar AnswerKind = "scalar"
	AnswerMulti  AnswerKind = "multi"
)

// AnswerValue is a tagged union: a single string for scalar answers or an
// ordered list for multi-choice answers.
type AnswerValue struct {
	Kind   AnswerKind `json:"kind"`
	Value  string     `json:"value,omitempty"`
	Values []string   `json:"values,omitempty"`
}

// ScalarAnswer wraps a single value.
func ScalarAnswer(value string) AnswerValue {
	return AnswerValue{Kind: AnswerScalar, Value: value}
}

// MultiAnswer wraps an ordered list of values.
func MultiAnswer(values ...string) AnswerValue {
	return AnswerValue{Kind: AnswerMulti, Values: values}
}

// IsEmpty reports whether the answer carries no content.
func (v AnswerValue) IsEmpty() bool {
	if v.Kind == AnswerMulti {
		return len(v.Values) == 0
	}
	return v.Value == ""
}

// Flatten returns the wire representation: always a list of strings.
func (v AnswerValue) Flatten() []string {
	if v.Kind == AnswerMulti {
		return v.Values
	}
	return []string{v.Value}
}

// DraftAnswer pairs an answer value with the question type it was captured
// for, so the wire tipo survives persist/restore round-trips.
type DraftAnswer struct {
	Type  QuestionType `json:"tipo"`
	Value AnswerValue  `json:"valor"`
}

// ResponseDraft holds in-progress answers keyed by question id. Created empty
// when a form is opened, mutated on input, cleared on successful submission.
type ResponseDraft struct {
	Answers map[int]DraftAnswer `json:"answers"`
}

// NewDraft creates an empty draft.
func NewDraft() *ResponseDraft {
	return &ResponseDraft{Answers: make(map[int]DraftAnswer)}
}

// Set stores or replaces the answer for a question.
func (d *ResponseDraft) Set(questionID int, qType QuestionType, value AnswerValue) {
	if d.Answers == nil {
		d.Answers = make(map[int]DraftAnswer)
	}
	d.Answers[questionID] = DraftAnswer{Type: qType, Value: value}
}

// Get returns the answer for a question, if any.
func (d *ResponseDraft) Get(questionID int) (AnswerValue, bool) {
	a, ok := d.Answers[questionID]
	if !ok {
		return AnswerValue{}, false
	}
	return a.Value, true
}

// IsEmpty reports whether the draft holds no non-empty answers.
func (d *ResponseDraft) IsEmpty() bool {
	if d == nil {
		return true
	}
	for _, a := range d.Answers {
		if !a.Value.IsEmpty() {
			return false
		}
	}
	return true
}

// FieldError describes one validation failure, keyed by question id.
type FieldError struct {
	QuestionID int    `json:"questionId"`
	Reason     string `json:"reason"`
}

// Respondent identifies who submitted a response, in backend wire format.
// ip_address is always present; identity fields are omitted when absent,
// never sent as empty strings.
type Respondent struct {
	ID        string `json:"id,omitempty"`
	IPAddress string `json:"ip_address"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"nombre,omitempty"`
	GoogleID  string `json:"google_id,omitempty"`
}

// SubmittedAnswer is one answered question in backend wire format.
type SubmittedAnswer struct {
	QuestionID int          `json:"pregunta_id"`
	Type       QuestionType `json:"tipo"`
	Values     []string     `json:"valor"`
}

// ResponsePayload is the body sent to the backend on create and amend.
type ResponsePayload struct {
	FormID                string            `json:"formulario"`
	Respondent            Respondent        `json:"respondedor"`
	CompletionTimeSeconds int               `json:"tiempo_completacion"`
	Answers               []SubmittedAnswer `json:"respuestas"`
}

// SubmittedResponse is a stored response as returned by the backend.
type SubmittedResponse struct {
	ID                    string            `json:"id"`
	FormID                string            `json:"formulario"`
	Respondent            Respondent        `json:"respondedor"`
	SubmittedAt           *time.Time        `json:"fecha_envio,omitempty"`
	CompletionTimeSeconds int               `json:"tiempo_completacion"`
	Answers               []SubmittedAnswer `json:"respuestas"`
}
