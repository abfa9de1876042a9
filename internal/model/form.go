package model

import (
	"strings"
	"time"
)

// QuestionType defines the type of question. The string values are the wire
// names used by the form backend.
type QuestionType string

const (
	QuestionTypeFreeText     QuestionType = "texto_libre"
	QuestionTypeSingleChoice QuestionType = "opcion_multiple"
	QuestionTypeMultiChoice  QuestionType = "checkbox"
	QuestionTypeNumericScale QuestionType = "escala_numerica"
)

// MultiValued reports whether answers of this type carry multiple values.
func (t QuestionType) MultiValued() bool {
	return t == QuestionTypeMultiChoice
}

// Option is a selectable choice for single/multi choice questions.
type Option struct {
	Value string `json:"valor"`
	Label string `json:"texto"`
}

// Validation holds type-specific constraints. Length bounds apply to
// free-text questions, value bounds to numeric scales.
type Validation struct {
	MinLength *int     `json:"longitud_minima,omitempty"`
	MaxLength *int     `json:"longitud_maxima,omitempty"`
	MinValue  *float64 `json:"valor_minimo,omitempty"`
	MaxValue  *float64 `json:"valor_maximo,omitempty"`
}

// Question is one entry of a form. IDs are unique and stable within a form;
// Position drives rendering order and need not equal ID.
type Question struct {
	ID         int          `json:"id"`
	Type       QuestionType `json:"tipo"`
	Prompt     string       `json:"enunciado"`
	Required   bool         `json:"obligatorio"`
	Position   int          `json:"posicion"`
	Options    []Option     `json:"opciones,omitempty"`
	Validation *Validation  `json:"validaciones,omitempty"`
}

// AccessConfig is the form-level policy controlling visibility, login
// requirement, allowlist, deadline and resubmission rules.
type AccessConfig struct {
	IsPrivate               bool       `json:"privado"`
	RequiresLogin           bool       `json:"requerir_login"`
	IsPublic                bool       `json:"es_publico"`
	Deadline                *time.Time `json:"fecha_limite,omitempty"`
	SingleResponseOnly      bool       `json:"una_respuesta"`
	AllowEditingOwnResponse bool       `json:"permitir_edicion"`
	AuthorizedEmails        []string   `json:"correos_autorizados,omitempty"`
}

// EmailAuthorized reports whether email is on the allowlist. Comparison is
// case-insensitive. An empty allowlist admits any authenticated actor.
func (c AccessConfig) EmailAuthorized(email string) bool {
	if len(c.AuthorizedEmails) == 0 {
		return true
	}
	for _, allowed := range c.AuthorizedEmails {
		if strings.EqualFold(allowed, email) {
			return true
		}
	}
	return false
}

// FormDefinition is a form as served by the backend. Read-only to the
// gateway; re-fetched per view, never cached long-term.
type FormDefinition struct {
	ID           string       `json:"id"`
	Title        string       `json:"titulo"`
	Description  string       `json:"descripcion,omitempty"`
	Questions    []Question   `json:"preguntas"`
	AccessConfig AccessConfig `json:"configuracion"`
}

// QuestionByID finds a question by its id.
func (f *FormDefinition) QuestionByID(id int) *Question {
	for i := range f.Questions {
		if f.Questions[i].ID == id {
			return &f.Questions[i]
		}
	}
	return nil
}
