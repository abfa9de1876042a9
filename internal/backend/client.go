package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"formgate/internal/model"
)

// DefaultTimeout is the conservative network timeout applied to every
// backend call. Expiry is routed through the same failure path as any other
// transport error.
const DefaultTimeout = 15 * time.Second

// Client wraps the form backend REST API. Reads fail fast: no retry is ever
// performed here; retrying a write is a user decision, since submissions are
// not idempotent at this layer.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// errorBody is the backend's structured error shape.
type errorBody struct {
	Error string `json:"error"`
}

// LoadForm fetches a form definition. Returns a NOT_FOUND error if the
// backend reports the form missing, NETWORK on transport failure.
func (c *Client) LoadForm(ctx context.Context, formID string) (*model.FormDefinition, error) {
	var form model.FormDefinition
	if err := c.do(ctx, http.MethodGet, "/formularios/"+url.PathEscape(formID)+"/", nil, &form); err != nil {
		return nil, err
	}
	return &form, nil
}

// ListResponses fetches all stored responses for a form.
func (c *Client) ListResponses(ctx context.Context, formID string) ([]model.SubmittedResponse, error) {
	var responses []model.SubmittedResponse
	path := "/respuestas/?formulario=" + url.QueryEscape(formID)
	if err := c.do(ctx, http.MethodGet, path, nil, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

// CreateResponse submits a new response.
func (c *Client) CreateResponse(ctx context.Context, payload *model.ResponsePayload) (*model.SubmittedResponse, error) {
	var resp model.SubmittedResponse
	if err := c.do(ctx, http.MethodPost, "/respuestas/", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateResponse amends an existing response in place.
func (c *Client) UpdateResponse(ctx context.Context, responseID string, payload *model.ResponsePayload) (*model.SubmittedResponse, error) {
	var resp model.SubmittedResponse
	path := "/respuestas/" + url.PathEscape(responseID) + "/"
	if err := c.do(ctx, http.MethodPut, path, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordVisit fires the analytics beacon for a form view. Best effort: the
// caller is expected to ignore the error, it must never block the user flow.
func (c *Client) RecordVisit(ctx context.Context, formID string) error {
	err := c.do(ctx, http.MethodPost, "/formularios/"+url.PathEscape(formID)+"/visita/", nil, nil)
	if err != nil {
		log.Printf("[backend] visit beacon for form %s failed: %v", formID, err)
	}
	return err
}

// do performs one request and classifies every failure into a backend.Error.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindNetwork, Message: "encode request body", Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: "build request", Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Printf("[backend] %s %s", method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: fmt.Sprintf("%s %s failed", method, path), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: "read response body", Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(respBody) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return &Error{Kind: KindNetwork, Message: "decode response body", StatusCode: resp.StatusCode, Err: err}
		}
		return nil
	}

	message := backendMessage(respBody)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Message: message, StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusUnauthorized:
		return &Error{Kind: KindAuthRequired, Message: message, StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusConflict:
		return &Error{Kind: KindConflict, Message: message, StatusCode: resp.StatusCode}
	default:
		return &Error{Kind: KindBackend, Message: message, StatusCode: resp.StatusCode}
	}
}

// backendMessage extracts the structured {error} body if present, else falls
// back to a generic message.
func backendMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		return eb.Error
	}
	return "backend request failed"
}
