// ABOUTME: Uniform result envelope returned by every API call
// ABOUTME: Normalizes nested and bare payload shapes, including paginated lists

package client

import (
	"bytes"
	"encoding/json"
)

// Messages used when the failure is not attributable to the server
const (
	NetworkError        = "Network error"
	NetworkErrorMessage = "Failed to connect to server"
	DefaultError        = "An error occurred"
	DefaultErrorMessage = "Request failed"
)

// Result is the envelope every request resolves to. StatusCode is 0 only for
// transport-level failures.
type Result[T any] struct {
	Success    bool   `json:"success"`
	Data       *T     `json:"data,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// Failure returns the caller-visible reason for an unsuccessful result:
// Message, then Error, then fallback.
func (r Result[T]) Failure(fallback string) string {
	if r.Message != "" {
		return r.Message
	}
	if r.Error != "" {
		return r.Error
	}
	return fallback
}

// IsNetworkError reports whether the request never got a server response
func (r Result[T]) IsNetworkError() bool {
	return !r.Success && r.StatusCode == 0
}

// OK reports success with a payload
func (r Result[T]) OK() bool {
	return r.Success && r.Data != nil
}

func networkFailure[T any]() Result[T] {
	return Result[T]{
		Success:    false,
		Error:      NetworkError,
		Message:    NetworkErrorMessage,
		StatusCode: 0,
	}
}

// Page is a paginated list payload. It decodes from the wrapped form
// {data, page, per_page, total, message}, from a page nested under a second
// data key, or from a bare array. A bare array carries no count, so Total
// stays 0 (unknown).
type Page[T any] struct {
	Items   []T    `json:"data"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
	Total   int    `json:"total"`
	Message string `json:"message,omitempty"`
}

type pageWire struct {
	Data    json.RawMessage `json:"data"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
	Total   int             `json:"total"`
	Message string          `json:"message"`
}

// UnmarshalJSON implements json.Unmarshaler
func (p *Page[T]) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*p = Page[T]{Items: items}
		return nil
	}

	var w pageWire
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return err
	}

	data := bytes.TrimSpace(w.Data)
	if len(data) > 0 && data[0] == '{' {
		// Envelope around a page: {"success": true, "data": {"data": [...], ...}}
		return p.UnmarshalJSON(data)
	}

	var items []T
	if len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
	}
	*p = Page[T]{
		Items:   items,
		Page:    w.Page,
		PerPage: w.PerPage,
		Total:   w.Total,
		Message: w.Message,
	}
	return nil
}

// wholeBody marks payloads that decode from the full response body rather
// than from a nested data field
func (p *Page[T]) wholeBody() {}

type wholeBodyDecoder interface {
	wholeBody()
}

func decodesWholeBody[T any]() bool {
	var zero T
	_, ok := any(&zero).(wholeBodyDecoder)
	return ok
}

// errorBody covers the error shapes seen from the API, including {"detail": "..."}
type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message json.RawMessage `json:"message"`
	Detail  json.RawMessage `json:"detail"`
}

// text returns raw as a string when it holds a JSON string
func text(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func errorResult[T any](status int, raw []byte) Result[T] {
	res := Result[T]{
		Success:    false,
		Error:      DefaultError,
		Message:    DefaultErrorMessage,
		StatusCode: status,
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return res
	}
	if e := text(body.Error); e != "" {
		res.Error = e
	}
	if m := text(body.Message); m != "" {
		res.Message = m
	} else if d := text(body.Detail); d != "" {
		res.Message = d
	}
	return res
}

func successResult[T any](status int, raw []byte) (Result[T], bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Result[T]{Success: true, StatusCode: status}, true
	}
	if !json.Valid(trimmed) {
		return Result[T]{}, false
	}

	payload := trimmed
	message := ""
	if trimmed[0] == '{' {
		var envelope struct {
			Data    json.RawMessage `json:"data"`
			Message json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil {
			message = text(envelope.Message)
			nested := bytes.TrimSpace(envelope.Data)
			if !decodesWholeBody[T]() && len(nested) > 0 && !bytes.Equal(nested, []byte("null")) {
				payload = nested
			}
		}
	}

	var out T
	if err := json.Unmarshal(payload, &out); err != nil {
		// the server accepted the call; only the payload shape is unexpected
		return Result[T]{Success: true, Message: message, StatusCode: status}, true
	}
	return Result[T]{
		Success:    true,
		Data:       &out,
		Message:    message,
		StatusCode: status,
	}, true
}
