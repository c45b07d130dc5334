package chat

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownGenerate is reported for upstream errors without a message id.
var ErrUnknownGenerate = errors.New("unknown generate error")

// UpstreamError is a structured error reported inside the event stream.
type UpstreamError struct {
	MessageID string `json:"messageId"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("generate error %s: %s", e.MessageID, e.Message)
	}
	return "generate error " + e.MessageID
}

// ParseError is returned when an event payload is not valid JSON.
type ParseError struct {
	Data string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse event payload: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RequestError is returned when the generation endpoint refuses to open a stream.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("generate request failed with status %d: %s", e.StatusCode, e.Message)
}

// upstreamErrorFrom converts the first entry of an errors array. Any entry
// carrying a messageId is structured, whatever the types of its fields.
func upstreamErrorFrom(raw json.RawMessage) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || !truthy(fields["messageId"]) {
		return ErrUnknownGenerate
	}
	return &UpstreamError{
		MessageID: rawText(fields["messageId"]),
		Code:      rawText(fields["code"]),
		Message:   rawText(fields["message"]),
	}
}
