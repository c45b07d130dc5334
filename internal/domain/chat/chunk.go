package chat

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/sashabaranov/go-openai"
)

// Chunk is one parsed event payload from the generation stream.
// Both the legacy "message" shape and the current "delta" shape are accepted.
// Errors is kept raw: only an array counts as an error report.
type Chunk struct {
	Errors  json.RawMessage `json:"errors,omitempty"`
	Choices []ChunkChoice   `json:"choices,omitempty"`
}

// ChunkChoice carries either a legacy message or a current delta.
type ChunkChoice struct {
	Message *ChunkDelta `json:"message,omitempty"`
	Delta   *ChunkDelta `json:"delta,omitempty"`
}

// ChunkDelta is the fragment of a choice. Legacy payloads put the text in
// Delta, current payloads in Content.
type ChunkDelta struct {
	Role       Role              `json:"role,omitempty"`
	Content    *string           `json:"content,omitempty"`
	Delta      *string           `json:"delta,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is a tool invocation announced in the stream. Arguments may be a
// JSON string or an inline JSON value.
type ToolCall struct {
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function ToolFunction `json:"function"`
}

// ToolFunction names the invoked tool and its arguments.
type ToolFunction struct {
	Name      string          `json:"name,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// OpenAI converts the call to the chat completion schema, flattening the
// arguments to text.
func (c ToolCall) OpenAI() openai.ToolCall {
	return openai.ToolCall{
		ID:   c.ID,
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      c.Function.Name,
			Arguments: rawText(c.Function.Arguments),
		},
	}
}

// IsTool reports whether the fragment is a tool start or a tool result.
func (d *ChunkDelta) IsTool() bool {
	return len(d.ToolCalls) > 0 || d.Role == RoleTool
}

// ParseChunk decodes a raw event payload. Only invalid JSON is an error; a
// field whose JSON type does not fit is treated as absent.
func ParseChunk(data []byte) (Chunk, error) {
	var chunk Chunk
	err := json.Unmarshal(data, &chunk)
	var typeErr *json.UnmarshalTypeError
	if err != nil && !errors.As(err, &typeErr) {
		return Chunk{}, &ParseError{Data: string(data), Err: err}
	}
	return chunk, nil
}

// rawText renders a raw JSON value as text: strings are unquoted, null is
// empty and anything else is kept as compact JSON.
func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// truthy mirrors a JavaScript truthiness test on a raw JSON value.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", "false", `""`, "0":
		return false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f != 0
	}
	return true
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
