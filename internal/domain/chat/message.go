// Package chat holds the conversation model and the streaming response assembler.
package chat

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Status is the render state of a message.
type Status string

const (
	StatusLoading Status = "loading" // Reply still streaming
	StatusReady   Status = "ready"
)

// StepState is the lifecycle of a plan step.
type StepState string

const (
	StepThinking StepState = "thinking"
	StepStarted  StepState = "started"
	StepFinished StepState = "finished"
)

// Step is one tool invocation or a thinking placeholder.
type Step struct {
	State      StepState `json:"state"`
	ID         string    `json:"id,omitempty"`
	ToolName   string    `json:"tool_name,omitempty"`
	ToolInput  string    `json:"tool_input,omitempty"`
	Definition string    `json:"definition,omitempty"`
	Evidence   string    `json:"evidence,omitempty"`
	Success    bool      `json:"success,omitempty"`
}

// Plan is the tool-use trace attached to an assistant reply.
type Plan struct {
	Steps []Step `json:"steps"`
}

// Clone returns a copy that shares no step storage with p.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	steps := make([]Step, len(p.Steps))
	copy(steps, p.Steps)
	return &Plan{Steps: steps}
}

// Message is one turn's content.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Status    Status    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Aborted   bool      `json:"aborted,omitempty"`
	Plan      *Plan     `json:"plan,omitempty"`
}

// Key identifies a message within a conversation.
type Key struct {
	Role      Role
	Timestamp time.Time
}

// Key returns the identity of the message.
func (m Message) Key() Key {
	return Key{Role: m.Role, Timestamp: m.Timestamp}
}

// Matches reports whether m is the message identified by k.
func (m Message) Matches(k Key) bool {
	return m.Role == k.Role && m.Timestamp.Equal(k.Timestamp)
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	m.Plan = m.Plan.Clone()
	return m
}

// IsLoading reports whether the message is the in-flight reply.
func (m Message) IsLoading() bool {
	return m.Status == StatusLoading
}

// GenerateRequest is the body sent to the generation endpoint.
type GenerateRequest struct {
	Messages []Message `json:"messages"`
}

// Outcome is the result of one streamed turn.
type Outcome struct {
	Content string
	Aborted bool
}
