package chat

import (
	"bytes"
	"encoding/json"
)

// EmissionKind tells the caller which part of the reply changed.
type EmissionKind int

const (
	EmitNone EmissionKind = iota
	EmitContent
	EmitPlan
)

func (k EmissionKind) String() string {
	switch k {
	case EmitContent:
		return "content"
	case EmitPlan:
		return "plan"
	default:
		return "none"
	}
}

// Emission is the change produced by one reduction step.
// Plan is a private copy and may be retained by the receiver.
type Emission struct {
	Kind    EmissionKind
	Content string
	Plan    *Plan
}

// Changed reports whether the emission carries an update.
func (e Emission) Changed() bool {
	return e.Kind != EmitNone
}

// State is the assembler state for one turn.
type State struct {
	Content string
	Steps   []Step
	// Done is set once an error has been reported; later chunks are ignored.
	Done bool
	Err  error
}

// NewState returns the state of a turn before the stream opens: empty
// content and a single thinking step.
func NewState() State {
	return State{Steps: []Step{{State: StepThinking}}}
}

// Plan returns a copy of the current steps.
func (s State) Plan() *Plan {
	return &Plan{Steps: cloneSteps(s.Steps)}
}

// Reduce applies one chunk to the state. It never mutates the steps slice of
// the input state.
func Reduce(s State, c Chunk) (State, Emission, error) {
	if s.Done {
		return s, Emission{}, nil
	}

	if raw, ok := firstError(c.Errors); ok {
		err := upstreamErrorFrom(raw)
		s.Done = true
		s.Err = err
		return s, Emission{}, err
	}

	if len(c.Choices) == 0 {
		return s, Emission{}, nil
	}
	choice := c.Choices[0]

	switch {
	case choice.Message != nil:
		if choice.Message.IsTool() {
			return reduceTool(s, choice.Message)
		}
		// Legacy shape: the raw text sits in message.delta.
		if choice.Message.Delta == nil {
			return s, Emission{}, nil
		}
		return applyContent(s, *choice.Message.Delta)
	case choice.Delta != nil:
		if choice.Delta.IsTool() {
			return reduceTool(s, choice.Delta)
		}
		if choice.Delta.Content == nil {
			return s, Emission{}, nil
		}
		return applyContent(s, *choice.Delta.Content)
	default:
		return s, Emission{}, nil
	}
}

func applyContent(s State, fragment string) (State, Emission, error) {
	if fragment == "" {
		return s, Emission{}, nil
	}
	s.Content += fragment
	return s, Emission{Kind: EmitContent, Content: s.Content}, nil
}

func reduceTool(s State, d *ChunkDelta) (State, Emission, error) {
	if len(d.ToolCalls) > 0 {
		call := d.ToolCalls[0].OpenAI()
		steps := cloneSteps(s.Steps)
		if len(steps) == 0 || steps[len(steps)-1].State != StepThinking {
			steps = append(steps, Step{State: StepThinking})
		}
		tail := &steps[len(steps)-1]
		tail.State = StepStarted
		tail.ID = call.ID
		tail.ToolName = call.Function.Name
		tail.ToolInput = call.Function.Arguments
		tail.Definition = call.Function.Name
		s.Steps = steps
		return s, Emission{Kind: EmitPlan, Plan: s.Plan()}, nil
	}

	// Tool result: the first started or finished step with the same id and
	// tool name wins.
	for i, step := range s.Steps {
		if step.State == StepThinking {
			continue
		}
		if step.ID != d.ToolCallID || step.ToolName != d.Name {
			continue
		}
		steps := cloneSteps(s.Steps)
		steps[i].State = StepFinished
		steps[i].Evidence = str(d.Content)
		steps[i].Success = true
		s.Steps = steps
		return s, Emission{Kind: EmitPlan, Plan: s.Plan()}, nil
	}
	return s, Emission{}, nil
}

// firstError returns the first entry of errors when errors is an array whose
// first entry is truthy.
func firstError(errs json.RawMessage) (json.RawMessage, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(errs, &items); err != nil || len(items) == 0 {
		return nil, false
	}
	raw := bytes.TrimSpace(items[0])
	if !truthy(raw) {
		return nil, false
	}
	return raw, true
}

func cloneSteps(steps []Step) []Step {
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}

// Assembler accumulates the answer text and tool plan of one turn from raw
// event payloads.
type Assembler struct {
	state State
}

// NewAssembler returns an assembler seeded with a thinking step.
func NewAssembler() *Assembler {
	return &Assembler{state: NewState()}
}

// Start returns the emission announcing the seeded plan.
func (a *Assembler) Start() Emission {
	return Emission{Kind: EmitPlan, Plan: a.state.Plan()}
}

// Apply parses one event payload and reduces it into the state. Parse
// failures and upstream errors are terminal.
func (a *Assembler) Apply(data []byte) (Emission, error) {
	if a.state.Done {
		return Emission{}, nil
	}
	chunk, err := ParseChunk(data)
	if err != nil {
		a.state.Done = true
		a.state.Err = err
		return Emission{}, err
	}
	next, emission, err := Reduce(a.state, chunk)
	a.state = next
	return emission, err
}

// State returns the current state.
func (a *Assembler) State() State {
	s := a.state
	s.Steps = cloneSteps(s.Steps)
	return s
}

// Content returns the answer assembled so far.
func (a *Assembler) Content() string {
	return a.state.Content
}

// Err returns the terminal error, if any.
func (a *Assembler) Err() error {
	return a.state.Err
}
