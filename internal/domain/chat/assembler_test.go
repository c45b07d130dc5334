package chat_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/chat-ui/internal/domain/chat"
)

func applyAll(t *testing.T, a *chat.Assembler, events ...string) []chat.Emission {
	t.Helper()
	var emissions []chat.Emission
	for _, ev := range events {
		emission, err := a.Apply([]byte(ev))
		require.NoError(t, err, "event %s", ev)
		if emission.Changed() {
			emissions = append(emissions, emission)
		}
	}
	return emissions
}

func TestAssembler_DeltaContent(t *testing.T) {
	a := chat.NewAssembler()
	emissions := applyAll(t, a,
		`{"choices":[{"delta":{"content":"Hel"}}]}`,
		`{"choices":[{"delta":{"content":"lo"}}]}`,
	)

	assert.Equal(t, "Hello", a.Content())
	require.Len(t, emissions, 2)
	assert.Equal(t, chat.EmitContent, emissions[0].Kind)
	assert.Equal(t, "Hel", emissions[0].Content)
	assert.Equal(t, "Hello", emissions[1].Content)
}

func TestAssembler_DeltaSkipsAbsentContent(t *testing.T) {
	a := chat.NewAssembler()
	emissions := applyAll(t, a,
		`{"choices":[{"delta":{"content":"a"}}]}`,
		`{"choices":[{"delta":{}}]}`,
		`{"choices":[{"delta":{"content":null}}]}`,
		`{"choices":[{"delta":{"content":""}}]}`,
		`{"choices":[{"delta":null}]}`,
		`{"choices":[]}`,
		`{}`,
		`{"choices":[{"delta":{"content":"b"}}]}`,
	)

	assert.Equal(t, "ab", a.Content())
	assert.Len(t, emissions, 2)
}

func TestAssembler_LegacyDeltaIsVerbatim(t *testing.T) {
	fragments := []string{"```go\n", "fmt.Println(", "\"hi\")", "\n``", "`", "  trailing  "}
	events := make([]string, 0, len(fragments))
	for _, f := range fragments {
		events = append(events, `{"choices":[{"message":{"role":"assistant","delta":`+quote(f)+`}}]}`)
	}

	a := chat.NewAssembler()
	applyAll(t, a, events...)

	assert.Equal(t, strings.Join(fragments, ""), a.Content())
}

func TestAssembler_LegacyWithoutDelta(t *testing.T) {
	a := chat.NewAssembler()
	emissions := applyAll(t, a, `{"choices":[{"message":{"role":"assistant"}}]}`)

	assert.Empty(t, emissions)
	assert.Empty(t, a.Content())
}

func TestAssembler_ToolStartAndEnd(t *testing.T) {
	a := chat.NewAssembler()
	emissions := applyAll(t, a,
		`{"choices":[{"delta":{"tool_calls":[{"id":"t1","type":"function","function":{"name":"search","arguments":"{\"q\":\"go\"}"}}]}}]}`,
		`{"choices":[{"delta":{"role":"tool","tool_call_id":"t1","name":"search","content":"3 results"}}]}`,
	)

	require.Len(t, emissions, 2)
	assert.Equal(t, chat.EmitPlan, emissions[0].Kind)
	assert.Equal(t, chat.StepStarted, emissions[0].Plan.Steps[0].State)

	steps := a.State().Steps
	require.Len(t, steps, 1)
	assert.Equal(t, chat.Step{
		State:      chat.StepFinished,
		ID:         "t1",
		ToolName:   "search",
		ToolInput:  `{"q":"go"}`,
		Definition: "search",
		Evidence:   "3 results",
		Success:    true,
	}, steps[0])
	assert.Empty(t, a.Content(), "tool events never change content")
}

func TestAssembler_LegacyToolMessages(t *testing.T) {
	a := chat.NewAssembler()
	applyAll(t, a,
		`{"choices":[{"message":{"tool_calls":[{"id":"t9","function":{"name":"lookup","arguments":"{}"}}]}}]}`,
		`{"choices":[{"message":{"role":"tool","tool_call_id":"t9","name":"lookup","content":"ok"}}]}`,
	)

	steps := a.State().Steps
	require.Len(t, steps, 1)
	assert.Equal(t, chat.StepFinished, steps[0].State)
	assert.Equal(t, "ok", steps[0].Evidence)
}

func TestAssembler_ToolStartAppendsAfterStartedStep(t *testing.T) {
	a := chat.NewAssembler()
	applyAll(t, a,
		`{"choices":[{"delta":{"tool_calls":[{"id":"t1","function":{"name":"a","arguments":""}}]}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"id":"t2","function":{"name":"b","arguments":""}}]}}]}`,
	)

	steps := a.State().Steps
	require.Len(t, steps, 2)
	assert.Equal(t, "t1", steps[0].ID)
	assert.Equal(t, "t2", steps[1].ID)
	for _, s := range steps {
		assert.Equal(t, chat.StepStarted, s.State)
	}
}

func TestAssembler_UnmatchedToolEndIsNoop(t *testing.T) {
	tests := []struct {
		name  string
		event string
	}{
		{"unknown id", `{"choices":[{"delta":{"role":"tool","tool_call_id":"nope","name":"search","content":"x"}}]}`},
		{"name mismatch", `{"choices":[{"delta":{"role":"tool","tool_call_id":"t1","name":"other","content":"x"}}]}`},
		{"no correlation", `{"choices":[{"delta":{"role":"tool","content":"x"}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := chat.NewAssembler()
			applyAll(t, a, `{"choices":[{"delta":{"tool_calls":[{"id":"t1","function":{"name":"search","arguments":""}}]}}]}`)
			before := a.State().Steps

			emission, err := a.Apply([]byte(tt.event))
			require.NoError(t, err)
			assert.False(t, emission.Changed())
			assert.Equal(t, before, a.State().Steps)
		})
	}
}

func TestAssembler_ToolEndFirstMatchWins(t *testing.T) {
	s := chat.State{Steps: []chat.Step{
		{State: chat.StepStarted, ID: "dup", ToolName: "search"},
		{State: chat.StepStarted, ID: "dup", ToolName: "search"},
	}}
	content := "first"
	next, emission, err := chat.Reduce(s, chat.Chunk{Choices: []chat.ChunkChoice{{
		Delta: &chat.ChunkDelta{Role: chat.RoleTool, ToolCallID: "dup", Name: "search", Content: &content},
	}}})

	require.NoError(t, err)
	assert.Equal(t, chat.EmitPlan, emission.Kind)
	assert.Equal(t, chat.StepFinished, next.Steps[0].State)
	assert.Equal(t, chat.StepStarted, next.Steps[1].State)
	// input state untouched
	assert.Equal(t, chat.StepStarted, s.Steps[0].State)
}

func TestAssembler_EmptyThinkingStepNotDuplicated(t *testing.T) {
	a := chat.NewAssembler()
	start := a.Start()
	require.Equal(t, chat.EmitPlan, start.Kind)
	require.Len(t, start.Plan.Steps, 1)
	assert.Equal(t, chat.StepThinking, start.Plan.Steps[0].State)

	applyAll(t, a, `{"choices":[{"delta":{"tool_calls":[{"id":"t1","function":{"name":"search"}}]}}]}`)
	steps := a.State().Steps
	require.Len(t, steps, 1, "tool start reuses the tail thinking step")
	assert.Equal(t, chat.StepStarted, steps[0].State)
}

func TestAssembler_ErrorsAreTerminal(t *testing.T) {
	tests := []struct {
		name    string
		event   string
		wantErr func(t *testing.T, err error)
	}{
		{
			name:  "structured error",
			event: `{"errors":[{"messageId":"m-1","code":"quota","message":"limit reached"}],"choices":[{"delta":{"content":"ignored"}}]}`,
			wantErr: func(t *testing.T, err error) {
				var ue *chat.UpstreamError
				require.True(t, errors.As(err, &ue))
				assert.Equal(t, "m-1", ue.MessageID)
				assert.Equal(t, "limit reached", ue.Message)
			},
		},
		{
			name:  "structured error with numeric code",
			event: `{"errors":[{"messageId":"m1","code":400,"message":"bad"}]}`,
			wantErr: func(t *testing.T, err error) {
				var ue *chat.UpstreamError
				require.True(t, errors.As(err, &ue))
				assert.Equal(t, "m1", ue.MessageID)
				assert.Equal(t, "400", ue.Code)
				assert.Equal(t, "bad", ue.Message)
			},
		},
		{
			name:  "generic error",
			event: `{"errors":["boom"]}`,
			wantErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, chat.ErrUnknownGenerate)
			},
		},
		{
			name:  "object without message id",
			event: `{"errors":[{"code":"x"}]}`,
			wantErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, chat.ErrUnknownGenerate)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := chat.NewAssembler()
			applyAll(t, a, `{"choices":[{"delta":{"content":"partial"}}]}`)

			emission, err := a.Apply([]byte(tt.event))
			require.Error(t, err)
			tt.wantErr(t, err)
			assert.False(t, emission.Changed())
			assert.Equal(t, "partial", a.Content())

			emission, err = a.Apply([]byte(`{"choices":[{"delta":{"content":" more"}}]}`))
			assert.NoError(t, err)
			assert.False(t, emission.Changed())
			assert.Equal(t, "partial", a.Content())
			assert.True(t, a.State().Done)
		})
	}
}

func TestAssembler_EmptyErrorsArrayIsIgnored(t *testing.T) {
	a := chat.NewAssembler()
	applyAll(t, a,
		`{"errors":[],"choices":[{"delta":{"content":"a"}}]}`,
		`{"errors":[null],"choices":[{"delta":{"content":"b"}}]}`,
	)
	assert.Equal(t, "ab", a.Content())
}

func TestAssembler_NonArrayErrorsAreIgnored(t *testing.T) {
	a := chat.NewAssembler()
	applyAll(t, a,
		`{"errors":"none","choices":[{"delta":{"content":"hi"}}]}`,
		`{"errors":{"messageId":"m1"},"choices":[{"delta":{"content":" there"}}]}`,
		`{"errors":[""],"choices":[{"delta":{"content":"!"}}]}`,
	)
	assert.Equal(t, "hi there!", a.Content())
	assert.NoError(t, a.Err())
}

func TestAssembler_ToolArgumentsAsJSONValue(t *testing.T) {
	tests := []struct {
		name      string
		arguments string
		want      string
	}{
		{"string", `"{\"q\": \"go\"}"`, `{"q": "go"}`},
		{"object", `{"q": "go", "n": 2}`, `{"q":"go","n":2}`},
		{"absent", `null`, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := chat.NewAssembler()
			emissions := applyAll(t, a,
				`{"choices":[{"delta":{"tool_calls":[{"id":"t1","type":"function","function":{"name":"search","arguments":`+tt.arguments+`}}]}}]}`,
			)

			require.Len(t, emissions, 1)
			steps := emissions[0].Plan.Steps
			require.Len(t, steps, 1)
			assert.Equal(t, chat.StepStarted, steps[0].State)
			assert.Equal(t, "search", steps[0].ToolName)
			assert.Equal(t, tt.want, steps[0].ToolInput)
		})
	}
}

func TestAssembler_MismatchedFieldTypeIsAbsent(t *testing.T) {
	a := chat.NewAssembler()
	applyAll(t, a,
		`{"choices":[{"delta":{"content":"a"}}]}`,
		`{"choices":[{"delta":{"content":42}}]}`,
		`{"choices":"later"}`,
		`{"choices":[{"delta":{"content":"b"}}]}`,
	)
	assert.Equal(t, "ab", a.Content())
}

func TestAssembler_MalformedJSON(t *testing.T) {
	a := chat.NewAssembler()
	applyAll(t, a, `{"choices":[{"delta":{"content":"ok"}}]}`)

	emission, err := a.Apply([]byte(`{"choices":[{"delta":`))
	require.Error(t, err)

	var pe *chat.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, `{"choices":[{"delta":`, pe.Data)
	assert.False(t, emission.Changed())
	assert.Equal(t, "ok", a.Content())
	assert.Equal(t, err, a.Err())
}

func TestAssembler_ContentConcatenationProperty(t *testing.T) {
	inputs := [][]string{
		{},
		{"a"},
		{"one ", "two ", "three"},
		{"\n", "\n\n", " "},
		{"日本", "語", "😀"},
	}

	for _, parts := range inputs {
		a := chat.NewAssembler()
		for _, p := range parts {
			_, err := a.Apply([]byte(`{"choices":[{"delta":{"content":` + quote(p) + `}}]}`))
			require.NoError(t, err)
		}
		assert.Equal(t, strings.Join(parts, ""), a.Content())
	}
}

func TestReduce_EmittedPlanIsACopy(t *testing.T) {
	s := chat.NewState()
	next, emission, err := chat.Reduce(s, chat.Chunk{Choices: []chat.ChunkChoice{{
		Delta: &chat.ChunkDelta{Role: chat.RoleTool, ToolCallID: "x", Name: "y"},
	}}})
	require.NoError(t, err)
	assert.False(t, emission.Changed())

	s2, emission, err := chat.Reduce(next, mustChunk(t, `{"choices":[{"delta":{"tool_calls":[{"id":"t1","function":{"name":"n"}}]}}]}`))
	require.NoError(t, err)
	emission.Plan.Steps[0].ToolName = "mutated"
	assert.Equal(t, "n", s2.Steps[0].ToolName)
}

func mustChunk(t *testing.T, raw string) chat.Chunk {
	t.Helper()
	c, err := chat.ParseChunk([]byte(raw))
	require.NoError(t, err)
	return c
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
