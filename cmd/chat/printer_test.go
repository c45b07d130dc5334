package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/chat-ui/internal/domain/chat"
	"jan-server/services/chat-ui/internal/domain/session"
	"jan-server/services/chat-ui/internal/infrastructure/eventstream"
)

func reply(content string, steps ...chat.Step) []chat.Message {
	return []chat.Message{{Role: chat.RoleAssistant, Content: content, Status: chat.StatusLoading, Plan: &chat.Plan{Steps: steps}}}
}

func TestPrinter_PrintsOnlyNewText(t *testing.T) {
	var out bytes.Buffer
	p := newPrinter(&out)
	p.begin()

	p.update(reply("Hel"))
	p.update(reply("Hello"))
	p.update(reply("Hello"))

	assert.Equal(t, "Hello", out.String())
}

func TestPrinter_StepTransitions(t *testing.T) {
	var out bytes.Buffer
	p := newPrinter(&out)
	p.begin()

	started := chat.Step{State: chat.StepStarted, ID: "t1", ToolName: "search", ToolInput: `{"q": "go"}`}
	finished := started
	finished.State = chat.StepFinished
	finished.Evidence = "3 results"

	p.update(reply("", chat.Step{State: chat.StepThinking}))
	p.update(reply("", started))
	p.update(reply("", started))
	p.update(reply("", finished))

	assert.Equal(t, "\n[tool] search {\"q\": \"go\"}\n[done] search: 3 results\n", out.String())
}

func TestPrinter_IgnoresUserHead(t *testing.T) {
	var out bytes.Buffer
	p := newPrinter(&out)
	p.update([]chat.Message{{Role: chat.RoleUser, Content: "hi"}})
	p.update(nil)
	assert.Empty(t, out.String())
}

func TestPrinter_FinishAborted(t *testing.T) {
	var out bytes.Buffer
	p := newPrinter(&out)
	p.finish(chat.Message{Role: chat.RoleAssistant, Content: "part", Aborted: true}, true)
	assert.Equal(t, "\n[aborted]\n", out.String())
}

func TestRepl(t *testing.T) {
	turns := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		turns++
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"answer %d\"}}]}\n\n", turns)
	}))
	defer srv.Close()

	sess := session.New(eventstream.NewGenerator(eventstream.NewClient(srv.URL, zerolog.Nop())), zerolog.Nop())
	var out bytes.Buffer
	p := newPrinter(&out)
	unsubscribe := sess.Subscribe(p.update)
	defer unsubscribe()

	in := strings.NewReader("first\n\nsecond\n/new\n/quit\nignored\n")
	require.NoError(t, repl(context.Background(), sess, p, in, &out, false))

	assert.Equal(t, 2, turns)
	assert.Contains(t, out.String(), "answer 1\n")
	assert.Contains(t, out.String(), "answer 2\n")
	assert.Contains(t, out.String(), "(new chat)")
	assert.Empty(t, sess.Messages())
}

func TestCompact_TruncatesOnRuneBoundary(t *testing.T) {
	in := strings.Repeat("héllo wörld ", 20)
	out := compact(in)

	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, 120, utf8.RuneCountInString(out))
	assert.True(t, strings.HasSuffix(out, "..."))

	short := "  naïve   input "
	assert.Equal(t, "naïve input", compact(short))
}
