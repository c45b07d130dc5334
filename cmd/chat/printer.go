package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"jan-server/services/chat-ui/internal/domain/chat"
)

// printer writes the streaming reply of the current turn to a terminal. It
// prints only what changed since the previous snapshot.
type printer struct {
	out io.Writer

	mu      sync.Mutex
	printed int
	steps   map[string]chat.StepState
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out, steps: map[string]chat.StepState{}}
}

// begin resets the printer for a new turn.
func (p *printer) begin() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printed = 0
	p.steps = map[string]chat.StepState{}
}

// update is a session listener.
func (p *printer) update(msgs []chat.Message) {
	if len(msgs) == 0 || msgs[0].Role != chat.RoleAssistant {
		return
	}
	reply := msgs[0]

	p.mu.Lock()
	defer p.mu.Unlock()

	if reply.Plan != nil {
		for _, step := range reply.Plan.Steps {
			p.printStep(step)
		}
	}
	if len(reply.Content) > p.printed {
		fmt.Fprint(p.out, reply.Content[p.printed:])
		p.printed = len(reply.Content)
	}
}

func (p *printer) printStep(step chat.Step) {
	if step.State == chat.StepThinking || step.ID == "" {
		return
	}
	key := step.ID + "/" + step.ToolName
	if p.steps[key] == step.State {
		return
	}
	p.steps[key] = step.State

	switch step.State {
	case chat.StepStarted:
		fmt.Fprintf(p.out, "\n[tool] %s %s\n", step.ToolName, compact(step.ToolInput))
	case chat.StepFinished:
		fmt.Fprintf(p.out, "[done] %s: %s\n", step.ToolName, compact(step.Evidence))
	}
}

// finish terminates the streamed output of a turn.
func (p *printer) finish(reply chat.Message, render bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if reply.Aborted {
		fmt.Fprintln(p.out, "\n[aborted]")
		return
	}
	fmt.Fprintln(p.out)
	if !render || strings.TrimSpace(reply.Content) == "" {
		return
	}
	rendered, err := renderMarkdown(reply.Content)
	if err != nil {
		return
	}
	fmt.Fprint(p.out, "\n", rendered)
}

func renderMarkdown(content string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(content)
}

func compact(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 120 {
		return string(r[:117]) + "..."
	}
	return s
}
