package eventstream

import (
	"context"
	"errors"

	"jan-server/services/chat-ui/internal/domain/chat"
	"jan-server/services/chat-ui/internal/domain/session"
)

// Generator runs one turn: it streams the generation and feeds every event
// through a fresh assembler.
type Generator struct {
	client *Client
}

// NewGenerator wraps an event stream client.
func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

// Generate implements session.Generator. The seeded plan is reported before
// the stream opens. On failure no content is returned.
func (g *Generator) Generate(ctx context.Context, history []chat.Message, onUpdate func(chat.Emission)) (chat.Outcome, error) {
	assembler := chat.NewAssembler()
	notify := func(e chat.Emission) {
		if onUpdate != nil && e.Changed() {
			onUpdate(e)
		}
	}
	notify(assembler.Start())

	if history == nil {
		history = []chat.Message{}
	}
	err := g.client.Stream(ctx, chat.GenerateRequest{Messages: history}, Handlers{
		OnMessage: func(ev Event) error {
			emission, err := assembler.Apply([]byte(ev.Data))
			if err != nil {
				return err
			}
			notify(emission)
			return nil
		},
	})
	switch {
	case errors.Is(err, ErrAborted):
		return chat.Outcome{Content: assembler.Content(), Aborted: true}, nil
	case err != nil:
		return chat.Outcome{}, err
	}
	return chat.Outcome{Content: assembler.Content()}, nil
}

var _ session.Generator = (*Generator)(nil)
