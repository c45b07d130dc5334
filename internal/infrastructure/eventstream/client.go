package eventstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"jan-server/services/chat-ui/internal/domain/chat"
)

const (
	generatePath = "/api/generate"
	doneMarker   = "[DONE]"
)

// ErrAborted is returned when the stream is cancelled through its context.
var ErrAborted = errors.New("event stream aborted")

// Handlers are the lifecycle callbacks of one stream. All are optional.
// An error returned from OnOpen or OnMessage ends the stream with that error.
type Handlers struct {
	OnOpen    func(status int) error
	OnMessage func(Event) error
	OnError   func(error)
	OnClose   func()
}

// Client opens server-sent event streams against the chat gateway.
type Client struct {
	httpClient *resty.Client
	path       string
	log        zerolog.Logger
}

// NewClient creates an event stream client for the gateway at baseURL. No
// request timeout is set: a stream stays open for as long as the server
// keeps sending.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")),
		path:       generatePath,
		log:        log.With().Str("component", "eventstream").Logger(),
	}
}

// Stream posts body as JSON and dispatches every received event until the
// server closes the stream, a handler fails or ctx is cancelled.
func (c *Client) Stream(ctx context.Context, body any, h Handlers) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "text/event-stream").
		SetBody(body).
		SetDoNotParseResponse(true).
		Post(c.path)
	if err != nil {
		if ctx.Err() != nil {
			return ErrAborted
		}
		return c.fail(h, fmt.Errorf("open event stream: %w", err))
	}

	raw := resp.RawBody()
	defer raw.Close()

	if resp.IsError() {
		return c.fail(h, requestError(resp.StatusCode(), raw))
	}
	if h.OnOpen != nil {
		if err := h.OnOpen(resp.StatusCode()); err != nil {
			return c.fail(h, err)
		}
	}

	dec := NewDecoder(raw)
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return ErrAborted
			}
			return c.fail(h, fmt.Errorf("read event stream: %w", err))
		}
		if ev.Data == "" {
			continue
		}
		if ev.Data == doneMarker {
			break
		}
		if h.OnMessage != nil {
			if err := h.OnMessage(ev); err != nil {
				return c.fail(h, err)
			}
		}
	}

	if ctx.Err() != nil {
		return ErrAborted
	}
	if h.OnClose != nil {
		h.OnClose()
	}
	return nil
}

func (c *Client) fail(h Handlers, err error) error {
	c.log.Debug().Err(err).Msg("event stream failed")
	if h.OnError != nil {
		h.OnError(err)
	}
	return err
}

// requestError builds the error for a refused stream from the gateway's
// {"error": ...} body, or the raw text when the body is not JSON.
func requestError(status int, body io.Reader) error {
	raw, _ := io.ReadAll(io.LimitReader(body, 64*1024))
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &payload); err == nil && len(payload.Error) > 0 {
		var s string
		if json.Unmarshal(payload.Error, &s) == nil {
			msg = s
		} else {
			msg = string(payload.Error)
		}
	}
	return &chat.RequestError{StatusCode: status, Message: msg}
}
