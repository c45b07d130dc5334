// Package gatewayapi is the client side of the chat gateway's JSON routes.
package gatewayapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"jan-server/services/chat-ui/internal/domain/deployment"
	"jan-server/services/chat-ui/internal/domain/identity"
	"jan-server/services/chat-ui/internal/domain/theme"
)

// ErrorResponse is the body the gateway returns on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

type themeBody struct {
	Theme string `json:"theme"`
}

// Client calls the gateway routes. Cookies set by the gateway (the theme
// preference) are kept for the lifetime of the client.
type Client struct {
	httpClient *resty.Client
	log        zerolog.Logger
}

// NewClient creates a client for the gateway at baseURL.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		httpClient: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json").
			SetTimeout(timeout),
		log: log.With().Str("component", "gatewayapi").Logger(),
	}
}

// Deployment loads the deployment metadata. On failure it returns the
// fallback deployment together with the error.
func (c *Client) Deployment(ctx context.Context) (deployment.Deployment, error) {
	var d deployment.Deployment
	if err := c.get(ctx, "/api/deployment", &d); err != nil {
		c.log.Error().Err(err).Msg("Error while fetching deployment")
		return deployment.Fallback(), err
	}
	return d, nil
}

// Profile loads the signed-in user.
func (c *Client) Profile(ctx context.Context) (*identity.Profile, error) {
	var p identity.Profile
	if err := c.get(ctx, "/api/settings", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Theme reads the stored theme preference.
func (c *Client) Theme(ctx context.Context) (theme.Theme, error) {
	var body themeBody
	if err := c.get(ctx, "/api/theme", &body); err != nil {
		return theme.Default, err
	}
	return theme.FromCookie(body.Theme), nil
}

// SetTheme stores the theme preference.
func (c *Client) SetTheme(ctx context.Context, t theme.Theme) error {
	var errBody ErrorResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(themeBody{Theme: t.String()}).
		SetError(&errBody).
		Post("/api/theme")
	if err != nil {
		return fmt.Errorf("update theme: %w", err)
	}
	if resp.IsError() {
		return statusError(resp, errBody)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	var errBody ErrorResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&errBody).
		Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		return statusError(resp, errBody)
	}
	// Results are only decoded for JSON content types.
	if !strings.Contains(resp.Header().Get("Content-Type"), "json") {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("GET %s: decode response: %w", path, err)
		}
	}
	return nil
}

func statusError(resp *resty.Response, body ErrorResponse) error {
	msg := body.Error
	if msg == "" {
		msg = strings.TrimSpace(resp.String())
	}
	return fmt.Errorf("%s %s: status %d: %s", resp.Request.Method, resp.Request.URL, resp.StatusCode(), msg)
}
