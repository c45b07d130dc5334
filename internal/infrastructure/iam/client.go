package iam

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"jan-server/services/chat-ui/internal/domain/token"
	"jan-server/services/chat-ui/internal/infrastructure/metrics"
	"jan-server/services/chat-ui/internal/utils/platformerrors"
)

const apiKeyGrantType = "urn:ibm:params:oauth:grant-type:apikey"

// TokenResponse is the identity provider answer to an API key exchange.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Expiration   int64  `json:"expiration"`
}

// Client exchanges a long-lived API key for short-lived bearer tokens.
type Client struct {
	httpClient *resty.Client
	tokenURL   string
	apiKey     string
	log        zerolog.Logger
}

// NewClient creates a Resty-backed identity provider client.
func NewClient(tokenURL, apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		httpClient: resty.New().
			SetHeader("Accept", "application/json").
			SetTimeout(timeout),
		tokenURL: tokenURL,
		apiKey:   apiKey,
		log:      log.With().Str("component", "iam").Logger(),
	}
}

// FetchToken implements token.Fetcher.
func (c *Client) FetchToken(ctx context.Context) (token.Token, error) {
	var result TokenResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type": apiKeyGrantType,
			"apikey":     c.apiKey,
		}).
		SetResult(&result).
		Post(c.tokenURL)
	if err != nil {
		metrics.RecordTokenRefresh("error")
		return token.Token{}, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"request token", err, "")
	}
	if resp.IsError() {
		metrics.RecordTokenRefresh("error")
		return token.Token{}, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeUnauthorized,
			fmt.Sprintf("token endpoint returned %d", resp.StatusCode()), nil, "",
			map[string]any{"body": strings.TrimSpace(resp.String())})
	}
	if result.AccessToken == "" {
		metrics.RecordTokenRefresh("error")
		return token.Token{}, token.ErrEmptyToken
	}

	metrics.RecordTokenRefresh("success")
	expiresAt := time.Unix(result.Expiration, 0)
	c.log.Debug().Time("expires_at", expiresAt).Msg("refreshed bearer token")
	return token.Token{AccessToken: result.AccessToken, ExpiresAt: expiresAt}, nil
}

var _ token.Fetcher = (*Client)(nil)
