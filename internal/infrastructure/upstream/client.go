package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"jan-server/services/chat-ui/internal/config"
	"jan-server/services/chat-ui/internal/domain/chat"
	"jan-server/services/chat-ui/internal/domain/deployment"
	"jan-server/services/chat-ui/internal/domain/gateway"
	"jan-server/services/chat-ui/internal/infrastructure/metrics"
	"jan-server/services/chat-ui/internal/infrastructure/observability"
	"jan-server/services/chat-ui/internal/utils/platformerrors"
)

// deploymentResponse is the subset of the deployment resource we expose.
type deploymentResponse struct {
	Entity struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Custom      *struct {
			AvatarColor      string   `json:"avatar_color"`
			AvatarIcon       string   `json:"avatar_icon"`
			PlaceholderImage string   `json:"placeholder_image"`
			SampleQuestions  []string `json:"sample_questions"`
		} `json:"custom"`
	} `json:"entity"`
}

// Client talks to the AI service deployment.
type Client struct {
	httpClient   *resty.Client
	streamClient *resty.Client
	urls         endpoints
	log          zerolog.Logger
}

type endpoints struct {
	deployment string
	generate   string
	stream     string
}

// NewClient creates the upstream client. The stream client has no timeout so
// long generations are not cut off.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	return &Client{
		httpClient: resty.New().
			SetHeader("Accept", "application/json").
			SetTimeout(cfg.UpstreamTimeout),
		streamClient: resty.New(),
		urls: endpoints{
			deployment: cfg.DeploymentURL(),
			generate:   cfg.AIServiceURL(),
			stream:     cfg.AIServiceStreamURL(),
		},
		log: log.With().Str("component", "upstream").Logger(),
	}
}

// GetDeployment fetches the deployment metadata.
func (c *Client) GetDeployment(ctx context.Context, bearer string) (*deployment.Deployment, error) {
	ctx, span := observability.StartUpstreamSpan(ctx, "deployment", c.urls.deployment)
	defer span.End()

	var result deploymentResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(bearer).
		SetResult(&result).
		Get(c.urls.deployment)
	if err != nil {
		metrics.RecordUpstream("deployment", "error")
		observability.RecordError(span, err)
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"get deployment request failed", err, "")
	}
	metrics.RecordUpstream("deployment", strconv.Itoa(resp.StatusCode()))
	if resp.IsError() {
		err := platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"Unexpected response from get-deployment: "+strings.TrimSpace(resp.String()), nil, "",
			map[string]any{"status": resp.StatusCode()})
		observability.RecordError(span, err)
		return nil, err
	}

	d := &deployment.Deployment{
		Name:        result.Entity.Name,
		Description: result.Entity.Description,
	}
	if custom := result.Entity.Custom; custom != nil {
		d.AvatarColor = custom.AvatarColor
		d.AvatarIcon = custom.AvatarIcon
		d.PlaceholderImage = custom.PlaceholderImage
		d.SampleQuestions = custom.SampleQuestions
	}
	return d, nil
}

// OpenStream starts a streaming generation and returns the raw event-stream
// body. The caller must close it.
func (c *Client) OpenStream(ctx context.Context, bearer string, req chat.GenerateRequest) (io.ReadCloser, error) {
	ctx, span := observability.StartUpstreamSpan(ctx, "ai_service_stream", c.urls.stream)
	defer span.End()

	resp, err := c.streamClient.R().
		SetContext(ctx).
		SetAuthToken(bearer).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "text/event-stream").
		SetBody(req).
		SetDoNotParseResponse(true).
		Post(c.urls.stream)
	if err != nil {
		metrics.RecordUpstream("ai_service_stream", "error")
		observability.RecordError(span, err)
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"generation stream request failed", err, "")
	}
	metrics.RecordUpstream("ai_service_stream", strconv.Itoa(resp.StatusCode()))

	body := resp.RawBody()
	if resp.IsError() {
		defer body.Close()
		text, _ := io.ReadAll(body)
		err := platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			string(text), nil, "", map[string]any{"status": resp.StatusCode()})
		observability.RecordError(span, err)
		return nil, err
	}
	return body, nil
}

// Generate runs a non-streaming generation and returns the upstream JSON.
func (c *Client) Generate(ctx context.Context, bearer string, req chat.GenerateRequest) (json.RawMessage, error) {
	ctx, span := observability.StartUpstreamSpan(ctx, "ai_service", c.urls.generate)
	defer span.End()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(bearer).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.urls.generate)
	if err != nil {
		metrics.RecordUpstream("ai_service", "error")
		observability.RecordError(span, err)
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"generation request failed", err, "")
	}
	metrics.RecordUpstream("ai_service", strconv.Itoa(resp.StatusCode()))
	if resp.IsError() {
		err := platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			strings.TrimSpace(resp.String()), nil, "", map[string]any{"status": resp.StatusCode()})
		observability.RecordError(span, err)
		return nil, err
	}

	body := resp.Body()
	if !json.Valid(body) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("generation response is not JSON (%d bytes)", len(body)), nil, "")
	}
	return json.RawMessage(body), nil
}

var _ gateway.Upstream = (*Client)(nil)
