// Package gateway joins the token cache and the upstream deployment into the
// operations served to the browser client.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"jan-server/services/chat-ui/internal/domain/chat"
	"jan-server/services/chat-ui/internal/domain/deployment"
	"jan-server/services/chat-ui/internal/domain/identity"
	"jan-server/services/chat-ui/internal/utils/platformerrors"
)

// TokenSource yields a valid bearer token.
type TokenSource interface {
	Get(ctx context.Context) (string, error)
	// Invalidate drops the held token; the next Get refreshes it.
	Invalidate()
}

// Upstream is the AI service deployment.
type Upstream interface {
	GetDeployment(ctx context.Context, bearer string) (*deployment.Deployment, error)
	OpenStream(ctx context.Context, bearer string, req chat.GenerateRequest) (io.ReadCloser, error)
	Generate(ctx context.Context, bearer string, req chat.GenerateRequest) (json.RawMessage, error)
}

// Service is consumed by the HTTP handlers.
type Service interface {
	Deployment(ctx context.Context) (*deployment.Deployment, error)
	Profile(ctx context.Context) (*identity.Profile, error)
	OpenStream(ctx context.Context, req chat.GenerateRequest) (io.ReadCloser, error)
	Generate(ctx context.Context, req chat.GenerateRequest) (json.RawMessage, error)
}

type service struct {
	tokens   TokenSource
	upstream Upstream
	log      zerolog.Logger
}

// NewService builds the gateway service.
func NewService(tokens TokenSource, upstream Upstream, log zerolog.Logger) Service {
	return &service{
		tokens:   tokens,
		upstream: upstream,
		log:      log.With().Str("component", "gateway").Logger(),
	}
}

func (s *service) token(ctx context.Context) (string, error) {
	tok, err := s.tokens.Get(ctx)
	if err != nil {
		return "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "get bearer token")
	}
	return tok, nil
}

func (s *service) Deployment(ctx context.Context) (*deployment.Deployment, error) {
	tok, err := s.token(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.upstream.GetDeployment(ctx, tok)
	if err != nil {
		s.dropRejectedToken(err)
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "get deployment")
	}
	return d, nil
}

func (s *service) Profile(ctx context.Context) (*identity.Profile, error) {
	tok, err := s.token(ctx)
	if err != nil {
		return nil, err
	}
	p, err := identity.ProfileFromToken(tok)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, err.Error(), err, "")
	}
	return &p, nil
}

func (s *service) OpenStream(ctx context.Context, req chat.GenerateRequest) (io.ReadCloser, error) {
	tok, err := s.token(ctx)
	if err != nil {
		return nil, err
	}
	body, err := s.upstream.OpenStream(ctx, tok, req)
	if err != nil {
		s.dropRejectedToken(err)
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "open generation stream")
	}
	return body, nil
}

func (s *service) Generate(ctx context.Context, req chat.GenerateRequest) (json.RawMessage, error) {
	tok, err := s.token(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.upstream.Generate(ctx, tok, req)
	if err != nil {
		s.dropRejectedToken(err)
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "generate")
	}
	return out, nil
}

// dropRejectedToken invalidates the cached token when the deployment answered
// 401. The failing call is not retried.
func (s *service) dropRejectedToken(err error) {
	var pe *platformerrors.PlatformError
	if !errors.As(err, &pe) {
		return
	}
	if status, ok := pe.Context["status"].(int); ok && status == http.StatusUnauthorized {
		s.log.Warn().Msg("deployment rejected the bearer token, dropping it")
		s.tokens.Invalidate()
	}
}
