package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/chat-ui/internal/domain/chat"
	"jan-server/services/chat-ui/internal/domain/deployment"
	"jan-server/services/chat-ui/internal/domain/gateway"
	"jan-server/services/chat-ui/internal/domain/token"
	"jan-server/services/chat-ui/internal/utils/platformerrors"
)

type MockTokenSource struct {
	GetFunc         func(ctx context.Context) (string, error)
	InvalidateCalls int
}

func (m *MockTokenSource) Get(ctx context.Context) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	return "tok", nil
}

func (m *MockTokenSource) Invalidate() {
	m.InvalidateCalls++
}

type MockUpstream struct {
	GetDeploymentFunc func(ctx context.Context, bearer string) (*deployment.Deployment, error)
	OpenStreamFunc    func(ctx context.Context, bearer string, req chat.GenerateRequest) (io.ReadCloser, error)
	GenerateFunc      func(ctx context.Context, bearer string, req chat.GenerateRequest) (json.RawMessage, error)
}

func (m *MockUpstream) GetDeployment(ctx context.Context, bearer string) (*deployment.Deployment, error) {
	if m.GetDeploymentFunc != nil {
		return m.GetDeploymentFunc(ctx, bearer)
	}
	return nil, nil
}

func (m *MockUpstream) OpenStream(ctx context.Context, bearer string, req chat.GenerateRequest) (io.ReadCloser, error) {
	if m.OpenStreamFunc != nil {
		return m.OpenStreamFunc(ctx, bearer, req)
	}
	return nil, nil
}

func (m *MockUpstream) Generate(ctx context.Context, bearer string, req chat.GenerateRequest) (json.RawMessage, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, bearer, req)
	}
	return nil, nil
}

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return raw
}

func TestService_DeploymentUsesBearer(t *testing.T) {
	up := &MockUpstream{
		GetDeploymentFunc: func(ctx context.Context, bearer string) (*deployment.Deployment, error) {
			assert.Equal(t, "tok", bearer)
			return &deployment.Deployment{Name: "Helper"}, nil
		},
	}
	svc := gateway.NewService(&MockTokenSource{}, up, zerolog.Nop())

	d, err := svc.Deployment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Helper", d.Name)
}

func TestService_TokenFailureStopsCall(t *testing.T) {
	called := false
	tokens := &MockTokenSource{GetFunc: func(ctx context.Context) (string, error) {
		return "", errors.New("iam unavailable")
	}}
	up := &MockUpstream{
		OpenStreamFunc: func(ctx context.Context, bearer string, req chat.GenerateRequest) (io.ReadCloser, error) {
			called = true
			return nil, nil
		},
	}
	svc := gateway.NewService(tokens, up, zerolog.Nop())

	_, err := svc.OpenStream(context.Background(), chat.GenerateRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iam unavailable")
	assert.False(t, called)
}

func TestService_UpstreamErrorKeepsType(t *testing.T) {
	up := &MockUpstream{
		OpenStreamFunc: func(ctx context.Context, bearer string, req chat.GenerateRequest) (io.ReadCloser, error) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "rate limited", nil, "")
		},
	}
	svc := gateway.NewService(&MockTokenSource{}, up, zerolog.Nop())

	_, err := svc.OpenStream(context.Background(), chat.GenerateRequest{})
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal))
}

func TestService_OpenStreamPassesMessages(t *testing.T) {
	up := &MockUpstream{
		OpenStreamFunc: func(ctx context.Context, bearer string, req chat.GenerateRequest) (io.ReadCloser, error) {
			require.Len(t, req.Messages, 1)
			return io.NopCloser(strings.NewReader(req.Messages[0].Content)), nil
		},
	}
	svc := gateway.NewService(&MockTokenSource{}, up, zerolog.Nop())

	body, err := svc.OpenStream(context.Background(), chat.GenerateRequest{Messages: []chat.Message{{Role: chat.RoleUser, Content: "echo"}}})
	require.NoError(t, err)
	raw, _ := io.ReadAll(body)
	assert.Equal(t, "echo", string(raw))
}

func TestService_Profile(t *testing.T) {
	tokens := &MockTokenSource{GetFunc: func(ctx context.Context) (string, error) {
		return signed(t, jwt.MapClaims{"name": "Ada Lovelace", "given_name": "Ada", "family_name": "Lovelace", "sub": "s-1"}), nil
	}}
	svc := gateway.NewService(tokens, &MockUpstream{}, zerolog.Nop())

	p, err := svc.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", p.Name)
	require.NotNil(t, p.Sub)
	assert.Equal(t, "s-1", *p.Sub)
}

func TestService_ProfileRejectsGarbageToken(t *testing.T) {
	tokens := &MockTokenSource{GetFunc: func(ctx context.Context) (string, error) {
		return "not-a-jwt", nil
	}}
	svc := gateway.NewService(tokens, &MockUpstream{}, zerolog.Nop())

	_, err := svc.Profile(context.Background())
	require.Error(t, err)
}

func TestService_UnauthorizedDropsCachedToken(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantDrops int
	}{
		{"rejected token", http.StatusUnauthorized, 1},
		{"other failure", http.StatusTooManyRequests, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := &MockTokenSource{}
			calls := 0
			up := &MockUpstream{
				GetDeploymentFunc: func(ctx context.Context, bearer string) (*deployment.Deployment, error) {
					calls++
					return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
						"Unexpected response from get-deployment: denied", nil, "", map[string]any{"status": tt.status})
				},
			}
			svc := gateway.NewService(tokens, up, zerolog.Nop())

			_, err := svc.Deployment(context.Background())
			require.Error(t, err)
			assert.Equal(t, 1, calls, "the failing call is not retried")
			assert.Equal(t, tt.wantDrops, tokens.InvalidateCalls)
		})
	}
}

func TestService_UnauthorizedStreamRefreshesOnNextCall(t *testing.T) {
	fetches := 0
	cache := token.NewCache(token.FetcherFunc(func(ctx context.Context) (token.Token, error) {
		fetches++
		return token.Token{AccessToken: fmt.Sprintf("tok-%d", fetches), ExpiresAt: time.Now().Add(time.Hour)}, nil
	}))

	var bearers []string
	up := &MockUpstream{
		OpenStreamFunc: func(ctx context.Context, bearer string, req chat.GenerateRequest) (io.ReadCloser, error) {
			bearers = append(bearers, bearer)
			if bearer == "tok-1" {
				return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
					"expired", nil, "", map[string]any{"status": http.StatusUnauthorized})
			}
			return io.NopCloser(strings.NewReader("")), nil
		},
	}
	svc := gateway.NewService(cache, up, zerolog.Nop())

	_, err := svc.OpenStream(context.Background(), chat.GenerateRequest{})
	require.Error(t, err)
	_, err = svc.OpenStream(context.Background(), chat.GenerateRequest{})
	require.NoError(t, err)

	assert.Equal(t, []string{"tok-1", "tok-2"}, bearers)
	assert.Equal(t, 2, fetches)
}
