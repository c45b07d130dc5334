package gatewayapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/chat-ui/internal/domain/deployment"
	"jan-server/services/chat-ui/internal/domain/theme"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_Deployment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/deployment", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"name":             "Helper",
			"sample_questions": []string{"a", "b"},
		})
	}))
	defer srv.Close()

	d, err := NewClient(srv.URL, time.Second, zerolog.Nop()).Deployment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Helper", d.Name)
	assert.Equal(t, []string{"a", "b"}, d.SampleQuestions)
}

func TestClient_DeploymentFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "token failure"})
	}))
	defer srv.Close()

	d, err := NewClient(srv.URL, time.Second, zerolog.Nop()).Deployment(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token failure")
	assert.Equal(t, deployment.FallbackName, d.Name)
}

func TestClient_Profile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/settings", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"name": "Ada Lovelace", "givenName": "Ada", "familyName": "Lovelace", "email": nil, "sub": "s-1",
		})
	}))
	defer srv.Close()

	p, err := NewClient(srv.URL, time.Second, zerolog.Nop()).Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AL", p.Initials())
	assert.Nil(t, p.Email)
	require.NotNil(t, p.Sub)
	assert.Equal(t, "s-1", *p.Sub)
}

func TestClient_ThemeRoundTripUsesCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var body themeBody
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			http.SetCookie(w, &http.Cookie{Name: theme.CookieName, Value: body.Theme, Path: "/", MaxAge: theme.CookieMaxAge})
			writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		default:
			value := string(theme.Default)
			if c, err := r.Cookie(theme.CookieName); err == nil {
				value = c.Value
			}
			writeJSON(w, http.StatusOK, map[string]string{"theme": value})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zerolog.Nop())
	got, err := c.Theme(context.Background())
	require.NoError(t, err)
	assert.Equal(t, theme.System, got)

	require.NoError(t, c.SetTheme(context.Background(), theme.Dark))

	got, err = c.Theme(context.Background())
	require.NoError(t, err)
	assert.Equal(t, theme.Dark, got)
}

func TestClient_SetThemeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid theme"})
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second, zerolog.Nop()).SetTheme(context.Background(), theme.Theme("neon"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid theme")
}
