package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/session-narrator/internal/config"
	"github.com/nguyentantai21042004/session-narrator/internal/logger"
	narrerr "github.com/nguyentantai21042004/session-narrator/pkg/errors"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewOllama(srv.URL+"/", "mistral:7b-instruct", 5*time.Second, logger.Nop())
}

func TestGenerateRequestShape(t *testing.T) {
	var got map[string]interface{}
	_, gw := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"model":"mistral:7b-instruct","response":"  Il était une fois.  ","done":true}`))
	})

	text, err := gw.Generate(context.Background(), Request{
		Prompt:  "Résumez: {x}",
		Options: Options{Temperature: 0.4, TopK: 40, TopP: 0.9},
	})
	require.NoError(t, err)
	assert.Equal(t, "Il était une fois.", text)

	assert.Equal(t, "mistral:7b-instruct", got["model"])
	assert.Equal(t, "Résumez: {x}", got["prompt"])
	assert.Equal(t, false, got["stream"])
	assert.Equal(t, map[string]interface{}{"temperature": 0.4, "top_k": float64(40), "top_p": 0.9}, got["options"])
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		transport bool
		service   bool
	}{
		{"error field", http.StatusOK, `{"error":"model 'x' not found"}`, false, true},
		{"empty error field", http.StatusOK, `{"error":"","response":"text"}`, false, true},
		{"empty response", http.StatusOK, `{"response":"   \n"}`, false, true},
		{"missing response", http.StatusOK, `{"done":true}`, false, true},
		{"invalid json", http.StatusOK, `not json`, false, true},
		{"server error status", http.StatusInternalServerError, `{"error":"boom"}`, true, false},
		{"not found status", http.StatusNotFound, `404 page not found`, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, gw := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			text, err := gw.Generate(context.Background(), Request{Prompt: "p"})
			require.Error(t, err)
			assert.Empty(t, text)
			assert.Equal(t, tt.transport, narrerr.IsTransport(err), "transport: %v", err)
			assert.Equal(t, tt.service, narrerr.IsService(err), "service: %v", err)
		})
	}
}

func TestGenerateUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	gw := NewOllama(url, "m", time.Second, logger.Nop())
	_, err := gw.Generate(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.True(t, narrerr.IsTransport(err))
}

func TestGenerateCancelledContext(t *testing.T) {
	_, gw := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"late"}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.Generate(ctx, Request{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		reachable bool
		available bool
	}{
		{"model present", http.StatusOK, `{"models":[{"name":"llama3:8b"},{"name":"mistral:7b-instruct"}]}`, true, true},
		{"model missing", http.StatusOK, `{"models":[{"name":"llama3:8b"}]}`, true, false},
		{"server down", http.StatusServiceUnavailable, ``, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, gw := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/tags", r.URL.Path)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			st := gw.Check(context.Background())
			assert.Equal(t, tt.reachable, st.Reachable)
			assert.Equal(t, tt.available, st.ModelAvailable)
			assert.Equal(t, tt.reachable && tt.available, st.Healthy())
			assert.Equal(t, "ollama", st.Backend)
			if !st.Healthy() {
				assert.NotEmpty(t, st.Error)
			}
		})
	}
}

func TestNewSelectsBackend(t *testing.T) {
	gw, err := New(config.GatewayConfig{Backend: config.BackendOllama, URL: "http://x", Model: "m"}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "m", gw.Model())

	gw, err = New(config.GatewayConfig{Backend: config.BackendGemini, APIKeys: []string{"k"}, Model: "gemini-2.5-flash"}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", gw.Model())

	_, err = New(config.GatewayConfig{Backend: "nope"}, logger.Nop())
	assert.Error(t, err)
}

func TestOptionsFrom(t *testing.T) {
	assert.Equal(t, Options{Temperature: 0.3, TopK: 40, TopP: 0.9},
		OptionsFrom(config.SamplingConfig{Temperature: 0.3, TopK: 40, TopP: 0.9}))
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, isRateLimited(assertErr("Error 429, Message: quota exceeded")))
	assert.True(t, isRateLimited(assertErr("RESOURCE_EXHAUSTED")))
	assert.False(t, isRateLimited(assertErr("connection reset")))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
