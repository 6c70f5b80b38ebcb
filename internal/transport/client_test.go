package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/meshdns/pkg/errors"
	"github.com/agentstation/meshdns/pkg/logging"
)

type payload struct {
	Users []struct {
		Name string `json:"name"`
	} `json:"users"`
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"users":[{"name":"alice"}]}`))
	}))
	defer server.Close()

	client := New("headscale", &BearerAuth{Token: "key"})

	var got payload
	require.NoError(t, client.GetJSON(context.Background(), server.URL+"/api/v1/user", &got))
	require.Len(t, got.Users, 1)
	assert.Equal(t, "alice", got.Users[0].Name)
}

func TestGetLogsWithService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"users":[]}`))
	}))
	defer server.Close()

	logger := logging.NewTestLogger(t)
	ctx := logging.WithNode(logging.WithLogger(context.Background(), logger.Logger), "web1")

	var got payload
	require.NoError(t, New("traefik", &NoAuth{}).GetJSON(ctx, server.URL+"/api/http/routers", &got))

	logger.AssertContains(t, "Received response")
	for _, line := range logger.Lines() {
		assert.Contains(t, line, `"service":"traefik"`)
		assert.Contains(t, line, `"node":"web1"`)
	}
	logger.AssertContains(t, `"status":200`)
}

func TestGetJSONErrors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		unauthorized bool
		parse        bool
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: "", unauthorized: true},
		{name: "forbidden", status: http.StatusForbidden, body: "nope", unauthorized: true},
		{name: "malformed payload", status: http.StatusOK, body: "{not json", parse: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := New("traefik", &NoAuth{})
			var got payload
			err := client.GetJSON(context.Background(), server.URL, &got)

			require.Error(t, err)
			assert.True(t, errors.IsUpstream(err))
			assert.Equal(t, tt.unauthorized, errors.IsUnauthorized(err))
			assert.Contains(t, err.Error(), "traefik")

			var parseErr *errors.ParseError
			assert.Equal(t, tt.parse, errors.As(err, &parseErr))
		})
	}
}

func TestGetNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := New("headscale", nil)
	err := client.Probe(context.Background(), url)

	require.Error(t, err)
	assert.True(t, errors.IsUpstream(err))
}

func TestProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not even json"))
	}))
	defer server.Close()

	assert.NoError(t, New("traefik", nil).Probe(context.Background(), server.URL))
}

func TestGetHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New("headscale", nil).Probe(ctx, server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://hs.example.com/api/v1/node", JoinURL("https://hs.example.com", "/api/v1/node"))
	assert.Equal(t, "https://hs.example.com/api/v1/node", JoinURL("https://hs.example.com/", "/api/v1/node"))
	assert.Equal(t, "http://10.0.0.5:8080/traefik/api/overview", JoinURL("http://10.0.0.5:8080/traefik", "api/overview"))
}
