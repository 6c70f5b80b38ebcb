package errors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/meshdns/pkg/errors"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestConfigError(t *testing.T) {
	t.Run("with component", func(t *testing.T) {
		err := &pkgerrors.ConfigError{
			Component: "traefik",
			Message:   "no URL prefix configured",
		}
		assert.Equal(t, "configuration error in traefik: no URL prefix configured", err.Error())
		assert.True(t, pkgerrors.IsConfigError(err))
	})

	t.Run("without component", func(t *testing.T) {
		err := pkgerrors.NewConfigError("", "missing key", nil)
		assert.Equal(t, "configuration error: missing key", err.Error())
	})

	t.Run("falls back to wrapped message", func(t *testing.T) {
		base := errors.New("boom")
		err := pkgerrors.NewConfigError("headscale", "", base)
		assert.Contains(t, err.Error(), "boom")
		assert.Equal(t, base, err.Unwrap())
	})

	t.Run("wrap helper", func(t *testing.T) {
		base := errors.New("missing closing )")
		err := pkgerrors.WrapConfig("domain_whitelist", "invalid regex", base)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid regex: missing closing )")
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidConfig))
		assert.NoError(t, pkgerrors.WrapConfig("x", "y", nil))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("logger", nil, "cannot be nil")
		assert.Equal(t, "validation failed for field logger: cannot be nil", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "bad"}
		assert.Equal(t, "validation failed: bad", err.Error())
	})
}

func TestUpstreamError(t *testing.T) {
	t.Run("status code", func(t *testing.T) {
		err := pkgerrors.NewUpstreamError("headscale", "https://hs/api/v1/node", http.StatusBadGateway, "bad gateway")
		assert.Contains(t, err.Error(), "headscale")
		assert.Contains(t, err.Error(), "502")
		assert.True(t, pkgerrors.IsUpstream(err))
		assert.False(t, pkgerrors.IsUnauthorized(err))
	})

	t.Run("unauthorized", func(t *testing.T) {
		for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
			err := pkgerrors.NewUpstreamError("traefik", "http://10.0.0.5:8080/api/overview", code, "denied")
			assert.True(t, pkgerrors.IsUnauthorized(err), "status %d", code)
		}
	})

	t.Run("wrapped transport error", func(t *testing.T) {
		base := errors.New("connection refused")
		err := pkgerrors.WrapUpstream("traefik", "http://10.0.0.5", base)
		assert.True(t, errors.Is(err, base))
		assert.True(t, pkgerrors.IsUpstream(fmt.Errorf("fetch routes: %w", err)))
		assert.NoError(t, pkgerrors.WrapUpstream("traefik", "", nil))
	})
}

func TestParseError(t *testing.T) {
	err := pkgerrors.WrapParse("json", "response", errors.New("unexpected EOF"))
	var parseErr *pkgerrors.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "json", parseErr.Format)
	assert.Equal(t, "parse error in json response: unexpected EOF", err.Error())

	bare := &pkgerrors.ParseError{Format: "yaml", Message: "bad indent"}
	assert.Equal(t, "yaml parse error: bad indent", bare.Error())
}

func TestIOError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.IOError{
			Operation: "write",
			Path:      "/etc/headscale/extra_records.json",
			Message:   "permission denied",
		}
		assert.Contains(t, err.Error(), "write")
		assert.Contains(t, err.Error(), "/etc/headscale/extra_records.json")
		assert.True(t, pkgerrors.IsIO(err))
	})

	t.Run("wrap helper", func(t *testing.T) {
		base := errors.New("disk full")
		err := pkgerrors.WrapIO("write", "out.json", base)
		ioErr, ok := err.(*pkgerrors.IOError)
		require.True(t, ok)
		assert.Equal(t, base, ioErr.Unwrap())
		assert.Equal(t, "IO error during write of out.json: disk full", err.Error())
	})

	t.Run("without path", func(t *testing.T) {
		err := pkgerrors.NewIOError("close", "", nil)
		assert.Equal(t, "IO error during close: ", err.Error())
	})
}
