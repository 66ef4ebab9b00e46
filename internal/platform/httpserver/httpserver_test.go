package httpserver

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civreg/internal/platform/config"
	"civreg/internal/platform/logger"
)

func TestNew(t *testing.T) {
	handler := http.NotFoundHandler()

	t.Run("defaults", func(t *testing.T) {
		srv := New(":8080", handler)
		assert.Equal(t, ":8080", srv.Addr)
		assert.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)
		assert.Equal(t, 15*time.Second, srv.ReadTimeout)
		assert.Equal(t, 30*time.Second, srv.WriteTimeout)
		assert.Equal(t, 60*time.Second, srv.IdleTimeout)
		assert.Nil(t, srv.ErrorLog)
	})

	t.Run("configured timeouts", func(t *testing.T) {
		srv := New(":8080", handler, WithTimeouts(config.Server{
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 3 * time.Second,
		}))
		assert.Equal(t, 2*time.Second, srv.ReadTimeout)
		assert.Equal(t, 3*time.Second, srv.WriteTimeout)
		assert.Equal(t, 60*time.Second, srv.IdleTimeout)
		assert.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)
	})

	t.Run("server errors reach the structured logger", func(t *testing.T) {
		var buf bytes.Buffer
		srv := New(":8080", handler, WithLogger(logger.NewWithWriter(&buf, "info", "json")))
		require.NotNil(t, srv.ErrorLog)

		srv.ErrorLog.Print("http: TLS handshake error")
		assert.Contains(t, buf.String(), `"level":"WARN"`)
		assert.Contains(t, buf.String(), "TLS handshake error")
	})
}
