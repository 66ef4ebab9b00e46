package auth

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"civreg/pkg/requestcontext"
)

func TestRequireOperator(t *testing.T) {
	var operator, credential string
	h := RequireOperator(slog.New(slog.DiscardHandler))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		operator = requestcontext.Operator(r.Context())
		credential = requestcontext.Credential(r.Context())
	}))

	t.Run("missing operator", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("operator and credential land in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderOperator, " clerk.reyes ")
		req.Header.Set("Authorization", "Bearer registry-token")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "clerk.reyes", operator)
		assert.Equal(t, "registry-token", credential)
	})
}
