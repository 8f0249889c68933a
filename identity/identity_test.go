package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareExtractsUserID(t *testing.T) {
	var got *int64
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserIDFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(UserIDHeader, "7")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	require.NotNil(t, got)
	assert.Equal(t, int64(7), *got)
}

func TestMiddlewareIgnoresBadHeader(t *testing.T) {
	for _, raw := range []string{"", "abc", "-1", "0", "7.5", "9999999999999999999999"} {
		var got *int64
		handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = UserIDFromContext(r.Context())
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if raw != "" {
			r.Header.Set(UserIDHeader, raw)
		}
		handler.ServeHTTP(httptest.NewRecorder(), r)

		assert.Nil(t, got, "header %q", raw)
	}
}
