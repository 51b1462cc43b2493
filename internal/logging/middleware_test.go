package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDMiddleware(t *testing.T) {
	t.Parallel()

	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	require.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDEmptyWithoutMiddleware(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, RequestID(req.Context()))
}

func TestMiddlewareLogsStatus(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	handler := RequestIDMiddleware(Middleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "GET", fields["method"])
	require.Equal(t, "/missing", fields["path"])
	require.EqualValues(t, http.StatusNotFound, fields["status"])
	require.NotEmpty(t, fields["request_id"])
}
