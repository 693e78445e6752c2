package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xhttp "EngineGate/pkg/http"
)

func TestSender_PostsJSON(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	err := NewSender(srv.URL+"/tv", time.Second, 3, xhttp.WithHTTPClient(srv.Client())).Send(context.Background(), map[string]any{"engine": "COINM_SHORT", "tp": nil})
	require.NoError(t, err)
	assert.Equal(t, "COINM_SHORT", got["engine"])
	assert.Contains(t, got, "tp")
}

func TestSender_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, NewSender(srv.URL, time.Second, 3).Send(context.Background(), map[string]any{}))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSender_ClientErrorIsFinal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"ERR_ENGINE_LOCKED"}}`))
	}))
	defer srv.Close()

	err := NewSender(srv.URL, time.Second, 3).Send(context.Background(), map[string]any{})
	var se *xhttp.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusConflict, se.Code)
	assert.Contains(t, se.Body, "ERR_ENGINE_LOCKED")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
