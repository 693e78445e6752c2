package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EngineGate/internal/service/ratelimit"
)

type fakeBotAPI struct {
	mu   sync.Mutex
	sent []map[string]string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"gate","username":"gate_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		f.mu.Lock()
		f.sent = append(f.sent, map[string]string{
			"chat_id":    r.PostForm.Get("chat_id"),
			"text":       r.PostForm.Get("text"),
			"parse_mode": r.PostForm.Get("parse_mode"),
		})
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":404,"description":"not found"}`))
	}
}

func newTestNotifier(t *testing.T, opts ...Option) (*Notifier, *fakeBotAPI) {
	t.Helper()
	api := &fakeBotAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	opts = append([]Option{WithEndpoint(srv.URL + "/bot%s/%s")}, opts...)
	n, err := New("123:abc", 42, opts...)
	require.NoError(t, err)
	return n, api
}

func TestNotifier_SendsHTML(t *testing.T) {
	n, api := newTestNotifier(t)

	require.NoError(t, n.Notify(context.Background(), "<b>COINM_SHORT</b> SHORT"))
	require.Len(t, api.sent, 1)
	assert.Equal(t, "42", api.sent[0]["chat_id"])
	assert.Equal(t, "<b>COINM_SHORT</b> SHORT", api.sent[0]["text"])
	assert.Equal(t, "HTML", api.sent[0]["parse_mode"])
}

func TestNotifier_Throttles(t *testing.T) {
	now := time.Unix(0, 0)
	n, api := newTestNotifier(t, WithLimiter(ratelimit.NewWithClock(func() time.Time { return now })))

	for i := 0; i < burst; i++ {
		require.NoError(t, n.Notify(context.Background(), "x"))
	}
	assert.ErrorIs(t, n.Notify(context.Background(), "x"), ErrThrottled)
	assert.Len(t, api.sent, burst)
}

func TestNotifier_BadTokenFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	_, err := New("bad", 42, WithEndpoint(srv.URL+"/bot%s/%s"))
	assert.Error(t, err)
}
