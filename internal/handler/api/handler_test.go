package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EngineGate/internal/domain/models"
	"EngineGate/internal/repository"
	"EngineGate/internal/services/rules"
	"EngineGate/internal/usecase"
)

const secret = "s3cret"

type testServer struct {
	e       *echo.Echo
	dir     string
	router  *usecase.EngineRouter
	journal string
	raw     string
}

func newTestServer(t *testing.T, webhookSecret string) *testServer {
	t.Helper()
	dir := t.TempDir()
	ts := &testServer{
		e:       echo.New(),
		dir:     dir,
		raw:     filepath.Join(dir, "raw.jsonl"),
		journal: filepath.Join(dir, "journal.md"),
	}

	audit, err := repository.NewFileAuditTrail(ts.raw, ts.journal, time.UTC)
	require.NoError(t, err)
	t.Cleanup(func() { _ = audit.Close() })
	store := repository.NewFileStateStore(filepath.Join(dir, "router_state.json"), nil)

	ts.router = usecase.NewEngineRouter(usecase.RouterConfig{
		Secret:     webhookSecret,
		EngineLock: true,
		Known:      models.NewEngineSet("COINM_SHORT", "USDTM_LONG", "GOLD_CFD_LONG", "TV_TEST", "NGROK_TEST"),
		Aggressive: models.NewEngineSet("COINM_SHORT", "USDTM_LONG"),
	}, store, audit)

	evaluator := rules.NewEvaluator(rules.DefaultCatalog(), rules.DefaultLeaderSymbol)
	NewWebhookHandler("/tv", ts.router, nil).RegisterRoutes(ts.e)
	NewSignalsHandler(evaluator, ts.router, LockSettings{Enabled: true, Aggressive: []string{"COINM_SHORT", "USDTM_LONG"}}, nil).RegisterRoutes(ts.e)
	NewHealthHandler(ts.router).RegisterRoutes(ts.e)
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type appError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params"`
}

func decodeErrors(t *testing.T, rec *httptest.ResponseRecorder) []appError {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, rec.Code, env.Status)
	var errs []appError
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	require.NotEmpty(t, errs)
	return errs
}

func TestWebhook_AcceptThenConflict(t *testing.T) {
	ts := newTestServer(t, secret)

	rec := ts.do(http.MethodPost, "/tv", `{"key":"s3cret","engine":"COINM_SHORT","signal":"SHORT","symbol":"BTCUSD","tf":"60","price":97000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = ts.do(http.MethodPost, "/tv", `{"key":"s3cret","engine":"USDTM_LONG","signal":"LONG"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	errs := decodeErrors(t, rec)
	assert.Equal(t, "ERR_ENGINE_LOCKED", errs[0].Code)
	assert.Equal(t, "engine lock: active_engine=COINM_SHORT, refusing engine=USDTM_LONG", errs[0].Message)
	assert.Equal(t, "COINM_SHORT", errs[0].Params["active_engine"])

	journal, err := os.ReadFile(ts.journal)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(journal), "| TV Webhook |"))
	assert.NotContains(t, string(journal), secret)

	raw, err := os.ReadFile(ts.raw)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(raw), "\n"))
}

func TestWebhook_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		body   string
		status int
		code   string
	}{
		{"bad json", secret, `{"key":`, http.StatusBadRequest, "ERR_BAD_REQUEST"},
		{"not an object", secret, `["a"]`, http.StatusBadRequest, "ERR_BAD_REQUEST"},
		{"wrong secret", secret, `{"key":"nope"}`, http.StatusForbidden, "ERR_INVALID_SECRET"},
		{"no secret configured", "", `{"key":""}`, http.StatusInternalServerError, "ERR_MISCONFIGURED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.secret)
			rec := ts.do(http.MethodPost, "/tv", tt.body)
			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeErrors(t, rec)[0].Code)

			raw, err := os.ReadFile(ts.raw)
			require.NoError(t, err)
			assert.Equal(t, 1, strings.Count(string(raw), "\n"), "every delivery is captured")
		})
	}
}

func TestState(t *testing.T) {
	ts := newTestServer(t, secret)

	rec := ts.do(http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data models.RouterStateResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Nil(t, env.Data.ActiveEngine)
	assert.True(t, env.Data.EngineLock)

	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/tv", `{"key":"s3cret","engine":"USDTM_LONG"}`).Code)

	rec = ts.do(http.MethodGet, "/api/state", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Data.ActiveEngine)
	assert.Equal(t, "USDTM_LONG", *env.Data.ActiveEngine)
	assert.NotNil(t, env.Data.UpdatedAt)
}

func TestEvaluate(t *testing.T) {
	ts := newTestServer(t, secret)

	body := `{"snapshots":[
		{"symbol":"XAUUSD","price":5034,"higher_low":true,"above_ma_50":true},
		{"symbol":"BTCUSDT.P","price":68750,"lower_high":true,"below_ma_50":true}
	]}`
	rec := ts.do(http.MethodPost, "/api/evaluate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env struct {
		Data models.EvaluateResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Data.Signal)
	assert.Equal(t, "COINM_SHORT", env.Data.Signal.Engine)
	assert.Equal(t, "SHORT", env.Data.Signal.Side)
	assert.Equal(t, []float64{67200, 66200, 65000}, env.Data.Signal.TakeProfits)
	assert.Contains(t, env.Data.Summary, "Signal: COINM_SHORT | BTCUSDT.P | SHORT")
}

func TestEvaluate_NoSignal(t *testing.T) {
	ts := newTestServer(t, secret)

	rec := ts.do(http.MethodPost, "/api/evaluate", `{"snapshots":[{"symbol":"BTCUSDT.P","price":1}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data models.EvaluateResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Nil(t, env.Data.Signal)
	assert.Equal(t, "No signal.", env.Data.Summary)
}

func TestEvaluate_Validation(t *testing.T) {
	ts := newTestServer(t, secret)

	for _, body := range []string{`{"snapshots":[]}`, `{"snapshots":[{"symbol":"","price":1}]}`, `{"snapshots":[{"symbol":"X","price":0}]}`} {
		rec := ts.do(http.MethodPost, "/api/evaluate", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, secret)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/livez", "").Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/readyz", "").Code)

	ts = newTestServer(t, "")
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/livez", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, ts.do(http.MethodGet, "/readyz", "").Code)
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func rawLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestWebhook_OversizedBodyIsLoggedTruncated(t *testing.T) {
	ts := newTestServer(t, secret)
	e := echo.New()
	NewWebhookHandler("/tv", ts.router, nil, WithMaxBody(32)).RegisterRoutes(e)

	body := `{"key":"s3cret","engine":"TV_TEST","reason":"` + strings.Repeat("x", 64) + `"}`
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tv", strings.NewReader(body)))

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "ERR_PAYLOAD_TOO_LARGE", decodeErrors(t, rec)[0].Code)

	lines := rawLines(t, ts.raw)
	require.Len(t, lines, 1)
	assert.Equal(t, true, lines[0]["truncated"])
	assert.Equal(t, body[:32], lines[0]["payload"])
	_, err := os.Stat(filepath.Join(ts.dir, "router_state.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestWebhook_ReadFailureIsLogged(t *testing.T) {
	ts := newTestServer(t, secret)

	req := httptest.NewRequest(http.MethodPost, "/tv", io.MultiReader(strings.NewReader(`{"key":"s3`), brokenReader{}))
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeErrors(t, rec)[0].Message, "connection reset")

	lines := rawLines(t, ts.raw)
	require.Len(t, lines, 1)
	assert.Equal(t, true, lines[0]["truncated"])
	assert.Equal(t, `{"key":"s3`, lines[0]["payload"])
}

func TestWebhook_BodyWithinLimitIsAccepted(t *testing.T) {
	ts := newTestServer(t, secret)
	e := echo.New()
	NewWebhookHandler("/tv", ts.router, nil, WithMaxBody(1024)).RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tv", strings.NewReader(`{"key":"s3cret","engine":"TV_TEST"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	lines := rawLines(t, ts.raw)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "truncated")
}

func TestReadyzRunsDependencyChecks(t *testing.T) {
	ts := newTestServer(t, secret)

	healthy := echo.New()
	NewHealthHandler(ts.router, ReadinessCheck{
		Name:  "clickhouse",
		Check: func(context.Context) error { return nil },
	}).RegisterRoutes(healthy)
	rec := httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	down := echo.New()
	NewHealthHandler(ts.router, ReadinessCheck{
		Name:  "clickhouse",
		Check: func(context.Context) error { return errors.New("dial tcp: connection refused") },
	}).RegisterRoutes(down)
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "clickhouse: dial tcp: connection refused")
}
