package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/routestate/pkg/middleware"
	"github.com/vango-dev/routestate/pkg/route"
	"github.com/vango-dev/routestate/pkg/router"
	"github.com/vango-dev/routestate/pkg/store"
)

func newTestRoot() *route.Node {
	return route.New("").
		Add(route.New("home")).
		Add(route.New("users").
			CapturePath().
			BooleanQueryParam(route.ParamOptions{VariableName: "flag"})).
		Add(route.New("search").
			StringQueryParam(route.ParamOptions{VariableName: "query", QueryParamName: "q"}))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	r, err := router.New(newTestRoot(), router.WithLogger(quietLogger()))
	require.NoError(t, err)

	config := DefaultConfig()
	config.Logger = quietLogger()
	opts = append([]Option{WithStore(store.NewMemoryStore())}, opts...)
	return New(r, config, opts...)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, rd))
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestURLEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/url", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/", decodeBody[urlBody](t, rec).URL)

	rec = do(t, s, http.MethodPut, "/url", `{"url":"//users/42?flag=1&junk"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeBody[router.Snapshot](t, rec)
	assert.Equal(t, "/users/42?flag", snap.URL)
	assert.Equal(t, "users", snap.State.Active())

	rec = do(t, s, http.MethodGet, "/url", "")
	assert.Equal(t, "/users/42?flag", decodeBody[urlBody](t, rec).URL)
}

func TestStateEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.Router().SetURL("/search?q=go")

	rec := do(t, s, http.MethodGet, "/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	state := decodeBody[*route.State](t, rec)
	assert.Equal(t, "search", state.Active())
	assert.Equal(t, "go", state.Children["search"].QueryParams["query"])

	state.Children["search"].QueryParams["query"] = "rust"
	body, err := json.Marshal(state)
	require.NoError(t, err)

	rec = do(t, s, http.MethodPut, "/state", string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/search?q=rust", decodeBody[router.Snapshot](t, rec).URL)
}

func TestPutStateRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"invalid json", `{"activeChild":`, "R160"},
		{"trailing data", `{"url":"/"} {}`, "R160"},
		{"null state", `null`, "R001"},
		{"missing child entry", `{"activeChild":"home","queryParams":{},"children":{}}`, "R001"},
		{"unknown active child", `{"activeChild":"nowhere","queryParams":{},"children":{}}`, "R001"},
		{"wrong param type", `{"activeChild":"users","queryParams":{},"children":{` +
			`"home":{"activeChild":null,"queryParams":{},"children":{}},` +
			`"users":{"activeChild":null,"queryParams":{"flag":"yes"},"children":{}},` +
			`"search":{"activeChild":null,"queryParams":{},"children":{}}}}`, "R001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.Router().SetURL("/home")

			rec := do(t, s, http.MethodPut, "/state", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.code, decodeBody[errorBody](t, rec).Code)
			assert.Equal(t, "/home", s.Router().URL(), "rejected state must not change the router")
		})
	}
}

func TestTreeEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.Router().SetURL("/users/7")

	rec := do(t, s, http.MethodGet, "/tree", "")
	require.Equal(t, http.StatusOK, rec.Code)
	tree := decodeBody[[]router.NodeInfo](t, rec)
	require.Len(t, tree, 4)
	assert.Equal(t, "users", tree[0].ActiveChild)
	assert.Equal(t, "/users", tree[2].Path)
	assert.Equal(t, "7", tree[2].CapturedPath)
}

func TestSnapshotLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.Router().SetURL("/users/42?flag")

	rec := do(t, s, http.MethodPut, "/snapshots/before", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "before", decodeBody[snapshotRef](t, rec).Name)

	rec = do(t, s, http.MethodPost, "/snapshots", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	generated := decodeBody[snapshotRef](t, rec).Name
	assert.NotEmpty(t, generated)

	rec = do(t, s, http.MethodGet, "/snapshots", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.ElementsMatch(t, []string{"before", generated}, decodeBody[snapshotList](t, rec).Names)

	rec = do(t, s, http.MethodGet, "/snapshots/before", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "users", decodeBody[*route.State](t, rec).Active())

	s.Router().SetURL("/home")
	rec = do(t, s, http.MethodPost, "/snapshots/before/restore", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/users/42?flag", decodeBody[router.Snapshot](t, rec).URL)
	assert.Equal(t, "/users/42?flag", s.Router().URL())

	rec = do(t, s, http.MethodDelete, "/snapshots/before", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/snapshots/before", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "R120", decodeBody[errorBody](t, rec).Code)

	rec = do(t, s, http.MethodPost, "/snapshots/missing/restore", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPut, "/snapshots/.hidden", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "R121", decodeBody[errorBody](t, rec).Code)
}

func TestRestoreIncompatibleSnapshot(t *testing.T) {
	st := store.NewMemoryStore()
	bad := route.NewState()
	bad.ActiveChild = func() *string { s := "home"; return &s }()
	require.NoError(t, st.Save(context.Background(), "bad", bad))

	s := newTestServer(t, WithStore(st))
	rec := do(t, s, http.MethodPost, "/snapshots/bad/restore", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "R001", decodeBody[errorBody](t, rec).Code)
}

func TestSnapshotsWithoutStore(t *testing.T) {
	r, err := router.New(newTestRoot())
	require.NoError(t, err)
	s := New(r, &Config{Logger: quietLogger()})

	rec := do(t, s, http.MethodGet, "/snapshots", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := middleware.NewMetrics(middleware.WithRegistry(reg))

	r, err := router.New(newTestRoot(), router.WithObserver(m), router.WithLogger(quietLogger()))
	require.NoError(t, err)
	s := New(r, &Config{Logger: quietLogger(), MetricsPath: "/internal/metrics"},
		WithMetrics(m, reg), WithTracing())

	do(t, s, http.MethodPut, "/url", `{"url":"/home"}`)

	rec := do(t, s, http.MethodGet, "/internal/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `routestate_imports_total{outcome="changed",source="url"} 1`)
	assert.Contains(t, body, `routestate_http_requests_total{method="PUT",route="/url",status="200"} 1`)
}

func TestRecovererLogsPanics(t *testing.T) {
	var buf bytes.Buffer
	s := newTestServer(t)
	s.logger = slog.New(slog.NewTextHandler(&buf, nil))

	h := s.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := do(t, h, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"code":"R161"`)
	assert.NotContains(t, rec.Body.String(), "boom")
	assert.Contains(t, buf.String(), "handler panic")
}

func TestConfigDefaults(t *testing.T) {
	c := (&Config{Address: ":9999"}).withDefaults()
	assert.Equal(t, ":9999", c.Address)
	assert.Equal(t, "/metrics", c.MetricsPath)
	assert.Equal(t, 16, c.FeedBuffer)
	assert.NotNil(t, c.CheckOrigin)

	assert.Error(t, (&Config{MetricsPath: "metrics"}).withDefaults().validate())
	assert.NoError(t, DefaultConfig().validate())
}

func TestOriginChecks(t *testing.T) {
	req := func(host, origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.Host = host
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	assert.True(t, SameOriginCheck(req("example.com", "")))
	assert.True(t, SameOriginCheck(req("example.com", "https://example.com")))
	assert.False(t, SameOriginCheck(req("example.com", "https://evil.com")))

	check := AllowOrigins("https://app.example.com/")
	assert.True(t, check(req("api.example.com", "https://app.example.com")))
	assert.False(t, check(req("api.example.com", "https://evil.com")))
	assert.True(t, AllowOrigins("*")(req("a", "https://b")))
}
