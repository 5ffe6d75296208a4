package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inline runs posted closures immediately and counts them
type inline struct{ calls int }

func (d *inline) Call(fn func()) {
	d.calls++
	fn()
}

type fakeBackend struct {
	settings map[string]any
}

func (b *fakeBackend) Commands() []CommandInfo {
	return []CommandInfo{
		{Expression: "help", Kind: "none"},
		{Expression: "open {target}", Kind: "bounded", Args: []string{"mail"}},
	}
}

func (b *fakeBackend) Settings() map[string]any { return b.settings }

func (b *fakeBackend) Setting(key string) (any, error) {
	v, ok := b.settings[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return v, nil
}

func (b *fakeBackend) SetSetting(key string, value any) error {
	if _, ok := b.settings[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if s, ok := value.(string); ok && s == "" {
		return errors.New("empty value")
	}
	b.settings[key] = value
	return nil
}

func newTestServer() (*Server, *inline, *fakeBackend) {
	d := &inline{}
	b := &fakeBackend{settings: map[string]any{"COLOR_THEME": "green", "QUASIMODE_MAX_SUGGESTIONS": 10}}
	return New("127.0.0.1:0", b, d, nil, nil), d, b
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func TestHealthz(t *testing.T) {
	s, d, _ := newTestServer()
	code, body := do(t, s.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Zero(t, d.calls, "health does not touch the main loop")
}

func TestCommandsGoThroughLoop(t *testing.T) {
	s, d, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/commands", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var cmds []CommandInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmds))
	require.Len(t, cmds, 2)
	assert.Equal(t, []string{"mail"}, cmds[1].Args)
	assert.Equal(t, 1, d.calls)
}

func TestSettingsGetPut(t *testing.T) {
	s, _, b := newTestServer()
	h := s.Handler()

	code, body := do(t, h, http.MethodGet, "/api/config", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "green", body["COLOR_THEME"])

	code, body = do(t, h, http.MethodGet, "/api/config/COLOR_THEME", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "green", body["value"])

	code, body = do(t, h, http.MethodPut, "/api/config/COLOR_THEME", `{"value":"desert"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "desert", body["value"])
	assert.Equal(t, "desert", b.settings["COLOR_THEME"])
}

func TestSettingErrors(t *testing.T) {
	s, _, _ := newTestServer()
	h := s.Handler()

	code, _ := do(t, h, http.MethodGet, "/api/config/NOPE", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodPut, "/api/config/NOPE", `{"value":1}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, body := do(t, h, http.MethodPut, "/api/config/COLOR_THEME", `{"value":""}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "empty value", body["error"])

	code, _ = do(t, h, http.MethodPut, "/api/config/COLOR_THEME", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)
}

// stalled never runs posted closures
type stalled struct{}

func (stalled) Call(func()) {}

func TestLoopStallTimesOut(t *testing.T) {
	s := New("", &fakeBackend{}, stalled{}, nil, nil)
	s.timeout = 20 * time.Millisecond
	code, _ := do(t, s.Handler(), http.MethodGet, "/api/commands", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestMetricsEndpoint(t *testing.T) {
	m := NewMetrics()
	m.CommandRuns.WithLabelValues("ok").Inc()
	m.SelectionTimeout("get")
	m.SelectionTimeout("get")

	s := New("", &fakeBackend{}, &inline{}, m, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `enso_command_runs_total{outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), `enso_selection_timeouts_total{op="get"} 2`)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s, _, _ := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
