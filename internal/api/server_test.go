package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/buildorder/pkg/errors"
	"github.com/matzehuels/buildorder/pkg/observability/metrics"
	"github.com/matzehuels/buildorder/pkg/pipeline"
)

const workspaceTOML = `
[[project]]
name     = "app"
projects = ["lib"]

[[project]]
name = "lib"

[[project]]
name     = "a"
projects = ["b"]

[[project]]
name     = "b"
projects = ["a"]

[[bundle]]
symbolic_name = "org.acme.app"
version       = "1.0"
project       = "app"

[[bundle.require]]
name = "org.acme.lib"

[[bundle]]
symbolic_name = "org.acme.lib"
version       = "1.0"
project       = "lib"

[[bundle]]
symbolic_name = "org.acme.broken"
version       = "1.0"

[[bundle.require]]
name = "org.missing"
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	runner := pipeline.NewRunner(nil, nil, logger)
	runner.Hooks = m.Hooks()
	srv := New(Config{
		Runner:   runner,
		Logger:   logger,
		Hooks:    m,
		Gatherer: reg,
		BaseDir:  "/ws",
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path string, body any) (*http.Response, []byte) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if _, err := uuid.Parse(resp.Header.Get(RequestIDHeader)); err != nil {
		t.Errorf("request id %q is not a uuid", resp.Header.Get(RequestIDHeader))
	}
}

func TestRequestIDPropagated(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.NewString()
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}
}

func TestOrder(t *testing.T) {
	ts := newTestServer(t)
	resp, body := post(t, ts, "/v1/order", map[string]any{
		"workspace": workspaceTOML,
		"roots":     []string{"app"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var out OrderResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(out.Order, []string{"lib", "app"}) {
		t.Errorf("order = %v", out.Order)
	}
	if out.RequestID == "" {
		t.Error("missing request id")
	}
}

func TestClasspath(t *testing.T) {
	ts := newTestServer(t)
	resp, body := post(t, ts, "/v1/classpath", map[string]any{
		"workspace": workspaceTOML,
		"roots":     []string{"org.acme.app"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var out ClasspathResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Classpaths) != 1 || !slices.Equal(out.Classpaths[0].Locations, []string{"/ws/lib"}) {
		t.Errorf("classpaths = %+v", out.Classpaths)
	}
}

func TestInlineWorkspaceIgnoresServerEnv(t *testing.T) {
	t.Setenv("BUILDORDER_API_SECRET", "hunter2")
	ts := newTestServer(t)

	tests := []struct {
		format, workspace string
		wantStatus        int
	}{
		{"toml", `
[[bundle]]
symbolic_name = "org.app"
version       = "1.0"

[[bundle.require]]
name = "org.leak"

[[bundle]]
symbolic_name = "org.leak"
version       = "1.0"
locations     = ["$BUILDORDER_API_SECRET"]
`, http.StatusOK},
		{"json", `{"bundles": [
  {"symbolic_name": "org.app", "version": "1.0", "requires": [{"name": "org.leak"}]},
  {"symbolic_name": "org.leak", "version": "1.0", "locations": ["${BUILDORDER_API_SECRET}"]}
]}`, http.StatusOK},
		{"hcl", `
bundle "org.app" {
  version = "1.0"
  require "org.leak" {}
}

bundle "org.leak" {
  version   = "1.0"
  locations = [env.BUILDORDER_API_SECRET]
}
`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp, body := post(t, ts, "/v1/classpath", map[string]any{
				"workspace": tt.workspace,
				"format":    tt.format,
				"roots":     []string{"org.app"},
			})
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.wantStatus, body)
			}
			if strings.Contains(string(body), "hunter2") {
				t.Errorf("response exposes a server environment variable: %s", body)
			}
			if tt.wantStatus == http.StatusOK && !strings.Contains(string(body), "BUILDORDER_API_SECRET") {
				t.Errorf("location should stay unexpanded: %s", body)
			}
		})
	}
}

func TestClasspathUnresolved(t *testing.T) {
	ts := newTestServer(t)
	resp, body := post(t, ts, "/v1/classpath", map[string]any{
		"workspace": workspaceTOML,
		"roots":     []string{"org.acme.broken"},
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var out ErrorResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if out.Error.Code != errors.ErrCodeUnresolvedDependency {
		t.Errorf("code = %s", out.Error.Code)
	}
	if !slices.Equal(out.Error.Chain, []string{"org.acme.broken_1.0.0", "org.missing"}) {
		t.Errorf("chain = %v", out.Error.Chain)
	}
	if out.Error.RootCause != "org.missing" || !out.Error.Missing {
		t.Errorf("root cause = %q missing=%v", out.Error.RootCause, out.Error.Missing)
	}
}

func TestCycles(t *testing.T) {
	ts := newTestServer(t)
	resp, body := post(t, ts, "/v1/cycles", map[string]any{
		"workspace":       workspaceTOML,
		"kinds":           "project",
		"skip_containers": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var out CyclesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Cycles) != 1 || !slices.Equal(out.Cycles[0], []string{"a", "b"}) {
		t.Errorf("cycles = %v", out.Cycles)
	}
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   errors.Code
	}{
		{"missing workspace", "/v1/order", map[string]any{}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", "/v1/order", map[string]any{"workspace": workspaceTOML, "bogus": 1}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown root", "/v1/order", map[string]any{"workspace": workspaceTOML, "roots": []string{"nope"}}, http.StatusNotFound, errors.ErrCodeUnknownNode},
		{"bad workspace", "/v1/order", map[string]any{"workspace": "[[project"}, http.StatusBadRequest, errors.ErrCodeInvalidWorkspace},
		{"strict cycles", "/v1/order", map[string]any{"workspace": workspaceTOML, "strict_cycles": true}, http.StatusUnprocessableEntity, errors.ErrCodeCycleDetected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, ts, tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
			var out ErrorResponse
			if err := json.Unmarshal(body, &out); err != nil {
				t.Fatal(err)
			}
			if out.Error.Code != tt.code {
				t.Errorf("code = %s, want %s", out.Error.Code, tt.code)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	post(t, ts, "/v1/order", map[string]any{"workspace": workspaceTOML, "roots": []string{"lib"}})

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		`buildorder_http_requests_total{method="POST",route="/v1/order",status="200"} 1`,
		`buildorder_resolutions_total{op="order",result="ok"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	srv := New(Config{Runner: pipeline.NewRunner(nil, nil, nil), Logger: log.NewWithOptions(io.Discard, log.Options{})})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("ListenAndServe() = %v", err)
	}
}
