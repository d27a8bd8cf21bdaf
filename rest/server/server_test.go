package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mensylisir/dockmcp/pkg/common"
	"github.com/mensylisir/dockmcp/pkg/docker"
	"github.com/mensylisir/dockmcp/pkg/errors/classify"
	"github.com/mensylisir/dockmcp/pkg/logger"
	"github.com/mensylisir/dockmcp/pkg/mcp"
	"github.com/mensylisir/dockmcp/pkg/runner"
	"github.com/mensylisir/dockmcp/rest/server/handler"
)

type mockService struct {
	DoFunc   func(ctx context.Context, req runner.Request) (runner.Result, error)
	InfoFunc func(ctx context.Context) (*runner.DaemonInfo, error)
	last     runner.Request
}

func (m *mockService) Do(ctx context.Context, req runner.Request) (runner.Result, error) {
	m.last = req
	return m.DoFunc(ctx, req)
}

func (m *mockService) Info(ctx context.Context) (*runner.DaemonInfo, error) {
	return m.InfoFunc(ctx)
}

var web = docker.ContainerRecord{ID: "aaa111", Name: "web", Image: "nginx", Status: "Up 1 hour"}

func newMockService() *mockService {
	return &mockService{
		DoFunc: func(ctx context.Context, req runner.Request) (runner.Result, error) {
			if err := req.Validate(); err != nil {
				return nil, err
			}
			switch in := req.(type) {
			case runner.ListInput:
				return &runner.ListResult{All: in.All, Containers: []docker.ContainerRecord{web}}, nil
			case runner.LogsInput:
				return &runner.LogsResult{Container: web, Logs: "line1\nline2\n"}, nil
			case runner.InspectInput:
				if in.Container == "ghost" {
					return nil, classify.NotFound("ghost", false)
				}
				return &runner.InspectResult{Container: web, Document: json.RawMessage(`{"Id":"aaa111"}`)}, nil
			case runner.StatsInput:
				return nil, classify.New(classify.ContainerNotRunning, "container is not running: web")
			case runner.ExecInput:
				return &runner.ExecResult{Container: web, ExecResult: docker.ExecResult{Stdout: "hi\n", ExitCode: 3}}, nil
			}
			return nil, classify.New(classify.Unclassified, "unexpected")
		},
		InfoFunc: func(ctx context.Context) (*runner.DaemonInfo, error) {
			return &runner.DaemonInfo{Binary: "docker", ServerVersion: "24.0.7", Reachable: true, Supported: true, MinimumVersion: common.MinimumDockerVersion}, nil
		},
	}
}

func newTestAPIServer(svc *mockService) *APIServer {
	log := logger.Nop()
	return NewAPIServer(NewDefaultConfig(), svc, mcp.NewServer(svc, "test", log), log)
}

func do(t *testing.T, s *APIServer, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func errorBody(t *testing.T, body []byte) handler.ErrorDetail {
	t.Helper()
	var out handler.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out.Error
}

func TestHealthz(t *testing.T) {
	svc := newMockService()
	s := newTestAPIServer(svc)

	resp, body := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"serverVersion":"24.0.7"`)

	svc.InfoFunc = func(ctx context.Context) (*runner.DaemonInfo, error) {
		err := classify.New(classify.DaemonUnavailable, "Docker daemon is not accessible")
		return &runner.DaemonInfo{Binary: "docker", Problem: err.Message}, err
	}
	resp, body = do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), `"reachable":false`)
}

func TestContainerRoutes(t *testing.T) {
	svc := newMockService()
	s := newTestAPIServer(svc)

	t.Run("list", func(t *testing.T) {
		resp, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/containers?all=true", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, runner.ListInput{All: true}, svc.last)
		var out runner.ListResult
		require.NoError(t, json.Unmarshal(body, &out))
		assert.Equal(t, []docker.ContainerRecord{web}, out.Containers)
	})

	t.Run("list bad flag", func(t *testing.T) {
		resp, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/containers?all=maybe", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "InvalidArgument", errorBody(t, body).Kind)
	})

	t.Run("logs", func(t *testing.T) {
		resp, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/containers/web/logs?lines=5&since=10m&timestamps=true", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "line1\nline2\n", string(body))
		assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))
		in := svc.last.(runner.LogsInput)
		assert.Equal(t, "web", in.Container)
		require.NotNil(t, in.Lines)
		assert.Equal(t, 5, *in.Lines)
		assert.Equal(t, "10m", in.Since)
		assert.True(t, in.Timestamps)
	})

	t.Run("logs rejects out of range lines", func(t *testing.T) {
		resp, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/containers/web/logs?lines=0", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, errorBody(t, body).Message, "lines")
	})

	t.Run("logs rejects non-integer lines", func(t *testing.T) {
		resp, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/containers/web/logs?lines=ten", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, errorBody(t, body).Message, `lines: must be an integer, got "ten"`)
	})

	t.Run("logs reports every bad query field", func(t *testing.T) {
		resp, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/containers/web/logs?lines=ten&since=yesterday&until=later", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		msg := errorBody(t, body).Message
		assert.Contains(t, msg, `lines: must be an integer, got "ten"`)
		assert.Contains(t, msg, `since: invalid timestamp "yesterday"`)
		assert.Contains(t, msg, `until: invalid timestamp "later"`)
	})

	t.Run("inspect", func(t *testing.T) {
		resp, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/containers/web/inspect", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"Id":"aaa111"}`, string(body))
	})

	t.Run("inspect not found", func(t *testing.T) {
		resp, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/containers/ghost/inspect", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "ContainerNotFound", errorBody(t, body).Kind)
	})

	t.Run("stats not running", func(t *testing.T) {
		resp, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/containers/web/stats", nil))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "ContainerNotRunning", errorBody(t, body).Kind)
	})

	t.Run("exec non-zero exit is 200", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/containers/web/exec", strings.NewReader(`{"command":["sh","-c","exit 3"],"env":["A=1"]}`))
		req.Header.Set("Content-Type", "application/json")
		resp, body := do(t, s, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), `"exitCode":3`)
		in := svc.last.(runner.ExecInput)
		assert.Equal(t, "web", in.Container)
		assert.Equal(t, []string{"sh", "-c", "exit 3"}, in.Command)
		assert.Equal(t, []string{"A=1"}, in.Env)
	})

	t.Run("exec validation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/containers/web/exec", strings.NewReader(`{"command":[],"workingDir":"tmp"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, body := do(t, s, req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		msg := errorBody(t, body).Message
		assert.Contains(t, msg, "command")
		assert.Contains(t, msg, "workingDir")
	})

	t.Run("exec malformed body still checks the container", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/containers/-web/exec", strings.NewReader(`{"command":"ls"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, body := do(t, s, req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		msg := errorBody(t, body).Message
		assert.Contains(t, msg, "body: must be a JSON object")
		assert.Contains(t, msg, `container: invalid container identifier "-web"`)
	})

	t.Run("unknown route", func(t *testing.T) {
		resp, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/images", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Unclassified", errorBody(t, body).Kind)
	})
}

func TestContainerRoutes_DaemonDown(t *testing.T) {
	svc := newMockService()
	svc.DoFunc = func(ctx context.Context, req runner.Request) (runner.Result, error) {
		return nil, classify.New(classify.DaemonUnavailable, "Docker daemon is not accessible")
	}
	s := newTestAPIServer(svc)
	resp, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/containers", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "DaemonUnavailable", errorBody(t, body).Kind)
}

func postMCP(t *testing.T, s *APIServer, session, msg string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(msg))
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(common.HeaderSessionID, session)
	}
	return do(t, s, req)
}

func TestMCPOverHTTP(t *testing.T) {
	s := newTestAPIServer(newMockService())

	resp, body := postMCP(t, s, "", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"t","version":"1"}}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session := resp.Header.Get(common.HeaderSessionID)
	require.NotEmpty(t, session)
	assert.Contains(t, string(body), `"protocolVersion":"2024-11-05"`)
	assert.Equal(t, 1, s.mcp.Sessions().Len())

	resp, _ = postMCP(t, s, session, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, body = postMCP(t, s, session, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"docker_exec","arguments":{"container":"web","command":["false"]}}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `\"exitCode\": 3`)
	assert.NotContains(t, string(body), `"isError":true`)

	resp, _ = postMCP(t, s, "", `{"jsonrpc":"2.0","id":3,"method":"tools/list"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postMCP(t, s, "not-a-session", `{"jsonrpc":"2.0","id":3,"method":"tools/list"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	del := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
	del.Header.Set(common.HeaderSessionID, session)
	resp, _ = do(t, s, del)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, s.mcp.Sessions().Len())

	resp, _ = postMCP(t, s, session, `{"jsonrpc":"2.0","id":4,"method":"ping"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServe_ShutdownOnCancel(t *testing.T) {
	s := newTestAPIServer(newMockService())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Serve(ctx, ln) }()

	addr := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(addr)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	s.mcp.Sessions().Create(context.Background(), common.TransportHTTP)
	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Equal(t, 0, s.mcp.Sessions().Len())
}
