package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/swarmgate/config"
	"github.com/hupe1980/swarmgate/core"
	"github.com/hupe1980/swarmgate/dispatch"
	"github.com/hupe1980/swarmgate/gateway"
	"github.com/hupe1980/swarmgate/model"
	"github.com/hupe1980/swarmgate/registry"
	"github.com/hupe1980/swarmgate/stream"
)

func newTestServer(t *testing.T) (*Server, *registry.Registry) {
	t.Helper()

	reg := registry.New()
	require.NoError(t, reg.Register(core.Agent{ID: "cathy", Name: "Cathy", Role: "Personal Assistant"}))
	require.NoError(t, reg.Register(core.Agent{ID: "coder", Name: "Coder", Role: "Developer"}))

	mock := model.NewMockBackend()

	hub := gateway.NewHub()
	gw := gateway.New(hub, dispatch.New(reg, mock), reg)
	streams := stream.New(reg, mock, gw)
	gw.BindStreams(streams)

	promReg := prometheus.NewRegistry()

	srv := New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, gw, reg, streams, func(o *Options) {
		o.Gatherer = promReg
	})

	return srv, reg
}

func doGET(t *testing.T, srv *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()

	srv.Echo().ServeHTTP(rec, req)

	var body map[string]any
	if rec.Header().Get("Content-Type") != "" && json.Unmarshal(rec.Body.Bytes(), &body) != nil {
		body = nil
	}

	return rec, body
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, body := doGET(t, srv, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["status"])

	data := body["data"].(map[string]any)
	assert.Equal(t, Version, data["version"])
	assert.Equal(t, float64(2), data["registered_agents"])
}

func TestAgents(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, body := doGET(t, srv, "/api/agents")
	require.Equal(t, http.StatusOK, rec.Code)

	agents := body["data"].([]any)
	require.Len(t, agents, 2)
	assert.Equal(t, "cathy", agents[0].(map[string]any)["id"])
}

func TestAgentByID(t *testing.T) {
	srv, reg := newTestServer(t)
	require.NoError(t, reg.RecordOutcome("coder", true, 100*time.Millisecond))

	rec, body := doGET(t, srv, "/api/agents/coder")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]any)
	assert.Equal(t, float64(100), data["success_rate"])
	assert.Equal(t, float64(100), data["avg_response_time_ms"])

	rec, body = doGET(t, srv, "/api/agents/ghost")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", body["status"])
}

func TestSwarmStatus(t *testing.T) {
	srv, reg := newTestServer(t)
	require.NoError(t, reg.RecordOutcome("cathy", true, 10*time.Millisecond))
	require.NoError(t, reg.RecordOutcome("cathy", false, 10*time.Millisecond))

	rec, body := doGET(t, srv, "/api/swarm/status")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]any)
	totals := data["totals"].(map[string]any)
	assert.Equal(t, float64(2), totals["total_agents"])
	assert.Equal(t, float64(50), totals["overall_success_rate"])

	agents := data["agents"].([]any)
	require.Len(t, agents, 2)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, _ := doGET(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}
