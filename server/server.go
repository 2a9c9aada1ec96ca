// Package server exposes the HTTP surface of the daemon: a small REST
// API over the registry, Prometheus metrics and the websocket endpoint.
package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/swarmgate/config"
	"github.com/hupe1980/swarmgate/core"
	"github.com/hupe1980/swarmgate/gateway"
	"github.com/hupe1980/swarmgate/logging"
	"github.com/hupe1980/swarmgate/registry"
	"github.com/hupe1980/swarmgate/stream"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Options configures a Server.
type Options struct {
	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	Logger logging.Logger
}

// Server wires the echo router over the swarm components.
type Server struct {
	echo     *echo.Echo
	cfg      config.ServerConfig
	gw       *gateway.Gateway
	registry *registry.Registry
	streams  *stream.Manager
	logger   logging.Logger
}

// apiResponse is the REST envelope: {"status": "...", "data"/"message": ...}.
type apiResponse struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func success(data any) apiResponse {
	return apiResponse{Status: "success", Data: data}
}

func failure(message string) apiResponse {
	return apiResponse{Status: "error", Message: message}
}

// New builds the router. Routes are registered immediately; call Start
// to listen.
func New(cfg config.ServerConfig, gw *gateway.Gateway, reg *registry.Registry, streams *stream.Manager, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:     e,
		cfg:      cfg,
		gw:       gw,
		registry: reg,
		streams:  streams,
		logger:   opts.Logger,
	}

	api := e.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/agents", s.handleAgents)
	api.GET("/agents/:id", s.handleAgent)
	api.GET("/swarm/status", s.handleSwarmStatus)

	if opts.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	e.GET("/ws", gw.HandleWS)

	return s
}

// Start listens on the configured address and blocks until shutdown.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.cfg.Addr())

	return s.echo.Start(s.cfg.Addr())
}

// Shutdown drains the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the router, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, success(map[string]any{
		"version":           Version,
		"registry":          "healthy",
		"gateway":           "healthy",
		"registered_agents": s.registry.Len(),
		"connected_clients": s.gw.Hub().ClientCount(),
		"active_streams":    s.streams.ActiveCount(),
	}))
}

func (s *Server) handleAgents(c echo.Context) error {
	return c.JSON(http.StatusOK, success(s.registry.List()))
}

func (s *Server) handleAgent(c echo.Context) error {
	agent, err := s.registry.Get(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, failure(err.Error()))
	}

	return c.JSON(http.StatusOK, success(map[string]any{
		"agent":                agent,
		"success_rate":         agent.Stats.SuccessRate(),
		"avg_response_time_ms": agent.Stats.AvgResponseTimeMs(),
	}))
}

func (s *Server) handleSwarmStatus(c echo.Context) error {
	agg := s.registry.Stats()

	type agentStatus struct {
		ID     string           `json:"id"`
		Name   string           `json:"name"`
		Status core.AgentStatus `json:"status"`
	}

	agents := s.registry.List()
	statuses := make([]agentStatus, len(agents))
	for i, a := range agents {
		statuses[i] = agentStatus{ID: a.ID, Name: a.Name, Status: a.Status}
	}

	return c.JSON(http.StatusOK, success(map[string]any{
		"totals": agg,
		"agents": statuses,
	}))
}
