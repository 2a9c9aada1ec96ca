// swarmd runs the swarmgate daemon: it wires config, logger, registry,
// model backend, dispatch coordinator, stream manager, websocket gateway
// and the HTTP server, then blocks until an interrupt.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/swarmgate/config"
	"github.com/hupe1980/swarmgate/conversation"
	"github.com/hupe1980/swarmgate/dispatch"
	"github.com/hupe1980/swarmgate/gateway"
	"github.com/hupe1980/swarmgate/logging"
	"github.com/hupe1980/swarmgate/metrics"
	"github.com/hupe1980/swarmgate/model"
	"github.com/hupe1980/swarmgate/model/anthropic"
	"github.com/hupe1980/swarmgate/model/openai"
	"github.com/hupe1980/swarmgate/registry"
	"github.com/hupe1980/swarmgate/selector"
	"github.com/hupe1980/swarmgate/server"
	"github.com/hupe1980/swarmgate/stream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.NewSlogLogger(logging.ParseLogLevel(cfg.Logging.Level), cfg.Logging.Format, false).
		WithContext("version", server.Version)

	backend, err := buildBackend(cfg.Backend)
	if err != nil {
		log.Fatalf("build backend: %v", err)
	}

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	reg := registry.New(func(o *registry.Options) {
		o.Logger = logger.WithComponent("registry")
	})

	for _, agent := range cfg.AgentDefs() {
		if err := reg.Register(agent); err != nil {
			log.Fatalf("register agent %q: %v", agent.ID, err)
		}
	}

	logger.Info("Fleet registered", "agents", reg.Len(), "backend", backend.Info().Provider)

	sel := selector.New(func(o *selector.Options) {
		o.Weights = selector.Weights{
			Capability:  cfg.Selector.CapabilityWeight,
			Performance: cfg.Selector.PerformanceWeight,
			IdleBonus:   cfg.Selector.IdleBonus,
		}
		o.Logger = logger.WithComponent("selector")
	})

	coordinator := dispatch.New(reg, backend, func(o *dispatch.Options) {
		o.Selector = sel
		o.Conversations = conversation.NewStore()
		o.InvokeTimeout = cfg.Dispatch.Timeout
		o.HistoryLimit = cfg.Dispatch.HistoryLimit
		o.Logger = logger.WithComponent("dispatch")
		o.Metrics = m
	})

	hub := gateway.NewHub(func(o *gateway.HubOptions) {
		o.Logger = logger.WithComponent("hub")
		o.Metrics = m
	})

	gw := gateway.New(hub, coordinator, reg, func(o *gateway.Options) {
		o.Logger = logger.WithComponent("gateway")
	})

	streams := stream.New(reg, backend, gw, func(o *stream.Options) {
		o.Logger = logger.WithComponent("stream")
		o.Metrics = m
	})
	gw.BindStreams(streams)

	reg.SetStatusListener(gw.AgentStatusChanged)

	srv := server.New(cfg.Server, gw, reg, streams, func(o *server.Options) {
		o.Gatherer = promReg
		o.Logger = logger.WithComponent("server")
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithStack(err, "Server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
}

func buildBackend(cfg config.BackendConfig) (model.Backend, error) {
	switch cfg.Provider {
	case "", "mock":
		return model.NewMockBackend(), nil
	case "openai":
		return openai.NewBackend(func(o *openai.Options) {
			o.APIKey = cfg.APIKey
			if cfg.BaseURL != "" {
				o.BaseURL = cfg.BaseURL
			}
			if cfg.DefaultModel != "" {
				o.Model = cfg.DefaultModel
			}
		}), nil
	case "openrouter":
		return openai.NewOpenRouterBackend(cfg.APIKey, func(o *openai.Options) {
			if cfg.DefaultModel != "" {
				o.Model = cfg.DefaultModel
			}
		}), nil
	case "anthropic":
		return anthropic.NewBackend(func(o *anthropic.Options) {
			o.APIKey = cfg.APIKey
			if cfg.DefaultModel != "" {
				o.Model = anthropicsdk.Model(cfg.DefaultModel)
			}
		}), nil
	default:
		return nil, fmt.Errorf("unknown backend provider %q", cfg.Provider)
	}
}
