package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/avishiprsd/llm-automation-agent/internal/adapter/execlocal"
	"github.com/avishiprsd/llm-automation-agent/internal/adapter/gitlocal"
	cfhttp "github.com/avishiprsd/llm-automation-agent/internal/adapter/http"
	"github.com/avishiprsd/llm-automation-agent/internal/adapter/imaging"
	"github.com/avishiprsd/llm-automation-agent/internal/adapter/litellm"
	cfmcp "github.com/avishiprsd/llm-automation-agent/internal/adapter/mcp"
	cfotel "github.com/avishiprsd/llm-automation-agent/internal/adapter/otel"
	"github.com/avishiprsd/llm-automation-agent/internal/adapter/ristretto"
	"github.com/avishiprsd/llm-automation-agent/internal/adapter/sqlite"
	"github.com/avishiprsd/llm-automation-agent/internal/adapter/webfetch"
	"github.com/avishiprsd/llm-automation-agent/internal/config"
	"github.com/avishiprsd/llm-automation-agent/internal/domain/sandbox"
	"github.com/avishiprsd/llm-automation-agent/internal/git"
	"github.com/avishiprsd/llm-automation-agent/internal/logger"
	"github.com/avishiprsd/llm-automation-agent/internal/middleware"
	"github.com/avishiprsd/llm-automation-agent/internal/resilience"
	"github.com/avishiprsd/llm-automation-agent/internal/service"
)

const (
	version         = "0.1.0"
	shutdownTimeout = 10 * time.Second
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	cfg, cfgPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closer := logger.New(cfg.Logging)
	defer closer.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"file", cfgPath,
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"sandbox_root", cfg.Sandbox.Root,
		"sandbox_mode", cfg.Sandbox.Mode,
		"llm_url", cfg.LLM.URL,
		"llm_model", cfg.LLM.Model,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---

	shutdownOtel, err := cfotel.Setup(ctx, cfg.Telemetry, cfg.Logging.Service, version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOtel(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	policy, err := sandbox.NewPolicy(cfg.Sandbox.Root, sandbox.Mode(cfg.Sandbox.Mode))
	if err != nil {
		return fmt.Errorf("sandbox: %w", err)
	}

	svc, cleanup, err := buildServices(cfg, policy)
	if err != nil {
		return err
	}
	defer cleanup()
	svc.engine.SetMetrics(metrics)

	// --- HTTP ---

	limiter := middleware.NewRateLimiterFromConfig(cfg.Rate)
	limiter.StartCleanup(ctx, cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(cfotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(cfhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cfhttp.SecurityHeaders)
	r.Use(limiter.Handler)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
		cfhttp.MountRoutes(r, &cfhttp.Handlers{
			Tasks:            svc.engine,
			Files:            service.NewReadGateway(policy),
			LLM:              svc.llm,
			SandboxRoot:      policy.Root,
			StrictReadStatus: cfg.Sandbox.StrictReadStatus,
		})
	})

	if cfg.MCP.Enabled {
		mcpSrv := cfmcp.NewServer(
			cfmcp.ServerConfig{Name: cfg.MCP.Name, Version: cfg.MCP.Version, APIKey: cfg.MCP.APIKey},
			cfmcp.ServerDeps{
				Tasks:  svc.engine,
				Files:  service.NewReadGateway(policy),
				Routes: svc.engine.Dispatcher(),
			},
		)
		r.Handle("/mcp", mcpSrv.Handler())
	}

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "routes", len(svc.engine.Dispatcher().Routes()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// services bundles what the transports need from the wired service layer.
type services struct {
	engine *service.Engine
	llm    *litellm.Client
}

// buildServices wires every adapter behind its port and returns the task
// engine. The cleanup releases the cache.
func buildServices(cfg *config.Config, policy *sandbox.Policy) (*services, func(), error) {
	llmClient := litellm.NewClient(cfg.LLM.URL, cfg.LLM.APIKey, litellm.Options{
		Model:              cfg.LLM.Model,
		VisionModel:        cfg.LLM.VisionModel,
		TranscriptionModel: cfg.LLM.TranscriptionModel,
		MaxTokens:          cfg.LLM.MaxTokens,
		Timeout:            cfg.LLM.Timeout,
	})
	llmClient.SetHTTPClient(cfotel.NewHTTPClient(cfg.LLM.Timeout))
	llmClient.SetBreaker(newBreaker("llm", cfg.Breaker))

	fetcher := webfetch.NewClient(cfg.Fetch.Timeout, cfg.Fetch.MaxBodyBytes)
	fetcher.SetHTTPClient(cfotel.NewHTTPClient(cfg.Fetch.Timeout))
	fetcher.SetBreaker(newBreaker("fetch", cfg.Breaker))

	runner := execlocal.NewRunner(cfg.Exec.Timeout, cfg.Exec.MaxOutput)
	gitProvider := gitlocal.NewProvider(runner, git.NewPool(cfg.Git.MaxConcurrent), gitlocal.Author{
		Name:  cfg.Git.AuthorName,
		Email: cfg.Git.AuthorEmail,
	})

	cache, err := ristretto.NewMB(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return nil, nil, fmt.Errorf("cache: %w", err)
	}

	handlers := service.NewHandlers(service.HandlerDeps{
		Policy:      policy,
		Interpreter: llmClient,
		Runner:      runner,
		Git:         gitProvider,
		Querier:     sqlite.NewQuerier(),
		Fetcher:     fetcher,
		Text:        fetcher,
		Resizer:     imaging.NewResizer(),
		Cache:       cache,
		Generator:   cfg.Generator,
		CacheTTL:    cfg.Cache.TTL,
	})
	engine := service.NewEngine(
		service.NewIntentExtractor(llmClient),
		service.NewDispatcher(service.StandardRoutes(handlers)),
		policy,
	)
	return &services{engine: engine, llm: llmClient}, cache.Close, nil
}

func newBreaker(name string, cfg config.Breaker) *resilience.Breaker {
	b := resilience.NewBreaker(name, cfg.MaxFailures, cfg.Timeout)
	b.OnStateChange(func(name string, from, to resilience.State) {
		slog.Warn("circuit breaker state change", "breaker", name, "from", string(from), "to", string(to))
	})
	return b
}
