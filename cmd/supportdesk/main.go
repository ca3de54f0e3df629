package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/imohq/supportdesk/internal/agent"
	"github.com/imohq/supportdesk/internal/config"
	"github.com/imohq/supportdesk/internal/httpapi"
	"github.com/imohq/supportdesk/internal/llm"
	"github.com/imohq/supportdesk/internal/memory"
	"github.com/imohq/supportdesk/internal/observability"
	"github.com/imohq/supportdesk/internal/toolbox"
	"github.com/imohq/supportdesk/internal/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	memoryStore, err := memory.NewStore(ctx, cfg.RedisURL, cfg.DatabaseURL, memory.Options{
		TTL:      cfg.MemoryTTL,
		MaxTurns: cfg.MemoryMaxTurns,
	})
	if err != nil {
		log.Fatalf("memory store init failed: %v", err)
	}
	defer memoryStore.Close()

	gateway := toolbox.NewClient(cfg.ToolboxBaseURL, cfg.ToolsetName, cfg.ToolboxTimeout)

	var search tools.WebSearcher
	if cfg.TavilyAPIKey != "" {
		search = tools.NewTavilyClient(tools.TavilyConfig{
			APIKey:  cfg.TavilyAPIKey,
			Timeout: cfg.WebSearchTimeout,
		})
		log.Printf("web search provider: tavily")
	} else {
		log.Printf("web search provider: mock (no TAVILY_API_KEY)")
	}

	provider := tools.NewProvider(gateway, search, metrics, tools.Config{
		CacheTTL:             cfg.CacheTTL,
		LocalCacheMaxEntries: cfg.LocalCacheMaxEntries,
	})

	var generator llm.Generator
	if cfg.APIKey != "" {
		generator = llm.NewOpenAIClient(llm.OpenAIConfig{
			Model:   cfg.AgentModel,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
		})
		log.Printf("generation provider: %s", cfg.AgentModel)
	} else {
		log.Printf("generation provider: none (no API key; serving fixed replies)")
	}

	supportAgent := agent.New(provider, memoryStore, generator, metrics, agent.Config{
		CacheTTL: cfg.CacheTTL,
		MaxTurns: cfg.MemoryMaxTurns,
	})

	api := httpapi.New(cfg, supportAgent, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
