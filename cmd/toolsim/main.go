// Command toolsim runs a local toolbox stand-in serving the support toolset,
// so the agent can be exercised without the production tool server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/imohq/supportdesk/internal/toolsim"
)

func main() {
	bindAddr := envOrDefault("TOOLSIM_BIND_ADDR", ":5000")

	ctx := context.Background()
	srv, err := toolsim.New(ctx, toolsim.Config{
		ToolsetName: envOrDefault("TOOLBOX_TOOLSET", "support-toolset"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:    strings.TrimSpace(os.Getenv("REDIS_URL")),
	})
	if err != nil {
		log.Fatalf("toolsim init failed: %v", err)
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:    bindAddr,
		Handler: srv.Router(),
	}

	go func() {
		log.Printf("toolsim listening on %s", bindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		_ = httpServer.Close()
	}
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}
