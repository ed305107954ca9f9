// cmd/facttrace/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"
)

func main() {
	fmt.Println(AppName + " v" + AppVersion + " starting up...")

	if err := LoadEnv(); err != nil {
		log.Printf("Warning: %v", err)
	}

	cfg, err := LoadConfig(GetEnvString("FACTTRACE_CONFIG", DefaultConfigPath))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := InitLogger(cfg.LogPath, ParseLogLevel(cfg.LogLevel)); err != nil {
		log.Printf("Warning: %v", err)
	}
	defer Logger().Close()

	// A missing or broken dataset only disables enforcement
	index, err := LoadReliabilityIndex(cfg.DatasetPath)
	if err != nil {
		Logger().Warning("Reliability dataset unavailable, enforcement disabled: %v", err)
	} else if index.Size() == 0 {
		Logger().Warning("Reliability dataset %s is empty, enforcement disabled", cfg.DatasetPath)
	} else {
		Logger().Info("Loaded %d sources from %s", index.Size(), cfg.DatasetPath)
	}

	if cfg.SearchAPIKey == "" {
		Logger().Warning("EXA_API_KEY not set, /api/analyze will fail until it is configured")
	}
	if cfg.OpenAIAPIKey == "" {
		Logger().Warning("OPENAI_API_KEY not set, analysis requests will fail until it is configured")
	}

	fetcher := NewArticleFetcher(cfg)
	Logger().Info("Fetch chain: %s", strings.Join(fetcher.AttemptNames(), ", "))
	if cfg.AllowPrivateHosts {
		Logger().Warning("ALLOW_PRIVATE_HOSTS is set, pages on private networks can be fetched")
	}

	monitor := NewHealthMonitor(index)
	server := NewServer(cfg, index,
		NewSearchClient(cfg),
		fetcher,
		NewClaimAnalyzer(cfg),
		monitor,
	)

	cronManager := cron.New()
	if _, err := cronManager.AddFunc(cfg.HealthCronSchedule, func() {
		defer func() {
			RecoverFromPanic("health-check", recover())
		}()
		monitor.PerformChecks()
	}); err != nil {
		Logger().Warning("Failed to schedule health checks (%s): %v", cfg.HealthCronSchedule, err)
	}
	cronManager.Start()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           server.Router(),
		ReadTimeout:       ServerReadTimeout,
		ReadHeaderTimeout: ServerReadHeaderLimit,
		WriteTimeout:      ServerWriteTimeout,
		IdleTimeout:       ServerIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		Logger().Info("Listening on http://localhost:%d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	select {
	case sig := <-sc:
		Logger().Info("Received %s, shutting down...", sig)
	case err := <-serverErr:
		if err != nil {
			Logger().Error("Server failed: %v", err)
		}
	}

	<-cronManager.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		Logger().Error("Graceful shutdown failed: %v", err)
	}
	Logger().Info("Shutdown complete")
}
