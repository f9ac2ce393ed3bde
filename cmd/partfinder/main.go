// part-finder matches PCB bill-of-materials line items against
// distributor and knowledge-base data: an HTTP ingestion/read API
// backed by an async queue of concurrent per-project matching
// pipelines. Wiring order follows
// codeready-toolchain-tarsy/cmd/tarsy/main.go.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/LastZactionHero/part-finder/pkg/api"
	"github.com/LastZactionHero/part-finder/pkg/config"
	"github.com/LastZactionHero/part-finder/pkg/database"
	"github.com/LastZactionHero/part-finder/pkg/distributor"
	"github.com/LastZactionHero/part-finder/pkg/ingestion"
	"github.com/LastZactionHero/part-finder/pkg/llm"
	"github.com/LastZactionHero/part-finder/pkg/match"
	"github.com/LastZactionHero/part-finder/pkg/queue"
	"github.com/LastZactionHero/part-finder/pkg/store"
	"github.com/LastZactionHero/part-finder/pkg/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	configureLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := database.NewClient(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("error closing database client", "error", err)
		}
	}()
	slog.Info("connected to database")

	st := store.New(dbClient.Gorm)

	cacheMaxAge := time.Duration(cfg.CacheMaxAgeSeconds) * time.Second
	cache := distributor.NewCache(st, cacheMaxAge)
	distClient := distributor.NewClient(cfg.MouserAPIKey, cache)
	llmClient := llm.NewHTTPClient(cfg.LLMProvider, cfg.LLMAPIKey, cfg.LLMModel)

	pipeline := match.New(st, distClient, llmClient)
	projectWorker := worker.New(st, pipeline, cfg.WorkerPoolWidth)
	runner := queue.New(st, projectWorker)

	go runner.Start(ctx)
	slog.Info("queue runner started", "pool_width", cfg.WorkerPoolWidth)

	ing := ingestion.New(st, llmClient)
	server := api.New(st, ing, distClient)

	addr := ":" + strconv.Itoa(cfg.HTTPPort)
	slog.Info("http server listening", "addr", addr)
	if err := server.Run(ctx, addr); err != nil {
		slog.Error("http server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func configureLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}
