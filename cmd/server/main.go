package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safc/internal/config"
	"safc/internal/db"
	"safc/internal/logger"
	"safc/internal/query"
	"safc/internal/router"
	"safc/internal/services"
	"safc/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Initialize Database
	gdb, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatal("Database init failed", "driver", cfg.Database.Driver, "error", err)
	}
	defer db.Close(gdb)

	s := store.New(gdb)
	engine, err := query.NewEngine(s, cfg.Search.MaxObjectMatches, cfg.Search.MaxCommentMatches)
	if err != nil {
		log.Fatal("Invalid search limits", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 每日配额计数
	quota := services.NewQuotaService(cfg.Quota.MaxPostsPerDay, cfg.Quota.ResetHour, log)
	quota.StartDailyReset(ctx)

	gin.SetMode(cfg.Server.Mode)
	r := router.New(router.Deps{
		Config: cfg,
		DB:     gdb,
		Store:  s,
		Engine: engine,
		Quota:  quota,
		Log:    log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("SAFC API server starting", "addr", srv.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
	log.Info("SAFC API server stopped")
}
