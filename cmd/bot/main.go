package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"safc/internal/config"
	"safc/internal/conversation"
	"safc/internal/db"
	"safc/internal/logger"
	"safc/internal/query"
	"safc/internal/store"
	"safc/internal/telegram"
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
	log = log.WithSalt(cfg.Bot.Token)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	sessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		log.Fatal("Session store init failed", "store", cfg.Bot.SessionStore, "error", err)
	}

	client, err := telegram.NewClient(cfg.Bot.Token, log)
	if err != nil {
		log.Fatal("Telegram init failed", "error", err)
	}
	if err := client.RegisterCommands(); err != nil {
		log.Warn("Register bot commands failed", "error", err)
	}

	machine := conversation.NewMachine(s, engine, conversation.WithHalfWidth(cfg.Bot.PageHalfWidth))
	runner := conversation.NewRunner(machine, sessions, client, log)

	log.Info("SAFC bot polling", "session_store", cfg.Bot.SessionStore, "workers", cfg.Bot.Workers)
	if err := client.Poll(ctx, runner, cfg.Bot.Workers); err != nil {
		log.Error("Polling stopped", "error", err)
	}
	log.Info("SAFC bot stopped")
}

func newSessionStore(ctx context.Context, cfg *config.AppConfig) (conversation.SessionStore, error) {
	if cfg.Bot.SessionStore == "redis" {
		client, err := conversation.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		return conversation.NewRedisSessionStore(client, cfg.Bot.SessionTTL), nil
	}
	mem, err := conversation.NewMemorySessionStore(cfg.Bot.SessionCapacity, cfg.Bot.SessionTTL)
	if err != nil {
		return nil, err
	}
	return mem, nil
}
