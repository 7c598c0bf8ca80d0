package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sekolahku/kurikulum/internal/ai"
	"github.com/sekolahku/kurikulum/internal/audit"
	"github.com/sekolahku/kurikulum/internal/auth"
	"github.com/sekolahku/kurikulum/internal/curriculum"
	"github.com/sekolahku/kurikulum/internal/planner"
	"github.com/sekolahku/kurikulum/internal/platform/cache"
	"github.com/sekolahku/kurikulum/internal/platform/config"
	"github.com/sekolahku/kurikulum/internal/platform/database"
	"github.com/sekolahku/kurikulum/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	year, err := curriculum.ParseAcademicYear(cfg.AcademicYear)
	if err != nil {
		slog.Error("invalid academic year", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	bus := store.NewBus()

	// Storage: PostgreSQL when configured, otherwise in-memory with a
	// warning. Memory mode is fine for trying the tool out; nothing
	// survives a restart.
	var (
		st       store.Store
		auditLog audit.Log
		db       *database.DB
	)
	if cfg.Database.URL != "" {
		db, err = database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}

		st, err = store.NewPostgresStore(db.Pool, bus)
		if err != nil {
			slog.Error("failed to create store", "error", err)
			os.Exit(1)
		}
		auditLog = audit.NewPostgresLog(db.Pool)
	} else {
		slog.Warn("no database configured, using in-memory store; data will not survive a restart")
		st = store.NewMemoryStore(bus)
		auditLog = audit.NewMemoryLog()
	}

	// Cache: sessions and cross-instance change notification when Redis is
	// configured.
	var sessions auth.SessionStore = auth.NewMemorySessions()
	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			slog.Error("failed to connect to cache", "error", err)
			os.Exit(1)
		}
		defer c.Close()

		sessions = auth.NewRedisSessions(c)

		notifier, err := store.NewNotifier(ctx, c.Client, bus)
		if err != nil {
			slog.Error("failed to start change notifier", "error", err)
			os.Exit(1)
		}
		defer notifier.Close()
	}

	master, err := curriculum.LoadMasterData(cfg.MasterDataPath)
	if err != nil {
		slog.Warn("master data unavailable", "path", cfg.MasterDataPath, "error", err)
	} else if err := seedSchedule(ctx, st, master); err != nil {
		slog.Error("failed to seed weekly schedule", "error", err)
		os.Exit(1)
	}

	authSvc := auth.NewService(st, sessions, auth.Config{
		BcryptCost: cfg.Auth.BcryptCost,
		SessionTTL: time.Duration(cfg.Auth.SessionTTL) * time.Hour,
	})
	if err := authSvc.EnsureAdmin(ctx, "admin", cfg.Auth.AdminPassword); err != nil {
		slog.Error("failed to bootstrap admin user", "error", err)
		os.Exit(1)
	}

	plannerSvc := planner.NewService(planner.ServiceConfig{
		Store: st,
		Audit: auditLog,
		Year:  year,
	})

	var drafter *ai.Drafter
	if cfg.HasAIProvider() {
		opts := []ai.OpenAIOption{}
		if cfg.AI.BaseURL != "" {
			opts = append(opts, ai.WithBaseURL(cfg.AI.BaseURL))
		}
		provider := ai.NewOpenAIProvider(cfg.AI.APIKey, opts...)
		drafter = ai.NewDrafter(provider, ai.NewInMemoryBudget(0), cfg.AI.Model)
	} else {
		slog.Info("no drafting provider configured, /api/draft disabled")
	}

	app := &app{
		cfg:     cfg,
		store:   st,
		bus:     bus,
		planner: plannerSvc,
		auth:    authSvc,
		drafter: drafter,
		year:    year,
		db:      db,
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// seedSchedule pre-populates an empty weekly_schedule collection from master
// data so a fresh deployment can schedule right away.
func seedSchedule(ctx context.Context, st store.Store, master *curriculum.MasterData) error {
	docs, err := st.List(ctx, store.ColWeeklySchedule)
	if err != nil {
		return err
	}
	if len(docs) > 0 {
		return nil
	}

	slots := master.SeedSchedule()
	for _, slot := range slots {
		if _, err := st.Create(ctx, store.ColWeeklySchedule, slot.Document()); err != nil {
			return err
		}
	}
	if len(slots) > 0 {
		slog.Info("seeded weekly schedule from master data", "slots", len(slots))
	}
	return nil
}
