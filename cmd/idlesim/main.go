// Command idlesim runs the idle economy simulation with persistence and an HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/idle-economy/internal/api"
	"github.com/talgya/idle-economy/internal/config"
	"github.com/talgya/idle-economy/internal/engine"
	"github.com/talgya/idle-economy/internal/persistence"
	"github.com/talgya/idle-economy/internal/snapshot"
)

const keepSaves = 20

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	configPath := os.Getenv("IDLESIM_CONFIG")
	dbPath := envOrDefault("IDLESIM_DB", "data/idle.db")
	apiPort := envIntOrDefault("IDLESIM_PORT", 8080)
	slot := envOrDefault("IDLESIM_SLOT", "main")

	// ── Definitions ───────────────────────────────────────────────────
	cfg, err := loadConfig(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}
	config.ApplyEnv(&cfg.Balance)
	slog.Info("catalog loaded",
		"resources", len(cfg.Resources),
		"generators", len(cfg.Generators),
		"upgrades", len(cfg.Upgrades),
		"prestige_tiers", len(cfg.Prestige),
		"events", len(cfg.Events),
		"map_nodes", len(cfg.MapNodes),
	)

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(dbPath), 0755)
	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", dbPath, "slot", slot)

	// ── Load or start fresh ───────────────────────────────────────────
	sim := engine.NewSimulation(cfg)
	rec, err := db.LoadLatest(slot)
	switch {
	case errors.Is(err, persistence.ErrNoSave):
		slog.Info("no saved state found, starting fresh")
	case err != nil:
		slog.Error("failed to load save", "slot", slot, "error", err)
		os.Exit(1)
	default:
		sim.RestoreState(rec)
		report := sim.Resume(sim.Clock.Now())
		slog.Info("state restored",
			"tick", sim.LastTick,
			"saved_at", rec.SavedAt,
			"offline_seconds", fmt.Sprintf("%.0f", report.Effective),
		)
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine(sim)
	eng.Interval = time.Duration(cfg.Balance.TickIntervalMS) * time.Millisecond
	eng.AutosaveEvery = time.Duration(cfg.Balance.AutosaveSeconds) * time.Second
	eng.OnAutosave = func(rec snapshot.Record) { save(db, slot, rec) }
	if v, err := db.GetMeta("speed"); err == nil {
		if speed, err := strconv.ParseFloat(v, 64); err == nil {
			eng.SetSpeed(speed)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := api.NewHub()
	go hub.Run(ctx)
	eng.OnEvents = hub.Publish

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("IDLESIM_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("IDLESIM_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}
	limiter := api.NewRateLimiter(5, 20)
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup()
			}
		}
	}()

	apiServer := &api.Server{
		Eng:      eng,
		DB:       db,
		Slot:     slot,
		Keep:     keepSaves,
		Port:     apiPort,
		AdminKey: adminKey,
		Hub:      hub,
		Commands: limiter,
	}
	httpServer := apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", apiPort)
	if sim.LastTick > 0 {
		fmt.Printf("Resuming from tick %d\n", sim.LastTick)
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run(ctx)
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown", "error", err)
	}

	// Final save on shutdown.
	var final snapshot.Record
	eng.Do(func(sim *engine.Simulation) { final = sim.Shutdown() })
	save(db, slot, final)
	if err := db.SetMeta("speed", strconv.FormatFloat(eng.Speed(), 'g', -1, 64)); err != nil {
		slog.Warn("failed to store speed", "error", err)
	}

	fmt.Println("Simulation stopped. State saved.")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}

func save(db *persistence.DB, slot string, rec snapshot.Record) {
	if _, err := db.SaveSnapshot(slot, rec); err != nil {
		slog.Error("save failed", "slot", slot, "error", err)
		return
	}
	if _, err := db.Prune(slot, keepSaves); err != nil {
		slog.Warn("prune failed", "slot", slot, "error", err)
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
