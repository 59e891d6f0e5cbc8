// Command autobuyer runs the unattended purchasing agent against an idlesim API.
// It observes generators, buys the best gain per cost, and repeats.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/idle-economy/internal/autobuy"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment.
	apiURL := envOrDefault("IDLESIM_API_URL", "http://localhost:8080")
	adminKey := os.Getenv("IDLESIM_ADMIN_KEY")
	intervalSec := envIntOrDefault("AUTOBUY_INTERVAL", 5)
	maxWaitSec := envIntOrDefault("AUTOBUY_MAX_WAIT", 30)

	if adminKey == "" {
		slog.Error("IDLESIM_ADMIN_KEY is required")
		os.Exit(1)
	}

	policy := autobuy.Policy{
		Focus:   os.Getenv("AUTOBUY_FOCUS"),
		Mode:    envOrDefault("AUTOBUY_MODE", "1"),
		MaxWait: time.Duration(maxWaitSec) * time.Second,
	}
	interval := time.Duration(intervalSec) * time.Second

	slog.Info("autobuyer starting",
		"api_url", apiURL,
		"interval", interval,
		"focus", policy.Focus,
		"mode", policy.Mode,
		"max_wait", policy.MaxWait,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("waiting for idlesim API...")
	if !waitForAPI(ctx, apiURL) {
		os.Exit(1)
	}

	agent := autobuy.NewAgent(apiURL, adminKey, policy)
	agent.MemoryPath = os.Getenv("AUTOBUY_MEMORY")
	agent.Memory = autobuy.LoadMemory(agent.MemoryPath)
	agent.Run(ctx, interval)
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

// waitForAPI polls the status endpoint with exponential backoff until it
// responds. Gives up after 5 minutes or when ctx is done.
func waitForAPI(ctx context.Context, apiURL string) bool {
	backoff := 2 * time.Second
	maxBackoff := 30 * time.Second
	deadline := time.Now().Add(5 * time.Minute)

	for {
		resp, err := http.Get(apiURL + "/api/v1/status")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				slog.Info("idlesim API is ready")
				return true
			}
		}
		if time.Now().After(deadline) {
			slog.Error("idlesim API did not become ready within 5 minutes")
			return false
		}
		slog.Info("idlesim not ready, retrying...", "backoff", backoff)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
