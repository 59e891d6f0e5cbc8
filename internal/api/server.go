// Package api provides the HTTP API for querying and driving the economy.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/talgya/idle-economy/internal/economy"
	"github.com/talgya/idle-economy/internal/engine"
	"github.com/talgya/idle-economy/internal/persistence"
	"github.com/talgya/idle-economy/internal/snapshot"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
	streamCatchUp     = 50
)

// Server serves the simulation over HTTP.
type Server struct {
	Eng      *engine.Engine
	DB       *persistence.DB // nil disables /snapshot
	Slot     string          // save slot used by /snapshot
	Keep     int             // saves kept per slot after a manual snapshot; 0 keeps all
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	Hub      *Hub         // nil disables /stream
	Commands *RateLimiter // applied to POST endpoints; nil = unlimited
}

// Handler builds the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/resources", s.handleResources)
	mux.HandleFunc("/api/v1/generators", s.handleGenerators)
	mux.HandleFunc("/api/v1/upgrades", s.handleUpgrades)
	mux.HandleFunc("/api/v1/prestige", s.adminOnly(s.handlePrestige)) // POST executes a tier
	mux.HandleFunc("/api/v1/event", s.handleEvent)
	mux.HandleFunc("/api/v1/map", s.handleMap)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/buy", s.adminOnly(s.handleBuy))
	mux.HandleFunc("/api/v1/map/unlock", s.adminOnly(s.handleMapUnlock))
	mux.HandleFunc("/api/v1/event/start", s.adminOnly(s.handleEventStart))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine and returns the server
// so the caller can shut it down.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "stream", s.Hub != nil)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth and the command
// rate limit on POST requests. GET requests pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	limited := RateLimitMiddleware(s.Commands, next)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next(w, r)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no IDLESIM_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		limited(w, r)
	}
}

// view runs fn against the simulation between ticks.
func (s *Server) view(fn func(sim *engine.Simulation)) {
	s.Eng.Do(fn)
}

func (s *Server) publish(events []engine.Event) {
	if s.Hub != nil && len(events) > 0 {
		s.Hub.Publish(events)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var status engine.Status
	s.view(func(sim *engine.Simulation) { status = sim.Status() })
	writeJSON(w, map[string]any{
		"status":  status,
		"speed":   s.Eng.Speed(),
		"running": s.Eng.Running(),
	})
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	var out []engine.ResourceView
	s.view(func(sim *engine.Simulation) { out = sim.Resources() })
	writeJSON(w, out)
}

func (s *Server) handleGenerators(w http.ResponseWriter, r *http.Request) {
	var out []engine.GeneratorView
	s.view(func(sim *engine.Simulation) { out = sim.GeneratorViews() })
	writeJSON(w, out)
}

func (s *Server) handleUpgrades(w http.ResponseWriter, r *http.Request) {
	var out []engine.UpgradeView
	s.view(func(sim *engine.Simulation) { out = sim.UpgradeViews() })
	writeJSON(w, out)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	var out []engine.MapNodeView
	s.view(func(sim *engine.Simulation) { out = sim.MapNodeViews() })
	writeJSON(w, out)
}

// handlePrestige lists tiers on GET and executes one on POST {"id": ...}.
func (s *Server) handlePrestige(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		var out []engine.PrestigeView
		s.view(func(sim *engine.Simulation) { out = sim.PrestigeViews() })
		writeJSON(w, out)
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	var (
		res engine.PrestigeResult
		err error
	)
	s.view(func(sim *engine.Simulation) { res, err = sim.Prestige(req.ID) })
	if err != nil {
		writeError(w, err)
		return
	}
	s.publish(res.Events)
	writeJSON(w, res)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var (
		active engine.ActiveEventView
		ok     bool
		mult   float64
	)
	s.view(func(sim *engine.Simulation) {
		active, ok = sim.ActiveEvent()
		mult = sim.ExternalMultiplier().Float()
	})
	resp := map[string]any{"active": nil, "external_multiplier": mult}
	if ok {
		resp["active"] = active
	}
	writeJSON(w, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= maxEventLimit {
			limit = n
		}
	}

	var events []engine.Event
	s.view(func(sim *engine.Simulation) { events = sim.RecentEvents(0) })
	if events == nil {
		events = []engine.Event{}
	}

	// Optional kind filter.
	if kind := r.URL.Query().Get("kind"); kind != "" {
		filtered := []engine.Event{}
		for _, e := range events {
			if e.Kind == kind {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	writeJSON(w, events[start:])
}

// handleStream upgrades to a websocket carrying every simulation event.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.Hub == nil {
		http.Error(w, "streaming disabled", http.StatusServiceUnavailable)
		return
	}
	var recent []engine.Event
	s.view(func(sim *engine.Simulation) { recent = sim.RecentEvents(streamCatchUp) })
	s.Hub.ServeWs(w, r, recent)
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Kind string `json:"kind"` // "generator" (default) or "upgrade"
		ID   string `json:"id"`
		Mode string `json:"mode"` // 1, 10, 100 or max
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	mode, err := economy.ParseBuyMode(req.Mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var receipt engine.Receipt
	switch req.Kind {
	case "", "generator":
		s.view(func(sim *engine.Simulation) { receipt, err = sim.BuyGenerator(req.ID, mode) })
	case "upgrade":
		s.view(func(sim *engine.Simulation) { receipt, err = sim.BuyUpgrade(req.ID, mode) })
	default:
		http.Error(w, "unknown kind (use: generator, upgrade)", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	s.publish(receipt.Events)
	writeJSON(w, receipt)
}

func (s *Server) handleMapUnlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ID string `json:"id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	var (
		events []engine.Event
		err    error
	)
	s.view(func(sim *engine.Simulation) { events, err = sim.UnlockMapNode(req.ID) })
	if err != nil {
		writeError(w, err)
		return
	}
	s.publish(events)
	writeJSON(w, map[string]any{"id": req.ID, "events": events})
}

func (s *Server) handleEventStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ID string `json:"id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	var (
		events []engine.Event
		err    error
	)
	s.view(func(sim *engine.Simulation) { events, err = sim.StartEvent(req.ID) })
	if err != nil {
		writeError(w, err)
		return
	}
	s.publish(events)
	writeJSON(w, map[string]any{"id": req.ID, "events": events})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	var rec snapshot.Record
	s.view(func(sim *engine.Simulation) { rec = sim.CaptureState() })
	id, err := s.DB.SaveSnapshot(s.Slot, rec)
	if err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	if s.Keep > 0 {
		if _, err := s.DB.Prune(s.Slot, s.Keep); err != nil {
			slog.Warn("prune failed", "slot", s.Slot, "error", err)
		}
	}

	writeJSON(w, map[string]any{
		"id":      id,
		"tick":    rec.Tick,
		"message": "snapshot saved",
	})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps command errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnknownGenerator),
		errors.Is(err, engine.ErrUnknownUpgrade),
		errors.Is(err, engine.ErrUnknownMapNode),
		errors.Is(err, engine.ErrUnknownPrestige),
		errors.Is(err, engine.ErrUnknownEvent):
		return http.StatusNotFound
	case errors.Is(err, economy.ErrInsufficientFunds),
		errors.Is(err, economy.ErrMaxLevel),
		errors.Is(err, engine.ErrLocked),
		errors.Is(err, engine.ErrNotEligible),
		errors.Is(err, engine.ErrNoReward),
		errors.Is(err, engine.ErrEventActive),
		errors.Is(err, engine.ErrAlreadyUnlocked):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
