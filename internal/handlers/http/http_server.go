package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"fundStatApp/internal/domain/useCases"
	"fundStatApp/internal/handlers/websocket"
)

const (
	defaultTrendingCount = 10
	defaultTrendingDays  = 7
)

// Server represents an HTTP server with all routes configured
type Server struct {
	trending    useCases.TrendingProvider
	holdings    useCases.HoldingsProvider
	stats       useCases.PayStatsService
	broadcaster *websocket.WebSocketBroadcaster
	mux         *http.ServeMux
	server      *http.Server
}

// NewServer creates a new HTTP server with configured routes
func NewServer(
	addr string,
	trending useCases.TrendingProvider,
	holdings useCases.HoldingsProvider,
	stats useCases.PayStatsService,
	broadcaster *websocket.WebSocketBroadcaster,
) *Server {
	mux := http.NewServeMux()

	server := &Server{
		trending:    trending,
		holdings:    holdings,
		stats:       stats,
		broadcaster: broadcaster,
		mux:         mux,
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	server.registerRoutes()
	return server
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/trending", s.handleTrending)
	s.mux.HandleFunc("/holdings", s.handleHoldings)
	s.mux.HandleFunc("/projects", s.handleProjects)
	s.mux.HandleFunc("/stats", s.handleStats)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/ws", s.broadcaster.Handler())
}

// handleTrending serves the top trending projects.
// Query params: count (default 10), days (default 7).
func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	count := queryInt(r, "count", defaultTrendingCount)
	days := queryInt(r, "days", defaultTrendingDays)
	if count <= 0 || days <= 0 {
		http.Error(w, "count and days must be positive", http.StatusBadRequest)
		return
	}

	records, err := s.trending.Trending(r.Context(), count, days)
	if err != nil {
		log.Printf("trending request failed: %v", err)
		http.Error(w, "failed to get trending projects", http.StatusBadGateway)
		return
	}
	writeJSON(w, records)
}

// handleHoldings serves the projects a wallet has paid into.
func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	wallet := r.URL.Query().Get("wallet")
	if wallet == "" {
		http.Error(w, "wallet is required", http.StatusBadRequest)
		return
	}

	projects, err := s.holdings.Holdings(r.Context(), wallet)
	if err != nil {
		log.Printf("holdings request failed: %v", err)
		http.Error(w, "failed to get holdings", http.StatusBadGateway)
		return
	}
	writeJSON(w, projects)
}

// handleProjects serves the projects owned by a wallet.
func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, "owner is required", http.StatusBadRequest)
		return
	}

	projects, err := s.holdings.OwnedProjects(r.Context(), owner)
	if err != nil {
		log.Printf("projects request failed: %v", err)
		http.Error(w, "failed to get projects", http.StatusBadGateway)
		return
	}
	writeJSON(w, projects)
}

// handleStats serves the rolling window statistics from the live feed.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.GetAllWindowStats(r.Context())
	if err != nil {
		http.Error(w, "failed to get stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}

// Mux returns the configured route handler.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
