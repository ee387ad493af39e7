// Package mockapi serves the fake external API used by I/O-bound
// benchmark runs. Every endpoint takes a latency query parameter so
// scenarios can dial in how slow the "external" service is.
package mockapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxLatencyMS = 5000

// Server is the mock API HTTP server.
type Server struct {
	httpServer *http.Server
	router     chi.Router
}

// New creates a mock API server bound to bindAddr.
func New(bindAddr string) *Server {
	srv := &Server{}
	srv.router = srv.buildRouter()
	srv.httpServer = &http.Server{
		Addr:    bindAddr,
		Handler: srv.router,
	}
	return srv
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/users/{user_id}", s.handleUser)
	r.Get("/orders/{order_id}", s.handleOrder)
	r.Post("/webhooks/process", s.handleWebhook)
	r.Get("/heavy-computation", s.handleHeavyComputation)
	r.Get("/error-simulation", s.handleErrorSimulation)

	return r
}

// Start begins serving and blocks until the server stops.
func (s *Server) Start() error {
	slog.Info("mock api starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("mock api shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "mock-api"})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	sleepLatency(r, 100)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         userID,
		"name":       "User " + strconv.Itoa(userID),
		"email":      "user" + strconv.Itoa(userID) + "@example.com",
		"created_at": "2025-01-01T00:00:00Z",
	})
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.Atoi(chi.URLParam(r, "order_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	sleepLatency(r, 150)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      orderID,
		"user_id": orderID * 10,
		"status":  "pending",
		"total":   99.99,
		"items": []map[string]any{
			{"product_id": 1, "quantity": 2, "price": 29.99},
			{"product_id": 2, "quantity": 1, "price": 39.99},
		},
		"created_at": "2025-01-01T00:00:00Z",
	})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	sleepLatency(r, 200)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "processed",
		"message": "Webhook received",
	})
}

func (s *Server) handleHeavyComputation(w http.ResponseWriter, r *http.Request) {
	complexity := queryInt(r, "complexity", 1000)
	if complexity < 1 {
		complexity = 1
	}
	if complexity > 100000 {
		complexity = 100000
	}

	var result int64
	for i := int64(0); i < int64(complexity); i++ {
		result += i * i
	}
	sleepLatency(r, 0)

	writeJSON(w, http.StatusOK, map[string]any{
		"complexity": complexity,
		"result":     result,
		"status":     "completed",
	})
}

func (s *Server) handleErrorSimulation(w http.ResponseWriter, r *http.Request) {
	errorRate := 0.0
	if raw := r.URL.Query().Get("error_rate"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			writeError(w, http.StatusBadRequest, "invalid error_rate")
			return
		}
		errorRate = parsed
	}
	sleepLatency(r, 100)

	if rand.Float64() < errorRate {
		writeError(w, http.StatusInternalServerError, "Simulated server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "No error occurred",
	})
}

// sleepLatency honors the latency query param, capped so a malformed
// request cannot stall the server.
func sleepLatency(r *http.Request, defaultMS int) {
	ms := queryInt(r, "latency", defaultMS)
	if ms <= 0 {
		return
	}
	if ms > maxLatencyMS {
		ms = maxLatencyMS
	}
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
	case <-r.Context().Done():
	}
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
