package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trivia-bot/internal/app"
	"trivia-bot/internal/domain"
)

// NewRouter mounts the chat bridge, the read-only game API and the metrics endpoint.
func NewRouter(service *app.GameService, ws *WSHandler, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/ws", ws.ServeWS)

	api := &apiHandler{service: service}
	r.Route("/api", func(r chi.Router) {
		r.Get("/leaderboard", api.leaderboard)
		r.Get("/channels", api.channels)
		r.Get("/channels/{channelID}", api.channel)
	})
	return r
}

type apiHandler struct {
	service *app.GameService
}

func (a *apiHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	standings, err := a.service.Leaderboard(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch leaderboard: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, standings)
}

func (a *apiHandler) channels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.service.Snapshots())
}

func (a *apiHandler) channel(w http.ResponseWriter, r *http.Request) {
	snap, err := a.service.Snapshot(chi.URLParam(r, "channelID"))
	if errors.Is(err, domain.ErrChannelNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, snap)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("Failed to encode response: %v", err), http.StatusInternalServerError)
	}
}
