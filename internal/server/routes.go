package server

import (
	"encoding/json"
	"net/http"

	"codeberg.org/mutker/thermotrack/internal/errors"
	"codeberg.org/mutker/thermotrack/internal/history"
	"codeberg.org/mutker/thermotrack/internal/logger"
	"codeberg.org/mutker/thermotrack/internal/sensor"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const paramName = "name"

// handler contains the HTTP handlers and shared dependencies for the query API.
type handler struct {
	source   Source
	scale    sensor.Scale
	log      logger.Logger
	gatherer prometheus.Gatherer
}

func registerRoutes(router chi.Router, h *handler) {
	router.Get("/", h.handleTempString)
	router.Get("/temp", h.handleTempString)
	router.Get("/temp_str", h.handleTempString)
	router.Get("/latest", h.handleLatest)
	router.Get("/healthz", h.handleHealth)
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	router.Get("/{name}", h.handleHistory)
	router.Get("/{name}/stats", h.handleStats)
}

// handleTempString answers with the latest value as text, e.g. "72.50°F".
func (h *handler) handleTempString(w http.ResponseWriter, _ *http.Request) {
	latest, ok := h.source.Latest()
	if !ok {
		h.writeError(w, http.StatusServiceUnavailable, errors.New().New(ErrNoData))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.scale.Format(latest.Value()) + "\n"))
}

func (h *handler) handleLatest(w http.ResponseWriter, _ *http.Request) {
	latest, ok := h.source.Latest()
	if !ok {
		h.writeError(w, http.StatusServiceUnavailable, errors.New().New(ErrNoData))
		return
	}

	h.writeJSON(w, http.StatusOK, LatestResponse{
		Version: WireVersion,
		Sample:  toWireSample(latest),
	})
}

func (h *handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, paramName)

	snap, ok := h.source.History(name)
	if !ok {
		h.writeError(w, http.StatusBadRequest, errors.New().WithData(ErrQueryNotFound, name))
		return
	}

	h.writeJSON(w, http.StatusOK, toHistoryResponse(snap))
}

func (h *handler) handleStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, paramName)

	snap, ok := h.source.History(name)
	if !ok {
		h.writeError(w, http.StatusBadRequest, errors.New().WithData(ErrQueryNotFound, name))
		return
	}

	h.writeJSON(w, http.StatusOK, toStatsResponse(name, history.Summarize(snap.Samples)))
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Sampling:  h.source.IsRunning(),
		Histories: h.source.HistoryNames(),
	})
}

func (h *handler) writeError(w http.ResponseWriter, status int, err errors.Error) {
	h.log.Debug().
		Str("error_code", string(err.Code())).
		Int("status", status).
		Msg(err.Error())
	h.writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: status})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Warn().Err(err).Msg("Failed to write response")
	}
}
