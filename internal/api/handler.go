// Package api implements the HTTP surface of the scraper service.
//
// Routes:
//
//	POST /scrapes               → submit a discovery scrape job
//	GET  /scrapes               → list recent jobs, newest first
//	GET  /scrapes/{id}          → fetch one job
//	POST /scrapes/{id}/retry    → reprocess a succeeded provider run
//	POST /scrapes/recover       → run the stuck-job sweep on demand
//	GET  /health                → liveness probe
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/bojodanchev/ad-scraper-sub000/internal/catalog"
	"github.com/bojodanchev/ad-scraper-sub000/internal/job"
	"github.com/bojodanchev/ad-scraper-sub000/internal/model"
)

// Handler holds shared dependencies.
type Handler struct {
	manager *job.Manager
}

// NewHandler returns a configured Handler.
func NewHandler(manager *job.Manager) *Handler {
	return &Handler{manager: manager}
}

// RegisterRoutes mounts all scraper-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/scrapes", h.handleScrapes)
	mux.HandleFunc("/scrapes/", h.handleScrapeAction)
	mux.HandleFunc("/health", h.handleHealth)
}

// ─── Route dispatch ───────────────────────────────────────────────────────────

// handleScrapes handles POST /scrapes and GET /scrapes.
func (h *Handler) handleScrapes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.submitScrape(w, r)
	case http.MethodGet:
		h.listScrapes(w, r)
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleScrapeAction handles GET /scrapes/{id}, POST /scrapes/{id}/retry and
// POST /scrapes/recover.
func (h *Handler) handleScrapeAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 2 && parts[1] == "recover":
		if r.Method != http.MethodPost {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.recoverScrapes(w, r)
	case len(parts) == 2:
		if r.Method != http.MethodGet {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.getScrape(w, r, parts[1])
	case len(parts) == 3 && parts[2] == "retry":
		if r.Method != http.MethodPost {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.retryScrape(w, r, parts[1])
	default:
		jsonError(w, "invalid path", http.StatusNotFound)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) submitScrape(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Platform string               `json:"platform"`
		Mode     string               `json:"mode"`
		Query    string               `json:"query"`
		Filters  *model.ScrapeFilters `json:"filters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	platform, err := model.ParsePlatform(body.Platform)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := model.ScrapeRequest{
		Platform: platform,
		Query:    body.Query,
	}
	if body.Mode != "" {
		mode, err := model.ParseSearchMode(body.Mode)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.Mode = mode
	}
	if body.Filters != nil {
		req.Filters = *body.Filters
	}

	j, err := h.manager.Submit(r.Context(), req)
	if err != nil {
		writeManagerError(w, err)
		return
	}

	// The scrape is still running provider-side; the caller polls the job.
	writeJSON(w, http.StatusAccepted, j)
}

func (h *Handler) listScrapes(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			jsonError(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	jobs, err := h.manager.Jobs(r.Context(), limit)
	if err != nil {
		slog.Error("list scrape jobs", "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (h *Handler) getScrape(w http.ResponseWriter, r *http.Request, id string) {
	j, err := h.manager.Job(r.Context(), id)
	if err != nil {
		writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (h *Handler) retryScrape(w http.ResponseWriter, r *http.Request, id string) {
	report, err := h.manager.Retry(r.Context(), id)
	if err != nil {
		writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) recoverScrapes(w http.ResponseWriter, r *http.Request) {
	report, err := h.manager.RecoverStuckJobs(r.Context())
	if err != nil {
		slog.Error("stuck-job sweep", "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// writeManagerError maps manager errors onto HTTP status codes.
func writeManagerError(w http.ResponseWriter, err error) {
	var ve *job.ValidationError
	var re *job.RetryNotAllowedError
	switch {
	case errors.As(err, &ve):
		jsonError(w, ve.Msg, http.StatusBadRequest)
	case errors.As(err, &re):
		jsonError(w, re.Msg, http.StatusConflict)
	case errors.Is(err, catalog.ErrNotFound):
		jsonError(w, "job not found", http.StatusNotFound)
	default:
		slog.Error("scrape request failed", "err", err)
		jsonError(w, fmt.Sprintf("scrape failed: %v", err), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
