package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// APIHandler serves the read-only JSON endpoints.
type APIHandler struct {
	items  ItemService
	store  Pinger
	logger *slog.Logger
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(items ItemService, store Pinger, logger *slog.Logger) *APIHandler {
	return &APIHandler{items: items, store: store, logger: logger}
}

// HandleListItems returns the same snapshot the list page renders.
//
// HTTP: GET /api/items
//
//	[{"id":"...","text":"Buy milk","createdAt":"...","completed":false}, ...]
func (h *APIHandler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list items", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleHealth pings the store with a short deadline.
//
// HTTP: GET /healthz → 200 {"status":"ok"} or 503 {"status":"unavailable"}
func (h *APIHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
