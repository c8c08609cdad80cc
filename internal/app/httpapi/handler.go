// Package httpapi exposes the Mini Store REST and streaming surface consumed
// by the storefront UI shell.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	app "github.com/deliquified/ministore/internal/app"
	"github.com/deliquified/ministore/internal/installer"
	"github.com/deliquified/ministore/internal/metrics"
	"github.com/deliquified/ministore/internal/wallet"
	"github.com/deliquified/ministore/pkg/logger"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
	log *logger.Logger
}

// NewHandler returns a router exposing the store API.
func NewHandler(application *app.Application, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{app: application, log: log}

	r := mux.NewRouter()
	r.Use(instrument)

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/apps", h.listApps).Methods(http.MethodGet)
	r.HandleFunc("/apps/{id}", h.getApp).Methods(http.MethodGet)

	r.HandleFunc("/grid", h.getGrid).Methods(http.MethodGet)
	r.HandleFunc("/grid/refresh", h.refreshGrid).Methods(http.MethodPost)
	r.HandleFunc("/grid/stream", h.streamGrid).Methods(http.MethodGet)

	r.HandleFunc("/install", h.beginInstall).Methods(http.MethodPost)
	r.HandleFunc("/install/{id}/target", h.confirmTarget).Methods(http.MethodPost)
	r.HandleFunc("/install/{id}/cancel", h.cancelInstall).Methods(http.MethodPost)
	r.HandleFunc("/uninstall", h.uninstall).Methods(http.MethodPost)
	r.HandleFunc("/operations/{id}", h.getOperation).Methods(http.MethodGet)

	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) listApps(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	switch {
	case query.Get("q") != "":
		writeJSON(w, http.StatusOK, h.app.Catalog.Search(query.Get("q")))
	case query.Get("category") != "":
		writeJSON(w, http.StatusOK, h.app.Catalog.ByCategory(query.Get("category")))
	case query.Get("featured") == "true":
		writeJSON(w, http.StatusOK, h.app.Catalog.Featured())
	default:
		writeJSON(w, http.StatusOK, h.app.Catalog.List())
	}
}

func (h *handler) getApp(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	entry, ok := h.app.Catalog.ByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown app %q", id))
		return
	}

	installed := h.app.Installer.IsInstalled(entry)
	writeJSON(w, http.StatusOK, map[string]any{
		"app":       entry,
		"installed": installed,
	})
}

func (h *handler) getGrid(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Store.Current())
}

func (h *handler) refreshGrid(w http.ResponseWriter, r *http.Request) {
	snap := h.app.Resolver.Refresh(r.Context())
	writeJSON(w, http.StatusOK, snap)
}

type appRequest struct {
	AppID string `json:"appId"`
}

func (h *handler) beginInstall(w http.ResponseWriter, r *http.Request) {
	var payload appRequest
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entry, ok := h.app.Catalog.ByID(payload.AppID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown app %q", payload.AppID))
		return
	}

	op, err := h.app.Installer.BeginInstall(r.Context(), entry)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, op)
}

func (h *handler) confirmTarget(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Section *int `json:"section"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	op, err := h.app.Installer.ConfirmTarget(r.Context(), mux.Vars(r)["id"], payload.Section)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (h *handler) cancelInstall(w http.ResponseWriter, r *http.Request) {
	op, err := h.app.Installer.Cancel(mux.Vars(r)["id"])
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (h *handler) uninstall(w http.ResponseWriter, r *http.Request) {
	var payload appRequest
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entry, ok := h.app.Catalog.ByID(payload.AppID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown app %q", payload.AppID))
		return
	}

	op, err := h.app.Installer.Uninstall(r.Context(), entry)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, op)
}

func (h *handler) getOperation(w http.ResponseWriter, r *http.Request) {
	op, ok := h.app.Installer.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, installer.ErrUnknownOperation)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

// writeOperationError maps orchestrator errors to HTTP statuses.
func writeOperationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wallet.ErrNotConnected):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, installer.ErrBusy):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, installer.ErrUnknownOperation):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, installer.ErrNotAwaitingTarget):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusBadGateway, err)
	}
}

func decodeJSON(body io.Reader, dst any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		metrics.ObserveHTTP(r.Method, path, recorder.status, time.Since(start))
	})
}
