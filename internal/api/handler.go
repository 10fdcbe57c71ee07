// Package api provides HTTP handlers for the Dragon Haven API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dragonhaven/server/internal/session"
	"github.com/go-chi/chi/v5"
)

// Handler exposes the engine over HTTP.
type Handler struct {
	engine *session.Engine
}

// NewHandler creates a new Handler.
func NewHandler(engine *session.Engine) *Handler {
	return &Handler{engine: engine}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// engineError maps engine sentinels to HTTP statuses.
func engineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrDragonNotFound),
		errors.Is(err, session.ErrTaskNotFound),
		errors.Is(err, session.ErrHistoryEntryNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrSessionInProgress),
		errors.Is(err, session.ErrNoActiveSession),
		errors.Is(err, session.ErrSessionNotFinished),
		errors.Is(err, session.ErrNoPendingEvolution),
		errors.Is(err, session.ErrRitualInProgress),
		errors.Is(err, session.ErrInsufficientPoints):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrSessionTooShort),
		errors.Is(err, session.ErrIntentionRequired),
		errors.Is(err, session.ErrInvalidOrder),
		errors.Is(err, session.ErrConfirmationRequired):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrGenerationUnavailable):
		Error(w, http.StatusServiceUnavailable, err.Error())
	default:
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// dragonID extracts and parses the {dragonID} route parameter.
func dragonID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "dragonID"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// RegisterRoutes mounts the full API surface under /api.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.getState)
		r.Post("/unlock", h.unlock)

		r.Route("/dragons/{dragonID}", func(r chi.Router) {
			r.Get("/", h.getDragon)
			r.Post("/nap", h.toggleNap)
			r.Put("/info", h.updateInfo)
			r.Post("/complete", h.markProjectComplete)

			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", h.addTask)
				r.Put("/reorder", h.reorderTasks)
				r.Put("/{taskID}", h.setTaskTitle)
				r.Post("/{taskID}/toggle", h.toggleTask)
				r.Post("/{taskID}/move", h.moveTask)
				r.Delete("/{taskID}", h.removeTask)
			})

			r.Route("/history", func(r chi.Router) {
				r.Post("/", h.addHistory)
				r.Delete("/{entryID}", h.deleteHistoryEntry)
			})
		})

		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.sessionStatus)
			r.Post("/start", h.startSession)
			r.Post("/cancel", h.cancelSession)
			r.Post("/finalize", h.finalizeSession)
		})

		r.Route("/evolution", func(r chi.Router) {
			r.Get("/", h.evolutionStatus)
			r.Post("/begin", h.beginRitual)
			r.Post("/play", h.playEvolution)
			r.Post("/complete", h.completeEvolution)
		})
	})
}
