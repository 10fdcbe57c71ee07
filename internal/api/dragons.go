package api

import (
	"net/http"

	"github.com/dragonhaven/server/internal/domain"
	"github.com/dragonhaven/server/internal/session"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) getDragon(w http.ResponseWriter, r *http.Request) {
	id, ok := dragonID(r)
	if !ok {
		Error(w, http.StatusBadRequest, "invalid dragon id")
		return
	}
	view, err := h.engine.DragonSnapshot(id)
	if err != nil {
		engineError(w, err)
		return
	}
	JSON(w, http.StatusOK, view)
}

func (h *Handler) toggleNap(w http.ResponseWriter, r *http.Request) {
	id, ok := dragonID(r)
	if !ok {
		Error(w, http.StatusBadRequest, "invalid dragon id")
		return
	}
	if err := h.engine.ToggleNap(r.Context(), id); err != nil {
		engineError(w, err)
		return
	}
	view, err := h.engine.DragonSnapshot(id)
	if err != nil {
		engineError(w, err)
		return
	}
	JSON(w, http.StatusOK, view)
}

func (h *Handler) unlock(w http.ResponseWriter, r *http.Request) {
	view, err := h.engine.Unlock(r.Context())
	if err != nil {
		engineError(w, err)
		return
	}
	JSON(w, http.StatusCreated, view)
}

type updateInfoRequest struct {
	Name      string                  `json:"name"`
	Subtitle  string                  `json:"subtitle"`
	IsHabit   *bool                   `json:"isHabit"`
	Evolution *domain.EvolutionConfig `json:"evolutionConfig"`
}

func (h *Handler) updateInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := dragonID(r)
	if !ok {
		Error(w, http.StatusBadRequest, "invalid dragon id")
		return
	}
	var req updateInfoRequest
	if !decode(w, r, &req) {
		return
	}
	err := h.engine.UpdateInfo(r.Context(), id, session.InfoUpdate{
		Name:      req.Name,
		Subtitle:  req.Subtitle,
		IsHabit:   req.IsHabit,
		Evolution: req.Evolution,
	})
	if err != nil {
		engineError(w, err)
		return
	}
	view, err := h.engine.DragonSnapshot(id)
	if err != nil {
		engineError(w, err)
		return
	}
	JSON(w, http.StatusOK, view)
}

type confirmRequest struct {
	Confirm bool `json:"confirm"`
}

func (h *Handler) markProjectComplete(w http.ResponseWriter, r *http.Request) {
	id, ok := dragonID(r)
	if !ok {
		Error(w, http.StatusBadRequest, "invalid dragon id")
		return
	}
	var req confirmRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.engine.MarkProjectComplete(r.Context(), id, req.Confirm); err != nil {
		engineError(w, err)
		return
	}
	view, err := h.engine.DragonSnapshot(id)
	if err != nil {
		engineError(w, err)
		return
	}
	JSON(w, http.StatusOK, view)
}

type taskRequest struct {
	Title string `json:"title"`
}

func (h *Handler) addTask(w http.ResponseWriter, r *http.Request) {
	id, ok := dragonID(r)
	if !ok {
		Error(w, http.StatusBadRequest, "invalid dragon id")
		return
	}
	var req taskRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Title == "" {
		Error(w, http.StatusBadRequest, "title is required")
		return
	}
	task, err := h.engine.AddTask(r.Context(), id, req.Title)
	if err != nil {
		engineError(w, err)
		return
	}
	JSON(w, http.StatusCreated, task)
}

func (h *Handler) setTaskTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := dragonID(r)
	if !ok {
		Error(w, http.StatusBadRequest, "invalid dragon id")
		return
	}
	var req taskRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Title == "" {
		Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if err := h.engine.SetTaskTitle(r.Context(), id, chi.URLParam(r, "taskID"), req.Title); err != nil {
		engineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) toggleTask(w http.ResponseWriter, r *http.Request) {
	id, ok := dragonID(r)
	if !ok {
		Error(w, http.StatusBadRequest, "invalid dragon id")
		return
	}
	if err := h.engine.ToggleTask(r.Context(), id, chi.URLParam(r, "taskID")); err != nil {
		engineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveTaskRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) moveTask(w http.ResponseWriter, r *http.Request) {
	id, ok := dragonID(r)
	if !ok {
		Error(w, http.StatusBadRequest, "invalid dragon id")
		return
	}
	var req moveTaskRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.engine.MoveTask(r.Context(), id, chi.URLParam(r, "taskID"), req.Delta); err != nil {
		engineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reorderRequest struct {
	Order []string `json:"order"`
}

func (h *Handler) reorderTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := dragonID(r)
	if !ok {
		Error(w, http.StatusBadRequest, "invalid dragon id")
		return
	}
	var req reorderRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.engine.ReorderTasks(r.Context(), id, req.Order); err != nil {
		engineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeTask(w http.ResponseWriter, r *http.Request) {
	id, ok := dragonID(r)
	if !ok {
		Error(w, http.StatusBadRequest, "invalid dragon id")
		return
	}
	if err := h.engine.RemoveTask(r.Context(), id, chi.URLParam(r, "taskID")); err != nil {
		engineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type historyRequest struct {
	Type    domain.HistoryType `json:"type"`
	Role    domain.HistoryRole `json:"role"`
	Content string             `json:"content"`
}

func (h *Handler) addHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := dragonID(r)
	if !ok {
		Error(w, http.StatusBadRequest, "invalid dragon id")
		return
	}
	var req historyRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Content == "" {
		Error(w, http.StatusBadRequest, "content is required")
		return
	}
	if req.Type == "" {
		req.Type = domain.HistoryChat
	}
	if req.Role == "" {
		req.Role = domain.RoleUser
	}
	entry, err := h.engine.AddHistory(r.Context(), id, req.Type, req.Role, req.Content)
	if err != nil {
		engineError(w, err)
		return
	}
	JSON(w, http.StatusCreated, entry)
}

func (h *Handler) deleteHistoryEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := dragonID(r)
	if !ok {
		Error(w, http.StatusBadRequest, "invalid dragon id")
		return
	}
	var req confirmRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.engine.DeleteHistoryEntry(r.Context(), id, chi.URLParam(r, "entryID"), req.Confirm); err != nil {
		engineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
