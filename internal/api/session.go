package api

import (
	"net/http"
)

type startSessionRequest struct {
	DragonID  int    `json:"dragonId"`
	Intention string `json:"intention"`
	Minutes   int    `json:"minutes"`
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.engine.Start(r.Context(), req.DragonID, req.Intention, req.Minutes); err != nil {
		engineError(w, err)
		return
	}
	JSON(w, http.StatusOK, h.engine.SessionStatus())
}

func (h *Handler) cancelSession(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Cancel(); err != nil {
		engineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type finalizeRequest struct {
	Reflection string `json:"reflection"`
}

func (h *Handler) finalizeSession(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.engine.Finalize(r.Context(), req.Reflection)
	if err != nil {
		engineError(w, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

func (h *Handler) sessionStatus(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.engine.SessionStatus())
}

func (h *Handler) evolutionStatus(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.engine.EvolutionStatus())
}

func (h *Handler) beginRitual(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.BeginRitual(); err != nil {
		engineError(w, err)
		return
	}
	JSON(w, http.StatusAccepted, h.engine.EvolutionStatus())
}

func (h *Handler) playEvolution(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Play(); err != nil {
		engineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) completeEvolution(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.CompleteEvolution(r.Context()); err != nil {
		engineError(w, err)
		return
	}
	JSON(w, http.StatusOK, h.engine.Snapshot())
}
