package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	mw "github.com/evenup-dev/evenup/internal/middleware"
	"github.com/evenup-dev/evenup/internal/service"
)

type createEventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
	ChatID      string `json:"chat_id"`
}

// POST /v1/events
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := s.events.Create(r.Context(), mw.GetUserID(r.Context()), service.CreateEventInput{
		Name:        req.Name,
		Description: req.Description,
		Currency:    req.Currency,
		ChatID:      req.ChatID,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEventResponse(event))
}

// GET /v1/events?include_closed=true
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	includeClosed, _ := strconv.ParseBool(r.URL.Query().Get("include_closed"))

	events, err := s.events.ListForUser(r.Context(), mw.GetUserID(r.Context()), includeClosed)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponses(events))
}

// GET /v1/events/{eventID}
func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.events.Get(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(event))
}

type updateEventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PUT /v1/events/{eventID}
func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req updateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := s.events.Update(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "eventID"), service.UpdateEventInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(event))
}

// POST /v1/events/{eventID}/close
func (s *Server) handleCloseEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.events.Close(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(event))
}

// POST /v1/events/{eventID}/archive
func (s *Server) handleArchiveEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.events.Archive(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(event))
}

// DELETE /v1/events/{eventID}
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.events.SoftDelete(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "eventID")); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
