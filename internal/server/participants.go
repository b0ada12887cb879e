package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	mw "github.com/evenup-dev/evenup/internal/middleware"
	"github.com/evenup-dev/evenup/internal/service"
)

type addParticipantRequest struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// POST /v1/events/{eventID}/participants
func (s *Server) handleAddParticipant(w http.ResponseWriter, r *http.Request) {
	var req addParticipantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	participant, err := s.participants.Add(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "eventID"), service.AddParticipantInput{
		UserID:      req.UserID,
		Username:    req.Username,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toParticipantResponse(participant))
}

// GET /v1/events/{eventID}/participants?include_removed=true
func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	includeRemoved, _ := strconv.ParseBool(r.URL.Query().Get("include_removed"))

	participants, err := s.participants.List(r.Context(), chi.URLParam(r, "eventID"), !includeRemoved)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toParticipantResponses(participants))
}

// GET /v1/participants/{participantID}
func (s *Server) handleGetParticipant(w http.ResponseWriter, r *http.Request) {
	participant, err := s.participants.Get(r.Context(), chi.URLParam(r, "participantID"))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toParticipantResponse(participant))
}

type renameParticipantRequest struct {
	DisplayName string `json:"display_name"`
}

// PUT /v1/participants/{participantID}
func (s *Server) handleRenameParticipant(w http.ResponseWriter, r *http.Request) {
	var req renameParticipantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	participant, err := s.participants.Rename(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "participantID"), req.DisplayName)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toParticipantResponse(participant))
}

// DELETE /v1/participants/{participantID}
func (s *Server) handleRemoveParticipant(w http.ResponseWriter, r *http.Request) {
	if err := s.participants.SoftDelete(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "participantID")); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
