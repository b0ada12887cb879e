package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/evenup-dev/evenup/internal/middleware"
	"github.com/evenup-dev/evenup/internal/service"
)

type createFamilyRequest struct {
	Name      string   `json:"name"`
	HeadID    string   `json:"head_id"`
	MemberIDs []string `json:"member_ids"`
}

// POST /v1/events/{eventID}/families
func (s *Server) handleCreateFamily(w http.ResponseWriter, r *http.Request) {
	var req createFamilyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	family, err := s.families.Create(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "eventID"), service.CreateFamilyInput{
		Name:      req.Name,
		HeadID:    req.HeadID,
		MemberIDs: req.MemberIDs,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFamilyResponse(family))
}

// GET /v1/events/{eventID}/families
func (s *Server) handleListFamilies(w http.ResponseWriter, r *http.Request) {
	families, err := s.families.List(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFamilyResponses(families))
}

// GET /v1/families/{familyID}
func (s *Server) handleGetFamily(w http.ResponseWriter, r *http.Request) {
	family, err := s.families.Get(r.Context(), chi.URLParam(r, "familyID"))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFamilyResponse(family))
}

type updateFamilyRequest struct {
	Name   string `json:"name"`
	HeadID string `json:"head_id"`
}

// PUT /v1/families/{familyID}
func (s *Server) handleUpdateFamily(w http.ResponseWriter, r *http.Request) {
	var req updateFamilyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	family, err := s.families.Update(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "familyID"), service.UpdateFamilyInput{
		Name:   req.Name,
		HeadID: req.HeadID,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFamilyResponse(family))
}

// DELETE /v1/families/{familyID}
func (s *Server) handleDeleteFamily(w http.ResponseWriter, r *http.Request) {
	if err := s.families.Delete(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "familyID")); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /v1/families/{familyID}/members
func (s *Server) handleListFamilyMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.families.Members(r.Context(), chi.URLParam(r, "familyID"))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toParticipantResponses(members))
}

type addFamilyMemberRequest struct {
	ParticipantID string `json:"participant_id"`
}

// POST /v1/families/{familyID}/members
func (s *Server) handleAddFamilyMember(w http.ResponseWriter, r *http.Request) {
	var req addFamilyMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.families.AddMember(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "familyID"), req.ParticipantID); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DELETE /v1/families/{familyID}/members/{participantID}
func (s *Server) handleRemoveFamilyMember(w http.ResponseWriter, r *http.Request) {
	if err := s.families.RemoveMember(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "familyID"), chi.URLParam(r, "participantID")); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type templateMemberRequest struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	IsHead      bool   `json:"is_head"`
}

type templateRequest struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Members     []templateMemberRequest `json:"members"`
}

func (req *templateRequest) toInput() service.FamilyTemplateInput {
	members := make([]service.TemplateMemberInput, 0, len(req.Members))
	for _, m := range req.Members {
		members = append(members, service.TemplateMemberInput{
			UserID:      m.UserID,
			Username:    m.Username,
			DisplayName: m.DisplayName,
			IsHead:      m.IsHead,
		})
	}
	return service.FamilyTemplateInput{
		Name:        req.Name,
		Description: req.Description,
		Members:     members,
	}
}

// POST /v1/templates
func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	template, err := s.families.CreateTemplate(r.Context(), mw.GetUserID(r.Context()), req.toInput())
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTemplateResponse(template))
}

// GET /v1/templates
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.families.ListTemplates(r.Context(), mw.GetUserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTemplateResponses(templates))
}

// GET /v1/templates/{templateID}
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	template, err := s.families.GetTemplate(r.Context(), chi.URLParam(r, "templateID"))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTemplateResponse(template))
}

// PUT /v1/templates/{templateID}
func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	template, err := s.families.UpdateTemplate(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "templateID"), req.toInput())
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTemplateResponse(template))
}

// DELETE /v1/templates/{templateID}
func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.families.DeleteTemplate(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "templateID")); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type instantiateTemplateRequest struct {
	TemplateID string `json:"template_id"`
}

// POST /v1/events/{eventID}/families/from-template
func (s *Server) handleInstantiateTemplate(w http.ResponseWriter, r *http.Request) {
	var req instantiateTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TemplateID == "" {
		writeError(w, http.StatusBadRequest, "template_id is required")
		return
	}

	family, err := s.families.Instantiate(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "eventID"), req.TemplateID)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFamilyResponse(family))
}
