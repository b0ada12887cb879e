package server

import (
	"net/http"
)

// GET /v1/admin/stats
func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	overview, err := s.admin.Overview(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOverviewResponse(overview))
}
