package web

import (
	"net/http"

	"github.com/vadiminshakov/bazar/internal/clients"
	"github.com/vadiminshakov/bazar/internal/services/profileview"
)

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	showFullBio := r.URL.Query().Get("bio") == "full"

	page, err := s.deps.Profiles.Page(r.Context(), r.PathValue("address"), r.PathValue("tab"), showFullBio)
	if page.Route.Redirect != "" {
		http.Redirect(w, r, page.Route.Redirect, http.StatusFound)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update clients.ProfileUpdate
	if !s.decode(w, r, &update) {
		return
	}

	if err := s.deps.Profiles.Update(r.Context(), r.PathValue("address"), update); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleNotFoundRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, profileview.NotFoundPath, http.StatusFound)
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
}
