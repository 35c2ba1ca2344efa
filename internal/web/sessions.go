package web

import (
	"net/http"

	"github.com/vadiminshakov/bazar/internal/services/assetview"
	"go.uber.org/zap"
)

// sessionResponse carries the snapshot even when the load behind it failed.
type sessionResponse struct {
	assetview.Snapshot
	Error string `json:"error,omitempty"`
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Sessions.Open(r.Context(), r.PathValue("id"))
	if err != nil && snap.SessionID == "" {
		writeError(w, err)
		return
	}

	resp := sessionResponse{Snapshot: snap}
	if err != nil {
		s.logger.Warn("asset load failed, session kept", zap.String("session", snap.SessionID), zap.Error(err))
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Sessions.Get(r.PathValue("sid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Snapshot: snap})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Sessions.Close(r.PathValue("sid")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelectTab(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tab string `json:"tab"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	tab, err := assetview.ParseTab(body.Tab)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := s.deps.Sessions.SelectTab(r.PathValue("sid"), tab)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Snapshot: snap})
}

func (s *Server) handleModal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Open bool `json:"open"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	sid := r.PathValue("sid")
	var (
		snap assetview.Snapshot
		err  error
	)
	switch r.PathValue("name") {
	case "owners":
		snap, err = s.deps.Sessions.SetOwnersModal(sid, body.Open)
	case "listings":
		snap, err = s.deps.Sessions.SetListingsModal(sid, body.Open)
	default:
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown modal"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Snapshot: snap})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Sessions.Reload(r.Context(), r.PathValue("sid"))
	if err != nil && snap.SessionID == "" {
		writeError(w, err)
		return
	}

	resp := sessionResponse{Snapshot: snap}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Sessions.CancelOrder(r.Context(), r.PathValue("sid"), r.PathValue("orderID"))
	if err != nil {
		s.logger.Warn("cancel order failed", zap.String("order", r.PathValue("orderID")), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Snapshot: snap})
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req assetview.ListingRequest
	if !s.decode(w, r, &req) {
		return
	}

	snap, err := s.deps.Sessions.CreateListing(r.Context(), r.PathValue("sid"), req)
	if err != nil {
		s.logger.Warn("create listing failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Snapshot: snap})
}
