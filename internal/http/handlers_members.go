package http

import (
	"net/http"

	"chitfund/internal/core"
)

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var m core.Member
	if req.FullName != nil {
		m.FullName = *req.FullName
	}
	if req.PhoneNumber != nil {
		m.PhoneNumber = *req.PhoneNumber
	}
	if req.Notes != nil {
		m.Notes = *req.Notes
	}

	created, err := s.svc.Members.CreateMember(r.Context(), m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberResponse(created))
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	var members []core.Member
	var err error
	if query := r.URL.Query().Get("q"); query != "" {
		members, err = s.svc.Members.SearchMembers(r.Context(), query)
	} else {
		members, err = s.svc.Members.ListMembers(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]memberResponse, len(members))
	for i, m := range members {
		out[i] = toMemberResponse(m)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid member id")
		return
	}
	m, err := s.svc.Members.GetMember(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(m))
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid member id")
		return
	}
	var req memberRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m, err := s.svc.Members.GetMember(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.FullName != nil {
		m.FullName = *req.FullName
	}
	if req.PhoneNumber != nil {
		m.PhoneNumber = *req.PhoneNumber
	}
	if req.Notes != nil {
		m.Notes = *req.Notes
	}

	updated, err := s.svc.Members.UpdateMember(r.Context(), m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(updated))
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid member id")
		return
	}
	if err := s.svc.Members.DeleteMember(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMemberSlots(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid member id")
		return
	}
	holdings, err := s.svc.Reports.MemberSlots(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, holdings)
}
