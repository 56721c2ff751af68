package http

import (
	"net/http"
	"strconv"
)

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func (s *Server) handleCreateChit(w http.ResponseWriter, r *http.Request) {
	var req chitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	chit, err := req.toChit()
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	created, slots, err := s.svc.Chits.CreateChit(r.Context(), chit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Chit  chitResponse   `json:"chit"`
		Slots []slotResponse `json:"slots"`
	}{toChitResponse(created), toSlotResponses(slots)})
}

func (s *Server) handleListChits(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.svc.Chits.ListChits(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]chitResponse, len(summaries))
	for i, sum := range summaries {
		out[i] = toChitSummaryResponse(sum)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetChit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid chit id")
		return
	}
	summary, err := s.svc.Chits.GetChit(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toChitSummaryResponse(summary))
}

func (s *Server) handleUpdateChit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid chit id")
		return
	}
	var req chitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	updated, err := s.svc.Chits.UpdateChit(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toChitResponse(updated))
}

func (s *Server) handleDeleteChit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid chit id")
		return
	}
	if err := s.svc.Chits.DeleteChit(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
