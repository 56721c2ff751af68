package http

import (
	"net/http"
	"strconv"
)

func (s *Server) handleListSlots(w http.ResponseWriter, r *http.Request) {
	chitID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid chit id")
		return
	}
	slots, err := s.svc.Schedule.ListSlots(r.Context(), chitID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotResponses(slots))
}

func (s *Server) handleGetSlot(w http.ResponseWriter, r *http.Request) {
	chitID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid chit id")
		return
	}
	month, ok := pathID(r, "month")
	if !ok {
		writeBadRequest(w, "invalid month")
		return
	}
	slot, err := s.svc.Schedule.GetMonthSlot(r.Context(), chitID, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotResponse(slot))
}

func (s *Server) handleAssignMember(w http.ResponseWriter, r *http.Request) {
	chitID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid chit id")
		return
	}
	month, ok := pathID(r, "month")
	if !ok {
		writeBadRequest(w, "invalid month")
		return
	}
	var req assignRequest
	if !decodeBody(w, r, &req) {
		return
	}

	slot, err := s.svc.Schedule.AssignMember(r.Context(), chitID, month, req.MemberID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReport(chitID, month)
	writeJSON(w, http.StatusOK, toSlotResponse(slot))
}

func (s *Server) handleUnassignMember(w http.ResponseWriter, r *http.Request) {
	chitID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid chit id")
		return
	}
	month, ok := pathID(r, "month")
	if !ok {
		writeBadRequest(w, "invalid month")
		return
	}

	slot, err := s.svc.Schedule.UnassignMember(r.Context(), chitID, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReport(chitID, month)
	writeJSON(w, http.StatusOK, toSlotResponse(slot))
}

func (s *Server) handleBulkAssign(w http.ResponseWriter, r *http.Request) {
	chitID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid chit id")
		return
	}
	var req bulkAssignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Assignments) == 0 {
		writeBadRequest(w, "no assignments provided")
		return
	}

	slots, err := s.svc.Schedule.BulkAssign(r.Context(), chitID, req.Assignments)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for _, a := range req.Assignments {
		s.invalidateReport(chitID, a.Month)
	}
	writeJSON(w, http.StatusOK, toSlotResponses(slots))
}

func (s *Server) handleRecomputeAmounts(w http.ResponseWriter, r *http.Request) {
	chitID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid chit id")
		return
	}
	if err := s.svc.Schedule.RecomputeAmounts(r.Context(), chitID); err != nil {
		writeError(w, r, err)
		return
	}
	slots, err := s.svc.Schedule.ListSlots(r.Context(), chitID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotResponses(slots))
}

func (s *Server) handleUnassignedMonths(w http.ResponseWriter, r *http.Request) {
	chitID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid chit id")
		return
	}
	months, err := s.svc.Schedule.UnassignedMonths(r.Context(), chitID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Months []int64 `json:"months"`
	}{months})
}

func (s *Server) handleRecordAuction(w http.ResponseWriter, r *http.Request) {
	chitID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid chit id")
		return
	}
	var req auctionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	slot, breakdown, err := s.svc.Auctions.RecordAuction(r.Context(), chitID, req.Month, req.BidAmount, req.MemberID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	auctionsRecorded.Inc()
	s.invalidateReport(chitID, req.Month)
	writeJSON(w, http.StatusOK, auctionResponse{
		Slot:      toSlotResponse(slot),
		Breakdown: breakdown,
	})
}

func (s *Server) handlePreviewAuction(w http.ResponseWriter, r *http.Request) {
	chitID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid chit id")
		return
	}
	bid, err := strconv.ParseInt(r.URL.Query().Get("bid"), 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid bid")
		return
	}

	breakdown, err := s.svc.Auctions.PreviewAuction(r.Context(), chitID, bid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}
