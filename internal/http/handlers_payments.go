package http

import (
	"net/http"
)

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	payment, err := req.toPayment()
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	created, err := s.svc.Payments.RecordPayment(r.Context(), payment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	paymentsRecorded.WithLabelValues(string(created.Type)).Inc()
	s.invalidateReport(created.ChitID, created.Month)
	writeJSON(w, http.StatusCreated, toPaymentResponse(created))
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid payment id")
		return
	}
	payment, err := s.svc.Payments.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid payment id")
		return
	}
	var req paymentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	updated, err := s.svc.Payments.UpdatePayment(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReport(updated.ChitID, updated.Month)
	writeJSON(w, http.StatusOK, toPaymentResponse(updated))
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid payment id")
		return
	}

	// Fetch first so the right report entry can be invalidated
	payment, err := s.svc.Payments.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Payments.DeletePayment(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReport(payment.ChitID, payment.Month)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	chitID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid chit id")
		return
	}
	payments, err := s.svc.Payments.ListPayments(r.Context(), chitID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponses(payments))
}
