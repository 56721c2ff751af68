package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"chitfund/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses: missing
// resources 404, state conflicts 409, rule violations 422.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrConflict),
		errors.Is(err, core.ErrSlotAssigned),
		errors.Is(err, core.ErrSlotUnassigned),
		errors.Is(err, core.ErrSlotHasPayments),
		errors.Is(err, core.ErrScheduleShrink):
		status = http.StatusConflict
	case errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidDays),
		errors.Is(err, core.ErrDurationMismatch),
		errors.Is(err, core.ErrBidTooHigh),
		errors.Is(err, core.ErrNotAuction),
		errors.Is(err, core.ErrEmptyPool),
		errors.Is(err, core.ErrOverpayment),
		errors.Is(err, core.ErrMemberNotInChit):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}
