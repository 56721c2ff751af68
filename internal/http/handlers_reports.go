package http

import (
	"log/slog"
	"net/http"
	"strconv"
)

func reportKey(chitID, month int64) string {
	return strconv.FormatInt(chitID, 10) + "-" + strconv.FormatInt(month, 10)
}

func (s *Server) invalidateReport(chitID, month int64) {
	s.reportCache.Delete(reportKey(chitID, month))
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
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

	key := reportKey(chitID, month)
	if report, found := s.reportCache.Get(key); found {
		reportCacheHits.WithLabelValues("hit").Inc()
		slog.DebugContext(r.Context(), "Report cache hit", "chit_id", chitID, "month", month)
		writeJSON(w, http.StatusOK, report)
		return
	}
	reportCacheHits.WithLabelValues("miss").Inc()

	report, err := s.svc.Reports.MonthlyReport(r.Context(), chitID, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.reportCache.Set(key, report)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handlePayoutHistory(w http.ResponseWriter, r *http.Request) {
	chitID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid chit id")
		return
	}
	history, err := s.svc.Reports.PayoutHistory(r.Context(), chitID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
