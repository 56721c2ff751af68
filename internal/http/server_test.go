package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"chitfund/internal/services"
	"chitfund/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	srv := NewServer(":0", Services{
		Chits:    services.NewChitService(repo),
		Members:  services.NewMemberService(repo),
		Schedule: services.NewScheduleService(repo),
		Auctions: services.NewAuctionService(repo),
		Payments: services.NewPaymentService(repo, nil),
		Reports:  services.NewReportService(repo),
	}, 16, time.Minute)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func chitBody(name, chitType string) map[string]any {
	return map[string]any{
		"name":              name,
		"chit_value":        100000,
		"size":              10,
		"duration_months":   10,
		"start_date":        "2025-01-01",
		"collection_day":    5,
		"payout_day":        15,
		"chit_type":         chitType,
		"base_contribution": 10000,
	}
}

func createChit(t *testing.T, srv *Server, name, chitType string) int64 {
	t.Helper()
	rec := doJSON(t, srv, "POST", "/api/chits", chitBody(name, chitType))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create chit: status %d body %s", rec.Code, rec.Body.String())
	}
	resp := decode[struct {
		Chit chitResponse `json:"chit"`
	}](t, rec)
	return resp.Chit.ID
}

func createMember(t *testing.T, srv *Server, name, phone string) int64 {
	t.Helper()
	rec := doJSON(t, srv, "POST", "/api/members", map[string]any{
		"full_name":    name,
		"phone_number": phone,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create member: status %d body %s", rec.Code, rec.Body.String())
	}
	return decode[memberResponse](t, rec).ID
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, srv, "GET", path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, rec.Code)
		}
	}
}

func TestCreateChitEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, "POST", "/api/chits", chitBody("Family Gold", "fixed"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	resp := decode[struct {
		Chit  chitResponse   `json:"chit"`
		Slots []slotResponse `json:"slots"`
	}](t, rec)
	if resp.Chit.EndDate != "2025-10-31" {
		t.Errorf("end_date = %s", resp.Chit.EndDate)
	}
	if len(resp.Slots) != 10 {
		t.Errorf("slots = %d", len(resp.Slots))
	}

	// Case-insensitive duplicate name
	rec = doJSON(t, srv, "POST", "/api/chits", chitBody("FAMILY gold", "fixed"))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate: status %d, want 409", rec.Code)
	}

	// Validation failure
	bad := chitBody("Bad Days", "fixed")
	bad["collection_day"] = 20
	rec = doJSON(t, srv, "POST", "/api/chits", bad)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad days: status %d, want 422", rec.Code)
	}

	// Malformed body
	req := httptest.NewRequest("POST", "/api/chits", bytes.NewBufferString("{"))
	rec2 := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("malformed: status %d, want 400", rec2.Code)
	}
}

func TestGetChitNotFound(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, "GET", "/api/chits/999", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestAssignAndPaymentFlow(t *testing.T) {
	srv := newTestServer(t)
	chitID := createChit(t, srv, "Flow", "fixed")
	memberID := createMember(t, srv, "Asha", "9876500001")

	rec := doJSON(t, srv, "POST", fmt.Sprintf("/api/chits/%d/slots/1/assign", chitID),
		map[string]any{"member_id": memberID})
	if rec.Code != http.StatusOK {
		t.Fatalf("assign: status %d body %s", rec.Code, rec.Body.String())
	}

	// Double assignment conflicts
	otherID := createMember(t, srv, "Ravi", "9876500002")
	rec = doJSON(t, srv, "POST", fmt.Sprintf("/api/chits/%d/slots/1/assign", chitID),
		map[string]any{"member_id": otherID})
	if rec.Code != http.StatusConflict {
		t.Fatalf("double assign: status %d, want 409", rec.Code)
	}

	payment := map[string]any{
		"chit_id":      chitID,
		"member_id":    memberID,
		"month":        1,
		"amount":       6000,
		"date":         "2025-01-05",
		"method":       "cash",
		"payment_type": "collection",
	}
	rec = doJSON(t, srv, "POST", "/api/payments", payment)
	if rec.Code != http.StatusCreated {
		t.Fatalf("payment: status %d body %s", rec.Code, rec.Body.String())
	}
	created := decode[paymentResponse](t, rec)

	// Overpayment rejected
	payment["amount"] = 5000
	rec = doJSON(t, srv, "POST", "/api/payments", payment)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("overpayment: status %d, want 422", rec.Code)
	}

	// Update within bounds
	rec = doJSON(t, srv, "PATCH", fmt.Sprintf("/api/payments/%d", created.ID),
		map[string]any{"amount": 10000})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, "DELETE", fmt.Sprintf("/api/payments/%d", created.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	rec = doJSON(t, srv, "GET", fmt.Sprintf("/api/payments/%d", created.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted: status %d, want 404", rec.Code)
	}
}

func TestMonthlyReportEndpoint(t *testing.T) {
	srv := newTestServer(t)
	chitID := createChit(t, srv, "Report", "fixed")
	memberID := createMember(t, srv, "Asha", "9876500001")

	doJSON(t, srv, "POST", fmt.Sprintf("/api/chits/%d/slots/1/assign", chitID),
		map[string]any{"member_id": memberID})
	doJSON(t, srv, "POST", "/api/payments", map[string]any{
		"chit_id":      chitID,
		"member_id":    memberID,
		"month":        1,
		"amount":       4000,
		"date":         "2025-01-05",
		"method":       "upi",
		"payment_type": "collection",
	})

	path := fmt.Sprintf("/api/chits/%d/months/1", chitID)
	rec := doJSON(t, srv, "GET", path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("report: status %d body %s", rec.Code, rec.Body.String())
	}
	report := decode[services.MonthBreakdown](t, rec)
	if report.TotalCollected != 4000 || report.TotalExpected != 10000 {
		t.Fatalf("report totals = %+v", report)
	}
	if len(report.Members) != 1 || report.Members[0].Status != "Partial" {
		t.Fatalf("members = %+v", report.Members)
	}

	// Second read is served from cache and still correct
	rec = doJSON(t, srv, "GET", path, nil)
	cached := decode[services.MonthBreakdown](t, rec)
	if cached.TotalCollected != 4000 {
		t.Fatalf("cached totals = %+v", cached)
	}

	// A new payment invalidates the cached month
	doJSON(t, srv, "POST", "/api/payments", map[string]any{
		"chit_id":      chitID,
		"member_id":    memberID,
		"month":        1,
		"amount":       6000,
		"date":         "2025-01-06",
		"method":       "cash",
		"payment_type": "collection",
	})
	rec = doJSON(t, srv, "GET", path, nil)
	refreshed := decode[services.MonthBreakdown](t, rec)
	if refreshed.TotalCollected != 10000 {
		t.Fatalf("refreshed total = %d, want 10000", refreshed.TotalCollected)
	}
	if refreshed.Members[0].Status != "Paid" {
		t.Fatalf("status = %s, want Paid", refreshed.Members[0].Status)
	}
}

func TestAuctionEndpoints(t *testing.T) {
	srv := newTestServer(t)

	body := chitBody("Auction Pool", "auction")
	delete(body, "base_contribution")
	body["commission_percent"] = 2
	rec := doJSON(t, srv, "POST", "/api/chits", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	chitID := decode[struct {
		Chit chitResponse `json:"chit"`
	}](t, rec).Chit.ID
	memberID := createMember(t, srv, "Asha", "9876500001")

	rec = doJSON(t, srv, "GET", fmt.Sprintf("/api/chits/%d/auction/preview?bid=12000", chitID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, "POST", fmt.Sprintf("/api/chits/%d/auction", chitID),
		map[string]any{"month": 2, "bid_amount": 12000, "member_id": memberID})
	if rec.Code != http.StatusOK {
		t.Fatalf("record: status %d body %s", rec.Code, rec.Body.String())
	}
	resp := decode[auctionResponse](t, rec)
	if resp.Breakdown.DividendPerMember != 1000 || resp.Breakdown.PayoutToWinner != 88000 {
		t.Fatalf("breakdown = %+v", resp.Breakdown)
	}
	if resp.Slot.MemberID == nil || *resp.Slot.MemberID != memberID {
		t.Fatalf("winner = %v, want %d", resp.Slot.MemberID, memberID)
	}

	// Bid above pool value rejected
	rec = doJSON(t, srv, "POST", fmt.Sprintf("/api/chits/%d/auction", chitID),
		map[string]any{"month": 2, "bid_amount": 100001, "member_id": memberID})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("high bid: status %d, want 422", rec.Code)
	}
}

func TestUnassignedMonthsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	chitID := createChit(t, srv, "Gaps", "fixed")
	memberID := createMember(t, srv, "Asha", "9876500001")
	doJSON(t, srv, "POST", fmt.Sprintf("/api/chits/%d/slots/3/assign", chitID),
		map[string]any{"member_id": memberID})

	rec := doJSON(t, srv, "GET", fmt.Sprintf("/api/chits/%d/slots/unassigned", chitID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	resp := decode[struct {
		Months []int64 `json:"months"`
	}](t, rec)
	if len(resp.Months) != 9 {
		t.Fatalf("months = %v", resp.Months)
	}
	for _, m := range resp.Months {
		if m == 3 {
			t.Fatal("month 3 should be assigned")
		}
	}
}

func TestMemberSearch(t *testing.T) {
	srv := newTestServer(t)
	createMember(t, srv, "Asha Rao", "9876500001")
	createMember(t, srv, "Ravi Kumar", "9876500002")

	rec := doJSON(t, srv, "GET", "/api/members?q=asha", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	members := decode[[]memberResponse](t, rec)
	if len(members) != 1 || members[0].FullName != "Asha Rao" {
		t.Fatalf("members = %+v", members)
	}

	rec = doJSON(t, srv, "GET", "/api/members?q=98765", nil)
	if len(decode[[]memberResponse](t, rec)) != 2 {
		t.Fatal("phone fragment should match both members")
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, "GET", "/api/chits", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID header")
	}
}
