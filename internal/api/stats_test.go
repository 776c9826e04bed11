package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ventia/ventia/internal/sales"
)

func TestTenantStatsEndpoint(t *testing.T) {
	provider := &fakeStatsProvider{stats: sales.TenantStats{
		SalesRows:    12000,
		ProductRows:  40,
		ResellerRows: 9,
		TopProducts:  []string{"Eau Fraiche 100ml"},
		TopResellers: []string{"Galilu", "BoxNox"},
		MinYear:      2021,
		MaxYear:      2024,
	}}
	h := NewHandler(testConfig(t, map[string]string{}), Dependencies{Stats: provider})

	req := httptest.NewRequest(http.MethodGet, "/v1/tenants/stats", nil)
	req.Header.Set("X-Tenant-ID", "t1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var body tenantStatsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if body.TenantID != "t1" {
		t.Fatalf("tenant_id = %q", body.TenantID)
	}
	if body.SalesRows != 12000 {
		t.Fatalf("sales_rows = %d", body.SalesRows)
	}
	if len(body.TopResellers) != 2 {
		t.Fatalf("top_resellers = %v", body.TopResellers)
	}
	if body.MinYear != 2021 || body.MaxYear != 2024 {
		t.Fatalf("year bounds = %d..%d", body.MinYear, body.MaxYear)
	}
}

func TestTenantStatsUnavailable(t *testing.T) {
	h := NewHandler(testConfig(t, map[string]string{}), Dependencies{Stats: &fakeStatsProvider{err: errors.New("store down")}})

	req := httptest.NewRequest(http.MethodGet, "/v1/tenants/stats", nil)
	req.Header.Set("X-Tenant-ID", "t1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
}
