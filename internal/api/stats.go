package api

import (
	"net/http"
	"time"
)

type tenantStatsResponse struct {
	TenantID     string    `json:"tenant_id"`
	CapturedAt   time.Time `json:"captured_at"`
	SalesRows    int64     `json:"sales_rows"`
	ProductRows  int64     `json:"product_rows"`
	ResellerRows int64     `json:"reseller_rows"`
	TopProducts  []string  `json:"top_products"`
	TopResellers []string  `json:"top_resellers"`
	MinYear      int       `json:"min_year,omitempty"`
	MaxYear      int       `json:"max_year,omitempty"`
}

func handleTenantStats(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Stats == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "STATS_NOT_CONFIGURED", "stats dependencies are not configured", false, nil)
		return
	}

	tenantID, err := tenantFromRequest(r)
	if err != nil {
		writeError(r.Context(), w, http.StatusUnauthorized, "TENANT_REQUIRED", err.Error(), false, nil)
		return
	}
	if err := requireRole(r, roleChatUser); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	stats, err := deps.Stats.Get(r.Context(), tenantID)
	if err != nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "STATS_UNAVAILABLE", "failed to read tenant statistics", true, map[string]any{"details": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, tenantStatsResponse{
		TenantID:     stats.TenantID,
		CapturedAt:   stats.CapturedAt,
		SalesRows:    stats.SalesRows,
		ProductRows:  stats.ProductRows,
		ResellerRows: stats.ResellerRows,
		TopProducts:  stats.TopProducts,
		TopResellers: stats.TopResellers,
		MinYear:      stats.MinYear,
		MaxYear:      stats.MaxYear,
	})
}
