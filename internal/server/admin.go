package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ance-ai/metered-gateway/internal/auth"
	"github.com/ance-ai/metered-gateway/internal/domain"
)

var processStart = time.Now()

// AdminKeyMiddleware gates the admin subtree behind the configured API key,
// presented via the X-Admin-Key header and checked in constant time.
func AdminKeyMiddleware(key *auth.AdminKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !key.Verify(r.Header.Get("X-Admin-Key")) {
				writeError(w, domain.NewAPIError(domain.ErrorTypeAuthentication, "", "invalid admin key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statsResponse struct {
	Uptime       string `json:"uptime"`
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	AllocBytes   uint64 `json:"alloc_bytes"`
	NumGC        uint32 `json:"num_gc"`
}

func (h *handlers) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	writeJSON(w, http.StatusOK, statsResponse{
		Uptime:       time.Since(processStart).String(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		AllocBytes:   m.Alloc,
		NumGC:        m.NumGC,
	})
}

type renewCycleRequest struct {
	// Quota overrides the default ceiling when positive.
	Quota float64 `json:"quota"`
	// Days overrides the default cycle length when positive.
	Days int `json:"days"`
}

type renewCycleResponse struct {
	AccountID    int64     `json:"account_id"`
	CycleEnd     time.Time `json:"cycle_end"`
	QuotaCeiling float64   `json:"quota_ceiling"`
	TokensUsed   float64   `json:"tokens_used"`
}

// handleAdminRenewCycle is the external renewal action: it installs a fresh
// billing cycle for the account. The request path never triggers this.
func (h *handlers) handleAdminRenewCycle(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "account_id"), 10, 64)
	if err != nil || accountID <= 0 {
		writeError(w, domain.ErrInvalidRequest("invalid account id"))
		return
	}

	var req renewCycleRequest
	if r.Body != nil {
		// An empty body means defaults.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	var length time.Duration
	if req.Days > 0 {
		length = time.Duration(req.Days) * 24 * time.Hour
	}

	cycle, err := h.deps.Ledger.RenewCycle(r.Context(), accountID, req.Quota, length)
	if err != nil {
		writeError(w, err)
		return
	}

	AddLogField(r.Context(), "event", "cycle_renewed")
	writeJSON(w, http.StatusOK, renewCycleResponse{
		AccountID:    cycle.AccountID,
		CycleEnd:     cycle.CycleEnd,
		QuotaCeiling: cycle.QuotaCeiling,
		TokensUsed:   cycle.TokensUsed,
	})
}
