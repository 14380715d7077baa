package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ance-ai/metered-gateway/internal/domain"
	"github.com/ance-ai/metered-gateway/internal/gateway"
)

type handlers struct {
	deps   Deps
	logger *slog.Logger
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type usageResponse struct {
	Used  float64 `json:"used"`
	Quota float64 `json:"quota"`
}

func (h *handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidRequest("invalid request body"))
		return
	}

	id, err := h.deps.Credentials.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	AddLogField(r.Context(), "event", "account_registered")
	writeJSON(w, http.StatusOK, registerResponse{ID: id, Message: "registered"})
}

func (h *handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidRequest("invalid request body"))
		return
	}

	accountID, err := h.deps.Credentials.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.deps.Tokens.Issue(accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *handlers) handleChat(w http.ResponseWriter, r *http.Request) {
	accountID := GetAccountID(r.Context())
	if accountID == 0 {
		writeError(w, domain.ErrInvalidToken())
		return
	}

	var req gateway.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidRequest("invalid request body"))
		return
	}

	resp, err := h.deps.Gateway.Chat(r.Context(), accountID, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) handleUsage(w http.ResponseWriter, r *http.Request) {
	accountID := GetAccountID(r.Context())
	if accountID == 0 {
		writeError(w, domain.ErrInvalidToken())
		return
	}

	used, quota, err := h.deps.Ledger.Usage(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, usageResponse{Used: used, Quota: quota})
}
