package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nexh/focus/internal/api/middleware"
	"github.com/nexh/focus/internal/domain"
	"github.com/nexh/focus/internal/service"
)

type TenantHandler struct {
	svc   *service.TenantService
	focus *service.FocusService
}

func NewTenantHandler(svc *service.TenantService, focus *service.FocusService) *TenantHandler {
	return &TenantHandler{svc: svc, focus: focus}
}

type createTenantRequest struct {
	Name     string          `json:"name"`
	Industry string          `json:"industry"`
	Language string          `json:"language,omitempty"`
	Config   json.RawMessage `json:"config,omitempty"`
}

type createTenantResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Language string `json:"language"`
	APIKey   string `json:"api_key"`
}

type configResponse struct {
	domain.IndustryConfig
	Defaulted []string `json:"defaulted,omitempty"`
}

func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate API key")
		return
	}

	tenant := &domain.Tenant{
		Name:       req.Name,
		Industry:   req.Industry,
		Language:   req.Language,
		Config:     req.Config,
		APIKeyHash: middleware.HashAPIKey(apiKey),
	}

	if err := h.svc.Create(r.Context(), tenant); err != nil {
		if errors.Is(err, service.ErrTenantNameMissing) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeServiceError(w, err, "failed to create tenant")
		return
	}

	writeJSON(w, http.StatusCreated, createTenantResponse{
		ID:       tenant.ID.String(),
		Name:     tenant.Name,
		Industry: tenant.Industry,
		Language: tenant.OutputLanguage(),
		APIKey:   apiKey,
	})
}

func (h *TenantHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	cfg, err := h.svc.Config(r.Context(), tenant.ID)
	if err != nil {
		writeServiceError(w, err, "failed to load configuration")
		return
	}
	writeJSON(w, http.StatusOK, configResponse{IndustryConfig: cfg, Defaulted: cfg.Defaulted})
}

// UpdateConfig replaces the tenant's rule configuration. Today's cached list
// is dropped so the next request sees the new rules.
func (h *TenantHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var raw json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := h.svc.UpdateConfig(r.Context(), tenant, raw)
	if err != nil {
		writeServiceError(w, err, "failed to update configuration")
		return
	}
	h.focus.Invalidate(r.Context(), tenant.ID, time.Now())

	writeJSON(w, http.StatusOK, configResponse{IndustryConfig: cfg, Defaulted: cfg.Defaulted})
}

func generateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "fk_" + hex.EncodeToString(b), nil
}
