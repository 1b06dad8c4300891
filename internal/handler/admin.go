package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/stckr/qr-server-go/internal/audit"
	apperrors "github.com/stckr/qr-server-go/internal/errors"
	"github.com/stckr/qr-server-go/internal/qr"
	"github.com/stckr/qr-server-go/internal/service"
)

// AdminHandler exposes the batch provisioning surface: minting sticker
// codes and purging them. All operations are security-audited.
type AdminHandler struct {
	registryService *service.RegistryService
	adminAuth       func(http.Handler) http.Handler
}

func NewAdminHandler(
	registryService *service.RegistryService,
	adminAuth func(http.Handler) http.Handler,
) *AdminHandler {
	return &AdminHandler{
		registryService: registryService,
		adminAuth:       adminAuth,
	}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.adminAuth)

	r.Post("/codes/mint", h.Mint)
	r.Get("/codes/{codeKey}", h.GetCode)
	r.Delete("/codes/{codeKey}", h.PurgeCode)

	return r
}

// POST /admin/codes/mint
func (h *AdminHandler) Mint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count  int     `json:"count"`
		PackID *string `json:"packId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	codes, err := h.registryService.Mint(r.Context(), req.Count, req.PackID)
	if err != nil {
		log.Error().Err(err).Int("count", req.Count).Msg("mint failed")
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type: audit.EventCodesMinted,
		Details: map[string]interface{}{
			"count": len(codes),
		},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"codes": codes,
		"total": len(codes),
	})
}

// GET /admin/codes/{codeKey}
// Registry row plus claim count. Counts only; claimant identities are
// never exposed, even to admins.
func (h *AdminHandler) GetCode(w http.ResponseWriter, r *http.Request) {
	codeKey := qr.Normalize(chi.URLParam(r, "codeKey"))

	info, err := h.registryService.Describe(r.Context(), codeKey)
	if err != nil {
		log.Error().Err(err).Str("codeKey", codeKey).Msg("failed to describe code")
		writeError(w, err)
		return
	}
	if info == nil {
		writeError(w, apperrors.CodeNotFound(codeKey))
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// DELETE /admin/codes/{codeKey}
func (h *AdminHandler) PurgeCode(w http.ResponseWriter, r *http.Request) {
	codeKey := qr.Normalize(chi.URLParam(r, "codeKey"))

	deleted, err := h.registryService.Purge(r.Context(), codeKey)
	if err != nil {
		log.Error().Err(err).Str("codeKey", codeKey).Msg("purge failed")
		writeError(w, err)
		return
	}
	if !deleted {
		writeError(w, apperrors.CodeNotFound(codeKey))
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventCodePurged,
		CodeKey: codeKey,
	})

	writeJSON(w, http.StatusOK, map[string]any{"purged": true, "codeKey": codeKey})
}
