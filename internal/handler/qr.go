package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/stckr/qr-server-go/internal/errors"
	"github.com/stckr/qr-server-go/internal/middleware"
	"github.com/stckr/qr-server-go/internal/qr"
	"github.com/stckr/qr-server-go/internal/service"
)

type QRHandler struct {
	resolutionService *service.ResolutionService
	claimService      *service.ClaimService
}

func NewQRHandler(
	resolutionService *service.ResolutionService,
	claimService *service.ClaimService,
) *QRHandler {
	return &QRHandler{
		resolutionService: resolutionService,
		claimService:      claimService,
	}
}

// ClaimRoutes are the authenticated claim operations.
func (h *QRHandler) ClaimRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/claim", h.Claim)
	r.Post("/unclaim", h.Unclaim)
	r.Get("/claims", h.GetClaims)

	return r
}

// POST /v1/qr/resolve
// Read path. Anonymous callers always receive the generic landing
// redirect; only a caller's own claim is ever reflected in the response.
func (h *QRHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RawInput string `json:"rawInput"`
		Platform string `json:"platform"`
		Source   string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	var callerUserID *string
	if user := middleware.GetUser(r.Context()); user != nil {
		callerUserID = &user.ID
	}

	outcome := h.resolutionService.Resolve(r.Context(), service.ResolveParams{
		RawInput:     req.RawInput,
		CallerUserID: callerUserID,
		Platform:     req.Platform,
		Source:       req.Source,
	})

	writeJSON(w, http.StatusOK, outcome)
}

// GET /qr/{code}
// Printed-sticker entry point: 302 to the canonical landing route. The
// response is identical for every visitor regardless of claim state.
func (h *QRHandler) Landing(w http.ResponseWriter, r *http.Request) {
	outcome := h.resolutionService.Resolve(r.Context(), service.ResolveParams{
		RawInput: chi.URLParam(r, "code"),
		Platform: "web",
		Source:   "landing",
	})

	// Anonymous resolution always yields a redirect outcome.
	http.Redirect(w, r, outcome.RedirectURL, http.StatusFound)
}

// POST /v1/qr/claim
func (h *QRHandler) Claim(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	var req struct {
		CodeKey string `json:"codeKey"`
		ItemID  string `json:"itemId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	if req.CodeKey == "" {
		writeError(w, apperrors.MissingRequired("codeKey"))
		return
	}
	if req.ItemID == "" {
		writeError(w, apperrors.MissingRequired("itemId"))
		return
	}

	// Clients may send raw scanned input; claims are keyed canonically.
	codeKey := qr.Normalize(req.CodeKey)

	result, err := h.claimService.Claim(r.Context(), user.ID, codeKey, req.ItemID)
	if err != nil {
		log.Error().
			Err(err).
			Str("userId", user.ID).
			Str("codeKey", codeKey).
			Msg("claim failed")
		writeError(w, err)
		return
	}

	status := "retargeted"
	if result.Created {
		status = "created"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"claim": map[string]any{
			"userId":    result.UserID,
			"codeKey":   result.CodeKey,
			"itemId":    result.ItemID,
			"claimedAt": formatTime(result.ClaimedAt),
		},
	})
}

// POST /v1/qr/unclaim
func (h *QRHandler) Unclaim(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	var req struct {
		CodeKey string `json:"codeKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CodeKey == "" {
		writeError(w, apperrors.MissingRequired("codeKey"))
		return
	}

	deleted, err := h.claimService.Unclaim(r.Context(), user.ID, qr.Normalize(req.CodeKey))
	if err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("unclaim failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

// GET /v1/qr/claims?code=...
// Scoped strictly to the caller; other users' claims on the same code are
// never visible here.
func (h *QRHandler) GetClaims(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	codeKey := qr.Normalize(r.URL.Query().Get("code"))
	if codeKey == "" {
		writeError(w, apperrors.MissingRequired("code"))
		return
	}

	views, err := h.claimService.GetClaims(r.Context(), user.ID, codeKey)
	if err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("failed to list claims")
		writeError(w, err)
		return
	}

	claims := make([]map[string]any, len(views))
	for i, v := range views {
		claims[i] = map[string]any{
			"itemId":    v.ItemID,
			"itemName":  v.ItemName,
			"claimedAt": formatTime(v.ClaimedAt),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"claims": claims})
}
