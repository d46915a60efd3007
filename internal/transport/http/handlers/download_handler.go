package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hackura/cybershelf/internal/pkg/validate"
	authsvc "github.com/hackura/cybershelf/internal/services/auth"
	downloadsvc "github.com/hackura/cybershelf/internal/services/downloads"
	ratesvc "github.com/hackura/cybershelf/internal/services/rate"
	"github.com/hackura/cybershelf/internal/transport/http/dto"
	httperrors "github.com/hackura/cybershelf/internal/transport/http/errors"
)

type DownloadHandler struct {
	downloads *downloadsvc.Service
	limiter   *ratesvc.Limiter
	logger    *zap.Logger
}

func NewDownloadHandler(downloads *downloadsvc.Service, limiter *ratesvc.Limiter, logger *zap.Logger) *DownloadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadHandler{
		downloads: downloads,
		limiter:   limiter,
		logger:    logger,
	}
}

// ByReference resolves all download links for one provider reference. This is
// the post-checkout path; no login is required because the reference itself
// only circulates on the buyer's receipt.
func (h *DownloadHandler) ByReference(w http.ResponseWriter, r *http.Request) {
	if h.downloads == nil {
		writeInternal(w, "DOWNLOAD_SERVICE_UNAVAILABLE", "download service is unavailable")
		return
	}
	if !h.allow(w, r) {
		return
	}

	reference := chi.URLParam(r, "reference")
	links, err := h.downloads.ResolveByReference(r.Context(), reference)
	if err != nil {
		handleDownloadError(w, h.logger, err)
		return
	}

	resp := dto.DownloadLinksResponse{
		Reference: reference,
		Links:     make([]dto.DownloadLinkResponse, 0, len(links)),
	}
	for _, link := range links {
		resp.Links = append(resp.Links, dto.DownloadLinkResponse{
			BookID:    link.BookID,
			Title:     link.Title,
			URL:       link.URL,
			ExpiresAt: link.ExpiresAt,
		})
	}

	httperrors.Write(w, http.StatusOK, resp)
}

// ByToken resolves a single download link from a bearer download token passed
// as the token query parameter.
func (h *DownloadHandler) ByToken(w http.ResponseWriter, r *http.Request) {
	if h.downloads == nil {
		writeInternal(w, "DOWNLOAD_SERVICE_UNAVAILABLE", "download service is unavailable")
		return
	}
	if !h.allow(w, r) {
		return
	}

	link, err := h.downloads.ResolveByToken(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		handleDownloadError(w, h.logger, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DownloadLinkResponse{
		BookID:    link.BookID,
		Title:     link.Title,
		URL:       link.URL,
		ExpiresAt: link.ExpiresAt,
	})
}

// IssueToken mints a fresh 24h download token for a book the authenticated
// buyer owns.
func (h *DownloadHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.downloads == nil {
		writeInternal(w, "DOWNLOAD_SERVICE_UNAVAILABLE", "download service is unavailable")
		return
	}

	var req dto.DownloadTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if !validate.Required(req.BookID) {
		writeBadRequest(w, "INVALID_REQUEST", "book_id is required")
		return
	}

	token, expiresAt, err := h.downloads.IssueToken(r.Context(), identity.BuyerID, req.BookID)
	if err != nil {
		if errors.Is(err, downloadsvc.ErrNotEntitled) {
			writeNotFound(w, "PURCHASE_NOT_FOUND", "no purchase found for this book")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to issue download token")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DownloadTokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// allow applies the download rate limit keyed by buyer when authenticated,
// by client address otherwise. Limiter outages fail open.
func (h *DownloadHandler) allow(w http.ResponseWriter, r *http.Request) bool {
	if h.limiter == nil {
		return true
	}

	subject := r.RemoteAddr
	if identity, ok := authsvc.IdentityFromContext(r.Context()); ok {
		subject = identity.BuyerID
	}

	retryAfterSec, allowed, err := h.limiter.AllowDownload(r.Context(), subject)
	if err != nil {
		h.logger.Warn("download rate limiter unavailable", zap.Error(err))
		return true
	}
	if allowed {
		return true
	}

	cooldown := time.Now().UTC().Add(time.Duration(retryAfterSec) * time.Second)
	httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
		Code:          "RATE_LIMITED",
		Message:       "too many download requests",
		RetryAfterSec: retryAfterSec,
		CooldownUntil: &cooldown,
	})
	return false
}

func handleDownloadError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, downloadsvc.ErrPurchaseNotFound):
		writeNotFound(w, "PURCHASE_NOT_FOUND", "no purchase found for this reference")
	case errors.Is(err, downloadsvc.ErrTokenExpired):
		writeUnauthorized(w, "TOKEN_EXPIRED", "download token has expired")
	case errors.Is(err, downloadsvc.ErrTokenSignature):
		writeUnauthorized(w, "TOKEN_INVALID", "download token is invalid")
	case errors.Is(err, downloadsvc.ErrFileMissing):
		log.Error("purchased item has no file", zap.Error(err))
		writeInternal(w, "FILE_MISSING", "purchased item has no downloadable file")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to resolve download")
	}
}
