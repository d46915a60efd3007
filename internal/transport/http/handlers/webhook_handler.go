package handlers

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	paymentsvc "github.com/hackura/cybershelf/internal/services/payments"
	purchasesvc "github.com/hackura/cybershelf/internal/services/purchases"
	"github.com/hackura/cybershelf/internal/transport/http/dto"
	httperrors "github.com/hackura/cybershelf/internal/transport/http/errors"
)

const paystackSignatureHeader = "X-Paystack-Signature"

// webhook bodies are small JSON documents; anything bigger is not Paystack
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	paystack *paymentsvc.PaystackAdapter
	recorder *purchasesvc.Service
	logger   *zap.Logger
}

func NewWebhookHandler(paystack *paymentsvc.PaystackAdapter, recorder *purchasesvc.Service, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		paystack: paystack,
		recorder: recorder,
		logger:   logger,
	}
}

// Paystack handles a webhook delivery. The body is consumed raw because the
// signature covers the exact bytes on the wire; decoding happens only after
// the adapter has verified them.
func (h *WebhookHandler) Paystack(w http.ResponseWriter, r *http.Request) {
	if h.paystack == nil || h.recorder == nil {
		writeInternal(w, "WEBHOOK_SERVICE_UNAVAILABLE", "webhook processing is unavailable")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "unreadable request body")
		return
	}

	event, ok, err := h.paystack.HandleEvent(body, r.Header.Get(paystackSignatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, paymentsvc.ErrSignatureInvalid):
			h.logger.Warn("paystack webhook rejected", zap.String("reason", "signature_invalid"))
			writeUnauthorized(w, "SIGNATURE_INVALID", "webhook signature verification failed")
		case errors.Is(err, paymentsvc.ErrMissingMetadata):
			writeBadRequest(w, "MISSING_METADATA", "webhook payload is missing purchase metadata")
		default:
			writeBadRequest(w, "INVALID_REQUEST", "webhook payload could not be decoded")
		}
		return
	}
	if !ok {
		// non-purchase event type, acknowledged without side effect
		httperrors.Write(w, http.StatusOK, dto.WebhookAckResponse{OK: true, Handled: false})
		return
	}

	result, err := h.recorder.Record(r.Context(), event)
	if err != nil {
		switch {
		case errors.Is(err, purchasesvc.ErrValidation), errors.Is(err, purchasesvc.ErrUnknownItem):
			writeBadRequest(w, "UNKNOWN_ITEM", "webhook cart references an unknown book")
		case errors.Is(err, purchasesvc.ErrStoreFailure):
			writeInternal(w, "STORE_UNAVAILABLE", "purchase could not be recorded")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to process webhook")
		}
		return
	}

	if already := result.AlreadyRecorded(); already > 0 {
		h.logger.Info("paystack webhook replay",
			zap.String("reference", result.Reference),
			zap.Int("already_recorded", already),
		)
	}

	httperrors.Write(w, http.StatusOK, dto.WebhookAckResponse{
		OK:              true,
		Handled:         true,
		Reference:       result.Reference,
		Recorded:        len(result.Items) - result.AlreadyRecorded(),
		AlreadyRecorded: result.AlreadyRecorded(),
	})
}
