package handlers

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/hackura/cybershelf/internal/pkg/validate"
	authsvc "github.com/hackura/cybershelf/internal/services/auth"
	paymentsvc "github.com/hackura/cybershelf/internal/services/payments"
	purchasesvc "github.com/hackura/cybershelf/internal/services/purchases"
	"github.com/hackura/cybershelf/internal/transport/http/dto"
	httperrors "github.com/hackura/cybershelf/internal/transport/http/errors"
)

type CheckoutHandler struct {
	paypal   *paymentsvc.PayPalAdapter
	recorder *purchasesvc.Service
}

func NewCheckoutHandler(paypal *paymentsvc.PayPalAdapter, recorder *purchasesvc.Service) *CheckoutHandler {
	return &CheckoutHandler{
		paypal:   paypal,
		recorder: recorder,
	}
}

// PayPalConfirm accepts the client-side capture result, re-verifies the
// amount server-side and records the purchase. Unauthenticated confirmation
// is rejected before anything else.
func (h *CheckoutHandler) PayPalConfirm(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "NOT_AUTHENTICATED", "authentication required to confirm checkout")
		return
	}
	if h.paypal == nil || h.recorder == nil {
		writeInternal(w, "CHECKOUT_SERVICE_UNAVAILABLE", "checkout service is unavailable")
		return
	}

	var req dto.PayPalConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if !validate.Required(req.OrderID) || !validate.Required(req.Amount) {
		writeBadRequest(w, "INVALID_REQUEST", "order_id and amount are required")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "amount is not a valid decimal")
		return
	}

	items := make([]paymentsvc.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		if !validate.Quantity(item.Quantity) {
			writeBadRequest(w, "INVALID_REQUEST", "cart quantities must not be negative")
			return
		}
		items = append(items, paymentsvc.CartItem{
			BookID:   item.BookID,
			Title:    item.Title,
			Quantity: item.Quantity,
		})
	}

	event, err := h.paypal.Confirm(r.Context(), identity.BuyerID, identity.Email, paymentsvc.CaptureInput{
		OrderID:       req.OrderID,
		Items:         items,
		AmountCharged: amount,
		DiscountCode:  req.DiscountCode,
	})
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	result, err := h.recorder.Record(r.Context(), event)
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	resp := dto.PayPalConfirmResponse{
		OK:        true,
		Reference: result.Reference,
		Items:     make([]dto.PurchaseItemResponse, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		resp.Items = append(resp.Items, dto.PurchaseItemResponse{
			BookID:          item.BookID,
			Title:           item.Title,
			FinalPrice:      item.FinalPrice.StringFixed(2),
			AlreadyRecorded: !item.Created,
		})
	}

	httperrors.Write(w, http.StatusOK, resp)
}

func handleCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, paymentsvc.ErrNotAuthenticated):
		writeUnauthorized(w, "NOT_AUTHENTICATED", "authentication required to confirm checkout")
	case errors.Is(err, paymentsvc.ErrAmountMismatch):
		writeBadRequest(w, "AMOUNT_MISMATCH", "charged amount does not match the server-side total")
	case errors.Is(err, paymentsvc.ErrMissingMetadata):
		writeBadRequest(w, "INVALID_REQUEST", "capture payload is incomplete")
	case errors.Is(err, paymentsvc.ErrUnknownItem), errors.Is(err, purchasesvc.ErrUnknownItem):
		writeBadRequest(w, "UNKNOWN_ITEM", "cart references an unknown book")
	case errors.Is(err, purchasesvc.ErrValidation):
		writeBadRequest(w, "INVALID_REQUEST", "confirmation payload failed validation")
	case errors.Is(err, purchasesvc.ErrStoreFailure):
		writeInternal(w, "STORE_UNAVAILABLE", "purchase could not be recorded")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to confirm checkout")
	}
}
