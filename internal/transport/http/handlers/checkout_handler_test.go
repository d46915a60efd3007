package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authsvc "github.com/hackura/cybershelf/internal/services/auth"
	"github.com/hackura/cybershelf/internal/transport/http/dto"
)

func postConfirm(t *testing.T, h *CheckoutHandler, body string, identity *authsvc.Identity) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/paypal/confirm", strings.NewReader(body))
	if identity != nil {
		req = req.WithContext(authsvc.WithIdentity(context.Background(), *identity))
	}
	rr := httptest.NewRecorder()
	h.PayPalConfirm(rr, req)
	return rr
}

func TestPayPalConfirmRequiresAuth(t *testing.T) {
	f := newHandlerFixture(t)
	h := NewCheckoutHandler(f.paypal, f.recorder)

	rr := postConfirm(t, h, `{"order_id": "pp-1", "items": [{"book_id": "book-1"}], "amount": "25.00"}`, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}

	var payload struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "NOT_AUTHENTICATED" {
		t.Fatalf("unexpected error code: %q", payload.Code)
	}
}

func TestPayPalConfirmRecordsPurchase(t *testing.T) {
	f := newHandlerFixture(t)
	h := NewCheckoutHandler(f.paypal, f.recorder)
	identity := &authsvc.Identity{BuyerID: "buyer-1", Email: "buyer@example.com", SID: "sid-1", Role: authsvc.RoleBuyer}

	rr := postConfirm(t, h, `{"order_id": "pp-2", "items": [{"book_id": "book-1"}], "amount": "25.00"}`, identity)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d body %s", rr.Code, rr.Body.String())
	}

	var payload dto.PayPalConfirmResponse
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.OK || payload.Reference != "pp-2" || len(payload.Items) != 1 {
		t.Fatalf("unexpected response: %+v", payload)
	}
	if payload.Items[0].FinalPrice != "25.00" || payload.Items[0].AlreadyRecorded {
		t.Fatalf("unexpected item: %+v", payload.Items[0])
	}

	owned, err := f.store.HasPurchase(context.Background(), "buyer-1", "book-1")
	if err != nil || !owned {
		t.Fatalf("expected purchase row to exist, owned=%v err=%v", owned, err)
	}
}

func TestPayPalConfirmAmountMismatch(t *testing.T) {
	f := newHandlerFixture(t)
	h := NewCheckoutHandler(f.paypal, f.recorder)
	identity := &authsvc.Identity{BuyerID: "buyer-1", SID: "sid-1", Role: authsvc.RoleBuyer}

	rr := postConfirm(t, h, `{"order_id": "pp-3", "items": [{"book_id": "book-1"}], "amount": "1.00"}`, identity)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d", rr.Code)
	}

	var payload struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "AMOUNT_MISMATCH" {
		t.Fatalf("unexpected error code: %q", payload.Code)
	}
}

func TestPayPalConfirmBadAmount(t *testing.T) {
	f := newHandlerFixture(t)
	h := NewCheckoutHandler(f.paypal, f.recorder)
	identity := &authsvc.Identity{BuyerID: "buyer-1", SID: "sid-1", Role: authsvc.RoleBuyer}

	rr := postConfirm(t, h, `{"order_id": "pp-4", "items": [{"book_id": "book-1"}], "amount": "not-a-number"}`, identity)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d", rr.Code)
	}
}

func TestPayPalConfirmUnknownBook(t *testing.T) {
	f := newHandlerFixture(t)
	h := NewCheckoutHandler(f.paypal, f.recorder)
	identity := &authsvc.Identity{BuyerID: "buyer-1", SID: "sid-1", Role: authsvc.RoleBuyer}

	rr := postConfirm(t, h, `{"order_id": "pp-5", "items": [{"book_id": "book-404"}], "amount": "25.00"}`, identity)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d", rr.Code)
	}

	var payload struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "UNKNOWN_ITEM" {
		t.Fatalf("unexpected error code: %q", payload.Code)
	}
}
