package payments

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hackura/cybershelf/internal/domain/enums"
)

const paystackChargeSuccess = "charge.success"

// PaystackAdapter turns Paystack webhook deliveries into ConfirmedEvents.
// Trust comes from the HMAC-SHA512 signature Paystack computes over the raw
// request body with the shared secret key.
type PaystackAdapter struct {
	secret []byte
}

func NewPaystackAdapter(secret string) (*PaystackAdapter, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("paystack webhook secret is required")
	}
	return &PaystackAdapter{secret: []byte(secret)}, nil
}

type paystackEnvelope struct {
	Event string       `json:"event"`
	Data  paystackData `json:"data"`
}

type paystackData struct {
	Reference string           `json:"reference"`
	Amount    int64            `json:"amount"`
	Currency  string           `json:"currency"`
	Metadata  paystackMetadata `json:"metadata"`
}

type paystackMetadata struct {
	BuyerID      string          `json:"buyer_id"`
	BuyerEmail   string          `json:"buyer_email"`
	DiscountCode string          `json:"discount_code"`
	Cart         json.RawMessage `json:"cart"`
}

// VerifySignature checks the header signature against an HMAC computed over
// the raw body. Comparison is constant-time. Any mismatch fails closed.
func (a *PaystackAdapter) VerifySignature(body []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrSignatureInvalid
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return ErrSignatureInvalid
	}

	mac := hmac.New(sha512.New, a.secret)
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), provided) {
		return ErrSignatureInvalid
	}

	return nil
}

// HandleEvent verifies the delivery and, for charge.success events, produces
// a ConfirmedEvent. Other event types are acknowledged without side effect
// (ok=false, nil error). Nothing is parsed before the signature passes.
func (a *PaystackAdapter) HandleEvent(body []byte, signature string) (ConfirmedEvent, bool, error) {
	if err := a.VerifySignature(body, signature); err != nil {
		return ConfirmedEvent{}, false, err
	}

	var envelope paystackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ConfirmedEvent{}, false, fmt.Errorf("decode paystack envelope: %w", err)
	}

	if envelope.Event != paystackChargeSuccess {
		return ConfirmedEvent{}, false, nil
	}

	reference := strings.TrimSpace(envelope.Data.Reference)
	buyerID := strings.TrimSpace(envelope.Data.Metadata.BuyerID)
	if reference == "" || buyerID == "" {
		return ConfirmedEvent{}, false, ErrMissingMetadata
	}

	items, err := parseCartSnapshot(envelope.Data.Metadata.Cart)
	if err != nil {
		return ConfirmedEvent{}, false, err
	}

	return ConfirmedEvent{
		Provider:      enums.ProviderPaystack,
		Reference:     reference,
		BuyerID:       buyerID,
		BuyerEmail:    strings.TrimSpace(envelope.Data.Metadata.BuyerEmail),
		Items:         items,
		AmountCharged: decimal.New(envelope.Data.Amount, -2),
		DiscountCode:  strings.TrimSpace(envelope.Data.Metadata.DiscountCode),
	}, true, nil
}

// parseCartSnapshot accepts the cart either as a JSON array or as a
// JSON-serialized string of one, which is how it survives the metadata
// size constraints on the provider side.
func parseCartSnapshot(raw json.RawMessage) ([]CartItem, error) {
	if len(raw) == 0 {
		return nil, ErrMissingMetadata
	}

	payload := []byte(raw)
	var nested string
	if err := json.Unmarshal(raw, &nested); err == nil {
		payload = []byte(nested)
	}

	var items []CartItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, ErrMissingMetadata
	}

	cleaned := make([]CartItem, 0, len(items))
	for _, item := range items {
		item.BookID = strings.TrimSpace(item.BookID)
		if item.BookID == "" {
			return nil, ErrMissingMetadata
		}
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		cleaned = append(cleaned, item)
	}
	if len(cleaned) == 0 {
		return nil, ErrMissingMetadata
	}

	return cleaned, nil
}
