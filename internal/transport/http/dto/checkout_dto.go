package dto

type CartItemRequest struct {
	BookID   string `json:"book_id"`
	Title    string `json:"title,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
}

type PayPalConfirmRequest struct {
	OrderID      string            `json:"order_id"`
	Items        []CartItemRequest `json:"items"`
	Amount       string            `json:"amount"`
	DiscountCode string            `json:"discount_code,omitempty"`
}

type PurchaseItemResponse struct {
	BookID          string `json:"book_id"`
	Title           string `json:"title"`
	FinalPrice      string `json:"final_price"`
	AlreadyRecorded bool   `json:"already_recorded"`
}

type PayPalConfirmResponse struct {
	OK        bool                   `json:"ok"`
	Reference string                 `json:"reference"`
	Items     []PurchaseItemResponse `json:"items"`
}
