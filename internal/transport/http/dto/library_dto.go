package dto

import "time"

type LibraryItemResponse struct {
	BookID      string    `json:"book_id"`
	Title       string    `json:"title"`
	Reference   string    `json:"reference"`
	FinalPrice  string    `json:"final_price"`
	PurchasedAt time.Time `json:"purchased_at"`
}

type LibraryResponse struct {
	Items []LibraryItemResponse `json:"items"`
}
