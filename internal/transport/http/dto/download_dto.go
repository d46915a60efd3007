package dto

import "time"

type DownloadLinkResponse struct {
	BookID    string    `json:"book_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type DownloadLinksResponse struct {
	Reference string                 `json:"reference"`
	Links     []DownloadLinkResponse `json:"links"`
}

type DownloadTokenRequest struct {
	BookID string `json:"book_id"`
}

type DownloadTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
