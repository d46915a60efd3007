package dto

type WebhookAckResponse struct {
	OK              bool   `json:"ok"`
	Handled         bool   `json:"handled"`
	Reference       string `json:"reference,omitempty"`
	Recorded        int    `json:"recorded,omitempty"`
	AlreadyRecorded int    `json:"already_recorded,omitempty"`
}
