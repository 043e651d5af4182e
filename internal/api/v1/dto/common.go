package dto

// MessageResponseDTO is the envelope for operations without a payload.
type MessageResponseDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
