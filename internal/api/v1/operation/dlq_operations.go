package operation

import "sriox/internal/api/v1/dto"

// Dead Letter Queue Operations

type RecordDeadLetterInput struct {
	Body dto.PubSubPushRequest `json:"body"`
}

type RecordDeadLetterOutput struct {
	// 204 No Content
}
