package dto

// PubSubPushRequest is the body of a Pub/Sub push delivery. Pub/Sub adds
// fields over time, so unknown properties are accepted.
type PubSubPushRequest struct {
	_               struct{}      `additionalProperties:"true"`
	Message         PubSubMessage `json:"message"`
	Subscription    string        `json:"subscription"`
	DeliveryAttempt int           `json:"deliveryAttempt,omitempty"`
}

type PubSubMessage struct {
	_          struct{}          `additionalProperties:"true"`
	Data       string            `json:"data"` // Base64-encoded
	MessageID  string            `json:"messageId"`
	Attributes map[string]string `json:"attributes,omitempty"`
}
