package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToOwner(formID string, msgType string, payload interface{})
	DisconnectForm(formID string)
}
