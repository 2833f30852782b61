package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewMessage encodes a message with the given action and payload.
func NewMessage(action string, payload interface{}) []byte {
	b, err := json.Marshal(Message{Action: action, Payload: payload})
	if err != nil {
		return NewErrorMessage("failed to encode message")
	}
	return b
}

// NewErrorMessage encodes an error message for a client.
func NewErrorMessage(text string) []byte {
	b, _ := json.Marshal(Message{Action: "error", Payload: text})
	return b
}
