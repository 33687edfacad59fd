package live

import (
	"time"

	"github.com/askwhyharsh/proxipal/internal/location"
)

const (
	MessageTypeLocation = "location"
	MessageTypePing     = "ping"
	MessageTypePong     = "pong"
	MessageTypeError    = "error"
)

type Message struct {
	Type      string           `json:"type"`
	Location  *location.Update `json:"location,omitempty"`
	Content   string           `json:"content,omitempty"`
	Timestamp int64            `json:"timestamp"`
}

type IncomingMessage struct {
	Type string `json:"type"`
}

func NewLocationMessage(update location.Update) *Message {
	return &Message{
		Type:      MessageTypeLocation,
		Location:  &update,
		Timestamp: update.RecordedAt.Unix(),
	}
}

func NewErrorMessage(errMsg string) *Message {
	return &Message{
		Type:      MessageTypeError,
		Content:   errMsg,
		Timestamp: time.Now().Unix(),
	}
}
