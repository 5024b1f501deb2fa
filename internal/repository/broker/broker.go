package broker

import (
	"errors"
	"slices"

	"github.com/goccy/go-json"
)

var ErrBackpressure = errors.New("broker outbound queue is full")

const (
	roomTopicPrefix = "room:"
	connTopicPrefix = "conn:"
)

// Message is one server to client event. Except lists connection ids that
// must not receive it.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Except  []string        `json:"except,omitempty"`
}

func NewMessage(msgType string, payload any, except ...string) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{Type: msgType, Payload: data, Except: except}, nil
}

func (m *Message) Excludes(connectionID string) bool {
	return slices.Contains(m.Except, connectionID)
}

// Subscriber is a local connection able to receive messages. Deliver must not
// block. Close disconnects the subscriber after a message addressed to it was
// dropped.
type Subscriber interface {
	ID() string
	Deliver(msg *Message)
	Close()
}

func RoomTopic(code string) string {
	return roomTopicPrefix + code
}

func ConnTopic(connectionID string) string {
	return connTopicPrefix + connectionID
}

// ParseConnTopic returns the connection id of a direct topic.
func ParseConnTopic(topic string) (string, bool) {
	if len(topic) <= len(connTopicPrefix) || topic[:len(connTopicPrefix)] != connTopicPrefix {
		return "", false
	}

	return topic[len(connTopicPrefix):], true
}
