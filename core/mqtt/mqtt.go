// Package mqtt defines the messages exchanged with remote order producers
// and status consumers over MQTT. The Paho-based transport lives in
// infra/mqtt.
package mqtt

import (
	"errors"
	"strings"
)

// ErrNotConnected is returned when publishing without a broker connection.
var ErrNotConnected = errors.New("mqtt: not connected")

// Topics groups the topics derived from a common prefix.
type Topics struct {
	// Orders carries OrderMessage payloads from producers.
	Orders string
	// Receipts carries one Receipt per message read on Orders.
	Receipts string
	// Status carries one JSON StatusUpdate per tick.
	Status string
}

// NewTopics derives the topics for prefix, e.g. "skydispatch/orders".
func NewTopics(prefix string) Topics {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = "skydispatch"
	}
	return Topics{
		Orders:   prefix + "/orders",
		Receipts: prefix + "/orders/ack",
		Status:   prefix + "/status",
	}
}

// OrderMessage is the JSON payload submitted on the orders topic.
type OrderMessage struct {
	// ID is an optional correlation id echoed in the receipt.
	ID          string `json:"id,omitempty"`
	Time        int64  `json:"time"`
	Destination string `json:"destination"`
	Priority    string `json:"priority"`
}

// Receipt acknowledges an order message.
type Receipt struct {
	ID       string `json:"id"`
	Accepted bool   `json:"accepted"`
	Seq      uint64 `json:"seq,omitempty"`
	Error    string `json:"error,omitempty"`
}
