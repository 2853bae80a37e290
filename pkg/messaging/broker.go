package messaging

import (
	"context"
	"time"
)

// Inventory event channels.
const (
	ChannelMedicineCreated  = "medicine.created"
	ChannelMedicineApproved = "medicine.approved"
	ChannelLowStock         = "inventory.low_stock"
)

// Event is the wire envelope for inventory events.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
