// Package bus defines the event-bus contracts shared by all domains. The
// broker delivers at-least-once with no ordering guarantee across topics,
// so every handler must be idempotent and safe to re-run to completion.
package bus

import "context"

// Topic names. Sync events fan out to every domain (one consumer group per
// domain); measurements are partitioned so all samples for a device land on
// one aggregation replica.
const (
	TopicSync            = "sync.events"
	TopicRawMeasurements = "measurements.raw"
	TopicMeasurements    = "measurements.ingest"
	TopicPush            = "notifications.push"
)

// Message is one delivery from the bus. Offset is the position on the
// partition the message arrived on; consumers that keep their own
// checkpoint persist Offset+1 as the place to resume.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
}

// Handler processes one delivery. Returning nil acknowledges the message;
// returning an error leaves it unacknowledged for broker redelivery, so a
// handler must only fail for conditions worth retrying. Bad payloads and
// stale references are logged and acknowledged.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, msg *Message) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

//go:generate mockgen -destination=busmock/publisher.go -package=busmock wattgrid/internal/platform/bus Publisher

// Publisher sends messages to the bus. Publishes are fire-and-forget from
// the saga's point of view: a handler that needs a reply waits for a
// separate inbound event, never synchronously.
type Publisher interface {
	// Publish sends to a topic, letting the broker pick the partition from
	// the key.
	Publish(ctx context.Context, topic string, key, value []byte) error

	// PublishToPartition pins the message to an explicit partition. Used by
	// the ingestion router, which owns the device-to-partition mapping.
	PublishToPartition(ctx context.Context, topic string, partition int32, key, value []byte) error
}
