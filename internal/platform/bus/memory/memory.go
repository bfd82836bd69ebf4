// Package memory provides an in-process bus with the same delivery
// contract as the broker-backed implementation: fanout to every subscriber,
// handler error means the delivery did not happen. Saga tests wire several
// domains over one memory bus and drive them deterministically; redelivery
// is simulated by publishing the same message again.
package memory

import (
	"context"
	"errors"
	"sync"

	"wattgrid/internal/platform/bus"
)

type subscription struct {
	handler     bus.Handler
	partition   int32
	partitioned bool
}

// Bus is a synchronous in-process pub/sub. Handlers run inline on the
// publishing goroutine, so a publish made from inside a handler is
// delivered before the outer publish returns. That mirrors the causal order
// the saga relies on while keeping tests free of sleeps.
type Bus struct {
	mu        sync.RWMutex
	subs      map[string][]subscription
	published map[string][]bus.Message
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		subs:      make(map[string][]subscription),
		published: make(map[string][]bus.Message),
	}
}

// Subscribe registers a handler for every message on a topic, the way a
// consumer group of its own would see it.
func (b *Bus) Subscribe(topic string, h bus.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], subscription{handler: h})
}

// SubscribePartition registers a handler for one partition of a topic,
// mirroring a replica that consumes exactly its assigned partition.
func (b *Bus) SubscribePartition(topic string, partition int32, h bus.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], subscription{handler: h, partition: partition, partitioned: true})
}

// Publish delivers to all non-partitioned subscribers of the topic.
func (b *Bus) Publish(ctx context.Context, topic string, key, value []byte) error {
	return b.deliver(ctx, bus.Message{Topic: topic, Partition: -1, Key: key, Value: value})
}

// PublishToPartition delivers to subscribers of the given partition plus
// any non-partitioned subscribers of the topic.
func (b *Bus) PublishToPartition(ctx context.Context, topic string, partition int32, key, value []byte) error {
	return b.deliver(ctx, bus.Message{Topic: topic, Partition: partition, Key: key, Value: value})
}

func (b *Bus) deliver(ctx context.Context, msg bus.Message) error {
	b.mu.Lock()
	// Offsets count per topic, which is enough for checkpoint-aware
	// handlers under test.
	msg.Offset = int64(len(b.published[msg.Topic]))
	b.published[msg.Topic] = append(b.published[msg.Topic], msg)
	subs := make([]subscription, len(b.subs[msg.Topic]))
	copy(subs, b.subs[msg.Topic])
	b.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		if sub.partitioned && sub.partition != msg.Partition {
			continue
		}
		delivered := msg
		if err := sub.handler.Handle(ctx, &delivered); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Published returns every message published to a topic, in order. Test
// helper; the broker-backed bus has no equivalent.
func (b *Bus) Published(topic string) []bus.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]bus.Message, len(b.published[topic]))
	copy(out, b.published[topic])
	return out
}
