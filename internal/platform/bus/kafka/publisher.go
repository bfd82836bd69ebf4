package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Publisher sends messages through franz-go with synchronous produce
// semantics: Publish does not return until the broker acknowledged the
// write, so saga steps can roll back their local write when the publish
// fails.
type Publisher struct {
	client *kgo.Client
}

// PublisherOption configures a Publisher.
type PublisherOption func(*[]kgo.Opt)

// WithManualPartitions makes the publisher honor Record.Partition. The
// ingestion router uses this; every other producer keys records and lets
// the broker place them.
func WithManualPartitions() PublisherOption {
	return func(opts *[]kgo.Opt) {
		*opts = append(*opts, kgo.RecordPartitioner(kgo.ManualPartitioner()))
	}
}

// NewPublisher connects a producer-only client to the broker.
func NewPublisher(seeds []string, opts ...PublisherOption) (*Publisher, error) {
	kopts := []kgo.Opt{kgo.SeedBrokers(seeds...)}
	for _, opt := range opts {
		opt(&kopts)
	}
	client, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, fmt.Errorf("create bus publisher: %w", err)
	}
	return &Publisher{client: client}, nil
}

// Publish sends a keyed record and waits for broker acknowledgment.
func (p *Publisher) Publish(ctx context.Context, topic string, key, value []byte) error {
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		publishErrorsTotal.WithLabelValues(topic).Inc()
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	publishedTotal.WithLabelValues(topic).Inc()
	return nil
}

// PublishToPartition pins the record to an explicit partition. Requires a
// publisher built with WithManualPartitions.
func (p *Publisher) PublishToPartition(ctx context.Context, topic string, partition int32, key, value []byte) error {
	record := &kgo.Record{Topic: topic, Partition: partition, Key: key, Value: value}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		publishErrorsTotal.WithLabelValues(topic).Inc()
		return fmt.Errorf("publish to %s[%d]: %w", topic, partition, err)
	}
	publishedTotal.WithLabelValues(topic).Inc()
	return nil
}

// Close flushes and releases the underlying client.
func (p *Publisher) Close() {
	p.client.Close()
}
