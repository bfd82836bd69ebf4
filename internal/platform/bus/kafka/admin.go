package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// TopicSpec declares a topic and its partition count.
type TopicSpec struct {
	Name       string
	Partitions int32
}

// EnsureTopics creates the declared topics if they do not exist yet. Every
// service calls this at startup with the topics it touches so a fresh
// broker works without manual provisioning. Changing a partition count on
// an existing topic is an operator action, not something done here.
func EnsureTopics(ctx context.Context, seeds []string, logger *slog.Logger, specs ...TopicSpec) error {
	client, err := kgo.NewClient(kgo.SeedBrokers(seeds...))
	if err != nil {
		return fmt.Errorf("connect for topic bootstrap: %w", err)
	}
	defer client.Close()

	admin := kadm.NewClient(client)
	for _, spec := range specs {
		resp, err := admin.CreateTopics(ctx, spec.Partitions, 1, nil, spec.Name)
		if err != nil {
			return fmt.Errorf("create topic %s: %w", spec.Name, err)
		}
		for _, result := range resp {
			if result.Err != nil && !errors.Is(result.Err, kerr.TopicAlreadyExists) {
				return fmt.Errorf("create topic %s: %w", result.Topic, result.Err)
			}
			if result.Err == nil {
				logger.Info("created topic", "topic", result.Topic, "partitions", spec.Partitions)
			}
		}
	}
	return nil
}
